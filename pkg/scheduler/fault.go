package scheduler

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrOutOfMemory     = errors.New("kernel heap exhausted")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrStarted         = errors.New("scheduler already started")
	ErrStopped         = errors.New("scheduler stopped")
)

// Code identifies why the kernel halted. The value doubles as the process exit status.
type Code int

const (
	CodeCreationFailure Code = 3
	CodeResourceFault   Code = 4
)

func (c Code) String() string {
	switch c {
	case CodeCreationFailure:
		return "creation_failure"
	case CodeResourceFault:
		return "resource_fault"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Fault is the cause handed to the halt function. There is no recovery from a fault.
type Fault struct {
	Code  Code
	Task  string
	Cause error
}

func (f *Fault) Error() string {
	if f.Task != "" {
		return fmt.Sprintf("%s in task %q: %v", f.Code, f.Task, f.Cause)
	}
	return fmt.Sprintf("%s: %v", f.Code, f.Cause)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// MallocFailed is the hook for a task or queue that could not be allocated at startup.
func (k *Kernel) MallocFailed(cause error) {
	k.raise(&Fault{Code: CodeCreationFailure, Cause: cause})
}

// StackOverflow is the hook for a running task whose stack bound was violated.
// Stack depth is not measured, so this fires when the host calls it or when a
// panic escapes a task body.
func (k *Kernel) StackOverflow(task string, cause error) {
	k.raise(&Fault{Code: CodeResourceFault, Task: task, Cause: cause})
}

func (k *Kernel) raise(f *Fault) {
	k.mu.Lock()
	if k.fault == nil {
		k.fault = f
	}
	k.stop()
	k.mu.Unlock()

	k.l.Error("kernel halted",
		zap.Stringer("code", f.Code),
		zap.String("task", f.Task),
		zap.Error(f.Cause))

	k.halt(f)
}

// Fault returns the fault that halted the kernel, or nil.
func (k *Kernel) Fault() *Fault {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.fault
}
