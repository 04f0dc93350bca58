package scheduler

import (
	"fmt"

	"go.uber.org/zap"
)

type State int32

const (
	Suspended State = iota
	Ready
	Running
	Blocked
)

var stateNames = [...]string{
	Suspended: "suspended",
	Ready:     "ready",
	Running:   "running",
	Blocked:   "blocked",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type TaskFunc func(t *Task)

type TaskSpec struct {
	Name     string
	Priority Priority
	// StackDepth in words. Zero selects DefaultStackDepth. It is charged to
	// the heap only; the kernel does not police the bound.
	StackDepth int
	// Param tells apart instances sharing one body.
	Param any
	Body  TaskFunc
}

type Task struct {
	k          *Kernel
	name       string
	prio       Priority
	param      any
	stackDepth int
	body       TaskFunc

	resume chan struct{}

	// guarded by k.mu
	state    State
	switches uint64
	wait     *WaitList
	deadline Ticks
	waitSeq  uint64
	timedOut bool
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) Priority() Priority {
	return t.prio
}

func (t *Task) Param() any {
	return t.param
}

func (t *Task) State() State {
	t.k.mu.Lock()
	defer t.k.mu.Unlock()

	return t.state
}

// Yield moves t behind the other ready tasks of its priority.
func (t *Task) Yield() {
	k := t.k
	k.enter(t)

	t.state = Ready
	k.ready[t.prio].pushBack(t)
	k.switchFrom(t)
}

// Reschedule hands the processor to a higher-priority ready task, if there is one.
// The preempted task keeps its place at the head of its ready list.
func (t *Task) Reschedule() {
	k := t.k
	k.enter(t)

	if k.topReady() <= t.prio {
		k.mu.Unlock()
		return
	}

	t.state = Ready
	k.ready[t.prio].pushFront(t)
	k.switchFrom(t)
}

// Delay blocks t for the given number of ticks. Delay(0) is Yield.
func (t *Task) Delay(ticks Ticks) {
	if ticks == 0 {
		t.Yield()
		return
	}

	k := t.k
	k.enter(t)

	k.block(t, nil, ticks)
	k.switchFrom(t)
}

func (t *Task) signal() {
	select {
	case t.resume <- struct{}{}:
	default:
	}
}

func (t *Task) await() {
	select {
	case <-t.resume:
	case <-t.k.stopped:
	}
	t.k.exitIfStopped()
}

func (t *Task) run() {
	k := t.k
	defer k.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			k.StackOverflow(t.name, fmt.Errorf("task panicked: %v", r))
		}
	}()

	t.await()
	t.body(t)
	k.exit(t)
}

// exit deletes a task whose body returned.
func (k *Kernel) exit(t *Task) {
	k.enter(t)

	t.state = Suspended
	k.l.Info("task deleted", zap.String("task", t.name))

	if next := k.dispatch(); next != nil {
		next.signal()
	}
	k.mu.Unlock()
}
