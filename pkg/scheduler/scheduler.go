package scheduler

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Ticks counts kernel ticks. Every timeout is expressed in ticks.
type Ticks uint64

// Priority of a task; higher is more urgent.
type Priority int

const (
	WordSize             = 4
	TaskControlBlockSize = 96
	DefaultStackDepth    = 240
)

type Config struct {
	// TickPeriod is the wall time of one tick. Zero leaves ticking to the caller of Tick.
	TickPeriod    time.Duration `yaml:"tick_period"`
	MaxPriorities int           `yaml:"max_priorities"`
	// HeapSize bounds task and queue allocations in bytes. Zero means unbounded.
	HeapSize int `yaml:"heap_size"`
}

func DefaultConfig() Config {
	return Config{
		TickPeriod:    time.Millisecond,
		MaxPriorities: 5,
		HeapSize:      16 * 1024,
	}
}

// Kernel is a single simulated processor. Tasks are goroutines, but only the
// task holding the processor executes; the others wait on their resume channel.
// The running task gives the processor up at kernel points only.
type Kernel struct {
	l     *zap.Logger
	cfg   Config
	clock clockwork.Clock
	halt  func(f *Fault)

	mu       sync.Mutex
	now      Ticks
	seq      uint64
	tasks    []*Task
	ready    []fifo[*Task]
	delayed  *btree.BTreeG[*Task]
	current  *Task
	heapUsed int
	started  bool
	stopping bool
	fault    *Fault

	isIdle bool
	idle   chan struct{}

	stopped chan struct{}
	wg      sync.WaitGroup
}

func New(l *zap.Logger, cfg Config, opts ...Option) *Kernel {
	if cfg.MaxPriorities <= 0 {
		cfg.MaxPriorities = DefaultConfig().MaxPriorities
	}

	k := &Kernel{
		l:       l.With(zap.String("component", "scheduler")),
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		halt:    func(f *Fault) { panic(f) },
		ready:   make([]fifo[*Task], cfg.MaxPriorities),
		delayed: btree.NewG(2, wakesBefore),
		idle:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(k)
	}
	return k
}

func wakesBefore(a, b *Task) bool {
	if a.deadline != b.deadline {
		return a.deadline < b.deadline
	}
	return a.waitSeq < b.waitSeq
}

func (k *Kernel) Config() Config {
	return k.cfg
}

// Alloc reserves n bytes of the kernel heap.
func (k *Kernel) Alloc(n int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.alloc(n)
}

func (k *Kernel) alloc(n int) error {
	if k.cfg.HeapSize > 0 && k.heapUsed+n > k.cfg.HeapSize {
		return fmt.Errorf("%w: requested %d bytes with %d of %d in use",
			ErrOutOfMemory, n, k.heapUsed, k.cfg.HeapSize)
	}

	k.heapUsed += n
	return nil
}

func (k *Kernel) CreateTask(spec TaskSpec) (*Task, error) {
	if spec.Body == nil {
		return nil, fmt.Errorf("task %q: nil body", spec.Name)
	}
	if spec.Priority < 0 || int(spec.Priority) >= k.cfg.MaxPriorities {
		return nil, fmt.Errorf("task %q: %w: %d not in [0, %d)",
			spec.Name, ErrInvalidPriority, spec.Priority, k.cfg.MaxPriorities)
	}

	depth := spec.StackDepth
	if depth <= 0 {
		depth = DefaultStackDepth
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started || k.stopping {
		return nil, fmt.Errorf("task %q: %w", spec.Name, ErrStarted)
	}

	if err := k.alloc(depth*WordSize + TaskControlBlockSize); err != nil {
		k.l.Error("task creation failed",
			zap.String("task", spec.Name),
			zap.Error(err))
		return nil, fmt.Errorf("task %q: %w", spec.Name, err)
	}

	t := &Task{
		k:          k,
		name:       spec.Name,
		prio:       spec.Priority,
		param:      spec.Param,
		stackDepth: depth,
		body:       spec.Body,
		state:      Ready,
		resume:     make(chan struct{}, 1),
	}

	k.tasks = append(k.tasks, t)
	k.ready[t.prio].pushBack(t)

	k.l.Debug("task created",
		zap.String("task", t.name),
		zap.Int("priority", int(t.prio)),
		zap.Int("stack_depth", depth))

	return t, nil
}

// Run starts the scheduler and blocks until ctx is done, Stop is called or a
// fault halts the kernel. All task goroutines have exited when Run returns.
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.Lock()
	if k.stopping {
		err := k.stopErr()
		k.mu.Unlock()
		return err
	}
	if k.started {
		k.mu.Unlock()
		return ErrStarted
	}

	k.started = true
	for _, t := range k.tasks {
		k.wg.Add(1)
		go t.run()
	}
	k.kick()
	k.mu.Unlock()

	k.l.Info("scheduler started",
		zap.Int("tasks", len(k.tasks)),
		zap.Duration("tick_period", k.cfg.TickPeriod))

	if k.cfg.TickPeriod > 0 {
		k.wg.Add(1)
		go k.tickLoop()
	}

	select {
	case <-ctx.Done():
		k.Stop()
	case <-k.stopped:
	}
	k.wg.Wait()

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.fault != nil {
		return k.fault
	}
	return ctx.Err()
}

func (k *Kernel) stopErr() error {
	if k.fault != nil {
		return k.fault
	}
	return ErrStopped
}

// Stop suspends every task. Their goroutines exit at their next kernel point.
func (k *Kernel) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.stop()
}

func (k *Kernel) stop() {
	if k.stopping {
		return
	}

	k.stopping = true
	for _, t := range k.tasks {
		t.state = Suspended
	}
	k.current = nil
	close(k.stopped)

	k.l.Info("scheduler stopped", zap.Uint64("tick", uint64(k.now)))
}

// Tick advances the tick counter and readies every task whose timeout expired.
func (k *Kernel) Tick() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stopping {
		return
	}

	k.now++
	for {
		t, ok := k.delayed.Min()
		if !ok || t.deadline > k.now {
			break
		}

		k.delayed.DeleteMin()
		if t.wait != nil {
			t.wait.remove(t)
			t.wait = nil
		}
		t.timedOut = true
		k.makeReady(t)
	}

	k.kick()
}

func (k *Kernel) Now() Ticks {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.now
}

// WaitIdle blocks until no task is ready to run.
func (k *Kernel) WaitIdle(ctx context.Context) error {
	k.mu.Lock()
	idle := k.idle
	k.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-k.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

type TaskInfo struct {
	Name     string   `json:"name"`
	Priority Priority `json:"priority"`
	State    State    `json:"state"`
	Switches uint64   `json:"switches"`
}

type Snapshot struct {
	Tick     Ticks      `json:"tick"`
	Running  string     `json:"running,omitempty"`
	HeapUsed int        `json:"heap_used"`
	HeapSize int        `json:"heap_size"`
	Tasks    []TaskInfo `json:"tasks"`
}

func (k *Kernel) Snapshot() Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()

	s := Snapshot{
		Tick:     k.now,
		HeapUsed: k.heapUsed,
		HeapSize: k.cfg.HeapSize,
		Tasks:    make([]TaskInfo, 0, len(k.tasks)),
	}
	if k.current != nil {
		s.Running = k.current.name
	}

	for _, t := range k.tasks {
		s.Tasks = append(s.Tasks, TaskInfo{
			Name:     t.name,
			Priority: t.prio,
			State:    t.state,
			Switches: t.switches,
		})
	}
	return s
}

// The helpers below expect k.mu to be held.

func (k *Kernel) makeReady(t *Task) {
	t.state = Ready
	k.ready[t.prio].pushBack(t)
}

func (k *Kernel) block(t *Task, wl *WaitList, timeout Ticks) {
	t.state = Blocked
	t.timedOut = false
	t.wait = wl
	if wl != nil {
		wl.insert(t)
	}

	k.seq++
	t.waitSeq = k.seq
	if timeout > math.MaxUint64-k.now {
		t.deadline = math.MaxUint64
	} else {
		t.deadline = k.now + timeout
	}
	k.delayed.ReplaceOrInsert(t)
}

func (k *Kernel) unblock(t *Task) {
	k.delayed.Delete(t)
	t.wait = nil
	t.timedOut = false
	k.makeReady(t)
}

func (k *Kernel) topReady() Priority {
	for p := len(k.ready) - 1; p >= 0; p-- {
		if k.ready[p].len() > 0 {
			return Priority(p)
		}
	}
	return -1
}

// dispatch hands the processor to the highest-priority ready task.
func (k *Kernel) dispatch() *Task {
	var next *Task
	for p := len(k.ready) - 1; p >= 0 && next == nil; p-- {
		next, _ = k.ready[p].popFront()
	}

	k.current = next
	if next == nil {
		if !k.isIdle {
			k.isIdle = true
			close(k.idle)
		}
		return nil
	}

	if k.isIdle {
		k.isIdle = false
		k.idle = make(chan struct{})
	}
	next.state = Running
	next.switches++
	return next
}

// kick dispatches onto an idle processor.
func (k *Kernel) kick() {
	if !k.started || k.stopping || k.current != nil {
		return
	}

	if next := k.dispatch(); next != nil {
		next.signal()
	}
}

// switchFrom gives the processor away on behalf of t and releases k.mu.
// It returns once t holds the processor again.
func (k *Kernel) switchFrom(t *Task) {
	next := k.dispatch()
	if next == t {
		k.mu.Unlock()
		return
	}

	if next != nil {
		next.signal()
	}
	k.mu.Unlock()

	t.await()
}

// enter takes k.mu on behalf of the running task t.
func (k *Kernel) enter(t *Task) {
	k.mu.Lock()
	if k.stopping {
		k.mu.Unlock()
		runtime.Goexit()
	}
	k.mustBeCurrent(t)
}

// mustBeCurrent panics with k.mu and every held lock released.
func (k *Kernel) mustBeCurrent(t *Task, held ...sync.Locker) {
	if k.current != t {
		k.mu.Unlock()
		for _, l := range held {
			l.Unlock()
		}
		panic(fmt.Sprintf("scheduler: kernel call from task %q which is not running", t.name))
	}
}

func (k *Kernel) exitIfStopped() {
	select {
	case <-k.stopped:
		runtime.Goexit()
	default:
	}
}
