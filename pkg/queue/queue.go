package queue

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

var (
	ErrFull            = errors.New("queue full")
	ErrEmpty           = errors.New("queue empty")
	ErrInvalidCapacity = errors.New("invalid queue capacity")
)

// HeaderSize is the heap cost of a queue on top of its storage.
const HeaderSize = 80

// Queue is a fixed-capacity FIFO shared by kernel tasks. Send and Receive
// block the calling task for a bounded number of ticks.
type Queue[T any] struct {
	k    *scheduler.Kernel
	name string

	mu     sync.Mutex
	buf    []T
	head   int
	length int

	senders   *scheduler.WaitList
	receivers *scheduler.WaitList
}

func New[T any](k *scheduler.Kernel, name string, capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue %q: %w: %d", name, ErrInvalidCapacity, capacity)
	}

	var zero T
	if err := k.Alloc(capacity*int(unsafe.Sizeof(zero)) + HeaderSize); err != nil {
		return nil, fmt.Errorf("queue %q: %w", name, err)
	}

	return &Queue[T]{
		k:         k,
		name:      name,
		buf:       make([]T, capacity),
		senders:   k.NewWaitList(),
		receivers: k.NewWaitList(),
	}, nil
}

// Send appends v at the tail. While the queue is full t blocks for at most
// timeout ticks, after which ErrFull is returned and the queue is untouched.
func (q *Queue[T]) Send(t *scheduler.Task, v T, timeout scheduler.Ticks) error {
	start := q.k.Now()

	q.mu.Lock()
	for q.length == len(q.buf) {
		elapsed := q.k.Now() - start
		if elapsed >= timeout {
			q.mu.Unlock()
			t.Reschedule()
			return ErrFull
		}
		q.senders.Wait(t, timeout-elapsed, &q.mu)
	}

	q.put(v)
	q.receivers.WakeOne()
	q.mu.Unlock()

	t.Reschedule()
	return nil
}

// Receive removes the head. While the queue is empty t blocks for at most
// timeout ticks, after which ErrEmpty is returned.
func (q *Queue[T]) Receive(t *scheduler.Task, timeout scheduler.Ticks) (T, error) {
	v, err := q.wait(t, timeout)
	if err != nil {
		return v, err
	}

	q.take()
	q.senders.WakeOne()
	q.mu.Unlock()

	t.Reschedule()
	return v, nil
}

// Peek is Receive without removing the head.
func (q *Queue[T]) Peek(t *scheduler.Task, timeout scheduler.Ticks) (T, error) {
	v, err := q.wait(t, timeout)
	if err != nil {
		return v, err
	}

	// The head is still there for the next receiver in line.
	q.receivers.WakeOne()
	q.mu.Unlock()

	t.Reschedule()
	return v, nil
}

// wait returns the head with q.mu held, or an error with q.mu released.
func (q *Queue[T]) wait(t *scheduler.Task, timeout scheduler.Ticks) (T, error) {
	start := q.k.Now()

	q.mu.Lock()
	for q.length == 0 {
		elapsed := q.k.Now() - start
		if elapsed >= timeout {
			q.mu.Unlock()
			t.Reschedule()

			var zero T
			return zero, ErrEmpty
		}
		q.receivers.Wait(t, timeout-elapsed, &q.mu)
	}

	return q.buf[q.head], nil
}

// TrySend is the non-blocking Send. It may be called from any goroutine.
func (q *Queue[T]) TrySend(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.length == len(q.buf) {
		return ErrFull
	}

	q.put(v)
	q.receivers.WakeOne()
	return nil
}

// TryReceive is the non-blocking Receive. It may be called from any goroutine.
func (q *Queue[T]) TryReceive() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.length == 0 {
		var zero T
		return zero, ErrEmpty
	}

	v := q.take()
	q.senders.WakeOne()
	return v, nil
}

func (q *Queue[T]) put(v T) {
	q.buf[(q.head+q.length)%len(q.buf)] = v
	q.length++
}

func (q *Queue[T]) take() T {
	var zero T

	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.length--
	return v
}

func (q *Queue[T]) Name() string {
	return q.name
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.length
}

func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Spaces returns the number of free slots.
func (q *Queue[T]) Spaces() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.buf) - q.length
}

// Waiting returns how many tasks are blocked sending and receiving.
func (q *Queue[T]) Waiting() (senders, receivers int) {
	return q.senders.Len(), q.receivers.Len()
}
