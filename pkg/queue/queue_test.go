package queue

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"gitlab.com/justnurik/luxq/pkg/scheduler"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newKernel(t *testing.T, heap int) *scheduler.Kernel {
	return scheduler.New(zaptest.NewLogger(t), scheduler.Config{MaxPriorities: 5, HeapSize: heap})
}

func startKernel(t *testing.T, k *scheduler.Kernel) {
	done := make(chan error, 1)
	go func() {
		done <- k.Run(context.Background())
	}()

	t.Cleanup(func() {
		k.Stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("scheduler did not stop")
		}
	})
}

func waitIdle(t *testing.T, k *scheduler.Kernel) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, k.WaitIdle(ctx))
}

func spawn(t *testing.T, k *scheduler.Kernel, name string, prio scheduler.Priority, body scheduler.TaskFunc) *scheduler.Task {
	task, err := k.CreateTask(scheduler.TaskSpec{Name: name, Priority: prio, Body: body})
	require.NoError(t, err)
	return task
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) get() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return slices.Clone(j.entries)
}

func TestQueue_RoundTrip(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 10)
	require.NoError(t, err)

	got := make(chan int, 1)
	spawn(t, k, "rt", 1, func(task *scheduler.Task) {
		assert.NoError(t, q.Send(task, 42, 0))
		v, err := q.Receive(task, 0)
		assert.NoError(t, err)
		got <- v
	})

	startKernel(t, k)
	assert.Equal(t, 42, <-got)
	assert.Zero(t, q.Len())
}

func TestQueue_FIFO(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 10)
	require.NoError(t, err)

	got := make(chan []int, 1)
	spawn(t, k, "fifo", 1, func(task *scheduler.Task) {
		for v := range 10 {
			assert.NoError(t, q.Send(task, v+1, 0))
		}

		var out []int
		for range 10 {
			v, err := q.Receive(task, 0)
			assert.NoError(t, err)
			out = append(out, v)
		}
		got <- out
	})

	startKernel(t, k)

	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if diff := cmp.Diff(want, <-got); diff != "" {
		t.Errorf("pop order mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_FullWithZeroTimeout(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 10)
	require.NoError(t, err)

	result := make(chan error, 1)
	spawn(t, k, "filler", 1, func(task *scheduler.Task) {
		for v := range 10 {
			assert.NoError(t, q.Send(task, v, 0))
		}
		result <- q.Send(task, 99, 0)
	})

	startKernel(t, k)

	require.ErrorIs(t, <-result, ErrFull)
	assert.Equal(t, 10, q.Len())
	assert.Zero(t, q.Spaces())
}

func TestQueue_SendTimesOutAfterTicks(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 2)
	require.NoError(t, err)
	require.NoError(t, q.TrySend(1))
	require.NoError(t, q.TrySend(2))

	result := make(chan error, 1)
	sender := spawn(t, k, "sender", 1, func(task *scheduler.Task) {
		result <- q.Send(task, 3, 5)
	})

	startKernel(t, k)
	waitIdle(t, k)

	for range 4 {
		k.Tick()
	}
	assert.Equal(t, scheduler.Blocked, sender.State())
	senders, _ := q.Waiting()
	assert.Equal(t, 1, senders)

	k.Tick()
	require.ErrorIs(t, <-result, ErrFull)
	assert.GreaterOrEqual(t, k.Now(), scheduler.Ticks(5))

	for _, want := range []int{1, 2} {
		v, err := q.TryReceive()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestQueue_EmptyTimeout(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 2)
	require.NoError(t, err)

	type outcome struct {
		err  error
		tick scheduler.Ticks
	}
	result := make(chan outcome, 1)
	consumer := spawn(t, k, "consumer", 2, func(task *scheduler.Task) {
		_, err := q.Receive(task, 50)
		result <- outcome{err: err, tick: k.Now()}
	})

	startKernel(t, k)
	waitIdle(t, k)

	for range 49 {
		k.Tick()
	}
	assert.Equal(t, scheduler.Blocked, consumer.State())
	assert.Empty(t, result)

	k.Tick()
	got := <-result
	require.ErrorIs(t, got.err, ErrEmpty)
	assert.GreaterOrEqual(t, got.tick, scheduler.Ticks(50))
	assert.Zero(t, q.Len())
}

func TestQueue_SendPreemptsForWaitingReceiver(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 10)
	require.NoError(t, err)

	var j journal
	spawn(t, k, "consumer", 2, func(task *scheduler.Task) {
		v, err := q.Receive(task, 100)
		assert.NoError(t, err)
		j.add("received %d", v)
	})
	spawn(t, k, "producer", 1, func(task *scheduler.Task) {
		assert.NoError(t, q.Send(task, 7, 100))
		j.add("sent")
	})

	startKernel(t, k)
	waitIdle(t, k)

	assert.Equal(t, []string{"received 7", "sent"}, j.get())
}

func TestQueue_ReceiveWakesBlockedSender(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 1)
	require.NoError(t, err)
	require.NoError(t, q.TrySend(1))

	var j journal
	spawn(t, k, "sender", 2, func(task *scheduler.Task) {
		assert.NoError(t, q.Send(task, 2, 100))
		j.add("sent")
	})
	spawn(t, k, "receiver", 1, func(task *scheduler.Task) {
		v, err := q.Receive(task, 100)
		assert.NoError(t, err)
		j.add("received %d", v)
	})

	startKernel(t, k)
	waitIdle(t, k)

	assert.Equal(t, []string{"sent", "received 1"}, j.get())
	v, err := q.TryReceive()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestQueue_WakeOrderIsPriorityOrder(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[int](k, "q", 1)
	require.NoError(t, err)
	require.NoError(t, q.TrySend(0))

	var j journal
	spawn(t, k, "high", 3, func(task *scheduler.Task) {
		task.Delay(1)
		assert.NoError(t, q.Send(task, 3, 100))
		j.add("high")
	})
	spawn(t, k, "low", 1, func(task *scheduler.Task) {
		assert.NoError(t, q.Send(task, 1, 100))
		j.add("low")
	})

	startKernel(t, k)
	waitIdle(t, k)
	k.Tick()
	waitIdle(t, k)

	senders, _ := q.Waiting()
	require.Equal(t, 2, senders)

	var drained []int
	for range 3 {
		v, err := q.TryReceive()
		require.NoError(t, err)
		drained = append(drained, v)
		waitIdle(t, k)
	}

	assert.Equal(t, []string{"high", "low"}, j.get())
	assert.Equal(t, []int{0, 3, 1}, drained)
}

func TestQueue_PeekKeepsHead(t *testing.T) {
	k := newKernel(t, 0)
	q, err := New[string](k, "q", 3)
	require.NoError(t, err)
	require.NoError(t, q.TrySend("a"))
	require.NoError(t, q.TrySend("b"))

	got := make(chan []string, 1)
	spawn(t, k, "peeker", 1, func(task *scheduler.Task) {
		p, err := q.Peek(task, 0)
		assert.NoError(t, err)
		r, err := q.Receive(task, 0)
		assert.NoError(t, err)
		got <- []string{p, r}
	})

	startKernel(t, k)

	assert.Equal(t, []string{"a", "a"}, <-got)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_CapacityInvariantUnderTasks(t *testing.T) {
	const capacity = 4

	k := newKernel(t, 0)
	q, err := New[int](k, "q", capacity)
	require.NoError(t, err)

	var mu sync.Mutex
	var violations []int
	check := func() {
		if n := q.Len(); n < 0 || n > capacity {
			mu.Lock()
			violations = append(violations, n)
			mu.Unlock()
		}
	}

	for p := range 3 {
		spawn(t, k, fmt.Sprintf("producer-%d", p), 1, func(task *scheduler.Task) {
			for i := range 200 {
				_ = q.Send(task, p*1000+i, scheduler.Ticks(i%2))
				check()
				task.Yield()
			}
		})
	}
	spawn(t, k, "consumer", 1, func(task *scheduler.Task) {
		for range 300 {
			_, _ = q.Receive(task, 0)
			check()
			task.Yield()
		}
	})

	startKernel(t, k)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		require.NoError(t, k.WaitIdle(ctx))
		if senders, _ := q.Waiting(); senders == 0 {
			break
		}
		k.Tick()
	}

	assert.Empty(t, violations)
	assert.LessOrEqual(t, q.Len(), capacity)
}

func TestQueue_ConcurrentTryOperations(t *testing.T) {
	const capacity = 10

	k := newKernel(t, 0)
	q, err := New[int](k, "q", capacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var sent, received []int

	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var s, r []int
			for i := range 1000 {
				if i%2 == 0 {
					v := g*10_000 + i
					if q.TrySend(v) == nil {
						s = append(s, v)
					}
				} else if v, err := q.TryReceive(); err == nil {
					r = append(r, v)
				}

				n := q.Len()
				assert.True(t, n >= 0 && n <= capacity, "length %d out of bounds", n)
			}

			mu.Lock()
			sent = append(sent, s...)
			received = append(received, r...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for {
		v, err := q.TryReceive()
		if err != nil {
			require.ErrorIs(t, err, ErrEmpty)
			break
		}
		received = append(received, v)
	}

	slices.Sort(sent)
	slices.Sort(received)
	if diff := cmp.Diff(sent, received); diff != "" {
		t.Errorf("elements lost or duplicated (-sent +received):\n%s", diff)
	}
}

func TestQueue_NewErrors(t *testing.T) {
	k := newKernel(t, 100)

	_, err := New[int](k, "zero", 0)
	require.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New[int64](k, "big", 10)
	require.ErrorIs(t, err, scheduler.ErrOutOfMemory)

	q, err := New[uint32](k, "small", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, q.Cap())
	assert.Equal(t, "small", q.Name())
}
