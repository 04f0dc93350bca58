package scheduler

import (
	"runtime"
	"slices"
	"sync"
)

// WaitList holds tasks blocked on one condition, highest priority first and
// in arrival order among equal priorities.
type WaitList struct {
	k     *Kernel
	tasks []*Task
}

func (k *Kernel) NewWaitList() *WaitList {
	return &WaitList{k: k}
}

// Wait blocks t on the list for at most timeout ticks. The caller holds l,
// which is released only after t is registered, so no WakeOne can be missed;
// l is held again when Wait returns. The result reports whether t was woken
// by WakeOne rather than by its timeout.
func (wl *WaitList) Wait(t *Task, timeout Ticks, l sync.Locker) bool {
	k := wl.k

	k.mu.Lock()
	if k.stopping {
		k.mu.Unlock()
		l.Unlock()
		runtime.Goexit()
	}
	k.mustBeCurrent(t, l)

	if timeout == 0 {
		k.mu.Unlock()
		return false
	}

	k.block(t, wl, timeout)
	l.Unlock()
	k.switchFrom(t)

	k.mu.Lock()
	woken := !t.timedOut
	k.mu.Unlock()

	l.Lock()
	return woken
}

// WakeOne readies the first waiter and reports whether there was one. It may be
// called from any goroutine; an idle processor is dispatched at once, a running
// task is preempted at its next kernel point.
func (wl *WaitList) WakeOne() bool {
	k := wl.k

	k.mu.Lock()
	defer k.mu.Unlock()

	if len(wl.tasks) == 0 {
		return false
	}

	t := wl.tasks[0]
	wl.tasks = slices.Delete(wl.tasks, 0, 1)
	k.unblock(t)
	k.kick()
	return true
}

func (wl *WaitList) Len() int {
	wl.k.mu.Lock()
	defer wl.k.mu.Unlock()

	return len(wl.tasks)
}

func (wl *WaitList) insert(t *Task) {
	i := slices.IndexFunc(wl.tasks, func(w *Task) bool { return w.prio < t.prio })
	if i < 0 {
		i = len(wl.tasks)
	}
	wl.tasks = slices.Insert(wl.tasks, i, t)
}

func (wl *WaitList) remove(t *Task) {
	if i := slices.Index(wl.tasks, t); i >= 0 {
		wl.tasks = slices.Delete(wl.tasks, i, i+1)
	}
}
