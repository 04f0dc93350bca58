package scheduler

import "slices"

// fifo is a ready list: tasks of one priority in dispatch order.
type fifo[T any] struct {
	items []T
}

func (q *fifo[T]) pushBack(item T) {
	q.items = append(q.items, item)
}

func (q *fifo[T]) pushFront(item T) {
	q.items = slices.Insert(q.items, 0, item)
}

func (q *fifo[T]) popFront() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

func (q *fifo[T]) len() int {
	return len(q.items)
}
