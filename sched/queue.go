package sched

import (
	"fmt"
	"slices"
)

// waitQueue is an ordered, bounded sequence of workers. It backs the ready
// queue, the MLFQ levels and the I/O queue.
//
// The bound is the number of workers in the run: a worker is a member of at
// most one queue at a time, so pushing past the bound is a logic defect.
type waitQueue struct {
	name    string
	members []*worker
	limit   int
}

func newWaitQueue(name string, limit int) *waitQueue {
	return &waitQueue{
		name:    name,
		members: make([]*worker, 0, limit),
		limit:   limit,
	}
}

// push appends w at the tail. Pushing a worker that is already queued is a no-op.
func (q *waitQueue) push(w *worker) {
	if q.contains(w) {
		return
	}
	if len(q.members) >= q.limit {
		panic(fmt.Sprintf("sched: %s queue over capacity (%d) adding worker %d", q.name, q.limit, w.id))
	}
	q.members = append(q.members, w)
}

// insert places w in front of the first member at or after index from for
// which before reports true, or at the tail. Inserting a queued worker is a
// no-op.
func (q *waitQueue) insert(w *worker, from int, before func(m *worker) bool) {
	if q.contains(w) {
		return
	}
	if len(q.members) >= q.limit {
		panic(fmt.Sprintf("sched: %s queue over capacity (%d) adding worker %d", q.name, q.limit, w.id))
	}
	at := len(q.members)
	for i := from; i < len(q.members); i++ {
		if before(q.members[i]) {
			at = i
			break
		}
	}
	q.members = slices.Insert(q.members, at, w)
}

// peek returns the head of the queue or nil.
func (q *waitQueue) peek() *worker {
	if len(q.members) == 0 {
		return nil
	}
	return q.members[0]
}

// pop removes and returns the head of the queue or nil.
func (q *waitQueue) pop() *worker {
	if len(q.members) == 0 {
		return nil
	}
	head := q.members[0]
	q.members[0] = nil
	q.members = q.members[1:]
	return head
}

// remove deletes w from the queue, preserving the order of the rest.
func (q *waitQueue) remove(w *worker) bool {
	for i, m := range q.members {
		if m == w {
			copy(q.members[i:], q.members[i+1:])
			q.members[len(q.members)-1] = nil
			q.members = q.members[:len(q.members)-1]
			return true
		}
	}
	return false
}

func (q *waitQueue) contains(w *worker) bool {
	for _, m := range q.members {
		if m == w {
			return true
		}
	}
	return false
}

func (q *waitQueue) len() int {
	return len(q.members)
}

// items exposes the queue in order. Callers must not modify the slice.
func (q *waitQueue) items() []*worker {
	return q.members
}
