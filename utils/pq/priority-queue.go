// Package pq implements a priority queue of distinct elements.
package pq

import "container/heap"

// elements is a binary heap of T ordered by less.
type elements[T any] struct {
	list []T
	less func(T, T) bool
}

func (h elements[T]) Len() int           { return len(h.list) }
func (h elements[T]) Less(i, j int) bool { return h.less(h.list[i], h.list[j]) }
func (h elements[T]) Swap(i, j int)      { h.list[i], h.list[j] = h.list[j], h.list[i] }
func (h *elements[T]) Push(x any)        { h.list = append(h.list, x.(T)) }

func (h *elements[T]) Pop() any {
	var zero T
	n := len(h.list) - 1
	x := h.list[n]
	h.list[n] = zero
	h.list = h.list[:n]
	return x
}

var _ heap.Interface = (*elements[int])(nil)

// PriorityQueue is a min-priority queue. An element is queued at most once;
// adding a queued element has no effect.
type PriorityQueue[T any] struct {
	heap elements[T]
	// Membership is keyed by the dynamic value of the elements, so T may be
	// an interface such as ir.Instruction. Dynamic types must be comparable.
	queued map[any]struct{}
}

// Empty creates an empty priority queue ordered by less.
func Empty[T any](less func(T, T) bool) PriorityQueue[T] {
	return PriorityQueue[T]{
		heap:   elements[T]{nil, less},
		queued: make(map[any]struct{}),
	}
}

func (p *PriorityQueue[T]) Len() int { return p.heap.Len() }

func (p *PriorityQueue[T]) IsEmpty() bool { return p.heap.Len() == 0 }

func (p *PriorityQueue[T]) Contains(x T) bool {
	_, found := p.queued[x]
	return found
}

// Add queues x and reports whether it was not already queued.
func (p *PriorityQueue[T]) Add(x T) bool {
	if p.Contains(x) {
		return false
	}
	p.queued[x] = struct{}{}
	heap.Push(&p.heap, x)
	return true
}

// GetNext removes and returns the least element.
func (p *PriorityQueue[T]) GetNext() T {
	x := heap.Pop(&p.heap).(T)
	delete(p.queued, x)
	return x
}
