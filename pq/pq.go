// Package pq provides the two priority-queue abstractions the
// k-nearest-neighbour distance-browsing algorithm shares across the
// quadtree, zgrid and rtree packages: a node queue (min-heap, ordered
// by ascending distance to the query point) and a datum queue (a
// max-heap bounded to size k, so the worst current candidate is always
// the one evicted). Both are built on container/heap.
package pq

import "container/heap"

// Item pairs a queued value with its precomputed distance from the
// query point.
type Item[T any] struct {
	Value T
	Dist  float64
}

// heapSlice implements heap.Interface over a slice of Item, with the
// ordering direction controlled by less.
type heapSlice[T any] struct {
	items []Item[T]
	less  func(a, b float64) bool
}

func (h *heapSlice[T]) Len() int { return len(h.items) }
func (h *heapSlice[T]) Less(i, j int) bool {
	return h.less(h.items[i].Dist, h.items[j].Dist)
}
func (h *heapSlice[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *heapSlice[T]) Push(x any)    { h.items = append(h.items, x.(Item[T])) }
func (h *heapSlice[T]) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// NodeQueue is a min-heap of hierarchy elements (QNodes, Zgrid nodes,
// or R-tree entries) ordered by ascending distance from the query
// point to the element's bounding rectangle.
type NodeQueue[T any] struct {
	h *heapSlice[T]
}

// NewNodeQueue returns an empty node queue.
func NewNodeQueue[T any]() *NodeQueue[T] {
	h := &heapSlice[T]{less: func(a, b float64) bool { return a < b }}
	heap.Init(h)
	return &NodeQueue[T]{h: h}
}

// Push enqueues an element with its precomputed distance.
func (q *NodeQueue[T]) Push(v T, dist float64) {
	heap.Push(q.h, Item[T]{Value: v, Dist: dist})
}

// Pop dequeues the closest element.
func (q *NodeQueue[T]) Pop() Item[T] {
	return heap.Pop(q.h).(Item[T])
}

// Peek reads the closest element without removing it.
func (q *NodeQueue[T]) Peek() Item[T] {
	return q.h.items[0]
}

// Len reports the number of queued elements.
func (q *NodeQueue[T]) Len() int { return q.h.Len() }

// Empty reports whether the queue has no elements.
func (q *NodeQueue[T]) Empty() bool { return q.h.Len() == 0 }

// DatumQueue is a max-heap of stored data bounded to size k: it always
// exposes the worst (farthest) candidate at the top so Choose can
// evict it in favor of a closer datum.
type DatumQueue[T any] struct {
	h *heapSlice[T]
	k int
}

// NewDatumQueue returns an empty datum queue bounded to k entries.
func NewDatumQueue[T any](k int) *DatumQueue[T] {
	h := &heapSlice[T]{less: func(a, b float64) bool { return a > b }}
	heap.Init(h)
	return &DatumQueue[T]{h: h, k: k}
}

// Push unconditionally enqueues a datum. Callers must not exceed the
// bound k; use Choose once the queue is full.
func (q *DatumQueue[T]) Push(v T, dist float64) {
	heap.Push(q.h, Item[T]{Value: v, Dist: dist})
}

// Choose replaces the current worst (farthest) candidate with v if v is
// strictly closer, and is a no-op otherwise.
func (q *DatumQueue[T]) Choose(v T, dist float64) {
	if dist < q.Peek().Dist {
		heap.Pop(q.h)
		heap.Push(q.h, Item[T]{Value: v, Dist: dist})
	}
}

// Pop dequeues the current farthest candidate.
func (q *DatumQueue[T]) Pop() Item[T] {
	return heap.Pop(q.h).(Item[T])
}

// Peek reads the current farthest candidate without removing it.
func (q *DatumQueue[T]) Peek() Item[T] {
	return q.h.items[0]
}

// Len reports the number of queued data.
func (q *DatumQueue[T]) Len() int { return q.h.Len() }

// Empty reports whether the queue has no data.
func (q *DatumQueue[T]) Empty() bool { return q.h.Len() == 0 }

// Full reports whether the queue has reached its bound k.
func (q *DatumQueue[T]) Full() bool { return q.h.Len() >= q.k }

// Drain pops every element in farthest-to-closest order (pop order for
// a max-heap on distance), which is exactly the output order the k-NN
// query contract requires.
func (q *DatumQueue[T]) Drain() []T {
	out := make([]T, 0, q.Len())
	for !q.Empty() {
		out = append(out, q.Pop().Value)
	}
	return out
}
