package spf

import "container/heap"

// entryHeap is a min-heap over *Entry ordered by cost, with a
// lexicographic endpoint tie-break so pop order is deterministic.
// SPF relaxes one edge per insert, so a binary heap keeps insert/pop
// at O(log n) instead of a linear scan over the pending set.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Cost != h[j].Cost {
		return h[i].Cost < h[j].Cost
	}
	return h[i].Dest.String() < h[j].Dest.String()
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(*Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// PriorityQueue is a min-by-cost queue of Forwarding Table entries, used
// only during SPF computation. No decrease-key is needed: a stale entry
// popped after it was already finalized is discarded by the caller's
// InSPF check, not filtered here.
type PriorityQueue struct {
	h entryHeap
}

// NewPriorityQueue returns an empty priority queue.
func NewPriorityQueue() *PriorityQueue {
	pq := &PriorityQueue{}
	heap.Init(&pq.h)
	return pq
}

// Insert pushes an entry onto the queue. O(log n).
func (q *PriorityQueue) Insert(e *Entry) {
	heap.Push(&q.h, e)
}

// PopMin removes and returns the entry with minimum cost. O(log n).
// Callers must not call PopMin on an empty queue; check IsEmpty first.
func (q *PriorityQueue) PopMin() *Entry {
	return heap.Pop(&q.h).(*Entry)
}

// IsEmpty reports whether the queue has no entries.
func (q *PriorityQueue) IsEmpty() bool {
	return q.h.Len() == 0
}
