package routing

import (
	"math"

	"mcrouter/pkg/graph"
)

// pqItem is a priority queue entry: a node and the tentative scalar cost it
// was pushed with.
type pqItem struct {
	node graph.NodeIdx
	dist float64
}

// minHeap is a concrete-typed binary min-heap, avoiding the interface
// boxing overhead of container/heap on the hot query path.
type minHeap struct {
	items []pqItem
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(node graph.NodeIdx, dist float64) {
	h.items = append(h.items, pqItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *minHeap) Pop() pqItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *minHeap) PeekDist() float64 {
	if len(h.items) == 0 {
		return math.Inf(1)
	}
	return h.items[0].dist
}

func (h *minHeap) Reset() {
	h.items = h.items[:0]
}

// less breaks ties between equal-cost entries by ascending NodeIdx, making
// pop order deterministic for graphs with symmetric costs.
func less(a, b pqItem) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.node < b.node
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
