// Package query implements PathCalculator: a reusable bidirectional
// Dijkstra over a graph.FastGraph, restricted to upward edges, with
// stall-on-demand pruning and shortcut unpacking.
package query

import "math"

// noNode is the sentinel for "no predecessor" / "no node".
const noNode = ^uint32(0)

const maxDist = uint32(math.MaxUint32)

// pqItem is a priority queue entry keyed by rank and tentative distance.
type pqItem struct {
	rank uint32
	dist uint32
}

// minHeap is a concrete-typed binary min-heap for the Dijkstra frontier,
// avoiding container/heap's interface-boxing overhead in the query hot
// path.
type minHeap struct {
	items []pqItem
}

func (h *minHeap) Len() int { return len(h.items) }

func (h *minHeap) Push(rank, dist uint32) {
	h.items = append(h.items, pqItem{rank, dist})
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

func (h *minHeap) PeekDist() uint32 {
	if len(h.items) == 0 {
		return maxDist
	}
	return h.items[0].dist
}

func (h *minHeap) Reset() { h.items = h.items[:0] }

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].dist >= h.items[parent].dist {
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
		if left < n && h.items[left].dist < h.items[smallest].dist {
			smallest = left
		}
		if right < n && h.items[right].dist < h.items[smallest].dist {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
