// Package ch implements the contraction-hierarchies preprocessor: witness
// search, node contraction, and the priority-queue-driven node orderer.
package ch

import (
	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/prep"
)

// DefaultMaxSettledNodes is the default settled-node cap for witness
// search.
const DefaultMaxSettledNodes = 500

// maxHops bounds witness-search depth; road-network contraction rarely
// needs more than a handful of hops to find a witness.
const maxHops = 5

const maxUint32 = ^uint32(0)

type heapItem struct {
	node graph.NodeID
	dist uint32
	hops int
}

// witnessHeap is a concrete-typed binary min-heap, avoiding container/heap's
// interface-boxing overhead in the innermost loop of preparation.
type witnessHeap struct {
	items []heapItem
}

func (h *witnessHeap) Len() int { return len(h.items) }

func (h *witnessHeap) Push(node graph.NodeID, dist uint32, hops int) {
	h.items = append(h.items, heapItem{node, dist, hops})
	h.siftUp(len(h.items) - 1)
}

func (h *witnessHeap) Pop() heapItem {
	top := h.items[0]
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	if n > 0 {
		h.siftDown(0)
	}
	return top
}

func (h *witnessHeap) Reset() { h.items = h.items[:0] }

func (h *witnessHeap) siftUp(i int) {
	item := h.items[i]
	for i > 0 {
		parent := (i - 1) / 2
		if item.dist >= h.items[parent].dist {
			break
		}
		h.items[i] = h.items[parent]
		i = parent
	}
	h.items[i] = item
}

func (h *witnessHeap) siftDown(i int) {
	n := len(h.items)
	item := h.items[i]
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && h.items[right].dist < h.items[child].dist {
			child = right
		}
		if item.dist <= h.items[child].dist {
			break
		}
		h.items[i] = h.items[child]
		i = child
	}
	h.items[i] = item
}

// WitnessSearch holds reusable state for bounded forward Dijkstra searches
// run during contraction. Distances are reset via a monotonically
// increasing run id rather than an O(N) clear.
type WitnessSearch struct {
	g            *prep.Graph
	dist         []uint32
	run          []uint32
	curRun       uint32
	heap         witnessHeap
	maxSettled   int
	settledCount int
}

// NewWitnessSearch creates a WitnessSearch over g, bounding each search to
// maxSettledNodes settled nodes (0 means DefaultMaxSettledNodes).
func NewWitnessSearch(g *prep.Graph, maxSettledNodes int) *WitnessSearch {
	n := g.NumNodes()
	if maxSettledNodes <= 0 {
		maxSettledNodes = DefaultMaxSettledNodes
	}
	return &WitnessSearch{
		g:          g,
		dist:       make([]uint32, n),
		run:        make([]uint32, n),
		maxSettled: maxSettledNodes,
		heap:       witnessHeap{items: make([]heapItem, 0, 256)},
	}
}

func (ws *WitnessSearch) distOf(node graph.NodeID) uint32 {
	if ws.run[node] != ws.curRun {
		return maxUint32
	}
	return ws.dist[node]
}

func (ws *WitnessSearch) setDist(node graph.NodeID, d uint32) {
	ws.run[node] = ws.curRun
	ws.dist[node] = d
}

// Search runs a bounded forward Dijkstra from source, excluding node
// excluded, bounded by maxWeight and by ws.maxSettled settled nodes.
// hitCap reports whether the settled-node cap was reached before the
// search exhausted its frontier — an inconclusive termination that callers
// must treat conservatively by assuming a shortcut is required.
func (ws *WitnessSearch) Search(source, excluded graph.NodeID, maxWeight uint32) (hitCap bool) {
	ws.curRun++
	ws.heap.Reset()
	ws.settledCount = 0

	ws.setDist(source, 0)
	ws.heap.Push(source, 0, 0)

	for ws.heap.Len() > 0 {
		cur := ws.heap.Pop()

		if cur.dist > ws.distOf(cur.node) {
			continue // stale entry
		}

		ws.settledCount++
		if ws.settledCount > ws.maxSettled {
			return true
		}

		if cur.dist > maxWeight || cur.hops >= maxHops {
			continue
		}

		ws.g.OutEdges(cur.node, func(e prep.Entry) {
			if e.Node == excluded {
				return
			}
			newDist := cur.dist + e.Weight
			if newDist > maxWeight {
				return
			}
			if newDist < ws.distOf(e.Node) {
				ws.setDist(e.Node, newDist)
				ws.heap.Push(e.Node, newDist, cur.hops+1)
			}
		})
	}

	return false
}

// DistTo returns the best known distance to node after the last Search
// call, or maxUint32 if unreached.
func (ws *WitnessSearch) DistTo(node graph.NodeID) uint32 { return ws.distOf(node) }
