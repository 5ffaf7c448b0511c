package ch

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/prep"
)

// Config tunes preparation.
type Config struct {
	// MaxSettledNodes bounds witness search (default DefaultMaxSettledNodes).
	MaxSettledNodes int
}

// ErrBadOrder is returned by ContractWithOrder when the supplied order is
// not a permutation of [0, N), or its length doesn't match the graph's
// node count.
var ErrBadOrder = errors.New("ch: order is not a valid permutation")

// priority returns the contraction priority for v: lower contracts first.
// Uses the linear combination edge_difference + depth + contracted_neighbors.
func priority(shortcuts []Shortcut, g *prep.Graph, v graph.NodeID, depth, contractedNeighbors int) int {
	edgeDifference := len(shortcuts) - g.LiveInDegree(v) - g.LiveOutDegree(v)
	return edgeDifference + depth + contractedNeighbors
}

type pqEntry struct {
	node       graph.NodeID
	prio       int
	generation uint32
	index      int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].prio < pq[j].prio }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	e := x.(*pqEntry)
	e.index = len(*pq)
	*pq = append(*pq, e)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*pq = old[:n-1]
	return e
}

// Orderer drives the full ordering + contraction loop: a lazy-update
// min-heap keyed by contraction priority, with stale entries (generation
// mismatch against the node's live generation) discarded on pop instead
// of an explicit decrease-key.
type Orderer struct {
	g  *prep.Graph
	nc *NodeContractor

	depth               []int
	contractedNeighbors []int
	generation          []uint32
	entryOf             []*pqEntry
}

// NewOrderer creates an Orderer over g using nc for (simulated and real)
// contraction.
func NewOrderer(g *prep.Graph, nc *NodeContractor) *Orderer {
	n := g.NumNodes()
	return &Orderer{
		g:                   g,
		nc:                  nc,
		depth:               make([]int, n),
		contractedNeighbors: make([]int, n),
		generation:          make([]uint32, n),
		entryOf:             make([]*pqEntry, n),
	}
}

func (o *Orderer) currentPriority(v graph.NodeID) int {
	sc := o.nc.Shortcuts(v)
	return priority(sc, o.g, v, o.depth[v], o.contractedNeighbors[v])
}

// ContractAll runs the full ordering loop over every node, returning
// rank[id] = contraction position and the total shortcuts
// applied. rank is a permutation of [0, N).
func ContractAll(g *prep.Graph, cfg Config) (rank []graph.NodeID, totalShortcuts int) {
	n := g.NumNodes()
	rank = make([]graph.NodeID, n)
	if n == 0 {
		return rank, 0
	}

	ws := NewWitnessSearch(g, cfg.MaxSettledNodes)
	nc := NewNodeContractor(g, ws)
	o := NewOrderer(g, nc)

	pq := make(priorityQueue, n)
	for v := graph.NodeID(0); v < n; v++ {
		e := &pqEntry{node: v, prio: o.currentPriority(v), generation: 0}
		pq[v] = e
		o.entryOf[v] = e
	}
	heap.Init(&pq)

	var order graph.NodeID
	for pq.Len() > 0 {
		e := heap.Pop(&pq).(*pqEntry)
		v := e.node

		if e.generation != o.generation[v] {
			continue // stale entry; a fresher one (or the node itself) already handled
		}

		// Lazy update: recompute; if it's no longer the best, re-push.
		newPrio := o.currentPriority(v)
		if pq.Len() > 0 && newPrio > pq[0].prio {
			o.generation[v]++
			e = &pqEntry{node: v, prio: newPrio, generation: o.generation[v]}
			o.entryOf[v] = e
			heap.Push(&pq, e)
			continue
		}

		// Collect v's live neighbors before contraction clears its entries.
		var neighbors []graph.NodeID
		g.OutEdges(v, func(e prep.Entry) { neighbors = append(neighbors, e.Node) })
		g.InEdges(v, func(e prep.Entry) { neighbors = append(neighbors, e.Node) })

		applied := nc.Contract(v)
		totalShortcuts += len(applied)
		rank[v] = order
		order++

		// Update neighbor depth/contracted-neighbor counts, once per neighbor.
		seen := make(map[graph.NodeID]bool, len(neighbors))
		touch := func(n graph.NodeID) {
			if g.Contracted(n) || seen[n] {
				return
			}
			seen[n] = true
			o.contractedNeighbors[n]++
			if o.depth[v]+1 > o.depth[n] {
				o.depth[n] = o.depth[v] + 1
			}
			o.generation[n]++
			ne := &pqEntry{node: n, prio: o.currentPriority(n), generation: o.generation[n]}
			o.entryOf[n] = ne
			heap.Push(&pq, ne)
		}
		for _, n := range neighbors {
			touch(n)
		}
	}

	return rank, totalShortcuts
}

// ContractWithOrder bypasses priority computation entirely: it contracts
// nodes in the supplied permutation, still running witness searches and
// emitting the resulting shortcuts. Fails with ErrBadOrder if order is
// not a permutation of [0, N).
func ContractWithOrder(g *prep.Graph, cfg Config, order []graph.NodeID) (rank []graph.NodeID, totalShortcuts int, err error) {
	n := g.NumNodes()
	if uint32(len(order)) != n {
		return nil, 0, fmt.Errorf("ch: order has length %d, want %d: %w", len(order), n, ErrBadOrder)
	}

	seen := make([]bool, n)
	for _, id := range order {
		if id >= n || seen[id] {
			return nil, 0, fmt.Errorf("ch: order is not a permutation (duplicate or out-of-range id %d): %w", id, ErrBadOrder)
		}
		seen[id] = true
	}

	ws := NewWitnessSearch(g, cfg.MaxSettledNodes)
	nc := NewNodeContractor(g, ws)

	rank = make([]graph.NodeID, n)
	for i, v := range order {
		applied := nc.Contract(v)
		totalShortcuts += len(applied)
		rank[v] = graph.NodeID(i)
	}

	return rank, totalShortcuts, nil
}
