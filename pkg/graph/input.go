// Package graph holds the public graph types of the library: the mutable
// edge builder (InputGraph) callers populate, and the immutable
// contraction-hierarchy overlay (FastGraph) that Prepare produces from it.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// NodeID identifies a node by its dense position in [0, N).
type NodeID = uint32

// Weight is an edge weight. Must be strictly positive.
type Weight = uint32

// ErrInvalidEdge is returned by AddEdge for a non-positive weight.
var ErrInvalidEdge = errors.New("graph: edge weight must be > 0")

// ErrMutateAfterFreeze is returned when AddEdge is called on a frozen graph.
var ErrMutateAfterFreeze = errors.New("graph: mutation attempted on frozen graph")

type rawEdge struct {
	tail, head NodeID
	weight     Weight
}

// InputGraph is a mutable edge-list builder. Callers add edges with
// AddEdge, then call Freeze to canonicalize the edge set (drop self-loops,
// keep the minimum-weight edge for each duplicate (tail,head) pair) before
// handing it to Prepare. Thaw re-enables mutation.
type InputGraph struct {
	edges  []rawEdge
	frozen bool

	// Present only after Freeze; canonical sorted-by-(tail,head) edge list.
	frozenEdges []rawEdge
	numNodes    uint32
}

// NewInputGraph returns an empty, mutable InputGraph.
func NewInputGraph() *InputGraph {
	return &InputGraph{}
}

// AddEdge adds a directed edge (tail, head, weight). Rejects weight == 0.
// A negative weight cannot be represented by the unsigned Weight type and
// is therefore rejected at the call site by construction.
func (g *InputGraph) AddEdge(tail, head NodeID, weight Weight) error {
	if g.frozen {
		return fmt.Errorf("add edge (%d,%d,%d): %w", tail, head, weight, ErrMutateAfterFreeze)
	}
	if weight == 0 {
		return fmt.Errorf("add edge (%d,%d): %w", tail, head, ErrInvalidEdge)
	}
	g.edges = append(g.edges, rawEdge{tail, head, weight})
	return nil
}

// Freeze sorts edges by (tail,head), drops self-loops, and for each
// duplicate (tail,head) pair keeps only the minimum-weight entry. After
// Freeze, num_nodes = max(id)+1 over all edge endpoints, and further
// mutation is rejected until Thaw is called.
func (g *InputGraph) Freeze() {
	edges := make([]rawEdge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.tail == e.head {
			continue
		}
		edges = append(edges, e)
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].tail != edges[j].tail {
			return edges[i].tail < edges[j].tail
		}
		return edges[i].head < edges[j].head
	})

	// Collapse duplicate (tail,head) groups, keeping the minimum weight.
	deduped := edges[:0]
	for i := 0; i < len(edges); {
		j := i + 1
		best := edges[i].weight
		for j < len(edges) && edges[j].tail == edges[i].tail && edges[j].head == edges[i].head {
			if edges[j].weight < best {
				best = edges[j].weight
			}
			j++
		}
		deduped = append(deduped, rawEdge{edges[i].tail, edges[i].head, best})
		i = j
	}

	var numNodes uint32
	for _, e := range deduped {
		if e.tail+1 > numNodes {
			numNodes = e.tail + 1
		}
		if e.head+1 > numNodes {
			numNodes = e.head + 1
		}
	}

	g.frozenEdges = deduped
	g.numNodes = numNodes
	g.frozen = true
}

// Thaw re-enables mutation. Any FastGraph built from this InputGraph before
// Thaw remains valid; it is simply no longer backed by the now-mutable
// edge set. Callers must re-Freeze and re-Prepare to pick up new edges.
func (g *InputGraph) Thaw() {
	g.frozen = false
	g.frozenEdges = nil
	g.numNodes = 0
}

// Frozen reports whether the graph is currently frozen.
func (g *InputGraph) Frozen() bool { return g.frozen }

// NumNodes returns the canonical node count. Valid only after Freeze.
func (g *InputGraph) NumNodes() uint32 { return g.numNodes }

// NumEdges returns the canonical edge count. Valid only after Freeze.
func (g *InputGraph) NumEdges() int { return len(g.frozenEdges) }

// Edges calls fn once per canonical edge, in (tail,head) order. Valid only
// after Freeze.
func (g *InputGraph) Edges(fn func(tail, head NodeID, weight Weight)) {
	for _, e := range g.frozenEdges {
		fn(e.tail, e.head, e.weight)
	}
}
