package query

import (
	"errors"
	"fmt"

	"github.com/easbar/fast-paths/pkg/graph"
)

// ErrUnknownNode is returned when a node id passed to a query falls outside
// the graph's range.
var ErrUnknownNode = errors.New("query: unknown node id")

// ShortestPath is the result of a successful path query.
type ShortestPath struct {
	Weight graph.Weight
	Nodes  []graph.NodeID // input ids, inclusive of source and target
	Source graph.NodeID
	Target graph.NodeID
}

// Endpoint is a weighted source or target for
// CalcPathMultipleSourcesAndTargets: the search heap for that side is
// seeded with Node at key InitWeight instead of zero.
type Endpoint struct {
	Node       graph.NodeID
	InitWeight graph.Weight
}

// Calculator runs bidirectional upward Dijkstra with stall-on-demand over a
// single FastGraph. It is not goroutine-safe: scratch state is reused
// across calls to avoid per-query allocation.
type Calculator struct {
	fg *graph.FastGraph

	distFwd []uint32
	distBwd []uint32
	predFwd []uint32 // predecessor edge index in the forward CSR, or noNode
	predBwd []uint32 // predecessor edge index in the backward CSR, or noNode
	touched []uint32

	fwdPQ minHeap
	bwdPQ minHeap
}

// NewCalculator allocates a Calculator sized for fg.
func NewCalculator(fg *graph.FastGraph) *Calculator {
	n := fg.NumNodes
	c := &Calculator{
		fg:      fg,
		distFwd: make([]uint32, n),
		distBwd: make([]uint32, n),
		predFwd: make([]uint32, n),
		predBwd: make([]uint32, n),
		touched: make([]uint32, 0, 1024),
	}
	for r := uint32(0); r < n; r++ {
		c.distFwd[r] = maxDist
		c.distBwd[r] = maxDist
		c.predFwd[r] = noNode
		c.predBwd[r] = noNode
	}
	return c
}

func (c *Calculator) reset() {
	for _, r := range c.touched {
		c.distFwd[r] = maxDist
		c.distBwd[r] = maxDist
		c.predFwd[r] = noNode
		c.predBwd[r] = noNode
	}
	c.touched = c.touched[:0]
	c.fwdPQ.Reset()
	c.bwdPQ.Reset()
}

func (c *Calculator) touch(r uint32) {
	if c.distFwd[r] == maxDist && c.distBwd[r] == maxDist {
		c.touched = append(c.touched, r)
	}
}

func (c *Calculator) seedFwd(r uint32, d uint32) {
	if d < c.distFwd[r] {
		c.touch(r)
		c.distFwd[r] = d
		c.fwdPQ.Push(r, d)
	}
}

func (c *Calculator) seedBwd(r uint32, d uint32) {
	if d < c.distBwd[r] {
		c.touch(r)
		c.distBwd[r] = d
		c.bwdPQ.Push(r, d)
	}
}

// CalcPath finds the shortest path between s and t. Returns (nil, nil)
// when no path exists.
func (c *Calculator) CalcPath(fg *graph.FastGraph, s, t graph.NodeID) (*ShortestPath, error) {
	return c.CalcPathMultipleSourcesAndTargets(fg, []Endpoint{{Node: s}}, []Endpoint{{Node: t}})
}

// CalcPathMultipleSourcesAndTargets finds the best path over every
// (source, target) pair, each seeded at its own initial weight. Returns
// (nil, nil) when no path exists between any pair.
func (c *Calculator) CalcPathMultipleSourcesAndTargets(fg *graph.FastGraph, sources, targets []Endpoint) (*ShortestPath, error) {
	if fg != c.fg {
		*c = *NewCalculator(fg)
	}
	c.reset()

	for _, s := range sources {
		if s.Node >= graph.NodeID(fg.NumNodes) {
			return nil, fmt.Errorf("query: source %d: %w", s.Node, ErrUnknownNode)
		}
		c.seedFwd(fg.Rank(s.Node), s.InitWeight)
	}
	for _, t := range targets {
		if t.Node >= graph.NodeID(fg.NumNodes) {
			return nil, fmt.Errorf("query: target %d: %w", t.Node, ErrUnknownNode)
		}
		c.seedBwd(fg.Rank(t.Node), t.InitWeight)
	}

	mu, meetRank := c.run()
	if meetRank == noNode {
		return nil, nil
	}

	nodes := unpack(fg, c.predFwd, c.predBwd, meetRank)
	return &ShortestPath{
		Weight: mu,
		Nodes:  nodes,
		Source: nodes[0],
		Target: nodes[len(nodes)-1],
	}, nil
}

// run executes the bidirectional search loop, with stall-on-demand added:
// before relaxing a
// node's upward out-edges, the opposite-direction CSR at that node (already
// built and held for its own search) is read as the node's incoming
// downward edges, and used to check whether a cheaper predecessor has
// already been found.
func (c *Calculator) run() (mu uint32, meetRank uint32) {
	mu = maxDist
	meetRank = noNode
	fg := c.fg

	for {
		fwdMin := c.fwdPQ.PeekDist()
		bwdMin := c.bwdPQ.PeekDist()
		if fwdMin >= mu && bwdMin >= mu {
			break
		}

		if fwdMin < mu {
			item := c.fwdPQ.Pop()
			u, d := item.rank, item.dist
			if d <= c.distFwd[u] {
				if c.distBwd[u] != maxDist {
					if cand := d + c.distBwd[u]; cand < mu {
						mu = cand
						meetRank = u
					}
				}
				if !c.stalledFwd(u, d) {
					start, end := fg.EdgesFromRankFwd(u)
					for e := start; e < end; e++ {
						v := fg.FwdHead[e]
						newDist := d + fg.FwdWeight[e]
						if newDist < c.distFwd[v] {
							c.touch(v)
							c.distFwd[v] = newDist
							c.fwdPQ.Push(v, newDist)
							c.predFwd[v] = e
						}
					}
				}
			}
		}

		if c.bwdPQ.PeekDist() < mu {
			item := c.bwdPQ.Pop()
			u, d := item.rank, item.dist
			if d <= c.distBwd[u] {
				if c.distFwd[u] != maxDist {
					if cand := c.distFwd[u] + d; cand < mu {
						mu = cand
						meetRank = u
					}
				}
				if !c.stalledBwd(u, d) {
					start, end := fg.EdgesFromRankBwd(u)
					for e := start; e < end; e++ {
						v := fg.BwdHead[e]
						newDist := d + fg.BwdWeight[e]
						if newDist < c.distBwd[v] {
							c.touch(v)
							c.distBwd[v] = newDist
							c.bwdPQ.Push(v, newDist)
							c.predBwd[v] = e
						}
					}
				}
			}
		}
	}

	return mu, meetRank
}

// stalledFwd checks u's downward incoming edges (the backward CSR at u,
// naturally listing neighbors of higher rank reached via a down edge) for a
// cheaper predecessor than d. Such an edge is never traversed by the
// forward search itself (it isn't upward), so it's otherwise invisible to
// normal relaxation, and is exactly the pruning stall-on-demand adds.
func (c *Calculator) stalledFwd(u, d uint32) bool {
	start, end := c.fg.EdgesFromRankBwd(u)
	for e := start; e < end; e++ {
		p := c.fg.BwdHead[e]
		if c.distFwd[p] != maxDist && c.distFwd[p]+c.fg.BwdWeight[e] < d {
			return true
		}
	}
	return false
}

// stalledBwd is the symmetric check for the backward search, reading u's
// own forward (upward) out-edges as its downward-incoming edges in the
// reverse graph.
func (c *Calculator) stalledBwd(u, d uint32) bool {
	start, end := c.fg.EdgesFromRankFwd(u)
	for e := start; e < end; e++ {
		p := c.fg.FwdHead[e]
		if c.distBwd[p] != maxDist && c.distBwd[p]+c.fg.FwdWeight[e] < d {
			return true
		}
	}
	return false
}
