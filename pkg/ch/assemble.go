package ch

import (
	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/prep"
)

// Assemble builds a graph.FastGraph from a fully contracted PreparationGraph
// and its rank assignment. Every edge (original or shortcut) is
// classified by its endpoints' ranks: edges from lower to
// higher rank go into the forward CSR keyed by the lower-rank tail; edges
// from higher to lower rank go into the backward CSR keyed by the
// lower-rank head. Each edge is stored in exactly one of the two CSRs.
func Assemble(g *prep.Graph, rank []graph.NodeID) *graph.FastGraph {
	n := g.NumNodes()

	rankToID := make([]graph.NodeID, n)
	for id, r := range rank {
		rankToID[r] = graph.NodeID(id)
	}

	type csrEdge struct {
		fromRank, toRank uint32
		weight           uint32
		middle           int32 // middle node's rank, or -1
	}
	var fwd, bwd []csrEdge

	for id := graph.NodeID(0); id < n; id++ {
		fromRank := rank[id]
		for _, e := range g.AllOutEntries(id) {
			toRank := rank[e.Node]
			middle := int32(-1)
			if e.Middle >= 0 {
				middle = int32(rank[e.Middle])
			}
			if fromRank < toRank {
				fwd = append(fwd, csrEdge{fromRank, toRank, e.Weight, middle})
			} else {
				// Downward edge tail->head (fromRank > toRank): mirrored
				// into the backward CSR keyed by the lower-rank endpoint
				// (head/toRank), pointing back at the higher-rank one
				// (tail/fromRank) — read during the backward search as
				// "the upward neighbor reached by reversing this edge".
				bwd = append(bwd, csrEdge{toRank, fromRank, e.Weight, middle})
			}
		}
	}

	build := func(edges []csrEdge) (firstOut, head, weight []uint32, middle []int32) {
		numEdges := uint32(len(edges))
		firstOut = make([]uint32, n+1)
		head = make([]uint32, numEdges)
		weight = make([]uint32, numEdges)
		middle = make([]int32, numEdges)

		for _, e := range edges {
			firstOut[e.fromRank+1]++
		}
		for i := uint32(1); i <= n; i++ {
			firstOut[i] += firstOut[i-1]
		}

		pos := make([]uint32, n)
		copy(pos, firstOut[:n])
		for _, e := range edges {
			idx := pos[e.fromRank]
			head[idx] = e.toRank
			weight[idx] = e.weight
			middle[idx] = e.middle
			pos[e.fromRank]++
		}
		return
	}

	fwdFirstOut, fwdHead, fwdWeight, fwdMiddle := build(fwd)
	bwdFirstOut, bwdHead, bwdWeight, bwdMiddle := build(bwd)

	idToRank := make([]graph.NodeID, n)
	for id, r := range rank {
		idToRank[id] = r
	}

	return &graph.FastGraph{
		NumNodes:    n,
		RankToID:    rankToID,
		IDToRank:    idToRank,
		FwdFirstOut: fwdFirstOut,
		FwdHead:     fwdHead,
		FwdWeight:   fwdWeight,
		FwdMiddle:   fwdMiddle,
		BwdFirstOut: bwdFirstOut,
		BwdHead:     bwdHead,
		BwdWeight:   bwdWeight,
		BwdMiddle:   bwdMiddle,
	}
}
