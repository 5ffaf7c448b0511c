package query

import "github.com/easbar/fast-paths/pkg/graph"

// maxUnpackDepth bounds the shortcut-unpacking recursion as a safety net;
// termination is already guaranteed because every step strictly descends in
// rank, so this is never expected to trigger.
const maxUnpackDepth = 100

// atomicEdge is an original (non-shortcut) edge found during unpacking,
// tagged with the CSR it was found in. A shortcut's two children don't
// necessarily share its own CSR (see unpackFwd/unpackBwd), so every atomic
// edge collected along the way needs its own direction tag to be read back
// correctly.
type atomicEdge struct {
	idx uint32
	bwd bool
}

// realSource returns e's real-direction source rank.
func realSource(fg *graph.FastGraph, e atomicEdge) uint32 {
	if e.bwd {
		return fg.BwdHead[e.idx] // backward CSR stores the real source as its head
	}
	return fg.SourceOfFwd(e.idx)
}

// realTarget returns e's real-direction target rank.
func realTarget(fg *graph.FastGraph, e atomicEdge) uint32 {
	if e.bwd {
		return fg.SourceOfBwd(e.idx) // backward CSR stores the real target as its source
	}
	return fg.FwdHead[e.idx]
}

// unpack reconstructs the full (non-shortcut) node path from the
// predecessor-edge chains left by run, replacing every shortcut edge with
// its two children until only original edges remain. Returns input-id
// nodes.
func unpack(fg *graph.FastGraph, predFwd, predBwd []uint32, meetRank uint32) []graph.NodeID {
	var fwdEdges []uint32
	for r := meetRank; predFwd[r] != noNode; {
		e := predFwd[r]
		fwdEdges = append(fwdEdges, e)
		r = fg.SourceOfFwd(e)
	}
	for i, j := 0, len(fwdEdges)-1; i < j; i, j = i+1, j-1 {
		fwdEdges[i], fwdEdges[j] = fwdEdges[j], fwdEdges[i]
	}

	var bwdEdges []uint32
	for r := meetRank; predBwd[r] != noNode; {
		e := predBwd[r]
		bwdEdges = append(bwdEdges, e)
		r = fg.SourceOfBwd(e)
	}

	var originalFwd, originalBwd []atomicEdge
	for _, e := range fwdEdges {
		unpackFwd(fg, e, &originalFwd, 0)
	}
	for _, e := range bwdEdges {
		unpackBwd(fg, e, &originalBwd, 0)
	}

	ranks := make([]uint32, 0, len(originalFwd)+len(originalBwd)+1)
	if len(originalFwd) == 0 {
		ranks = append(ranks, meetRank)
	} else {
		ranks = append(ranks, realSource(fg, originalFwd[0]))
		for _, e := range originalFwd {
			ranks = append(ranks, realTarget(fg, e))
		}
	}
	for _, e := range originalBwd {
		// meet->target order: each atomic edge's real target continues the walk.
		ranks = append(ranks, realTarget(fg, e))
	}

	nodes := make([]graph.NodeID, len(ranks))
	for i, r := range ranks {
		nodes[i] = fg.ID(r)
	}
	return nodes
}

// unpackFwd expands a forward-CSR edge (original or shortcut) into atomic
// edges, appended to *result in source->target order.
func unpackFwd(fg *graph.FastGraph, edgeIdx uint32, result *[]atomicEdge, depth int) {
	if depth > maxUnpackDepth {
		return
	}
	middle := fg.FwdMiddle[edgeIdx]
	if middle < 0 {
		*result = append(*result, atomicEdge{idx: edgeIdx, bwd: false})
		return
	}

	from := fg.SourceOfFwd(edgeIdx)
	head := fg.FwdHead[edgeIdx]
	mid := uint32(middle)

	// mid was contracted before both from and head, so it has the lowest
	// rank of the three. The real path is from->mid->head: from->mid runs
	// from the higher-rank from down to mid, so it's stored in the Bwd
	// CSR keyed by mid; mid->head runs from mid up to the higher-rank
	// head, so it stays in Fwd.
	fromMid, ok1 := fg.FindBwd(mid, from)
	midHead, ok2 := fg.FindFwd(mid, head)
	if !ok1 || !ok2 {
		// Shortcut's children aren't where expected; fall back to
		// treating this edge as atomic rather than losing the path.
		*result = append(*result, atomicEdge{idx: edgeIdx, bwd: false})
		return
	}
	unpackBwd(fg, fromMid, result, depth+1)
	unpackFwd(fg, midHead, result, depth+1)
}

// unpackBwd expands a backward-CSR edge into atomic edges, appended to
// *result in meet->target order. A backward CSR edge rank(from)->rank(to)
// (from the lower rank) represents the original edge to->from.
func unpackBwd(fg *graph.FastGraph, edgeIdx uint32, result *[]atomicEdge, depth int) {
	if depth > maxUnpackDepth {
		return
	}
	middle := fg.BwdMiddle[edgeIdx]
	if middle < 0 {
		*result = append(*result, atomicEdge{idx: edgeIdx, bwd: true})
		return
	}

	from := fg.SourceOfBwd(edgeIdx) // lower rank
	head := fg.BwdHead[edgeIdx]     // higher rank, real source
	mid := uint32(middle)

	// mid was contracted before both from and head, so it has the lowest
	// rank of the three. Original direction is head->from, split into
	// head->mid, mid->from: head->mid again runs down to the lower-rank
	// mid, so it stays in Bwd keyed by mid; mid->from runs from mid up to
	// the higher-rank from, so it's stored in Fwd.
	headMid, ok1 := fg.FindBwd(mid, head)
	midFrom, ok2 := fg.FindFwd(mid, from)
	if !ok1 || !ok2 {
		*result = append(*result, atomicEdge{idx: edgeIdx, bwd: true})
		return
	}
	unpackBwd(fg, headMid, result, depth+1)
	unpackFwd(fg, midFrom, result, depth+1)
}
