package graph

// FastGraph is the immutable contraction-hierarchy overlay produced by
// preparation. Storage is reindexed by rank (0 = contracted first = least
// important) for cache locality; RankToID/IDToRank translate back to the
// caller-facing input ids.
//
// Only edges from a lower rank to a higher rank are kept in the forward
// CSR; the reverse direction (higher rank to lower) is mirrored into the
// backward CSR, read as incoming edges during the backward search.
type FastGraph struct {
	NumNodes uint32

	// RankToID[r] is the input id of the node with rank r.
	// IDToRank[id] is the rank of the node with input id id.
	RankToID []NodeID
	IDToRank []NodeID

	// Forward upward graph: edges u->v with rank(u) < rank(v), indexed by
	// rank(u).
	FwdFirstOut []uint32
	FwdHead     []uint32 // target rank
	FwdWeight   []uint32
	// FwdMiddle holds the rank of the node the edge was contracted
	// through, or -1 for an original (non-shortcut) edge. Unpacking
	// resolves a shortcut's two children by looking them up again: since
	// the middle node has the lowest rank of the three, the downward child
	// is found in the backward CSR and the upward child in the forward
	// CSR, both keyed by the middle node's rank, rather than
	// storing owning references to them: the shortcut and its children
	// never need distinct identity, only the ability to be found again.
	FwdMiddle []int32

	// Backward upward graph: mirrors edges v->u with rank(u) < rank(v),
	// indexed by rank(u), i.e. read as "incoming to u".
	BwdFirstOut []uint32
	BwdHead     []uint32 // source rank
	BwdWeight   []uint32
	BwdMiddle   []int32
}

// EdgesFromRankFwd returns the range of forward-edge indices whose source
// has the given rank.
func (fg *FastGraph) EdgesFromRankFwd(rank uint32) (start, end uint32) {
	return fg.FwdFirstOut[rank], fg.FwdFirstOut[rank+1]
}

// EdgesFromRankBwd returns the range of backward-edge indices whose source
// (in the mirrored, backward sense) has the given rank.
func (fg *FastGraph) EdgesFromRankBwd(rank uint32) (start, end uint32) {
	return fg.BwdFirstOut[rank], fg.BwdFirstOut[rank+1]
}

// Rank returns the rank of a node given its input id.
func (fg *FastGraph) Rank(id NodeID) uint32 { return fg.IDToRank[id] }

// ID returns the input id of a node given its rank.
func (fg *FastGraph) ID(rank uint32) NodeID { return fg.RankToID[rank] }

// findEdge returns the index of the edge rank(from)->rank(to) in a CSR
// (firstOut, head) keyed by rank, or false if none exists.
func findEdge(firstOut, head []uint32, from, to uint32) (uint32, bool) {
	start, end := firstOut[from], firstOut[from+1]
	for e := start; e < end; e++ {
		if head[e] == to {
			return e, true
		}
	}
	return 0, false
}

// FindFwd looks up the forward edge rank(from)->rank(to).
func (fg *FastGraph) FindFwd(from, to uint32) (uint32, bool) {
	return findEdge(fg.FwdFirstOut, fg.FwdHead, from, to)
}

// FindBwd looks up the backward edge rank(from)->rank(to) (backward CSR
// semantics: stored source is the higher-rank endpoint).
func (fg *FastGraph) FindBwd(from, to uint32) (uint32, bool) {
	return findEdge(fg.BwdFirstOut, fg.BwdHead, from, to)
}

// SourceOfFwd finds the source rank owning forward edge index e via binary
// search over FwdFirstOut.
func (fg *FastGraph) SourceOfFwd(e uint32) uint32 { return sourceOf(fg.FwdFirstOut, e) }

// SourceOfBwd mirrors SourceOfFwd for the backward CSR.
func (fg *FastGraph) SourceOfBwd(e uint32) uint32 { return sourceOf(fg.BwdFirstOut, e) }

func sourceOf(firstOut []uint32, edgeIdx uint32) uint32 {
	n := uint32(len(firstOut) - 1)
	lo, hi := uint32(0), n
	for lo < hi {
		mid := (lo + hi) / 2
		if firstOut[mid+1] <= edgeIdx {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
