// Package prep implements PreparationGraph: the mutable adjacency
// representation used only during contraction. It is built once from a
// frozen graph.InputGraph and discarded once graph.FastGraph assembly
// completes.
package prep

import "github.com/easbar/fast-paths/pkg/graph"

// Entry is one adjacency-list entry: an edge to/from Node with Weight,
// optionally a shortcut with middle node Middle (-1 for an original edge).
// Live is cleared, not removed, when the far endpoint is contracted, so the
// entry remains available as a backref for shortcut unpacking.
type Entry struct {
	Node   graph.NodeID
	Weight graph.Weight
	Middle int32 // -1 for original edges, else the contracted node's id
	Live   bool
}

// Graph is the PreparationGraph: for each node, a live-tagged out- and
// in-adjacency list.
type Graph struct {
	out [][]Entry
	in  [][]Entry

	liveOutDeg []int32
	liveInDeg  []int32
	contracted []bool
}

// Build constructs a PreparationGraph from a frozen InputGraph.
func Build(ig *graph.InputGraph) *Graph {
	n := ig.NumNodes()
	g := &Graph{
		out:        make([][]Entry, n),
		in:         make([][]Entry, n),
		liveOutDeg: make([]int32, n),
		liveInDeg:  make([]int32, n),
		contracted: make([]bool, n),
	}
	ig.Edges(func(tail, head graph.NodeID, weight graph.Weight) {
		g.out[tail] = append(g.out[tail], Entry{Node: head, Weight: weight, Middle: -1, Live: true})
		g.in[head] = append(g.in[head], Entry{Node: tail, Weight: weight, Middle: -1, Live: true})
		g.liveOutDeg[tail]++
		g.liveInDeg[head]++
	})
	return g
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() uint32 { return uint32(len(g.out)) }

// OutEdges calls fn once per live outgoing entry of v.
func (g *Graph) OutEdges(v graph.NodeID, fn func(e Entry)) {
	for _, e := range g.out[v] {
		if e.Live {
			fn(e)
		}
	}
}

// InEdges calls fn once per live incoming entry of v.
func (g *Graph) InEdges(v graph.NodeID, fn func(e Entry)) {
	for _, e := range g.in[v] {
		if e.Live {
			fn(e)
		}
	}
}

// LiveOutDegree returns the number of live outgoing edges of v.
func (g *Graph) LiveOutDegree(v graph.NodeID) int { return int(g.liveOutDeg[v]) }

// LiveInDegree returns the number of live incoming edges of v.
func (g *Graph) LiveInDegree(v graph.NodeID) int { return int(g.liveInDeg[v]) }

// Contracted reports whether v has been contracted.
func (g *Graph) Contracted(v graph.NodeID) bool { return g.contracted[v] }

// Contract marks v as contracted: its incident entries become non-live
// (but remain in storage as backrefs) and are skipped by future witness
// searches and contractions.
func (g *Graph) Contract(v graph.NodeID) {
	if g.contracted[v] {
		return
	}
	g.contracted[v] = true

	for i := range g.out[v] {
		e := &g.out[v][i]
		if e.Live {
			e.Live = false
			g.liveOutDeg[v]--
			g.removeIncoming(e.Node, v)
		}
	}
	for i := range g.in[v] {
		e := &g.in[v][i]
		if e.Live {
			e.Live = false
			g.liveInDeg[v]--
			g.removeOutgoing(e.Node, v)
		}
	}
}

func (g *Graph) removeIncoming(at, from graph.NodeID) {
	for i := range g.in[at] {
		e := &g.in[at][i]
		if e.Live && e.Node == from {
			e.Live = false
			g.liveInDeg[at]--
			return
		}
	}
}

func (g *Graph) removeOutgoing(at, to graph.NodeID) {
	for i := range g.out[at] {
		e := &g.out[at][i]
		if e.Live && e.Node == to {
			e.Live = false
			g.liveOutDeg[at]--
			return
		}
	}
}

// InsertShortcut inserts shortcut (u,w,weight,center) into the out-list of
// u and the in-list of w. If a live parallel edge u->w already exists, it
// is replaced only if weight is strictly smaller; otherwise
// the shortcut is appended. Returns true if anything changed (an edge was
// appended or replaced) so the NodeContractor can count true edge
// differences.
func (g *Graph) InsertShortcut(u, w graph.NodeID, weight graph.Weight, center graph.NodeID) bool {
	for i := range g.out[u] {
		e := &g.out[u][i]
		if e.Live && e.Node == w {
			if weight < e.Weight {
				e.Weight = weight
				e.Middle = int32(center)
				g.replaceIncoming(w, u, weight, center)
				return true
			}
			return false
		}
	}

	g.out[u] = append(g.out[u], Entry{Node: w, Weight: weight, Middle: int32(center), Live: true})
	g.in[w] = append(g.in[w], Entry{Node: u, Weight: weight, Middle: int32(center), Live: true})
	g.liveOutDeg[u]++
	g.liveInDeg[w]++
	return true
}

func (g *Graph) replaceIncoming(w, u graph.NodeID, weight graph.Weight, center graph.NodeID) {
	for i := range g.in[w] {
		e := &g.in[w][i]
		if e.Live && e.Node == u {
			e.Weight = weight
			e.Middle = int32(center)
			return
		}
	}
}

// AllOutEntries returns every entry ever inserted into the out-adjacency of v
// (live and non-live), used only by FastGraph assembly which needs to walk
// every original-or-shortcut edge regardless of later contraction.
func (g *Graph) AllOutEntries(v graph.NodeID) []Entry { return g.out[v] }

// AllInEntries mirrors AllOutEntries for the in-adjacency of v.
func (g *Graph) AllInEntries(v graph.NodeID) []Entry { return g.in[v] }
