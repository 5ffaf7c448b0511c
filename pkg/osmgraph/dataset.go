package osmgraph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/easbar/fast-paths/pkg/fastpaths"
	"github.com/easbar/fast-paths/pkg/graph"

	"github.com/paulmach/osm"
)

// BuildOptions configures dataset construction from an OSM extract.
type BuildOptions struct {
	BBox   BBox
	Config fastpaths.Config

	// FilterToLargestComponent drops every node outside the largest weakly
	// connected component before preparation. Real-world extracts routinely
	// contain small disconnected slivers that would otherwise leave the
	// prepared FastGraph full of unreachable pairs; left false by default
	// so library callers that already guarantee connectivity don't pay for
	// it.
	FilterToLargestComponent bool
}

// Dataset bundles a prepared FastGraph with the original node coordinates,
// adjacency, and spatial index needed to snap query points and render
// route geometry, none of which the abstract CH core needs to know about.
type Dataset struct {
	fg *graph.FastGraph

	firstOut []uint32
	head     []uint32
	weight   []uint32
	nodeLat  []float64
	nodeLon  []float64

	snap *snapIndex
}

type compactEdge struct {
	from, to graph.NodeID
	weight   graph.Weight
}

// Build parses an OSM PBF extract from r, builds a routable graph over
// car-accessible ways, and runs contraction hierarchy preparation over it.
func Build(ctx context.Context, r io.Reader, opts BuildOptions) (*Dataset, error) {
	rs, err := asReadSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("osmgraph: %w", err)
	}

	pr, err := parse(ctx, rs, parseOptions{BBox: opts.BBox})
	if err != nil {
		return nil, err
	}
	if len(pr.edges) == 0 {
		return nil, fmt.Errorf("osmgraph: no routable edges parsed")
	}

	nodeIdx := make(map[osm.NodeID]graph.NodeID)
	var nodeIDs []osm.NodeID
	compactID := func(id osm.NodeID) graph.NodeID {
		if idx, ok := nodeIdx[id]; ok {
			return idx
		}
		idx := graph.NodeID(len(nodeIDs))
		nodeIdx[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	ig := fastpaths.NewInputGraph()
	compact := make([]compactEdge, 0, len(pr.edges))
	for _, e := range pr.edges {
		from, to := compactID(e.fromNodeID), compactID(e.toNodeID)
		if err := ig.AddEdge(from, to, e.weight); err != nil {
			continue // zero-weight edge rejected by AddEdge; self-loops are accepted here and dropped later by Freeze and buildOriginalCSR
		}
		compact = append(compact, compactEdge{from: from, to: to, weight: e.weight})
	}
	ig.Freeze()

	numNodes := uint32(len(nodeIDs))
	nodeLat := make([]float64, numNodes)
	nodeLon := make([]float64, numNodes)
	for id, idx := range nodeIdx {
		nodeLat[idx] = pr.nodeLat[id]
		nodeLon[idx] = pr.nodeLon[id]
	}

	if opts.FilterToLargestComponent {
		ig, compact, nodeLat, nodeLon = filterToLargestComponent(ig, compact, nodeLat, nodeLon)
		numNodes = uint32(len(nodeLat))
	}

	firstOut, head, weight := buildOriginalCSR(numNodes, compact)

	fg, err := fastpaths.Prepare(ig, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("osmgraph: prepare: %w", err)
	}

	return &Dataset{
		fg:       fg,
		firstOut: firstOut,
		head:     head,
		weight:   weight,
		nodeLat:  nodeLat,
		nodeLon:  nodeLon,
		snap:     newSnapIndex(firstOut, head, nodeLat, nodeLon),
	}, nil
}

// filterToLargestComponent drops every node outside ig's largest weakly
// connected component, densely remapping node ids, coordinates, and the
// parallel compact edge list in lockstep with graph.FilterToComponent's own
// oldToNew convention so all three stay consistent with each other.
func filterToLargestComponent(ig *graph.InputGraph, compact []compactEdge, nodeLat, nodeLon []float64) (*graph.InputGraph, []compactEdge, []float64, []float64) {
	kept := graph.LargestComponent(ig)
	filtered := graph.FilterToComponent(ig, kept)

	oldToNew := make(map[graph.NodeID]graph.NodeID, len(kept))
	newNodeLat := make([]float64, len(kept))
	newNodeLon := make([]float64, len(kept))
	for newID, oldID := range kept {
		oldToNew[oldID] = graph.NodeID(newID)
		newNodeLat[newID] = nodeLat[oldID]
		newNodeLon[newID] = nodeLon[oldID]
	}

	remapped := make([]compactEdge, 0, len(compact))
	for _, e := range compact {
		newFrom, okFrom := oldToNew[e.from]
		newTo, okTo := oldToNew[e.to]
		if okFrom && okTo {
			remapped = append(remapped, compactEdge{from: newFrom, to: newTo, weight: e.weight})
		}
	}

	return filtered, remapped, newNodeLat, newNodeLon
}

// asReadSeeker returns r itself if it already seeks, else buffers it fully
// — the OSM PBF scan needs two passes (ways, then node coordinates).
func asReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering extract for two-pass scan: %w", err)
	}
	return bytes.NewReader(buf), nil
}

// buildOriginalCSR sorts edges by (from,to,weight), drops self-loops, and
// keeps only the minimum-weight entry per duplicate (from,to) pair — the
// same rule graph.InputGraph.Freeze applies, kept in lockstep here so the
// geometry/snap CSR agrees with the edges fastpaths.Prepare actually saw.
func buildOriginalCSR(numNodes uint32, edges []compactEdge) (firstOut, head, weight []uint32) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		if edges[i].to != edges[j].to {
			return edges[i].to < edges[j].to
		}
		return edges[i].weight < edges[j].weight
	})

	deduped := edges[:0]
	for _, e := range edges {
		if e.from == e.to {
			continue
		}
		if n := len(deduped); n > 0 && deduped[n-1].from == e.from && deduped[n-1].to == e.to {
			continue // a cheaper (from,to) entry was already kept, sort guarantees it sorted first
		}
		deduped = append(deduped, e)
	}

	firstOut = make([]uint32, numNodes+1)
	head = make([]uint32, len(deduped))
	weight = make([]uint32, len(deduped))
	for i, e := range deduped {
		head[i] = e.to
		weight[i] = e.weight
		firstOut[e.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}
	return firstOut, head, weight
}
