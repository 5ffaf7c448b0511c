package osmgraph

import (
	"errors"
	"math"

	"github.com/easbar/fast-paths/pkg/geo"
	"github.com/tidwall/rtree"
)

// maxSnapDistMeters bounds how far a query point may be from the nearest
// road before it's rejected.
const maxSnapDistMeters = 500.0

// ErrPointTooFar is returned when a query point is too far from any road.
var ErrPointTooFar = errors.New("osmgraph: point too far from road")

// snapResult is a point snapped onto the nearest road edge.
type snapResult struct {
	edgeIdx uint32
	nodeU   uint32
	nodeV   uint32
	ratio   float64 // 0 = at nodeU, 1 = at nodeV
	dist    float64 // meters from the query point to the snapped point
}

// edgeRef is the R-tree payload: the CSR edge index plus its source node,
// so a hit need not re-derive the source via binary search.
type edgeRef struct {
	edgeIdx uint32
	source  uint32
}

// snapIndex finds the nearest road edge to a query point using an R-tree
// over edge bounding boxes, an expanding-window search over successively
// wider bounding boxes until a candidate edge is found.
type snapIndex struct {
	tr rtree.RTreeG[edgeRef]

	head    []uint32
	nodeLat []float64
	nodeLon []float64
}

func newSnapIndex(firstOut, head []uint32, nodeLat, nodeLon []float64) *snapIndex {
	si := &snapIndex{head: head, nodeLat: nodeLat, nodeLon: nodeLon}

	numNodes := uint32(0)
	if len(firstOut) > 0 {
		numNodes = uint32(len(firstOut) - 1)
	}
	for u := uint32(0); u < numNodes; u++ {
		for e := firstOut[u]; e < firstOut[u+1]; e++ {
			v := head[e]
			minLat, maxLat := minMax(nodeLat[u], nodeLat[v])
			minLon, maxLon := minMax(nodeLon[u], nodeLon[v])
			si.tr.Insert([2]float64{minLat, minLon}, [2]float64{maxLat, maxLon}, edgeRef{edgeIdx: e, source: u})
		}
	}
	return si
}

func minMax(a, b float64) (lo, hi float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// degreeWindows are successive half-widths (in degrees) tried around the
// query point until a candidate within maxSnapDistMeters is found. 0.01
// degree is roughly 1.1km at the equator.
var degreeWindows = []float64{0.005, 0.01, 0.02, 0.05, 0.1}

// snap finds the nearest road edge to (lat,lng), expanding the search
// window until a result within maxSnapDistMeters is found or the window
// runs out.
func (si *snapIndex) snap(lat, lng float64) (snapResult, error) {
	bestDist := math.Inf(1)
	var best snapResult
	found := false

	for _, half := range degreeWindows {
		si.tr.Search(
			[2]float64{lat - half, lng - half},
			[2]float64{lat + half, lng + half},
			func(min, max [2]float64, ref edgeRef) bool {
				u, v := ref.source, si.head[ref.edgeIdx]
				dist, ratio := geo.PointToSegmentDist(lat, lng, si.nodeLat[u], si.nodeLon[u], si.nodeLat[v], si.nodeLon[v])
				if dist < bestDist {
					bestDist = dist
					best = snapResult{edgeIdx: ref.edgeIdx, nodeU: u, nodeV: v, ratio: ratio, dist: dist}
					found = true
				}
				return true
			},
		)
		if found && bestDist <= maxSnapDistMeters {
			break
		}
	}

	if !found || bestDist > maxSnapDistMeters {
		return snapResult{}, ErrPointTooFar
	}
	return best, nil
}
