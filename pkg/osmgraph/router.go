package osmgraph

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/easbar/fast-paths/pkg/fastpaths"
	"github.com/easbar/fast-paths/pkg/graph"
	"github.com/easbar/fast-paths/pkg/query"
)

// ErrNoRoute is returned when no route exists between the two points.
var ErrNoRoute = errors.New("osmgraph: no route found")

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// Route is the result of a route query over a Dataset.
type Route struct {
	TotalDistanceMeters float64
	Geometry            []LatLng
}

// Router answers route queries over a prepared Dataset. A single
// query.Calculator is not goroutine-safe: its scratch search state is
// reused across calls. Router instead pools one Calculator per concurrent
// caller over one shared Dataset, rather than restricting itself to one
// in-flight query at a time.
type Router struct {
	ds       *Dataset
	calcPool sync.Pool
}

// NewRouter creates a Router over a prepared Dataset. The returned Router
// is safe for concurrent use by multiple goroutines.
func NewRouter(ds *Dataset) *Router {
	r := &Router{ds: ds}
	r.calcPool.New = func() any {
		return fastpaths.CreateCalculator(ds.fg)
	}
	return r
}

// Route computes the shortest path between two geographic points, snapping
// each to its nearest road edge before running the bidirectional search.
func (r *Router) Route(ctx context.Context, start, end LatLng) (*Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startSnap, err := r.ds.snap.snap(start.Lat, start.Lng)
	if err != nil {
		return nil, err
	}
	endSnap, err := r.ds.snap.snap(end.Lat, end.Lng)
	if err != nil {
		return nil, err
	}

	sources := seedEndpoints(r.ds, startSnap)
	targets := seedEndpoints(r.ds, endSnap)

	calc := r.calcPool.Get().(*query.Calculator)
	defer r.calcPool.Put(calc)

	sp, err := calc.CalcPathMultipleSourcesAndTargets(r.ds.fg, sources, targets)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, ErrNoRoute
	}

	return &Route{
		TotalDistanceMeters: float64(sp.Weight) / 1000.0,
		Geometry:            r.ds.buildGeometry(sp.Nodes),
	}, nil
}

// seedEndpoints turns a snapped point on edge u->v into the two weighted
// query.Endpoint values a bidirectional search seeds from: the snap
// point's distance to each of the edge's two original endpoints.
func seedEndpoints(ds *Dataset, snap snapResult) []query.Endpoint {
	w := ds.weight[snap.edgeIdx]
	dv := uint32(math.Round(float64(w) * (1 - snap.ratio)))
	du := uint32(math.Round(float64(w) * snap.ratio))

	return []query.Endpoint{
		{Node: graph.NodeID(snap.nodeV), InitWeight: dv},
		{Node: graph.NodeID(snap.nodeU), InitWeight: du},
	}
}

// buildGeometry converts a sequence of original node ids into coordinates.
func (ds *Dataset) buildGeometry(nodes []graph.NodeID) []LatLng {
	if len(nodes) == 0 {
		return nil
	}
	geom := make([]LatLng, len(nodes))
	for i, n := range nodes {
		geom[i] = LatLng{Lat: ds.nodeLat[n], Lng: ds.nodeLon[n]}
	}
	return geom
}
