package osmgraph

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/easbar/fast-paths/pkg/geo"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// rawEdge is a directed edge parsed from OSM data, keyed by OSM node id.
type rawEdge struct {
	fromNodeID osm.NodeID
	toNodeID   osm.NodeID
	weight     uint32 // distance in millimeters
}

// parseResult holds the output of parsing an OSM PBF extract.
type parseResult struct {
	edges   []rawEdge
	nodeLat map[osm.NodeID]float64
	nodeLon map[osm.NodeID]float64
}

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}
	return true
}

// directionFlags returns (forward, backward) based on highway type and
// oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		forward = false
		backward = false
	}

	return forward, backward
}

type wayInfo struct {
	nodeIDs  []osm.NodeID
	forward  bool
	backward bool
}

// BBox restricts parsing to a geographic bounding box. The zero value
// disables filtering.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero reports whether the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains reports whether the point lies inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// parseOptions configures parse.
type parseOptions struct {
	BBox BBox
}

// parse reads an OSM PBF extract and returns directed, car-accessible
// edges weighted by great-circle distance. rs is scanned twice (once for
// ways, once for node coordinates), so it must support seeking.
func parse(ctx context.Context, rs io.ReadSeeker, opts parseOptions) (*parseResult, error) {
	useBBox := !opts.BBox.IsZero()

	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			continue
		}
		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{nodeIDs: nodeIDs, forward: fwd, backward: bwd})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("osmgraph: pass 1 (ways): %w", err)
	}
	scanner.Close()
	log.Printf("osmgraph: pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referencedNodes))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("osmgraph: seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("osmgraph: pass 2 (nodes): %w", err)
	}
	scanner.Close()
	log.Printf("osmgraph: pass 2 complete: %d node coordinates collected", len(nodeLat))

	var edges []rawEdge
	var skipped, bboxFiltered int

	for _, w := range ways {
		for i := 0; i < len(w.nodeIDs)-1; i++ {
			fromID, toID := w.nodeIDs[i], w.nodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOk := nodeLat[toID]
			toLon := nodeLon[toID]
			if !fromOk || !toOk {
				skipped++
				continue
			}
			if useBBox && (!opts.BBox.Contains(fromLat, fromLon) || !opts.BBox.Contains(toLat, toLon)) {
				bboxFiltered++
				continue
			}

			dist := geo.Haversine(fromLat, fromLon, toLat, toLon)
			weightMM := uint32(math.Round(dist * 1000))
			if weightMM == 0 {
				weightMM = 1
			}

			if w.forward {
				edges = append(edges, rawEdge{fromNodeID: fromID, toNodeID: toID, weight: weightMM})
			}
			if w.backward {
				edges = append(edges, rawEdge{fromNodeID: toID, toNodeID: fromID, weight: weightMM})
			}
		}
	}

	if skipped > 0 {
		log.Printf("osmgraph: skipped %d edges due to missing node coordinates", skipped)
	}
	if bboxFiltered > 0 {
		log.Printf("osmgraph: filtered %d edges outside bounding box", bboxFiltered)
	}
	log.Printf("osmgraph: built %d directed edges", len(edges))

	return &parseResult{edges: edges, nodeLat: nodeLat, nodeLon: nodeLon}, nil
}
