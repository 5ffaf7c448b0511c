package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"

	"github.com/easbar/fast-paths/pkg/osmgraph"
)

// Router is the interface the API depends on for route queries, matching
// osmgraph.Router's method set so handlers_test.go can substitute a mock.
type Router interface {
	Route(ctx context.Context, start, end osmgraph.LatLng) (*osmgraph.Route, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router Router
	stats  StatsResponse
}

// NewHandlers creates handlers with the given router.
func NewHandlers(router Router, stats StatsResponse) *Handlers {
	return &Handlers{
		router: router,
		stats:  stats,
	}
}


// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Validate coordinates.
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	// Route.
	result, err := h.router.Route(r.Context(), osmgraph.LatLng{Lat: req.Start.Lat, Lng: req.Start.Lng}, osmgraph.LatLng{Lat: req.End.Lat, Lng: req.End.Lng})
	if err != nil {
		if errors.Is(err, osmgraph.ErrPointTooFar) {
			writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
			return
		}
		if errors.Is(err, osmgraph.ErrNoRoute) {
			writeError(w, http.StatusNotFound, "no_route_found", "")
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	// Build response. The engine returns one continuous geometry; wrapped as
	// a single segment to keep the wire format stable for API clients.
	geom := make([]LatLngJSON, len(result.Geometry))
	for i, ll := range result.Geometry {
		geom[i] = LatLngJSON{Lat: ll.Lat, Lng: ll.Lng}
	}
	resp := RouteResponse{
		TotalDistanceMeters: result.TotalDistanceMeters,
		Segments: []SegmentJSON{
			{
				DistanceMeters: result.TotalDistanceMeters,
				Geometry:       geom,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
