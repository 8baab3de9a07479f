package http

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type locationsResponse struct {
	Success        bool                    `json:"success"`
	FileName       string                  `json:"fileName"`
	Locations      []domain.LocationRecord `json:"locations"`
	TotalLocations int                     `json:"totalLocations"`
	Source         pipeline.Source         `json:"source"`
	Timestamp      string                  `json:"timestamp"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	req := parseLocationsRequest(r, s.opts.DefaultFileName)

	// Ingestion outlives the client connection so its result still reaches
	// the cache.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.IngestTimeout)
	defer cancel()

	res, err := s.deps.Locations.Locations(ctx, req)
	if err != nil {
		s.logger.Error("locations request failed", "file", req.FileName, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "Failed to fetch CSV data",
			Details:   err.Error(),
			Timestamp: s.timestamp(),
		})
		return
	}

	locations := res.Locations
	if locations == nil {
		locations = []domain.LocationRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, locationsResponse{
		Success:        true,
		FileName:       res.FileName,
		Locations:      locations,
		TotalLocations: res.Total,
		Source:         res.Source,
		Timestamp:      formatTimestamp(res.Timestamp),
	})
}

// parseLocationsRequest reads the query string. A center is used only when
// both coordinates parse as finite numbers; anything else means "no center".
func parseLocationsRequest(r *http.Request, defaultFile string) pipeline.Request {
	q := r.URL.Query()
	req := pipeline.Request{
		FileName: q.Get("fileName"),
		Viewport: q.Get("viewport") == "true",
	}
	if req.FileName == "" {
		req.FileName = defaultFile
	}

	lat, okLat := parseCoordinate(q.Get("centerLat"))
	lng, okLng := parseCoordinate(q.Get("centerLng"))
	if okLat && okLng {
		req.Center = &domain.Point{Lat: lat, Lng: lng}
	}

	switch q.Get("geocode") {
	case "true":
		v := true
		req.Geocode = &v
	case "false":
		v := false
		req.Geocode = &v
	}
	return req
}

func parseCoordinate(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
