package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/places"
)

// PlaceSearcher runs a paginated place search
type PlaceSearcher interface {
	Search(ctx context.Context, criteria places.Criteria) (*places.SearchResult, error)
}

// PlaceSearchRequest is the body of POST /api/places/search. Location holds
// either lat/lng or a free-text cityOrZip.
type PlaceSearchRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Location struct {
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		CityOrZip string   `json:"cityOrZip"`
	} `json:"location"`
	RadiusMeters int `json:"radiusMeters"`
	MaxPages     int `json:"maxPages"`
}

// PlacesHandler proxies searches to the places provider so the API key
// never leaves the server
type PlacesHandler struct {
	searcher PlaceSearcher
	logger   *slog.Logger
}

// NewPlacesHandler creates a places handler
func NewPlacesHandler(searcher PlaceSearcher, logger *slog.Logger) *PlacesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlacesHandler{searcher: searcher, logger: logger}
}

// Search handles POST /api/places/search
func (h *PlacesHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r, h.logger); !ok {
		return
	}

	var req PlaceSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	criteria := places.Criteria{
		Keyword:      strings.TrimSpace(req.Keyword),
		Category:     strings.TrimSpace(req.Category),
		RadiusMeters: req.RadiusMeters,
		MaxPages:     req.MaxPages,
	}
	switch {
	case req.Location.Lat != nil && req.Location.Lng != nil:
		criteria.Location.LatLng = &places.LatLng{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	case strings.TrimSpace(req.Location.CityOrZip) != "":
		criteria.Location.Place = strings.TrimSpace(req.Location.CityOrZip)
	default:
		writeServiceError(w, r, h.logger, domain.NewValidationError("location", "lat/lng or cityOrZip is required"))
		return
	}

	result, err := h.searcher.Search(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if result.Candidates == nil {
		result.Candidates = []domain.Candidate{}
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}
