package places

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/observability/metrics"
	"github.com/aryan0dhankhar/outreach/internal/observability/tracing"
	"github.com/aryan0dhankhar/outreach/pkg/cache"
)

// Location is either a coordinate pair or free text to geocode
type Location struct {
	LatLng *LatLng `json:"latLng,omitempty"`
	Place  string  `json:"place,omitempty"`
}

// Criteria describes one place search
type Criteria struct {
	Keyword      string   `json:"keyword,omitempty"`
	Category     string   `json:"category,omitempty"`
	Location     Location `json:"location"`
	RadiusMeters int      `json:"radiusMeters"`
	MaxPages     int      `json:"maxPages,omitempty"`
}

// SearchResult holds the candidates found. Truncated is set when the provider
// stopped cooperating before paging finished; UpstreamStatus then says why.
type SearchResult struct {
	Candidates         []domain.Candidate `json:"results"`
	PagesFetched       int                `json:"pagesFetched"`
	Truncated          bool               `json:"truncated"`
	UpstreamStatus     string             `json:"upstreamStatus,omitempty"`
	EnrichmentFailures int                `json:"enrichmentFailures"`
}

// SearcherConfig tunes pagination and caching
type SearcherConfig struct {
	PageDelay   time.Duration
	MaxPagesCap int
	GeocodeTTL  time.Duration
	SkipDetails bool
}

// Searcher pages through text search results and maps them to import candidates
type Searcher struct {
	provider     Provider
	geocodeCache cache.Store
	cfg          SearcherConfig
	sleep        func(time.Duration)
	logger       *slog.Logger
}

// NewSearcher creates a Searcher. A nil store disables geocode caching.
func NewSearcher(provider Provider, geocodeCache cache.Store, cfg SearcherConfig, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPagesCap < 1 {
		cfg.MaxPagesCap = 3
	}
	return &Searcher{
		provider:     provider,
		geocodeCache: geocodeCache,
		cfg:          cfg,
		sleep:        time.Sleep,
		logger:       logger,
	}
}

// Search resolves the location, then fetches up to MaxPages pages of results.
// Only location resolution, validation and context cancellation return errors.
func (s *Searcher) Search(ctx context.Context, criteria Criteria) (*SearchResult, error) {
	start := time.Now()
	ctx, span := tracing.Tracer().Start(ctx, "places.Search")
	defer span.End()

	result, err := s.search(ctx, criteria)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObservePlacesSearch("error", 0, "", time.Since(start))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("places.pages_fetched", result.PagesFetched),
		attribute.Int("places.candidates", len(result.Candidates)),
		attribute.Bool("places.truncated", result.Truncated),
	)
	metrics.ObservePlacesSearch("ok", result.PagesFetched, result.UpstreamStatus, time.Since(start))
	return result, nil
}

func (s *Searcher) search(ctx context.Context, criteria Criteria) (*SearchResult, error) {
	if criteria.Location.LatLng == nil && strings.TrimSpace(criteria.Location.Place) == "" {
		return nil, domain.NewValidationError("location", "coordinates or a place is required")
	}
	if criteria.RadiusMeters < 0 {
		return nil, domain.NewValidationError("radiusMeters", "must not be negative")
	}

	center, err := s.resolveLocation(ctx, criteria.Location)
	if err != nil {
		return nil, err
	}

	maxPages := s.clampPages(criteria.MaxPages)
	query := strings.TrimSpace(strings.Join([]string{criteria.Keyword, criteria.Category}, " "))
	keywords := criteria.Keyword
	if keywords == "" {
		keywords = criteria.Category
	}

	result := &SearchResult{Candidates: []domain.Candidate{}}
	var pageToken string
	for page := 0; page < maxPages; page++ {
		if pageToken != "" {
			// the provider rejects a next-page token until it has settled
			s.sleep(s.cfg.PageDelay)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := s.provider.TextSearch(ctx, TextSearchRequest{
			Query:        query,
			Location:     *center,
			RadiusMeters: criteria.RadiusMeters,
			PageToken:    pageToken,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("place search truncated by transport failure",
				slog.Int("page", page+1),
				slog.String("error", err.Error()),
			)
			result.Truncated = true
			result.UpstreamStatus = "TRANSPORT_ERROR"
			break
		}
		if resp.Status != StatusOK && resp.Status != StatusZeroResults {
			s.logger.Warn("place search truncated by provider status",
				slog.Int("page", page+1),
				slog.String("status", resp.Status),
			)
			result.Truncated = true
			result.UpstreamStatus = resp.Status
			break
		}
		result.PagesFetched++

		for _, p := range resp.Results {
			candidate, enriched := s.toCandidate(ctx, p, criteria.Category, keywords)
			if !enriched {
				result.EnrichmentFailures++
			}
			result.Candidates = append(result.Candidates, candidate)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	s.logger.Info("place search completed",
		slog.String("query", query),
		slog.Int("pages", result.PagesFetched),
		slog.Int("candidates", len(result.Candidates)),
		slog.Bool("truncated", result.Truncated),
	)
	return result, nil
}

func (s *Searcher) clampPages(requested int) int {
	switch {
	case requested < 1:
		return 1
	case requested > s.cfg.MaxPagesCap:
		return s.cfg.MaxPagesCap
	default:
		return requested
	}
}

func (s *Searcher) resolveLocation(ctx context.Context, loc Location) (*LatLng, error) {
	if loc.LatLng != nil {
		return loc.LatLng, nil
	}

	text := strings.TrimSpace(loc.Place)
	key := "geocode:" + strings.ToLower(text)
	if s.geocodeCache != nil {
		var cached LatLng
		found, err := s.geocodeCache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("geocode cache read failed", slog.String("error", err.Error()))
		}
		metrics.ObserveGeocodeCache(found)
		if found {
			return &cached, nil
		}
	}

	point, err := s.provider.Geocode(ctx, text)
	if err != nil {
		return nil, &domain.LocationResolutionError{Location: text, Err: err}
	}
	if point == nil {
		return nil, &domain.LocationResolutionError{Location: text}
	}

	if s.geocodeCache != nil {
		if err := s.geocodeCache.Set(ctx, key, point, s.cfg.GeocodeTTL); err != nil {
			s.logger.Warn("geocode cache write failed", slog.String("error", err.Error()))
		}
	}
	return point, nil
}

// toCandidate maps a search result and enriches it from place details.
// The bool is false when a detail lookup was attempted and failed.
func (s *Searcher) toCandidate(ctx context.Context, p Place, category, keywords string) (domain.Candidate, bool) {
	loc := LocalityOf(p)
	candidate := domain.Candidate{
		PlaceID:     p.PlaceID,
		Name:        p.Name,
		Address:     p.FormattedAddress,
		MainService: category,
		Keywords:    keywords,
	}

	enriched := true
	if p.PlaceID != "" && !s.cfg.SkipDetails {
		details, err := s.provider.PlaceDetails(ctx, p.PlaceID)
		if err != nil {
			enriched = false
			metrics.ObserveEnrichmentFailure()
			s.logger.Warn("place details lookup failed",
				slog.String("place_id", p.PlaceID),
				slog.String("error", err.Error()),
			)
		} else if details != nil {
			candidate.Contact.Phone = details.Phone
			candidate.Contact.Website = details.Website
			if len(details.AddressComponents) > 0 {
				loc = loc.merge(ParseComponents(details.AddressComponents))
			}
		}
	}

	candidate.City = loc.City
	candidate.State = loc.State
	candidate.Zip = loc.Zip
	return candidate, enriched
}

// String renders criteria for logs
func (c Criteria) String() string {
	where := c.Location.Place
	if c.Location.LatLng != nil {
		where = fmt.Sprintf("%g,%g", c.Location.LatLng.Lat, c.Location.LatLng.Lng)
	}
	return fmt.Sprintf("keyword=%q category=%q location=%q radius=%d pages=%d",
		c.Keyword, c.Category, where, c.RadiusMeters, c.MaxPages)
}
