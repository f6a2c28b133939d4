package places

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/pkg/cache"
)

type scriptedProvider struct {
	pages       []*TextSearchPage
	pageErrs    []error
	requests    []TextSearchRequest
	geocode     *LatLng
	geocodeErr  error
	geocodes    int
	details     map[string]*Place
	detailsErrs map[string]error
}

func (p *scriptedProvider) Geocode(ctx context.Context, text string) (*LatLng, error) {
	p.geocodes++
	return p.geocode, p.geocodeErr
}

func (p *scriptedProvider) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchPage, error) {
	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.pageErrs) && p.pageErrs[i] != nil {
		return nil, p.pageErrs[i]
	}
	if i >= len(p.pages) {
		return &TextSearchPage{Status: StatusZeroResults}, nil
	}
	return p.pages[i], nil
}

func (p *scriptedProvider) PlaceDetails(ctx context.Context, placeID string) (*Place, error) {
	if err := p.detailsErrs[placeID]; err != nil {
		return nil, err
	}
	if d, ok := p.details[placeID]; ok {
		return d, nil
	}
	return &Place{PlaceID: placeID}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSearcher(p Provider, cfg SearcherConfig) (*Searcher, *[]time.Duration) {
	s := NewSearcher(p, cache.NewMemoryStore(), cfg, quietLogger())
	var delays []time.Duration
	s.sleep = func(d time.Duration) { delays = append(delays, d) }
	return s, &delays
}

func atCoords() Location {
	return Location{LatLng: &LatLng{Lat: 30.26, Lng: -97.74}}
}

func TestSearchStopsWhenNoNextPageToken(t *testing.T) {
	provider := &scriptedProvider{pages: []*TextSearchPage{
		{Status: StatusOK, Results: []Place{{PlaceID: "p1", Name: "One"}}, NextPageToken: "tok"},
		{Status: StatusOK, Results: []Place{{PlaceID: "p2", Name: "Two"}}},
		{Status: StatusZeroResults},
	}}
	s, delays := newTestSearcher(provider, SearcherConfig{PageDelay: 2 * time.Second, MaxPagesCap: 5})

	res, err := s.Search(context.Background(), Criteria{Keyword: "roofing", Location: atCoords(), RadiusMeters: 5000, MaxPages: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(provider.requests))
	}
	if len(*delays) != 1 || (*delays)[0] != 2*time.Second {
		t.Fatalf("expected exactly one 2s delay, got %v", *delays)
	}
	if provider.requests[1].PageToken != "tok" {
		t.Fatalf("expected second call to carry the page token")
	}
	if res.PagesFetched != 2 || len(res.Candidates) != 2 || res.Truncated {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSearchTokenToEmptyPage(t *testing.T) {
	provider := &scriptedProvider{pages: []*TextSearchPage{
		{Status: StatusOK, Results: []Place{{PlaceID: "p1", Name: "One"}}, NextPageToken: "tok1"},
		{Status: StatusOK, Results: []Place{{PlaceID: "p2", Name: "Two"}}, NextPageToken: "tok2"},
		{Status: StatusZeroResults},
	}}
	s, delays := newTestSearcher(provider, SearcherConfig{PageDelay: 2 * time.Second, MaxPagesCap: 5})

	res, err := s.Search(context.Background(), Criteria{Keyword: "roofing", Location: atCoords(), RadiusMeters: 5000, MaxPages: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.requests) != 3 || provider.requests[2].PageToken != "tok2" {
		t.Fatalf("expected a third call with the second token, got %+v", provider.requests)
	}
	if len(*delays) != 2 {
		t.Fatalf("expected one delay per token, got %v", *delays)
	}
	if len(res.Candidates) != 2 || res.PagesFetched != 3 || res.Truncated {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSearchClampsMaxPages(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		wantCalls int
	}{
		{"default to one page", 0, 1},
		{"within cap", 2, 2},
		{"above cap", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{}
			for i := 0; i < 10; i++ {
				provider.pages = append(provider.pages, &TextSearchPage{Status: StatusOK, NextPageToken: "more"})
			}
			s, _ := newTestSearcher(provider, SearcherConfig{MaxPagesCap: 3})
			if _, err := s.Search(context.Background(), Criteria{Location: atCoords(), MaxPages: tt.requested}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(provider.requests) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, len(provider.requests))
			}
		})
	}
}

func TestSearchZeroResultsIsEmptyNotError(t *testing.T) {
	provider := &scriptedProvider{pages: []*TextSearchPage{{Status: StatusZeroResults}}}
	s, _ := newTestSearcher(provider, SearcherConfig{})
	res, err := s.Search(context.Background(), Criteria{Location: atCoords()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Candidates) != 0 || res.Truncated || res.PagesFetched != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSearchTruncatesOnProviderStatus(t *testing.T) {
	provider := &scriptedProvider{pages: []*TextSearchPage{
		{Status: StatusOK, Results: []Place{{Name: "Kept"}}, NextPageToken: "tok"},
		{Status: "OVER_QUERY_LIMIT"},
	}}
	s, _ := newTestSearcher(provider, SearcherConfig{MaxPagesCap: 3})
	res, err := s.Search(context.Background(), Criteria{Location: atCoords(), MaxPages: 3})
	if err != nil {
		t.Fatalf("degraded upstream must not be an error: %v", err)
	}
	if !res.Truncated || res.UpstreamStatus != "OVER_QUERY_LIMIT" {
		t.Fatalf("expected truncation with status, got %+v", res)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Name != "Kept" {
		t.Fatalf("expected accumulated results to survive, got %+v", res.Candidates)
	}
}

func TestSearchTruncatesOnTransportFailure(t *testing.T) {
	provider := &scriptedProvider{pageErrs: []error{errors.New("connection reset")}}
	s, _ := newTestSearcher(provider, SearcherConfig{})
	res, err := s.Search(context.Background(), Criteria{Location: atCoords()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Truncated || res.UpstreamStatus != "TRANSPORT_ERROR" || res.PagesFetched != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSearchGeocodeFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *scriptedProvider
	}{
		{"no match", &scriptedProvider{}},
		{"transport error", &scriptedProvider{geocodeErr: errors.New("timeout")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSearcher(tt.provider, SearcherConfig{})
			_, err := s.Search(context.Background(), Criteria{Location: Location{Place: "Atlantis"}})
			var locErr *domain.LocationResolutionError
			if !errors.As(err, &locErr) {
				t.Fatalf("expected LocationResolutionError, got %v", err)
			}
			if len(tt.provider.requests) != 0 {
				t.Fatal("expected no text search after failed geocode")
			}
		})
	}
}

func TestSearchCachesGeocode(t *testing.T) {
	provider := &scriptedProvider{geocode: &LatLng{Lat: 1, Lng: 2}}
	s, _ := newTestSearcher(provider, SearcherConfig{GeocodeTTL: time.Hour})
	for i := 0; i < 2; i++ {
		if _, err := s.Search(context.Background(), Criteria{Location: Location{Place: "Austin, TX"}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if provider.geocodes != 1 {
		t.Fatalf("expected one geocode call, got %d", provider.geocodes)
	}
	if provider.requests[1].Location != (LatLng{Lat: 1, Lng: 2}) {
		t.Fatalf("expected cached coordinates, got %+v", provider.requests[1].Location)
	}
}

func TestSearchRequiresLocation(t *testing.T) {
	s, _ := newTestSearcher(&scriptedProvider{}, SearcherConfig{})
	_, err := s.Search(context.Background(), Criteria{Keyword: "plumber"})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSearchEnrichmentIsolation(t *testing.T) {
	provider := &scriptedProvider{
		pages: []*TextSearchPage{{Status: StatusOK, Results: []Place{
			{PlaceID: "good", Name: "Good", FormattedAddress: "1 A St, Austin, TX 78701, USA"},
			{PlaceID: "bad", Name: "Bad", FormattedAddress: "2 B St, Dallas, TX 75201, USA"},
			{Name: "NoID", FormattedAddress: "3 C St, Waco, TX 76701, USA"},
		}}},
		details: map[string]*Place{
			"good": {
				Phone:   "+1 512-555-0100",
				Website: "https://good.example",
				AddressComponents: []AddressComponent{
					{LongName: "78702", Types: []string{"postal_code"}},
				},
			},
		},
		detailsErrs: map[string]error{"bad": errors.New("details down")},
	}
	s, _ := newTestSearcher(provider, SearcherConfig{})
	res, err := s.Search(context.Background(), Criteria{Keyword: "hvac", Category: "contractor", Location: atCoords()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Candidates) != 3 || res.EnrichmentFailures != 1 {
		t.Fatalf("expected 3 candidates with 1 enrichment failure, got %+v", res)
	}

	good := res.Candidates[0]
	if good.Contact.Phone != "+1 512-555-0100" || good.Contact.Website != "https://good.example" {
		t.Fatalf("expected enriched contact, got %+v", good.Contact)
	}
	if good.City != "Austin" || good.State != "TX" || good.Zip != "78702" {
		t.Fatalf("expected detail components merged over split address, got %+v", good)
	}
	if good.MainService != "contractor" || good.Keywords != "hvac" {
		t.Fatalf("unexpected service mapping %+v", good)
	}

	bad := res.Candidates[1]
	if bad.City != "Dallas" || bad.Contact.Phone != "" {
		t.Fatalf("expected unenriched candidate with split address, got %+v", bad)
	}
}

func TestSearchKeywordsFallBackToCategory(t *testing.T) {
	provider := &scriptedProvider{pages: []*TextSearchPage{{Status: StatusOK, Results: []Place{{Name: "X"}}}}}
	s, _ := newTestSearcher(provider, SearcherConfig{})
	res, err := s.Search(context.Background(), Criteria{Category: "roofing", Location: atCoords()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Candidates[0].Keywords != "roofing" {
		t.Fatalf("expected keywords to fall back to category, got %q", res.Candidates[0].Keywords)
	}
	if provider.requests[0].Query != "roofing" {
		t.Fatalf("expected trimmed query, got %q", provider.requests[0].Query)
	}
}

func TestSearchSkipDetails(t *testing.T) {
	provider := &scriptedProvider{
		pages:       []*TextSearchPage{{Status: StatusOK, Results: []Place{{PlaceID: "p1", Name: "X"}}}},
		detailsErrs: map[string]error{"p1": errors.New("must not be called")},
	}
	s, _ := newTestSearcher(provider, SearcherConfig{SkipDetails: true})
	res, err := s.Search(context.Background(), Criteria{Location: atCoords()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EnrichmentFailures != 0 {
		t.Fatalf("expected details to be skipped, got %d failures", res.EnrichmentFailures)
	}
}

func TestSearchCancelledBetweenPages(t *testing.T) {
	provider := &scriptedProvider{pages: []*TextSearchPage{
		{Status: StatusOK, NextPageToken: "tok"},
		{Status: StatusOK},
	}}
	s, _ := newTestSearcher(provider, SearcherConfig{MaxPagesCap: 3})
	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(time.Duration) { cancel() }

	_, err := s.Search(ctx, Criteria{Location: atCoords(), MaxPages: 3})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(provider.requests) != 1 {
		t.Fatalf("expected no request after cancellation, got %d", len(provider.requests))
	}
}
