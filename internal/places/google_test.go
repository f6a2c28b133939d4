package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewGoogleProvider(GoogleConfig{APIKey: "test-key", BaseURL: srv.URL + "/"}, quietLogger())
	g.retryCfg.InitialBackoff = 0
	return g
}

func TestGoogleGeocode(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" || r.URL.Query().Get("address") != "Austin, TX" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":30.27,"lng":-97.74}}}]}`))
	})
	got, err := g.Geocode(context.Background(), "Austin, TX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Lat != 30.27 || got.Lng != -97.74 {
		t.Fatalf("unexpected location %+v", got)
	}
}

func TestGoogleGeocodeNoResults(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	got, err := g.Geocode(context.Background(), "nowhere")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got %+v, %v", got, err)
	}
}

func TestGoogleTextSearch(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/place/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("query") != "roofing contractor" || q.Get("radius") != "5000" || q.Get("pagetoken") != "abc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"OK","next_page_token":"def","results":[{"place_id":"p1","name":"Acme","formatted_address":"1 Main St, Austin, TX 78701, USA"}]}`))
	})
	page, err := g.TextSearch(context.Background(), TextSearchRequest{
		Query:        "roofing contractor",
		Location:     LatLng{Lat: 1, Lng: 2},
		RadiusMeters: 5000,
		PageToken:    "abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Status != StatusOK || page.NextPageToken != "def" || len(page.Results) != 1 || page.Results[0].PlaceID != "p1" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestGoogleTextSearchHTTPError(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := g.TextSearch(context.Background(), TextSearchRequest{Query: "x"})
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError 502, got %v", err)
	}
}

func TestGooglePlaceDetailsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") != detailFields {
			t.Errorf("unexpected fields %s", r.URL.Query().Get("fields"))
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"OK","result":{"international_phone_number":"+1 555","website":"https://acme.example"}}`))
	})
	got, err := g.PlaceDetails(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone != "+1 555" || got.Website != "https://acme.example" {
		t.Fatalf("unexpected details %+v", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestGooglePlaceDetailsNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"status":"NOT_FOUND"}`))
	})
	_, err := g.PlaceDetails(context.Background(), "missing")
	if !errors.Is(err, ErrDetailsUnavailable) {
		t.Fatalf("expected ErrDetailsUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}
