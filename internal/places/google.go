package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/outreach/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/outreach/internal/reliability/retry"
)

const detailFields = "formatted_address,international_phone_number,website,address_components"

// HTTPStatusError is a non-2xx response from the provider
type HTTPStatusError struct {
	Endpoint string
	Code     int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.Code)
}

// GoogleConfig configures the Google Maps web service client
type GoogleConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GoogleProvider talks to the Google geocode, text search and place details endpoints
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   *retry.Config
	logger     *slog.Logger
}

// NewGoogleProvider creates the provider. Detail lookups are retried on transient
// failures and guarded by a circuit breaker.
func NewGoogleProvider(cfg GoogleConfig, logger *slog.Logger) *GoogleProvider {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := circuitbreaker.NewCircuitBreaker(5, 1, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("place details circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 2
	retryCfg.ShouldRetry = isTransient

	return &GoogleProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker:  breaker,
		retryCfg: retryCfg,
		logger:   logger,
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves a city, zip or address. No result is reported as (nil, nil).
func (g *GoogleProvider) Geocode(ctx context.Context, text string) (*LatLng, error) {
	var resp geocodeResponse
	if err := g.getJSON(ctx, "geocode/json", url.Values{"address": {text}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	loc := resp.Results[0].Geometry.Location
	return &loc, nil
}

// TextSearch fetches one page of text search results
func (g *GoogleProvider) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchPage, error) {
	params := url.Values{
		"query":    {req.Query},
		"location": {fmt.Sprintf("%g,%g", req.Location.Lat, req.Location.Lng)},
	}
	if req.RadiusMeters > 0 {
		params.Set("radius", strconv.Itoa(req.RadiusMeters))
	}
	if req.PageToken != "" {
		params.Set("pagetoken", req.PageToken)
	}

	var page TextSearchPage
	if err := g.getJSON(ctx, "place/textsearch/json", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type detailsResponse struct {
	Status string `json:"status"`
	Result *Place `json:"result"`
}

// PlaceDetails looks up phone, website and address components for a place
func (g *GoogleProvider) PlaceDetails(ctx context.Context, placeID string) (*Place, error) {
	params := url.Values{"place_id": {placeID}, "fields": {detailFields}}

	return retry.Do(ctx, g.retryCfg, g.logger, "place_details", func(ctx context.Context) (*Place, error) {
		var resp detailsResponse
		err := g.breaker.Execute(func() error {
			return g.getJSON(ctx, "place/details/json", params, &resp)
		}, isTransient)
		if err != nil {
			return nil, err
		}
		if resp.Status != StatusOK || resp.Result == nil {
			return nil, fmt.Errorf("%w: status %s", ErrDetailsUnavailable, resp.Status)
		}
		return resp.Result, nil
	})
}

func (g *GoogleProvider) getJSON(ctx context.Context, endpoint string, params url.Values, dst any) error {
	params.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &HTTPStatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}
	return nil
}

// isTransient reports whether a failure is worth retrying and counts against the breaker
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, ErrDetailsUnavailable) {
		return false
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return true
}
