// Package places finds candidate contractors through an external place provider.
package places

import (
	"context"
	"errors"
)

// Provider statuses the searcher distinguishes. Anything else degrades the search.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// ErrDetailsUnavailable is returned when a detail lookup yields no usable result
var ErrDetailsUnavailable = errors.New("place details unavailable")

// LatLng is a geographic point
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AddressComponent is one typed part of a structured address
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Place is a provider result, from a text search or a detail lookup
type Place struct {
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []AddressComponent `json:"address_components"`
	Phone             string             `json:"international_phone_number"`
	Website           string             `json:"website"`
}

// TextSearchRequest asks for one page of text search results
type TextSearchRequest struct {
	Query        string
	Location     LatLng
	RadiusMeters int
	PageToken    string
}

// TextSearchPage is one page of results. Status carries the provider status verbatim.
type TextSearchPage struct {
	Status        string  `json:"status"`
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token"`
}

// Provider is the external place directory
type Provider interface {
	// Geocode resolves free text to a point; (nil, nil) means no match
	Geocode(ctx context.Context, text string) (*LatLng, error)
	// TextSearch errors only on transport or HTTP failure; provider statuses come back in the page
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchPage, error)
	PlaceDetails(ctx context.Context, placeID string) (*Place, error)
}
