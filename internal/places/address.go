package places

import (
	"slices"
	"strings"

	"github.com/aryan0dhankhar/outreach/internal/normalize"
)

// Locality is the city, state and zip extracted from a place
type Locality struct {
	City  string
	State string
	Zip   string
}

// ParseComponents reads locality, administrative_area_level_1 (short name) and postal_code.
// Zips are reduced to five digits.
func ParseComponents(components []AddressComponent) Locality {
	var loc Locality
	for _, c := range components {
		switch {
		case slices.Contains(c.Types, "locality"):
			loc.City = c.LongName
		case slices.Contains(c.Types, "administrative_area_level_1"):
			loc.State = c.ShortName
		case slices.Contains(c.Types, "postal_code"):
			loc.Zip = normalize.Zip(c.LongName)
		}
	}
	return loc
}

// SplitFormatted guesses the locality from a "street, city, ST 12345, country" address.
// Addresses with fewer than three comma separated parts yield an empty Locality.
func SplitFormatted(formatted string) Locality {
	parts := strings.Split(formatted, ",")
	if len(parts) < 3 {
		return Locality{}
	}
	loc := Locality{City: strings.TrimSpace(parts[len(parts)-3])}
	stateZip := strings.Fields(parts[len(parts)-2])
	if len(stateZip) > 0 {
		loc.State = stateZip[0]
	}
	if len(stateZip) > 1 {
		loc.Zip = normalize.Zip(stateZip[1])
	}
	return loc
}

// LocalityOf prefers structured components and falls back to splitting the formatted address
func LocalityOf(p Place) Locality {
	if len(p.AddressComponents) > 0 {
		return ParseComponents(p.AddressComponents)
	}
	return SplitFormatted(p.FormattedAddress)
}

// merge overlays the non-empty fields of other
func (l Locality) merge(other Locality) Locality {
	if other.City != "" {
		l.City = other.City
	}
	if other.State != "" {
		l.State = other.State
	}
	if other.Zip != "" {
		l.Zip = other.Zip
	}
	return l
}
