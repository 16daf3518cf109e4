// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode provides reverse geocoding with provider fallback and result caching
package geocode

import (
	"context"

	"golang.org/x/text/language"
)

// shortAddressMax is the display length at which short addresses are truncated
const shortAddressMax = 50

// fallbackDisplayName is used when a provider returns a result without any
// display string
const fallbackDisplayName = "Address not available"

// defaultConfidence is assigned to every normalized address. None of the
// supported backends exposes a comparable confidence signal.
const defaultConfidence = 0.8

// PlaceType classifies the kind of place an address describes
type PlaceType string

const (
	PlaceTypeStreetAddress   PlaceType = "street_address"
	PlaceTypeEstablishment   PlaceType = "establishment"
	PlaceTypePointOfInterest PlaceType = "point_of_interest"
	PlaceTypeLocality        PlaceType = "locality"
	PlaceTypeAdministrative  PlaceType = "administrative"
)

// Accuracy describes how precise a normalized address is
type Accuracy string

const (
	AccuracyHigh        Accuracy = "high"
	AccuracyMedium      Accuracy = "medium"
	AccuracyLow         Accuracy = "low"
	AccuracyApproximate Accuracy = "approximate"
)

// Coordinate is a WGS84 latitude/longitude pair
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Components holds the individual parts of a normalized address. All fields are
// optional, providers fill in what their backend knows.
type Components struct {
	HouseNumber string `json:"houseNumber,omitempty"`
	Street      string `json:"street,omitempty"`
	Locality    string `json:"locality,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	StateCode   string `json:"stateCode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Region      string `json:"region,omitempty"`
}

// Address is the canonical reverse geocoding result. Every provider normalizes
// its backend response into this schema.
type Address struct {
	FullAddress      string     `json:"fullAddress"`
	FormattedAddress string     `json:"formattedAddress"`
	ShortAddress     string     `json:"shortAddress"`
	Components       Components `json:"components"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Accuracy         Accuracy   `json:"accuracy"`
	PlaceType        PlaceType  `json:"placeType"`
	Confidence       float64    `json:"confidence"`
}

// Geocoder is the contract every reverse geocoding provider implements. Reverse
// returns a nil address without an error when the backend affirmatively reports
// that no address exists for the coordinate.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coords Coordinate, lang language.Tag) (*Address, error)
}

// Prober is implemented by providers that support a lightweight connectivity
// check for the health surface
type Prober interface {
	Probe(ctx context.Context) error
}

// NewAddress assembles the canonical address record from a provider's display
// string, its parsed components and the place classification. The coordinates of
// the original request are echoed into the address.
func NewAddress(formatted string, components Components, placeType PlaceType, coords Coordinate) *Address {
	if formatted == "" {
		formatted = fallbackDisplayName
	}
	return &Address{
		FullAddress:      formatted,
		FormattedAddress: formatted,
		ShortAddress:     ShortDisplay(formatted),
		Components:       components,
		Latitude:         coords.Lat,
		Longitude:        coords.Lon,
		Accuracy:         AccuracyMedium,
		PlaceType:        placeType,
		Confidence:       defaultConfidence,
	}
}

// ShortDisplay truncates a formatted address for compact display
func ShortDisplay(formatted string) string {
	runes := []rune(formatted)
	if len(runes) > shortAddressMax {
		return string(runes[:shortAddressMax]) + "..."
	}
	return formatted
}
