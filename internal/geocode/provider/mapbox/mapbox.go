// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package mapbox implements reverse geocoding via the Mapbox Geocoding API
package mapbox

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/revgeo/internal/geocode"
	"github.com/wneessen/revgeo/internal/http"
)

const (
	APIEndpoint = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	APITimeout  = time.Second * 10
	name        = "mapbox"
)

type Mapbox struct {
	token   string
	http    *http.Client
	timeout time.Duration
}

type Response struct {
	Features []Feature `json:"features"`
}

type Feature struct {
	PlaceName  string         `json:"place_name"`
	PlaceType  []string       `json:"place_type"`
	Properties Properties     `json:"properties"`
	Context    []ContextEntry `json:"context"`
}

type Properties struct {
	Address string `json:"address"`
}

type ContextEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}

func New(client *http.Client, token string, timeout time.Duration) *Mapbox {
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Mapbox{
		token:   token,
		http:    client,
		timeout: timeout,
	}
}

func (m *Mapbox) Name() string {
	return name
}

func (m *Mapbox) Reverse(ctx context.Context, coords geocode.Coordinate, lang language.Tag) (*geocode.Address, error) {
	var response Response

	// The places endpoint addresses coordinates in longitude,latitude order
	endpoint := fmt.Sprintf("%s/%f,%f.json", APIEndpoint, coords.Lon, coords.Lat)
	query := url.Values{}
	query.Set("access_token", m.token)
	query.Set("language", lang.String())

	code, err := m.http.GetWithTimeout(ctx, endpoint, &response, query, nil, m.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reverse address details from the Mapbox API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return nil, geocode.NewStatusError(name, code)
	}
	if len(response.Features) == 0 {
		return nil, nil
	}

	feature := response.Features[0]
	// Fill the canonical components from the feature context
	components := geocode.Components{
		Street: feature.Properties.Address,
	}
	for _, entry := range feature.Context {
		switch {
		case strings.HasPrefix(entry.ID, "neighborhood"), strings.HasPrefix(entry.ID, "locality"):
			components.Locality = entry.Text
		case strings.HasPrefix(entry.ID, "place"):
			components.City = entry.Text
		case strings.HasPrefix(entry.ID, "region"):
			components.State = entry.Text
			if parts := strings.SplitN(entry.ShortCode, "-", 2); len(parts) == 2 {
				components.StateCode = parts[1]
			}
		case strings.HasPrefix(entry.ID, "country"):
			components.Country = entry.Text
			components.CountryCode = strings.ToUpper(entry.ShortCode)
		case strings.HasPrefix(entry.ID, "postcode"):
			components.PostalCode = entry.Text
		}
	}

	return geocode.NewAddress(feature.PlaceName, components, placeTypeFromFeature(feature.PlaceType), coords), nil
}

// Probe checks that the API endpoint is reachable without spending a geocoding
// request
func (m *Mapbox) Probe(ctx context.Context) error {
	return m.http.Reachable(ctx, APIEndpoint)
}

// placeTypeFromFeature derives the canonical place type from the place_type
// field of a Mapbox feature
func placeTypeFromFeature(types []string) geocode.PlaceType {
	if len(types) == 0 {
		return geocode.PlaceTypeLocality
	}
	switch types[0] {
	case "address":
		return geocode.PlaceTypeStreetAddress
	case "poi":
		return geocode.PlaceTypePointOfInterest
	case "region", "country", "district":
		return geocode.PlaceTypeAdministrative
	default:
		return geocode.PlaceTypeLocality
	}
}
