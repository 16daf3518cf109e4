// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package googlemaps implements reverse geocoding via the Google Maps Geocoding API
package googlemaps

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/revgeo/internal/geocode"
	"github.com/wneessen/revgeo/internal/http"
)

const (
	APIEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	APITimeout  = time.Second * 10
	name        = "google_maps"
)

// Backend status strings of the Geocoding API
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusOverLimit   = "OVER_QUERY_LIMIT"
	statusDenied      = "REQUEST_DENIED"
	statusInvalid     = "INVALID_REQUEST"
)

type GoogleMaps struct {
	apikey  string
	http    *http.Client
	timeout time.Duration
}

type Response struct {
	Results []Result `json:"results"`
	Status  string   `json:"status"`
}

type Result struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Types             []string           `json:"types"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

func New(client *http.Client, apikey string, timeout time.Duration) *GoogleMaps {
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &GoogleMaps{
		apikey:  apikey,
		http:    client,
		timeout: timeout,
	}
}

func (g *GoogleMaps) Name() string {
	return name
}

func (g *GoogleMaps) Reverse(ctx context.Context, coords geocode.Coordinate, lang language.Tag) (*geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("latlng", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	query.Set("key", g.apikey)
	query.Set("language", lang.String())

	code, err := g.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, g.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reverse address details from the Google Maps API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return nil, geocode.NewStatusError(name, code)
	}
	if response.Status == statusZeroResults || (response.Status == statusOK && len(response.Results) == 0) {
		return nil, nil
	}
	if response.Status != statusOK {
		return nil, statusError(response.Status)
	}

	result := response.Results[0]
	// Fill the canonical components from the typed address components
	var components geocode.Components
	for _, component := range result.AddressComponents {
		switch {
		case slices.Contains(component.Types, "street_number"):
			components.HouseNumber = component.LongName
		case slices.Contains(component.Types, "route"):
			components.Street = component.LongName
		case slices.Contains(component.Types, "sublocality_level_1"), slices.Contains(component.Types, "sublocality"):
			components.Locality = component.LongName
		case slices.Contains(component.Types, "locality"):
			components.City = component.LongName
		case slices.Contains(component.Types, "administrative_area_level_1"):
			components.State = component.LongName
			components.StateCode = component.ShortName
		case slices.Contains(component.Types, "country"):
			components.Country = component.LongName
			components.CountryCode = component.ShortName
		case slices.Contains(component.Types, "postal_code"):
			components.PostalCode = component.LongName
		}
	}

	return geocode.NewAddress(result.FormattedAddress, components, placeTypeFromTypes(result.Types), coords), nil
}

// Probe checks that the API endpoint is reachable without spending a geocoding
// request
func (g *GoogleMaps) Probe(ctx context.Context) error {
	return g.http.Reachable(ctx, APIEndpoint)
}

// statusError maps a backend status string to a ProviderError
func statusError(status string) *geocode.ProviderError {
	provErr := &geocode.ProviderError{
		Provider: name,
		Message:  fmt.Sprintf("backend returned status %q", status),
	}
	switch status {
	case statusOverLimit:
		provErr.Type = geocode.ErrorTypeRateLimit
	case statusDenied:
		provErr.Type = geocode.ErrorTypeQuotaExceeded
	case statusInvalid:
		provErr.Type = geocode.ErrorTypeInvalidRequest
	default:
		provErr.Type = geocode.ErrorTypeUnknown
	}
	return provErr
}

// placeTypeFromTypes derives the canonical place type from the type tags of a
// Geocoding API result
func placeTypeFromTypes(types []string) geocode.PlaceType {
	for _, typeTag := range types {
		switch typeTag {
		case "street_address", "premise", "subpremise", "route", "intersection", "plus_code":
			return geocode.PlaceTypeStreetAddress
		case "establishment":
			return geocode.PlaceTypeEstablishment
		case "point_of_interest", "park", "airport":
			return geocode.PlaceTypePointOfInterest
		case "locality", "sublocality", "sublocality_level_1", "neighborhood", "postal_code":
			return geocode.PlaceTypeLocality
		case "administrative_area_level_1", "administrative_area_level_2", "country":
			return geocode.PlaceTypeAdministrative
		}
	}
	return geocode.PlaceTypeLocality
}
