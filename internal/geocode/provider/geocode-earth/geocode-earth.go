// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocodeearth implements reverse geocoding via the geocode.earth Pelias API
package geocodeearth

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
	APIEndpoint = "https://api.geocode.earth/v1/reverse"
	APITimeout  = time.Second * 10
	name        = "geocode_earth"
)

type GeocodeEarth struct {
	apikey  string
	http    *http.Client
	timeout time.Duration
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

type Properties struct {
	DisplayName   string `json:"label"`
	Layer         string `json:"layer"`
	HouseNumber   string `json:"housenumber"`
	Street        string `json:"street"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"locality"`
	County        string `json:"county"`
	State         string `json:"region"`
	StateCode     string `json:"region_a"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	Postcode      string `json:"postalcode"`
	Continent     string `json:"continent"`
}

func New(client *http.Client, apikey string, timeout time.Duration) *GeocodeEarth {
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &GeocodeEarth{
		apikey:  apikey,
		http:    client,
		timeout: timeout,
	}
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, coords geocode.Coordinate, lang language.Tag) (*geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("point.lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("point.lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("lang", lang.String())

	code, err := g.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, g.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reverse address details from the geocode.earth API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return nil, geocode.NewStatusError(name, code)
	}
	if len(response.Features) == 0 {
		return nil, nil
	}

	result := response.Features[0].Properties
	// Fill the canonical components from the Pelias feature properties
	components := geocode.Components{
		HouseNumber: result.HouseNumber,
		Street:      result.Street,
		Locality:    result.Neighbourhood,
		City:        result.City,
		State:       result.State,
		StateCode:   strings.ToUpper(result.StateCode),
		Country:     result.Country,
		CountryCode: strings.ToUpper(result.CountryCode),
		PostalCode:  result.Postcode,
	}

	return geocode.NewAddress(result.DisplayName, components, placeTypeFromLayer(result.Layer), coords), nil
}

// Probe checks that the API endpoint is reachable without spending a geocoding
// request
func (g *GeocodeEarth) Probe(ctx context.Context) error {
	return g.http.Reachable(ctx, APIEndpoint)
}

// placeTypeFromLayer derives the canonical place type from the Pelias layer of
// a feature
func placeTypeFromLayer(layer string) geocode.PlaceType {
	switch layer {
	case "address", "street", "intersection":
		return geocode.PlaceTypeStreetAddress
	case "venue":
		return geocode.PlaceTypeEstablishment
	case "region", "county", "country", "macroregion", "dependency":
		return geocode.PlaceTypeAdministrative
	default:
		return geocode.PlaceTypeLocality
	}
}
