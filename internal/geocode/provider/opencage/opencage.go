// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package opencage implements reverse geocoding via the OpenCage Data API
package opencage

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
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey  string
	http    *http.Client
	timeout time.Duration
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
}

type Components struct {
	Type           string `json:"_type"`
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	Country        string `json:"country"`
	CountryCode    string `json:"country_code"`
	HouseNumber    string `json:"house_number"`
	Neighbourhood  string `json:"neighbourhood"`
	Postcode       string `json:"postcode"`
	Region         string `json:"region"`
	Road           string `json:"road"`
	State          string `json:"state"`
	StateCode      string `json:"state_code"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

func New(client *http.Client, apikey string, timeout time.Duration) *OpenCage {
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &OpenCage{
		apikey:  apikey,
		http:    client,
		timeout: timeout,
	}
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, coords geocode.Coordinate, lang language.Tag) (*geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", lang.String())

	code, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, o.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reverse address details from the OpenCage API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return nil, geocode.NewStatusError(name, code)
	}
	if response.TotalResults == 0 || len(response.Results) == 0 {
		return nil, nil
	}

	result := response.Results[0]
	// Fill the canonical components from the OpenCage component details
	components := geocode.Components{
		HouseNumber: result.Components.HouseNumber,
		Street:      result.Components.Road,
		Locality:    result.Components.Suburb,
		City:        result.Components.City,
		State:       result.Components.State,
		StateCode:   strings.ToUpper(result.Components.StateCode),
		Country:     result.Components.Country,
		CountryCode: strings.ToUpper(result.Components.CountryCode),
		PostalCode:  result.Components.Postcode,
		Region:      result.Components.Region,
	}
	if components.Locality == "" {
		components.Locality = result.Components.Neighbourhood
	}
	if components.City == "" && result.Components.Town != "" {
		components.City = result.Components.Town
	}
	if components.City == "" && result.Components.Village != "" {
		components.City = result.Components.Village
	}
	if components.City == "" {
		components.City = result.Components.NormalizedCity
	}

	return geocode.NewAddress(result.DisplayName, components, placeTypeFromComponents(result.Components), coords), nil
}

// Probe checks that the API endpoint is reachable without spending a geocoding
// request
func (o *OpenCage) Probe(ctx context.Context) error {
	return o.http.Reachable(ctx, APIEndpoint)
}

// placeTypeFromComponents derives the canonical place type from the _type field
// of the OpenCage component details
func placeTypeFromComponents(components Components) geocode.PlaceType {
	switch components.Type {
	case "building", "road", "place", "postcode":
		return geocode.PlaceTypeStreetAddress
	case "shop", "restaurant", "cafe", "pub", "commerce", "office":
		return geocode.PlaceTypeEstablishment
	case "attraction", "museum", "monument", "park", "stadium":
		return geocode.PlaceTypePointOfInterest
	case "state", "county", "country", "region", "state_district":
		return geocode.PlaceTypeAdministrative
	default:
		return geocode.PlaceTypeLocality
	}
}
