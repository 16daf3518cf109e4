// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package nominatim implements reverse geocoding via the OpenStreetMap Nominatim API
package nominatim

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
	APIEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout  = time.Second * 10
	name        = "nominatim"
)

type Nominatim struct {
	http    *http.Client
	timeout time.Duration
}

type ReverseResult struct {
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	AddressType string  `json:"addresstype"`
	Address     Address `json:"address"`
	Error       string  `json:"error"`
}

type Address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	ISO31662Lvl4  string `json:"ISO3166-2-lvl4"`
	Region        string `json:"region"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}

func New(client *http.Client, timeout time.Duration) *Nominatim {
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Nominatim{
		http:    client,
		timeout: timeout,
	}
}

func (n *Nominatim) Name() string {
	return name
}

func (n *Nominatim) Reverse(ctx context.Context, coords geocode.Coordinate, lang language.Tag) (*geocode.Address, error) {
	var result ReverseResult

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("addressdetails", "1")
	query.Set("accept-language", lang.String())

	code, err := n.http.GetWithTimeout(ctx, APIEndpoint, &result, query, nil, n.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reverse address details from the Nominatim API: %w", err)
	}
	if code != stdhttp.StatusOK {
		return nil, geocode.NewStatusError(name, code)
	}
	// Nominatim reports coordinates it cannot resolve with an error message in an
	// otherwise empty payload
	if result.Error != "" || result.DisplayName == "" {
		return nil, nil
	}

	// Fill the canonical components from the Nominatim address details
	components := geocode.Components{
		HouseNumber: result.Address.HouseNumber,
		Street:      result.Address.Road,
		Locality:    result.Address.Suburb,
		City:        result.Address.City,
		State:       result.Address.State,
		Country:     result.Address.Country,
		CountryCode: strings.ToUpper(result.Address.CountryCode),
		PostalCode:  result.Address.Postcode,
		Region:      result.Address.Region,
	}
	if components.Locality == "" {
		components.Locality = result.Address.Neighbourhood
	}
	if components.City == "" && result.Address.Town != "" {
		components.City = result.Address.Town
	}
	if components.City == "" && result.Address.Village != "" {
		components.City = result.Address.Village
	}
	if parts := strings.SplitN(result.Address.ISO31662Lvl4, "-", 2); len(parts) == 2 {
		components.StateCode = parts[1]
	}

	return geocode.NewAddress(result.DisplayName, components, placeTypeFromResult(result), coords), nil
}

// Probe checks that the API endpoint is reachable without spending a geocoding
// request
func (n *Nominatim) Probe(ctx context.Context) error {
	return n.http.Reachable(ctx, APIEndpoint)
}

// placeTypeFromResult derives the canonical place type from the addresstype and
// category fields of a Nominatim response
func placeTypeFromResult(result ReverseResult) geocode.PlaceType {
	switch result.AddressType {
	case "house", "building", "residential", "road", "place":
		return geocode.PlaceTypeStreetAddress
	case "amenity", "shop", "office", "craft":
		return geocode.PlaceTypeEstablishment
	case "tourism", "leisure", "historic", "attraction":
		return geocode.PlaceTypePointOfInterest
	case "state", "county", "country", "province", "administrative", "state_district":
		return geocode.PlaceTypeAdministrative
	}
	switch result.Category {
	case "amenity", "shop", "office", "craft":
		return geocode.PlaceTypeEstablishment
	case "tourism", "leisure", "historic":
		return geocode.PlaceTypePointOfInterest
	}
	return geocode.PlaceTypeLocality
}
