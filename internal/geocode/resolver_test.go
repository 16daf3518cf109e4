// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/language"
)

// mockProvider is a Geocoder that returns a canned address or error and counts
// its invocations
type mockProvider struct {
	name    string
	address *Address
	err     error
	delay   time.Duration
	calls   atomic.Int32
	active  atomic.Int32
	peak    atomic.Int32
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Reverse(_ context.Context, coords Coordinate, _ language.Tag) (*Address, error) {
	m.calls.Add(1)
	current := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		peak := m.peak.Load()
		if current <= peak || m.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	if m.err != nil {
		return nil, m.err
	}
	if m.address == nil {
		return nil, nil
	}
	addr := *m.address
	addr.Latitude = coords.Lat
	addr.Longitude = coords.Lon
	return &addr, nil
}

// probingProvider is a mockProvider that additionally implements the Prober
// interface
type probingProvider struct {
	mockProvider
	probeErr error
}

func (p *probingProvider) Probe(context.Context) error { return p.probeErr }

func successProvider(name string) *mockProvider {
	address := testAddress
	return &mockProvider{name: name, address: &address}
}

func newTestResolver(providers ...Geocoder) (*Resolver, *recordingStore) {
	store := newRecordingStore()
	c := NewCache(store, DefaultPrecision, DefaultTTLTable(), testLogger())
	return NewResolver(providers, c, testLogger(), 0, 0), store
}

func TestResolver_Geocode(t *testing.T) {
	coords := Coordinate{Lat: 12.97139, Lon: 77.59464}
	t.Run("first provider success wins", func(t *testing.T) {
		first := successProvider("google_maps")
		second := successProvider("mapbox")
		resolver, store := newTestResolver(first, second)

		result := resolver.Geocode(t.Context(), coords, "en")
		if !result.Success {
			t.Fatalf("expected successful result, got code %q: %s", result.Code, result.Message)
		}
		if result.Source != "google_maps" {
			t.Errorf("expected source to be google_maps, got %q", result.Source)
		}
		if result.Cached {
			t.Error("expected first resolution to not be served from cache")
		}
		if result.ProcessingTime == "" {
			t.Error("expected processing time to be set")
		}
		if result.Address == nil {
			t.Fatal("expected result to carry an address")
		}
		if result.Address.Latitude != coords.Lat || result.Address.Longitude != coords.Lon {
			t.Errorf("expected address to echo the request coordinates, got %f/%f",
				result.Address.Latitude, result.Address.Longitude)
		}
		if result.Address.Confidence <= 0 || result.Address.Confidence > 1 {
			t.Errorf("expected confidence between 0 and 1, got %f", result.Address.Confidence)
		}
		if second.calls.Load() != 0 {
			t.Errorf("expected second provider to not be queried, got %d calls", second.calls.Load())
		}
		if store.setCount() != 1 {
			t.Errorf("expected one cache write, got %d", store.setCount())
		}
	})
	t.Run("repeated lookups are served from the cache", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)

		first := resolver.Geocode(t.Context(), coords, "en")
		if !first.Success || first.Cached {
			t.Fatalf("expected uncached success on first lookup, got %+v", first)
		}
		second := resolver.Geocode(t.Context(), coords, "en")
		if !second.Success {
			t.Fatalf("expected successful result, got code %q", second.Code)
		}
		if !second.Cached {
			t.Error("expected repeated lookup to be served from the cache")
		}
		if second.Source != "google_maps" {
			t.Errorf("expected cached result to keep its source, got %q", second.Source)
		}
		if provider.calls.Load() != 1 {
			t.Errorf("expected provider to be queried once, got %d calls", provider.calls.Load())
		}
	})
	t.Run("failing provider falls back to the next", func(t *testing.T) {
		failing := &mockProvider{name: "google_maps", err: errors.New("backend unavailable")}
		working := successProvider("mapbox")
		resolver, _ := newTestResolver(failing, working)

		result := resolver.Geocode(t.Context(), coords, "en")
		if !result.Success {
			t.Fatalf("expected fallback to succeed, got code %q", result.Code)
		}
		if result.Source != "mapbox" {
			t.Errorf("expected source to be mapbox, got %q", result.Source)
		}
		if failing.calls.Load() != 1 || working.calls.Load() != 1 {
			t.Errorf("expected both providers to be queried once, got %d and %d",
				failing.calls.Load(), working.calls.Load())
		}
	})
	t.Run("rate limited provider falls back to the next", func(t *testing.T) {
		limited := &mockProvider{name: "google_maps", err: NewStatusError("google_maps", 429)}
		working := successProvider("nominatim")
		resolver, _ := newTestResolver(limited, working)

		result := resolver.Geocode(t.Context(), coords, "en")
		if !result.Success || result.Source != "nominatim" {
			t.Errorf("expected fallback past the rate limited provider, got %+v", result)
		}
	})
	t.Run("absent result falls back to the next", func(t *testing.T) {
		empty := &mockProvider{name: "google_maps"}
		working := successProvider("mapbox")
		resolver, _ := newTestResolver(empty, working)

		result := resolver.Geocode(t.Context(), coords, "en")
		if !result.Success {
			t.Fatalf("expected fallback to succeed, got code %q", result.Code)
		}
		if result.Source != "mapbox" {
			t.Errorf("expected source to be mapbox, got %q", result.Source)
		}
	})
	t.Run("providers outside the chain are never queried", func(t *testing.T) {
		first := successProvider("google_maps")
		second := successProvider("mapbox")
		third := successProvider("nominatim")
		resolver, _ := newTestResolver(second)

		result := resolver.Geocode(t.Context(), coords, "en")
		if !result.Success || result.Source != "mapbox" {
			t.Fatalf("expected the configured provider to serve the request, got %+v", result)
		}
		if first.calls.Load() != 0 || third.calls.Load() != 0 {
			t.Errorf("expected unconfigured providers to not be queried, got %d and %d",
				first.calls.Load(), third.calls.Load())
		}
	})
	t.Run("exhausted provider chain yields a failure result", func(t *testing.T) {
		failing := &mockProvider{name: "google_maps", err: errors.New("backend unavailable")}
		empty := &mockProvider{name: "nominatim"}
		resolver, store := newTestResolver(failing, empty)

		result := resolver.Geocode(t.Context(), coords, "en")
		if result.Success {
			t.Fatal("expected failure result")
		}
		if result.Code != CodeGeocodingFailed {
			t.Errorf("expected code %q, got %q", CodeGeocodingFailed, result.Code)
		}
		if result.ProcessingTime == "" {
			t.Error("expected processing time to be set on the final failure")
		}
		if store.setCount() != 0 {
			t.Errorf("expected failures to not be cached, got %d writes", store.setCount())
		}

		// A later retry has to query the providers again
		_ = resolver.Geocode(t.Context(), coords, "en")
		if failing.calls.Load() != 2 {
			t.Errorf("expected failed lookups to not be cached, provider was queried %d times",
				failing.calls.Load())
		}
	})
	t.Run("empty provider chain yields a failure result", func(t *testing.T) {
		resolver, _ := newTestResolver()
		result := resolver.Geocode(t.Context(), coords, "en")
		if result.Success || result.Code != CodeGeocodingFailed {
			t.Errorf("expected geocoding failure without providers, got %+v", result)
		}
	})
	t.Run("out of range coordinates fail validation", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)

		for _, invalid := range []Coordinate{{Lat: 95, Lon: 77}, {Lat: -91, Lon: 0}, {Lat: 12, Lon: 181}, {Lat: 0, Lon: -180.5}} {
			result := resolver.Geocode(t.Context(), invalid, "en")
			if result.Success {
				t.Errorf("expected coordinate %+v to fail validation", invalid)
			}
			if result.Code != CodeInvalidCoordinates {
				t.Errorf("expected code %q, got %q", CodeInvalidCoordinates, result.Code)
			}
		}
		if provider.calls.Load() != 0 {
			t.Errorf("expected no provider queries for invalid input, got %d", provider.calls.Load())
		}
	})
	t.Run("NaN coordinates fail validation", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)

		for _, invalid := range []Coordinate{{Lat: math.NaN(), Lon: 77}, {Lat: 12, Lon: math.NaN()}} {
			result := resolver.Geocode(t.Context(), invalid, "en")
			if result.Success {
				t.Errorf("expected coordinate %+v to fail validation", invalid)
			}
			if result.Code != CodeInvalidCoordinates {
				t.Errorf("expected code %q, got %q", CodeInvalidCoordinates, result.Code)
			}
		}
		if provider.calls.Load() != 0 {
			t.Errorf("expected no provider queries for invalid input, got %d", provider.calls.Load())
		}
	})
	t.Run("boundary coordinates pass validation", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)

		for _, boundary := range []Coordinate{{Lat: 90, Lon: 180}, {Lat: -90, Lon: -180}, {Lat: 0, Lon: 0}} {
			result := resolver.Geocode(t.Context(), boundary, "en")
			if !result.Success {
				t.Errorf("expected boundary coordinate %+v to be accepted, got code %q", boundary, result.Code)
			}
		}
	})
	t.Run("invalid language codes fail validation", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)

		for _, invalid := range []string{"EN", "eng", "e1", "", "d"} {
			result := resolver.Geocode(t.Context(), coords, invalid)
			if result.Success {
				t.Errorf("expected language %q to fail validation", invalid)
			}
			if result.Code != CodeInvalidLanguage {
				t.Errorf("expected code %q for language %q, got %q", CodeInvalidLanguage, invalid, result.Code)
			}
		}
		if provider.calls.Load() != 0 {
			t.Errorf("expected no provider queries for invalid input, got %d", provider.calls.Load())
		}
	})
	t.Run("cancelled context aborts the provider chain", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		result := resolver.Geocode(ctx, coords, "en")
		if result.Success {
			t.Fatal("expected cancelled request to fail")
		}
		if provider.calls.Load() != 0 {
			t.Errorf("expected no provider queries after cancellation, got %d", provider.calls.Load())
		}
	})
}

func TestResolver_GeocodeBatch(t *testing.T) {
	t.Run("results keep the submitted order", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)
		coords := []Coordinate{
			{Lat: 12.97139, Lon: 77.59464},
			{Lat: 52.5129, Lon: 13.3910},
			{Lat: -33.8688, Lon: 151.2093},
		}

		batch, err := resolver.GeocodeBatch(t.Context(), coords, "en")
		if err != nil {
			t.Fatalf("failed to resolve batch: %s", err)
		}
		if batch.Total != len(coords) {
			t.Errorf("expected total of %d, got %d", len(coords), batch.Total)
		}
		if batch.Successful != len(coords) {
			t.Errorf("expected %d successful items, got %d", len(coords), batch.Successful)
		}
		for i, result := range batch.Results {
			if result.Address == nil {
				t.Fatalf("expected item %d to carry an address", i)
			}
			if result.Address.Latitude != coords[i].Lat || result.Address.Longitude != coords[i].Lon {
				t.Errorf("expected item %d to match submitted coordinate %+v, got %f/%f",
					i, coords[i], result.Address.Latitude, result.Address.Longitude)
			}
		}
	})
	t.Run("failed items do not abort the batch", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)
		coords := []Coordinate{
			{Lat: 52.5129, Lon: 13.3910},
			{Lat: 95, Lon: 13.3910},
			{Lat: -33.8688, Lon: 151.2093},
		}

		batch, err := resolver.GeocodeBatch(t.Context(), coords, "en")
		if err != nil {
			t.Fatalf("failed to resolve batch: %s", err)
		}
		if batch.Total != 3 || batch.Successful != 2 {
			t.Errorf("expected 2 of 3 successful items, got %d of %d", batch.Successful, batch.Total)
		}
		if batch.Results[1].Success {
			t.Error("expected the invalid item to fail")
		}
		if batch.Results[1].Code != CodeInvalidCoordinates {
			t.Errorf("expected code %q on the invalid item, got %q", CodeInvalidCoordinates, batch.Results[1].Code)
		}
		if !batch.Results[0].Success || !batch.Results[2].Success {
			t.Error("expected the surrounding items to succeed")
		}
	})
	t.Run("oversized batches are rejected upfront", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)
		coords := make([]Coordinate, DefaultBatchCap+1)

		_, err := resolver.GeocodeBatch(t.Context(), coords, "en")
		if err == nil {
			t.Fatal("expected oversized batch to be rejected")
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected a validation error, got %T", err)
		}
		if verr.Code != CodeBatchTooLarge {
			t.Errorf("expected code %q, got %q", CodeBatchTooLarge, verr.Code)
		}
		if provider.calls.Load() != 0 {
			t.Errorf("expected no provider queries for rejected batches, got %d", provider.calls.Load())
		}
	})
	t.Run("batch at the cap is accepted", func(t *testing.T) {
		provider := successProvider("google_maps")
		resolver, _ := newTestResolver(provider)
		coords := make([]Coordinate, DefaultBatchCap)

		batch, err := resolver.GeocodeBatch(t.Context(), coords, "en")
		if err != nil {
			t.Fatalf("expected batch at the cap to be accepted: %s", err)
		}
		if batch.Total != DefaultBatchCap {
			t.Errorf("expected total of %d, got %d", DefaultBatchCap, batch.Total)
		}
	})
	t.Run("empty batch yields an empty result", func(t *testing.T) {
		resolver, _ := newTestResolver(successProvider("google_maps"))
		batch, err := resolver.GeocodeBatch(t.Context(), nil, "en")
		if err != nil {
			t.Fatalf("failed to resolve empty batch: %s", err)
		}
		if batch.Total != 0 || batch.Successful != 0 || len(batch.Results) != 0 {
			t.Errorf("expected empty batch result, got %+v", batch)
		}
	})
	t.Run("worker limit bounds the concurrency", func(t *testing.T) {
		address := testAddress
		provider := &mockProvider{name: "google_maps", address: &address, delay: time.Millisecond * 10}
		store := newRecordingStore()
		c := NewCache(store, DefaultPrecision, DefaultTTLTable(), testLogger())
		resolver := NewResolver([]Geocoder{provider}, c, testLogger(), DefaultBatchCap, 2)

		coords := make([]Coordinate, 8)
		for i := range coords {
			coords[i] = Coordinate{Lat: float64(i), Lon: float64(i)}
		}
		if _, err := resolver.GeocodeBatch(t.Context(), coords, "en"); err != nil {
			t.Fatalf("failed to resolve batch: %s", err)
		}
		if peak := provider.peak.Load(); peak > 2 {
			t.Errorf("expected at most 2 concurrent provider queries, observed %d", peak)
		}
	})
}

func TestResolver_HealthCheck(t *testing.T) {
	t.Run("all components up", func(t *testing.T) {
		resolver, _ := newTestResolver(successProvider("google_maps"))
		health := resolver.HealthCheck(t.Context())
		if health.Cache != StatusUp || health.Providers != StatusUp {
			t.Errorf("expected all components up, got %+v", health)
		}
		if !health.Healthy() {
			t.Error("expected overall state to be healthy")
		}
	})
	t.Run("failing cache backend reports down", func(t *testing.T) {
		store := newRecordingStore()
		store.pingErr = errors.New("backend gone")
		c := NewCache(store, DefaultPrecision, DefaultTTLTable(), testLogger())
		resolver := NewResolver([]Geocoder{successProvider("google_maps")}, c, testLogger(), 0, 0)

		health := resolver.HealthCheck(t.Context())
		if health.Cache != StatusDown {
			t.Errorf("expected cache to be down, got %q", health.Cache)
		}
		if health.Healthy() {
			t.Error("expected overall state to be unhealthy")
		}
	})
	t.Run("unreachable providers report down", func(t *testing.T) {
		unreachable := &probingProvider{
			mockProvider: mockProvider{name: "nominatim"},
			probeErr:     errors.New("connection refused"),
		}
		resolver, _ := newTestResolver(unreachable)

		health := resolver.HealthCheck(t.Context())
		if health.Providers != StatusDown {
			t.Errorf("expected providers to be down, got %q", health.Providers)
		}
	})
	t.Run("one reachable provider is enough", func(t *testing.T) {
		unreachable := &probingProvider{
			mockProvider: mockProvider{name: "google_maps"},
			probeErr:     errors.New("connection refused"),
		}
		reachable := &probingProvider{mockProvider: mockProvider{name: "nominatim"}}
		resolver, _ := newTestResolver(unreachable, reachable)

		health := resolver.HealthCheck(t.Context())
		if health.Providers != StatusUp {
			t.Errorf("expected providers to be up, got %q", health.Providers)
		}
	})
	t.Run("empty provider chain reports down", func(t *testing.T) {
		resolver, _ := newTestResolver()
		health := resolver.HealthCheck(t.Context())
		if health.Providers != StatusDown {
			t.Errorf("expected providers to be down, got %q", health.Providers)
		}
	})
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name     string
		coords   Coordinate
		lang     string
		wantCode string
	}{
		{"valid request", Coordinate{Lat: 52.5129, Lon: 13.3910}, "en", ""},
		{"latitude too large", Coordinate{Lat: 90.0001, Lon: 0}, "en", CodeInvalidCoordinates},
		{"latitude too small", Coordinate{Lat: -90.0001, Lon: 0}, "en", CodeInvalidCoordinates},
		{"longitude too large", Coordinate{Lat: 0, Lon: 180.0001}, "en", CodeInvalidCoordinates},
		{"longitude too small", Coordinate{Lat: 0, Lon: -180.0001}, "en", CodeInvalidCoordinates},
		{"NaN latitude", Coordinate{Lat: math.NaN(), Lon: 0}, "en", CodeInvalidCoordinates},
		{"NaN longitude", Coordinate{Lat: 0, Lon: math.NaN()}, "en", CodeInvalidCoordinates},
		{"uppercase language", Coordinate{}, "DE", CodeInvalidLanguage},
		{"three letter language", Coordinate{}, "deu", CodeInvalidLanguage},
		{"empty language", Coordinate{}, "", CodeInvalidLanguage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.coords, tc.lang)
			if tc.wantCode == "" {
				if err != nil {
					t.Errorf("expected request to validate, got %q: %s", err.Code, err.Message)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			if err.Code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, err.Code)
			}
		})
	}
}
