// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestShortDisplay(t *testing.T) {
	t.Run("short addresses are returned unchanged", func(t *testing.T) {
		want := "Friedrichstraße 67, 10117 Berlin"
		if got := ShortDisplay(want); got != want {
			t.Errorf("expected short address to be %q, got %q", want, got)
		}
	})
	t.Run("addresses at the display limit are returned unchanged", func(t *testing.T) {
		want := strings.Repeat("a", 50)
		if got := ShortDisplay(want); got != want {
			t.Errorf("expected address at the limit to be unchanged, got %q", got)
		}
	})
	t.Run("long addresses are truncated with an ellipsis", func(t *testing.T) {
		long := strings.Repeat("a", 51)
		got := ShortDisplay(long)
		if got != strings.Repeat("a", 50)+"..." {
			t.Errorf("expected truncated address with ellipsis, got %q", got)
		}
	})
	t.Run("truncation does not split multi-byte characters", func(t *testing.T) {
		long := strings.Repeat("ß", 60)
		got := ShortDisplay(long)
		if !utf8.ValidString(got) {
			t.Errorf("expected truncated address to be valid UTF-8, got %q", got)
		}
		if got != strings.Repeat("ß", 50)+"..." {
			t.Errorf("expected 50 characters plus ellipsis, got %q", got)
		}
	})
}

func TestNewAddress(t *testing.T) {
	t.Run("address echoes the request coordinates", func(t *testing.T) {
		coords := Coordinate{Lat: 12.97139, Lon: 77.59464}
		addr := NewAddress("MG Road, Bengaluru, Karnataka 560001, India", Components{City: "Bengaluru"},
			PlaceTypeStreetAddress, coords)
		if addr.Latitude != coords.Lat {
			t.Errorf("expected latitude to be %f, got %f", coords.Lat, addr.Latitude)
		}
		if addr.Longitude != coords.Lon {
			t.Errorf("expected longitude to be %f, got %f", coords.Lon, addr.Longitude)
		}
	})
	t.Run("display strings are derived from the formatted address", func(t *testing.T) {
		formatted := "Quartier 205, Friedrichstraße 67, 10117 Berlin, Germany"
		addr := NewAddress(formatted, Components{}, PlaceTypeStreetAddress, Coordinate{})
		if addr.FullAddress != formatted {
			t.Errorf("expected full address to be %q, got %q", formatted, addr.FullAddress)
		}
		if addr.FormattedAddress != formatted {
			t.Errorf("expected formatted address to be %q, got %q", formatted, addr.FormattedAddress)
		}
		if addr.ShortAddress != ShortDisplay(formatted) {
			t.Errorf("expected short address to be %q, got %q", ShortDisplay(formatted), addr.ShortAddress)
		}
	})
	t.Run("empty display strings fall back to a placeholder", func(t *testing.T) {
		addr := NewAddress("", Components{}, PlaceTypeLocality, Coordinate{})
		if addr.FullAddress != fallbackDisplayName {
			t.Errorf("expected fallback display name, got %q", addr.FullAddress)
		}
	})
	t.Run("confidence is within the valid range", func(t *testing.T) {
		addr := NewAddress("somewhere", Components{}, PlaceTypeLocality, Coordinate{})
		if addr.Confidence <= 0 || addr.Confidence > 1 {
			t.Errorf("expected confidence between 0 and 1, got %f", addr.Confidence)
		}
		if addr.Accuracy != AccuracyMedium {
			t.Errorf("expected accuracy to be %q, got %q", AccuracyMedium, addr.Accuracy)
		}
	})
}
