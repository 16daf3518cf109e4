// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/revgeo/internal/config"
	"github.com/wneessen/revgeo/internal/geocode"
	geocodeearth "github.com/wneessen/revgeo/internal/geocode/provider/geocode-earth"
	googlemaps "github.com/wneessen/revgeo/internal/geocode/provider/google-maps"
	"github.com/wneessen/revgeo/internal/geocode/provider/mapbox"
	"github.com/wneessen/revgeo/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/revgeo/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/revgeo/internal/http"
	"github.com/wneessen/revgeo/internal/logger"
)

// createProviders builds the geocoding provider chain in the configured order.
// Providers without the required credentials are skipped, so a partially
// configured chain still works with the remaining providers.
func createProviders(conf *config.Config, log *logger.Logger) ([]geocode.Geocoder, error) {
	httpClient := http.New(log)
	timeout := conf.Providers.Timeout

	var providers []geocode.Geocoder
	for _, name := range conf.Providers.Order {
		switch name {
		case config.ProviderGoogleMaps:
			if conf.Providers.GoogleMaps.APIKey == "" {
				log.Debug("skipping provider without API key", slog.String("provider", name))
				continue
			}
			providers = append(providers, googlemaps.New(httpClient, conf.Providers.GoogleMaps.APIKey, timeout))
		case config.ProviderMapbox:
			if conf.Providers.Mapbox.AccessToken == "" {
				log.Debug("skipping provider without access token", slog.String("provider", name))
				continue
			}
			providers = append(providers, mapbox.New(httpClient, conf.Providers.Mapbox.AccessToken, timeout))
		case config.ProviderNominatim:
			if conf.Providers.Nominatim.Disable {
				log.Debug("skipping disabled provider", slog.String("provider", name))
				continue
			}
			providers = append(providers, nominatim.New(httpClient, timeout))
		case config.ProviderOpenCage:
			if conf.Providers.OpenCage.APIKey == "" {
				log.Debug("skipping provider without API key", slog.String("provider", name))
				continue
			}
			providers = append(providers, opencage.New(httpClient, conf.Providers.OpenCage.APIKey, timeout))
		case config.ProviderGeocodeEarth:
			if conf.Providers.GeocodeEarth.APIKey == "" {
				log.Debug("skipping provider without API key", slog.String("provider", name))
				continue
			}
			providers = append(providers, geocodeearth.New(httpClient, conf.Providers.GeocodeEarth.APIKey, timeout))
		default:
			return nil, fmt.Errorf("unsupported geocoding provider: %s", name)
		}
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no geocoding providers configured")
	}

	return providers, nil
}
