// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/wneessen/revgeo/internal/logger"
)

const (
	// DefaultBatchCap bounds the number of coordinates accepted in a single batch
	DefaultBatchCap = 100
	// DefaultBatchWorkers bounds how many batch items are resolved concurrently
	DefaultBatchWorkers = 4
)

// Component status values reported by the health surface
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// languageRE matches two-letter lowercase ISO-639-1 language codes
var languageRE = regexp.MustCompile(`^[a-z]{2}$`)

// Result is the uniform envelope returned for every geocoding request. Failed
// requests carry a failure code and message instead of an address.
type Result struct {
	Success        bool     `json:"success"`
	Address        *Address `json:"address,omitempty"`
	Source         string   `json:"source,omitempty"`
	ProcessingTime string   `json:"processingTime,omitempty"`
	Cached         bool     `json:"cached"`
	Code           string   `json:"code,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// BatchResult aggregates the per-item results of a batch request. Results keeps
// the order of the submitted coordinates.
type BatchResult struct {
	Total      int
	Successful int
	Results    []Result
}

// Health reports the state of the service components
type Health struct {
	Cache     string `json:"cache"`
	Providers string `json:"providers"`
}

// Healthy reports whether all components are up
func (h Health) Healthy() bool {
	return h.Cache == StatusUp && h.Providers == StatusUp
}

// Resolver reverse geocodes coordinates by trying the configured providers in
// priority order until one returns an address. Results from different providers
// are never merged, the first success wins. Successful results are cached in
// coordinate buckets.
type Resolver struct {
	providers    []Geocoder
	cache        *Cache
	logger       *logger.Logger
	batchCap     int
	batchWorkers int
}

// NewResolver returns a new Resolver for the given provider chain and cache
func NewResolver(providers []Geocoder, cache *Cache, log *logger.Logger, batchCap, batchWorkers int) *Resolver {
	if batchCap <= 0 {
		batchCap = DefaultBatchCap
	}
	if batchWorkers <= 0 {
		batchWorkers = DefaultBatchWorkers
	}
	return &Resolver{
		providers:    providers,
		cache:        cache,
		logger:       log,
		batchCap:     batchCap,
		batchWorkers: batchWorkers,
	}
}

// Geocode resolves a single coordinate to a normalized address. All outcomes,
// including invalid input and provider exhaustion, are reported through the
// Result envelope.
func (r *Resolver) Geocode(ctx context.Context, coords Coordinate, lang string) Result {
	if verr := ValidateRequest(coords, lang); verr != nil {
		return failureResult(verr.Code, verr.Message)
	}

	if result, ok := r.cache.Lookup(ctx, coords, lang); ok {
		r.logger.Debug("serving cached result", slog.Float64("latitude", coords.Lat),
			slog.Float64("longitude", coords.Lon), slog.String("source", result.Source))
		return result
	}

	tag := language.Make(lang)
	start := time.Now()
	for _, provider := range r.providers {
		if ctx.Err() != nil {
			r.logger.Debug("request context cancelled, aborting provider fallback", logger.Err(ctx.Err()))
			break
		}

		address, err := provider.Reverse(ctx, coords, tag)
		if err != nil {
			if IsRateLimitError(err) {
				r.logger.Warn("provider rate limited, falling back", slog.String("provider", provider.Name()),
					slog.Float64("latitude", coords.Lat), slog.Float64("longitude", coords.Lon))
			} else {
				r.logger.Warn("provider attempt failed, falling back", slog.String("provider", provider.Name()),
					slog.Float64("latitude", coords.Lat), slog.Float64("longitude", coords.Lon), logger.Err(err))
			}
			continue
		}
		if address == nil {
			r.logger.Debug("provider returned no result, falling back", slog.String("provider", provider.Name()),
				slog.Float64("latitude", coords.Lat), slog.Float64("longitude", coords.Lon))
			continue
		}

		result := Result{
			Success:        true,
			Address:        address,
			Source:         provider.Name(),
			ProcessingTime: formatProcessingTime(time.Since(start)),
		}
		r.cache.Store(ctx, coords, lang, result)
		return result
	}

	failure := failureResult(CodeGeocodingFailed, "all geocoding providers failed")
	failure.ProcessingTime = formatProcessingTime(time.Since(start))
	return failure
}

// GeocodeBatch resolves every coordinate of a batch independently. The returned
// results keep the input order and a failed item never aborts the remaining
// items. Batches above the configured cap are rejected with a ValidationError
// before any item is attempted.
func (r *Resolver) GeocodeBatch(ctx context.Context, coords []Coordinate, lang string) (BatchResult, error) {
	if len(coords) > r.batchCap {
		return BatchResult{}, &ValidationError{
			Code:    CodeBatchTooLarge,
			Message: fmt.Sprintf("batch size %d exceeds the maximum of %d locations", len(coords), r.batchCap),
		}
	}

	results := make([]Result, len(coords))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.batchWorkers)
	for i, coord := range coords {
		group.Go(func() error {
			results[i] = r.Geocode(groupCtx, coord, lang)
			return nil
		})
	}
	// Every item reports its failure through its own result entry, the group
	// itself never carries an error.
	_ = group.Wait()

	batch := BatchResult{Total: len(coords), Results: results}
	for _, result := range results {
		if result.Success {
			batch.Successful++
		}
	}
	return batch, nil
}

// HealthCheck reports the state of the cache backend and the provider chain.
// Providers count as up when at least one of them answers a connectivity probe,
// mirroring the fallback semantics of Geocode.
func (r *Resolver) HealthCheck(ctx context.Context) Health {
	health := Health{Cache: StatusUp, Providers: StatusDown}
	if err := r.cache.HealthCheck(ctx); err != nil {
		r.logger.Warn("cache backend is unreachable", logger.Err(err))
		health.Cache = StatusDown
	}

	for _, provider := range r.providers {
		prober, ok := provider.(Prober)
		if !ok {
			health.Providers = StatusUp
			break
		}
		if err := prober.Probe(ctx); err != nil {
			r.logger.Warn("provider connectivity probe failed", slog.String("provider", provider.Name()),
				logger.Err(err))
			continue
		}
		health.Providers = StatusUp
		break
	}
	return health
}

// ValidateRequest checks coordinate bounds and the language code. It returns nil
// when the input can be handed to the providers.
func ValidateRequest(coords Coordinate, lang string) *ValidationError {
	// NaN passes range comparisons, it has to be rejected explicitly
	if math.IsNaN(coords.Lat) {
		return &ValidationError{
			Code:    CodeInvalidCoordinates,
			Message: "latitude is missing or not a number",
		}
	}
	if math.IsNaN(coords.Lon) {
		return &ValidationError{
			Code:    CodeInvalidCoordinates,
			Message: "longitude is missing or not a number",
		}
	}
	if coords.Lat < -90 || coords.Lat > 90 {
		return &ValidationError{
			Code:    CodeInvalidCoordinates,
			Message: fmt.Sprintf("latitude %g is outside the valid range of -90 to 90 degrees", coords.Lat),
		}
	}
	if coords.Lon < -180 || coords.Lon > 180 {
		return &ValidationError{
			Code:    CodeInvalidCoordinates,
			Message: fmt.Sprintf("longitude %g is outside the valid range of -180 to 180 degrees", coords.Lon),
		}
	}
	if !languageRE.MatchString(lang) {
		return &ValidationError{
			Code:    CodeInvalidLanguage,
			Message: fmt.Sprintf("language %q is not a two-letter lowercase language code", lang),
		}
	}
	return nil
}

func failureResult(code, message string) Result {
	return Result{Code: code, Message: message}
}

func formatProcessingTime(elapsed time.Duration) string {
	return fmt.Sprintf("%.3fs", elapsed.Seconds())
}
