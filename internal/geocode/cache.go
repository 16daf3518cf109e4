// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/wneessen/revgeo/internal/cache"
	"github.com/wneessen/revgeo/internal/logger"
)

const (
	// DefaultPrecision is the number of decimal digits coordinates are rounded to
	// when building cache keys (4 digits ≈ 11 m buckets)
	DefaultPrecision = 4
	// DefaultTTL applies to cache entries whose place type carries no specific TTL
	DefaultTTL = time.Hour * 24

	cacheKeyPrefix = "location"
)

// TTLTable maps place types to cache entry lifetimes
type TTLTable struct {
	StreetAddress   time.Duration
	Establishment   time.Duration
	PointOfInterest time.Duration
	Locality        time.Duration
	Administrative  time.Duration
	Default         time.Duration
}

// DefaultTTLTable returns the standard entry lifetimes. Precise places change
// more often than localities or administrative areas and expire sooner.
func DefaultTTLTable() TTLTable {
	return TTLTable{
		StreetAddress:   time.Hour * 24,
		Establishment:   time.Hour * 24,
		PointOfInterest: time.Hour * 24,
		Locality:        time.Hour * 24 * 7,
		Administrative:  time.Hour * 24 * 30,
		Default:         DefaultTTL,
	}
}

// ForType returns the entry lifetime for the given place type
func (t TTLTable) ForType(placeType PlaceType) time.Duration {
	switch placeType {
	case PlaceTypeStreetAddress:
		return t.StreetAddress
	case PlaceTypeEstablishment:
		return t.Establishment
	case PlaceTypePointOfInterest:
		return t.PointOfInterest
	case PlaceTypeLocality:
		return t.Locality
	case PlaceTypeAdministrative:
		return t.Administrative
	default:
		return t.Default
	}
}

// cacheEntry is the JSON document stored per coordinate bucket
type cacheEntry struct {
	Address        Address   `json:"address"`
	Source         string    `json:"source"`
	ProcessingTime string    `json:"processingTime"`
	CachedAt       time.Time `json:"cachedAt"`
}

// Cache stores normalized geocoding results in coordinate buckets. Nearby
// coordinates share one bucket after rounding to the configured precision, entry
// lifetimes derive from the address place type. Internal cache failures degrade
// to a miss on read and to "not cached" on write, they never fail a request.
type Cache struct {
	store     cache.Store
	precision int
	ttl       TTLTable
	logger    *logger.Logger
}

// NewCache returns a new Cache on top of the given store
func NewCache(store cache.Store, precision int, ttl TTLTable, log *logger.Logger) *Cache {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Cache{store: store, precision: precision, ttl: ttl, logger: log}
}

// Lookup returns the live cached result for the coordinate bucket. It reports a
// miss on absent or expired entries and on any store failure.
func (c *Cache) Lookup(ctx context.Context, coords Coordinate, lang string) (Result, bool) {
	key := c.key(coords, lang)
	payload, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache lookup failed, treating as miss", slog.String("key", key), logger.Err(err))
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}

	var entry cacheEntry
	if err = json.Unmarshal(payload, &entry); err != nil {
		c.logger.Error("failed to decode cache entry, treating as miss", slog.String("key", key), logger.Err(err))
		return Result{}, false
	}
	return Result{
		Success:        true,
		Address:        &entry.Address,
		Source:         entry.Source,
		ProcessingTime: entry.ProcessingTime,
		Cached:         true,
	}, true
}

// Store writes a successful result into the coordinate bucket with a lifetime
// derived from the address place type
func (c *Cache) Store(ctx context.Context, coords Coordinate, lang string, result Result) {
	if result.Address == nil {
		return
	}

	entry := cacheEntry{
		Address:        *result.Address,
		Source:         result.Source,
		ProcessingTime: result.ProcessingTime,
		CachedAt:       time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("failed to encode cache entry, result not cached", logger.Err(err))
		return
	}

	key := c.key(coords, lang)
	if err = c.store.Set(ctx, key, payload, c.ttl.ForType(result.Address.PlaceType)); err != nil {
		c.logger.Error("cache write failed, result not cached", slog.String("key", key), logger.Err(err))
	}
}

// HealthCheck reports whether the underlying store answers
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// quantize rounds a coordinate to the configured precision so that nearby
// coordinates share a bucket
func (c *Cache) quantize(val float64) int64 {
	factor := math.Pow(10, float64(c.precision))
	return int64(math.Round(val * factor))
}

func (c *Cache) key(coords Coordinate, lang string) string {
	return fmt.Sprintf("%s:%d:%d:%s", cacheKeyPrefix, c.quantize(coords.Lat), c.quantize(coords.Lon), lang)
}
