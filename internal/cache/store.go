// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package cache provides the key-value backends for the geocoding result cache
package cache

import (
	"context"
	"time"
)

// Store is the key-value seam the geocoding cache runs on. Implementations
// report absent or expired keys as a miss via the second return value, an error
// indicates a backend failure.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}
