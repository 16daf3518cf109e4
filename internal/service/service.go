// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service wires the cache backend, the provider chain, the resolver and
// the HTTP API together and runs them as one unit
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wneessen/revgeo/internal/cache"
	"github.com/wneessen/revgeo/internal/config"
	"github.com/wneessen/revgeo/internal/geocode"
	"github.com/wneessen/revgeo/internal/logger"
	"github.com/wneessen/revgeo/internal/server"
)

// Service is the fully assembled revgeo service
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	resolver  *geocode.Resolver
	scheduler gocron.Scheduler
	server    *server.Server
	store     cache.Store
}

// New assembles a Service from the given configuration
func New(conf *config.Config, log *logger.Logger, version string) (*Service, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	resolver, store, err := BuildResolver(conf, log)
	if err != nil {
		return nil, err
	}

	service := &Service{
		config:    conf,
		logger:    log,
		resolver:  resolver,
		scheduler: scheduler,
		server:    server.New(conf, resolver, log, version),
		store:     store,
	}
	return service, nil
}

// BuildResolver assembles the cache store, the result cache and the provider
// chain from the configuration. The returned store has to be closed by the
// caller once the resolver is no longer needed.
func BuildResolver(conf *config.Config, log *logger.Logger) (*geocode.Resolver, cache.Store, error) {
	store, err := createStore(conf)
	if err != nil {
		return nil, nil, err
	}

	providers, err := createProviders(conf, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	resultCache := geocode.NewCache(store, conf.Cache.Precision, ttlTable(conf), log)
	resolver := geocode.NewResolver(providers, resultCache, log, conf.Batch.Cap, conf.Batch.Workers)
	return resolver, store, nil
}

// Run serves the HTTP API until the given context is cancelled. It also runs
// the periodic health probe job.
func (s *Service) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Health.ProbeInterval, s.probeHealth,
		"health_probe_job"); err != nil {
		return err
	}
	s.scheduler.Start()

	serveErr := s.server.Run(ctx)

	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("failed to shut down scheduler", logger.Err(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close cache store", logger.Err(err))
	}
	return serveErr
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// probeHealth checks the cache backend and the provider chain and logs the
// component states
func (s *Service) probeHealth(ctx context.Context) {
	health := s.resolver.HealthCheck(ctx)
	if health.Healthy() {
		s.logger.Debug("health probe succeeded", slog.String("cache", health.Cache),
			slog.String("providers", health.Providers))
		return
	}
	s.logger.Warn("health probe reported degraded components", slog.String("cache", health.Cache),
		slog.String("providers", health.Providers))
}

// createStore returns the cache store for the configured backend
func createStore(conf *config.Config) (cache.Store, error) {
	switch conf.Cache.Backend {
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(), nil
	case config.CacheBackendRedis:
		return cache.NewRedisStore(conf.Cache.Redis.Address, conf.Cache.Redis.Username,
			conf.Cache.Redis.Password, conf.Cache.Redis.DB), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", conf.Cache.Backend)
	}
}

// ttlTable maps the configured per-place-type lifetimes into a TTL table
func ttlTable(conf *config.Config) geocode.TTLTable {
	return geocode.TTLTable{
		StreetAddress:   conf.Cache.TTL.StreetAddress,
		Establishment:   conf.Cache.TTL.Establishment,
		PointOfInterest: conf.Cache.TTL.PointOfInterest,
		Locality:        conf.Cache.TTL.Locality,
		Administrative:  conf.Cache.TTL.Administrative,
		Default:         conf.Cache.DefaultTTL,
	}
}
