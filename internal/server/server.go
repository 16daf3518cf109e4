// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package server provides the HTTP API of the revgeo service
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/wneessen/revgeo/internal/config"
	"github.com/wneessen/revgeo/internal/geocode"
	"github.com/wneessen/revgeo/internal/logger"
)

// ServiceName identifies the service in the root endpoint response
const ServiceName = "revgeo"

// Context keys used by the request middleware
const (
	ctxKeyRequestID = "requestID"
	ctxKeyStart     = "requestStart"
)

// Server is the HTTP API server of the revgeo service. It exposes the reverse
// geocoding operations of the resolver and shuts down gracefully when its run
// context is cancelled.
type Server struct {
	addr            string
	defaultLang     string
	handler         http.Handler
	logger          *logger.Logger
	resolver        *geocode.Resolver
	shutdownTimeout time.Duration
	version         string
}

// New returns a new Server for the given resolver
func New(conf *config.Config, resolver *geocode.Resolver, log *logger.Logger, version string) *Server {
	server := &Server{
		addr:            conf.ServerAddr(),
		defaultLang:     conf.Language,
		logger:          log,
		resolver:        resolver,
		shutdownTimeout: conf.Server.ShutdownTimeout,
		version:         version,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), server.requestContext)

	engine.GET("/", server.root)
	v1 := engine.Group("/api/v1/location")
	v1.POST("/reverse", server.reverse)
	v1.POST("/reverse/batch", server.reverseBatch)
	v1.GET("/health", server.health)

	corsLayer := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"*"},
		MaxAge:           900, // 15 mins
	})
	server.handler = corsLayer.Handler(engine)

	return server
}

// Handler returns the full middleware-wrapped HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves the HTTP API until the given context is cancelled, then shuts the
// server down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: time.Second * 10,
	}

	failed := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()
	s.logger.Info("HTTP server started", slog.String("address", s.addr))

	select {
	case err := <-failed:
		return fmt.Errorf("failed to serve HTTP: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// requestContext assigns a request ID, measures the processing time and logs
// every request
func (s *Server) requestContext(ctx *gin.Context) {
	requestID := uuid.NewString()
	ctx.Set(ctxKeyRequestID, requestID)
	ctx.Set(ctxKeyStart, time.Now())
	ctx.Header("X-Request-ID", requestID)

	ctx.Next()

	s.logger.Info("request processed", slog.String("method", ctx.Request.Method),
		slog.String("path", ctx.Request.URL.Path), slog.Int("status", ctx.Writer.Status()),
		slog.String("process_time", processTime(ctx)), slog.String("request_id", requestID))
}

// respond sets the timing header and writes the JSON body. Headers have to be
// set before the first body write.
func respond(ctx *gin.Context, status int, body any) {
	ctx.Header("X-Process-Time", processTime(ctx))
	ctx.JSON(status, body)
}

func requestID(ctx *gin.Context) string {
	return ctx.GetString(ctxKeyRequestID)
}

func processTime(ctx *gin.Context) string {
	start, ok := ctx.Get(ctxKeyStart)
	if !ok {
		return "0.000s"
	}
	startTime, ok := start.(time.Time)
	if !ok {
		return "0.000s"
	}
	return fmt.Sprintf("%.3fs", time.Since(startTime).Seconds())
}
