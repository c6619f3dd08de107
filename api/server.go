/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/suparena/iotgateway"
	"github.com/suparena/iotgateway/config"
	"github.com/suparena/iotgateway/logging"
	"github.com/suparena/iotgateway/publish"
)

// gracefulShutdownTimeout is used when the configuration sets no shutdown timeout.
const gracefulShutdownTimeout = 10 * time.Second

// reservedRoutes cannot be used as bucket or table names.
var reservedRoutes = map[string]bool{
	"things":  true,
	"publish": true,
	"weather": true,
	"health":  true,
	"version": true,
}

// Deps holds the dependencies required by the API server.
//
// Only Logger is required. Routes backed by a nil component are not mounted.
type Deps struct {
	Config    config.HTTPConfig
	Logger    *logging.Logger
	Buckets   *iotgateway.Catalog[ObjectBrowser] // one GET /{name} route per bucket
	Tables    *iotgateway.Catalog[TableRef]      // one GET /{name} route per table
	Scanner   TableReader
	History   HistoryQuerier
	Shadows   ShadowReader
	Things    ThingLister
	Publisher publish.Publisher
	Weather   WeatherProvider
	Version   string
}

// Server is the HTTP server of the gateway.
//
// It is created with New() and started with Start().
type Server struct {
	cfg       config.HTTPConfig
	logger    *logging.Logger
	buckets   *iotgateway.Catalog[ObjectBrowser]
	tables    *iotgateway.Catalog[TableRef]
	scanner   TableReader
	history   HistoryQuerier
	shadows   ShadowReader
	things    ThingLister
	publisher publish.Publisher
	weather   WeatherProvider
	version   string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Tables != nil && deps.Tables.Len() > 0 && deps.Scanner == nil {
		return nil, fmt.Errorf("table scanner is required when tables are registered")
	}

	seen := make(map[string]string)
	for kind, names := range map[string][]string{
		"bucket": catalogNames(deps.Buckets),
		"table":  catalogNames(deps.Tables),
	} {
		for _, name := range names {
			if reservedRoutes[name] {
				return nil, fmt.Errorf("%s name %q collides with a built-in route", kind, name)
			}
			if other, ok := seen[name]; ok {
				return nil, fmt.Errorf("%s name %q is already used by a %s", kind, name, other)
			}
			seen[name] = kind
		}
	}

	version := deps.Version
	if version == "" {
		version = iotgateway.Version
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger.With("component", "api"),
		buckets:   deps.Buckets,
		tables:    deps.Tables,
		scanner:   deps.Scanner,
		history:   deps.History,
		shadows:   deps.Shadows,
		things:    deps.Things,
		publisher: deps.Publisher,
		weather:   deps.Weather,
		version:   version,
	}, nil
}

func catalogNames[T any](c *iotgateway.Catalog[T]) []string {
	if c == nil {
		return nil
	}
	return c.List()
}

// Start begins listening for HTTP connections.
//
// The listener is bound before Start returns, so an address already in use
// is reported here. Requests are served in a background goroutine until
// Close() is called; request contexts are not tied to ctx, so in-flight
// requests can finish during a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	s.logger.Info("API server starting", "address", listener.Addr().String())

	srv := s.server
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server, waiting for in-flight requests
// up to the configured shutdown timeout.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = gracefulShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
