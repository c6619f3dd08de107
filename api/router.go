/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.timeoutMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	// Bucket browse routes, e.g. /snapshots and /archive
	for _, name := range catalogNames(s.buckets) {
		browser, err := s.buckets.Get(name)
		if err != nil {
			continue
		}
		r.Get("/"+name, s.handleBrowse(browser))
	}

	// Sorted table routes, e.g. /movies and /triggers
	for _, name := range catalogNames(s.tables) {
		ref, err := s.tables.Get(name)
		if err != nil {
			continue
		}
		r.Get("/"+name, s.handleTable(ref))
	}

	r.Route("/things", func(r chi.Router) {
		if s.things != nil {
			r.Get("/", s.handleListThings)
		}
		r.Route("/{thingId}", func(r chi.Router) {
			if s.shadows != nil {
				r.Get("/", s.handleGetShadow)
				r.Get("/{metric}", s.handleGetMetric)
			}
			if s.history != nil {
				r.Get("/{metric}/history", s.handleMetricHistory)
			}
		})
	})

	if s.publisher != nil {
		r.Get("/publish/*", s.handlePublish)
	}
	if s.weather != nil {
		r.Get("/weather", s.handleWeather)
	}

	return r
}
