/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/suparena/iotgateway"
	"github.com/suparena/iotgateway/publish"
	"github.com/suparena/iotgateway/weather"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// handleVersion reports build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	info := iotgateway.GetVersionInfo()
	info.Version = s.version
	writeJSON(w, http.StatusOK, info)
}

// handleBrowse lists one bucket, optionally restricted to ?prefix=.
func (s *Server) handleBrowse(browser ObjectBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		objects, err := browser.Browse(r.Context(), r.URL.Query().Get("prefix"))
		if err != nil {
			s.writeComponentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, objects)
	}
}

// handleTable lists one reference table sorted by its configured field.
func (s *Server) handleTable(ref TableRef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := s.scanner.SortedTable(r.Context(), ref.Table, ref.SortBy)
		if err != nil {
			s.writeComponentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func (s *Server) handleListThings(w http.ResponseWriter, r *http.Request) {
	things, err := s.things.ListThings(r.Context())
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, things)
}

func (s *Server) handleGetShadow(w http.ResponseWriter, r *http.Request) {
	doc, err := s.shadows.FetchShadow(r.Context(), chi.URLParam(r, "thingId"))
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetMetric(w http.ResponseWriter, r *http.Request) {
	value, err := s.shadows.FetchMetric(r.Context(), chi.URLParam(r, "thingId"), chi.URLParam(r, "metric"))
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (s *Server) handleMetricHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.QueryHistory(r.Context(), chi.URLParam(r, "thingId"), chi.URLParam(r, "metric"))
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handlePublish sends ?payload= to the topic named by the rest of the path.
// The topic may contain slashes.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	topic, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid topic encoding")
		return
	}

	query := r.URL.Query()
	qos, err := publish.ParseQoS(query.Get("qos"), s.publisher.MaxQoS())
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}
	payload := publish.EncodePayload(query.Get("payload"), query.Has("payload"))

	if err := s.publisher.Publish(r.Context(), topic, payload, qos); err != nil {
		s.writeComponentError(w, r, err)
		return
	}

	s.logger.Debug("message published", "topic", topic, "qos", qos, "bytes", len(payload))
	w.WriteHeader(http.StatusOK)
}

// handleWeather passes the upstream weather body through unchanged.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	loc, err := weather.ParseLocation(r.URL.Query())
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}

	body, err := s.weather.Current(r.Context(), loc)
	if err != nil {
		s.writeComponentError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(body)
}
