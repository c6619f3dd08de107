/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gwerrors "github.com/suparena/iotgateway/errors"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInternal       = "internal_error"
	ErrCodeUpstream       = "upstream_error"
	ErrCodeTimeout        = "timeout"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeNotFound writes the empty 404 used for every absent resource.
func writeNotFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeComponentError translates a component error into a response.
func (s *Server) writeComponentError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *gwerrors.UpstreamError

	switch {
	case gwerrors.IsNotFound(err):
		writeNotFound(w)
	case gwerrors.IsValidationError(err):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("request deadline exceeded",
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out")
	case errors.As(err, &upstream):
		s.logger.Error("upstream call failed",
			"service", upstream.Service,
			"operation", upstream.Operation,
			"error", upstream.Err,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeError(w, http.StatusInternalServerError, ErrCodeUpstream, "upstream service failure")
	default:
		s.logger.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}
