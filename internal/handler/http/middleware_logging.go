// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/go-chi/chi/v5"
)

// withLogging writes one access log line per request. Change streams are
// logged when the websocket closes, with the status of the upgrade.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()

		lw := &responseWriter{
			ResponseWriter: w,
		}

		next.ServeHTTP(lw, r)

		event := log.Info()
		if lw.status >= http.StatusInternalServerError {
			event = log.Error()
		}

		var route string
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}

		event.
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Str("route", route).
			Int("status", lw.status).
			Bool("hijacked", lw.hijacked).
			Dur("duration", time.Since(start)).
			Int("size", lw.size).
			Send()
	})
}
