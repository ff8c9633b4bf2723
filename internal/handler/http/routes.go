// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/anonymous", h.signInAnonymously)
		r.Get("/api/health", h.health)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/api/documents/{id}", h.getDocument)
		r.Put("/api/documents/{id}", h.putDocument)
		r.Delete("/api/documents/{id}", h.deleteDocument)
		r.Get("/api/documents/{id}/changes", h.watchDocument)
	})

	router.MethodNotAllowed(methodNotAllowed)
	router.NotFound(notFound)

	return router
}
