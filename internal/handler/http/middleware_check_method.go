// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
)

// methodNotAllowed is registered with [chi.Mux.MethodNotAllowed] so that a
// known path hit with the wrong method still gets a JSON error body.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, errMethodNotAllowed)
}

// notFound is registered with [chi.Mux.NotFound].
func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, errRouteNotFound)
}
