// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-budget-sync/internal/service"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
)

// Error codes carried in [models.ErrorResponse].
const (
	codeInvalidArgument  = "invalid-argument"
	codeUnauthenticated  = "unauthenticated"
	codeNotFound         = "not-found"
	codeMethodNotAllowed = "method-not-allowed"
	codeUnavailable      = "unavailable"
	codeInternal         = "internal"
)

type errorStatus struct {
	status int
	code   string
}

// errorStatusList is ordered: the first match wins, so more specific
// sentinels come first.
var errorStatusList = []struct {
	target error
	errorStatus
}{
	{service.ErrInvalidRequest, errorStatus{http.StatusBadRequest, codeInvalidArgument}},
	{store.ErrInvalidDocument, errorStatus{http.StatusBadRequest, codeInvalidArgument}},
	{ErrInvalidJSON, errorStatus{http.StatusBadRequest, codeInvalidArgument}},
	{ErrDocumentIDMismatch, errorStatus{http.StatusBadRequest, codeInvalidArgument}},
	{errInvalidGzipBody, errorStatus{http.StatusBadRequest, codeInvalidArgument}},

	{service.ErrInvalidToken, errorStatus{http.StatusUnauthorized, codeUnauthenticated}},
	{ErrEmptyAuthorizationHeader, errorStatus{http.StatusUnauthorized, codeUnauthenticated}},
	{ErrInvalidAuthorizationHeader, errorStatus{http.StatusUnauthorized, codeUnauthenticated}},

	{store.ErrDocumentNotFound, errorStatus{http.StatusNotFound, codeNotFound}},
	{errRouteNotFound, errorStatus{http.StatusNotFound, codeNotFound}},
	{errMethodNotAllowed, errorStatus{http.StatusMethodNotAllowed, codeMethodNotAllowed}},

	{store.ErrTemporarilyUnavailable, errorStatus{http.StatusServiceUnavailable, codeUnavailable}},
}

func statusFromError(err error) errorStatus {
	for _, entry := range errorStatusList {
		if errors.Is(err, entry.target) {
			return entry.errorStatus
		}
	}
	return errorStatus{http.StatusInternalServerError, codeInternal}
}

// writeError renders err as a JSON [models.ErrorResponse]. Internal errors
// are reported with a generic message so storage details do not leak.
func writeError(w http.ResponseWriter, err error) {
	st := statusFromError(err)

	msg := err.Error()
	if st.status == http.StatusInternalServerError {
		msg = http.StatusText(http.StatusInternalServerError)
	}

	utils.WriteJSON(w, models.ErrorResponse{Code: st.code, Message: msg}, st.status)
}
