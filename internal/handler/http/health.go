// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
)

const healthStatusOK = "ok"

// health reports the server version and whether storage answers. Clients
// use it as their connectivity probe.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.services.DocumentService.Ping(r.Context()); err != nil {
		logger.FromRequest(r).Err(err).Msg("storage ping failed")
		writeError(w, fmt.Errorf("%w: %w", store.ErrTemporarilyUnavailable, err))
		return
	}

	utils.WriteJSON(w, models.ServiceHealth{Status: healthStatusOK, Version: h.version}, http.StatusOK)
}
