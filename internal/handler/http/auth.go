// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
)

func (h *Handler) signInAnonymously(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	token, err := h.services.AuthService.SignInAnonymously(r.Context())
	if err != nil {
		log.Err(err).Msg("anonymous sign-in failed")
		writeError(w, err)
		return
	}

	resp := models.AuthResponse{
		IdentityID: token.IdentityID,
		Token:      token.SignedString,
	}
	if token.ExpiresAt != nil {
		resp.ExpiresAt = token.ExpiresAt.Time
	}

	log.Debug().Str("identity_id", resp.IdentityID).Msg("identity issued")
	utils.WriteJSON(w, resp, http.StatusOK)
}
