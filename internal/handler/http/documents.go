// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
	"github.com/go-chi/chi/v5"
)

// maxRequestBody bounds PUT bodies. Payloads are base64 inside JSON, so the
// limit sits well above the stored payload cap.
const maxRequestBody = 4 << 20

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	doc, err := h.services.DocumentService.GetDocument(r.Context(), id)
	if err != nil {
		log.Err(err).Str("document_id", id).Msg("get document failed")
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, doc, http.StatusOK)
}

func (h *Handler) putDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	var doc models.Document
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&doc); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		writeError(w, fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}

	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		log.Error().Str("path_id", id).Str("body_id", doc.ID).Msg("document id mismatch")
		writeError(w, ErrDocumentIDMismatch)
		return
	}

	identityID, _ := utils.GetIdentityIDFromContext(r.Context())

	stored, err := h.services.DocumentService.PutDocument(r.Context(), doc)
	if err != nil {
		log.Err(err).Str("document_id", id).Msg("put document failed")
		writeError(w, err)
		return
	}

	log.Debug().
		Str("document_id", stored.ID).
		Str("kind", string(stored.Kind)).
		Str("identity_id", identityID).
		Msg("document stored")
	utils.WriteJSON(w, stored, http.StatusOK)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	if err := h.services.DocumentService.DeleteDocument(r.Context(), id); err != nil {
		log.Err(err).Str("document_id", id).Msg("delete document failed")
		writeError(w, err)
		return
	}

	log.Debug().Str("document_id", id).Msg("document deleted")
	w.WriteHeader(http.StatusNoContent)
}
