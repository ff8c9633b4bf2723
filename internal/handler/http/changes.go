// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// watchDocument streams every stored version of a document over a
// websocket. The current version, if any, is sent first. The stream ends
// when the client closes the socket or the server shuts down.
func (h *Handler) watchDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	// A hijacked connection does not cancel the request context on client
	// disconnect, so the read loop below cancels it instead.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes, err := h.services.DocumentService.WatchDocument(ctx, id)
	if err != nil {
		log.Err(err).Str("document_id", id).Msg("watch document failed")
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		log.Err(err).Str("document_id", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	log.Debug().Str("document_id", id).Msg("change stream opened")
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			log.Debug().Str("document_id", id).Msg("change stream closed")
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("document_id", id).Msg("ping failed")
				return
			}
		case doc, ok := <-changes:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(doc); err != nil {
				log.Warn().Err(err).Str("document_id", id).Msg("change delivery failed")
				return
			}
		}
	}
}
