// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

// HTTPStoreAdapter implements [DocumentStore] and [IdentityService] over the
// document store REST API.
type HTTPStoreAdapter struct {
	client  *utils.HTTPClient
	baseURL string
	dialer  *websocket.Dialer

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPStoreAdapter normalises cfg.HTTPAddress and configures the
// underlying resty client with it and cfg.RequestTimeout.
func NewHTTPStoreAdapter(cfg config.ClientAdapter, log *logger.Logger) (*HTTPStoreAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout)

	return &HTTPStoreAdapter{
		client:  client,
		baseURL: baseURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout},
		logger:  log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken stores the bearer token attached to document requests.
func (h *HTTPStoreAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token returns the current bearer token.
func (h *HTTPStoreAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *HTTPStoreAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// SignIn implements [IdentityService]. It POSTs to /api/auth/anonymous and
// keeps the returned token for later requests.
func (h *HTTPStoreAdapter) SignIn(ctx context.Context) (models.Identity, error) {
	var out models.AuthResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetResult(&out).
		Post("/api/auth/anonymous")
	if err != nil {
		return models.Identity{}, transportError("sign in request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Identity{}, err
	}
	if out.Token == "" {
		return models.Identity{}, fmt.Errorf("sign in: empty token in response")
	}

	h.SetToken(out.Token)
	return models.Identity{ID: out.IdentityID, Token: out.Token, ExpiresAt: out.ExpiresAt}, nil
}

// GetDocument implements [DocumentStore].
func (h *HTTPStoreAdapter) GetDocument(ctx context.Context, id string) (models.Document, error) {
	var doc models.Document

	resp, err := h.authedRequest(ctx).
		SetResult(&doc).
		Get("/api/documents/" + url.PathEscape(id))
	if err != nil {
		return models.Document{}, transportError("get document request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}

	return doc, nil
}

// PutDocument implements [DocumentStore].
func (h *HTTPStoreAdapter) PutDocument(ctx context.Context, doc models.Document) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Put("/api/documents/" + url.PathEscape(doc.ID))
	if err != nil {
		return transportError("put document request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return fmt.Errorf("put document %s: %w", doc.ID, err)
	}

	return nil
}

// DeleteDocument implements [DocumentStore].
func (h *HTTPStoreAdapter) DeleteDocument(ctx context.Context, id string) error {
	resp, err := h.authedRequest(ctx).Delete("/api/documents/" + url.PathEscape(id))
	if err != nil {
		return transportError("delete document request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	return nil
}

// Ping implements [DocumentStore].
func (h *HTTPStoreAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return transportError("ping request", err)
	}
	return mapHTTPError(resp)
}

// Watch implements [DocumentStore] by dialing the websocket change stream of
// document id.
func (h *HTTPStoreAdapter) Watch(ctx context.Context, id string) (<-chan WatchEvent, error) {
	wsURL, err := websocketURL(h.baseURL, "/api/documents/"+url.PathEscape(id)+"/changes")
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if token := h.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := h.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, fmt.Errorf("watch %s: %w", id, &RemoteError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
		}
		return nil, transportError("watch dial", err)
	}

	events := make(chan WatchEvent)
	go h.readChanges(ctx, conn, id, events)
	return events, nil
}

func (h *HTTPStoreAdapter) readChanges(ctx context.Context, conn *websocket.Conn, id string, events chan<- WatchEvent) {
	defer close(events)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		var doc models.Document
		if err := conn.ReadJSON(&doc); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			h.logger.Warn().Str("document_id", id).Err(err).Msg("change stream failed")
			select {
			case events <- WatchEvent{Err: transportError("watch read", err)}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case events <- WatchEvent{Document: doc}:
		case <-ctx.Done():
			return
		}
	}
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}
