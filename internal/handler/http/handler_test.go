// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/service"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/models"
)

const testVersion = "v1.2.3"

func newTestServices() *service.Services {
	log := logger.Nop()
	return &service.Services{
		AuthService: service.NewAuthService(config.Auth{
			TokenSignKey:  "test-sign-key",
			TokenIssuer:   "go-budget-sync",
			TokenDuration: time.Hour,
		}, clock.New(), log),
		DocumentService: service.NewDocumentValidationService().Wrap(
			service.NewDocumentService(store.NewMemoryDocumentRepository(), log),
		),
	}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(newTestServices(), testVersion, logger.Nop())
}

// pingFailing overrides Ping of a working document service.
type pingFailing struct {
	service.DocumentService
	err error
}

func (p pingFailing) Ping(context.Context) error { return p.err }

func signIn(t *testing.T, router http.Handler) models.AuthResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/anonymous", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func envelopeDoc(id string) models.Document {
	return models.Document{
		ID:   id,
		Kind: models.DocumentKindEnvelope,
		Envelope: &models.EncryptedEnvelope{
			Ciphertext: []byte("ciphertext"),
			IV:         bytes.Repeat([]byte{1}, 12),
			Metadata:   models.EnvelopeMetadata{Version: 1},
		},
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Code
}

func TestNewHandler(t *testing.T) {
	svc := newTestServices()
	log := logger.Nop()
	h := NewHandler(svc, testVersion, log)

	require.NotNil(t, h)
	assert.Same(t, svc, h.services)
	assert.Same(t, log, h.logger)
	assert.Equal(t, testVersion, h.version)
}

func TestInit_UnknownRoutes(t *testing.T) {
	router := newTestHandler(t).Init()

	t.Run("unknown path", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/unknown", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, codeNotFound, errorCode(t, rr))
	})

	t.Run("wrong method", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/api/health", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, codeMethodNotAllowed, errorCode(t, rr))
	})
}

func TestSignInAnonymously(t *testing.T) {
	router := newTestHandler(t).Init()

	first := signIn(t, router)
	second := signIn(t, router)

	assert.NotEmpty(t, first.Token)
	assert.NotEmpty(t, first.IdentityID)
	assert.NotEqual(t, first.IdentityID, second.IdentityID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), first.ExpiresAt, time.Minute)
}

func TestHealth(t *testing.T) {
	t.Run("storage answers", func(t *testing.T) {
		router := newTestHandler(t).Init()

		rr := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp models.ServiceHealth
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, models.ServiceHealth{Status: healthStatusOK, Version: testVersion}, resp)
	})

	t.Run("storage down", func(t *testing.T) {
		svc := newTestServices()
		svc.DocumentService = pingFailing{DocumentService: svc.DocumentService, err: errors.New("connection refused")}
		router := NewHandler(svc, testVersion, logger.Nop()).Init()

		rr := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, codeUnavailable, errorCode(t, rr))
	})
}

func TestDocuments_RequireAuth(t *testing.T) {
	router := newTestHandler(t).Init()

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "missing token", header: "Bearer"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documents/budget", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, codeUnauthenticated, errorCode(t, rr))
		})
	}
}

func TestDocuments_PutAndGet(t *testing.T) {
	router := newTestHandler(t).Init()
	token := signIn(t, router).Token

	doc := envelopeDoc("budget-1")
	rr := doJSON(t, router, http.MethodPut, "/api/documents/budget-1", token, doc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var stored models.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stored))
	assert.False(t, stored.UpdatedAt.IsZero())

	rr = doJSON(t, router, http.MethodGet, "/api/documents/budget-1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, doc.Kind, got.Kind)
	assert.Equal(t, doc.Envelope.Ciphertext, got.Envelope.Ciphertext)
	assert.Equal(t, doc.Envelope.IV, got.Envelope.IV)
}

func TestDocuments_PutFillsIDFromPath(t *testing.T) {
	router := newTestHandler(t).Init()
	token := signIn(t, router).Token

	doc := envelopeDoc("")
	rr := doJSON(t, router, http.MethodPut, "/api/documents/budget-2", token, doc)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodGet, "/api/documents/budget-2", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDocuments_Delete(t *testing.T) {
	router := newTestHandler(t).Init()
	token := signIn(t, router).Token

	rr := doJSON(t, router, http.MethodPut, "/api/documents/budget-1_chunk_002", token, envelopeDoc("budget-1_chunk_002"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodDelete, "/api/documents/budget-1_chunk_002", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/api/documents/budget-1_chunk_002", token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = doJSON(t, router, http.MethodGet, "/api/documents/budget-1_chunk_002", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/api/documents/budget-1_chunk_002", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, codeNotFound, errorCode(t, rr))
}

func TestDocuments_Errors(t *testing.T) {
	router := newTestHandler(t).Init()
	token := signIn(t, router).Token

	t.Run("missing document", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/api/documents/absent", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, codeNotFound, errorCode(t, rr))
	})

	t.Run("id mismatch", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPut, "/api/documents/one", token, envelopeDoc("two"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeInvalidArgument, errorCode(t, rr))
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/documents/one", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeInvalidArgument, errorCode(t, rr))
	})

	t.Run("no body", func(t *testing.T) {
		doc := models.Document{ID: "one", Kind: models.DocumentKindEnvelope}
		rr := doJSON(t, router, http.MethodPut, "/api/documents/one", token, doc)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeInvalidArgument, errorCode(t, rr))
	})
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errorStatus
	}{
		{"invalid request", errors.Join(service.ErrInvalidRequest, errors.New("x")), errorStatus{http.StatusBadRequest, codeInvalidArgument}},
		{"invalid token", service.ErrInvalidToken, errorStatus{http.StatusUnauthorized, codeUnauthenticated}},
		{"not found", store.ErrDocumentNotFound, errorStatus{http.StatusNotFound, codeNotFound}},
		{"unavailable", store.ErrTemporarilyUnavailable, errorStatus{http.StatusServiceUnavailable, codeUnavailable}},
		{"unknown", errors.New("boom"), errorStatus{http.StatusInternalServerError, codeInternal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, codeInternal, resp.Code)
	assert.NotContains(t, resp.Message, "password")
}
