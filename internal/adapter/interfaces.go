// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client-side transport to the remote document
// store.
//
// [DocumentStore] and [IdentityService] decouple the sync services from the
// protocol. The package ships an HTTP/REST implementation backed by resty
// with a websocket change stream ([NewHTTPStoreAdapter]).
//
// Non-2xx responses are mapped to *[RemoteError], which carries the HTTP
// status and the store's service code so the retry policy can classify them.
// Connection-level failures wrap [syncerr.ErrTransientTransport].
package adapter

import (
	"context"

	"github.com/MKhiriev/go-budget-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// DocumentStore reads and writes opaque documents by id. Writes are
// last-write-wins.
type DocumentStore interface {
	// GetDocument returns the document stored under id, or an error
	// matching [ErrNotFound].
	GetDocument(ctx context.Context, id string) (models.Document, error)

	// PutDocument creates or replaces doc.
	PutDocument(ctx context.Context, doc models.Document) error

	// DeleteDocument removes id. A missing document yields an error
	// matching [ErrNotFound].
	DeleteDocument(ctx context.Context, id string) error

	// Watch streams changes of document id until ctx is cancelled or the
	// stream fails. The channel is closed when the stream ends; a stream
	// failure is delivered as a final event with Err set.
	Watch(ctx context.Context, id string) (<-chan WatchEvent, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// IdentityService performs the sign-in exchange with the store.
type IdentityService interface {
	// SignIn obtains a fresh anonymous identity. Implementations attach
	// the identity token to subsequent store requests.
	SignIn(ctx context.Context) (models.Identity, error)
}

// WatchEvent is one item of a change stream.
type WatchEvent struct {
	Document models.Document
	Err      error
}
