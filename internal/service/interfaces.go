// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/go-budget-sync/models"
)

// DocumentService serves the document store API.
type DocumentService interface {
	GetDocument(ctx context.Context, id string) (models.Document, error)

	// PutDocument stores doc, replacing any previous version, and notifies
	// watchers of id.
	PutDocument(ctx context.Context, doc models.Document) (models.Document, error)

	// DeleteDocument removes id. Watchers of id are not notified.
	DeleteDocument(ctx context.Context, id string) error

	// WatchDocument streams every stored version of id, starting with the
	// current one if it exists, until ctx is cancelled.
	WatchDocument(ctx context.Context, id string) (<-chan models.Document, error)

	Ping(ctx context.Context) error
}

// AuthService issues and verifies anonymous identity tokens.
type AuthService interface {
	SignInAnonymously(ctx context.Context) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// DocumentServiceWrapper decorates a DocumentService, e.g. with validation.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService
}
