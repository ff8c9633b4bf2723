// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-budget-sync/models"
)

// DocumentRepository persists the remote documents served by the document
// store API. Documents are opaque to the repository beyond their id and kind.
type DocumentRepository interface {
	// GetDocument returns ErrDocumentNotFound when id is unknown.
	GetDocument(ctx context.Context, id string) (models.Document, error)
	// PutDocument creates or replaces the document and returns it with the
	// stored UpdatedAt.
	PutDocument(ctx context.Context, doc models.Document) (models.Document, error)
	// DeleteDocument removes id. It returns ErrDocumentNotFound when id is
	// unknown.
	DeleteDocument(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// LocalStorage is the client-side plaintext dataset keyed by budget id.
type LocalStorage interface {
	ReadDocument(ctx context.Context, id string) (data []byte, updatedAt time.Time, err error)
	WriteDocument(ctx context.Context, id string, data []byte) error
	Close() error
}

// ErrorClassificator decides whether a driver error is worth retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
