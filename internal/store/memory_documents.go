// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-budget-sync/models"
)

// memoryDocumentRepository keeps documents in a map. It backs the server
// when no database DSN is configured and the handler tests.
type memoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]models.Document
	now  func() time.Time
}

func NewMemoryDocumentRepository() DocumentRepository {
	return &memoryDocumentRepository{
		docs: make(map[string]models.Document),
		now:  time.Now,
	}
}

func (r *memoryDocumentRepository) GetDocument(_ context.Context, id string) (models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return models.Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (r *memoryDocumentRepository) PutDocument(_ context.Context, doc models.Document) (models.Document, error) {
	// Same validation as the postgres repository.
	if _, err := encodeDocumentBody(doc); err != nil {
		return models.Document{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc.UpdatedAt = r.now().UTC()
	r.docs[doc.ID] = doc
	return doc, nil
}

func (r *memoryDocumentRepository) DeleteDocument(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *memoryDocumentRepository) Ping(context.Context) error {
	return nil
}
