// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/models"
)

// watchBuffer is the per-watcher channel capacity. A watcher that falls
// this far behind misses intermediate versions; it always receives later
// ones.
const watchBuffer = 8

type documentService struct {
	repository store.DocumentRepository
	changes    *changeBroker

	logger *logger.Logger
}

func NewDocumentService(repository store.DocumentRepository, logger *logger.Logger) DocumentService {
	return &documentService{
		repository: repository,
		changes:    newChangeBroker(logger),
		logger:     logger,
	}
}

func (s *documentService) GetDocument(ctx context.Context, id string) (models.Document, error) {
	return s.repository.GetDocument(ctx, id)
}

func (s *documentService) PutDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	stored, err := s.repository.PutDocument(ctx, doc)
	if err != nil {
		return models.Document{}, err
	}

	s.changes.publish(stored)
	return stored, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	if err := s.repository.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.logger.Debug().Str("document_id", id).Msg("document deleted")
	return nil
}

func (s *documentService) WatchDocument(ctx context.Context, id string) (<-chan models.Document, error) {
	ch, cancel := s.changes.subscribe(id)

	// Registered before the read so a write racing the initial read is not
	// lost; the watcher may then see that version twice.
	current, err := s.repository.GetDocument(ctx, id)
	switch {
	case err == nil:
		select {
		case ch <- current:
		default:
		}
	case !errors.Is(err, store.ErrDocumentNotFound):
		cancel()
		return nil, err
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, nil
}

func (s *documentService) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// changeBroker fans stored documents out to the watchers of their id.
type changeBroker struct {
	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]chan models.Document

	logger *logger.Logger
}

func newChangeBroker(log *logger.Logger) *changeBroker {
	return &changeBroker{watchers: make(map[string]map[int]chan models.Document), logger: log}
}

func (b *changeBroker) subscribe(docID string) (chan models.Document, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.Document, watchBuffer)
	if b.watchers[docID] == nil {
		b.watchers[docID] = make(map[int]chan models.Document)
	}
	b.watchers[docID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.watchers[docID], id)
			if len(b.watchers[docID]) == 0 {
				delete(b.watchers, docID)
			}
			close(ch)
		})
	}
}

func (b *changeBroker) publish(doc models.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.watchers[doc.ID] {
		select {
		case ch <- doc:
		default:
			b.logger.Warn().Str("document_id", doc.ID).Int("watcher", id).Msg("watcher is behind, change dropped")
		}
	}
}

// count returns the number of watchers of docID.
func (b *changeBroker) count(docID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers[docID])
}
