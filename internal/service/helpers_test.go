// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/models"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

// memoryStore is an in-memory adapter.DocumentStore with failure injection.
type memoryStore struct {
	mu        sync.Mutex
	docs      map[string]models.Document
	puts      []string
	deletes   []string
	nextWatch int
	watchers  map[int]chan adapter.WatchEvent

	// getErr, putErr and deleteErr are consulted before every call; a nil
	// result lets the call through.
	getErr    func(id string) error
	putErr    func(doc models.Document) error
	deleteErr func(id string) error
	pingErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		docs:     make(map[string]models.Document),
		watchers: make(map[int]chan adapter.WatchEvent),
	}
}

func (s *memoryStore) GetDocument(_ context.Context, id string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		if err := s.getErr(id); err != nil {
			return models.Document{}, err
		}
	}
	doc, ok := s.docs[id]
	if !ok {
		return models.Document{}, &adapter.RemoteError{Status: 404, Code: "not-found", Message: id}
	}
	return doc, nil
}

func (s *memoryStore) PutDocument(_ context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		if err := s.putErr(doc); err != nil {
			return err
		}
	}
	s.docs[doc.ID] = doc
	s.puts = append(s.puts, doc.ID)
	return nil
}

func (s *memoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		if err := s.deleteErr(id); err != nil {
			return err
		}
	}
	if _, ok := s.docs[id]; !ok {
		return &adapter.RemoteError{Status: 404, Code: "not-found", Message: id}
	}
	delete(s.docs, id)
	s.deletes = append(s.deletes, id)
	return nil
}

func (s *memoryStore) Watch(ctx context.Context, _ string) (<-chan adapter.WatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextWatch
	s.nextWatch++
	ch := make(chan adapter.WatchEvent, 16)
	s.watchers[id] = ch

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if w, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w)
		}
	}()
	return ch, nil
}

func (s *memoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

// emit sends ev to every watcher.
func (s *memoryStore) emit(ev adapter.WatchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		ch <- ev
	}
}

// closeWatchers ends every change stream.
func (s *memoryStore) closeWatchers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}

func (s *memoryStore) watcherCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// watchCalls counts Watch calls, including finished streams.
func (s *memoryStore) watchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextWatch
}

func (s *memoryStore) putIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func (s *memoryStore) deletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

// ids lists every stored document id.
func (s *memoryStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for id := range s.docs {
		out = append(out, id)
	}
	return out
}

func (s *memoryStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

func (s *memoryStore) set(doc models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

func (s *memoryStore) get(id string) (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// staticIdentity signs in instantly and counts calls.
type staticIdentity struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (i *staticIdentity) SignIn(context.Context) (models.Identity, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return models.Identity{}, i.err
	}
	return models.Identity{ID: "identity-1", Token: "token-1"}, nil
}

func (i *staticIdentity) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

// memoryLocal implements LocalDocuments.
type memoryLocal struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemoryLocal() *memoryLocal {
	return &memoryLocal{docs: make(map[string][]byte)}
}

func (l *memoryLocal) ReadDocument(_ context.Context, id string) ([]byte, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, ok := l.docs[id]
	if !ok {
		return nil, time.Time{}, storeNotFound
	}
	return data, testStart, nil
}

func (l *memoryLocal) WriteDocument(_ context.Context, id string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[id] = append([]byte(nil), data...)
	return nil
}

var storeNotFound = store.ErrDocumentNotFound
