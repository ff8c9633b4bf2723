// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package events fans sync notifications out to any number of subscribers.
package events

import (
	"sync"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/models"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

type subscriber struct {
	ch chan models.SyncEvent
}

// Bus delivers every published event to every subscriber. Publish never
// blocks: when a subscriber's buffer is full the event is dropped for that
// subscriber only.
type Bus struct {
	buffer int

	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
	closed bool

	logger *logger.Logger
}

// NewBus constructs a Bus. buffer <= 0 selects DefaultBuffer.
func NewBus(buffer int, log *logger.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{buffer: buffer, subs: make(map[int]*subscriber), logger: log}
}

// Subscribe registers a subscriber. The returned cancel function removes it
// and closes the channel; calling it more than once is a no-op.
func (b *Bus) Subscribe() (<-chan models.SyncEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.SyncEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(s.ch)
	}
}

// Publish delivers ev to every subscriber without blocking.
func (b *Bus) Publish(ev models.SyncEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for id, s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			b.logger.Warn().
				Int("subscriber", id).
				Str("event", string(ev.Type)).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}
