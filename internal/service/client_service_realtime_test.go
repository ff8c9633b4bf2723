// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/mock"
	"github.com/MKhiriev/go-budget-sync/internal/retry"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

type collected struct {
	mu      sync.Mutex
	changes [][]byte
	errs    []error
}

func (c *collected) onChange(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, data)
}

func (c *collected) onError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *collected) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.changes), len(c.errs)
}

func (c *collected) snapshot() ([][]byte, []error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.changes...), append([]error(nil), c.errs...)
}

func envelopeDocument(t *testing.T, id string, payload []byte, key []byte) models.Document {
	t.Helper()
	env, err := crypto.NewCodec(clock.NewFake(testStart)).Encrypt(payload, key, models.ClientInfo{})
	require.NoError(t, err)
	return models.Document{ID: id, Kind: models.DocumentKindEnvelope, Envelope: &env}
}

func newTestRealtime(s adapter.DocumentStore) *RealtimeChannel {
	return newTestRealtimeWithClock(s, clock.NewFake(testStart))
}

func newTestRealtimeWithClock(s adapter.DocumentStore, clk clock.Clock) *RealtimeChannel {
	tr := NewChunkedTransport(s, crypto.NewCodec(clk), testCeiling, logger.Nop())
	retries := retry.NewManager(retry.Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
	}, clk, logger.Nop())
	return NewRealtimeChannel(s, tr, retries, clk, logger.Nop())
}

func TestRealtimeChannel_DeliversDecryptedChanges(t *testing.T) {
	s := newMemoryStore()
	ch := newTestRealtime(s)
	var got collected

	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	defer unsubscribe()
	require.Eventually(t, func() bool { return s.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	s.emit(adapter.WatchEvent{Document: envelopeDocument(t, "budget-1", []byte("v1"), testKey())})
	s.emit(adapter.WatchEvent{Document: envelopeDocument(t, "budget-1", []byte("v2"), testKey())})

	require.Eventually(t, func() bool { n, _ := got.counts(); return n == 2 }, time.Second, 5*time.Millisecond)
	changes, errs := got.snapshot()
	assert.Equal(t, [][]byte{[]byte("v1"), []byte("v2")}, changes)
	assert.Empty(t, errs)
}

func TestRealtimeChannel_ErrorsGoToOnError(t *testing.T) {
	s := newMemoryStore()
	ch := newTestRealtime(s)
	var got collected

	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	defer unsubscribe()
	require.Eventually(t, func() bool { return s.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	wrongKey := make([]byte, 32)
	s.emit(adapter.WatchEvent{Document: envelopeDocument(t, "budget-1", []byte("v1"), wrongKey)})
	s.emit(adapter.WatchEvent{Document: models.Document{ID: "budget-1", Kind: "blob"}})
	s.emit(adapter.WatchEvent{Err: fmt.Errorf("read: %w", syncerr.ErrTransientTransport)})
	s.emit(adapter.WatchEvent{Document: envelopeDocument(t, "budget-1", []byte("v2"), testKey())})

	require.Eventually(t, func() bool { n, e := got.counts(); return n == 1 && e == 3 }, time.Second, 5*time.Millisecond)
	changes, errs := got.snapshot()
	assert.Equal(t, [][]byte{[]byte("v2")}, changes)
	assert.ErrorIs(t, errs[0], syncerr.ErrDecryption)
	assert.ErrorIs(t, errs[1], syncerr.ErrValidation)
	assert.ErrorIs(t, errs[2], syncerr.ErrTransientTransport)
}

func TestRealtimeChannel_StreamEndReported(t *testing.T) {
	s := newMemoryStore()
	ch := newTestRealtime(s)
	var got collected

	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	require.Eventually(t, func() bool { return s.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	s.closeWatchers()

	require.Eventually(t, func() bool { _, e := got.counts(); return e == 1 }, time.Second, 5*time.Millisecond)
	_, errs := got.snapshot()
	assert.ErrorIs(t, errs[0], ErrStreamClosed)

	// Unsubscribing after the stream ended is a no-op, as is doing it twice.
	unsubscribe()
	unsubscribe()
}

func TestRealtimeChannel_NoDeliveryAfterUnsubscribe(t *testing.T) {
	s := newMemoryStore()
	ch := newTestRealtime(s)
	var got collected

	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	require.Eventually(t, func() bool { return s.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	s.emit(adapter.WatchEvent{Document: envelopeDocument(t, "budget-1", []byte("v1"), testKey())})
	s.closeWatchers()

	time.Sleep(50 * time.Millisecond)
	n, e := got.counts()
	assert.Zero(t, n)
	assert.Zero(t, e)
}

func TestRealtimeChannel_ReconnectsAfterStreamEnds(t *testing.T) {
	s := newMemoryStore()
	clk := clock.NewFake(testStart)
	ch := newTestRealtimeWithClock(s, clk)
	var got collected

	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	defer unsubscribe()
	require.Eventually(t, func() bool { return s.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	s.closeWatchers()
	require.Eventually(t, func() bool {
		return s.watchCalls() == 2 && s.watcherCount() == 1
	}, time.Second, 5*time.Millisecond)

	s.emit(adapter.WatchEvent{Document: envelopeDocument(t, "budget-1", []byte("after reconnect"), testKey())})
	require.Eventually(t, func() bool { n, _ := got.counts(); return n == 1 }, time.Second, 5*time.Millisecond)

	changes, errs := got.snapshot()
	assert.Equal(t, [][]byte{[]byte("after reconnect")}, changes)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrStreamClosed)
	assert.Equal(t, []time.Duration{time.Second}, clk.Sleeps())

	// a delivered document resets the backoff
	s.closeWatchers()
	require.Eventually(t, func() bool { return s.watchCalls() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clk.Sleeps())
}

func TestRealtimeChannel_BackoffGrowsWhileDialFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)
	boom := errors.New("dial refused")
	rejected := &adapter.RemoteError{Status: 401, Code: "unauthenticated", Message: "token expired"}

	gomock.InOrder(
		store.EXPECT().Watch(gomock.Any(), "budget-1").Return(nil, boom).Times(3),
		store.EXPECT().Watch(gomock.Any(), "budget-1").Return(nil, rejected),
	)

	clk := clock.NewFake(testStart)
	ch := newTestRealtimeWithClock(store, clk)
	var got collected
	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	defer unsubscribe()

	require.Eventually(t, func() bool { _, e := got.counts(); return e == 4 }, time.Second, 5*time.Millisecond)
	_, errs := got.snapshot()
	assert.ErrorIs(t, errs[0], boom)
	assert.ErrorIs(t, errs[3], adapter.ErrUnauthorized)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, clk.Sleeps())
}

func TestRealtimeChannel_FatalStreamErrorEndsSubscription(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)

	events := make(chan adapter.WatchEvent, 1)
	events <- adapter.WatchEvent{Err: fmt.Errorf("stream: %w", syncerr.ErrAuthentication)}
	close(events)
	store.EXPECT().Watch(gomock.Any(), "budget-1").Return((<-chan adapter.WatchEvent)(events), nil)

	clk := clock.NewFake(testStart)
	ch := newTestRealtimeWithClock(store, clk)
	var got collected
	unsubscribe := ch.Subscribe(context.Background(), testKey(), "budget-1", got.onChange, got.onError)
	defer unsubscribe()

	require.Eventually(t, func() bool { _, e := got.counts(); return e == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { _, e := got.counts(); return e > 1 }, 30*time.Millisecond, 5*time.Millisecond)
	_, errs := got.snapshot()
	assert.ErrorIs(t, errs[0], syncerr.ErrAuthentication)
	assert.Empty(t, clk.Sleeps())
}
