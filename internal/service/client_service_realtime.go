// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/retry"
)

// RealtimeChannel turns the store's change stream into decrypted payloads.
// Errors never leave the subscription goroutine except through onError.
//
// A stream that ends or fails with a retryable error is dialed again after
// the retry manager's backoff. Fatal stream errors, such as a rejected
// identity, end the subscription.
type RealtimeChannel struct {
	store     adapter.DocumentStore
	transport *ChunkedTransport
	retries   *retry.Manager
	clock     clock.Clock

	logger *logger.Logger
}

func NewRealtimeChannel(
	store adapter.DocumentStore,
	transport *ChunkedTransport,
	retries *retry.Manager,
	clk clock.Clock,
	log *logger.Logger,
) *RealtimeChannel {
	return &RealtimeChannel{store: store, transport: transport, retries: retries, clock: clk, logger: log}
}

// Subscribe watches docID until the returned Unsubscribe is called or ctx is
// cancelled. onChange receives each decrypted payload; onError receives
// stream, decoding and decryption failures. Delivery stops as soon as
// Unsubscribe is called.
func (c *RealtimeChannel) Subscribe(ctx context.Context, key []byte, docID string, onChange func([]byte), onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)

	var (
		closed atomic.Bool
		once   sync.Once
	)
	deliver := func(f func()) {
		if !closed.Load() {
			f()
		}
	}
	reportErr := func(err error) {
		if onError != nil && ctx.Err() == nil {
			deliver(func() { onError(err) })
		}
	}
	deliverChange := func(data []byte) {
		if onChange != nil {
			deliver(func() { onChange(data) })
		}
	}

	go func() {
		defer cancel()

		failures := 0
		for {
			err := c.stream(ctx, key, docID, deliverChange, reportErr, &failures)
			if ctx.Err() != nil {
				return
			}

			cls := c.retries.Policy().Classify(err)
			if !cls.Retryable() {
				c.logger.Warn().
					Str("document_id", docID).
					Str("error_class", cls.Category).
					Err(err).
					Msg("change subscription ended")
				return
			}

			failures++
			delay := c.retries.Delay(failures)
			c.logger.Info().
				Str("document_id", docID).
				Int("attempt", failures).
				Dur("delay", delay).
				Err(err).
				Msg("change stream lost, reconnecting")
			if c.clock.Sleep(ctx, delay) != nil {
				return
			}
		}
	}()

	c.logger.Debug().Str("document_id", docID).Msg("change subscription started")
	return func() {
		once.Do(func() {
			closed.Store(true)
			cancel()
			c.logger.Debug().Str("document_id", docID).Msg("change subscription stopped")
		})
	}
}

// stream consumes one change stream and returns why it ended, after
// reporting it to onError. failures is reset once the stream delivers a
// document.
func (c *RealtimeChannel) stream(
	ctx context.Context,
	key []byte,
	docID string,
	onChange func([]byte),
	onError func(error),
	failures *int,
) error {
	events, err := c.store.Watch(ctx, docID)
	if err != nil {
		err = fmt.Errorf("watch %q: %w", docID, err)
		onError(err)
		return err
	}

	var last error
	for ev := range events {
		if ev.Err != nil {
			last = ev.Err
			onError(ev.Err)
			continue
		}
		last = nil
		*failures = 0

		data, err := c.transport.Decode(ctx, key, ev.Document)
		if err != nil {
			c.logger.Warn().Str("document_id", docID).Err(err).Msg("change could not be decoded")
			onError(err)
			continue
		}
		onChange(data)
	}

	if last != nil {
		return last
	}
	onError(ErrStreamClosed)
	return ErrStreamClosed
}
