// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
)

// FlushReport summarises one pass over the queue.
type FlushReport struct {
	// Attempted lists operation ids in the order they were replayed.
	Attempted []string
	Flushed   []models.QueueEntry
	// Failed entries stay queued for the next pass.
	Failed []models.QueueEntry
	// Abandoned entries reached the attempt cap and were dropped.
	Abandoned []models.QueueEntry
	Remaining int
}

// OfflineQueue buffers saves that could not reach the store and replays them
// in enqueue order. A failing entry does not block the entries behind it.
type OfflineQueue struct {
	exec        QueueExecutor
	capacity    int
	maxAttempts int
	clock       clock.Clock
	ids         IDGenerator

	mu      sync.Mutex
	entries []models.QueueEntry

	// flushMu keeps two flushes from replaying the same entries.
	flushMu sync.Mutex

	logger *logger.Logger
}

// NewOfflineQueue constructs a queue. capacity 0 means unbounded;
// maxAttempts <= 0 selects 3.
func NewOfflineQueue(exec QueueExecutor, capacity, maxAttempts int, clk clock.Clock, log *logger.Logger) *OfflineQueue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &OfflineQueue{
		exec:        exec,
		capacity:    capacity,
		maxAttempts: maxAttempts,
		clock:       clk,
		ids:         utils.NewUUIDGenerator(),
		logger:      log,
	}
}

// Enqueue appends entry. An empty OperationID is generated and EnqueuedAt is
// always stamped. It fails with syncerr.ErrQueueFull when the queue is at
// capacity.
func (q *OfflineQueue) Enqueue(entry models.QueueEntry) (models.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.entries) >= q.capacity {
		return models.QueueEntry{}, fmt.Errorf("%w: %d entries", syncerr.ErrQueueFull, q.capacity)
	}

	if entry.OperationID == "" {
		entry.OperationID = q.ids.Generate()
	}
	entry.EnqueuedAt = q.clock.Now()
	q.entries = append(q.entries, entry)

	q.logger.Info().
		Str("operation_id", entry.OperationID).
		Str("operation", string(entry.Operation)).
		Int("queued", len(q.entries)).
		Msg("operation queued")
	return entry, nil
}

// Flush replays every entry present when the pass starts, strictly one at a
// time in enqueue order. Entries enqueued during the pass wait for the next
// one.
func (q *OfflineQueue) Flush(ctx context.Context) FlushReport {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	batch := q.entries
	q.entries = nil
	q.mu.Unlock()

	var report FlushReport
	var retained []models.QueueEntry
	for i, entry := range batch {
		if ctx.Err() != nil {
			retained = append(retained, batch[i:]...)
			break
		}

		report.Attempted = append(report.Attempted, entry.OperationID)
		err := q.exec(ctx, entry)
		if err == nil {
			report.Flushed = append(report.Flushed, entry)
			continue
		}

		entry.Attempts++
		entry.LastError = err.Error()
		if entry.Attempts >= q.maxAttempts {
			report.Abandoned = append(report.Abandoned, entry)
			q.logger.Error().
				Str("operation_id", entry.OperationID).
				Int("attempts", entry.Attempts).
				Err(err).
				Msg("queued operation abandoned")
			continue
		}

		report.Failed = append(report.Failed, entry)
		retained = append(retained, entry)
		q.logger.Warn().
			Str("operation_id", entry.OperationID).
			Int("attempts", entry.Attempts).
			Err(err).
			Msg("queued operation failed, kept for next flush")
	}

	q.mu.Lock()
	q.entries = append(retained, q.entries...)
	report.Remaining = len(q.entries)
	q.mu.Unlock()

	if len(batch) > 0 {
		q.logger.Info().
			Int("flushed", len(report.Flushed)).
			Int("failed", len(report.Failed)).
			Int("abandoned", len(report.Abandoned)).
			Int("remaining", report.Remaining).
			Msg("offline queue flushed")
	}
	return report
}

// Len returns the number of queued entries.
func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns a copy of the queued entries in enqueue order.
func (q *OfflineQueue) Entries() []models.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.QueueEntry(nil), q.entries...)
}

// Clear drops every queued entry and returns how many were dropped.
func (q *OfflineQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	q.entries = nil
	return n
}
