// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package health aggregates sync outcomes into a bounded history and a
// status classification, and exports both as Prometheus metrics.
package health

import (
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
)

// Thresholds drive status classification.
type Thresholds struct {
	// Unhealthy is the number of consecutive failures that marks the sync
	// unhealthy.
	Unhealthy int
	// Degraded is the error rate (0..1) above which the sync is degraded.
	Degraded float64
	// Slow is the average duration above which the sync is slow.
	Slow time.Duration
	// Capacity bounds the recent-syncs history.
	Capacity int
}

// DefaultThresholds returns unhealthy=5, degraded=0.25, slow=10s,
// capacity=50.
func DefaultThresholds() Thresholds {
	return Thresholds{Unhealthy: 5, Degraded: 0.25, Slow: 10 * time.Second, Capacity: 50}
}

const largeDatasetAverage = 15 * time.Second

// IDGenerator produces record ids.
type IDGenerator interface {
	Generate() string
}

// Monitor is safe for concurrent use.
type Monitor struct {
	th    Thresholds
	clock clock.Clock
	ids   IDGenerator

	mu                  sync.Mutex
	successful          int
	failed              int
	consecutiveFailures int
	lastSync            *time.Time
	recent              *ring

	logger *logger.Logger
}

// NewMonitor constructs a Monitor. Non-positive threshold fields fall back
// to [DefaultThresholds].
func NewMonitor(th Thresholds, clk clock.Clock, log *logger.Logger) *Monitor {
	def := DefaultThresholds()
	if th.Unhealthy <= 0 {
		th.Unhealthy = def.Unhealthy
	}
	if th.Degraded <= 0 {
		th.Degraded = def.Degraded
	}
	if th.Slow <= 0 {
		th.Slow = def.Slow
	}
	if th.Capacity <= 0 {
		th.Capacity = def.Capacity
	}

	return &Monitor{
		th:     th,
		clock:  clk,
		ids:    utils.NewUUIDGenerator(),
		recent: newRing(th.Capacity),
		logger: log,
	}
}

// Track starts timing op and returns the function that records its outcome.
//
//	done := monitor.Track(models.OperationSave)
//	err := save()
//	done(err)
func (m *Monitor) Track(op models.SyncOperation) func(err error) {
	started := m.clock.Now()
	return func(err error) {
		m.Record(op, started, m.clock.Now().Sub(started), err)
	}
}

// Record folds one attempt into the history. A nil err is a success.
func (m *Monitor) Record(op models.SyncOperation, startedAt time.Time, duration time.Duration, err error) {
	rec := models.SyncRecord{
		ID:         m.ids.Generate(),
		Operation:  op,
		StartedAt:  startedAt,
		DurationMs: duration.Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		rec.ErrorClass = string(syncerr.ClassOf(err))
	}

	m.mu.Lock()
	if rec.Success {
		m.successful++
		m.consecutiveFailures = 0
		end := startedAt.Add(duration)
		m.lastSync = &end
	} else {
		m.failed++
		m.consecutiveFailures++
	}
	m.recent.push(rec)
	consecutive := m.consecutiveFailures
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn().
			Str("operation", string(op)).
			Int64("duration_ms", rec.DurationMs).
			Int("consecutive_failures", consecutive).
			Str("error_class", rec.ErrorClass).
			Err(err).
			Msg("sync attempt failed")
		return
	}
	if duration > m.th.Slow {
		m.logger.Warn().
			Str("operation", string(op)).
			Int64("duration_ms", rec.DurationMs).
			Msg("slow sync detected")
	}
}

// Snapshot returns a copy of the current health state.
func (m *Monitor) Snapshot() models.HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() models.HealthSnapshot {
	total := m.successful + m.failed
	s := models.HealthSnapshot{
		Status:              models.HealthUnknown,
		SuccessfulSyncs:     m.successful,
		FailedSyncs:         m.failed,
		ConsecutiveFailures: m.consecutiveFailures,
		SuccessRate:         1,
		RecentSyncs:         m.recent.newestFirst(),
	}
	if m.lastSync != nil {
		last := *m.lastSync
		s.LastSyncTime = &last
	}
	if total == 0 {
		return s
	}

	s.ErrorRate = float64(m.failed) / float64(total)
	s.SuccessRate = float64(m.successful) / float64(total)
	s.AverageSyncTimeMs = m.recent.averageMs()
	s.Status, s.Issues = m.classify(s)
	return s
}

// classify applies unhealthy > degraded > slow > healthy.
func (m *Monitor) classify(s models.HealthSnapshot) (models.HealthStatus, []string) {
	var issues []string
	status := models.HealthHealthy

	avg := time.Duration(s.AverageSyncTimeMs * float64(time.Millisecond))
	if avg > m.th.Slow {
		status = models.HealthSlow
		issues = append(issues, fmt.Sprintf("Slow sync: %.0fs average", avg.Seconds()))
	}
	if s.ErrorRate > m.th.Degraded {
		status = models.HealthDegraded
		issues = append(issues, fmt.Sprintf("High error rate: %.1f%%", s.ErrorRate*100))
	}
	if s.ConsecutiveFailures >= m.th.Unhealthy {
		status = models.HealthUnhealthy
		issues = append(issues, fmt.Sprintf("%d consecutive failures", s.ConsecutiveFailures))
	}
	return status, issues
}

// Recommendations returns operator hints derived from the current state.
func (m *Monitor) Recommendations() []string {
	s := m.Snapshot()

	var out []string
	if s.Status == models.HealthUnhealthy {
		out = append(out,
			"Consider clearing local data and re-syncing",
			"Check network connection stability",
		)
	}
	if time.Duration(s.AverageSyncTimeMs*float64(time.Millisecond)) > largeDatasetAverage {
		out = append(out, "Large dataset detected, consider archiving old data")
	}
	if s.ErrorRate > 0.1 {
		out = append(out, "High error rate, check connectivity to the document store")
	}
	return out
}

// Reset clears all counters and the history.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.successful = 0
	m.failed = 0
	m.consecutiveFailures = 0
	m.lastSync = nil
	m.recent = newRing(m.th.Capacity)

	m.logger.Debug().Msg("sync health metrics reset")
}
