// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package retry implements bounded exponential-backoff retries with error
// classification and process-wide retry metrics.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/models"
)

// Config bounds a single retried operation.
type Config struct {
	// MaxRetries is the total number of attempts, including the first one.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultConfig returns 3 attempts with 1s base delay capped at 16s, jittered.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 16 * time.Second, Jitter: true}
}

// Error is returned when an operation did not succeed. Classification is the
// decision for the last error; a retryable classification means the attempts
// were exhausted.
type Error struct {
	Operation      string
	Attempts       int
	Classification Classification
	Err            error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", e.Operation, e.Classification.Class, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Exhausted reports whether the operation failed only because it ran out of
// attempts on a retryable error.
func (e *Error) Exhausted() bool {
	return e.Classification.Retryable()
}

// Manager executes operations with retries. It is safe for concurrent use;
// metrics updates are serialised.
type Manager struct {
	cfg    Config
	policy *Policy
	clock  clock.Clock
	random func() float64

	mu      sync.Mutex
	metrics models.RetryMetrics

	logger *logger.Logger
}

// Option customises a [Manager].
type Option func(*Manager)

// WithPolicy replaces the default classification policy.
func WithPolicy(p *Policy) Option {
	return func(m *Manager) { m.policy = p }
}

// WithRandom replaces the jitter source. f must return values in [0, 1).
func WithRandom(f func() float64) Option {
	return func(m *Manager) { m.random = f }
}

// NewManager constructs a Manager.
func NewManager(cfg Config, clk clock.Clock, log *logger.Logger, opts ...Option) *Manager {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}

	m := &Manager{
		cfg:     cfg,
		policy:  NewPolicy(),
		clock:   clk,
		random:  rand.Float64,
		metrics: models.RetryMetrics{ErrorsByType: map[string]int{}},
		logger:  log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the classification policy used by the manager.
func (m *Manager) Policy() *Policy {
	return m.policy
}

// Delay returns the unjittered backoff before the attempt that follows
// failed attempt number attempt (1-based): min(base*2^(attempt-1), max).
func (m *Manager) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := m.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		if d >= m.cfg.MaxDelay/2 {
			return m.cfg.MaxDelay
		}
		d *= 2
	}
	return min(d, m.cfg.MaxDelay)
}

// jittered spreads d uniformly over [d/2, d).
func (m *Manager) jittered(d time.Duration) time.Duration {
	if !m.cfg.Jitter || d <= 0 {
		return d
	}
	half := d / 2
	return half + time.Duration(m.random()*float64(d-half))
}

// Do runs op until it succeeds, fails with a fatal error, or exhausts
// MaxRetries attempts. Backoff sleeps end early if ctx is cancelled.
func (m *Manager) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var attempts []models.RetryAttemptRecord

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			m.record(attempt, attempts, nil)
			return nil
		}

		c := m.policy.Classify(err)
		final := !c.Retryable() || attempt >= m.cfg.MaxRetries
		if final {
			attempts = append(attempts, models.RetryAttemptRecord{AttemptNumber: attempt, ErrorClass: c.Category})
			m.record(attempt, attempts, &c)

			m.logger.Warn().
				Str("operation", name).
				Int("attempts", attempt).
				Str("error_class", c.Category).
				Str("decision", c.Class.String()).
				Err(err).
				Msg("operation failed")
			return &Error{Operation: name, Attempts: attempt, Classification: c, Err: err}
		}

		delay := m.jittered(m.Delay(attempt))
		attempts = append(attempts, models.RetryAttemptRecord{
			AttemptNumber: attempt,
			DelayMs:       delay.Milliseconds(),
			ErrorClass:    c.Category,
		})

		m.logger.Debug().
			Str("operation", name).
			Int("attempt", attempt).
			Dur("delay", delay).
			Str("error_class", c.Category).
			Err(err).
			Msg("retrying operation")

		if sleepErr := m.clock.Sleep(ctx, delay); sleepErr != nil {
			cancelled := Classification{Fatal, CategoryCancelled}
			m.record(attempt, attempts, &cancelled)
			return &Error{Operation: name, Attempts: attempt, Classification: cancelled, Err: fmt.Errorf("%w (last error: %w)", sleepErr, err)}
		}
	}
}

// Execute is the value-returning form of [Manager.Do].
func Execute[T any](ctx context.Context, m *Manager, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := m.Do(ctx, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Operation is one entry of a batch.
type Operation struct {
	Name string
	Run  func(ctx context.Context) error
}

// OperationResult reports the outcome of one batch entry.
type OperationResult struct {
	Name string
	Err  error
}

// Succeeded reports whether the operation completed without error.
func (r OperationResult) Succeeded() bool {
	return r.Err == nil
}

// BatchReport is returned by [Manager.ExecuteBatch].
type BatchReport struct {
	Results   []OperationResult
	HasErrors bool
}

// ExecuteBatch runs ops sequentially, each under the retry policy. A failed
// operation does not stop the batch.
func (m *Manager) ExecuteBatch(ctx context.Context, ops []Operation) BatchReport {
	report := BatchReport{Results: make([]OperationResult, 0, len(ops))}
	for _, op := range ops {
		err := m.Do(ctx, op.Name, op.Run)
		report.Results = append(report.Results, OperationResult{Name: op.Name, Err: err})
		if err != nil {
			report.HasErrors = true
		}
	}
	return report
}

func (m *Manager) record(attempt int, failed []models.RetryAttemptRecord, terminal *Classification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.TotalOperations++
	if terminal == nil {
		m.metrics.SuccessfulOperations++
	}
	if attempt > 1 {
		m.metrics.RetriedOperations++
		m.metrics.TotalRetries += attempt - 1
	}
	for _, a := range failed {
		m.metrics.ErrorsByType[a.ErrorClass]++
	}
}

// Metrics returns a copy of the accumulated metrics.
func (m *Manager) Metrics() models.RetryMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics.Clone()
}

// ResetMetrics zeroes the accumulated metrics.
func (m *Manager) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = models.RetryMetrics{ErrorsByType: map[string]int{}}
}
