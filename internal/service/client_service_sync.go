// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/events"
	"github.com/MKhiriev/go-budget-sync/internal/health"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/retry"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

// SessionParams identify the budget and the passphrase its key is derived
// from.
type SessionParams struct {
	BudgetID   string
	Passphrase string
}

func (p SessionParams) validate() error {
	if strings.TrimSpace(p.BudgetID) == "" {
		return fmt.Errorf("%w: %w", syncerr.ErrValidation, ErrEmptyBudgetID)
	}
	if p.Passphrase == "" {
		return fmt.Errorf("%w: %w", syncerr.ErrValidation, ErrEmptyPassphrase)
	}
	return nil
}

// SaveOutcome tells the caller where a payload ended up.
type SaveOutcome struct {
	// Saved is true when the store acknowledged the write.
	Saved bool
	// Queued is true when the payload waits in the offline queue.
	Queued      bool
	OperationID string
}

// session is replaced as a whole by Initialize and never mutated.
type session struct {
	budgetID string
	key      []byte
}

// Coordinator is the entry point of the sync subsystem. It owns one session
// at a time and is safe for concurrent use.
type Coordinator struct {
	store adapter.DocumentStore
	codec crypto.Codec
	local LocalDocuments
	clock clock.Clock
	info  models.ClientInfo

	retries   *retry.Manager
	monitor   *health.Monitor
	bus       *events.Bus
	auth      *AuthGate
	transport *ChunkedTransport
	queue     *OfflineQueue
	realtime  *RealtimeChannel

	mu                 sync.RWMutex
	session            *session
	online             bool
	unsubscribe        Unsubscribe
	subscriptionID     uint64
	lastSubscriptionID uint64

	logger *logger.Logger
}

// CoordinatorOption customises a [Coordinator].
type CoordinatorOption func(*coordinatorOptions)

type coordinatorOptions struct {
	info         models.ClientInfo
	retryOptions []retry.Option
	eventBuffer  int
}

// WithClientInfo sets the client description stored in envelope metadata
// when a save does not carry one.
func WithClientInfo(info models.ClientInfo) CoordinatorOption {
	return func(o *coordinatorOptions) { o.info = info }
}

// WithRetryOptions forwards options to the retry manager.
func WithRetryOptions(opts ...retry.Option) CoordinatorOption {
	return func(o *coordinatorOptions) { o.retryOptions = append(o.retryOptions, opts...) }
}

// WithEventBuffer sets the per-subscriber buffer of the event bus.
func WithEventBuffer(n int) CoordinatorOption {
	return func(o *coordinatorOptions) { o.eventBuffer = n }
}

// NewCoordinator wires the reliability components around store. local may
// be nil, in which case ForceSync only flushes the queue.
func NewCoordinator(
	cfg config.SyncConfig,
	store adapter.DocumentStore,
	identity adapter.IdentityService,
	codec crypto.Codec,
	local LocalDocuments,
	clk clock.Clock,
	log *logger.Logger,
	opts ...CoordinatorOption,
) *Coordinator {
	var o coordinatorOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Coordinator{
		store:  store,
		codec:  codec,
		local:  local,
		clock:  clk,
		info:   o.info,
		online: true,
		logger: log,
	}

	c.retries = retry.NewManager(retry.Config{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		MaxDelay:   cfg.MaxDelay,
		Jitter:     cfg.Jitter,
	}, clk, log.Component("retry"), o.retryOptions...)
	c.monitor = health.NewMonitor(health.Thresholds{
		Unhealthy: cfg.UnhealthyThreshold,
		Degraded:  cfg.DegradedThreshold,
		Slow:      cfg.SlowThreshold,
		Capacity:  cfg.RecentSyncsCapacity,
	}, clk, log.Component("health"))
	c.bus = events.NewBus(o.eventBuffer, log.Component("events"))
	c.auth = NewAuthGate(identity, cfg.AuthTimeout, clk, log.Component("auth"))
	c.transport = NewChunkedTransport(store, codec, cfg.DocumentSizeCeiling, log.Component("transport"))
	c.queue = NewOfflineQueue(c.replay, cfg.QueueCapacity, cfg.QueueMaxAttempts, clk, log.Component("queue"))
	c.realtime = NewRealtimeChannel(store, c.transport, c.retries, clk, log.Component("realtime"))

	return c
}

// Initialize starts a session for params, deriving the key from the
// passphrase. Calling it again rotates the session: a live subscription is
// stopped and queued operations of the previous session are dropped.
func (c *Coordinator) Initialize(_ context.Context, params SessionParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	key := c.codec.DeriveKey(params.Passphrase, crypto.BudgetSalt(params.BudgetID))

	c.mu.Lock()
	previous := c.session
	unsubscribe := c.unsubscribe
	c.session = &session{budgetID: params.BudgetID, key: key}
	c.unsubscribe = nil
	c.subscriptionID = 0
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	dropped := c.queue.Clear()

	ev := c.logger.Info().
		Str("budget_id", shortID(params.BudgetID)).
		Int("dropped_operations", dropped)
	if previous != nil {
		ev = ev.Bool("rotated", true)
	}
	ev.Msg("sync session initialized")
	return nil
}

func (c *Coordinator) currentSession() (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return nil, syncerr.ErrNotInitialized
	}
	return c.session, nil
}

// SaveToCloud encrypts data and writes it under the session's budget id.
//
// While offline the payload is queued and Queued is reported without an
// error. When the store stays unreachable after every retry the payload is
// queued as well and a retryable *syncerr.OpError is returned. Any other
// failure is a non-retryable *syncerr.OpError.
func (c *Coordinator) SaveToCloud(ctx context.Context, data []byte, meta models.SaveMetadata) (SaveOutcome, error) {
	sess, err := c.currentSession()
	if err != nil {
		return SaveOutcome{}, syncerr.NewOpError(models.OperationSave, err, false)
	}
	if meta.ClientInfo == (models.ClientInfo{}) {
		meta.ClientInfo = c.info
	}

	if !c.IsOnline() {
		entry, qerr := c.enqueue(sess, data, meta)
		if qerr != nil {
			return SaveOutcome{}, syncerr.NewOpError(models.OperationSave, qerr, false)
		}
		return SaveOutcome{Queued: true, OperationID: entry.OperationID}, nil
	}

	err = c.save(ctx, sess, sess.budgetID, data, meta)
	if err == nil {
		return SaveOutcome{Saved: true}, nil
	}

	if errors.Is(err, syncerr.ErrTransientTransport) && ctx.Err() == nil {
		entry, qerr := c.enqueue(sess, data, meta)
		if qerr != nil {
			return SaveOutcome{}, syncerr.NewOpError(models.OperationSave, errors.Join(err, qerr), false)
		}
		return SaveOutcome{Queued: true, OperationID: entry.OperationID},
			syncerr.NewOpError(models.OperationSave, err, true)
	}
	return SaveOutcome{}, syncerr.NewOpError(models.OperationSave, err, false)
}

// save performs one tracked, retried save and publishes its outcome.
func (c *Coordinator) save(ctx context.Context, sess *session, docID string, data []byte, meta models.SaveMetadata) error {
	done := c.monitor.Track(models.OperationSave)
	err := c.saveOnce(ctx, sess, docID, data, meta)
	done(err)

	c.publish(models.OperationSave, nil, err)
	return err
}

func (c *Coordinator) saveOnce(ctx context.Context, sess *session, docID string, data []byte, meta models.SaveMetadata) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}

	info := meta.ClientInfo
	if info == (models.ClientInfo{}) {
		info = c.info
	}

	err := c.retries.Do(ctx, "save", func(ctx context.Context) error {
		return c.transport.Save(ctx, sess.key, docID, data, info)
	})
	if isAuthRejection(err) {
		c.auth.Invalidate()
	}
	return mapAdapterError(err)
}

// LoadFromCloud reads and decrypts the session's document. found is false
// when nothing has been saved yet.
func (c *Coordinator) LoadFromCloud(ctx context.Context) ([]byte, bool, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, false, syncerr.NewOpError(models.OperationLoad, err, false)
	}
	if !c.IsOnline() {
		err = fmt.Errorf("%w: document store is offline", syncerr.ErrTransientTransport)
		return nil, false, syncerr.NewOpError(models.OperationLoad, err, true)
	}

	type loaded struct {
		data  []byte
		found bool
	}

	done := c.monitor.Track(models.OperationLoad)
	res, err := func() (loaded, error) {
		if err := c.authenticate(ctx); err != nil {
			return loaded{}, err
		}
		res, err := retry.Execute(ctx, c.retries, "load", func(ctx context.Context) (loaded, error) {
			data, found, err := c.transport.Load(ctx, sess.key, sess.budgetID)
			return loaded{data, found}, err
		})
		if isAuthRejection(err) {
			c.auth.Invalidate()
		}
		return res, mapAdapterError(err)
	}()
	done(err)

	c.publish(models.OperationLoad, res.data, err)
	if err != nil {
		return nil, false, syncerr.NewOpError(models.OperationLoad, err, errors.Is(err, syncerr.ErrTransientTransport))
	}
	return res.data, res.found, nil
}

// ResetCloudData deletes the session's document from the store, chunks
// included, and drops queued saves that would recreate it. Resetting a
// budget that was never saved succeeds. Failures are *syncerr.OpError.
func (c *Coordinator) ResetCloudData(ctx context.Context) error {
	sess, err := c.currentSession()
	if err != nil {
		return syncerr.NewOpError(models.OperationReset, err, false)
	}
	if !c.IsOnline() {
		err = fmt.Errorf("%w: document store is offline", syncerr.ErrTransientTransport)
		return syncerr.NewOpError(models.OperationReset, err, true)
	}

	dropped := c.queue.Clear()

	done := c.monitor.Track(models.OperationReset)
	deleted, err := func() (bool, error) {
		if err := c.authenticate(ctx); err != nil {
			return false, err
		}
		deleted, err := retry.Execute(ctx, c.retries, "reset", func(ctx context.Context) (bool, error) {
			return c.transport.Reset(ctx, sess.budgetID)
		})
		if isAuthRejection(err) {
			c.auth.Invalidate()
		}
		return deleted, mapAdapterError(err)
	}()
	done(err)

	c.publish(models.OperationReset, nil, err)
	if err != nil {
		return syncerr.NewOpError(models.OperationReset, err, errors.Is(err, syncerr.ErrTransientTransport))
	}

	c.logger.Info().
		Str("budget_id", shortID(sess.budgetID)).
		Bool("deleted", deleted).
		Int("dropped_operations", dropped).
		Msg("cloud data reset")
	return nil
}

// Subscribe streams decrypted remote changes of the session's document. A
// previous subscription of this coordinator is stopped first. Every change
// and failure is also published on the event bus.
func (c *Coordinator) Subscribe(ctx context.Context, onChange func([]byte), onError func(error)) (Unsubscribe, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, syncerr.NewOpError(models.OperationRealtime, err, false)
	}
	if err = c.authenticate(ctx); err != nil {
		return nil, syncerr.NewOpError(models.OperationRealtime, err, false)
	}

	stop := c.realtime.Subscribe(ctx, sess.key, sess.budgetID,
		func(data []byte) {
			c.publish(models.OperationRealtime, data, nil)
			if onChange != nil {
				onChange(data)
			}
		},
		func(err error) {
			if isAuthRejection(err) {
				c.auth.Invalidate()
			}
			err = mapAdapterError(err)
			c.publish(models.OperationRealtime, nil, err)
			if onError != nil {
				onError(err)
			}
		},
	)

	var (
		once sync.Once
		id   uint64
	)
	unsubscribe := func() {
		once.Do(func() {
			stop()
			c.mu.Lock()
			// a newer subscription may own the slot by now
			if c.subscriptionID == id {
				c.unsubscribe = nil
				c.subscriptionID = 0
			}
			c.mu.Unlock()
		})
	}

	c.mu.Lock()
	c.lastSubscriptionID++
	id = c.lastSubscriptionID
	previous := c.unsubscribe
	c.unsubscribe = unsubscribe
	c.subscriptionID = id
	c.mu.Unlock()
	if previous != nil {
		previous()
	}

	return unsubscribe, nil
}

// SetOnline records a connectivity transition. Going from offline to online
// flushes the offline queue and returns the flush report.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) FlushReport {
	c.mu.Lock()
	was := c.online
	c.online = online
	c.mu.Unlock()

	if was == online {
		return FlushReport{Remaining: c.queue.Len()}
	}

	if !online {
		c.logger.Warn().Msg("document store went offline")
		c.bus.Publish(models.SyncEvent{Type: models.EventOffline, At: c.clock.Now()})
		return FlushReport{Remaining: c.queue.Len()}
	}

	c.logger.Info().Int("queued", c.queue.Len()).Msg("document store back online")
	c.bus.Publish(models.SyncEvent{Type: models.EventOnline, At: c.clock.Now()})
	return c.queue.Flush(ctx)
}

// IsOnline reports the last known connectivity.
func (c *Coordinator) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// Refresh probes the store, updates connectivity and returns the current
// health snapshot.
func (c *Coordinator) Refresh(ctx context.Context) models.HealthSnapshot {
	err := c.store.Ping(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("store ping failed")
	}
	c.SetOnline(ctx, err == nil)
	return c.monitor.Snapshot()
}

// ForceSync flushes the offline queue and then saves the local copy of the
// session's document, if there is one.
func (c *Coordinator) ForceSync(ctx context.Context) (SaveOutcome, error) {
	sess, err := c.currentSession()
	if err != nil {
		return SaveOutcome{}, syncerr.NewOpError(models.OperationSave, err, false)
	}

	if c.IsOnline() {
		c.queue.Flush(ctx)
	}
	if c.local == nil {
		return SaveOutcome{}, nil
	}

	data, _, err := c.local.ReadDocument(ctx, sess.budgetID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		c.logger.Debug().Str("budget_id", shortID(sess.budgetID)).Msg("nothing to sync, no local document")
		return SaveOutcome{}, nil
	}
	if err != nil {
		return SaveOutcome{}, syncerr.NewOpError(models.OperationSave, fmt.Errorf("read local document: %w", err), false)
	}

	return c.SaveToCloud(ctx, data, models.SaveMetadata{ClientInfo: c.info})
}

// StoreLocal writes data as the local copy of the session's document.
func (c *Coordinator) StoreLocal(ctx context.Context, data []byte) error {
	sess, err := c.currentSession()
	if err != nil {
		return err
	}
	if c.local == nil {
		return fmt.Errorf("%w: no local storage configured", syncerr.ErrValidation)
	}
	return c.local.WriteDocument(ctx, sess.budgetID, data)
}

// Health returns the current health snapshot.
func (c *Coordinator) Health() models.HealthSnapshot {
	return c.monitor.Snapshot()
}

// Recommendations returns operator hints for the current health.
func (c *Coordinator) Recommendations() []string {
	return c.monitor.Recommendations()
}

// Status returns a lightweight view of the coordinator state.
func (c *Coordinator) Status() models.SyncStatus {
	c.mu.RLock()
	st := models.SyncStatus{
		Initialized: c.session != nil,
		Online:      c.online,
		Subscribed:  c.unsubscribe != nil,
	}
	c.mu.RUnlock()

	st.QueuedOperations = c.queue.Len()
	st.LastSyncTime = c.monitor.Snapshot().LastSyncTime
	return st
}

// Events subscribes to sync notifications. The returned function cancels
// the subscription.
func (c *Coordinator) Events() (<-chan models.SyncEvent, func()) {
	return c.bus.Subscribe()
}

// QueuedOperations returns a copy of the pending offline entries.
func (c *Coordinator) QueuedOperations() []models.QueueEntry {
	return c.queue.Entries()
}

// Retries exposes the retry manager, mainly for metrics export.
func (c *Coordinator) Retries() *retry.Manager {
	return c.retries
}

// Monitor exposes the health monitor, mainly for metrics export.
func (c *Coordinator) Monitor() *health.Monitor {
	return c.monitor
}

// Close stops a live subscription and closes every event subscriber.
func (c *Coordinator) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.subscriptionID = 0
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.bus.Close()
}

func (c *Coordinator) authenticate(ctx context.Context) error {
	ok, err := c.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %w", syncerr.ErrAuthentication, ErrNotAuthenticated)
	}
	return nil
}

func (c *Coordinator) enqueue(sess *session, data []byte, meta models.SaveMetadata) (models.QueueEntry, error) {
	return c.queue.Enqueue(models.QueueEntry{
		Operation:  models.OperationSave,
		DocumentID: sess.budgetID,
		Payload:    append([]byte(nil), data...),
		Metadata:   meta,
	})
}

// replay is the queue executor. Entries always belong to the current session
// because Initialize clears the queue.
func (c *Coordinator) replay(ctx context.Context, entry models.QueueEntry) error {
	sess, err := c.currentSession()
	if err != nil {
		return err
	}
	if entry.DocumentID != sess.budgetID {
		return fmt.Errorf("%w: entry targets %q, session is %q", syncerr.ErrValidation, shortID(entry.DocumentID), shortID(sess.budgetID))
	}
	return c.save(ctx, sess, entry.DocumentID, entry.Payload, entry.Metadata)
}

func (c *Coordinator) publish(op models.SyncOperation, data []byte, err error) {
	ev := models.SyncEvent{Operation: op, At: c.clock.Now()}
	if err != nil {
		ev.Type = models.EventSyncError
		ev.Err = err
	} else {
		ev.Type = models.EventSyncSuccess
		ev.Data = data
	}
	c.bus.Publish(ev)
}

// shortID keeps budget ids out of logs in full.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
