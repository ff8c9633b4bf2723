// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/mock"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

const (
	testBudget     = "budget-1"
	testPassphrase = "correct horse battery staple"
)

// fastKeyCodec replaces Argon2id with a single hash so tests stay fast.
type fastKeyCodec struct {
	crypto.Codec
}

func (fastKeyCodec) DeriveKey(passphrase string, salt []byte) []byte {
	sum := sha256.Sum256(append([]byte(passphrase), salt...))
	return sum[:]
}

func testSyncConfig() config.SyncConfig {
	cfg := config.DefaultSyncConfig()
	cfg.Jitter = false
	cfg.DocumentSizeCeiling = testCeiling
	cfg.AuthTimeout = time.Second
	return cfg
}

type coordinatorFixture struct {
	c        *Coordinator
	store    *memoryStore
	identity *staticIdentity
	local    *memoryLocal
	clock    *clock.Fake
	codec    crypto.Codec
	events   <-chan models.SyncEvent
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	f := &coordinatorFixture{
		store:    newMemoryStore(),
		identity: &staticIdentity{},
		local:    newMemoryLocal(),
		clock:    clock.NewFake(testStart),
	}
	f.codec = fastKeyCodec{crypto.NewCodec(f.clock)}
	f.c = NewCoordinator(testSyncConfig(), f.store, f.identity, f.codec, f.local, f.clock, logger.Nop(),
		WithClientInfo(models.ClientInfo{Name: "budget-test", Version: "0.0.1"}),
		WithEventBuffer(64),
	)
	var cancel func()
	f.events, cancel = f.c.Events()
	t.Cleanup(func() {
		cancel()
		f.c.Close()
	})

	require.NoError(t, f.c.Initialize(context.Background(), SessionParams{BudgetID: testBudget, Passphrase: testPassphrase}))
	return f
}

func (f *coordinatorFixture) key() []byte {
	return f.codec.DeriveKey(testPassphrase, crypto.BudgetSalt(testBudget))
}

// drain returns every event published so far.
func (f *coordinatorFixture) drain() []models.SyncEvent {
	var out []models.SyncEvent
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []models.SyncEvent) []models.SyncEventType {
	out := make([]models.SyncEventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func requireOpError(t *testing.T, err error) *syncerr.OpError {
	t.Helper()
	var opErr *syncerr.OpError
	require.ErrorAs(t, err, &opErr)
	return opErr
}

func TestCoordinator_SaveAndLoad(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "small", payload: []byte(`{"accounts":[]}`)},
		{name: "chunked", payload: bytes.Repeat([]byte(`{"tx":1}`), 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCoordinatorFixture(t)
			ctx := context.Background()

			out, err := f.c.SaveToCloud(ctx, tt.payload, models.SaveMetadata{})
			require.NoError(t, err)
			assert.True(t, out.Saved)
			assert.False(t, out.Queued)

			data, found, err := f.c.LoadFromCloud(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tt.payload, data)

			evs := f.drain()
			require.Len(t, evs, 2)
			assert.Equal(t, models.EventSyncSuccess, evs[0].Type)
			assert.Equal(t, models.OperationSave, evs[0].Operation)
			assert.Equal(t, models.OperationLoad, evs[1].Operation)
			assert.Equal(t, tt.payload, evs[1].Data)

			h := f.c.Health()
			assert.Equal(t, 2, h.SuccessfulSyncs)
			assert.Equal(t, models.HealthHealthy, h.Status)
			assert.Equal(t, 1, f.identity.count())
		})
	}
}

func TestCoordinator_LoadNothingSaved(t *testing.T) {
	f := newCoordinatorFixture(t)

	data, found, err := f.c.LoadFromCloud(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestCoordinator_NotInitialized(t *testing.T) {
	s := newMemoryStore()
	c := NewCoordinator(testSyncConfig(), s, &staticIdentity{}, fastKeyCodec{crypto.NewCodec(clock.New())}, nil, clock.New(), logger.Nop())
	defer c.Close()

	_, err := c.SaveToCloud(context.Background(), []byte("x"), models.SaveMetadata{})
	opErr := requireOpError(t, err)
	assert.Equal(t, syncerr.ClassValidation, opErr.Class)
	assert.ErrorIs(t, err, syncerr.ErrNotInitialized)

	_, _, err = c.LoadFromCloud(context.Background())
	assert.ErrorIs(t, err, syncerr.ErrNotInitialized)

	_, err = c.Subscribe(context.Background(), nil, nil)
	assert.ErrorIs(t, err, syncerr.ErrNotInitialized)
	assert.False(t, c.Status().Initialized)
}

func TestCoordinator_InitializeValidation(t *testing.T) {
	f := newCoordinatorFixture(t)

	err := f.c.Initialize(context.Background(), SessionParams{BudgetID: " ", Passphrase: "p"})
	assert.ErrorIs(t, err, syncerr.ErrValidation)
	assert.ErrorIs(t, err, ErrEmptyBudgetID)

	err = f.c.Initialize(context.Background(), SessionParams{BudgetID: "b"})
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestCoordinator_OfflineSavesAreQueuedAndFlushedInOrder(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	f.c.SetOnline(ctx, false)
	var opIDs []string
	for _, payload := range []string{"A", "B", "C"} {
		out, err := f.c.SaveToCloud(ctx, []byte(payload), models.SaveMetadata{})
		require.NoError(t, err)
		assert.True(t, out.Queued)
		opIDs = append(opIDs, out.OperationID)
	}
	assert.Empty(t, f.store.putIDs())
	assert.Equal(t, 3, f.c.Status().QueuedOperations)

	report := f.c.SetOnline(ctx, true)
	assert.Equal(t, opIDs, report.Attempted)
	assert.Len(t, report.Flushed, 3)
	assert.Zero(t, f.c.Status().QueuedOperations)

	data, found, err := f.c.LoadFromCloud(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("C"), data)

	types := eventTypes(f.drain())
	assert.Equal(t, []models.SyncEventType{
		models.EventOffline,
		models.EventOnline,
		models.EventSyncSuccess, models.EventSyncSuccess, models.EventSyncSuccess,
		models.EventSyncSuccess,
	}, types)
}

func TestCoordinator_SetOnlineWithoutTransitionDoesNotFlush(t *testing.T) {
	f := newCoordinatorFixture(t)

	report := f.c.SetOnline(context.Background(), true)
	assert.Empty(t, report.Attempted)
	assert.Empty(t, f.drain())
}

func TestCoordinator_TransientSaveFailureIsQueued(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	f.store.putErr = func(models.Document) error {
		return &adapter.RemoteError{Status: 503, Code: "unavailable", Message: "maintenance"}
	}

	out, err := f.c.SaveToCloud(ctx, []byte("payload"), models.SaveMetadata{})
	opErr := requireOpError(t, err)
	assert.True(t, opErr.Retryable)
	assert.Equal(t, syncerr.ClassTransient, opErr.Class)
	assert.True(t, out.Queued)
	assert.NotEmpty(t, out.OperationID)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.clock.Sleeps())
	m := f.c.Retries().Metrics()
	assert.Equal(t, 2, m.TotalRetries)
	assert.Equal(t, 1, m.RetriedOperations)
	assert.Equal(t, 1, f.c.Status().QueuedOperations)

	f.store.putErr = nil
	_, err = f.c.ForceSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, f.c.Status().QueuedOperations)

	data, _, err := f.c.LoadFromCloud(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestCoordinator_PermissionDeniedIsFatal(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	attempts := 0
	f.store.putErr = func(models.Document) error {
		attempts++
		return &adapter.RemoteError{Status: 403, Code: "permission-denied", Message: "rules"}
	}

	out, err := f.c.SaveToCloud(ctx, []byte("payload"), models.SaveMetadata{})
	opErr := requireOpError(t, err)
	assert.False(t, opErr.Retryable)
	assert.Equal(t, syncerr.ClassAuthentication, opErr.Class)
	assert.False(t, out.Queued)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, f.clock.Sleeps())
	assert.Zero(t, f.c.Status().QueuedOperations)

	// The rejected identity is dropped, so the next save signs in again.
	f.store.putErr = nil
	_, err = f.c.SaveToCloud(ctx, []byte("payload"), models.SaveMetadata{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.identity.count())

	evs := f.drain()
	require.Len(t, evs, 2)
	assert.Equal(t, models.EventSyncError, evs[0].Type)
	assert.ErrorIs(t, evs[0].Err, syncerr.ErrAuthentication)
}

func TestCoordinator_AuthTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := mock.NewMockIdentityService(ctrl)
	block := make(chan struct{})
	defer close(block)
	identity.EXPECT().SignIn(gomock.Any()).DoAndReturn(func(ctx context.Context) (models.Identity, error) {
		<-block
		return models.Identity{}, errors.New("too late")
	})

	cfg := testSyncConfig()
	cfg.AuthTimeout = 20 * time.Millisecond
	clk := clock.NewFake(testStart)
	s := newMemoryStore()
	c := NewCoordinator(cfg, s, identity, fastKeyCodec{crypto.NewCodec(clk)}, nil, clk, logger.Nop())
	defer c.Close()
	require.NoError(t, c.Initialize(context.Background(), SessionParams{BudgetID: testBudget, Passphrase: testPassphrase}))

	_, err := c.SaveToCloud(context.Background(), []byte("x"), models.SaveMetadata{})
	opErr := requireOpError(t, err)
	assert.Equal(t, syncerr.ClassAuthentication, opErr.Class)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, s.putIDs())
	assert.Equal(t, 1, c.Health().FailedSyncs)
}

func TestCoordinator_CorruptDataIsNotRetried(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	_, err := f.c.SaveToCloud(ctx, bytes.Repeat([]byte("x"), 300), models.SaveMetadata{})
	require.NoError(t, err)
	f.store.remove("budget-1_chunk_001")

	_, _, err = f.c.LoadFromCloud(ctx)
	opErr := requireOpError(t, err)
	assert.Equal(t, syncerr.ClassCorruptData, opErr.Class)
	assert.False(t, opErr.Retryable)
	assert.Zero(t, f.c.Retries().Metrics().TotalRetries)
	assert.Empty(t, f.clock.Sleeps())
}

func TestCoordinator_WrongPassphrase(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	_, err := f.c.SaveToCloud(ctx, []byte("secret"), models.SaveMetadata{})
	require.NoError(t, err)

	require.NoError(t, f.c.Initialize(ctx, SessionParams{BudgetID: testBudget, Passphrase: "wrong"}))
	_, _, err = f.c.LoadFromCloud(ctx)
	opErr := requireOpError(t, err)
	assert.Equal(t, syncerr.ClassDecryption, opErr.Class)
}

func TestCoordinator_LoadWhileOffline(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.c.SetOnline(context.Background(), false)

	_, _, err := f.c.LoadFromCloud(context.Background())
	opErr := requireOpError(t, err)
	assert.True(t, opErr.Retryable)
	assert.ErrorIs(t, err, syncerr.ErrTransientTransport)
}

func TestCoordinator_Subscribe(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	var got collected
	unsubscribe, err := f.c.Subscribe(ctx, got.onChange, got.onError)
	require.NoError(t, err)
	assert.True(t, f.c.Status().Subscribed)
	require.Eventually(t, func() bool { return f.store.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	f.store.emit(adapter.WatchEvent{Document: envelopeDocument(t, testBudget, []byte("remote"), f.key())})
	require.Eventually(t, func() bool { n, _ := got.counts(); return n == 1 }, time.Second, 5*time.Millisecond)
	changes, _ := got.snapshot()
	assert.Equal(t, []byte("remote"), changes[0])

	require.Eventually(t, func() bool { return len(f.events) > 0 }, time.Second, 5*time.Millisecond)
	evs := f.drain()
	assert.Equal(t, models.OperationRealtime, evs[0].Operation)
	assert.Equal(t, []byte("remote"), evs[0].Data)

	unsubscribe()
	unsubscribe()
	assert.False(t, f.c.Status().Subscribed)
}

func TestCoordinator_ResubscribeKeepsNewSubscription(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	var first, second collected
	_, err := f.c.Subscribe(ctx, first.onChange, first.onError)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.store.watcherCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = f.c.Subscribe(ctx, second.onChange, second.onError)
	require.NoError(t, err)
	assert.True(t, f.c.Status().Subscribed)
	require.Eventually(t, func() bool {
		return f.store.watchCalls() == 2 && f.store.watcherCount() == 1
	}, time.Second, 5*time.Millisecond)

	f.store.emit(adapter.WatchEvent{Document: envelopeDocument(t, testBudget, []byte("remote"), f.key())})
	require.Eventually(t, func() bool { n, _ := second.counts(); return n == 1 }, time.Second, 5*time.Millisecond)
	n, _ := first.counts()
	assert.Zero(t, n)

	f.c.Close()
	assert.False(t, f.c.Status().Subscribed)
	require.Eventually(t, func() bool { return f.store.watcherCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCoordinator_StaleUnsubscribeLeavesNewSubscription(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	stale, err := f.c.Subscribe(ctx, nil, nil)
	require.NoError(t, err)
	_, err = f.c.Subscribe(ctx, nil, nil)
	require.NoError(t, err)

	stale()
	assert.True(t, f.c.Status().Subscribed)

	require.NoError(t, f.c.Initialize(ctx, SessionParams{BudgetID: "budget-2", Passphrase: "other"}))
	assert.False(t, f.c.Status().Subscribed)
	require.Eventually(t, func() bool { return f.store.watcherCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCoordinator_ResetCloudData(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	_, err := f.c.SaveToCloud(ctx, bytes.Repeat([]byte(`{"tx":1}`), 200), models.SaveMetadata{})
	require.NoError(t, err)
	require.Greater(t, len(f.store.ids()), 1)
	f.store.set(storedEnvelope("budget-2", "other"))

	require.NoError(t, f.c.ResetCloudData(ctx))
	assert.Equal(t, []string{"budget-2"}, f.store.ids())

	_, found, err := f.c.LoadFromCloud(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	// Nothing left to delete.
	require.NoError(t, f.c.ResetCloudData(ctx))

	evs := f.drain()
	require.Len(t, evs, 4)
	assert.Equal(t, models.OperationReset, evs[1].Operation)
	assert.Equal(t, models.EventSyncSuccess, evs[1].Type)
}

func TestCoordinator_ResetCloudDataDropsQueuedSaves(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	f.store.putErr = func(models.Document) error {
		return &adapter.RemoteError{Status: 503, Code: "unavailable", Message: "maintenance"}
	}
	out, err := f.c.SaveToCloud(ctx, []byte("payload"), models.SaveMetadata{})
	require.Error(t, err)
	require.True(t, out.Queued)

	f.store.putErr = nil
	require.NoError(t, f.c.ResetCloudData(ctx))
	assert.Zero(t, f.c.Status().QueuedOperations)

	_, err = f.c.ForceSync(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.store.putIDs())
}

func TestCoordinator_ResetCloudDataRetriesTransientFailures(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	_, err := f.c.SaveToCloud(ctx, []byte("payload"), models.SaveMetadata{})
	require.NoError(t, err)

	failures := 0
	f.store.deleteErr = func(string) error {
		if failures < 2 {
			failures++
			return &adapter.RemoteError{Status: 503, Code: "unavailable", Message: "maintenance"}
		}
		return nil
	}

	require.NoError(t, f.c.ResetCloudData(ctx))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.clock.Sleeps())
	assert.Empty(t, f.store.ids())
}

func TestCoordinator_ResetCloudDataFailures(t *testing.T) {
	t.Run("offline", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.c.SetOnline(context.Background(), false)

		err := f.c.ResetCloudData(context.Background())
		opErr := requireOpError(t, err)
		assert.Equal(t, models.OperationReset, opErr.Operation)
		assert.True(t, opErr.Retryable)
		assert.ErrorIs(t, err, syncerr.ErrTransientTransport)
	})

	t.Run("permission denied", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.store.set(storedEnvelope(testBudget, "cipher"))
		f.store.deleteErr = func(string) error {
			return &adapter.RemoteError{Status: 403, Code: "permission-denied", Message: "rules"}
		}

		err := f.c.ResetCloudData(context.Background())
		opErr := requireOpError(t, err)
		assert.False(t, opErr.Retryable)
		assert.Equal(t, syncerr.ClassAuthentication, opErr.Class)
		assert.Empty(t, f.clock.Sleeps())
		_, ok := f.store.get(testBudget)
		assert.True(t, ok)
	})

	t.Run("not initialized", func(t *testing.T) {
		c := NewCoordinator(testSyncConfig(), newMemoryStore(), &staticIdentity{}, fastKeyCodec{crypto.NewCodec(clock.New())}, nil, clock.New(), logger.Nop())
		defer c.Close()

		err := c.ResetCloudData(context.Background())
		assert.ErrorIs(t, err, syncerr.ErrNotInitialized)
	})
}

func TestCoordinator_InitializeRotatesSession(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	_, err := f.c.Subscribe(ctx, nil, nil)
	require.NoError(t, err)
	f.c.SetOnline(ctx, false)
	_, err = f.c.SaveToCloud(ctx, []byte("pending"), models.SaveMetadata{})
	require.NoError(t, err)

	require.NoError(t, f.c.Initialize(ctx, SessionParams{BudgetID: "budget-2", Passphrase: "other"}))

	st := f.c.Status()
	assert.True(t, st.Initialized)
	assert.False(t, st.Subscribed)
	assert.Zero(t, st.QueuedOperations)
}

func TestCoordinator_ForceSyncSavesLocalDocument(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	out, err := f.c.ForceSync(ctx)
	require.NoError(t, err)
	assert.False(t, out.Saved)

	require.NoError(t, f.c.StoreLocal(ctx, []byte("local dataset")))
	out, err = f.c.ForceSync(ctx)
	require.NoError(t, err)
	assert.True(t, out.Saved)

	doc, ok := f.store.get(testBudget)
	require.True(t, ok)
	assert.Equal(t, "budget-test", doc.Envelope.Metadata.ClientInfo.Name)

	data, _, err := f.c.LoadFromCloud(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("local dataset"), data)
}

func TestCoordinator_Refresh(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	f.store.pingErr = errors.New("connection refused")
	f.c.Refresh(ctx)
	assert.False(t, f.c.Status().Online)

	f.store.pingErr = nil
	snap := f.c.Refresh(ctx)
	assert.True(t, f.c.Status().Online)
	assert.Equal(t, models.HealthUnknown, snap.Status)
	assert.Equal(t, []models.SyncEventType{models.EventOffline, models.EventOnline}, eventTypes(f.drain()))
}
