// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

const signInFlight = "sign-in"

// AuthGate makes sure an identity exists before the store is used.
// Concurrent callers that find no identity share one sign-in exchange.
type AuthGate struct {
	identity adapter.IdentityService
	timeout  time.Duration
	clock    clock.Clock

	flights singleflight.Group

	mu      sync.RWMutex
	current *models.Identity

	logger *logger.Logger
}

func NewAuthGate(identity adapter.IdentityService, timeout time.Duration, clk clock.Clock, log *logger.Logger) *AuthGate {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AuthGate{
		identity: identity,
		timeout:  timeout,
		clock:    clk,
		logger:   log,
	}
}

// EnsureAuthenticated returns true at once if a valid identity is cached.
// Otherwise it joins or starts the sign-in exchange. A timed out exchange
// returns (false, nil); a rejected one returns false and an error wrapping
// syncerr.ErrAuthentication. Cancelling ctx only detaches this caller; the
// exchange keeps running for the others.
func (g *AuthGate) EnsureAuthenticated(ctx context.Context) (bool, error) {
	if _, ok := g.Identity(); ok {
		return true, nil
	}

	ch := g.flights.DoChan(signInFlight, func() (any, error) {
		return g.signIn(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return true, nil
		}
		if errors.Is(res.Err, ErrSignInTimeout) {
			return false, nil
		}
		return false, res.Err
	}
}

func (g *AuthGate) signIn(ctx context.Context) (models.Identity, error) {
	// A caller may have finished a flight between our check and DoChan.
	if id, ok := g.Identity(); ok {
		return id, nil
	}

	flightCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type outcome struct {
		id  models.Identity
		err error
	}
	done := make(chan outcome, 1)
	started := g.clock.Now()
	go func() {
		id, err := g.identity.SignIn(flightCtx)
		done <- outcome{id, err}
	}()

	var res outcome
	select {
	case <-flightCtx.Done():
		res.err = flightCtx.Err()
	case res = <-done:
	}

	if res.err != nil {
		if errors.Is(flightCtx.Err(), context.DeadlineExceeded) {
			g.logger.Warn().Dur("timeout", g.timeout).Msg("sign-in timed out")
			return models.Identity{}, ErrSignInTimeout
		}
		g.logger.Err(res.err).Msg("sign-in failed")
		return models.Identity{}, fmt.Errorf("%w: %w", syncerr.ErrAuthentication, res.err)
	}
	id := res.id

	g.mu.Lock()
	g.current = &id
	g.mu.Unlock()

	g.logger.Info().
		Str("identity_id", id.ID).
		Dur("took", g.clock.Now().Sub(started)).
		Msg("signed in")
	return id, nil
}

// Identity returns the cached identity if it has not expired.
func (g *AuthGate) Identity() (models.Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.current == nil || !g.current.ValidAt(g.clock.Now()) {
		return models.Identity{}, false
	}
	return *g.current, true
}

// Invalidate drops the cached identity so the next call signs in again.
// It is used when the store rejects the token.
func (g *AuthGate) Invalidate() {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
}
