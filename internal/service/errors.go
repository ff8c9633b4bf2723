// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	// ErrSignInTimeout is logged when the identity exchange does not finish
	// within the auth timeout. EnsureAuthenticated reports it as false.
	ErrSignInTimeout = errors.New("sign-in timed out")

	// ErrNotAuthenticated is the cause attached to save and load failures
	// when no identity could be obtained.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrStreamClosed is delivered to onError when a change stream ends
	// without being unsubscribed.
	ErrStreamClosed = errors.New("change stream closed")

	ErrEmptyBudgetID   = errors.New("budget id is empty")
	ErrEmptyPassphrase = errors.New("passphrase is empty")
	ErrMalformedChunk  = errors.New("malformed chunk")

	// Server side.
	ErrInvalidToken   = errors.New("token is expired or invalid")
	ErrInvalidRequest = errors.New("invalid request")
)
