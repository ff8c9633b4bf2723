// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/retry"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
)

// mapAdapterError folds store responses into the sync error taxonomy so the
// health history and OpError carry a meaningful class.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrUnauthorized), errors.Is(err, adapter.ErrForbidden):
		if !errors.Is(err, syncerr.ErrAuthentication) {
			return fmt.Errorf("%w: %w", syncerr.ErrAuthentication, err)
		}
	case errors.Is(err, adapter.ErrBadRequest):
		if !errors.Is(err, syncerr.ErrValidation) {
			return fmt.Errorf("%w: %w", syncerr.ErrValidation, err)
		}
	case exhausted(err):
		if !errors.Is(err, syncerr.ErrTransientTransport) {
			return fmt.Errorf("%w: %w", syncerr.ErrTransientTransport, err)
		}
	}
	return err
}

// exhausted reports whether err is a retry.Error that ran out of attempts on
// a retryable failure.
func exhausted(err error) bool {
	var rerr *retry.Error
	return errors.As(err, &rerr) && rerr.Exhausted()
}

// isAuthRejection reports whether the store refused the current identity.
func isAuthRejection(err error) bool {
	return errors.Is(err, adapter.ErrUnauthorized) || errors.Is(err, adapter.ErrForbidden)
}
