// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers runs the client's background jobs: the connectivity probe
// that drives online/offline transitions and the optional periodic sync.
package workers

import (
	"context"

	"github.com/MKhiriev/go-budget-sync/internal/service"
	"github.com/MKhiriev/go-budget-sync/models"
)

// Worker is implemented by every background job. Run blocks until ctx is
// done.
type Worker interface {
	Run(ctx context.Context)
}

// ConnectivityTarget is the part of the sync coordinator the probe drives.
type ConnectivityTarget interface {
	// Refresh pings the store and records the resulting connectivity.
	Refresh(ctx context.Context) models.HealthSnapshot
	IsOnline() bool
}

// Syncer pushes the local dataset to the store.
type Syncer interface {
	ForceSync(ctx context.Context) (service.SaveOutcome, error)
}
