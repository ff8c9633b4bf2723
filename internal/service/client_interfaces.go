// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-budget-sync/models"
)

// LocalDocuments is the narrow key-value contract the coordinator uses to
// read the local dataset. store.LocalStorage satisfies it.
type LocalDocuments interface {
	ReadDocument(ctx context.Context, id string) ([]byte, time.Time, error)
	WriteDocument(ctx context.Context, id string, data []byte) error
}

// QueueExecutor replays one queued entry.
type QueueExecutor func(ctx context.Context, entry models.QueueEntry) error

// Unsubscribe stops a change subscription. Calling it more than once, or
// after the stream already ended, does nothing.
type Unsubscribe func()

// IDGenerator produces operation ids.
type IDGenerator interface {
	Generate() string
}
