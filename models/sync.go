// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncOperation names the coordinator entry point that produced an event or
// a health record.
type SyncOperation string

const (
	OperationSave     SyncOperation = "save"
	OperationLoad     SyncOperation = "load"
	OperationRealtime SyncOperation = "realtime"
	OperationReset    SyncOperation = "reset"
)

// SyncEventType is the kind of notification published on the event bus.
type SyncEventType string

const (
	EventSyncSuccess SyncEventType = "sync_success"
	EventSyncError   SyncEventType = "sync_error"
	EventOnline      SyncEventType = "online"
	EventOffline     SyncEventType = "offline"
)

// SyncEvent is delivered to every bus subscriber. Data carries the decrypted
// payload for successful loads and realtime changes.
type SyncEvent struct {
	Type      SyncEventType `json:"type"`
	Operation SyncOperation `json:"operation,omitempty"`
	Data      []byte        `json:"data,omitempty"`
	Err       error         `json:"-"`
	At        time.Time     `json:"at"`
}

// SaveMetadata travels with a save request. It is stored in the envelope
// metadata and never influences encryption.
type SaveMetadata struct {
	ClientInfo ClientInfo `json:"clientInfo"`
}

// QueueEntry is a pending save captured while offline or after a transient
// failure exhausted its retries.
type QueueEntry struct {
	OperationID string        `json:"operationId"`
	Operation   SyncOperation `json:"operation"`
	DocumentID  string        `json:"documentId"`
	Payload     []byte        `json:"-"`
	Metadata    SaveMetadata  `json:"metadata"`
	EnqueuedAt  time.Time     `json:"enqueuedAt"`
	Attempts    int           `json:"attempts"`
	LastError   string        `json:"lastError,omitempty"`
}

// SyncStatus is a lightweight view of the coordinator state.
type SyncStatus struct {
	Initialized      bool       `json:"initialized"`
	Online           bool       `json:"online"`
	Subscribed       bool       `json:"subscribed"`
	QueuedOperations int        `json:"queuedOperations"`
	LastSyncTime     *time.Time `json:"lastSyncTime,omitempty"`
}
