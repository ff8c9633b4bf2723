// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package syncerr defines the error taxonomy shared by every sync component.
//
// Components wrap one of the sentinels below with %w so callers can branch
// with [errors.Is]. Fatal failures leaving the coordinator are wrapped in
// [OpError], which names the operation and the class so a UI can tell
// "needs re-authentication" from "data is corrupted" from "will retry".
package syncerr

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-budget-sync/models"
)

var (
	ErrTransientTransport = errors.New("transient transport error")
	ErrAuthentication     = errors.New("authentication failed")
	ErrDecryption         = errors.New("decryption failed")
	ErrCorruptData        = errors.New("corrupt data")
	ErrValidation         = errors.New("validation failed")
	ErrNotInitialized     = errors.New("sync session is not initialized")
	ErrQueueFull          = errors.New("offline queue is full")
)

// Class is the coarse category reported with a failed operation.
type Class string

const (
	ClassTransient      Class = "transient"
	ClassAuthentication Class = "authentication"
	ClassDecryption     Class = "decryption"
	ClassCorruptData    Class = "corrupt_data"
	ClassValidation     Class = "validation"
	ClassUnknown        Class = "unknown"
)

// ClassOf maps err to its taxonomy class by inspecting the wrapped sentinels.
func ClassOf(err error) Class {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return ClassAuthentication
	case errors.Is(err, ErrDecryption):
		return ClassDecryption
	case errors.Is(err, ErrCorruptData):
		return ClassCorruptData
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotInitialized):
		return ClassValidation
	case errors.Is(err, ErrTransientTransport):
		return ClassTransient
	default:
		return ClassUnknown
	}
}

// OpError is returned by coordinator entry points when an operation could not
// complete.
type OpError struct {
	Operation models.SyncOperation
	Class     Class
	// Retryable is true when the failure belongs to a class that is retried
	// automatically (queued saves, transient loads).
	Retryable bool
	Err       error
}

// NewOpError wraps err, deriving the class from the sentinel chain.
func NewOpError(op models.SyncOperation, err error, retryable bool) *OpError {
	return &OpError{Operation: op, Class: ClassOf(err), Retryable: retryable, Err: err}
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Operation, e.Class, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
