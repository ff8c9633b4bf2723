// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by repositories. Callers match them with
// [errors.Is].
var (
	// ErrDocumentNotFound is returned when no document is stored under the
	// requested id.
	ErrDocumentNotFound = errors.New("document was not found")

	// ErrInvalidDocument is returned when a document has no id or a body
	// that does not match its kind.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrTemporarilyUnavailable wraps driver errors the classifier marks as
	// retryable, e.g. a dropped connection or a serialization failure.
	ErrTemporarilyUnavailable = errors.New("storage temporarily unavailable")
)

// Low-level database operation errors.
var (
	ErrBuildingSQLQuery = errors.New("error building sql query")
	ErrExecutingQuery   = errors.New("error executing sql query")
	ErrScanningRow      = errors.New("failed to scan document row")
	ErrEncodingDocument = errors.New("failed to encode document")
	ErrDecodingDocument = errors.New("failed to decode document")
)
