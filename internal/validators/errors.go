// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyDocumentID   = errors.New("document id is required")
	ErrDocumentIDTooLong = errors.New("document id is too long")
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrInvalidKind       = errors.New("invalid document kind")
	ErrBodyKindMismatch  = errors.New("document body does not match its kind")
	ErrEmptyCiphertext   = errors.New("ciphertext is required")
	ErrEmptyIV           = errors.New("iv is required")
	ErrInvalidManifest   = errors.New("invalid chunk manifest")
	ErrInvalidChunk      = errors.New("invalid chunk")
	ErrDocumentTooLarge  = errors.New("document exceeds the size ceiling")
)
