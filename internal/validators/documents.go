// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-budget-sync/models"
)

// Field names accepted by [DocumentValidator.Validate].
const (
	FieldID   = "id"
	FieldKind = "kind"
	// FieldBody checks that exactly the body matching Kind is present and
	// well formed.
	FieldBody = "body"
	// FieldChunkID checks that a chunk is stored under the id its manifest
	// would derive.
	FieldChunkID = "chunk_id"
	// FieldSize checks the chunk and envelope payloads against the ceiling.
	FieldSize = "size"
)

// MaxDocumentIDLength bounds document ids.
const MaxDocumentIDLength = 256

// DocumentValidator validates [models.Document] values.
type DocumentValidator struct {
	// ceiling bounds ciphertext and chunk payload sizes; 0 disables the
	// check.
	ceiling int
}

// NewDocumentValidator returns a validator. ceiling is the maximum size of
// a single stored payload in bytes, 0 for no limit.
func NewDocumentValidator(ceiling int) Validator {
	return &DocumentValidator{ceiling: ceiling}
}

// Validate accepts models.Document, *models.Document and a document id
// string (checked with FieldID only).
func (v *DocumentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Document:
		return v.validateDocument(ctx, value, fields...)
	case *models.Document:
		if value == nil {
			return ErrUnsupportedType
		}
		return v.validateDocument(ctx, *value, fields...)
	case string:
		return validateID(value)
	default:
		return ErrUnsupportedType
	}
}

func (v *DocumentValidator) validateDocument(_ context.Context, doc models.Document, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldID, FieldKind, FieldBody, FieldChunkID, FieldSize}
	}

	for _, f := range fields {
		var err error
		switch f {
		case FieldID:
			err = validateID(doc.ID)
		case FieldKind:
			err = validateKind(doc.Kind)
		case FieldBody:
			err = validateBody(doc)
		case FieldChunkID:
			if doc.Kind == models.DocumentKindChunk && doc.Chunk != nil &&
				doc.ID != models.ChunkDocumentID(doc.Chunk.ManifestID, doc.Chunk.Index) {
				err = fmt.Errorf("%w: %q is not the id of chunk %d of %q", ErrInvalidChunk, doc.ID, doc.Chunk.Index, doc.Chunk.ManifestID)
			}
		case FieldSize:
			err = v.validateSize(doc)
		default:
			return ErrUnknownField
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func validateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return ErrEmptyDocumentID
	case len(id) > MaxDocumentIDLength:
		return ErrDocumentIDTooLong
	case strings.ContainsAny(id, "/?#"):
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidDocumentID, id)
	}
	return nil
}

func validateKind(kind models.DocumentKind) error {
	switch kind {
	case models.DocumentKindEnvelope, models.DocumentKindManifest, models.DocumentKindChunk:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

func validateBody(doc models.Document) error {
	set := 0
	for _, present := range []bool{doc.Envelope != nil, doc.Manifest != nil, doc.Chunk != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d bodies set", ErrBodyKindMismatch, set)
	}

	switch doc.Kind {
	case models.DocumentKindEnvelope:
		if doc.Envelope == nil {
			return ErrBodyKindMismatch
		}
		if len(doc.Envelope.Ciphertext) == 0 {
			return ErrEmptyCiphertext
		}
		if len(doc.Envelope.IV) == 0 {
			return ErrEmptyIV
		}
	case models.DocumentKindManifest:
		m := doc.Manifest
		if m == nil {
			return ErrBodyKindMismatch
		}
		if m.DocumentID != doc.ID {
			return fmt.Errorf("%w: manifest describes %q", ErrInvalidManifest, m.DocumentID)
		}
		if m.ChunkCount <= 0 || len(m.ChunkFingerprints) != m.ChunkCount {
			return fmt.Errorf("%w: %d fingerprints for %d chunks", ErrInvalidManifest, len(m.ChunkFingerprints), m.ChunkCount)
		}
		if len(m.IV) == 0 {
			return ErrEmptyIV
		}
	case models.DocumentKindChunk:
		c := doc.Chunk
		if c == nil {
			return ErrBodyKindMismatch
		}
		if c.Index < 0 || c.ManifestID == "" || len(c.Data) == 0 {
			return fmt.Errorf("%w: index %d of %q", ErrInvalidChunk, c.Index, c.ManifestID)
		}
	default:
		return validateKind(doc.Kind)
	}
	return nil
}

func (v *DocumentValidator) validateSize(doc models.Document) error {
	if v.ceiling <= 0 {
		return nil
	}

	size := 0
	switch {
	case doc.Envelope != nil:
		size = len(doc.Envelope.Ciphertext)
	case doc.Chunk != nil:
		size = len(doc.Chunk.Data)
	}
	if size > v.ceiling {
		return fmt.Errorf("%w: %d > %d bytes", ErrDocumentTooLarge, size, v.ceiling)
	}
	return nil
}
