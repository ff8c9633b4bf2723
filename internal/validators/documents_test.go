// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-budget-sync/models"
)

func envelopeDoc(id string, size int) models.Document {
	return models.Document{
		ID:   id,
		Kind: models.DocumentKindEnvelope,
		Envelope: &models.EncryptedEnvelope{
			Ciphertext: make([]byte, size),
			IV:         []byte("123456789012"),
			Metadata:   models.EnvelopeMetadata{Version: models.EnvelopeVersion},
		},
	}
}

func TestDocumentValidator_Validate(t *testing.T) {
	v := NewDocumentValidator(16)
	ctx := context.Background()

	tests := []struct {
		name    string
		obj     any
		fields  []string
		wantErr error
	}{
		{name: "valid envelope", obj: envelopeDoc("budget-1", 16)},
		{name: "valid envelope pointer", obj: func() *models.Document { d := envelopeDoc("budget-1", 4); return &d }()},
		{name: "empty id", obj: envelopeDoc(" ", 4), wantErr: ErrEmptyDocumentID},
		{name: "long id", obj: envelopeDoc(strings.Repeat("a", MaxDocumentIDLength+1), 4), wantErr: ErrDocumentIDTooLong},
		{name: "reserved character", obj: envelopeDoc("a/b", 4), wantErr: ErrInvalidDocumentID},
		{name: "too large", obj: envelopeDoc("budget-1", 17), wantErr: ErrDocumentTooLarge},
		{name: "too large but size not checked", obj: envelopeDoc("budget-1", 17), fields: []string{FieldID, FieldBody}},
		{name: "empty ciphertext", obj: envelopeDoc("budget-1", 0), wantErr: ErrEmptyCiphertext},
		{
			name:    "unknown kind",
			obj:     models.Document{ID: "x", Kind: "blob"},
			fields:  []string{FieldKind},
			wantErr: ErrInvalidKind,
		},
		{
			name:    "kind without body",
			obj:     models.Document{ID: "x", Kind: models.DocumentKindEnvelope},
			wantErr: ErrBodyKindMismatch,
		},
		{
			name: "two bodies",
			obj: models.Document{
				ID: "x", Kind: models.DocumentKindChunk,
				Chunk:    &models.Chunk{ManifestID: "x", Data: []byte{1}},
				Manifest: &models.ChunkManifest{},
			},
			wantErr: ErrBodyKindMismatch,
		},
		{
			name: "valid chunk",
			obj: models.Document{
				ID: "b_chunk_002", Kind: models.DocumentKindChunk,
				Chunk: &models.Chunk{ManifestID: "b", Index: 2, Data: []byte{1, 2}},
			},
		},
		{
			name: "chunk under wrong id",
			obj: models.Document{
				ID: "b_chunk_001", Kind: models.DocumentKindChunk,
				Chunk: &models.Chunk{ManifestID: "b", Index: 2, Data: []byte{1, 2}},
			},
			wantErr: ErrInvalidChunk,
		},
		{
			name: "valid manifest",
			obj: models.Document{
				ID: "b", Kind: models.DocumentKindManifest,
				Manifest: &models.ChunkManifest{DocumentID: "b", ChunkCount: 2, ChunkFingerprints: []string{"a", "b"}, IV: []byte{1}},
			},
		},
		{
			name: "manifest fingerprint count mismatch",
			obj: models.Document{
				ID: "b", Kind: models.DocumentKindManifest,
				Manifest: &models.ChunkManifest{DocumentID: "b", ChunkCount: 3, ChunkFingerprints: []string{"a", "b"}, IV: []byte{1}},
			},
			wantErr: ErrInvalidManifest,
		},
		{
			name: "manifest for another document",
			obj: models.Document{
				ID: "b", Kind: models.DocumentKindManifest,
				Manifest: &models.ChunkManifest{DocumentID: "c", ChunkCount: 1, ChunkFingerprints: []string{"a"}, IV: []byte{1}},
			},
			wantErr: ErrInvalidManifest,
		},
		{name: "id string", obj: "budget-1"},
		{name: "empty id string", obj: "", wantErr: ErrEmptyDocumentID},
		{name: "unsupported", obj: 42, wantErr: ErrUnsupportedType},
		{name: "unknown field", obj: envelopeDoc("budget-1", 1), fields: []string{"owner"}, wantErr: ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.obj, tt.fields...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocumentValidator_NoCeiling(t *testing.T) {
	v := NewDocumentValidator(0)
	assert.NoError(t, v.Validate(context.Background(), envelopeDoc("budget-1", 4096)))
}
