// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

func TestSplitChunks(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghij"), 10) // 100 bytes

	tests := []struct {
		name      string
		data      []byte
		size      int
		wantCount int
		wantLast  int
	}{
		{name: "exact multiple", data: data, size: 25, wantCount: 4, wantLast: 25},
		{name: "remainder", data: data, size: 30, wantCount: 4, wantLast: 10},
		{name: "single chunk", data: data, size: 100, wantCount: 1, wantLast: 100},
		{name: "larger than data", data: data, size: 1000, wantCount: 1, wantLast: 100},
		{name: "empty", data: nil, size: 10, wantCount: 0},
		{name: "invalid size", data: data, size: 0, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitChunks(tt.data, tt.size)
			require.Len(t, chunks, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), tt.size)
			}
			assert.Len(t, chunks[len(chunks)-1], tt.wantLast)
			assert.Equal(t, tt.data, bytes.Join(chunks, nil))
		})
	}
}

func TestSplitChunks_AppendDoesNotClobber(t *testing.T) {
	data := []byte("0123456789")
	chunks := SplitChunks(data, 4)

	_ = append(chunks[0], 'x')
	assert.Equal(t, []byte("0123456789"), data)
}

func testManifest(t *testing.T) (models.ChunkManifest, [][]byte) {
	t.Helper()
	env := models.EncryptedEnvelope{
		Ciphertext: bytes.Repeat([]byte{1, 2, 3}, 10),
		IV:         []byte("iv"),
		Metadata:   models.EnvelopeMetadata{Version: models.EnvelopeVersion},
	}
	chunks := SplitChunks(env.Ciphertext, 8)
	return BuildManifest("budget-1", env, chunks, 8), chunks
}

func TestBuildManifest(t *testing.T) {
	m, chunks := testManifest(t)

	assert.Equal(t, "budget-1", m.DocumentID)
	assert.Equal(t, 4, m.ChunkCount)
	assert.Equal(t, 30, m.TotalSize)
	require.Len(t, m.ChunkFingerprints, m.ChunkCount)
	for i, c := range chunks {
		assert.Equal(t, crypto.Fingerprint(c), m.ChunkFingerprints[i])
	}
	assert.Equal(t, "budget-1_chunk_003", m.ChunkID(3))
	assert.NoError(t, ValidateManifest(m))
}

func TestValidateManifest(t *testing.T) {
	m, _ := testManifest(t)

	noChunks := m
	noChunks.ChunkCount = 0
	assert.ErrorIs(t, ValidateManifest(noChunks), syncerr.ErrCorruptData)

	short := m
	short.ChunkFingerprints = m.ChunkFingerprints[:2]
	assert.ErrorIs(t, ValidateManifest(short), syncerr.ErrCorruptData)
}

func TestVerifyChunk(t *testing.T) {
	m, chunks := testManifest(t)
	chunkDoc := func(index int, data []byte) models.Document {
		return models.Document{
			ID:    m.ChunkID(index),
			Kind:  models.DocumentKindChunk,
			Chunk: &models.Chunk{ManifestID: m.DocumentID, Index: index, Data: data},
		}
	}

	data, err := VerifyChunk(m, 1, chunkDoc(1, chunks[1]))
	require.NoError(t, err)
	assert.Equal(t, chunks[1], data)

	_, err = VerifyChunk(m, 1, chunkDoc(1, []byte("tampered")))
	assert.ErrorIs(t, err, syncerr.ErrCorruptData)

	_, err = VerifyChunk(m, 1, chunkDoc(2, chunks[1]))
	assert.ErrorIs(t, err, ErrMalformedChunk)

	_, err = VerifyChunk(m, 1, models.Document{ID: m.ChunkID(1), Kind: models.DocumentKindEnvelope})
	assert.ErrorIs(t, err, syncerr.ErrCorruptData)
}

func TestReassemble(t *testing.T) {
	m, chunks := testManifest(t)

	joined, err := Reassemble(m, chunks)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{1, 2, 3}, 10), joined)

	_, err = Reassemble(m, chunks[:3])
	assert.ErrorIs(t, err, syncerr.ErrCorruptData)

	swapped := [][]byte{chunks[1], chunks[0], chunks[2], chunks[3]}
	_, err = Reassemble(m, swapped)
	assert.ErrorIs(t, err, syncerr.ErrCorruptData)
}
