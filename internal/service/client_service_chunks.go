// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"fmt"

	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

// SplitChunks cuts data into consecutive slices of at most size bytes. The
// slices share data's backing array.
func SplitChunks(data []byte, size int) [][]byte {
	if size <= 0 || len(data) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		chunks = append(chunks, data[start:end:end])
	}
	return chunks
}

// BuildManifest describes the chunks of env stored for documentID.
func BuildManifest(documentID string, env models.EncryptedEnvelope, chunks [][]byte, chunkSize int) models.ChunkManifest {
	fingerprints := make([]string, len(chunks))
	for i, c := range chunks {
		fingerprints[i] = crypto.Fingerprint(c)
	}

	return models.ChunkManifest{
		DocumentID:        documentID,
		ChunkCount:        len(chunks),
		ChunkSize:         chunkSize,
		TotalSize:         len(env.Ciphertext),
		ChunkFingerprints: fingerprints,
		TotalFingerprint:  crypto.Fingerprint(env.Ciphertext),
		IV:                env.IV,
		Metadata:          env.Metadata,
	}
}

// ValidateManifest checks the manifest's internal consistency before any
// chunk is fetched.
func ValidateManifest(m models.ChunkManifest) error {
	switch {
	case m.ChunkCount <= 0:
		return fmt.Errorf("%w: manifest of %q has no chunks", syncerr.ErrCorruptData, m.DocumentID)
	case len(m.ChunkFingerprints) != m.ChunkCount:
		return fmt.Errorf("%w: manifest of %q lists %d fingerprints for %d chunks",
			syncerr.ErrCorruptData, m.DocumentID, len(m.ChunkFingerprints), m.ChunkCount)
	}
	return nil
}

// VerifyChunk checks that doc is chunk index of m and that its data matches
// the recorded fingerprint.
func VerifyChunk(m models.ChunkManifest, index int, doc models.Document) ([]byte, error) {
	if doc.Kind != models.DocumentKindChunk || doc.Chunk == nil {
		return nil, fmt.Errorf("%w: %w: %s is a %q document", syncerr.ErrCorruptData, ErrMalformedChunk, m.ChunkID(index), doc.Kind)
	}
	if doc.Chunk.Index != index {
		return nil, fmt.Errorf("%w: %w: %s carries index %d", syncerr.ErrCorruptData, ErrMalformedChunk, m.ChunkID(index), doc.Chunk.Index)
	}
	if got := crypto.Fingerprint(doc.Chunk.Data); got != m.ChunkFingerprints[index] {
		return nil, fmt.Errorf("%w: fingerprint mismatch for %s", syncerr.ErrCorruptData, m.ChunkID(index))
	}
	return doc.Chunk.Data, nil
}

// Reassemble joins parts in manifest order and verifies the total size and
// fingerprint.
func Reassemble(m models.ChunkManifest, parts [][]byte) ([]byte, error) {
	joined := bytes.Join(parts, nil)
	if m.TotalSize > 0 && len(joined) != m.TotalSize {
		return nil, fmt.Errorf("%w: reassembled %d bytes, manifest says %d", syncerr.ErrCorruptData, len(joined), m.TotalSize)
	}
	if m.TotalFingerprint != "" && crypto.Fingerprint(joined) != m.TotalFingerprint {
		return nil, fmt.Errorf("%w: total fingerprint mismatch for %q", syncerr.ErrCorruptData, m.DocumentID)
	}
	return joined, nil
}
