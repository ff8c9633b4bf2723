// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"time"
)

// DocumentKind tells a reader how to interpret the body of a [Document].
type DocumentKind string

const (
	// DocumentKindEnvelope holds a whole encrypted payload.
	DocumentKindEnvelope DocumentKind = "envelope"
	// DocumentKindManifest points to the chunk documents of a large payload.
	DocumentKindManifest DocumentKind = "manifest"
	// DocumentKindChunk holds one slice of a chunked ciphertext.
	DocumentKindChunk DocumentKind = "chunk"
)

// Document is what the remote store persists under a single id. Exactly one
// of Envelope, Manifest or Chunk is set, matching Kind.
type Document struct {
	ID        string             `json:"id"`
	Kind      DocumentKind       `json:"kind"`
	Envelope  *EncryptedEnvelope `json:"envelope,omitempty"`
	Manifest  *ChunkManifest     `json:"manifest,omitempty"`
	Chunk     *Chunk             `json:"chunk,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ChunkManifest describes how a ciphertext larger than the document size
// ceiling was split. ChunkFingerprints is ordered by chunk index and always
// has ChunkCount entries.
type ChunkManifest struct {
	DocumentID        string           `json:"documentId"`
	ChunkCount        int              `json:"chunkCount"`
	ChunkSize         int              `json:"chunkSize"`
	TotalSize         int              `json:"totalSize"`
	ChunkFingerprints []string         `json:"chunkFingerprints"`
	TotalFingerprint  string           `json:"totalFingerprint"`
	IV                []byte           `json:"iv"`
	Metadata          EnvelopeMetadata `json:"metadata"`
}

// ChunkID returns the document id of the chunk at index.
func (m ChunkManifest) ChunkID(index int) string {
	return ChunkDocumentID(m.DocumentID, index)
}

// Chunk is one ordered slice of a chunked ciphertext.
type Chunk struct {
	ManifestID  string `json:"manifestId"`
	Index       int    `json:"index"`
	Data        []byte `json:"data"`
	Fingerprint string `json:"fingerprint"`
}

// ChunkDocumentID builds the id under which chunk index of documentID is
// stored, e.g. "budget-1_chunk_007".
func ChunkDocumentID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%03d", documentID, index)
}
