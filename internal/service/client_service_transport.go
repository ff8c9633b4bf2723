// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
)

// DefaultChunkConcurrency bounds parallel chunk reads and writes.
const DefaultChunkConcurrency = 4

// ChunkedTransport moves encrypted payloads to and from the document store.
// Ciphertexts larger than the ceiling are written as chunk documents plus a
// manifest stored under the primary id.
type ChunkedTransport struct {
	store       adapter.DocumentStore
	codec       crypto.Codec
	ceiling     int
	concurrency int

	logger *logger.Logger
}

func NewChunkedTransport(store adapter.DocumentStore, codec crypto.Codec, ceiling int, log *logger.Logger) *ChunkedTransport {
	return &ChunkedTransport{
		store:       store,
		codec:       codec,
		ceiling:     ceiling,
		concurrency: DefaultChunkConcurrency,
		logger:      log,
	}
}

// Save encrypts data and writes it under docID. Chunks are written before
// the manifest so a reader never sees a manifest whose chunks do not exist
// yet. Chunks left over from a longer previous version are deleted once the
// new version is in place.
func (t *ChunkedTransport) Save(ctx context.Context, key []byte, docID string, data []byte, info models.ClientInfo) error {
	env, err := t.codec.Encrypt(data, key, info)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}

	previous, known := t.storedChunkCount(ctx, docID)

	written, err := t.write(ctx, docID, env)
	if err != nil {
		return err
	}

	if known && previous > written {
		t.removeChunks(ctx, docID, written, previous)
	}
	return nil
}

// Reset deletes docID together with its chunks. deleted is false when
// nothing was stored. Chunks go first so a failed reset can be repeated:
// the manifest still names them.
func (t *ChunkedTransport) Reset(ctx context.Context, docID string) (bool, error) {
	doc, err := t.store.GetDocument(ctx, docID)
	if errors.Is(err, adapter.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if doc.Kind == models.DocumentKindManifest && doc.Manifest != nil {
		if err = t.deleteChunks(ctx, docID, 0, doc.Manifest.ChunkCount); err != nil {
			return false, fmt.Errorf("delete chunks of %q: %w", docID, err)
		}
	}

	if err = t.store.DeleteDocument(ctx, docID); err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete %q: %w", docID, err)
	}

	t.logger.Info().Str("document_id", docID).Str("kind", string(doc.Kind)).Msg("cloud document reset")
	return true, nil
}

// storedChunkCount reports how many chunks the currently stored version of
// docID has. known is false when the store could not be read.
func (t *ChunkedTransport) storedChunkCount(ctx context.Context, docID string) (count int, known bool) {
	doc, err := t.store.GetDocument(ctx, docID)
	switch {
	case errors.Is(err, adapter.ErrNotFound):
		return 0, true
	case err != nil:
		t.logger.Debug().Str("document_id", docID).Err(err).Msg("previous version unreadable, chunk cleanup skipped")
		return 0, false
	case doc.Kind == models.DocumentKindManifest && doc.Manifest != nil:
		return doc.Manifest.ChunkCount, true
	default:
		return 0, true
	}
}

// removeChunks deletes chunks [from, to) of docID. Failures leave orphans
// behind and are only logged.
func (t *ChunkedTransport) removeChunks(ctx context.Context, docID string, from, to int) {
	if err := t.deleteChunks(ctx, docID, from, to); err != nil {
		t.logger.Warn().Str("document_id", docID).Err(err).Msg("stale chunk cleanup failed")
		return
	}
	t.logger.Debug().Str("document_id", docID).Int("removed", to-from).Msg("stale chunks removed")
}

func (t *ChunkedTransport) deleteChunks(ctx context.Context, docID string, from, to int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i := from; i < to; i++ {
		g.Go(func() error {
			err := t.store.DeleteDocument(gctx, models.ChunkDocumentID(docID, i))
			if errors.Is(err, adapter.ErrNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// write stores env under docID and returns the number of chunks used.
func (t *ChunkedTransport) write(ctx context.Context, docID string, env models.EncryptedEnvelope) (int, error) {
	if len(env.Ciphertext) <= t.ceiling {
		return 0, t.store.PutDocument(ctx, models.Document{
			ID:       docID,
			Kind:     models.DocumentKindEnvelope,
			Envelope: &env,
		})
	}

	chunks := SplitChunks(env.Ciphertext, t.ceiling)
	manifest := BuildManifest(docID, env, chunks, t.ceiling)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			return t.store.PutDocument(gctx, models.Document{
				ID:   manifest.ChunkID(i),
				Kind: models.DocumentKindChunk,
				Chunk: &models.Chunk{
					ManifestID:  docID,
					Index:       i,
					Data:        c,
					Fingerprint: manifest.ChunkFingerprints[i],
				},
			})
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("write chunks of %q: %w", docID, err)
	}

	if err := t.store.PutDocument(ctx, models.Document{
		ID:       docID,
		Kind:     models.DocumentKindManifest,
		Manifest: &manifest,
	}); err != nil {
		return 0, fmt.Errorf("write manifest of %q: %w", docID, err)
	}

	t.logger.Debug().
		Str("document_id", docID).
		Int("chunks", manifest.ChunkCount).
		Int("total_size", manifest.TotalSize).
		Msg("chunked payload saved")
	return manifest.ChunkCount, nil
}

// Load reads and decrypts docID. found is false when nothing is stored yet.
func (t *ChunkedTransport) Load(ctx context.Context, key []byte, docID string) ([]byte, bool, error) {
	doc, err := t.store.GetDocument(ctx, docID)
	if errors.Is(err, adapter.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	data, err := t.Decode(ctx, key, doc)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Decode turns a primary document into plaintext, fetching chunks when doc
// is a manifest.
func (t *ChunkedTransport) Decode(ctx context.Context, key []byte, doc models.Document) ([]byte, error) {
	switch {
	case doc.Kind == models.DocumentKindEnvelope && doc.Envelope != nil:
		return t.codec.Decrypt(*doc.Envelope, key)
	case doc.Kind == models.DocumentKindManifest && doc.Manifest != nil:
		ciphertext, err := t.fetchChunks(ctx, *doc.Manifest)
		if err != nil {
			return nil, err
		}
		return t.codec.Decrypt(models.EncryptedEnvelope{
			Ciphertext: ciphertext,
			IV:         doc.Manifest.IV,
			Metadata:   doc.Manifest.Metadata,
		}, key)
	default:
		return nil, fmt.Errorf("%w: %q is not a primary document (kind %q)", syncerr.ErrValidation, doc.ID, doc.Kind)
	}
}

// fetchChunks reads every chunk of m concurrently and reassembles them by
// index.
func (t *ChunkedTransport) fetchChunks(ctx context.Context, m models.ChunkManifest) ([]byte, error) {
	if err := ValidateManifest(m); err != nil {
		return nil, err
	}

	parts := make([][]byte, m.ChunkCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i := range m.ChunkCount {
		g.Go(func() error {
			doc, err := t.store.GetDocument(gctx, m.ChunkID(i))
			if errors.Is(err, adapter.ErrNotFound) {
				return fmt.Errorf("%w: chunk %s is missing", syncerr.ErrCorruptData, m.ChunkID(i))
			}
			if err != nil {
				return err
			}

			data, err := VerifyChunk(m, i, doc)
			if err != nil {
				return err
			}
			parts[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.logger.Warn().Str("document_id", m.DocumentID).Err(err).Msg("chunk fetch failed")
		return nil, err
	}

	return Reassemble(m, parts)
}
