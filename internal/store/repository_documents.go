// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/models"
)

// documentRepository stores documents in the postgres "documents" table.
// The body column holds the JSON encoding of the envelope, manifest or
// chunk; id, kind and updated_at are kept as columns.
type documentRepository struct {
	*DB
	now func() time.Time
}

func NewDocumentRepository(db *DB) DocumentRepository {
	return &documentRepository{DB: db, now: time.Now}
}

func (r *documentRepository) GetDocument(ctx context.Context, id string) (models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetDocumentQuery(id)
	if err != nil {
		return models.Document{}, err
	}

	var (
		kind      string
		body      []byte
		updatedAt time.Time
	)
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&kind, &body, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "documentRepository.GetDocument").Str("document_id", id).Msg("failed to read document")
		return models.Document{}, r.wrapDriverError(ErrExecutingQuery, err)
	}

	doc, err := decodeDocumentBody(id, models.DocumentKind(kind), body)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.GetDocument").Str("document_id", id).Msg("stored document is malformed")
		return models.Document{}, err
	}
	doc.UpdatedAt = updatedAt.UTC()

	return doc, nil
}

func (r *documentRepository) PutDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	log := logger.FromContext(ctx)

	body, err := encodeDocumentBody(doc)
	if err != nil {
		return models.Document{}, err
	}

	query, args, err := buildPutDocumentQuery(doc.ID, string(doc.Kind), body, r.now().UTC())
	if err != nil {
		return models.Document{}, err
	}

	var updatedAt time.Time
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		log.Err(err).Str("func", "documentRepository.PutDocument").Str("document_id", doc.ID).Msg("failed to upsert document")
		return models.Document{}, r.wrapDriverError(ErrExecutingQuery, err)
	}

	doc.UpdatedAt = updatedAt.UTC()
	return doc, nil
}

func (r *documentRepository) DeleteDocument(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteDocumentQuery(id)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.DeleteDocument").Str("document_id", id).Msg("failed to delete document")
		return r.wrapDriverError(ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return r.wrapDriverError(ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return r.wrapDriverError(ErrExecutingQuery, err)
	}
	return nil
}

// encodeDocumentBody validates doc and returns the JSON of the part matching
// its kind.
func encodeDocumentBody(doc models.Document) ([]byte, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidDocument)
	}

	var part any
	switch doc.Kind {
	case models.DocumentKindEnvelope:
		if doc.Envelope != nil {
			part = doc.Envelope
		}
	case models.DocumentKindManifest:
		if doc.Manifest != nil {
			part = doc.Manifest
		}
	case models.DocumentKindChunk:
		if doc.Chunk != nil {
			part = doc.Chunk
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: kind %q without matching body", ErrInvalidDocument, doc.Kind)
	}

	body, err := json.Marshal(part)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingDocument, err)
	}
	return body, nil
}

func decodeDocumentBody(id string, kind models.DocumentKind, body []byte) (models.Document, error) {
	doc := models.Document{ID: id, Kind: kind}

	var target any
	switch kind {
	case models.DocumentKindEnvelope:
		doc.Envelope = new(models.EncryptedEnvelope)
		target = doc.Envelope
	case models.DocumentKindManifest:
		doc.Manifest = new(models.ChunkManifest)
		target = doc.Manifest
	case models.DocumentKindChunk:
		doc.Chunk = new(models.Chunk)
		target = doc.Chunk
	default:
		return models.Document{}, fmt.Errorf("%w: unknown kind %q", ErrDecodingDocument, kind)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrDecodingDocument, err)
	}
	return doc, nil
}
