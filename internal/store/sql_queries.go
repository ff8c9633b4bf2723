// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	documentsTable      = "documents"
	localDocumentsTable = "local_documents"

	upsertDocumentSuffix = `ON CONFLICT (id) DO UPDATE
		SET kind = EXCLUDED.kind, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`

	upsertLocalDocumentSuffix = `ON CONFLICT (id) DO UPDATE
		SET data = excluded.data, updated_at = excluded.updated_at`
)

var (
	postgres = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sqlite   = sq.StatementBuilder.PlaceholderFormat(sq.Question)
)

func buildGetDocumentQuery(id string) (string, []any, error) {
	query, args, err := postgres.
		Select("kind", "body", "updated_at").
		From(documentsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildPutDocumentQuery(id, kind string, body []byte, updatedAt time.Time) (string, []any, error) {
	query, args, err := postgres.
		Insert(documentsTable).
		Columns("id", "kind", "body", "updated_at").
		Values(id, kind, body, updatedAt).
		Suffix(upsertDocumentSuffix).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildDeleteDocumentQuery(id string) (string, []any, error) {
	query, args, err := postgres.
		Delete(documentsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildReadLocalDocumentQuery(id string) (string, []any, error) {
	query, args, err := sqlite.
		Select("data", "updated_at").
		From(localDocumentsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildWriteLocalDocumentQuery(id string, data []byte, updatedAt time.Time) (string, []any, error) {
	query, args, err := sqlite.
		Insert(localDocumentsTable).
		Columns("id", "data", "updated_at").
		Values(id, data, updatedAt).
		Suffix(upsertLocalDocumentSuffix).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
