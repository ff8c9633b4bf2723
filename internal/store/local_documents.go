// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
)

// localDocumentStorage keeps the plaintext budget dataset in the sqlite
// "local_documents" table.
type localDocumentStorage struct {
	*DB
	now func() time.Time
}

// NewLocalStorage opens the sqlite database at dsn and applies the local
// migrations.
func NewLocalStorage(ctx context.Context, dsn string, log *logger.Logger) (LocalStorage, error) {
	db, err := NewConnectSQLite(ctx, dsn, log)
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewLocalStorage").Msg("error applying local migrations")
		_ = db.Close()
		return nil, err
	}

	return newLocalDocumentStorage(db), nil
}

func newLocalDocumentStorage(db *DB) *localDocumentStorage {
	return &localDocumentStorage{DB: db, now: time.Now}
}

func (s *localDocumentStorage) ReadDocument(ctx context.Context, id string) ([]byte, time.Time, error) {
	query, args, err := buildReadLocalDocumentQuery(id)
	if err != nil {
		return nil, time.Time{}, err
	}

	var (
		data      []byte
		updatedAt time.Time
	)
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrDocumentNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return data, updatedAt, nil
}

func (s *localDocumentStorage) WriteDocument(ctx context.Context, id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDocument)
	}

	query, args, err := buildWriteLocalDocumentQuery(id, data, s.now().UTC())
	if err != nil {
		return err
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localDocumentStorage.WriteDocument").Str("document_id", id).Msg("failed to write local document")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
