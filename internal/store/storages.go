// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
)

// Storages groups the server-side repositories.
type Storages struct {
	DocumentRepository DocumentRepository

	db *DB
}

// NewStorages connects to postgres and migrates it when cfg.DSN is set and
// falls back to the in-memory repository otherwise.
func NewStorages(ctx context.Context, cfg config.DB, log *logger.Logger) (*Storages, error) {
	if cfg.DSN == "" {
		log.Warn().Str("func", "NewStorages").Msg("no database DSN configured, documents are kept in memory")
		return &Storages{DocumentRepository: NewMemoryDocumentRepository()}, nil
	}

	db, err := NewConnectPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewStorages").Msg("error applying migrations")
		_ = db.Close()
		return nil, err
	}

	return &Storages{
		DocumentRepository: NewDocumentRepository(db),
		db:                 db,
	}, nil
}

func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
