// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/migrations"
)

// DB is a database handle together with its dialect specifics.
type DB struct {
	*sql.DB
	dialect            migrations.Dialect
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}

// wrapDriverError attaches ErrTemporarilyUnavailable to retryable driver
// errors so the HTTP layer can answer 503.
func (db *DB) wrapDriverError(sentinel, err error) error {
	if db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", ErrTemporarilyUnavailable, sentinel, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
