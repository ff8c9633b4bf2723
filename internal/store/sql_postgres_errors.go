// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification tells whether a failed statement may succeed when
// issued again.
type ErrorClassification int

const (
	NonRetryable ErrorClassification = iota
	Retryable
)

// PostgresErrorClassifier maps pgconn error codes to an [ErrorClassification].
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify returns NonRetryable for nil and non-postgres errors.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ClassifyPgError(pgErr)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return Retryable
	}

	return NonRetryable
}

// ClassifyPgError treats connection exceptions (class 08), transaction
// rollbacks (class 40), resource exhaustion (class 53), operator intervention
// (class 57) and lock timeouts as retryable. Everything else, notably data
// exceptions, constraint violations and syntax errors, is not.
func ClassifyPgError(pgErr *pgconn.PgError) ErrorClassification {
	if pgErr == nil {
		return NonRetryable
	}

	switch {
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsTransactionRollback(pgErr.Code),
		pgerrcode.IsInsufficientResources(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code):
		return Retryable
	}

	switch pgErr.Code {
	case pgerrcode.LockNotAvailable:
		return Retryable
	}

	return NonRetryable
}
