// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors used by the handlers when rejecting a request before it
// reaches the service layer. Callers can match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header is not of the form "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON was passed")

	// ErrDocumentIDMismatch is returned when the id in the body of a PUT
	// differs from the id in the path.
	ErrDocumentIDMismatch = errors.New("document id in body does not match path")

	errInvalidGzipBody  = errors.New("invalid gzip request body")
	errMethodNotAllowed = errors.New("method not allowed")
	errRouteNotFound    = errors.New("route not found")
)
