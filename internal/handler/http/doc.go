// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the REST and websocket surface of the document
// store server.
//
// It exposes anonymous sign-in, health, and per-document read, write and
// change-stream routes. Authentication, request tracing, access logging and
// response compression are handled here before requests are delegated to
// the service layer. Errors leave the package as [models.ErrorResponse]
// bodies so clients can classify them by code as well as status.
package http
