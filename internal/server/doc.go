// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package server wires and runs the document store's transport servers.
//
// It owns the HTTP API and the optional gRPC health endpoint, including
// startup, signal handling, and graceful shutdown of all enabled transports.
package server
