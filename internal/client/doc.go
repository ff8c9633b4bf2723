// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync client runtime.
//
// It wires the document store adapter, the local sqlite dataset and the
// sync coordinator into one process and exposes them as commands: push,
// pull, sync, watch, health, status and version. Long-running commands also
// start the background workers and, when configured, the metrics endpoint.
package client
