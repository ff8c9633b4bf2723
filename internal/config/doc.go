// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config loads runtime configuration for the sync client and the
// document store server.
//
// Values come from three sources merged in priority order: environment
// variables, command-line flags, then an optional JSON file named by -c,
// -config or CONFIG. A field set by a higher-priority source is never
// overwritten by a lower one. GetClientConfig and GetServerConfig fill
// defaults and validate the resulting view.
package config
