// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

var (
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	ErrInvalidSyncConfigs    = errors.New("invalid sync configuration")
	ErrInvalidClientConfigs  = errors.New("invalid client configuration")
	ErrInvalidAuthConfigs    = errors.New("invalid auth configuration")
)
