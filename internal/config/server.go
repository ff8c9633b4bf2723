// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

const (
	DefaultServerAddress = "localhost:8080"
	DefaultTokenIssuer   = "go-budget-sync"
	DefaultTokenDuration = 24 * time.Hour
)

// ServerConfig is the document store server view of [StructuredConfig].
type ServerConfig struct {
	Auth    Auth
	Server  Server
	Storage DB
}

// GetServerConfig builds and validates the server view.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := NewServerConfig(cfg)
	return serverCfg, serverCfg.validate()
}

// NewServerConfig maps cfg onto a [ServerConfig] filling in defaults.
func NewServerConfig(cfg *StructuredConfig) *ServerConfig {
	serverCfg := &ServerConfig{
		Auth:    cfg.Auth,
		Server:  cfg.Server,
		Storage: cfg.Storage.DB,
	}

	if serverCfg.Server.HTTPAddress == "" {
		serverCfg.Server.HTTPAddress = DefaultServerAddress
	}
	if serverCfg.Server.RequestTimeout == 0 {
		serverCfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if serverCfg.Auth.TokenIssuer == "" {
		serverCfg.Auth.TokenIssuer = DefaultTokenIssuer
	}
	if serverCfg.Auth.TokenDuration == 0 {
		serverCfg.Auth.TokenDuration = DefaultTokenDuration
	}

	return serverCfg
}

func (cfg *ServerConfig) validate() error {
	if cfg.Auth.TokenSignKey == "" {
		return fmt.Errorf("%w: token sign key is required", ErrInvalidAuthConfigs)
	}

	return nil
}
