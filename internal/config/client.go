// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// Defaults applied to the client view when a source leaves a field unset.
const (
	DefaultMaxRetries          = 3
	DefaultBaseDelay           = time.Second
	DefaultMaxDelay            = 16 * time.Second
	DefaultDocumentSizeCeiling = 900 * 1024
	DefaultUnhealthyThreshold  = 5
	DefaultDegradedThreshold   = 0.25
	DefaultSlowThreshold       = 10 * time.Second
	DefaultRecentSyncsCapacity = 50
	DefaultAuthTimeout         = 10 * time.Second
	DefaultQueueMaxAttempts    = 3
	DefaultRequestTimeout      = 30 * time.Second
	DefaultProbeInterval       = 15 * time.Second
	DefaultLocalDSN            = "file:budget-sync.db?_foreign_keys=on"
)

// SyncConfig is the resolved reliability configuration.
type SyncConfig struct {
	MaxRetries          int
	BaseDelay           time.Duration
	MaxDelay            time.Duration
	Jitter              bool
	DocumentSizeCeiling int
	UnhealthyThreshold  int
	DegradedThreshold   float64
	SlowThreshold       time.Duration
	RecentSyncsCapacity int
	AuthTimeout         time.Duration
	QueueCapacity       int
	QueueMaxAttempts    int
}

// ClientAdapter holds network settings of the remote document store.
type ClientAdapter struct {
	HTTPAddress    string
	RequestTimeout time.Duration
}

// ClientSession identifies the budget being synchronized.
type ClientSession struct {
	BudgetID   string
	Passphrase string
}

type ClientStorage struct {
	// DSN is the sqlite connection string of the local dataset.
	DSN string
}

type ClientWorkers struct {
	ProbeInterval time.Duration
	// SyncInterval of zero disables automatic sync.
	SyncInterval time.Duration
}

type ClientObservability struct {
	MetricsAddress string
	LogFile        string
	LogLevel       string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	Sync          SyncConfig
	Adapter       ClientAdapter
	Session       ClientSession
	Storage       ClientStorage
	Workers       ClientWorkers
	Observability ClientObservability
}

// DefaultSyncConfig returns the reliability defaults.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		MaxRetries:          DefaultMaxRetries,
		BaseDelay:           DefaultBaseDelay,
		MaxDelay:            DefaultMaxDelay,
		Jitter:              true,
		DocumentSizeCeiling: DefaultDocumentSizeCeiling,
		UnhealthyThreshold:  DefaultUnhealthyThreshold,
		DegradedThreshold:   DefaultDegradedThreshold,
		SlowThreshold:       DefaultSlowThreshold,
		RecentSyncsCapacity: DefaultRecentSyncsCapacity,
		AuthTimeout:         DefaultAuthTimeout,
		QueueMaxAttempts:    DefaultQueueMaxAttempts,
	}
}

// GetClientConfig builds and validates the client view of the merged
// configuration.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps cfg onto a [ClientConfig] filling in defaults.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	sync := DefaultSyncConfig()
	s := cfg.Sync
	setInt(&sync.MaxRetries, s.MaxRetries)
	setDuration(&sync.BaseDelay, s.BaseDelay)
	setDuration(&sync.MaxDelay, s.MaxDelay)
	if s.Jitter != nil {
		sync.Jitter = *s.Jitter
	}
	setInt(&sync.DocumentSizeCeiling, s.DocumentSizeCeiling)
	setInt(&sync.UnhealthyThreshold, s.UnhealthyThreshold)
	if s.DegradedThreshold > 0 {
		sync.DegradedThreshold = s.DegradedThreshold
	}
	setDuration(&sync.SlowThreshold, s.SlowThreshold)
	setInt(&sync.RecentSyncsCapacity, s.RecentSyncsCapacity)
	setDuration(&sync.AuthTimeout, s.AuthTimeout)
	setInt(&sync.QueueCapacity, s.QueueCapacity)
	setInt(&sync.QueueMaxAttempts, s.QueueMaxAttempts)

	clientCfg := &ClientConfig{
		Sync: sync,
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Session: ClientSession{
			BudgetID:   cfg.Client.BudgetID,
			Passphrase: cfg.Client.Passphrase,
		},
		Storage: ClientStorage{DSN: cfg.Storage.Local.DSN},
		Workers: ClientWorkers{
			ProbeInterval: cfg.Workers.ProbeInterval,
			SyncInterval:  cfg.Workers.SyncInterval,
		},
		Observability: ClientObservability{
			MetricsAddress: cfg.Client.MetricsAddress,
			LogFile:        cfg.Client.LogFile,
			LogLevel:       cfg.Client.LogLevel,
		},
	}
	if clientCfg.Adapter.RequestTimeout == 0 {
		clientCfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if clientCfg.Workers.ProbeInterval == 0 {
		clientCfg.Workers.ProbeInterval = DefaultProbeInterval
	}
	if clientCfg.Storage.DSN == "" {
		clientCfg.Storage.DSN = DefaultLocalDSN
	}

	return clientCfg
}

func (cfg *ClientConfig) validate() error {
	if cfg.Adapter.HTTPAddress == "" {
		return fmt.Errorf("%w: store address is required", ErrInvalidAdapterConfigs)
	}
	if cfg.Session.BudgetID == "" || cfg.Session.Passphrase == "" {
		return fmt.Errorf("%w: budget id and passphrase are required", ErrInvalidClientConfigs)
	}
	if cfg.Storage.DSN == "" || cfg.Storage.DSN == ":memory:" {
		return ErrInvalidStorageConfigs
	}

	return cfg.Sync.Validate()
}

// Validate reports settings that would make the sync misbehave.
func (s SyncConfig) Validate() error {
	switch {
	case s.MaxRetries < 1:
		return fmt.Errorf("%w: max retries must be at least 1", ErrInvalidSyncConfigs)
	case s.BaseDelay <= 0 || s.MaxDelay < s.BaseDelay:
		return fmt.Errorf("%w: delays must satisfy 0 < base <= max", ErrInvalidSyncConfigs)
	case s.DocumentSizeCeiling <= 0:
		return fmt.Errorf("%w: document size ceiling must be positive", ErrInvalidSyncConfigs)
	case s.DegradedThreshold <= 0 || s.DegradedThreshold > 1:
		return fmt.Errorf("%w: degraded threshold must be in (0, 1]", ErrInvalidSyncConfigs)
	case s.QueueCapacity < 0:
		return fmt.Errorf("%w: queue capacity must not be negative", ErrInvalidSyncConfigs)
	}

	return nil
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
