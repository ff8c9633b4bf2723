// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the merged raw configuration. Zero values mean "not
// set" so sources can be merged with mergo.
type StructuredConfig struct {
	Sync Sync `envPrefix:"SYNC_"`

	Auth Auth `envPrefix:"AUTH_"`

	Storage Storage `envPrefix:"STORAGE_"`

	Server Server `envPrefix:"SERVER_"`

	Adapter Adapter `envPrefix:"ADAPTER_"`

	Client Client `envPrefix:"CLIENT_"`

	Workers Workers `envPrefix:"WORKERS_"`

	JSONFilePath string `env:"CONFIG"`
}

// Sync tunes the reliability subsystem.
type Sync struct {
	MaxRetries int `env:"MAX_RETRIES"`

	BaseDelay time.Duration `env:"BASE_DELAY"`

	MaxDelay time.Duration `env:"MAX_DELAY"`

	Jitter *bool `env:"JITTER"`

	// DocumentSizeCeiling is the largest ciphertext in bytes stored in a
	// single document before chunking kicks in.
	DocumentSizeCeiling int `env:"DOCUMENT_SIZE_CEILING"`

	UnhealthyThreshold int `env:"UNHEALTHY_THRESHOLD"`

	DegradedThreshold float64 `env:"DEGRADED_THRESHOLD"`

	SlowThreshold time.Duration `env:"SLOW_THRESHOLD"`

	RecentSyncsCapacity int `env:"RECENT_SYNCS_CAPACITY"`

	AuthTimeout time.Duration `env:"AUTH_TIMEOUT"`

	// QueueCapacity bounds the offline queue; 0 means unbounded.
	QueueCapacity int `env:"QUEUE_CAPACITY"`

	QueueMaxAttempts int `env:"QUEUE_MAX_ATTEMPTS"`
}

// Auth configures identity tokens issued by the server.
type Auth struct {
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	TokenIssuer string `env:"TOKEN_ISSUER"`

	TokenDuration time.Duration `env:"TOKEN_DURATION"`
}

type Storage struct {
	// DB is the server-side postgres database. An empty DSN selects the
	// in-memory repository.
	DB DB `envPrefix:"DB_"`

	// Local is the client-side sqlite database holding the local dataset.
	Local Local `envPrefix:"LOCAL_"`
}

type DB struct {
	DSN string `env:"DATABASE_URI"`
}

type Local struct {
	DSN string `env:"DSN"`
}

type Server struct {
	HTTPAddress string `env:"ADDRESS"`
	// GRPCAddress enables the gRPC health endpoint when set.
	GRPCAddress string `env:"GRPC_ADDRESS"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

type Adapter struct {
	HTTPAddress string `env:"ADDRESS"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Client holds the session parameters of the sync client.
type Client struct {
	BudgetID string `env:"BUDGET_ID"`

	Passphrase string `env:"PASSPHRASE"`

	// MetricsAddress enables the /metrics and /health endpoint when set.
	MetricsAddress string `env:"METRICS_ADDRESS"`

	LogFile string `env:"LOG_FILE"`

	LogLevel string `env:"LOG_LEVEL"`
}

type Workers struct {
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// GetStructuredConfig merges env, flags and the JSON file.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
