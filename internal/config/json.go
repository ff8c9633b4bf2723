// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors StructuredConfig with JSON tags and
// [Duration] values that accept "30s" or nanoseconds.
type StructuredJSONConfig struct {
	Sync struct {
		MaxRetries          int      `json:"max_retries"`
		BaseDelay           Duration `json:"base_delay"`
		MaxDelay            Duration `json:"max_delay"`
		Jitter              *bool    `json:"jitter"`
		DocumentSizeCeiling int      `json:"document_size_ceiling"`
		UnhealthyThreshold  int      `json:"unhealthy_threshold"`
		DegradedThreshold   float64  `json:"degraded_threshold"`
		SlowThreshold       Duration `json:"slow_threshold"`
		RecentSyncsCapacity int      `json:"recent_syncs_capacity"`
		AuthTimeout         Duration `json:"auth_timeout"`
		QueueCapacity       int      `json:"queue_capacity"`
		QueueMaxAttempts    int      `json:"queue_max_attempts"`
	} `json:"sync"`

	Auth struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
	} `json:"auth"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db"`
		Local struct {
			DSN string `json:"dsn"`
		} `json:"local"`
	} `json:"storage"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter"`

	Client struct {
		BudgetID       string `json:"budget_id"`
		Passphrase     string `json:"passphrase"`
		MetricsAddress string `json:"metrics_address"`
		LogFile        string `json:"log_file"`
		LogLevel       string `json:"log_level"`
	} `json:"client"`

	Workers struct {
		ProbeInterval Duration `json:"probe_interval"`
		SyncInterval  Duration `json:"sync_interval"`
	} `json:"workers"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return &StructuredConfig{
		Sync: Sync{
			MaxRetries:          j.Sync.MaxRetries,
			BaseDelay:           time.Duration(j.Sync.BaseDelay),
			MaxDelay:            time.Duration(j.Sync.MaxDelay),
			Jitter:              j.Sync.Jitter,
			DocumentSizeCeiling: j.Sync.DocumentSizeCeiling,
			UnhealthyThreshold:  j.Sync.UnhealthyThreshold,
			DegradedThreshold:   j.Sync.DegradedThreshold,
			SlowThreshold:       time.Duration(j.Sync.SlowThreshold),
			RecentSyncsCapacity: j.Sync.RecentSyncsCapacity,
			AuthTimeout:         time.Duration(j.Sync.AuthTimeout),
			QueueCapacity:       j.Sync.QueueCapacity,
			QueueMaxAttempts:    j.Sync.QueueMaxAttempts,
		},
		Auth: Auth{
			TokenSignKey:  j.Auth.TokenSignKey,
			TokenIssuer:   j.Auth.TokenIssuer,
			TokenDuration: time.Duration(j.Auth.TokenDuration),
		},
		Storage: Storage{
			DB:    DB{DSN: j.Storage.DB.DSN},
			Local: Local{DSN: j.Storage.Local.DSN},
		},
		Server: Server{
			HTTPAddress:    j.Server.HTTPAddress,
			GRPCAddress:    j.Server.GRPCAddress,
			RequestTimeout: time.Duration(j.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    j.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(j.Adapter.RequestTimeout),
		},
		Client: Client{
			BudgetID:       j.Client.BudgetID,
			Passphrase:     j.Client.Passphrase,
			MetricsAddress: j.Client.MetricsAddress,
			LogFile:        j.Client.LogFile,
			LogLevel:       j.Client.LogLevel,
		},
		Workers: Workers{
			ProbeInterval: time.Duration(j.Workers.ProbeInterval),
			SyncInterval:  time.Duration(j.Workers.SyncInterval),
		},
	}, nil
}

// Duration decodes either a Go duration string ("1m30s") or a number of
// nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
