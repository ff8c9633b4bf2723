// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
)

// NetAddress is a host:port flag value.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses os.Args into a StructuredConfig using flag.CommandLine.
// Positional arguments remain available through flag.Args.
func ParseFlags() *StructuredConfig {
	cfg, _ := parseFlags(flag.CommandLine, os.Args[1:])
	return cfg
}

func parseFlags(fs *flag.FlagSet, args []string) (*StructuredConfig, error) {
	var (
		cfg           StructuredConfig
		serverAddress NetAddress
		grpcAddress   NetAddress
	)

	fs.Var(&serverAddress, "a", "Server listen address host:port")
	fs.Var(&grpcAddress, "g", "Server gRPC health listen address host:port (empty disables)")
	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Server database DSN (postgres); empty keeps documents in memory")
	fs.StringVar(&cfg.Storage.Local.DSN, "local-dsn", "", "Client local sqlite DSN")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path (alias)")

	fs.StringVar(&cfg.Auth.TokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&cfg.Auth.TokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&cfg.Auth.TokenDuration, "token-duration", 0, "Token duration (e.g., 24h)")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", 0, "Server request timeout (e.g., 30s)")

	fs.StringVar(&cfg.Adapter.HTTPAddress, "store", "", "Document store base URL")
	fs.DurationVar(&cfg.Adapter.RequestTimeout, "store-timeout", 0, "Document store request timeout")

	fs.StringVar(&cfg.Client.BudgetID, "budget", "", "Budget id")
	fs.StringVar(&cfg.Client.Passphrase, "passphrase", "", "Encryption passphrase")
	fs.StringVar(&cfg.Client.MetricsAddress, "metrics-address", "", "Metrics listen address host:port")
	fs.StringVar(&cfg.Client.LogFile, "log-file", "", "Client log file path")
	fs.StringVar(&cfg.Client.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	fs.IntVar(&cfg.Sync.MaxRetries, "max-retries", 0, "Attempts per sync operation")
	fs.DurationVar(&cfg.Sync.BaseDelay, "base-delay", 0, "Initial retry backoff")
	fs.DurationVar(&cfg.Sync.MaxDelay, "max-delay", 0, "Maximum retry backoff")
	fs.Func("jitter", "Randomise retry backoff (true|false)", func(s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		cfg.Sync.Jitter = &v
		return nil
	})
	fs.IntVar(&cfg.Sync.DocumentSizeCeiling, "ceiling", 0, "Per-document ciphertext ceiling in bytes")
	fs.DurationVar(&cfg.Sync.AuthTimeout, "auth-timeout", 0, "Sign-in timeout")
	fs.IntVar(&cfg.Sync.QueueCapacity, "queue-capacity", 0, "Offline queue capacity (0 = unbounded)")

	fs.DurationVar(&cfg.Workers.ProbeInterval, "probe-interval", 0, "Connectivity probe interval")
	fs.DurationVar(&cfg.Workers.SyncInterval, "sync-interval", 0, "Automatic sync interval (0 disables)")

	if err := fs.Parse(args); err != nil {
		return &cfg, err
	}

	cfg.Server.HTTPAddress = serverAddress.String()
	cfg.Server.GRPCAddress = grpcAddress.String()
	return &cfg, nil
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
