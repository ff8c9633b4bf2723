// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-budget-sync/internal/client"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cfg, err := config.GetClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error getting configs:", err)
		os.Exit(2)
	}

	log := logger.NewClientLogger("go-budget-sync-client", cfg.Observability.LogFile).
		WithLevel(cfg.Observability.LogLevel)
	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app, err := client.NewApp(ctx, cfg, build, os.Stdout, log)
	if err != nil {
		log.Error().Err(err).Msg("init client app error")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = app.Run(ctx, flag.Args())
	if closeErr := app.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("close client app")
	}

	switch {
	case err == nil:
	case client.IsUsageError(err):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		log.Error().Err(err).Msg("client run error")
		os.Exit(1)
	}
}
