// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/MKhiriev/go-budget-sync/internal/adapter"
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/crypto"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/service"
	"github.com/MKhiriev/go-budget-sync/internal/store"
	"github.com/MKhiriev/go-budget-sync/internal/workers"
	"github.com/MKhiriev/go-budget-sync/models"
)

// ClientName is stamped on every envelope this binary produces.
const ClientName = "go-budget-sync"

const metricsNamespace = "budgetsync"

type App struct {
	coordinator *service.Coordinator
	local       store.LocalStorage

	cfg   *config.ClientConfig
	clock clock.Clock
	build models.AppBuildInfo
	out   io.Writer
	in    io.Reader

	logger *logger.Logger
}

// NewApp connects the local dataset, builds the coordinator and starts a
// session for the configured budget.
func NewApp(ctx context.Context, cfg *config.ClientConfig, build models.AppBuildInfo, out io.Writer, log *logger.Logger) (*App, error) {
	storeAdapter, err := adapter.NewHTTPStoreAdapter(cfg.Adapter, log.Component("adapter"))
	if err != nil {
		return nil, fmt.Errorf("create store adapter: %w", err)
	}

	local, err := store.NewLocalStorage(ctx, cfg.Storage.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	app, err := newApp(ctx, cfg, build, storeAdapter, local, out, log)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	return app, nil
}

// remoteStore is what the coordinator needs from the store adapter.
type remoteStore interface {
	adapter.DocumentStore
	adapter.IdentityService
}

func newApp(
	ctx context.Context,
	cfg *config.ClientConfig,
	build models.AppBuildInfo,
	remote remoteStore,
	local store.LocalStorage,
	out io.Writer,
	log *logger.Logger,
) (*App, error) {
	clk := clock.New()
	coordinator := service.NewCoordinator(
		cfg.Sync,
		remote,
		remote,
		crypto.NewCodec(clk),
		local,
		clk,
		log.Component("coordinator"),
		service.WithClientInfo(build.ClientInfo(ClientName, runtime.GOOS+"/"+runtime.GOARCH)),
	)

	err := coordinator.Initialize(ctx, service.SessionParams{
		BudgetID:   cfg.Session.BudgetID,
		Passphrase: cfg.Session.Passphrase,
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	return &App{
		coordinator: coordinator,
		local:       local,
		cfg:         cfg,
		clock:       clk,
		build:       build,
		out:         out,
		in:          os.Stdin,
		logger:      log,
	}, nil
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage())
		return ErrNoCommand
	}

	cmd, rest := args[0], args[1:]
	a.logger.Debug().Str("command", cmd).Msg("running command")

	switch cmd {
	case "push":
		return a.push(ctx, argOrEmpty(rest))
	case "pull":
		return a.pull(ctx, argOrEmpty(rest))
	case "sync":
		return a.sync(ctx)
	case "watch":
		return a.watch(ctx)
	case "health":
		return a.health(ctx)
	case "reset":
		return a.reset(ctx, argOrEmpty(rest))
	case "status":
		fmt.Fprintln(a.out, renderStatus(a.coordinator.Status()))
		return nil
	case "version":
		fmt.Fprintln(a.out, renderBuildInfo(a.build))
		return nil
	default:
		fmt.Fprint(a.out, usage())
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

// Close stops the session and releases the local dataset.
func (a *App) Close() error {
	a.coordinator.Close()
	return a.local.Close()
}

// push stores the dataset read from path ("-" or empty for stdin) locally
// and saves it to the cloud.
func (a *App) push(ctx context.Context, path string) error {
	data, err := a.readInput(path)
	if err != nil {
		return err
	}

	if err = a.coordinator.StoreLocal(ctx, data); err != nil {
		return fmt.Errorf("store local copy: %w", err)
	}

	outcome, err := a.coordinator.SaveToCloud(ctx, data, models.SaveMetadata{})
	fmt.Fprintln(a.out, renderOutcome("push", outcome, err))
	return err
}

// pull loads the cloud copy, makes it the local dataset and writes it to
// path ("-" or empty for stdout).
func (a *App) pull(ctx context.Context, path string) error {
	data, found, err := a.coordinator.LoadFromCloud(ctx)
	if err != nil {
		fmt.Fprintln(a.out, renderOutcome("pull", service.SaveOutcome{}, err))
		return err
	}
	if !found {
		fmt.Fprintln(a.out, renderPage("PULL", "no cloud copy of this budget yet"))
		return nil
	}

	if err = a.coordinator.StoreLocal(ctx, data); err != nil {
		return fmt.Errorf("store local copy: %w", err)
	}
	return a.writeOutput(path, data)
}

func (a *App) sync(ctx context.Context) error {
	outcome, err := a.coordinator.ForceSync(ctx)
	fmt.Fprintln(a.out, renderOutcome("sync", outcome, err))
	return err
}

// reset deletes the cloud copy of the budget. The local dataset is kept.
func (a *App) reset(ctx context.Context, flag string) error {
	if flag != "--yes" {
		fmt.Fprintln(a.out, renderPage("RESET", warnStyle.Render("this deletes the cloud copy, run 'reset --yes' to confirm")))
		return ErrResetNotConfirmed
	}

	err := a.coordinator.ResetCloudData(ctx)
	fmt.Fprintln(a.out, renderReset(err))
	return err
}

func (a *App) health(ctx context.Context) error {
	snapshot := a.coordinator.Refresh(ctx)
	fmt.Fprintln(a.out, renderHealth(snapshot, a.coordinator.Recommendations()))
	fmt.Fprintln(a.out, renderStatus(a.coordinator.Status()))
	return nil
}

// watch applies remote changes to the local dataset and runs the background
// workers until ctx is done.
func (a *App) watch(ctx context.Context) error {
	events, cancelEvents := a.coordinator.Events()
	defer cancelEvents()
	go a.printEvents(ctx, events)

	unsubscribe, err := a.coordinator.Subscribe(ctx,
		func(data []byte) {
			if err := a.coordinator.StoreLocal(ctx, data); err != nil {
				a.logger.Err(err).Msg("apply remote change")
			}
		},
		func(err error) {
			a.logger.Warn().Err(err).Msg("change stream error")
		},
	)
	if err != nil {
		return err
	}
	defer unsubscribe()

	ws := workers.NewWorkers(
		workers.NewConnectivityProbe(a.coordinator, a.cfg.Workers.ProbeInterval, a.clock, a.logger),
		workers.NewAutoSync(a.coordinator, a.cfg.Workers.SyncInterval, a.clock, a.logger),
	)
	if addr := a.cfg.Observability.MetricsAddress; addr != "" {
		ws.Add(newMetricsServer(addr, a.coordinator, a.logger))
	}

	fmt.Fprintln(a.out, renderPage("WATCH", "watching "+a.cfg.Session.BudgetID+", interrupt to stop"))
	ws.Run(ctx)
	return nil
}

func (a *App) printEvents(ctx context.Context, events <-chan models.SyncEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintln(a.out, renderEvent(ev))
		}
	}
}

func (a *App) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (a *App) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.out.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(a.out, renderPage("PULL", fmt.Sprintf("%d bytes written to %s", len(data), path)))
	return nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// IsUsageError reports whether err came from a missing or unknown command.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrNoCommand) || errors.Is(err, ErrUnknownCommand)
}
