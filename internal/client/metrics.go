// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/health"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/service"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetricsRouter serves prometheus metrics and JSON views of the sync
// health and status of c.
func newMetricsRouter(c *service.Coordinator) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(health.NewCollector(metricsNamespace, c.Monitor(), c.Retries()))

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, c.Health(), http.StatusOK)
	})
	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, c.Status(), http.StatusOK)
	})
	router.Get("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, c.Recommendations(), http.StatusOK)
	})

	return router
}

// metricsServer is a [workers.Worker] serving newMetricsRouter.
type metricsServer struct {
	server *http.Server
	logger *logger.Logger
}

func newMetricsServer(addr string, c *service.Coordinator, log *logger.Logger) *metricsServer {
	return &metricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           newMetricsRouter(c),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log.Component("metrics"),
	}
}

func (m *metricsServer) Run(ctx context.Context) {
	errCh := make(chan error, 1)
	go func() { errCh <- m.server.ListenAndServe() }()

	m.logger.Info().Str("address", m.server.Addr).Msg("metrics endpoint listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("metrics endpoint stopped")
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error().Err(err).Msg("metrics endpoint shutdown")
	}
}
