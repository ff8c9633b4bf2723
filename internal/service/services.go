// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/store"
)

type Services struct {
	AuthService     AuthService
	DocumentService DocumentService
}

func NewServices(storages *store.Storages, cfg *config.ServerConfig, clk clock.Clock, logger *logger.Logger) *Services {
	documents := NewDocumentValidationService().Wrap(
		NewDocumentService(storages.DocumentRepository, logger),
	)

	return &Services{
		AuthService:     NewAuthService(cfg.Auth, clk, logger),
		DocumentService: documents,
	}
}
