// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/config"
	"github.com/MKhiriev/go-budget-sync/internal/logger"
	"github.com/MKhiriev/go-budget-sync/internal/utils"
	"github.com/MKhiriev/go-budget-sync/models"
)

// authService issues JWTs for anonymous identities. There is no user
// registry: every sign-in mints a new identity id.
type authService struct {
	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	clock clock.Clock
	ids   IDGenerator

	logger *logger.Logger
}

// NewAuthService constructs an AuthService from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(cfg config.Auth, clk clock.Clock, logger *logger.Logger) AuthService {
	return &authService{
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		clock:         clk,
		ids:           utils.NewUUIDGenerator(),
		logger:        logger,
	}
}

// SignInAnonymously creates a new identity and issues a token for it.
func (a *authService) SignInAnonymously(ctx context.Context) (models.Token, error) {
	identityID := a.ids.Generate()

	token, err := utils.GenerateJWTToken(a.tokenIssuer, identityID, a.tokenDuration, a.tokenSignKey, a.clock.Now())
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("token creation failed")
		return models.Token{}, fmt.Errorf("token creation failed: %w", err)
	}

	a.logger.Info().Str("identity_id", identityID).Msg("anonymous identity issued")
	return token, nil
}

// ParseToken validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed) is normalised to
// ErrInvalidToken so that callers do not need to inspect low-level JWT
// errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Msg("token rejected")
		return models.Token{}, ErrInvalidToken
	}

	return token, nil
}
