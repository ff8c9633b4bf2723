// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	now := time.Now()

	token, err := GenerateJWTToken("budget-sync", "0190-identity", time.Hour, "secret-key", now)
	require.NoError(t, err)

	assert.NotEmpty(t, token.SignedString)
	assert.NotNil(t, token.Token)
	assert.Equal(t, "0190-identity", token.IdentityID)
	assert.Equal(t, "budget-sync", token.Issuer)
	assert.WithinDuration(t, now.Add(time.Hour), token.ExpiresAt.Time, time.Second)
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		subject  string
		duration time.Duration
		key      string
	}{
		{"empty issuer", "", "sub", time.Hour, "key"},
		{"empty subject", "iss", "", time.Hour, "key"},
		{"zero duration", "iss", "sub", 0, "key"},
		{"empty key", "iss", "sub", time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, tt.subject, tt.duration, tt.key, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestValidateAndParseJWTToken_RoundTrip(t *testing.T) {
	token, err := GenerateJWTToken("iss", "identity-1", time.Hour, "key", time.Now())
	require.NoError(t, err)

	parsed, err := ValidateAndParseJWTToken(token.SignedString, "key", "iss")
	require.NoError(t, err)
	assert.Equal(t, "identity-1", parsed.IdentityID)
	assert.Equal(t, token.SignedString, parsed.SignedString)
}

func TestValidateAndParseJWTToken_Rejects(t *testing.T) {
	valid, err := GenerateJWTToken("iss", "identity-1", time.Hour, "key", time.Now())
	require.NoError(t, err)
	expired, err := GenerateJWTToken("iss", "identity-1", time.Minute, "key", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{"wrong key", valid.SignedString, "other", "iss"},
		{"wrong issuer", valid.SignedString, "key", "someone-else"},
		{"expired", expired.SignedString, "key", "iss"},
		{"malformed", "not.a.jwt", "key", "iss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndParseJWTToken(tt.token, tt.key, tt.issuer)
			assert.Error(t, err)
		})
	}
}

func TestParseBearerToken(t *testing.T) {
	tok, err := ParseBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		_, err := ParseBearerToken(header)
		assert.Error(t, err, header)
	}
}
