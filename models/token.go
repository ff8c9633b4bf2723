// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a JWT issued for an anonymous identity.
//
// It embeds [jwt.RegisteredClaims] so the subject and expiry are available
// after parsing. SignedString holds the compact form sent in the
// Authorization header.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	SignedString string `json:"-"`

	// IdentityID is the parsed "sub" claim.
	IdentityID string `json:"-"`
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}

// Identity is the authenticated principal held by the client after sign-in.
type Identity struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidAt reports whether the identity can still be used at now.
func (i Identity) ValidAt(now time.Time) bool {
	if i.ID == "" || i.Token == "" {
		return false
	}
	return i.ExpiresAt.IsZero() || now.Before(i.ExpiresAt)
}
