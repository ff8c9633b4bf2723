// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides helpers shared by the client and the server:
// context keys, JSON responses, the resty client, JWT handling and id
// generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// IdentityIDCtxKey stores the authenticated identity id in a request context.
var IdentityIDCtxKey = contextKey("identityID")

// GetIdentityIDFromContext returns the identity id put into ctx by the auth
// middleware. ok is false if it is missing or empty.
func GetIdentityIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(IdentityIDCtxKey).(string)
	return id, ok && id != ""
}
