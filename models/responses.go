// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ErrorResponse is the JSON body of every non-2xx response of the document
// store API. Code is a stable machine-readable value such as "unavailable"
// or "permission-denied".
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthResponse is returned by the anonymous sign-in endpoint.
type AuthResponse struct {
	IdentityID string    `json:"identityId"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ServiceHealth is returned by the document store health endpoint.
type ServiceHealth struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
