// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// EnvelopeVersion is the only envelope format the codec currently produces
// and accepts.
const EnvelopeVersion = 1

// ClientInfo identifies the client build that produced an envelope. It is
// informational only and never used for key material.
type ClientInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform,omitempty"`
}

// EnvelopeMetadata is the non-secret part of an [EncryptedEnvelope].
type EnvelopeMetadata struct {
	Version    int        `json:"version"`
	ProducedAt time.Time  `json:"producedAt"`
	ClientInfo ClientInfo `json:"clientInfo"`
}

// EncryptedEnvelope is the unit produced by a single encryption. The remote
// store only ever sees envelopes; plaintext never leaves the client.
type EncryptedEnvelope struct {
	Ciphertext []byte           `json:"ciphertext"`
	IV         []byte           `json:"iv"`
	Metadata   EnvelopeMetadata `json:"metadata"`
}
