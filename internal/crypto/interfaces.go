// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto implements the client-side encryption codec. The remote
// store only ever receives [models.EncryptedEnvelope] values produced here;
// the key never leaves process memory.
package crypto

import "github.com/MKhiriev/go-budget-sync/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/codec_mock.go -package=mock

// Codec encrypts and decrypts sync payloads.
//
// Key derivation is deterministic: the same passphrase and salt always yield
// the same key, so a second device can re-derive it without the key ever
// being transmitted.
type Codec interface {
	// DeriveKey stretches passphrase with salt into a 256-bit key.
	DeriveKey(passphrase string, salt []byte) []byte

	// Encrypt seals plaintext under key with a fresh IV.
	Encrypt(plaintext, key []byte, info models.ClientInfo) (models.EncryptedEnvelope, error)

	// Decrypt opens env with key. A wrong key or a malformed/truncated
	// ciphertext or IV yields an error wrapping [syncerr.ErrDecryption];
	// unsupported metadata yields [syncerr.ErrValidation].
	Decrypt(env models.EncryptedEnvelope, key []byte) ([]byte, error)
}
