// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/MKhiriev/go-budget-sync/internal/clock"
	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length in bytes of keys accepted by the codec.
const KeySize = 32

type aesGCMCodec struct {
	// Argon2id tuning parameters.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8

	clock  clock.Clock
	random io.Reader
}

// NewCodec returns an AES-256-GCM [Codec] whose keys are derived with
// Argon2id (1 iteration, 64 MiB, 4 threads).
func NewCodec(clk clock.Clock) Codec {
	return &aesGCMCodec{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		clock:        clk,
		random:       rand.Reader,
	}
}

// DeriveKey implements [Codec].
func (c *aesGCMCodec) DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, c.argonTime, c.argonMemory, c.argonThreads, KeySize)
}

// Encrypt implements [Codec]. The IV is a random GCM nonce stored next to
// the ciphertext in the envelope.
func (c *aesGCMCodec) Encrypt(plaintext, key []byte, info models.ClientInfo) (models.EncryptedEnvelope, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return models.EncryptedEnvelope{}, fmt.Errorf("%w: %w", syncerr.ErrValidation, err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(c.random, iv); err != nil {
		return models.EncryptedEnvelope{}, fmt.Errorf("generate iv: %w", err)
	}

	return models.EncryptedEnvelope{
		Ciphertext: gcm.Seal(nil, iv, plaintext, nil),
		IV:         iv,
		Metadata: models.EnvelopeMetadata{
			Version:    models.EnvelopeVersion,
			ProducedAt: c.clock.Now().UTC(),
			ClientInfo: info,
		},
	}, nil
}

// Decrypt implements [Codec].
func (c *aesGCMCodec) Decrypt(env models.EncryptedEnvelope, key []byte) ([]byte, error) {
	if env.Metadata.Version != models.EnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", syncerr.ErrValidation, env.Metadata.Version)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", syncerr.ErrDecryption, err)
	}

	if len(env.IV) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: iv length %d, want %d", syncerr.ErrDecryption, len(env.IV), gcm.NonceSize())
	}
	if len(env.Ciphertext) < gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext truncated", syncerr.ErrDecryption)
	}

	// An authentication failure here almost always means a wrong passphrase.
	plaintext, err := gcm.Open(nil, env.IV, env.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", syncerr.ErrDecryption, err)
	}

	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key length %d, want %d", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Fingerprint returns the hex SHA-256 digest of data. It is used to verify
// chunks and reassembled ciphertexts.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BudgetSalt derives a stable, non-secret salt from a budget id so every
// device of the same budget derives the same key from the same passphrase.
func BudgetSalt(budgetID string) []byte {
	sum := sha256.Sum256([]byte("go-budget-sync/salt/" + budgetID))
	return sum[:16]
}
