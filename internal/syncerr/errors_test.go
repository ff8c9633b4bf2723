// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/go-budget-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{name: "nil", err: nil, want: ""},
		{name: "auth", err: fmt.Errorf("sign in: %w", ErrAuthentication), want: ClassAuthentication},
		{name: "decryption", err: fmt.Errorf("open: %w", ErrDecryption), want: ClassDecryption},
		{name: "corrupt", err: ErrCorruptData, want: ClassCorruptData},
		{name: "validation", err: ErrValidation, want: ClassValidation},
		{name: "not initialized", err: ErrNotInitialized, want: ClassValidation},
		{name: "transient", err: fmt.Errorf("get: %w", ErrTransientTransport), want: ClassTransient},
		{name: "unknown", err: errors.New("boom"), want: ClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.err))
		})
	}
}

func TestOpError(t *testing.T) {
	cause := fmt.Errorf("chunk 2: %w", ErrCorruptData)
	err := NewOpError(models.OperationLoad, cause, false)

	var opErr *OpError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &opErr)
	assert.Equal(t, models.OperationLoad, opErr.Operation)
	assert.Equal(t, ClassCorruptData, opErr.Class)
	assert.False(t, opErr.Retryable)
	assert.ErrorIs(t, err, ErrCorruptData)
	assert.Equal(t, "load failed (corrupt_data): chunk 2: corrupt data", err.Error())
}
