// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-budget-sync/internal/validators"
	"github.com/MKhiriev/go-budget-sync/models"
)

// MaxStoredPayload is the largest ciphertext or chunk the store accepts.
// It leaves headroom above the client's default chunk ceiling.
const MaxStoredPayload = 1 << 20

// DocumentValidationService rejects malformed documents and ids before they
// reach the wrapped service.
type DocumentValidationService struct {
	inner     DocumentService
	validator validators.Validator
}

func NewDocumentValidationService() DocumentServiceWrapper {
	return &DocumentValidationService{
		validator: validators.NewDocumentValidator(MaxStoredPayload),
	}
}

func (v *DocumentValidationService) GetDocument(ctx context.Context, id string) (models.Document, error) {
	if err := v.validator.Validate(ctx, id); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return v.inner.GetDocument(ctx, id)
}

func (v *DocumentValidationService) PutDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	if err := v.validator.Validate(ctx, doc); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return v.inner.PutDocument(ctx, doc)
}

func (v *DocumentValidationService) DeleteDocument(ctx context.Context, id string) error {
	if err := v.validator.Validate(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return v.inner.DeleteDocument(ctx, id)
}

func (v *DocumentValidationService) WatchDocument(ctx context.Context, id string) (<-chan models.Document, error) {
	if err := v.validator.Validate(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return v.inner.WatchDocument(ctx, id)
}

func (v *DocumentValidationService) Ping(ctx context.Context) error {
	return v.inner.Ping(ctx)
}

func (v *DocumentValidationService) Wrap(inner DocumentService) DocumentService {
	v.inner = inner
	return v
}
