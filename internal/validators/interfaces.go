// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks documents received by the store before they are
// persisted.
//
// The store never sees plaintext, so validation is structural only: ids,
// kinds, and the consistency between a document's kind and its body.
// Validation can be scoped to a subset of fields by name.
package validators

import "context"

// Validator validates obj, optionally restricted to the named fields.
type Validator interface {
	Validate(ctx context.Context, obj any, fields ...string) error
}
