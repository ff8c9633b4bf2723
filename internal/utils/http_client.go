// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient embeds *resty.Client. Retries are left to the sync retry
// manager so the client never retries on its own.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client that sends and accepts JSON.
func NewHTTPClient() *HTTPClient {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &HTTPClient{Client: client}
}
