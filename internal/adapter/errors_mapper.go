// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"github.com/MKhiriev/go-budget-sync/models"
	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	remote := &RemoteError{Status: resp.StatusCode()}

	var body models.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && (body.Code != "" || body.Message != "") {
		remote.Code = body.Code
		remote.Message = body.Message
	} else {
		remote.Message = strings.TrimSpace(string(resp.Body()))
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(resp.StatusCode())
	}

	return remote
}

// transportError wraps a request that never produced a response.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, syncerr.ErrTransientTransport, err)
}
