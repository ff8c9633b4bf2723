// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/MKhiriev/go-budget-sync/internal/syncerr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Class is the retry decision for an error.
type Class int

const (
	Retryable Class = iota
	Fatal
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// Error categories reported in [models.RetryMetrics.ErrorsByType].
const (
	CategoryNetwork            = "network"
	CategoryTimeout            = "timeout"
	CategoryServiceUnavailable = "service_unavailable"
	CategoryServerError        = "server_error"
	CategoryRateLimited        = "rate_limited"
	CategoryClientError        = "client_error"
	CategoryPermissionDenied   = "permission_denied"
	CategoryAuthentication     = "authentication"
	CategoryDecryption         = "decryption"
	CategoryTransientDecrypt   = "transient_decrypt"
	CategoryCorruptData        = "corrupt_data"
	CategoryValidation         = "validation"
	CategoryCancelled          = "cancelled"
	CategoryUnknown            = "unknown"
)

// Classification is the outcome of [Policy.Classify].
type Classification struct {
	Class    Class
	Category string
}

// Retryable reports whether the error may be retried.
func (c Classification) Retryable() bool {
	return c.Class == Retryable
}

// HTTPStatusError is implemented by transport errors that carry an HTTP
// status code.
type HTTPStatusError interface {
	HTTPStatus() int
}

// ServiceCodeError is implemented by transport errors that carry a remote
// service code such as "unavailable" or "permission-denied".
type ServiceCodeError interface {
	ServiceCode() string
}

// Policy decides which errors are worth retrying.
//
// Typed fatal classes always win. Unrecognised errors are treated as
// retryable, which can waste the backoff budget on a permanent failure but
// never gives up on a transient one.
type Policy struct {
	transientMessages []string
}

// NewPolicy returns the default classification policy.
func NewPolicy() *Policy {
	return &Policy{
		transientMessages: []string{
			"data too small",
			"data is too small",
			"unexpected end of json input",
		},
	}
}

var serviceCodes = map[string]Classification{
	"unavailable":         {Retryable, CategoryServiceUnavailable},
	"deadline-exceeded":   {Retryable, CategoryTimeout},
	"resource-exhausted":  {Retryable, CategoryRateLimited},
	"aborted":             {Retryable, CategoryServerError},
	"internal":            {Retryable, CategoryServerError},
	"cancelled":           {Retryable, CategoryServerError},
	"permission-denied":   {Fatal, CategoryPermissionDenied},
	"unauthenticated":     {Fatal, CategoryAuthentication},
	"invalid-argument":    {Fatal, CategoryClientError},
	"not-found":           {Fatal, CategoryClientError},
	"failed-precondition": {Fatal, CategoryClientError},
}

var grpcCodes = map[codes.Code]string{
	codes.Unavailable:        "unavailable",
	codes.DeadlineExceeded:   "deadline-exceeded",
	codes.ResourceExhausted:  "resource-exhausted",
	codes.Aborted:            "aborted",
	codes.Internal:           "internal",
	codes.Canceled:           "cancelled",
	codes.PermissionDenied:   "permission-denied",
	codes.Unauthenticated:    "unauthenticated",
	codes.InvalidArgument:    "invalid-argument",
	codes.NotFound:           "not-found",
	codes.FailedPrecondition: "failed-precondition",
}

// Classify returns the retry decision for err.
func (p *Policy) Classify(err error) Classification {
	if c, ok := classifyTyped(err); ok {
		return c
	}

	var se ServiceCodeError
	if errors.As(err, &se) {
		if c, known := serviceCodes[strings.ToLower(se.ServiceCode())]; known {
			return c
		}
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.OK {
		if code, known := grpcCodes[s.Code()]; known {
			return serviceCodes[code]
		}
	}

	var he HTTPStatusError
	if errors.As(err, &he) {
		return classifyHTTPStatus(he.HTTPStatus())
	}

	if c, ok := classifyNetwork(err); ok {
		return c
	}

	msg := strings.ToLower(err.Error())
	for _, m := range p.transientMessages {
		if strings.Contains(msg, m) {
			return Classification{Retryable, CategoryTransientDecrypt}
		}
	}

	return Classification{Retryable, CategoryUnknown}
}

func classifyTyped(err error) (Classification, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return Classification{Fatal, CategoryCancelled}, true
	case errors.Is(err, syncerr.ErrAuthentication):
		return Classification{Fatal, CategoryAuthentication}, true
	case errors.Is(err, syncerr.ErrDecryption):
		return Classification{Fatal, CategoryDecryption}, true
	case errors.Is(err, syncerr.ErrCorruptData):
		return Classification{Fatal, CategoryCorruptData}, true
	case errors.Is(err, syncerr.ErrValidation),
		errors.Is(err, syncerr.ErrNotInitialized),
		errors.Is(err, syncerr.ErrQueueFull):
		return Classification{Fatal, CategoryValidation}, true
	case errors.Is(err, syncerr.ErrTransientTransport):
		return Classification{Retryable, CategoryNetwork}, true
	case errors.Is(err, context.DeadlineExceeded):
		return Classification{Retryable, CategoryTimeout}, true
	}
	return Classification{}, false
}

func classifyHTTPStatus(code int) Classification {
	switch {
	case code == http.StatusRequestTimeout:
		return Classification{Retryable, CategoryTimeout}
	case code == http.StatusTooManyRequests:
		return Classification{Retryable, CategoryRateLimited}
	case code == http.StatusServiceUnavailable:
		return Classification{Retryable, CategoryServiceUnavailable}
	case code >= http.StatusInternalServerError:
		return Classification{Retryable, CategoryServerError}
	case code == http.StatusUnauthorized:
		return Classification{Fatal, CategoryAuthentication}
	case code == http.StatusForbidden:
		return Classification{Fatal, CategoryPermissionDenied}
	case code >= http.StatusBadRequest:
		return Classification{Fatal, CategoryClientError}
	}
	return Classification{Retryable, CategoryUnknown}
}

func classifyNetwork(err error) (Classification, bool) {
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return Classification{Retryable, CategoryTimeout}, true
		}
		return Classification{Retryable, CategoryNetwork}, true
	}

	switch {
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return Classification{Retryable, CategoryNetwork}, true
	}
	return Classification{}, false
}
