// Package transformer implements the per-model adapters (C5) that send a
// built prompt to a backend and return its completion text.
//
// A provider-per-file layout with a shared ProviderError/Reason taxonomy.
// Reasons are kept to the ones that affect retry behavior — a model entry
// names exactly one backend and there is no multi-provider fallback path,
// so billing/content-filter/model-unavailable/failover distinctions don't
// apply here.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Reason categorizes why an adapter call failed.
type Reason string

const (
	ReasonRateLimit      Reason = "rate_limit"
	ReasonAuth           Reason = "auth"
	ReasonTimeout        Reason = "timeout"
	ReasonServerError    Reason = "server_error"
	ReasonInvalidRequest Reason = "invalid_request"
	ReasonCancelled      Reason = "cancelled"
	ReasonUnknown        Reason = "unknown"
)

// Retryable reports whether another attempt is worth making. Rate limits,
// timeouts and server errors are transient; auth failures and malformed
// requests will fail again identically, and cancellation must never be
// retried.
func (r Reason) Retryable() bool {
	switch r {
	case ReasonRateLimit, ReasonTimeout, ReasonServerError:
		return true
	default:
		return false
	}
}

// ProviderError is the error type every adapter returns on failure.
type ProviderError struct {
	Model   string
	Status  int
	Reason  Reason
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Reason))
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ErrCancelled is returned (wrapped) instead of a generic ProviderError
// when a call fails because the caller's context is done. A cancellation
// that backoff.Retry notices before an attempt or during its sleep comes
// back as the context's own error instead.
var ErrCancelled = errors.New("transformer: call cancelled")

// newError builds a ProviderError from a status code, classifying it.
func newError(model string, status int, cause error) *ProviderError {
	e := &ProviderError{Model: model, Status: status, Cause: cause, Reason: classifyStatus(status)}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// newNetworkError builds a ProviderError from a transport-level failure
// (no HTTP status available), classifying it from ctx state and the error
// text.
func newNetworkError(ctx context.Context, model string, cause error) error {
	if ctx.Err() != nil || errors.Is(cause, context.Canceled) {
		return fmt.Errorf("%w: %s", ErrCancelled, cause)
	}
	return &ProviderError{Model: model, Reason: classifyNetworkError(cause), Message: cause.Error(), Cause: cause}
}

// classifyStatus maps an HTTP status code to a Reason.
func classifyStatus(status int) Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusRequestTimeout:
		return ReasonTimeout
	case status >= 400 && status < 500:
		return ReasonInvalidRequest
	case status >= 500:
		return ReasonServerError
	default:
		return ReasonUnknown
	}
}

// classifyNetworkError classifies a transport-level error (dial/read
// timeouts, connection reset) that never reached an HTTP status.
func classifyNetworkError(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return ReasonTimeout
	case strings.Contains(s, "connection refused") || strings.Contains(s, "connection reset") || strings.Contains(s, "eof"):
		return ReasonServerError
	default:
		return ReasonUnknown
	}
}
