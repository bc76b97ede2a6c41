package transformer

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestClassifyStatusRetryability(t *testing.T) {
	cases := []struct {
		status    int
		reason    Reason
		retryable bool
	}{
		{http.StatusUnauthorized, ReasonAuth, false},
		{http.StatusForbidden, ReasonAuth, false},
		{http.StatusTooManyRequests, ReasonRateLimit, true},
		{http.StatusRequestTimeout, ReasonTimeout, true},
		{http.StatusBadRequest, ReasonInvalidRequest, false},
		{http.StatusInternalServerError, ReasonServerError, true},
		{http.StatusBadGateway, ReasonServerError, true},
	}
	for _, c := range cases {
		got := classifyStatus(c.status)
		if got != c.reason {
			t.Errorf("classifyStatus(%d) = %v, want %v", c.status, got, c.reason)
		}
		if got.Retryable() != c.retryable {
			t.Errorf("Reason(%v).Retryable() = %v, want %v", got, got.Retryable(), c.retryable)
		}
	}
}

func TestClassifyNetworkError(t *testing.T) {
	if classifyNetworkError(errors.New("dial tcp: i/o timeout")) != ReasonTimeout {
		t.Fatal("expected timeout")
	}
	if classifyNetworkError(errors.New("connection reset by peer")) != ReasonServerError {
		t.Fatal("expected server_error")
	}
	if classifyNetworkError(errors.New("something else")) != ReasonUnknown {
		t.Fatal("expected unknown")
	}
}

func TestNewNetworkErrorReturnsCancelledWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newNetworkError(ctx, "m", errors.New("boom"))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestNewNetworkErrorClassifiesWhenContextLive(t *testing.T) {
	err := newNetworkError(context.Background(), "m", errors.New("deadline exceeded"))
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if pe.Reason != ReasonTimeout {
		t.Fatalf("got reason %v", pe.Reason)
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	pe := &ProviderError{Model: "m", Reason: ReasonUnknown, Cause: cause}
	if !errors.Is(pe, cause) {
		t.Fatal("expected Unwrap to expose cause")
	}
}
