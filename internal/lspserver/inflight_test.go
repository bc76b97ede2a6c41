package lspserver

import (
	"context"
	"testing"
)

func TestInFlightRegistryCancelCancelsContext(t *testing.T) {
	r := NewInFlightRegistry()
	ctx, req := r.Start(context.Background(), "req-1")

	r.Cancel("req-1")

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled")
	}
	if !req.Cancelled() {
		t.Fatal("expected request to report cancelled")
	}
}

func TestInFlightRegistryCancelUnknownIDIsNoOp(t *testing.T) {
	r := NewInFlightRegistry()
	r.Cancel("never-started")
}

func TestInFlightRegistryDoneRemovesEntry(t *testing.T) {
	r := NewInFlightRegistry()
	r.Start(context.Background(), "req-1")
	if r.Len() != 1 {
		t.Fatalf("got %d in flight, want 1", r.Len())
	}
	r.Done("req-1")
	if r.Len() != 0 {
		t.Fatalf("got %d in flight, want 0", r.Len())
	}
}

func TestInFlightRegistryCancelIsIdempotent(t *testing.T) {
	r := NewInFlightRegistry()
	_, req := r.Start(context.Background(), "req-1")
	req.Cancel()
	req.Cancel()
	if !req.Cancelled() {
		t.Fatal("expected cancelled")
	}
}
