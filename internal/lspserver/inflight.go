// Package lspserver implements the LSP dispatcher (C9): Content-Length
// framed JSON-RPC transport, a bounded request worker pool, a sequential
// notification writer, inline-completion debouncing, and cancellation.
package lspserver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// InFlightRequest is one request currently being served: its id, when it
// started, and the cancellation plumbing $/cancelRequest flips.
type InFlightRequest struct {
	ID        any
	StartedAt time.Time

	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Cancel flags the request cancelled and cancels its context. Safe to
// call more than once or concurrently with the request completing
// normally — whichever happens first wins.
func (r *InFlightRequest) Cancel() {
	if r.cancelled.CompareAndSwap(false, true) {
		r.cancel()
	}
}

// Cancelled reports whether Cancel has been called for this request.
func (r *InFlightRequest) Cancelled() bool { return r.cancelled.Load() }

// InFlightRegistry holds every request currently being served, keyed by
// its JSON-RPC id. At most one entry per id.
type InFlightRegistry struct {
	mu   sync.Mutex
	byID map[any]*InFlightRequest
}

// NewInFlightRegistry returns an empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{byID: make(map[any]*InFlightRequest)}
}

// Start registers id as in flight and returns a context derived from ctx
// that Cancel(id) (via the registry or the returned *InFlightRequest)
// will cancel. The caller must call Done(id) once the request completes,
// whether normally or via cancellation.
func (r *InFlightRegistry) Start(ctx context.Context, id any) (context.Context, *InFlightRequest) {
	cctx, cancel := context.WithCancel(ctx)
	req := &InFlightRequest{ID: id, StartedAt: time.Now(), cancel: cancel}

	r.mu.Lock()
	r.byID[id] = req
	r.mu.Unlock()

	return cctx, req
}

// Done removes id's entry. Safe to call even if id was never started.
func (r *InFlightRegistry) Done(id any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// Cancel flags the in-flight request named by id, if one is registered.
// An unknown id (already completed, or a stale duplicate cancellation) is
// a no-op — editors are allowed to send a redundant or late
// $/cancelRequest.
func (r *InFlightRegistry) Cancel(id any) {
	r.mu.Lock()
	req, ok := r.byID[id]
	r.mu.Unlock()
	if ok {
		req.Cancel()
	}
}

// Len reports how many requests are currently in flight, for tests and
// diagnostics.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
