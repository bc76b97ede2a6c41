package action

import "errors"

// ConfigError means the request named an unknown model or a malformed
// action. The dispatcher (C9) turns this into an RPC error to the editor.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// DocumentError means the request named an unknown document URI or an
// out-of-range position. For textDocument/completion
// this is an ordinary editor race (the buffer may have closed or moved
// mid-flight) and the caller degrades to an empty result; for the
// explicit textDocument/generation command there is no race to tolerate,
// so it propagates to the dispatcher (C9) as an RPC error instead.
type DocumentError struct {
	Message string
}

func (e *DocumentError) Error() string { return e.Message }

// BackendError wraps an adapter failure that survived its retries. The
// dispatcher returns an RPC error carrying Cause's message.
type BackendError struct {
	Cause error
}

func (e *BackendError) Error() string { return e.Cause.Error() }
func (e *BackendError) Unwrap() error { return e.Cause }

// ErrCancelled is returned when the request's context was cancelled at a
// suspension point (rate limit acquire, adapter call). It is never logged.
// textDocument/completion turns it into an empty completion list; every
// other request returns it to the dispatcher, which sends it back as an
// error reply.
var ErrCancelled = errors.New("action: cancelled")
