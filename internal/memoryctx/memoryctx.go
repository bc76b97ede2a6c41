// Package memoryctx supplies the retrieval-augmented context string that
// prompt.Builder threads into every request. It defines the seam the action
// engine calls (Provider) plus two implementations: a no-op file_store
// variant and a PostgreSQL/pgvector-backed one.
package memoryctx

import (
	"context"

	"github.com/lspai/lsp-ai/internal/rope"
)

// Provider answers a (snapshot, cursor) query with the context string a
// prompt should be enriched with. An empty string with a nil error means
// "nothing relevant found," not an error.
type Provider interface {
	Context(ctx context.Context, snap rope.Snapshot, pos rope.Position) (string, error)
}

// NoOp is the file_store memory variant: there is no corpus to search, so
// every request gets an empty context string.
type NoOp struct{}

func (NoOp) Context(context.Context, rope.Snapshot, rope.Position) (string, error) {
	return "", nil
}
