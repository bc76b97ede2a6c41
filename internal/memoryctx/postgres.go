package memoryctx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/lspai/lsp-ai/internal/rope"
)

// Embedder turns a piece of source text into the vector space the chunks
// table was indexed under. What gets embedded and how the corpus is
// populated is left to the caller; this package only runs the query side.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PostgresConfig configures the postgresml memory variant.
type PostgresConfig struct {
	// Dimension must match the vector column's declared width.
	Dimension int
	// QueryChars bounds how much of the prefix before the cursor is fed to
	// Embedder as the query text. Zero uses a 2000-character default.
	QueryChars int
	// TopK caps how many chunks are retrieved per query. Zero uses 5.
	TopK int
}

// Postgres is the postgresml memory variant: a pgvector-indexed chunks
// table queried by cosine distance against the embedded text immediately
// before the cursor.
//
// This is a thin, best-effort retrieval layer, not a certified RAG
// pipeline — what populates the chunks table is outside this package.
type Postgres struct {
	pool     *pgxpool.Pool
	embedder Embedder
	cfg      PostgresConfig
}

// NewPostgres connects to dsn, registers pgvector's wire codec on every
// connection, and ensures the chunks table exists.
func NewPostgres(ctx context.Context, dsn string, embedder Embedder, cfg PostgresConfig) (*Postgres, error) {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	if cfg.QueryChars <= 0 {
		cfg.QueryChars = 2000
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("memoryctx: parse dsn: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("memoryctx: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("memoryctx: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS memory_chunks (
			id        BIGSERIAL PRIMARY KEY,
			uri       TEXT      NOT NULL,
			content   TEXT      NOT NULL,
			embedding vector(%d) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memory_chunks_embedding
			ON memory_chunks USING hnsw (embedding vector_cosine_ops);
	`, cfg.Dimension)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("memoryctx: ensure schema: %w", err)
	}

	return &Postgres{pool: pool, embedder: embedder, cfg: cfg}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// IndexChunk inserts a pre-embedded snippet of source into the chunks
// table so it becomes eligible for later retrieval. Every call adds a new
// row; existing rows for the same uri are not updated or replaced.
func (p *Postgres) IndexChunk(ctx context.Context, uri, content string, embedding []float32) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO memory_chunks (uri, content, embedding) VALUES ($1, $2, $3)`,
		uri, content, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("memoryctx: index chunk: %w", err)
	}
	return nil
}

// Context implements Provider: it embeds the text immediately before the
// cursor, finds the TopK nearest chunks by cosine distance, and formats
// them as commented code blocks for the prompt builder to splice in.
func (p *Postgres) Context(ctx context.Context, snap rope.Snapshot, pos rope.Position) (string, error) {
	slice, err := snap.Slice(pos, p.cfg.QueryChars, rope.ModePrefixOnly)
	if err != nil {
		if errors.Is(err, rope.ErrRange) {
			return "", nil
		}
		return "", err
	}
	query := strings.TrimSpace(slice.Prefix)
	if query == "" {
		return "", nil
	}

	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("memoryctx: embed query: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT uri, content
		FROM memory_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`, pgvector.NewVector(vec), p.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("memoryctx: search: %w", err)
	}

	type match struct{ uri, content string }
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (match, error) {
		var m match
		err := row.Scan(&m.uri, &m.content)
		return m, err
	})
	if err != nil {
		return "", fmt.Errorf("memoryctx: scan matches: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, m := range matches {
		b.WriteString("// from ")
		b.WriteString(m.uri)
		b.WriteString("\n")
		b.WriteString(m.content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
