// Command lsp-ai is the LSP server binary: an editor attaches to it over
// stdio and drives completions, ad-hoc generation, and code actions
// through whichever models are named in initializationOptions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lspai/lsp-ai/internal/action"
	"github.com/lspai/lsp-ai/internal/config"
	"github.com/lspai/lsp-ai/internal/lspserver"
	"github.com/lspai/lsp-ai/internal/memoryctx"
	"github.com/lspai/lsp-ai/internal/metrics"
	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
	"github.com/lspai/lsp-ai/internal/ratelimit"
	"github.com/lspai/lsp-ai/internal/rope"
)

var version = "dev"

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "lsp-ai",
		Short:        "LSP server bridging editors to pluggable LLM backends",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd(), buildValidateConfigCmd())
	return rootCmd
}

func buildServeCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve LSP requests over stdio",
		Long: `Serve starts the dispatcher on stdio. The editor's initialize request
carries initializationOptions with the model registry, actions, and memory
backend configuration; a malformed or invalid payload exits with code 2.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(debug)
			docs := rope.NewTable()
			srv := lspserver.New(log, docs, buildEngine, lspserver.Config{
				WorkerPoolSize:          8,
				MaxCompletionsPerSecond: 20,
			})
			os.Exit(srv.Run())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug-level logging")
	return cmd
}

func buildValidateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-config [path]",
		Short: "Validate a local initializationOptions file without starting a server",
		Long: `validate-config loads the same shape serve's initialize handshake expects,
but from a local YAML/JSON/JSON5 file, for a dry run outside an editor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config OK: %d model(s), %d action(s)\n", len(opts.Models), len(opts.Actions))
			return nil
		},
	}
	return cmd
}

// newLogger writes structured JSON to stderr, never stdout, which the LSP
// transport owns for Content-Length-framed messages.
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// engineMetrics is process-wide rather than rebuilt per buildEngine call:
// promauto registers each collector with Prometheus's default registry
// once, and buildEngine can run more than once per process across
// reconnects.
var engineMetrics = metrics.New()

// buildEngine is the lspserver.EngineFactory wired into New: it assembles
// the model registry, rate limiter, action set, and memory backend from
// one decoded initializationOptions payload and hands back a ready
// action.Engine. Built fresh per initialize rather than reused across
// reconnects, since the process serves exactly one client over stdio.
func buildEngine(opts *config.Options, docs *rope.Table, log zerolog.Logger) (*action.Engine, error) {
	registry, err := models.Load(opts.ModelEntries())
	if err != nil {
		return nil, fmt.Errorf("model registry: %w", err)
	}

	limiter := ratelimit.New()
	for _, entry := range opts.ModelEntries() {
		limiter.Configure(entry.Name, entry.Rate.MaxRequestsPerSecond)
	}

	actions, err := action.Load(opts.ActionEntries(), registry)
	if err != nil {
		return nil, fmt.Errorf("actions: %w", err)
	}

	memory, err := buildMemory(opts)
	if err != nil {
		return nil, fmt.Errorf("memory backend: %w", err)
	}

	builder := prompt.NewBuilder()
	return action.New(log, docs, registry, builder, limiter, actions, memory, engineMetrics), nil
}

// buildMemory selects the memory backend named by opts.Memory. Exactly one
// of FileStore/Postgresml is set — config.Options.Validate already
// enforced that, along with Postgresml.EmbeddingModel naming a configured
// openai-kind model, during initialize's decode step.
func buildMemory(opts *config.Options) (action.MemoryContext, error) {
	if opts.Memory.FileStore != nil {
		return memoryctx.NoOp{}, nil
	}

	pg := opts.Memory.Postgresml
	embedderEntry, ok := opts.Models[pg.EmbeddingModel]
	if !ok {
		return nil, &action.ConfigError{Message: fmt.Sprintf("memory.postgresml.embedding_model %q is not a configured model", pg.EmbeddingModel)}
	}
	embedder, err := memoryctx.NewOpenAIEmbedder(&embedderEntry)
	if err != nil {
		return nil, &action.ConfigError{Message: err.Error()}
	}

	return memoryctx.NewPostgres(context.Background(), pg.DSN, embedder, memoryctx.PostgresConfig{
		Dimension:  pg.Dimension,
		QueryChars: pg.QueryChars,
		TopK:       pg.TopK,
	})
}
