// Package config decodes the initializationOptions payload into the typed
// shapes the rest of the system consumes, and optionally loads the same
// shape from a local YAML/JSON5 file for dry-run and local testing outside
// an editor.
package config

import (
	"fmt"

	"github.com/lspai/lsp-ai/internal/action"
	"github.com/lspai/lsp-ai/internal/models"
)

// Options is the decoded initializationOptions payload.
type Options struct {
	Memory     Memory           `json:"memory" yaml:"memory"`
	Models     map[string]Model `json:"models" yaml:"models"`
	Actions    []action.Action  `json:"actions" yaml:"actions"`
	Completion *Completion      `json:"completion,omitempty" yaml:"completion,omitempty"`
}

// Model is a models.Entry keyed by name in the wire payload; Name is
// filled in from the map key during normalization rather than repeated
// in the JSON/YAML itself.
type Model = models.Entry

// Memory selects exactly one memory backend variant. Exactly one of
// FileStore/Postgresml must be set.
type Memory struct {
	FileStore  *FileStore      `json:"file_store,omitempty" yaml:"file_store,omitempty"`
	Postgresml *PostgresmlSpec `json:"postgresml,omitempty" yaml:"postgresml,omitempty"`
}

// FileStore is the file_store variant's (empty) configuration object.
type FileStore struct{}

// PostgresmlSpec configures the postgresml memory variant. EmbeddingModel
// names a configured models.Entry (kind openai) that turns query text into
// the vector space the chunks table was indexed under; without one there
// is no way to embed a query, so Validate rejects a postgresml block that
// omits it.
type PostgresmlSpec struct {
	DSN            string `json:"dsn" yaml:"dsn"`
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
	Dimension      int    `json:"dimension,omitempty" yaml:"dimension,omitempty"`
	QueryChars     int    `json:"query_chars,omitempty" yaml:"query_chars,omitempty"`
	TopK           int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// Completion configures the implicit textDocument/completion action when
// no action with an empty trigger is otherwise defined.
type Completion struct {
	Model      string         `json:"model" yaml:"model"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Validate normalizes and checks opts: every model entry gets its map key
// as its Name, exactly one memory variant must be selected, and
// Completion (if present) must reference a configured model. It does not
// validate Actions against Models — action.Load already does that once
// the registry exists.
func (o *Options) Validate() error {
	if (o.Memory.FileStore == nil) == (o.Memory.Postgresml == nil) {
		return fmt.Errorf("config: exactly one of memory.file_store or memory.postgresml is required")
	}
	if o.Memory.Postgresml != nil && o.Memory.Postgresml.DSN == "" {
		return fmt.Errorf("config: memory.postgresml.dsn is required")
	}

	for name, entry := range o.Models {
		entry.Name = name
		o.Models[name] = entry
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if o.Memory.Postgresml != nil {
		pg := o.Memory.Postgresml
		if pg.EmbeddingModel == "" {
			return fmt.Errorf("config: memory.postgresml.embedding_model is required")
		}
		embedder, ok := o.Models[pg.EmbeddingModel]
		if !ok {
			return fmt.Errorf("config: memory.postgresml.embedding_model %q is not a configured model", pg.EmbeddingModel)
		}
		if embedder.Kind != models.KindOpenAI {
			return fmt.Errorf("config: memory.postgresml.embedding_model %q must be kind openai, got %q", pg.EmbeddingModel, embedder.Kind)
		}
	}

	if o.Completion != nil {
		if _, ok := o.Models[o.Completion.Model]; !ok {
			return fmt.Errorf("config: completion.model %q is not a configured model", o.Completion.Model)
		}
	}
	return nil
}

// ModelEntries returns the decoded models in a slice, the shape
// models.Load expects.
func (o *Options) ModelEntries() []models.Entry {
	out := make([]models.Entry, 0, len(o.Models))
	for _, entry := range o.Models {
		out = append(out, entry)
	}
	return out
}

// ActionEntries returns the configured actions, appending the implicit
// empty-trigger completion action derived from Completion when one isn't
// already present among Actions.
func (o *Options) ActionEntries() []action.Action {
	out := make([]action.Action, len(o.Actions))
	copy(out, o.Actions)

	if o.Completion == nil {
		return out
	}
	for _, a := range out {
		if a.Trigger == "" {
			return out
		}
	}
	return append(out, action.Action{
		DisplayName: "completion",
		ModelRef:    o.Completion.Model,
		Parameters:  o.Completion.Parameters,
	})
}
