package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lspai/lsp-ai/internal/metrics"
	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/postprocess"
	"github.com/lspai/lsp-ai/internal/prompt"
	"github.com/lspai/lsp-ai/internal/ratelimit"
	"github.com/lspai/lsp-ai/internal/rope"
	"github.com/lspai/lsp-ai/internal/transformer"
)

// MemoryContext supplies the retrieval-augmented context string a prompt
// is built with. The default (nil) engine always uses "" — a real
// implementation resolves similar code from a memory backend.
type MemoryContext interface {
	Context(ctx context.Context, snap rope.Snapshot, pos rope.Position) (string, error)
}

// Engine serves the three action RPC shapes by wiring together the
// document table (C1), prompt builder (C2), model registry (C4), and rate
// limiter (C6), then routing through the registry's cached adapters (C5)
// and the post-processing pipeline (C7).
type Engine struct {
	log     zerolog.Logger
	docs    *rope.Table
	models  *models.Registry
	builder *prompt.Builder
	limiter *ratelimit.Limiter
	actions *Set
	memory  MemoryContext
	metrics *metrics.Metrics
}

// New builds an Engine. memory may be nil, in which case every prompt is
// built with an empty context string. m may be nil, in which case every
// metrics.Metrics method call on it is a no-op.
func New(log zerolog.Logger, docs *rope.Table, registry *models.Registry, builder *prompt.Builder, limiter *ratelimit.Limiter, actions *Set, memory MemoryContext, m *metrics.Metrics) *Engine {
	return &Engine{
		log:     log,
		docs:    docs,
		models:  registry,
		builder: builder,
		limiter: limiter,
		actions: actions,
		memory:  memory,
		metrics: m,
	}
}

// Complete serves textDocument/completion: resolve the default action,
// build within the model's completion budget, call, post-process.
func (e *Engine) Complete(ctx context.Context, uri string, pos rope.Position) (string, error) {
	act, ok := e.actions.Default()
	if !ok {
		return "", &ConfigError{Message: "no default completion action is configured"}
	}
	return e.run(ctx, act, uri, pos, false)
}

// Generate serves textDocument/generation: actionName names a configured
// action (display name or trigger); when empty, modelOverride and
// parameters build an ad-hoc action instead. Either way, generation
// budget is used and modelOverride/parameters (when given) take
// precedence over the named action's own configuration.
func (e *Engine) Generate(ctx context.Context, uri string, pos rope.Position, actionName, modelOverride string, parameters map[string]any) (string, error) {
	var act Action
	switch configured, ok := e.actions.Named(actionName); {
	case actionName != "" && ok:
		act = configured
	case actionName != "":
		return "", &ConfigError{Message: fmt.Sprintf("unknown action %q", actionName)}
	case modelOverride != "":
		act = Action{DisplayName: "ad-hoc", ModelRef: modelOverride, Parameters: parameters}
	default:
		return "", &ConfigError{Message: "generation request named neither an action nor a model"}
	}

	if modelOverride != "" {
		act.ModelRef = modelOverride
	}
	if parameters != nil {
		act.Parameters = parameters
	}
	return e.run(ctx, act, uri, pos, true)
}

// CodeActions serves textDocument/codeAction: every configured action
// whose trigger string immediately precedes the cursor on the current
// line. A missing document or an out-of-range cursor yields no actions
// rather than an error — both are ordinary races against editor state.
func (e *Engine) CodeActions(uri string, pos rope.Position) ([]Action, error) {
	snap, err := e.docs.Snapshot(uri)
	if err != nil {
		if errors.Is(err, rope.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	prefix, err := linePrefix(snap, pos)
	if err != nil {
		if errors.Is(err, rope.ErrRange) {
			return nil, nil
		}
		return nil, err
	}
	return e.actions.AtCursor(prefix), nil
}

// run is the shared pipeline behind Complete and Generate: resolve the
// document and model, acquire a rate-limit token, build the prompt, call
// the adapter, and post-process the reply.
func (e *Engine) run(ctx context.Context, act Action, uri string, pos rope.Position, generation bool) (string, error) {
	e.logState(act, StateQueued)

	snap, err := e.docs.Snapshot(uri)
	if err != nil {
		if errors.Is(err, rope.ErrNotFound) {
			if generation {
				return "", &DocumentError{Message: err.Error()}
			}
			return "", nil
		}
		return "", err
	}

	entry, ok := e.models.Get(act.ModelRef)
	if !ok {
		return "", &ConfigError{Message: fmt.Sprintf("model %q is not configured", act.ModelRef)}
	}

	e.logState(act, StateRateLimited)
	if err := e.limiter.Acquire(ctx, entry.Name); err != nil {
		return e.onCallError(act, err)
	}

	e.logState(act, StatePrompting)
	memoryContext, err := e.contextFor(ctx, snap, pos)
	if err != nil {
		return "", &ConfigError{Message: err.Error()}
	}
	payload, err := e.builder.Build(snap, pos, entry.TokenBudgets.MaxContext, entry, memoryContext, act.Parameters)
	if err != nil {
		if errors.Is(err, rope.ErrRange) {
			if generation {
				return "", &DocumentError{Message: err.Error()}
			}
			return "", nil
		}
		return "", &ConfigError{Message: err.Error()}
	}

	e.logState(act, StateCalling)
	adapter, err := e.adapterFor(entry)
	if err != nil {
		return "", &ConfigError{Message: err.Error()}
	}

	maxTokens := entry.TokenBudgets.Completion
	if generation {
		maxTokens = entry.TokenBudgets.Generation
	}
	start := time.Now()
	outcome, err := adapter.Send(ctx, payload, entry, maxTokens)
	duration := time.Since(start).Seconds()
	if err != nil {
		e.metrics.RecordRequest(string(entry.Kind), entry.Name, "error", duration, 0, 0)
		return e.onCallError(act, err)
	}
	e.metrics.RecordRequest(string(entry.Kind), entry.Name, "success", duration, outcome.Usage.PromptTokens, outcome.Usage.CompletionTokens)

	e.logState(act, StatePostProcess)
	text, err := postprocess.Apply(act.PostProcess, outcome.Text)
	if err != nil {
		return "", &ConfigError{Message: err.Error()}
	}

	e.logState(act, StateReplied)
	return text, nil
}

func (e *Engine) contextFor(ctx context.Context, snap rope.Snapshot, pos rope.Position) (string, error) {
	if e.memory == nil {
		return "", nil
	}
	return e.memory.Context(ctx, snap, pos)
}

func (e *Engine) adapterFor(entry *models.Entry) (transformer.Adapter, error) {
	a, err := e.models.AdapterFor(entry.Name, func(entry *models.Entry) (any, error) {
		return transformer.New(entry)
	})
	if err != nil {
		return nil, err
	}
	adapter, ok := a.(transformer.Adapter)
	if !ok {
		return nil, fmt.Errorf("model %q: cached value is not an adapter", entry.Name)
	}
	return adapter, nil
}

// onCallError classifies a rate-limit or adapter failure: cancellation
// (context done, or the adapter's own ErrCancelled) is never logged and
// reported as ErrCancelled; anything else is a BackendError, logged once
// at warn since it already survived the adapter's own retries.
func (e *Engine) onCallError(act Action, err error) (string, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, transformer.ErrCancelled) {
		return "", ErrCancelled
	}
	e.metrics.RecordError("action", "backend_call_failed")
	e.log.Warn().Err(err).Str("action", actionLabel(act)).Msg("action: backend call failed")
	return "", &BackendError{Cause: err}
}

func (e *Engine) logState(act Action, s State) {
	e.log.Debug().Str("action", actionLabel(act)).Str("state", string(s)).Msg("action: state transition")
}

// linePrefix returns the text of the cursor's line up to (not including)
// the cursor column, built on Snapshot.Slice rather than a separate
// line-indexing pass over the rope.
func linePrefix(snap rope.Snapshot, pos rope.Position) (string, error) {
	sl, err := snap.Slice(pos, 0, rope.ModePrefixOnly)
	if err != nil {
		return "", err
	}
	if idx := strings.LastIndexByte(sl.Prefix, '\n'); idx >= 0 {
		return sl.Prefix[idx+1:], nil
	}
	return sl.Prefix, nil
}
