// Local inference adapter: loads a model file by repository+name through
// an external weight fetcher, then runs single-threaded inference,
// serializing concurrent requests to the same model instance through a
// per-model queue so the GPU/CPU is never re-entered.
//
// Each model name gets its own owner goroutine behind a buffered channel:
// callers send a job and wait for a reply, so two requests against the
// same model never enter inference concurrently while different models
// still run in parallel — the same shape a bounded worker pool uses to
// serialize access to one resource, applied per model name instead of
// globally.
package transformer

import (
	"context"
	"fmt"
	"sync"

	"github.com/lspai/lsp-ai/internal/models"
	"github.com/lspai/lsp-ai/internal/prompt"
)

// WeightFetcher resolves a repository+name pair to a local filesystem
// path, downloading and caching the weight file if necessary. It is an
// external collaborator: this package only depends on the interface.
type WeightFetcher interface {
	Fetch(ctx context.Context, repository, name string) (path string, err error)
}

// Engine runs inference against an already-resolved weight file. Exactly
// one Infer call is in flight per Engine at a time; the local adapter's
// queue enforces that invariant, so implementations need not be
// reentrant-safe.
type Engine interface {
	Infer(ctx context.Context, weightPath string, nCtx, nGPULayers int, prompt string, maxTokens int) (text string, err error)
}

type localJob struct {
	ctx        context.Context
	model      string
	repository string
	name       string
	nCtx       int
	nGPULayers int
	prompt     string
	maxTokens  int
	reply      chan localResult
}

type localResult struct {
	outcome Outcome
	err     error
}

// localAdapter owns one serializing worker goroutine per model name, so
// two requests against the same model never enter the engine
// concurrently while requests against different models still proceed in
// parallel.
type localAdapter struct {
	fetcher WeightFetcher
	engine  Engine

	mu     sync.Mutex
	queues map[string]chan localJob
}

func newLocalAdapter() *localAdapter {
	return &localAdapter{queues: make(map[string]chan localJob)}
}

// Bind supplies the weight fetcher and inference engine implementations.
// The action engine does not call it; until some caller does, Send fails
// with ReasonInvalidRequest ("local inference not configured").
func (a *localAdapter) Bind(fetcher WeightFetcher, engine Engine) {
	a.fetcher = fetcher
	a.engine = engine
}

func (a *localAdapter) Send(ctx context.Context, payload prompt.Payload, entry *models.Entry, maxTokens int) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrCancelled, err)
	}
	if entry.Local == nil {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonInvalidRequest, Message: "local model missing local config"}
	}
	if a.fetcher == nil || a.engine == nil {
		return Outcome{}, &ProviderError{Model: entry.Name, Reason: ReasonInvalidRequest, Message: "local inference not configured"}
	}

	text := localPromptText(payload)
	queue := a.queueFor(entry.Name)
	job := localJob{
		ctx:        ctx,
		model:      entry.Name,
		repository: entry.Local.Repository,
		name:       entry.Local.Name,
		nCtx:       entry.Local.NCtx,
		nGPULayers: entry.Local.NGPULayers,
		prompt:     text,
		maxTokens:  maxTokens,
		reply:      make(chan localResult, 1),
	}

	select {
	case queue <- job:
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("%w: %s", ErrCancelled, ctx.Err())
	}

	select {
	case res := <-job.reply:
		return res.outcome, res.err
	case <-ctx.Done():
		return Outcome{}, fmt.Errorf("%w: %s", ErrCancelled, ctx.Err())
	}
}

// queueFor returns the single-consumer job channel for model, starting
// its worker goroutine on first use.
func (a *localAdapter) queueFor(model string) chan localJob {
	a.mu.Lock()
	defer a.mu.Unlock()
	if q, ok := a.queues[model]; ok {
		return q
	}
	q := make(chan localJob, 8)
	a.queues[model] = q
	go a.worker(model, q)
	return q
}

func (a *localAdapter) worker(model string, queue chan localJob) {
	for job := range queue {
		job.reply <- a.run(job)
	}
}

// run resolves the weight file and performs one inference call. It
// executes on the model's single owner goroutine, so the fetcher and
// engine are never entered concurrently for this model.
func (a *localAdapter) run(job localJob) localResult {
	if err := job.ctx.Err(); err != nil {
		return localResult{err: fmt.Errorf("%w: %s", ErrCancelled, err)}
	}
	weightPath, err := a.fetcher.Fetch(job.ctx, job.repository, job.name)
	if err != nil {
		return localResult{err: &ProviderError{Model: job.model, Reason: ReasonUnknown, Message: "fetch weights: " + err.Error(), Cause: err}}
	}
	text, err := a.engine.Infer(job.ctx, weightPath, job.nCtx, job.nGPULayers, job.prompt, job.maxTokens)
	if err != nil {
		if job.ctx.Err() != nil {
			return localResult{err: fmt.Errorf("%w: %s", ErrCancelled, err)}
		}
		return localResult{err: &ProviderError{Model: job.model, Reason: ReasonUnknown, Message: err.Error(), Cause: err}}
	}
	return localResult{outcome: Outcome{Text: text}}
}

func localPromptText(payload prompt.Payload) string {
	if payload.Kind == prompt.KindChat {
		var s string
		for _, m := range payload.Messages {
			s += m.Role + ": " + m.Content + "\n"
		}
		return s
	}
	return payload.Text
}
