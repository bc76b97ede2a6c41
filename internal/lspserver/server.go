package lspserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/lspai/lsp-ai/internal/action"
	"github.com/lspai/lsp-ai/internal/config"
	"github.com/lspai/lsp-ai/internal/rope"
)

// Stable numeric codes the editor can use to distinguish failure
// categories without sniffing error message strings.
const (
	rpcCodeConfigError   = -32000
	rpcCodeDocumentError = -32001
	rpcCodeBackendError  = -32002
)

// EngineFactory builds the action engine from the client's decoded
// initializationOptions. Constructing the engine is deferred to
// initialize rather than done by the caller of New because the engine's
// model registry, rate limits, and actions all come from that payload.
type EngineFactory func(opts *config.Options, docs *rope.Table, log zerolog.Logger) (*action.Engine, error)

// MethodGeneration is the textDocument/generation vendor extension: an
// explicit generation call outside the inline-completion flow, naming an
// action and/or a model override.
const MethodGeneration = "textDocument/generation"

// sessionDebounceKey is the single CompletionDebouncer key this process
// ever uses. Debounce state is per-session, not per-document, and a
// Server serves exactly one client over stdio per process — so every
// completion request shares this one key regardless of which document
// it targets.
const sessionDebounceKey = "session"

// GenerationParams is the vendor extension's request shape.
type GenerationParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
	Action       string                          `json:"action,omitempty"`
	Model        string                          `json:"model,omitempty"`
	Parameters   map[string]any                  `json:"parameters,omitempty"`
}

// GenerationResult is returned by textDocument/generation, and is also
// what a resolved code action's command ultimately produces.
type GenerationResult struct {
	GeneratedText string `json:"generatedText"`
}

// Config bounds the dispatcher's concurrency and inline-completion
// debounce behavior.
type Config struct {
	// WorkerPoolSize caps how many requests run concurrently. Notification
	// handling is unaffected — it always runs on its own sequential task.
	WorkerPoolSize int
	// MaxCompletionsPerSecond is the debounce rate for
	// textDocument/completion; zero or negative disables debouncing.
	MaxCompletionsPerSecond float64
}

// Server dispatches LSP requests onto the action engine (C8): documents
// flow through a single sequential writer task, requests run on a bounded
// worker pool, and cancellation is cooperative via InFlightRegistry.
type Server struct {
	log      zerolog.Logger
	docs     *rope.Table
	engine   atomic.Pointer[action.Engine]
	factory  EngineFactory
	inflight *InFlightRegistry
	debounce *CompletionDebouncer

	notifyQueue chan func()
	sem         chan struct{}
	wg          sync.WaitGroup

	shutdownReceived atomic.Bool
	configError      atomic.Bool
}

// New builds a Server and starts its sequential notification writer. Call
// Run to begin serving stdio. The engine itself is built lazily, inside
// initialize, by calling factory with the client's initializationOptions.
func New(log zerolog.Logger, docs *rope.Table, factory EngineFactory, cfg Config) *Server {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	var interval time.Duration
	if cfg.MaxCompletionsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / cfg.MaxCompletionsPerSecond)
	}

	s := &Server{
		log:         log,
		docs:        docs,
		factory:     factory,
		inflight:    NewInFlightRegistry(),
		debounce:    NewCompletionDebouncer(interval),
		notifyQueue: make(chan func(), 256),
		sem:         make(chan struct{}, cfg.WorkerPoolSize),
	}
	s.wg.Add(1)
	go s.runNotifyQueue()
	return s
}

func (s *Server) runNotifyQueue() {
	defer s.wg.Done()
	for fn := range s.notifyQueue {
		fn()
	}
}

// enqueueNotification schedules fn on the sequential writer task so that
// concurrently-arriving didOpen/didChange/didClose notifications apply in
// the order this queue received them, rather than racing across
// request-handler goroutines.
func (s *Server) enqueueNotification(fn func()) {
	s.notifyQueue <- fn
}

func (s *Server) acquireSlot(ctx context.Context) bool {
	select {
	case s.sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) releaseSlot() { <-s.sem }

// Run serves over stdio until the client disconnects, then returns the
// process exit code the exit notification implies: 2 if initialize failed
// on a configuration error, otherwise 0 if shutdown was received first and
// 1 if not.
func (s *Server) Run() int {
	handler := &dispatch{
		inner: &protocol.Handler{
			Initialize:             s.initialize,
			Shutdown:               s.shutdown,
			TextDocumentDidOpen:    s.didOpen,
			TextDocumentDidChange:  s.didChange,
			TextDocumentDidClose:   s.didClose,
			TextDocumentCompletion: s.completion,
			TextDocumentCodeAction: s.codeAction,
			CodeActionResolve:      s.codeActionResolve,
		},
		srv: s,
	}

	glspServer := glspserver.NewServer(handler, "lsp-ai", false)
	glspServer.RunStdio()

	close(s.notifyQueue)
	s.wg.Wait()

	if s.configError.Load() {
		return 2
	}
	if s.shutdownReceived.Load() {
		return 0
	}
	return 1
}

// initialize decodes the client's initializationOptions and builds the
// action engine from it. A malformed or invalid payload is a fatal
// configuration error: it is reported back to the client as an error
// response and marks the process to exit with code 2 once the connection
// closes, since there is no engine to serve any subsequent request with.
func (s *Server) initialize(glspCtx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	raw, err := json.Marshal(params.InitializationOptions)
	if err != nil {
		s.configError.Store(true)
		return nil, fmt.Errorf("lspserver: encode initializationOptions: %w", err)
	}

	opts, err := config.ParseInitOptions(raw)
	if err != nil {
		s.configError.Store(true)
		return nil, fmt.Errorf("lspserver: %w", err)
	}

	engine, err := s.factory(opts, s.docs, s.log)
	if err != nil {
		s.configError.Store(true)
		return nil, fmt.Errorf("lspserver: build action engine: %w", err)
	}
	s.engine.Store(engine)

	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync:   protocol.TextDocumentSyncKindIncremental,
			CompletionProvider: &protocol.CompletionOptions{},
			CodeActionProvider: true,
		},
	}, nil
}

func (s *Server) shutdown(glspCtx *glsp.Context) error {
	s.shutdownReceived.Store(true)
	return nil
}

func (s *Server) didOpen(glspCtx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	s.enqueueNotification(func() {
		s.docs.Open(string(doc.URI), doc.Text, doc.Version, doc.LanguageID)
	})
	return nil
}

func (s *Server) didChange(glspCtx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	version := params.TextDocument.Version

	edits := make([]rope.Edit, 0, len(params.ContentChanges))
	for _, raw := range params.ContentChanges {
		change, ok := raw.(protocol.TextDocumentContentChangeEvent)
		if !ok || change.Range == nil {
			edits = append(edits, contentChangeToEdit(false, rope.Position{}, rope.Position{}, changeText(raw)))
			continue
		}
		start := toRopePosition(uint32(change.Range.Start.Line), uint32(change.Range.Start.Character))
		end := toRopePosition(uint32(change.Range.End.Line), uint32(change.Range.End.Character))
		edits = append(edits, contentChangeToEdit(true, start, end, change.Text))
	}

	s.enqueueNotification(func() {
		if err := s.docs.Change(uri, version, edits); err != nil {
			s.log.Warn().Err(err).Str("uri", uri).Msg("lspserver: dropped change that failed to apply")
		}
	})
	return nil
}

// changeText extracts Text from a content-change entry whose concrete
// type didn't match the ranged variant — the whole-document replacement
// form still carries a Text field.
func changeText(raw any) string {
	if change, ok := raw.(protocol.TextDocumentContentChangeEvent); ok {
		return change.Text
	}
	return ""
}

func (s *Server) didClose(glspCtx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.enqueueNotification(func() {
		s.docs.Close(uri)
	})
	return nil
}

func (s *Server) completion(glspCtx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	engine := s.engine.Load()
	if engine == nil {
		return []protocol.CompletionItem{}, nil
	}

	uri := string(params.TextDocument.URI)
	if !s.debounce.Admit(sessionDebounceKey) {
		return []protocol.CompletionItem{}, nil
	}
	if !s.acquireSlot(glspCtx.Context) {
		return []protocol.CompletionItem{}, nil
	}
	defer s.releaseSlot()

	pos := toRopePosition(uint32(params.Position.Line), uint32(params.Position.Character))
	text, err := engine.Complete(glspCtx.Context, uri, pos)
	if err != nil {
		if errors.Is(err, action.ErrCancelled) {
			return []protocol.CompletionItem{}, nil
		}
		return nil, toRPCError(err)
	}
	if text == "" {
		return []protocol.CompletionItem{}, nil
	}
	return []protocol.CompletionItem{{Label: text, InsertText: &text}}, nil
}

// codeActionData is what a code action's Data field round-trips through
// resolve: the trigger it was enumerated for, and the range that trigger
// occupies (replaced by the generated text once resolved).
type codeActionData struct {
	Trigger   string `json:"trigger"`
	URI       string `json:"uri"`
	StartLine int    `json:"startLine"`
	StartChar int    `json:"startChar"`
	EndLine   int    `json:"endLine"`
	EndChar   int    `json:"endChar"`
}

func decodeCodeActionData(raw any) (codeActionData, bool) {
	b, err := json.Marshal(raw)
	if err != nil {
		return codeActionData{}, false
	}
	var d codeActionData
	if err := json.Unmarshal(b, &d); err != nil || d.URI == "" {
		return codeActionData{}, false
	}
	return d, true
}

func (s *Server) codeAction(glspCtx *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	engine := s.engine.Load()
	if engine == nil {
		return []protocol.CodeAction{}, nil
	}

	uri := string(params.TextDocument.URI)
	end := toRopePosition(uint32(params.Range.End.Line), uint32(params.Range.End.Character))

	acts, err := engine.CodeActions(uri, end)
	if err != nil {
		return nil, toRPCError(err)
	}

	out := make([]protocol.CodeAction, 0, len(acts))
	for _, a := range acts {
		start := end
		start.Character -= len([]rune(a.Trigger))
		if start.Character < 0 {
			start.Character = 0
		}
		out = append(out, protocol.CodeAction{
			Title: a.DisplayName,
			Data: codeActionData{
				Trigger:   a.Trigger,
				URI:       uri,
				StartLine: start.Line,
				StartChar: start.Character,
				EndLine:   end.Line,
				EndChar:   end.Character,
			},
		})
	}
	return out, nil
}

func (s *Server) codeActionResolve(glspCtx *glsp.Context, params *protocol.CodeAction) (*protocol.CodeAction, error) {
	data, ok := decodeCodeActionData(params.Data)
	if !ok {
		return params, nil
	}

	end := rope.Position{Line: data.EndLine, Character: data.EndChar}
	result, err := s.runGeneration(glspCtx.Context, data.URI, end, data.Trigger, "", nil)
	if err != nil {
		return nil, toRPCError(err)
	}

	editRange := protocol.Range{
		Start: protocol.Position{Line: uint32(data.StartLine), Character: uint32(data.StartChar)},
		End:   protocol.Position{Line: uint32(data.EndLine), Character: uint32(data.EndChar)},
	}
	params.Edit = &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			protocol.DocumentUri(data.URI): {{Range: editRange, NewText: result.GeneratedText}},
		},
	}
	return params, nil
}

// runGeneration executes a named or ad-hoc generation request through the
// action engine, used by both the textDocument/generation vendor
// extension and codeAction/resolve.
func (s *Server) runGeneration(ctx context.Context, uri string, pos rope.Position, actionName, model string, parameters map[string]any) (GenerationResult, error) {
	engine := s.engine.Load()
	if engine == nil {
		return GenerationResult{}, &action.ConfigError{Message: "server is not initialized"}
	}

	if !s.acquireSlot(ctx) {
		return GenerationResult{}, action.ErrCancelled
	}
	defer s.releaseSlot()

	text, err := engine.Generate(ctx, uri, pos, actionName, model, parameters)
	if err != nil {
		return GenerationResult{}, err
	}
	return GenerationResult{GeneratedText: text}, nil
}

// toRPCError maps the action engine's error taxonomy onto LSP error
// responses carrying the stable numeric codes editors rely on to
// distinguish config, document, and backend failures without sniffing
// message strings. Any other error is returned as-is.
func toRPCError(err error) error {
	var cfgErr *action.ConfigError
	if errors.As(err, &cfgErr) {
		return &jsonrpc2.Error{Code: rpcCodeConfigError, Message: cfgErr.Error()}
	}
	var docErr *action.DocumentError
	if errors.As(err, &docErr) {
		return &jsonrpc2.Error{Code: rpcCodeDocumentError, Message: docErr.Error()}
	}
	var backendErr *action.BackendError
	if errors.As(err, &backendErr) {
		return &jsonrpc2.Error{Code: rpcCodeBackendError, Message: backendErr.Error()}
	}
	return err
}
