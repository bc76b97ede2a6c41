package lspserver

import (
	"encoding/json"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/lspai/lsp-ai/internal/action"
)

// dispatch extends protocol.Handler with the two methods it has no slot
// for: the textDocument/generation vendor extension, and local
// $/cancelRequest handling driven by InFlightRegistry rather than
// whatever cancellation glsp wires up on its own.
type dispatch struct {
	inner *protocol.Handler
	srv   *Server
}

type cancelParams struct {
	ID any `json:"id"`
}

func (d *dispatch) Handle(context *glsp.Context, request *glsp.Request) (result any, validMethod bool, validParams bool, err error) {
	switch request.Method {
	case MethodGeneration:
		return d.handleGeneration(context, request)
	case "$/cancelRequest":
		return d.handleCancelRequest(request)
	}

	// Notifications carry no id and need no cancellation tracking; only
	// requests expecting a reply go through the in-flight registry.
	if request.ID == nil {
		return d.inner.Handle(context, request)
	}

	cctx, inflightReq := d.srv.inflight.Start(context.Context, request.ID)
	defer d.srv.inflight.Done(request.ID)

	scoped := *context
	scoped.Context = cctx
	result, validMethod, validParams, err = d.inner.Handle(&scoped, request)
	if inflightReq.Cancelled() {
		return nil, validMethod, validParams, action.ErrCancelled
	}
	return result, validMethod, validParams, err
}

func (d *dispatch) handleGeneration(glspCtx *glsp.Context, request *glsp.Request) (any, bool, bool, error) {
	var p GenerationParams
	if err := json.Unmarshal(request.Params, &p); err != nil {
		return nil, true, false, err
	}

	pos := toRopePosition(uint32(p.Position.Line), uint32(p.Position.Character))
	res, err := d.srv.runGeneration(glspCtx.Context, string(p.TextDocument.URI), pos, p.Action, p.Model, p.Parameters)
	if err != nil {
		return nil, true, true, toRPCError(err)
	}
	return res, true, true, nil
}

func (d *dispatch) handleCancelRequest(request *glsp.Request) (any, bool, bool, error) {
	var p cancelParams
	if err := json.Unmarshal(request.Params, &p); err != nil {
		return nil, true, false, err
	}
	d.srv.inflight.Cancel(p.ID)
	return nil, true, true, nil
}
