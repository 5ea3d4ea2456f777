// Package pipeline glues the normalizer and the routing engine together:
// loose pass, decide, then the strict pass when the chosen provider needs
// block-typed content, before handing off to the provider transformer.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/normalize"
	"github.com/jerryzhao173985/ccr/internal/router"
	"github.com/jerryzhao173985/ccr/internal/types"
)

// Transformer is the outbound handoff: the external provider-specific
// pipeline that encodes and sends the request upstream. It receives the
// decision together with the fully normalized request.
type Transformer interface {
	Forward(ctx context.Context, decision types.RoutingDecision, req *types.Request) error
}

// Pipeline processes one inbound request end to end. Each request runs
// independently; the only shared state is the immutable config snapshot.
type Pipeline struct {
	Router      *router.Engine
	Transformer Transformer // optional; nil means the caller handles handoff
}

// New creates a pipeline with a fresh routing engine and no transformer.
func New() *Pipeline {
	return &Pipeline{Router: router.New()}
}

// Process normalizes the request, decides the route, applies the strict
// projection when the target provider requires it, and forwards to the
// transformer if one is attached. The request is mutated in place and must
// not be reused after an error.
func (p *Pipeline) Process(ctx context.Context, req *types.Request, cfg *config.RouterConfig) (types.RoutingDecision, error) {
	normalize.Loose(req.Messages)

	decision, err := p.Router.Decide(ctx, req, cfg)
	if err != nil {
		return types.RoutingDecision{}, err
	}

	if cfg.RequiresStrictContent(decision.Provider) {
		normalize.Strict(req.Messages)
	}

	slog.Info("router.decision",
		"provider", decision.Provider,
		"model", decision.Model,
		"source", decision.Source,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
	)

	if p.Transformer != nil {
		if err := p.Transformer.Forward(ctx, decision, req); err != nil {
			return types.RoutingDecision{}, err
		}
	}
	return decision, nil
}
