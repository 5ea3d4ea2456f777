// Package router picks the upstream provider and model for each request by
// evaluating an ordered rule chain. Every rule either commits a decision or
// falls through; the only terminal failure is MissingRouteError.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/subagent"
	"github.com/jerryzhao173985/ccr/internal/tokencount"
	"github.com/jerryzhao173985/ccr/internal/types"
)

// backgroundModelFamily marks lightweight models that route to the
// background tier, matched case-insensitively as a substring.
const backgroundModelFamily = "haiku"

// webSearchToolPrefix marks web-search-capable tool definitions.
const webSearchToolPrefix = "web_search"

// Engine evaluates the rule chain. It holds no per-request state and is
// safe for concurrent use; the custom script invocation is its only
// suspend point.
type Engine struct {
	invoker *CustomInvoker
}

// New creates an Engine with a fresh custom-router invoker.
func New() *Engine {
	return &Engine{invoker: NewCustomInvoker()}
}

// Decide runs the rule chain against one request and an immutable config
// snapshot. It may mutate the most recent user message (stripping a
// subagent directive). A cancelled context aborts the decision so it is
// never applied downstream.
func (e *Engine) Decide(ctx context.Context, req *types.Request, cfg *config.RouterConfig) (types.RoutingDecision, error) {
	if err := ctx.Err(); err != nil {
		return types.RoutingDecision{}, err
	}

	// Rule 1: explicit "provider,model" override on the request.
	if provider, model, ok := types.SplitProviderModel(req.Model); ok {
		return commit(provider, model, types.SourceExplicit), nil
	}

	estimate := tokencount.Estimate(req.Messages, req.Tools)

	// Rule 2: external custom router. Failure of any kind falls through.
	if cfg.CustomRouterPath != "" {
		provider, model, ok, err := e.invoker.Invoke(ctx, req, cfg, estimate)
		if cerr := ctx.Err(); cerr != nil {
			return types.RoutingDecision{}, cerr
		}
		if err != nil && !errors.Is(err, errNoDecision) {
			slog.Warn("router.custom.failed", "error", err)
		} else if ok {
			return commit(provider, model, types.SourceCustomScript), nil
		}
	}

	// Rule 3: inline subagent directive in the latest user message. A match
	// also strips the directive so it never reaches the upstream provider.
	if msg := latestUserMessage(req.Messages); msg != nil {
		if m := subagent.ExtractFromMessage(msg); m.Found {
			return commit(m.Provider, m.Model, types.SourceSubagentTag), nil
		}
	}

	// Rule 4: token threshold.
	if estimate > cfg.LongContextThreshold {
		if d, ok := resolveRoute(cfg, config.RouteLongContext, types.SourceTokenThreshold); ok {
			slog.Info("router.long_context", "estimate", estimate, "threshold", cfg.LongContextThreshold)
			return d, nil
		}
	}

	// Rule 5: model-capability heuristics, first match wins.
	if d, ok := modelHeuristic(req, cfg); ok {
		return d, nil
	}

	// Rule 6: default route.
	if d, ok := resolveRoute(cfg, config.RouteDefault, types.SourceDefault); ok {
		return d, nil
	}

	return types.RoutingDecision{}, &MissingRouteError{Model: req.Model}
}

func modelHeuristic(req *types.Request, cfg *config.RouterConfig) (types.RoutingDecision, bool) {
	if strings.Contains(strings.ToLower(req.Model), backgroundModelFamily) {
		if d, ok := resolveRoute(cfg, config.RouteBackground, types.SourceModelHeuristic); ok {
			return d, true
		}
	}
	if req.WantsThinking() {
		if d, ok := resolveRoute(cfg, config.RouteThink, types.SourceModelHeuristic); ok {
			return d, true
		}
	}
	if hasWebSearchTool(req.Tools) {
		if d, ok := resolveRoute(cfg, config.RouteWebSearch, types.SourceModelHeuristic); ok {
			return d, true
		}
	}
	return types.RoutingDecision{}, false
}

// resolveRoute looks a logical route name up in the config. An unset or
// malformed route falls through rather than committing an invalid decision.
func resolveRoute(cfg *config.RouterConfig, name string, source types.DecisionSource) (types.RoutingDecision, bool) {
	provider, model, ok := types.SplitProviderModel(cfg.Route(name))
	if !ok {
		return types.RoutingDecision{}, false
	}
	return commit(provider, model, source), true
}

func commit(provider, model string, source types.DecisionSource) types.RoutingDecision {
	return types.RoutingDecision{Provider: provider, Model: model, Source: source}
}

func latestUserMessage(messages []types.Message) *types.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return &messages[i]
		}
	}
	return nil
}

func hasWebSearchTool(tools []types.ToolDefinition) bool {
	for _, t := range tools {
		if strings.HasPrefix(strings.ToLower(t.Name), webSearchToolPrefix) {
			return true
		}
	}
	return false
}
