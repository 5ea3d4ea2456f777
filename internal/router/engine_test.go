package router

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/subagent"
	"github.com/jerryzhao173985/ccr/internal/types"
)

func testConfig() *config.RouterConfig {
	cfg := config.DefaultRouterConfig()
	cfg.Routes = map[string]string{
		config.RouteDefault:     "openrouter,claude-sonnet-4",
		config.RouteBackground:  "ollama,qwen3",
		config.RouteThink:       "deepseek,deepseek-reasoner",
		config.RouteLongContext: "gemini,gemini-2.5-pro",
		config.RouteWebSearch:   "gemini,gemini-2.5-flash",
	}
	return cfg
}

func userRequest(text string) *types.Request {
	return &types.Request{
		Messages: []types.Message{
			{Role: types.RoleUser, Content: types.TextContent(text)},
		},
	}
}

func decide(t *testing.T, req *types.Request, cfg *config.RouterConfig) types.RoutingDecision {
	t.Helper()
	d, err := New().Decide(context.Background(), req, cfg)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	return d
}

func TestDecideDefault(t *testing.T) {
	d := decide(t, userRequest("hi"), testConfig())
	want := types.RoutingDecision{Provider: "openrouter", Model: "claude-sonnet-4", Source: types.SourceDefault}
	if d != want {
		t.Fatalf("decision = %+v, want %+v", d, want)
	}
}

func TestDecideExplicitOverride(t *testing.T) {
	req := userRequest("hi")
	req.Model = "acme,fast-model"
	d := decide(t, req, testConfig())
	want := types.RoutingDecision{Provider: "acme", Model: "fast-model", Source: types.SourceExplicit}
	if d != want {
		t.Fatalf("decision = %+v, want %+v", d, want)
	}
}

func TestDecideExplicitBeatsTokenThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.LongContextThreshold = 1
	req := userRequest(strings.Repeat("lots of context ", 500))
	req.Model = "acme,fast-model"
	d := decide(t, req, cfg)
	if d.Source != types.SourceExplicit {
		t.Fatalf("source = %q, want explicit", d.Source)
	}
}

func TestDecideTokenThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.LongContextThreshold = 50
	d := decide(t, userRequest(strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)), cfg)
	want := types.RoutingDecision{Provider: "gemini", Model: "gemini-2.5-pro", Source: types.SourceTokenThreshold}
	if d != want {
		t.Fatalf("decision = %+v, want %+v", d, want)
	}
}

func TestDecideTokenThresholdUnsetRouteFallsThrough(t *testing.T) {
	cfg := testConfig()
	cfg.LongContextThreshold = 50
	delete(cfg.Routes, config.RouteLongContext)
	d := decide(t, userRequest(strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)), cfg)
	if d.Source != types.SourceDefault {
		t.Fatalf("source = %q, want default fallthrough", d.Source)
	}
}

func TestDecideSubagentTag(t *testing.T) {
	tag := "<" + subagent.TagName + ">acme,fast-model</" + subagent.TagName + ">"
	req := userRequest(tag + "do the thing")
	d := decide(t, req, testConfig())
	want := types.RoutingDecision{Provider: "acme", Model: "fast-model", Source: types.SourceSubagentTag}
	if d != want {
		t.Fatalf("decision = %+v, want %+v", d, want)
	}
	if got := req.Messages[0].Content.Text; got != "do the thing" {
		t.Fatalf("directive not stripped from message: %q", got)
	}
}

func TestDecideSubagentTagUsesLatestUserMessage(t *testing.T) {
	tag := "<" + subagent.TagName + ">acme,fast-model</" + subagent.TagName + ">"
	req := &types.Request{
		Messages: []types.Message{
			{Role: types.RoleUser, Content: types.TextContent("earlier turn")},
			{Role: types.RoleAssistant, Content: types.TextContent("reply")},
			{Role: types.RoleUser, Content: types.TextContent(tag + "now")},
		},
	}
	d := decide(t, req, testConfig())
	if d.Source != types.SourceSubagentTag {
		t.Fatalf("source = %q, want subagent_tag", d.Source)
	}
	if got := req.Messages[2].Content.Text; got != "now" {
		t.Fatalf("latest user message not stripped: %q", got)
	}
}

func TestDecideModelHeuristics(t *testing.T) {
	tests := []struct {
		name string
		prep func(*types.Request)
		want types.RoutingDecision
	}{
		{
			name: "lightweight family",
			prep: func(r *types.Request) { r.Model = "claude-3-5-haiku" },
			want: types.RoutingDecision{Provider: "ollama", Model: "qwen3", Source: types.SourceModelHeuristic},
		},
		{
			name: "case insensitive family match",
			prep: func(r *types.Request) { r.Model = "Claude-HAIKU-latest" },
			want: types.RoutingDecision{Provider: "ollama", Model: "qwen3", Source: types.SourceModelHeuristic},
		},
		{
			name: "thinking indicator",
			prep: func(r *types.Request) { r.Thinking = []byte(`{"type":"enabled"}`) },
			want: types.RoutingDecision{Provider: "deepseek", Model: "deepseek-reasoner", Source: types.SourceModelHeuristic},
		},
		{
			name: "web search tool",
			prep: func(r *types.Request) {
				r.Tools = []types.ToolDefinition{{Name: "web_search_20250305"}}
			},
			want: types.RoutingDecision{Provider: "gemini", Model: "gemini-2.5-flash", Source: types.SourceModelHeuristic},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := userRequest("hi")
			tt.prep(req)
			d := decide(t, req, testConfig())
			if d != tt.want {
				t.Fatalf("decision = %+v, want %+v", d, tt.want)
			}
		})
	}
}

func TestDecideHeuristicOrderBackgroundBeatsThink(t *testing.T) {
	req := userRequest("hi")
	req.Model = "claude-3-5-haiku"
	req.Thinking = []byte(`true`)
	d := decide(t, req, testConfig())
	if d.Provider != "ollama" {
		t.Fatalf("lightweight family must win over thinking, got %+v", d)
	}
}

func TestDecideMissingRoute(t *testing.T) {
	cfg := config.DefaultRouterConfig()
	_, err := New().Decide(context.Background(), userRequest("hi"), cfg)
	var missing *MissingRouteError
	if err == nil {
		t.Fatal("expected MissingRouteError")
	}
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T, want *MissingRouteError", err)
	}
}

func TestDecideMalformedDefaultIsMissing(t *testing.T) {
	cfg := config.DefaultRouterConfig()
	cfg.Routes[config.RouteDefault] = "no-comma-here"
	_, err := New().Decide(context.Background(), userRequest("hi"), cfg)
	if err == nil {
		t.Fatal("malformed default route must not commit")
	}
}

func TestDecideDeterministic(t *testing.T) {
	cfg := testConfig()
	first := decide(t, userRequest("hi"), cfg)
	second := decide(t, userRequest("hi"), cfg)
	if first != second {
		t.Fatalf("identical inputs yielded different decisions: %+v vs %+v", first, second)
	}
}

func TestDecideCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Decide(ctx, userRequest("hi"), testConfig())
	if err == nil {
		t.Fatal("cancelled context must abort the decision")
	}
	var missing *MissingRouteError
	if errors.As(err, &missing) {
		t.Fatal("cancellation must not surface as a routing error")
	}
}

func TestDecideCustomScriptFailureFallsThrough(t *testing.T) {
	cfg := testConfig()
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\necho boom >&2\nexit 1\n")
	d := decide(t, userRequest("hi"), cfg)
	if d.Source != types.SourceDefault {
		t.Fatalf("failing custom script must fall through to default, got %+v", d)
	}
}

func TestDecideCustomScriptCommits(t *testing.T) {
	cfg := testConfig()
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\necho '\"scripted,model-x\"'\n")
	d := decide(t, userRequest("hi"), cfg)
	want := types.RoutingDecision{Provider: "scripted", Model: "model-x", Source: types.SourceCustomScript}
	if d != want {
		t.Fatalf("decision = %+v, want %+v", d, want)
	}
}

func TestDecideCustomScriptNullFallsThrough(t *testing.T) {
	cfg := testConfig()
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\necho null\n")
	d := decide(t, userRequest("hi"), cfg)
	if d.Source != types.SourceDefault {
		t.Fatalf("null custom result must fall through, got %+v", d)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "custom-router.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}
