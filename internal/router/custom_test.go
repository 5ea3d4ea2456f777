package router

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/types"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name     string
		out      string
		provider string
		model    string
		ok       bool
	}{
		{"json string", `"acme,fast-model"`, "acme", "fast-model", true},
		{"bare pair", "acme,fast-model\n", "acme", "fast-model", true},
		{"null", "null", "", "", false},
		{"empty", "", "", "", false},
		{"whitespace", "  \n", "", "", false},
		{"json object", `{"provider":"acme"}`, "", "", false},
		{"json number", `42`, "", "", false},
		{"string without comma", `"acme"`, "", "", false},
		{"string with empty model", `"acme,"`, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model, ok := parseOutput([]byte(tt.out))
			if ok != tt.ok || provider != tt.provider || model != tt.model {
				t.Fatalf("parseOutput(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.out, provider, model, ok, tt.provider, tt.model, tt.ok)
			}
		})
	}
}

func TestBuildPayload(t *testing.T) {
	req := &types.Request{
		Model: "claude-sonnet-4",
		Messages: []types.Message{
			{Role: types.RoleUser, Content: types.TextContent("hi")},
		},
	}
	cfg := config.DefaultRouterConfig()
	cfg.Routes[config.RouteDefault] = "openrouter,claude-sonnet-4"

	payload, err := buildPayload(req, cfg, 1234)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}

	parsed := gjson.ParseBytes(payload)
	if got := parsed.Get("request.tokenCount").Int(); got != 1234 {
		t.Fatalf("tokenCount = %d, want 1234", got)
	}
	if got := parsed.Get("request.model").String(); got != "claude-sonnet-4" {
		t.Fatalf("request.model = %q", got)
	}
	if got := parsed.Get("request.messages.0.content").String(); got != "hi" {
		t.Fatalf("message content = %q", got)
	}
	if got := parsed.Get("config.routes.default").String(); got != "openrouter,claude-sonnet-4" {
		t.Fatalf("config.routes.default = %q", got)
	}
}

func TestInvokeEmptyPathIsNoDecision(t *testing.T) {
	ci := NewCustomInvoker()
	cfg := config.DefaultRouterConfig()
	_, _, ok, err := ci.Invoke(context.Background(), &types.Request{}, cfg, 0)
	if ok || err != nil {
		t.Fatalf("empty path: ok=%v err=%v, want no decision and no error", ok, err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	ci := NewCustomInvoker()
	cfg := config.DefaultRouterConfig()
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\nsleep 5\n")
	cfg.CustomRouterTimeoutSeconds = 1

	start := time.Now()
	_, _, ok, err := ci.Invoke(context.Background(), &types.Request{}, cfg, 0)
	if ok {
		t.Fatal("timed-out script must not commit a decision")
	}
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("want timeout error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestInvokeBreakerOpensAfterRepeatedFailures(t *testing.T) {
	ci := NewCustomInvoker()
	cfg := config.DefaultRouterConfig()
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\nexit 1\n")

	for i := 0; i < 5; i++ {
		if _, _, ok, err := ci.Invoke(context.Background(), &types.Request{}, cfg, 0); ok || err == nil {
			t.Fatalf("run %d: want failure, got ok=%v err=%v", i, ok, err)
		}
	}

	// Breaker is open now: the script would succeed, but no process runs.
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\necho '\"acme,fast\"'\n")
	_, _, ok, err := ci.Invoke(context.Background(), &types.Request{}, cfg, 0)
	if ok || err == nil {
		t.Fatalf("open breaker must report failure, got ok=%v err=%v", ok, err)
	}
}

func TestInvokeDeclinedIsError(t *testing.T) {
	ci := NewCustomInvoker()
	cfg := config.DefaultRouterConfig()
	cfg.CustomRouterPath = writeScript(t, "#!/bin/sh\necho null\n")
	_, _, ok, err := ci.Invoke(context.Background(), &types.Request{}, cfg, 0)
	if ok {
		t.Fatal("null must not commit")
	}
	if err == nil {
		t.Fatal("declined routing surfaces as errNoDecision for logging")
	}
}
