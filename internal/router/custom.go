package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/types"
)

// errNoDecision marks a well-behaved custom router that declined to route.
var errNoDecision = errors.New("custom router returned no decision")

// CustomInvoker runs the externally supplied routing executable, bounding
// its failure modes: one timeout per invocation and a circuit breaker so a
// persistently broken script stops costing a process spawn per request.
type CustomInvoker struct {
	breaker *gobreaker.CircuitBreaker
}

// NewCustomInvoker creates an invoker. The breaker opens after a run of
// consecutive failures and recovers on its own; an open breaker is just
// another "no decision".
func NewCustomInvoker() *CustomInvoker {
	return &CustomInvoker{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "custom-router",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Invoke runs the custom router with the request (annotated with the token
// estimate) and config on stdin. It returns ok=false with a nil error when
// the script declined to route, and a non-nil error for every failure mode;
// the engine treats both identically as fallthrough.
func (ci *CustomInvoker) Invoke(ctx context.Context, req *types.Request, cfg *config.RouterConfig, tokenEstimate int) (provider, model string, ok bool, err error) {
	path := strings.TrimSpace(cfg.CustomRouterPath)
	if path == "" {
		return "", "", false, nil
	}

	payload, err := buildPayload(req, cfg, tokenEstimate)
	if err != nil {
		return "", "", false, fmt.Errorf("encode custom router payload: %w", err)
	}

	out, err := ci.breaker.Execute(func() (any, error) {
		return runScript(ctx, path, cfg.CustomRouterTimeout(), payload)
	})
	if err != nil {
		return "", "", false, err
	}

	provider, model, ok = parseOutput(out.([]byte))
	if !ok {
		return "", "", false, errNoDecision
	}
	return provider, model, true, nil
}

// buildPayload assembles {"request": ..., "config": ...} with the token
// estimate spliced into the request object.
func buildPayload(req *types.Request, cfg *config.RouterConfig, tokenEstimate int) ([]byte, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	reqJSON, err = sjson.SetBytes(reqJSON, "tokenCount", tokenEstimate)
	if err != nil {
		return nil, err
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	payload, err := sjson.SetRawBytes([]byte(`{}`), "request", reqJSON)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(payload, "config", cfgJSON)
}

func runScript(ctx context.Context, path string, timeout time.Duration, payload []byte) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("custom router timed out after %s", timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("custom router failed: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("custom router failed: %w", err)
	}
	return stdout.Bytes(), nil
}

// parseOutput accepts a JSON string ("provider,model"), a bare
// provider,model line, or null / anything else as no decision.
func parseOutput(out []byte) (provider, model string, ok bool) {
	raw := strings.TrimSpace(string(out))
	if raw == "" || raw == "null" {
		return "", "", false
	}

	candidate := raw
	if gjson.Valid(raw) {
		res := gjson.Parse(raw)
		if res.Type != gjson.String {
			return "", "", false
		}
		candidate = res.String()
	}
	return types.SplitProviderModel(candidate)
}
