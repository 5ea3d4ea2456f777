package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Logical route names resolved through RouterConfig.Routes.
const (
	RouteDefault     = "default"
	RouteBackground  = "background"
	RouteThink       = "think"
	RouteLongContext = "longContext"
	RouteWebSearch   = "webSearch"
)

// DefaultLongContextThreshold is the token estimate above which the
// long-context route applies when the config does not set one.
const DefaultLongContextThreshold = 60000

// DefaultCustomRouterTimeout bounds one custom router invocation.
const DefaultCustomRouterTimeout = 10 * time.Second

// RouterConfig is the immutable routing snapshot for one decision call.
// It is safe to share across concurrent requests; the engine never writes
// to it. Hot reload is the surrounding service's concern: it swaps in a
// freshly loaded snapshot between requests.
type RouterConfig struct {
	// Routes maps logical route names to "provider,model" pairs.
	Routes map[string]string `yaml:"routes" json:"routes"`

	// LongContextThreshold is the token estimate above which requests
	// route to Routes[longContext].
	LongContextThreshold int `yaml:"long_context_threshold" json:"longContextThreshold"`

	// CustomRouterPath names an external executable consulted before the
	// built-in rules. Empty disables the rule.
	CustomRouterPath string `yaml:"custom_router_path" json:"customRouterPath,omitempty"`

	// CustomRouterTimeoutSeconds bounds one invocation of the custom
	// router; zero means DefaultCustomRouterTimeout.
	CustomRouterTimeoutSeconds int `yaml:"custom_router_timeout_seconds" json:"-"`

	// StrictProviders lists providers whose transformers require
	// block-typed content; the normalizer's strict pass runs only for them.
	StrictProviders []string `yaml:"strict_providers" json:"strictProviders,omitempty"`
}

// DefaultRouterConfig returns a snapshot with thresholds filled in and no
// routes configured.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Routes:               map[string]string{},
		LongContextThreshold: DefaultLongContextThreshold,
	}
}

// LoadRouterConfig reads a router config file. Both YAML and JSON bodies
// are accepted. Missing numeric fields fall back to defaults.
func LoadRouterConfig(path string) (*RouterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read router config: %w", err)
	}
	cfg := &RouterConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse router config %s: %w", path, err)
	}
	if cfg.Routes == nil {
		cfg.Routes = map[string]string{}
	}
	if cfg.LongContextThreshold <= 0 {
		cfg.LongContextThreshold = DefaultLongContextThreshold
	}
	return cfg, nil
}

// CustomRouterTimeout returns the configured invocation bound, falling back
// to the default when unset.
func (c *RouterConfig) CustomRouterTimeout() time.Duration {
	if c == nil || c.CustomRouterTimeoutSeconds <= 0 {
		return DefaultCustomRouterTimeout
	}
	return time.Duration(c.CustomRouterTimeoutSeconds) * time.Second
}

// Route returns the raw "provider,model" value for a logical route name.
func (c *RouterConfig) Route(name string) string {
	if c == nil || c.Routes == nil {
		return ""
	}
	return strings.TrimSpace(c.Routes[name])
}

// RequiresStrictContent reports whether the given provider needs the
// strict block-typed content shape.
func (c *RouterConfig) RequiresStrictContent(provider string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.StrictProviders {
		if strings.EqualFold(strings.TrimSpace(p), provider) {
			return true
		}
	}
	return false
}
