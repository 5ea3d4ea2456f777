// Package config holds the server configuration (environment + flags) and
// the router configuration snapshot consumed by the routing engine.
package config

import (
	"os"
	"strconv"
	"strings"
)

// ServerConfig holds all server configuration.
type ServerConfig struct {
	Host        string
	Port        int
	Verbose     bool
	Debug       bool
	AccessToken string
	RouterFile  string
}

// DefaultFromEnv creates a ServerConfig with defaults from environment variables.
func DefaultFromEnv() *ServerConfig {
	return &ServerConfig{
		Host:        envOrDefault("CCR_HOST", "127.0.0.1"),
		Port:        envInt("CCR_PORT", 3456),
		Verbose:     envBool("CCR_VERBOSE"),
		Debug:       envBool("CCR_DEBUG"),
		AccessToken: strings.TrimSpace(os.Getenv("CCR_ACCESS_TOKEN")),
		RouterFile:  strings.TrimSpace(os.Getenv("CCR_ROUTER_CONFIG")),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
