package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jerryzhao173985/ccr/internal/config"
	"github.com/jerryzhao173985/ccr/internal/pipeline"
	"github.com/jerryzhao173985/ccr/internal/server"
	"github.com/jerryzhao173985/ccr/internal/types"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: ccr <command> [flags]")
		fmt.Fprintln(os.Stderr, "Commands: serve, route, version")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(cmdServe())
	case "route":
		os.Exit(cmdRoute())
	case "version":
		fmt.Println("ccr " + version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Commands: serve, route, version")
		os.Exit(1)
	}
}

func cmdServe() int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := config.DefaultFromEnv()

	fs.StringVar(&cfg.Host, "host", cfg.Host, "Bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Listen port")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose logging")
	fs.StringVar(&cfg.RouterFile, "router-config", cfg.RouterFile, "Path to the router config file")
	fs.Parse(os.Args[2:])

	routerCfg, err := loadRouterConfig(cfg.RouterFile)
	if err != nil {
		slog.Error("failed to load router config", "error", err)
		return 1
	}

	srv := server.New(cfg, routerCfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("ccr starting", "host", cfg.Host, "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return 1
	}
	return 0
}

// cmdRoute reads one request from stdin, runs it through the pipeline, and
// prints the decision with the normalized request. Useful for integration
// debugging and custom-router development.
func cmdRoute() int {
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	routerFile := fs.String("router-config", os.Getenv("CCR_ROUTER_CONFIG"), "Path to the router config file")
	fs.Parse(os.Args[2:])

	routerCfg, err := loadRouterConfig(*routerFile)
	if err != nil {
		slog.Error("failed to load router config", "error", err)
		return 1
	}

	var req types.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		slog.Error("failed to decode request from stdin", "error", err)
		return 1
	}

	decision, err := pipeline.New().Process(context.Background(), &req, routerCfg)
	if err != nil {
		slog.Error("routing failed", "error", err)
		return 1
	}

	out := map[string]any{
		"provider": decision.Provider,
		"model":    decision.Model,
		"source":   decision.Source,
		"request":  &req,
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
	return 0
}

func loadRouterConfig(path string) (*config.RouterConfig, error) {
	if path == "" {
		return config.DefaultRouterConfig(), nil
	}
	return config.LoadRouterConfig(path)
}
