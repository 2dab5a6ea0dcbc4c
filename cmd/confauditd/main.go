// confauditd is the HTTP audit service.
//
// It exposes the compliance audit as a REST API with an SSE findings
// stream and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/confaudit/confaudit/pkg/api"
	"github.com/confaudit/confaudit/pkg/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "HTTP listen address")
	apiKeys := flag.String("api-key", "", "comma-separated auditor API keys (Bearer / X-API-Key)")
	viewerKeys := flag.String("viewer-key", "", "comma-separated read-only API keys")
	users := flag.String("user", "", "comma-separated user:password pairs for basic auth (auditor role)")
	events := flag.Int("events", 1000, "event buffer capacity for the findings stream")
	maxRuns := flag.Int("max-runs", 50, "run history size")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Set up structured logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	auth, err := buildAuth(*users, *apiKeys, *viewerKeys)
	if err != nil {
		fmt.Fprintf(os.Stderr, "confauditd: %v\n", err)
		os.Exit(1)
	}

	srv := api.NewServer(api.Config{
		Addr:     *addr,
		Auth:     auth,
		EventBuf: logging.NewEventBuffer(*events),
		MaxRuns:  *maxRuns,
	})

	// Handle signals for clean shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "confauditd: %v\n", err)
		os.Exit(1)
	}
}

// buildAuth assembles the auth middleware config from the flag values.
// Returns nil when no credentials are given: the API runs open.
func buildAuth(users, apiKeys, viewerKeys string) (*api.AuthConfig, error) {
	if users == "" && apiKeys == "" && viewerKeys == "" {
		return nil, nil
	}

	cfg := &api.AuthConfig{
		Users:   make(map[string]api.Credential),
		APIKeys: make(map[string]api.Role),
	}
	for _, pair := range splitList(users) {
		name, pass, ok := strings.Cut(pair, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("bad -user entry %q, want user:password", pair)
		}
		cfg.Users[name] = api.Credential{Password: pass, Role: api.RoleAuditor}
	}
	for _, key := range splitList(apiKeys) {
		cfg.APIKeys[key] = api.RoleAuditor
	}
	for _, key := range splitList(viewerKeys) {
		cfg.APIKeys[key] = api.RoleViewer
	}
	return cfg, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
