// Package app wires configuration, logging, the ABC client, the tool
// registry and the HTTP server together and runs them until the context
// is cancelled.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"opscheck/internal/abc"
	"opscheck/internal/config"
	"opscheck/internal/intent"
	"opscheck/internal/protocol"
	"opscheck/internal/server"
	"opscheck/internal/sse"
	"opscheck/internal/tools"
	"opscheck/pkg/logging"
)

// ServerName identifies this server in the protocol handshake.
const ServerName = "opscheck"

// shutdownTimeout bounds the graceful-shutdown drain.
const shutdownTimeout = 10 * time.Second

// Options carries what the command line hands to the application.
type Options struct {
	ConfigPath string
	Version    string
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), os.Stdout)

	client := abc.NewClient(abc.Config{
		BaseURL:      cfg.ABC.BaseURL,
		APIKey:       cfg.ABC.APIKey,
		Timeout:      cfg.ABC.Timeout,
		MaxRetries:   cfg.ABC.MaxRetries,
		RetryBackoff: cfg.ABC.RetryBackoff,
	})

	registry, err := protocol.NewToolRegistry(
		tools.CheckSystemABC(intent.New(), client),
	)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	manager := sse.NewManager(sse.Config{
		MaxConnections:    cfg.SSE.MaxConnections,
		HeartbeatInterval: cfg.SSE.HeartbeatInterval,
		QueueSize:         cfg.SSE.QueueSize,
	})

	srv := server.New(cfg.Server, registry, manager, protocol.ServerInfo{
		Name:    ServerName,
		Version: opts.Version,
	})

	// Config changes at runtime only affect the log level; everything else
	// needs a restart.
	watcher := config.NewWatcher(opts.ConfigPath, func(next config.Config) {
		logging.SetLevel(logging.ParseLevel(next.Logging.Level))
		logging.Info("App", "Log level set to %s", next.Logging.Level)
	})
	if err := watcher.Start(); err != nil {
		logging.Warn("App", "Config watcher failed to start: %v", err)
	}
	defer watcher.Stop()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	logging.Info("App", "%s %s ready on %s", ServerName, opts.Version, cfg.Server.Addr())

	<-ctx.Done()
	logging.Info("App", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
