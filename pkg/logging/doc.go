// Package logging provides a structured logging system for opscheck with
// unified log handling and level filtering.
//
// The package is built on Go's standard slog package. All log entries carry
// a subsystem identifier for categorization, a message with optional
// formatting, and optional error information:
//
//	logging.Init(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Application starting up")
//	logging.Debug("Config", "Loaded configuration from %s", configPath)
//	logging.Warn("SSE", "Session queue full, dropping event")
//	logging.Error("ABCClient", err, "Health check failed")
//
// The minimum level can be changed at runtime with SetLevel; the config
// watcher uses this to apply log-level changes without a restart.
//
// Session identifiers should be passed through TruncateSessionID before
// logging so full IDs never reach log aggregation systems.
package logging
