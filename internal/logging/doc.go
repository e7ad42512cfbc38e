// Package logging provides structured logging for the joymap tools.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the store service and the editor.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (store client attempts, websocket traffic)
//   - Info: Normal operations (requests served, mapping changes, process restarts)
//   - Warn: Non-fatal issues (load fallbacks, failed retries, dropped clients)
//   - Error: Fatal issues (startup failures, unwritable mapping file)
//
// # Silent by Default
//
// Nothing is logged until a level is given, either with --log-level or the
// JOYMAP_LOG_LEVEL environment variable. The editor writes its log to a file
// because the terminal UI owns the screen:
//
//	_ = logging.InitializeWithOutput("debug", "/tmp/joymap-edit.log")
//	defer logging.Sync()
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Remapper restarted",
//	    zap.Int("pid", pid),
//	    zap.Duration("stop_time", elapsed),
//	)
package logging
