// Package logging provides structured logging for dabcheck.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - Text output by default (human-readable, CI logs)
//   - JSON output for log shippers (machine-parsable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the logging section of the dabcheck config file:
//
//	logging:
//	  level: "warn"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// Logs default to stderr because stdout carries the validation report.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("validating bundle", "path", root)
//	logger.Warn("history unavailable", "error", err)
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys. This matters more than
// usual here: bundle files under validation may contain the very secrets the
// security rule is looking for, so log file paths and rule names, never
// scalar values.
package logging
