// Package logging provides structured logging utilities for inboxquote.
//
// It builds the slog logger from the --log-level and --log-format flags
// and holds the attribute helpers every component logs with.
//
// # Key Features
//
//   - Logger construction from level/format settings (Setup)
//   - Customer anonymization for quote requests
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Use the shared attribute helpers:
//
//	logger.Info("quote generated",
//	    logging.Tool("generate_quote"),
//	    logging.QuoteID(q.ID))
//
// Hash customer identifiers before logging:
//
//	logger.Info("quote requested", logging.CustomerHash(from))
//
// Logs always go to stderr. When the server runs on the stdio transport,
// stdout carries the MCP protocol stream.
package logging
