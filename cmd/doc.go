// Package cmd implements the command-line interface for inboxquote.
//
// This package provides the following commands:
//   - serve: Start the MCP server with the quoting tools (default)
//   - quote: Price the products asked for in an email
//   - time: Print the current time in a timezone
//   - catalog: List the products in the catalog
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
