// Package quote_tools registers the quoting MCP tools: quote generation
// from email text, order line extraction, the product catalog and the
// current time lookup used to date quotes.
package quote_tools
