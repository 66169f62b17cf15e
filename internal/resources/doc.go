// Package resources provides read-only MCP resources. Clients fetch them
// to see the price catalog and discount schedule a quote is built from.
package resources
