// Package batch provides utilities for tools that accept many inputs in
// one call.
//
// This package includes helpers for:
//   - Parsing parameters that accept both single values and arrays
//   - Processing items concurrently with a bounded worker count
//   - Reporting partial failures in a consistent structure
package batch
