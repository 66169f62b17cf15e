// Package catalog holds the product price catalog used to price quotes.
//
// A Catalog is built once at startup, either from the built-in demo data
// (Default) or from a TOML file (Load), and is read-only afterwards. It is
// passed explicitly to the quote engine rather than living in a global.
package catalog
