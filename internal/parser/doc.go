// Package parser extracts product codes and quantities from free-text
// customer emails.
//
// Emails are scanned line by line. Leading list markers ("1)", "-", "*")
// are dropped, then every product code followed by a quantity token
// becomes a LineItem:
//
//	1) 08-50-0113, 20Kpcs   -> {08-50-0113 20000}
//	- 42816-0212: 200 pcs   -> {42816-0212 200}
//	22-01-1042 x 15         -> {22-01-1042 15}
//
// Lines without a product code (greetings, signatures) are skipped.
// Repeated codes are reported once per occurrence; merging is left to
// the caller.
package parser
