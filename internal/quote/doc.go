// Package quote prices customer emails against the product catalog.
//
// An Engine parses an email with package parser, merges repeated product
// codes, applies the volume discount schedule and returns a Quote:
//
//	quantity >= 10 x MOQ  -> 15%
//	quantity >=  5 x MOQ  -> 10%
//	quantity >=  2 x MOQ  ->  5%
//
// Line totals are rounded half-up to cents and the grand total is the sum
// of the rounded lines. Codes missing from the catalog are reported in
// Quote.UnknownCodes; an email with no known codes at all fails with an
// *UnknownProductError.
package quote
