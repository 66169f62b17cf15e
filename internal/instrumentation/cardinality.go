package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// Always use these helpers when recording metrics with customer identifiers
// or free-form product codes taken from emails.

// maxFamilyLen bounds the family label so arbitrary text from an email
// cannot create unbounded label values.
const maxFamilyLen = 6

// ExtractCustomerDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractCustomerDomain("jane@example.com")  // "example.com"
//	ExtractCustomerDomain("invalid")           // "unknown"
//	ExtractCustomerDomain("")                  // "unknown"
func ExtractCustomerDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// ProductFamily reduces a product code to its first segment, which groups
// codes by product line.
//
// Example:
//
//	ProductFamily("08-50-0113")   // "08"
//	ProductFamily("42816-0212")   // "42816"
//	ProductFamily("abcdefgh-1")   // "ABCDEF"
func ProductFamily(code string) string {
	family, _, _ := strings.Cut(strings.TrimSpace(code), "-")
	if family == "" {
		return "unknown"
	}
	if len(family) > maxFamilyLen {
		family = family[:maxFamilyLen]
	}
	return strings.ToUpper(family)
}
