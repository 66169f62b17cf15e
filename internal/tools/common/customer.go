package common

import "strings"

// CustomerArg is the optional tool argument naming who asked for the quote.
const CustomerArg = "customer"

// GetCustomerFromArgs returns the trimmed "customer" argument, or "" when
// it is absent or not a string.
func GetCustomerFromArgs(args map[string]any) string {
	if v, ok := args[CustomerArg].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// GetStringArg returns a trimmed string argument, or def when it is
// missing, empty or of another type.
func GetStringArg(args map[string]any, key, def string) string {
	v, ok := args[key].(string)
	if !ok {
		return def
	}
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
