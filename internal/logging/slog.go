package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Attribute keys shared by every component that logs.
const (
	KeyTool         = "tool"
	KeyQuoteID      = "quote_id"
	KeyProductCode  = "product_code"
	KeyTimezone     = "timezone"
	KeyCustomerHash = "customer_hash"
	KeyError        = "error"
)

// Output formats accepted by Setup.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup builds the process logger. Empty level and format mean info and text.
func Setup(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q: must be %q or %q", format, FormatText, FormatJSON)
	}
	return slog.New(h), nil
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(level string) (slog.Level, error) {
	name := strings.TrimSpace(level)
	switch strings.ToLower(name) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		name = "warn"
	case "debug", "info", "warn", "error":
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func Tool(name string) slog.Attr { return slog.String(KeyTool, name) }

func QuoteID(id string) slog.Attr { return slog.String(KeyQuoteID, id) }

func ProductCode(code string) slog.Attr { return slog.String(KeyProductCode, code) }

// Timezone is the IANA name of a zone.
func Timezone(name string) slog.Attr { return slog.String(KeyTimezone, name) }

// Err renders err under KeyError. A nil err yields an empty group, which
// handlers drop, so callers need not check.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeCustomer maps a customer address to a stable pseudonym of the
// form "customer:<16 hex>". Case and surrounding space are ignored.
func AnonymizeCustomer(customer string) string {
	normalized := strings.ToLower(strings.TrimSpace(customer))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return "customer:" + hex.EncodeToString(sum[:8])
}

// CustomerHash logs a customer without revealing the address.
func CustomerHash(customer string) slog.Attr {
	return slog.String(KeyCustomerHash, AnonymizeCustomer(customer))
}
