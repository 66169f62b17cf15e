package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// fileEntry mirrors one table of the catalog file. unit_price may be
// written as a string, float or integer.
type fileEntry struct {
	UnitPrice   any    `toml:"unit_price"`
	MinOrderQty int64  `toml:"min_order_qty"`
	MinOrder    int64  `toml:"min_order"`
	Currency    string `toml:"currency"`
}

// Load reads a catalog from a TOML file where every top-level key is a
// product code:
//
//	"08-50-0113" = { unit_price = "1.25", min_order_qty = 1000, currency = "USD" }
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a TOML catalog from r.
func Parse(r io.Reader) (*Catalog, error) {
	raw := make(map[string]fileEntry)
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(raw))
	for code := range raw {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	entries := make([]Entry, 0, len(raw))
	for _, code := range codes {
		fe := raw[code]
		price, err := toDecimal(fe.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", code, err)
		}
		moq := fe.MinOrderQty
		if moq == 0 {
			moq = fe.MinOrder
		}
		entries = append(entries, Entry{
			Code:        code,
			UnitPrice:   price,
			MinOrderQty: moq,
			Currency:    fe.Currency,
		})
	}

	return New(entries)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch p := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("unit_price is required")
	case string:
		d, err := decimal.NewFromString(p)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid unit_price %q: %w", p, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(p), nil
	case int64:
		return decimal.NewFromInt(p), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported unit_price type %T", v)
	}
}

// Default returns the built-in demo catalog.
func Default() *Catalog {
	c, err := New([]Entry{
		{Code: "08-50-0113", UnitPrice: decimal.RequireFromString("1.25"), MinOrderQty: 1000, Currency: "USD"},
		{Code: "22-01-1042", UnitPrice: decimal.RequireFromString("3.75"), MinOrderQty: 500, Currency: "USD"},
		{Code: "42816-0212", UnitPrice: decimal.RequireFromString("15.50"), MinOrderQty: 100, Currency: "USD"},
	})
	if err != nil {
		panic(fmt.Sprintf("invalid built-in catalog: %v", err))
	}
	return c
}
