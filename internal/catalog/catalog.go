package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used for entries that do not declare a currency.
const DefaultCurrency = "USD"

// Entry is a single product in the price catalog.
type Entry struct {
	Code        string          `json:"code"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	MinOrderQty int64           `json:"min_order_qty"`
	Currency    string          `json:"currency"`
}

// Validate checks that the entry can be priced.
func (e Entry) Validate() error {
	if e.Code == "" {
		return fmt.Errorf("product code is required")
	}
	if !e.UnitPrice.IsPositive() {
		return fmt.Errorf("product %s: unit price must be positive, got %s", e.Code, e.UnitPrice)
	}
	if e.MinOrderQty < 1 {
		return fmt.Errorf("product %s: minimum order quantity must be at least 1, got %d", e.Code, e.MinOrderQty)
	}
	if _, err := currency.ParseISO(e.Currency); err != nil {
		return fmt.Errorf("product %s: invalid currency %q", e.Code, e.Currency)
	}
	return nil
}

// Catalog is an immutable set of products keyed by normalised code.
// All entries share one currency. It is safe for concurrent use.
type Catalog struct {
	entries  map[string]Entry
	codes    []string
	currency string
}

// New builds a catalog from the given entries. Codes are normalised with
// NormalizeCode; duplicates, invalid entries and mixed currencies are
// rejected.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[string]Entry, len(entries)),
		codes:   make([]string, 0, len(entries)),
	}

	for _, e := range entries {
		e.Code = NormalizeCode(e.Code)
		if e.Currency == "" {
			e.Currency = DefaultCurrency
		}
		e.Currency = strings.ToUpper(e.Currency)
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.entries[e.Code]; exists {
			return nil, fmt.Errorf("duplicate product code %s", e.Code)
		}
		if c.currency == "" {
			c.currency = e.Currency
		} else if e.Currency != c.currency {
			return nil, fmt.Errorf("product %s: currency %s differs from catalog currency %s", e.Code, e.Currency, c.currency)
		}
		c.entries[e.Code] = e
		c.codes = append(c.codes, e.Code)
	}

	sort.Strings(c.codes)
	return c, nil
}

// Lookup returns the entry for code. The code is normalised first.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[NormalizeCode(code)]
	return e, ok
}

// Entries returns a copy of all entries sorted by code.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.entries[code])
	}
	return out
}

// Currency returns the currency every price is expressed in.
func (c *Catalog) Currency() string {
	if c == nil || c.currency == "" {
		return DefaultCurrency
	}
	return c.currency
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.codes)
}

// NormalizeCode trims and upper-cases a product code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
