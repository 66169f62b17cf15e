package quote

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one priced product in a quote.
type Line struct {
	ProductCode         string          `json:"product_code"`
	Quantity            int64           `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountPct         int             `json:"discount_pct"`
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
}

// Quote is a priced offer built from a single email. A Quote is never
// modified after Generate returns it.
type Quote struct {
	ID          string          `json:"quote_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	ValidUntil  time.Time       `json:"valid_until"`
	Currency    string          `json:"currency"`
	Lines       []Line          `json:"lines"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	// UnknownCodes lists parsed codes missing from the catalog, in the
	// order they first appeared. Never nil.
	UnknownCodes []string `json:"unknown_codes"`
	Terms        string   `json:"terms"`
}

// TotalQuantity returns the number of units across all lines.
func (q *Quote) TotalQuantity() int64 {
	var n int64
	for _, l := range q.Lines {
		n += l.Quantity
	}
	return n
}

// money renders d as a JSON number with at least two decimals, so
// consumers always see cents. Unrounded unit prices keep their precision.
func money(d decimal.Decimal) json.Number {
	s := d.String()
	if i := strings.IndexByte(s, '.'); i < 0 || len(s)-i-1 < 2 {
		s = d.StringFixed(2)
	}
	return json.Number(s)
}

func (l Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		plain
		UnitPrice           json.Number `json:"unit_price"`
		DiscountedUnitPrice json.Number `json:"discounted_unit_price"`
		LineTotal           json.Number `json:"line_total"`
	}{
		plain:               plain(l),
		UnitPrice:           money(l.UnitPrice),
		DiscountedUnitPrice: money(l.DiscountedUnitPrice),
		LineTotal:           money(l.LineTotal),
	})
}

func (q Quote) MarshalJSON() ([]byte, error) {
	type plain Quote
	return json.Marshal(struct {
		plain
		GrandTotal json.Number `json:"grand_total"`
	}{
		plain:      plain(q),
		GrandTotal: money(q.GrandTotal),
	})
}
