package quote

import (
	"context"
	"fmt"
	"iter"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxquote/internal/catalog"
	"github.com/teemow/inboxquote/internal/instrumentation"
	"github.com/teemow/inboxquote/internal/logging"
	"github.com/teemow/inboxquote/internal/parser"
)

const (
	// DefaultValidity is how long a quote stays valid.
	DefaultValidity = 30 * 24 * time.Hour

	// DefaultTerms is printed on every quote unless overridden.
	DefaultTerms = "Payment terms: Net 30 days. Shipping not included."
)

// Options configures an Engine. Only Catalog is required.
type Options struct {
	Catalog *catalog.Catalog

	// Location is the zone quote timestamps are expressed in. Defaults to UTC.
	Location *time.Location
	Validity time.Duration
	Terms    string

	Now    func() time.Time
	IDs    IDGenerator
	Logger logging.Logger
}

// Engine turns customer emails into quotes. It holds no mutable state
// apart from the id sequence and is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	location *time.Location
	validity time.Duration
	terms    string
	now      func() time.Time
	ids      IDGenerator
	logger   logging.Logger
}

// NewEngine creates an engine over the given catalog.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Validity < 0 {
		return nil, fmt.Errorf("quote validity must not be negative, got %s", opts.Validity)
	}

	e := &Engine{
		catalog:  opts.Catalog,
		location: opts.Location,
		validity: opts.Validity,
		terms:    opts.Terms,
		now:      opts.Now,
		ids:      opts.IDs,
		logger:   opts.Logger,
	}
	if e.location == nil {
		e.location = time.UTC
	}
	if e.validity == 0 {
		e.validity = DefaultValidity
	}
	if e.terms == "" {
		e.terms = DefaultTerms
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.ids == nil {
		e.ids = &SequenceIDs{}
	}
	if e.logger == nil {
		e.logger = logging.DefaultLogger()
	}
	return e, nil
}

// Catalog returns the catalog the engine prices against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Location returns the zone quote timestamps are expressed in.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Generate parses text and prices every known product in it.
//
// Items that share a product code are merged by summing their quantities.
// Codes missing from the catalog are listed in UnknownCodes and left out
// of the totals. If no code resolves, Generate returns an
// *UnknownProductError; input that is not text yields a *parser.ParseError.
func (e *Engine) Generate(ctx context.Context, text string) (*Quote, error) {
	return e.GenerateValue(ctx, text)
}

// GenerateValue is Generate for a loosely typed email body, such as a
// decoded tool argument.
func (e *Engine) GenerateValue(ctx context.Context, body any) (q *Quote, err error) {
	_, span := instrumentation.StartInternalSpan(ctx, instrumentation.SpanQuoteGenerate,
		attribute.String(instrumentation.AttrCurrency, e.catalog.Currency()))
	defer func() { instrumentation.EndSpan(span, err) }()

	items, err := parser.ParseValue(body)
	if err != nil {
		return nil, err
	}
	q, err = e.build(items)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(instrumentation.QuoteAttributes(q.ID, len(q.Lines), len(q.UnknownCodes))...)
	return q, nil
}

type mergedItem struct {
	code string
	qty  int64
}

// merge sums quantities per code, keeping first-appearance order.
// Sums that would overflow are clamped.
func merge(items iter.Seq[parser.LineItem]) []mergedItem {
	var out []mergedItem
	index := make(map[string]int)
	for item := range items {
		if i, ok := index[item.ProductCode]; ok {
			out[i].qty = addClamped(out[i].qty, item.Quantity)
			continue
		}
		index[item.ProductCode] = len(out)
		out = append(out, mergedItem{code: item.ProductCode, qty: item.Quantity})
	}
	return out
}

func addClamped(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func (e *Engine) build(items iter.Seq[parser.LineItem]) (*Quote, error) {
	merged := merge(items)

	lines := make([]Line, 0, len(merged))
	unknown := make([]string, 0)
	for _, m := range merged {
		entry, ok := e.catalog.Lookup(m.code)
		if !ok {
			unknown = append(unknown, m.code)
			e.logger.Debug("product code not in catalog", logging.ProductCode(m.code))
			continue
		}
		pct := DiscountFor(m.qty, entry.MinOrderQty)
		lines = append(lines, Line{
			ProductCode:         entry.Code,
			Quantity:            m.qty,
			UnitPrice:           entry.UnitPrice,
			DiscountPct:         pct,
			DiscountedUnitPrice: discountedPrice(entry.UnitPrice, pct),
			LineTotal:           lineTotal(m.qty, entry.UnitPrice, pct),
		})
	}

	if len(lines) == 0 {
		e.logger.Info("no quotable products in email", "unknown_codes", len(unknown))
		return nil, &UnknownProductError{Codes: unknown}
	}

	// Line totals are already rounded to cents, so their sum is exact.
	grand := lines[0].LineTotal
	for _, l := range lines[1:] {
		grand = grand.Add(l.LineTotal)
	}

	now := e.now().In(e.location).Truncate(time.Second)
	q := &Quote{
		ID:           e.ids.NextID(now),
		GeneratedAt:  now,
		ValidUntil:   now.Add(e.validity),
		Currency:     e.catalog.Currency(),
		Lines:        lines,
		GrandTotal:   grand,
		UnknownCodes: unknown,
		Terms:        e.terms,
	}

	e.logger.Info("quote generated",
		logging.QuoteID(q.ID),
		"lines", len(q.Lines),
		"unknown_codes", len(q.UnknownCodes),
		"grand_total", q.GrandTotal.StringFixed(2),
		"currency", q.Currency)
	return q, nil
}
