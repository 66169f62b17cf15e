package quote

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format selects how a quote is rendered for a tool response.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat validates a format name. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be %q or %q", s, FormatJSON, FormatText)
	}
}

// Text renders q as a plain-text quote suitable for an email reply.
func Text(q *Quote) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "Quote %s\n", q.ID)
	fmt.Fprintf(&b, "Date: %s\n", q.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Valid until: %s\n\n", q.ValidUntil.Format("2006-01-02"))

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Product\tQty\tUnit price\tDiscount\tNet price\tTotal\t")
	for _, l := range q.Lines {
		discount := "-"
		if l.DiscountPct > 0 {
			discount = fmt.Sprintf("%d%%", l.DiscountPct)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			l.ProductCode,
			p.Sprintf("%d", l.Quantity),
			l.UnitPrice.StringFixed(2),
			discount,
			l.DiscountedUnitPrice.StringFixed(4),
			l.LineTotal.StringFixed(2))
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\nTotal: %s %s\n", q.GrandTotal.StringFixed(2), q.Currency)
	if len(q.UnknownCodes) > 0 {
		fmt.Fprintf(&b, "Not in catalog: %s\n", strings.Join(q.UnknownCodes, ", "))
	}
	if q.Terms != "" {
		fmt.Fprintf(&b, "\n%s\n", q.Terms)
	}
	return b.String()
}
