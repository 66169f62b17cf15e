package parser

import (
	"iter"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/teemow/inboxquote/internal/catalog"
)

// LineItem is one product code and quantity found in an email.
type LineItem struct {
	ProductCode string `json:"product_code"`
	Quantity    int64  `json:"quantity"`
	// Line is the 1-based line number the item was found on.
	Line int `json:"line"`
}

const thousand = 1000

var (
	// listMarkerPattern matches "1)", "1.", "(2)", "a)", "-", "*", "•" and
	// quote markers at the start of a line.
	listMarkerPattern = regexp.MustCompile(`^\s*(?:[-*•+>]+|\(?\d{1,3}[.)]|\(?[A-Za-z]\))\s*`)

	// lineItemPattern matches a hyphenated product code followed by a
	// quantity token such as "20Kpcs", "200 pcs", "5k" or "15".
	lineItemPattern = regexp.MustCompile(
		`(?i)\b([a-z0-9]+(?:-[a-z0-9]+)+)\b` + // product code
			`(?:\s*[,:;=]\s*|\s+[-–]\s+|\s+)(?:(?:qty|quantity)\.?\s*[:=]?\s*|x\s*)?` + // separator
			`(\d{1,3}(?:,\d{3})+|\d+)((?:[.,]\d+)*)` + // quantity digits and fraction
			`\s*(k)?\s*(?:pcs|pc|pieces)?\b`, // multiplier and unit
	)

	// isoDatePattern filters dates such as "2024-05-01" out of the
	// product codes; they share the code shape and show up in headers.
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Parse validates text and returns a lazy sequence of the line items it
// contains. The sequence can be ranged over any number of times and
// always yields the same items.
func Parse(text string) (iter.Seq[LineItem], error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	return func(yield func(LineItem) bool) {
		lineNo := 0
		for line := range strings.Lines(text) {
			lineNo++
			for _, item := range parseLine(line) {
				item.Line = lineNo
				if !yield(item) {
					return
				}
			}
		}
	}, nil
}

// ParseValue is Parse for loosely typed input such as a decoded tool
// argument. Anything that is not a string or byte slice is a ParseError.
func ParseValue(v any) (iter.Seq[LineItem], error) {
	switch body := v.(type) {
	case nil:
		return nil, &ParseError{Reason: "email body is missing"}
	case string:
		return Parse(body)
	case []byte:
		return Parse(string(body))
	default:
		return nil, &ParseError{Reason: "email body must be text, got " + typeName(v)}
	}
}

// Collect parses text and returns all items as a slice.
func Collect(text string) ([]LineItem, error) {
	seq, err := Parse(text)
	if err != nil {
		return nil, err
	}
	var items []LineItem
	for item := range seq {
		items = append(items, item)
	}
	return items, nil
}

func validateText(text string) error {
	if !utf8.ValidString(text) {
		return &ParseError{Reason: "email body is not valid UTF-8 text"}
	}
	if strings.IndexByte(text, 0) >= 0 {
		return &ParseError{Reason: "email body contains binary data"}
	}
	return nil
}

func parseLine(line string) []LineItem {
	line = strings.TrimRight(line, "\r\n")
	line = listMarkerPattern.ReplaceAllString(line, "")
	if line == "" {
		return nil
	}

	matches := lineItemPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}

	items := make([]LineItem, 0, len(matches))
	for _, m := range matches {
		code := line[m[2]:m[3]]
		if !strings.ContainsFunc(code, unicode.IsDigit) || isoDatePattern.MatchString(code) {
			continue
		}
		// "1.5x" can still match as "1" by giving up the fraction.
		if hasFraction(line[m[7]:]) {
			continue
		}
		qty, ok := parseQuantity(line[m[4]:m[5]], line[m[6]:m[7]], m[8] >= 0)
		if !ok {
			continue
		}
		items = append(items, LineItem{
			ProductCode: catalog.NormalizeCode(code),
			Quantity:    qty,
		})
	}
	return items
}

func hasFraction(rest string) bool {
	return len(rest) >= 2 && (rest[0] == '.' || rest[0] == ',') && rest[1] >= '0' && rest[1] <= '9'
}

// parseQuantity converts the digit run, fraction and K multiplier to a
// positive quantity. A fraction is only accepted with K and only when the
// result is a whole number of pieces ("1.5K" is 1500, "2.5" and "20.000"
// are rejected). Zero and overflowing values are rejected.
func parseQuantity(digits, fraction string, kilo bool) (int64, bool) {
	whole := strings.ReplaceAll(digits, ",", "")
	if fraction == "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		if kilo {
			if n > math.MaxInt64/thousand {
				return 0, false
			}
			n *= thousand
		}
		return n, true
	}

	if !kilo || strings.ContainsAny(fraction[1:], ".,") {
		return 0, false
	}
	n, err := decimal.NewFromString(whole + "." + fraction[1:])
	if err != nil {
		return 0, false
	}
	n = n.Mul(decimal.NewFromInt(thousand))
	if !n.IsInteger() || !n.IsPositive() || n.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, false
	}
	return n.IntPart(), true
}

func typeName(v any) string {
	switch v.(type) {
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unsupported type"
	}
}
