package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrResult   = "result"
	attrTool     = "tool"
	attrFamily   = "family"
	attrCurrency = "currency"
	attrDomain   = "customer_domain"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result label values of quotes_total.
const (
	QuoteResultQuoted         = "quoted"
	QuoteResultUnknownProduct = "unknown_product"
	QuoteResultParseError     = "parse_error"
)

// Result label values of time_lookups_total.
const (
	TimeResultSuccess         = "success"
	TimeResultInvalidTimezone = "invalid_timezone"
)

// Metrics records the server's OpenTelemetry instruments. All methods are
// safe on a nil or zero Metrics.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	quotesTotal         metric.Int64Counter
	quoteLines          metric.Int64Histogram
	quoteValue          metric.Float64Histogram
	unknownProductCodes metric.Int64Counter
	catalogProducts     metric.Int64Gauge
	timeLookupsTotal    metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the customer domain to tool metrics.
	detailedLabels bool
}

// instruments creates instruments on one meter and keeps the first error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) wrap(name string, err error) {
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
}

func (in *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.wrap(name, err)
	return c
}

func (in *instruments) upDown(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.wrap(name, err)
	return c
}

func (in *instruments) gauge(name, desc, unit string) metric.Int64Gauge {
	g, err := in.meter.Int64Gauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.wrap(name, err)
	return g
}

func (in *instruments) intHistogram(name, desc, unit string, bounds ...float64) metric.Int64Histogram {
	h, err := in.meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(bounds...))
	in.wrap(name, err)
	return h
}

func (in *instruments) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithExplicitBucketBoundaries(bounds...)}
	if unit != "" {
		opts = append(opts, metric.WithUnit(unit))
	}
	h, err := in.meter.Float64Histogram(name, opts...)
	in.wrap(name, err)
	return h
}

// NewMetrics creates every instrument on meter. detailedLabels enables
// the high-cardinality customer_domain label.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	in := &instruments{meter: meter}

	m := &Metrics{
		httpRequestsTotal: in.counter("http_requests_total",
			"HTTP requests served by the streamable transport", "{request}"),
		httpRequestDuration: in.histogram("http_request_duration_seconds",
			"HTTP request latency", "s",
			0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10),
		activeSessions: in.upDown("active_sessions",
			"MCP client sessions currently connected", "{session}"),

		quotesTotal: in.counter("quotes_total",
			"Quote requests by result", "{quote}"),
		quoteLines: in.intHistogram("quote_lines",
			"Priced lines per generated quote", "{line}",
			1, 2, 3, 5, 10, 20, 50),
		quoteValue: in.histogram("quote_grand_total",
			"Grand total of generated quotes in the catalog currency", "",
			100, 1000, 5000, 10000, 50000, 100000, 500000),
		unknownProductCodes: in.counter("unknown_product_codes_total",
			"Product codes found in emails but missing from the catalog", "{code}"),
		catalogProducts: in.gauge("catalog_products",
			"Products in the loaded catalog", "{product}"),
		timeLookupsTotal: in.counter("time_lookups_total",
			"Current-time lookups by result", "{lookup}"),

		toolInvocationsTotal: in.counter("mcp_tool_invocations_total",
			"MCP tool calls by tool and status", "{invocation}"),
		toolDuration: in.histogram("mcp_tool_duration_seconds",
			"MCP tool execution time", "s",
			0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5),

		detailedLabels: detailedLabels,
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// RecordHTTPRequest counts one request and its latency.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordQuote records a generated quote. unknownCodes are the codes that
// were skipped because the catalog lacks them.
func (m *Metrics) RecordQuote(ctx context.Context, lines int, unknownCodes []string, grandTotal float64, currency string) {
	if m == nil || m.quotesTotal == nil {
		return
	}

	m.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, QuoteResultQuoted)))
	m.quoteLines.Record(ctx, int64(lines))
	m.quoteValue.Record(ctx, grandTotal, metric.WithAttributes(attribute.String(attrCurrency, currency)))
	m.RecordUnknownCodes(ctx, unknownCodes)
}

// RecordQuoteFailure records a quote request that produced no quote.
// Result should be one of QuoteResultUnknownProduct or QuoteResultParseError.
func (m *Metrics) RecordQuoteFailure(ctx context.Context, result string, unknownCodes []string) {
	if m == nil || m.quotesTotal == nil {
		return
	}

	m.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	m.RecordUnknownCodes(ctx, unknownCodes)
}

// RecordUnknownCodes counts product codes missing from the catalog,
// labelled by code family to bound cardinality.
func (m *Metrics) RecordUnknownCodes(ctx context.Context, codes []string) {
	if m == nil || m.unknownProductCodes == nil {
		return
	}

	for _, code := range codes {
		m.unknownProductCodes.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrFamily, ProductFamily(code)),
		))
	}
}

// SetCatalogProducts records the size of the loaded catalog.
func (m *Metrics) SetCatalogProducts(ctx context.Context, n int) {
	if m == nil || m.catalogProducts == nil {
		return
	}

	m.catalogProducts.Record(ctx, int64(n))
}

// RecordTimeLookup records a current-time lookup.
// Result should be one of: "success", "invalid_timezone"
func (m *Metrics) RecordTimeLookup(ctx context.Context, result string) {
	if m == nil || m.timeLookupsTotal == nil {
		return
	}

	m.timeLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records a tool call without customer attribution.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithCustomer(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithCustomer records an MCP tool invocation with the
// customer's email domain, which is only attached when detailedLabels is enabled.
func (m *Metrics) RecordToolInvocationWithCustomer(ctx context.Context, toolName, status, customer string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && customer != "" {
		attrs = append(attrs, attribute.String(attrDomain, ExtractCustomerDomain(customer)))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveSessions is called when a client session registers.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}

	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions is called when a client session goes away.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}

	m.activeSessions.Add(ctx, -1)
}
