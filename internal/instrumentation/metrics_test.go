package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newRecordingMetrics returns Metrics backed by a manual reader so tests
// can read back what was recorded.
func newRecordingMetrics(t *testing.T, detailed bool) (*Metrics, func() map[string]metricdata.Aggregation) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	collect := func() map[string]metricdata.Aggregation {
		t.Helper()
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
		out := make(map[string]metricdata.Aggregation)
		for _, sm := range rm.ScopeMetrics {
			for _, md := range sm.Metrics {
				out[md.Name] = md.Data
			}
		}
		return out
	}
	return m, collect
}

func sumPoints(t *testing.T, data metricdata.Aggregation) []metricdata.DataPoint[int64] {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("aggregation is %T, want Sum[int64]", data)
	}
	return sum.DataPoints
}

func valueFor(points []metricdata.DataPoint[int64], key, want string) int64 {
	for _, p := range points {
		if v, ok := p.Attributes.Value(attribute.Key(key)); ok && v.AsString() == want {
			return p.Value
		}
	}
	return 0
}

func TestMetrics_RecordQuote(t *testing.T) {
	m, collect := newRecordingMetrics(t, false)
	ctx := context.Background()

	m.RecordQuote(ctx, 3, nil, 40132.50, "USD")
	m.RecordQuote(ctx, 1, []string{"ZZ-99-1", "AB-7"}, 12.0, "USD")
	m.RecordQuoteFailure(ctx, QuoteResultUnknownProduct, []string{"ZZ-99-2"})
	m.RecordQuoteFailure(ctx, QuoteResultParseError, nil)

	data := collect()

	quotes := sumPoints(t, data["quotes_total"])
	if got := valueFor(quotes, attrResult, QuoteResultQuoted); got != 2 {
		t.Errorf("quoted = %d, want 2", got)
	}
	if got := valueFor(quotes, attrResult, QuoteResultUnknownProduct); got != 1 {
		t.Errorf("unknown_product = %d, want 1", got)
	}
	if got := valueFor(quotes, attrResult, QuoteResultParseError); got != 1 {
		t.Errorf("parse_error = %d, want 1", got)
	}

	unknown := sumPoints(t, data["unknown_product_codes_total"])
	if got := valueFor(unknown, attrFamily, "ZZ"); got != 2 {
		t.Errorf("unknown codes in family ZZ = %d, want 2", got)
	}
	if got := valueFor(unknown, attrFamily, "AB"); got != 1 {
		t.Errorf("unknown codes in family AB = %d, want 1", got)
	}

	lines, ok := data["quote_lines"].(metricdata.Histogram[int64])
	if !ok || len(lines.DataPoints) != 1 {
		t.Fatalf("quote_lines = %#v", data["quote_lines"])
	}
	if lines.DataPoints[0].Count != 2 || lines.DataPoints[0].Sum != 4 {
		t.Errorf("quote_lines count=%d sum=%d, want 2 and 4", lines.DataPoints[0].Count, lines.DataPoints[0].Sum)
	}
}

func TestMetrics_CatalogAndTime(t *testing.T) {
	m, collect := newRecordingMetrics(t, false)
	ctx := context.Background()

	m.SetCatalogProducts(ctx, 5)
	m.SetCatalogProducts(ctx, 3)
	m.RecordTimeLookup(ctx, TimeResultSuccess)
	m.RecordTimeLookup(ctx, TimeResultInvalidTimezone)
	m.RecordTimeLookup(ctx, TimeResultSuccess)

	data := collect()

	gauge, ok := data["catalog_products"].(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 3 {
		t.Errorf("catalog_products = %#v, want last value 3", data["catalog_products"])
	}

	lookups := sumPoints(t, data["time_lookups_total"])
	if got := valueFor(lookups, attrResult, TimeResultSuccess); got != 2 {
		t.Errorf("successful lookups = %d, want 2", got)
	}
	if got := valueFor(lookups, attrResult, TimeResultInvalidTimezone); got != 1 {
		t.Errorf("invalid timezone lookups = %d, want 1", got)
	}
}

func TestMetrics_RecordToolInvocation_DetailedLabels(t *testing.T) {
	tests := []struct {
		name       string
		detailed   bool
		wantDomain bool
	}{
		{name: "aggregated", detailed: false},
		{name: "detailed", detailed: true, wantDomain: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, collect := newRecordingMetrics(t, tt.detailed)
			m.RecordToolInvocationWithCustomer(context.Background(), "generate_quote", StatusError, "buyer@acme.io", 5*time.Millisecond)

			points := sumPoints(t, collect()["mcp_tool_invocations_total"])
			if len(points) != 1 {
				t.Fatalf("expected 1 data point, got %d", len(points))
			}
			attrs := points[0].Attributes
			if v, _ := attrs.Value(attrStatus); v.AsString() != StatusError {
				t.Errorf("status = %q", v.AsString())
			}
			v, ok := attrs.Value(attrDomain)
			if ok != tt.wantDomain {
				t.Fatalf("customer_domain present = %v, want %v", ok, tt.wantDomain)
			}
			if ok && v.AsString() != "acme.io" {
				t.Errorf("customer_domain = %q", v.AsString())
			}
		})
	}
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, collect := newRecordingMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)

	points := sumPoints(t, collect()["http_requests_total"])
	if got := valueFor(points, attrStatus, "500"); got != 1 {
		t.Errorf("requests with status 500 = %d, want 1", got)
	}
}

func TestMetrics_ActiveSessions(t *testing.T) {
	m, collect := newRecordingMetrics(t, false)
	ctx := context.Background()

	m.IncrementActiveSessions(ctx)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	points := sumPoints(t, collect()["active_sessions"])
	if len(points) != 1 || points[0].Value != 1 {
		t.Errorf("active_sessions = %v, want 1", points)
	}
}

func TestMetrics_FromProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	if provider.Metrics() == nil {
		t.Fatal("expected metrics from an enabled provider")
	}
	provider.Metrics().RecordToolInvocation(context.Background(), "get_current_time", StatusSuccess, time.Millisecond)
}

func TestMetrics_NoOp(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{ServiceName: "inboxquote-test", Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	for name, m := range map[string]*Metrics{"disabled provider": provider.Metrics(), "nil": nil} {
		t.Run(name, func(t *testing.T) {
			m.RecordHTTPRequest(ctx, "GET", "/mcp", 200, time.Millisecond)
			m.RecordQuote(ctx, 1, []string{"ZZ-1"}, 1.0, "USD")
			m.RecordQuoteFailure(ctx, QuoteResultParseError, nil)
			m.SetCatalogProducts(ctx, 3)
			m.RecordTimeLookup(ctx, TimeResultSuccess)
			m.RecordToolInvocationWithCustomer(ctx, "generate_quote", StatusSuccess, "user@example.com", time.Millisecond)
			m.IncrementActiveSessions(ctx)
			m.DecrementActiveSessions(ctx)
		})
	}
}
