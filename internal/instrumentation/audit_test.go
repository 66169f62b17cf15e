package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const (
	testCustomer = "jane@example.com"
	testQuoteID  = "Q-20240501-0001"
)

func logAttrs(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestToolInvocation_Lifecycle(t *testing.T) {
	ti := StartToolInvocation(context.Background(), "generate_quote", testCustomer)
	if ti.Start.IsZero() {
		t.Error("Start should be set")
	}
	if ti.TraceID != "" || ti.SpanID != "" {
		t.Error("expected no trace context without a span")
	}
	if ti.Success() {
		t.Error("an unfinished invocation is not successful")
	}

	ti.RecordQuote(testQuoteID, 3, 1)
	ti.Finish(nil)

	if !ti.Success() || ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want success", ti.Status())
	}
	if ti.Quote == nil || ti.Quote.ID != testQuoteID || ti.Quote.Lines != 3 || ti.Quote.UnknownCodes != 1 {
		t.Errorf("Quote = %+v", ti.Quote)
	}
}

func TestToolInvocation_FinishWithError(t *testing.T) {
	ti := StartToolInvocation(context.Background(), "get_current_time", "")
	ti.Finish(errors.New("invalid timezone: Mars/Base"))

	if ti.Success() {
		t.Error("expected failure")
	}
	if ti.Err != "invalid timezone: Mars/Base" {
		t.Errorf("Err = %q", ti.Err)
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want error", ti.Status())
	}
}

func TestToolInvocation_SpanContext(t *testing.T) {
	recordSpans(t)

	ctx, span := StartToolSpan(context.Background(), "generate_quote", "")
	defer span.End()

	ti := StartToolInvocation(ctx, "generate_quote", "")
	if ti.TraceID == "" || ti.TraceID != TraceID(ctx) {
		t.Errorf("TraceID = %q, want %q", ti.TraceID, TraceID(ctx))
	}
	if ti.SpanID == "" {
		t.Error("SpanID should be set inside a span")
	}
}

func TestToolInvocation_Attrs(t *testing.T) {
	ti := &ToolInvocation{
		Tool:     "generate_quote",
		Customer: testCustomer,
		Quote:    &QuoteOutcome{ID: testQuoteID, Lines: 2, UnknownCodes: 1},
		TraceID:  "abc123",
		SpanID:   "span789",
	}
	ti.Finish(nil)

	anonymized := logAttrs(ti.Attrs(false))
	if anonymized["customer_domain"] != "example.com" {
		t.Errorf("customer_domain = %q", anonymized["customer_domain"])
	}
	if !strings.HasPrefix(anonymized["customer_hash"], "customer:") {
		t.Errorf("customer_hash = %q", anonymized["customer_hash"])
	}
	for _, key := range []string{"customer", "span_id"} {
		if _, ok := anonymized[key]; ok {
			t.Errorf("%s must be omitted without PII", key)
		}
	}
	if anonymized["quote_id"] != testQuoteID || anonymized["lines"] != "2" || anonymized["unknown_codes"] != "1" {
		t.Errorf("quote attributes = %v", anonymized)
	}
	if anonymized["trace_id"] != "abc123" {
		t.Errorf("trace_id = %q", anonymized["trace_id"])
	}

	full := logAttrs(ti.Attrs(true))
	if full["customer"] != testCustomer {
		t.Errorf("customer = %q", full["customer"])
	}
	if _, ok := full["customer_hash"]; ok {
		t.Error("customer_hash is redundant with PII")
	}
	if full["span_id"] != "span789" {
		t.Errorf("span_id = %q", full["span_id"])
	}
}

func TestToolInvocation_Attrs_Minimal(t *testing.T) {
	ti := StartToolInvocation(context.Background(), "catalog_list_products", "")
	ti.Finish(nil)

	m := logAttrs(ti.Attrs(false))
	if len(m) != 3 {
		t.Errorf("expected tool, duration and success only, got %v", m)
	}
}

func TestToolInvocation_Attrs_Timezone(t *testing.T) {
	ti := StartToolInvocation(context.Background(), "get_current_time", "")
	ti.RecordTimezone("Asia/Tokyo")
	ti.Finish(errors.New("boom"))

	m := logAttrs(ti.Attrs(false))
	if m["timezone"] != "Asia/Tokyo" {
		t.Errorf("timezone = %q", m["timezone"])
	}
	if m["error"] != "boom" || m["success"] != "false" {
		t.Errorf("failure attributes = %v", m)
	}
	if _, ok := m["quote_id"]; ok {
		t.Error("quote_id should be omitted when no quote was produced")
	}
}

func TestAuditLogger_Log(t *testing.T) {
	tests := []struct {
		name      string
		config    AuditLoggingConfig
		err       error
		wantMsg   string
		wantLevel string
		wantRaw   bool
	}{
		{name: "success anonymized", config: AuditLoggingConfig{Enabled: true}, wantMsg: "tool_executed", wantLevel: "INFO"},
		{name: "failure anonymized", config: AuditLoggingConfig{Enabled: true}, err: errors.New("unknown product"), wantMsg: "tool_failed", wantLevel: "WARN"},
		{name: "success with pii", config: AuditLoggingConfig{Enabled: true, IncludePII: true}, wantMsg: "tool_executed", wantLevel: "INFO", wantRaw: true},
		{name: "disabled", config: AuditLoggingConfig{Enabled: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), tt.config)

			ti := StartToolInvocation(context.Background(), "generate_quote", testCustomer)
			ti.Finish(tt.err)
			al.Log(ti)

			out := buf.String()
			if !tt.config.Enabled {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			for _, want := range []string{"msg=" + tt.wantMsg, "level=" + tt.wantLevel, "component=audit"} {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in %q", want, out)
				}
			}
			if got := strings.Contains(out, testCustomer); got != tt.wantRaw {
				t.Errorf("raw customer present = %v, want %v", got, tt.wantRaw)
			}
		})
	}
}

func TestAuditLogger_Nil(t *testing.T) {
	var al *AuditLogger
	ti := StartToolInvocation(context.Background(), "generate_quote", "")
	ti.Finish(nil)
	al.Log(ti)
}

func TestNewAuditLogger_NilLogger(t *testing.T) {
	if NewAuditLogger(nil, AuditLoggingConfig{Enabled: true}) == nil {
		t.Fatal("NewAuditLogger returned nil")
	}
}
