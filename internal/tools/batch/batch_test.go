package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		paramName string
		want      []string
		wantErr   bool
	}{
		{
			name:      "single string",
			input:     "1) 08-50-0113, 20Kpcs",
			paramName: "emails",
			want:      []string{"1) 08-50-0113, 20Kpcs"},
		},
		{
			name:      "array of strings",
			input:     []any{"email one", "email two"},
			paramName: "emails",
			want:      []string{"email one", "email two"},
		},
		{
			name:      "typed string slice",
			input:     []string{"a", "b"},
			paramName: "emails",
			want:      []string{"a", "b"},
		},
		{
			name:      "nil input",
			input:     nil,
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "empty string",
			input:     "  ",
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "empty array",
			input:     []any{},
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "array with non-string",
			input:     []any{"a", 123, "c"},
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "array with empty string",
			input:     []any{"a", "", "c"},
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "invalid type",
			input:     123,
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "JSON string array",
			input:     `["first email", "second email"]`,
			paramName: "emails",
			want:      []string{"first email", "second email"},
		},
		{
			name:      "JSON string empty array",
			input:     `[]`,
			paramName: "emails",
			wantErr:   true,
		},
		{
			name:      "invalid JSON string",
			input:     `[invalid json`,
			paramName: "emails",
			want:      []string{`[invalid json`},
		},
		{
			name:      "string starting with bracket (not JSON)",
			input:     `[urgent] 08-50-0113 5k`,
			paramName: "emails",
			want:      []string{`[urgent] 08-50-0113 5k`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseStringOrArray() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("ParseStringOrArray() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStringOrArray_TooMany(t *testing.T) {
	items := make([]any, MaxItems+1)
	for i := range items {
		items[i] = fmt.Sprintf("email %d", i)
	}
	_, err := ParseStringOrArray(items, "emails")
	if err == nil || !strings.Contains(err.Error(), "at most") {
		t.Errorf("ParseStringOrArray() error = %v, want limit error", err)
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result[string]{
		NewSuccessResult(0, "Q-1"),
		NewSuccessResult(1, "Q-2"),
		NewErrorResult[string](2, errors.New("unknown product: XX-1")),
	}

	output, err := FormatResults(results)
	if err != nil {
		t.Fatalf("FormatResults() error = %v", err)
	}

	var br BatchResult[string]
	if err := json.Unmarshal([]byte(output), &br); err != nil {
		t.Fatalf("Failed to parse output JSON: %v", err)
	}

	if br.Total != 3 {
		t.Errorf("Total = %d, want 3", br.Total)
	}
	if br.Successful != 2 {
		t.Errorf("Successful = %d, want 2", br.Successful)
	}
	if br.Failed != 1 {
		t.Errorf("Failed = %d, want 1", br.Failed)
	}
	if br.Results[2].Error != "unknown product: XX-1" {
		t.Errorf("Results[2].Error = %q", br.Results[2].Error)
	}
}

func TestProcessBatch(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	fn := func(_ context.Context, item string) (string, error) {
		if item == "b" {
			return "", errors.New("failed to process b")
		}
		return "processed " + item, nil
	}

	results, err := ProcessBatch(context.Background(), items, 2, fn)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(items))
	}

	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d, results must keep input order", i, r.Index)
		}
	}
	if results[1].Status != StatusError || results[1].Error != "failed to process b" {
		t.Errorf("results[1] = %+v, want error for b", results[1])
	}
	if results[4].Status != StatusSuccess || results[4].Result != "processed e" {
		t.Errorf("results[4] = %+v, want success for e", results[4])
	}
}

func TestProcessBatch_RespectsLimit(t *testing.T) {
	items := make([]string, 20)
	var inFlight, peak atomic.Int32

	fn := func(_ context.Context, _ string) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return 1, nil
	}

	if _, err := ProcessBatch(context.Background(), items, 3, fn); err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak.Load())
	}
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessBatch(ctx, []string{"a", "b"}, 1, func(_ context.Context, item string) (string, error) {
		return item, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessBatch() error = %v, want context.Canceled", err)
	}
}

func TestNewResults(t *testing.T) {
	ok := NewSuccessResult(3, "Q-1")
	if ok.Index != 3 || ok.Status != StatusSuccess || ok.Result != "Q-1" || ok.Error != "" {
		t.Errorf("NewSuccessResult() = %+v", ok)
	}

	failed := NewErrorResult[string](4, errors.New("test error"))
	if failed.Index != 4 || failed.Status != StatusError || failed.Error != "test error" || failed.Result != "" {
		t.Errorf("NewErrorResult() = %+v", failed)
	}
}
