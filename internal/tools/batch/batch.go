package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultConcurrency bounds how many items are processed at once.
const DefaultConcurrency = 4

// MaxItems is the largest batch a single tool call may submit.
const MaxItems = 100

// Result represents the result of a single item in a batch.
type Result[T any] struct {
	Index  int    `json:"index"`
	Status string `json:"status"` // "success" or "error"
	Result T      `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation.
type BatchResult[T any] struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Results    []Result[T] `json:"results"`
}

// ParseStringOrArray parses a parameter that can be a single string, an
// array of strings or a string holding a JSON array of strings.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var result []string

	switch v := param.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		if arr, ok := parseJSONStringArray(v); ok {
			if len(arr) == 0 {
				return nil, fmt.Errorf("%s cannot be empty", paramName)
			}
			return ParseStringOrArray(arr, paramName)
		}
		result = []string{v}
	case []string:
		anys := make([]any, len(v))
		for i, s := range v {
			anys[i] = s
		}
		return ParseStringOrArray(anys, paramName)
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if strings.TrimSpace(str) == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			result = append(result, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(result) > MaxItems {
		return nil, fmt.Errorf("%s has %d items, at most %d are allowed", paramName, len(result), MaxItems)
	}
	return result, nil
}

// parseJSONStringArray decodes s when it is a JSON array of strings.
func parseJSONStringArray(s string) ([]any, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, false
	}
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, false
	}
	anys := make([]any, len(arr))
	for i, item := range arr {
		anys[i] = item
	}
	return anys, true
}

// Summarize aggregates results into a BatchResult.
func Summarize[T any](results []Result[T]) BatchResult[T] {
	br := BatchResult[T]{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults creates a formatted JSON string from batch results.
func FormatResults[T any](results []Result[T]) (string, error) {
	jsonBytes, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode batch results: %w", err)
	}
	return string(jsonBytes), nil
}

// ProcessBatch runs fn on every item with at most limit calls in flight
// and returns one result per item in input order. A failing item does
// not stop the others; only cancellation of ctx aborts the batch.
func ProcessBatch[T any](ctx context.Context, items []string, limit int, fn func(ctx context.Context, item string) (T, error)) ([]Result[T], error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result[T], len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, item)
			if err != nil {
				results[i] = NewErrorResult[T](i, err)
			} else {
				results[i] = NewSuccessResult(i, res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// NewSuccessResult creates a success result
func NewSuccessResult[T any](index int, value T) Result[T] {
	return Result[T]{
		Index:  index,
		Status: StatusSuccess,
		Result: value,
	}
}

// NewErrorResult creates an error result
func NewErrorResult[T any](index int, err error) Result[T] {
	return Result[T]{
		Index:  index,
		Status: StatusError,
		Error:  err.Error(),
	}
}
