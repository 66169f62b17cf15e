package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_Quantities(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []LineItem
	}{
		{
			name:     "K with pcs suffix",
			input:    "1) 08-50-0113, 20Kpcs",
			expected: []LineItem{{ProductCode: "08-50-0113", Quantity: 20000, Line: 1}},
		},
		{
			name:     "5Kpcs",
			input:    "2) 22-01-1042, 5Kpcs",
			expected: []LineItem{{ProductCode: "22-01-1042", Quantity: 5000, Line: 1}},
		},
		{
			name:     "pcs without multiplier",
			input:    "3) 42816-0212, 200pcs",
			expected: []LineItem{{ProductCode: "42816-0212", Quantity: 200, Line: 1}},
		},
		{
			name:     "bare number",
			input:    "22-01-1042 15",
			expected: []LineItem{{ProductCode: "22-01-1042", Quantity: 15, Line: 1}},
		},
		{
			name:     "lower-case k and upper-case unit",
			input:    "08-50-0113, 20kPCS",
			expected: []LineItem{{ProductCode: "08-50-0113", Quantity: 20000, Line: 1}},
		},
		{
			name:     "K without unit",
			input:    "08-50-0113: 3k",
			expected: []LineItem{{ProductCode: "08-50-0113", Quantity: 3000, Line: 1}},
		},
		{
			name:     "spaced unit after dash marker",
			input:    "- 42816-0212: 200 pcs",
			expected: []LineItem{{ProductCode: "42816-0212", Quantity: 200, Line: 1}},
		},
		{
			name:     "thousands separator",
			input:    "08-50-0113, 20,000 pcs",
			expected: []LineItem{{ProductCode: "08-50-0113", Quantity: 20000, Line: 1}},
		},
		{
			name:     "x separator and lower-case code",
			input:    "* ab-12 x 3",
			expected: []LineItem{{ProductCode: "AB-12", Quantity: 3, Line: 1}},
		},
		{
			name:     "qty keyword",
			input:    "42816-0212 qty: 40",
			expected: []LineItem{{ProductCode: "42816-0212", Quantity: 40, Line: 1}},
		},
		{
			name:     "spaced dash separator",
			input:    "• 42816-0212 - 200pcs",
			expected: []LineItem{{ProductCode: "42816-0212", Quantity: 200, Line: 1}},
		},
		{
			name:     "parenthesised marker",
			input:    "(4) 22-01-1042, 700",
			expected: []LineItem{{ProductCode: "22-01-1042", Quantity: 700, Line: 1}},
		},
		{
			name:     "decimal K",
			input:    "1) 08-50-0113, 1.5Kpcs",
			expected: []LineItem{{ProductCode: "08-50-0113", Quantity: 1500, Line: 1}},
		},
		{
			name:     "decimal comma K",
			input:    "22-01-1042: 2,25k",
			expected: []LineItem{{ProductCode: "22-01-1042", Quantity: 2250, Line: 1}},
		},
		{
			name:     "full stop after quantity",
			input:    "Please quote 42816-0212 x 200pcs.",
			expected: []LineItem{{ProductCode: "42816-0212", Quantity: 200, Line: 1}},
		},
		{
			name:  "two items on one line",
			input: "08-50-0113 100pcs and 22-01-1042 200pcs",
			expected: []LineItem{
				{ProductCode: "08-50-0113", Quantity: 100, Line: 1},
				{ProductCode: "22-01-1042", Quantity: 200, Line: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Collect(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, items)
		})
	}
}

func TestCollect_SkippedLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "greeting", input: "Hi there,"},
		{name: "signature with dash", input: "Best regards - John"},
		{name: "code without quantity", input: "Please quote part 08-50-0113 urgently"},
		{name: "zero quantity", input: "08-50-0113, 0pcs"},
		{name: "iso date header", input: "Date: 2024-05-01 10:00"},
		{name: "hyphenated words", input: "Re-order 5 boxes"},
		{name: "overflowing quantity", input: "AB-1 99999999999999999999"},
		{name: "overflowing K quantity", input: "AB-1 9223372036854775Kpcs"},
		{name: "decimal without K", input: "08-50-0113, 2.5 pcs"},
		{name: "dot thousands separator", input: "08-50-0113, 20.000pcs"},
		{name: "several dot groups", input: "08-50-0113 1.000.000 pcs"},
		{name: "fraction before a letter", input: "08-50-0113, 1.5x"},
		{name: "decimal K below one piece", input: "08-50-0113, 1.2345K"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Collect(tt.input)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestCollect_FullEmail(t *testing.T) {
	email := "Hello,\r\n" +
		"\r\n" +
		"please send a quote for:\r\n" +
		"1) 08-50-0113, 20Kpcs\r\n" +
		"2) 22-01-1042, 5Kpcs\r\n" +
		"3) 42816-0212, 200pcs\r\n" +
		"4) 08-50-0113, 1Kpcs\r\n" +
		"\r\n" +
		"Thanks,\r\nJane"

	items, err := Collect(email)
	require.NoError(t, err)
	assert.Equal(t, []LineItem{
		{ProductCode: "08-50-0113", Quantity: 20000, Line: 4},
		{ProductCode: "22-01-1042", Quantity: 5000, Line: 5},
		{ProductCode: "42816-0212", Quantity: 200, Line: 6},
		{ProductCode: "08-50-0113", Quantity: 1000, Line: 7},
	}, items, "duplicates must be kept as separate items")
}

func TestParse_Restartable(t *testing.T) {
	seq, err := Parse("1) 08-50-0113, 20Kpcs\n2) 22-01-1042, 5Kpcs")
	require.NoError(t, err)

	var first, second []LineItem
	for item := range seq {
		first = append(first, item)
	}
	for item := range seq {
		second = append(second, item)
	}
	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestParse_StopsEarly(t *testing.T) {
	seq, err := Parse("AB-1 1\nAB-2 2\nAB-3 3")
	require.NoError(t, err)

	var got []LineItem
	for item := range seq {
		got = append(got, item)
		break
	}
	require.Len(t, got, 1)
	assert.Equal(t, "AB-1", got[0].ProductCode)
}

func TestParse_NotText(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid utf-8", input: "AB-1 1\n\xff\xfe"},
		{name: "nul byte", input: "AB-1 1\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expectError bool
		expectLen   int
	}{
		{name: "nil body", input: nil, expectError: true},
		{name: "number body", input: 42.0, expectError: true},
		{name: "object body", input: map[string]any{"body": "AB-1 1"}, expectError: true},
		{name: "string body", input: "AB-1 1", expectLen: 1},
		{name: "byte body", input: []byte("AB-1 1\nAB-2 2"), expectLen: 2},
		{name: "text without items", input: "hello", expectLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := ParseValue(tt.input)
			if tt.expectError {
				require.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			n := 0
			for range seq {
				n++
			}
			assert.Equal(t, tt.expectLen, n)
		})
	}
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Reason: "email body is missing"}
	assert.Equal(t, "parse error: email body is missing", err.Error())
}
