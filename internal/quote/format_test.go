package quote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in          string
		expected    Format
		expectError bool
	}{
		{in: "", expected: FormatJSON},
		{in: "json", expected: FormatJSON},
		{in: " TEXT ", expected: FormatText},
		{in: "pdf", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestText(t *testing.T) {
	e := newTestEngine(t, Options{IDs: &fixedIDs{}})

	q, err := e.Generate(context.Background(), sampleEmail+"\nZZ-99-1 4")
	require.NoError(t, err)

	out := Text(q)
	assert.Contains(t, out, "Quote Q-20240501-1")
	assert.Contains(t, out, "Valid until: 2024-05-31")
	assert.Contains(t, out, "20,000")
	assert.Contains(t, out, "15%")
	assert.Contains(t, out, "21250.00")
	assert.Contains(t, out, "Total: 40132.50 USD")
	assert.Contains(t, out, "Not in catalog: ZZ-99-1")
	assert.Contains(t, out, DefaultTerms)
}
