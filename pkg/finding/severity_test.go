package finding

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", Critical},
		{"HIGH", High},
		{" Medium ", Medium},
		{"low", Low},
		{"info", Info},
		{"unknown", Unknown},
		{"", Unknown},
		{"urgent", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseSeverity(tt.in))
		})
	}
}

func TestSeverityIsValid(t *testing.T) {
	t.Parallel()

	for _, s := range Severities {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Severity("CRITICAL").IsValid(), "case-sensitive")
	assert.False(t, Severity("").IsValid())
}

func TestSeveritySortOrder(t *testing.T) {
	t.Parallel()

	input := []Severity{Low, Unknown, Critical, Medium, Info, High}
	sort.Slice(input, func(i, j int) bool {
		return input[i].Score() > input[j].Score()
	})
	assert.Equal(t, Severities, input)
}

func TestSeverityUpper(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CRITICAL", Critical.Upper())
	assert.Equal(t, "UNKNOWN", Unknown.Upper())
}

func TestSeverityStats(t *testing.T) {
	t.Parallel()

	st := NewSeverityStats()
	assert.Len(t, st, 6)
	assert.Equal(t, 0, st.Total())

	st.Add(High)
	st.Add("HIGH")
	st.Add("bogus")
	assert.Equal(t, 2, st[High])
	assert.Equal(t, 1, st[Unknown])
	assert.Equal(t, 3, st.Total())
}
