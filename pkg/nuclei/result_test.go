package nuclei

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waftester/nucleibudget/pkg/finding"
)

func TestParseResult_MatcherNamePreferred(t *testing.T) {
	t.Parallel()

	line := `{"template-id":"tech-detect","matcher-name":"nginx","host":"https://a.example.com","matched-at":"https://a.example.com/","info":{"name":"Wappalyzer Technology Detection","severity":"info"}}`
	res, err := ParseResult([]byte(line))
	require.NoError(t, err)

	assert.Equal(t, "tech-detect", res.TemplateID)
	assert.Equal(t, "nginx", res.Name)
	assert.False(t, res.NameFromInfo)
	assert.Equal(t, finding.Info, res.Severity)
	assert.Equal(t, "https://a.example.com", res.Host)
	assert.Equal(t, "https://a.example.com/", res.MatchedAt)
}

func TestParseResult_FallsBackToInfoName(t *testing.T) {
	t.Parallel()

	line := `{"template-id":"git-config","host":"a.example.com","info":{"name":"Git Config","severity":"MEDIUM"}}`
	res, err := ParseResult([]byte(line))
	require.NoError(t, err)

	assert.Equal(t, "Git Config", res.Name)
	assert.True(t, res.NameFromInfo)
	assert.Equal(t, finding.Medium, res.Severity)
	assert.Equal(t, "MEDIUM", res.Severity.Upper())
}

func TestParseResult_Malformed(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		`[INF] Using Nuclei Engine 2.7.7 (latest)`,
		`{"template-id":`,
		`"just a string"`,
		``,
	} {
		_, err := ParseResult([]byte(line))
		assert.True(t, errors.Is(err, ErrMalformed), "line %q: %v", line, err)
	}
}

func TestParseResult_MissingFields(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no host":     `{"template-id":"x","info":{"name":"X","severity":"high"}}`,
		"no template": `{"host":"a.example.com","info":{"name":"X","severity":"high"}}`,
		"no severity": `{"template-id":"x","host":"a.example.com","info":{"name":"X"}}`,
		"no name":     `{"template-id":"x","host":"a.example.com","info":{"severity":"high"}}`,
		"null":        `null`,
	}
	for name, line := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseResult([]byte(line))
			assert.ErrorIs(t, err, finding.ErrIncomplete)
		})
	}
}
