package finding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waftester/nucleibudget/pkg/input"
	"github.com/waftester/nucleibudget/pkg/jsonutil"
)

func TestNewFinding(t *testing.T) {
	t.Parallel()

	src := input.NewURLEvent("https://a.example.com")
	f := New("high", "git-config", "Git Config Disclosure", "https://a.example.com/.git/config", src)

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "HIGH", f.Severity)
	assert.Equal(t, High, f.Level())
	assert.Equal(t, "a.example.com", f.Host)
	assert.Equal(t, "https://a.example.com/.git/config", f.URL)
	assert.Equal(t, "template: git-config, name: Git Config Disclosure", f.Description)
	assert.Equal(t, src, f.Source)
	assert.False(t, f.Timestamp.IsZero())
}

func TestFindingIDsUnique(t *testing.T) {
	t.Parallel()

	src := input.NewURLEvent("a.example.com")
	a := New(Low, "t", "n", "a.example.com", src)
	b := New(Low, "t", "n", "a.example.com", src)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFindingJSONShape(t *testing.T) {
	t.Parallel()

	f := New(Critical, "cve-2021-1234", "Example", "https://a.example.com", input.NewURLEvent("https://a.example.com"))
	data, err := jsonutil.Marshal(f)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, jsonutil.Unmarshal(data, &m))
	for _, key := range []string{"severity", "host", "url", "description", "template_id", "source"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "CRITICAL", m["severity"])
}

func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	wrapped := errors.Join(errors.New("ctx"), ErrIncomplete)
	assert.ErrorIs(t, wrapped, ErrIncomplete)
	assert.NotErrorIs(t, wrapped, ErrUncorrelated)
}
