package nuclei

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waftester/nucleibudget/pkg/finding"
)

func TestParseTemplate_RequestsBlock(t *testing.T) {
	t.Parallel()

	yaml := `
id: git-config
info:
  name: Git Config Disclosure
  author: tester
  severity: medium
requests:
  - method: GET
    path:
      - "{{BaseURL}}/.git/config"
      - " {{BaseURL}}/.git/HEAD "
    matchers:
      - type: word
        words:
          - "[core]"
`
	tmpl, err := ParseTemplate([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "git-config", tmpl.ID)
	assert.Equal(t, "Git Config Disclosure", tmpl.Info.Name)
	assert.Equal(t, finding.Medium, tmpl.SeverityLevel())
	require.Len(t, tmpl.Requests, 1)
	assert.Equal(t, []string{"{{BaseURL}}/.git/config", "{{BaseURL}}/.git/HEAD"}, tmpl.Requests[0].Paths())
	assert.False(t, tmpl.HasRaw())
}

func TestParseTemplate_CollapsibilityFieldsSurvive(t *testing.T) {
	t.Parallel()

	yaml := `
id: full-shape
info:
  name: Full Shape
  severity: high
http:
  - method: POST
    path:
      - "{{BaseURL}}/login"
    headers:
      Content-Type: application/json
      X-Retry: 3
    max-redirects: 2
    redirects: true
    cookie-reuse: true
  - raw:
      - |
        GET /raw HTTP/1.1
        Host: {{Hostname}}
`
	tmpl, err := ParseTemplate([]byte(yaml))
	require.NoError(t, err)
	require.Len(t, tmpl.Requests, 2)

	r := tmpl.Requests[0]
	assert.Equal(t, "POST", r.Method)
	assert.Len(t, r.Headers, 2)
	require.NotNil(t, r.MaxRedirects)
	assert.Equal(t, 2, *r.MaxRedirects)
	require.NotNil(t, r.Redirects)
	assert.True(t, *r.Redirects)
	require.NotNil(t, r.CookieReuse)
	assert.True(t, *r.CookieReuse)
	assert.False(t, r.IsRaw())

	assert.True(t, tmpl.Requests[1].IsRaw())
	assert.True(t, tmpl.HasRaw())
}

func TestParseTemplate_UndeclaredFieldsAreNil(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseTemplate([]byte(`
id: bare
info:
  name: Bare
  severity: info
requests:
  - path: ["{{BaseURL}}/"]
`))
	require.NoError(t, err)
	r := tmpl.Requests[0]
	assert.Empty(t, r.Method)
	assert.Nil(t, r.Headers)
	assert.Nil(t, r.MaxRedirects)
	assert.Nil(t, r.Redirects)
	assert.Nil(t, r.CookieReuse)
}

func TestParseTemplate_RequestsBeforeHTTP(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseTemplate([]byte(`
id: both
info:
  name: Both
  severity: low
http:
  - path: ["/b"]
requests:
  - path: ["/a"]
`))
	require.NoError(t, err)
	require.Len(t, tmpl.Requests, 2)
	assert.Equal(t, []string{"/a"}, tmpl.Requests[0].Paths())
	assert.Equal(t, []string{"/b"}, tmpl.Requests[1].Paths())
}

func TestParseTemplate_MissingID(t *testing.T) {
	t.Parallel()

	_, err := ParseTemplate([]byte("info:\n  name: Test\n"))
	assert.True(t, errors.Is(err, ErrMissingID))
}

func TestParseTemplate_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := ParseTemplate([]byte("id: [unterminated\n"))
	assert.Error(t, err)
}

func TestParseTemplate_UnknownSeverity(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseTemplate([]byte("id: x\ninfo:\n  name: X\n"))
	require.NoError(t, err)
	assert.Equal(t, finding.Unknown, tmpl.SeverityLevel())
}

func TestLoadTemplate_SetsPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: t\ninfo:\n  name: T\n  severity: low\n"), 0o644))

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, path, tmpl.Path)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
