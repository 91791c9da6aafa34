package budget

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waftester/nucleibudget/pkg/defaults"
	"github.com/waftester/nucleibudget/pkg/finding"
)

func writeTemplate(t *testing.T, dir, rel, body string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "cves/a.yaml", `id: a
info:
  name: A
  severity: critical
requests:
  - method: GET
    path:
      - "{{BaseURL}}/.git/config"
`)
	writeTemplate(t, dir, "cves/b.yaml", `id: b
info:
  name: B
  severity: high
http:
  - method: GET
    path:
      - "{{BaseURL}}/.git/config"
`)
	writeTemplate(t, dir, "misc/c.yaml", `id: c
info:
  name: C
  severity: info
requests:
  - method: POST
    path:
      - "{{BaseURL}}/.git/config"
`)
	writeTemplate(t, dir, "misc/d.yaml", `id: d
info:
  name: D
  severity: low
requests:
  - raw:
      - |
        GET /admin HTTP/1.1
        Host: {{Hostname}}
`)
	writeTemplate(t, dir, "misc/e.yaml", `id: e
info:
  name: E
  severity: medium
requests:
  - path:
      - "{{BaseURL}}/server-status"
`)
	writeTemplate(t, dir, "broken.yaml", "id: [unterminated\n")
	writeTemplate(t, dir, "notes.txt", "not a template")
	return dir
}

func TestCompute_BudgetOne(t *testing.T) {
	t.Parallel()
	dir := testCorpus(t)

	plan, d, err := Compute(context.Background(), dir, 1, Options{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, Selection{"{{BaseURL}}/.git/config"}, plan.Selection)
	assert.Equal(t, []string{
		filepath.Join(dir, "cves", "a.yaml"),
		filepath.Join(dir, "cves", "b.yaml"),
	}, plan.Templates)
	assert.Equal(t, 5, plan.CorpusSize)
	assert.Equal(t, 1, plan.Stats[finding.Critical])
	assert.Equal(t, 1, plan.Stats[finding.High])
	assert.Equal(t, plan.Loaded(), plan.Stats.Total())
	assert.Equal(t, 1, plan.Rejected[ReasonMethod])
	assert.Equal(t, 1, plan.Rejected[ReasonPath])
	assert.Equal(t, "Loaded [2] templates based on a budget of [1] request(s)", plan.Summary())

	assert.Equal(t, 1, d.Count(slog.LevelWarn), "broken template should warn")
}

func TestCompute_BudgetTwoAddsSecondPath(t *testing.T) {
	t.Parallel()
	dir := testCorpus(t)

	plan, _, err := Compute(context.Background(), dir, 2, Options{})
	require.NoError(t, err)
	assert.Len(t, plan.Selection, 2)
	assert.Equal(t, 3, plan.Loaded())
}

func TestCompute_InvalidBudget(t *testing.T) {
	t.Parallel()

	for _, b := range []int{0, -1} {
		_, _, err := Compute(context.Background(), t.TempDir(), b, Options{})
		assert.True(t, errors.Is(err, ErrInvalidBudget), "budget %d", b)
	}
}

func TestCompute_MissingDir(t *testing.T) {
	t.Parallel()

	_, _, err := Compute(context.Background(), filepath.Join(t.TempDir(), "nope"), 1, Options{})
	assert.Error(t, err)
}

func TestCompute_EmptyCorpusWarns(t *testing.T) {
	t.Parallel()

	plan, d, err := Compute(context.Background(), t.TempDir(), 5, Options{})
	require.NoError(t, err)
	assert.Zero(t, plan.Loaded())
	assert.True(t, d.Contains("no templates fit the budget"))
}

func TestCompute_Cancelled(t *testing.T) {
	t.Parallel()
	dir := testCorpus(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Compute(ctx, dir, 1, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlan_Fingerprint(t *testing.T) {
	t.Parallel()

	p1 := &Plan{Templates: []string{"a", "b"}}
	p2 := &Plan{Templates: []string{"a", "b"}}
	p3 := &Plan{Templates: []string{"b", "a"}}
	assert.Equal(t, p1.Fingerprint(), p2.Fingerprint())
	assert.NotEqual(t, p1.Fingerprint(), p3.Fingerprint())
}

func TestMaterialize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	p := &Plan{Budget: 1, Templates: []string{"/t/a.yaml", "/t/b.yaml"}}
	path, err := Materialize(dir, p)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), defaults.TemplateListPrefix))
	assert.True(t, strings.HasSuffix(path, ".txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/t/a.yaml\n/t/b.yaml\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	again, err := Materialize(dir, p)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestMaterialize_EmptyPlan(t *testing.T) {
	t.Parallel()

	path, err := Materialize(t.TempDir(), &Plan{})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
