package nuclei

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waftester/nucleibudget/pkg/diag"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadCorpus_RecursiveAndSkipsBadFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "id: a\ninfo:\n  name: A\n  severity: high\n")
	writeFile(t, filepath.Join(dir, "sub", "deeper", "b.yaml"), "id: b\ninfo:\n  name: B\n  severity: low\n")
	writeFile(t, filepath.Join(dir, "sub", "broken.yaml"), "id: [oops\n")
	writeFile(t, filepath.Join(dir, "sub", "noid.yaml"), "info:\n  name: No ID\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# not a template\n")
	writeFile(t, filepath.Join(dir, ".github", "workflow.yaml"), "name: ci\n")

	corpus, d, err := LoadCorpus(context.Background(), dir, LoadOptions{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 4, corpus.Files)
	require.Len(t, corpus.Templates, 2)
	assert.Equal(t, "a", corpus.Templates[0].ID)
	assert.Equal(t, "b", corpus.Templates[1].ID)

	warnings := d.ByStage(diag.StageCorpus)
	assert.Equal(t, 2, warnings.Count(slog.LevelWarn), "one warning per unparseable file")
}

func TestLoadCorpus_WalkOrderIsStable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"c.yaml", "a.yaml", "b/z.yaml", "b/a.yaml"} {
		id := filepath.Base(filepath.Dir(name)) + "-" + filepath.Base(name)
		writeFile(t, filepath.Join(dir, name), "id: "+id+"\ninfo:\n  name: X\n  severity: info\n")
	}

	var first []string
	for i := 0; i < 3; i++ {
		corpus, _, err := LoadCorpus(context.Background(), dir, LoadOptions{Workers: 4})
		require.NoError(t, err)
		var ids []string
		for _, tmpl := range corpus.Templates {
			ids = append(ids, tmpl.ID)
		}
		if first == nil {
			first = ids
			continue
		}
		assert.Equal(t, first, ids)
	}
	assert.Equal(t, []string{".-a.yaml", "b-a.yaml", "b-z.yaml", ".-c.yaml"}, first)
}

func TestLoadCorpus_MissingDir(t *testing.T) {
	t.Parallel()

	_, _, err := LoadCorpus(context.Background(), filepath.Join(t.TempDir(), "nope"), LoadOptions{})
	assert.Error(t, err)
}

func TestLoadCorpus_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "id: a\ninfo:\n  name: A\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := LoadCorpus(ctx, dir, LoadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
