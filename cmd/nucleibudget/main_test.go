package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/nucleibudget/pkg/defaults"
	"github.com/waftester/nucleibudget/pkg/finding"
)

func fakeNuclei(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake scanner scripts need /bin/sh")
	}
	script := `#!/bin/sh
for a in "$@"; do
  case "$a" in
    -version) echo "Nuclei Engine Version: v2.7.7" >&2; exit 0 ;;
  esac
done
` + body + "\n"
	path := filepath.Join(t.TempDir(), "nuclei")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func baseArgs(t *testing.T, binary string) []string {
	t.Helper()
	return []string{
		"-nuclei-bin", binary,
		"-update-directory", t.TempDir(),
		"-work-dir", t.TempDir(),
		"-skip-update",
		"-mode", "manual",
		"-nc",
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), "nucleibudget", []string{"-h"}, &stdout, &stderr)
	assert.Equal(t, defaults.ExitSuccess, code)
	assert.Contains(t, stderr.String(), "-budget")
}

func TestRun_InvalidMode(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), "nucleibudget", []string{"-mode", "loud", "-u", "a.example"}, &stdout, &stderr)
	assert.Equal(t, defaults.ExitUserError, code)
	assert.Contains(t, stderr.String(), "loud")
}

func TestRun_FindingsAsJSONL(t *testing.T) {
	t.Parallel()

	bin := fakeNuclei(t, `while read -r line; do
  printf '{"template-id":"x","info":{"name":"X","severity":"high"},"host":"%s"}\n' "$line"
done`)

	var stdout, stderr bytes.Buffer
	args := append(baseArgs(t, bin), "-format", "jsonl", "https://a.example", "https://b.example")
	code := run(context.Background(), "nucleibudget", args, &stdout, &stderr)

	require.Equal(t, defaults.ExitFindings, code, stderr.String())
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"template_id":"x"`)
	assert.Contains(t, lines[0], `"severity":"HIGH"`)
}

func TestRun_NoFindings(t *testing.T) {
	t.Parallel()

	bin := fakeNuclei(t, `cat >/dev/null
echo '{}'`)

	var stdout, stderr bytes.Buffer
	args := append(baseArgs(t, bin), "-u", "https://a.example")
	code := run(context.Background(), "nucleibudget", args, &stdout, &stderr)

	assert.Equal(t, defaults.ExitSuccess, code, stderr.String())
	assert.Empty(t, stdout.String())
}

func TestRun_ScannerAlwaysFails(t *testing.T) {
	t.Parallel()

	bin := fakeNuclei(t, `cat >/dev/null
exit 1`)

	var stdout, stderr bytes.Buffer
	args := append(baseArgs(t, bin), "-u", "https://a.example")
	code := run(context.Background(), "nucleibudget", args, &stdout, &stderr)
	assert.Equal(t, defaults.ExitScannerError, code)
}

type failingWriter struct{ closed bool }

func (w *failingWriter) Write(finding.Finding) error { return nil }

func (w *failingWriter) Close() error {
	w.closed = true
	return errors.New("no space left on device")
}

func TestCloseOutput_LogsFailure(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	w := &failingWriter{}

	closeOutput(w, "findings.jsonl", logger)
	assert.True(t, w.closed)
	assert.Contains(t, logs.String(), "failed to close output")
	assert.Contains(t, logs.String(), "findings.jsonl")
	assert.Contains(t, logs.String(), "no space left on device")
}

func TestRun_WritesOutputFile(t *testing.T) {
	t.Parallel()

	bin := fakeNuclei(t, `while read -r line; do
  printf '{"template-id":"x","info":{"name":"X","severity":"low"},"host":"%s"}\n' "$line"
done`)
	path := filepath.Join(t.TempDir(), "findings.jsonl")

	var stdout, stderr bytes.Buffer
	args := append(baseArgs(t, bin), "-format", "jsonl", "-o", path, "https://a.example")
	code := run(context.Background(), "nucleibudget", args, &stdout, &stderr)
	require.Equal(t, defaults.ExitFindings, code, stderr.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"template_id":"x"`)
	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), "failed to close output")
}
