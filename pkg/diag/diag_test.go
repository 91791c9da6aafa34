package diag

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_AddAndFilter(t *testing.T) {
	t.Parallel()

	var d Diagnostics
	d.Debug(StageParse, "failed to decode line", slog.String("line", "garbage"))
	d.Warn(StageCorrelate, "failed to correlate nuclei result with event")
	d.Info(StageBudget, "budget computed")
	d.Error(StageScan, "scanner exited")

	assert.Len(t, d, 4)
	assert.Equal(t, 1, d.Count(slog.LevelDebug))
	assert.Len(t, d.AtLeast(slog.LevelWarn), 2)
	assert.Len(t, d.ByStage(StageCorrelate), 1)
	assert.True(t, d.Contains("correlate"))
	assert.False(t, d.Contains("nope"))
}

func TestDiagnostics_Merge(t *testing.T) {
	t.Parallel()

	var a, b Diagnostics
	a.Info(StageCorpus, "one")
	b.Info(StageCorpus, "two")
	a.Merge(b)
	require.Len(t, a, 2)
	assert.Equal(t, "two", a[1].Message)
}

func TestDiagnostics_Log(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var d Diagnostics
	d.Warn(StageCorpus, "skipping template", slog.String("path", "a.yaml"))
	d.Log(context.Background(), logger)

	out := buf.String()
	assert.True(t, strings.Contains(out, "level=WARN"), out)
	assert.True(t, strings.Contains(out, "stage=corpus"), out)
	assert.True(t, strings.Contains(out, "path=a.yaml"), out)
}

func TestOrDefault(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), OrDefault(nil))
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, l, OrDefault(l))
}
