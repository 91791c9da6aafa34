// Package update refreshes the nuclei template corpus by invoking the
// scanner's own updater and classifying what it reported.
package update

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/duration"
)

// Outcome classifies a template update run.
type Outcome int

const (
	// Updated means new templates were downloaded.
	Updated Outcome = iota
	// UpToDate means the corpus was already current.
	UpToDate
	// Failed means the updater ran but reported something unexpected.
	Failed
	// Error means the updater produced no diagnostics at all.
	Error
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case UpToDate:
		return "up-to-date"
	case Failed:
		return "failed"
	case Error:
		return "error"
	}
	return "unknown"
}

const (
	markerUpdated  = "Successfully downloaded nuclei-templates"
	markerUpToDate = "No new updates found for nuclei templates"
)

// Runner executes a command and returns its stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = duration.ProcessWaitDelay
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Report is the result of UpdateTemplates.
type Report struct {
	Outcome  Outcome
	Stderr   string
	Duration time.Duration
	Err      error // process error, if any
}

// Args returns the update command arguments for dir.
func Args(dir string) []string {
	return []string{"-update-directory", dir, "-update-templates"}
}

// Classify maps updater stderr to an Outcome.
func Classify(stderr string) Outcome {
	switch {
	case strings.TrimSpace(stderr) == "":
		return Error
	case strings.Contains(stderr, markerUpdated):
		return Updated
	case strings.Contains(stderr, markerUpToDate):
		return UpToDate
	default:
		return Failed
	}
}

// UpdateTemplates runs `<binary> -update-directory <dir> -update-templates`.
// The outcome is advisory: failures become warning diagnostics and the scan
// carries on with whatever corpus exists. Only ctx errors are returned.
func UpdateTemplates(ctx context.Context, r Runner, binary, dir string) (Report, diag.Diagnostics, error) {
	var d diag.Diagnostics
	if r == nil {
		r = ExecRunner{}
	}

	runCtx, cancel := context.WithTimeout(ctx, duration.TemplateUpdate)
	defer cancel()

	start := time.Now()
	stderr, err := r.Run(runCtx, binary, Args(dir)...)
	rep := Report{
		Outcome:  Classify(string(stderr)),
		Stderr:   string(stderr),
		Duration: time.Since(start),
	}
	if err != nil {
		rep.Err = fmt.Errorf("update templates: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return rep, d, ctxErr
	}

	attrs := []slog.Attr{slog.String("dir", dir), slog.Duration("took", rep.Duration)}
	switch rep.Outcome {
	case Updated:
		d.Info(diag.StageUpdate, "Successfully updated nuclei templates", attrs...)
	case UpToDate:
		d.Info(diag.StageUpdate, "Nuclei templates already up-to-date", attrs...)
	case Failed:
		d.Warn(diag.StageUpdate, "Failure while updating nuclei templates",
			append(attrs, slog.String("stderr", lastLine(rep.Stderr)))...)
	case Error:
		if rep.Err != nil {
			attrs = append(attrs, slog.String("error", rep.Err.Error()))
		}
		d.Warn(diag.StageUpdate, "Error running nuclei template update command", attrs...)
	}
	return rep, d, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
