package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/duration"
)

// ErrBinaryNotFound is returned when the scanner is not on PATH.
var ErrBinaryNotFound = errors.New("scanner binary not found")

var versionRe = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// Binary is a located scanner executable.
type Binary struct {
	Path    string
	Version string // empty when the probe failed
}

// LocateBinary resolves name on PATH and probes its version with -version.
// A failed probe or a version other than want only produces diagnostics.
func LocateBinary(ctx context.Context, name, want string) (Binary, diag.Diagnostics, error) {
	var d diag.Diagnostics

	path, err := exec.LookPath(name)
	if err != nil {
		return Binary{}, d, fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, name, err)
	}
	bin := Binary{Path: path}

	probeCtx, cancel := context.WithTimeout(ctx, duration.VersionProbe)
	defer cancel()
	cmd := exec.CommandContext(probeCtx, path, "-version")
	cmd.WaitDelay = duration.ProcessWaitDelay
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return bin, d, ctxErr
		}
		d.Warn(diag.StageBinary, "version probe failed",
			slog.String("binary", path), slog.String("error", err.Error()))
		return bin, d, nil
	}

	bin.Version = ParseVersion(string(out))
	switch {
	case bin.Version == "":
		d.Info(diag.StageBinary, "could not determine scanner version", slog.String("binary", path))
	case want != "" && bin.Version != strings.TrimPrefix(want, "v"):
		d.Info(diag.StageBinary, "scanner version differs from the expected version",
			slog.String("binary", path),
			slog.String("found", bin.Version),
			slog.String("expected", want))
	default:
		d.Debug(diag.StageBinary, "scanner located",
			slog.String("binary", path), slog.String("version", bin.Version))
	}
	return bin, d, nil
}

// ParseVersion extracts the first x.y.z version from -version output.
func ParseVersion(out string) string {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	return m[1]
}
