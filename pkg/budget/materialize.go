package budget

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/waftester/nucleibudget/pkg/defaults"
)

// Materialize writes the plan's template list, one reference per line, into
// dir (os.TempDir() when empty) and returns the file path. The name carries
// the plan fingerprint. The caller owns the file and removes it at teardown.
func Materialize(dir string, p *Plan) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create template list directory: %w", err)
	}

	name := fmt.Sprintf("%s%016x.txt", defaults.TemplateListPrefix, p.Fingerprint())
	path := filepath.Join(dir, name)

	var b strings.Builder
	for _, ref := range p.Templates {
		b.WriteString(ref)
		b.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create template list: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write template list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close template list: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("install template list: %w", err)
	}
	return path, nil
}
