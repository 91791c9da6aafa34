// Package checkpoint owns the files a scan leaves on disk: the scanner's
// resume file and any temporary artifacts registered during setup.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/waftester/nucleibudget/pkg/defaults"
)

// Manager tracks scan artifacts and removes them at teardown.
type Manager struct {
	// FilePath is the scanner's resume file.
	FilePath string

	mu      sync.Mutex
	tracked []string
	cleaned bool
}

// NewManager creates a manager for the resume file at filePath.
// An empty path uses resume.cfg in the current directory.
func NewManager(filePath string) *Manager {
	if filePath == "" {
		filePath = defaults.ResumeFile
	}
	return &Manager{FilePath: filePath}
}

// ForDir creates a manager for the resume file inside dir.
func ForDir(dir string) *Manager {
	return NewManager(filepath.Join(dir, defaults.ResumeFile))
}

// Exists checks if the resume file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.FilePath)
	return err == nil
}

// Delete removes the resume file. A missing file is not an error.
func (m *Manager) Delete() error {
	return removeIfExists(m.FilePath)
}

// Track registers a file to be removed by Cleanup.
func (m *Manager) Track(path string) {
	if path == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked = append(m.tracked, path)
	m.cleaned = false
}

// Tracked returns the registered files.
func (m *Manager) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tracked...)
}

// Cleanup removes every tracked file and the resume file. It is idempotent;
// files already gone are skipped. All removal failures are joined.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cleaned {
		return nil
	}

	var errs []error
	for _, p := range m.tracked {
		if err := removeIfExists(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := removeIfExists(m.FilePath); err != nil {
		errs = append(errs, err)
	}
	m.tracked = nil
	m.cleaned = true
	return errors.Join(errs...)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
