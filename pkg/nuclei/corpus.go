package nuclei

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/workerpool"
)

// TemplateExt is the file extension of nuclei templates.
const TemplateExt = ".yaml"

// Corpus is the parsed template tree. Templates keep walk order.
type Corpus struct {
	Dir       string
	Templates []*Template

	// Files is the number of template files found, parsed or not.
	Files int
}

// LoadOptions tunes LoadCorpus.
type LoadOptions struct {
	// Workers is the parser pool size (0 = GOMAXPROCS).
	Workers int
}

// FindTemplateFiles walks dir recursively in lexical order and returns every
// template file. Hidden directories (.git, .github) are skipped. Unreadable
// subdirectories are reported as diagnostics; an unreadable root is an error.
func FindTemplateFiles(dir string) ([]string, diag.Diagnostics, error) {
	var (
		files []string
		d     diag.Diagnostics
	)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			d.Warn(diag.StageCorpus, "skipping unreadable path",
				slog.String("path", path), slog.String("error", err.Error()))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), TemplateExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, d, fmt.Errorf("walk template directory %s: %w", dir, err)
	}
	return files, d, nil
}

type loaded struct {
	tmpl *Template
	err  error
}

// LoadCorpus finds and parses every template beneath dir.
// A file that fails to read or parse is skipped with a warning diagnostic;
// only a missing root or a cancelled context fails the load.
func LoadCorpus(ctx context.Context, dir string, opts LoadOptions) (*Corpus, diag.Diagnostics, error) {
	files, d, err := FindTemplateFiles(dir)
	if err != nil {
		return nil, d, err
	}

	pool := workerpool.New(opts.Workers)
	defer pool.Close()

	results := workerpool.Map(pool, files, func(path string) loaded {
		if err := ctx.Err(); err != nil {
			return loaded{err: err}
		}
		t, err := LoadTemplate(path)
		return loaded{tmpl: t, err: err}
	})
	if err := ctx.Err(); err != nil {
		return nil, d, err
	}

	corpus := &Corpus{Dir: dir, Files: len(files)}
	for i, r := range results {
		if r.err != nil || r.tmpl == nil {
			msg := "parser panicked"
			if r.err != nil {
				msg = r.err.Error()
			}
			d.Warn(diag.StageCorpus, "failed to read template, skipping",
				slog.String("path", files[i]), slog.String("error", msg))
			continue
		}
		corpus.Templates = append(corpus.Templates, r.tmpl)
	}

	d.Debug(diag.StageCorpus, "template corpus loaded",
		slog.String("dir", dir),
		slog.Int("files", corpus.Files),
		slog.Int("templates", len(corpus.Templates)))
	return corpus, d, nil
}
