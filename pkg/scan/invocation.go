package scan

import (
	"errors"
	"strconv"

	"github.com/waftester/nucleibudget/pkg/defaults"
)

// ErrMissingTemplateList is returned when budget mode has no template list.
var ErrMissingTemplateList = errors.New("budget mode requires a template list file")

// Options are the user-facing scanner settings before mode resolution.
type Options struct {
	Binary       string
	TemplatesDir string
	RateLimit    int
	Concurrency  int

	Severity    string
	Templates   string
	Tags        string
	ExcludeTags string

	InteractshServer string
	InteractshToken  string
	NoInteractsh     bool
}

// Invocation is a fully resolved scanner command line.
type Invocation struct {
	Mode   Mode
	Binary string
	Args   []string

	// Effective holds the options after mode overrides were applied.
	Effective Options
}

// Resolve applies mode overrides to opts and builds the argument list.
// templateList is the materialized template list and is only used in
// budget mode, where it is required.
func Resolve(opts Options, mode Mode, templateList string) (Invocation, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return Invocation{}, err
	}

	eff := opts
	if eff.Binary == "" {
		eff.Binary = defaults.NucleiBinary
	}
	switch mode {
	case ModeTechnology:
		eff.Tags = ""
	case ModeSevere:
		eff.Severity = defaults.SevereSeverity
		eff.Tags = ""
	case ModeBudget:
		if templateList == "" {
			return Invocation{}, ErrMissingTemplateList
		}
		eff.Tags = ""
		eff.Severity = ""
		eff.Templates = ""
	}

	args := []string{
		"-silent",
		"-json",
		"-update-directory", eff.TemplatesDir,
		"-rate-limit", strconv.Itoa(eff.RateLimit),
		"-concurrency", strconv.Itoa(eff.Concurrency),
		"-duc",
	}
	for _, opt := range []struct{ flag, value string }{
		{"-severity", eff.Severity},
		{"-templates", eff.Templates},
		{"-iserver", eff.InteractshServer},
		{"-itoken", eff.InteractshToken},
		{"-etags", eff.ExcludeTags},
		{"-tags", eff.Tags},
	} {
		if opt.value != "" {
			args = append(args, opt.flag, opt.value)
		}
	}
	if eff.NoInteractsh {
		args = append(args, "-no-interactsh")
	}
	switch mode {
	case ModeTechnology:
		args = append(args, "-as")
	case ModeBudget:
		args = append(args, "-t", templateList)
	}

	return Invocation{Mode: mode, Binary: eff.Binary, Args: args, Effective: eff}, nil
}

// String renders the command line for logs. The interactsh token is masked.
func (inv Invocation) String() string {
	s := inv.Binary
	for i, a := range inv.Args {
		if i > 0 && inv.Args[i-1] == "-itoken" {
			a = "***"
		}
		s += " " + a
	}
	return s
}
