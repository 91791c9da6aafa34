package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/waftester/nucleibudget/pkg/defaults"
	"github.com/waftester/nucleibudget/pkg/input"
	"github.com/waftester/nucleibudget/pkg/scan"
)

// Output formats accepted by -format.
const (
	FormatConsole  = "console"
	FormatJSONL    = "jsonl"
	FormatTemplate = "template"
)

// Config holds all CLI configuration options
type Config struct {
	// Target settings
	Targets  input.StringSliceFlag `yaml:"targets,omitempty"`
	ListFile string                `yaml:"list,omitempty"`
	Stdin    bool                  `yaml:"stdin,omitempty"`

	// Scanner settings (nuclei defaults)
	NucleiVersion string `yaml:"version"`
	Binary        string `yaml:"nuclei_bin"`
	Tags          string `yaml:"tags"`
	Templates     string `yaml:"templates"`
	Severity      string `yaml:"severity"`
	RateLimit     int    `yaml:"ratelimit"`   // Requests per second (default: 150)
	Concurrency   int    `yaml:"concurrency"` // Templates in parallel (default: 25)
	Mode          string `yaml:"mode"`        // technology, severe, manual, budget
	ExcludeTags   string `yaml:"etags"`
	Budget        int    `yaml:"budget"` // Distinct request paths in budget mode

	// Interactsh pass-through
	InteractshServer string `yaml:"interactsh_server,omitempty"`
	InteractshToken  string `yaml:"interactsh_token,omitempty"`
	NoInteractsh     bool   `yaml:"interactsh_disable,omitempty"`

	// Filesystem
	TemplatesDir string `yaml:"templates_dir"`
	WorkDir      string `yaml:"work_dir"`
	SkipUpdate   bool   `yaml:"skip_update"`

	// Execution
	BatchSize     int `yaml:"batch_size"`
	ParserWorkers int `yaml:"parser_workers"` // 0 = GOMAXPROCS

	// Output settings
	OutputFile     string `yaml:"output,omitempty"`
	OutputFormat   string `yaml:"format"` // console, jsonl, template
	TemplateFormat string `yaml:"template_format,omitempty"`
	NoColor        bool   `yaml:"no_color,omitempty"`
	Verbose        bool   `yaml:"verbose,omitempty"`
	Debug          bool   `yaml:"debug,omitempty"`

	// Observability
	MetricsAddr  string `yaml:"metrics_addr,omitempty"`
	OTelEndpoint string `yaml:"otel_endpoint,omitempty"`

	// ConfigFile is the YAML file the values were loaded from, if any.
	ConfigFile string `yaml:"-"`
}

// Default returns a Config carrying the built-in defaults.
func Default() *Config {
	return &Config{
		NucleiVersion: defaults.NucleiVersion,
		Binary:        defaults.NucleiBinary,
		RateLimit:     defaults.RateLimit,
		Concurrency:   defaults.Concurrency,
		Mode:          defaults.Mode,
		ExcludeTags:   defaults.ExcludeTags,
		Budget:        defaults.Budget,
		TemplatesDir:  defaultTemplatesDir(),
		WorkDir:       ".",
		BatchSize:     defaults.BatchSize,
		OutputFormat:  FormatConsole,
	}
}

func defaultTemplatesDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(defaults.ToolsDirName, defaults.TemplatesDirName)
	}
	return filepath.Join(home, defaults.ToolsDirName, defaults.TemplatesDirName)
}

// bind registers every flag on fs, writing into cfg. The current cfg values
// become the flag defaults.
func bind(fs *flag.FlagSet, cfg *Config) {
	// === INPUT ===
	fs.Var(&cfg.Targets, "u", "Target URL(s) - comma-separated or repeated")
	fs.Var(&cfg.Targets, "target", "Target URL(s)")
	fs.StringVar(&cfg.ListFile, "l", cfg.ListFile, "File containing targets (URLs or JSON events)")
	fs.BoolVar(&cfg.Stdin, "stdin", cfg.Stdin, "Read targets from stdin")

	// === SCANNER ===
	fs.StringVar(&cfg.NucleiVersion, "version", cfg.NucleiVersion, "Expected nuclei version")
	fs.StringVar(&cfg.Binary, "nuclei-bin", cfg.Binary, "Path or name of the nuclei binary")
	fs.StringVar(&cfg.Tags, "tags", cfg.Tags, "Execute templates that contain the provided tags")
	fs.StringVar(&cfg.Templates, "templates", cfg.Templates, "Template or template directory paths to include")
	fs.StringVar(&cfg.Severity, "severity", cfg.Severity, "Filter templates by severity")
	fs.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Max requests per second")
	fs.IntVar(&cfg.RateLimit, "rl", cfg.RateLimit, "Rate limit (alias)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Templates executed in parallel")
	fs.IntVar(&cfg.Concurrency, "c", cfg.Concurrency, "Concurrency (alias)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Scan mode: technology, severe, manual, budget")
	fs.StringVar(&cfg.ExcludeTags, "etags", cfg.ExcludeTags, "Tags to exclude from the scan")
	fs.IntVar(&cfg.Budget, "budget", cfg.Budget, "Distinct request paths allowed in budget mode")

	// === INTERACTSH ===
	fs.StringVar(&cfg.InteractshServer, "iserver", cfg.InteractshServer, "Interactsh server URL")
	fs.StringVar(&cfg.InteractshToken, "itoken", cfg.InteractshToken, "Interactsh server token")
	fs.BoolVar(&cfg.NoInteractsh, "no-interactsh", cfg.NoInteractsh, "Disable interactsh")

	// === FILESYSTEM ===
	fs.StringVar(&cfg.TemplatesDir, "update-directory", cfg.TemplatesDir, "nuclei-templates directory")
	fs.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "Directory for the template list and resume file")
	fs.BoolVar(&cfg.SkipUpdate, "skip-update", cfg.SkipUpdate, "Do not update templates before scanning")

	// === EXECUTION ===
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Targets per scanner invocation")
	fs.IntVar(&cfg.ParserWorkers, "parser-workers", cfg.ParserWorkers, "Template parser workers (0 = all CPUs)")

	// === OUTPUT ===
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file path")
	fs.StringVar(&cfg.OutputFile, "o", cfg.OutputFile, "Output file (alias)")
	fs.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: console, jsonl, template")
	fs.StringVar(&cfg.TemplateFormat, "template-format", cfg.TemplateFormat, "Go template for -format template")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	fs.BoolVar(&cfg.NoColor, "nc", cfg.NoColor, "No color (alias)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose (alias)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Debug logging")

	// === OBSERVABILITY ===
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP gRPC endpoint for traces")

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file (flags override)")
}

// ParseFlags parses os.Args and returns a validated Config.
func ParseFlags() (*Config, error) {
	return Parse(os.Args[0], os.Args[1:], os.Stderr)
}

// Parse parses args. When -config names a file, its values replace the
// defaults and explicit flags still win.
func Parse(name string, args []string, errOut io.Writer) (*Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	bind(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		fileCfg, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		fileCfg.ConfigFile = cfg.ConfigFile
		fileTargets := fileCfg.Targets
		fileCfg.Targets = nil

		// Re-apply the command line over the file values.
		fs = flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		bind(fs, fileCfg)
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if len(fileCfg.Targets) == 0 {
			fileCfg.Targets = fileTargets
		}
		cfg = fileCfg
	}

	for _, arg := range fs.Args() {
		_ = cfg.Targets.Set(arg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate checks option values. An unknown mode, or budget mode with a
// budget below one, is fatal.
func (c *Config) Validate() error {
	mode, err := scan.ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Mode = string(mode)

	if mode == scan.ModeBudget && c.Budget < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBudget, c.Budget)
	}

	var errs []error
	if c.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("%w: rate-limit must be positive, got %d", ErrInvalidConfig, c.RateLimit))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("%w: batch-size must be positive, got %d", ErrInvalidConfig, c.BatchSize))
	}
	switch strings.ToLower(c.OutputFormat) {
	case FormatConsole, FormatJSONL:
	case FormatTemplate:
		if c.TemplateFormat == "" {
			errs = append(errs, fmt.Errorf("%w: -template-format is required with -format template", ErrMissingRequired))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.OutputFormat))
	}
	if c.TemplatesDir == "" {
		errs = append(errs, fmt.Errorf("%w: update-directory", ErrMissingRequired))
	}
	return errors.Join(errs...)
}

// ScanMode returns the validated scan mode.
func (c *Config) ScanMode() scan.Mode {
	m, _ := scan.ParseMode(c.Mode)
	return m
}

// ScanOptions converts the config into scanner options.
func (c *Config) ScanOptions() scan.Options {
	return scan.Options{
		Binary:           c.Binary,
		TemplatesDir:     c.TemplatesDir,
		RateLimit:        c.RateLimit,
		Concurrency:      c.Concurrency,
		Severity:         c.Severity,
		Templates:        c.Templates,
		Tags:             c.Tags,
		ExcludeTags:      c.ExcludeTags,
		InteractshServer: c.InteractshServer,
		InteractshToken:  c.InteractshToken,
		NoInteractsh:     c.NoInteractsh,
	}
}

// TargetSource builds the input source for the configured targets.
// Stdin is read when requested or when no other source is given.
func (c *Config) TargetSource() *input.TargetSource {
	return &input.TargetSource{
		URLs:     c.Targets,
		ListFile: c.ListFile,
		Stdin:    c.Stdin || (len(c.Targets) == 0 && c.ListFile == ""),
	}
}
