// Command nucleibudget runs nuclei over targets in batches, optionally
// restricting the template set to a request-path budget.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/waftester/nucleibudget/pkg/config"
	"github.com/waftester/nucleibudget/pkg/defaults"
	"github.com/waftester/nucleibudget/pkg/input"
	"github.com/waftester/nucleibudget/pkg/metrics"
	"github.com/waftester/nucleibudget/pkg/output"
	"github.com/waftester/nucleibudget/pkg/pipeline"
	"github.com/waftester/nucleibudget/pkg/scan"
	"github.com/waftester/nucleibudget/pkg/telemetry"
	"github.com/waftester/nucleibudget/pkg/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[0], os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals. It returns the exit code.
func run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(name, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	}

	level := slog.LevelWarn
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Verbose:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ui.SetNoColor(cfg.NoColor || !ui.ColorEnabled(stderr))
	ui.PrintBanner(stderr)
	ui.PrintConfigBanner(stderr, bannerOptions(cfg))

	out := stdout
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			fmt.Fprintf(stderr, "error: create output file: %v\n", err)
			return defaults.ExitUserError
		}
		out = f
	}
	w, err := output.New(out, output.Options{
		Format:   cfg.OutputFormat,
		Color:    !cfg.NoColor && ui.ColorEnabled(out),
		Template: cfg.TemplateFormat,
	})
	if err != nil {
		if f, ok := out.(*os.File); ok && out != stdout {
			f.Close()
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	}
	defer closeOutput(w, cfg.OutputFile, logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithSink(pipeline.WriterSink{W: w}),
	}

	if cfg.MetricsAddr != "" {
		rec, err := metrics.New()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return defaults.ExitInternalError
		}
		srv, err := metrics.Serve(rec, cfg.MetricsAddr, logger)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return defaults.ExitUserError
		}
		defer srv.Close()
		logger.Info("metrics server started", slog.String("url", srv.URL()))
		opts = append(opts, pipeline.WithMetrics(rec))
	}

	if cfg.OTelEndpoint != "" {
		prov, err := telemetry.Setup(ctx, telemetry.Options{
			Endpoint:    cfg.OTelEndpoint,
			ServiceName: defaults.ToolName,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("tracing disabled", slog.String("error", err.Error()))
		} else {
			defer func() {
				if err := prov.Shutdown(context.Background()); err != nil {
					logger.Debug("trace flush failed", slog.String("error", err.Error()))
				}
			}()
			opts = append(opts, pipeline.WithTracer(prov.Tracer()))
		}
	}

	p := pipeline.New(cfg, opts...)
	defer func() {
		if err := p.Shutdown(); err != nil {
			logger.Warn("cleanup incomplete", slog.String("error", err.Error()))
		}
	}()

	if _, err := p.Configure(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, config.ErrInvalidBudget) {
			return defaults.ExitUserError
		}
		return defaults.ExitInternalError
	}

	events := make(chan input.Event)
	var stats pipeline.RunStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cfg.TargetSource().Stream(gctx, events)
	})
	g.Go(func() error {
		var err error
		stats, err = p.Run(gctx, events)
		return err
	})
	err = g.Wait()

	logger.Info("scan finished",
		slog.Int("batches", stats.Batches),
		slog.Int("targets", stats.Events),
		slog.Int("findings", stats.Findings),
		slog.Int("failed_batches", stats.Failed))

	switch {
	case err != nil && ctx.Err() != nil:
		fmt.Fprintln(stderr, "interrupted")
		return defaults.ExitInternalError
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	case stats.Findings > 0:
		return defaults.ExitFindings
	case stats.Batches > 0 && stats.Failed == stats.Batches:
		return defaults.ExitScannerError
	}
	return defaults.ExitSuccess
}

// closeOutput flushes and closes the finding writer, which also closes the
// output file when one was given. Failures are logged since findings may be
// lost.
func closeOutput(w output.Writer, path string, logger *slog.Logger) {
	if err := w.Close(); err != nil {
		if path == "" {
			path = "stdout"
		}
		logger.Error("failed to close output", slog.String("output", path), slog.String("error", err.Error()))
	}
}

func bannerOptions(cfg *config.Config) []ui.Option {
	opts := []ui.Option{
		{Name: "Mode", Value: cfg.Mode},
		{Name: "Scanner", Value: cfg.Binary},
		{Name: "Templates", Value: cfg.TemplatesDir},
		{Name: "Rate limit", Value: strconv.Itoa(cfg.RateLimit)},
		{Name: "Concurrency", Value: strconv.Itoa(cfg.Concurrency)},
		{Name: "Batch size", Value: strconv.Itoa(cfg.BatchSize)},
		{Name: "Output", Value: cfg.OutputFormat},
	}
	if cfg.ScanMode() == scan.ModeBudget {
		opts = append(opts, ui.Option{Name: "Budget", Value: strconv.Itoa(cfg.Budget)})
	}
	if cfg.ConfigFile != "" {
		opts = append(opts, ui.Option{Name: "Config", Value: cfg.ConfigFile})
	}
	return opts
}
