// Package pipeline drives scans batch by batch: it prepares the scanner once,
// feeds each batch of targets through it, and turns correlated results into
// findings.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/waftester/nucleibudget/pkg/budget"
	"github.com/waftester/nucleibudget/pkg/checkpoint"
	"github.com/waftester/nucleibudget/pkg/config"
	"github.com/waftester/nucleibudget/pkg/correlate"
	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/input"
	"github.com/waftester/nucleibudget/pkg/metrics"
	"github.com/waftester/nucleibudget/pkg/nuclei"
	"github.com/waftester/nucleibudget/pkg/scan"
	"github.com/waftester/nucleibudget/pkg/telemetry"
	"github.com/waftester/nucleibudget/pkg/ui"
	"github.com/waftester/nucleibudget/pkg/update"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = diag.OrDefault(l) }
}

// WithSink sets where findings are emitted.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithMetrics records scan metrics into r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithTracer traces Configure and every batch.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithUpdater replaces the command runner used for template updates.
func WithUpdater(r update.Runner) Option {
	return func(p *Pipeline) { p.updater = r }
}

// WithVersionProbe toggles the scanner -version probe in Configure.
func WithVersionProbe(enabled bool) Option {
	return func(p *Pipeline) { p.probe = enabled }
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	ID       string
	Events   int
	Findings []finding.Finding

	// Uncorrelated counts results that matched no batch event.
	Uncorrelated int

	State       scan.State
	Scan        scan.Summary
	Diagnostics diag.Diagnostics
}

// RunStats totals a Run.
type RunStats struct {
	Batches  int
	Events   int
	Findings int

	// Failed counts batches whose scanner did not complete.
	Failed int
}

// Pipeline runs batches through one resolved scanner invocation. The budget
// plan and invocation are fixed by Configure and shared by all batches.
type Pipeline struct {
	cfg *config.Config

	logger     *slog.Logger
	sink       Sink
	metrics    *metrics.Recorder
	tracer     trace.Tracer
	updater    update.Runner
	probe      bool
	correlator *correlate.Correlator
	artifacts  *checkpoint.Manager

	scanID string

	mu         sync.Mutex
	configured bool
	shutdown   bool
	plan       *budget.Plan
	listFile   string
	inv        scan.Invocation
	active     map[*scan.Controller]struct{}
}

// New creates a pipeline for cfg.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: slog.Default(),
		tracer: telemetry.Noop().Tracer(),
		probe:  true,
		scanID: uuid.NewString(),
		active: make(map[*scan.Controller]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.correlator = correlate.New(p.logger)
	p.artifacts = checkpoint.ForDir(cfg.WorkDir)
	return p
}

// ScanID identifies this pipeline in logs and traces.
func (p *Pipeline) ScanID() string {
	return p.scanID
}

// Plan returns the budget plan, or nil outside budget mode.
func (p *Pipeline) Plan() *budget.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan
}

// Invocation returns the resolved scanner command line.
func (p *Pipeline) Invocation() scan.Invocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inv
}

// TemplateList returns the materialized template list path, if any.
func (p *Pipeline) TemplateList() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listFile
}

// Configure validates the configuration, refreshes templates and, in budget
// mode, computes the plan and writes the template list. An invalid mode or
// budget and an unreadable corpus are fatal; everything else is reported
// through diagnostics.
func (p *Pipeline) Configure(ctx context.Context) (d diag.Diagnostics, err error) {
	ctx, span := telemetry.Start(ctx, p.tracer, "pipeline.configure",
		attribute.String("scan.id", p.scanID),
		attribute.String("scan.mode", p.cfg.Mode))
	defer func() {
		telemetry.End(span, err)
		p.log(ctx, d)
	}()

	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return d, ErrShutdown
	}
	p.mu.Unlock()

	if err := p.cfg.Validate(); err != nil {
		d.Error(diag.StageBudget, "unable to initialize nuclei", slog.String("error", err.Error()))
		return d, err
	}
	mode := p.cfg.ScanMode()
	d.Info(diag.StageBudget, mode.Banner())

	binary := p.cfg.Binary
	if p.probe {
		bin, bd, err := scan.LocateBinary(ctx, binary, p.cfg.NucleiVersion)
		d.Merge(bd)
		switch {
		case ctx.Err() != nil:
			return d, ctx.Err()
		case err != nil:
			d.Warn(diag.StageBinary, "scanner binary not found; batches will fail",
				slog.String("binary", binary), slog.String("error", err.Error()))
		default:
			binary = bin.Path
		}
	}

	if !p.cfg.SkipUpdate {
		rep, ud, err := update.UpdateTemplates(ctx, p.updater, binary, p.cfg.TemplatesDir)
		d.Merge(ud)
		if err != nil {
			return d, err
		}
		p.metrics.ObserveUpdate(rep.Outcome.String())
	}

	var (
		plan     *budget.Plan
		listFile string
	)
	if mode == scan.ModeBudget {
		d.Info(diag.StageBudget, "Processing nuclei templates to perform budget calculations",
			slog.String("dir", p.cfg.TemplatesDir), slog.Int("budget", p.cfg.Budget))
		var bd diag.Diagnostics
		plan, bd, err = budget.Compute(ctx, p.cfg.TemplatesDir, p.cfg.Budget, budget.Options{Workers: p.cfg.ParserWorkers})
		d.Merge(bd)
		if err != nil {
			return d, fmt.Errorf("budget calculation: %w", err)
		}
		listFile, err = budget.Materialize(p.cfg.WorkDir, plan)
		if err != nil {
			return d, err
		}
		p.artifacts.Track(listFile)
		p.metrics.ObservePlan(len(plan.Selection), plan.Stats)
		span.SetAttributes(
			attribute.Int("budget.paths", len(plan.Selection)),
			attribute.Int("budget.templates", plan.Loaded()))

		d.Info(diag.StageBudget, plan.Summary())
		d.Info(diag.StageBudget, ui.SeverityBreakdown(plan.Stats))
	}

	opts := p.cfg.ScanOptions()
	opts.Binary = binary
	inv, err := scan.Resolve(opts, mode, listFile)
	if err != nil {
		return d, err
	}
	if opts.NoInteractsh {
		d.Info(diag.StageScan, "Disabling interactsh in accordance with global settings")
	}
	d.Debug(diag.StageScan, "scanner command resolved", slog.String("command", inv.String()))

	p.mu.Lock()
	p.plan = plan
	p.listFile = listFile
	p.inv = inv
	p.configured = true
	p.mu.Unlock()
	return d, nil
}

// ProcessBatch scans events as one batch and emits a finding for every
// result that correlates to one of them. Scanner failures and uncorrelated
// results only produce diagnostics; ctx errors are returned.
func (p *Pipeline) ProcessBatch(ctx context.Context, events []input.Event) (res BatchResult, err error) {
	res = BatchResult{ID: uuid.NewString(), Events: len(events)}

	p.mu.Lock()
	switch {
	case p.shutdown:
		p.mu.Unlock()
		return res, ErrShutdown
	case !p.configured:
		p.mu.Unlock()
		return res, ErrNotConfigured
	}
	inv := p.inv
	ctrl := scan.NewController(inv, p.logger)
	p.active[ctrl] = struct{}{}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.active, ctrl)
		p.mu.Unlock()
	}()

	ctx, span := telemetry.Start(ctx, p.tracer, "pipeline.batch",
		attribute.String("scan.id", p.scanID),
		attribute.String("batch.id", res.ID),
		attribute.Int("batch.events", len(events)))
	defer func() {
		span.SetAttributes(
			attribute.Int("batch.findings", len(res.Findings)),
			attribute.String("batch.state", res.State.String()))
		telemetry.End(span, err)
		p.log(ctx, res.Diagnostics)
	}()

	inputs := make([]string, len(events))
	for i, ev := range events {
		inputs[i] = ev.Data
	}

	sum, d, err := ctrl.Run(ctx, inputs, func(r nuclei.Result) {
		src, ok := p.correlator.Resolve(ctx, events, r.Host, r.TemplateID, &res.Diagnostics)
		if !ok {
			res.Uncorrelated++
			return
		}
		f := finding.New(r.Severity, r.TemplateID, r.Name, r.Host, src)
		res.Findings = append(res.Findings, f)
		p.metrics.ObserveFinding(f.Level())
		if p.sink == nil {
			return
		}
		if emitErr := p.sink.Emit(ctx, f); emitErr != nil {
			res.Diagnostics.Warn(diag.StageScan, "failed to emit finding",
				slog.String("template", f.TemplateID), slog.String("error", emitErr.Error()))
		}
	})
	// Scanner diagnostics come first; correlation notes were recorded inline.
	res.Diagnostics = append(d, res.Diagnostics...)
	res.Scan = sum
	res.State = ctrl.State()

	p.metrics.ObserveBatch(res.State.String(), len(events), sum.Duration)
	p.metrics.ObserveDropped(metrics.DropMalformed, sum.Malformed)
	p.metrics.ObserveDropped(metrics.DropIncomplete, sum.Incomplete)
	p.metrics.ObserveDropped(metrics.DropUncorrelated, res.Uncorrelated)
	return res, err
}

// Run reads events until in is closed, scanning them in batches of at most
// the configured batch size. A partial batch is flushed when in closes.
func (p *Pipeline) Run(ctx context.Context, in <-chan input.Event) (RunStats, error) {
	var stats RunStats

	p.mu.Lock()
	configured := p.configured
	p.mu.Unlock()
	if !configured {
		return stats, ErrNotConfigured
	}

	size := p.cfg.BatchSize
	if size < 1 {
		size = 1
	}
	batch := make([]input.Event, 0, size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		start := time.Now()
		res, err := p.ProcessBatch(ctx, batch)
		stats.Batches++
		stats.Events += res.Events
		stats.Findings += len(res.Findings)
		if res.State == scan.StateFailed {
			stats.Failed++
		}
		p.logger.Info("batch complete",
			slog.String("batch", res.ID),
			slog.Int("targets", res.Events),
			slog.Int("findings", len(res.Findings)),
			slog.String("state", res.State.String()),
			slog.Duration("took", time.Since(start)))
		batch = make([]input.Event, 0, size)
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case ev, ok := <-in:
			if !ok {
				return stats, flush()
			}
			batch = append(batch, ev)
			if len(batch) >= size {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}
}

// Shutdown cancels running batches and removes the template list and the
// scanner's resume file. It is idempotent.
func (p *Pipeline) Shutdown() error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil
	}
	p.shutdown = true
	for ctrl := range p.active {
		ctrl.Cancel()
	}
	p.mu.Unlock()

	if err := p.artifacts.Cleanup(); err != nil {
		p.logger.Warn("failed to remove scan artifacts", slog.String("error", err.Error()))
		return fmt.Errorf("shutdown: %w", err)
	}
	p.logger.Debug("scan artifacts removed", slog.String("resume_file", p.artifacts.FilePath))
	return nil
}

// log replays d through the logger. Correlation warnings are skipped since
// the correlator logs those itself, throttled.
func (p *Pipeline) log(ctx context.Context, d diag.Diagnostics) {
	var rest diag.Diagnostics
	for _, x := range d {
		if x.Stage == diag.StageCorrelate {
			continue
		}
		rest = append(rest, x)
	}
	rest.Log(ctx, p.logger)
}
