package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waftester/nucleibudget/pkg/defaults"
	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/duration"
	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/nuclei"
)

// Summary describes one scanner run.
type Summary struct {
	Inputs     int
	Lines      int
	Results    int
	Malformed  int
	Incomplete int
	Duration   time.Duration

	// Err is set when the process failed to start or exited unsuccessfully.
	// It is an *ExitError when the process ran.
	Err error
}

// Controller runs one Invocation at a time and tracks its State.
type Controller struct {
	inv    Invocation
	logger *slog.Logger

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewController returns a controller for inv. A nil logger uses slog.Default().
func NewController(inv Invocation, logger *slog.Logger) *Controller {
	return &Controller{inv: inv, logger: diag.OrDefault(logger)}
}

// Invocation returns the command line the controller runs.
func (c *Controller) Invocation() Invocation {
	return c.inv
}

// State returns the current lifecycle state. Safe for concurrent use.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Cancel terminates the running process, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Run feeds inputs to the scanner, one per line, and calls fn for every
// complete result in the order the scanner emits them. fn runs on the reader
// goroutine.
//
// Scanner failures (start errors, non-zero exit, no output) are reported as
// warning diagnostics and through Summary.Err. Run only returns an error when
// ctx is done or the controller is already running.
func (c *Controller) Run(ctx context.Context, inputs []string, fn func(nuclei.Result)) (Summary, diag.Diagnostics, error) {
	var (
		sum = Summary{Inputs: len(inputs)}
		d   diag.Diagnostics
	)

	if !c.state.CompareAndSwap(int32(StateConfiguring), int32(StateInvoking)) &&
		!c.state.CompareAndSwap(int32(StateCompleted), int32(StateInvoking)) &&
		!c.state.CompareAndSwap(int32(StateFailed), int32(StateInvoking)) {
		return sum, d, ErrBusy
	}
	if err := ctx.Err(); err != nil {
		c.setState(StateFailed)
		return sum, d, err
	}
	if len(inputs) == 0 {
		d.Debug(diag.StageScan, "no inputs, scanner not started")
		c.setState(StateCompleted)
		return sum, d, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, c.inv.Binary, c.inv.Args...)
	cmd.WaitDelay = duration.ProcessWaitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return c.startFailed(ctx, sum, d, err)
	}
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	c.logger.Debug("starting scanner",
		slog.String("command", c.inv.String()),
		slog.Int("inputs", len(inputs)))

	if err := cmd.Start(); err != nil {
		outW.Close()
		errW.Close()
		return c.startFailed(ctx, sum, d, err)
	}
	c.setState(StateStreaming)

	var (
		g       errgroup.Group
		readD   diag.Diagnostics
		writeD  diag.Diagnostics
		stderrD diag.Diagnostics
		waitErr error
	)

	g.Go(func() error {
		writeInputs(stdin, inputs, &writeD)
		return nil
	})
	g.Go(func() error {
		drainStderr(errR, &stderrD)
		return nil
	})
	g.Go(func() error {
		return readResults(runCtx, outR, fn, &sum, &readD)
	})
	g.Go(func() error {
		waitErr = cmd.Wait()
		outW.Close()
		errW.Close()
		return nil
	})

	streamErr := g.Wait()
	sum.Duration = time.Since(start)

	d.Merge(writeD)
	d.Merge(stderrD)
	d.Merge(readD)

	if err := ctx.Err(); err != nil {
		c.setState(StateFailed)
		d.Warn(diag.StageScan, "scan cancelled", slog.String("error", err.Error()))
		return sum, d, err
	}

	if streamErr != nil {
		d.Warn(diag.StageScan, "error reading scanner output", slog.String("error", streamErr.Error()))
	}

	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		sum.Err = &ExitError{Binary: c.inv.Binary, Code: code, Err: waitErr}
		d.Warn(diag.StageScan, "scanner exited with an error",
			slog.String("binary", c.inv.Binary),
			slog.Int("exit_code", code),
			slog.Int("results", sum.Results))
		c.setState(StateFailed)
		return sum, d, nil
	}

	if sum.Lines == 0 {
		d.Warn(diag.StageScan, "scanner produced no output",
			slog.String("binary", c.inv.Binary),
			slog.Int("inputs", len(inputs)))
	}
	c.setState(StateCompleted)
	return sum, d, nil
}

func (c *Controller) startFailed(ctx context.Context, sum Summary, d diag.Diagnostics, err error) (Summary, diag.Diagnostics, error) {
	c.setState(StateFailed)
	sum.Err = fmt.Errorf("start %s: %w", c.inv.Binary, err)
	d.Warn(diag.StageScan, "failed to start scanner",
		slog.String("binary", c.inv.Binary),
		slog.String("error", err.Error()))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return sum, d, ctxErr
	}
	return sum, d, nil
}

// writeInputs writes one input per line then closes stdin. A scanner that
// exits early makes the write fail; that is only worth a debug note.
func writeInputs(stdin io.WriteCloser, inputs []string, d *diag.Diagnostics) {
	defer stdin.Close()
	w := bufio.NewWriterSize(stdin, defaults.BufferLarge)
	for _, in := range inputs {
		if _, err := w.WriteString(in + "\n"); err != nil {
			d.Debug(diag.StageScan, "scanner stopped accepting input", slog.String("error", err.Error()))
			return
		}
	}
	if err := w.Flush(); err != nil {
		d.Debug(diag.StageScan, "scanner stopped accepting input", slog.String("error", err.Error()))
	}
}

func drainStderr(r *io.PipeReader, d *diag.Diagnostics) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, defaults.BufferLarge), defaults.LineMax)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			d.Debug(diag.StageScan, "scanner stderr", slog.String("line", line))
		}
	}
	if err := sc.Err(); err != nil {
		d.Debug(diag.StageScan, "stderr scan error", slog.String("error", err.Error()))
	}
	// Keep the copy goroutine unblocked after a scanner error.
	_, _ = io.Copy(io.Discard, r)
}

// readResults parses stdout line by line. On return the pipe is closed so
// the process copy goroutine never blocks on an abandoned reader.
func readResults(ctx context.Context, r *io.PipeReader, fn func(nuclei.Result), sum *Summary, d *diag.Diagnostics) (err error) {
	defer func() {
		if err != nil {
			r.CloseWithError(err)
		} else {
			r.Close()
		}
	}()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, defaults.BufferLarge), defaults.LineMax)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		sum.Lines++

		res, perr := nuclei.ParseResult(line)
		switch {
		case errors.Is(perr, nuclei.ErrMalformed):
			sum.Malformed++
			d.Debug(diag.StageParse, "failed to decode line", slog.String("line", string(line)))
			continue
		case errors.Is(perr, finding.ErrIncomplete):
			sum.Incomplete++
			d.Debug(diag.StageParse, "result missing one or more required elements, not reporting",
				slog.String("line", string(line)))
			continue
		case perr != nil:
			d.Debug(diag.StageParse, "unparseable result", slog.String("error", perr.Error()))
			continue
		}
		if res.NameFromInfo {
			d.Debug(diag.StageParse, "matcher-name missing, falling back to template name",
				slog.String("template", res.TemplateID))
		}
		sum.Results++
		if fn != nil {
			fn(res)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan stdout: %w", err)
	}
	return nil
}
