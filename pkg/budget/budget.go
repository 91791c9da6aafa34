package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/finding"
	"github.com/waftester/nucleibudget/pkg/nuclei"
)

// ErrInvalidBudget is returned for a budget below one.
var ErrInvalidBudget = errors.New("budget: must be a positive integer")

// Plan is the read-only result of a budget computation. It is built once per
// scan and shared by every batch.
type Plan struct {
	Budget    int
	Selection Selection

	// Templates are the collapsible template file references in corpus order.
	Templates []string

	Stats    finding.SeverityStats
	Rejected map[Reason]int

	// CorpusSize is the number of templates that parsed.
	CorpusSize int
}

// Options tunes Compute.
type Options struct {
	// Workers is the template parser pool size (0 = GOMAXPROCS).
	Workers int
}

// Compute loads the corpus under dir and plans a scan limited to budget paths.
func Compute(ctx context.Context, dir string, budget int, opts Options) (*Plan, diag.Diagnostics, error) {
	if budget < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, budget)
	}

	corpus, d, err := nuclei.LoadCorpus(ctx, dir, nuclei.LoadOptions{Workers: opts.Workers})
	if err != nil {
		return nil, d, err
	}

	plan := NewPlan(corpus.Templates, budget)
	d.Info(diag.StageBudget, "budget plan computed",
		slog.Int("budget", budget),
		slog.Int("paths_selected", len(plan.Selection)),
		slog.Int("templates_scanned", plan.CorpusSize),
		slog.Int("templates_loaded", plan.Loaded()))
	for _, reason := range Reasons {
		if n := plan.Rejected[reason]; n > 0 {
			d.Debug(diag.StageBudget, "templates rejected",
				slog.String("reason", string(reason)), slog.Int("count", n))
		}
	}
	if plan.Loaded() == 0 {
		d.Warn(diag.StageBudget, "no templates fit the budget; scans will run without templates",
			slog.Int("budget", budget))
	}
	return plan, d, nil
}

// NewPlan indexes, selects and collapses an already loaded corpus.
func NewPlan(templates []*nuclei.Template, budget int) *Plan {
	sel := Select(BuildIndex(templates), budget)
	c := Collapse(templates, sel)
	return &Plan{
		Budget:     budget,
		Selection:  sel,
		Templates:  c.Refs(),
		Stats:      c.Stats,
		Rejected:   c.Rejected,
		CorpusSize: len(templates),
	}
}

// Loaded returns the number of collapsible templates.
func (p *Plan) Loaded() int {
	return len(p.Templates)
}

// Fingerprint hashes the template list; equal plans share a fingerprint.
func (p *Plan) Fingerprint() uint64 {
	return murmur3.Sum64([]byte(strings.Join(p.Templates, "\n")))
}

// Summary renders the operator-facing load line.
func (p *Plan) Summary() string {
	return fmt.Sprintf("Loaded [%d] templates based on a budget of [%d] request(s)", p.Loaded(), p.Budget)
}
