// Package metrics exposes scan counters for Prometheus scraping.
//
// A nil *Recorder is valid and records nothing, so callers can wire metrics
// unconditionally.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waftester/nucleibudget/pkg/defaults"
	"github.com/waftester/nucleibudget/pkg/diag"
	"github.com/waftester/nucleibudget/pkg/duration"
	"github.com/waftester/nucleibudget/pkg/finding"
)

// Drop reasons for results that never became findings.
const (
	DropMalformed    = "malformed"
	DropIncomplete   = "incomplete"
	DropUncorrelated = "uncorrelated"
)

// Recorder owns a private registry and the scan collectors.
type Recorder struct {
	registry *prometheus.Registry

	batchesTotal    *prometheus.CounterVec
	findingsTotal   *prometheus.CounterVec
	droppedTotal    *prometheus.CounterVec
	targetsTotal    prometheus.Counter
	batchDuration   prometheus.Histogram
	templatesLoaded *prometheus.GaugeVec
	budgetPaths     prometheus.Gauge
	updateOutcome   *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() (*Recorder, error) {
	ns := defaults.MetricsNamespace
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "batches_total",
			Help:      "Scanner batches run, by final state",
		}, []string{"state"}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "findings_total",
			Help:      "Correlated findings emitted",
		}, []string{"severity"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "results_dropped_total",
			Help:      "Scanner output lines that did not become findings",
		}, []string{"reason"}),
		targetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "targets_total",
			Help:      "Targets fed to the scanner",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one scanner batch",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		templatesLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "budget_templates",
			Help:      "Templates selected by the budget plan",
		}, []string{"severity"}),
		budgetPaths: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "budget_paths",
			Help:      "Distinct request paths selected by the budget plan",
		}),
		updateOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "template_updates_total",
			Help:      "Template update runs, by outcome",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{
		r.batchesTotal, r.findingsTotal, r.droppedTotal, r.targetsTotal,
		r.batchDuration, r.templatesLoaded, r.budgetPaths, r.updateOutcome,
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveBatch records one finished batch.
func (r *Recorder) ObserveBatch(state string, targets int, took time.Duration) {
	if r == nil {
		return
	}
	r.batchesTotal.WithLabelValues(state).Inc()
	r.targetsTotal.Add(float64(targets))
	r.batchDuration.Observe(took.Seconds())
}

// ObserveFinding counts an emitted finding.
func (r *Recorder) ObserveFinding(sev finding.Severity) {
	if r == nil {
		return
	}
	r.findingsTotal.WithLabelValues(string(finding.ParseSeverity(string(sev)))).Inc()
}

// ObserveDropped counts n results dropped for reason.
func (r *Recorder) ObserveDropped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.droppedTotal.WithLabelValues(reason).Add(float64(n))
}

// ObservePlan publishes the budget plan shape.
func (r *Recorder) ObservePlan(paths int, stats finding.SeverityStats) {
	if r == nil {
		return
	}
	r.budgetPaths.Set(float64(paths))
	for _, sev := range finding.Severities {
		r.templatesLoaded.WithLabelValues(string(sev)).Set(float64(stats[sev]))
	}
}

// ObserveUpdate counts a template update outcome.
func (r *Recorder) ObserveUpdate(outcome string) {
	if r == nil {
		return
	}
	r.updateOutcome.WithLabelValues(outcome).Inc()
}

// Server serves a Recorder over HTTP.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Serve starts an HTTP server for r on addr (":0" picks a free port).
// The server runs until Close is called.
func Serve(r *Recorder, addr string, logger *slog.Logger) (*Server, error) {
	logger = diag.OrDefault(logger)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(defaults.MetricsPath, r.Handler())
	s := &Server{
		srv: &http.Server{
			Handler:      mux,
			ReadTimeout:  duration.MetricsReadTimeout,
			WriteTimeout: duration.MetricsWriteTimeout,
		},
		listener: ln,
		logger:   logger,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	return s, nil
}

// URL returns the metrics endpoint.
func (s *Server) URL() string {
	return "http://" + s.listener.Addr().String() + defaults.MetricsPath
}

// Close shuts the server down. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), duration.MetricsWriteTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
