// Package report runs every analyzer over one frozen graph and collects the
// results for printing or serialization.
package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/ontograph/internal/config"
	"github.com/efebarandurmaz/ontograph/internal/depgraph"
	"github.com/efebarandurmaz/ontograph/internal/observability"
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/overlap"
	"github.com/efebarandurmaz/ontograph/internal/patterns"
	"github.com/efebarandurmaz/ontograph/internal/rationalize"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// Analyzer names, used for spans, metrics labels and audit events.
const (
	AnalyzerMetrics         = "metrics"
	AnalyzerDependencies    = "dependencies"
	AnalyzerBoundary        = "boundary"
	AnalyzerOverlap         = "overlap"
	AnalyzerRedundancy      = "redundancy"
	AnalyzerPatterns        = "patterns"
	AnalyzerInconsistencies = "inconsistencies"
	AnalyzerImpact          = "impact"
	AnalyzerCandidates      = "candidates"
)

// Analyzers lists every analyzer in run order.
var Analyzers = []string{
	AnalyzerMetrics,
	AnalyzerDependencies,
	AnalyzerBoundary,
	AnalyzerOverlap,
	AnalyzerRedundancy,
	AnalyzerPatterns,
	AnalyzerInconsistencies,
	AnalyzerImpact,
	AnalyzerCandidates,
}

// Run records one analyzer execution.
type Run struct {
	Analyzer string        `json:"analyzer"`
	Duration time.Duration `json:"duration_ms"`
	Findings int           `json:"findings"`
	Error    string        `json:"error,omitempty"`
}

// Report is the combined output of all analyzers.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ms"`
	Graph     store.Stats   `json:"graph"`

	Metrics         patterns.ComplexityMetrics `json:"metrics"`
	Dependencies    *depgraph.Analysis         `json:"dependencies"`
	Boundary        overlap.BoundaryResult     `json:"boundary"`
	Impact          overlap.Impact             `json:"impact"`
	Overlap         overlap.Analysis           `json:"overlap"`
	Redundancies    []overlap.Redundancy       `json:"redundancies"`
	Patterns        []patterns.Pattern         `json:"patterns"`
	Inconsistencies []ontology.Node            `json:"inconsistencies"`
	Candidates      []rationalize.Candidate    `json:"candidates"`

	Runs []Run `json:"runs"`
}

// Option configures Build.
type Option func(*builder)

// WithMetrics records each analyzer run in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *builder) { b.metrics = m }
}

// WithAudit writes run and analyzer events to l.
func WithAudit(l *observability.AuditLogger) Option {
	return func(b *builder) { b.audit = l }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) { b.logger = l }
}

type builder struct {
	cfg     config.AnalysisConfig
	metrics *observability.Metrics
	audit   *observability.AuditLogger
	logger  *slog.Logger

	mu   sync.Mutex
	runs []Run
}

// Build freezes g and runs the analyzers. Independent analyzers run
// concurrently; impact and candidates run after the boundary scan they
// depend on. The only errors are from ctx.
func Build(ctx context.Context, g *store.Graph, cfg config.AnalysisConfig, opts ...Option) (*Report, error) {
	b := &builder{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}

	g.Freeze()
	rep := &Report{StartedAt: time.Now(), Graph: g.Stats()}

	ctx, span := observability.StartReportSpan(ctx, g.NodeCount(), g.EdgeCount())
	defer span.End()
	if b.metrics != nil {
		b.metrics.SetGraphSize(g.NodeCount(), g.EdgeCount())
	}
	b.audit.LogRunStart(Analyzers)

	th := cfg.Thresholds()
	ov := overlap.NewAnalyzer(g, th).WithPatternHops(cfg.NeighborhoodHops)
	levels := cfg.FunctionalLevels
	if len(levels) == 0 {
		levels = ontology.LevelOrder(ontology.LayerFunctional)
	}

	// 1. Independent analyzers
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerMetrics, func() int {
			rep.Metrics = patterns.ComputeMetrics(g)
			return rep.Metrics.NodeCount
		})
	})
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerDependencies, func() int {
			rep.Dependencies = depgraph.Analyze(g)
			return len(rep.Dependencies.Cycles)
		})
	})
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerBoundary, func() int {
			rep.Boundary = ov.Boundary(ontology.LayerFunctional, levels)
			return len(rep.Boundary.Matches)
		})
	})
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerOverlap, func() int {
			rep.Overlap = ov.AnalyzeOverlap("")
			return len(rep.Overlap.Groups)
		})
	})
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerRedundancy, func() int {
			rep.Redundancies = ov.FindRedundancies("")
			return len(rep.Redundancies)
		})
	})
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerPatterns, func() int {
			ex := patterns.NewExtractor(g)
			if cfg.NeighborhoodHops > 0 {
				ex = ex.WithHops(cfg.NeighborhoodHops)
			}
			rep.Patterns = ex.CrossProductPatterns()
			return len(rep.Patterns)
		})
	})
	eg.Go(func() error {
		return b.run(egCtx, AnalyzerInconsistencies, func() int {
			rep.Inconsistencies = patterns.FindInconsistencies(g, cfg.InconsistencyHops)
			return len(rep.Inconsistencies)
		})
	})
	err := eg.Wait()

	// 2. Analyzers over the boundary result
	if err == nil {
		err = b.run(ctx, AnalyzerImpact, func() int {
			rep.Impact = ov.ProjectImpact(rep.Boundary.OverlappingNodes)
			return len(rep.Impact.CodeNodes)
		})
	}
	if err == nil {
		err = b.run(ctx, AnalyzerCandidates, func() int {
			rep.Candidates = rationalize.New(g, th).Recommend(rep.Boundary.Matches)
			return len(rep.Candidates)
		})
	}

	rep.Duration = time.Since(rep.StartedAt)
	rep.Runs = b.sortedRuns()
	b.audit.LogRunEnd(rep.Duration, err)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	b.logger.Info("report built",
		"nodes", rep.Graph.Nodes,
		"edges", rep.Graph.Edges,
		"matches", len(rep.Boundary.Matches),
		"candidates", len(rep.Candidates),
		"duration", rep.Duration.Round(time.Millisecond),
	)
	return rep, nil
}

// run executes fn under a span and records its outcome. fn is skipped when
// ctx is already done.
func (b *builder) run(ctx context.Context, name string, fn func() int) error {
	_, span := observability.StartAnalysisSpan(ctx, name)
	defer span.End()

	start := time.Now()
	findings := 0
	err := ctx.Err()
	if err == nil {
		findings = fn()
	}
	d := time.Since(start)

	r := Run{Analyzer: name, Duration: d, Findings: findings}
	if err != nil {
		r.Error = err.Error()
		observability.RecordError(span, err)
	} else {
		observability.RecordAnalysisResult(span, findings)
	}
	if b.metrics != nil {
		b.metrics.RecordAnalysis(name, d, findings, err)
	}
	b.audit.LogAnalysis(name, d, findings, err)
	b.logger.Debug("analyzer finished", "analyzer", name, "findings", findings, "duration", d)

	b.mu.Lock()
	b.runs = append(b.runs, r)
	b.mu.Unlock()
	return err
}

func (b *builder) sortedRuns() []Run {
	b.mu.Lock()
	defer b.mu.Unlock()

	order := make(map[string]int, len(Analyzers))
	for i, a := range Analyzers {
		order[a] = i
	}
	runs := append([]Run(nil), b.runs...)
	sort.Slice(runs, func(i, j int) bool { return order[runs[i].Analyzer] < order[runs[j].Analyzer] })
	return runs
}

// JSON returns the report as formatted JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
