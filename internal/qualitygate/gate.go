// Package qualitygate checks an analyzed dataset against configurable
// structural rules.
package qualitygate

import (
	"fmt"
	"strings"
	"time"

	"github.com/efebarandurmaz/ontograph/internal/report"
)

// GateStatus represents the result of a quality gate check.
type GateStatus string

const (
	GatePassed  GateStatus = "passed"
	GateFailed  GateStatus = "failed"
	GateSkipped GateStatus = "skipped"
	GateWarning GateStatus = "warning"
)

// GateSeverity indicates how critical a gate failure is.
type GateSeverity string

const (
	SeverityCritical GateSeverity = "critical" // remaining gates are skipped
	SeverityRequired GateSeverity = "required" // fails the pipeline
	SeverityAdvisory GateSeverity = "advisory" // reported as a warning
)

// GateResult captures the outcome of a single gate evaluation.
type GateResult struct {
	Name        string        `json:"name"`
	Status      GateStatus    `json:"status"`
	Severity    GateSeverity  `json:"severity"`
	Score       float64       `json:"score"`     // 0.0-1.0 normalized
	Threshold   float64       `json:"threshold"` // required minimum
	Message     string        `json:"message"`
	Details     []string      `json:"details,omitempty"`
	Duration    time.Duration `json:"duration"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// Gate is one structural rule.
type Gate interface {
	Name() string
	Severity() GateSeverity
	Evaluate(ctx *EvalContext) (*GateResult, error)
}

// EvalContext is the data gates evaluate.
type EvalContext struct {
	Nodes        int
	Edges        int
	Components   int
	SkippedEdges []string   // ids of dangling edges dropped on load
	Cycles       [][]string // dependency cycles
	Flagged      []string   // "id: issue; issue" for nodes with inconsistencies
}

// FromReport builds an EvalContext from a report and the ids of edges
// skipped while loading.
func FromReport(rep *report.Report, skipped []string) *EvalContext {
	ctx := &EvalContext{
		Nodes:        rep.Graph.Nodes,
		Edges:        rep.Graph.Edges,
		Components:   rep.Metrics.ConnectedComponents,
		SkippedEdges: skipped,
	}
	if rep.Dependencies != nil {
		ctx.Cycles = rep.Dependencies.Cycles
	}
	for _, n := range rep.Inconsistencies {
		ctx.Flagged = append(ctx.Flagged, fmt.Sprintf("%s: %s", n.ID, strings.Join(n.Inconsistencies, "; ")))
	}
	return ctx
}

// PipelineResult captures the complete gate pipeline evaluation.
type PipelineResult struct {
	Status       GateStatus    `json:"status"` // failed if any critical or required gate failed
	Gates        []GateResult  `json:"gates"`
	PassedCount  int           `json:"passed_count"`
	FailedCount  int           `json:"failed_count"`
	SkippedCount int           `json:"skipped_count"`
	WarningCount int           `json:"warning_count"`
	Duration     time.Duration `json:"duration"`
	EvaluatedAt  time.Time     `json:"evaluated_at"`
	Summary      string        `json:"summary"`
}

// Pipeline runs gates in order.
type Pipeline struct {
	gates []Gate
}

// NewPipeline creates a new quality gate pipeline.
func NewPipeline(gates ...Gate) *Pipeline {
	return &Pipeline{gates: gates}
}

// AddGate appends a gate to the pipeline.
func (p *Pipeline) AddGate(g Gate) {
	p.gates = append(p.gates, g)
}

// Len returns the number of gates.
func (p *Pipeline) Len() int { return len(p.gates) }

// Run evaluates all gates. A failed critical gate skips the rest; a failed
// advisory gate is downgraded to a warning.
func (p *Pipeline) Run(ctx *EvalContext) *PipelineResult {
	started := time.Now()
	res := &PipelineResult{Status: GatePassed, EvaluatedAt: started}

	blocked := false
	for _, g := range p.gates {
		var gr GateResult
		if blocked {
			gr = GateResult{
				Name:        g.Name(),
				Status:      GateSkipped,
				Severity:    g.Severity(),
				Message:     "not evaluated: an earlier critical gate failed",
				EvaluatedAt: started,
			}
		} else {
			gr = evaluate(g, ctx)
			blocked = gr.Status == GateFailed && gr.Severity == SeverityCritical
		}
		res.add(gr)
	}

	res.Duration = time.Since(started)
	res.Summary = fmt.Sprintf("%d passed, %d failed, %d warnings, %d skipped",
		res.PassedCount, res.FailedCount, res.WarningCount, res.SkippedCount)
	return res
}

// evaluate runs one gate, turning evaluation errors into failures.
func evaluate(g Gate, ctx *EvalContext) GateResult {
	t0 := time.Now()
	out, err := g.Evaluate(ctx)
	if err != nil {
		out = &GateResult{
			Name:     g.Name(),
			Status:   GateFailed,
			Severity: g.Severity(),
			Message:  "evaluation error: " + err.Error(),
		}
	}
	if out.Status == GateFailed && out.Severity == SeverityAdvisory {
		out.Status = GateWarning
	}
	out.EvaluatedAt = t0
	out.Duration = time.Since(t0)
	return *out
}

func (r *PipelineResult) add(gr GateResult) {
	r.Gates = append(r.Gates, gr)
	switch gr.Status {
	case GatePassed:
		r.PassedCount++
	case GateWarning:
		r.WarningCount++
	case GateSkipped:
		r.SkippedCount++
	case GateFailed:
		r.FailedCount++
		r.Status = GateFailed
	}
}
