package qualitygate

import (
	"fmt"
	"strings"
)

// maxDetails caps the detail lines attached to a result.
const maxDetails = 10

func details(items []string) []string {
	if len(items) <= maxDetails {
		return items
	}
	out := append([]string(nil), items[:maxDetails]...)
	return append(out, fmt.Sprintf("... and %d more", len(items)-maxDetails))
}

func newResult(g Gate, passed bool, score, threshold float64, msg string) *GateResult {
	status := GatePassed
	if !passed {
		status = GateFailed
	}
	return &GateResult{
		Name:      g.Name(),
		Status:    status,
		Severity:  g.Severity(),
		Score:     score,
		Threshold: threshold,
		Message:   msg,
	}
}

// DanglingGate fails when edges were dropped on load because an endpoint
// did not exist.
type DanglingGate struct {
	severity GateSeverity
}

func NewDanglingGate(severity GateSeverity) *DanglingGate {
	return &DanglingGate{severity: severity}
}

func (g *DanglingGate) Name() string           { return "dangling" }
func (g *DanglingGate) Severity() GateSeverity { return g.severity }

func (g *DanglingGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	total := ctx.Edges + len(ctx.SkippedEdges)
	score := 1.0
	if total > 0 {
		score = float64(ctx.Edges) / float64(total)
	}
	if len(ctx.SkippedEdges) == 0 {
		return newResult(g, true, score, 1, "No dangling edges"), nil
	}
	r := newResult(g, false, score, 1,
		fmt.Sprintf("%d of %d edges reference missing nodes", len(ctx.SkippedEdges), total))
	r.Details = details(ctx.SkippedEdges)
	return r, nil
}

// AcyclicGate fails when the dependency graph has cycles.
type AcyclicGate struct {
	severity GateSeverity
}

func NewAcyclicGate(severity GateSeverity) *AcyclicGate {
	return &AcyclicGate{severity: severity}
}

func (g *AcyclicGate) Name() string           { return "acyclic" }
func (g *AcyclicGate) Severity() GateSeverity { return g.severity }

func (g *AcyclicGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	if len(ctx.Cycles) == 0 {
		return newResult(g, true, 1, 1, "Dependency graph is acyclic"), nil
	}
	r := newResult(g, false, 0, 1, fmt.Sprintf("%d dependency cycles", len(ctx.Cycles)))
	lines := make([]string, 0, len(ctx.Cycles))
	for _, c := range ctx.Cycles {
		lines = append(lines, strings.Join(c, " -> "))
	}
	r.Details = details(lines)
	return r, nil
}

// ConsistencyGate requires a minimum fraction of nodes without
// inconsistency annotations.
type ConsistencyGate struct {
	severity  GateSeverity
	threshold float64
}

func NewConsistencyGate(severity GateSeverity, threshold float64) *ConsistencyGate {
	return &ConsistencyGate{severity: severity, threshold: threshold}
}

func (g *ConsistencyGate) Name() string           { return "consistency" }
func (g *ConsistencyGate) Severity() GateSeverity { return g.severity }

func (g *ConsistencyGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	if ctx.Nodes == 0 {
		r := newResult(g, true, 1, g.threshold, "Empty graph")
		r.Status = GateSkipped
		return r, nil
	}
	score := float64(ctx.Nodes-len(ctx.Flagged)) / float64(ctx.Nodes)
	passed := score >= g.threshold
	r := newResult(g, passed, score, g.threshold,
		fmt.Sprintf("%.0f%% of nodes consistent (need %.0f%%)", score*100, g.threshold*100))
	if !passed {
		r.Details = details(ctx.Flagged)
	}
	return r, nil
}

// ComponentsGate caps the number of disconnected components.
type ComponentsGate struct {
	severity GateSeverity
	max      int
}

func NewComponentsGate(severity GateSeverity, max int) *ComponentsGate {
	return &ComponentsGate{severity: severity, max: max}
}

func (g *ComponentsGate) Name() string           { return "components" }
func (g *ComponentsGate) Severity() GateSeverity { return g.severity }

func (g *ComponentsGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	if g.max <= 0 {
		return nil, fmt.Errorf("max components must be positive, got %d", g.max)
	}
	score := 1.0
	if ctx.Components > g.max {
		score = float64(g.max) / float64(ctx.Components)
	}
	return newResult(g, ctx.Components <= g.max, score, 1,
		fmt.Sprintf("%d connected components (max %d)", ctx.Components, g.max)), nil
}
