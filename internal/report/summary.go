package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

// PrintSummary writes a human-readable summary.
func (r *Report) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║       ONTOGRAPH ANALYSIS REPORT      ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "║ Nodes:       %-23d║\n", r.Graph.Nodes)
	fmt.Fprintf(w, "║ Edges:       %-23d║\n", r.Graph.Edges)
	fmt.Fprintf(w, "║ Products:    %-23d║\n", r.Graph.Products)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")

	fmt.Fprintf(w, "║ GRAPH\n")
	for _, l := range ontology.Layers {
		fmt.Fprintf(w, "║   %-13s %d\n", l+":", r.Graph.NodesByLayer[l])
	}
	fmt.Fprintf(w, "║   Density:      %.4f\n", r.Metrics.Density)
	fmt.Fprintf(w, "║   Avg Degree:   %.2f\n", r.Metrics.AverageDegree)
	fmt.Fprintf(w, "║   Components:   %d\n", r.Metrics.ConnectedComponents)
	if r.Metrics.Hotspot != "" {
		fmt.Fprintf(w, "║   Hotspot:      %s (%.3f)\n", r.Metrics.Hotspot, r.Metrics.HotspotScore)
	}
	if r.Dependencies != nil {
		fmt.Fprintf(w, "║   Acyclic:      %t\n", r.Dependencies.Acyclic)
		fmt.Fprintf(w, "║   Cycles:       %d\n", len(r.Dependencies.Cycles))
		if p := r.Dependencies.CriticalPath; p != nil {
			fmt.Fprintf(w, "║   Critical:     %s\n", strings.Join(p.IDs(), " -> "))
		}
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")

	b := r.Boundary
	fmt.Fprintf(w, "║ FUNCTIONAL OVERLAP (%s)\n", strings.Join(b.Products, ", "))
	if b.DeepestOverlapLevel == "" {
		fmt.Fprintf(w, "║   No overlap found\n")
	} else {
		fmt.Fprintf(w, "║   Overlap:      %s\n", strings.Join(b.OverlapLevels, ", "))
		fmt.Fprintf(w, "║   Deepest:      %s\n", b.DeepestOverlapLevel)
	}
	if b.Divergence != nil {
		fmt.Fprintf(w, "║   Diverges at:  %s\n", b.DivergencePoint)
		fmt.Fprintf(w, "║   Reason:       %s\n", b.Divergence.Reason)
	}
	for _, m := range b.Matches {
		names := make([]string, len(m.Nodes))
		for i, n := range m.Nodes {
			names[i] = fmt.Sprintf("%s/%s", n.Product, n.Name)
		}
		fmt.Fprintf(w, "║   • [%s] %s (%.2f)\n", m.Level, strings.Join(names, " ~ "), m.Score)
	}
	fmt.Fprintf(w, "║   Code reached: %d\n", len(r.Impact.CodeNodes))
	fmt.Fprintf(w, "║   Overlap:      %.1f%% of nodes\n", r.Overlap.OverlapPercentage)
	fmt.Fprintf(w, "║   Redundant:    %d pairs\n", len(r.Redundancies))
	fmt.Fprintf(w, "║   Patterns:     %d shared\n", len(r.Patterns))

	if len(r.Candidates) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ CANDIDATES\n")
		for _, c := range r.Candidates {
			fmt.Fprintf(w, "║   %3d  %-24s [%s effort]\n", c.UnificationPotential, c.Concept, c.EstimatedEffort)
		}
	}

	if len(r.Inconsistencies) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ INCONSISTENCIES\n")
		for _, n := range r.Inconsistencies {
			fmt.Fprintf(w, "║   • %s: %s\n", n.ID, strings.Join(n.Inconsistencies, "; "))
		}
	}

	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ ANALYZERS\n")
	for _, run := range r.Runs {
		status := "OK"
		if run.Error != "" {
			status = run.Error
		}
		fmt.Fprintf(w, "║   %-16s %8s  %4d  %s\n", run.Analyzer, run.Duration.Round(time.Microsecond), run.Findings, status)
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}
