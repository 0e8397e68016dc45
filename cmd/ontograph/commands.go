package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/ontograph/internal/dataset"
	"github.com/efebarandurmaz/ontograph/internal/depgraph"
	"github.com/efebarandurmaz/ontograph/internal/observability"
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/overlap"
	"github.com/efebarandurmaz/ontograph/internal/patterns"
	"github.com/efebarandurmaz/ontograph/internal/qualitygate"
	"github.com/efebarandurmaz/ontograph/internal/rationalize"
	"github.com/efebarandurmaz/ontograph/internal/report"
	"github.com/efebarandurmaz/ontograph/internal/store"
	"github.com/efebarandurmaz/ontograph/internal/traversal"
)

func (a *app) analyzeCmd() *cobra.Command {
	var (
		jsonOutput  bool
		metricsFile string
		gates       bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <dataset>",
		Short: "Run every analyzer and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, loaded, err := a.loadGraph(ctx, args[0])
			if err != nil {
				return err
			}

			m := observability.NewMetrics()
			rep, err := report.Build(ctx, g, a.cfg.Analysis,
				report.WithMetrics(m),
				report.WithAudit(a.audit),
				report.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, m.Registry()); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}

			var gateResult *qualitygate.PipelineResult
			if gates || a.cfg.Gates.Enabled {
				pipeline, err := qualitygate.BuildPipeline(a.cfg.Gates)
				if err != nil {
					return err
				}
				skipped := make([]string, 0, len(loaded.Skipped))
				for _, d := range loaded.Skipped {
					skipped = append(skipped, d.EdgeID)
				}
				gateResult = pipeline.Run(qualitygate.FromReport(rep, skipped))
				a.logger.Info("quality gates evaluated", "status", gateResult.Status, "failed", gateResult.FailedCount)
			}

			if jsonOutput {
				var data []byte
				if gateResult != nil {
					data, err = json.MarshalIndent(struct {
						Report *report.Report              `json:"report"`
						Gates  *qualitygate.PipelineResult `json:"gates"`
					}{rep, gateResult}, "", "  ")
				} else {
					data, err = rep.JSON()
				}
				if err != nil {
					return err
				}
				a.printf("%s\n", data)
			} else {
				rep.PrintSummary(a.out)
				if gateResult != nil {
					a.printf("\n%s", qualitygate.FormatReport(gateResult))
				}
			}

			if gateResult != nil && gateResult.Status == qualitygate.GateFailed {
				return fmt.Errorf("quality gates failed: %d of %d", gateResult.FailedCount, len(gateResult.Gates))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&gates, "gates", false, "Evaluate quality gates and fail when a blocking gate fails")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	return cmd
}

func (a *app) traverseCmd() *cobra.Command {
	var (
		direction string
		depth     int
		layer     string
		edgeType  string
	)
	cmd := &cobra.Command{
		Use:   "traverse <dataset> <start-node>",
		Short: "List nodes reachable from a start node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := a.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !g.HasNode(args[1]) {
				return fmt.Errorf("%w: %q", store.ErrNodeNotFound, args[1])
			}

			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			opts := []traversal.Option{traversal.WithDirection(dir), traversal.WithMaxDepth(depth)}
			if layer != "" {
				opts = append(opts, traversal.WithNodeFilter(traversal.InLayer(ontology.Layer(layer))))
			}
			if edgeType != "" {
				t := ontology.EdgeType(edgeType)
				opts = append(opts, traversal.WithEdgeFilter(func(e ontology.Edge) bool { return e.Type == t }))
			}

			for _, n := range traversal.Traverse(g, args[1], opts...) {
				a.printf("%-24s %-13s %-22s %-10s %s\n", n.ID, n.Layer, n.Level, n.Product, n.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "forward", "forward, backward or both")
	cmd.Flags().IntVar(&depth, "depth", traversal.Unlimited, "Maximum depth (-1 for unlimited)")
	cmd.Flags().StringVar(&layer, "layer", "", "Only list nodes in this layer")
	cmd.Flags().StringVar(&edgeType, "edge-type", "", "Only follow edges of this type")
	return cmd
}

func parseDirection(s string) (traversal.Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "":
		return traversal.Forward, nil
	case "backward":
		return traversal.Backward, nil
	case "both":
		return traversal.Both, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

func (a *app) pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <dataset> <from> <to>",
		Short: "Find the shortest directed path between two nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := a.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, ok := traversal.ShortestPath(g, args[1], args[2])
			if !ok {
				a.printf("No path from %s to %s\n", args[1], args[2])
				return nil
			}
			a.printf("Path (%d hops, %d cross-layer transitions):\n", p.Length, p.CrossLayerTransitions)
			for i, n := range p.Nodes {
				if i > 0 {
					a.printf("    --%s-->\n", p.Edges[i-1].Type)
				}
				a.printf("  %s [%s/%s] %s\n", n.ID, n.Layer, n.Level, n.Name)
			}
			return nil
		},
	}
}

func (a *app) overlapCmd() *cobra.Command {
	var (
		layer      string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "overlap <dataset>",
		Short: "Find where products share functionality and where they diverge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := a.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			an := overlap.NewAnalyzer(g, a.cfg.Analysis.Thresholds()).WithPatternHops(a.cfg.Analysis.NeighborhoodHops)
			boundary := an.Boundary(ontology.LayerFunctional, a.functionalLevels())
			analysis := an.AnalyzeOverlap(ontology.Layer(layer))
			redundant := an.FindRedundancies(ontology.Layer(layer))

			if jsonOutput {
				data, err := json.MarshalIndent(map[string]any{
					"boundary":     boundary,
					"impact":       an.ProjectImpact(boundary.OverlappingNodes),
					"overlap":      analysis,
					"redundancies": redundant,
				}, "", "  ")
				if err != nil {
					return err
				}
				a.printf("%s\n", data)
				return nil
			}

			a.printf("Products: %s\n", strings.Join(boundary.Products, ", "))
			if boundary.DeepestOverlapLevel == "" {
				a.printf("No functional overlap\n")
			} else {
				a.printf("Deepest overlap: %s\n", boundary.DeepestOverlapLevel)
			}
			for _, m := range boundary.Matches {
				a.printf("  [%s] %.2f %s\n", m.Level, m.Score, nodeList(m.Nodes))
			}
			if d := boundary.Divergence; d != nil {
				a.printf("Diverges at %s: %s\n", d.Level, d.Reason)
			}
			a.printf("\nOverlap: %.1f%% of nodes in %d groups\n", analysis.OverlapPercentage, len(analysis.Groups))
			for _, grp := range analysis.Groups {
				a.printf("  %s/%s: %s\n", grp.Layer, grp.Level, nodeList(grp.Nodes))
			}
			a.printf("\nRedundant pairs: %d\n", len(redundant))
			for _, r := range redundant {
				a.printf("  %.2f %s ~ %s\n", r.Score, r.A.ID, r.B.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "Restrict overlap grouping to one layer (all layers when empty)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func nodeList(nodes []ontology.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = fmt.Sprintf("%s/%s", n.Product, n.Name)
	}
	return strings.Join(parts, " ~ ")
}

func (a *app) cyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles <dataset>",
		Short: "Report dependency cycles and graph statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := a.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			an := depgraph.Analyze(g)
			a.printf("%s", depgraph.FormatStats(an))
			for _, c := range an.Cycles {
				a.printf("  %s\n", strings.Join(c, " -> "))
			}
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export the graph as DOT, Mermaid, JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := a.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var data []byte
			switch format {
			case "dot":
				data = []byte(depgraph.ExportDOT(g))
			case "mermaid":
				data = []byte(depgraph.ExportMermaid(g))
			case "json":
				data, err = depgraph.ExportJSON(g)
			case "yaml":
				data, err = dataset.Encode(g.ToInterchange(), dataset.FormatYAML)
			default:
				return fmt.Errorf("unknown export format %q (dot, mermaid, json, yaml)", format)
			}
			if err != nil {
				return err
			}
			return a.writeOutput(output, data)
		},
	}
	cmd.Flags().StringVar(&format, "format", "dot", "dot, mermaid, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout when empty)")
	return cmd
}

func (a *app) recommendCmd() *cobra.Command {
	var nodeID string
	cmd := &cobra.Command{
		Use:   "recommend <dataset>",
		Short: "Rank unification candidates, or suggest missing connections for one node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := a.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if nodeID != "" {
				if !g.HasNode(nodeID) {
					return fmt.Errorf("%w: %q", store.ErrNodeNotFound, nodeID)
				}
				x := patterns.NewExtractor(g)
				if h := a.cfg.Analysis.NeighborhoodHops; h > 0 {
					x = x.WithHops(h)
				}
				suggestions := x.RecommendConnections(nodeID)
				if len(suggestions) == 0 {
					a.printf("No suggested connections for %s\n", nodeID)
				}
				for _, s := range suggestions {
					a.printf("  %s --%s--> %s  (%s)\n", s.Edge.Source, s.Edge.Type, s.Edge.Target, s.Reason)
				}
				return nil
			}

			th := a.cfg.Analysis.Thresholds()
			boundary := overlap.NewAnalyzer(g, th).Boundary(ontology.LayerFunctional, a.functionalLevels())
			candidates := rationalize.New(g, th).Recommend(boundary.Matches)
			if len(candidates) == 0 {
				a.printf("No unification candidates\n")
				return nil
			}
			for i, c := range candidates {
				a.printf("%d. %s [%s] potential %d, %s effort\n", i+1, c.Concept, strings.Join(c.Products, ", "), c.UnificationPotential, c.EstimatedEffort)
				a.printf("   functional %.0f  design divergence %.0f  code redundancy %.0f\n", c.FunctionalOverlap, c.DesignDivergence, c.CodeRedundancy)
				for _, r := range c.Recommendations {
					a.printf("   - %s\n", r)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&nodeID, "node", "", "Suggest connections for this node instead")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dataset>",
		Short: "Check a dataset for dangling edges and inconsistent nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			g, res, err := dataset.Build(doc, dataset.BuildOptions{SkipDangling: true, Logger: a.logger})
			if err != nil {
				return err
			}

			a.printf("Dataset %s\n", args[0])
			a.printf("  Hash:     %s\n", dataset.ContentHash(doc))
			a.printf("  Nodes:    %d\n", g.NodeCount())
			a.printf("  Edges:    %d\n", g.EdgeCount())
			a.printf("  Products: %s\n", strings.Join(g.Products(), ", "))
			for _, d := range res.Skipped {
				a.printf("  dangling edge %s: missing %s\n", d.EdgeID, strings.Join(d.NodeIDs, ", "))
			}

			flagged := patterns.FindInconsistencies(g, a.cfg.Analysis.InconsistencyHops)
			for _, n := range flagged {
				a.printf("  %s: %s\n", n.ID, strings.Join(n.Inconsistencies, "; "))
			}
			if len(res.Skipped) > 0 {
				return fmt.Errorf("%d dangling edges", len(res.Skipped))
			}
			if len(flagged) == 0 {
				a.printf("  OK\n")
			}
			return nil
		},
	}
}
