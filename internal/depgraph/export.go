package depgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// ExportDOT generates a Graphviz DOT representation of the graph.
func ExportDOT(g *store.Graph) string {
	var b strings.Builder
	b.WriteString("digraph ontology {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	// One cluster per layer
	for _, layer := range ontology.Layers {
		nodes := g.NodesByLayer(layer)
		if len(nodes) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(string(layer))))
		b.WriteString(fmt.Sprintf("    label=\"%s\";\n", layer))
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, n := range nodes {
			b.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\\n%s\" shape=%s style=filled fillcolor=\"%s\"];\n",
				escape(n.ID), escape(label(n)), escape(n.Product), nodeShape(n.Layer), nodeColor(n.Layer)))
		}
		b.WriteString("  }\n\n")
	}

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=%s color=\"%s\" label=\"%s\"];\n",
			escape(e.Source), escape(e.Target), edgeStyle(e), edgeColor(e.Type), e.Type))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the graph.
func ExportMermaid(g *store.Graph) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, layer := range ontology.Layers {
		nodes := g.NodesByLayer(layer)
		if len(nodes) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  subgraph %s\n", sanitizeID(string(layer))))
		for _, n := range nodes {
			b.WriteString(fmt.Sprintf("    %s%s\n", sanitizeID(n.ID), mermaidNodeShape(n)))
		}
		b.WriteString("  end\n")
	}

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  %s %s|%s| %s\n",
			sanitizeID(e.Source), mermaidArrow(e), e.Type, sanitizeID(e.Target)))
	}

	return b.String()
}

// ExportJSON serializes the graph's interchange document.
func ExportJSON(g *store.Graph) ([]byte, error) {
	return json.MarshalIndent(g.ToInterchange(), "", "  ")
}

// FormatStats returns a human-readable summary of the dependency analysis.
func FormatStats(a *Analysis) string {
	var b strings.Builder
	b.WriteString("Dependency Graph Statistics\n")
	b.WriteString("==========================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:       %d total\n", a.Stats.TotalNodes))
	b.WriteString(fmt.Sprintf("Edges:       %d total\n", a.Stats.TotalEdges))
	b.WriteString(fmt.Sprintf("Max Fan-Out: %d (%s)\n", a.Stats.MaxFanOut, a.Stats.HotspotNode))
	b.WriteString(fmt.Sprintf("Max Fan-In:  %d\n", a.Stats.MaxFanIn))
	b.WriteString(fmt.Sprintf("Components:  %d\n", a.Stats.ConnectedComponents))
	b.WriteString(fmt.Sprintf("Acyclic:     %t\n", a.Acyclic))

	if a.CriticalPath != nil {
		b.WriteString(fmt.Sprintf("\nCritical Path: %d edges, %d layer transitions\n",
			a.CriticalPath.Length, a.CriticalPath.CrossLayerTransitions))
		b.WriteString(fmt.Sprintf("  %s\n", strings.Join(a.CriticalPath.IDs(), " -> ")))
	}

	if len(a.Cycles) > 0 {
		b.WriteString(fmt.Sprintf("\nCyclic Dependencies: %d\n", len(a.Cycles)))
		for i, cycle := range a.Cycles {
			b.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.Join(cycle, " -> ")))
		}
	}

	if len(a.Stats.LayerFanOut) > 0 {
		b.WriteString("\nCross-Layer Edges:\n")
		layers := make([]string, 0, len(a.Stats.LayerFanOut))
		for l := range a.Stats.LayerFanOut {
			layers = append(layers, l)
		}
		sort.Strings(layers)
		for _, l := range layers {
			b.WriteString(fmt.Sprintf("  %s: %d outgoing\n", l, a.Stats.LayerFanOut[l]))
		}
	}

	return b.String()
}

func label(n ontology.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeShape(layer ontology.Layer) string {
	switch layer {
	case ontology.LayerFunctional:
		return "ellipse"
	case ontology.LayerDesign:
		return "box"
	case ontology.LayerArchitecture:
		return "box3d"
	case ontology.LayerCode:
		return "component"
	default:
		return "box"
	}
}

func nodeColor(layer ontology.Layer) string {
	switch layer {
	case ontology.LayerFunctional:
		return "#1f6feb"
	case ontology.LayerDesign:
		return "#8957e5"
	case ontology.LayerArchitecture:
		return "#d29922"
	case ontology.LayerCode:
		return "#238636"
	default:
		return "#30363d"
	}
}

func edgeStyle(e ontology.Edge) string {
	if e.Inconsistent {
		return "dashed"
	}
	switch e.Type {
	case ontology.EdgeImplements, ontology.EdgeRealizes:
		return "bold"
	case ontology.EdgeValidates:
		return "dotted"
	default:
		return "solid"
	}
}

func edgeColor(t ontology.EdgeType) string {
	switch t {
	case ontology.EdgeImplements:
		return "#3fb950"
	case ontology.EdgeRealizes:
		return "#58a6ff"
	case ontology.EdgeRequires:
		return "#f85149"
	case ontology.EdgeValidates:
		return "#8957e5"
	case ontology.EdgeRenders:
		return "#d29922"
	default:
		return "#8b949e"
	}
}

func mermaidNodeShape(n ontology.Node) string {
	text := strings.ReplaceAll(label(n), `"`, "'")
	switch n.Layer {
	case ontology.LayerFunctional:
		return fmt.Sprintf("([\"%s\"])", text)
	case ontology.LayerArchitecture:
		return fmt.Sprintf("[[\"%s\"]]", text)
	case ontology.LayerCode:
		return fmt.Sprintf("{{\"%s\"}}", text)
	default:
		return fmt.Sprintf("[\"%s\"]", text)
	}
}

func mermaidArrow(e ontology.Edge) string {
	if e.Inconsistent {
		return "-.->"
	}
	switch e.Type {
	case ontology.EdgeImplements, ontology.EdgeRealizes:
		return "==>"
	default:
		return "-->"
	}
}
