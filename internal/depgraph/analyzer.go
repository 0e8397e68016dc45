// Package depgraph analyzes the ontology graph as a dependency graph: direct
// and transitive dependency sets, cycles, the functional-to-code critical
// path, and DOT/Mermaid/JSON exports.
package depgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
	"github.com/efebarandurmaz/ontograph/internal/traversal"
)

// Analyze builds the dependency analysis of g.
func Analyze(g *store.Graph) *Analysis {
	a := &Analysis{
		Direct:     make(map[string][]string, g.NodeCount()),
		Transitive: make(map[string][]string, g.NodeCount()),
	}

	// 1. Dependency sets
	for _, n := range g.Nodes() {
		a.Direct[n.ID] = withoutSelf(n.ID, traversal.Traverse(g, n.ID, traversal.WithMaxDepth(1)))
		a.Transitive[n.ID] = withoutSelf(n.ID, traversal.Traverse(g, n.ID))
	}

	// 2. Cycles over the direct map
	a.Cycles = DetectCycles(a.Direct)

	// 3. Critical path
	a.CriticalPath = CriticalPath(g)

	// 4. Topological order when there is one
	a.TopologicalOrder, a.Acyclic = topologicalOrder(g)

	// 5. Stats
	a.Stats = computeStats(g)
	a.Stats.CycleCount = len(a.Cycles)

	return a
}

func withoutSelf(id string, nodes []ontology.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.ID != id {
			out = append(out, n.ID)
		}
	}
	return out
}

// DetectCycles finds cycles with a white/gray/black DFS over deps. Each cycle
// starts at the node first revisited and repeats it at the end. Roots are
// tried in sorted order so every component is covered deterministically.
func DetectCycles(deps map[string][]string) [][]string {
	const (
		white = iota
		gray
		black
	)

	roots := make([]string, 0, len(deps))
	for id := range deps {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	type frame struct {
		id   string
		next int
	}

	var cycles [][]string
	color := make(map[string]int, len(deps))

	for _, root := range roots {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{id: root}}
		path := []string{root}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := deps[top.id]
			if top.next >= len(children) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}
			child := children[top.next]
			top.next++

			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
				path = append(path, child)
			case gray:
				start := indexOf(path, child)
				cycle := append(append([]string(nil), path[start:]...), child)
				cycles = append(cycles, cycle)
			}
		}
	}
	return cycles
}

func indexOf(path []string, id string) int {
	for i, p := range path {
		if p == id {
			return i
		}
	}
	return -1
}

// CriticalPath returns the longest of the shortest paths from every functional
// persona or outcome node to every code node, or nil when none connect.
// This is sources x sinks BFS runs and is meant for small graphs.
func CriticalPath(g *store.Graph) *traversal.Path {
	var sources []ontology.Node
	sources = append(sources, g.NodesAt(ontology.LayerFunctional, "persona")...)
	sources = append(sources, g.NodesAt(ontology.LayerFunctional, "outcomes")...)
	sinks := g.NodesByLayer(ontology.LayerCode)

	var longest *traversal.Path
	for _, src := range sources {
		for _, dst := range sinks {
			p, ok := traversal.ShortestPath(g, src.ID, dst.ID)
			if !ok {
				continue
			}
			if longest == nil || p.Length > longest.Length {
				longest = p
			}
		}
	}
	return longest
}

// topologicalOrder sorts g with gonum. Self-loops are ignored, matching the
// direct dependency sets. The second result is false when g has a cycle.
func topologicalOrder(g *store.Graph) ([]string, bool) {
	dg := simple.NewDirectedGraph()
	ids := make(map[string]int64, g.NodeCount())
	names := make([]string, 0, g.NodeCount())
	for i, n := range g.Nodes() {
		ids[n.ID] = int64(i)
		names = append(names, n.ID)
		dg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges() {
		from, to := ids[e.Source], ids[e.Target]
		if from != to {
			dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	sorted, err := topo.SortStabilized(dg, byID)
	if err != nil {
		// topo.Unorderable: at least one cycle
		return nil, false
	}
	order := make([]string, len(sorted))
	for i, n := range sorted {
		order[i] = names[n.ID()]
	}
	return order, true
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// computeStats computes graph metrics
func computeStats(g *store.Graph) Stats {
	s := Stats{
		TotalNodes:  g.NodeCount(),
		TotalEdges:  g.EdgeCount(),
		LayerFanOut: make(map[string]int),
	}

	for _, n := range g.Nodes() {
		in, out := g.Degree(n.ID)
		if out > s.MaxFanOut {
			s.MaxFanOut = out
			s.HotspotNode = n.ID
		}
		if in > s.MaxFanIn {
			s.MaxFanIn = in
		}
	}

	layerOf := make(map[string]ontology.Layer, g.NodeCount())
	for _, n := range g.Nodes() {
		layerOf[n.ID] = n.Layer
	}
	for _, e := range g.Edges() {
		if from := layerOf[e.Source]; from != layerOf[e.Target] {
			s.LayerFanOut[string(from)]++
		}
	}

	s.ConnectedComponents = countComponents(g)
	return s
}

// countComponents counts weakly connected components via union-find
func countComponents(g *store.Graph) int {
	parent := make(map[string]string, g.NodeCount())
	find := func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	for _, n := range g.Nodes() {
		parent[n.ID] = n.ID
	}
	for _, e := range g.Edges() {
		fa, fb := find(e.Source), find(e.Target)
		if fa != fb {
			parent[fa] = fb
		}
	}

	roots := make(map[string]bool)
	for _, n := range g.Nodes() {
		roots[find(n.ID)] = true
	}
	return len(roots)
}
