package patterns

import (
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/efebarandurmaz/ontograph/internal/store"
)

// ComplexityMetrics summarizes the size and shape of the whole graph.
type ComplexityMetrics struct {
	NodeCount           int            `json:"node_count"`
	EdgeCount           int            `json:"edge_count"`
	Density             float64        `json:"density"`
	AverageDegree       float64        `json:"average_degree"`
	ConnectedComponents int            `json:"connected_components"`
	LayerDistribution   map[string]int `json:"layer_distribution"`
	LevelDistribution   map[string]int `json:"level_distribution"`
	MaxFanIn            int            `json:"max_fan_in"`
	MaxFanOut           int            `json:"max_fan_out"`

	// Hotspot is the node with the highest PageRank, empty without edges.
	Hotspot      string  `json:"hotspot,omitempty"`
	HotspotScore float64 `json:"hotspot_score,omitempty"`

	// ProductComplexity is the average total degree of each product's nodes.
	ProductComplexity map[string]float64 `json:"product_complexity"`
}

// ComputeMetrics walks the store once for counts and degrees, then runs a
// component count and PageRank.
func ComputeMetrics(g *store.Graph) ComplexityMetrics {
	m := ComplexityMetrics{
		NodeCount:         g.NodeCount(),
		EdgeCount:         g.EdgeCount(),
		LayerDistribution: make(map[string]int),
		LevelDistribution: make(map[string]int),
		ProductComplexity: make(map[string]float64),
	}
	if n := m.NodeCount; n > 1 {
		m.Density = float64(m.EdgeCount) / float64(n*(n-1))
	}

	productDegree := make(map[string]int)
	productNodes := make(map[string]int)
	totalDegree := 0
	for _, node := range g.Nodes() {
		m.LayerDistribution[string(node.Layer)]++
		m.LevelDistribution[node.LevelKey()]++
		in, out := g.Degree(node.ID)
		totalDegree += in + out
		if in > m.MaxFanIn {
			m.MaxFanIn = in
		}
		if out > m.MaxFanOut {
			m.MaxFanOut = out
		}
		productDegree[node.Product] += in + out
		productNodes[node.Product]++
	}
	if m.NodeCount > 0 {
		m.AverageDegree = float64(totalDegree) / float64(m.NodeCount)
	}
	for p, count := range productNodes {
		m.ProductComplexity[p] = float64(productDegree[p]) / float64(count)
	}

	m.ConnectedComponents = countComponents(g)
	m.Hotspot, m.HotspotScore = pageRankHotspot(g)
	return m
}

// countComponents counts weakly connected components with an explicit stack.
func countComponents(g *store.Graph) int {
	seen := make(map[string]bool, g.NodeCount())
	components := 0
	for _, start := range g.Nodes() {
		if seen[start.ID] {
			continue
		}
		components++
		seen[start.ID] = true
		stack := []string{start.ID}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range append(g.Successors(cur), g.Predecessors(cur)...) {
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
	}
	return components
}

func pageRankHotspot(g *store.Graph) (string, float64) {
	if g.EdgeCount() == 0 {
		return "", 0
	}
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
		if from == to {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	ranks := network.PageRank(dg, 0.85, 1e-6)
	best, bestScore := "", -1.0
	for i, id := range names {
		score := ranks[int64(i)]
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	return best, bestScore
}
