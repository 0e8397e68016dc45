package store

import (
	"sort"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

// Returned nodes are value copies. Their Properties map is shared with the
// store and must be treated as read-only; use Node.Clone for a private copy.

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (ontology.Node, bool) {
	h, ok := g.nodeByID[id]
	if !ok {
		return ontology.Node{}, false
	}
	return g.nodes[h], true
}

// HasNode reports whether id is in the store.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeByID[id]
	return ok
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (ontology.Edge, bool) {
	h, ok := g.edgeByID[id]
	if !ok {
		return ontology.Edge{}, false
	}
	return g.edges[h], true
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return g.liveNodes }

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return g.liveEdges }

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []ontology.Node {
	out := make([]ontology.Node, 0, g.liveNodes)
	for h, alive := range g.nodeAlive {
		if alive {
			out = append(out, g.nodes[h])
		}
	}
	return out
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []ontology.Edge {
	out := make([]ontology.Edge, 0, g.liveEdges)
	for h, alive := range g.edgeAlive {
		if alive {
			out = append(out, g.edges[h])
		}
	}
	return out
}

// NodesByLayer returns the nodes of a layer in bucket order.
func (g *Graph) NodesByLayer(l ontology.Layer) []ontology.Node {
	return g.collectNodes(g.byLayer[l])
}

// NodesByProduct returns the nodes of a product in bucket order.
func (g *Graph) NodesByProduct(product string) []ontology.Node {
	return g.collectNodes(g.byProduct[product])
}

// NodesByLevel returns the nodes at a level string, across all layers.
func (g *Graph) NodesByLevel(level string) []ontology.Node {
	return g.collectNodes(g.byLevel[level])
}

// NodesAt returns the nodes of one layer at one level.
func (g *Graph) NodesAt(l ontology.Layer, level string) []ontology.Node {
	var out []ontology.Node
	for _, h := range g.byLevel[level] {
		if g.nodes[h].Layer == l {
			out = append(out, g.nodes[h])
		}
	}
	return out
}

// EdgesByType returns the edges of a type in bucket order.
func (g *Graph) EdgesByType(t ontology.EdgeType) []ontology.Edge {
	hs := g.byType[t]
	out := make([]ontology.Edge, len(hs))
	for i, h := range hs {
		out[i] = g.edges[h]
	}
	return out
}

// EdgesBetween returns the edges directed from src to dst.
func (g *Graph) EdgesBetween(src, dst string) []ontology.Edge {
	s, ok1 := g.nodeByID[src]
	d, ok2 := g.nodeByID[dst]
	if !ok1 || !ok2 {
		return nil
	}
	hs := g.between[pair{s, d}]
	out := make([]ontology.Edge, len(hs))
	for i, h := range hs {
		out[i] = g.edges[h]
	}
	return out
}

// Successors returns the forward adjacency of id.
func (g *Graph) Successors(id string) []string {
	h, ok := g.nodeByID[id]
	if !ok {
		return nil
	}
	return g.ids(g.out[h])
}

// Predecessors returns the reverse adjacency of id.
func (g *Graph) Predecessors(id string) []string {
	h, ok := g.nodeByID[id]
	if !ok {
		return nil
	}
	return g.ids(g.in[h])
}

// Degree returns the in and out edge counts of id.
func (g *Graph) Degree(id string) (in, out int) {
	h, ok := g.nodeByID[id]
	if !ok {
		return 0, 0
	}
	return g.inDegree[h], g.outDegree[h]
}

// FindNode returns the first node, in insertion order, matching pred.
func (g *Graph) FindNode(pred func(ontology.Node) bool) (ontology.Node, bool) {
	for h, alive := range g.nodeAlive {
		if alive && pred(g.nodes[h]) {
			return g.nodes[h], true
		}
	}
	return ontology.Node{}, false
}

// FindNodes returns every node matching pred.
func (g *Graph) FindNodes(pred func(ontology.Node) bool) []ontology.Node {
	var out []ontology.Node
	for h, alive := range g.nodeAlive {
		if alive && pred(g.nodes[h]) {
			out = append(out, g.nodes[h])
		}
	}
	return out
}

// Products returns the sorted product names that own at least one node.
func (g *Graph) Products() []string {
	return sortedKeys(g.byProduct)
}

// ProductsIn returns the sorted products with at least one node in layer l.
func (g *Graph) ProductsIn(l ontology.Layer) []string {
	seen := make(map[string]bool)
	for _, h := range g.byLayer[l] {
		seen[g.nodes[h].Product] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Levels returns the sorted level strings in use.
func (g *Graph) Levels() []string {
	return sortedKeys(g.byLevel)
}

func (g *Graph) collectNodes(hs []handle) []ontology.Node {
	out := make([]ontology.Node, len(hs))
	for i, h := range hs {
		out[i] = g.nodes[h]
	}
	return out
}

func (g *Graph) ids(hs []handle) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = g.nodes[h].ID
	}
	return out
}

func sortedKeys(m map[string][]handle) []string {
	out := make([]string, 0, len(m))
	for k, hs := range m {
		if len(hs) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Layers returns the layers that hold at least one node, in canonical order.
func (g *Graph) Layers() []ontology.Layer {
	var out []ontology.Layer
	for _, l := range ontology.Layers {
		if len(g.byLayer[l]) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Stats is a count summary of the store.
type Stats struct {
	Nodes        int                       `json:"nodes"`
	Edges        int                       `json:"edges"`
	Products     int                       `json:"products"`
	NodesByLayer map[ontology.Layer]int    `json:"nodes_by_layer"`
	EdgesByType  map[ontology.EdgeType]int `json:"edges_by_type"`
}

// Stats counts nodes per layer and edges per type.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:        g.liveNodes,
		Edges:        g.liveEdges,
		Products:     len(g.Products()),
		NodesByLayer: make(map[ontology.Layer]int),
		EdgesByType:  make(map[ontology.EdgeType]int),
	}
	for l, hs := range g.byLayer {
		if len(hs) > 0 {
			s.NodesByLayer[l] = len(hs)
		}
	}
	for t, hs := range g.byType {
		if len(hs) > 0 {
			s.EdgesByType[t] = len(hs)
		}
	}
	return s
}
