package traversal

import (
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// Path is a shortest route between two nodes.
type Path struct {
	Nodes  []ontology.Node `json:"path"`
	Edges  []ontology.Edge `json:"edges"`
	Length int             `json:"length"`

	// CrossLayerTransitions counts consecutive node pairs whose layers differ.
	CrossLayerTransitions int `json:"cross_layer_transitions"`
}

// IDs returns the node IDs along the path.
func (p *Path) IDs() []string {
	out := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.ID
	}
	return out
}

// ShortestPath finds the fewest-edges route from startID to endID over
// forward adjacency. The second result is false when either node is unknown
// or endID is unreachable; that is not an error.
func ShortestPath(g *store.Graph, startID, endID string) (*Path, bool) {
	if !g.HasNode(startID) || !g.HasNode(endID) {
		return nil, false
	}

	parent := map[string]string{}
	visited := map[string]bool{startID: true}
	queue := []string{startID}
	found := startID == endID

	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next == endID {
				found = true
				break
			}
			queue = append(queue, next)
		}
	}
	if !found {
		return nil, false
	}

	ids := []string{endID}
	for cur := endID; cur != startID; {
		cur = parent[cur]
		ids = append(ids, cur)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	p := &Path{Length: len(ids) - 1}
	for i, id := range ids {
		n, _ := g.Node(id)
		p.Nodes = append(p.Nodes, n)
		if i == 0 {
			continue
		}
		prev := p.Nodes[i-1]
		// adjacency guarantees at least one edge; the first inserted wins
		p.Edges = append(p.Edges, g.EdgesBetween(prev.ID, id)[0])
		if prev.Layer != n.Layer {
			p.CrossLayerTransitions++
		}
	}
	return p, true
}
