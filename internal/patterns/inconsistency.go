package patterns

import (
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
	"github.com/efebarandurmaz/ontograph/internal/traversal"
)

// DefaultInconsistencyHops bounds the search for a cross-layer connection.
const DefaultInconsistencyHops = 5

// Issue labels attached to Node.Inconsistencies.
const (
	IssueOrphaned    = "orphaned node with no connections"
	IssueLacksDesign = "functional node lacks design connection"
	IssueLacksCode   = "design node lacks code implementation"
)

// FindInconsistencies returns annotated copies of every node with at least
// one structural issue. The store itself is not modified.
func FindInconsistencies(g *store.Graph, hops int) []ontology.Node {
	if hops < 1 {
		hops = DefaultInconsistencyHops
	}
	var out []ontology.Node
	for _, n := range g.Nodes() {
		var issues []string
		in, outDeg := g.Degree(n.ID)
		if in+outDeg == 0 {
			issues = append(issues, IssueOrphaned)
		}
		switch n.Layer {
		case ontology.LayerFunctional:
			if !reaches(g, n.ID, ontology.LayerDesign, hops) {
				issues = append(issues, IssueLacksDesign)
			}
		case ontology.LayerDesign:
			if !reaches(g, n.ID, ontology.LayerCode, hops) {
				issues = append(issues, IssueLacksCode)
			}
		}
		if len(issues) == 0 {
			continue
		}
		annotated := n.Clone()
		annotated.Inconsistencies = append(annotated.Inconsistencies, issues...)
		out = append(out, annotated)
	}
	return out
}

func reaches(g *store.Graph, id string, layer ontology.Layer, hops int) bool {
	found := traversal.Traverse(g, id,
		traversal.WithDirection(traversal.Both),
		traversal.WithMaxDepth(hops),
		traversal.WithNodeFilter(traversal.InLayer(layer)))
	return len(found) > 0
}
