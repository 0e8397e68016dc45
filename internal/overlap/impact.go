package overlap

import (
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/traversal"
)

// Impact is the code reached from a set of overlapping nodes and the
// architecture and design nodes that code hangs off.
type Impact struct {
	// CodeByProduct groups reached code nodes by product, then level.
	CodeByProduct map[string]map[string][]ontology.Node `json:"code_by_product"`
	CodeNodes     []ontology.Node                       `json:"code_nodes"`
	Ancestors     []ontology.Node                       `json:"ancestors"`
}

// ProjectImpact walks forward from seeds to code nodes, then backward from
// those code nodes to architecture and design ancestors.
func (a *Analyzer) ProjectImpact(seeds []ontology.Node) Impact {
	imp := Impact{CodeByProduct: make(map[string]map[string][]ontology.Node)}

	seenCode := make(map[string]map[string]bool)
	for _, seed := range seeds {
		reached := traversal.Traverse(a.g, seed.ID,
			traversal.WithNodeFilter(traversal.InLayer(ontology.LayerCode)))
		for _, c := range reached {
			if seenCode[c.Product] == nil {
				seenCode[c.Product] = make(map[string]bool)
				imp.CodeByProduct[c.Product] = make(map[string][]ontology.Node)
			}
			if seenCode[c.Product][c.ID] {
				continue
			}
			seenCode[c.Product][c.ID] = true
			imp.CodeByProduct[c.Product][c.Level] = append(imp.CodeByProduct[c.Product][c.Level], c)
			imp.CodeNodes = append(imp.CodeNodes, c)
		}
	}

	upstream := func(n ontology.Node) bool {
		return n.Layer == ontology.LayerArchitecture || n.Layer == ontology.LayerDesign
	}
	seenAncestor := make(map[string]bool)
	for _, c := range imp.CodeNodes {
		for _, anc := range traversal.Traverse(a.g, c.ID,
			traversal.WithDirection(traversal.Backward),
			traversal.WithNodeFilter(upstream)) {
			if !seenAncestor[anc.ID] {
				seenAncestor[anc.ID] = true
				imp.Ancestors = append(imp.Ancestors, anc)
			}
		}
	}
	return imp
}
