// Package overlap finds where independently built products describe the
// same concepts and where they stop doing so.
//
// The central operation is Boundary: walk a layer's hierarchy levels from the
// top, match nodes across products at each level, and report the deepest
// level that still matches and the first level after it that does not.
package overlap

import (
	"fmt"
	"strings"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/similarity"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// Thresholds are the tunable cut-offs used by the analyzer.
type Thresholds struct {
	Overlap    float64
	Match      float64
	Redundancy float64
	Weights    similarity.Weights
}

// DefaultThresholds returns the package defaults from similarity.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Overlap:    similarity.OverlapThreshold,
		Match:      similarity.MatchThreshold,
		Redundancy: similarity.RedundancyThreshold,
		Weights:    similarity.DefaultWeights(),
	}
}

// Match is one node per product judged to describe the same concept.
type Match struct {
	Level string          `json:"level"`
	Nodes []ontology.Node `json:"nodes"`
	Score float64         `json:"score"`
}

// Divergence explains the level at which products stopped matching.
type Divergence struct {
	Level          string                     `json:"level"`
	NodesByProduct map[string][]ontology.Node `json:"nodes_by_product"`
	Missing        []string                   `json:"missing_products,omitempty"`
	Reason         string                     `json:"reason"`
}

// BoundaryResult is the outcome of a boundary scan over one layer.
type BoundaryResult struct {
	Layer    ontology.Layer `json:"layer"`
	Products []string       `json:"products"`

	// OverlapLevels lists every level with at least one match, in scan order.
	OverlapLevels       []string `json:"overlap_levels"`
	DeepestOverlapLevel string   `json:"deepest_overlap_level,omitempty"`
	DivergencePoint     string   `json:"divergence_point,omitempty"`

	Matches []Match `json:"matches"`

	// OverlappingNodes accumulates matched nodes across all overlap levels.
	OverlappingNodes []ontology.Node `json:"overlapping_nodes"`
	Divergence       *Divergence     `json:"divergence,omitempty"`
}

// Analyzer runs overlap analyses against one store.
type Analyzer struct {
	g  *store.Graph
	th Thresholds

	// patternHops overrides the neighborhood radius used for patterns.
	patternHops int
}

// NewAnalyzer returns an Analyzer using th.
func NewAnalyzer(g *store.Graph, th Thresholds) *Analyzer {
	return &Analyzer{g: g, th: th}
}

// WithPatternHops sets the neighborhood radius for cross-product patterns.
func (a *Analyzer) WithPatternHops(hops int) *Analyzer {
	a.patternHops = hops
	return a
}

// FunctionalOverlapBoundary scans the functional layer in canonical order.
func (a *Analyzer) FunctionalOverlapBoundary() BoundaryResult {
	return a.Boundary(ontology.LayerFunctional, ontology.LevelOrder(ontology.LayerFunctional))
}

// Boundary scans levels of layer in the given order. Levels before the first
// match are skipped; the first unmatched level after a match is the
// divergence point and ends the scan.
func (a *Analyzer) Boundary(layer ontology.Layer, levels []string) BoundaryResult {
	products := a.g.ProductsIn(layer)
	res := BoundaryResult{Layer: layer, Products: products}
	seen := make(map[string]bool)

	for _, level := range levels {
		byProduct := make(map[string][]ontology.Node, len(products))
		for _, n := range a.g.NodesAt(layer, level) {
			byProduct[n.Product] = append(byProduct[n.Product], n)
		}
		var missing []string
		for _, p := range products {
			if len(byProduct[p]) == 0 {
				missing = append(missing, p)
			}
		}

		var matches []Match
		if len(missing) == 0 {
			matches = a.matchLevel(level, products, byProduct)
		}

		if len(matches) > 0 {
			res.OverlapLevels = append(res.OverlapLevels, level)
			res.DeepestOverlapLevel = level
			res.Matches = append(res.Matches, matches...)
			for _, m := range matches {
				for _, n := range m.Nodes {
					if !seen[n.ID] {
						seen[n.ID] = true
						res.OverlappingNodes = append(res.OverlappingNodes, n)
					}
				}
			}
			continue
		}
		if res.DeepestOverlapLevel == "" {
			continue
		}

		res.DivergencePoint = level
		res.Divergence = &Divergence{
			Level:          level,
			NodesByProduct: byProduct,
			Missing:        missing,
			Reason:         divergenceReason(level, missing),
		}
		break
	}
	return res
}

func divergenceReason(level string, missing []string) string {
	switch len(missing) {
	case 0:
		return fmt.Sprintf("all products define %s but use different implementation approaches", level)
	case 1:
		return fmt.Sprintf("product %s has no %s", missing[0], level)
	default:
		return fmt.Sprintf("products %s have no %s", strings.Join(missing, ", "), level)
	}
}

// matchLevel anchors on each node of the first product and greedily adds,
// for every following product, the node with the highest summed similarity
// to the members chosen so far. A tuple is kept when its mean pairwise
// similarity exceeds the match threshold.
func (a *Analyzer) matchLevel(level string, products []string, byProduct map[string][]ontology.Node) []Match {
	if len(products) < 2 {
		return nil
	}
	var out []Match
	for _, anchor := range byProduct[products[0]] {
		chosen := []ontology.Node{anchor}
		for _, p := range products[1:] {
			var best ontology.Node
			bestScore := -1.0
			for _, cand := range byProduct[p] {
				score := 0.0
				for _, c := range chosen {
					score += similarity.NodeSimilarity(c, cand)
				}
				if score > bestScore {
					best, bestScore = cand, score
				}
			}
			chosen = append(chosen, best)
		}
		if mean := meanPairwise(chosen); mean > a.th.Match {
			out = append(out, Match{Level: level, Nodes: chosen, Score: mean})
		}
	}
	return out
}

func meanPairwise(nodes []ontology.Node) float64 {
	total, pairs := 0.0, 0
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			total += similarity.NodeSimilarity(nodes[i], nodes[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}
