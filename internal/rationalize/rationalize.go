// Package rationalize turns cross-product overlap into ranked unification
// candidates with an effort estimate.
package rationalize

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/overlap"
	"github.com/efebarandurmaz/ontograph/internal/similarity"
	"github.com/efebarandurmaz/ontograph/internal/store"
	"github.com/efebarandurmaz/ontograph/internal/traversal"
)

// Effort is a coarse estimate of unification cost.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Candidate is one proposed unification of matched nodes.
type Candidate struct {
	ID       string          `json:"id"`
	Concept  string          `json:"concept"`
	Level    string          `json:"level"`
	Nodes    []ontology.Node `json:"nodes"`
	Products []string        `json:"products"`

	// Scores in [0,100].
	FunctionalOverlap float64 `json:"functional_overlap"`
	DesignDivergence  float64 `json:"design_divergence"`
	CodeRedundancy    float64 `json:"code_redundancy"`

	UnificationPotential int      `json:"unification_potential"`
	EstimatedEffort      Effort   `json:"estimated_effort"`
	Recommendations      []string `json:"recommendations"`
}

// Recommender scores overlap matches against the graph below them.
type Recommender struct {
	g  *store.Graph
	th overlap.Thresholds
}

// New returns a Recommender.
func New(g *store.Graph, th overlap.Thresholds) *Recommender {
	return &Recommender{g: g, th: th}
}

// Recommend scores every match and returns candidates ranked by unification
// potential, highest first.
func (r *Recommender) Recommend(matches []overlap.Match) []Candidate {
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, r.candidate(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnificationPotential > out[j].UnificationPotential
	})
	return out
}

func (r *Recommender) candidate(m overlap.Match) Candidate {
	c := Candidate{
		ID:                candidateID(m.Nodes),
		Level:             m.Level,
		Nodes:             m.Nodes,
		FunctionalOverlap: clamp(m.Score * 100),
	}
	if len(m.Nodes) > 0 {
		c.Concept = m.Nodes[0].Name
	}
	for _, n := range m.Nodes {
		c.Products = append(c.Products, n.Product)
	}

	design := r.reachedByProduct(m.Nodes, ontology.LayerDesign)
	code := r.reachedByProduct(m.Nodes, ontology.LayerCode)

	c.DesignDivergence = divergence(design)
	redundant, total := r.redundantCode(code)
	if total > 0 {
		c.CodeRedundancy = clamp(float64(redundant) / float64(total) * 100)
	}

	potential := 0.5*c.FunctionalOverlap + 0.3*c.CodeRedundancy + 0.2*(100-c.DesignDivergence)
	c.UnificationPotential = int(math.Round(clamp(potential)))
	c.EstimatedEffort = estimateEffort(total, c.DesignDivergence)
	c.Recommendations = recommendations(c, redundant, total)
	return c
}

// reachedByProduct walks forward from each node and collects reached nodes
// of layer, keyed by the seed's product.
func (r *Recommender) reachedByProduct(seeds []ontology.Node, layer ontology.Layer) map[string][]ontology.Node {
	out := make(map[string][]ontology.Node, len(seeds))
	for _, s := range seeds {
		seen := make(map[string]bool)
		for _, n := range traversal.Traverse(r.g, s.ID, traversal.WithNodeFilter(traversal.InLayer(layer))) {
			if !seen[n.ID] {
				seen[n.ID] = true
				out[s.Product] = append(out[s.Product], n)
			}
		}
	}
	return out
}

// divergence is 100 minus the mean best cross-product similarity of design
// nodes. Products without design count as fully divergent when others have
// some; no design anywhere is 0.
func divergence(byProduct map[string][]ontology.Node) float64 {
	products := make([]string, 0, len(byProduct))
	for p, nodes := range byProduct {
		if len(nodes) > 0 {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return 0
	}
	if len(products) == 1 {
		return 100
	}
	sort.Strings(products)

	total, count := 0.0, 0
	for i, p := range products {
		for j, q := range products {
			if i == j {
				continue
			}
			for _, a := range byProduct[p] {
				best := 0.0
				for _, b := range byProduct[q] {
					best = max(best, similarity.NodeSimilarity(a, b))
				}
				total += best
				count++
			}
		}
	}
	return clamp(100 * (1 - total/float64(count)))
}

// redundantCode counts code nodes that have a cross-product redundant twin.
func (r *Recommender) redundantCode(byProduct map[string][]ontology.Node) (redundant, total int) {
	var all []ontology.Node
	for _, nodes := range byProduct {
		all = append(all, nodes...)
	}
	total = len(all)
	flagged := make(map[string]bool)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if all[i].Product == all[j].Product {
				continue
			}
			if similarity.WeightedSimilarity(all[i], all[j], r.th.Weights) > r.th.Redundancy {
				flagged[all[i].ID] = true
				flagged[all[j].ID] = true
			}
		}
	}
	return len(flagged), total
}

func estimateEffort(codeNodes int, designDivergence float64) Effort {
	switch {
	case codeNodes <= 3 && designDivergence < 30:
		return EffortLow
	case codeNodes <= 10 && designDivergence < 70:
		return EffortMedium
	default:
		return EffortHigh
	}
}

func recommendations(c Candidate, redundant, codeNodes int) []string {
	var recs []string
	products := strings.Join(c.Products, ", ")
	if c.FunctionalOverlap >= 80 {
		recs = append(recs, fmt.Sprintf("Consolidate %q into one shared capability for %s", c.Concept, products))
	} else {
		recs = append(recs, fmt.Sprintf("Agree on a common definition of %q before unifying", c.Concept))
	}
	switch {
	case c.DesignDivergence > 50:
		recs = append(recs, "Align the divergent design elements into a shared design system component")
	case c.DesignDivergence > 0:
		recs = append(recs, "Extract the common design elements into a shared component")
	}
	if redundant > 0 {
		recs = append(recs, fmt.Sprintf("Merge %d redundant code components into a shared library", redundant))
	}
	if codeNodes == 0 {
		recs = append(recs, "No code implementation found; unify at the specification level first")
	}
	if c.EstimatedEffort == EffortHigh {
		recs = append(recs, "Plan a phased migration, one product at a time")
	}
	return recs
}

func candidateID(nodes []ontology.Node) string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(ids, "|"))).String()
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
