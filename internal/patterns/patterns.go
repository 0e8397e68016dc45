// Package patterns extracts structural facts from the ontology graph:
// recurring neighborhood shapes across products, graph-wide complexity
// metrics, structural inconsistencies and gap-filling edge suggestions.
package patterns

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
	"github.com/efebarandurmaz/ontograph/internal/traversal"
)

// DefaultNeighborhoodHops is the radius of a node's local neighborhood.
const DefaultNeighborhoodHops = 2

// Pattern is a neighborhood shape shared by several subgraphs.
type Pattern struct {
	// Type is a short stable identifier derived from the signature.
	Type      string          `json:"type"`
	Signature string          `json:"signature"`
	Roots     []string        `json:"roots"`
	Nodes     []ontology.Node `json:"nodes"`
	Edges     []ontology.Edge `json:"edges"`
	Frequency int             `json:"frequency"`
	Products  []string        `json:"products"`
}

// Subgraph is a node's local neighborhood.
type Subgraph struct {
	Root  string
	Nodes []ontology.Node
	Edges []ontology.Edge
}

// Extractor runs the structural analyses over one store.
type Extractor struct {
	g    *store.Graph
	hops int
}

// NewExtractor returns an Extractor with the default neighborhood radius.
func NewExtractor(g *store.Graph) *Extractor {
	return &Extractor{g: g, hops: DefaultNeighborhoodHops}
}

// WithHops returns a copy using a different neighborhood radius.
func (x *Extractor) WithHops(hops int) *Extractor {
	if hops < 1 {
		hops = 1
	}
	return &Extractor{g: x.g, hops: hops}
}

// Neighborhood returns the subgraph within the configured radius of id,
// following edges in both directions, with every edge among its members.
func (x *Extractor) Neighborhood(id string) Subgraph {
	members := traversal.Traverse(x.g, id,
		traversal.WithDirection(traversal.Both),
		traversal.WithMaxDepth(x.hops))
	in := make(map[string]bool, len(members))
	for _, n := range members {
		in[n.ID] = true
	}
	sub := Subgraph{Root: id, Nodes: members}
	for _, n := range members {
		for _, next := range x.g.Successors(n.ID) {
			if in[next] {
				sub.Edges = append(sub.Edges, x.g.EdgesBetween(n.ID, next)...)
			}
		}
	}
	return sub
}

// Signature canonicalizes a subgraph: the sorted "layer:level" tokens of its
// members, then the sorted edge types among them.
func Signature(sub Subgraph) string {
	tokens := make([]string, len(sub.Nodes))
	for i, n := range sub.Nodes {
		tokens[i] = n.LevelKey()
	}
	sort.Strings(tokens)
	types := make([]string, len(sub.Edges))
	for i, e := range sub.Edges {
		types[i] = string(e.Type)
	}
	sort.Strings(types)
	return strings.Join(tokens, ",") + "|" + strings.Join(types, ",")
}

func patternType(signature string) string {
	h := sha256.Sum256([]byte(signature))
	return "pattern-" + hex.EncodeToString(h[:])[:12]
}

// CrossProductPatterns groups every node's neighborhood by signature and
// keeps the groups whose roots span more than one product, most frequent first.
func (x *Extractor) CrossProductPatterns() []Pattern {
	type group struct {
		pattern  *Pattern
		nodes    map[string]bool
		edges    map[string]bool
		products map[string]bool
	}
	groups := make(map[string]*group)
	var order []string

	for _, root := range x.g.Nodes() {
		sub := x.Neighborhood(root.ID)
		sig := Signature(sub)
		gr, ok := groups[sig]
		if !ok {
			gr = &group{
				pattern:  &Pattern{Type: patternType(sig), Signature: sig},
				nodes:    make(map[string]bool),
				edges:    make(map[string]bool),
				products: make(map[string]bool),
			}
			groups[sig] = gr
			order = append(order, sig)
		}
		gr.pattern.Frequency++
		gr.pattern.Roots = append(gr.pattern.Roots, root.ID)
		gr.products[root.Product] = true
		for _, n := range sub.Nodes {
			if !gr.nodes[n.ID] {
				gr.nodes[n.ID] = true
				gr.pattern.Nodes = append(gr.pattern.Nodes, n)
			}
		}
		for _, e := range sub.Edges {
			if !gr.edges[e.ID] {
				gr.edges[e.ID] = true
				gr.pattern.Edges = append(gr.pattern.Edges, e)
			}
		}
	}

	var out []Pattern
	for _, sig := range order {
		gr := groups[sig]
		if len(gr.products) < 2 {
			continue
		}
		for p := range gr.products {
			gr.pattern.Products = append(gr.pattern.Products, p)
		}
		sort.Strings(gr.pattern.Products)
		out = append(out, *gr.pattern)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Signature < out[j].Signature
	})
	return out
}
