package store

import (
	"fmt"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

// Clone returns a deep copy with freshly built indices. The clone is never
// frozen and shares no maps, slices or property values with g.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, n := range g.Nodes() {
		// Nodes from a valid store always re-insert cleanly.
		_ = c.AddNode(n.Clone())
	}
	for _, e := range g.Edges() {
		_ = c.AddEdge(e)
	}
	return c
}

// ToInterchange returns the plain nodes+edges form, in insertion order.
// Index bookkeeping does not appear in it.
func (g *Graph) ToInterchange() ontology.Document {
	doc := ontology.Document{
		Nodes: make([]ontology.Node, 0, g.liveNodes),
		Edges: g.Edges(),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, n.Clone())
	}
	return doc
}

// FromInterchange builds a store from doc, inserting nodes before edges.
// The first invalid node or edge aborts the load; callers wanting
// skip-and-continue insert edges themselves and inspect each error.
func FromInterchange(doc ontology.Document) (*Graph, error) {
	g := New()
	for _, n := range doc.Nodes {
		if err := g.AddNode(n.Clone()); err != nil {
			return nil, fmt.Errorf("from interchange: %w", err)
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("from interchange: %w", err)
		}
	}
	return g, nil
}
