// Package traversal walks the ontology store breadth-first with direction,
// depth and filter controls, and finds unweighted shortest paths annotated
// with how often they cross between ontology layers.
package traversal

import (
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// Direction selects which adjacency a walk follows.
type Direction int

const (
	Forward Direction = iota
	Backward
	Both
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Unlimited disables the depth bound.
const Unlimited = -1

// Options configures Traverse.
type Options struct {
	Direction Direction

	// MaxDepth bounds expansion. Nodes at MaxDepth are emitted but not
	// expanded. Unlimited (or any negative value) walks the whole component.
	MaxDepth int

	// EdgeFilter, when set, restricts which edges may be followed. With
	// parallel edges a neighbor is reachable if any connecting edge passes.
	EdgeFilter func(ontology.Edge) bool

	// NodeFilter, when set, restricts which visited nodes are emitted. It
	// does not stop the walk from passing through non-matching nodes.
	NodeFilter func(ontology.Node) bool
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions walks forward with no depth bound and no filters.
func DefaultOptions() Options {
	return Options{Direction: Forward, MaxDepth: Unlimited}
}

// WithDirection sets the walk direction.
func WithDirection(d Direction) Option {
	return func(o *Options) { o.Direction = d }
}

// WithMaxDepth bounds the walk; negative means Unlimited.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth < 0 {
			depth = Unlimited
		}
		o.MaxDepth = depth
	}
}

// WithEdgeFilter restricts traversable edges.
func WithEdgeFilter(f func(ontology.Edge) bool) Option {
	return func(o *Options) { o.EdgeFilter = f }
}

// WithNodeFilter restricts emitted nodes.
func WithNodeFilter(f func(ontology.Node) bool) Option {
	return func(o *Options) { o.NodeFilter = f }
}

// InLayer is a NodeFilter accepting nodes of one layer.
func InLayer(l ontology.Layer) func(ontology.Node) bool {
	return func(n ontology.Node) bool { return n.Layer == l }
}

type queueItem struct {
	id    string
	depth int
}

// Traverse walks g breadth-first from startID. Each node is visited once, at
// the first depth it is reached. The start node is always visited and is
// emitted when it passes the node filter. An unknown start yields nil.
//
// Panics raised by caller-supplied filters propagate to the caller.
func Traverse(g *store.Graph, startID string, opts ...Option) []ontology.Node {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !g.HasNode(startID) {
		return nil
	}

	visited := map[string]bool{startID: true}
	queue := []queueItem{{id: startID}}
	var result []ontology.Node

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		n, _ := g.Node(item.id)
		if o.NodeFilter == nil || o.NodeFilter(n) {
			result = append(result, n)
		}
		if o.MaxDepth != Unlimited && item.depth >= o.MaxDepth {
			continue
		}
		for _, next := range neighbors(g, item.id, o.Direction, o.EdgeFilter) {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, queueItem{id: next, depth: item.depth + 1})
		}
	}
	return result
}

// Neighbors returns the adjacent node IDs of id in the given direction.
// For Both, forward neighbors come first and duplicates are dropped.
func Neighbors(g *store.Graph, id string, d Direction) []string {
	return neighbors(g, id, d, nil)
}

func neighbors(g *store.Graph, id string, d Direction, filter func(ontology.Edge) bool) []string {
	var out []string
	if d == Forward || d == Both {
		for _, next := range g.Successors(id) {
			if filter == nil || anyEdge(g.EdgesBetween(id, next), filter) {
				out = append(out, next)
			}
		}
	}
	if d == Backward || d == Both {
		for _, prev := range g.Predecessors(id) {
			if d == Both && contains(out, prev) {
				continue
			}
			if filter == nil || anyEdge(g.EdgesBetween(prev, id), filter) {
				out = append(out, prev)
			}
		}
	}
	return out
}

func anyEdge(edges []ontology.Edge, filter func(ontology.Edge) bool) bool {
	for _, e := range edges {
		if filter(e) {
			return true
		}
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
