// Package store holds the ontology graph: nodes and edges in an arena
// addressed by integer handles, plus the secondary indices the analyzers
// query (layer, product, level, edge type, forward and reverse adjacency).
//
// # Lifecycle
//
// A Graph is built by a single owner (AddNode then AddEdge), optionally
// frozen with Freeze, and then queried. A frozen graph is read-only and may
// be shared across goroutines. Mutation of an unfrozen graph must be
// confined to one goroutine.
//
// Index bookkeeping lives beside the records, never inside them, so the
// node and edge values handed out by accessors carry no internal state.
package store

import (
	"fmt"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

// handle addresses a slot in the node or edge arena. Handles are never reused;
// removal tombstones the slot.
type handle int

type pair struct {
	src, dst handle
}

// Graph is the multi-index ontology graph store.
type Graph struct {
	frozen bool

	// node arena
	nodes     []ontology.Node
	nodeAlive []bool
	nodeByID  map[string]handle

	// edge arena
	edges     []ontology.Edge
	edgeAlive []bool
	edgeEnds  []pair
	edgeByID  map[string]handle

	// adjacency, indexed by node handle; entries are unique, insertion ordered
	out [][]handle
	in  [][]handle

	// degree counters, indexed by node handle; count edges, not neighbors
	outDegree []int
	inDegree  []int

	// secondary indices
	byLayer   map[ontology.Layer][]handle
	byProduct map[string][]handle
	byLevel   map[string][]handle
	byType    map[ontology.EdgeType][]handle
	between   map[pair][]handle

	liveNodes int
	liveEdges int
}

// New returns an empty store.
func New() *Graph {
	return &Graph{
		nodeByID:  make(map[string]handle),
		edgeByID:  make(map[string]handle),
		byLayer:   make(map[ontology.Layer][]handle),
		byProduct: make(map[string][]handle),
		byLevel:   make(map[string][]handle),
		byType:    make(map[ontology.EdgeType][]handle),
		between:   make(map[pair][]handle),
	}
}

// Freeze makes the graph read-only. Subsequent mutations return ErrGraphFrozen.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether Freeze has been called.
func (g *Graph) Frozen() bool { return g.frozen }

// AddNode inserts n or replaces the node with the same ID (last write wins).
// Replacement keeps the node's edges and moves it between index buckets when
// its layer, product or level changed.
func (g *Graph) AddNode(n ontology.Node) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if n.ID == "" {
		return fmt.Errorf("add node: %w", ErrEmptyID)
	}
	if !n.Layer.Valid() {
		return fmt.Errorf("add node %q: %w: %q", n.ID, ErrInvalidLayer, n.Layer)
	}

	if h, ok := g.nodeByID[n.ID]; ok {
		old := g.nodes[h]
		if old.Layer != n.Layer {
			g.byLayer[old.Layer] = removeHandle(g.byLayer[old.Layer], h)
			g.byLayer[n.Layer] = append(g.byLayer[n.Layer], h)
		}
		if old.Product != n.Product {
			g.byProduct[old.Product] = removeHandle(g.byProduct[old.Product], h)
			g.byProduct[n.Product] = append(g.byProduct[n.Product], h)
		}
		if old.Level != n.Level {
			g.byLevel[old.Level] = removeHandle(g.byLevel[old.Level], h)
			g.byLevel[n.Level] = append(g.byLevel[n.Level], h)
		}
		g.nodes[h] = n
		return nil
	}

	h := handle(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.nodeAlive = append(g.nodeAlive, true)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.outDegree = append(g.outDegree, 0)
	g.inDegree = append(g.inDegree, 0)
	g.nodeByID[n.ID] = h
	g.byLayer[n.Layer] = append(g.byLayer[n.Layer], h)
	g.byProduct[n.Product] = append(g.byProduct[n.Product], h)
	g.byLevel[n.Level] = append(g.byLevel[n.Level], h)
	g.liveNodes++
	return nil
}

// AddEdge inserts e or replaces the edge with the same ID. Both endpoints must
// already exist; otherwise a *DanglingReferenceError is returned and nothing
// changes.
func (g *Graph) AddEdge(e ontology.Edge) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if e.ID == "" {
		return fmt.Errorf("add edge: %w", ErrEmptyID)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("add edge %q: %w: %q", e.ID, ErrInvalidEdgeType, e.Type)
	}

	src, srcOK := g.nodeByID[e.Source]
	dst, dstOK := g.nodeByID[e.Target]
	if !srcOK || !dstOK {
		derr := &DanglingReferenceError{EdgeID: e.ID}
		if !srcOK {
			derr.Missing = append(derr.Missing, SideSource)
			derr.NodeIDs = append(derr.NodeIDs, e.Source)
		}
		if !dstOK {
			derr.Missing = append(derr.Missing, SideTarget)
			derr.NodeIDs = append(derr.NodeIDs, e.Target)
		}
		return derr
	}

	if h, ok := g.edgeByID[e.ID]; ok {
		g.detachEdge(h)
		g.edges[h] = e
		g.edgeEnds[h] = pair{src, dst}
		g.attachEdge(h)
		return nil
	}

	h := handle(len(g.edges))
	g.edges = append(g.edges, e)
	g.edgeAlive = append(g.edgeAlive, true)
	g.edgeEnds = append(g.edgeEnds, pair{src, dst})
	g.edgeByID[e.ID] = h
	g.attachEdge(h)
	g.liveEdges++
	return nil
}

// RemoveEdge deletes the edge with the given ID.
func (g *Graph) RemoveEdge(id string) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	h, ok := g.edgeByID[id]
	if !ok {
		return fmt.Errorf("remove edge %q: %w", id, ErrEdgeNotFound)
	}
	g.detachEdge(h)
	delete(g.edgeByID, id)
	g.edgeAlive[h] = false
	g.edges[h] = ontology.Edge{}
	g.liveEdges--
	return nil
}

// RemoveNode deletes the node and every edge incident to it.
func (g *Graph) RemoveNode(id string) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	h, ok := g.nodeByID[id]
	if !ok {
		return fmt.Errorf("remove node %q: %w", id, ErrNodeNotFound)
	}

	var incident []handle
	for _, t := range g.out[h] {
		incident = append(incident, g.between[pair{h, t}]...)
	}
	for _, s := range g.in[h] {
		if s == h {
			continue // self-loop already collected from out
		}
		incident = append(incident, g.between[pair{s, h}]...)
	}
	for _, eh := range incident {
		if err := g.RemoveEdge(g.edges[eh].ID); err != nil {
			return err
		}
	}

	n := g.nodes[h]
	g.byLayer[n.Layer] = removeHandle(g.byLayer[n.Layer], h)
	g.byProduct[n.Product] = removeHandle(g.byProduct[n.Product], h)
	g.byLevel[n.Level] = removeHandle(g.byLevel[n.Level], h)
	delete(g.nodeByID, id)
	g.nodeAlive[h] = false
	g.nodes[h] = ontology.Node{}
	g.out[h], g.in[h] = nil, nil
	g.liveNodes--
	return nil
}

func (g *Graph) attachEdge(h handle) {
	e := g.edges[h]
	p := g.edgeEnds[h]
	if len(g.between[p]) == 0 {
		g.out[p.src] = append(g.out[p.src], p.dst)
		g.in[p.dst] = append(g.in[p.dst], p.src)
	}
	g.between[p] = append(g.between[p], h)
	g.byType[e.Type] = append(g.byType[e.Type], h)
	g.outDegree[p.src]++
	g.inDegree[p.dst]++
}

func (g *Graph) detachEdge(h handle) {
	e := g.edges[h]
	p := g.edgeEnds[h]
	g.between[p] = removeHandle(g.between[p], h)
	if len(g.between[p]) == 0 {
		delete(g.between, p)
		g.out[p.src] = removeHandle(g.out[p.src], p.dst)
		g.in[p.dst] = removeHandle(g.in[p.dst], p.src)
	}
	g.byType[e.Type] = removeHandle(g.byType[e.Type], h)
	g.outDegree[p.src]--
	g.inDegree[p.dst]--
}

func removeHandle(hs []handle, h handle) []handle {
	for i, x := range hs {
		if x == h {
			return append(hs[:i:i], hs[i+1:]...)
		}
	}
	return hs
}
