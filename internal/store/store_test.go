package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

func node(id string, layer ontology.Layer, level, product string) ontology.Node {
	return ontology.Node{ID: id, Layer: layer, Level: level, Product: product, Name: id}
}

func edge(id, src, dst string) ontology.Edge {
	return ontology.Edge{ID: id, Source: src, Target: dst, Type: ontology.EdgeImplements, Strength: 0.5}
}

func buildGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	nodes := []ontology.Node{
		node("f1", ontology.LayerFunctional, "persona", "alpha"),
		node("f2", ontology.LayerFunctional, "outcomes", "alpha"),
		node("d1", ontology.LayerDesign, "atoms", "alpha"),
		node("c1", ontology.LayerCode, "frontend-components", "beta"),
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("add node %s: %v", n.ID, err)
		}
	}
	for _, e := range []ontology.Edge{edge("e1", "f1", "f2"), edge("e2", "f2", "d1"), edge("e3", "d1", "c1")} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("add edge %s: %v", e.ID, err)
		}
	}
	return g
}

func ids(nodes []ontology.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestAddNode_Indices(t *testing.T) {
	g := buildGraph(t)

	if got := ids(g.NodesByLayer(ontology.LayerFunctional)); !reflect.DeepEqual(got, []string{"f1", "f2"}) {
		t.Errorf("expected functional [f1 f2], got %v", got)
	}
	if got := ids(g.NodesByProduct("alpha")); !reflect.DeepEqual(got, []string{"f1", "f2", "d1"}) {
		t.Errorf("expected alpha [f1 f2 d1], got %v", got)
	}
	if got := ids(g.NodesByLevel("atoms")); !reflect.DeepEqual(got, []string{"d1"}) {
		t.Errorf("expected atoms [d1], got %v", got)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 3 {
		t.Errorf("expected 4 nodes 3 edges, got %d %d", g.NodeCount(), g.EdgeCount())
	}
	if got := g.Products(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("expected products [alpha beta], got %v", got)
	}
}

func TestAddNode_Validation(t *testing.T) {
	g := New()
	if err := g.AddNode(ontology.Node{Layer: ontology.LayerCode}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
	if err := g.AddNode(ontology.Node{ID: "x", Layer: "ux"}); !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("expected ErrInvalidLayer, got %v", err)
	}
}

func TestAddNode_OverwriteMovesBuckets(t *testing.T) {
	g := buildGraph(t)
	moved := node("f1", ontology.LayerDesign, "molecules", "gamma")
	if err := g.AddNode(moved); err != nil {
		t.Fatal(err)
	}

	if g.NodeCount() != 4 {
		t.Errorf("overwrite must not duplicate, got %d nodes", g.NodeCount())
	}
	if got := ids(g.NodesByLayer(ontology.LayerFunctional)); !reflect.DeepEqual(got, []string{"f2"}) {
		t.Errorf("expected functional [f2], got %v", got)
	}
	if got := ids(g.NodesByLayer(ontology.LayerDesign)); !reflect.DeepEqual(got, []string{"d1", "f1"}) {
		t.Errorf("expected design [d1 f1], got %v", got)
	}
	if len(g.NodesByLevel("persona")) != 0 {
		t.Error("expected persona bucket to be empty")
	}
	if got := ids(g.NodesByProduct("gamma")); !reflect.DeepEqual(got, []string{"f1"}) {
		t.Errorf("expected gamma [f1], got %v", got)
	}
	// adjacency survives overwrite
	if got := g.Successors("f1"); !reflect.DeepEqual(got, []string{"f2"}) {
		t.Errorf("expected successors [f2], got %v", got)
	}
}

func TestAddEdge_Adjacency(t *testing.T) {
	g := buildGraph(t)

	if got := g.Successors("f2"); !reflect.DeepEqual(got, []string{"d1"}) {
		t.Errorf("expected successors [d1], got %v", got)
	}
	if got := g.Predecessors("f2"); !reflect.DeepEqual(got, []string{"f1"}) {
		t.Errorf("expected predecessors [f1], got %v", got)
	}
	in, out := g.Degree("f2")
	if in != 1 || out != 1 {
		t.Errorf("expected degree 1/1, got %d/%d", in, out)
	}
	if len(g.EdgesByType(ontology.EdgeImplements)) != 3 {
		t.Errorf("expected 3 implements edges, got %d", len(g.EdgesByType(ontology.EdgeImplements)))
	}
}

func TestAddEdge_ParallelEdges(t *testing.T) {
	g := buildGraph(t)
	parallel := ontology.Edge{ID: "e4", Source: "f1", Target: "f2", Type: ontology.EdgeTriggers}
	if err := g.AddEdge(parallel); err != nil {
		t.Fatal(err)
	}
	if got := g.Successors("f1"); len(got) != 1 {
		t.Errorf("adjacency is a set, expected 1 successor, got %v", got)
	}
	if _, out := g.Degree("f1"); out != 2 {
		t.Errorf("expected out degree 2, got %d", out)
	}
	if len(g.EdgesBetween("f1", "f2")) != 2 {
		t.Errorf("expected 2 edges between f1 and f2")
	}

	if err := g.RemoveEdge("e1"); err != nil {
		t.Fatal(err)
	}
	if got := g.Successors("f1"); len(got) != 1 {
		t.Errorf("remaining parallel edge keeps adjacency, got %v", got)
	}
	if err := g.RemoveEdge("e4"); err != nil {
		t.Fatal(err)
	}
	if got := g.Successors("f1"); len(got) != 0 {
		t.Errorf("expected no successors, got %v", got)
	}
}

func TestAddEdge_Dangling(t *testing.T) {
	g := buildGraph(t)
	err := g.AddEdge(edge("bad", "f1", "ghost"))

	var derr *DanglingReferenceError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
	if derr.EdgeID != "bad" || !derr.MissingSide(SideTarget) || derr.MissingSide(SideSource) {
		t.Errorf("unexpected error detail: %+v", derr)
	}
	if !errors.Is(err, ErrNodeNotFound) {
		t.Error("expected errors.Is ErrNodeNotFound")
	}
	if g.EdgeCount() != 3 || g.HasNode("ghost") {
		t.Error("dangling edge must not change the store")
	}

	err = g.AddEdge(edge("worse", "nope", "ghost"))
	if !errors.As(err, &derr) || len(derr.Missing) != 2 {
		t.Errorf("expected both sides missing, got %v", err)
	}
}

func TestAddEdge_OverwriteRewires(t *testing.T) {
	g := buildGraph(t)
	if err := g.AddEdge(ontology.Edge{ID: "e1", Source: "f1", Target: "c1", Type: ontology.EdgeRealizes}); err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("expected 3 edges, got %d", g.EdgeCount())
	}
	if got := g.Successors("f1"); !reflect.DeepEqual(got, []string{"c1"}) {
		t.Errorf("expected successors [c1], got %v", got)
	}
	if got := g.Predecessors("f2"); len(got) != 0 {
		t.Errorf("expected no predecessors of f2, got %v", got)
	}
	if len(g.EdgesByType(ontology.EdgeImplements)) != 2 || len(g.EdgesByType(ontology.EdgeRealizes)) != 1 {
		t.Error("edge type index not updated on overwrite")
	}
}

func TestRemoveNode_Cascades(t *testing.T) {
	g := buildGraph(t)
	if err := g.AddEdge(edge("loop", "f2", "f2")); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveNode("f2"); err != nil {
		t.Fatal(err)
	}
	if g.HasNode("f2") {
		t.Error("expected f2 removed")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected only e3 to remain, got %d edges", g.EdgeCount())
	}
	if got := g.Successors("f1"); len(got) != 0 {
		t.Errorf("expected f1 successors cleared, got %v", got)
	}
	if _, out := g.Degree("f1"); out != 0 {
		t.Errorf("expected f1 out degree 0, got %d", out)
	}
	if len(g.NodesByLevel("outcomes")) != 0 {
		t.Error("expected outcomes bucket empty")
	}
	if err := g.RemoveNode("f2"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestFreeze(t *testing.T) {
	g := buildGraph(t)
	g.Freeze()
	if err := g.AddNode(node("x", ontology.LayerCode, "frontend-functions", "alpha")); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("expected ErrGraphFrozen, got %v", err)
	}
	if err := g.AddEdge(edge("x", "f1", "c1")); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("expected ErrGraphFrozen, got %v", err)
	}
	if g.Clone().Frozen() {
		t.Error("clone must not be frozen")
	}
}

func TestFindNode(t *testing.T) {
	g := buildGraph(t)
	n, ok := g.FindNode(func(n ontology.Node) bool { return n.Layer == ontology.LayerFunctional })
	if !ok || n.ID != "f1" {
		t.Errorf("expected first functional node f1, got %v %v", n.ID, ok)
	}
	all := g.FindNodes(func(n ontology.Node) bool { return n.Product == "alpha" })
	if len(all) != 3 {
		t.Errorf("expected 3 alpha nodes, got %d", len(all))
	}
	if _, ok := g.FindNode(func(ontology.Node) bool { return false }); ok {
		t.Error("expected no match")
	}
}

func TestClone_NoAliasing(t *testing.T) {
	g := buildGraph(t)
	n, _ := g.Node("f1")
	n.Properties = map[string]any{"k": "v"}
	if err := g.AddNode(n); err != nil {
		t.Fatal(err)
	}

	c := g.Clone()
	cn, _ := c.Node("f1")
	cn.Properties["k"] = "changed"
	if err := c.AddEdge(edge("e9", "c1", "f1")); err != nil {
		t.Fatal(err)
	}

	orig, _ := g.Node("f1")
	if orig.Properties["k"] != "v" {
		t.Error("clone shares property maps with original")
	}
	if g.EdgeCount() != 3 {
		t.Error("clone mutation leaked into original")
	}
}

func TestInterchange_RoundTrip(t *testing.T) {
	g := buildGraph(t)
	if err := g.AddEdge(ontology.Edge{ID: "e4", Source: "f1", Target: "f2", Type: ontology.EdgeTriggers}); err != nil {
		t.Fatal(err)
	}
	doc := g.ToInterchange()
	back, err := FromInterchange(doc)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(ids(back.Nodes()), ids(g.Nodes())) {
		t.Errorf("node ids differ: %v vs %v", ids(back.Nodes()), ids(g.Nodes()))
	}
	if !reflect.DeepEqual(back.Edges(), g.Edges()) {
		t.Error("edges differ after round trip")
	}
	for _, n := range g.Nodes() {
		if !reflect.DeepEqual(back.Successors(n.ID), g.Successors(n.ID)) {
			t.Errorf("successors of %s differ", n.ID)
		}
		if !reflect.DeepEqual(back.Predecessors(n.ID), g.Predecessors(n.ID)) {
			t.Errorf("predecessors of %s differ", n.ID)
		}
	}
}

func TestFromInterchange_Dangling(t *testing.T) {
	doc := ontology.Document{
		Nodes: []ontology.Node{node("a", ontology.LayerCode, "backend-functions", "alpha")},
		Edges: []ontology.Edge{edge("e", "a", "b")},
	}
	_, err := FromInterchange(doc)
	var derr *DanglingReferenceError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
}

func TestLayersAndStats(t *testing.T) {
	g := buildGraph(t)
	want := []ontology.Layer{ontology.LayerFunctional, ontology.LayerDesign, ontology.LayerCode}
	if got := g.Layers(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected layers %v, got %v", want, got)
	}

	s := g.Stats()
	if s.Nodes != 4 || s.Edges != 3 || s.Products != 2 {
		t.Errorf("expected 4 nodes, 3 edges, 2 products, got %+v", s)
	}
	if s.NodesByLayer[ontology.LayerFunctional] != 2 {
		t.Errorf("expected 2 functional nodes, got %d", s.NodesByLayer[ontology.LayerFunctional])
	}
	if s.EdgesByType[ontology.EdgeImplements] != 3 {
		t.Errorf("expected 3 implements edges, got %d", s.EdgesByType[ontology.EdgeImplements])
	}
	if _, ok := s.NodesByLayer[ontology.LayerArchitecture]; ok {
		t.Error("empty layer must not be counted")
	}
}
