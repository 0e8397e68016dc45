package overlap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

func functional(id, level, product, name string) ontology.Node {
	return ontology.Node{ID: id, Layer: ontology.LayerFunctional, Level: level, Product: product, Name: name}
}

func build(t *testing.T, nodes []ontology.Node, edges []ontology.Edge) *store.Graph {
	t.Helper()
	g := store.New()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}
	return g
}

// accountScenario has three products whose personas share no tokens, whose
// outcomes are all "Manage Account", and whose scenarios are unrelated.
// acme and bolt carry design, architecture and code below their outcome.
func accountScenario(t *testing.T) *store.Graph {
	nodes := []ontology.Node{
		functional("a-per", "persona", "acme", "Customer"),
		functional("b-per", "persona", "bolt", "Client"),
		functional("c-per", "persona", "core", "User"),
		functional("a-out", "outcomes", "acme", "Manage Account"),
		functional("b-out", "outcomes", "bolt", "Manage Account"),
		functional("c-out", "outcomes", "core", "Manage Account"),
		functional("a-scn", "scenarios", "acme", "Reset password via email"),
		functional("b-scn", "scenarios", "bolt", "Upload avatar"),
		functional("c-scn", "scenarios", "core", "Export invoices"),
		{ID: "a-des", Layer: ontology.LayerDesign, Level: "organisms", Product: "acme", Name: "Account page"},
		{ID: "a-arch", Layer: ontology.LayerArchitecture, Level: "services", Product: "acme", Name: "Account service"},
		{ID: "a-code", Layer: ontology.LayerCode, Level: "frontend-components", Product: "acme", Name: "AccountPage"},
		{ID: "b-code", Layer: ontology.LayerCode, Level: "backend-functions", Product: "bolt", Name: "updateAccount"},
	}
	edges := []ontology.Edge{
		{ID: "e1", Source: "a-out", Target: "a-des", Type: ontology.EdgeRealizes},
		{ID: "e2", Source: "a-des", Target: "a-code", Type: ontology.EdgeImplements},
		{ID: "e3", Source: "a-arch", Target: "a-code", Type: ontology.EdgeManages},
		{ID: "e4", Source: "b-out", Target: "b-code", Type: ontology.EdgeImplements},
		{ID: "e5", Source: "a-per", Target: "a-out", Type: ontology.EdgeTriggers},
	}
	return build(t, nodes, edges)
}

func TestFunctionalOverlapBoundary_AccountScenario(t *testing.T) {
	a := NewAnalyzer(accountScenario(t), DefaultThresholds())
	res := a.FunctionalOverlapBoundary()

	assert.Equal(t, []string{"acme", "bolt", "core"}, res.Products)
	assert.Equal(t, "outcomes", res.DeepestOverlapLevel)
	assert.Equal(t, "scenarios", res.DivergencePoint)
	assert.Equal(t, []string{"outcomes"}, res.OverlapLevels)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, "outcomes", m.Level)
	assert.InDelta(t, 1.0, m.Score, 1e-9)
	assert.Equal(t, []string{"a-out", "b-out", "c-out"}, ids(m.Nodes))

	require.NotNil(t, res.Divergence)
	assert.Empty(t, res.Divergence.Missing)
	assert.Contains(t, res.Divergence.Reason, "different implementation approaches")
	assert.Len(t, res.Divergence.NodesByProduct, 3)
}

func TestBoundary_AccumulatesAcrossLevels(t *testing.T) {
	nodes := []ontology.Node{
		functional("a1", "persona", "acme", "Shopper"),
		functional("b1", "persona", "bolt", "Shopper"),
		functional("c1", "persona", "core", "Shopper"),
		functional("a2", "outcomes", "acme", "Manage Account"),
		functional("b2", "outcomes", "bolt", "Manage Account"),
		functional("c2", "outcomes", "core", "Manage Account"),
		functional("a3", "scenarios", "acme", "Reset password"),
		functional("b3", "scenarios", "bolt", "Reset password"),
		functional("a4", "steps", "acme", "Open settings"),
		functional("b4", "steps", "bolt", "Open settings"),
		functional("c4", "steps", "core", "Open settings"),
	}
	res := NewAnalyzer(build(t, nodes, nil), DefaultThresholds()).FunctionalOverlapBoundary()

	assert.Equal(t, "outcomes", res.DeepestOverlapLevel)
	assert.Equal(t, "scenarios", res.DivergencePoint)
	assert.Equal(t, []string{"a1", "b1", "c1", "a2", "b2", "c2"}, ids(res.OverlappingNodes))
	require.NotNil(t, res.Divergence)
	assert.Equal(t, []string{"core"}, res.Divergence.Missing)
	assert.Equal(t, "product core has no scenarios", res.Divergence.Reason)
	// scanning stops at the divergence point
	assert.NotContains(t, res.OverlapLevels, "steps")
}

func TestBoundary_SkipsLevelsBeforeFirstOverlap(t *testing.T) {
	nodes := []ontology.Node{
		functional("a1", "persona", "acme", "Shopper"),
		functional("a2", "outcomes", "acme", "Checkout"),
		functional("b2", "outcomes", "bolt", "Checkout"),
	}
	res := NewAnalyzer(build(t, nodes, nil), DefaultThresholds()).FunctionalOverlapBoundary()
	assert.Equal(t, "outcomes", res.DeepestOverlapLevel)
	assert.Equal(t, "scenarios", res.DivergencePoint)
	assert.Equal(t, []string{"acme", "bolt"}, res.Divergence.Missing)
	assert.Equal(t, "products acme, bolt have no scenarios", res.Divergence.Reason)
}

func TestBoundary_NoOverlap(t *testing.T) {
	nodes := []ontology.Node{
		functional("a1", "persona", "acme", "Customer"),
		functional("b1", "persona", "bolt", "Client"),
	}
	res := NewAnalyzer(build(t, nodes, nil), DefaultThresholds()).FunctionalOverlapBoundary()
	assert.Empty(t, res.DeepestOverlapLevel)
	assert.Empty(t, res.DivergencePoint)
	assert.Nil(t, res.Divergence)
	assert.Empty(t, res.OverlappingNodes)
}

func TestBoundary_SingleProductNeverMatches(t *testing.T) {
	nodes := []ontology.Node{
		functional("a1", "persona", "acme", "Shopper"),
		functional("a2", "persona", "acme", "Shopper"),
	}
	res := NewAnalyzer(build(t, nodes, nil), DefaultThresholds()).FunctionalOverlapBoundary()
	assert.Empty(t, res.Matches)
}

func TestProjectImpact(t *testing.T) {
	g := accountScenario(t)
	a := NewAnalyzer(g, DefaultThresholds())
	seeds := a.FunctionalOverlapBoundary().OverlappingNodes
	seeds = append(seeds, seeds[0])

	imp := a.ProjectImpact(seeds)
	assert.ElementsMatch(t, []string{"a-code", "b-code"}, ids(imp.CodeNodes))
	assert.Equal(t, []string{"a-code"}, ids(imp.CodeByProduct["acme"]["frontend-components"]))
	assert.Equal(t, []string{"b-code"}, ids(imp.CodeByProduct["bolt"]["backend-functions"]))
	assert.NotContains(t, imp.CodeByProduct, "core")
	assert.ElementsMatch(t, []string{"a-des", "a-arch"}, ids(imp.Ancestors))
}

func TestAnalyzeOverlap(t *testing.T) {
	a := NewAnalyzer(accountScenario(t), DefaultThresholds())
	res := a.AnalyzeOverlap(ontology.LayerFunctional)

	assert.ElementsMatch(t, []string{"a-out", "b-out", "c-out"}, ids(res.OverlappingNodes))
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "outcomes", res.Groups[0].Level)
	assert.Equal(t, []string{"acme", "bolt", "core"}, res.Groups[0].Products)
	assert.InDelta(t, 100.0/3.0, res.OverlapPercentage, 1e-9)
	assert.ElementsMatch(t, []string{"a-per", "a-scn"}, ids(res.UniqueNodesByProduct["acme"]))
}

func TestAnalyzeOverlap_Empty(t *testing.T) {
	res := NewAnalyzer(store.New(), DefaultThresholds()).AnalyzeOverlap("")
	assert.Zero(t, res.OverlapPercentage)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Patterns)
}

func TestFindRedundancies(t *testing.T) {
	props := map[string]any{"file": "x.tsx", "framework": "react"}
	nodes := []ontology.Node{
		{ID: "x", Layer: ontology.LayerCode, Level: "frontend-components", Product: "acme", Name: "LoginForm", Properties: props},
		{ID: "y", Layer: ontology.LayerCode, Level: "frontend-components", Product: "bolt", Name: "loginform", Properties: props},
		{ID: "z", Layer: ontology.LayerCode, Level: "frontend-components", Product: "bolt", Name: "LoginForm"},
		{ID: "w", Layer: ontology.LayerDesign, Level: "organisms", Product: "acme", Name: "LoginForm", Properties: props},
	}
	a := NewAnalyzer(build(t, nodes, nil), DefaultThresholds())

	got := a.FindRedundancies(ontology.LayerCode)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].A.ID)
	assert.Equal(t, "y", got[0].B.ID)
	assert.True(t, got[0].CrossProduct)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)

	// cross-layer pairs never qualify
	assert.Len(t, a.FindRedundancies(""), 1)
}

func ids(nodes []ontology.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
