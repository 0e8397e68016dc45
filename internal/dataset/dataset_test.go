package dataset

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

func sampleDoc() ontology.Document {
	return ontology.Document{
		Nodes: []ontology.Node{
			{ID: "f1", Layer: ontology.LayerFunctional, Level: "outcomes", Product: "acme", Name: "Manage Account",
				Properties: map[string]any{"priority": 3, "tags": []any{"account", "self-service"}}},
			{ID: "d1", Layer: ontology.LayerDesign, Level: "pages", Product: "acme", Name: "Account page", Description: "settings"},
			{ID: "c1", Layer: ontology.LayerCode, Level: "frontend-components", Product: "bolt", Name: "AccountPage"},
		},
		Edges: []ontology.Edge{
			{ID: "e1", Source: "f1", Target: "d1", Type: ontology.EdgeRealizes, Strength: 0.8},
			{ID: "e2", Source: "d1", Target: "c1", Type: ontology.EdgeImplements},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, name := range []string{"data.json", "data.yaml", "nested/data.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			doc := sampleDoc()
			require.NoError(t, Save(path, doc))

			got, err := Load(path)
			require.NoError(t, err)
			require.Len(t, got.Nodes, 3)
			require.Len(t, got.Edges, 2)
			assert.Equal(t, "Manage Account", got.Nodes[0].Name)
			assert.Equal(t, ontology.LayerDesign, got.Nodes[1].Layer)
			assert.InDelta(t, 0.8, got.Edges[0].Strength, 1e-9)
			assert.Equal(t, ContentHash(doc), ContentHash(got))
		})
	}
}

func TestLoad_UnknownFormat(t *testing.T) {
	_, err := Load("graph.toml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, Save(filepath.Join(t.TempDir(), "x.txt"), sampleDoc()), ErrUnknownFormat)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte("{nodes: ["), FormatJSON)
	assert.Error(t, err)
}

func TestContentHash_IgnoresOrderAndAnnotations(t *testing.T) {
	a := sampleDoc()
	b := sampleDoc()
	b.Nodes[0], b.Nodes[2] = b.Nodes[2], b.Nodes[0]
	b.Edges[0], b.Edges[1] = b.Edges[1], b.Edges[0]
	b.Nodes[1].Inconsistencies = []string{"orphaned"}
	assert.Equal(t, ContentHash(a), ContentHash(b))

	b.Nodes[1].Name = "Profile page"
	assert.NotEqual(t, ContentHash(a), ContentHash(b))
	assert.Len(t, ContentHash(a), 64)
}

func TestBuild(t *testing.T) {
	g, res, err := Build(sampleDoc(), BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Empty(t, res.Skipped)
}

func TestBuild_Dangling(t *testing.T) {
	doc := sampleDoc()
	doc.Edges = append(doc.Edges, ontology.Edge{ID: "ghost", Source: "f1", Target: "nowhere", Type: ontology.EdgeRequires})

	_, _, err := Build(doc, BuildOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNodeNotFound)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	g, res, err := Build(doc, BuildOptions{SkipDangling: true, Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "ghost", res.Skipped[0].EdgeID)
	assert.True(t, res.Skipped[0].MissingSide(store.SideTarget))
	assert.Contains(t, buf.String(), "skipping dangling edge")
}

func TestBuild_InvalidNodeAborts(t *testing.T) {
	doc := sampleDoc()
	doc.Nodes = append(doc.Nodes, ontology.Node{ID: "bad", Layer: "ux", Level: "x", Product: "acme"})
	_, _, err := Build(doc, BuildOptions{SkipDangling: true})
	assert.ErrorIs(t, err, store.ErrInvalidLayer)
}

func TestSnapshotStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	snap, err := s.Put(sampleDoc(), "v1", "data.json")
	require.NoError(t, err)
	assert.Equal(t, ContentHash(sampleDoc()), snap.ID)
	assert.Equal(t, []string{"acme", "bolt"}, snap.Products)
	assert.Equal(t, 3, snap.Nodes)

	again, err := s.Put(sampleDoc(), "", "")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, again.ID)
	assert.Equal(t, "v1", again.Tag)
	assert.Len(t, s.List(), 1)

	changed := sampleDoc()
	changed.Nodes[2].Name = "AccountView"
	second, err := s.Put(changed, "v2", "")
	require.NoError(t, err)
	assert.NotEqual(t, snap.ID, second.ID)

	doc, err := s.Get(snap.ID[:10])
	require.NoError(t, err)
	assert.Equal(t, snap.ID, ContentHash(doc))

	tagged, err := s.FindByTag("v2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, tagged.ID)

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Len(t, reopened.List(), 2)

	require.NoError(t, reopened.Delete(snap.ID))
	assert.Len(t, reopened.List(), 1)
	_, err = reopened.Get(snap.ID)
	assert.Error(t, err)
	_, err = reopened.FindByTag("v1")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	old := sampleDoc()
	updated := sampleDoc()
	updated.Nodes[1].Name = "Profile page"
	updated.Nodes = updated.Nodes[:2]
	updated.Nodes = append(updated.Nodes, ontology.Node{ID: "c2", Layer: ontology.LayerCode, Level: "backend-functions", Product: "bolt"})
	updated.Edges = []ontology.Edge{old.Edges[0]}
	updated.Edges[0].Strength = 0.5

	d := Diff(old, updated)
	assert.False(t, d.Summary.Identical)
	assert.Equal(t, 1, d.Summary.NodesAdded)
	assert.Equal(t, 1, d.Summary.NodesRemoved)
	assert.Equal(t, 1, d.Summary.NodesModified)
	assert.Equal(t, 1, d.Summary.EdgesRemoved)
	assert.Equal(t, 1, d.Summary.EdgesModified)

	var modified ElementDiff
	for _, nd := range d.NodeDiffs {
		if nd.Type == DiffModified {
			modified = nd
		}
	}
	assert.Equal(t, "d1", modified.ID)
	assert.Equal(t, []string{"name"}, modified.Fields)

	out := FormatDiff(d)
	assert.Contains(t, out, "Nodes: +1 -1 ~1")
	assert.Contains(t, out, "~ edge e1 (strength)")

	same := Diff(old, sampleDoc())
	assert.True(t, same.Summary.Identical)
	assert.True(t, strings.Contains(FormatDiff(same), "identical"))
}
