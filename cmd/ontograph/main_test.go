package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ontograph/internal/store"
)

const fixture = "testdata/accounts.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	out, err := run(t, "analyze", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "ONTOGRAPH ANALYSIS REPORT")
	assert.Contains(t, out, "Deepest:      outcomes")
}

func TestAnalyze_JSONAndMetricsFile(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "ontograph.prom")
	out, err := run(t, "analyze", fixture, "--json", "--metrics-file", metrics)
	require.NoError(t, err)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Contains(t, rep, "candidates")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ontograph_graph_nodes 12")
}

func TestAnalyze_Audit(t *testing.T) {
	audit := filepath.Join(t.TempDir(), "audit.jsonl")
	_, err := run(t, "--audit", audit, "analyze", fixture)
	require.NoError(t, err)

	data, err := os.ReadFile(audit)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"dataset.load"`)
	assert.Contains(t, string(data), `"event_type":"run.end"`)
}

func TestAnalyze_Gates(t *testing.T) {
	out, err := run(t, "analyze", fixture, "--gates")
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset Quality Gates")
	assert.Contains(t, out, "✓ acyclic")
	assert.Contains(t, out, "Result: PASSED")

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{
  "nodes": [{"id": "a", "ontology_layer": "code", "level": "backend-functions", "product": "acme", "name": "a"}],
  "edges": [{"id": "e", "source": "a", "target": "ghost", "type": "requires"}]
}`), 0o644))
	out, err = run(t, "--skip-dangling", "analyze", broken, "--gates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quality gates failed")
	assert.Contains(t, out, "✗ dangling")
	assert.Contains(t, out, "→ e")

	out, err = run(t, "--skip-dangling", "analyze", broken, "--gates", "--json")
	require.Error(t, err)
	var combined map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &combined))
	assert.Contains(t, combined, "gates")
	assert.Contains(t, combined, "report")
}

func TestTraverse(t *testing.T) {
	out, err := run(t, "traverse", fixture, "a-out", "--layer", "code")
	require.NoError(t, err)
	assert.Contains(t, out, "a-code")
	assert.NotContains(t, out, "a-des")

	_, err = run(t, "traverse", fixture, "missing")
	assert.ErrorIs(t, err, store.ErrNodeNotFound)

	_, err = run(t, "traverse", fixture, "a-out", "--direction", "sideways")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	out, err := run(t, "path", fixture, "a-per", "a-code")
	require.NoError(t, err)
	assert.Contains(t, out, "Path (3 hops, 2 cross-layer transitions)")
	assert.Contains(t, out, "--realizes-->")

	out, err = run(t, "path", fixture, "a-code", "a-per")
	require.NoError(t, err)
	assert.Contains(t, out, "No path")
}

func TestOverlap(t *testing.T) {
	out, err := run(t, "overlap", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Deepest overlap: outcomes")
	assert.Contains(t, out, "Diverges at scenarios")
}

func TestCycles(t *testing.T) {
	out, err := run(t, "cycles", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Dependency Graph Statistics")
	assert.Contains(t, out, "Acyclic:     true")
	assert.NotContains(t, out, "Cyclic Dependencies")
}

func TestExport(t *testing.T) {
	out, err := run(t, "export", fixture, "--format", "mermaid")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	path := filepath.Join(t.TempDir(), "graph.dot")
	_, err = run(t, "export", fixture, "--format", "dot", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph ontology")

	_, err = run(t, "export", fixture, "--format", "png")
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	out, err := run(t, "recommend", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Manage Account [acme, bolt, core]")

	_, err = run(t, "recommend", fixture, "--node", "nope")
	assert.ErrorIs(t, err, store.ErrNodeNotFound)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Products: acme, bolt, core")

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{
  "nodes": [{"id": "a", "ontology_layer": "code", "level": "backend-functions", "product": "acme", "name": "a"}],
  "edges": [{"id": "e", "source": "a", "target": "ghost", "type": "requires"}]
}`), 0o644))
	out, err = run(t, "validate", broken)
	assert.Error(t, err)
	assert.Contains(t, out, "dangling edge e: missing ghost")
}

func TestSkipDanglingFlag(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{
  "nodes": [{"id": "a", "ontology_layer": "code", "level": "backend-functions", "product": "acme", "name": "a"}],
  "edges": [{"id": "e", "source": "a", "target": "ghost", "type": "requires"}]
}`), 0o644))

	_, err := run(t, "cycles", broken)
	assert.ErrorIs(t, err, store.ErrNodeNotFound)

	_, err = run(t, "--skip-dangling", "cycles", broken)
	assert.NoError(t, err)
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "snapshot", "save", fixture, "--dir", dir, "--tag", "v1")
	require.NoError(t, err)
	assert.Contains(t, out, "(v1)")

	out, err = run(t, "snapshot", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "v1")

	out, err = run(t, "snapshot", "diff", "v1", fixture, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Datasets are identical")
}
