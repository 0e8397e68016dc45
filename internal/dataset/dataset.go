// Package dataset reads and writes ontology interchange documents and builds
// graph stores from them.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions other than .json, .yaml and .yml.
var ErrUnknownFormat = errors.New("dataset: unknown format")

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads a document from path.
func Load(path string) (ontology.Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return ontology.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ontology.Document{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	doc, err := Decode(data, format)
	if err != nil {
		return ontology.Document{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return doc, nil
}

// Save writes doc to path in the format implied by its extension.
func Save(path string, doc ontology.Document) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Encode(doc, format)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}

// Decode parses data as a document.
func Decode(data []byte, format Format) (ontology.Document, error) {
	var doc ontology.Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return doc, err
}

// Encode serializes doc.
func Encode(doc ontology.Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Canonical returns a copy of doc with nodes and edges sorted by id and the
// derived inconsistency annotations dropped.
func Canonical(doc ontology.Document) ontology.Document {
	out := ontology.Document{
		Nodes: make([]ontology.Node, len(doc.Nodes)),
		Edges: make([]ontology.Edge, len(doc.Edges)),
	}
	for i, n := range doc.Nodes {
		c := n.Clone()
		c.Inconsistencies = nil
		out.Nodes[i] = c
	}
	copy(out.Edges, doc.Edges)
	sort.SliceStable(out.Nodes, func(i, j int) bool { return out.Nodes[i].ID < out.Nodes[j].ID })
	sort.SliceStable(out.Edges, func(i, j int) bool { return out.Edges[i].ID < out.Edges[j].ID })
	return out
}

// ContentHash is the sha256 of the canonical JSON form of doc. Two documents
// that differ only in element order or inconsistency annotations hash alike.
func ContentHash(doc ontology.Document) string {
	data, err := json.Marshal(Canonical(doc))
	if err != nil {
		// property values json cannot encode fall back to their printed form
		data = []byte(fmt.Sprintf("%v", Canonical(doc)))
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// BuildOptions controls Build.
type BuildOptions struct {
	// SkipDangling drops edges with missing endpoints instead of failing.
	SkipDangling bool
	Logger       *slog.Logger
}

// BuildResult reports what Build left out.
type BuildResult struct {
	Skipped []*store.DanglingReferenceError
}

// Build inserts nodes then edges into a new store. Node errors always abort.
// Dangling edges abort unless SkipDangling is set, in which case they are
// logged and collected in the result.
func Build(doc ontology.Document, opts BuildOptions) (*store.Graph, BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var res BuildResult
	g := store.New()
	for _, n := range doc.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, res, fmt.Errorf("add node %q: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		err := g.AddEdge(e)
		if err == nil {
			continue
		}
		var dangling *store.DanglingReferenceError
		if opts.SkipDangling && errors.As(err, &dangling) {
			logger.Warn("skipping dangling edge",
				"edge", dangling.EdgeID,
				"missing", dangling.NodeIDs,
			)
			res.Skipped = append(res.Skipped, dangling)
			continue
		}
		return nil, res, fmt.Errorf("add edge %q: %w", e.ID, err)
	}

	logger.Info("dataset built",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"skipped", len(res.Skipped),
	)
	return g, res, nil
}
