package dataset

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

// DiffType indicates the kind of change.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// ElementDiff is a change to one node or edge.
type ElementDiff struct {
	ID     string   `json:"id"`
	Type   DiffType `json:"type"`
	Fields []string `json:"fields,omitempty"` // changed fields, modified only
}

// DocumentDiff is the difference between two dataset versions.
type DocumentDiff struct {
	OldHash   string        `json:"old_hash"`
	NewHash   string        `json:"new_hash"`
	NodeDiffs []ElementDiff `json:"node_diffs"`
	EdgeDiffs []ElementDiff `json:"edge_diffs"`
	Summary   DiffSummary   `json:"summary"`
}

// DiffSummary provides aggregate counts about the diff.
type DiffSummary struct {
	NodesAdded    int  `json:"nodes_added"`
	NodesRemoved  int  `json:"nodes_removed"`
	NodesModified int  `json:"nodes_modified"`
	EdgesAdded    int  `json:"edges_added"`
	EdgesRemoved  int  `json:"edges_removed"`
	EdgesModified int  `json:"edges_modified"`
	Identical     bool `json:"identical"`
}

// Diff compares two documents by node and edge id. Derived inconsistency
// annotations are ignored.
func Diff(old, new ontology.Document) *DocumentDiff {
	d := &DocumentDiff{
		OldHash: ContentHash(old),
		NewHash: ContentHash(new),
	}

	oldNodes := make(map[string]ontology.Node, len(old.Nodes))
	for _, n := range old.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]ontology.Node, len(new.Nodes))
	for _, n := range new.Nodes {
		newNodes[n.ID] = n
	}
	d.NodeDiffs = diffElements(oldNodes, newNodes, nodeFields)

	oldEdges := make(map[string]ontology.Edge, len(old.Edges))
	for _, e := range old.Edges {
		oldEdges[e.ID] = e
	}
	newEdges := make(map[string]ontology.Edge, len(new.Edges))
	for _, e := range new.Edges {
		newEdges[e.ID] = e
	}
	d.EdgeDiffs = diffElements(oldEdges, newEdges, edgeFields)

	d.Summary = computeSummary(d)
	return d
}

func diffElements[T any](oldMap, newMap map[string]T, fields func(a, b T) []string) []ElementDiff {
	var diffs []ElementDiff
	for id, o := range oldMap {
		n, ok := newMap[id]
		if !ok {
			diffs = append(diffs, ElementDiff{ID: id, Type: DiffRemoved})
			continue
		}
		if changed := fields(o, n); len(changed) > 0 {
			diffs = append(diffs, ElementDiff{ID: id, Type: DiffModified, Fields: changed})
		}
	}
	for id := range newMap {
		if _, ok := oldMap[id]; !ok {
			diffs = append(diffs, ElementDiff{ID: id, Type: DiffAdded})
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].ID < diffs[j].ID })
	return diffs
}

func nodeFields(a, b ontology.Node) []string {
	var out []string
	if a.Layer != b.Layer {
		out = append(out, "ontology_layer")
	}
	if a.Level != b.Level {
		out = append(out, "level")
	}
	if a.Product != b.Product {
		out = append(out, "product")
	}
	if a.Name != b.Name {
		out = append(out, "name")
	}
	if a.Description != b.Description {
		out = append(out, "description")
	}
	if !(len(a.Properties) == 0 && len(b.Properties) == 0) && !reflect.DeepEqual(a.Properties, b.Properties) {
		out = append(out, "properties")
	}
	return out
}

func edgeFields(a, b ontology.Edge) []string {
	var out []string
	if a.Source != b.Source {
		out = append(out, "source")
	}
	if a.Target != b.Target {
		out = append(out, "target")
	}
	if a.Type != b.Type {
		out = append(out, "type")
	}
	if a.Strength != b.Strength {
		out = append(out, "strength")
	}
	if a.Inconsistent != b.Inconsistent {
		out = append(out, "inconsistent")
	}
	return out
}

func computeSummary(d *DocumentDiff) DiffSummary {
	s := DiffSummary{Identical: d.OldHash == d.NewHash}
	for _, nd := range d.NodeDiffs {
		switch nd.Type {
		case DiffAdded:
			s.NodesAdded++
		case DiffRemoved:
			s.NodesRemoved++
		case DiffModified:
			s.NodesModified++
		}
	}
	for _, ed := range d.EdgeDiffs {
		switch ed.Type {
		case DiffAdded:
			s.EdgesAdded++
		case DiffRemoved:
			s.EdgesRemoved++
		case DiffModified:
			s.EdgesModified++
		}
	}
	return s
}

// FormatDiff returns a human-readable string representation of the diff.
func FormatDiff(d *DocumentDiff) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Diff: %s -> %s\n", short(d.OldHash), short(d.NewHash)))
	if d.Summary.Identical {
		sb.WriteString("Datasets are identical\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("Nodes: +%d -%d ~%d\n",
		d.Summary.NodesAdded, d.Summary.NodesRemoved, d.Summary.NodesModified))
	sb.WriteString(fmt.Sprintf("Edges: +%d -%d ~%d\n\n",
		d.Summary.EdgesAdded, d.Summary.EdgesRemoved, d.Summary.EdgesModified))

	write := func(kind string, diffs []ElementDiff) {
		for _, ed := range diffs {
			icon := "~"
			switch ed.Type {
			case DiffAdded:
				icon = "+"
			case DiffRemoved:
				icon = "-"
			}
			sb.WriteString(fmt.Sprintf("  %s %s %s", icon, kind, ed.ID))
			if len(ed.Fields) > 0 {
				sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(ed.Fields, ", ")))
			}
			sb.WriteString("\n")
		}
	}
	write("node", d.NodeDiffs)
	write("edge", d.EdgeDiffs)

	return sb.String()
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
