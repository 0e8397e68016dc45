package ontology

import "fmt"

// Layer identifies one of the four descriptive viewpoints a node belongs to.
type Layer string

const (
	LayerFunctional   Layer = "functional"
	LayerDesign       Layer = "design"
	LayerArchitecture Layer = "architecture"
	LayerCode         Layer = "code"
)

// Layers lists every layer in canonical order.
var Layers = []Layer{LayerFunctional, LayerDesign, LayerArchitecture, LayerCode}

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	switch l {
	case LayerFunctional, LayerDesign, LayerArchitecture, LayerCode:
		return true
	}
	return false
}

// Canonical level vocabularies. Levels are layer-local; the same string in two
// layers does not imply the same depth.
var levelOrder = map[Layer][]string{
	LayerFunctional:   {"persona", "outcomes", "scenarios", "steps", "actions"},
	LayerDesign:       {"atoms", "molecules", "organisms", "templates", "pages"},
	LayerArchitecture: {"root", "services", "layers", "modules"},
	LayerCode:         {"frontend-components", "frontend-functions", "backend-components", "backend-functions"},
}

// LevelOrder returns a copy of the canonical hierarchy for a layer, shallowest first.
func LevelOrder(l Layer) []string {
	levels := levelOrder[l]
	out := make([]string, len(levels))
	copy(out, levels)
	return out
}

// EdgeType labels the relation carried by an edge.
type EdgeType string

const (
	EdgeImplements EdgeType = "implements"
	EdgeSupports   EdgeType = "supports"
	EdgeRequires   EdgeType = "requires"
	EdgeTriggers   EdgeType = "triggers"
	EdgeValidates  EdgeType = "validates"
	EdgeRealizes   EdgeType = "realizes"
	EdgeRenders    EdgeType = "renders"
	EdgeManages    EdgeType = "manages"
)

// EdgeTypes lists the closed edge vocabulary.
var EdgeTypes = []EdgeType{
	EdgeImplements, EdgeSupports, EdgeRequires, EdgeTriggers,
	EdgeValidates, EdgeRealizes, EdgeRenders, EdgeManages,
}

// Valid reports whether t belongs to the edge vocabulary.
func (t EdgeType) Valid() bool {
	for _, known := range EdgeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Node is a conceptual unit in one layer of one product.
type Node struct {
	ID          string         `json:"id" yaml:"id"`
	Layer       Layer          `json:"ontology_layer" yaml:"ontology_layer"`
	Level       string         `json:"level" yaml:"level"`
	Product     string         `json:"product" yaml:"product"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Inconsistencies is derived by analysis passes and overwritten by them.
	Inconsistencies []string `json:"inconsistencies,omitempty" yaml:"inconsistencies,omitempty"`
}

// LevelKey returns "layer:level", the layer-qualified level of the node.
func (n Node) LevelKey() string {
	return fmt.Sprintf("%s:%s", n.Layer, n.Level)
}

// Clone deep-copies the node including nested property values.
func (n Node) Clone() Node {
	c := n
	c.Properties = CloneProperties(n.Properties)
	if n.Inconsistencies != nil {
		c.Inconsistencies = append([]string(nil), n.Inconsistencies...)
	}
	return c
}

// Edge is a directed, typed relation between two node IDs.
type Edge struct {
	ID           string   `json:"id" yaml:"id"`
	Source       string   `json:"source" yaml:"source"`
	Target       string   `json:"target" yaml:"target"`
	Type         EdgeType `json:"type" yaml:"type"`
	Strength     float64  `json:"strength,omitempty" yaml:"strength,omitempty"`
	Inconsistent bool     `json:"inconsistent,omitempty" yaml:"inconsistent,omitempty"`
}

// Weight is the traversal weight hint: Strength, or 1 when unset.
func (e Edge) Weight() float64 {
	if e.Strength <= 0 {
		return 1
	}
	return e.Strength
}

// Document is the plain interchange form of a graph.
type Document struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// CloneProperties deep-copies a property map. Nested maps and slices produced
// by JSON or YAML decoding are copied recursively; other values are scalars.
func CloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneProperties(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
