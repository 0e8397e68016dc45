package depgraph

import "github.com/efebarandurmaz/ontograph/internal/traversal"

// Analysis is the dependency picture of an ontology graph
type Analysis struct {
	Direct     map[string][]string `json:"direct"`     // 1-hop forward dependencies, self excluded
	Transitive map[string][]string `json:"transitive"` // everything reachable forward, self excluded
	Cycles     [][]string          `json:"cycles,omitempty"`

	// CriticalPath is the longest shortest path from a persona or outcome to code
	CriticalPath *traversal.Path `json:"critical_path,omitempty"`

	Acyclic          bool     `json:"acyclic"`
	TopologicalOrder []string `json:"topological_order,omitempty"` // only when acyclic

	Stats Stats `json:"stats"`
}

// Stats holds computed metrics about the graph
type Stats struct {
	TotalNodes          int            `json:"total_nodes"`
	TotalEdges          int            `json:"total_edges"`
	MaxFanOut           int            `json:"max_fan_out"`  // most outgoing edges
	MaxFanIn            int            `json:"max_fan_in"`   // most incoming edges
	HotspotNode         string         `json:"hotspot_node"` // node with the largest fan-out
	ConnectedComponents int            `json:"connected_components"`
	CycleCount          int            `json:"cycle_count"`
	LayerFanOut         map[string]int `json:"layer_fan_out"` // per-layer outgoing cross-layer edges
}
