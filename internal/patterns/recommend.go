package patterns

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/similarity"
)

// Suggestion is a proposed edge that would close a structural gap.
type Suggestion struct {
	Edge   ontology.Edge `json:"edge"`
	Peer   string        `json:"peer"`
	Reason string        `json:"reason"`
}

// RecommendConnections looks at peers of id (same layer and level, outside
// its neighborhood) and mirrors their outgoing edges that id lacks. Each
// mirrored edge points at the node in id's product, at the peer target's
// layer and level, that is most similar to that target.
func (x *Extractor) RecommendConnections(id string) []Suggestion {
	n, ok := x.g.Node(id)
	if !ok {
		return nil
	}
	near := make(map[string]bool)
	for _, m := range x.Neighborhood(id).Nodes {
		near[m.ID] = true
	}

	// existing outgoing shapes of n, keyed by type and target layer:level
	have := make(map[string]bool)
	for _, next := range x.g.Successors(id) {
		target, _ := x.g.Node(next)
		for _, e := range x.g.EdgesBetween(id, next) {
			have[string(e.Type)+"@"+target.LevelKey()] = true
		}
	}

	var out []Suggestion
	proposed := make(map[string]bool)
	for _, peer := range x.g.NodesAt(n.Layer, n.Level) {
		if peer.ID == id || near[peer.ID] {
			continue
		}
		for _, next := range x.g.Successors(peer.ID) {
			peerTarget, _ := x.g.Node(next)
			for _, e := range x.g.EdgesBetween(peer.ID, next) {
				shape := string(e.Type) + "@" + peerTarget.LevelKey()
				if have[shape] {
					continue
				}
				target, ok := x.bestLocalMatch(n.Product, peerTarget)
				if !ok || target.ID == id {
					continue
				}
				key := string(e.Type) + "->" + target.ID
				if proposed[key] {
					continue
				}
				proposed[key] = true
				out = append(out, Suggestion{
					Edge: ontology.Edge{
						ID:       uuid.NewString(),
						Source:   id,
						Target:   target.ID,
						Type:     e.Type,
						Strength: e.Strength,
					},
					Peer:   peer.ID,
					Reason: fmt.Sprintf("%s has a %s edge to %s; %s has none", peer.ID, e.Type, peerTarget.LevelKey(), id),
				})
			}
		}
	}
	return out
}

// bestLocalMatch picks the node in product at like's layer and level that is
// most similar to like. The first candidate wins ties.
func (x *Extractor) bestLocalMatch(product string, like ontology.Node) (ontology.Node, bool) {
	var best ontology.Node
	bestScore, found := -1.0, false
	for _, c := range x.g.NodesAt(like.Layer, like.Level) {
		if c.Product != product {
			continue
		}
		if s := similarity.NodeSimilarity(c, like); s > bestScore {
			best, bestScore, found = c, s, true
		}
	}
	return best, found
}
