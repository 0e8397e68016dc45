// Package similarity scores how alike two ontology nodes are.
//
// There is one canonical text measure, StringSimilarity: the Jaccard index of
// case-folded token sets, where tokens are split on whitespace, '-' and '_'.
// Every caller in the engine uses it, so thresholds below are expressed in
// Jaccard terms.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

// Tunable defaults. They came from observed behavior rather than calibration.
const (
	// OverlapThreshold: nodes scoring above it are grouped as overlap.
	OverlapThreshold = 0.5
	// MatchThreshold: a cross-product match tuple is kept when its mean
	// pairwise similarity exceeds it.
	MatchThreshold = 0.3
	// RedundancyThreshold: weighted similarity above it flags duplicates.
	RedundancyThreshold = 0.8
)

// Weights combine name and property-key signals in WeightedSimilarity.
type Weights struct {
	Name     float64
	Property float64
}

// DefaultWeights is 0.7 name, 0.3 property keys.
func DefaultWeights() Weights {
	return Weights{Name: 0.7, Property: 0.3}
}

// Tokenize returns the set of case-folded tokens of s.
func Tokenize(s string) map[string]struct{} {
	folded := cases.Fold().String(s)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// StringSimilarity is the token Jaccard index of a and b in [0,1].
// Two strings without tokens score 0.
func StringSimilarity(a, b string) float64 {
	return jaccard(Tokenize(a), Tokenize(b))
}

// NodeSimilarity scores two nodes for overlap purposes: 0 across layers,
// otherwise the max of name and description similarity.
func NodeSimilarity(a, b ontology.Node) float64 {
	if a.Layer != b.Layer {
		return 0
	}
	return max(StringSimilarity(a.Name, b.Name), StringSimilarity(a.Description, b.Description))
}

// PropertyKeyOverlap is the Jaccard index of the two property key sets.
func PropertyKeyOverlap(a, b ontology.Node) float64 {
	ka := make(map[string]struct{}, len(a.Properties))
	for k := range a.Properties {
		ka[k] = struct{}{}
	}
	kb := make(map[string]struct{}, len(b.Properties))
	for k := range b.Properties {
		kb[k] = struct{}{}
	}
	return jaccard(ka, kb)
}

// WeightedSimilarity is the structural score used for redundancy detection:
// w.Name*name similarity + w.Property*property key overlap, 0 across layers.
func WeightedSimilarity(a, b ontology.Node, w Weights) float64 {
	if a.Layer != b.Layer {
		return 0
	}
	return w.Name*StringSimilarity(a.Name, b.Name) + w.Property*PropertyKeyOverlap(a, b)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
