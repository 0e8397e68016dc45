package store

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store operations.
var (
	// ErrEmptyID is returned when a node or edge has an empty ID.
	ErrEmptyID = errors.New("store: empty id")

	// ErrNodeNotFound is returned when an operation references a node that
	// is not in the store. DanglingReferenceError unwraps to it.
	ErrNodeNotFound = errors.New("store: node not found")

	// ErrEdgeNotFound is returned when removing an unknown edge.
	ErrEdgeNotFound = errors.New("store: edge not found")

	// ErrInvalidLayer is returned for a node whose layer is not one of the
	// four ontology layers.
	ErrInvalidLayer = errors.New("store: invalid ontology layer")

	// ErrInvalidEdgeType is returned for an edge type outside the vocabulary.
	ErrInvalidEdgeType = errors.New("store: invalid edge type")

	// ErrGraphFrozen is returned when mutating a store after Freeze.
	ErrGraphFrozen = errors.New("store: graph is frozen")
)

// Side names the endpoint of an edge.
type Side string

const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// DanglingReferenceError reports an edge whose endpoint is not in the store.
// The edge is rejected; the store is left unchanged.
type DanglingReferenceError struct {
	EdgeID string
	// Missing lists the absent sides, source first.
	Missing []Side
	// NodeIDs holds the absent node IDs, aligned with Missing.
	NodeIDs []string
}

func (e *DanglingReferenceError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, side := range e.Missing {
		parts[i] = fmt.Sprintf("%s %q", side, e.NodeIDs[i])
	}
	return fmt.Sprintf("store: edge %q has dangling reference: %s", e.EdgeID, strings.Join(parts, ", "))
}

// Unwrap lets errors.Is(err, ErrNodeNotFound) match.
func (e *DanglingReferenceError) Unwrap() error {
	return ErrNodeNotFound
}

// MissingSide reports whether the given side is absent.
func (e *DanglingReferenceError) MissingSide(side Side) bool {
	for _, s := range e.Missing {
		if s == side {
			return true
		}
	}
	return false
}
