// Package atomspace defines the element model and the Store contract the
// attention agents run against, plus an in-memory Store.
package atomspace

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a handle does not name a live element.
	ErrNotFound = errors.New("element not found")

	// ErrInvalidState marks an element missing a value an agent needs.
	ErrInvalidState = errors.New("element state invalid")

	// ErrStoreUnavailable marks a store that cannot be reached at all.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidType is returned when adding an element of an unknown or
	// mismatched type.
	ErrInvalidType = errors.New("invalid element type")
)

// Store is the graph collaborator the agents mutate.
//
// Removing an element recursively also removes every link that references
// it, directly or transitively; a link cannot outlive its targets. Removing
// a link never removes the elements it references.
type Store interface {
	AddNode(ctx context.Context, t Type, name string) (Handle, error)
	AddLink(ctx context.Context, t Type, outgoing ...Handle) (Handle, error)
	Get(ctx context.Context, h Handle) (Element, error)

	// GetByType returns handles of type t (and its subtypes when subtypes
	// is true) in ascending handle order.
	GetByType(ctx context.Context, t Type, subtypes bool) ([]Handle, error)

	// Incoming returns the links whose outgoing set contains h.
	Incoming(ctx context.Context, h Handle) ([]Handle, error)

	SetTruthValue(ctx context.Context, h Handle, tv TruthValue) error
	SetAttentionValue(ctx context.Context, h Handle, av AttentionValue) error

	// Remove deletes h. Without recursive, an element that still has
	// incoming links is left in place and false is returned.
	Remove(ctx context.Context, h Handle, recursive bool) (bool, error)

	Count(ctx context.Context) (int, error)
}

// IncomingClosure returns every link that references h directly or through
// other links, in ascending handle order.
func IncomingClosure(ctx context.Context, s Store, h Handle) ([]Handle, error) {
	seen := make(map[Handle]bool)
	queue := []Handle{h}
	var out []Handle
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		in, err := s.Incoming(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, l := range in {
			if seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
			queue = append(queue, l)
		}
	}
	sortHandles(out)
	return out, nil
}
