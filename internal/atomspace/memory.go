package atomspace

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	next     Handle
	elements map[Handle]*Element
	incoming map[Handle]map[Handle]struct{}
	nodes    map[nodeKey]Handle
}

type nodeKey struct {
	t    Type
	name string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		next:     1,
		elements: make(map[Handle]*Element),
		incoming: make(map[Handle]map[Handle]struct{}),
		nodes:    make(map[nodeKey]Handle),
	}
}

// AddNode adds a node, or returns the existing handle when a node with the
// same type and name is already present.
func (m *MemoryStore) AddNode(ctx context.Context, t Type, name string) (Handle, error) {
	if !t.Valid() || !t.IsNode() {
		return 0, fmt.Errorf("add node %q: %w: %s", name, ErrInvalidType, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := nodeKey{t, name}
	if h, ok := m.nodes[key]; ok {
		return h, nil
	}
	h := m.alloc(&Element{Type: t, Name: name})
	m.nodes[key] = h
	return h, nil
}

// AddLink adds a link over outgoing. Every target must exist.
func (m *MemoryStore) AddLink(ctx context.Context, t Type, outgoing ...Handle) (Handle, error) {
	if !t.Valid() || !t.IsLink() {
		return 0, fmt.Errorf("add link: %w: %s", ErrInvalidType, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range outgoing {
		if _, ok := m.elements[o]; !ok {
			return 0, fmt.Errorf("add link target %d: %w", o, ErrNotFound)
		}
	}
	h := m.alloc(&Element{Type: t, Outgoing: slices.Clone(outgoing)})
	for _, o := range outgoing {
		if m.incoming[o] == nil {
			m.incoming[o] = make(map[Handle]struct{})
		}
		m.incoming[o][h] = struct{}{}
	}
	return h, nil
}

func (m *MemoryStore) alloc(e *Element) Handle {
	h := m.next
	m.next++
	tv := DefaultTruthValue
	av := AttentionValue{}
	e.Handle = h
	e.TV = &tv
	e.AV = &av
	m.elements[h] = e
	return h
}

// Get returns a copy of the element.
func (m *MemoryStore) Get(ctx context.Context, h Handle) (Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.elements[h]
	if !ok {
		return Element{}, fmt.Errorf("get %d: %w", h, ErrNotFound)
	}
	return copyElement(e), nil
}

func copyElement(e *Element) Element {
	out := *e
	out.Outgoing = slices.Clone(e.Outgoing)
	if e.TV != nil {
		tv := *e.TV
		out.TV = &tv
	}
	if e.AV != nil {
		av := *e.AV
		out.AV = &av
	}
	return out
}

// GetByType returns matching handles in ascending order.
func (m *MemoryStore) GetByType(ctx context.Context, t Type, subtypes bool) ([]Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Handle
	for h, e := range m.elements {
		if e.Type == t || (subtypes && e.Type.IsA(t)) {
			out = append(out, h)
		}
	}
	sortHandles(out)
	return out, nil
}

// Incoming returns the links that reference h.
func (m *MemoryStore) Incoming(ctx context.Context, h Handle) ([]Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.elements[h]; !ok {
		return nil, fmt.Errorf("incoming %d: %w", h, ErrNotFound)
	}
	out := make([]Handle, 0, len(m.incoming[h]))
	for l := range m.incoming[h] {
		out = append(out, l)
	}
	sortHandles(out)
	return out, nil
}

// SetTruthValue replaces the element's truth value.
func (m *MemoryStore) SetTruthValue(ctx context.Context, h Handle, tv TruthValue) error {
	if !tv.Valid() {
		return fmt.Errorf("set truth value %d: %w: %+v", h, ErrInvalidState, tv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.elements[h]
	if !ok {
		return fmt.Errorf("set truth value %d: %w", h, ErrNotFound)
	}
	e.TV = &tv
	return nil
}

// SetAttentionValue replaces the element's attention value.
func (m *MemoryStore) SetAttentionValue(ctx context.Context, h Handle, av AttentionValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.elements[h]
	if !ok {
		return fmt.Errorf("set attention value %d: %w", h, ErrNotFound)
	}
	e.AV = &av
	return nil
}

// Remove deletes h, and with recursive every link referencing it.
func (m *MemoryStore) Remove(ctx context.Context, h Handle, recursive bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.elements[h]; !ok {
		return false, nil
	}
	if len(m.incoming[h]) > 0 && !recursive {
		return false, nil
	}
	m.removeLocked(h)
	return true, nil
}

func (m *MemoryStore) removeLocked(h Handle) {
	e, ok := m.elements[h]
	if !ok {
		return
	}
	for l := range m.incoming[h] {
		m.removeLocked(l)
	}
	for _, o := range e.Outgoing {
		delete(m.incoming[o], h)
	}
	delete(m.incoming, h)
	if !e.IsLink() {
		delete(m.nodes, nodeKey{e.Type, e.Name})
	}
	delete(m.elements, h)
}

// Count returns the number of live elements.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elements), nil
}

func sortHandles(hs []Handle) {
	slices.Sort(hs)
}
