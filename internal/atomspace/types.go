package atomspace

// Type names an element type. Types form a single-inheritance hierarchy
// rooted at Atom.
type Type string

const (
	TypeAtom Type = "Atom"
	TypeNode Type = "Node"
	TypeLink Type = "Link"

	TypeConceptNode   Type = "ConceptNode"
	TypePredicateNode Type = "PredicateNode"

	TypeInheritanceLink Type = "InheritanceLink"
	TypeListLink        Type = "ListLink"
	TypeEvaluationLink  Type = "EvaluationLink"
	TypeHebbianLink     Type = "HebbianLink"
)

// parents maps each type to its direct supertype.
var parents = map[Type]Type{
	TypeNode:            TypeAtom,
	TypeLink:            TypeAtom,
	TypeConceptNode:     TypeNode,
	TypePredicateNode:   TypeNode,
	TypeInheritanceLink: TypeLink,
	TypeListLink:        TypeLink,
	TypeEvaluationLink:  TypeLink,
	TypeHebbianLink:     TypeLink,
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	if t == TypeAtom {
		return true
	}
	_, ok := parents[t]
	return ok
}

// IsA reports whether t is super or one of its subtypes.
func (t Type) IsA(super Type) bool {
	for cur := t; cur != ""; cur = parents[cur] {
		if cur == super {
			return true
		}
	}
	return false
}

// IsNode reports whether t is a node type.
func (t Type) IsNode() bool { return t.IsA(TypeNode) }

// IsLink reports whether t is a link type.
func (t Type) IsLink() bool { return t.IsA(TypeLink) }

// Subtypes returns t and every known type that inherits from it, in a
// stable order.
func Subtypes(t Type) []Type {
	out := []Type{t}
	for _, c := range allTypes {
		if c != t && c.IsA(t) {
			out = append(out, c)
		}
	}
	return out
}

var allTypes = []Type{
	TypeAtom,
	TypeNode,
	TypeLink,
	TypeConceptNode,
	TypePredicateNode,
	TypeInheritanceLink,
	TypeListLink,
	TypeEvaluationLink,
	TypeHebbianLink,
}
