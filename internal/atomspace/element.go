package atomspace

import "fmt"

// Handle identifies an element within a store. Handles are assigned in
// creation order and never reused, so ordering by handle is ordering by age.
type Handle int64

// TruthValue is a simple (strength, confidence) pair, both in [0,1].
type TruthValue struct {
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

// DefaultTruthValue is assigned to freshly added elements.
var DefaultTruthValue = TruthValue{Strength: 1, Confidence: 0}

// Valid reports whether both components lie in [0,1].
func (tv TruthValue) Valid() bool {
	return tv.Strength >= 0 && tv.Strength <= 1 && tv.Confidence >= 0 && tv.Confidence <= 1
}

// Disposability marks whether forgetting may evict an element.
type Disposability int

const (
	Disposable Disposability = iota
	NonDisposable
)

func (d Disposability) String() string {
	switch d {
	case Disposable:
		return "DISPOSABLE"
	case NonDisposable:
		return "NONDISPOSABLE"
	default:
		return fmt.Sprintf("Disposability(%d)", int(d))
	}
}

// AttentionValue holds an element's short- and long-term importance and
// its disposability flag.
type AttentionValue struct {
	STI  int64         `json:"sti"`
	LTI  int64         `json:"lti"`
	VLTI Disposability `json:"vlti"`
}

// Element is a snapshot of a node or link. Stores hand out copies; mutate
// through the Store setters.
type Element struct {
	Handle   Handle
	Type     Type
	Name     string   // nodes only
	Outgoing []Handle // links only
	TV       *TruthValue
	AV       *AttentionValue
}

// IsLink reports whether the element is a link.
func (e Element) IsLink() bool { return e.Type.IsLink() }

// Disposability returns the element's flag. Elements without an attention
// value are treated as disposable.
func (e Element) Disposability() Disposability {
	if e.AV == nil {
		return Disposable
	}
	return e.AV.VLTI
}

func (e Element) String() string {
	if e.IsLink() {
		return fmt.Sprintf("%s#%d%v", e.Type, e.Handle, e.Outgoing)
	}
	return fmt.Sprintf("%s#%d(%q)", e.Type, e.Handle, e.Name)
}
