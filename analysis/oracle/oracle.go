package oracle

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/divzero/analysis/ir"
)

// Oracle answers may-alias queries between memory locations. The relation is
// reflexive and symmetric, but not necessarily transitive, and it is never
// mutated while an analysis consults it.
type Oracle interface {
	Alias(a, b *ir.Var) bool
}

const (
	KindAndersen     = "andersen"
	KindUnify        = "unify"
	KindTypeBased    = "type-based"
	KindConservative = "conservative"
	KindNone         = "none"
)

// Kinds lists the names accepted by New.
var Kinds = []string{KindAndersen, KindUnify, KindTypeBased, KindConservative, KindNone}

// ErrNoMain is returned when a whole-program points-to analysis is
// requested for a program without main packages.
var ErrNoMain = errors.New("no main packages to analyze")

// Valid checks whether kind names an oracle.
func Valid(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// New creates the oracle of the given kind for fn. The Andersen oracle needs
// the result of a whole-program points-to analysis and a mapping from fn's
// variables back to SSA values; the other kinds ignore them.
func New(kind string, fn *ir.Function, pts *PointsTo, values ValueMap) (Oracle, error) {
	switch kind {
	case KindAndersen:
		if pts == nil || values == nil {
			return nil, fmt.Errorf("oracle %q for %s: %w", kind, fn.Name, ErrNoMain)
		}
		return pts.For(values), nil
	case KindUnify:
		return NewUnify(fn), nil
	case KindTypeBased:
		return TypeBased{values}, nil
	case KindConservative:
		return Conservative{}, nil
	case KindNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("unknown oracle %q", kind)
}

// Pairs lists the distinct pairs of locations that may alias, in the order
// of locs.
func Pairs(o Oracle, locs []*ir.Var) (res [][2]*ir.Var) {
	for i, a := range locs {
		for _, b := range locs[i+1:] {
			if o.Alias(a, b) {
				res = append(res, [2]*ir.Var{a, b})
			}
		}
	}
	return
}

// None assumes that distinct locations never alias.
type None struct{}

func (None) Alias(a, b *ir.Var) bool { return a == b }

// Conservative assumes that all pointers alias.
type Conservative struct{}

func (Conservative) Alias(a, b *ir.Var) bool {
	return a == b || (isPointer(a) && isPointer(b))
}

func isPointer(v *ir.Var) bool {
	return v.Type().Kind == ir.Pointer
}

// isAllocationSite is true for locations that denote a single, distinct object.
func isAllocationSite(v *ir.Var) bool {
	if v.Kind() == ir.Global {
		return true
	}
	_, ok := v.Def().(*ir.Alloc)
	return ok
}

func sortVars(vs []*ir.Var) {
	slices.SortFunc(vs, func(a, b *ir.Var) bool {
		return a.ID() < b.ID()
	})
}
