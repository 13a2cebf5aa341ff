package oracle

import (
	"go/types"

	"github.com/cs-au-dk/divzero/analysis/ir"
	"github.com/cs-au-dk/divzero/utils"
)

// TypeBased is a type-based alias analysis. Distinct allocation sites never
// alias; other pointers alias if their pointee types agree. Pointers with an
// unknown pointee may alias anything.
//
// If Values is set, pointee types are compared with the Go types of the SSA
// values the locations were lowered from, which also lets pointers to
// differently named but compatible types alias.
type TypeBased struct {
	Values ValueMap
}

func (tb TypeBased) Alias(a, b *ir.Var) bool {
	switch {
	case a == b:
		return true
	case !isPointer(a) || !isPointer(b):
		return false
	case isAllocationSite(a) && isAllocationSite(b):
		return false
	}

	if pa, pb, ok := tb.goTypes(a, b); ok {
		return utils.TypeCompat(pa.Elem(), pb.Elem()) || utils.TypeCompat(pb.Elem(), pa.Elem())
	}

	ea, eb := a.Type().Elem, b.Type().Elem
	if unknownPointee(ea) || unknownPointee(eb) {
		return true
	}
	return ea.Name == eb.Name
}

func (tb TypeBased) goTypes(a, b *ir.Var) (pa, pb *types.Pointer, ok bool) {
	if tb.Values == nil {
		return
	}
	va, okA := tb.Values.Value(a)
	vb, okB := tb.Values.Value(b)
	if !okA || !okB {
		return
	}
	pa, okA = va.Type().Underlying().(*types.Pointer)
	pb, okB = vb.Type().Underlying().(*types.Pointer)
	return pa, pb, okA && okB
}

func unknownPointee(t *ir.Type) bool {
	return t == nil || t == ir.OtherType || t.Name == ""
}
