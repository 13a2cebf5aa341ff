package frontend

import (
	"go/types"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/cs-au-dk/divzero/analysis/ir"
)

// typeCache memoizes the translation of Go types to IR types, so identical
// Go types share a single *ir.Type.
type typeCache struct {
	m typeutil.Map
}

func (c *typeCache) convert(t types.Type) *ir.Type {
	if res, found := c.m.At(t).(*ir.Type); found {
		return res
	}

	var res *ir.Type
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch info := u.Info(); {
		case info&types.IsInteger != 0:
			if t == types.Typ[types.Int] || t == types.Typ[types.UntypedInt] {
				res = ir.IntType
			} else {
				res = ir.NamedInt(t.String())
			}
		case info&types.IsBoolean != 0:
			if _, named := t.(*types.Named); named {
				res = &ir.Type{Kind: ir.Bool, Name: t.String()}
			} else {
				res = ir.BoolType
			}
		default:
			res = ir.Opaque(t.String())
		}
	case *types.Pointer:
		res = ir.PointerTo(c.convert(u.Elem()))
	case *types.Tuple:
		fields := make([]*ir.Type, 0, u.Len())
		for i := 0; i < u.Len(); i++ {
			fields = append(fields, c.convert(u.At(i).Type()))
		}
		res = ir.TupleOf(fields...)
	default:
		res = ir.Opaque(t.String())
	}

	c.m.Set(t, res)
	return res
}

var sizes = types.SizesFor("gc", "amd64")

// narrowing is true for integer conversions that may truncate, in which case
// a nonzero value can become zero.
func narrowing(from, to types.Type) bool {
	fb, ok := from.Underlying().(*types.Basic)
	if !ok || fb.Info()&types.IsInteger == 0 {
		return false
	}
	tb, ok := to.Underlying().(*types.Basic)
	if !ok || tb.Info()&types.IsInteger == 0 {
		return false
	}
	return sizes.Sizeof(tb) < sizes.Sizeof(fb)
}
