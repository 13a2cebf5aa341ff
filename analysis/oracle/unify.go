package oracle

import (
	uf "github.com/spakin/disjoint"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/divzero/analysis/ir"
)

// Unify is an intra-procedural, unification based (Steensgaard style) alias
// analysis. Pointers that may hold the same address are merged into one
// equivalence class; each class has a single content class describing the
// pointers stored in the locations it points to.
//
// Pointers entering the function from outside (parameters, globals, call
// results) and pointers escaping to callees are merged into one external
// class per pointee type.
type Unify struct {
	elems    map[*ir.Var]*uf.Element
	content  map[*uf.Element]*uf.Element
	external map[string]*uf.Element
}

func NewUnify(fn *ir.Function) *Unify {
	u := &Unify{
		elems:    make(map[*ir.Var]*uf.Element),
		content:  make(map[*uf.Element]*uf.Element),
		external: make(map[string]*uf.Element),
	}

	for _, v := range fn.Vars() {
		if isPointer(v) && v.Kind() != ir.Local {
			u.escape(v)
		}
	}

	pointerVar := func(v ir.Value) (*ir.Var, bool) {
		x, ok := v.(*ir.Var)
		return x, ok && isPointer(x)
	}

	for _, instr := range fn.Instrs() {
		switch instr := instr.(type) {
		case *ir.Alloc:
			u.elem(instr.Dest)
		case *ir.Phi:
			if isPointer(instr.Dest) {
				for _, e := range instr.Edges {
					if x, ok := pointerVar(e); ok {
						u.union(u.elem(instr.Dest), u.elem(x))
					}
				}
			}
		case *ir.Cast:
			if x, ok := pointerVar(instr.X); ok && isPointer(instr.Dest) {
				u.union(u.elem(instr.Dest), u.elem(x))
			}
		case *ir.Load:
			if isPointer(instr.Dest) {
				u.union(u.elem(instr.Dest), u.contentOf(u.elem(instr.Addr)))
			}
		case *ir.Store:
			if x, ok := pointerVar(instr.Val); ok {
				u.union(u.contentOf(u.elem(instr.Addr)), u.elem(x))
			}
		case *ir.Call:
			for _, arg := range instr.Args {
				if x, ok := pointerVar(arg); ok {
					u.escape(x)
				}
			}
			if instr.Dest != nil && isPointer(instr.Dest) {
				u.escape(instr.Dest)
			}
		case *ir.Effect:
			for _, arg := range instr.Args {
				if x, ok := pointerVar(arg); ok {
					u.escape(x)
				}
			}
		default:
			if res := instr.Result(); res != nil && isPointer(res) {
				u.escape(res)
			}
		}
	}

	return u
}

func (u *Unify) elem(v *ir.Var) *uf.Element {
	if el, found := u.elems[v]; found {
		return el
	}
	el := uf.NewElement()
	el.Data = v
	u.elems[v] = el
	return el
}

// escape merges v into the external class of its pointee type.
func (u *Unify) escape(v *ir.Var) {
	key := "?"
	if elem := v.Type().Elem; elem != nil {
		key = elem.Name
	}
	ext, found := u.external[key]
	if !found {
		ext = uf.NewElement()
		u.external[key] = ext
	}
	u.union(u.elem(v), ext)
}

// contentOf returns the class of pointers stored in the locations e points to.
func (u *Unify) contentOf(e *uf.Element) *uf.Element {
	r := e.Find()
	if c, found := u.content[r]; found {
		return c.Find()
	}
	c := uf.NewElement()
	u.content[r] = c
	return c
}

// union merges two classes, and recursively their contents.
func (u *Unify) union(a, b *uf.Element) {
	pending := [][2]*uf.Element{{a, b}}
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		ra, rb := next[0].Find(), next[1].Find()
		if ra == rb {
			continue
		}

		ca, hasA := u.content[ra]
		cb, hasB := u.content[rb]
		delete(u.content, ra)
		delete(u.content, rb)

		uf.Union(ra, rb)
		r := ra.Find()
		switch {
		case hasA && hasB:
			u.content[r] = ca
			pending = append(pending, [2]*uf.Element{ca, cb})
		case hasA:
			u.content[r] = ca
		case hasB:
			u.content[r] = cb
		}
	}
}

func (u *Unify) Alias(a, b *ir.Var) bool {
	switch {
	case a == b:
		return true
	case !isPointer(a) || !isPointer(b):
		return false
	}

	ea, okA := u.elems[a]
	eb, okB := u.elems[b]
	if !okA || !okB {
		// Not part of the analysed function.
		return true
	}
	return ea.Find() == eb.Find()
}

// Classes groups the analysed pointers by equivalence class. Classes are
// ordered by their smallest variable ID, and variables within a class by ID.
func (u *Unify) Classes() [][]*ir.Var {
	byRoot := make(map[*uf.Element][]*ir.Var)
	for v, el := range u.elems {
		r := el.Find()
		byRoot[r] = append(byRoot[r], v)
	}

	classes := make([][]*ir.Var, 0, len(byRoot))
	for _, class := range byRoot {
		sortVars(class)
		classes = append(classes, class)
	}
	slices.SortFunc(classes, func(a, b []*ir.Var) bool {
		return a[0].ID() < b[0].ID()
	})
	return classes
}
