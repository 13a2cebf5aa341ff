package ir

import (
	"fmt"
	"strings"
)

// TypeKind classifies IR types. Only the distinctions relevant to
// zero-tracking are kept; everything else is Other.
type TypeKind uint8

const (
	Other TypeKind = iota
	Int
	Bool
	Pointer
	Tuple
)

func (k TypeKind) String() string {
	switch k {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Pointer:
		return "pointer"
	case Tuple:
		return "tuple"
	}
	return "other"
}

// Type is the type of an IR value. Name is a human readable rendering of
// the source type, and is also used by type-based aliasing to compare pointees.
type Type struct {
	Kind TypeKind
	Name string
	// Elem is the pointee of a Pointer type.
	Elem *Type
	// Fields are the components of a Tuple type.
	Fields []*Type
}

var (
	IntType   = &Type{Kind: Int, Name: "int"}
	BoolType  = &Type{Kind: Bool, Name: "bool"}
	OtherType = &Type{Kind: Other, Name: "?"}
)

// NamedInt creates an integer type with the given name, e.g. "uint8".
func NamedInt(name string) *Type {
	return &Type{Kind: Int, Name: name}
}

// Opaque creates a type outside the zero model.
func Opaque(name string) *Type {
	return &Type{Kind: Other, Name: name}
}

// PointerTo creates the type of pointers to elem.
func PointerTo(elem *Type) *Type {
	name := "*?"
	if elem != nil {
		name = "*" + elem.Name
	}
	return &Type{Kind: Pointer, Name: name, Elem: elem}
}

// TupleOf creates a tuple type, as produced by calls with multiple results.
func TupleOf(fields ...*Type) *Type {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.String())
	}
	return &Type{
		Kind:   Tuple,
		Name:   "(" + strings.Join(names, ", ") + ")",
		Fields: fields,
	}
}

// Tracked reports whether values of the type are abstracted by the zero domain.
// Booleans count as one bit integers, and a tuple is tracked if any of its
// components are.
func (t *Type) Tracked() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case Int, Bool:
		return true
	case Tuple:
		for _, f := range t.Fields {
			if f.Tracked() {
				return true
			}
		}
	}
	return false
}

// IsInteger is true for integer types, but not booleans.
func (t *Type) IsInteger() bool {
	return t != nil && t.Kind == Int
}

// PointsToTracked is true for pointers to tracked types.
func (t *Type) PointsToTracked() bool {
	return t != nil && t.Kind == Pointer && t.Elem.Tracked()
}

func (t *Type) String() string {
	switch {
	case t == nil:
		return "<nil>"
	case t.Name != "":
		return t.Name
	}
	return fmt.Sprintf("<%s>", t.Kind)
}
