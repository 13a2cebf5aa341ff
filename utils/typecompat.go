package utils

import (
	T "go/types"
	"log"

	"github.com/fatih/color"
)

// TypeCompat checks whether a value allocated with `allocType` may be
// observed through a value with declared type `declType`. For instance, a
// pointer to an int allocated with `new(int)` may be observed through a
// pointer to `myint`, where `type myint int`, if the pointer is converted on
// the way. Type-based aliasing compares pointees with it.
func TypeCompat(declType, allocType T.Type) bool {
	res := typeCompat(declType, allocType, []*T.Named{})
	Opts().OnVerbose(func() {
		verdict := color.RedString("incompatible")
		if res {
			verdict = color.GreenString("compatible")
		}
		log.Printf("%s and %s are %s\n", declType, allocType, verdict)
	})
	return res
}

func typeCompat(t1, t2 T.Type, visited []*T.Named) (res bool) {
	// Shortcut
	if t1 == t2 || T.AssignableTo(t2, t1) {
		return true
	}

	// If the second type is named, but the first isn't
	// resolve the second type to its underlying type
	_, ok1 := t1.(*T.Named)
	_, ok2 := t2.(*T.Named)
	if !ok1 && ok2 {
		return typeCompat(t1, t2.Underlying(), visited)
	}

	// If either of the types is an interface,
	// optimistically assume that they may be of the same type
	_, ok1 = t1.(*T.Interface)
	_, ok2 = t2.(*T.Interface)
	if ok1 || ok2 {
		return true
	}

	switch t1 := t1.(type) {
	case *T.Named:
		switch t2 := t2.(type) {
		case *T.Named:
			// If both types are named the same,
			// and in the same package, they are equal
			if t1.Obj().Pkg() == t2.Obj().Pkg() &&
				t1.Obj().Name() == t2.Obj().Name() {
				return true
			}

			// Avoid cyclical checks
			var t1found, t2found bool
			for _, t := range visited {
				if t == t1 {
					t1found = true
				}
				if t == t2 {
					t2found = true
				}
			}

			if t1found && t2found {
				return false
			}

			visited = append(visited, []*T.Named{t1, t2}...)
			return typeCompat(t1.Underlying(), t2.Underlying(), visited)
		}

		// First type is named but second isn't
		return typeCompat(t1.Underlying(), t2, visited)
	case *T.Array:
		switch t2 := t2.(type) {
		case *T.Array:
			return t1.Len() == t2.Len() && typeCompat(t1.Elem(), t2.Elem(), visited)
		}
	case *T.Basic:
		switch t2 := t2.(type) {
		case *T.Basic:
			return t1.Kind() == t2.Kind()
		}
	case *T.Chan:
		switch t2 := t2.(type) {
		case *T.Chan:
			return typeCompat(t1.Elem(), t2.Elem(), visited)
		}
	case *T.Map:
		switch t2 := t2.(type) {
		case *T.Map:
			return typeCompat(t1.Key(), t2.Key(), visited) && typeCompat(t1.Elem(), t2.Elem(), visited)
		}
	case *T.Pointer:
		switch t2 := t2.(type) {
		case *T.Pointer:
			return typeCompat(t1.Elem(), t2.Elem(), visited)
		case *T.Slice:
			switch t1 := t1.Elem().Underlying().(type) {
			case *T.Array:
				return typeCompat(t1.Elem(), t2.Elem(), visited)
			}
		}
	case *T.Signature:
		switch t2 := t2.(type) {
		case *T.Signature:
			return typeCompat(t1.Params(), t2.Params(), visited) &&
				typeCompat(t1.Results(), t2.Results(), visited)
		}
	case *T.Slice:
		switch t2 := t2.(type) {
		case *T.Slice:
			return typeCompat(t1.Elem(), t2.Elem(), visited)
		case *T.Pointer:
			switch t2 := t2.Elem().Underlying().(type) {
			case *T.Array:
				return typeCompat(t1.Elem(), t2.Elem(), visited)
			}
		}
	case *T.Struct:
		switch t2 := t2.(type) {
		case *T.Struct:
			if t1.NumFields() != t2.NumFields() {
				return false
			}
			for i := 0; i < t1.NumFields(); i++ {
				if t1.Tag(i) != t2.Tag(i) || !typeCompat(t1.Field(i).Type(), t2.Field(i).Type(), visited) {
					return false
				}
			}
			return true
		}
	case *T.Tuple:
		switch t2 := t2.(type) {
		case *T.Tuple:
			if t1.Len() != t2.Len() {
				return false
			}
			for i := 0; i < t1.Len(); i++ {
				if !typeCompat(t1.At(i).Type(), t2.At(i).Type(), visited) {
					return false
				}
			}
			return true
		}
	}
	return false
}
