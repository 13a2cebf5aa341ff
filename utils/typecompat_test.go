package utils

import (
	"go/token"
	T "go/types"
	"testing"
)

func TestTypeCompat(t *testing.T) {
	Int, Int64, Uint := T.Typ[T.Int], T.Typ[T.Int64], T.Typ[T.Uint]
	Bool, Float := T.Typ[T.Bool], T.Typ[T.Float64]
	MyInt := T.NewNamed(T.NewTypeName(token.NoPos, nil, "myint", nil), Int, nil)

	field := func(name string, typ T.Type) *T.Var {
		return T.NewField(token.NoPos, nil, name, typ, false)
	}
	counter := T.NewStruct([]*T.Var{field("n", Int), field("ok", Bool)}, nil)
	myCounter := T.NewStruct([]*T.Var{field("n", MyInt), field("ok", Bool)}, nil)
	wide := T.NewStruct([]*T.Var{field("n", Int64), field("ok", Bool)}, nil)

	empty := T.NewInterfaceType(nil, nil)
	empty.Complete()

	tests := []struct {
		name                string
		declType, allocType T.Type
		expected            bool
	}{
		{"same basic", Int, Int, true},
		{"named int", Int, MyInt, true},
		{"int from named", MyInt, Int, true},
		{"different widths", Int, Int64, false},
		{"different signedness", Int, Uint, false},
		{"bool and int", Bool, Int, false},
		{"float and int", Float, Int, false},
		{"pointers to compatible ints", T.NewPointer(Int), T.NewPointer(MyInt), true},
		{"pointers to different widths", T.NewPointer(Int), T.NewPointer(Int64), false},
		{"nested pointers", T.NewPointer(T.NewPointer(MyInt)), T.NewPointer(T.NewPointer(Int)), true},
		{"arrays", T.NewArray(Int, 2), T.NewArray(MyInt, 2), true},
		{"array lengths", T.NewArray(Int, 2), T.NewArray(Int, 3), false},
		{"slice of array pointer", T.NewSlice(Int), T.NewPointer(T.NewArray(MyInt, 4)), true},
		{"structs", counter, myCounter, true},
		{"struct field widths", counter, wide, false},
		{"interface", empty, Int, true},
	}

	for _, test := range tests {
		if actual := TypeCompat(test.declType, test.allocType); actual != test.expected {
			t.Errorf("%s: expected TypeCompat(%v, %v) = %v, was %v",
				test.name, test.declType, test.allocType, test.expected, actual)
		}
	}
}
