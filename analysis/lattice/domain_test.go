package lattice

import (
	"testing"

	"github.com/cs-au-dk/divzero/analysis/ir"
)

func TestDomainJoin(t *testing.T) {
	tests := []struct{ a, b, expected Domain }{
		{Uninit, Uninit, Uninit},
		{Uninit, Zero, Zero},
		{Zero, NonZero, MaybeZero},
		{NonZero, NonZero, NonZero},
		{MaybeZero, Uninit, MaybeZero},
		{Zero, MaybeZero, MaybeZero},
	}

	for _, test := range tests {
		res := Join(test.a, test.b)
		if res != test.expected {
			t.Errorf("%s ⊔ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		} else {
			t.Logf("%s ⊔ %s = %s\n", test.a, test.b, res)
		}
	}
}

func TestDomainMeet(t *testing.T) {
	tests := []struct{ a, b, expected Domain }{
		{Zero, NonZero, Uninit},
		{MaybeZero, Zero, Zero},
		{MaybeZero, MaybeZero, MaybeZero},
		{Uninit, NonZero, Uninit},
	}

	for _, test := range tests {
		if res := Meet(test.a, test.b); res != test.expected {
			t.Errorf("%s ⊓ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		}
	}
}

func TestDomainLaws(t *testing.T) {
	for _, a := range Domains {
		if a.Join(a) != a {
			t.Errorf("%s ⊔ %s is not idempotent", a, a)
		}
		if !a.Leq(Top) || !Bot.Leq(a) {
			t.Errorf("%s is not between %s and %s", a, Bot, Top)
		}

		for _, b := range Domains {
			if a.Join(b) != b.Join(a) {
				t.Errorf("%s ⊔ %s is not commutative", a, b)
			}
			if a.Meet(b) != b.Meet(a) {
				t.Errorf("%s ⊓ %s is not commutative", a, b)
			}
			// The order is the one induced by join.
			if a.Leq(b) != (a.Join(b) == b) {
				t.Errorf("%s ⊑ %s = %v disagrees with join", a, b, a.Leq(b))
			}
			if a.Leq(b) && b.Leq(a) && a != b {
				t.Errorf("⊑ is not antisymmetric on %s, %s", a, b)
			}
			if !a.Leq(a.Join(b)) || !a.Meet(b).Leq(a) {
				t.Errorf("%s ⊔ %s is not an upper bound or %s ⊓ %s not a lower bound", a, b, a, b)
			}
			if a.Leq(b) && a != b && a.Height() >= b.Height() {
				t.Errorf("Height(%s) = %d should be below Height(%s) = %d",
					a, a.Height(), b, b.Height())
			}
			if a.Geq(b) != b.Leq(a) {
				t.Errorf("%s ⊒ %s disagrees with ⊑", a, b)
			}

			for _, c := range Domains {
				if a.Join(b).Join(c) != a.Join(b.Join(c)) {
					t.Errorf("⊔ is not associative on %s, %s, %s", a, b, c)
				}
			}
		}
	}

	if Zero.Leq(NonZero) || NonZero.Leq(Zero) {
		t.Error("Zero and NonZero should be incomparable")
	}
}

func TestDomainHeight(t *testing.T) {
	expected := map[Domain]int{Uninit: 0, Zero: 1, NonZero: 1, MaybeZero: 2}
	for d, h := range expected {
		if d.Height() != h {
			t.Errorf("Height(%s) = %d, expected %d", d, d.Height(), h)
		}
		if d.Height() > MaxHeight {
			t.Errorf("Height(%s) exceeds the lattice height", d)
		}
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op       ir.Op
		a, b     Domain
		expected Domain
	}{
		{ir.Add, Zero, Zero, Zero},
		{ir.Add, Zero, NonZero, MaybeZero},
		{ir.Add, NonZero, NonZero, MaybeZero},
		{ir.Add, Uninit, NonZero, Uninit},
		{ir.Sub, Zero, Zero, Zero},
		{ir.Sub, NonZero, NonZero, MaybeZero},
		{ir.Mul, Zero, MaybeZero, Zero},
		{ir.Mul, NonZero, Zero, Zero},
		{ir.Mul, NonZero, NonZero, MaybeZero},
		{ir.Mul, Zero, Uninit, Uninit},
		{ir.Div, Zero, NonZero, Zero},
		{ir.Div, NonZero, NonZero, MaybeZero},
		{ir.Div, Zero, Uninit, Uninit},
		{ir.Rem, Zero, MaybeZero, Zero},
		{ir.Rem, MaybeZero, NonZero, MaybeZero},
		{ir.And, Zero, Zero, MaybeZero},
		{ir.Shl, Uninit, Zero, Uninit},
	}

	for _, test := range tests {
		if res := BinOp(test.op, test.a, test.b); res != test.expected {
			t.Errorf("%s %s %s = %s, expected %s", test.a, test.op, test.b, res, test.expected)
		}
	}
}

func TestUnary(t *testing.T) {
	tests := []struct {
		op          ir.Op
		a, expected Domain
	}{
		{ir.Neg, Zero, Zero},
		{ir.Neg, NonZero, NonZero},
		{ir.Neg, MaybeZero, MaybeZero},
		{ir.Not, Zero, NonZero},
		{ir.Not, NonZero, Zero},
		{ir.Not, MaybeZero, MaybeZero},
		{ir.Compl, Zero, NonZero},
		{ir.Compl, NonZero, MaybeZero},
		{ir.Compl, Uninit, Uninit},
	}

	for _, test := range tests {
		if res := UnOp(test.op, test.a); res != test.expected {
			t.Errorf("%s%s = %s, expected %s", test.op, test.a, res, test.expected)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		pred     ir.Pred
		a, b     Domain
		expected Domain
	}{
		{ir.Eq, Zero, Zero, NonZero},
		{ir.Eq, Zero, NonZero, Zero},
		{ir.Eq, NonZero, Zero, Zero},
		{ir.Eq, NonZero, NonZero, MaybeZero},
		{ir.Ne, Zero, Zero, Zero},
		{ir.Ne, NonZero, Zero, NonZero},
		{ir.Ne, MaybeZero, Zero, MaybeZero},
		{ir.Lt, Zero, Zero, Zero},
		{ir.Gt, Zero, NonZero, MaybeZero},
		{ir.Le, Zero, Zero, NonZero},
		{ir.Ge, Zero, Zero, NonZero},
		{ir.Ge, NonZero, Zero, MaybeZero},
		{ir.Eq, Uninit, Zero, Uninit},
	}

	for _, test := range tests {
		if res := Compare(test.pred, test.a, test.b); res != test.expected {
			t.Errorf("%s %s %s = %s, expected %s", test.a, test.pred, test.b, res, test.expected)
		}
	}
}

// All abstract operations must be monotone for the fixpoint iteration to terminate.
func TestMonotonicity(t *testing.T) {
	binary := map[string]func(a, b Domain) Domain{}
	for _, op := range []ir.Op{ir.Add, ir.Sub, ir.Mul, ir.Div, ir.Rem, ir.And, ir.Shr} {
		op := op
		binary[op.String()] = func(a, b Domain) Domain { return BinOp(op, a, b) }
	}
	for _, pred := range []ir.Pred{ir.Eq, ir.Ne, ir.Lt, ir.Le, ir.Gt, ir.Ge} {
		pred := pred
		binary[pred.String()] = func(a, b Domain) Domain { return Compare(pred, a, b) }
	}

	for name, f := range binary {
		for _, a1 := range Domains {
			for _, a2 := range Domains {
				for _, b1 := range Domains {
					for _, b2 := range Domains {
						if a1.Leq(a2) && b1.Leq(b2) && !f(a1, b1).Leq(f(a2, b2)) {
							t.Errorf("%s is not monotone: %s %s %s = %s, %s %s %s = %s",
								name, a1, name, b1, f(a1, b1), a2, name, b2, f(a2, b2))
						}
					}
				}
			}
		}
	}

	for _, op := range []ir.Op{ir.Neg, ir.Not, ir.Compl} {
		for _, a := range Domains {
			for _, b := range Domains {
				if a.Leq(b) && !UnOp(op, a).Leq(UnOp(op, b)) {
					t.Errorf("%s is not monotone on %s ⊑ %s", op, a, b)
				}
			}
		}
	}
}

func TestMayBeZero(t *testing.T) {
	expected := map[Domain]bool{Uninit: false, Zero: true, NonZero: false, MaybeZero: true}
	for d, res := range expected {
		if d.MayBeZero() != res {
			t.Errorf("MayBeZero(%s) = %v, expected %v", d, d.MayBeZero(), res)
		}
	}
}

func TestFromConst(t *testing.T) {
	if d := FromConst(ir.NewInt(0)); d != Zero {
		t.Errorf("0 folds to %s", d)
	}
	if d := FromConst(ir.NewInt(-3)); d != NonZero {
		t.Errorf("-3 folds to %s", d)
	}
	if d := FromConst(ir.NewBool(false)); d != Zero {
		t.Errorf("false folds to %s", d)
	}
}
