package lattice

import (
	"github.com/cs-au-dk/divzero/analysis/ir"
)

// Domain abstracts an integer by whether it may be zero.
//
//	     MaybeZero
//	     /      \
//	  Zero    NonZero
//	     \      /
//	      Uninit
//
// The encoding is a bitset over {zero, non-zero}, making join and meet
// bitwise operations.
type Domain uint8

const (
	Uninit    Domain = 0
	Zero      Domain = 1
	NonZero   Domain = 2
	MaybeZero Domain = Zero | NonZero
)

var (
	Bot = Uninit
	Top = MaybeZero
)

// Domains lists every element of the lattice, bottom first.
var Domains = [...]Domain{Uninit, Zero, NonZero, MaybeZero}

// FromConst folds a constant into the domain.
func FromConst(c *ir.Const) Domain {
	if c.IsZero() {
		return Zero
	}
	return NonZero
}

func (d Domain) String() string {
	switch d {
	case Uninit:
		return "Uninit"
	case Zero:
		return "Zero"
	case NonZero:
		return "NonZero"
	case MaybeZero:
		return "MaybeZero"
	}
	panic(errPatternMatch(uint8(d)))
}

// Colorized renders the element for terminal output.
func (d Domain) Colorized() string {
	switch d {
	case Zero:
		return colorize.Zero(d.String())
	case MaybeZero:
		return colorize.Maybe(d.String())
	}
	return colorize.Element(d.String())
}

func (d Domain) Join(o Domain) Domain { return d | o }
func (d Domain) Meet(o Domain) Domain { return d & o }
func (d Domain) Leq(o Domain) bool    { return d&^o == 0 }
func (d Domain) Geq(o Domain) bool    { return o.Leq(d) }
func (d Domain) Eq(o Domain) bool     { return d == o }

// Height is the length of the longest chain from bottom to d.
func (d Domain) Height() int {
	switch d {
	case Uninit:
		return 0
	case Zero, NonZero:
		return 1
	}
	return 2
}

// MaxHeight is the height of the lattice.
const MaxHeight = 2

// MayBeZero is true if a divisor abstracted by d may be zero.
func (d Domain) MayBeZero() bool {
	return d == Zero || d == MaybeZero
}

// Join is the least upper bound of a and b.
func Join(a, b Domain) Domain { return a.Join(b) }

// Meet is the greatest lower bound of a and b.
func Meet(a, b Domain) Domain { return a.Meet(b) }

// Add abstracts addition. Only sums of zeroes are known to be zero.
func Add(a, b Domain) Domain {
	switch {
	case a == Uninit || b == Uninit:
		return Uninit
	case a == Zero && b == Zero:
		return Zero
	}
	return MaybeZero
}

// Sub abstracts subtraction like Add.
func Sub(a, b Domain) Domain {
	return Add(a, b)
}

// Mul abstracts multiplication. A zero factor makes the product zero.
func Mul(a, b Domain) Domain {
	switch {
	case a == Uninit || b == Uninit:
		return Uninit
	case a == Zero || b == Zero:
		return Zero
	}
	return MaybeZero
}

// Div abstracts the quotient. A zero dividend makes the quotient zero.
func Div(a, b Domain) Domain {
	switch {
	case a == Uninit || b == Uninit:
		return Uninit
	case a == Zero:
		return Zero
	}
	return MaybeZero
}

// Rem abstracts the remainder like Div.
func Rem(a, b Domain) Domain {
	return Div(a, b)
}

// Neg abstracts arithmetic negation, which preserves zero-ness.
func Neg(a Domain) Domain {
	return a
}

// Not abstracts boolean negation, where false is zero.
func Not(a Domain) Domain {
	switch a {
	case Zero:
		return NonZero
	case NonZero:
		return Zero
	}
	return a
}

// Compl abstracts bitwise complement. Only ^0 is known to be non-zero.
func Compl(a Domain) Domain {
	switch a {
	case Uninit:
		return Uninit
	case Zero:
		return NonZero
	}
	return MaybeZero
}

// BinOp dispatches an IR operator to its abstraction. Operators without a
// dedicated rule yield MaybeZero.
func BinOp(op ir.Op, a, b Domain) Domain {
	switch op {
	case ir.Add:
		return Add(a, b)
	case ir.Sub:
		return Sub(a, b)
	case ir.Mul:
		return Mul(a, b)
	case ir.Div:
		return Div(a, b)
	case ir.Rem:
		return Rem(a, b)
	}
	if a == Uninit || b == Uninit {
		return Uninit
	}
	return MaybeZero
}

// UnOp dispatches a unary IR operator to its abstraction.
func UnOp(op ir.Op, a Domain) Domain {
	switch op {
	case ir.Neg:
		return Neg(a)
	case ir.Not:
		return Not(a)
	case ir.Compl:
		return Compl(a)
	}
	if a == Uninit {
		return Uninit
	}
	return MaybeZero
}

// Compare abstracts the boolean result of comparing a and b.
func Compare(pred ir.Pred, a, b Domain) Domain {
	if a == Uninit || b == Uninit {
		return Uninit
	}

	bothZero := a == Zero && b == Zero
	zeroVsNonZero := (a == Zero && b == NonZero) || (a == NonZero && b == Zero)

	switch pred {
	case ir.Eq:
		switch {
		case bothZero:
			return NonZero
		case zeroVsNonZero:
			return Zero
		}
	case ir.Ne:
		switch {
		case bothZero:
			return Zero
		case zeroVsNonZero:
			return NonZero
		}
	case ir.Lt, ir.Gt:
		if bothZero {
			return Zero
		}
	case ir.Le, ir.Ge:
		if bothZero {
			return NonZero
		}
	default:
		panic(errPatternMatch(pred))
	}
	return MaybeZero
}
