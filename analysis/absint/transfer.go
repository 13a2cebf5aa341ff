package absint

import (
	"github.com/cs-au-dk/divzero/analysis/ir"
	L "github.com/cs-au-dk/divzero/analysis/lattice"
	"github.com/cs-au-dk/divzero/analysis/oracle"
)

// Env is the read-only context of the transfer function.
type Env struct {
	Oracle oracle.Oracle
	// PointerSet are the locations a store may write through when its
	// destination aliases them.
	PointerSet []*ir.Var
	Sink       Sink
}

// Eval abstracts an operand in memory m. Constants are folded, parameters
// and free variables are unconstrained, and other variables are looked up.
func Eval(v ir.Value, m L.Memory) L.Domain {
	switch v := v.(type) {
	case *ir.Const:
		return L.FromConst(v)
	case *ir.Var:
		if v.IsInput() && v.Type().Tracked() {
			return L.MaybeZero
		}
		d, _ := m.Get(v)
		return d
	}
	panic(errPatternMatch(v))
}

// define binds the result of an instruction if its type is tracked.
func define(m L.Memory, dest *ir.Var, d L.Domain) L.Memory {
	if dest == nil || !dest.Type().Tracked() {
		return m
	}
	return m.Update(dest, d)
}

// Transfer computes the memory after instr, given the memory before it.
// Divisions whose divisor may be zero are reported to env.Sink.
func Transfer(instr ir.Instruction, in L.Memory, env Env) L.Memory {
	switch instr := instr.(type) {
	case *ir.Input:
		return define(in, instr.Dest, L.MaybeZero)

	case *ir.Havoc:
		return define(in, instr.Dest, L.MaybeZero)

	case *ir.Phi:
		return define(in, instr.Dest, transferPhi(instr, in))

	case *ir.BinOp:
		x, y := Eval(instr.X, in), Eval(instr.Y, in)
		if instr.Op.IsDivision() && instr.Dest.Type().IsInteger() && y.MayBeZero() {
			env.Sink.Report(newFinding(instr, y))
		}
		return define(in, instr.Dest, L.BinOp(instr.Op, x, y))

	case *ir.UnOp:
		return define(in, instr.Dest, L.UnOp(instr.Op, Eval(instr.X, in)))

	case *ir.Cast:
		d := L.MaybeZero
		// Zero-ness is only known for tracked operands. A nonzero float
		// constant may still truncate to zero.
		if instr.X.Type().Tracked() {
			d = Eval(instr.X, in)
		}
		return define(in, instr.Dest, d)

	case *ir.Cmp:
		return define(in, instr.Dest, L.Compare(instr.Pred, Eval(instr.X, in), Eval(instr.Y, in)))

	case *ir.Store:
		return transferStore(instr, in, env)

	case *ir.Load:
		d, found := in.Get(instr.Addr)
		if !found {
			d = L.Uninit
		}
		return define(in, instr.Dest, d)

	case *ir.Call:
		return define(in, instr.Dest, L.MaybeZero)

	case *ir.Branch, *ir.Return, *ir.Alloc, *ir.Effect:
		return in

	default:
		env.Sink.Unhandled(instr)
		return in
	}
}

// transferPhi merges the incoming values. If every incoming value other than
// the phi itself is the same constant, the constant is adopted directly.
func transferPhi(phi *ir.Phi, in L.Memory) L.Domain {
	var cnst *ir.Const
	sameConst := true
	for _, e := range phi.Edges {
		if e == ir.Value(phi.Dest) {
			continue
		}
		c, ok := e.(*ir.Const)
		switch {
		case !ok:
			sameConst = false
		case cnst == nil:
			cnst = c
		case c.String() != cnst.String() || c.IsZero() != cnst.IsZero():
			sameConst = false
		}
	}
	if sameConst && cnst != nil {
		return L.FromConst(cnst)
	}

	d := L.Uninit
	for _, e := range phi.Edges {
		d = d.Join(Eval(e, in))
	}
	return d
}

// transferStore writes the stored value to the destination. Every location
// that may alias the destination is weakly updated: the destination and its
// aliases all receive the join of the stored value and the aliases' values.
func transferStore(store *ir.Store, in L.Memory, env Env) L.Memory {
	if !store.Val.Type().Tracked() {
		return in
	}

	d := Eval(store.Val, in)

	var aliases []*ir.Var
	for _, loc := range env.PointerSet {
		if loc != store.Addr && env.Oracle.Alias(store.Addr, loc) {
			aliases = append(aliases, loc)
			ad, _ := in.Get(loc)
			d = d.Join(ad)
		}
	}

	out := in.Update(store.Addr, d)
	for _, loc := range aliases {
		out = out.Update(loc, d)
	}
	return out
}
