// Package frontend lowers functions in go/ssa form to the IR of the
// zero analysis.
package frontend

import (
	"errors"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/divzero/analysis/ir"
)

// ErrNoBody is returned when lowering a function without a body, e.g. an
// external or assembly function.
var ErrNoBody = errors.New("function has no body")

// Config configures lowering.
type Config struct {
	// InputSources are the functions whose results are external input.
	// Nil means DefaultInputSources.
	InputSources []string
}

// Lowered is the IR of a single SSA function, together with the mapping
// back to the SSA values and instructions it was lowered from.
type Lowered struct {
	Func *ir.Function
	SSA  *ssa.Function

	values map[*ir.Var]ssa.Value
	origin map[int]ssa.Instruction
}

// Value returns the SSA value v was lowered from.
func (l *Lowered) Value(v *ir.Var) (ssa.Value, bool) {
	sv, found := l.values[v]
	return sv, found
}

// Origin returns the SSA instruction instr was lowered from, or nil for
// instructions introduced by lowering.
func (l *Lowered) Origin(instr ir.Instruction) ssa.Instruction {
	return l.origin[instr.ID()]
}

// lowerer is the state of lowering a single function.
type lowerer struct {
	fn      *ssa.Function
	b       *ir.Builder
	types   *typeCache
	sources Matcher

	blocks  []*ir.Block
	vars    map[ssa.Value]*ir.Var
	globals map[*ssa.Global]*ir.Var
	origin  map[ir.Instruction]ssa.Instruction
	havocs  int
}

// Lower translates fn to IR. Functions without a body cannot be lowered.
func Lower(fn *ssa.Function, cfg Config) (*Lowered, error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("%s: %w", fn, ErrNoBody)
	}

	sources := cfg.InputSources
	if sources == nil {
		sources = DefaultInputSources
	}

	l := &lowerer{
		fn:      fn,
		b:       ir.NewBuilder(fn.String()),
		types:   &typeCache{},
		sources: NewMatcher(sources...),
		vars:    make(map[ssa.Value]*ir.Var),
		globals: make(map[*ssa.Global]*ir.Var),
		origin:  make(map[ir.Instruction]ssa.Instruction),
	}
	return l.lower(), nil
}

func (l *lowerer) lower() *Lowered {
	b := l.b
	b.Function().Fset = l.fn.Prog.Fset

	for _, p := range l.fn.Params {
		l.vars[p] = b.Param(p.Name(), l.types.convert(p.Type()))
	}
	for _, fv := range l.fn.FreeVars {
		l.vars[fv] = b.FreeVar(fv.Name(), l.types.convert(fv.Type()))
	}

	// Blocks and result variables are created upfront, since phi nodes may
	// refer to values defined later in the function.
	for _, blk := range l.fn.Blocks {
		var irBlk *ir.Block
		if blk.Index == 0 {
			irBlk = b.Block()
			irBlk.Comment = blk.Comment
		} else {
			irBlk = b.NewBlock(blk.Comment)
		}
		l.blocks = append(l.blocks, irBlk)

		for _, instr := range blk.Instrs {
			if v, ok := instr.(ssa.Value); ok && !isVoid(v) {
				l.vars[v] = b.NewVar(v.Name(), l.types.convert(v.Type()))
			}
		}
	}

	for _, blk := range l.fn.Blocks {
		irBlk := l.blocks[blk.Index]
		for _, p := range blk.Preds {
			irBlk.Preds = append(irBlk.Preds, l.blocks[p.Index])
		}
		for _, s := range blk.Succs {
			irBlk.Succs = append(irBlk.Succs, l.blocks[s.Index])
		}

		b.SetBlock(irBlk)
		for _, instr := range blk.Instrs {
			b.SetPos(instr.Pos())
			l.instruction(instr)
		}
	}

	irFn := b.Finish()

	res := &Lowered{
		Func:   irFn,
		SSA:    l.fn,
		values: make(map[*ir.Var]ssa.Value, len(l.vars)+len(l.globals)),
		origin: make(map[int]ssa.Instruction, len(l.origin)),
	}
	for sv, v := range l.vars {
		res.values[v] = sv
	}
	for g, v := range l.globals {
		res.values[v] = g
	}
	for instr, orig := range l.origin {
		res.origin[instr.ID()] = orig
	}
	return res
}

func isVoid(v ssa.Value) bool {
	t, isTuple := v.Type().(*types.Tuple)
	return isTuple && t.Len() == 0
}

// emit appends instr and remembers the SSA instruction it stems from.
func (l *lowerer) emit(instr ir.Instruction, orig ssa.Instruction) {
	l.b.Emit(instr)
	if orig != nil {
		l.origin[instr] = orig
	}
}

// havoc emits an instruction binding a fresh variable of type t to an
// unconstrained value.
func (l *lowerer) havoc(t *ir.Type, reason string) *ir.Var {
	l.havocs++
	dest := l.b.NewVar(fmt.Sprintf("h%d", l.havocs), t)
	l.emit(&ir.Havoc{Dest: dest, Reason: reason}, nil)
	return dest
}

// operand translates an SSA operand.
func (l *lowerer) operand(v ssa.Value) ir.Value {
	if res, found := l.vars[v]; found {
		return res
	}

	switch v := v.(type) {
	case *ssa.Const:
		return l.constant(v)
	case *ssa.Global:
		if g, found := l.globals[v]; found {
			return g
		}
		g := l.b.Global(v.String(), l.types.convert(v.Type()))
		l.globals[v] = g
		return g
	case *ssa.Function:
		return ir.NewConst(l.types.convert(v.Type()), false, v.String())
	case *ssa.Builtin:
		return ir.NewConst(ir.OtherType, false, v.Name())
	}

	panic(fmt.Errorf("no lowering for operand %s (%T) in %s", v.Name(), v, l.fn))
}

func (l *lowerer) constant(c *ssa.Const) *ir.Const {
	t := l.types.convert(c.Type())
	if c.Value == nil {
		return ir.NewConst(t, true, "nil")
	}

	var zero bool
	switch c.Value.Kind() {
	case constant.Bool:
		zero = !constant.BoolVal(c.Value)
	case constant.Int, constant.Float, constant.Complex:
		zero = constant.Sign(c.Value) == 0
	case constant.String:
		zero = constant.StringVal(c.Value) == ""
	}
	return ir.NewConst(t, zero, c.Value.ExactString())
}

func (l *lowerer) operands(vs []ssa.Value) []ir.Value {
	res := make([]ir.Value, 0, len(vs))
	for _, v := range vs {
		res = append(res, l.operand(v))
	}
	return res
}

// addr translates the address operand of a load or store.
func (l *lowerer) addr(v ssa.Value) *ir.Var {
	if res, ok := l.operand(v).(*ir.Var); ok {
		return res
	}
	// Stores through constant addresses (nil) are left to a variable of the
	// pointer type, which aliases nothing the analysis tracks.
	return l.havoc(l.types.convert(v.Type()), "constant address")
}

var binOps = map[token.Token]ir.Op{
	token.ADD:     ir.Add,
	token.SUB:     ir.Sub,
	token.MUL:     ir.Mul,
	token.QUO:     ir.Div,
	token.REM:     ir.Rem,
	token.AND:     ir.And,
	token.OR:      ir.Or,
	token.XOR:     ir.Xor,
	token.SHL:     ir.Shl,
	token.SHR:     ir.Shr,
	token.AND_NOT: ir.AndNot,
}

var preds = map[token.Token]ir.Pred{
	token.EQL: ir.Eq,
	token.NEQ: ir.Ne,
	token.LSS: ir.Lt,
	token.LEQ: ir.Le,
	token.GTR: ir.Gt,
	token.GEQ: ir.Ge,
}

var unOps = map[token.Token]ir.Op{
	token.SUB: ir.Neg,
	token.NOT: ir.Not,
	token.XOR: ir.Compl,
}

func (l *lowerer) instruction(instr ssa.Instruction) {
	var dest *ir.Var
	if v, ok := instr.(ssa.Value); ok {
		dest = l.vars[v]
	}

	switch instr := instr.(type) {
	case *ssa.Alloc:
		l.emit(&ir.Alloc{Dest: dest}, instr)
		// Allocated memory is zeroed.
		if elem := dest.Type().Elem; elem.Tracked() {
			text := "0"
			if elem.Kind == ir.Bool {
				text = "false"
			}
			l.emit(&ir.Store{Addr: dest, Val: ir.NewConst(elem, true, text)}, nil)
		}

	case *ssa.Phi:
		l.emit(&ir.Phi{Dest: dest, Edges: l.operands(instr.Edges)}, instr)

	case *ssa.BinOp:
		x, y := l.operand(instr.X), l.operand(instr.Y)
		if op, found := binOps[instr.Op]; found {
			l.emit(&ir.BinOp{Dest: dest, Op: op, X: x, Y: y}, instr)
		} else if pred, found := preds[instr.Op]; found && x.Type().Tracked() {
			l.emit(&ir.Cmp{Dest: dest, Pred: pred, X: x, Y: y}, instr)
		} else {
			l.emit(&ir.Havoc{Dest: dest, Reason: "comparison of " + instr.X.Type().String()}, instr)
		}

	case *ssa.UnOp:
		switch instr.Op {
		case token.MUL:
			l.load(dest, instr)
		case token.ARROW:
			l.emit(&ir.Havoc{Dest: dest, Reason: "receive"}, instr)
		default:
			l.emit(&ir.UnOp{Dest: dest, Op: unOps[instr.Op], X: l.operand(instr.X)}, instr)
		}

	case *ssa.Store:
		l.emit(&ir.Store{Addr: l.addr(instr.Addr), Val: l.operand(instr.Val)}, instr)

	case *ssa.Convert:
		if narrowing(instr.X.Type(), instr.Type()) {
			l.emit(&ir.Havoc{Dest: dest, Reason: "narrowing conversion to " + instr.Type().String()}, instr)
		} else {
			l.emit(&ir.Cast{Dest: dest, X: l.operand(instr.X)}, instr)
		}
	case *ssa.ChangeType:
		l.emit(&ir.Cast{Dest: dest, X: l.operand(instr.X)}, instr)
	case *ssa.ChangeInterface:
		l.emit(&ir.Cast{Dest: dest, X: l.operand(instr.X)}, instr)
	case *ssa.MakeInterface:
		l.emit(&ir.Cast{Dest: dest, X: l.operand(instr.X)}, instr)
	case *ssa.Extract:
		l.emit(&ir.Cast{Dest: dest, X: l.operand(instr.Tuple)}, instr)

	case *ssa.Call:
		l.call(dest, instr.Common(), instr)

	case *ssa.Go:
		l.emit(&ir.Effect{Desc: "go " + CalleeName(instr.Common()), Args: l.operands(instr.Call.Args)}, instr)
		l.clobber(instr.Call.Args)
	case *ssa.Defer:
		l.emit(&ir.Effect{Desc: "defer " + CalleeName(instr.Common()), Args: l.operands(instr.Call.Args)}, instr)

	case *ssa.If:
		l.emit(&ir.Branch{Cond: l.operand(instr.Cond)}, instr)
	case *ssa.Jump:
		l.emit(&ir.Branch{}, instr)
	case *ssa.Return:
		l.emit(&ir.Return{Results: l.operands(instr.Results)}, instr)

	case *ssa.Panic:
		l.emit(&ir.Effect{Desc: "panic", Args: []ir.Value{l.operand(instr.X)}}, instr)
	case *ssa.RunDefers:
		l.emit(&ir.Effect{Desc: "rundefers"}, instr)
	case *ssa.MapUpdate:
		l.emit(&ir.Effect{Desc: "map update", Args: l.operands([]ssa.Value{instr.Map, instr.Key, instr.Value})}, instr)
	case *ssa.Send:
		l.emit(&ir.Effect{Desc: "send", Args: l.operands([]ssa.Value{instr.Chan, instr.X})}, instr)
	case *ssa.DebugRef:
		// Not part of the semantics.

	case *ssa.FieldAddr, *ssa.IndexAddr, *ssa.SliceToArrayPointer:
		// Addresses of components are locations of their own, which are only
		// related to other locations through the oracle.
		l.emit(&ir.Havoc{Dest: dest, Reason: "address of " + kindOf(instr)}, instr)

	case *ssa.Field, *ssa.Index, *ssa.Lookup, *ssa.TypeAssert, *ssa.Next, *ssa.Range,
		*ssa.Select, *ssa.Slice, *ssa.MakeMap, *ssa.MakeChan, *ssa.MakeSlice, *ssa.MakeClosure:
		l.emit(&ir.Havoc{Dest: dest, Reason: kindOf(instr)}, instr)

	default:
		l.emit(&ir.Unknown{Dest: dest, Desc: kindOf(instr)}, instr)
	}
}

// load lowers a dereference. Only non-escaping locations allocated by the
// function itself have known contents; anything else may have been written
// by code outside the function and is unconstrained.
func (l *lowerer) load(dest *ir.Var, instr *ssa.UnOp) {
	if alloc, ok := instr.X.(*ssa.Alloc); ok && !alloc.Heap && alloc.Parent() == l.fn {
		l.emit(&ir.Load{Dest: dest, Addr: l.vars[alloc]}, instr)
		return
	}
	l.emit(&ir.Havoc{Dest: dest, Reason: "load from " + kindOf(instr.X)}, instr)
}

func (l *lowerer) call(dest *ir.Var, call *ssa.CallCommon, instr ssa.Instruction) {
	args := l.operands(call.Args)
	name := CalleeName(call)
	if call.IsInvoke() {
		args = append([]ir.Value{l.operand(call.Value)}, args...)
	}

	if dest != nil && l.sources.Match(call) {
		l.emit(&ir.Input{Dest: dest, Source: name, Args: args}, instr)
	} else {
		l.emit(&ir.Call{Dest: dest, Callee: name, Args: args}, instr)
	}
	l.clobber(call.Args)
}

// clobber models writes by a callee through pointers passed to it: every
// tracked location passed as an argument receives an unconstrained value.
func (l *lowerer) clobber(args []ssa.Value) {
	for _, arg := range args {
		addr, ok := l.vars[arg]
		if !ok || !addr.Type().PointsToTracked() {
			continue
		}
		h := l.havoc(addr.Type().Elem, "escaped to callee")
		l.emit(&ir.Store{Addr: addr, Val: h}, nil)
	}
}

// kindOf names the kind of an SSA value or instruction, e.g. "FieldAddr".
func kindOf(x any) string {
	s := fmt.Sprintf("%T", x)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}
