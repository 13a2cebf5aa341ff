package ir

import (
	"fmt"
	"go/token"
)

// Builder constructs a Function. Instructions are appended to the current
// block; edges between blocks are added explicitly or by Jump and If.
//
//	b := ir.NewBuilder("f")
//	x := b.Input("x", ir.IntType, "getchar")
//	b.Return(b.BinOp(ir.Div, ir.NewInt(10), x))
//	fn := b.Finish()
type Builder struct {
	fn  *Function
	cur *Block
	pos token.Pos
}

// NewBuilder creates a builder for a function with a single, current, entry block.
func NewBuilder(name string) *Builder {
	b := &Builder{fn: &Function{Name: name}}
	b.cur = b.NewBlock("entry")
	return b
}

// Function returns the function under construction.
func (b *Builder) Function() *Function { return b.fn }

func (b *Builder) newVar(name string, typ *Type, kind VarKind) *Var {
	if typ == nil {
		typ = OtherType
	}
	v := &Var{
		id:   len(b.fn.vars),
		name: name,
		typ:  typ,
		kind: kind,
	}
	if name == "" {
		v.name = fmt.Sprintf("t%d", v.id)
	}
	b.fn.vars = append(b.fn.vars, v)
	return v
}

// Param adds a parameter to the function.
func (b *Builder) Param(name string, typ *Type) *Var {
	v := b.newVar(name, typ, Param)
	b.fn.Params = append(b.fn.Params, v)
	return v
}

// FreeVar adds a captured variable to the function.
func (b *Builder) FreeVar(name string, typ *Type) *Var {
	v := b.newVar(name, typ, FreeVar)
	b.fn.FreeVars = append(b.fn.FreeVars, v)
	return v
}

// Global creates a package level location referenced by the function.
func (b *Builder) Global(name string, typ *Type) *Var {
	return b.newVar(name, typ, Global)
}

// NewVar creates a local variable. It becomes defined once an instruction
// using it as a result is emitted. An empty name is replaced by a fresh one.
func (b *Builder) NewVar(name string, typ *Type) *Var {
	return b.newVar(name, typ, Local)
}

// NewBlock appends a new block to the function without changing the current block.
func (b *Builder) NewBlock(comment string) *Block {
	blk := &Block{
		Index:   len(b.fn.Blocks),
		Comment: comment,
		parent:  b.fn,
	}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

func (b *Builder) Block() *Block { return b.cur }

// SetBlock redirects subsequent instructions to blk.
func (b *Builder) SetBlock(blk *Block) {
	if blk.parent != b.fn {
		panic(fmt.Errorf("block %s does not belong to %s", blk, b.fn.Name))
	}
	b.cur = blk
}

// SetPos sets the source position of subsequently emitted instructions.
func (b *Builder) SetPos(pos token.Pos) { b.pos = pos }

// AddEdge adds a control flow edge between two blocks.
func (b *Builder) AddEdge(from, to *Block) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// Emit appends an instruction to the current block.
func (b *Builder) Emit(instr Instruction) Instruction {
	base := instr.base()
	if base.block != nil {
		panic(fmt.Errorf("instruction %s emitted twice", instr))
	}
	base.block = b.cur
	base.index = len(b.cur.Instrs)
	base.pos = b.pos
	if res := instr.Result(); res != nil {
		if res.def != nil || res.kind != Local {
			panic(fmt.Errorf("variable %s is already defined", res))
		}
		res.def = instr
	}
	b.cur.Instrs = append(b.cur.Instrs, instr)
	return instr
}

func (b *Builder) Input(name string, typ *Type, source string, args ...Value) *Var {
	dest := b.NewVar(name, typ)
	b.Emit(&Input{Dest: dest, Source: source, Args: args})
	return dest
}

func (b *Builder) Havoc(typ *Type, reason string) *Var {
	dest := b.NewVar("", typ)
	b.Emit(&Havoc{Dest: dest, Reason: reason})
	return dest
}

// Phi emits a phi node. Edges may be appended to the returned instruction
// until Finish is called, which is convenient for loops.
func (b *Builder) Phi(typ *Type, edges ...Value) *Phi {
	phi := &Phi{Dest: b.NewVar("", typ), Edges: edges}
	b.Emit(phi)
	return phi
}

// BinOp emits a binary operation. The result has the type of x.
func (b *Builder) BinOp(op Op, x, y Value) *Var {
	if op.IsUnary() {
		panic(fmt.Errorf("%s is not a binary operator", op))
	}
	dest := b.NewVar("", x.Type())
	b.Emit(&BinOp{Dest: dest, Op: op, X: x, Y: y})
	return dest
}

func (b *Builder) UnOp(op Op, x Value) *Var {
	if !op.IsUnary() {
		panic(fmt.Errorf("%s is not a unary operator", op))
	}
	dest := b.NewVar("", x.Type())
	b.Emit(&UnOp{Dest: dest, Op: op, X: x})
	return dest
}

func (b *Builder) Cast(typ *Type, x Value) *Var {
	dest := b.NewVar("", typ)
	b.Emit(&Cast{Dest: dest, X: x})
	return dest
}

func (b *Builder) Cmp(pred Pred, x, y Value) *Var {
	dest := b.NewVar("", BoolType)
	b.Emit(&Cmp{Dest: dest, Pred: pred, X: x, Y: y})
	return dest
}

// Alloc emits an allocation of a location holding values of type elem.
func (b *Builder) Alloc(name string, elem *Type) *Var {
	dest := b.NewVar(name, PointerTo(elem))
	b.Emit(&Alloc{Dest: dest})
	return dest
}

func (b *Builder) Store(addr *Var, val Value) {
	b.Emit(&Store{Addr: addr, Val: val})
}

func (b *Builder) Load(addr *Var) *Var {
	elem := OtherType
	if t := addr.Type(); t.Kind == Pointer && t.Elem != nil {
		elem = t.Elem
	}
	dest := b.NewVar("", elem)
	b.Emit(&Load{Dest: dest, Addr: addr})
	return dest
}

// Call emits a call. A nil result type yields a call without a result.
func (b *Builder) Call(callee string, typ *Type, args ...Value) *Var {
	var dest *Var
	if typ != nil {
		dest = b.NewVar("", typ)
	}
	b.Emit(&Call{Dest: dest, Callee: callee, Args: args})
	return dest
}

// Jump ends the current block with an unconditional jump to target.
func (b *Builder) Jump(target *Block) {
	b.Emit(&Branch{})
	b.AddEdge(b.cur, target)
}

// If ends the current block with a conditional branch.
func (b *Builder) If(cond Value, then, els *Block) {
	b.Emit(&Branch{Cond: cond})
	b.AddEdge(b.cur, then)
	b.AddEdge(b.cur, els)
}

func (b *Builder) Return(results ...Value) {
	b.Emit(&Return{Results: results})
}

// Finish validates the function, numbers its instructions and computes the
// instruction-level control flow graph. The builder must not be used afterwards.
func (b *Builder) Finish() *Function {
	for _, blk := range b.fn.Blocks {
		for _, instr := range blk.Instrs {
			if phi, ok := instr.(*Phi); ok && len(phi.Edges) != len(blk.Preds) {
				panic(fmt.Errorf("%s in %s has %d edges but the block has %d predecessors",
					phi, blk, len(phi.Edges), len(blk.Preds)))
			}
		}
	}

	b.fn.link()
	fn := b.fn
	b.fn, b.cur = nil, nil
	return fn
}
