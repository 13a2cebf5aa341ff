package ir

import (
	"fmt"
	"go/token"
	"strings"
)

// Instruction is the sum type of IR instruction kinds. The set of kinds is
// closed; consumers match on it with a type switch.
type Instruction interface {
	// Block is the basic block containing the instruction.
	Block() *Block
	// Index is the position of the instruction in its block.
	Index() int
	// ID is the position of the instruction in the function, unique per function.
	ID() int
	Pos() token.Pos
	// Result returns the variable defined by the instruction, if any.
	Result() *Var
	// Operands lists the values read by the instruction.
	Operands() []Value
	String() string

	base() *anInstruction
}

type anInstruction struct {
	block *Block
	index int
	id    int
	pos   token.Pos
}

func (i *anInstruction) Block() *Block        { return i.block }
func (i *anInstruction) Index() int           { return i.index }
func (i *anInstruction) ID() int              { return i.id }
func (i *anInstruction) Pos() token.Pos       { return i.pos }
func (i *anInstruction) base() *anInstruction { return i }

type (
	// Input reads external input (e.g. getchar). The result is unconstrained.
	Input struct {
		anInstruction
		Dest   *Var
		Source string
		Args   []Value
	}

	// Havoc produces a value the zero model does not follow, such as a map
	// lookup or a channel receive.
	Havoc struct {
		anInstruction
		Dest   *Var
		Reason string
	}

	// Phi merges values at control flow joins. Edges[i] flows in from
	// Block().Preds[i].
	Phi struct {
		anInstruction
		Dest  *Var
		Edges []Value
	}

	BinOp struct {
		anInstruction
		Dest *Var
		Op   Op
		X, Y Value
	}

	UnOp struct {
		anInstruction
		Dest *Var
		Op   Op
		X    Value
	}

	// Cast converts a value without changing whether it is zero.
	Cast struct {
		anInstruction
		Dest *Var
		X    Value
	}

	Cmp struct {
		anInstruction
		Dest *Var
		Pred Pred
		X, Y Value
	}

	// Alloc reserves a memory location. Dest is a pointer to it.
	Alloc struct {
		anInstruction
		Dest *Var
	}

	// Store writes Val to the location Addr points to.
	Store struct {
		anInstruction
		Addr *Var
		Val  Value
	}

	// Load reads the location Addr points to.
	Load struct {
		anInstruction
		Dest *Var
		Addr *Var
	}

	// Branch transfers control to the successors of the block. Cond is nil
	// for unconditional jumps.
	Branch struct {
		anInstruction
		Cond Value
	}

	// Call invokes a function outside the analysed procedure. Dest is nil if
	// the call has no results.
	Call struct {
		anInstruction
		Dest   *Var
		Callee string
		Args   []Value
	}

	Return struct {
		anInstruction
		Results []Value
	}

	// Effect is an instruction with side effects outside the zero model, such
	// as a channel send or a map update. It defines no variable.
	Effect struct {
		anInstruction
		Desc string
		Args []Value
	}

	// Unknown is an instruction the front end could not classify.
	Unknown struct {
		anInstruction
		Dest *Var
		Desc string
		Args []Value
	}
)

// Op is an arithmetic or bitwise operator.
type Op uint8

const (
	Add Op = iota
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Shl
	Shr
	AndNot
	Neg
	Not
	Compl
)

var opStrings = [...]string{
	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Div:    "/",
	Rem:    "%",
	And:    "&",
	Or:     "|",
	Xor:    "^",
	Shl:    "<<",
	Shr:    ">>",
	AndNot: "&^",
	Neg:    "-",
	Not:    "!",
	Compl:  "^",
}

func (o Op) String() string {
	if int(o) < len(opStrings) {
		return opStrings[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// IsDivision is true for operators that trap on a zero divisor.
func (o Op) IsDivision() bool {
	return o == Div || o == Rem
}

// IsUnary is true for the operators of UnOp.
func (o Op) IsUnary() bool {
	return o >= Neg
}

// Pred is a comparison predicate.
type Pred uint8

const (
	Eq Pred = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var predStrings = [...]string{
	Eq: "==",
	Ne: "!=",
	Lt: "<",
	Le: "<=",
	Gt: ">",
	Ge: ">=",
}

func (p Pred) String() string {
	if int(p) < len(predStrings) {
		return predStrings[p]
	}
	return fmt.Sprintf("pred(%d)", p)
}

func (i *Input) Result() *Var   { return i.Dest }
func (i *Havoc) Result() *Var   { return i.Dest }
func (i *Phi) Result() *Var     { return i.Dest }
func (i *BinOp) Result() *Var   { return i.Dest }
func (i *UnOp) Result() *Var    { return i.Dest }
func (i *Cast) Result() *Var    { return i.Dest }
func (i *Cmp) Result() *Var     { return i.Dest }
func (i *Alloc) Result() *Var   { return i.Dest }
func (i *Store) Result() *Var   { return nil }
func (i *Load) Result() *Var    { return i.Dest }
func (i *Branch) Result() *Var  { return nil }
func (i *Call) Result() *Var    { return i.Dest }
func (i *Return) Result() *Var  { return nil }
func (i *Effect) Result() *Var  { return nil }
func (i *Unknown) Result() *Var { return i.Dest }

func (i *Input) Operands() []Value   { return i.Args }
func (i *Havoc) Operands() []Value   { return nil }
func (i *Phi) Operands() []Value     { return i.Edges }
func (i *BinOp) Operands() []Value   { return []Value{i.X, i.Y} }
func (i *UnOp) Operands() []Value    { return []Value{i.X} }
func (i *Cast) Operands() []Value    { return []Value{i.X} }
func (i *Cmp) Operands() []Value     { return []Value{i.X, i.Y} }
func (i *Alloc) Operands() []Value   { return nil }
func (i *Store) Operands() []Value   { return []Value{i.Addr, i.Val} }
func (i *Load) Operands() []Value    { return []Value{i.Addr} }
func (i *Call) Operands() []Value    { return i.Args }
func (i *Return) Operands() []Value  { return i.Results }
func (i *Effect) Operands() []Value  { return i.Args }
func (i *Unknown) Operands() []Value { return i.Args }
func (i *Branch) Operands() []Value {
	if i.Cond == nil {
		return nil
	}
	return []Value{i.Cond}
}

func join(vs []Value) string {
	strs := make([]string, 0, len(vs))
	for _, v := range vs {
		strs = append(strs, v.String())
	}
	return strings.Join(strs, ", ")
}

func (i *Input) String() string {
	return fmt.Sprintf("%s = input %s(%s)", i.Dest, i.Source, join(i.Args))
}

func (i *Havoc) String() string {
	return fmt.Sprintf("%s = havoc %s", i.Dest, i.Reason)
}

func (i *Phi) String() string {
	edges := make([]string, 0, len(i.Edges))
	for j, e := range i.Edges {
		if i.block != nil && j < len(i.block.Preds) {
			edges = append(edges, fmt.Sprintf("b%d: %s", i.block.Preds[j].Index, e))
		} else {
			edges = append(edges, e.String())
		}
	}
	return fmt.Sprintf("%s = phi [%s]", i.Dest, strings.Join(edges, ", "))
}

func (i *BinOp) String() string {
	return fmt.Sprintf("%s = %s %s %s", i.Dest, i.X, i.Op, i.Y)
}

func (i *UnOp) String() string {
	return fmt.Sprintf("%s = %s%s", i.Dest, i.Op, i.X)
}

func (i *Cast) String() string {
	return fmt.Sprintf("%s = cast %s to %s", i.Dest, i.X, i.Dest.Type())
}

func (i *Cmp) String() string {
	return fmt.Sprintf("%s = %s %s %s", i.Dest, i.X, i.Pred, i.Y)
}

func (i *Alloc) String() string {
	elem := OtherType
	if t := i.Dest.Type(); t.Kind == Pointer && t.Elem != nil {
		elem = t.Elem
	}
	return fmt.Sprintf("%s = alloc %s", i.Dest, elem)
}

func (i *Store) String() string {
	return fmt.Sprintf("*%s = %s", i.Addr, i.Val)
}

func (i *Load) String() string {
	return fmt.Sprintf("%s = *%s", i.Dest, i.Addr)
}

func (i *Branch) String() string {
	var succs []string
	if i.block != nil {
		for _, s := range i.block.Succs {
			succs = append(succs, fmt.Sprintf("b%d", s.Index))
		}
	}
	if i.Cond == nil {
		return "jump " + strings.Join(succs, ", ")
	}
	return fmt.Sprintf("if %s goto %s", i.Cond, strings.Join(succs, ", "))
}

func (i *Call) String() string {
	call := fmt.Sprintf("call %s(%s)", i.Callee, join(i.Args))
	if i.Dest == nil {
		return call
	}
	return fmt.Sprintf("%s = %s", i.Dest, call)
}

func (i *Return) String() string {
	if len(i.Results) == 0 {
		return "return"
	}
	return "return " + join(i.Results)
}

func (i *Effect) String() string {
	if len(i.Args) == 0 {
		return i.Desc
	}
	return fmt.Sprintf("%s %s", i.Desc, join(i.Args))
}

func (i *Unknown) String() string {
	str := fmt.Sprintf("unknown %s", i.Desc)
	if i.Dest != nil {
		str = fmt.Sprintf("%s = %s", i.Dest, str)
	}
	return str
}

// Kind returns a short name for the kind of the instruction.
func Kind(i Instruction) string {
	switch i.(type) {
	case *Input:
		return "Input"
	case *Havoc:
		return "Havoc"
	case *Phi:
		return "Phi"
	case *BinOp:
		return "BinOp"
	case *UnOp:
		return "UnOp"
	case *Cast:
		return "Cast"
	case *Cmp:
		return "Cmp"
	case *Alloc:
		return "Alloc"
	case *Store:
		return "Store"
	case *Load:
		return "Load"
	case *Branch:
		return "Branch"
	case *Call:
		return "Call"
	case *Return:
		return "Return"
	case *Effect:
		return "Effect"
	case *Unknown:
		return "Unknown"
	}
	return fmt.Sprintf("%T", i)
}

var (
	_ Instruction = (*Input)(nil)
	_ Instruction = (*Havoc)(nil)
	_ Instruction = (*Phi)(nil)
	_ Instruction = (*BinOp)(nil)
	_ Instruction = (*UnOp)(nil)
	_ Instruction = (*Cast)(nil)
	_ Instruction = (*Cmp)(nil)
	_ Instruction = (*Alloc)(nil)
	_ Instruction = (*Store)(nil)
	_ Instruction = (*Load)(nil)
	_ Instruction = (*Branch)(nil)
	_ Instruction = (*Call)(nil)
	_ Instruction = (*Return)(nil)
	_ Instruction = (*Effect)(nil)
	_ Instruction = (*Unknown)(nil)
)
