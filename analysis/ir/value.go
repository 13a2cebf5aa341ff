package ir

import (
	"strconv"
)

// Value is an operand of an instruction: either a constant or a variable.
type Value interface {
	Type() *Type
	String() string

	aValue()
}

// Const is a literal. Constants are folded into the zero domain on use and
// never occupy memory.
type Const struct {
	typ  *Type
	zero bool
	text string
}

func (*Const) aValue() {}

// NewConst creates a constant of the given type. text is only used for printing.
func NewConst(typ *Type, zero bool, text string) *Const {
	return &Const{typ, zero, text}
}

// NewInt creates an integer constant.
func NewInt(v int64) *Const {
	return &Const{IntType, v == 0, strconv.FormatInt(v, 10)}
}

// NewBool creates a boolean constant. false is zero.
func NewBool(b bool) *Const {
	return &Const{BoolType, !b, strconv.FormatBool(b)}
}

func (c *Const) Type() *Type  { return c.typ }
func (c *Const) IsZero() bool { return c.zero }
func (c *Const) String() string {
	return c.text
}

// VarKind distinguishes the different roles a variable may have.
type VarKind uint8

const (
	// Local is the result of an instruction in the function.
	Local VarKind = iota
	// Param is a function parameter.
	Param
	// FreeVar is a variable captured by a closure.
	FreeVar
	// Global is a package level memory location.
	Global
)

func (k VarKind) String() string {
	switch k {
	case Param:
		return "param"
	case FreeVar:
		return "freevar"
	case Global:
		return "global"
	}
	return "local"
}

// Var is a stable handle for a variable. Variables are compared by identity,
// and their ID is unique within the enclosing function.
type Var struct {
	id   int
	name string
	typ  *Type
	kind VarKind
	def  Instruction
}

func (*Var) aValue() {}

func (v *Var) ID() int           { return v.id }
func (v *Var) Name() string      { return v.name }
func (v *Var) Type() *Type       { return v.typ }
func (v *Var) Kind() VarKind     { return v.kind }
func (v *Var) String() string    { return v.name }
func (v *Var) Hash() uint32      { return uint32(v.id) }
func (v *Var) Equal(o *Var) bool { return v == o }

// Def returns the instruction defining the variable, or nil for parameters,
// free variables and globals.
func (v *Var) Def() Instruction { return v.def }

// IsInput is true for variables holding unconstrained values supplied by the
// caller of the function.
func (v *Var) IsInput() bool {
	return v.kind == Param || v.kind == FreeVar
}
