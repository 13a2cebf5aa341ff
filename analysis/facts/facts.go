// Package facts extracts Datalog style relations from IR functions, for use
// by external solvers. Each relation is written to its own tab separated
// .facts file.
package facts

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cs-au-dk/divzero/analysis/frontend"
	"github.com/cs-au-dk/divzero/analysis/ir"
	"github.com/cs-au-dk/divzero/utils"
)

type Relation int

const (
	// Def relates a variable to the instruction defining it.
	Def Relation = iota
	// Use relates a variable to an instruction reading it.
	Use
	// Div relates a divisor to the division using it.
	Div
	Taint
	Sanitizer
	// Next relates an instruction to its successors.
	Next
)

// Relations lists every relation in the order they are written.
var Relations = []Relation{Def, Use, Div, Taint, Sanitizer, Next}

var relationNames = [...]string{
	Def:       "def",
	Use:       "use",
	Div:       "div",
	Taint:     "taint",
	Sanitizer: "sanitizer",
	Next:      "next",
}

func (r Relation) String() string {
	return relationNames[r]
}

// File is the name of the file holding the relation.
func (r Relation) File() string {
	return relationNames[r] + ".facts"
}

type Config struct {
	// TaintSources are calls producing tainted values. Input instructions
	// are always taint sources.
	TaintSources []string
	Sanitizers   []string
}

// Extractor accumulates the relations of any number of functions.
type Extractor struct {
	taint      frontend.Matcher
	sanitizers frontend.Matcher
	rows       [len(relationNames)][][]string
}

func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		taint:      frontend.NewMatcher(cfg.TaintSources...),
		sanitizers: frontend.NewMatcher(cfg.Sanitizers...),
	}
}

// Instruction labels are qualified by the function, as are local variables.
func instrLabel(fn *ir.Function, i ir.Instruction) string {
	return fmt.Sprintf("%s:%d", fn.Name, i.ID())
}

func varLabel(fn *ir.Function, v *ir.Var) string {
	if v.Kind() == ir.Global {
		return v.Name()
	}
	return fn.Name + ":" + v.Name()
}

func (e *Extractor) add(r Relation, cols ...string) {
	e.rows[r] = append(e.rows[r], cols)
}

func (e *Extractor) def(fn *ir.Function, v *ir.Var, i ir.Instruction) {
	if v != nil {
		e.add(Def, varLabel(fn, v), instrLabel(fn, i))
	}
}

// Constants are never recorded as uses or divisors.
func (e *Extractor) use(fn *ir.Function, r Relation, val ir.Value, i ir.Instruction) {
	if v, ok := val.(*ir.Var); ok {
		e.add(r, varLabel(fn, v), instrLabel(fn, i))
	}
}

// Extract records the relations of fn.
func (e *Extractor) Extract(fn *ir.Function) {
	for _, i := range fn.Instrs() {
		for _, pred := range fn.Preds(i) {
			e.add(Next, instrLabel(fn, pred), instrLabel(fn, i))
		}

		switch i := i.(type) {
		case *ir.Alloc:
			// Declares a location without writing it.
		case *ir.Store:
			e.def(fn, i.Addr, i)
			e.use(fn, Use, i.Val, i)
		case *ir.Input:
			e.def(fn, i.Dest, i)
			for _, arg := range i.Args {
				e.use(fn, Use, arg, i)
			}
			e.add(Taint, instrLabel(fn, i))
		case *ir.Call:
			e.def(fn, i.Dest, i)
			for _, arg := range i.Args {
				e.use(fn, Use, arg, i)
			}
			switch {
			case e.taint.MatchName(i.Callee):
				e.add(Taint, instrLabel(fn, i))
			case e.sanitizers.MatchName(i.Callee):
				e.add(Sanitizer, instrLabel(fn, i))
			}
		case *ir.BinOp:
			e.def(fn, i.Dest, i)
			e.use(fn, Use, i.X, i)
			e.use(fn, Use, i.Y, i)
			if i.Op.IsDivision() && i.Dest.Type().IsInteger() {
				e.use(fn, Div, i.Y, i)
			}
		default:
			e.def(fn, i.Result(), i)
			for _, op := range i.Operands() {
				e.use(fn, Use, op, i)
			}
		}
	}
}

// Rows returns the tuples of the relation in extraction order.
func (e *Extractor) Rows(r Relation) [][]string {
	return e.rows[r]
}

// WriteRelation writes the tuples of r to w, one per line.
func (e *Extractor) WriteRelation(r Relation, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, row := range e.rows[r] {
		if _, err := fmt.Fprintln(bw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteDir writes every relation to its file in dir, creating dir if needed.
func (e *Extractor) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, r := range Relations {
		path := filepath.Join(dir, r.File())
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = e.WriteRelation(r, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		utils.Opts().OnVerbose(func() {
			log.Printf("Wrote %d %s facts to %s", len(e.rows[r]), r, path)
		})
	}
	return nil
}
