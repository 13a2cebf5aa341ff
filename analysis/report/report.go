// Package report renders the findings of the zero analysis for humans.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/divzero/analysis/absint"
	"github.com/cs-au-dk/divzero/analysis/ir"
)

type Options struct {
	// ShowUnhandled also prints instructions the analysis has no rule for.
	ShowUnhandled bool
	Color         bool
}

type palette struct {
	pos, fun, definite, possible, unhandled *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		pos:       color.New(color.FgBlue),
		fun:       color.New(color.FgHiYellow),
		definite:  color.New(color.FgHiRed, color.Bold),
		possible:  color.New(color.FgYellow),
		unhandled: color.New(color.Faint),
	}
	if !enabled {
		for _, c := range []*color.Color{p.pos, p.fun, p.definite, p.possible, p.unhandled} {
			c.DisableColor()
		}
	}
	return p
}

// Printer writes diagnostics to a writer as they are reported.
// It is safe for concurrent use.
type Printer struct {
	w    io.Writer
	opts Options
	col  palette

	mu        sync.Mutex
	definite  int
	possible  int
	unhandled int
	functions map[string]bool
}

func NewPrinter(w io.Writer, opts Options) *Printer {
	return &Printer{
		w:         w,
		opts:      opts,
		col:       newPalette(opts.Color),
		functions: map[string]bool{},
	}
}

func position(fn *ir.Function, instr ir.Instruction) string {
	if pos := fn.Position(instr); pos.IsValid() {
		return pos.String()
	}
	return fmt.Sprintf("%s:%s", fn.Name, instr.Block())
}

func (p *Printer) Report(f absint.Finding) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sev := p.col.possible
	if f.Severity == absint.Definite {
		sev = p.col.definite
		p.definite++
	} else {
		p.possible++
	}
	p.functions[f.Function] = true

	pos := f.Position.String()
	if !f.Position.IsValid() {
		pos = fmt.Sprintf("%s:%s", f.Function, f.Instr.Block())
	}
	fmt.Fprintf(p.w, "%s: %s [%s]\n",
		p.col.pos.Sprint(pos),
		sev.Sprint(f.Message()),
		p.col.fun.Sprint(f.Function))
}

func (p *Printer) Unhandled(instr ir.Instruction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unhandled++
	if !p.opts.ShowUnhandled {
		return
	}

	fn := instr.Block().Parent()
	fmt.Fprintf(p.w, "%s: %s %s [%s]\n",
		p.col.pos.Sprint(position(fn, instr)),
		p.col.unhandled.Sprint("unhandled:"),
		instr,
		p.col.fun.Sprint(fn.Name))
}

// Summary prints the number of findings reported so far.
func (p *Printer) Summary() {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.definite + p.possible
	fmt.Fprintf(p.w, "%d %s (%d definite, %d possible) in %d %s\n",
		total, plural(total, "finding"),
		p.definite, p.possible,
		len(p.functions), plural(len(p.functions), "function"))
	if p.opts.ShowUnhandled && p.unhandled > 0 {
		fmt.Fprintf(p.w, "%d unhandled %s\n", p.unhandled, plural(p.unhandled, "instruction"))
	}
}

// Count returns the number of findings reported so far.
func (p *Printer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.definite + p.possible
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Sites prints the division sites of fn, one per line.
func (p *Printer) Sites(fn *ir.Function, sites []absint.Site) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range sites {
		fmt.Fprintf(p.w, "%s: %s (dividend %s, divisor %s) [%s]\n",
			p.col.pos.Sprint(position(fn, s.Instr)),
			s.Instr, s.Instr.X, s.Instr.Y,
			p.col.fun.Sprint(fn.Name))
	}
}

// Collector gathers findings and unhandled instructions of any number of
// functions. It is safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	findings  []absint.Finding
	unhandled []ir.Instruction
}

func (c *Collector) Report(f absint.Finding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findings = append(c.findings, f)
}

func (c *Collector) Unhandled(instr ir.Instruction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unhandled = append(c.unhandled, instr)
}

// Findings returns the collected findings ordered by position, then by
// function.
func (c *Collector) Findings() []absint.Finding {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := append([]absint.Finding(nil), c.findings...)
	slices.SortFunc(res, func(a, b absint.Finding) bool {
		pa, pb := a.Position, b.Position
		switch {
		case pa.Filename != pb.Filename:
			return pa.Filename < pb.Filename
		case pa.Line != pb.Line:
			return pa.Line < pb.Line
		case pa.Column != pb.Column:
			return pa.Column < pb.Column
		case a.Function != b.Function:
			return a.Function < b.Function
		}
		return a.Instr.ID() < b.Instr.ID()
	})
	return res
}

// Replay forwards the collected diagnostics to sink in order.
func (c *Collector) Replay(sink absint.Sink) {
	for _, f := range c.Findings() {
		sink.Report(f)
	}
	c.mu.Lock()
	unhandled := append([]ir.Instruction(nil), c.unhandled...)
	c.mu.Unlock()
	for _, instr := range unhandled {
		sink.Unhandled(instr)
	}
}
