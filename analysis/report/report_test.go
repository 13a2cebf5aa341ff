package report

import (
	"bytes"
	"go/token"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/divzero/analysis/absint"
	"github.com/cs-au-dk/divzero/analysis/ir"
)

const source = `func f() {
	x := getchar()
	q := 10 / x
	_ = q % 0
	mystery()
}
`

// divisions builds a function with a possible and a definite division by
// zero, followed by an instruction without a transfer rule.
func divisions() *ir.Function {
	fset := token.NewFileSet()
	file := fset.AddFile("main.go", -1, len(source))
	file.SetLinesForContent([]byte(source))
	at := func(line int) token.Pos { return file.LineStart(line) + 1 }

	b := ir.NewBuilder("main.f")
	b.SetPos(at(2))
	x := b.Input("x", ir.IntType, "getchar")
	b.SetPos(at(3))
	q := b.BinOp(ir.Div, ir.NewInt(10), x)
	b.SetPos(at(4))
	r := b.BinOp(ir.Rem, q, ir.NewInt(0))
	b.SetPos(at(5))
	b.Emit(&ir.Unknown{Desc: "mystery"})
	b.SetPos(token.NoPos)
	b.Return(r)

	fn := b.Finish()
	fn.Fset = fset
	return fn
}

func TestPrinter(t *testing.T) {
	color.NoColor = true

	fn := divisions()
	out := new(bytes.Buffer)
	p := NewPrinter(out, Options{ShowUnhandled: true})

	_, err := absint.Analyze(fn, absint.Config{Sink: p})
	require.NoError(t, err)
	p.Summary()
	p.Sites(fn, absint.Locate(fn))

	assert.Equal(t, 2, p.Count())
	goldie.New(t).Assert(t, "printer", out.Bytes())
}

func TestPrinterHidesUnhandled(t *testing.T) {
	out := new(bytes.Buffer)
	p := NewPrinter(out, Options{})

	_, err := absint.Analyze(divisions(), absint.Config{Sink: p})
	require.NoError(t, err)
	p.Summary()

	assert.NotContains(t, out.String(), "unhandled")
	assert.True(t, strings.HasSuffix(out.String(), "2 findings (1 definite, 1 possible) in 1 function\n"))
}

func TestEmptySummary(t *testing.T) {
	out := new(bytes.Buffer)
	NewPrinter(out, Options{ShowUnhandled: true}).Summary()
	assert.Equal(t, "0 findings (0 definite, 0 possible) in 0 functions\n", out.String())
}

func TestCollector(t *testing.T) {
	first, second := divisions(), divisions()
	second.Name = "main.a"

	c := &Collector{}
	for _, fn := range []*ir.Function{first, second} {
		_, err := absint.Analyze(fn, absint.Config{Sink: c})
		require.NoError(t, err)
	}

	findings := c.Findings()
	require.Len(t, findings, 4)

	var order []string
	for _, f := range findings {
		order = append(order, f.Function+" "+f.Severity.String())
	}
	assert.Equal(t, []string{
		"main.a possible",
		"main.f possible",
		"main.a definite",
		"main.f definite",
	}, order)

	out := new(bytes.Buffer)
	p := NewPrinter(out, Options{ShowUnhandled: true})
	c.Replay(p)
	assert.Equal(t, 4, p.Count())
	assert.Equal(t, 2, strings.Count(out.String(), "unknown mystery"))
}
