package testutil

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/expect"

	"github.com/cs-au-dk/divzero/analysis/absint"
)

const (
	id_DIV            = "div"
	id_SAFE           = "safe"
	id_FALSE_POSITIVE = "fp"
	id_FALSE_NEGATIVE = "fn"
)

type annFactory struct{}

// Factory for creating annotation strings. Interpolate results with Go
// source code. Wrap multiple factory calls in At to place several
// annotations on the same line.
var Ann = annFactory{}

// Div expects a finding of the given severity ("possible" or "definite") on
// the annotated line.
func (annFactory) Div(severity string) string {
	return id_DIV + "(" + severity + ")"
}

// Safe expects no finding on the annotated line.
func (annFactory) Safe() string {
	return id_SAFE
}

// False positive tag.
func (annFactory) FalsePositive() string {
	return id_FALSE_POSITIVE
}

// False negative tag.
func (annFactory) FalseNegative() string {
	return id_FALSE_NEGATIVE
}

// At concatenates annotations into a line comment.
func (annFactory) At(anns ...string) string {
	return "//@ " + strings.Join(anns, ", ")
}

// Annotation is the expectation of a single source line.
type Annotation struct {
	Pos token.Position
	// Severity is the expected severity, or empty if no finding is expected.
	Severity string
	// FalsePositive and FalseNegative document known imprecision of the
	// expected outcome.
	FalsePositive, FalseNegative bool
}

func (a Annotation) String() string {
	exp := "no finding"
	if a.Severity != "" {
		exp = a.Severity + " finding"
	}
	return fmt.Sprintf("%s: expected %s", a.Pos, exp)
}

type lineKey struct {
	file string
	line int
}

// NotesManager collects the annotations of a package, indexed by line.
type NotesManager struct {
	fset *token.FileSet
	anns map[lineKey]*Annotation
}

func MakeNotesManager(t *testing.T, fset *token.FileSet, files []*ast.File) NotesManager {
	t.Helper()
	n := NotesManager{fset, make(map[lineKey]*Annotation)}

	for _, file := range files {
		notes, err := expect.ExtractGo(fset, file)
		if err != nil {
			t.Fatal(err)
		}

		for _, note := range notes {
			pos := fset.Position(note.Pos)
			key := lineKey{pos.Filename, pos.Line}
			ann, found := n.anns[key]
			if !found {
				ann = &Annotation{Pos: pos}
				n.anns[key] = ann
			}

			switch note.Name {
			case id_DIV:
				if len(note.Args) != 1 {
					t.Fatalf("%s: div expects a severity", pos)
				}
				ann.Severity = idToStr(note.Args[0])
			case id_SAFE:
				ann.Severity = ""
			case id_FALSE_POSITIVE:
				ann.FalsePositive = true
			case id_FALSE_NEGATIVE:
				ann.FalseNegative = true
			default:
				t.Fatalf("%s: unknown annotation %s", pos, note.Name)
			}
		}
	}
	return n
}

// Convert expect.Identifier to string.
func idToStr(x interface{}) string {
	switch x := x.(type) {
	case expect.Identifier:
		return string(x)
	case string:
		return x
	}
	panic(fmt.Errorf("unexpected note argument %v", x))
}

// Annotations lists the annotations ordered by position.
func (n NotesManager) Annotations() []Annotation {
	res := make([]Annotation, 0, len(n.anns))
	for _, ann := range n.anns {
		res = append(res, *ann)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Pos.Filename != res[j].Pos.Filename {
			return res[i].Pos.Filename < res[j].Pos.Filename
		}
		return res[i].Pos.Line < res[j].Pos.Line
	})
	return res
}

// CheckFindings compares findings against the annotations. Findings on
// lines without annotations are errors.
func (n NotesManager) CheckFindings(t *testing.T, findings []absint.Finding) {
	t.Helper()
	found := map[lineKey]string{}
	for _, f := range findings {
		found[lineKey{f.Position.Filename, f.Position.Line}] = f.Severity.String()
	}

	for key, ann := range n.anns {
		got, ok := found[key]
		delete(found, key)

		matches := got == ann.Severity
		if !ok {
			matches = ann.Severity == ""
		}

		switch {
		case matches && (ann.FalsePositive || ann.FalseNegative):
			t.Logf("%s: known imprecision", ann.Pos)
		case !matches && !ok:
			t.Errorf("%s, but found none", ann)
		case !matches:
			t.Errorf("%s, but found a %s finding", ann, got)
		}
	}

	for key, sev := range found {
		t.Errorf("%s:%d: unexpected %s finding", key.file, key.line, sev)
	}
}
