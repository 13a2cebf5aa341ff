package frontend

import (
	"strings"

	"golang.org/x/tools/go/ssa"
)

// DefaultInputSources are the functions whose results are treated as
// external input. Names are matched against the qualified name of the static
// callee, e.g. "os.Getenv" or "(*bufio.Reader).ReadByte", and package level
// functions also match by their bare name, e.g. "getchar".
var DefaultInputSources = []string{
	"getchar",
	"fgetc",
	"(*bufio.Reader).ReadByte",
	"os.Getenv",
}

// Matcher recognizes calls to a set of functions by name.
type Matcher map[string]bool

// NewMatcher creates a matcher of the given names. Empty names are ignored.
func NewMatcher(names ...string) Matcher {
	m := Matcher{}
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			m[name] = true
		}
	}
	return m
}

// Match reports whether the static callee of call is one of the names.
func (m Matcher) Match(call *ssa.CallCommon) bool {
	callee := call.StaticCallee()
	if callee == nil || len(m) == 0 {
		return false
	}
	if m[CalleeName(call)] {
		return true
	}
	return callee.Signature.Recv() == nil && callee.Parent() == nil && m[callee.Name()]
}

// CalleeName names the target of a call for use in the IR. Static callees are
// named by their qualified name, interface methods by the method name
// qualified with the interface, and dynamic calls by the called value.
func CalleeName(call *ssa.CallCommon) string {
	switch {
	case call.IsInvoke():
		return "(" + call.Value.Type().String() + ")." + call.Method.Name()
	case call.StaticCallee() != nil:
		return call.StaticCallee().String()
	}
	if b, ok := call.Value.(*ssa.Builtin); ok {
		return b.Name()
	}
	return call.Value.Name()
}

// MatchName reports whether a callee named as by CalleeName is one of the
// names. Package level functions also match by their bare name.
func (m Matcher) MatchName(name string) bool {
	if m[name] {
		return true
	}
	if strings.HasPrefix(name, "(") {
		return false
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return m[name[i+1:]]
	}
	return false
}
