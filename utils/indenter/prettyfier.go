package indenter

import (
	"fmt"
	"strings"
)

// Indenter builds nested, indented multi-line strings:
//
//	New().Start("Memory: {").NestStrings("x ↦ Zero", "y ↦ NonZero").End("}")
//
// A single nested entry is kept on the starting line.
type Indenter struct {
	buf   strings.Builder
	level int
}

func New() *Indenter {
	return &Indenter{}
}

func (i *Indenter) indent() string {
	return strings.Repeat("  ", i.level)
}

func (i *Indenter) Start(str string) *Indenter {
	i.buf.WriteString(str)
	return i
}

func (i *Indenter) NestStrings(strs ...string) *Indenter {
	return i.NestStringsSep("", strs...)
}

func (i *Indenter) NestStringsSep(sep string, strs ...string) *Indenter {
	thunks := make([]func() string, len(strs))
	for idx, str := range strs {
		str := str
		thunks[idx] = func() string { return str }
	}
	return i.NestThunkedSep(sep, thunks...)
}

func (i *Indenter) Nest(strs ...fmt.Stringer) *Indenter {
	thunks := make([]func() string, len(strs))
	for idx, str := range strs {
		thunks[idx] = str.String
	}
	return i.NestThunkedSep("", thunks...)
}

func (i *Indenter) NestThunked(strs ...func() string) *Indenter {
	return i.NestThunkedSep("", strs...)
}

func (i *Indenter) NestThunkedSep(sep string, strs ...func() string) *Indenter {
	if len(strs) == 1 {
		i.buf.WriteString(strs[0]())
		return i
	}

	i.level++
	for idx, str := range strs {
		// Nested multi-line strings are indented along with their first line.
		lines := strings.ReplaceAll(str(), "\n", "\n"+i.indent())
		i.buf.WriteString("\n" + i.indent() + lines)
		if idx < len(strs)-1 {
			i.buf.WriteString(sep)
		}
	}
	i.level--
	i.buf.WriteString("\n")
	return i
}

func (i *Indenter) End(str string) string {
	res := i.buf.String()
	if len(res) > 0 && res[len(res)-1] == '\n' {
		res += i.indent()
	}
	i.buf.Reset()
	return res + str
}
