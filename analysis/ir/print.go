package ir

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteTo prints the function in a textual form:
//
//	func f(x int):
//	b0: entry
//	  t1 = 10 / x
//	  return t1
func (f *Function) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)

	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.Name()+" "+p.Type().String())
	}
	fmt.Fprintf(buf, "func %s(%s):\n", f.Name, strings.Join(params, ", "))
	for _, fv := range f.FreeVars {
		fmt.Fprintf(buf, "# free %s %s\n", fv, fv.Type())
	}

	for _, b := range f.Blocks {
		fmt.Fprintf(buf, "b%d:", b.Index)
		if b.Comment != "" {
			fmt.Fprintf(buf, " %s", b.Comment)
		}
		if len(b.Preds) > 0 {
			preds := make([]string, 0, len(b.Preds))
			for _, p := range b.Preds {
				preds = append(preds, fmt.Sprintf("b%d", p.Index))
			}
			fmt.Fprintf(buf, " <- %s", strings.Join(preds, ", "))
		}
		buf.WriteByte('\n')
		for _, instr := range b.Instrs {
			fmt.Fprintf(buf, "  %s\n", instr)
		}
	}

	return buf.WriteTo(w)
}

func (f *Function) String() string {
	buf := new(bytes.Buffer)
	f.WriteTo(buf)
	return buf.String()
}
