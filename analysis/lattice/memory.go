package lattice

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
	"golang.org/x/exp/slices"

	"github.com/cs-au-dk/divzero/analysis/ir"
	"github.com/cs-au-dk/divzero/utils"
	i "github.com/cs-au-dk/divzero/utils/indenter"
)

// Memory maps variables and memory locations to their abstract value.
// Memories are persistent: updates return a new memory and leave the
// receiver untouched. Unbound variables are Uninit. The zero value is the
// empty memory.
type Memory struct {
	mp *immutable.Map[*ir.Var, Domain]
}

func NewMemory() Memory {
	return Memory{utils.NewImmMap[*ir.Var, Domain]()}
}

func (m Memory) Len() int {
	if m.mp == nil {
		return 0
	}
	return m.mp.Len()
}

// Get looks up v. The returned boolean indicates whether v was bound.
func (m Memory) Get(v *ir.Var) (Domain, bool) {
	if m.mp == nil {
		return Uninit, false
	}
	return m.mp.Get(v)
}

// Update binds v to d.
func (m Memory) Update(v *ir.Var, d Domain) Memory {
	if m.mp == nil {
		m = NewMemory()
	}
	if prev, found := m.mp.Get(v); found && prev == d {
		return m
	}
	m.mp = m.mp.Set(v, d)
	return m
}

// WeakUpdate joins d into the binding of v.
func (m Memory) WeakUpdate(v *ir.Var, d Domain) Memory {
	prev, _ := m.Get(v)
	return m.Update(v, prev.Join(d))
}

// Join is the entry-wise least upper bound.
func (m Memory) Join(o Memory) Memory {
	if m.Len() == 0 {
		return o
	} else if o.Len() == 0 {
		return m
	} else if m.mp == o.mp {
		return m
	} else if m.Len() < o.Len() {
		m, o = o, m
	}

	for itr := o.mp.Iterator(); !itr.Done(); {
		k, v, _ := itr.Next()

		myV, found := m.mp.Get(k)
		if !found || !v.Eq(myV) {
			m.mp = m.mp.Set(k, v.Join(myV))
		}
	}

	return m
}

// Leq holds if every binding of m is below the binding in o.
func (m Memory) Leq(o Memory) bool {
	if m.Len() == 0 || m.mp == o.mp {
		return true
	}

	for itr := m.mp.Iterator(); !itr.Done(); {
		k, v, _ := itr.Next()
		ov, _ := o.Get(k)
		if !v.Leq(ov) {
			return false
		}
	}
	return true
}

func (m Memory) Geq(o Memory) bool {
	return o.Leq(m)
}

// Eq is semantic equality: an explicit Uninit binding equals no binding.
func (m Memory) Eq(o Memory) bool {
	return m.mp == o.mp || (m.Leq(o) && o.Leq(m))
}

// Keys lists the bound variables ordered by ID.
func (m Memory) Keys() []*ir.Var {
	keys := make([]*ir.Var, 0, m.Len())
	if m.mp == nil {
		return keys
	}
	for itr := m.mp.Iterator(); !itr.Done(); {
		k, _, _ := itr.Next()
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b *ir.Var) bool {
		return a.ID() < b.ID()
	})
	return keys
}

// ForEach visits the bindings ordered by variable ID.
func (m Memory) ForEach(do func(*ir.Var, Domain)) {
	for _, k := range m.Keys() {
		v, _ := m.mp.Get(k)
		do(k, v)
	}
}

func (m Memory) String() string {
	name := colorize.Lattice("Memory")
	if m.Len() == 0 {
		return name + ": Empty"
	}

	buf := make([]func() string, 0, m.Len())
	m.ForEach(func(k *ir.Var, v Domain) {
		buf = append(buf, func() string {
			return fmt.Sprintf("%s ↦ %s", colorize.Key(k), v.Colorized())
		})
	})
	return i.New().Start(name + ": {").NestThunked(buf...).End("}")
}

// Inline renders the memory on a single line without colors.
func (m Memory) Inline() string {
	strs := make([]string, 0, m.Len())
	m.ForEach(func(k *ir.Var, v Domain) {
		strs = append(strs, fmt.Sprintf("%s ↦ %s", k, v))
	})
	return "[" + strings.Join(strs, ", ") + "]"
}
