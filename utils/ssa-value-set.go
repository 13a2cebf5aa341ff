package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// SSAValueSet is an immutable set of unique SSA values.
type SSAValueSet struct {
	*immutable.Map[ssa.Value, struct{}]
}

// Size returns the number of elements in the SSA value set.
func (s SSAValueSet) Size() int {
	if s.Map == nil {
		return 0
	}
	return s.Map.Len()
}

// MakeSSASet creates a set of SSA registers from the given values.
func MakeSSASet(vs ...ssa.Value) SSAValueSet {
	mp := immutable.NewMap[ssa.Value, struct{}](PointerHasher[ssa.Value]{})
	for _, v := range vs {
		mp = mp.Set(v, struct{}{})
	}

	return SSAValueSet{mp}
}

// Add v to s:
//
//	s ∪ {v}
func (s SSAValueSet) Add(v ssa.Value) SSAValueSet {
	return SSAValueSet{s.Map.Set(v, struct{}{})}
}

// Join computes the union of two SSA value sets:
//
//	s1 ∪ s2
func (s1 SSAValueSet) Join(s2 SSAValueSet) SSAValueSet {
	if s1 == s2 {
		return s1
	} else if s2.Size() < s1.Size() {
		s1, s2 = s2, s1
	}

	for iter := s1.Iterator(); !iter.Done(); {
		v, _, _ := iter.Next()
		if !s2.Contains(v) {
			s2.Map = s2.Map.Set(v, struct{}{})
		}
	}

	return s2
}

// Contains checks whether the SSA value set contains v:
//
//	v ∈ s
func (s SSAValueSet) Contains(v ssa.Value) bool {
	_, ok := s.Get(v)
	return ok
}

// ForEach executes the provided procedure for each element in the SSA value set.
func (s SSAValueSet) ForEach(do func(ssa.Value)) {
	for iter := s.Iterator(); !iter.Done(); {
		next, _, _ := iter.Next()
		do(next)
	}
}

// Entries aggregates all elements in the SSA value set in a slice, ordered
// by position.
func (s SSAValueSet) Entries() []ssa.Value {
	vs := make([]ssa.Value, 0, s.Size())

	s.ForEach(func(v ssa.Value) {
		vs = append(vs, v)
	})

	sortingKey := func(v ssa.Value) string {
		res := v.Name() + v.String()
		if f := v.Parent(); f != nil {
			res = f.Prog.Fset.Position(v.Pos()).String() + res
		}
		return res
	}
	sort.Slice(vs, func(i, j int) bool {
		return sortingKey(vs[i]) < sortingKey(vs[j])
	})
	return vs
}

// Empty checks whether an SSA value set is empty:
//
//	s = ∅
func (s SSAValueSet) Empty() bool {
	return s.Size() == 0
}

func (s SSAValueSet) String() string {
	vs := s.Entries()
	strs := make([]string, len(vs))

	for i, v := range vs {
		str := v.Name() + " = " + v.String()
		if f := v.Parent(); f != nil {
			str += fmt.Sprintf(" at %v", f.Prog.Fset.Position(v.Pos()))
		}
		strs[i] = str
	}

	return "{ " + strings.Join(strs, ", ") + " }"
}
