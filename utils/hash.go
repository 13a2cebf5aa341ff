package utils

import (
	"reflect"

	"github.com/benbjohnson/immutable"
)

// Keyed is implemented by map keys that hash themselves, such as IR
// variables.
type Keyed[K any] interface {
	Hash() uint32
	Equal(K) bool
}

type keyedHasher[K Keyed[K]] struct{}

func (keyedHasher[K]) Hash(k K) uint32   { return k.Hash() }
func (keyedHasher[K]) Equal(a, b K) bool { return a.Equal(b) }

// NewImmMap creates an empty persistent map over self-hashing keys.
func NewImmMap[K Keyed[K], V any]() *immutable.Map[K, V] {
	return immutable.NewMap[K, V](keyedHasher[K]{})
}

// PointerHasher hashes values by identity. The dynamic type of every hashed
// value must be a pointer.
type PointerHasher[T any] struct{}

func (PointerHasher[T]) Hash(v T) uint32 {
	p := uint64(reflect.ValueOf(v).Pointer())
	// Allocations are aligned, so the low bits carry little information.
	p ^= p >> 33
	p *= 0xff51afd7ed558ccd
	p ^= p >> 33
	return uint32(p)
}

func (PointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}
