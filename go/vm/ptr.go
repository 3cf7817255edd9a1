package vm

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ReadUint reads a guest integer of T's width through a.
func ReadUint[T constraints.Unsigned](a Accessor, addr uint32) T {
	var zero T
	switch unsafe.Sizeof(zero) {
	case 1:
		return T(a.Read8(addr))
	case 2:
		return T(a.Read16(addr))
	case 4:
		return T(a.Read32(addr))
	default:
		return T(a.Read64(addr))
	}
}

// WriteUint writes a guest integer of T's width through a.
func WriteUint[T constraints.Unsigned](a Accessor, addr uint32, v T) {
	switch unsafe.Sizeof(v) {
	case 1:
		a.Write8(addr, uint8(v))
	case 2:
		a.Write16(addr, uint16(v))
	case 4:
		a.Write32(addr, uint32(v))
	default:
		a.Write64(addr, uint64(v))
	}
}

// Ptr is a typed guest pointer.
type Ptr[T constraints.Unsigned] struct {
	A    Accessor
	Addr uint32
}

func NewPtr[T constraints.Unsigned](a Accessor, addr uint32) Ptr[T] {
	return Ptr[T]{A: a, Addr: addr}
}

func (p Ptr[T]) Get() T  { return ReadUint[T](p.A, p.Addr) }
func (p Ptr[T]) Set(v T) { WriteUint[T](p.A, p.Addr, v) }

// Index returns the pointer to element i.
func (p Ptr[T]) Index(i int) Ptr[T] {
	var zero T
	return Ptr[T]{A: p.A, Addr: p.Addr + uint32(i)*uint32(unsafe.Sizeof(zero))}
}

func (p Ptr[T]) IsNull() bool { return p.Addr == 0 }
