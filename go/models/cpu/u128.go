package cpu

import "fmt"

// U128 is a 128-bit quadword, the native register and load/store width of
// the coprocessor architecture.
type U128 struct {
	Hi, Lo uint64
}

// Word returns 32-bit word i, where word 0 is the most significant
// (the coprocessor's "preferred slot").
func (u U128) Word(i int) uint32 {
	switch i & 3 {
	case 0:
		return uint32(u.Hi >> 32)
	case 1:
		return uint32(u.Hi)
	case 2:
		return uint32(u.Lo >> 32)
	default:
		return uint32(u.Lo)
	}
}

func (u U128) SetWord(i int, v uint32) U128 {
	switch i & 3 {
	case 0:
		u.Hi = u.Hi&0x00000000ffffffff | uint64(v)<<32
	case 1:
		u.Hi = u.Hi&0xffffffff00000000 | uint64(v)
	case 2:
		u.Lo = u.Lo&0x00000000ffffffff | uint64(v)<<32
	default:
		u.Lo = u.Lo&0xffffffff00000000 | uint64(v)
	}
	return u
}

// Splat fills all four words with v.
func Splat(v uint32) U128 {
	w := uint64(v)<<32 | uint64(v)
	return U128{Hi: w, Lo: w}
}

func (u U128) String() string {
	return fmt.Sprintf("%016x%016x", u.Hi, u.Lo)
}
