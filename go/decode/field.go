// Package decode builds immutable multi-level dispatch tables that map a
// 32-bit instruction word to a handler. Each level selects a slot with a
// bit field of the word; a slot holds a handler, a nested level, or both.
package decode

import (
	"fmt"
)

type part struct {
	shift, width uint
}

// Field is a pure description of bits inside an instruction word. The zero
// value extracts nothing.
type Field struct {
	parts  []part
	signed bool
	shift  uint
	prefix string
	reg    bool
}

// Bits selects word bits lo through hi inclusive, counting from the least
// significant bit.
func Bits(lo, hi uint) Field {
	if hi < lo || hi > 31 {
		panic(fmt.Sprintf("decode: bad field bits %d-%d", lo, hi))
	}
	return Field{parts: []part{{lo, hi - lo + 1}}}
}

// MSB0 selects word bits from through to inclusive with bit 0 being the
// most significant bit, the numbering PowerPC and SPU manuals use.
func MSB0(from, to uint) Field {
	if to < from || to > 31 {
		panic(fmt.Sprintf("decode: bad field bits %d-%d", from, to))
	}
	return Bits(31-to, 31-from)
}

// Concat joins two fields; hi supplies the most significant bits of the
// result.
func Concat(hi, lo Field) Field {
	parts := make([]part, 0, len(hi.parts)+len(lo.parts))
	parts = append(parts, hi.parts...)
	parts = append(parts, lo.parts...)
	return Field{parts: parts}
}

// Signed sign-extends the extracted value.
func (f Field) Signed() Field {
	f.signed = true
	return f
}

// Shift scales the extracted operand by 1<<n. The slot index is unaffected.
func (f Field) Shift(n uint) Field {
	f.shift = n
	return f
}

// Reg marks the operand as a register for disassembly, printed with prefix.
func (f Field) Reg(prefix string) Field {
	f.reg = true
	f.prefix = prefix
	return f
}

// Width is the number of selected bits.
func (f Field) Width() uint {
	var w uint
	for _, p := range f.parts {
		w += p.width
	}
	return w
}

// Index returns the raw selected bits, used as a slot number.
func (f Field) Index(code uint32) uint32 {
	var v uint32
	for _, p := range f.parts {
		v = v<<p.width | (code>>p.shift)&(1<<p.width-1)
	}
	return v
}

// Value returns the operand: the selected bits, sign-extended if the field
// is signed, then shifted.
func (f Field) Value(code uint32) int32 {
	v := f.Index(code)
	if f.signed {
		s := 32 - f.Width()
		return int32(v<<s) >> s << f.shift
	}
	return int32(v << f.shift)
}

// pattern returns the mask of bits the field covers and the word bits that
// select slot.
func (f Field) pattern(slot uint32) (mask, val uint32) {
	for i := len(f.parts) - 1; i >= 0; i-- {
		p := f.parts[i]
		m := uint32(1)<<p.width - 1
		mask |= m << p.shift
		val |= (slot & m) << p.shift
		slot >>= p.width
	}
	return mask, val
}

func (f Field) format(code uint32) string {
	v := f.Value(code)
	switch {
	case f.reg:
		return fmt.Sprintf("%s%d", f.prefix, v)
	case v < 0:
		return fmt.Sprintf("-%#x", -int64(v))
	case v < 10:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%#x", v)
	}
}

func (f Field) apply(in *instrSpec) {
	in.fields = append(in.fields, f)
}

// Arg configures a binding: a Field adds an operand, Size sets the length.
type Arg interface {
	apply(*instrSpec)
}

type sizeArg uint32

func (s sizeArg) apply(in *instrSpec) { in.size = uint32(s) }

// Size sets the instruction length in bytes for one binding.
func Size(n uint32) Arg { return sizeArg(n) }
