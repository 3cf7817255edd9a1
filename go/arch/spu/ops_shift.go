package spu

import (
	"math/bits"

	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// Count helpers. The "m" forms take a negated count, as the hardware
// encodes right shifts.

func rot32(a, n uint32) uint32 { return bits.RotateLeft32(a, int(n&0x1f)) }
func rot16(a, n uint16) uint16 { return bits.RotateLeft16(a, int(n&0xf)) }

func shl32(a, n uint32) uint32 {
	if n &= 0x3f; n > 31 {
		return 0
	}
	return a << n
}

func shl16(a, n uint16) uint16 {
	if n &= 0x1f; n > 15 {
		return 0
	}
	return a << n
}

func rotm32(a, n uint32) uint32 {
	if n = -n & 0x3f; n > 31 {
		return 0
	}
	return a >> n
}

func rotm16(a, n uint16) uint16 {
	if n = -n & 0x1f; n > 15 {
		return 0
	}
	return a >> n
}

func rotma32(a, n uint32) uint32 {
	if n = -n & 0x3f; n > 31 {
		n = 31
	}
	return uint32(int32(a) >> n)
}

func rotma16(a, n uint16) uint16 {
	if n = -n & 0x1f; n > 15 {
		n = 15
	}
	return uint16(int16(a) >> n)
}

func (in *Interp) rot(code uint32, op decode.Operands)    { in.words(op, rot32) }
func (in *Interp) roth(code uint32, op decode.Operands)   { in.halves(op, rot16) }
func (in *Interp) roti(code uint32, op decode.Operands)   { in.wordsI(op, rot32) }
func (in *Interp) rothi(code uint32, op decode.Operands)  { in.halvesI(op, rot16) }
func (in *Interp) shl(code uint32, op decode.Operands)    { in.words(op, shl32) }
func (in *Interp) shlh(code uint32, op decode.Operands)   { in.halves(op, shl16) }
func (in *Interp) shli(code uint32, op decode.Operands)   { in.wordsI(op, shl32) }
func (in *Interp) shlhi(code uint32, op decode.Operands)  { in.halvesI(op, shl16) }
func (in *Interp) rotm(code uint32, op decode.Operands)   { in.words(op, rotm32) }
func (in *Interp) rothm(code uint32, op decode.Operands)  { in.halves(op, rotm16) }
func (in *Interp) rotmi(code uint32, op decode.Operands)  { in.wordsI(op, rotm32) }
func (in *Interp) rothmi(code uint32, op decode.Operands) { in.halvesI(op, rotm16) }
func (in *Interp) rotma(code uint32, op decode.Operands)  { in.words(op, rotma32) }
func (in *Interp) rotmah(code uint32, op decode.Operands) { in.halves(op, rotma16) }
func (in *Interp) rotmai(code uint32, op decode.Operands) { in.wordsI(op, rotma32) }
func (in *Interp) rotmahi(code uint32, op decode.Operands) {
	in.halvesI(op, rotma16)
}

// quadword shifts and rotates by bytes and bits

func (in *Interp) quad(op decode.Operands, n uint32, f func(v cpu.U128, n uint) cpu.U128) {
	in.w(op[0], f(in.r(op[1]), uint(n)))
}

func rotBytes(v cpu.U128, n uint) cpu.U128 { return rotl128(v, (n&0xf)*8) }
func shlBytes(v cpu.U128, n uint) cpu.U128 { return shl128(v, (n&0x1f)*8) }
func shrBytes(v cpu.U128, n uint) cpu.U128 { return shr128(v, (-n&0x1f)*8) }
func rotBits(v cpu.U128, n uint) cpu.U128  { return rotl128(v, n&7) }
func shlBits(v cpu.U128, n uint) cpu.U128  { return shl128(v, n&7) }
func shrBits(v cpu.U128, n uint) cpu.U128  { return shr128(v, -n&7) }

func (in *Interp) count(op decode.Operands) uint32 { return in.pref(op[2]) }
func (in *Interp) countBI(op decode.Operands) uint32 {
	return in.pref(op[2]) >> 3
}

func (in *Interp) rotqby(code uint32, op decode.Operands)  { in.quad(op, in.count(op), rotBytes) }
func (in *Interp) rotqbyi(code uint32, op decode.Operands) { in.quad(op, uint32(op[2]), rotBytes) }
func (in *Interp) rotqbybi(code uint32, op decode.Operands) {
	in.quad(op, in.countBI(op), rotBytes)
}
func (in *Interp) shlqby(code uint32, op decode.Operands)  { in.quad(op, in.count(op), shlBytes) }
func (in *Interp) shlqbyi(code uint32, op decode.Operands) { in.quad(op, uint32(op[2]), shlBytes) }
func (in *Interp) shlqbybi(code uint32, op decode.Operands) {
	in.quad(op, in.countBI(op), shlBytes)
}
func (in *Interp) rotqmby(code uint32, op decode.Operands)  { in.quad(op, in.count(op), shrBytes) }
func (in *Interp) rotqmbyi(code uint32, op decode.Operands) { in.quad(op, uint32(op[2]), shrBytes) }
func (in *Interp) rotqmbybi(code uint32, op decode.Operands) {
	in.quad(op, in.countBI(op), shrBytes)
}
func (in *Interp) rotqbi(code uint32, op decode.Operands)   { in.quad(op, in.count(op), rotBits) }
func (in *Interp) rotqbii(code uint32, op decode.Operands)  { in.quad(op, uint32(op[2]), rotBits) }
func (in *Interp) shlqbi(code uint32, op decode.Operands)   { in.quad(op, in.count(op), shlBits) }
func (in *Interp) shlqbii(code uint32, op decode.Operands)  { in.quad(op, uint32(op[2]), shlBits) }
func (in *Interp) rotqmbi(code uint32, op decode.Operands)  { in.quad(op, in.count(op), shrBits) }
func (in *Interp) rotqmbii(code uint32, op decode.Operands) { in.quad(op, uint32(op[2]), shrBits) }

// insertion controls for shufb: rt = identity pattern with one element
// replaced by the preferred-slot selector

var insertBase = fromBytes([16]byte{
	0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
	0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f,
})

func insertControl(t uint32, size int) cpu.U128 {
	b := quadBytes(insertBase)
	t &= uint32(16-size) &^ uint32(size-1)
	first := 4 - size
	if size == 8 {
		first = 0
	}
	for i := 0; i < size; i++ {
		b[int(t)+i] = byte(first + i)
	}
	return fromBytes(b)
}

func (in *Interp) cd(op decode.Operands, size int) {
	in.w(op[0], insertControl(in.pref(op[1])+uint32(op[2]), size))
}

func (in *Interp) cx(op decode.Operands, size int) {
	in.w(op[0], insertControl(in.pref(op[1])+in.pref(op[2]), size))
}

func (in *Interp) cbd(code uint32, op decode.Operands) { in.cd(op, 1) }
func (in *Interp) chd(code uint32, op decode.Operands) { in.cd(op, 2) }
func (in *Interp) cwd(code uint32, op decode.Operands) { in.cd(op, 4) }
func (in *Interp) cdd(code uint32, op decode.Operands) { in.cd(op, 8) }
func (in *Interp) cbx(code uint32, op decode.Operands) { in.cx(op, 1) }
func (in *Interp) chx(code uint32, op decode.Operands) { in.cx(op, 2) }
func (in *Interp) cwx(code uint32, op decode.Operands) { in.cx(op, 4) }
func (in *Interp) cdx(code uint32, op decode.Operands) { in.cx(op, 8) }
