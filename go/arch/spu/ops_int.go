package spu

import (
	"math/bits"

	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

func (in *Interp) words(op decode.Operands, f func(a, b uint32) uint32) {
	in.w(op[0], mapWords(in.r(op[1]), in.r(op[2]), f))
}

func (in *Interp) halves(op decode.Operands, f func(a, b uint16) uint16) {
	in.w(op[0], mapHalves(in.r(op[1]), in.r(op[2]), f))
}

func (in *Interp) bytes(op decode.Operands, f func(a, b byte) byte) {
	in.w(op[0], mapBytes(in.r(op[1]), in.r(op[2]), f))
}

// immediate forms: op[2] is splatted to the element width
func (in *Interp) wordsI(op decode.Operands, f func(a, b uint32) uint32) {
	in.w(op[0], mapWords(in.r(op[1]), cpu.Splat(uint32(op[2])), f))
}

func (in *Interp) halvesI(op decode.Operands, f func(a, b uint16) uint16) {
	h := uint32(uint16(op[2]))
	in.w(op[0], mapHalves(in.r(op[1]), cpu.Splat(h<<16|h), f))
}

func (in *Interp) bytesI(op decode.Operands, f func(a, b byte) byte) {
	b := uint32(byte(op[2]))
	in.w(op[0], mapBytes(in.r(op[1]), cpu.Splat(b*0x01010101), f))
}

func add32(a, b uint32) uint32  { return a + b }
func add16(a, b uint16) uint16  { return a + b }
func sub32(a, b uint32) uint32  { return b - a }
func sub16(a, b uint16) uint16  { return b - a }
func and32(a, b uint32) uint32  { return a & b }
func and16(a, b uint16) uint16  { return a & b }
func and8(a, b byte) byte       { return a & b }
func or32(a, b uint32) uint32   { return a | b }
func or16(a, b uint16) uint16   { return a | b }
func or8(a, b byte) byte        { return a | b }
func xor32(a, b uint32) uint32  { return a ^ b }
func xor16(a, b uint16) uint16  { return a ^ b }
func xor8(a, b byte) byte       { return a ^ b }
func ceq32(a, b uint32) uint32  { return mask32(a == b) }
func ceq16(a, b uint16) uint16  { return mask16(a == b) }
func ceq8(a, b byte) byte       { return mask8(a == b) }
func cgt32(a, b uint32) uint32  { return mask32(int32(a) > int32(b)) }
func cgt16(a, b uint16) uint16  { return mask16(int16(a) > int16(b)) }
func cgt8(a, b byte) byte       { return mask8(int8(a) > int8(b)) }
func clgt32(a, b uint32) uint32 { return mask32(a > b) }
func clgt16(a, b uint16) uint16 { return mask16(a > b) }
func clgt8(a, b byte) byte      { return mask8(a > b) }

// arithmetic

func (in *Interp) a(code uint32, op decode.Operands)   { in.words(op, add32) }
func (in *Interp) ah(code uint32, op decode.Operands)  { in.halves(op, add16) }
func (in *Interp) ai(code uint32, op decode.Operands)  { in.wordsI(op, add32) }
func (in *Interp) ahi(code uint32, op decode.Operands) { in.halvesI(op, add16) }
func (in *Interp) sf(code uint32, op decode.Operands)  { in.words(op, sub32) }
func (in *Interp) sfh(code uint32, op decode.Operands) { in.halves(op, sub16) }
func (in *Interp) sfi(code uint32, op decode.Operands) { in.wordsI(op, sub32) }
func (in *Interp) sfhi(code uint32, op decode.Operands) {
	in.halvesI(op, sub16)
}

func (in *Interp) cg(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 {
		_, c := bits.Add32(a, b, 0)
		return c
	})
}

func (in *Interp) bg(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 {
		if b >= a {
			return 1
		}
		return 0
	})
}

// extended forms take the carry or borrow from bit 0 of each rt word
func (in *Interp) extended(op decode.Operands, f func(a, b, c uint32) uint32) {
	ra, rb, rt := words(in.r(op[1])), words(in.r(op[2])), words(in.r(op[0]))
	for i := range rt {
		rt[i] = f(ra[i], rb[i], rt[i]&1)
	}
	in.w(op[0], fromWords(rt))
}

func (in *Interp) addx(code uint32, op decode.Operands) {
	in.extended(op, func(a, b, c uint32) uint32 { return a + b + c })
}

func (in *Interp) sfx(code uint32, op decode.Operands) {
	in.extended(op, func(a, b, c uint32) uint32 { return b + ^a + c })
}

func (in *Interp) cgx(code uint32, op decode.Operands) {
	in.extended(op, func(a, b, c uint32) uint32 {
		_, carry := bits.Add32(a, b, c)
		return carry
	})
}

func (in *Interp) bgx(code uint32, op decode.Operands) {
	in.extended(op, func(a, b, c uint32) uint32 {
		_, carry := bits.Add32(b, ^a, c)
		return carry
	})
}

func lo16s(v uint32) int32 { return int32(int16(v)) }
func hi16s(v uint32) int32 { return int32(int16(v >> 16)) }

func (in *Interp) mpy(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return uint32(lo16s(a) * lo16s(b)) })
}

func (in *Interp) mpyu(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return (a & 0xffff) * (b & 0xffff) })
}

func (in *Interp) mpyh(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return (a >> 16) * (b & 0xffff) << 16 })
}

func (in *Interp) mpyhh(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return uint32(hi16s(a) * hi16s(b)) })
}

func (in *Interp) mpyhhu(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return (a >> 16) * (b >> 16) })
}

func (in *Interp) mpys(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return uint32(lo16s(a) * lo16s(b) >> 16) })
}

func (in *Interp) mpyi(code uint32, op decode.Operands) {
	in.wordsI(op, func(a, b uint32) uint32 { return uint32(lo16s(a) * int32(b)) })
}

func (in *Interp) mpyui(code uint32, op decode.Operands) {
	in.wordsI(op, func(a, b uint32) uint32 { return (a & 0xffff) * (b & 0xffff) })
}

// mpya rt, ra, rb, rc
func (in *Interp) mpya(code uint32, op decode.Operands) {
	ra, rb, rc := words(in.r(op[1])), words(in.r(op[2])), words(in.r(op[3]))
	for i := range ra {
		ra[i] = uint32(lo16s(ra[i])*lo16s(rb[i])) + rc[i]
	}
	in.w(op[0], fromWords(ra))
}

func (in *Interp) accumulate(op decode.Operands, f func(a, b uint32) uint32) {
	ra, rb, rt := words(in.r(op[1])), words(in.r(op[2])), words(in.r(op[0]))
	for i := range rt {
		rt[i] += f(ra[i], rb[i])
	}
	in.w(op[0], fromWords(rt))
}

func (in *Interp) mpyhha(code uint32, op decode.Operands) {
	in.accumulate(op, func(a, b uint32) uint32 { return uint32(hi16s(a) * hi16s(b)) })
}

func (in *Interp) mpyhhau(code uint32, op decode.Operands) {
	in.accumulate(op, func(a, b uint32) uint32 { return (a >> 16) * (b >> 16) })
}

func (in *Interp) avgb(code uint32, op decode.Operands) {
	in.bytes(op, func(a, b byte) byte { return byte((uint16(a) + uint16(b) + 1) >> 1) })
}

func (in *Interp) absdb(code uint32, op decode.Operands) {
	in.bytes(op, func(a, b byte) byte {
		if a > b {
			return a - b
		}
		return b - a
	})
}

func (in *Interp) sumb(code uint32, op decode.Operands) {
	ra, rb := quadBytes(in.r(op[1])), quadBytes(in.r(op[2]))
	var rt [8]uint16
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			rt[2*i] += uint16(rb[4*i+j])
			rt[2*i+1] += uint16(ra[4*i+j])
		}
	}
	in.w(op[0], fromHalves(rt))
}

// logical

func (in *Interp) and(code uint32, op decode.Operands)  { in.words(op, and32) }
func (in *Interp) or(code uint32, op decode.Operands)   { in.words(op, or32) }
func (in *Interp) xor(code uint32, op decode.Operands)  { in.words(op, xor32) }
func (in *Interp) andi(code uint32, op decode.Operands) { in.wordsI(op, and32) }
func (in *Interp) ori(code uint32, op decode.Operands)  { in.wordsI(op, or32) }
func (in *Interp) xori(code uint32, op decode.Operands) { in.wordsI(op, xor32) }

func (in *Interp) andhi(code uint32, op decode.Operands) { in.halvesI(op, and16) }
func (in *Interp) orhi(code uint32, op decode.Operands)  { in.halvesI(op, or16) }
func (in *Interp) xorhi(code uint32, op decode.Operands) { in.halvesI(op, xor16) }
func (in *Interp) andbi(code uint32, op decode.Operands) { in.bytesI(op, and8) }
func (in *Interp) orbi(code uint32, op decode.Operands)  { in.bytesI(op, or8) }
func (in *Interp) xorbi(code uint32, op decode.Operands) { in.bytesI(op, xor8) }

func (in *Interp) nand(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return ^(a & b) })
}

func (in *Interp) nor(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return ^(a | b) })
}

func (in *Interp) eqv(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return ^(a ^ b) })
}

func (in *Interp) andc(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return a &^ b })
}

func (in *Interp) orc(code uint32, op decode.Operands) {
	in.words(op, func(a, b uint32) uint32 { return a | ^b })
}

// selb rt, ra, rb, rc: bits of rb where rc is set, else ra
func (in *Interp) selb(code uint32, op decode.Operands) {
	ra, rb, rc := in.r(op[1]), in.r(op[2]), in.r(op[3])
	in.w(op[0], cpu.U128{
		Hi: ra.Hi&^rc.Hi | rb.Hi&rc.Hi,
		Lo: ra.Lo&^rc.Lo | rb.Lo&rc.Lo,
	})
}

func (in *Interp) shufb(code uint32, op decode.Operands) {
	ra, rb, rc := quadBytes(in.r(op[1])), quadBytes(in.r(op[2])), quadBytes(in.r(op[3]))
	var rt [16]byte
	for i, sel := range rc {
		switch {
		case sel >= 0xe0:
			rt[i] = 0x80
		case sel >= 0xc0:
			rt[i] = 0xff
		case sel >= 0x80:
			rt[i] = 0
		case sel&0x10 != 0:
			rt[i] = rb[sel&0xf]
		default:
			rt[i] = ra[sel&0xf]
		}
	}
	in.w(op[0], fromBytes(rt))
}

// immediate loads

func (in *Interp) il(code uint32, op decode.Operands) { in.w(op[0], cpu.Splat(uint32(op[1]))) }
func (in *Interp) ila(code uint32, op decode.Operands) {
	in.w(op[0], cpu.Splat(uint32(op[1])&0x3ffff))
}

func (in *Interp) ilh(code uint32, op decode.Operands) {
	h := uint32(uint16(op[1]))
	in.w(op[0], cpu.Splat(h<<16|h))
}

func (in *Interp) ilhu(code uint32, op decode.Operands) {
	in.w(op[0], cpu.Splat(uint32(uint16(op[1]))<<16))
}

func (in *Interp) iohl(code uint32, op decode.Operands) {
	in.w(op[0], mapWords(in.r(op[0]), cpu.Splat(uint32(uint16(op[1]))), or32))
}

func (in *Interp) fsmbi(code uint32, op decode.Operands) {
	var rt [16]byte
	for i := range rt {
		rt[i] = mask8(op[1]&(0x8000>>i) != 0)
	}
	in.w(op[0], fromBytes(rt))
}

// compares

func (in *Interp) ceq(code uint32, op decode.Operands)   { in.words(op, ceq32) }
func (in *Interp) ceqh(code uint32, op decode.Operands)  { in.halves(op, ceq16) }
func (in *Interp) ceqb(code uint32, op decode.Operands)  { in.bytes(op, ceq8) }
func (in *Interp) ceqi(code uint32, op decode.Operands)  { in.wordsI(op, ceq32) }
func (in *Interp) ceqhi(code uint32, op decode.Operands) { in.halvesI(op, ceq16) }
func (in *Interp) ceqbi(code uint32, op decode.Operands) { in.bytesI(op, ceq8) }
func (in *Interp) cgt(code uint32, op decode.Operands)   { in.words(op, cgt32) }
func (in *Interp) cgth(code uint32, op decode.Operands)  { in.halves(op, cgt16) }
func (in *Interp) cgtb(code uint32, op decode.Operands)  { in.bytes(op, cgt8) }
func (in *Interp) cgti(code uint32, op decode.Operands)  { in.wordsI(op, cgt32) }
func (in *Interp) cgthi(code uint32, op decode.Operands) { in.halvesI(op, cgt16) }
func (in *Interp) cgtbi(code uint32, op decode.Operands) { in.bytesI(op, cgt8) }
func (in *Interp) clgt(code uint32, op decode.Operands)  { in.words(op, clgt32) }
func (in *Interp) clgth(code uint32, op decode.Operands) { in.halves(op, clgt16) }
func (in *Interp) clgtb(code uint32, op decode.Operands) { in.bytes(op, clgt8) }
func (in *Interp) clgti(code uint32, op decode.Operands) { in.wordsI(op, clgt32) }
func (in *Interp) clgthi(code uint32, op decode.Operands) {
	in.halvesI(op, clgt16)
}
func (in *Interp) clgtbi(code uint32, op decode.Operands) {
	in.bytesI(op, clgt8)
}

// halt if the preferred slots compare true
func (in *Interp) heq(code uint32, op decode.Operands) {
	if in.pref(op[0]) == in.pref(op[1]) {
		in.halt()
	}
}

func (in *Interp) hgt(code uint32, op decode.Operands) {
	if int32(in.pref(op[0])) > int32(in.pref(op[1])) {
		in.halt()
	}
}

func (in *Interp) hlgt(code uint32, op decode.Operands) {
	if in.pref(op[0]) > in.pref(op[1]) {
		in.halt()
	}
}

func (in *Interp) heqi(code uint32, op decode.Operands) {
	if int32(in.pref(op[0])) == op[1] {
		in.halt()
	}
}

func (in *Interp) hgti(code uint32, op decode.Operands) {
	if int32(in.pref(op[0])) > op[1] {
		in.halt()
	}
}

func (in *Interp) hlgti(code uint32, op decode.Operands) {
	if in.pref(op[0]) > uint32(op[1]) {
		in.halt()
	}
}

// bit counting, extension and gathering

func (in *Interp) clz(code uint32, op decode.Operands) {
	w := words(in.r(op[1]))
	for i := range w {
		w[i] = uint32(bits.LeadingZeros32(w[i]))
	}
	in.w(op[0], fromWords(w))
}

func (in *Interp) cntb(code uint32, op decode.Operands) {
	b := quadBytes(in.r(op[1]))
	for i := range b {
		b[i] = popcount8(b[i])
	}
	in.w(op[0], fromBytes(b))
}

func (in *Interp) xswd(code uint32, op decode.Operands) {
	ra := in.r(op[1])
	in.w(op[0], cpu.U128{Hi: uint64(int64(int32(ra.Hi))), Lo: uint64(int64(int32(ra.Lo)))})
}

func (in *Interp) xshw(code uint32, op decode.Operands) {
	w := words(in.r(op[1]))
	for i := range w {
		w[i] = uint32(lo16s(w[i]))
	}
	in.w(op[0], fromWords(w))
}

func (in *Interp) xsbh(code uint32, op decode.Operands) {
	h := halves(in.r(op[1]))
	for i := range h {
		h[i] = uint16(int16(int8(h[i])))
	}
	in.w(op[0], fromHalves(h))
}

func (in *Interp) orx(code uint32, op decode.Operands) {
	w := words(in.r(op[1]))
	in.setPref(op[0], w[0]|w[1]|w[2]|w[3])
}

func (in *Interp) gb(code uint32, op decode.Operands) {
	var v uint32
	for _, w := range words(in.r(op[1])) {
		v = v<<1 | w&1
	}
	in.setPref(op[0], v)
}

func (in *Interp) gbh(code uint32, op decode.Operands) {
	var v uint32
	for _, h := range halves(in.r(op[1])) {
		v = v<<1 | uint32(h&1)
	}
	in.setPref(op[0], v)
}

func (in *Interp) gbb(code uint32, op decode.Operands) {
	var v uint32
	for _, b := range quadBytes(in.r(op[1])) {
		v = v<<1 | uint32(b&1)
	}
	in.setPref(op[0], v)
}

func (in *Interp) fsm(code uint32, op decode.Operands) {
	m := in.pref(op[1])
	var w [4]uint32
	for i := range w {
		w[i] = mask32(m&(8>>i) != 0)
	}
	in.w(op[0], fromWords(w))
}

func (in *Interp) fsmh(code uint32, op decode.Operands) {
	m := in.pref(op[1])
	var h [8]uint16
	for i := range h {
		h[i] = mask16(m&(0x80>>i) != 0)
	}
	in.w(op[0], fromHalves(h))
}

func (in *Interp) fsmb(code uint32, op decode.Operands) {
	m := in.pref(op[1])
	var b [16]byte
	for i := range b {
		b[i] = mask8(m&(0x8000>>i) != 0)
	}
	in.w(op[0], fromBytes(b))
}
