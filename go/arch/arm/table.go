package arm

import (
	"github.com/lunixbochs/cellcorn/go/decode"
)

// h selects bits of the first halfword, which sits in the upper half of
// the instruction word.
func h(lo, hi uint) decode.Field { return decode.Bits(lo+16, hi+16) }

// second halfword of 32-bit encodings
func l(lo, hi uint) decode.Field { return decode.Bits(lo, hi) }

var (
	rd0  = h(0, 2).Reg("r")
	rn3  = h(3, 5).Reg("r")
	rm6  = h(6, 8).Reg("r")
	rd8  = h(8, 10).Reg("r")
	hiRd = decode.Concat(h(7, 7), h(0, 2)).Reg("r")
	hiRm = h(3, 6).Reg("r")

	imm3   = h(6, 8)
	imm5   = h(6, 10)
	imm5h  = imm5.Shift(1)
	imm5w  = imm5.Shift(2)
	imm7w  = h(0, 6).Shift(2)
	imm8   = h(0, 7)
	imm8w  = imm8.Shift(2)
	cbzOff = decode.Concat(h(9, 9), h(3, 7)).Shift(1)

	reglist = h(0, 7)
	extra   = h(8, 8)

	firstcond = h(4, 7)
	itmask    = h(0, 3)

	cond   = h(8, 11)
	boff8  = h(0, 7).Signed().Shift(1)
	boff11 = h(0, 10).Signed().Shift(1)

	wRd   = l(8, 11).Reg("r")
	wRn   = h(0, 3).Reg("r")
	wRt   = l(12, 15).Reg("r")
	wRm   = l(0, 3).Reg("r")
	wRa   = l(12, 15).Reg("r")
	sbit  = h(4, 4)
	wback = h(5, 5)
	imm12 = decode.Concat(decode.Concat(h(10, 10), l(12, 14)), l(0, 7))
	imm16 = decode.Concat(decode.Concat(h(0, 3), h(10, 10)), decode.Concat(l(12, 14), l(0, 7)))
	off12 = l(0, 11)
	list  = l(0, 15)
	condw = h(6, 9)
	// S:J2:J1:imm6:imm11
	boff20 = decode.Concat(
		decode.Concat(decode.Concat(h(10, 10), l(11, 11)), decode.Concat(l(13, 13), h(0, 5))),
		l(0, 10),
	).Signed().Shift(1)

	w = decode.Size(4)
)

var table = buildTable()

func buildTable() *decode.Table[*Interp] {
	b := decode.NewBuilder[*Interp]("thumb", 2)
	b.Unknown("unk", (*Interp).unknown)
	root := b.Root("op", h(11, 15))

	root.Bind(0, "lsl", (*Interp).lslImm, rd0, rn3, imm5)
	root.Bind(1, "lsr", (*Interp).lsrImm, rd0, rn3, imm5)
	root.Bind(2, "asr", (*Interp).asrImm, rd0, rn3, imm5)
	addsub := root.Sub(3, "addsub", h(9, 10))
	addsub.Bind(0, "add", (*Interp).addReg, rd0, rn3, rm6)
	addsub.Bind(1, "sub", (*Interp).subReg, rd0, rn3, rm6)
	addsub.Bind(2, "add", (*Interp).addImm3, rd0, rn3, imm3)
	addsub.Bind(3, "sub", (*Interp).subImm3, rd0, rn3, imm3)
	root.Bind(4, "mov", (*Interp).movImm, rd8, imm8)
	root.Bind(5, "cmp", (*Interp).cmpImm, rd8, imm8)
	root.Bind(6, "add", (*Interp).addImm8, rd8, imm8)
	root.Bind(7, "sub", (*Interp).subImm8, rd8, imm8)

	g8 := root.Sub(8, "g8", h(10, 10))
	dp := g8.Sub(0, "dp", h(6, 9))
	for i, op := range []struct {
		name string
		h    decode.Handler[*Interp]
	}{
		{"and", (*Interp).and},
		{"eor", (*Interp).eor},
		{"lsl", (*Interp).lslReg},
		{"lsr", (*Interp).lsrReg},
		{"asr", (*Interp).asrReg},
		{"adc", (*Interp).adc},
		{"sbc", (*Interp).sbc},
		{"ror", (*Interp).rorReg},
		{"tst", (*Interp).tst},
		{"rsb", (*Interp).rsb},
		{"cmp", (*Interp).cmpReg},
		{"cmn", (*Interp).cmn},
		{"orr", (*Interp).orr},
		{"mul", (*Interp).mul},
		{"bic", (*Interp).bic},
		{"mvn", (*Interp).mvn},
	} {
		dp.Bind(uint32(i), op.name, op.h, rd0, rn3)
	}
	hi := g8.Sub(1, "hireg", h(8, 9))
	hi.Bind(0, "add", (*Interp).addHi, hiRd, hiRm)
	hi.Bind(1, "cmp", (*Interp).cmpReg, hiRd, hiRm)
	hi.Bind(2, "mov", (*Interp).movHi, hiRd, hiRm)
	bx := hi.Sub(3, "bx", h(7, 7))
	bx.Bind(0, "bx", (*Interp).bx, hiRm)
	bx.Bind(1, "blx", (*Interp).blx, hiRm)

	root.Bind(9, "ldr", (*Interp).ldrLit, rd8, imm8w)
	st := root.Sub(10, "streg", h(9, 10))
	st.Bind(0, "str", (*Interp).strReg, rd0, rn3, rm6)
	st.Bind(1, "strh", (*Interp).strhReg, rd0, rn3, rm6)
	st.Bind(2, "strb", (*Interp).strbReg, rd0, rn3, rm6)
	st.Bind(3, "ldrsb", (*Interp).ldrsbReg, rd0, rn3, rm6)
	ld := root.Sub(11, "ldreg", h(9, 10))
	ld.Bind(0, "ldr", (*Interp).ldrReg, rd0, rn3, rm6)
	ld.Bind(1, "ldrh", (*Interp).ldrhReg, rd0, rn3, rm6)
	ld.Bind(2, "ldrb", (*Interp).ldrbReg, rd0, rn3, rm6)
	ld.Bind(3, "ldrsh", (*Interp).ldrshReg, rd0, rn3, rm6)
	root.Bind(12, "str", (*Interp).strImm, rd0, rn3, imm5w)
	root.Bind(13, "ldr", (*Interp).ldrImm, rd0, rn3, imm5w)
	root.Bind(14, "strb", (*Interp).strbImm, rd0, rn3, imm5)
	root.Bind(15, "ldrb", (*Interp).ldrbImm, rd0, rn3, imm5)
	root.Bind(16, "strh", (*Interp).strhImm, rd0, rn3, imm5h)
	root.Bind(17, "ldrh", (*Interp).ldrhImm, rd0, rn3, imm5h)
	root.Bind(18, "str.sp", (*Interp).strSP, rd8, imm8w)
	root.Bind(19, "ldr.sp", (*Interp).ldrSP, rd8, imm8w)
	root.Bind(20, "adr", (*Interp).adr, rd8, imm8w)
	root.Bind(21, "add.sp", (*Interp).addSPImm, rd8, imm8w)

	misc := root.Sub(22, "misc", h(8, 10))
	spadj := misc.Sub(0, "spadj", h(7, 7))
	spadj.Bind(0, "add sp,", (*Interp).addSP, imm7w)
	spadj.Bind(1, "sub sp,", (*Interp).subSP, imm7w)
	misc.Bind(1, "cbz", (*Interp).cbz, rd0, cbzOff)
	misc.Bind(3, "cbz", (*Interp).cbz, rd0, cbzOff)
	ext := misc.Sub(2, "extend", h(6, 7))
	ext.Bind(0, "sxth", (*Interp).sxth, rd0, rn3)
	ext.Bind(1, "sxtb", (*Interp).sxtb, rd0, rn3)
	ext.Bind(2, "uxth", (*Interp).uxth, rd0, rn3)
	ext.Bind(3, "uxtb", (*Interp).uxtb, rd0, rn3)
	misc.Bind(4, "push", (*Interp).push, reglist, extra)
	misc.Bind(5, "push", (*Interp).push, reglist, extra)

	misc2 := root.Sub(23, "misc2", h(8, 10))
	misc2.Bind(1, "cbnz", (*Interp).cbnz, rd0, cbzOff)
	misc2.Bind(3, "cbnz", (*Interp).cbnz, rd0, cbzOff)
	rev := misc2.Sub(2, "rev", h(6, 7))
	rev.Bind(0, "rev", (*Interp).rev, rd0, rn3)
	rev.Bind(1, "rev16", (*Interp).rev16, rd0, rn3)
	rev.Bind(3, "revsh", (*Interp).revsh, rd0, rn3)
	misc2.Bind(4, "pop", (*Interp).pop, reglist, extra)
	misc2.Bind(5, "pop", (*Interp).pop, reglist, extra)
	misc2.Bind(6, "bkpt", (*Interp).bkpt, imm8)
	// IT needs a nonzero mask; a zero mask is a hint
	it := misc2.Sub(7, "it", itmask)
	it.Default("it", (*Interp).it, firstcond, itmask)
	hint := it.Sub(0, "hint", h(4, 7))
	hint.Bind(0, "nop", (*Interp).nop)
	hint.Bind(1, "yield", (*Interp).nop)
	hint.Bind(2, "wfe", (*Interp).nop)
	hint.Bind(3, "wfi", (*Interp).nop)
	hint.Bind(4, "sev", (*Interp).nop)

	root.Bind(24, "stm", (*Interp).stm, rd8, reglist)
	root.Bind(25, "ldm", (*Interp).ldm, rd8, reglist)
	root.Bind(26, "bcond", (*Interp).bcond, cond, boff8)
	bc := root.Sub(27, "bcond", h(8, 10))
	bc.Default("bcond", (*Interp).bcond, cond, boff8)
	bc.Bind(6, "udf", (*Interp).unknown, imm8)
	bc.Bind(7, "svc", (*Interp).svc, imm8)
	root.Bind(28, "b", (*Interp).b, boff11)

	// 32-bit encodings

	multi := root.Sub(29, "ldstm", decode.Concat(h(6, 10), h(4, 4)))
	multi.Bind(4, "stm.w", (*Interp).stmw, wRn, list, wback, w)
	multi.Bind(5, "ldm.w", (*Interp).ldmw, wRn, list, wback, w)
	multi.Sub(5, "pop", decode.Concat(wback, h(0, 3))).Bind(0x1d, "pop.w", (*Interp).popw, list, w)
	multi.Bind(8, "stmdb", (*Interp).stmdb, wRn, list, wback, w)
	multi.Sub(8, "push", decode.Concat(wback, h(0, 3))).Bind(0x1d, "push.w", (*Interp).pushw, list, w)
	multi.Bind(9, "ldmdb", (*Interp).ldmdb, wRn, list, wback, w)

	g30 := root.Sub(30, "g30", l(15, 15))
	dpw := g30.Sub(0, "dpimm", h(9, 9))
	mod := dpw.Sub(0, "modimm", h(5, 8))
	mod.Bind(0, "and.w", (*Interp).andw, wRd, wRn, imm12, sbit, w)
	mod.Bind(1, "bic.w", (*Interp).bicw, wRd, wRn, imm12, sbit, w)
	// rn of pc turns orr and orn into mov and mvn
	mod.Bind(2, "orr.w", (*Interp).orrw, wRd, wRn, imm12, sbit, w)
	mod.Sub(2, "mov", h(0, 3)).Bind(15, "mov.w", (*Interp).movWide, wRd, imm12, sbit, w)
	mod.Bind(3, "orn.w", (*Interp).ornw, wRd, wRn, imm12, sbit, w)
	mod.Sub(3, "mvn", h(0, 3)).Bind(15, "mvn.w", (*Interp).mvnWide, wRd, imm12, sbit, w)
	mod.Bind(4, "eor.w", (*Interp).eorw, wRd, wRn, imm12, sbit, w)
	mod.Bind(8, "add.w", (*Interp).addw, wRd, wRn, imm12, sbit, w)
	mod.Bind(10, "adc.w", (*Interp).adcw, wRd, wRn, imm12, sbit, w)
	mod.Bind(11, "sbc.w", (*Interp).sbcw, wRd, wRn, imm12, sbit, w)
	mod.Bind(13, "sub.w", (*Interp).subw, wRd, wRn, imm12, sbit, w)
	mod.Bind(14, "rsb.w", (*Interp).rsbw, wRd, wRn, imm12, sbit, w)
	plain := dpw.Sub(1, "plainimm", h(4, 8))
	plain.Bind(0, "addw", (*Interp).addwImm, wRd, wRn, imm12, w)
	plain.Bind(4, "movw", (*Interp).movw, wRd, imm16, w)
	plain.Bind(10, "subw", (*Interp).subwImm, wRd, wRn, imm12, w)
	plain.Bind(12, "movt", (*Interp).movt, wRd, imm16, w)
	br := g30.Sub(1, "branch", decode.Concat(l(14, 14), l(12, 12)))
	br.Bind(0, "bcond.w", (*Interp).bcondw, condw, boff20, w)
	br.Bind(1, "b.w", (*Interp).bw, w)
	br.Bind(3, "bl", (*Interp).bl, w)

	g31 := root.Sub(31, "g31", h(4, 10))
	g31.Bind(0x08, "strb.w", (*Interp).strbw, wRt, wRn, off12, w)
	g31.Bind(0x09, "ldrb.w", (*Interp).ldrbw, wRt, wRn, off12, w)
	g31.Bind(0x0a, "strh.w", (*Interp).strhw, wRt, wRn, off12, w)
	g31.Bind(0x0b, "ldrh.w", (*Interp).ldrhw, wRt, wRn, off12, w)
	g31.Bind(0x0c, "str.w", (*Interp).strw, wRt, wRn, off12, w)
	g31.Bind(0x0d, "ldr.w", (*Interp).ldrw, wRt, wRn, off12, w)
	// ra of pc is a plain multiply
	mul := g31.Sub(0x30, "mul", l(4, 7)).Sub(0, "mla", l(12, 15))
	mul.Default("mla", (*Interp).mla, wRd, wRn, wRm, wRa, w)
	mul.Bind(15, "mul.w", (*Interp).mulw, wRd, wRn, wRm, w)

	return b.MustBuild()
}
