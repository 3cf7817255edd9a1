package spu

import (
	"github.com/lunixbochs/cellcorn/go/decode"
)

// operand fields, numbered from the most significant bit
var (
	rt    = decode.MSB0(25, 31).Reg("$")
	ra    = decode.MSB0(18, 24).Reg("$")
	rb    = decode.MSB0(11, 17).Reg("$")
	rc    = decode.MSB0(25, 31).Reg("$")
	rtRRR = decode.MSB0(4, 10).Reg("$")

	i7     = decode.MSB0(11, 17)
	si7    = decode.MSB0(11, 17).Signed()
	i8     = decode.MSB0(10, 17)
	i10    = decode.MSB0(8, 17)
	si10   = decode.MSB0(8, 17).Signed()
	si10s4 = decode.MSB0(8, 17).Signed().Shift(4)
	i16    = decode.MSB0(9, 24)
	si16   = decode.MSB0(9, 24).Signed()
	i16s2  = decode.MSB0(9, 24).Shift(2)
	si16s2 = decode.MSB0(9, 24).Signed().Shift(2)
	i18    = decode.MSB0(7, 24)
	ro     = decode.Concat(decode.MSB0(16, 17), decode.MSB0(25, 31)).Signed().Shift(2)
	l18_31 = decode.MSB0(18, 31)
	l11    = decode.MSB0(11, 11)
)

var table = buildTable()

type bind = func(*Interp, uint32, decode.Operands)

// Opcodes are matched longest-prefix last: a four bit RRR opcode, then
// 7, 8, 9, 10 and finally 11 bit opcodes.
func buildTable() *decode.Table[*Interp] {
	b := decode.NewBuilder[*Interp]("spu", 4)
	b.Unknown("unk", (*Interp).unknown)
	todo := (*Interp).notImplemented

	rrr := b.Root("rrr", decode.MSB0(0, 3))
	rrr.Bind(0x8, "selb", (*Interp).selb, rtRRR, ra, rb, rc)
	rrr.Bind(0xb, "shufb", (*Interp).shufb, rtRRR, ra, rb, rc)
	rrr.Bind(0xc, "mpya", (*Interp).mpya, rtRRR, ra, rb, rc)
	rrr.Bind(0xd, "fnms", (*Interp).fnms, rtRRR, ra, rb, rc)
	rrr.Bind(0xe, "fma", (*Interp).fma, rtRRR, ra, rb, rc)
	rrr.Bind(0xf, "fms", (*Interp).fms, rtRRR, ra, rb, rc)

	ri18 := rrr.Fallback("ri18", decode.MSB0(0, 6))
	ri18.Bind(0x08, "hbra", (*Interp).nop, ro, i16s2)
	ri18.Bind(0x09, "hbrr", (*Interp).nop, ro, si16s2)
	ri18.Bind(0x21, "ila", (*Interp).ila, rt, i18)

	ri10 := ri18.Fallback("ri10", decode.MSB0(0, 7))
	for _, e := range []struct {
		op   uint32
		name string
		h    bind
		imm  decode.Field
	}{
		{0x04, "ori", (*Interp).ori, si10},
		{0x05, "orhi", (*Interp).orhi, si10},
		{0x06, "orbi", (*Interp).orbi, i10},
		{0x0c, "sfi", (*Interp).sfi, si10},
		{0x0d, "sfhi", (*Interp).sfhi, si10},
		{0x14, "andi", (*Interp).andi, si10},
		{0x15, "andhi", (*Interp).andhi, si10},
		{0x16, "andbi", (*Interp).andbi, i10},
		{0x1c, "ai", (*Interp).ai, si10},
		{0x1d, "ahi", (*Interp).ahi, si10},
		{0x44, "xori", (*Interp).xori, si10},
		{0x45, "xorhi", (*Interp).xorhi, si10},
		{0x46, "xorbi", (*Interp).xorbi, i10},
		{0x4c, "cgti", (*Interp).cgti, si10},
		{0x4d, "cgthi", (*Interp).cgthi, si10},
		{0x4e, "cgtbi", (*Interp).cgtbi, i10},
		{0x5c, "clgti", (*Interp).clgti, si10},
		{0x5d, "clgthi", (*Interp).clgthi, si10},
		{0x5e, "clgtbi", (*Interp).clgtbi, i10},
		{0x74, "mpyi", (*Interp).mpyi, si10},
		{0x75, "mpyui", (*Interp).mpyui, si10},
		{0x7c, "ceqi", (*Interp).ceqi, si10},
		{0x7d, "ceqhi", (*Interp).ceqhi, si10},
		{0x7e, "ceqbi", (*Interp).ceqbi, i10},
	} {
		ri10.Bind(e.op, e.name, e.h, rt, ra, e.imm)
	}
	ri10.Bind(0x24, "stqd", (*Interp).stqd, rt, si10s4, ra)
	ri10.Bind(0x34, "lqd", (*Interp).lqd, rt, si10s4, ra)
	ri10.Bind(0x4f, "hgti", (*Interp).hgti, ra, si10)
	ri10.Bind(0x5f, "hlgti", (*Interp).hlgti, ra, si10)
	ri10.Bind(0x7f, "heqi", (*Interp).heqi, ra, si10)

	ri16 := ri10.Fallback("ri16", decode.MSB0(0, 8))
	ri16.Bind(0x040, "brz", (*Interp).brz, rt, si16s2)
	ri16.Bind(0x041, "stqa", (*Interp).stqa, rt, si16s2)
	ri16.Bind(0x042, "brnz", (*Interp).brnz, rt, si16s2)
	ri16.Bind(0x044, "brhz", (*Interp).brhz, rt, si16s2)
	ri16.Bind(0x046, "brhnz", (*Interp).brhnz, rt, si16s2)
	ri16.Bind(0x047, "stqr", (*Interp).stqr, rt, si16s2)
	ri16.Bind(0x060, "bra", (*Interp).bra, si16s2)
	ri16.Bind(0x061, "lqa", (*Interp).lqa, rt, si16s2)
	ri16.Bind(0x062, "brasl", (*Interp).brasl, rt, si16s2)
	ri16.Bind(0x064, "br", (*Interp).br, si16s2)
	ri16.Bind(0x065, "fsmbi", (*Interp).fsmbi, rt, i16)
	ri16.Bind(0x066, "brsl", (*Interp).brsl, rt, si16s2)
	ri16.Bind(0x067, "lqr", (*Interp).lqr, rt, si16s2)
	ri16.Bind(0x081, "il", (*Interp).il, rt, si16)
	ri16.Bind(0x082, "ilhu", (*Interp).ilhu, rt, i16)
	ri16.Bind(0x083, "ilh", (*Interp).ilh, rt, i16)
	ri16.Bind(0x0c1, "iohl", (*Interp).iohl, rt, i16)

	ri8 := ri16.Fallback("ri8", decode.MSB0(0, 9))
	ri8.Bind(0x1d8, "cflts", (*Interp).cflts, rt, ra, i8)
	ri8.Bind(0x1d9, "cfltu", (*Interp).cfltu, rt, ra, i8)
	ri8.Bind(0x1da, "csflt", (*Interp).csflt, rt, ra, i8)
	ri8.Bind(0x1db, "cuflt", (*Interp).cuflt, rt, ra, i8)

	rr := ri8.Fallback("rr", decode.MSB0(0, 10))
	rr.Bind(0x000, "stop", (*Interp).stop, l18_31)
	rr.Bind(0x001, "lnop", (*Interp).nop)
	rr.Bind(0x002, "sync", (*Interp).nop, l11)
	rr.Bind(0x003, "dsync", (*Interp).nop)
	rr.Bind(0x00c, "mfspr", (*Interp).mfspr, rt, ra)
	rr.Bind(0x00d, "rdch", (*Interp).rdch, rt, ra)
	rr.Bind(0x00f, "rchcnt", (*Interp).rchcnt, rt, ra)
	rr.Bind(0x10c, "mtspr", (*Interp).mtspr, ra, rt)
	rr.Bind(0x10d, "wrch", (*Interp).wrch, ra, rt)
	rr.Bind(0x128, "biz", (*Interp).biz, rt, ra)
	rr.Bind(0x129, "binz", (*Interp).binz, rt, ra)
	rr.Bind(0x12a, "bihz", (*Interp).bihz, rt, ra)
	rr.Bind(0x12b, "bihnz", (*Interp).bihnz, rt, ra)
	rr.Bind(0x140, "stopd", todo, rt, ra, rb)
	rr.Bind(0x1a8, "bi", (*Interp).bi, ra)
	rr.Bind(0x1a9, "bisl", (*Interp).bisl, rt, ra)
	rr.Bind(0x1aa, "iret", (*Interp).iret)
	rr.Bind(0x1ab, "bisled", todo, rt, ra)
	rr.Bind(0x1ac, "hbr", (*Interp).nop, l11, ro, ra)
	rr.Bind(0x201, "nop", (*Interp).nop, rt)
	rr.Bind(0x258, "hgt", (*Interp).hgt, ra, rb)
	rr.Bind(0x2d8, "hlgt", (*Interp).hlgt, ra, rb)
	rr.Bind(0x3d8, "heq", (*Interp).heq, ra, rb)
	rr.Bind(0x398, "fscrrd", (*Interp).fscrrd, rt)
	rr.Bind(0x3ba, "fscrwr", (*Interp).nop, rt, ra)
	rr.Bind(0x3bf, "dftsv", todo, rt, ra, i7)

	// rt, ra
	for _, e := range []struct {
		op   uint32
		name string
		h    bind
	}{
		{0x1b0, "gb", (*Interp).gb},
		{0x1b1, "gbh", (*Interp).gbh},
		{0x1b2, "gbb", (*Interp).gbb},
		{0x1b4, "fsm", (*Interp).fsm},
		{0x1b5, "fsmh", (*Interp).fsmh},
		{0x1b6, "fsmb", (*Interp).fsmb},
		{0x1b8, "frest", (*Interp).frest},
		{0x1b9, "frsqest", (*Interp).frsqest},
		{0x1f0, "orx", (*Interp).orx},
		{0x2a5, "clz", (*Interp).clz},
		{0x2a6, "xswd", (*Interp).xswd},
		{0x2ae, "xshw", (*Interp).xshw},
		{0x2b4, "cntb", (*Interp).cntb},
		{0x2b6, "xsbh", (*Interp).xsbh},
		{0x3b8, "fesd", (*Interp).fesd},
		{0x3b9, "frds", (*Interp).frds},
	} {
		rr.Bind(e.op, e.name, e.h, rt, ra)
	}

	// rt, ra, rb
	for _, e := range []struct {
		op   uint32
		name string
		h    bind
	}{
		{0x040, "sf", (*Interp).sf},
		{0x041, "or", (*Interp).or},
		{0x042, "bg", (*Interp).bg},
		{0x048, "sfh", (*Interp).sfh},
		{0x049, "nor", (*Interp).nor},
		{0x053, "absdb", (*Interp).absdb},
		{0x058, "rot", (*Interp).rot},
		{0x059, "rotm", (*Interp).rotm},
		{0x05a, "rotma", (*Interp).rotma},
		{0x05b, "shl", (*Interp).shl},
		{0x05c, "roth", (*Interp).roth},
		{0x05d, "rothm", (*Interp).rothm},
		{0x05e, "rotmah", (*Interp).rotmah},
		{0x05f, "shlh", (*Interp).shlh},
		{0x0c0, "a", (*Interp).a},
		{0x0c1, "and", (*Interp).and},
		{0x0c2, "cg", (*Interp).cg},
		{0x0c8, "ah", (*Interp).ah},
		{0x0c9, "nand", (*Interp).nand},
		{0x0d3, "avgb", (*Interp).avgb},
		{0x144, "stqx", (*Interp).stqx},
		{0x1c4, "lqx", (*Interp).lqx},
		{0x1cc, "rotqbybi", (*Interp).rotqbybi},
		{0x1cd, "rotqmbybi", (*Interp).rotqmbybi},
		{0x1cf, "shlqbybi", (*Interp).shlqbybi},
		{0x1d4, "cbx", (*Interp).cbx},
		{0x1d5, "chx", (*Interp).chx},
		{0x1d6, "cwx", (*Interp).cwx},
		{0x1d7, "cdx", (*Interp).cdx},
		{0x1d8, "rotqbi", (*Interp).rotqbi},
		{0x1d9, "rotqmbi", (*Interp).rotqmbi},
		{0x1db, "shlqbi", (*Interp).shlqbi},
		{0x1dc, "rotqby", (*Interp).rotqby},
		{0x1dd, "rotqmby", (*Interp).rotqmby},
		{0x1df, "shlqby", (*Interp).shlqby},
		{0x240, "cgt", (*Interp).cgt},
		{0x241, "xor", (*Interp).xor},
		{0x248, "cgth", (*Interp).cgth},
		{0x249, "eqv", (*Interp).eqv},
		{0x250, "cgtb", (*Interp).cgtb},
		{0x253, "sumb", (*Interp).sumb},
		{0x2c0, "clgt", (*Interp).clgt},
		{0x2c1, "andc", (*Interp).andc},
		{0x2c2, "fcgt", (*Interp).fcgt},
		{0x2c3, "dfcgt", todo},
		{0x2c4, "fa", (*Interp).fa},
		{0x2c5, "fs", (*Interp).fs},
		{0x2c6, "fm", (*Interp).fm},
		{0x2c8, "clgth", (*Interp).clgth},
		{0x2c9, "orc", (*Interp).orc},
		{0x2ca, "fcmgt", (*Interp).fcmgt},
		{0x2cb, "dfcmgt", todo},
		{0x2cc, "dfa", (*Interp).dfa},
		{0x2cd, "dfs", (*Interp).dfs},
		{0x2ce, "dfm", (*Interp).dfm},
		{0x2d0, "clgtb", (*Interp).clgtb},
		{0x340, "addx", (*Interp).addx},
		{0x341, "sfx", (*Interp).sfx},
		{0x342, "cgx", (*Interp).cgx},
		{0x343, "bgx", (*Interp).bgx},
		{0x346, "mpyhha", (*Interp).mpyhha},
		{0x34e, "mpyhhau", (*Interp).mpyhhau},
		{0x35c, "dfma", (*Interp).dfma},
		{0x35d, "dfms", (*Interp).dfms},
		{0x35e, "dfnms", (*Interp).dfnms},
		{0x35f, "dfnma", (*Interp).dfnma},
		{0x3c0, "ceq", (*Interp).ceq},
		{0x3c2, "fceq", (*Interp).fceq},
		{0x3c3, "dfceq", todo},
		{0x3c4, "mpy", (*Interp).mpy},
		{0x3c5, "mpyh", (*Interp).mpyh},
		{0x3c6, "mpyhh", (*Interp).mpyhh},
		{0x3c7, "mpys", (*Interp).mpys},
		{0x3c8, "ceqh", (*Interp).ceqh},
		{0x3ca, "fcmeq", (*Interp).fcmeq},
		{0x3cb, "dfcmeq", todo},
		{0x3cc, "mpyu", (*Interp).mpyu},
		{0x3ce, "mpyhhu", (*Interp).mpyhhu},
		{0x3d0, "ceqb", (*Interp).ceqb},
		{0x3d4, "fi", (*Interp).fi},
	} {
		rr.Bind(e.op, e.name, e.h, rt, ra, rb)
	}

	// rt, ra, immediate
	for _, e := range []struct {
		op   uint32
		name string
		h    bind
		imm  decode.Field
	}{
		{0x078, "roti", (*Interp).roti, i7},
		{0x079, "rotmi", (*Interp).rotmi, i7},
		{0x07a, "rotmai", (*Interp).rotmai, i7},
		{0x07b, "shli", (*Interp).shli, i7},
		{0x07c, "rothi", (*Interp).rothi, i7},
		{0x07d, "rothmi", (*Interp).rothmi, i7},
		{0x07e, "rotmahi", (*Interp).rotmahi, i7},
		{0x07f, "shlhi", (*Interp).shlhi, i7},
		{0x1f4, "cbd", (*Interp).cbd, si7},
		{0x1f5, "chd", (*Interp).chd, si7},
		{0x1f6, "cwd", (*Interp).cwd, si7},
		{0x1f7, "cdd", (*Interp).cdd, si7},
		{0x1f8, "rotqbii", (*Interp).rotqbii, i7},
		{0x1f9, "rotqmbii", (*Interp).rotqmbii, i7},
		{0x1fb, "shlqbii", (*Interp).shlqbii, i7},
		{0x1fc, "rotqbyi", (*Interp).rotqbyi, i7},
		{0x1fd, "rotqmbyi", (*Interp).rotqmbyi, i7},
		{0x1ff, "shlqbyi", (*Interp).shlqbyi, i7},
	} {
		rr.Bind(e.op, e.name, e.h, rt, ra, e.imm)
	}
	return b.MustBuild()
}
