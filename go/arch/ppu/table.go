package ppu

import (
	"github.com/lunixbochs/cellcorn/go/decode"
)

var (
	rd = decode.MSB0(6, 10).Reg("r")
	ra = decode.MSB0(11, 15).Reg("r")
	rb = decode.MSB0(16, 20).Reg("r")
	fd = decode.MSB0(6, 10).Reg("f")
	fa = decode.MSB0(11, 15).Reg("f")
	fb = decode.MSB0(16, 20).Reg("f")
	fc = decode.MSB0(21, 25).Reg("f")

	crfd = decode.MSB0(6, 8)
	crfs = decode.MSB0(11, 13)
	lbit = decode.MSB0(10, 10)
	crbd = decode.MSB0(6, 10)
	crba = decode.MSB0(11, 15)
	crbb = decode.MSB0(16, 20)
	bo   = decode.MSB0(6, 10)
	bi   = decode.MSB0(11, 15)
	bd   = decode.MSB0(16, 29).Signed().Shift(2)
	li   = decode.MSB0(6, 29).Signed().Shift(2)
	crm  = decode.MSB0(12, 19)
	fm   = decode.MSB0(7, 14)

	simm  = decode.MSB0(16, 31).Signed()
	simmh = decode.MSB0(16, 31).Signed().Shift(16)
	uimm  = decode.MSB0(16, 31)
	uimmh = decode.MSB0(16, 31).Shift(16)
	ds    = decode.MSB0(16, 29).Signed().Shift(2)

	sh = decode.MSB0(16, 20)
	mb = decode.MSB0(21, 25)
	me = decode.MSB0(26, 30)
	// the 64-bit rotate fields store their high bit apart from the rest
	sh64 = decode.Concat(decode.MSB0(30, 30), decode.MSB0(16, 20))
	mb64 = decode.Concat(decode.MSB0(26, 26), decode.MSB0(21, 25))
	spr  = decode.Concat(decode.MSB0(16, 20), decode.MSB0(11, 15))
)

var table = buildTable()

type bind = func(*Interp, uint32, decode.Operands)

type xop struct {
	xo   uint32
	name string
	h    bind
}

func bindAll(lvl *decode.Level[*Interp], ops []xop, args ...decode.Arg) {
	for _, o := range ops {
		lvl.Bind(o.xo, o.name, o.h, args...)
	}
}

func buildTable() *decode.Table[*Interp] {
	b := decode.NewBuilder[*Interp]("ppu", 4)
	b.Unknown("unk", (*Interp).unknown)
	todo := (*Interp).notImplemented

	root := b.Root("opcd", decode.MSB0(0, 5))
	root.Bind(2, "tdi", todo, decode.MSB0(6, 10), ra, simm)
	root.Bind(3, "twi", todo, decode.MSB0(6, 10), ra, simm)
	root.Bind(4, "vmx", todo)
	root.Bind(7, "mulli", (*Interp).mulli, rd, ra, simm)
	root.Bind(8, "subfic", (*Interp).subfic, rd, ra, simm)
	root.Bind(10, "cmpli", (*Interp).cmpli, crfd, lbit, ra, uimm)
	root.Bind(11, "cmpi", (*Interp).cmpi, crfd, lbit, ra, simm)
	root.Bind(12, "addic", (*Interp).addic, rd, ra, simm)
	root.Bind(13, "addic.", (*Interp).addic, rd, ra, simm)
	root.Bind(14, "addi", (*Interp).addi, rd, ra, simm)
	root.Bind(15, "addis", (*Interp).addis, rd, ra, simmh)
	root.Bind(16, "bc", (*Interp).bc, bo, bi, bd)
	root.Bind(17, "sc", (*Interp).sc)
	root.Bind(18, "b", (*Interp).b, li)
	root.Bind(20, "rlwimi", (*Interp).rlwimi, ra, rd, sh, mb, me)
	root.Bind(21, "rlwinm", (*Interp).rlwinm, ra, rd, sh, mb, me)
	root.Bind(23, "rlwnm", (*Interp).rlwnm, ra, rd, rb, mb, me)
	root.Bind(24, "ori", (*Interp).ori, ra, rd, uimm)
	root.Bind(25, "oris", (*Interp).ori, ra, rd, uimmh)
	root.Bind(26, "xori", (*Interp).xori, ra, rd, uimm)
	root.Bind(27, "xoris", (*Interp).xori, ra, rd, uimmh)
	root.Bind(28, "andi.", (*Interp).andi, ra, rd, uimm)
	root.Bind(29, "andis.", (*Interp).andi, ra, rd, uimmh)

	bindAll(root, []xop{
		{32, "lwz", (*Interp).lwz},
		{33, "lwzu", (*Interp).lwzu},
		{34, "lbz", (*Interp).lbz},
		{35, "lbzu", (*Interp).lbzu},
		{36, "stw", (*Interp).stw},
		{37, "stwu", (*Interp).stwu},
		{38, "stb", (*Interp).stb},
		{39, "stbu", (*Interp).stbu},
		{40, "lhz", (*Interp).lhz},
		{41, "lhzu", (*Interp).lhzu},
		{42, "lha", (*Interp).lha},
		{43, "lhau", (*Interp).lhau},
		{44, "sth", (*Interp).sth},
		{45, "sthu", (*Interp).sthu},
		{46, "lmw", (*Interp).lmw},
		{47, "stmw", (*Interp).stmw},
	}, rd, simm, ra)
	bindAll(root, []xop{
		{48, "lfs", (*Interp).lfs},
		{49, "lfsu", (*Interp).lfsu},
		{50, "lfd", (*Interp).lfd},
		{51, "lfdu", (*Interp).lfdu},
		{52, "stfs", (*Interp).stfs},
		{53, "stfsu", (*Interp).stfsu},
		{54, "stfd", (*Interp).stfd},
		{55, "stfdu", (*Interp).stfdu},
	}, fd, simm, ra)

	g19 := root.Sub(19, "g19", decode.MSB0(21, 30))
	g19.Bind(0, "mcrf", (*Interp).mcrf, crfd, crfs)
	g19.Bind(16, "bclr", (*Interp).bclr, bo, bi)
	g19.Bind(150, "isync", (*Interp).nop)
	g19.Bind(528, "bcctr", (*Interp).bcctr, bo, bi)
	bindAll(g19, []xop{
		{33, "crnor", (*Interp).crnor},
		{129, "crandc", (*Interp).crandc},
		{193, "crxor", (*Interp).crxor},
		{225, "crnand", (*Interp).crnand},
		{257, "crand", (*Interp).crand},
		{289, "creqv", (*Interp).creqv},
		{417, "crorc", (*Interp).crorc},
		{449, "cror", (*Interp).cror},
	}, crbd, crba, crbb)

	// MD form with the two MDS encodings nested under slot 4
	g30 := root.Sub(30, "g30", decode.MSB0(27, 29))
	g30.Bind(0, "rldicl", (*Interp).rldicl, ra, rd, sh64, mb64)
	g30.Bind(1, "rldicr", (*Interp).rldicr, ra, rd, sh64, mb64)
	g30.Bind(2, "rldic", (*Interp).rldic, ra, rd, sh64, mb64)
	g30.Bind(3, "rldimi", (*Interp).rldimi, ra, rd, sh64, mb64)
	mds := g30.Sub(4, "g30mds", decode.MSB0(30, 30))
	mds.Bind(0, "rldcl", (*Interp).rldcl, ra, rd, rb, mb64)
	mds.Bind(1, "rldcr", (*Interp).rldcr, ra, rd, rb, mb64)

	g31 := root.Sub(31, "g31", decode.MSB0(21, 30))
	g31.Bind(0, "cmp", (*Interp).cmp, crfd, lbit, ra, rb)
	g31.Bind(32, "cmpl", (*Interp).cmpl, crfd, lbit, ra, rb)
	g31.Bind(4, "tw", todo, decode.MSB0(6, 10), ra, rb)
	g31.Bind(68, "td", todo, decode.MSB0(6, 10), ra, rb)
	g31.Bind(19, "mfcr", (*Interp).mfcr, rd)
	g31.Bind(144, "mtcrf", (*Interp).mtcrf, crm, rd)
	g31.Bind(339, "mfspr", (*Interp).mfspr, rd, spr)
	g31.Bind(371, "mftb", (*Interp).mftb, rd, spr)
	g31.Bind(467, "mtspr", (*Interp).mtspr, spr, rd)
	g31.Bind(824, "srawi", (*Interp).srawi, ra, rd, sh)
	g31.Bind(826, "sradi", (*Interp).sradi, ra, rd, sh64)
	g31.Bind(827, "sradi", (*Interp).sradi, ra, rd, sh64)
	g31.Bind(1014, "dcbz", (*Interp).dcbz, ra, rb)
	bindAll(g31, []xop{
		{54, "dcbst", (*Interp).nop},
		{86, "dcbf", (*Interp).nop},
		{246, "dcbtst", (*Interp).nop},
		{278, "dcbt", (*Interp).nop},
		{598, "sync", (*Interp).nop},
		{854, "eieio", (*Interp).nop},
	}, ra, rb)
	// rd, ra, rb
	bindAll(g31, []xop{
		{8, "subfc", (*Interp).subfc},
		{10, "addc", (*Interp).addc},
		{9, "mulhdu", (*Interp).mulhdu},
		{11, "mulhwu", (*Interp).mulhwu},
		{40, "subf", (*Interp).subf},
		{73, "mulhd", (*Interp).mulhd},
		{75, "mulhw", (*Interp).mulhw},
		{136, "subfe", (*Interp).subfe},
		{138, "adde", (*Interp).adde},
		{233, "mulld", (*Interp).mulld},
		{235, "mullw", (*Interp).mullw},
		{266, "add", (*Interp).add},
		{457, "divdu", (*Interp).divdu},
		{459, "divwu", (*Interp).divwu},
		{489, "divd", (*Interp).divd},
		{491, "divw", (*Interp).divw},
		{20, "lwarx", (*Interp).lwarx},
		{21, "ldx", (*Interp).ldx},
		{23, "lwzx", (*Interp).lwzx},
		{53, "ldux", (*Interp).ldux},
		{55, "lwzux", (*Interp).lwzux},
		{84, "ldarx", (*Interp).ldarx},
		{87, "lbzx", (*Interp).lbzx},
		{119, "lbzux", (*Interp).lbzux},
		{149, "stdx", (*Interp).stdx},
		{150, "stwcx.", (*Interp).stwcx},
		{151, "stwx", (*Interp).stwx},
		{181, "stdux", (*Interp).stdux},
		{183, "stwux", (*Interp).stwux},
		{214, "stdcx.", (*Interp).stdcx},
		{215, "stbx", (*Interp).stbx},
		{247, "stbux", (*Interp).stbux},
		{279, "lhzx", (*Interp).lhzx},
		{311, "lhzux", (*Interp).lhzux},
		{343, "lhax", (*Interp).lhax},
		{375, "lhaux", (*Interp).lhaux},
		{407, "sthx", (*Interp).sthx},
		{439, "sthux", (*Interp).sthux},
	}, rd, ra, rb)
	// rd, ra
	bindAll(g31, []xop{
		{104, "neg", (*Interp).neg},
		{200, "subfze", (*Interp).subfze},
		{202, "addze", (*Interp).addze},
		{234, "addme", (*Interp).addme},
	}, rd, ra)
	// ra, rs, rb
	bindAll(g31, []xop{
		{24, "slw", (*Interp).slw},
		{27, "sld", (*Interp).sld},
		{28, "and", (*Interp).and},
		{60, "andc", (*Interp).andc},
		{124, "nor", (*Interp).nor},
		{284, "eqv", (*Interp).eqv},
		{316, "xor", (*Interp).xor},
		{412, "orc", (*Interp).orc},
		{444, "or", (*Interp).or},
		{476, "nand", (*Interp).nand},
		{536, "srw", (*Interp).srw},
		{539, "srd", (*Interp).srd},
		{792, "sraw", (*Interp).sraw},
		{794, "srad", (*Interp).srad},
	}, ra, rd, rb)
	// ra, rs
	bindAll(g31, []xop{
		{26, "cntlzw", (*Interp).cntlzw},
		{58, "cntlzd", (*Interp).cntlzd},
		{922, "extsh", (*Interp).extsh},
		{954, "extsb", (*Interp).extsb},
		{986, "extsw", (*Interp).extsw},
	}, ra, rd)

	g58 := root.Sub(58, "g58", decode.MSB0(30, 31))
	g58.Bind(0, "ld", (*Interp).ld, rd, ds, ra)
	g58.Bind(1, "ldu", (*Interp).ldu, rd, ds, ra)
	g58.Bind(2, "lwa", (*Interp).lwa, rd, ds, ra)

	g62 := root.Sub(62, "g62", decode.MSB0(30, 31))
	g62.Bind(0, "std", (*Interp).std, rd, ds, ra)
	g62.Bind(1, "stdu", (*Interp).stdu, rd, ds, ra)

	// A-form floating point, shared by both precisions
	arith := func(l *decode.Level[*Interp], suffix string) {
		l.Bind(18, "fdiv"+suffix, (*Interp).fdiv, fd, fa, fb)
		l.Bind(20, "fsub"+suffix, (*Interp).fsub, fd, fa, fb)
		l.Bind(21, "fadd"+suffix, (*Interp).fadd, fd, fa, fb)
		l.Bind(22, "fsqrt"+suffix, (*Interp).fsqrt, fd, fb)
		l.Bind(25, "fmul"+suffix, (*Interp).fmul, fd, fa, fc)
		l.Bind(28, "fmsub"+suffix, (*Interp).fmsub, fd, fa, fc, fb)
		l.Bind(29, "fmadd"+suffix, (*Interp).fmadd, fd, fa, fc, fb)
		l.Bind(30, "fnmsub"+suffix, (*Interp).fnmsub, fd, fa, fc, fb)
		l.Bind(31, "fnmadd"+suffix, (*Interp).fnmadd, fd, fa, fc, fb)
	}
	g59 := root.Sub(59, "g59", decode.MSB0(26, 30))
	arith(g59, "s")
	g59.Bind(24, "fres", (*Interp).fres, fd, fb)

	g63 := root.Sub(63, "g63", decode.MSB0(26, 30))
	arith(g63, "")
	g63.Bind(23, "fsel", (*Interp).fsel, fd, fa, fc, fb)
	g63.Bind(26, "frsqrte", (*Interp).frsqrte, fd, fb)
	// X-form encodings share the low five bits of their extended opcode
	// with the A-form field
	x0 := g63.Sub(0, "g63x0", decode.MSB0(21, 30))
	x0.Bind(0, "fcmpu", (*Interp).fcmpu, crfd, fa, fb)
	x0.Bind(32, "fcmpo", (*Interp).fcmpu, crfd, fa, fb)
	x7 := g63.Sub(7, "g63x7", decode.MSB0(21, 30))
	x7.Bind(583, "mffs", (*Interp).mffs, fd)
	x7.Bind(711, "mtfsf", (*Interp).mtfsf, fm, fb)
	x8 := g63.Sub(8, "g63x8", decode.MSB0(21, 30))
	bindAll(x8, []xop{
		{40, "fneg", (*Interp).fneg},
		{72, "fmr", (*Interp).fmr},
		{136, "fnabs", (*Interp).fnabs},
		{264, "fabs", (*Interp).fabs},
	}, fd, fb)
	x12 := g63.Sub(12, "g63x12", decode.MSB0(21, 30))
	x12.Bind(12, "frsp", (*Interp).frsp, fd, fb)
	x14 := g63.Sub(14, "g63x14", decode.MSB0(21, 30))
	x14.Bind(14, "fctiw", (*Interp).fctiw, fd, fb)
	x14.Bind(814, "fctid", (*Interp).fctid, fd, fb)
	x14.Bind(846, "fcfid", (*Interp).fcfid, fd, fb)
	x15 := g63.Sub(15, "g63x15", decode.MSB0(21, 30))
	x15.Bind(15, "fctiwz", (*Interp).fctiwz, fd, fb)
	x15.Bind(815, "fctidz", (*Interp).fctidz, fd, fb)

	return b.MustBuild()
}
