package arm

import (
	"math/bits"

	"github.com/lunixbochs/cellcorn/go/decode"
)

// branchOffset decodes the S:I1:I2:imm10:imm11 offset of BL and B.W,
// where I1 and I2 are J1 and J2 inverted against S.
func branchOffset(code uint32) uint32 {
	s := code >> 26 & 1
	j1, j2 := code>>13&1, code>>11&1
	i1, i2 := ^(j1^s)&1, ^(j2^s)&1
	imm := s<<24 | i1<<23 | i2<<22 | (code>>16&0x3ff)<<12 | (code&0x7ff)<<1
	return uint32(int32(imm<<7) >> 7)
}

func (in *Interp) bl(code uint32, op decode.Operands) {
	next := in.cpu.R[PC] + 4
	in.cpu.R[LR] = next | 1
	in.branch(next + branchOffset(code))
}

func (in *Interp) bw(code uint32, op decode.Operands) {
	in.branch(in.cpu.R[PC] + 4 + branchOffset(code))
}

// cond, imm; conditions 14 and 15 encode system instructions
func (in *Interp) bcondw(code uint32, op decode.Operands) {
	if op[0] >= 14 {
		in.notImplemented(code, op)
		return
	}
	if in.cpu.Cond(uint32(op[0])) {
		in.branch(in.cpu.R[PC] + 4 + uint32(op[1]))
	}
}

// modified immediate data processing: rd, rn, imm12, s

type dpFunc func(in *Interp, n, imm uint32, c bool) (v uint32, carry, overflow bool, arith bool)

func (in *Interp) dpImm(op decode.Operands, f dpFunc) {
	imm, c := expandImm(uint32(op[2]), in.cpu.flag(FlagC))
	v, carry, o, arith := f(in, in.reg(op[1]), imm, c)
	// rd of pc with S set is the compare form (tst, teq, cmn, cmp)
	if op[0] != PC {
		in.set(op[0], v)
	}
	if op[3] != 0 {
		if arith {
			in.nzcv(v, carry, o)
		} else {
			in.nzc(v, carry)
		}
	}
}

func logical(f func(n, imm uint32) uint32) dpFunc {
	return func(in *Interp, n, imm uint32, c bool) (uint32, bool, bool, bool) {
		return f(n, imm), c, false, false
	}
}

func arith(f func(in *Interp, n, imm uint32) (uint32, bool, bool)) dpFunc {
	return func(in *Interp, n, imm uint32, c bool) (uint32, bool, bool, bool) {
		v, carry, o := f(in, n, imm)
		return v, carry, o, true
	}
}

var (
	dpAnd = logical(func(n, imm uint32) uint32 { return n & imm })
	dpBic = logical(func(n, imm uint32) uint32 { return n &^ imm })
	dpOrr = logical(func(n, imm uint32) uint32 { return n | imm })
	dpOrn = logical(func(n, imm uint32) uint32 { return n | ^imm })
	dpEor = logical(func(n, imm uint32) uint32 { return n ^ imm })
	dpMov = logical(func(n, imm uint32) uint32 { return imm })
	dpMvn = logical(func(n, imm uint32) uint32 { return ^imm })

	dpAdd = arith(func(in *Interp, n, imm uint32) (uint32, bool, bool) { return addWithCarry(n, imm, 0) })
	dpAdc = arith(func(in *Interp, n, imm uint32) (uint32, bool, bool) { return addWithCarry(n, imm, in.carry()) })
	dpSbc = arith(func(in *Interp, n, imm uint32) (uint32, bool, bool) { return addWithCarry(n, ^imm, in.carry()) })
	dpSub = arith(func(in *Interp, n, imm uint32) (uint32, bool, bool) { return addWithCarry(n, ^imm, 1) })
	dpRsb = arith(func(in *Interp, n, imm uint32) (uint32, bool, bool) { return addWithCarry(^n, imm, 1) })
)

func (in *Interp) andw(code uint32, op decode.Operands) { in.dpImm(op, dpAnd) }
func (in *Interp) bicw(code uint32, op decode.Operands) { in.dpImm(op, dpBic) }
func (in *Interp) orrw(code uint32, op decode.Operands) { in.dpImm(op, dpOrr) }
func (in *Interp) ornw(code uint32, op decode.Operands) { in.dpImm(op, dpOrn) }
func (in *Interp) eorw(code uint32, op decode.Operands) { in.dpImm(op, dpEor) }
func (in *Interp) addw(code uint32, op decode.Operands) { in.dpImm(op, dpAdd) }
func (in *Interp) adcw(code uint32, op decode.Operands) { in.dpImm(op, dpAdc) }
func (in *Interp) sbcw(code uint32, op decode.Operands) { in.dpImm(op, dpSbc) }
func (in *Interp) subw(code uint32, op decode.Operands) { in.dpImm(op, dpSub) }
func (in *Interp) rsbw(code uint32, op decode.Operands) { in.dpImm(op, dpRsb) }

// mov.w and mvn.w have no rn: rd, imm12, s
func (in *Interp) movWide(code uint32, op decode.Operands) {
	in.dpImm(decode.Operands{op[0], 0, op[1], op[2]}, dpMov)
}

func (in *Interp) mvnWide(code uint32, op decode.Operands) {
	in.dpImm(decode.Operands{op[0], 0, op[1], op[2]}, dpMvn)
}

// plain binary immediates

// rd, rn, imm12
func (in *Interp) addwImm(code uint32, op decode.Operands) {
	base := in.reg(op[1])
	if op[1] == PC {
		base = in.literal()
	}
	in.set(op[0], base+uint32(op[2]))
}

func (in *Interp) subwImm(code uint32, op decode.Operands) {
	base := in.reg(op[1])
	if op[1] == PC {
		base = in.literal()
	}
	in.set(op[0], base-uint32(op[2]))
}

// rd, imm16
func (in *Interp) movw(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(op[1])
}

func (in *Interp) movt(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.cpu.R[op[0]]&0xffff | uint32(op[1])<<16
}

// loads and stores with a twelve-bit offset: rt, rn, imm12

func (in *Interp) addr12(rn, imm int32) uint32 {
	if rn == PC {
		return in.literal() + uint32(imm)
	}
	return in.reg(rn) + uint32(imm)
}

func (in *Interp) ldrw(code uint32, op decode.Operands) {
	in.set(op[0], in.mem.Read32(in.addr12(op[1], op[2])))
}

func (in *Interp) strw(code uint32, op decode.Operands) {
	in.mem.Write32(in.addr12(op[1], op[2]), in.reg(op[0]))
}

func (in *Interp) ldrbw(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(in.mem.Read8(in.addr12(op[1], op[2])))
}

func (in *Interp) strbw(code uint32, op decode.Operands) {
	in.mem.Write8(in.addr12(op[1], op[2]), uint8(in.reg(op[0])))
}

func (in *Interp) ldrhw(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(in.mem.Read16(in.addr12(op[1], op[2])))
}

func (in *Interp) strhw(code uint32, op decode.Operands) {
	in.mem.Write16(in.addr12(op[1], op[2]), uint16(in.reg(op[0])))
}

// block transfers: rn, reglist, writeback

func (in *Interp) ldmw(code uint32, op decode.Operands) {
	end := in.loadIA(in.reg(op[0]), uint32(op[1]))
	if op[2] != 0 && op[1]&(1<<op[0]) == 0 {
		in.cpu.R[op[0]] = end
	}
}

func (in *Interp) stmw(code uint32, op decode.Operands) {
	end := in.storeIA(in.reg(op[0]), uint32(op[1]))
	if op[2] != 0 {
		in.cpu.R[op[0]] = end
	}
}

func (in *Interp) stmdb(code uint32, op decode.Operands) {
	start := in.storeDB(in.reg(op[0]), uint32(op[1]))
	if op[2] != 0 {
		in.cpu.R[op[0]] = start
	}
}

func (in *Interp) ldmdb(code uint32, op decode.Operands) {
	base := in.reg(op[0]) - 4*uint32(bits.OnesCount32(uint32(op[1])))
	in.loadIA(base, uint32(op[1]))
	if op[2] != 0 && op[1]&(1<<op[0]) == 0 {
		in.cpu.R[op[0]] = base
	}
}

// reglist
func (in *Interp) pushw(code uint32, op decode.Operands) {
	in.cpu.R[SP] = in.storeDB(in.cpu.R[SP], uint32(op[0]))
}

func (in *Interp) popw(code uint32, op decode.Operands) {
	in.cpu.R[SP] = in.loadIA(in.cpu.R[SP], uint32(op[0]))
}

// multiply: rd, rn, rm[, ra]

func (in *Interp) mulw(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.reg(op[1]) * in.reg(op[2])
}

func (in *Interp) mla(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.reg(op[1])*in.reg(op[2]) + in.reg(op[3])
}
