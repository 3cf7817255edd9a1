package arm

import (
	"math/bits"

	"github.com/lunixbochs/cellcorn/go/decode"
)

// setflags is true for the flag-setting 16-bit forms outside IT blocks.
func (in *Interp) setflags() bool { return !in.inIT }

// shift by immediate: rd, rm, imm5

func (in *Interp) shiftImm(typ int, op decode.Operands) {
	n := uint32(op[2])
	if n == 0 && typ != lsl {
		n = 32
	}
	v, c := shiftC(typ, in.reg(op[1]), n, in.cpu.flag(FlagC))
	in.cpu.R[op[0]] = v
	if in.setflags() {
		in.nzc(v, c)
	}
}

func (in *Interp) lslImm(code uint32, op decode.Operands) { in.shiftImm(lsl, op) }
func (in *Interp) lsrImm(code uint32, op decode.Operands) { in.shiftImm(lsr, op) }
func (in *Interp) asrImm(code uint32, op decode.Operands) { in.shiftImm(asr, op) }

func (in *Interp) addFlags(rd int32, x, y, c uint32, flags bool) {
	v, carry, o := addWithCarry(x, y, c)
	in.set(rd, v)
	if flags {
		in.nzcv(v, carry, o)
	}
}

// rd, rn, rm
func (in *Interp) addReg(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[1]), in.reg(op[2]), 0, in.setflags())
}

func (in *Interp) subReg(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[1]), ^in.reg(op[2]), 1, in.setflags())
}

// rd, rn, imm3
func (in *Interp) addImm3(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[1]), uint32(op[2]), 0, in.setflags())
}

func (in *Interp) subImm3(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[1]), ^uint32(op[2]), 1, in.setflags())
}

// rd, imm8
func (in *Interp) movImm(code uint32, op decode.Operands) {
	v := uint32(op[1])
	in.cpu.R[op[0]] = v
	if in.setflags() {
		in.nz(v)
	}
}

func (in *Interp) cmpImm(code uint32, op decode.Operands) {
	v, c, o := addWithCarry(in.reg(op[0]), ^uint32(op[1]), 1)
	in.nzcv(v, c, o)
}

func (in *Interp) addImm8(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[0]), uint32(op[1]), 0, in.setflags())
}

func (in *Interp) subImm8(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[0]), ^uint32(op[1]), 1, in.setflags())
}

// data processing: rdn, rm

func (in *Interp) logic(op decode.Operands, v uint32, c bool, write bool) {
	if write {
		in.cpu.R[op[0]] = v
	}
	if in.setflags() || !write {
		in.nzc(v, c)
	}
}

func (in *Interp) and(code uint32, op decode.Operands) {
	in.logic(op, in.reg(op[0])&in.reg(op[1]), in.cpu.flag(FlagC), true)
}

func (in *Interp) eor(code uint32, op decode.Operands) {
	in.logic(op, in.reg(op[0])^in.reg(op[1]), in.cpu.flag(FlagC), true)
}

func (in *Interp) orr(code uint32, op decode.Operands) {
	in.logic(op, in.reg(op[0])|in.reg(op[1]), in.cpu.flag(FlagC), true)
}

func (in *Interp) bic(code uint32, op decode.Operands) {
	in.logic(op, in.reg(op[0])&^in.reg(op[1]), in.cpu.flag(FlagC), true)
}

func (in *Interp) mvn(code uint32, op decode.Operands) {
	in.logic(op, ^in.reg(op[1]), in.cpu.flag(FlagC), true)
}

func (in *Interp) tst(code uint32, op decode.Operands) {
	in.logic(op, in.reg(op[0])&in.reg(op[1]), in.cpu.flag(FlagC), false)
}

func (in *Interp) shiftReg(typ int, op decode.Operands) {
	v, c := shiftC(typ, in.reg(op[0]), in.reg(op[1])&0xff, in.cpu.flag(FlagC))
	in.logic(op, v, c, true)
}

func (in *Interp) lslReg(code uint32, op decode.Operands) { in.shiftReg(lsl, op) }
func (in *Interp) lsrReg(code uint32, op decode.Operands) { in.shiftReg(lsr, op) }
func (in *Interp) asrReg(code uint32, op decode.Operands) { in.shiftReg(asr, op) }
func (in *Interp) rorReg(code uint32, op decode.Operands) { in.shiftReg(ror, op) }

func (in *Interp) adc(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[0]), in.reg(op[1]), in.carry(), in.setflags())
}

func (in *Interp) sbc(code uint32, op decode.Operands) {
	in.addFlags(op[0], in.reg(op[0]), ^in.reg(op[1]), in.carry(), in.setflags())
}

// rsb rd, rn, #0
func (in *Interp) rsb(code uint32, op decode.Operands) {
	in.addFlags(op[0], ^in.reg(op[1]), 0, 1, in.setflags())
}

func (in *Interp) cmpReg(code uint32, op decode.Operands) {
	v, c, o := addWithCarry(in.reg(op[0]), ^in.reg(op[1]), 1)
	in.nzcv(v, c, o)
}

func (in *Interp) cmn(code uint32, op decode.Operands) {
	v, c, o := addWithCarry(in.reg(op[0]), in.reg(op[1]), 0)
	in.nzcv(v, c, o)
}

func (in *Interp) mul(code uint32, op decode.Operands) {
	v := in.reg(op[0]) * in.reg(op[1])
	in.cpu.R[op[0]] = v
	if in.setflags() {
		in.nz(v)
	}
}

// high registers: rdn, rm; never set flags except cmp

func (in *Interp) addHi(code uint32, op decode.Operands) {
	in.set(op[0], in.reg(op[0])+in.reg(op[1]))
}

func (in *Interp) movHi(code uint32, op decode.Operands) {
	in.set(op[0], in.reg(op[1]))
}

func (in *Interp) bx(code uint32, op decode.Operands) {
	in.bxWritePC(in.reg(op[0]))
}

func (in *Interp) blx(code uint32, op decode.Operands) {
	target := in.reg(op[0])
	in.cpu.R[LR] = (in.cpu.R[PC] + 2) | 1
	in.bxWritePC(target)
}

// loads and stores

// rt, imm
func (in *Interp) ldrLit(code uint32, op decode.Operands) {
	in.set(op[0], in.mem.Read32(in.literal()+uint32(op[1])))
}

func (in *Interp) ea(rn, rm int32) uint32 { return in.reg(rn) + in.reg(rm) }

// register offset: rt, rn, rm

func (in *Interp) strReg(code uint32, op decode.Operands) {
	in.mem.Write32(in.ea(op[1], op[2]), in.reg(op[0]))
}

func (in *Interp) strhReg(code uint32, op decode.Operands) {
	in.mem.Write16(in.ea(op[1], op[2]), uint16(in.reg(op[0])))
}

func (in *Interp) strbReg(code uint32, op decode.Operands) {
	in.mem.Write8(in.ea(op[1], op[2]), uint8(in.reg(op[0])))
}

func (in *Interp) ldrsbReg(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(int8(in.mem.Read8(in.ea(op[1], op[2]))))
}

func (in *Interp) ldrReg(code uint32, op decode.Operands) {
	in.set(op[0], in.mem.Read32(in.ea(op[1], op[2])))
}

func (in *Interp) ldrhReg(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(in.mem.Read16(in.ea(op[1], op[2])))
}

func (in *Interp) ldrbReg(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(in.mem.Read8(in.ea(op[1], op[2])))
}

func (in *Interp) ldrshReg(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(int16(in.mem.Read16(in.ea(op[1], op[2]))))
}

// immediate offset: rt, rn, imm

func (in *Interp) strImm(code uint32, op decode.Operands) {
	in.mem.Write32(in.reg(op[1])+uint32(op[2]), in.reg(op[0]))
}

func (in *Interp) ldrImm(code uint32, op decode.Operands) {
	in.set(op[0], in.mem.Read32(in.reg(op[1])+uint32(op[2])))
}

func (in *Interp) strbImm(code uint32, op decode.Operands) {
	in.mem.Write8(in.reg(op[1])+uint32(op[2]), uint8(in.reg(op[0])))
}

func (in *Interp) ldrbImm(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(in.mem.Read8(in.reg(op[1]) + uint32(op[2])))
}

func (in *Interp) strhImm(code uint32, op decode.Operands) {
	in.mem.Write16(in.reg(op[1])+uint32(op[2]), uint16(in.reg(op[0])))
}

func (in *Interp) ldrhImm(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(in.mem.Read16(in.reg(op[1]) + uint32(op[2])))
}

// sp relative: rt, imm

func (in *Interp) strSP(code uint32, op decode.Operands) {
	in.mem.Write32(in.cpu.R[SP]+uint32(op[1]), in.reg(op[0]))
}

func (in *Interp) ldrSP(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.mem.Read32(in.cpu.R[SP] + uint32(op[1]))
}

// rd, imm
func (in *Interp) adr(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.literal() + uint32(op[1])
}

func (in *Interp) addSPImm(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.cpu.R[SP] + uint32(op[1])
}

// imm
func (in *Interp) addSP(code uint32, op decode.Operands) { in.cpu.R[SP] += uint32(op[0]) }
func (in *Interp) subSP(code uint32, op decode.Operands) { in.cpu.R[SP] -= uint32(op[0]) }

// rn, imm
func (in *Interp) cbz(code uint32, op decode.Operands) {
	if in.reg(op[0]) == 0 {
		in.branch(in.cpu.R[PC] + 4 + uint32(op[1]))
	}
}

func (in *Interp) cbnz(code uint32, op decode.Operands) {
	if in.reg(op[0]) != 0 {
		in.branch(in.cpu.R[PC] + 4 + uint32(op[1]))
	}
}

// extends: rd, rm

func (in *Interp) sxth(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(int16(in.reg(op[1])))
}

func (in *Interp) sxtb(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(int8(in.reg(op[1])))
}

func (in *Interp) uxth(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.reg(op[1]) & 0xffff
}

func (in *Interp) uxtb(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.reg(op[1]) & 0xff
}

func (in *Interp) rev(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = bits.ReverseBytes32(in.reg(op[1]))
}

func (in *Interp) rev16(code uint32, op decode.Operands) {
	v := in.reg(op[1])
	in.cpu.R[op[0]] = bits.RotateLeft32(bits.ReverseBytes32(v), 16)
}

func (in *Interp) revsh(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint32(int16(bits.ReverseBytes16(uint16(in.reg(op[1])))))
}

// block transfers

// storeDB stores list below base, lowest register at the lowest address,
// and returns the new base.
func (in *Interp) storeDB(base uint32, list uint32) uint32 {
	addr := base - 4*uint32(bits.OnesCount32(list))
	start := addr
	for i := int32(0); i < 16; i++ {
		if list&(1<<i) != 0 {
			in.mem.Write32(addr, in.reg(i))
			addr += 4
		}
	}
	return start
}

// loadIA loads list upward from base and returns the address past the
// last word. A loaded pc branches with interworking.
func (in *Interp) loadIA(base uint32, list uint32) uint32 {
	addr := base
	for i := int32(0); i < 16; i++ {
		if list&(1<<i) != 0 {
			v := in.mem.Read32(addr)
			if i == PC {
				in.bxWritePC(v)
			} else {
				in.cpu.R[i] = v
			}
			addr += 4
		}
	}
	return addr
}

func (in *Interp) storeIA(base uint32, list uint32) uint32 {
	addr := base
	for i := int32(0); i < 16; i++ {
		if list&(1<<i) != 0 {
			in.mem.Write32(addr, in.reg(i))
			addr += 4
		}
	}
	return addr
}

// reglist, extra (lr for push, pc for pop)
func (in *Interp) push(code uint32, op decode.Operands) {
	list := uint32(op[0]) | uint32(op[1])<<LR
	in.cpu.R[SP] = in.storeDB(in.cpu.R[SP], list)
}

func (in *Interp) pop(code uint32, op decode.Operands) {
	list := uint32(op[0]) | uint32(op[1])<<PC
	in.cpu.R[SP] = in.loadIA(in.cpu.R[SP], list)
}

// rn, reglist
func (in *Interp) stm(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.storeIA(in.reg(op[0]), uint32(op[1]))
}

// ldm writes back unless the base is in the list
func (in *Interp) ldm(code uint32, op decode.Operands) {
	end := in.loadIA(in.reg(op[0]), uint32(op[1]))
	if op[1]&(1<<op[0]) == 0 {
		in.cpu.R[op[0]] = end
	}
}

// control

// firstcond, mask
func (in *Interp) it(code uint32, op decode.Operands) {
	in.cpu.ITState = uint8(op[0]<<4 | op[1])
}

func (in *Interp) nop(code uint32, op decode.Operands) {}

func (in *Interp) bkpt(code uint32, op decode.Operands) {
	in.t.Log().WithField("pc", in.cpu.R[PC]).Warn("breakpoint")
	in.t.Pause()
}

func (in *Interp) svc(code uint32, op decode.Operands) {
	in.t.Interrupt(uint32(op[0]))
}

// cond, imm
func (in *Interp) bcond(code uint32, op decode.Operands) {
	if in.cpu.Cond(uint32(op[0])) {
		in.branch(in.cpu.R[PC] + 4 + uint32(op[1]))
	}
}

func (in *Interp) b(code uint32, op decode.Operands) {
	in.branch(in.cpu.R[PC] + 4 + uint32(op[0]))
}
