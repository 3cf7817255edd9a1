package ppu

import (
	"math/bits"

	"github.com/lunixbochs/cellcorn/go/decode"
)

// D-form arithmetic: rd, ra, imm

func (in *Interp) addi(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.ea64(op[1])) + uint64(int64(op[2]))
}

// addis uses the same field shifted by 16
func (in *Interp) addis(code uint32, op decode.Operands) { in.addi(code, op) }

func (in *Interp) ea64(ra int32) uint64 {
	if ra == 0 {
		return 0
	}
	return in.cpu.R[ra]
}

func (in *Interp) addic(code uint32, op decode.Operands) {
	a, imm := in.cpu.R[op[1]], uint64(int64(op[2]))
	v, c := bits.Add64(a, imm, 0)
	in.cpu.R[op[0]] = v
	in.setCA(c != 0)
	// addic. is primary opcode 13
	if code>>26 == 13 {
		in.cr0(v)
	}
}

func (in *Interp) subfic(code uint32, op decode.Operands) {
	a, imm := in.cpu.R[op[1]], uint64(int64(op[2]))
	v, c := bits.Add64(^a, imm, 1)
	in.cpu.R[op[0]] = v
	in.setCA(c != 0)
}

func (in *Interp) mulli(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(int64(in.cpu.R[op[1]]) * int64(op[2]))
}

// logical immediates: ra, rs, uimm

func (in *Interp) ori(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.cpu.R[op[1]] | uint64(uint32(op[2]))
}

func (in *Interp) xori(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.cpu.R[op[1]] ^ uint64(uint32(op[2]))
}

func (in *Interp) andi(code uint32, op decode.Operands) {
	v := in.cpu.R[op[1]] & uint64(uint32(op[2]))
	in.cpu.R[op[0]] = v
	in.cr0(v)
}

// compares: crf, l, ra, rb|imm

func (in *Interp) cmpOperands(op decode.Operands, b uint64) (int64, int64) {
	a := in.cpu.R[op[2]]
	if op[1] == 0 {
		return int64(int32(a)), int64(int32(b))
	}
	return int64(a), int64(b)
}

func (in *Interp) cmpi(code uint32, op decode.Operands) {
	a, b := in.cmpOperands(op, uint64(int64(op[3])))
	in.setCR(int(op[0]), a, b)
}

func (in *Interp) cmp(code uint32, op decode.Operands) {
	a, b := in.cmpOperands(op, in.cpu.R[op[3]])
	in.setCR(int(op[0]), a, b)
}

func (in *Interp) cmplOperands(op decode.Operands, b uint64) (uint64, uint64) {
	a := in.cpu.R[op[2]]
	if op[1] == 0 {
		return uint64(uint32(a)), uint64(uint32(b))
	}
	return a, b
}

func (in *Interp) cmpli(code uint32, op decode.Operands) {
	a, b := in.cmplOperands(op, uint64(uint32(op[3])))
	in.setCRU(int(op[0]), a, b)
}

func (in *Interp) cmpl(code uint32, op decode.Operands) {
	a, b := in.cmplOperands(op, in.cpu.R[op[3]])
	in.setCRU(int(op[0]), a, b)
}

// XO-form arithmetic: rd, ra, rb

func (in *Interp) xo(code uint32, op decode.Operands, f func(a, b uint64) uint64) {
	in.setRc(code, op[0], f(in.cpu.R[op[1]], in.cpu.R[op[2]]))
}

func (in *Interp) add(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a + b })
}

func (in *Interp) subf(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return b - a })
}

func (in *Interp) neg(code uint32, op decode.Operands) {
	in.setRc(code, op[0], -in.cpu.R[op[1]])
}

// carrying forms compute ~a + b + 1 for subtraction
func (in *Interp) carry(code uint32, op decode.Operands, a, b, c uint64) {
	v, carry := bits.Add64(a, b, c)
	in.setCA(carry != 0)
	in.setRc(code, op[0], v)
}

func (in *Interp) addc(code uint32, op decode.Operands) {
	in.carry(code, op, in.cpu.R[op[1]], in.cpu.R[op[2]], 0)
}

func (in *Interp) adde(code uint32, op decode.Operands) {
	in.carry(code, op, in.cpu.R[op[1]], in.cpu.R[op[2]], in.ca())
}

func (in *Interp) addze(code uint32, op decode.Operands) {
	in.carry(code, op, in.cpu.R[op[1]], 0, in.ca())
}

func (in *Interp) addme(code uint32, op decode.Operands) {
	in.carry(code, op, in.cpu.R[op[1]], ^uint64(0), in.ca())
}

func (in *Interp) subfc(code uint32, op decode.Operands) {
	in.carry(code, op, ^in.cpu.R[op[1]], in.cpu.R[op[2]], 1)
}

func (in *Interp) subfe(code uint32, op decode.Operands) {
	in.carry(code, op, ^in.cpu.R[op[1]], in.cpu.R[op[2]], in.ca())
}

func (in *Interp) subfze(code uint32, op decode.Operands) {
	in.carry(code, op, ^in.cpu.R[op[1]], 0, in.ca())
}

func (in *Interp) mullw(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return uint64(int64(int32(a)) * int64(int32(b))) })
}

func (in *Interp) mulhw(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		return uint64(int64(int32(a)) * int64(int32(b)) >> 32)
	})
}

func (in *Interp) mulhwu(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return uint64(uint32(a)) * uint64(uint32(b)) >> 32 })
}

func (in *Interp) mulld(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a * b })
}

func (in *Interp) mulhd(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		hi, _ := bits.Mul64(a, b)
		// signed correction
		if int64(a) < 0 {
			hi -= b
		}
		if int64(b) < 0 {
			hi -= a
		}
		return hi
	})
}

func (in *Interp) mulhdu(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		hi, _ := bits.Mul64(a, b)
		return hi
	})
}

// division by zero and overflow leave an undefined result; zero is used
func (in *Interp) divw(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		x, y := int32(a), int32(b)
		if y == 0 || (x == -1<<31 && y == -1) {
			return 0
		}
		return uint64(uint32(x / y))
	})
}

func (in *Interp) divwu(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		if uint32(b) == 0 {
			return 0
		}
		return uint64(uint32(a) / uint32(b))
	})
}

func (in *Interp) divd(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		x, y := int64(a), int64(b)
		if y == 0 || (x == -1<<63 && y == -1) {
			return 0
		}
		return uint64(x / y)
	})
}

func (in *Interp) divdu(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		if b == 0 {
			return 0
		}
		return a / b
	})
}

// X-form logical: ra, rs, rb

func (in *Interp) and(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a & b })
}

func (in *Interp) or(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a | b })
}

func (in *Interp) xor(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a ^ b })
}

func (in *Interp) nand(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return ^(a & b) })
}

func (in *Interp) nor(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return ^(a | b) })
}

func (in *Interp) eqv(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return ^(a ^ b) })
}

func (in *Interp) andc(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a &^ b })
}

func (in *Interp) orc(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 { return a | ^b })
}

// unary: ra, rs

func (in *Interp) unary(code uint32, op decode.Operands, f func(a uint64) uint64) {
	in.setRc(code, op[0], f(in.cpu.R[op[1]]))
}

func (in *Interp) extsb(code uint32, op decode.Operands) {
	in.unary(code, op, func(a uint64) uint64 { return uint64(int64(int8(a))) })
}

func (in *Interp) extsh(code uint32, op decode.Operands) {
	in.unary(code, op, func(a uint64) uint64 { return uint64(int64(int16(a))) })
}

func (in *Interp) extsw(code uint32, op decode.Operands) {
	in.unary(code, op, func(a uint64) uint64 { return uint64(int64(int32(a))) })
}

func (in *Interp) cntlzw(code uint32, op decode.Operands) {
	in.unary(code, op, func(a uint64) uint64 { return uint64(bits.LeadingZeros32(uint32(a))) })
}

func (in *Interp) cntlzd(code uint32, op decode.Operands) {
	in.unary(code, op, func(a uint64) uint64 { return uint64(bits.LeadingZeros64(a)) })
}

// shifts

func (in *Interp) slw(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		if b&0x20 != 0 {
			return 0
		}
		return uint64(uint32(a) << (b & 0x1f))
	})
}

func (in *Interp) srw(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		if b&0x20 != 0 {
			return 0
		}
		return uint64(uint32(a) >> (b & 0x1f))
	})
}

func (in *Interp) sld(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		if b&0x40 != 0 {
			return 0
		}
		return a << (b & 0x3f)
	})
}

func (in *Interp) srd(code uint32, op decode.Operands) {
	in.xo(code, op, func(a, b uint64) uint64 {
		if b&0x40 != 0 {
			return 0
		}
		return a >> (b & 0x3f)
	})
}

// algebraic shifts set CA when a negative value loses one bits
func (in *Interp) sraw32(code uint32, op decode.Operands, n uint64) {
	a := int32(in.cpu.R[op[1]])
	if n > 31 {
		n = 31
	}
	v := a >> n
	in.setCA(a < 0 && uint32(a)<<(32-n) != 0 && n != 0)
	in.setRc(code, op[0], uint64(int64(v)))
}

func (in *Interp) sraw64(code uint32, op decode.Operands, n uint64) {
	a := int64(in.cpu.R[op[1]])
	if n > 63 {
		n = 63
	}
	v := a >> n
	in.setCA(a < 0 && n != 0 && uint64(a)<<(64-n) != 0)
	in.setRc(code, op[0], uint64(v))
}

func (in *Interp) sraw(code uint32, op decode.Operands) {
	in.sraw32(code, op, in.cpu.R[op[2]]&0x3f)
}

func (in *Interp) srawi(code uint32, op decode.Operands) {
	in.sraw32(code, op, uint64(op[2]))
}

func (in *Interp) srad(code uint32, op decode.Operands) {
	in.sraw64(code, op, in.cpu.R[op[2]]&0x7f)
}

func (in *Interp) sradi(code uint32, op decode.Operands) {
	in.sraw64(code, op, uint64(op[2]))
}

// rotates

// mask64 builds a mask of ones from bit mb through bit me, MSB0
// numbering, wrapping when mb > me.
func mask64(mb, me uint) uint64 {
	begin := ^uint64(0) >> mb
	end := ^uint64(0) << (63 - me)
	if mb <= me {
		return begin & end
	}
	return begin | end
}

func rotl32(v uint64, n uint) uint64 {
	w := uint64(uint32(v))
	return bits.RotateLeft64(w<<32|w, int(n))
}

// rlwinm ra, rs, sh, mb, me
func (in *Interp) rlwinm(code uint32, op decode.Operands) {
	v := rotl32(in.cpu.R[op[1]], uint(op[2])) & mask64(uint(op[3])+32, uint(op[4])+32)
	in.setRc(code, op[0], v)
}

// rlwnm ra, rs, rb, mb, me
func (in *Interp) rlwnm(code uint32, op decode.Operands) {
	v := rotl32(in.cpu.R[op[1]], uint(in.cpu.R[op[2]]&0x1f)) & mask64(uint(op[3])+32, uint(op[4])+32)
	in.setRc(code, op[0], v)
}

func (in *Interp) rlwimi(code uint32, op decode.Operands) {
	m := mask64(uint(op[3])+32, uint(op[4])+32)
	v := rotl32(in.cpu.R[op[1]], uint(op[2]))&m | in.cpu.R[op[0]]&^m
	in.setRc(code, op[0], v)
}

// MD forms: ra, rs, sh, mb|me
func (in *Interp) rldicl(code uint32, op decode.Operands) {
	v := bits.RotateLeft64(in.cpu.R[op[1]], int(op[2])) & mask64(uint(op[3]), 63)
	in.setRc(code, op[0], v)
}

func (in *Interp) rldicr(code uint32, op decode.Operands) {
	v := bits.RotateLeft64(in.cpu.R[op[1]], int(op[2])) & mask64(0, uint(op[3]))
	in.setRc(code, op[0], v)
}

func (in *Interp) rldic(code uint32, op decode.Operands) {
	v := bits.RotateLeft64(in.cpu.R[op[1]], int(op[2])) & mask64(uint(op[3]), 63-uint(op[2]))
	in.setRc(code, op[0], v)
}

func (in *Interp) rldimi(code uint32, op decode.Operands) {
	m := mask64(uint(op[3]), 63-uint(op[2]))
	v := bits.RotateLeft64(in.cpu.R[op[1]], int(op[2]))&m | in.cpu.R[op[0]]&^m
	in.setRc(code, op[0], v)
}

// MDS forms: ra, rs, rb, mb|me
func (in *Interp) rldcl(code uint32, op decode.Operands) {
	v := bits.RotateLeft64(in.cpu.R[op[1]], int(in.cpu.R[op[2]]&0x3f)) & mask64(uint(op[3]), 63)
	in.setRc(code, op[0], v)
}

func (in *Interp) rldcr(code uint32, op decode.Operands) {
	v := bits.RotateLeft64(in.cpu.R[op[1]], int(in.cpu.R[op[2]]&0x3f)) & mask64(0, uint(op[3]))
	in.setRc(code, op[0], v)
}
