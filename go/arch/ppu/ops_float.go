package ppu

import (
	"math"

	"github.com/lunixbochs/cellcorn/go/decode"
)

// Arithmetic follows host IEEE rules; FPSCR exception bits are not
// tracked. Primary opcode 59 is the single precision variant of 63.

func single(code uint32) bool { return code>>26 == 59 }

func (in *Interp) setF(code uint32, rd int32, v float64) {
	if single(code) {
		v = float64(float32(v))
	}
	in.cpu.F[rd] = v
	if rc(code) {
		// cr1 mirrors the FPSCR exception summary bits
		in.cpu.SetCRField(1, in.cpu.FPSCR>>28)
	}
}

// frd, fra, frb
func (in *Interp) fab(code uint32, op decode.Operands, f func(a, b float64) float64) {
	in.setF(code, op[0], f(in.cpu.F[op[1]], in.cpu.F[op[2]]))
}

func (in *Interp) fadd(code uint32, op decode.Operands) {
	in.fab(code, op, func(a, b float64) float64 { return a + b })
}

func (in *Interp) fsub(code uint32, op decode.Operands) {
	in.fab(code, op, func(a, b float64) float64 { return a - b })
}

func (in *Interp) fdiv(code uint32, op decode.Operands) {
	in.fab(code, op, func(a, b float64) float64 { return a / b })
}

// fmul frd, fra, frc
func (in *Interp) fmul(code uint32, op decode.Operands) {
	in.fab(code, op, func(a, c float64) float64 { return a * c })
}

// fused forms: frd, fra, frc, frb
func (in *Interp) fused(code uint32, op decode.Operands, f func(a, c, b float64) float64) {
	in.setF(code, op[0], f(in.cpu.F[op[1]], in.cpu.F[op[2]], in.cpu.F[op[3]]))
}

func (in *Interp) fmadd(code uint32, op decode.Operands) {
	in.fused(code, op, func(a, c, b float64) float64 { return math.FMA(a, c, b) })
}

func (in *Interp) fmsub(code uint32, op decode.Operands) {
	in.fused(code, op, func(a, c, b float64) float64 { return math.FMA(a, c, -b) })
}

func (in *Interp) fnmadd(code uint32, op decode.Operands) {
	in.fused(code, op, func(a, c, b float64) float64 { return -math.FMA(a, c, b) })
}

func (in *Interp) fnmsub(code uint32, op decode.Operands) {
	in.fused(code, op, func(a, c, b float64) float64 { return -math.FMA(a, c, -b) })
}

// fsel frd, fra, frc, frb
func (in *Interp) fsel(code uint32, op decode.Operands) {
	in.fused(code, op, func(a, c, b float64) float64 {
		if a >= 0 {
			return c
		}
		return b
	})
}

// unary: frd, frb
func (in *Interp) fb(code uint32, op decode.Operands, f func(b float64) float64) {
	in.setF(code, op[0], f(in.cpu.F[op[1]]))
}

func (in *Interp) fmr(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return b })
}

func (in *Interp) fneg(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return -b })
}

func (in *Interp) fabs(code uint32, op decode.Operands) {
	in.fb(code, op, math.Abs)
}

func (in *Interp) fnabs(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return -math.Abs(b) })
}

func (in *Interp) fsqrt(code uint32, op decode.Operands) {
	in.fb(code, op, math.Sqrt)
}

func (in *Interp) fres(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return 1 / b })
}

func (in *Interp) frsqrte(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return 1 / math.Sqrt(b) })
}

func (in *Interp) frsp(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return float64(float32(b)) })
}

// integer conversions keep the result in the low word of the FPR image

func toInt32(b float64) int32 {
	switch {
	case math.IsNaN(b), b <= math.MinInt32:
		return math.MinInt32
	case b >= math.MaxInt32:
		return math.MaxInt32
	}
	return int32(b)
}

func toInt64(b float64) int64 {
	switch {
	case math.IsNaN(b), b <= math.MinInt64:
		return math.MinInt64
	case b >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(b)
}

func (in *Interp) fctiw(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 {
		return math.Float64frombits(uint64(uint32(toInt32(math.RoundToEven(b)))))
	})
}

func (in *Interp) fctiwz(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 {
		return math.Float64frombits(uint64(uint32(toInt32(math.Trunc(b)))))
	})
}

func (in *Interp) fctid(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 {
		return math.Float64frombits(uint64(toInt64(math.RoundToEven(b))))
	})
}

func (in *Interp) fctidz(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 {
		return math.Float64frombits(uint64(toInt64(math.Trunc(b))))
	})
}

func (in *Interp) fcfid(code uint32, op decode.Operands) {
	in.fb(code, op, func(b float64) float64 { return float64(int64(math.Float64bits(b))) })
}

// fcmpu crf, fra, frb
func (in *Interp) fcmpu(code uint32, op decode.Operands) {
	a, b := in.cpu.F[op[1]], in.cpu.F[op[2]]
	var f uint32
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		f = 1
	case a < b:
		f = 8
	case a > b:
		f = 4
	default:
		f = 2
	}
	in.cpu.SetCRField(int(op[0]), f)
	in.cpu.FPSCR = in.cpu.FPSCR&^0xf000 | f<<12
}

func (in *Interp) mffs(code uint32, op decode.Operands) {
	in.cpu.F[op[0]] = math.Float64frombits(uint64(in.cpu.FPSCR))
}

// mtfsf fm, frb
func (in *Interp) mtfsf(code uint32, op decode.Operands) {
	v := uint32(math.Float64bits(in.cpu.F[op[1]]))
	for n := 0; n < 8; n++ {
		if op[0]&(0x80>>n) != 0 {
			shift := 28 - 4*uint(n)
			in.cpu.FPSCR = in.cpu.FPSCR&^(0xf<<shift) | v&(0xf<<shift)
		}
	}
}
