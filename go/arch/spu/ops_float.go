package spu

import (
	"math"

	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// Single precision follows host IEEE rules. The hardware's extended range
// and truncating rounding are not modelled.

func f32(v uint32) float32 { return math.Float32frombits(v) }
func u32(f float32) uint32 { return math.Float32bits(f) }

func (in *Interp) floats(op decode.Operands, f func(a, b float32) float32) {
	in.words(op, func(a, b uint32) uint32 { return u32(f(f32(a), f32(b))) })
}

func (in *Interp) floats3(op decode.Operands, f func(a, b, c float32) float32) {
	ra, rb, rc := words(in.r(op[1])), words(in.r(op[2])), words(in.r(op[3]))
	for i := range ra {
		ra[i] = u32(f(f32(ra[i]), f32(rb[i]), f32(rc[i])))
	}
	in.w(op[0], fromWords(ra))
}

func (in *Interp) fcmp(op decode.Operands, f func(a, b float32) bool) {
	in.words(op, func(a, b uint32) uint32 { return mask32(f(f32(a), f32(b))) })
}

func abs32(f float32) float32 { return float32(math.Abs(float64(f))) }

func (in *Interp) fa(code uint32, op decode.Operands) {
	in.floats(op, func(a, b float32) float32 { return a + b })
}

func (in *Interp) fs(code uint32, op decode.Operands) {
	in.floats(op, func(a, b float32) float32 { return a - b })
}

func (in *Interp) fm(code uint32, op decode.Operands) {
	in.floats(op, func(a, b float32) float32 { return a * b })
}

func (in *Interp) fma(code uint32, op decode.Operands) {
	in.floats3(op, func(a, b, c float32) float32 { return a*b + c })
}

func (in *Interp) fms(code uint32, op decode.Operands) {
	in.floats3(op, func(a, b, c float32) float32 { return a*b - c })
}

func (in *Interp) fnms(code uint32, op decode.Operands) {
	in.floats3(op, func(a, b, c float32) float32 { return c - a*b })
}

func (in *Interp) fceq(code uint32, op decode.Operands) {
	in.fcmp(op, func(a, b float32) bool { return a == b })
}

func (in *Interp) fcgt(code uint32, op decode.Operands) {
	in.fcmp(op, func(a, b float32) bool { return a > b })
}

func (in *Interp) fcmeq(code uint32, op decode.Operands) {
	in.fcmp(op, func(a, b float32) bool { return abs32(a) == abs32(b) })
}

func (in *Interp) fcmgt(code uint32, op decode.Operands) {
	in.fcmp(op, func(a, b float32) bool { return abs32(a) > abs32(b) })
}

func (in *Interp) unary(op decode.Operands, f func(a uint32) uint32) {
	w := words(in.r(op[1]))
	for i := range w {
		w[i] = f(w[i])
	}
	in.w(op[0], fromWords(w))
}

// the estimates return the exact value, so fi passes rb through
func (in *Interp) frest(code uint32, op decode.Operands) {
	in.unary(op, func(a uint32) uint32 { return u32(1 / f32(a)) })
}

func (in *Interp) frsqest(code uint32, op decode.Operands) {
	in.unary(op, func(a uint32) uint32 {
		return u32(float32(1 / math.Sqrt(math.Abs(float64(f32(a))))))
	})
}

func (in *Interp) fi(code uint32, op decode.Operands) { in.w(op[0], in.r(op[2])) }

// conversions with a power-of-two scale taken from i8

func (in *Interp) csflt(code uint32, op decode.Operands) {
	scale := math.Ldexp(1, -(155 - int(op[2])))
	in.unary(op, func(a uint32) uint32 { return u32(float32(float64(int32(a)) * scale)) })
}

func (in *Interp) cuflt(code uint32, op decode.Operands) {
	scale := math.Ldexp(1, -(155 - int(op[2])))
	in.unary(op, func(a uint32) uint32 { return u32(float32(float64(a) * scale)) })
}

func (in *Interp) cflts(code uint32, op decode.Operands) {
	scale := math.Ldexp(1, 173-int(op[2]))
	in.unary(op, func(a uint32) uint32 {
		v := float64(f32(a)) * scale
		switch {
		case math.IsNaN(v):
			return 0
		case v >= math.MaxInt32:
			return math.MaxInt32
		case v <= math.MinInt32:
			return 0x80000000
		}
		return uint32(int32(v))
	})
}

func (in *Interp) cfltu(code uint32, op decode.Operands) {
	scale := math.Ldexp(1, 173-int(op[2]))
	in.unary(op, func(a uint32) uint32 {
		v := float64(f32(a)) * scale
		switch {
		case math.IsNaN(v), v <= 0:
			return 0
		case v >= math.MaxUint32:
			return math.MaxUint32
		}
		return uint32(v)
	})
}

// double precision: two doublewords per register

func f64(v uint64) float64 { return math.Float64frombits(v) }
func u64(f float64) uint64 { return math.Float64bits(f) }

func (in *Interp) doubles(op decode.Operands, f func(a, b, t float64) float64) {
	ra, rb, rt := in.r(op[1]), in.r(op[2]), in.r(op[0])
	in.w(op[0], cpu.U128{
		Hi: u64(f(f64(ra.Hi), f64(rb.Hi), f64(rt.Hi))),
		Lo: u64(f(f64(ra.Lo), f64(rb.Lo), f64(rt.Lo))),
	})
}

func (in *Interp) dfa(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, _ float64) float64 { return a + b })
}

func (in *Interp) dfs(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, _ float64) float64 { return a - b })
}

func (in *Interp) dfm(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, _ float64) float64 { return a * b })
}

func (in *Interp) dfma(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, t float64) float64 { return a*b + t })
}

func (in *Interp) dfms(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, t float64) float64 { return a*b - t })
}

func (in *Interp) dfnms(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, t float64) float64 { return t - a*b })
}

func (in *Interp) dfnma(code uint32, op decode.Operands) {
	in.doubles(op, func(a, b, t float64) float64 { return -(a*b + t) })
}

// fesd widens words 0 and 2; frds narrows into them
func (in *Interp) fesd(code uint32, op decode.Operands) {
	w := words(in.r(op[1]))
	in.w(op[0], cpu.U128{Hi: u64(float64(f32(w[0]))), Lo: u64(float64(f32(w[2])))})
}

func (in *Interp) frds(code uint32, op decode.Operands) {
	ra := in.r(op[1])
	in.w(op[0], fromWords([4]uint32{u32(float32(f64(ra.Hi))), 0, u32(float32(f64(ra.Lo))), 0}))
}
