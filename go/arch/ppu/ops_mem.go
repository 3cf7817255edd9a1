package ppu

import (
	"math"

	"github.com/lunixbochs/cellcorn/go/decode"
)

// D-form: rt, d, ra. The update forms write the effective address back
// to ra.

func (in *Interp) dform(op decode.Operands) uint32 { return in.ea(op[2], uint64(int64(op[1]))) }

func (in *Interp) update(op decode.Operands, ea uint32) {
	in.cpu.R[op[2]] = uint64(ea)
}

func (in *Interp) lwz(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.mem.Read32(in.dform(op)))
}

func (in *Interp) lwzu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.R[op[0]] = uint64(in.mem.Read32(ea))
	in.update(op, ea)
}

func (in *Interp) lbz(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.mem.Read8(in.dform(op)))
}

func (in *Interp) lbzu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.R[op[0]] = uint64(in.mem.Read8(ea))
	in.update(op, ea)
}

func (in *Interp) lhz(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.mem.Read16(in.dform(op)))
}

func (in *Interp) lhzu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.R[op[0]] = uint64(in.mem.Read16(ea))
	in.update(op, ea)
}

func (in *Interp) lha(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(int64(int16(in.mem.Read16(in.dform(op)))))
}

func (in *Interp) lhau(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.R[op[0]] = uint64(int64(int16(in.mem.Read16(ea))))
	in.update(op, ea)
}

func (in *Interp) stw(code uint32, op decode.Operands) {
	in.mem.Write32(in.dform(op), uint32(in.cpu.R[op[0]]))
}

func (in *Interp) stwu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.mem.Write32(ea, uint32(in.cpu.R[op[0]]))
	in.update(op, ea)
}

func (in *Interp) stb(code uint32, op decode.Operands) {
	in.mem.Write8(in.dform(op), uint8(in.cpu.R[op[0]]))
}

func (in *Interp) stbu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.mem.Write8(ea, uint8(in.cpu.R[op[0]]))
	in.update(op, ea)
}

func (in *Interp) sth(code uint32, op decode.Operands) {
	in.mem.Write16(in.dform(op), uint16(in.cpu.R[op[0]]))
}

func (in *Interp) sthu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.mem.Write16(ea, uint16(in.cpu.R[op[0]]))
	in.update(op, ea)
}

func (in *Interp) lmw(code uint32, op decode.Operands) {
	ea := in.dform(op)
	for r := op[0]; r < NumGPR; r++ {
		in.cpu.R[r] = uint64(in.mem.Read32(ea))
		ea += 4
	}
}

func (in *Interp) stmw(code uint32, op decode.Operands) {
	ea := in.dform(op)
	for r := op[0]; r < NumGPR; r++ {
		in.mem.Write32(ea, uint32(in.cpu.R[r]))
		ea += 4
	}
}

// DS-form doubleword access under primary opcodes 58 and 62

func (in *Interp) ld(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.mem.Read64(in.dform(op))
}

func (in *Interp) ldu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.R[op[0]] = in.mem.Read64(ea)
	in.update(op, ea)
}

func (in *Interp) lwa(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(int64(int32(in.mem.Read32(in.dform(op)))))
}

func (in *Interp) std(code uint32, op decode.Operands) {
	in.mem.Write64(in.dform(op), in.cpu.R[op[0]])
}

func (in *Interp) stdu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.mem.Write64(ea, in.cpu.R[op[0]])
	in.update(op, ea)
}

// X-form: rt, ra, rb

func (in *Interp) xform(op decode.Operands) uint32 { return in.ea(op[1], in.cpu.R[op[2]]) }

func (in *Interp) updateX(op decode.Operands, ea uint32) {
	in.cpu.R[op[1]] = uint64(ea)
}

func (in *Interp) lwzx(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.mem.Read32(in.xform(op)))
}

func (in *Interp) lwzux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.R[op[0]] = uint64(in.mem.Read32(ea))
	in.updateX(op, ea)
}

func (in *Interp) lbzx(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.mem.Read8(in.xform(op)))
}

func (in *Interp) lbzux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.R[op[0]] = uint64(in.mem.Read8(ea))
	in.updateX(op, ea)
}

func (in *Interp) lhzx(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(in.mem.Read16(in.xform(op)))
}

func (in *Interp) lhzux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.R[op[0]] = uint64(in.mem.Read16(ea))
	in.updateX(op, ea)
}

func (in *Interp) lhax(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = uint64(int64(int16(in.mem.Read16(in.xform(op)))))
}

func (in *Interp) lhaux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.R[op[0]] = uint64(int64(int16(in.mem.Read16(ea))))
	in.updateX(op, ea)
}

func (in *Interp) ldx(code uint32, op decode.Operands) {
	in.cpu.R[op[0]] = in.mem.Read64(in.xform(op))
}

func (in *Interp) ldux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.R[op[0]] = in.mem.Read64(ea)
	in.updateX(op, ea)
}

func (in *Interp) stwx(code uint32, op decode.Operands) {
	in.mem.Write32(in.xform(op), uint32(in.cpu.R[op[0]]))
}

func (in *Interp) stwux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.mem.Write32(ea, uint32(in.cpu.R[op[0]]))
	in.updateX(op, ea)
}

func (in *Interp) stbx(code uint32, op decode.Operands) {
	in.mem.Write8(in.xform(op), uint8(in.cpu.R[op[0]]))
}

func (in *Interp) stbux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.mem.Write8(ea, uint8(in.cpu.R[op[0]]))
	in.updateX(op, ea)
}

func (in *Interp) sthx(code uint32, op decode.Operands) {
	in.mem.Write16(in.xform(op), uint16(in.cpu.R[op[0]]))
}

func (in *Interp) sthux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.mem.Write16(ea, uint16(in.cpu.R[op[0]]))
	in.updateX(op, ea)
}

func (in *Interp) stdx(code uint32, op decode.Operands) {
	in.mem.Write64(in.xform(op), in.cpu.R[op[0]])
}

func (in *Interp) stdux(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.mem.Write64(ea, in.cpu.R[op[0]])
	in.updateX(op, ea)
}

// Reservations. Only this thread's own stores are seen, so a conditional
// store succeeds whenever it targets the reserved address.

func (in *Interp) lwarx(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.resv = ea
	in.cpu.R[op[0]] = uint64(in.mem.Read32(ea))
}

func (in *Interp) ldarx(code uint32, op decode.Operands) {
	ea := in.xform(op)
	in.cpu.resv = ea
	in.cpu.R[op[0]] = in.mem.Read64(ea)
}

func (in *Interp) storeCond(op decode.Operands, store func(ea uint32)) {
	ea := in.xform(op)
	ok := in.cpu.resv != 0 && in.cpu.resv == ea
	in.cpu.resv = 0
	f := uint32(0)
	if ok {
		store(ea)
		f = 2
	}
	if in.cpu.XER&xerSO != 0 {
		f |= 1
	}
	in.cpu.SetCRField(0, f)
}

func (in *Interp) stwcx(code uint32, op decode.Operands) {
	in.storeCond(op, func(ea uint32) { in.mem.Write32(ea, uint32(in.cpu.R[op[0]])) })
}

func (in *Interp) stdcx(code uint32, op decode.Operands) {
	in.storeCond(op, func(ea uint32) { in.mem.Write64(ea, in.cpu.R[op[0]]) })
}

// dcbz clears the 128-byte cache line holding the address
func (in *Interp) dcbz(code uint32, op decode.Operands) {
	ea := in.ea(op[0], in.cpu.R[op[1]]) &^ 127
	for i := uint32(0); i < 128; i += 8 {
		in.mem.Write64(ea+i, 0)
	}
}

// floating point loads and stores: frt, d, ra

func (in *Interp) lfs(code uint32, op decode.Operands) {
	in.cpu.F[op[0]] = float64(math.Float32frombits(in.mem.Read32(in.dform(op))))
}

func (in *Interp) lfsu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.F[op[0]] = float64(math.Float32frombits(in.mem.Read32(ea)))
	in.update(op, ea)
}

func (in *Interp) lfd(code uint32, op decode.Operands) {
	in.cpu.F[op[0]] = math.Float64frombits(in.mem.Read64(in.dform(op)))
}

func (in *Interp) lfdu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.cpu.F[op[0]] = math.Float64frombits(in.mem.Read64(ea))
	in.update(op, ea)
}

func (in *Interp) stfs(code uint32, op decode.Operands) {
	in.mem.Write32(in.dform(op), math.Float32bits(float32(in.cpu.F[op[0]])))
}

func (in *Interp) stfsu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.mem.Write32(ea, math.Float32bits(float32(in.cpu.F[op[0]])))
	in.update(op, ea)
}

func (in *Interp) stfd(code uint32, op decode.Operands) {
	in.mem.Write64(in.dform(op), math.Float64bits(in.cpu.F[op[0]]))
}

func (in *Interp) stfdu(code uint32, op decode.Operands) {
	ea := in.dform(op)
	in.mem.Write64(ea, math.Float64bits(in.cpu.F[op[0]]))
	in.update(op, ea)
}
