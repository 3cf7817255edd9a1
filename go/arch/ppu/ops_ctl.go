package ppu

import (
	"github.com/lunixbochs/cellcorn/go/decode"
)

const (
	sprXER  = 1
	sprLR   = 8
	sprCTR  = 9
	sprTB   = 268
	sprTBU  = 269
	sprVRSV = 256
)

func aa(code uint32) bool { return code&2 != 0 }

func (in *Interp) link(code uint32) {
	if code&1 != 0 {
		in.cpu.Link = uint64(in.pc() + 4)
	}
}

// b li
func (in *Interp) b(code uint32, op decode.Operands) {
	target := uint32(op[0])
	if !aa(code) {
		target += in.pc()
	}
	in.link(code)
	in.t.Branch(target)
}

// cond evaluates the BO and BI fields, decrementing CTR when asked.
func (in *Interp) cond(bo, bi int32, useCTR bool) bool {
	ctrOK := true
	if useCTR && bo&4 == 0 {
		in.cpu.CTR--
		ctrOK = (in.cpu.CTR != 0) != (bo&2 != 0)
	}
	bit := in.cpu.CR >> (31 - uint(bi)) & 1
	condOK := bo&0x10 != 0 || bit == uint32(bo>>3&1)
	return ctrOK && condOK
}

// bc bo, bi, bd
func (in *Interp) bc(code uint32, op decode.Operands) {
	if !in.cond(op[0], op[1], true) {
		return
	}
	target := uint32(op[2])
	if !aa(code) {
		target += in.pc()
	}
	in.link(code)
	in.t.Branch(target)
}

func (in *Interp) bclr(code uint32, op decode.Operands) {
	if !in.cond(op[0], op[1], true) {
		return
	}
	target := uint32(in.cpu.Link) &^ 3
	in.link(code)
	in.t.Branch(target)
}

func (in *Interp) bcctr(code uint32, op decode.Operands) {
	if !in.cond(op[0], op[1], false) {
		return
	}
	in.link(code)
	in.t.Branch(uint32(in.cpu.CTR) &^ 3)
}

// sc raises the system call number held in r11 as an interrupt
func (in *Interp) sc(code uint32, op decode.Operands) {
	in.t.Interrupt(uint32(in.cpu.R[11]))
}

func (in *Interp) nop(code uint32, op decode.Operands) {}

// mfspr rt, spr
func (in *Interp) mfspr(code uint32, op decode.Operands) {
	var v uint64
	switch op[1] {
	case sprXER:
		v = in.cpu.XER
	case sprLR:
		v = in.cpu.Link
	case sprCTR:
		v = in.cpu.CTR
	case sprTB:
		v = in.timebase()
	case sprTBU:
		v = in.timebase() >> 32
	case sprVRSV:
	default:
		in.notImplemented(code, op)
		return
	}
	in.cpu.R[op[0]] = v
}

// mtspr spr, rs
func (in *Interp) mtspr(code uint32, op decode.Operands) {
	v := in.cpu.R[op[1]]
	switch op[0] {
	case sprXER:
		in.cpu.XER = v
	case sprLR:
		in.cpu.Link = v
	case sprCTR:
		in.cpu.CTR = v
	case sprVRSV:
	default:
		in.notImplemented(code, op)
	}
}

// The time base advances once per read, which keeps runs reproducible.
func (in *Interp) timebase() uint64 {
	in.cpu.tb++
	return in.cpu.tb
}

func (in *Interp) mftb(code uint32, op decode.Operands) { in.mfspr(code, op) }

func (in *Interp) mfcr(code uint32, op decode.Operands) { in.cpu.R[op[0]] = uint64(in.cpu.CR) }

// mtcrf crm, rs
func (in *Interp) mtcrf(code uint32, op decode.Operands) {
	v := uint32(in.cpu.R[op[1]])
	for n := 0; n < 8; n++ {
		if op[0]&(0x80>>n) != 0 {
			in.cpu.SetCRField(n, v>>(28-4*uint(n)))
		}
	}
}

// mcrf crfd, crfs
func (in *Interp) mcrf(code uint32, op decode.Operands) {
	in.cpu.SetCRField(int(op[0]), in.cpu.CRField(int(op[1])))
}

// condition register logical: bt, ba, bb
func (in *Interp) crlogic(op decode.Operands, f func(a, b uint32) uint32) {
	a := in.cpu.CR >> (31 - uint(op[1])) & 1
	b := in.cpu.CR >> (31 - uint(op[2])) & 1
	bit := uint32(1) << (31 - uint(op[0]))
	if f(a, b)&1 != 0 {
		in.cpu.CR |= bit
	} else {
		in.cpu.CR &^= bit
	}
}

func (in *Interp) crand(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return a & b })
}

func (in *Interp) cror(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return a | b })
}

func (in *Interp) crxor(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return a ^ b })
}

func (in *Interp) crnand(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return ^(a & b) })
}

func (in *Interp) crnor(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return ^(a | b) })
}

func (in *Interp) creqv(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return ^(a ^ b) })
}

func (in *Interp) crandc(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return a &^ b })
}

func (in *Interp) crorc(code uint32, op decode.Operands) {
	in.crlogic(op, func(a, b uint32) uint32 { return a | ^b })
}
