package spu

import (
	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// loads and stores: rt, offset, ra

func (in *Interp) lqd(code uint32, op decode.Operands) {
	in.w(op[0], in.load(in.pref(op[2])+uint32(op[1])))
}

func (in *Interp) lqx(code uint32, op decode.Operands) {
	in.w(op[0], in.load(in.pref(op[1])+in.pref(op[2])))
}

func (in *Interp) lqa(code uint32, op decode.Operands) { in.w(op[0], in.load(uint32(op[1]))) }
func (in *Interp) lqr(code uint32, op decode.Operands) {
	in.w(op[0], in.load(in.pc()+uint32(op[1])))
}

func (in *Interp) stqd(code uint32, op decode.Operands) {
	in.store(in.pref(op[2])+uint32(op[1]), in.r(op[0]))
}

func (in *Interp) stqx(code uint32, op decode.Operands) {
	in.store(in.pref(op[1])+in.pref(op[2]), in.r(op[0]))
}

func (in *Interp) stqa(code uint32, op decode.Operands) { in.store(uint32(op[1]), in.r(op[0])) }
func (in *Interp) stqr(code uint32, op decode.Operands) {
	in.store(in.pc()+uint32(op[1]), in.r(op[0]))
}

// branches

func (in *Interp) br(code uint32, op decode.Operands)  { in.branch(in.pc() + uint32(op[0])) }
func (in *Interp) bra(code uint32, op decode.Operands) { in.branch(uint32(op[0])) }

func (in *Interp) brsl(code uint32, op decode.Operands) {
	in.setPref(op[0], in.pc()+4)
	in.branch(in.pc() + uint32(op[1]))
}

func (in *Interp) brasl(code uint32, op decode.Operands) {
	in.setPref(op[0], in.pc()+4)
	in.branch(uint32(op[1]))
}

func (in *Interp) bi(code uint32, op decode.Operands) { in.branch(in.pref(op[0])) }

func (in *Interp) bisl(code uint32, op decode.Operands) {
	target := in.pref(op[1])
	in.setPref(op[0], in.pc()+4)
	in.branch(target)
}

func (in *Interp) iret(code uint32, op decode.Operands) { in.branch(in.cpu.srr0) }

// conditional branches test the preferred slot of rt, or its low halfword
func (in *Interp) brz(code uint32, op decode.Operands) {
	if in.pref(op[0]) == 0 {
		in.branch(in.pc() + uint32(op[1]))
	}
}

func (in *Interp) brnz(code uint32, op decode.Operands) {
	if in.pref(op[0]) != 0 {
		in.branch(in.pc() + uint32(op[1]))
	}
}

func (in *Interp) brhz(code uint32, op decode.Operands) {
	if uint16(in.pref(op[0])) == 0 {
		in.branch(in.pc() + uint32(op[1]))
	}
}

func (in *Interp) brhnz(code uint32, op decode.Operands) {
	if uint16(in.pref(op[0])) != 0 {
		in.branch(in.pc() + uint32(op[1]))
	}
}

func (in *Interp) biz(code uint32, op decode.Operands) {
	if in.pref(op[0]) == 0 {
		in.branch(in.pref(op[1]))
	}
}

func (in *Interp) binz(code uint32, op decode.Operands) {
	if in.pref(op[0]) != 0 {
		in.branch(in.pref(op[1]))
	}
}

func (in *Interp) bihz(code uint32, op decode.Operands) {
	if uint16(in.pref(op[0])) == 0 {
		in.branch(in.pref(op[1]))
	}
}

func (in *Interp) bihnz(code uint32, op decode.Operands) {
	if uint16(in.pref(op[0])) != 0 {
		in.branch(in.pref(op[1]))
	}
}

// branch hints, no-ops and barriers have no architectural effect here
func (in *Interp) nop(code uint32, op decode.Operands) {}

// stop signal: a hooked interrupt handler may resume the thread, otherwise
// it stops
func (in *Interp) stop(code uint32, op decode.Operands) {
	in.cpu.StopCode = uint32(op[0])
	if !in.t.OnIntr(uint32(op[0])) {
		in.t.Stop()
	}
}

// special purpose registers and channels

func (in *Interp) mfspr(code uint32, op decode.Operands) {
	in.w(op[0], in.cpu.SPR[op[1]&0x7f])
}

func (in *Interp) mtspr(code uint32, op decode.Operands) {
	in.cpu.SPR[op[0]&0x7f] = in.r(op[1])
}

func (in *Interp) rdch(code uint32, op decode.Operands) {
	in.setPref(op[0], in.cpu.Ch[op[1]&0x7f])
}

func (in *Interp) wrch(code uint32, op decode.Operands) {
	in.cpu.Ch[op[0]&0x7f] = in.pref(op[1])
}

// every channel reports a count of one
func (in *Interp) rchcnt(code uint32, op decode.Operands) { in.setPref(op[0], 1) }

func (in *Interp) fscrrd(code uint32, op decode.Operands) { in.w(op[0], cpu.U128{}) }
