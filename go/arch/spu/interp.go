package spu

import (
	"encoding/binary"

	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

// Interp executes SPU instructions for one thread.
type Interp struct {
	t   *thread.Thread
	cpu *Core
	mem vm.BE
	buf [4]byte
}

// Fetch reads from local store, which is executable whatever the
// protection of the backing stack memory.
func (in *Interp) Fetch(addr uint32) (uint32, uint32, error) {
	if err := in.t.Space().Fetch(nil, in.cpu.LSAddr(addr&^3), in.buf[:], false); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint32(in.buf[:]), 4, nil
}

func (in *Interp) Execute(code uint32) { table.Dispatch(in, code) }
func (in *Interp) Disasm(code uint32) string {
	return table.Disasm(code)
}

// Table exposes the decode table, used by disassemblers and tests.
func Table() *decode.Table[*Interp] { return table }

func (in *Interp) r(i int32) cpu.U128    { return in.cpu.R[i&0x7f] }
func (in *Interp) w(i int32, v cpu.U128) { in.cpu.R[i&0x7f] = v }
func (in *Interp) pref(i int32) uint32   { return in.cpu.R[i&0x7f].Word(0) }
func (in *Interp) setPref(i int32, v uint32) {
	in.cpu.R[i&0x7f] = cpu.U128{}.SetWord(0, v)
}

// quadword access; the low four bits of the address are ignored
func (in *Interp) load(addr uint32) cpu.U128 {
	return in.mem.Read128(in.cpu.LSAddr(addr &^ 0xf))
}

func (in *Interp) store(addr uint32, v cpu.U128) {
	in.mem.Write128(in.cpu.LSAddr(addr&^0xf), v)
}

func (in *Interp) branch(addr uint32) { in.t.Branch(addr & lsMask &^ 3) }
func (in *Interp) pc() uint32         { return in.cpu.PC() }

func (in *Interp) unknown(code uint32, op decode.Operands) {
	in.t.Trap(models.ErrUnknownInstruction)
}

func (in *Interp) notImplemented(code uint32, op decode.Operands) {
	in.t.Trap(models.ErrNotImplemented)
}

func (in *Interp) halt() {
	in.t.Log().WithField("pc", in.pc()).Warn("spu halt")
	in.t.Stop()
}
