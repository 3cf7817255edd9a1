package ppu

import (
	"encoding/binary"

	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

type Interp struct {
	t     *thread.Thread
	cpu   *Core
	mem   vm.BE
	cache vm.ExecCache
	buf   [4]byte
}

func (in *Interp) Fetch(addr uint32) (uint32, uint32, error) {
	if err := in.t.Space().Fetch(&in.cache, addr, in.buf[:], in.t.Config().StrictExec); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint32(in.buf[:]), 4, nil
}

func (in *Interp) Execute(code uint32)       { table.Dispatch(in, code) }
func (in *Interp) Disasm(code uint32) string { return table.Disasm(code) }

func Table() *decode.Table[*Interp] { return table }

func (in *Interp) pc() uint32 { return in.cpu.pc }

// ea computes (ra|0) + off
func (in *Interp) ea(ra int32, off uint64) uint32 {
	if ra == 0 {
		return uint32(off)
	}
	return uint32(in.cpu.R[ra] + off)
}

func (in *Interp) unknown(code uint32, op decode.Operands) {
	in.t.Trap(models.ErrUnknownInstruction)
}

func (in *Interp) notImplemented(code uint32, op decode.Operands) {
	in.t.Trap(models.ErrNotImplemented)
}

// rc reports whether the record bit is set
func rc(code uint32) bool { return code&1 != 0 }

// cr0 sets condition register field 0 from a signed result.
func (in *Interp) cr0(v uint64) {
	in.setCR(0, int64(v), 0)
}

func (in *Interp) setCR(n int, a, b int64) {
	var f uint32
	switch {
	case a < b:
		f = 8
	case a > b:
		f = 4
	default:
		f = 2
	}
	if in.cpu.XER&xerSO != 0 {
		f |= 1
	}
	in.cpu.SetCRField(n, f)
}

func (in *Interp) setCRU(n int, a, b uint64) {
	var f uint32
	switch {
	case a < b:
		f = 8
	case a > b:
		f = 4
	default:
		f = 2
	}
	if in.cpu.XER&xerSO != 0 {
		f |= 1
	}
	in.cpu.SetCRField(n, f)
}

func (in *Interp) setCA(ca bool) {
	if ca {
		in.cpu.XER |= xerCA
	} else {
		in.cpu.XER &^= xerCA
	}
}

func (in *Interp) ca() uint64 {
	if in.cpu.XER&xerCA != 0 {
		return 1
	}
	return 0
}

// setRc writes rd and updates cr0 for record forms
func (in *Interp) setRc(code uint32, rd int32, v uint64) {
	in.cpu.R[rd] = v
	if rc(code) {
		in.cr0(v)
	}
}
