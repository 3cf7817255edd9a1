package arm

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/decode"
	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

// Interp executes Thumb instructions for one thread. Instruction words put
// the first halfword in the upper 16 bits; 16-bit instructions leave the
// lower half zero.
type Interp struct {
	t     *thread.Thread
	cpu   *Core
	mem   vm.LE
	cache vm.ExecCache
	buf   [2]byte

	// flag-setting 16-bit forms leave the flags alone inside an IT block
	inIT bool
}

// wide reports whether hw starts a 32-bit encoding.
func wide(hw uint16) bool {
	switch hw >> 11 {
	case 0x1d, 0x1e, 0x1f:
		return true
	}
	return false
}

func (in *Interp) half(addr uint32) (uint16, error) {
	if err := in.t.Space().Fetch(&in.cache, addr, in.buf[:], in.t.Config().StrictExec); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(in.buf[:]), nil
}

func (in *Interp) Fetch(addr uint32) (uint32, uint32, error) {
	if in.cpu.ISET != Thumb {
		return 0, 0, errors.Wrap(models.ErrNotImplemented, "arm: ARM instruction set")
	}
	hw0, err := in.half(addr)
	if err != nil {
		return 0, 0, err
	}
	code := uint32(hw0) << 16
	if wide(hw0) {
		hw1, err := in.half(addr + 2)
		if err != nil {
			return 0, 0, err
		}
		code |= uint32(hw1)
	}
	return code, table.Resolve(code).Size, nil
}

func (in *Interp) Execute(code uint32) {
	it := in.cpu.ITState
	in.inIT = in.cpu.InIT()
	if in.inIT {
		in.cpu.advanceIT()
		if !in.cpu.Cond(uint32(it >> 4)) {
			return
		}
	}
	table.Dispatch(in, code)
}

func (in *Interp) Disasm(code uint32) string { return table.Disasm(code) }

func Table() *decode.Table[*Interp] { return table }

// reg reads a register operand; the pc reads as the current instruction
// plus four.
func (in *Interp) reg(i int32) uint32 {
	if i == PC {
		return in.cpu.R[PC] + 4
	}
	return in.cpu.R[i]
}

// set writes a register operand. Writing the pc branches.
func (in *Interp) set(i int32, v uint32) {
	if i == PC {
		in.branch(v)
		return
	}
	in.cpu.R[i] = v
}

func (in *Interp) branch(addr uint32) { in.t.Branch(addr &^ 1) }

// bxWritePC interworks: an even target leaves Thumb unless it is the
// stop address a fast call returns to.
func (in *Interp) bxWritePC(addr uint32) {
	if addr&1 == 0 && addr != in.t.StopAddr()&^1 {
		in.cpu.ISET = ARM
	}
	in.branch(addr)
}

// literal is the word-aligned base of pc-relative loads.
func (in *Interp) literal() uint32 { return (in.cpu.R[PC] + 4) &^ 3 }

func (in *Interp) nz(v uint32) {
	in.cpu.setFlag(FlagN, v>>31 != 0)
	in.cpu.setFlag(FlagZ, v == 0)
}

func (in *Interp) nzc(v uint32, c bool) {
	in.nz(v)
	in.cpu.setFlag(FlagC, c)
}

func (in *Interp) nzcv(v uint32, c, o bool) {
	in.nzc(v, c)
	in.cpu.setFlag(FlagV, o)
}

func (in *Interp) carry() uint32 {
	if in.cpu.flag(FlagC) {
		return 1
	}
	return 0
}

// addWithCarry returns x+y+carry with its carry out and signed overflow.
func addWithCarry(x, y, carry uint32) (uint32, bool, bool) {
	sum, c1 := bits.Add32(x, y, carry)
	overflow := (x^sum)&(y^sum)>>31 != 0
	return sum, c1 != 0, overflow
}

const (
	lsl = iota
	lsr
	asr
	ror
)

// shiftC shifts v by n with the carry out of the last bit shifted. A zero
// count keeps the incoming carry.
func shiftC(typ int, v, n uint32, c bool) (uint32, bool) {
	if n == 0 {
		return v, c
	}
	switch typ {
	case lsl:
		if n > 32 {
			return 0, false
		}
		return uint32(uint64(v) << n), v>>(32-n)&1 != 0
	case lsr:
		if n > 32 {
			return 0, false
		}
		return uint32(uint64(v) >> n), v>>(n-1)&1 != 0
	case asr:
		if n >= 32 {
			r := uint32(int32(v) >> 31)
			return r, r != 0
		}
		return uint32(int32(v) >> n), v>>(n-1)&1 != 0
	default:
		r := bits.RotateLeft32(v, -int(n&31))
		return r, r>>31 != 0
	}
}

// expandImm decodes the twelve-bit modified immediate of Thumb-32
// data-processing instructions.
func expandImm(imm12 uint32, c bool) (uint32, bool) {
	if imm12>>10 == 0 {
		b := imm12 & 0xff
		switch imm12 >> 8 & 3 {
		case 0:
			return b, c
		case 1:
			return b<<16 | b, c
		case 2:
			return b<<24 | b<<8, c
		default:
			return b<<24 | b<<16 | b<<8 | b, c
		}
	}
	v := bits.RotateLeft32(0x80|imm12&0x7f, -int(imm12>>7))
	return v, v>>31 != 0
}

func (in *Interp) unknown(code uint32, op decode.Operands) {
	in.t.Trap(models.ErrUnknownInstruction)
}

func (in *Interp) notImplemented(code uint32, op decode.Operands) {
	in.t.Trap(models.ErrNotImplemented)
}
