// Package spu implements the synergistic coprocessor core: a 128 x 128-bit
// register file, a local store addressed relative to the thread's stack
// region and an interpreter for the instruction set.
package spu

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

const (
	NumGPR = 128
	// LSSize is the local store size; every address the core computes is
	// wrapped to it.
	LSSize = 0x40000
	lsMask = LSSize - 1
	// NumChannels is the size of the channel file.
	NumChannels = 128
)

func init() {
	thread.Register(models.SPU, func(*vm.Space) thread.Core { return New() })
}

// Core holds SPU register state. The preferred slot (word 0) of a register
// is what the scalar Regs view reads and writes.
type Core struct {
	R   [NumGPR]cpu.U128
	SPR [NumGPR]cpu.U128
	Ch  [NumChannels]uint32

	pc   uint32
	ls   uint32
	srr0 uint32
	// StopCode is the signal of the last stop instruction.
	StopCode uint32
}

func New() *Core { return &Core{} }

// LS is the guest address of local store offset 0.
func (c *Core) LS() uint32 { return c.ls }

// SetLS moves the local store, normally done by InitRegs.
func (c *Core) SetLS(addr uint32) { c.ls = addr }

// LSAddr translates a local store offset into a guest address.
func (c *Core) LSAddr(off uint32) uint32 { return c.ls + off&lsMask }

func (c *Core) NumGPR() int            { return NumGPR }
func (c *Core) GPR(i int) uint64       { return uint64(c.R[i].Word(0)) }
func (c *Core) SetGPR(i int, v uint64) { c.R[i] = c.R[i].SetWord(0, uint32(v)) }

func (c *Core) PC() uint32      { return c.pc }
func (c *Core) SetPC(pc uint32) { c.pc = pc & lsMask &^ 3 }
func (c *Core) SP() uint32      { return c.R[1].Word(0) }
func (c *Core) SetSP(sp uint32) { c.SetGPR(1, uint64(sp)) }
func (c *Core) LR() uint32      { return c.R[0].Word(0) }
func (c *Core) SetLR(lr uint32) { c.SetGPR(0, uint64(lr)) }

func (c *Core) RegNames() []string {
	names := make([]string, 0, NumGPR+1)
	for i := 0; i < NumGPR; i++ {
		names = append(names, fmt.Sprintf("r%d", i))
	}
	return append(names, "pc")
}

func (c *Core) regIndex(name string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(name, "r%d", &i); err != nil || i < 0 || i >= NumGPR {
		return 0, errors.Errorf("spu: no register %q", name)
	}
	return i, nil
}

func (c *Core) ReadReg(name string) (uint64, error) {
	if name == "pc" {
		return uint64(c.pc), nil
	}
	i, err := c.regIndex(name)
	if err != nil {
		return 0, err
	}
	return c.GPR(i), nil
}

func (c *Core) WriteReg(name string, v uint64) error {
	if name == "pc" {
		c.SetPC(uint32(v))
		return nil
	}
	i, err := c.regIndex(name)
	if err != nil {
		return err
	}
	c.SetGPR(i, v)
	return nil
}

// ReadRegString formats a full quadword for GPRs.
func (c *Core) ReadRegString(name string) (string, error) {
	if name == "pc" {
		return models.FormatRegValue(uint64(c.pc), 32), nil
	}
	i, err := c.regIndex(name)
	if err != nil {
		return "", err
	}
	return "0x" + c.R[i].String(), nil
}

// WriteRegString accepts either a scalar for the preferred slot or a hex
// quadword of more than 16 digits.
func (c *Core) WriteRegString(name, value string) error {
	hex := strings.TrimPrefix(strings.ToLower(value), "0x")
	if name != "pc" && len(hex) > 16 {
		i, err := c.regIndex(name)
		if err != nil {
			return err
		}
		n, ok := new(big.Int).SetString(hex, 16)
		if !ok || n.BitLen() > 128 {
			return errors.Errorf("spu: bad quadword %q", value)
		}
		lo := new(big.Int).And(n, new(big.Int).SetUint64(^uint64(0)))
		c.R[i] = cpu.U128{Hi: new(big.Int).Rsh(n, 64).Uint64(), Lo: lo.Uint64()}
		return nil
	}
	v, err := models.ParseRegValue(value)
	if err != nil {
		return err
	}
	return c.WriteReg(name, v)
}

// InitRegs clears the core and places the local store at the thread's
// stack. The stack pointer starts one quadword below the top of the local
// store.
func (c *Core) InitRegs(stackAddr, stackSize uint32) {
	*c = Core{ls: stackAddr}
	size := uint32(LSSize)
	if stackSize != 0 && stackSize < size {
		size = stackSize
	}
	c.R[1] = cpu.U128{}.SetWord(0, size-0x10).SetWord(1, size-0x10)
}

func (c *Core) DefaultStackSize() uint32 { return LSSize }
func (c *Core) Order() binary.ByteOrder  { return binary.BigEndian }
func (c *Core) Bits() int                { return 32 }
func (c *Core) NewDecoder(t *thread.Thread) thread.Decoder {
	return &Interp{t: t, cpu: c, mem: t.Space().BE()}
}
