// Package arm implements the ARMv7 core of the handheld target: Thumb-16
// and the common Thumb-32 encodings, interpreted.
package arm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

const (
	NumGPR = 13

	SP = 13
	LR = 14
	PC = 15
)

// APSR flag bits
const (
	FlagN = 1 << 31
	FlagZ = 1 << 30
	FlagC = 1 << 29
	FlagV = 1 << 28
	FlagQ = 1 << 27
)

// ISet is the active instruction set.
type ISet uint8

const (
	Thumb ISet = iota
	ARM
)

func (s ISet) String() string {
	if s == ARM {
		return "ARM"
	}
	return "Thumb"
}

func init() {
	thread.Register(models.ARMv7, func(*vm.Space) thread.Core { return New() })
}

type Core struct {
	// r13 is sp, r14 lr, r15 the address of the current instruction
	R       [16]uint32
	APSR    uint32
	IPSR    uint32
	ISET    ISet
	ITState uint8
}

func New() *Core { return &Core{} }

func (c *Core) NumGPR() int            { return NumGPR }
func (c *Core) GPR(i int) uint64       { return uint64(c.R[i]) }
func (c *Core) SetGPR(i int, v uint64) { c.R[i] = uint32(v) }

func (c *Core) PC() uint32      { return c.R[PC] }
func (c *Core) SetPC(pc uint32) { c.R[PC] = pc &^ 1 }
func (c *Core) SP() uint32      { return c.R[SP] }
func (c *Core) SetSP(sp uint32) { c.R[SP] = sp }
func (c *Core) LR() uint32      { return c.R[LR] }
func (c *Core) SetLR(lr uint32) { c.R[LR] = lr }

func (c *Core) flag(f uint32) bool { return c.APSR&f != 0 }

func (c *Core) setFlag(f uint32, on bool) {
	if on {
		c.APSR |= f
	} else {
		c.APSR &^= f
	}
}

// Flags describes the APSR condition flags.
func (c *Core) Flags() string {
	b := func(f uint32) int {
		if c.flag(f) {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("[N: %d, Z: %d, C: %d, V: %d, Q: %d]", b(FlagN), b(FlagZ), b(FlagC), b(FlagV), b(FlagQ))
}

// Cond evaluates a four-bit condition code against the APSR.
func (c *Core) Cond(cond uint32) bool {
	n, z, cf, v := c.flag(FlagN), c.flag(FlagZ), c.flag(FlagC), c.flag(FlagV)
	var r bool
	switch cond >> 1 & 7 {
	case 0:
		r = z
	case 1:
		r = cf
	case 2:
		r = n
	case 3:
		r = v
	case 4:
		r = cf && !z
	case 5:
		r = n == v
	case 6:
		r = n == v && !z
	case 7:
		return true
	}
	if cond&1 != 0 {
		return !r
	}
	return r
}

// InIT reports whether the next instruction is inside an IT block.
func (c *Core) InIT() bool { return c.ITState&0xf != 0 }

func (c *Core) advanceIT() {
	if c.ITState&7 == 0 {
		c.ITState = 0
	} else {
		c.ITState = c.ITState&0xe0 | c.ITState<<1&0x1f
	}
}

var aliases = map[string]int{"sp": SP, "lr": LR, "pc": PC}

func regIndex(name string) (int, bool) {
	if i, ok := aliases[name]; ok {
		return i, true
	}
	if strings.HasPrefix(name, "r") {
		if i, err := strconv.Atoi(name[1:]); err == nil && i >= 0 && i < 16 {
			return i, true
		}
	}
	return 0, false
}

func (c *Core) RegNames() []string {
	names := make([]string, 0, 20)
	for i := 0; i < NumGPR; i++ {
		names = append(names, fmt.Sprintf("r%d", i))
	}
	return append(names, "sp", "lr", "pc", "apsr", "ipsr", "iset", "itstate")
}

func (c *Core) ReadReg(name string) (uint64, error) {
	switch name {
	case "apsr":
		return uint64(c.APSR), nil
	case "ipsr":
		return uint64(c.IPSR), nil
	case "iset":
		return uint64(c.ISET), nil
	case "itstate":
		return uint64(c.ITState), nil
	}
	if i, ok := regIndex(name); ok {
		return uint64(c.R[i]), nil
	}
	return 0, errors.Errorf("arm: no register %q", name)
}

func (c *Core) WriteReg(name string, v uint64) error {
	switch name {
	case "apsr":
		c.APSR = uint32(v)
	case "ipsr":
		c.IPSR = uint32(v)
	case "iset":
		c.ISET = ISet(v & 1)
	case "itstate":
		c.ITState = uint8(v)
	default:
		i, ok := regIndex(name)
		if !ok {
			return errors.Errorf("arm: no register %q", name)
		}
		if i == PC {
			c.SetPC(uint32(v))
		} else {
			c.R[i] = uint32(v)
		}
	}
	return nil
}

func (c *Core) ReadRegString(name string) (string, error) {
	v, err := c.ReadReg(name)
	if err != nil {
		return "", err
	}
	return models.FormatRegValue(v, 32), nil
}

func (c *Core) WriteRegString(name, value string) error {
	v, err := models.ParseRegValue(value)
	if err != nil {
		return err
	}
	return c.WriteReg(name, v)
}

// InitRegs zeroes r0-r14 and the status registers and returns to Thumb.
func (c *Core) InitRegs(stackAddr, stackSize uint32) {
	pc := c.R[PC]
	*c = Core{ISET: Thumb}
	c.R[PC] = pc
	c.R[SP] = stackAddr + stackSize
}

func (c *Core) DefaultStackSize() uint32 { return 0x10000 }
func (c *Core) Order() binary.ByteOrder  { return binary.LittleEndian }
func (c *Core) Bits() int                { return 32 }
func (c *Core) NewDecoder(t *thread.Thread) thread.Decoder {
	return &Interp{t: t, cpu: c, mem: t.Space().LE()}
}

// StackArg reads argument pos of a call; the first four travel in r0-r3
// and argument 5 is the first word on the stack.
func StackArg(t *thread.Thread, pos int) uint32 {
	return t.Space().LE().Read32(t.Core.SP() + 4*uint32(pos-5))
}
