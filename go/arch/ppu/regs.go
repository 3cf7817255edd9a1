// Package ppu implements the 64-bit PowerPC main core: register bank,
// decode table and interpreter.
package ppu

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

const (
	NumGPR = 32

	xerSO = 1 << 31
	xerOV = 1 << 30
	xerCA = 1 << 29
)

func init() {
	thread.Register(models.PPU, func(*vm.Space) thread.Core { return New() })
}

type Core struct {
	R     [NumGPR]uint64
	F     [NumGPR]float64
	CR    uint32
	Link  uint64
	CTR   uint64
	XER   uint64
	FPSCR uint32

	pc uint32
	tb uint64
	// reservation address of the last lwarx/ldarx, 0 when none
	resv uint32
}

func New() *Core { return &Core{} }

func (c *Core) NumGPR() int            { return NumGPR }
func (c *Core) GPR(i int) uint64       { return c.R[i] }
func (c *Core) SetGPR(i int, v uint64) { c.R[i] = v }

func (c *Core) PC() uint32      { return c.pc }
func (c *Core) SetPC(pc uint32) { c.pc = pc &^ 3 }
func (c *Core) SP() uint32      { return uint32(c.R[1]) }
func (c *Core) SetSP(sp uint32) { c.R[1] = uint64(sp) }
func (c *Core) LR() uint32      { return uint32(c.Link) }
func (c *Core) SetLR(lr uint32) { c.Link = uint64(lr) }

// CRField returns 4-bit condition register field n (0 is the most
// significant).
func (c *Core) CRField(n int) uint32 { return c.CR >> (28 - 4*uint(n)) & 0xf }

func (c *Core) SetCRField(n int, v uint32) {
	shift := 28 - 4*uint(n)
	c.CR = c.CR&^(0xf<<shift) | (v&0xf)<<shift
}

var special = []string{"pc", "lr", "ctr", "xer", "cr", "fpscr"}

func (c *Core) RegNames() []string {
	names := make([]string, 0, 2*NumGPR+len(special))
	for i := 0; i < NumGPR; i++ {
		names = append(names, fmt.Sprintf("r%d", i), fmt.Sprintf("f%d", i))
	}
	return append(names, special...)
}

func (c *Core) ReadReg(name string) (uint64, error) {
	switch name {
	case "pc":
		return uint64(c.pc), nil
	case "lr":
		return c.Link, nil
	case "ctr":
		return c.CTR, nil
	case "xer":
		return c.XER, nil
	case "cr":
		return uint64(c.CR), nil
	case "fpscr":
		return uint64(c.FPSCR), nil
	}
	if len(name) > 1 {
		if i, err := strconv.Atoi(name[1:]); err == nil && i >= 0 && i < NumGPR {
			switch name[0] {
			case 'r':
				return c.R[i], nil
			case 'f':
				return math.Float64bits(c.F[i]), nil
			}
		}
	}
	return 0, errors.Errorf("ppu: no register %q", name)
}

func (c *Core) WriteReg(name string, v uint64) error {
	switch name {
	case "pc":
		c.SetPC(uint32(v))
	case "lr":
		c.Link = v
	case "ctr":
		c.CTR = v
	case "xer":
		c.XER = v
	case "cr":
		c.CR = uint32(v)
	case "fpscr":
		c.FPSCR = uint32(v)
	default:
		if len(name) < 2 {
			return errors.Errorf("ppu: no register %q", name)
		}
		i, err := strconv.Atoi(name[1:])
		if err != nil || i < 0 || i >= NumGPR {
			return errors.Errorf("ppu: no register %q", name)
		}
		switch name[0] {
		case 'r':
			c.R[i] = v
		case 'f':
			c.F[i] = math.Float64frombits(v)
		default:
			return errors.Errorf("ppu: no register %q", name)
		}
	}
	return nil
}

func (c *Core) ReadRegString(name string) (string, error) {
	v, err := c.ReadReg(name)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(name, "f") && name != "fpscr" {
		return strconv.FormatFloat(math.Float64frombits(v), 'g', -1, 64), nil
	}
	return models.FormatRegValue(v, 64), nil
}

// WriteRegString parses floats for FPRs and integers for everything else.
func (c *Core) WriteRegString(name, value string) error {
	if strings.HasPrefix(name, "f") && name != "fpscr" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrapf(err, "ppu: bad float for %s", name)
		}
		return c.WriteReg(name, math.Float64bits(f))
	}
	v, err := models.ParseRegValue(value)
	if err != nil {
		return err
	}
	return c.WriteReg(name, v)
}

func (c *Core) InitRegs(stackAddr, stackSize uint32) {
	*c = Core{}
	c.R[1] = uint64(stackAddr + stackSize)
}

func (c *Core) DefaultStackSize() uint32 { return 0x10000 }
func (c *Core) Order() binary.ByteOrder  { return binary.BigEndian }
func (c *Core) Bits() int                { return 64 }
func (c *Core) NewDecoder(t *thread.Thread) thread.Decoder {
	return &Interp{t: t, cpu: c, mem: t.Space().BE()}
}
