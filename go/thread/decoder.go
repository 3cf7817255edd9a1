package thread

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/vm"
)

// Core is one architecture's register bank plus the pieces of its
// behavior the generic thread needs.
type Core interface {
	models.Regs
	// InitRegs zeroes the register bank, resets flags and mode state and
	// points the stack pointer at the top of the given stack.
	InitRegs(stackAddr, stackSize uint32)
	DefaultStackSize() uint32
	Order() binary.ByteOrder
	// Bits is the register width, used for dumps.
	Bits() int
	NewDecoder(t *Thread) Decoder
}

// Decoder fetches and executes instructions for one thread. Execute runs
// the handler; handlers change control flow through Thread.Branch and
// report problems through Thread.Trap.
type Decoder interface {
	Fetch(addr uint32) (code, size uint32, err error)
	Execute(code uint32)
	Disasm(code uint32) string
}

// Factory creates the core of a new thread.
type Factory func(space *vm.Space) Core

type traceDecoder struct {
	Decoder
	t  *Thread
	pc uint32
}

func (d *traceDecoder) Fetch(addr uint32) (uint32, uint32, error) {
	d.pc = addr
	return d.Decoder.Fetch(addr)
}

func (d *traceDecoder) Execute(code uint32) {
	d.t.Log().WithFields(logrus.Fields{"pc": d.pc, "code": code}).Debugf("%#08x: %s", d.pc, d.Decoder.Disasm(code))
	d.Decoder.Execute(code)
}
