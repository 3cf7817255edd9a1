package thread

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/vm"
)

// toy architecture: little-endian 32-bit words, op in the top byte,
// register in bits 16-17, 16-bit immediate
const (
	opNop = iota
	opAdd
	opJump
	opRet
	opBadLoad
	opPush
	opCall
	opIntr
	opHalt
)

const testType = models.ThreadType(100)

func init() {
	Register(testType, func(s *vm.Space) Core { return &testCore{} })
}

func ins(op, reg, imm uint32) uint32 { return op<<24 | reg<<16 | imm&0xffff }

type testCore struct {
	r          [4]uint64
	pc, sp, lr uint32
}

func (c *testCore) NumGPR() int            { return len(c.r) }
func (c *testCore) GPR(i int) uint64       { return c.r[i] }
func (c *testCore) SetGPR(i int, v uint64) { c.r[i] = v }
func (c *testCore) PC() uint32             { return c.pc }
func (c *testCore) SetPC(v uint32)         { c.pc = v }
func (c *testCore) SP() uint32             { return c.sp }
func (c *testCore) SetSP(v uint32)         { c.sp = v }
func (c *testCore) LR() uint32             { return c.lr }
func (c *testCore) SetLR(v uint32)         { c.lr = v }

func (c *testCore) RegNames() []string {
	return []string{"r0", "r1", "r2", "r3", "pc", "sp", "lr"}
}

func (c *testCore) ReadReg(name string) (uint64, error) {
	switch name {
	case "pc":
		return uint64(c.pc), nil
	case "sp":
		return uint64(c.sp), nil
	case "lr":
		return uint64(c.lr), nil
	}
	var i int
	if _, err := fmt.Sscanf(name, "r%d", &i); err != nil || i >= len(c.r) {
		return 0, errors.Errorf("no register %s", name)
	}
	return c.r[i], nil
}

func (c *testCore) WriteReg(name string, v uint64) error {
	return errors.New("read-only")
}

func (c *testCore) ReadRegString(name string) (string, error) {
	v, err := c.ReadReg(name)
	return models.FormatRegValue(v, 32), err
}

func (c *testCore) WriteRegString(name, value string) error {
	return c.WriteReg(name, 0)
}

func (c *testCore) InitRegs(stackAddr, stackSize uint32) {
	*c = testCore{sp: stackAddr + stackSize}
}

func (c *testCore) DefaultStackSize() uint32 { return 0x10000 }
func (c *testCore) Order() binary.ByteOrder  { return binary.LittleEndian }
func (c *testCore) Bits() int                { return 32 }
func (c *testCore) NewDecoder(t *Thread) Decoder {
	return &testDecoder{t: t, c: c}
}

type testDecoder struct {
	t     *Thread
	c     *testCore
	cache vm.ExecCache
	buf   [4]byte
}

func (d *testDecoder) Fetch(addr uint32) (uint32, uint32, error) {
	if err := d.t.Space().Fetch(&d.cache, addr, d.buf[:], d.t.Config().StrictExec); err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint32(d.buf[:]), 4, nil
}

func (d *testDecoder) Execute(code uint32) {
	c, t := d.c, d.t
	reg, imm := (code>>16)&3, code&0xffff
	switch code >> 24 {
	case opNop:
	case opAdd:
		c.r[reg] += uint64(imm)
	case opJump:
		t.Branch(0x10000 + imm)
	case opRet:
		t.Branch(c.lr)
	case opBadLoad:
		c.r[reg] = uint64(t.Mem().Read32(0xfffffff0))
	case opPush:
		c.sp -= imm
		t.Mem().Write32(c.sp, uint32(c.r[reg]))
	case opCall:
		c.lr = t.pc + 4
		t.Branch(0x10000 + imm)
	case opIntr:
		t.Interrupt(imm)
	case opHalt:
		t.Stop()
	default:
		t.Trap(models.ErrUnknownInstruction)
	}
}

func (d *testDecoder) Disasm(code uint32) string {
	return fmt.Sprintf("op%d r%d, %#x", code>>24, (code>>16)&3, code&0xffff)
}

var testLayout = vm.Layout{
	Name: "thread-test",
	Regions: [vm.LocationCount]vm.RegionSpec{
		vm.Main:   {Base: 0x10000, Size: 0x40000, Prot: cpu.PROT_ALL},
		vm.Stack:  {Base: 0x80000, Size: 0x40000, Prot: cpu.PROT_READ | cpu.PROT_WRITE},
		vm.Module: {Base: 0xc0000, Size: 0x10000, Prot: cpu.PROT_ALL},
		vm.User:   {Base: 0xd0000, Size: 0x20000, Prot: cpu.PROT_READ | cpu.PROT_WRITE},
	},
	StackPage: 0x10000,
}

type testSup struct {
	faults   chan *models.FaultError
	unknowns chan *models.FaultError
}

func (s *testSup) OnFault(t *Thread, err *models.FaultError)   { s.faults <- err }
func (s *testSup) OnUnknown(t *Thread, err *models.FaultError) { s.unknowns <- err }

type fixture struct {
	space *vm.Space
	m     *Manager
	sup   *testSup
	cfg   *models.Config
}

func newFixture(t testing.TB) *fixture {
	space, err := vm.New(0x100000, testLayout, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := models.DefaultConfig()
	sup := &testSup{faults: make(chan *models.FaultError, 8), unknowns: make(chan *models.FaultError, 8)}
	return &fixture{space: space, m: NewManager(cfg, space, nil, sup), sup: sup, cfg: cfg}
}

// load writes a program at addr.
func (f *fixture) load(addr uint32, prog ...uint32) {
	for i, code := range prog {
		f.space.LE().Write32(addr+uint32(i*4), code)
	}
}

func (f *fixture) thread(t testing.TB) *Thread {
	th, err := f.m.AddThread(testType)
	if err != nil {
		t.Fatal(err)
	}
	if err := th.InitStack(); err != nil {
		t.Fatal(err)
	}
	th.InitRegs()
	return th
}
