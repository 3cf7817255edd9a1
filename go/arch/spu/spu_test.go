package spu

import (
	"testing"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

// encoders for the instruction forms
func rr(op, rt, ra, rb uint32) uint32 { return op<<21 | (rb&0x7f)<<14 | ra<<7 | rt }
func ri10(op, rt, ra uint32, imm int32) uint32 {
	return op<<24 | (uint32(imm)&0x3ff)<<14 | ra<<7 | rt
}
func ri16(op, rt uint32, imm int32) uint32 { return op<<23 | (uint32(imm)&0xffff)<<7 | rt }
func rrr(op, rt, ra, rb, rc uint32) uint32 { return op<<28 | rt<<21 | rb<<14 | ra<<7 | rc }

func stop(sig uint32) uint32 { return sig & 0x3fff }

var testLayout = vm.Layout{
	Name: "spu-test",
	Regions: [vm.LocationCount]vm.RegionSpec{
		vm.Main:   {Base: 0x10000, Size: 0x40000, Prot: cpu.PROT_ALL},
		vm.Stack:  {Base: 0x80000, Size: 0x40000, Prot: cpu.PROT_READ | cpu.PROT_WRITE},
		vm.Module: {Base: 0xc0000, Size: 0x10000, Prot: cpu.PROT_ALL},
		vm.User:   {Base: 0xd0000, Size: 0x20000, Prot: cpu.PROT_READ | cpu.PROT_WRITE},
	},
	StackPage: 0x10000,
	Align:     0x10,
	BigEndian: true,
}

type testSup struct {
	unknowns chan *models.FaultError
}

func (s *testSup) OnFault(t *thread.Thread, err *models.FaultError)   {}
func (s *testSup) OnUnknown(t *thread.Thread, err *models.FaultError) { s.unknowns <- err }

type fixture struct {
	space *vm.Space
	m     *thread.Manager
	sup   *testSup
	th    *thread.Thread
	core  *Core
}

func newFixture(t *testing.T, prog ...uint32) *fixture {
	space, err := vm.New(0x100000, testLayout, nil)
	if err != nil {
		t.Fatal(err)
	}
	sup := &testSup{unknowns: make(chan *models.FaultError, 4)}
	m := thread.NewManager(models.DefaultConfig(), space, nil, sup)
	th, err := m.AddThread(models.SPU)
	if err != nil {
		t.Fatal(err)
	}
	if err := th.InitStack(); err != nil {
		t.Fatal(err)
	}
	th.InitRegs()
	f := &fixture{space: space, m: m, sup: sup, th: th, core: th.Core.(*Core)}
	for i, code := range prog {
		space.BE().Write32(f.core.LSAddr(uint32(i*4)), code)
	}
	return f
}

func (f *fixture) run(t *testing.T) {
	if err := f.th.Run(); err != nil {
		t.Fatal(err)
	}
	if err := f.m.Wait(); err != nil {
		t.Fatal(err)
	}
	if f.th.Status() != models.Stopped {
		t.Fatalf("thread %s after run", f.th.Status())
	}
}

func TestTableComplete(t *testing.T) {
	// 199 mnemonics plus the unknown handler
	if n := len(Table().Instrs()); n != 200 {
		t.Fatalf("table has %d instructions", n)
	}
	tests := []struct {
		code uint32
		want string
	}{
		{0x40200000, "nop $0"},
		{0x00200000, "lnop"},
		{stop(0x3fff), "stop 0x3fff"},
		{ri16(0x081, 3, 5), "il $3, 5"},
		{ri10(0x1c, 4, 3, -2), "ai $4, $3, -0x2"},
		{rr(0x0c0, 5, 3, 4), "a $5, $3, $4"},
		{ri10(0x34, 5, 3, 2), "lqd $5, 0x20, $3"},
		{ri16(0x064, 0, -3), "br -0xc"},
		{rrr(0xb, 6, 7, 8, 5), "shufb $6, $7, $8, $5"},
		{0x00800000, "unk"},
	}
	for _, test := range tests {
		if got := Table().Disasm(test.code); got != test.want {
			t.Errorf("%08x: got %q want %q", test.code, got, test.want)
		}
	}
}

func TestNopAdvances(t *testing.T) {
	f := newFixture(t, 0x40200000, 0x00200000, stop(0))
	f.core.R[3] = cpu.Splat(0x1234)
	before := f.core.R
	for i := 1; i <= 2; i++ {
		if err := f.th.Step(); err != nil {
			t.Fatal(err)
		}
		if f.core.PC() != uint32(i*4) {
			t.Fatalf("pc %#x after %d steps", f.core.PC(), i)
		}
		if f.core.R != before {
			t.Fatal("no-op changed registers")
		}
	}
}

func TestArithmetic(t *testing.T) {
	f := newFixture(t,
		ri16(0x081, 3, 5),      // il $3, 5
		ri10(0x1c, 4, 3, -2),   // ai $4, $3, -2
		rr(0x0c0, 5, 3, 4),     // a $5, $3, $4
		rr(0x040, 6, 4, 3),     // sf $6, $4, $3
		ri16(0x082, 7, 0x1234), // ilhu $7, 0x1234
		ri16(0x0c1, 7, 0x5678), // iohl $7, 0x5678
		rr(0x3c4, 8, 3, 4),     // mpy $8, $3, $4
		ri10(0x7c, 9, 5, 8),    // ceqi $9, $5, 8
		rr(0x2a5, 10, 3, 0),    // clz $10, $3
		stop(0),
	)
	f.run(t)
	want := map[int]uint32{3: 5, 4: 3, 5: 8, 6: 2, 7: 0x12345678, 8: 15, 9: 0xffffffff, 10: 29}
	for r, v := range want {
		if f.core.R[r] != cpu.Splat(v) {
			t.Errorf("$%d = %s, want %08x splatted", r, f.core.R[r], v)
		}
	}
}

func TestLoadStore(t *testing.T) {
	f := newFixture(t,
		ri16(0x081, 3, 0x100), // il $3, 0x100
		ri16(0x081, 4, 0x55),  // il $4, 0x55
		ri10(0x24, 4, 3, 1),   // stqd $4, 0x10($3)
		ri10(0x34, 5, 3, 1),   // lqd $5, 0x10($3)
		ri16(0x061, 6, 0x44),  // lqa $6, 0x110
		rr(0x1c4, 7, 3, 3),    // lqx $7, $3, $3
		stop(0),
	)
	f.space.BE().Write128(f.core.LSAddr(0x200), cpu.Splat(0xdead))
	f.run(t)
	if got := f.space.BE().Read32(f.core.LSAddr(0x110)); got != 0x55 {
		t.Fatalf("stored word %#x", got)
	}
	for _, r := range []int{5, 6} {
		if f.core.R[r] != cpu.Splat(0x55) {
			t.Errorf("$%d = %s", r, f.core.R[r])
		}
	}
	if f.core.R[7] != cpu.Splat(0xdead) {
		t.Errorf("$7 = %s", f.core.R[7])
	}
}

func TestBranches(t *testing.T) {
	f := newFixture(t,
		ri16(0x081, 3, 0),  // 0: il $3, 0
		ri16(0x040, 3, 2),  // 4: brz $3, +8
		ri16(0x081, 4, 1),  // 8: il $4, 1
		ri16(0x066, 0, 3),  // 12: brsl $0, +12
		ri16(0x081, 5, 7),  // 16: il $5, 7
		stop(0),            // 20
		ri16(0x081, 6, 9),  // 24: il $6, 9
		rr(0x1a8, 0, 0, 0), // 28: bi $0
	)
	f.run(t)
	if f.core.R[4] != (cpu.U128{}) {
		t.Error("brz did not skip")
	}
	if f.core.R[5] != cpu.Splat(7) || f.core.R[6] != cpu.Splat(9) {
		t.Errorf("$5 = %s $6 = %s", f.core.R[5], f.core.R[6])
	}
	if f.core.LR() != 16 {
		t.Errorf("link %#x", f.core.LR())
	}
	// stop leaves pc at the following instruction
	if f.core.PC() != 24 {
		t.Errorf("stopped at %#x", f.core.PC())
	}
}

func TestQuadwordOps(t *testing.T) {
	f := newFixture(t,
		rr(0x1f6, 5, 0, 0),      // cwd $5, 0($0)
		rrr(0xb, 6, 7, 8, 5),    // shufb $6, $7, $8, $5
		rr(0x1fc, 10, 9, 4),     // rotqbyi $10, $9, 4
		rr(0x1ff, 11, 9, 4),     // shlqbyi $11, $9, 4
		rr(0x1fd, 12, 9, 0x7c),  // rotqmbyi $12, $9, -4
		ri16(0x065, 13, 0xf00f), // fsmbi $13, 0xf00f
		stop(0),
	)
	f.core.R[0] = cpu.Splat(4)
	f.core.R[7] = cpu.Splat(0xaabbccdd)
	f.core.R[9] = fromWords([4]uint32{1, 2, 3, 4})
	f.run(t)
	tests := []struct {
		reg  int
		want [4]uint32
	}{
		{5, [4]uint32{0x10111213, 0x00010203, 0x18191a1b, 0x1c1d1e1f}},
		{6, [4]uint32{0, 0xaabbccdd, 0, 0}},
		{10, [4]uint32{2, 3, 4, 1}},
		{11, [4]uint32{2, 3, 4, 0}},
		{12, [4]uint32{0, 1, 2, 3}},
		{13, [4]uint32{0xffffffff, 0, 0, 0xffffffff}},
	}
	for _, test := range tests {
		if got := words(f.core.R[test.reg]); got != test.want {
			t.Errorf("$%d = %08x, want %08x", test.reg, got, test.want)
		}
	}
}

func TestStopHook(t *testing.T) {
	f := newFixture(t, stop(0x10), ri16(0x081, 3, 1), stop(0x2))
	var seen []uint32
	_, err := f.th.HookAdd(cpu.HOOK_INTR, func(th *thread.Thread, sig uint32) bool {
		seen = append(seen, sig)
		return sig == 0x10
	}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.run(t)
	if len(seen) != 2 || f.core.StopCode != 2 || f.core.R[3] != cpu.Splat(1) {
		t.Fatalf("signals %v, stop code %#x, $3 %s", seen, f.core.StopCode, f.core.R[3])
	}
}

func TestHalt(t *testing.T) {
	f := newFixture(t, ri10(0x7f, 0, 3, 0), ri16(0x081, 4, 1), stop(0))
	f.run(t)
	if f.core.PC() != 4 || f.core.R[4] != (cpu.U128{}) {
		t.Fatalf("halt did not stop: pc %#x", f.core.PC())
	}
}

func TestNotImplemented(t *testing.T) {
	f := newFixture(t, rr(0x3c3, 3, 4, 5))
	if err := f.th.Run(); err != nil {
		t.Fatal(err)
	}
	ferr := <-f.sup.unknowns
	if ferr.Err != models.ErrNotImplemented || ferr.PC != 0 {
		t.Fatalf("fault %v", ferr)
	}
	f.th.Stop()
	if err := f.m.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestRegStrings(t *testing.T) {
	c := New()
	c.InitRegs(0x80000, LSSize)
	if c.SP() != LSSize-0x10 || c.LS() != 0x80000 {
		t.Fatalf("sp %#x ls %#x", c.SP(), c.LS())
	}
	const q = "0x00112233445566778899aabbccddeeff"
	if err := c.WriteRegString("r3", q); err != nil {
		t.Fatal(err)
	}
	if s, _ := c.ReadRegString("r3"); s != q {
		t.Fatalf("r3 = %s", s)
	}
	if v, _ := c.ReadReg("r3"); v != 0x00112233 {
		t.Fatalf("preferred slot %#x", v)
	}
	if err := c.WriteRegString("pc", "0x40005"); err != nil || c.PC() != 4 {
		t.Fatalf("pc %#x err %v", c.PC(), err)
	}
	if _, err := c.ReadReg("r128"); err == nil {
		t.Fatal("r128 readable")
	}
}
