package thread

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/vm"
)

func TestRunToStopAddr(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opAdd, 0, 5), ins(opRet, 0, 0))
	th := f.thread(t)
	th.SetEntry(0x10000)
	th.Core.SetLR(f.cfg.StopAddr)
	if err := th.Run(); err != nil {
		t.Fatal(err)
	}
	if err := f.m.Wait(); err != nil {
		t.Fatal(err)
	}
	if th.Status() != models.Stopped || th.Core.GPR(0) != 5 {
		t.Fatalf("after run: %s r0=%d", th.Status(), th.Core.GPR(0))
	}
	if f.m.GetThread(th.ID) != nil {
		t.Fatal("stopped thread still live")
	}
	if th.Run() == nil {
		t.Fatal("stopped thread ran again")
	}
}

func TestStackInit(t *testing.T) {
	f := newFixture(t)
	th, _ := f.m.AddThread(testType)
	th.SetStackSize(0x20000)
	if err := th.InitStack(); err != nil {
		t.Fatal(err)
	}
	addr := th.StackAddr()
	if addr != testLayout.Regions[vm.Stack].Base {
		t.Fatalf("stack at %#x", addr)
	}
	if err := th.InitStack(); err != nil || th.StackAddr() != addr {
		t.Fatal("second InitStack reallocated")
	}
	if cur := f.space.Region(vm.Stack).Cursor(); cur != 0x20000 {
		t.Fatalf("stack region advanced to %#x", cur)
	}
	th.InitRegs()
	if th.Core.SP() != addr+0x20000 {
		t.Fatalf("sp %#x", th.Core.SP())
	}
	// the region holds 4 pages
	other, _ := f.m.AddThread(testType)
	other.SetStackSize(0x30000)
	if err := other.InitStack(); err == nil {
		t.Fatal("stack allocation past the region succeeded")
	}
}

func TestFastCallRestores(t *testing.T) {
	f := newFixture(t)
	// push r0; r1 += 7; jump helper; helper: r2 += 1; return
	f.load(0x10200, ins(opPush, 0, 16), ins(opAdd, 1, 7), ins(opJump, 0, 0x300))
	f.load(0x10300, ins(opAdd, 2, 1), ins(opRet, 0, 0))
	th := f.thread(t)
	parent, _ := f.m.AddThread(testType)
	th.Core.SetPC(0x10100)
	th.Core.SetLR(0x10104)
	th.Core.SetGPR(0, 0xabcd)
	sp := th.Core.SP()

	ctx := NewContext(parent)
	if err := th.FastCall(ctx, 0x10200); err != nil {
		t.Fatal(err)
	}
	if th.Core.PC() != 0x10100 || th.Core.SP() != sp || th.Core.LR() != 0x10104 {
		t.Fatalf("not restored: pc=%#x sp=%#x lr=%#x", th.Core.PC(), th.Core.SP(), th.Core.LR())
	}
	if ctx.Current() != parent {
		t.Fatal("current thread not restored")
	}
	if th.Status() != models.Created {
		t.Fatalf("status %s after fast call", th.Status())
	}
	if th.Core.GPR(1) != 7 || th.Core.GPR(2) != 1 {
		t.Fatal("routine side effects lost")
	}
	if f.space.LE().Read32(sp-16) != 0xabcd {
		t.Fatal("routine did not write its stack")
	}
}

func TestFastCallNested(t *testing.T) {
	f := newFixture(t)
	// outer: r0 += 1; int 1; r0 += 2; return
	f.load(0x10200, ins(opAdd, 0, 1), ins(opIntr, 0, 1), ins(opAdd, 0, 2), ins(opRet, 0, 0))
	// inner: r1 += 1; return
	f.load(0x10300, ins(opAdd, 1, 1), ins(opRet, 0, 0))
	th := f.thread(t)
	ctx := NewContext(nil)
	var innerErr error
	th.HookAdd(cpu.HOOK_INTR, func(t *Thread, intno uint32) bool {
		innerErr = t.FastCall(ctx, 0x10300)
		if ctx.Current() != t {
			innerErr = errors.New("nested call lost the current thread")
		}
		return true
	}, 1, 0)
	if err := th.FastCall(ctx, 0x10200); err != nil {
		t.Fatal(err)
	}
	if innerErr != nil {
		t.Fatal(innerErr)
	}
	if th.Core.GPR(0) != 3 || th.Core.GPR(1) != 1 {
		t.Fatalf("r0=%d r1=%d", th.Core.GPR(0), th.Core.GPR(1))
	}
	if ctx.Current() != nil {
		t.Fatal("current thread leaked")
	}
}

func TestFastCallFault(t *testing.T) {
	f := newFixture(t)
	f.load(0x10200, ins(opAdd, 1, 1), ins(opBadLoad, 0, 0), ins(opRet, 0, 0))
	th := f.thread(t)
	th.Core.SetPC(0x10100)
	sp, lr := th.Core.SP(), th.Core.LR()
	ctx := NewContext(nil)
	err := th.FastCall(ctx, 0x10200)
	ferr, ok := err.(*models.FaultError)
	if !ok {
		t.Fatalf("expected a fault, got %v", err)
	}
	if ferr.PC != 0x10204 || ferr.Thread != th.ID {
		t.Fatalf("fault context %+v", ferr)
	}
	if merr, ok := errors.Cause(ferr).(*cpu.MemError); !ok || merr.Enum != cpu.MEM_OUT_OF_BOUNDS {
		t.Fatalf("fault cause %v", errors.Cause(ferr))
	}
	if th.Core.PC() != 0x10100 || th.Core.SP() != sp || th.Core.LR() != lr || ctx.Current() != nil {
		t.Fatal("registers not restored after fault")
	}
	if th.Status() != models.Stopped {
		t.Fatalf("faulted thread is %s", th.Status())
	}
	select {
	case got := <-f.sup.faults:
		if got != ferr {
			t.Fatal("supervisor got a different fault")
		}
	default:
		t.Fatal("supervisor not told")
	}
	if err := th.FastCall(ctx, 0x10200); err == nil {
		t.Fatal("fast call on a stopped thread succeeded")
	}
}

func TestFastCallPanic(t *testing.T) {
	f := newFixture(t)
	f.load(0x10200, ins(opAdd, 1, 1), ins(opAdd, 1, 1), ins(opRet, 0, 0))
	th := f.thread(t)
	th.Core.SetPC(0x10100)
	sp := th.Core.SP()
	th.HookAdd(cpu.HOOK_CODE, func(t *Thread, addr, size uint32) {
		t.Core.SetSP(0)
		panic("host failure")
	}, 0x10204, 0x10204)
	ctx := NewContext(nil)
	func() {
		defer func() {
			if r := recover(); r != "host failure" {
				t.Fatalf("recovered %v", r)
			}
		}()
		th.FastCall(ctx, 0x10200)
	}()
	if th.Core.PC() != 0x10100 || th.Core.SP() != sp || th.Status() != models.Created {
		t.Fatalf("not restored after panic: pc=%#x sp=%#x %s", th.Core.PC(), th.Core.SP(), th.Status())
	}
}

func TestUnknownInstruction(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opAdd, 0, 1), 0xff000000, ins(opRet, 0, 0))
	th := f.thread(t)
	th.SetEntry(0x10000)
	if err := th.Run(); err != nil {
		t.Fatal(err)
	}
	var ferr *models.FaultError
	select {
	case ferr = <-f.sup.unknowns:
	case <-time.After(5 * time.Second):
		t.Fatal("unknown instruction not reported")
	}
	if ferr.PC != 0x10004 || ferr.Code != 0xff000000 || errors.Cause(ferr) != models.ErrUnknownInstruction {
		t.Fatalf("report %+v", ferr)
	}
	if th.Status() != models.Paused {
		t.Fatalf("thread is %s", th.Status())
	}
	th.Stop()
	if err := f.m.Wait(); err != nil {
		t.Fatal(err)
	}
	if th.Core.PC() != 0x10004 {
		t.Fatalf("pc moved past the bad instruction: %#x", th.Core.PC())
	}
	if th.Resume() {
		t.Fatal("stopped thread resumed")
	}
}

func TestFetchWithoutExec(t *testing.T) {
	f := newFixture(t)
	th := f.thread(t)
	th.SetEntry(0xd0000)
	if err := th.Run(); err != nil {
		t.Fatal(err)
	}
	ferr := <-f.sup.unknowns
	if merr, ok := errors.Cause(ferr).(*cpu.MemError); !ok || merr.Enum != cpu.MEM_FETCH_PROT {
		t.Fatalf("fetch error %v", ferr)
	}
	th.Stop()
	f.m.Wait()
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opNop, 0, 0), ins(opJump, 0, 0))
	th := f.thread(t)
	th.SetEntry(0x10000)
	if th.Pause() {
		t.Fatal("paused a thread that never ran")
	}
	if err := th.Run(); err != nil {
		t.Fatal(err)
	}
	if err := th.Run(); err == nil {
		t.Fatal("Run twice succeeded")
	}
	if !th.Pause() || th.Status() != models.Paused {
		t.Fatal("pause failed")
	}
	if th.Pause() {
		t.Fatal("paused twice")
	}
	if !th.Resume() || th.Status() != models.Running {
		t.Fatal("resume failed")
	}
	th.Stop()
	if err := f.m.Wait(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-th.Done():
	default:
		t.Fatal("Done not closed")
	}
	if len(f.m.Threads()) != 0 {
		t.Fatal("threads left after stop")
	}
}

func TestHaltFromHandler(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opAdd, 0, 1), ins(opHalt, 0, 0), ins(opAdd, 0, 1))
	th := f.thread(t)
	th.SetEntry(0x10000)
	th.Run()
	f.m.Wait()
	if th.Core.GPR(0) != 1 || th.Status() != models.Stopped {
		t.Fatalf("r0=%d %s", th.Core.GPR(0), th.Status())
	}
}

func TestNotify(t *testing.T) {
	f := newFixture(t)
	th := f.thread(t)
	th.Notify()
	th.Notify()
	th.WaitForAnySignal(nil)
	done := make(chan struct{})
	go func() {
		th.WaitForAnySignal(nil)
		close(done)
	}()
	th.Notify()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Notify did not wake the waiter")
	}
	stop := make(chan struct{})
	close(stop)
	th.WaitForAnySignal(stop)
	th.Stop()
	th.WaitForAnySignal(nil)
}

func TestManagerThreads(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 12; i++ {
		if _, err := f.m.AddThread(testType); err != nil {
			t.Fatal(err)
		}
	}
	for _, th := range f.m.Threads() {
		ids = append(ids, fmt.Sprint(th.ID))
	}
	if strings.Join(ids, ",") != "1,2,3,4,5,6,7,8,9,10,11,12" {
		t.Fatalf("thread order %v", ids)
	}
	if th := f.m.GetThread(3); th == nil || th.ID != 3 {
		t.Fatal("GetThread(3)")
	}
	f.m.StopAll()
	if len(f.m.Threads()) != 0 || f.m.GetThread(3) != nil {
		t.Fatal("StopAll left threads")
	}
	if _, err := f.m.AddThread(models.ThreadType(99)); err == nil {
		t.Fatal("unregistered architecture accepted")
	}
}

func TestTraceMode(t *testing.T) {
	f := newFixture(t)
	f.cfg.DecoderMode = models.Trace
	th := f.thread(t)
	th.Prepare()
	if _, ok := th.Decoder().(*traceDecoder); !ok {
		t.Fatalf("decoder %T", th.Decoder())
	}
	f.load(0x10000, ins(opAdd, 2, 3))
	th.Core.SetPC(0x10000)
	if err := th.Step(); err != nil {
		t.Fatal(err)
	}
	if th.Core.GPR(2) != 3 || th.Core.PC() != 0x10004 {
		t.Fatal("traced step did not execute")
	}
}

func TestRegsToString(t *testing.T) {
	f := newFixture(t)
	th := f.thread(t)
	th.Core.SetGPR(1, 0x42)
	s := th.RegsToString()
	if !strings.Contains(s, "r1 = 0x00000042\n") || strings.Index(s, "lr") > strings.Index(s, "r0") {
		t.Fatalf("dump:\n%s", s)
	}
}

type memFault struct {
	access int
	addr   uint32
	size   int
}

func TestMemFaultHookSkips(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opAdd, 0, 1), ins(opBadLoad, 1, 0), ins(opPush, 0, 16), ins(opAdd, 2, 3))
	th := f.thread(t)
	th.Core.SetPC(0x10000)
	// 0x60000 lies in the gap after the main region
	th.Core.SetSP(0x60010)
	var seen []memFault
	hh, err := th.HookAdd(cpu.HOOK_MEM_ERR, func(t *Thread, access int, addr uint32, size int) bool {
		seen = append(seen, memFault{access, addr, size})
		return true
	}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := th.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	want := []memFault{
		{cpu.MEM_OUT_OF_BOUNDS, 0xfffffff0, 4},
		{cpu.MEM_WRITE_UNMAPPED, 0x60000, 4},
	}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Fatalf("hook saw %+v", seen)
	}
	if th.Core.PC() != 0x10010 || th.Core.GPR(0) != 1 || th.Core.GPR(1) != 0 || th.Core.GPR(2) != 3 {
		t.Fatalf("faulting instructions not skipped: pc=%#x", th.Core.PC())
	}
	if th.Status() == models.Stopped || len(f.sup.faults) != 0 {
		t.Fatal("handled fault stopped the thread")
	}

	// without the hook the same load is fatal
	if err := th.HookDel(hh); err != nil {
		t.Fatal(err)
	}
	th.Core.SetPC(0x10004)
	err = th.Step()
	var ferr *models.FaultError
	if !errors.As(err, &ferr) || ferr.PC != 0x10004 {
		t.Fatalf("unhandled fault returned %v", err)
	}
	if th.Status() != models.Stopped || th.Core.PC() != 0x10004 || len(seen) != 2 {
		t.Fatalf("thread %s pc=%#x after unhandled fault", th.Status(), th.Core.PC())
	}
	select {
	case <-f.sup.faults:
	default:
		t.Fatal("supervisor not told")
	}
}

func TestBlockAndCodeHooks(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opNop, 0, 0), ins(opJump, 0, 0x100))
	f.load(0x10100, ins(opAdd, 0, 1), ins(opJump, 0, 0x200))
	f.load(0x10200, ins(opNop, 0, 0))
	th := f.thread(t)
	th.Core.SetPC(0x10000)

	var blocks, codes []uint32
	bh, err := th.HookAdd(cpu.HOOK_BLOCK, func(t *Thread, addr, size uint32) {
		blocks = append(blocks, addr)
	}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	ch, err := th.HookAdd(cpu.HOOK_CODE, func(t *Thread, addr, size uint32) {
		codes = append(codes, addr)
	}, 0x10100, 0x10104)
	if err != nil {
		t.Fatal(err)
	}
	step := func(n int) {
		for i := 0; i < n; i++ {
			if err := th.Step(); err != nil {
				t.Fatal(err)
			}
		}
	}
	step(5)
	if len(blocks) != 2 || blocks[0] != 0x10100 || blocks[1] != 0x10200 {
		t.Fatalf("block hook saw %#x", blocks)
	}
	if len(codes) != 2 || codes[0] != 0x10100 || codes[1] != 0x10104 {
		t.Fatalf("ranged code hook saw %#x", codes)
	}

	if err := th.HookDel(bh); err != nil {
		t.Fatal(err)
	}
	if err := th.HookDel(ch); err != nil {
		t.Fatal(err)
	}
	th.Core.SetPC(0x10000)
	step(4)
	if len(blocks) != 2 || len(codes) != 2 {
		t.Fatalf("deleted hooks still called: blocks %#x codes %#x", blocks, codes)
	}
	if th.Core.PC() != 0x10200 {
		t.Fatalf("pc %#x", th.Core.PC())
	}

	if _, err := th.HookAdd(cpu.HOOK_BLOCK, func(*Thread, uint32) bool { return false }, 1, 0); err == nil {
		t.Fatal("mismatched callback accepted")
	}
	if _, err := th.HookAdd(0x7fff, func(*Thread, uint32, uint32) {}, 1, 0); err == nil {
		t.Fatal("unknown hook type accepted")
	}
	if err := th.HookDel(42); err == nil {
		t.Fatal("deleting a non-hook succeeded")
	}
}

func TestSetNameWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.load(0x10000, ins(opNop, 0, 0), ins(opJump, 0, 0))
	th := f.thread(t)
	th.SetEntry(0x10000)
	if err := th.Run(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			th.SetName(fmt.Sprintf("worker %d", i))
		}
	}()
	for i := 0; i < 20; i++ {
		th.Pause()
		th.Resume()
	}
	<-done
	if th.Name() != "worker 99" || th.Log().Data["name"] != "worker 99" {
		t.Fatalf("name %q log %v", th.Name(), th.Log().Data["name"])
	}
	th.Stop()
	if err := f.m.Wait(); err != nil {
		t.Fatal(err)
	}
}
