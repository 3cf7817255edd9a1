package callback

import (
	"testing"
	"time"

	_ "github.com/lunixbochs/cellcorn/go/arch/arm"
	_ "github.com/lunixbochs/cellcorn/go/arch/ppu"
	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

func testLayout(bigEndian bool) vm.Layout {
	return vm.Layout{
		Name: "callback-test",
		Regions: [vm.LocationCount]vm.RegionSpec{
			vm.Main:   {Base: 0x10000, Size: 0x40000, Prot: cpu.PROT_ALL},
			vm.Stack:  {Base: 0x80000, Size: 0x40000, Prot: cpu.PROT_READ | cpu.PROT_WRITE},
			vm.Module: {Base: 0xc0000, Size: 0x10000, Prot: cpu.PROT_ALL},
			vm.User:   {Base: 0xd0000, Size: 0x20000, Prot: cpu.PROT_READ | cpu.PROT_WRITE},
		},
		StackPage: 0x10000,
		Align:     0x10,
		BigEndian: bigEndian,
	}
}

type fixture struct {
	space   *vm.Space
	threads *thread.Manager
	done    chan struct{}
	cb      *Manager
}

func newFixture(t *testing.T, bigEndian bool) *fixture {
	space, err := vm.New(0x100000, testLayout(bigEndian), nil)
	if err != nil {
		t.Fatal(err)
	}
	threads := thread.NewManager(models.DefaultConfig(), space, nil, nil)
	done := make(chan struct{})
	return &fixture{space: space, threads: threads, done: done, cb: New(threads, done, nil)}
}

func (f *fixture) shutdown(t *testing.T) {
	close(f.done)
	waited := make(chan struct{})
	go func() {
		f.cb.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("callback loop did not exit")
	}
}

func TestCheckFIFO(t *testing.T) {
	f := newFixture(t, true)
	for i := int32(1); i <= 3; i++ {
		i := i
		f.cb.Register(func(*thread.Context) int32 { return i })
	}
	if calls, jobs := f.cb.Pending(); calls != 3 || jobs != 0 {
		t.Fatalf("pending %d %d", calls, jobs)
	}
	for want := int32(1); want <= 3; want++ {
		ok, got := f.cb.Check(nil)
		if !ok || got != want {
			t.Fatalf("Check = %v, %d; want %d", ok, got, want)
		}
	}
	if ok, _ := f.cb.Check(nil); ok {
		t.Fatal("Check ran a callback from an empty queue")
	}
}

func TestClearDiscards(t *testing.T) {
	f := newFixture(t, true)
	ran := false
	for i := 0; i < 3; i++ {
		f.cb.Register(func(*thread.Context) int32 { ran = true; return 0 })
	}
	f.cb.Async(func(*thread.Context) { ran = true })
	f.cb.Clear()
	if calls, jobs := f.cb.Pending(); calls != 0 || jobs != 0 {
		t.Fatalf("pending %d %d after Clear", calls, jobs)
	}
	if ok, _ := f.cb.Check(nil); ok || ran {
		t.Fatal("cleared callback ran")
	}
}

func TestInitSelectsArchitecture(t *testing.T) {
	for _, test := range []struct {
		bigEndian bool
		typ       models.ThreadType
	}{
		{true, models.PPU},
		{false, models.ARMv7},
	} {
		f := newFixture(t, test.bigEndian)
		if err := f.cb.Init(); err != nil {
			t.Fatal(err)
		}
		th := f.cb.Thread()
		if th.Type != test.typ || th.Name() != ThreadName || th.Prio() != ThreadPrio {
			t.Errorf("callback thread %s prio %d", th, th.Prio())
		}
		if th.StackAddr() == 0 || th.StackSize() != ThreadStack || th.Core.SP() != th.StackAddr()+ThreadStack {
			t.Errorf("stack %#x+%#x sp %#x", th.StackAddr(), th.StackSize(), th.Core.SP())
		}
		if th.Decoder() == nil {
			t.Error("callback thread not prepared")
		}
		f.shutdown(t)
	}
}

func TestAsyncRunsInOrderOnCallbackThread(t *testing.T) {
	f := newFixture(t, true)
	got := make(chan int, 3)
	var owners []*thread.Thread
	// queued before the loop exists
	f.cb.Async(func(ctx *thread.Context) {
		owners = append(owners, ctx.Current())
		got <- 1
	})
	if err := f.cb.Init(); err != nil {
		t.Fatal(err)
	}
	for i := 2; i <= 3; i++ {
		i := i
		f.cb.Async(func(ctx *thread.Context) {
			owners = append(owners, ctx.Current())
			got <- i
		})
	}
	for want := 1; want <= 3; want++ {
		select {
		case n := <-got:
			if n != want {
				t.Fatalf("job %d ran, want %d", n, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("job %d never ran", want)
		}
	}
	f.shutdown(t)
	for _, owner := range owners {
		if owner != f.cb.Thread() {
			t.Fatalf("job ran for %v", owner)
		}
	}
}

func TestAsyncFastCall(t *testing.T) {
	f := newFixture(t, true)
	// li r3, 42; blr
	f.space.BE().Write32(0x10000, 14<<26|3<<21|42)
	f.space.BE().Write32(0x10004, 19<<26|20<<21|16<<1)
	if err := f.cb.Init(); err != nil {
		t.Fatal(err)
	}
	result := make(chan uint64, 1)
	f.cb.Async(func(ctx *thread.Context) {
		th := ctx.Current()
		if err := th.FastCall(ctx, 0x10000); err != nil {
			t.Error(err)
		}
		result <- th.Core.GPR(3)
	})
	select {
	case r := <-result:
		if r != 42 {
			t.Fatalf("r3 = %d", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fast call never returned")
	}
	if th := f.cb.Thread(); th.Status() != models.Created || th.Core.PC() != 0 {
		t.Fatalf("callback thread %s pc %#x after fast call", th.Status(), th.Core.PC())
	}
	f.shutdown(t)
}
