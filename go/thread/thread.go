// Package thread implements emulated hardware threads: run-state, stack
// and register initialization, the fetch/decode/execute loop and fast
// calls, plus the manager that owns every live thread.
package thread

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/models/cpu"
	"github.com/lunixbochs/cellcorn/go/vm"
)

// Supervisor is told about conditions a thread cannot recover from on its
// own.
type Supervisor interface {
	// OnFault is called after a thread stopped on a bad memory access.
	OnFault(t *Thread, err *models.FaultError)
	// OnUnknown is called after a thread paused on an instruction it could
	// not decode or execute.
	OnUnknown(t *Thread, err *models.FaultError)
}

type Thread struct {
	Hooks

	ID   uint32
	Type models.ThreadType
	Core Core

	m      *Manager
	log    atomic.Pointer[logrus.Entry]
	status atomic.Int32
	killed atomic.Bool

	mu      sync.Mutex
	cond    *sync.Cond
	name    string
	entry   uint32
	prio    int
	stack   uint32
	stackSz uint32
	dec     Decoder

	wake     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// per-instruction state, owned by the executing goroutine
	pc       uint32
	code     uint32
	branched bool
	target   uint32
	trap     error
}

func newThread(m *Manager, id uint32, typ models.ThreadType, core Core) *Thread {
	t := &Thread{
		ID:      id,
		Type:    typ,
		Core:    core,
		m:       m,
		name:    fmt.Sprintf("%s Thread %d", typ, id),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	t.Hooks.t = t
	t.cond = sync.NewCond(&t.mu)
	t.log.Store(m.log.WithFields(logrus.Fields{"thread": id, "type": typ}))
	return t
}

func (t *Thread) String() string {
	return fmt.Sprintf("<%s %d %q %s>", t.Type, t.ID, t.Name(), t.Status())
}

func (t *Thread) Status() models.Status {
	return models.Status(t.status.Load())
}

func (t *Thread) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

func (t *Thread) SetName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
	t.log.Store(t.Log().WithField("name", name))
}

func (t *Thread) Entry() uint32 { return t.entry }
func (t *Thread) SetEntry(addr uint32) {
	t.entry = addr
}

func (t *Thread) Prio() int { return t.prio }
func (t *Thread) SetPrio(prio int) {
	t.prio = prio
}

// StackAddr is 0 until InitStack has run.
func (t *Thread) StackAddr() uint32 { return t.stack }
func (t *Thread) StackSize() uint32 {
	if t.stackSz == 0 {
		return t.Core.DefaultStackSize()
	}
	return t.stackSz
}

// SetStackSize only has an effect before InitStack.
func (t *Thread) SetStackSize(size uint32) {
	t.stackSz = size
}

func (t *Thread) Space() *vm.Space       { return t.m.space }
func (t *Thread) Mem() vm.Accessor       { return t.m.space.Accessor(t.Core.Order()) }
func (t *Thread) Log() *logrus.Entry     { return t.log.Load() }
func (t *Thread) Config() *models.Config { return t.m.cfg }
func (t *Thread) Manager() *Manager      { return t.m }
func (t *Thread) Decoder() Decoder       { return t.dec }
func (t *Thread) StopAddr() uint32       { return t.m.cfg.StopAddr }

// InitStack allocates the thread's stack from the stack region. A second
// call is a no-op.
func (t *Thread) InitStack() error {
	if t.stack != 0 {
		return nil
	}
	size := t.StackSize()
	addr := t.m.space.Alloc(size, vm.Stack)
	if addr == vm.InvalidAddr {
		return errors.Errorf("%s: stack allocation of %#x bytes failed", t, size)
	}
	t.stack, t.stackSz = addr, size
	return nil
}

func (t *Thread) InitRegs() {
	t.Core.InitRegs(t.stack, t.StackSize())
}

// Prepare binds the decoder selected by the configured decoder mode.
func (t *Thread) Prepare() {
	if t.dec != nil {
		return
	}
	dec := t.Core.NewDecoder(t)
	switch t.m.cfg.DecoderMode {
	case models.Trace:
		dec = &traceDecoder{Decoder: dec, t: t}
	case models.Recompiler:
		t.Log().Warn("recompiler not available, using the interpreter")
	}
	t.dec = dec
}

// Run starts execution at the entry point on a new goroutine.
func (t *Thread) Run() error {
	if !t.status.CompareAndSwap(int32(models.Created), int32(models.Running)) {
		return errors.Errorf("%s: cannot run from state %s", t, t.Status())
	}
	t.Prepare()
	t.Core.SetPC(t.entry)
	t.m.group.Go(func() error {
		err := t.Exec(NewContext(t))
		if t.Status() == models.Stopped {
			t.Stop()
		}
		return err
	})
	return nil
}

func (t *Thread) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.CompareAndSwap(int32(models.Running), int32(models.Paused)) {
		t.Log().Debug("paused")
		return true
	}
	return false
}

func (t *Thread) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.CompareAndSwap(int32(models.Paused), int32(models.Running)) {
		t.cond.Broadcast()
		t.Log().Debug("resumed")
		return true
	}
	return false
}

// Stop is terminal. The thread leaves the manager immediately; an
// in-flight instruction finishes first.
func (t *Thread) Stop() {
	t.mu.Lock()
	t.killed.Store(true)
	t.status.Store(int32(models.Stopped))
	t.cond.Broadcast()
	t.mu.Unlock()
	t.stopOnce.Do(func() { close(t.stopped) })
	t.m.RemoveThread(t)
}

// Done is closed once the thread is stopped for good.
func (t *Thread) Done() <-chan struct{} { return t.stopped }

// Notify wakes the thread if it is blocked in WaitForAnySignal. Wakeups
// do not queue beyond one.
func (t *Thread) Notify() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// WaitForAnySignal blocks until Notify, until done is closed or until the
// thread is stopped.
func (t *Thread) WaitForAnySignal(done <-chan struct{}) {
	select {
	case <-t.wake:
	case <-done:
	case <-t.stopped:
	}
}

// Branch sets the address of the next instruction. Handlers that do not
// branch fall through to the following instruction.
func (t *Thread) Branch(addr uint32) {
	t.branched = true
	t.target = addr
}

// Trap aborts the current instruction and takes the unknown-instruction
// path with err.
func (t *Thread) Trap(err error) {
	if t.trap == nil {
		t.trap = err
	}
}

// Interrupt raises a software interrupt. Nothing in the kernel handles
// them; unhooked interrupts are logged and ignored.
func (t *Thread) Interrupt(intno uint32) {
	if !t.OnIntr(intno) {
		t.Log().WithFields(logrus.Fields{"pc": t.pc, "intno": intno}).Warn("unhandled interrupt")
	}
}

// waitRunnable blocks while paused and reports whether to keep running.
func (t *Thread) waitRunnable() bool {
	if t.Status() == models.Running {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.Status() == models.Paused {
		t.cond.Wait()
	}
	return t.Status() == models.Running
}

// Exec runs the fetch/decode/execute loop until the thread stops, either
// by Stop, by reaching the stop address or by a fatal fault.
func (t *Thread) Exec(ctx *Context) (err error) {
	prev := ctx.swap(t)
	defer ctx.swap(prev)
	stop := t.m.cfg.StopAddr &^ 1
	for t.waitRunnable() {
		if t.Core.PC()&^1 == stop {
			t.status.Store(int32(models.Stopped))
			break
		}
		if err := t.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction. It returns an error only for faults
// that stopped the thread.
func (t *Thread) Step() (err error) {
	if t.dec == nil {
		t.Prepare()
	}
	pc := t.Core.PC()
	t.pc, t.code = pc, 0
	t.branched, t.trap = false, nil
	code, size, ferr := t.dec.Fetch(pc)
	if ferr != nil {
		t.unknown(ferr)
		return nil
	}
	t.code = code
	if len(t.Hooks.code) > 0 {
		t.OnCode(pc, size)
	}
	defer func() {
		if r := recover(); r != nil {
			merr, ok := r.(*cpu.MemError)
			if !ok {
				panic(r)
			}
			err = t.fault(merr, size)
		}
	}()
	t.dec.Execute(code)
	if t.trap != nil {
		t.unknown(t.trap)
		return nil
	}
	if t.branched {
		t.Core.SetPC(t.target)
		if len(t.block) > 0 {
			t.OnBlock(t.target, 0)
		}
	} else if t.Core.PC() == pc {
		t.Core.SetPC(pc + size)
	}
	return nil
}

// unknown logs and pauses. The program counter stays at the instruction.
func (t *Thread) unknown(err error) {
	ferr := &models.FaultError{Thread: t.ID, Name: t.Name(), PC: t.pc, Code: t.code, Err: err}
	t.Log().WithFields(logrus.Fields{"pc": t.pc, "code": t.code}).WithError(err).Error("unknown instruction")
	t.Pause()
	if t.m.sup != nil {
		t.m.sup.OnUnknown(t, ferr)
	}
}

func (t *Thread) fault(merr *cpu.MemError, size uint32) error {
	if t.OnFault(merr.Enum, merr.Addr, merr.Size) {
		t.Core.SetPC(t.pc + size)
		return nil
	}
	ferr := &models.FaultError{Thread: t.ID, Name: t.Name(), PC: t.pc, Code: t.code, Err: merr}
	t.Log().WithFields(logrus.Fields{"pc": t.pc, "code": t.code, "addr": merr.Addr}).WithError(merr).Error("memory fault")
	t.Stop()
	if t.m.sup != nil {
		t.m.sup.OnFault(t, ferr)
	}
	return ferr
}

type callGuard struct {
	t      *Thread
	ctx    *Context
	status models.Status
	pc     uint32
	sp     uint32
	lr     uint32
	cur    *Thread

	// state of the instruction that made the call, if any
	insPC, insCode uint32
	branched       bool
	target         uint32
	trap           error
}

func (g *callGuard) restore() {
	t := g.t
	t.pc, t.code = g.insPC, g.insCode
	t.branched, t.target, t.trap = g.branched, g.target, g.trap
	t.Core.SetPC(g.pc)
	t.Core.SetSP(g.sp)
	t.Core.SetLR(g.lr)
	g.ctx.current = g.cur
	if !t.killed.Load() {
		t.mu.Lock()
		t.status.Store(int32(g.status))
		t.cond.Broadcast()
		t.mu.Unlock()
	}
}

// FastCall runs the guest routine at addr on the calling goroutine until it
// returns to the stop address. Run-state, PC, SP, LR and the current thread
// of ctx are restored on every exit, including panics.
func (t *Thread) FastCall(ctx *Context, addr uint32) error {
	if t.killed.Load() {
		return errors.Wrapf(models.ErrStopped, "%s: fast call", t)
	}
	g := &callGuard{
		t:      t,
		ctx:    ctx,
		status: t.Status(),
		pc:     t.Core.PC(),
		sp:     t.Core.SP(),
		lr:     t.Core.LR(),
		cur:    ctx.Current(),

		insPC:    t.pc,
		insCode:  t.code,
		branched: t.branched,
		target:   t.target,
		trap:     t.trap,
	}
	defer g.restore()
	ctx.current = t
	t.Core.SetLR(t.m.cfg.StopAddr)
	t.Core.SetPC(addr)
	t.status.Store(int32(models.Running))
	return t.Exec(ctx)
}

// RegsToString dumps every register, one per line.
func (t *Thread) RegsToString() string {
	names := models.SortRegs(t.Core.RegNames())
	var b strings.Builder
	for _, name := range names {
		val, err := t.Core.ReadRegString(name)
		if err != nil {
			val = err.Error()
		}
		fmt.Fprintf(&b, "%s = %s\n", name, val)
	}
	return b.String()
}
