// Package emu ties the address space, the thread manager and the callback
// manager into one emulator instance with a global run state.
package emu

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	// architectures register themselves with the thread manager
	_ "github.com/lunixbochs/cellcorn/go/arch/arm"
	_ "github.com/lunixbochs/cellcorn/go/arch/ppu"
	_ "github.com/lunixbochs/cellcorn/go/arch/spu"

	"github.com/lunixbochs/cellcorn/go/callback"
	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
	"github.com/lunixbochs/cellcorn/go/vm"
)

type Emulator struct {
	cfg       *models.Config
	log       *logrus.Entry
	space     *vm.Space
	threads   *thread.Manager
	callbacks *callback.Manager

	mu       sync.Mutex
	status   atomic.Int32
	bus      *vm.MMIOBus
	fault    *models.FaultError
	stop     chan struct{}
	stopOnce sync.Once
}

// New builds an emulator for layout. The address space is cfg.MemorySize
// bytes.
func New(cfg *models.Config, layout vm.Layout) (*Emulator, error) {
	if cfg == nil {
		cfg = models.DefaultConfig()
	}
	log := logrus.NewEntry(cfg.Logger())
	space, err := vm.New(cfg.MemorySize, layout, log)
	if err != nil {
		return nil, err
	}
	e := &Emulator{
		cfg:   cfg,
		log:   log.WithField("component", "emu"),
		space: space,
		stop:  make(chan struct{}),
	}
	e.threads = thread.NewManager(cfg, space, log, e)
	e.callbacks = callback.New(e.threads, e.stop, log)
	return e, nil
}

// Init starts the callback thread. It must run before guest code can
// register callbacks.
func (e *Emulator) Init() error {
	return errors.Wrap(e.callbacks.Init(), "emu init")
}

func (e *Emulator) Config() *models.Config         { return e.cfg }
func (e *Emulator) Log() *logrus.Entry             { return e.log }
func (e *Emulator) Space() *vm.Space               { return e.space }
func (e *Emulator) Threads() *thread.Manager       { return e.threads }
func (e *Emulator) Callbacks() *callback.Manager   { return e.callbacks }
func (e *Emulator) Status() models.Status          { return models.Status(e.status.Load()) }
func (e *Emulator) IsStopped() bool                { return e.Status() == models.Stopped }
func (e *Emulator) Done() <-chan struct{}          { return e.stop }
func (e *Emulator) CallbackThread() *thread.Thread { return e.callbacks.Thread() }

// AttachDevice maps a device into the raw coprocessor range. Devices must
// be attached before any thread runs.
func (e *Emulator) AttachDevice(start, length uint32, dev vm.Device) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bus == nil {
		e.bus = &vm.MMIOBus{}
		e.space.AttachMMIO(e.bus)
	}
	return e.bus.Attach(start, length, dev)
}

// Load copies a raw image into newly allocated memory of loc.
func (e *Emulator) Load(data []byte, loc vm.Location) (uint32, error) {
	addr := e.space.Alloc(uint32(len(data)), loc)
	if addr == vm.InvalidAddr {
		return 0, errors.Errorf("no room for %#x bytes in %s", len(data), loc)
	}
	if err := e.space.Write(addr, data); err != nil {
		return 0, err
	}
	return addr, nil
}

// NewThread creates a thread with its stack and registers ready to run at
// entry. The thread returns to the stop address.
func (e *Emulator) NewThread(typ models.ThreadType, name string, entry uint32) (*thread.Thread, error) {
	th, err := e.threads.AddThread(typ)
	if err != nil {
		return nil, err
	}
	if name != "" {
		th.SetName(name)
	}
	th.SetEntry(entry)
	if err := th.InitStack(); err != nil {
		e.threads.RemoveThread(th)
		return nil, err
	}
	th.InitRegs()
	th.Core.SetLR(e.cfg.StopAddr)
	th.Prepare()
	return th, nil
}

// Run starts every created thread except the callback thread, which only
// executes work handed to it.
func (e *Emulator) Run() error {
	if !e.status.CompareAndSwap(int32(models.Created), int32(models.Running)) {
		return errors.Errorf("emulator cannot run from state %s", e.Status())
	}
	cb := e.callbacks.Thread()
	for _, th := range e.threads.Threads() {
		if th == cb || th.Status() != models.Created {
			continue
		}
		if err := th.Run(); err != nil {
			return err
		}
	}
	e.log.Info("emulation started")
	return nil
}

func (e *Emulator) Pause() bool {
	if !e.status.CompareAndSwap(int32(models.Running), int32(models.Paused)) {
		return false
	}
	for _, th := range e.threads.Threads() {
		th.Pause()
	}
	e.log.Info("emulation paused")
	return true
}

// Resume continues every paused thread, including threads paused on an
// unknown instruction.
func (e *Emulator) Resume() bool {
	if !e.status.CompareAndSwap(int32(models.Paused), int32(models.Running)) {
		return false
	}
	for _, th := range e.threads.Threads() {
		th.Resume()
	}
	e.log.Info("emulation resumed")
	return true
}

// Stop ends the emulation for good: threads stop, pending callbacks are
// discarded and idle waiters wake up. It does not join the callback loop,
// so async jobs may call it; Close does the join.
func (e *Emulator) Stop() {
	e.stopOnce.Do(func() {
		e.status.Store(int32(models.Stopped))
		e.threads.StopAll()
		e.callbacks.Clear()
		close(e.stop)
		e.log.Info("emulation stopped")
	})
}

// Wait blocks until every running thread has exited. It returns the first
// fault.
func (e *Emulator) Wait() error {
	return e.threads.Wait()
}

// Fault returns the last fatal fault, or nil.
func (e *Emulator) Fault() *models.FaultError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fault
}

func faultFields(err *models.FaultError) logrus.Fields {
	return logrus.Fields{
		"thread": err.Thread,
		"name":   err.Name,
		"pc":     err.PC,
		"code":   err.Code,
	}
}

// OnFault records the fault and pauses the whole emulation.
func (e *Emulator) OnFault(t *thread.Thread, err *models.FaultError) {
	e.mu.Lock()
	e.fault = err
	e.mu.Unlock()
	e.log.WithFields(faultFields(err)).WithError(err.Err).Error("fatal fault")
	e.Pause()
}

// OnUnknown leaves the thread paused for inspection.
func (e *Emulator) OnUnknown(t *thread.Thread, err *models.FaultError) {
	e.log.WithFields(faultFields(err)).WithField("disasm", t.Decoder().Disasm(err.Code)).
		WithError(err.Err).Error("thread paused on unknown instruction")
}

// Close stops the emulation and releases guest memory.
func (e *Emulator) Close() error {
	e.Stop()
	e.callbacks.Wait()
	e.Wait()
	return e.space.Close()
}
