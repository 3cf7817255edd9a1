// Package callback defers host-side work onto a dedicated emulated thread.
// Synchronous callbacks are polled by the guest with Check; asynchronous
// jobs are pushed and run by the callback thread's own loop.
package callback

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/thread"
)

const (
	ThreadName  = "Callback Thread"
	ThreadPrio  = 1001
	ThreadStack = 0x10000
)

// Func is a synchronous callback; its result is returned to the poller.
type Func func(ctx *thread.Context) int32

// Job is an asynchronous callback run on the callback thread.
type Job func(ctx *thread.Context)

type Manager struct {
	threads *thread.Manager
	log     *logrus.Entry
	done    <-chan struct{}

	cbMu sync.Mutex
	cbs  []Func

	asyncMu sync.Mutex
	async   []Job

	th   *thread.Thread
	loop sync.WaitGroup
}

// New creates an idle manager. done is closed when the emulator stops and
// ends the callback loop.
func New(threads *thread.Manager, done <-chan struct{}, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		threads: threads,
		done:    done,
		log:     log.WithField("component", "callback"),
	}
}

// Init creates the callback thread, ARMv7 on little-endian layouts and PPU
// otherwise, and starts its loop.
func (m *Manager) Init() error {
	typ := models.PPU
	if !m.threads.Space().Layout().BigEndian {
		typ = models.ARMv7
	}
	th, err := m.threads.AddThread(typ)
	if err != nil {
		return errors.Wrap(err, "callback thread")
	}
	th.SetName(ThreadName)
	th.SetEntry(0)
	th.SetPrio(ThreadPrio)
	th.SetStackSize(ThreadStack)
	if err := th.InitStack(); err != nil {
		m.threads.RemoveThread(th)
		return err
	}
	th.InitRegs()
	th.Prepare()

	m.asyncMu.Lock()
	m.th = th
	pending := len(m.async)
	m.asyncMu.Unlock()

	m.loop.Add(1)
	go m.run(th)
	if pending > 0 {
		th.Notify()
	}
	m.log.WithField("type", typ).Debug("callback thread started")
	return nil
}

// Thread returns the callback thread, nil before Init.
func (m *Manager) Thread() *thread.Thread {
	m.asyncMu.Lock()
	defer m.asyncMu.Unlock()
	return m.th
}

func (m *Manager) stopped(th *thread.Thread) bool {
	select {
	case <-m.done:
		return true
	case <-th.Done():
		return true
	default:
		return false
	}
}

func (m *Manager) run(th *thread.Thread) {
	defer m.loop.Done()
	ctx := thread.NewContext(th)
	for !m.stopped(th) {
		if job := m.popAsync(); job != nil {
			job(ctx)
			continue
		}
		th.WaitForAnySignal(m.done)
	}
	m.log.Debug("callback loop exited")
}

func (m *Manager) popAsync() Job {
	m.asyncMu.Lock()
	defer m.asyncMu.Unlock()
	if len(m.async) == 0 {
		return nil
	}
	job := m.async[0]
	m.async[0] = nil
	m.async = m.async[1:]
	return job
}

// Register queues a synchronous callback. The callback thread is not woken;
// the guest collects results through Check.
func (m *Manager) Register(fn Func) {
	m.cbMu.Lock()
	m.cbs = append(m.cbs, fn)
	m.cbMu.Unlock()
}

// Async queues a job and wakes the callback thread.
func (m *Manager) Async(job Job) {
	m.asyncMu.Lock()
	m.async = append(m.async, job)
	th := m.th
	m.asyncMu.Unlock()
	if th != nil {
		th.Notify()
	}
}

// Check runs the oldest synchronous callback, if any, on the caller's
// goroutine and returns its result.
func (m *Manager) Check(ctx *thread.Context) (bool, int32) {
	m.cbMu.Lock()
	if len(m.cbs) == 0 {
		m.cbMu.Unlock()
		return false, 0
	}
	fn := m.cbs[0]
	m.cbs[0] = nil
	m.cbs = m.cbs[1:]
	m.cbMu.Unlock()
	return true, fn(ctx)
}

// Clear discards every queued callback and job without running them.
func (m *Manager) Clear() {
	m.cbMu.Lock()
	n := len(m.cbs)
	m.cbs = nil
	m.cbMu.Unlock()

	m.asyncMu.Lock()
	n += len(m.async)
	m.async = nil
	m.asyncMu.Unlock()
	if n > 0 {
		m.log.WithField("count", n).Debug("discarded pending callbacks")
	}
}

// Pending returns the queue lengths.
func (m *Manager) Pending() (calls, jobs int) {
	m.cbMu.Lock()
	calls = len(m.cbs)
	m.cbMu.Unlock()
	m.asyncMu.Lock()
	jobs = len(m.async)
	m.asyncMu.Unlock()
	return calls, jobs
}

// Wait blocks until the callback loop has exited.
func (m *Manager) Wait() {
	m.loop.Wait()
}
