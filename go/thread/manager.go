package thread

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/lunixbochs/cellcorn/go/models"
	"github.com/lunixbochs/cellcorn/go/vm"
)

var (
	factoryMu sync.RWMutex
	factories = make(map[models.ThreadType]Factory)
)

// Register makes an architecture available to AddThread. Architecture
// packages call it from init.
func Register(typ models.ThreadType, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, ok := factories[typ]; ok {
		panic("duplicate architecture " + typ.String())
	}
	factories[typ] = f
}

func lookup(typ models.ThreadType) Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	return factories[typ]
}

// Manager owns every live thread. Each running thread executes on its own
// goroutine in the manager's group.
type Manager struct {
	cfg   *models.Config
	space *vm.Space
	log   *logrus.Entry
	sup   Supervisor

	mu      sync.Mutex
	threads map[uint32]*Thread
	nextID  uint32
	group   errgroup.Group
}

func NewManager(cfg *models.Config, space *vm.Space, log *logrus.Entry, sup Supervisor) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		cfg:     cfg,
		space:   space,
		log:     log.WithField("component", "thread"),
		sup:     sup,
		threads: make(map[uint32]*Thread),
		nextID:  1,
	}
}

func (m *Manager) Config() *models.Config { return m.cfg }
func (m *Manager) Space() *vm.Space       { return m.space }

// AddThread creates a thread of the given architecture in the Created
// state.
func (m *Manager) AddThread(typ models.ThreadType) (*Thread, error) {
	f := lookup(typ)
	if f == nil {
		return nil, errors.Errorf("no architecture registered for %s", typ)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	t := newThread(m, id, typ, f(m.space))
	m.threads[id] = t
	t.Log().Debug("thread created")
	return t, nil
}

// GetThread returns a live thread, or nil.
func (m *Manager) GetThread(id uint32) *Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threads[id]
}

// Threads lists live threads ordered by id.
func (m *Manager) Threads() []*Thread {
	m.mu.Lock()
	ids := maps.Keys(m.threads)
	slices.Sort(ids)
	ret := make([]*Thread, len(ids))
	for i, id := range ids {
		ret[i] = m.threads[id]
	}
	m.mu.Unlock()
	return ret
}

func (m *Manager) RemoveThread(t *Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.threads[t.ID] == t {
		delete(m.threads, t.ID)
		t.Log().Debug("thread removed")
	}
}

func (m *Manager) StopAll() {
	for _, t := range m.Threads() {
		t.Stop()
	}
}

// Wait blocks until every running thread has exited and returns the first
// fault, if any.
func (m *Manager) Wait() error {
	return m.group.Wait()
}
