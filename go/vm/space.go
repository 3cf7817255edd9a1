// Package vm implements the emulated physical address space: one flat
// backing buffer shared by every emulated thread, mapping bookkeeping,
// per-region allocators and the typed accessors architectures use to
// touch guest memory.
package vm

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// MaxSize covers the full 32-bit emulated range.
const MaxSize = 1 << 32

// Space owns the backing buffer. It is constructed once with New and torn
// down once with Close; every component that needs guest memory is handed
// the *Space explicitly.
//
// The buffer itself is not locked. Concurrent guest accesses race exactly
// like the emulated hardware threads would.
type Space struct {
	mem    []byte
	layout Layout
	log    *logrus.Entry

	mu      sync.RWMutex
	sim     cpu.MemSim
	regions [LocationCount]*Region
	gen     atomic.Uint64
	closed  bool

	mmio   MMIO
	mapped granules
}

// New allocates a size-byte backing buffer and maps every region of layout.
func New(size uint64, layout Layout, log *logrus.Entry) (*Space, error) {
	if size == 0 || size > MaxSize {
		return nil, errors.Errorf("invalid address space size %#x", size)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Space{
		mem:    make([]byte, size),
		mapped: newGranules(size),
		layout: layout,
		log:    log.WithField("component", "vm"),
	}
	for loc := Location(0); loc < LocationCount; loc++ {
		spec := layout.Regions[loc]
		if spec.Size == 0 {
			continue
		}
		if !s.Map(spec.Base, spec.Size, spec.Prot) {
			return nil, errors.Errorf("%s region %#x+%#x overlaps another region or leaves memory", loc, spec.Base, spec.Size)
		}
		s.sim.Mem.Find(spec.Base).Desc = loc.String()
		if loc == Stack {
			page := layout.StackPage
			if page == 0 {
				page = DefaultStackPage
			}
			s.regions[loc] = newStackRegion(spec, page)
		} else {
			s.regions[loc] = newRegion(loc, spec, layout.Align)
		}
	}
	s.log.WithFields(logrus.Fields{"layout": layout.Name, "size": size}).Debug("address space initialized")
	return s, nil
}

// Close releases the backing buffer. Accesses after Close are out of bounds.
func (s *Space) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("address space already closed")
	}
	s.closed = true
	s.mem = nil
	s.sim.Mem = nil
	s.gen.Add(1)
	return nil
}

func (s *Space) Layout() Layout { return s.layout }
func (s *Space) Size() uint64   { return uint64(len(s.mem)) }

// Bytes exposes the raw backing buffer, for collaborators that need direct
// read access (command buffers) and for tests.
func (s *Space) Bytes() []byte { return s.mem }

// Region returns the allocator for loc, or nil if the layout has none.
func (s *Space) Region(loc Location) *Region {
	if loc < 0 || loc >= LocationCount {
		return nil
	}
	return s.regions[loc]
}

func (s *Space) inBounds(addr, size uint32) bool {
	return uint64(addr)+uint64(size) <= uint64(len(s.mem))
}

// Map reserves [addr, addr+size) as backed memory. It fails if any part of
// the range is already mapped or falls outside the buffer.
func (s *Space) Map(addr, size uint32, prot int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || size == 0 || !s.inBounds(addr, size) || s.sim.Overlaps(addr, size) {
		return false
	}
	s.sim.Map(addr, size, prot, "")
	s.markMapped(addr, size)
	s.gen.Add(1)
	return true
}

// Unmap releases a mapped range. With size 0 the whole mapping starting at
// addr is released. Unmapping memory that is not mapped fails.
func (s *Space) Unmap(addr, size uint32, flags int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size == 0 {
		page := s.sim.Mem.Find(addr)
		if page == nil || page.Addr != addr {
			return false
		}
		size = page.Size
	}
	if mapped, _ := s.sim.RangeValid(addr, size, 0); !mapped {
		return false
	}
	s.sim.Unmap(addr, size)
	s.markUnmapped(addr, size)
	s.gen.Add(1)
	return true
}

// Prot changes the protection of a fully mapped range.
func (s *Space) Prot(addr, size uint32, prot int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mapped, _ := s.sim.RangeValid(addr, size, 0); !mapped {
		return false
	}
	s.sim.Prot(addr, size, prot)
	s.gen.Add(1)
	return true
}

// Mappings returns a copy of the current mapping list.
func (s *Space) Mappings() cpu.Pages {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make(cpu.Pages, len(s.sim.Mem))
	for i, p := range s.sim.Mem {
		cp := *p
		ret[i] = &cp
	}
	return ret
}

// IsMapped reports whether the whole range is mapped with at least prot.
func (s *Space) IsMapped(addr, size uint32, prot int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sim.Check(addr, size, prot) == nil
}

// Read copies guest memory into p after checking mapping and PROT_READ.
func (s *Space) Read(addr uint32, p []byte) error {
	if err := s.check(addr, len(p), cpu.PROT_READ); err != nil {
		return err
	}
	copy(p, s.mem[addr:])
	return nil
}

// Write copies p into guest memory after checking mapping and PROT_WRITE.
func (s *Space) Write(addr uint32, p []byte) error {
	if err := s.check(addr, len(p), cpu.PROT_WRITE); err != nil {
		return err
	}
	copy(s.mem[addr:], p)
	return nil
}

func (s *Space) check(addr uint32, n int, prot int) error {
	if uint64(addr)+uint64(n) > uint64(len(s.mem)) {
		return &cpu.MemError{Addr: addr, Size: n, Enum: cpu.MEM_OUT_OF_BOUNDS}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sim.Check(addr, uint32(n), prot)
}

// ExecCache remembers the last executable page seen by one decoder so
// sequential fetches skip the mapping lookup. The zero value is ready.
type ExecCache struct {
	gen    uint64
	lo, hi uint64
}

// Fetch copies instruction bytes into p. The range must be mapped with
// PROT_EXEC unless strict is false, in which case only bounds are checked.
func (s *Space) Fetch(c *ExecCache, addr uint32, p []byte, strict bool) error {
	n := uint64(len(p))
	if uint64(addr)+n > uint64(len(s.mem)) {
		return &cpu.MemError{Addr: addr, Size: len(p), Enum: cpu.MEM_FETCH_UNMAPPED}
	}
	if strict {
		gen := s.gen.Load()
		if c == nil || c.gen != gen || uint64(addr) < c.lo || uint64(addr)+n > c.hi {
			s.mu.RLock()
			err := s.sim.Check(addr, uint32(n), cpu.PROT_EXEC)
			page := s.sim.Mem.Find(addr)
			s.mu.RUnlock()
			if err != nil {
				return err
			}
			if c != nil && page != nil {
				c.gen, c.lo, c.hi = gen, uint64(page.Addr), page.End()
			}
		}
	}
	copy(p, s.mem[addr:])
	return nil
}

// Alloc reserves size bytes in loc, first-fit. It returns InvalidAddr when
// the region is exhausted.
func (s *Space) Alloc(size uint32, loc Location) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.Region(loc)
	if r == nil || s.closed {
		return InvalidAddr
	}
	addr := r.alloc(size)
	if addr == InvalidAddr {
		s.log.WithFields(logrus.Fields{"location": loc, "size": size}).Debug("allocation failed")
	}
	return addr
}

// AllocAt reserves [addr, addr+size) in loc if that range is free.
func (s *Space) AllocAt(addr, size uint32, loc Location) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.Region(loc)
	if r == nil || s.closed {
		return InvalidAddr
	}
	return r.allocAt(addr, size)
}

// Dealloc returns an allocation to loc's free pool. Bump-only regions
// ignore it.
func (s *Space) Dealloc(addr uint32, loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.Region(loc)
	if r == nil {
		return
	}
	if !r.dealloc(addr) && r.stack == nil {
		s.log.WithFields(logrus.Fields{"location": loc, "addr": addr}).Warn("dealloc of unknown address")
	}
}

// Locate returns the region containing addr.
func (s *Space) Locate(addr uint32) (Location, bool) {
	for loc, r := range s.regions {
		if r != nil && r.Contains(addr) {
			return Location(loc), true
		}
	}
	return 0, false
}
