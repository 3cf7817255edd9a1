package vm

import (
	"sync/atomic"
)

// GranuleShift sets the resolution of the mapped-page bitmap the typed
// accessors check. A granule counts as mapped when any byte of it is.
const (
	GranuleShift = 12
	GranuleSize  = 1 << GranuleShift
)

type granules []atomic.Uint64

func newGranules(memSize uint64) granules {
	n := (memSize + GranuleSize - 1) >> GranuleShift
	return make(granules, (n+63)/64)
}

func (g granules) test(i uint64) bool {
	return g[i/64].Load()&(1<<(i%64)) != 0
}

func (g granules) set(i uint64, on bool) {
	w, bit := &g[i/64], uint64(1)<<(i%64)
	for {
		old := w.Load()
		v := old &^ bit
		if on {
			v |= bit
		}
		if v == old || w.CompareAndSwap(old, v) {
			return
		}
	}
}

// span returns the first and last granule touched by [addr, addr+size).
func span(addr uint32, size uint64) (uint64, uint64) {
	return uint64(addr) >> GranuleShift, (uint64(addr) + size - 1) >> GranuleShift
}

// markMapped sets every granule of a fresh mapping. Caller holds s.mu.
func (s *Space) markMapped(addr, size uint32) {
	lo, hi := span(addr, uint64(size))
	for i := lo; i <= hi; i++ {
		s.mapped.set(i, true)
	}
}

// markUnmapped clears granules of a released range. Edge granules stay set
// while a neighbouring mapping still covers part of them. Caller holds s.mu.
func (s *Space) markUnmapped(addr, size uint32) {
	lo, hi := span(addr, uint64(size))
	for i := lo; i <= hi; i++ {
		keep := false
		if i == lo || i == hi {
			keep = s.sim.Overlaps(uint32(i<<GranuleShift), GranuleSize)
		}
		s.mapped.set(i, keep)
	}
}

// isMapped reports whether every granule of [addr, addr+n) is mapped. The
// range must already be within the backing buffer.
func (s *Space) isMapped(addr uint32, n int) bool {
	lo, hi := span(addr, uint64(n))
	return s.mapped.test(lo) && (hi == lo || s.mapped.test(hi))
}
