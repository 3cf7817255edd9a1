package vm

import (
	"sort"
)

type block struct {
	addr, size uint32
}

func (b block) end() uint64 { return uint64(b.addr) + uint64(b.size) }

// Region is one named, bounded allocation area of a Space. General regions
// use first-fit over a coalesced free list; the stack region is bump-only.
// All methods are called with the owning Space's lock held.
type Region struct {
	Loc  Location
	Base uint32
	Size uint32
	Prot int

	align  uint32
	free   []block
	used   map[uint32]uint32
	cursor uint32
	stack  *PageStack
}

func newRegion(loc Location, spec RegionSpec, align uint32) *Region {
	if align == 0 {
		align = 0x10
	}
	return &Region{
		Loc:   loc,
		Base:  spec.Base,
		Size:  spec.Size,
		Prot:  spec.Prot,
		align: align,
		free:  []block{{spec.Base, spec.Size}},
		used:  make(map[uint32]uint32),
	}
}

func newStackRegion(spec RegionSpec, page uint32) *Region {
	r := &Region{Loc: Stack, Base: spec.Base, Size: spec.Size, Prot: spec.Prot, align: page}
	r.stack = &PageStack{}
	r.stack.Init(spec.Base, spec.Size, page, 0x10)
	return r
}

func (r *Region) Contains(addr uint32) bool {
	return addr >= r.Base && uint64(addr) < uint64(r.Base)+uint64(r.Size)
}

// Cursor is the high-water mark of allocations, relative to Base.
func (r *Region) Cursor() uint32 {
	if r.stack != nil {
		return r.stack.Position()
	}
	return r.cursor
}

// Used returns the number of bytes currently allocated.
func (r *Region) Used() uint32 {
	if r.stack != nil {
		return r.stack.Position()
	}
	var n uint32
	for _, size := range r.used {
		n += size
	}
	return n
}

func (r *Region) advance(addr, size uint32) {
	if off := addr - r.Base + size; off > r.cursor {
		r.cursor = off
	}
}

func (r *Region) alloc(size uint32) uint32 {
	if size == 0 {
		return InvalidAddr
	}
	if r.stack != nil {
		pages := (uint64(size) + uint64(r.stack.PageSize()) - 1) / uint64(r.stack.PageSize())
		addr, err := r.stack.AllocPages(uint32(pages))
		if err != nil {
			return InvalidAddr
		}
		return addr
	}
	need := uint64(alignUp(size, r.align))
	if need == 0 || need > uint64(r.Size) {
		return InvalidAddr
	}
	for i, b := range r.free {
		start := uint64(alignUp(b.addr, r.align))
		if start < uint64(b.addr) || start+need > b.end() {
			continue
		}
		r.carve(i, uint32(start), uint32(need))
		return uint32(start)
	}
	return InvalidAddr
}

func (r *Region) allocAt(addr, size uint32) uint32 {
	if r.stack != nil || size == 0 || addr == InvalidAddr {
		return InvalidAddr
	}
	need := uint64(alignUp(size, r.align))
	if need == 0 || need > uint64(r.Size) {
		return InvalidAddr
	}
	end := uint64(addr) + need
	if !r.Contains(addr) || end > uint64(r.Base)+uint64(r.Size) {
		return InvalidAddr
	}
	for i, b := range r.free {
		if uint64(b.addr) <= uint64(addr) && end <= b.end() {
			r.carve(i, addr, uint32(need))
			return addr
		}
	}
	return InvalidAddr
}

// carve removes [addr, addr+size) from free block i.
func (r *Region) carve(i int, addr, size uint32) {
	b := r.free[i]
	var repl []block
	if addr > b.addr {
		repl = append(repl, block{b.addr, addr - b.addr})
	}
	if end := uint64(addr) + uint64(size); end < b.end() {
		repl = append(repl, block{uint32(end), uint32(b.end() - end)})
	}
	tail := append(repl, r.free[i+1:]...)
	r.free = append(r.free[:i], tail...)
	r.used[addr] = size
	r.advance(addr, size)
}

func (r *Region) dealloc(addr uint32) bool {
	if r.stack != nil {
		// bump-only
		return false
	}
	size, ok := r.used[addr]
	if !ok {
		return false
	}
	delete(r.used, addr)
	r.free = append(r.free, block{addr, size})
	sort.Slice(r.free, func(i, j int) bool { return r.free[i].addr < r.free[j].addr })
	// coalesce neighbours
	merged := r.free[:1]
	for _, b := range r.free[1:] {
		last := &merged[len(merged)-1]
		if last.end() == uint64(b.addr) {
			last.size += b.size
		} else {
			merged = append(merged, b)
		}
	}
	r.free = merged
	return true
}
