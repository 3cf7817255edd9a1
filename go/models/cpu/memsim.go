package cpu

import (
	"fmt"
	"sort"
)

type MemError struct {
	Addr uint32
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	case MEM_OUT_OF_BOUNDS:
		reason = "out of bounds access"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim tracks which ranges of the address space are mapped and with
// which protections. It does not own any bytes.
type MemSim struct {
	Mem Pages
}

// Checks whether the address range exists in the currently-mapped memory.
// If prot > 0, ensures that each region has the entire protection mask provided.
func (m *MemSim) RangeValid(addr, size uint32, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	pos := uint64(addr)
	end := uint64(addr) + uint64(size)
	for _, mm := range m.Mem[first:] {
		if pos >= end {
			break
		}
		if uint64(mm.Addr) <= pos && pos < mm.End() {
			if prot > 0 && (mm.Prot == 0 || mm.Prot&prot != prot) {
				protGood = false
			}
			pos = mm.End()
		} else {
			break
		}
	}
	return pos >= end, protGood
}

// Overlaps reports whether any byte of the range is mapped.
func (m *MemSim) Overlaps(addr, size uint32) bool {
	for _, mm := range m.Mem {
		if mm.Overlaps(addr, size) {
			return true
		}
	}
	return false
}

// Maps <addr> - <addr>+<size> and protects with prot.
// Any overlapping regions will be unmapped, then the mapping list will be
// sorted by address to allow binary search and simpler bound checks.
func (m *MemSim) Map(addr, size uint32, prot int, desc string) *Page {
	if m.Overlaps(addr, size) {
		m.Unmap(addr, size)
	}
	page := &Page{Addr: addr, Size: size, Prot: prot, Desc: desc}
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
	return page
}

// this is *exactly* unmap, but the "middle" pages of each split are re-protected
func (m *MemSim) Prot(addr, size uint32, prot int) {
	tmp := make([]*Page, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if oaddr, osize, ok := mm.Intersect(addr, size); ok {
			left, right := mm.Split(oaddr, osize)
			if left != nil {
				tmp = append(tmp, left)
			}
			tmp = append(tmp, mm)
			mm.Prot = prot
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

func (m *MemSim) Unmap(addr, size uint32) {
	// truncate entries overlapping addr, size
	tmp := make([]*Page, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if oaddr, osize, ok := mm.Intersect(addr, size); ok {
			left, right := mm.Split(oaddr, osize)
			if left != nil {
				tmp = append(tmp, left)
			}
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

// Check returns a MemError describing why [addr, addr+size) cannot be
// accessed with prot, or nil.
func (m *MemSim) Check(addr, size uint32, prot int) error {
	gmap, gprot := m.RangeValid(addr, size, prot)
	switch {
	case !gmap && prot&PROT_EXEC != 0:
		return &MemError{Addr: addr, Size: int(size), Enum: MEM_FETCH_UNMAPPED}
	case !gmap && prot&PROT_WRITE != 0:
		return &MemError{Addr: addr, Size: int(size), Enum: MEM_WRITE_UNMAPPED}
	case !gmap:
		return &MemError{Addr: addr, Size: int(size), Enum: MEM_READ_UNMAPPED}
	case !gprot && prot&PROT_EXEC != 0:
		return &MemError{Addr: addr, Size: int(size), Enum: MEM_FETCH_PROT}
	case !gprot && prot&PROT_WRITE != 0:
		return &MemError{Addr: addr, Size: int(size), Enum: MEM_WRITE_PROT}
	case !gprot:
		return &MemError{Addr: addr, Size: int(size), Enum: MEM_READ_PROT}
	}
	return nil
}
