package cpu

import (
	"fmt"
	"strings"
)

// Page describes one mapped range of the emulated address space.
// The bytes themselves live in the address space's backing buffer.
type Page struct {
	Addr uint32
	Size uint32
	Prot int

	Desc string
}

func (p *Page) String() string {
	// add prot
	prots := []int{PROT_READ, PROT_WRITE, PROT_EXEC}
	chars := []string{"r", "w", "x"}
	prot := ""
	for i := range prots {
		if p.Prot&prots[i] != 0 {
			prot += chars[i]
		} else {
			prot += "-"
		}
	}
	desc := fmt.Sprintf("0x%08x-0x%08x %s", p.Addr, p.End(), prot)
	if p.Desc != "" {
		desc += fmt.Sprintf(" [%s]", p.Desc)
	}
	return desc
}

// End is computed in 64 bits so a page ending at 4GiB does not wrap.
func (p *Page) End() uint64 {
	return uint64(p.Addr) + uint64(p.Size)
}

func (p *Page) Contains(addr uint32) bool {
	return addr >= p.Addr && uint64(addr) < p.End()
}

// start = max(s1, s2), end = min(e1, e2), ok = end > start
func (p *Page) Intersect(addr, size uint32) (uint32, uint32, bool) {
	start := uint64(p.Addr)
	end := p.End()
	e2 := uint64(addr) + uint64(size)
	if end > e2 {
		end = e2
	}
	if start < uint64(addr) {
		start = uint64(addr)
	}
	if end <= start {
		return 0, 0, false
	}
	return uint32(start), uint32(end - start), true
}

func (p *Page) Overlaps(addr, size uint32) bool {
	_, _, ok := p.Intersect(addr, size)
	return ok
}

/*
// how to split a page //
laddr                      rsize
|      lsize       raddr   |
[------|----page---|-------]
[-left-][---mid---][-right-]
|       |         |        |
|       addr      size     |
paddr                      psize

the caller guarantees [addr, addr+size) lies inside the page
*/
func (p *Page) Split(addr, size uint32) (left, right *Page) {
	end := uint64(addr) + uint64(size)
	if end < p.End() {
		right = &Page{Addr: uint32(end), Size: uint32(p.End() - end), Prot: p.Prot, Desc: p.Desc}
	}
	if addr > p.Addr {
		left = &Page{Addr: p.Addr, Size: addr - p.Addr, Prot: p.Prot, Desc: p.Desc}
	}
	p.Addr, p.Size = addr, size
	return left, right
}

type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// binary search to find index of first region containing addr, if any, else -1
func (p Pages) bsearch(addr uint32) int {
	l := 0
	r := len(p) - 1
	for l <= r {
		mid := (l + r) / 2
		e := p[mid]
		if addr >= e.Addr {
			if uint64(addr) < e.End() {
				return mid
			}
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	return -1
}

func (p Pages) Find(addr uint32) *Page {
	i := p.bsearch(addr)
	if i >= 0 {
		return p[i]
	}
	return nil
}

// FindRange returns every page overlapping [addr, addr+size).
func (p Pages) FindRange(addr, size uint32) Pages {
	var ret Pages
	for _, mm := range p {
		if mm.Overlaps(addr, size) {
			ret = append(ret, mm)
		}
	}
	return ret
}
