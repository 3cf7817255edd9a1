package vm

import (
	"github.com/pkg/errors"
)

// PageStack hands out fixed-size pages from [begin, begin+size) in strict
// LIFO order. It never frees out of order and never grows backwards.
type PageStack struct {
	begin    uint32
	size     uint32
	pageSize uint32
	position uint32
	align    uint32
}

func (s *PageStack) Init(begin, size, pageSize, align uint32) {
	if align == 0 {
		align = 0x10
	}
	s.begin = begin
	s.size = size
	s.align = align
	s.pageSize = alignUp(pageSize, align)
	s.position = 0
}

func (s *PageStack) PageSize() uint32 { return s.pageSize }
func (s *PageStack) Position() uint32 { return s.position }
func (s *PageStack) Begin() uint32    { return s.begin }
func (s *PageStack) Size() uint32     { return s.size }

// AllocNewPage returns the address of a fresh page and advances the cursor
// by exactly one page.
func (s *PageStack) AllocNewPage() (uint32, error) {
	if s.pageSize == 0 {
		return InvalidAddr, errors.New("stack not initialized")
	}
	if uint64(s.position)+uint64(s.pageSize) > uint64(s.size) {
		return InvalidAddr, errors.Errorf("stack exhausted at %#x (%#x/%#x)", s.begin+s.position, s.position, s.size)
	}
	addr := s.begin + s.position
	s.position += s.pageSize
	return addr, nil
}

// DeallocNewPage releases the most recently allocated page and returns the
// new cursor address.
func (s *PageStack) DeallocNewPage() (uint32, error) {
	if s.position < s.pageSize || s.pageSize == 0 {
		return InvalidAddr, errors.New("stack underflow")
	}
	s.position -= s.pageSize
	return s.begin + s.position, nil
}

// AllocPages allocates n contiguous pages, or none.
func (s *PageStack) AllocPages(n uint32) (uint32, error) {
	if n == 0 {
		n = 1
	}
	first, err := s.AllocNewPage()
	if err != nil {
		return InvalidAddr, err
	}
	for i := uint32(1); i < n; i++ {
		if _, err := s.AllocNewPage(); err != nil {
			for ; i > 0; i-- {
				s.DeallocNewPage()
			}
			return InvalidAddr, err
		}
	}
	return first, nil
}

func alignUp(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
