package vm

import (
	"bytes"
	"testing"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

func TestSpaceRegionsMapped(t *testing.T) {
	s := newTestSpace(t)
	for loc := Location(0); loc < LocationCount; loc++ {
		spec := testLayout.Regions[loc]
		if !s.IsMapped(spec.Base, spec.Size, 0) {
			t.Errorf("%s region not mapped", loc)
		}
		if got, ok := s.Locate(spec.Base + 4); !ok || got != loc {
			t.Errorf("Locate(%#x) = %s, want %s", spec.Base+4, got, loc)
		}
	}
	if _, ok := s.Locate(0x8); ok {
		t.Error("address below every region was located")
	}
}

func TestSpaceOverlappingLayout(t *testing.T) {
	bad := testLayout
	bad.Regions[User] = RegionSpec{0x20000, 0x1000, cpu.PROT_READ}
	if _, err := New(0x100000, bad, nil); err == nil {
		t.Fatal("overlapping regions were accepted")
	}
	if _, err := New(0x10000, testLayout, nil); err == nil {
		t.Fatal("regions outside the buffer were accepted")
	}
}

func TestSpaceMap(t *testing.T) {
	s := newTestSpace(t)
	tests := []struct {
		addr, size uint32
		ok         bool
	}{
		{0x1000, 0x1000, true},
		{0x1800, 0x1000, false}, // overlaps the previous map
		{0x2000, 0x1000, true},  // adjacent is fine
		{0x10000, 0x100, false}, // main region
		{0xff000, 0x1000, true},
		{0xff000, 0x2000, false}, // leaves the buffer
		{0x3000, 0, false},
	}
	for _, v := range tests {
		if got := s.Map(v.addr, v.size, cpu.PROT_READ); got != v.ok {
			t.Errorf("Map(%#x, %#x) = %v, want %v", v.addr, v.size, got, v.ok)
		}
	}
	if !s.Unmap(0x1000, 0, 0) {
		t.Error("Unmap(size=0) of a mapping failed")
	}
	if s.Unmap(0x1000, 0x1000, 0) {
		t.Error("Unmap of an unmapped range succeeded")
	}
	if !s.Map(0x1000, 0x1000, cpu.PROT_READ) {
		t.Error("re-Map after Unmap failed")
	}
	if !s.Unmap(0x1800, 0x100, 0) {
		t.Error("partial Unmap failed")
	}
	if s.IsMapped(0x1800, 4, 0) || !s.IsMapped(0x1000, 0x800, 0) || !s.IsMapped(0x1900, 0x700, 0) {
		t.Errorf("bad mappings after partial unmap:\n%v", s.Mappings())
	}
}

func TestSpaceCheckedAccess(t *testing.T) {
	s := newTestSpace(t)
	data := []byte("cellcorn")
	if err := s.Write(0x10000, data); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, len(data))
	if err := s.Read(0x10000, out); err != nil {
		t.Fatal(err)
	} else if !bytes.Equal(out, data) {
		t.Fatal("read/write inconsistent")
	}
	if err := s.Write(0x8000, data); err == nil {
		t.Error("write to unmapped memory succeeded")
	}
	s.Prot(0xd0000, 0x1000, cpu.PROT_READ)
	if err := s.Write(0xd0000, data); err == nil {
		t.Error("write to read-only memory succeeded")
	} else if merr, ok := err.(*cpu.MemError); !ok || merr.Enum != cpu.MEM_WRITE_PROT {
		t.Errorf("bad error for protected write: %v", err)
	}
	if err := s.Read(0xffffc, out); err == nil {
		t.Error("read past the buffer succeeded")
	}
}

func TestSpaceFetch(t *testing.T) {
	s := newTestSpace(t)
	var cache ExecCache
	p := make([]byte, 4)
	if err := s.Fetch(&cache, 0x10000, p, true); err != nil {
		t.Fatal(err)
	}
	if err := s.Fetch(&cache, 0x10004, p, true); err != nil {
		t.Fatal(err)
	}
	err := s.Fetch(&cache, 0xd0000, p, true)
	if merr, ok := err.(*cpu.MemError); !ok || merr.Enum != cpu.MEM_FETCH_PROT {
		t.Fatalf("fetch from non-exec memory: %v", err)
	}
	if err := s.Fetch(&cache, 0xd0000, p, false); err != nil {
		t.Fatalf("non-strict fetch failed: %v", err)
	}
	// protection changes invalidate the cache
	s.Prot(0x10000, 0x1000, cpu.PROT_READ)
	if err := s.Fetch(&cache, 0x10000, p, true); err == nil {
		t.Fatal("fetch used a stale cache entry")
	}
}

func TestSpaceClose(t *testing.T) {
	s := newTestSpace(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err == nil {
		t.Error("second Close succeeded")
	}
	expectFault(t, "read after close", func() { s.LE().Read32(0x10000) })
	if s.Alloc(0x10, Main) != InvalidAddr {
		t.Error("alloc after close succeeded")
	}
}
