package cpu

import (
	"testing"
)

// table of overlap tests for an 0x1100-0x1200 unmapped hole
// {start, end, should_error}
var overlapTable = [][]uint32{
	{0x1000, 0x1100, 0},
	{0x1000, 0x1050, 0},
	{0x1000, 0x1200, 1},
	{0x1000, 0x1250, 1},
	{0x1100, 0x1150, 1},
	{0x1100, 0x1200, 1},
	{0x1100, 0x1250, 1},
	{0x1150, 0x1200, 1},
	{0x1150, 0x1250, 1},
	{0x1200, 0x1250, 0},
}

func BenchmarkMemSimMap(b *testing.B) {
	m := &MemSim{}
	for i := 0; i < b.N; i++ {
		addr := uint32(i*0x1000) & 0xffffff
		m.Map(addr, 0x1000, 0, "")
	}
}

func BenchmarkMemSimRangeValid(b *testing.B) {
	m := &MemSim{}
	m.Map(0x1000, 0x100000, PROT_READ, "")
	for i := 0; i < b.N; i++ {
		m.RangeValid(0x1000+uint32(i*4)&0xfffff, 4, PROT_READ)
	}
}

func TestMemSim(t *testing.T) {
	m := &MemSim{}
	m.Map(0x1000, 0x1000, PROT_ALL, "")

	for _, region := range overlapTable {
		if err := m.Check(region[0], region[1]-region[0], PROT_READ); err != nil {
			t.Errorf("check_mapped(%#x, %#x) error: %v", region[0], region[1], err)
		}
	}

	// unmaps 0x1100-0x1200
	m.Unmap(0x1100, 0x100)
	if len(m.Mem) != 2 {
		t.Fatalf("expected unmap to split the page in two:\n%s", m.Mem)
	}
	for _, region := range overlapTable {
		err := m.Check(region[0], region[1]-region[0], PROT_READ)
		if err == nil && region[2] == 1 || err != nil && region[2] == 0 {
			t.Errorf("check_unmapped(%#x, %#x) bad error value: %v", region[0], region[1], err)
		}
	}

	// ranges spanning adjacent maps are valid
	m = &MemSim{}
	m.Map(0x1000, 0x1000, PROT_READ, "")
	m.Map(0x2000, 0x1000, PROT_READ, "")
	m.Map(0x3000, 0x1000, PROT_READ, "")
	if mapped, prot := m.RangeValid(0x1000, 0x3000, PROT_READ); !mapped || !prot {
		t.Error("adjacent maps are not contiguous")
	}
	if mapped, _ := m.RangeValid(0x1000, 0x3001, 0); mapped {
		t.Error("range past the last map reported valid")
	}
}

func TestMemSimProt(t *testing.T) {
	m := &MemSim{}
	m.Map(0x1000, 0x3000, PROT_READ|PROT_WRITE, "")
	m.Prot(0x2000, 0x1000, PROT_READ|PROT_EXEC)
	if len(m.Mem) != 3 {
		t.Fatalf("expected prot to split the page in three:\n%s", m.Mem)
	}
	tests := []struct {
		addr, size uint32
		prot       int
		enum       int
	}{
		{0x1000, 4, PROT_WRITE, 0},
		{0x2000, 4, PROT_WRITE, MEM_WRITE_PROT},
		{0x2000, 4, PROT_EXEC, 0},
		{0x1000, 4, PROT_EXEC, MEM_FETCH_PROT},
		{0x3ffc, 4, PROT_READ, 0},
		{0x3ffe, 4, PROT_READ, MEM_READ_UNMAPPED},
		{0x8000, 4, PROT_EXEC, MEM_FETCH_UNMAPPED},
		{0x8000, 4, PROT_WRITE, MEM_WRITE_UNMAPPED},
	}
	for _, v := range tests {
		err := m.Check(v.addr, v.size, v.prot)
		if v.enum == 0 {
			if err != nil {
				t.Errorf("Check(%#x, %d, %d) failed: %v", v.addr, v.size, v.prot, err)
			}
			continue
		}
		merr, ok := err.(*MemError)
		if !ok || merr.Enum != v.enum {
			t.Errorf("Check(%#x, %d, %d) = %v, want enum %d", v.addr, v.size, v.prot, err, v.enum)
		}
	}
}

func TestMemSimRemap(t *testing.T) {
	m := &MemSim{}
	m.Map(0x1000, 0x4000, PROT_READ, "a")
	m.Map(0x2000, 0x1000, PROT_ALL, "b")
	if len(m.Mem) != 3 {
		t.Fatalf("bad remap:\n%s", m.Mem)
	}
	if p := m.Mem.Find(0x2800); p == nil || p.Desc != "b" || p.Prot != PROT_ALL {
		t.Errorf("remapped page not found: %v", p)
	}
	for i := 1; i < len(m.Mem); i++ {
		if m.Mem[i-1].Addr >= m.Mem[i].Addr {
			t.Fatal("pages are not sorted")
		}
	}
}
