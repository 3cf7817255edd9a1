package vm

import (
	"testing"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

var testLayout = Layout{
	Name: "test",
	Regions: [LocationCount]RegionSpec{
		Main:   {0x10000, 0x40000, cpu.PROT_ALL},
		Stack:  {0x80000, 0x40000, cpu.PROT_READ | cpu.PROT_WRITE},
		Module: {0xc0000, 0x10000, cpu.PROT_ALL},
		User:   {0xd0000, 0x20000, cpu.PROT_READ | cpu.PROT_WRITE},
	},
	StackPage: 0x10000,
	Align:     0x10,
}

func newTestSpace(t testing.TB) *Space {
	s, err := New(0x100000, testLayout, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// expectFault runs fn and fails unless it panics with a MemError.
func expectFault(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if _, ok := r.(*cpu.MemError); !ok {
			t.Errorf("%s: expected *cpu.MemError panic, got %v", name, r)
		}
	}()
	fn()
}
