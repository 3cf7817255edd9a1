package vm

import (
	"fmt"

	"github.com/lunixbochs/cellcorn/go/models/cpu"
)

// Location names one of the allocation regions of a Space.
type Location int

const (
	Main Location = iota
	Stack
	Module
	User

	LocationCount
)

var locationNames = [LocationCount]string{"main", "stack", "module", "user"}

func (l Location) String() string {
	if l >= 0 && l < LocationCount {
		return locationNames[l]
	}
	return fmt.Sprintf("location(%d)", int(l))
}

// InvalidAddr is returned by the allocators on exhaustion.
const InvalidAddr uint32 = 0

type RegionSpec struct {
	Base, Size uint32
	Prot       int
}

// Layout describes where each region lives in the emulated address space.
type Layout struct {
	Name      string
	Regions   [LocationCount]RegionSpec
	StackPage uint32
	// Align is the allocation granularity of the general regions.
	Align uint32
	// BigEndian is set when the guest of this layout is big-endian native.
	BigEndian bool
}

const DefaultStackPage = 0x10000

var LayoutPS3 = Layout{
	Name: "ps3",
	Regions: [LocationCount]RegionSpec{
		Main:   {0x00010000, 0x1fff0000, cpu.PROT_ALL},
		Stack:  {0xd0000000, 0x10000000, cpu.PROT_READ | cpu.PROT_WRITE},
		Module: {0x20000000, 0x10000000, cpu.PROT_ALL},
		User:   {0x30000000, 0x10000000, cpu.PROT_READ | cpu.PROT_WRITE},
	},
	StackPage: DefaultStackPage,
	Align:     0x10,
	BigEndian: true,
}

var LayoutPSV = Layout{
	Name: "psv",
	Regions: [LocationCount]RegionSpec{
		Main:   {0x81000000, 0x10000000, cpu.PROT_ALL},
		Stack:  {0xc0000000, 0x10000000, cpu.PROT_READ | cpu.PROT_WRITE},
		Module: {0xd0000000, 0x10000000, cpu.PROT_ALL},
		User:   {0x91000000, 0x2f000000, cpu.PROT_READ | cpu.PROT_WRITE},
	},
	StackPage: DefaultStackPage,
	Align:     0x10,
}
