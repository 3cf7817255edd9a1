package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"
)

// Regs is the register file every architecture exposes to the thread
// layer, the callback substrate and the debugger.
type Regs interface {
	NumGPR() int
	GPR(i int) uint64
	SetGPR(i int, v uint64)

	PC() uint32
	SetPC(pc uint32)
	SP() uint32
	SetSP(sp uint32)
	LR() uint32
	SetLR(lr uint32)

	// RegNames lists every named register, in no particular order.
	RegNames() []string
	ReadReg(name string) (uint64, error)
	WriteReg(name string, v uint64) error
	ReadRegString(name string) (string, error)
	WriteRegString(name, value string) error
}

type RegVal struct {
	Name string
	Val  uint64
}

type regList []string

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i], r[j]) }

// SortRegs orders register names naturally (r2 before r10).
func SortRegs(names []string) []string {
	rl := make(regList, len(names))
	copy(rl, names)
	sort.Sort(rl)
	return rl
}

// RegDump reads every register in natural name order.
func RegDump(r Regs) ([]RegVal, error) {
	names := SortRegs(r.RegNames())
	ret := make([]RegVal, len(names))
	for i, name := range names {
		val, err := r.ReadReg(name)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{name, val}
	}
	return ret, nil
}

// ParseRegValue accepts the formats debuggers write registers in.
func ParseRegValue(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		return uint64(v), errors.Wrapf(err, "bad register value %q", s)
	}
	v, err := strconv.ParseUint(s, 0, 64)
	return v, errors.Wrapf(err, "bad register value %q", s)
}

func FormatRegValue(v uint64, bits int) string {
	return fmt.Sprintf("0x%0*x", bits/4, v)
}
