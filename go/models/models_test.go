package models

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type fakeRegs struct {
	vals map[string]uint64
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{vals: map[string]uint64{"r10": 0, "r2": 0, "r1": 0, "pc": 0, "sp": 0, "lr": 0}}
}

func (f *fakeRegs) NumGPR() int            { return 3 }
func (f *fakeRegs) GPR(i int) uint64       { return f.vals[[]string{"r1", "r2", "r10"}[i]] }
func (f *fakeRegs) SetGPR(i int, v uint64) { f.vals[[]string{"r1", "r2", "r10"}[i]] = v }
func (f *fakeRegs) PC() uint32             { return uint32(f.vals["pc"]) }
func (f *fakeRegs) SetPC(v uint32)         { f.vals["pc"] = uint64(v) }
func (f *fakeRegs) SP() uint32             { return uint32(f.vals["sp"]) }
func (f *fakeRegs) SetSP(v uint32)         { f.vals["sp"] = uint64(v) }
func (f *fakeRegs) LR() uint32             { return uint32(f.vals["lr"]) }
func (f *fakeRegs) SetLR(v uint32)         { f.vals["lr"] = uint64(v) }
func (f *fakeRegs) RegNames() []string {
	var ret []string
	for name := range f.vals {
		ret = append(ret, name)
	}
	return ret
}
func (f *fakeRegs) ReadReg(name string) (uint64, error) {
	v, ok := f.vals[name]
	if !ok {
		return 0, errors.Errorf("no register %s", name)
	}
	return v, nil
}
func (f *fakeRegs) WriteReg(name string, v uint64) error {
	f.vals[name] = v
	return nil
}
func (f *fakeRegs) ReadRegString(name string) (string, error) {
	v, err := f.ReadReg(name)
	return FormatRegValue(v, 32), err
}
func (f *fakeRegs) WriteRegString(name, value string) error {
	v, err := ParseRegValue(value)
	if err != nil {
		return err
	}
	return f.WriteReg(name, v)
}

func TestRegDumpOrder(t *testing.T) {
	dump, err := RegDump(newFakeRegs())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range dump {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, " "); got != "lr pc r1 r2 r10 sp" {
		t.Fatalf("register order: %s", got)
	}
}

func TestRegValueStrings(t *testing.T) {
	r := newFakeRegs()
	for _, v := range []struct {
		in   string
		want uint64
	}{{"0x10", 16}, {"42", 42}, {"-1", 0xffffffffffffffff}, {" 0b101 ", 5}} {
		if err := r.WriteRegString("r1", v.in); err != nil {
			t.Fatal(err)
		}
		if r.GPR(0) != v.want {
			t.Errorf("WriteRegString(%q) stored %#x", v.in, r.GPR(0))
		}
	}
	if err := r.WriteRegString("r1", "zz"); err == nil {
		t.Error("bad value accepted")
	}
	r.SetPC(0x1234)
	if s, _ := r.ReadRegString("pc"); s != "0x00001234" {
		t.Errorf("ReadRegString = %q", s)
	}
}

func TestStatusDiff(t *testing.T) {
	r := newFakeRegs()
	diff := NewStatusDiff(r, 32)
	first := diff.Changes(false)
	if len(first.List) != 6 || first.Count() != 0 {
		t.Fatalf("initial dump: %d regs, %d changed", len(first.List), first.Count())
	}
	r.SetPC(0x100)
	r.SetGPR(2, 0xff)
	cs := diff.Changes(true)
	if cs.Count() != 2 || cs.Find("pc") == nil || cs.Find("r10") == nil {
		t.Fatalf("changes: %+v", cs.List)
	}
	if s := cs.Find("pc").String(cs.Digits, false); !strings.Contains(s, "+") || !strings.Contains(s, "00000100") {
		t.Fatalf("change line %q", s)
	}
	if s := cs.String(true); !strings.Contains(s, "\x1b[") {
		t.Fatalf("colored dump has no escapes: %q", s)
	}
	if diff.Changes(true).Count() != 0 {
		t.Fatal("changes not reset after dump")
	}
}

func TestChangeMask(t *testing.T) {
	c := &Change{Name: "r1", Old: 0x1034, New: 0x1234}
	masks := c.Mask(4)
	if len(masks) != 3 || !masks[1].Changed || masks[1].New != "2" || masks[1].Old != "0" {
		t.Fatalf("masks %+v", masks)
	}
}

func TestConfigMerge(t *testing.T) {
	c := DefaultConfig()
	if err := c.Merge([]byte(`{"DecoderMode": "trace", "Verbose": true, "StopAddr": 4096}`)); err != nil {
		t.Fatal(err)
	}
	if c.DecoderMode != Trace || !c.Verbose || c.StopAddr != 0x1000 || !c.StrictExec {
		t.Fatalf("merged config %+v", c)
	}
	if err := c.Merge([]byte(`{"DecoderMode": "jit"}`)); err == nil {
		t.Fatal("unknown decoder mode accepted")
	}
	if c.Logger().Level.String() != "debug" {
		t.Fatal("verbose config did not enable debug logging")
	}
}

func TestParseThreadType(t *testing.T) {
	for in, want := range map[string]ThreadType{"spu": SPU, "PPU": PPU, "armv7": ARMv7, "arm": ARMv7} {
		got, err := ParseThreadType(in)
		if err != nil || got != want {
			t.Errorf("ParseThreadType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseThreadType("x86"); err == nil {
		t.Error("x86 accepted")
	}
	if Stopped.String() != "stopped" || Status(9).String() != "invalid" {
		t.Error("status names")
	}
}

func TestFaultError(t *testing.T) {
	err := &FaultError{Thread: 3, Name: "main", PC: 0x10000, Code: 0xdeadbeef, Err: ErrUnknownInstruction}
	if errors.Cause(err) != ErrUnknownInstruction {
		t.Fatal("cause lost")
	}
	if !strings.Contains(err.Error(), "0x00010000") || !strings.Contains(err.Error(), "deadbeef") {
		t.Fatalf("message %q", err.Error())
	}
}
