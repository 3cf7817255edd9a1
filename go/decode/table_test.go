package decode

import (
	"strings"
	"testing"
)

type testCPU struct {
	ran  []string
	ops  Operands
	code uint32
}

func record(name string) Handler[*testCPU] {
	return func(c *testCPU, code uint32, ops Operands) {
		c.ran = append(c.ran, name)
		c.ops = ops
		c.code = code
	}
}

var (
	opField  = Bits(28, 31)
	subField = Bits(24, 27)
	regA     = Bits(16, 19).Reg("r")
	imm8     = Bits(0, 7).Signed()
)

func newTestBuilder() *Builder[*testCPU] {
	b := NewBuilder[*testCPU]("test", 4)
	b.Unknown("unk", record("unk"))
	return b
}

func TestDispatch(t *testing.T) {
	b := newTestBuilder()
	root := b.Root("root", opField)
	root.Bind(0x1, "add", record("add"), regA, imm8)
	root.Bind(0x2, "short", record("short"), Size(2))
	tbl := b.MustBuild()

	var c testCPU
	in := tbl.Dispatch(&c, 0x1003_00fe)
	if in.Name != "add" || in.Size != 4 {
		t.Fatalf("resolved %s size %d", in.Name, in.Size)
	}
	if c.ops[0] != 3 || c.ops[1] != -2 || c.code != 0x100300fe {
		t.Fatalf("operands %v", c.ops)
	}
	if in := tbl.Resolve(0x2000_0000); in.Size != 2 {
		t.Fatalf("per-binding size not applied: %d", in.Size)
	}
	if in := tbl.Resolve(0xf000_0000); in != tbl.Unknown() {
		t.Fatalf("unbound slot resolved to %s", in.Name)
	}
	if s := tbl.Disasm(0x100300fe); s != "add r3, -0x2" {
		t.Fatalf("disasm %q", s)
	}
}

func TestDispatchDeterministic(t *testing.T) {
	build := func() *Table[*testCPU] {
		b := newTestBuilder()
		root := b.Root("root", opField)
		root.Bind(0x1, "one", record("one"))
		sub := root.Sub(0x2, "two", subField)
		sub.Bind(0x3, "two.three", record("two.three"))
		return b.MustBuild()
	}
	a, b := build(), build()
	for code := uint32(0); code < 1<<12; code++ {
		word := code << 20
		if a.Resolve(word).Name != b.Resolve(word).Name {
			t.Fatalf("tables disagree on %#x", word)
		}
		if a.Resolve(word) != a.Resolve(word) {
			t.Fatalf("resolution of %#x is unstable", word)
		}
	}
}

func TestSubLevelTieBreak(t *testing.T) {
	b := newTestBuilder()
	root := b.Root("root", opField)
	// hint space: slot 0xb is a generic hint, sub-slot 0 is the exact NOP
	root.Bind(0xb, "hint", record("hint"))
	root.Sub(0xb, "hints", subField).Bind(0x0, "nop", record("nop"))
	tbl := b.MustBuild()

	if in := tbl.Resolve(0xb000_0000); in.Name != "nop" {
		t.Errorf("specific binding lost: %s", in.Name)
	}
	if in := tbl.Resolve(0xb500_0000); in.Name != "hint" {
		t.Errorf("generic binding not inherited: %s", in.Name)
	}
}

func TestSubLevelDefaults(t *testing.T) {
	b := newTestBuilder()
	root := b.Root("root", opField)
	root.Sub(0x1, "plain", subField).Bind(0x1, "a", record("a"))
	root.Sub(0x2, "withdef", subField).Default("bad", record("bad"))
	tbl := b.MustBuild()

	if in := tbl.Resolve(0x1200_0000); in != tbl.Unknown() {
		t.Errorf("unbound sub slot resolved to %s", in.Name)
	}
	if in := tbl.Resolve(0x2700_0000); in.Name != "bad" {
		t.Errorf("sub default not used: %s", in.Name)
	}
}

func TestFallbackChain(t *testing.T) {
	b := newTestBuilder()
	// wider opcodes are only consulted when the narrow level has no match
	narrow := b.Root("narrow", Bits(28, 31))
	narrow.Bind(0x8, "sel", record("sel"))
	wide := narrow.Fallback("wide", Bits(24, 31))
	wide.Bind(0x41, "or", record("or"))
	wide.Default("wunk", record("wunk"))
	tbl := b.MustBuild()

	tests := map[uint32]string{
		0x8000_0000: "sel",
		0x8f00_0000: "sel",
		0x4100_0000: "or",
		0x4200_0000: "wunk",
	}
	for code, want := range tests {
		if got := tbl.Resolve(code).Name; got != want {
			t.Errorf("Resolve(%#x) = %s, want %s", code, got, want)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Builder[*testCPU])
		want  string
	}{
		{"duplicate", func(b *Builder[*testCPU]) {
			r := b.Root("root", opField)
			r.Bind(1, "a", record("a"))
			r.Bind(1, "b", record("b"))
		}, "bound to both a and b"},
		{"range", func(b *Builder[*testCPU]) {
			b.Root("root", opField).Bind(0x10, "a", record("a"))
		}, "does not fit"},
		{"shadowed", func(b *Builder[*testCPU]) {
			r := b.Root("narrow", Bits(28, 31))
			r.Bind(0x8, "sel", record("sel"))
			r.Fallback("wide", Bits(24, 31)).Bind(0x85, "lost", record("lost"))
		}, "lost is shadowed by sel"},
		{"shadowed by sub default", func(b *Builder[*testCPU]) {
			r := b.Root("narrow", Bits(28, 31))
			r.Sub(0x3, "s", Bits(0, 1)).Default("sdef", record("sdef"))
			r.Fallback("wide", Bits(24, 31)).Bind(0x31, "lost", record("lost"))
		}, "lost is shadowed by sdef"},
		{"nil handler", func(b *Builder[*testCPU]) {
			b.Root("root", opField).Bind(1, "a", nil)
		}, "nil handler"},
		{"operands", func(b *Builder[*testCPU]) {
			b.Root("root", opField).Bind(1, "a", record("a"), imm8, imm8, imm8, imm8, imm8, imm8, imm8)
		}, "at most 6"},
	}
	for _, v := range tests {
		b := newTestBuilder()
		v.setup(b)
		_, err := b.Build()
		if err == nil {
			t.Errorf("%s: Build succeeded", v.name)
		} else if !strings.Contains(err.Error(), v.want) {
			t.Errorf("%s: error %q does not mention %q", v.name, err, v.want)
		}
	}

	b := NewBuilder[*testCPU]("nounk", 4)
	b.Root("root", opField)
	if _, err := b.Build(); err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Errorf("missing unknown handler: %v", err)
	}
}

func TestFallbackNoFalseShadow(t *testing.T) {
	b := newTestBuilder()
	r := b.Root("narrow", Bits(28, 31))
	r.Bind(0x8, "sel", record("sel"))
	r.Fallback("wide", Bits(24, 31)).Bind(0x75, "ok", record("ok"))
	if _, err := b.Build(); err != nil {
		t.Fatal(err)
	}
}

func TestInstrs(t *testing.T) {
	b := newTestBuilder()
	r := b.Root("root", opField)
	h := record("x")
	r.Bind(2, "b", h)
	r.Bind(1, "a", h)
	r.Default("def", h)
	tbl := b.MustBuild()
	var names []string
	for _, in := range tbl.Instrs() {
		names = append(names, in.Name)
	}
	if got := strings.Join(names, ","); got != "a,b,def,unk" {
		t.Fatalf("Instrs() = %s", got)
	}
}

func TestDispatchAllocs(t *testing.T) {
	b := NewBuilder[*testCPU]("allocs", 4)
	b.Unknown("unk", func(*testCPU, uint32, Operands) {})
	b.Root("root", opField).Bind(1, "add", func(c *testCPU, code uint32, ops Operands) {
		c.code = code
	}, regA, imm8)
	tbl := b.MustBuild()
	c := &testCPU{}
	allocs := testing.AllocsPerRun(100, func() {
		tbl.Dispatch(c, 0x100300fe)
	})
	if allocs != 0 {
		t.Fatalf("Dispatch allocated %v times", allocs)
	}
}

func BenchmarkDispatch(b *testing.B) {
	bld := NewBuilder[*testCPU]("bench", 4)
	bld.Unknown("unk", func(*testCPU, uint32, Operands) {})
	r := bld.Root("root", opField)
	sub := r.Sub(1, "sub", subField)
	sub.Bind(3, "add", func(c *testCPU, code uint32, ops Operands) { c.ops = ops }, regA, imm8)
	tbl := bld.MustBuild()
	c := &testCPU{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.Dispatch(c, 0x1303_00fe)
	}
}
