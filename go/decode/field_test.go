package decode

import (
	"testing"
)

func TestFieldExtract(t *testing.T) {
	tests := []struct {
		name string
		f    Field
		code uint32
		idx  uint32
		val  int32
	}{
		{"low nibble", Bits(0, 3), 0x1234, 0x4, 4},
		{"msb0 opcode", MSB0(0, 5), 0x38000000, 14, 14},
		{"msb0 rt", MSB0(6, 10), 0x38610000, 3, 3},
		{"signed", MSB0(16, 31).Signed(), 0x3860ffff, 0xffff, -1},
		{"signed positive", MSB0(16, 31).Signed(), 0x38607fff, 0x7fff, 0x7fff},
		{"shifted", MSB0(9, 24).Signed().Shift(2), 0x327fff80, 0xffff, -4},
		{"concat", Concat(Bits(1, 1), Bits(11, 15)), 0x0000f802, 0x3f, 0x3f},
		{"full word", Bits(0, 31), 0xdeadbeef, 0xdeadbeef, -559038737},
	}
	for _, v := range tests {
		if got := v.f.Index(v.code); got != v.idx {
			t.Errorf("%s: Index(%#x) = %#x, want %#x", v.name, v.code, got, v.idx)
		}
		if got := v.f.Value(v.code); got != v.val {
			t.Errorf("%s: Value(%#x) = %d, want %d", v.name, v.code, got, v.val)
		}
	}
}

func TestFieldPattern(t *testing.T) {
	f := Concat(Bits(0, 1), Bits(8, 9))
	mask, val := f.pattern(0xb)
	if mask != 0x303 || val != 0x302 {
		t.Fatalf("pattern = %#x/%#x", mask, val)
	}
	if f.Index(val) != 0xb {
		t.Fatal("pattern value does not select its slot")
	}
}

func TestFieldFormat(t *testing.T) {
	code := uint32(0x3861fffc)
	if s := MSB0(6, 10).Reg("r").format(code); s != "r3" {
		t.Errorf("register format %q", s)
	}
	if s := MSB0(16, 31).Signed().format(code); s != "-0x4" {
		t.Errorf("negative format %q", s)
	}
	if s := MSB0(11, 15).format(code); s != "1" {
		t.Errorf("small format %q", s)
	}
	if s := MSB0(0, 5).format(code); s != "0xe" {
		t.Errorf("hex format %q", s)
	}
}

func TestFieldBadRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("inverted field did not panic")
		}
	}()
	Bits(5, 2)
}
