package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var (
	colorName    = ansi.ColorCode("cyan")
	colorSame    = ansi.ColorCode("default")
	colorChanged = ansi.ColorCode("yellow+b")
)

// StatusDiff renders register dumps, marking what changed since the
// previous dump. The first dump reports no changes.
type StatusDiff struct {
	Regs Regs
	Bits int
	prev map[string]uint64
}

func NewStatusDiff(r Regs, bits int) *StatusDiff {
	return &StatusDiff{Regs: r, Bits: bits}
}

type Change struct {
	Name     string
	Old, New uint64
}

func (c *Change) Changed() bool { return c.Old != c.New }

// Span is a run of hex digits that either all changed or all stayed.
type Span struct {
	Old, New string
	Changed  bool
}

// Mask splits the zero-padded hex forms of New and Old into spans.
func (c *Change) Mask(digits int) []Span {
	n, o := fmt.Sprintf("%0*x", digits, c.New), fmt.Sprintf("%0*x", digits, c.Old)
	if len(n) < len(o) {
		n = strings.Repeat("0", len(o)-len(n)) + n
	} else if len(o) < len(n) {
		o = strings.Repeat("0", len(n)-len(o)) + o
	}
	var spans []Span
	for i := 0; i < len(n); {
		changed := n[i] != o[i]
		j := i + 1
		for j < len(n) && (n[j] != o[j]) == changed {
			j++
		}
		spans = append(spans, Span{Old: o[i:j], New: n[i:j], Changed: changed})
		i = j
	}
	return spans
}

// String renders one register cell. Without color a changed register is
// marked with a leading '+'.
func (c *Change) String(digits int, color bool) string {
	if !color {
		mark := ' '
		if c.Changed() {
			mark = '+'
		}
		return fmt.Sprintf("%c%6s 0x%0*x", mark, c.Name, digits, c.New)
	}
	var b strings.Builder
	fmt.Fprintf(&b, " %s%6s%s 0x", colorName, c.Name, ansi.Reset)
	for _, span := range c.Mask(digits) {
		if span.Changed {
			b.WriteString(colorChanged)
		} else {
			b.WriteString(colorSame)
		}
		b.WriteString(span.New)
	}
	b.WriteString(ansi.Reset)
	return b.String()
}

type Changes struct {
	Digits int
	List   []*Change
}

// String lays the registers out in four columns, filled top to bottom.
func (cs *Changes) String(color bool) string {
	const cols = 4
	rows := (len(cs.List) + cols - 1) / cols
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := c*rows + r
			if i >= len(cs.List) {
				break
			}
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(cs.List[i].String(cs.Digits, color))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (cs *Changes) Changed() []*Change {
	var ret []*Change
	for _, c := range cs.List {
		if c.Changed() {
			ret = append(ret, c)
		}
	}
	return ret
}

func (cs *Changes) Count() int { return len(cs.Changed()) }

func (cs *Changes) Find(name string) *Change {
	for _, c := range cs.List {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Changes compares the registers against the previous call. With
// onlyChanged, unchanged registers are left out.
func (s *StatusDiff) Changes(onlyChanged bool) *Changes {
	regs, _ := RegDump(s.Regs)
	cs := &Changes{Digits: s.Bits / 4}
	next := make(map[string]uint64, len(regs))
	for _, reg := range regs {
		next[reg.Name] = reg.Val
		old, ok := s.prev[reg.Name]
		if !ok {
			old = reg.Val
		}
		c := &Change{Name: reg.Name, Old: old, New: reg.Val}
		if !onlyChanged || c.Changed() {
			cs.List = append(cs.List, c)
		}
	}
	s.prev = next
	return cs
}
