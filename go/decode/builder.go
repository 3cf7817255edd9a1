package decode

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

type instrSpec struct {
	fields []Field
	size   uint32
}

type binding[T any] struct {
	name    string
	handler Handler[T]
	spec    instrSpec
}

type slot[T any] struct {
	bind *binding[T]
	sub  *Level[T]
}

// Level is one table level under construction.
type Level[T any] struct {
	b     *Builder[T]
	name  string
	field Field
	slots map[uint32]*slot[T]
	def   *binding[T]
	next  *Level[T]
}

// Builder assembles a Table. Errors are collected and reported by Build.
type Builder[T any] struct {
	name    string
	size    uint32
	root    *Level[T]
	unknown *binding[T]
	errs    []string
}

// NewBuilder starts a table whose instructions are size bytes unless a
// binding says otherwise.
func NewBuilder[T any](name string, size uint32) *Builder[T] {
	return &Builder[T]{name: name, size: size}
}

func (b *Builder[T]) errorf(format string, a ...interface{}) {
	b.errs = append(b.errs, fmt.Sprintf(format, a...))
}

func (b *Builder[T]) newBinding(name string, h Handler[T], args []Arg) *binding[T] {
	bind := &binding[T]{name: name, handler: h}
	for _, a := range args {
		a.apply(&bind.spec)
	}
	if len(bind.spec.fields) > MaxOperands {
		b.errorf("%s: %d operands, at most %d allowed", name, len(bind.spec.fields), MaxOperands)
		bind.spec.fields = bind.spec.fields[:MaxOperands]
	}
	if h == nil {
		b.errorf("%s: nil handler", name)
	}
	return bind
}

func (b *Builder[T]) newLevel(name string, f Field) *Level[T] {
	if f.Width() == 0 || f.Width() > 16 {
		b.errorf("level %s: selector width %d out of range", name, f.Width())
	}
	return &Level[T]{b: b, name: name, field: f, slots: make(map[uint32]*slot[T])}
}

// Root creates the first level.
func (b *Builder[T]) Root(name string, f Field) *Level[T] {
	if b.root != nil {
		b.errorf("root level %s already defined", b.root.name)
		return b.root
	}
	b.root = b.newLevel(name, f)
	return b.root
}

// Unknown sets the handler for every encoding nothing else claims.
func (b *Builder[T]) Unknown(name string, h Handler[T], args ...Arg) {
	b.unknown = b.newBinding(name, h, args)
}

// Fallback chains a level consulted, on the same word, for every slot this
// level leaves unbound.
func (l *Level[T]) Fallback(name string, f Field) *Level[T] {
	if l.next != nil {
		l.b.errorf("level %s: fallback already set to %s", l.name, l.next.name)
		return l.next
	}
	if l.def != nil {
		l.b.errorf("level %s: fallback %s is unreachable behind default %s", l.name, name, l.def.name)
	}
	l.next = l.b.newLevel(name, f)
	return l.next
}

func (l *Level[T]) slot(n uint32) *slot[T] {
	if n>>l.field.Width() != 0 {
		l.b.errorf("level %s: opcode %#x does not fit %d bits", l.name, n, l.field.Width())
		return nil
	}
	s := l.slots[n]
	if s == nil {
		s = &slot[T]{}
		l.slots[n] = s
	}
	return s
}

// Sub returns the nested level selected by slot n, creating it.
func (l *Level[T]) Sub(n uint32, name string, f Field) *Level[T] {
	s := l.slot(n)
	if s == nil {
		return l.b.newLevel(name, f)
	}
	if s.sub == nil {
		s.sub = l.b.newLevel(name, f)
	}
	return s.sub
}

// Bind attaches a handler to slot n. A slot may carry both a binding and a
// nested level; words the nested level leaves unbound run this binding.
func (l *Level[T]) Bind(n uint32, name string, h Handler[T], args ...Arg) *Level[T] {
	bind := l.b.newBinding(name, h, args)
	if s := l.slot(n); s != nil {
		if s.bind != nil {
			l.b.errorf("level %s: slot %#x bound to both %s and %s", l.name, n, s.bind.name, name)
		} else {
			s.bind = bind
		}
	}
	return l
}

// Default handles every slot of this level that is unbound.
func (l *Level[T]) Default(name string, h Handler[T], args ...Arg) *Level[T] {
	if l.def != nil {
		l.b.errorf("level %s: default already set to %s", l.name, l.def.name)
	}
	l.def = l.b.newBinding(name, h, args)
	return l
}

// BuildError lists every problem found while building a table.
type BuildError struct {
	Table    string
	Problems []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("decode table %s: %s", e.Table, strings.Join(e.Problems, "; "))
}

// Build validates the levels and produces the table. The builder may be
// reused afterwards; every Build compiles a fresh table.
func (b *Builder[T]) Build() (*Table[T], error) {
	errs := b.errs
	b.errs = nil
	if b.root == nil {
		b.errorf("no root level")
	}
	if b.unknown == nil {
		b.errorf("no unknown-instruction handler")
	}
	if b.root != nil {
		b.checkShadowed(b.root)
	}
	problems := append(slices.Clone(errs), b.errs...)
	b.errs = errs
	if len(problems) > 0 {
		slices.Sort(problems)
		return nil, &BuildError{Table: b.name, Problems: problems}
	}
	st := &buildState[T]{
		b:      b,
		t:      &Table[T]{name: b.name},
		instrs: make(map[*binding[T]]*Instr[T]),
		nodes:  make(map[*Level[T]]*node[T]),
	}
	st.t.unknown = st.instr(b.unknown)
	st.t.root = st.compile(b.root, entry[T]{instr: st.t.unknown}).sub
	slices.SortFunc(st.t.instrs, func(a, c *Instr[T]) bool { return a.Name < c.Name })
	return st.t, nil
}

// MustBuild is Build for package-level tables.
func (b *Builder[T]) MustBuild() *Table[T] {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

type buildState[T any] struct {
	b      *Builder[T]
	t      *Table[T]
	instrs map[*binding[T]]*Instr[T]
	nodes  map[*Level[T]]*node[T]
}

func (st *buildState[T]) instr(bind *binding[T]) *Instr[T] {
	if in, ok := st.instrs[bind]; ok {
		return in
	}
	size := bind.spec.size
	if size == 0 {
		size = st.b.size
	}
	in := &Instr[T]{Name: bind.name, Handler: bind.handler, Fields: slices.Clone(bind.spec.fields), Size: size}
	st.instrs[bind] = in
	st.t.instrs = append(st.t.instrs, in)
	return in
}

// compile turns l into a node whose every slot is filled. inherit is what
// the level's unbound slots resolve to when it has neither a default nor a
// fallback.
func (st *buildState[T]) compile(l *Level[T], inherit entry[T]) entry[T] {
	if n, ok := st.nodes[l]; ok {
		return entry[T]{sub: n}
	}
	unbound := inherit
	switch {
	case l.def != nil:
		unbound = entry[T]{instr: st.instr(l.def)}
	case l.next != nil:
		unbound = st.compile(l.next, inherit)
	}
	n := &node[T]{name: l.name, field: l.field, slots: make([]entry[T], 1<<l.field.Width())}
	st.nodes[l] = n
	for i := range n.slots {
		s := l.slots[uint32(i)]
		switch {
		case s == nil:
			n.slots[i] = unbound
		case s.sub != nil && s.bind != nil:
			n.slots[i] = st.compile(s.sub, entry[T]{instr: st.instr(s.bind)})
		case s.sub != nil:
			n.slots[i] = st.compile(s.sub, unbound)
		case s.bind != nil:
			n.slots[i] = entry[T]{instr: st.instr(s.bind)}
		default:
			n.slots[i] = unbound
		}
	}
	return entry[T]{sub: n}
}

type pattern struct {
	mask, val uint32
	name      string
}

func (p pattern) and(f Field, slot uint32) pattern {
	m, v := f.pattern(slot)
	return pattern{mask: p.mask | m, val: p.val | v, name: p.name}
}

func (p pattern) matches(q pattern) bool {
	return (p.val^q.val)&p.mask&q.mask == 0
}

// captures appends the patterns of every word l resolves without falling
// through to its chained levels.
func (l *Level[T]) captures(base pattern, out []pattern) []pattern {
	for n, s := range l.slots {
		p := base.and(l.field, n)
		switch {
		case s.bind != nil:
			p.name = s.bind.name
			out = append(out, p)
		case s.sub != nil && s.sub.def != nil:
			p.name = s.sub.def.name
			out = append(out, p)
		case s.sub != nil:
			out = s.sub.captures(p, out)
		}
	}
	return out
}

// bindings appends the pattern of every binding reachable under l.
func (l *Level[T]) bindings(base pattern, out []pattern) []pattern {
	for n, s := range l.slots {
		p := base.and(l.field, n)
		if s.bind != nil {
			p.name = s.bind.name
			out = append(out, p)
		}
		if s.sub != nil {
			out = s.sub.bindings(p, out)
		}
	}
	return out
}

// checkShadowed reports bindings on chained levels that an earlier level of
// the same chain always claims first. Nested levels are checked too.
func (b *Builder[T]) checkShadowed(root *Level[T]) {
	var claimed []pattern
	for l := root; l != nil; l = l.next {
		if len(claimed) > 0 {
			for _, p := range l.bindings(pattern{}, nil) {
				for _, c := range claimed {
					if p.matches(c) {
						b.errorf("level %s: %s is shadowed by %s", l.name, p.name, c.name)
						break
					}
				}
			}
		}
		claimed = l.captures(pattern{}, claimed)
		for _, s := range l.slots {
			if s.sub != nil {
				b.checkShadowed(s.sub)
			}
		}
	}
}
