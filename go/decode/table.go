package decode

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// MaxOperands bounds the operand fields of one instruction.
const MaxOperands = 6

// Operands holds extracted operand values in binding order.
type Operands [MaxOperands]int32

// Handler executes one decoded instruction against ctx.
type Handler[T any] func(ctx T, code uint32, ops Operands)

// Instr is one resolved table entry.
type Instr[T any] struct {
	Name    string
	Handler Handler[T]
	Fields  []Field
	// Size is the instruction length in bytes.
	Size uint32
}

// Extract fills ops from code.
func (in *Instr[T]) Extract(code uint32, ops *Operands) {
	for i, f := range in.Fields {
		ops[i] = f.Value(code)
	}
}

// Disasm formats code as decoded by in.
func (in *Instr[T]) Disasm(code uint32) string {
	if len(in.Fields) == 0 {
		return in.Name
	}
	args := make([]string, len(in.Fields))
	for i, f := range in.Fields {
		args[i] = f.format(code)
	}
	return in.Name + " " + strings.Join(args, ", ")
}

type entry[T any] struct {
	instr *Instr[T]
	sub   *node[T]
}

type node[T any] struct {
	name  string
	field Field
	slots []entry[T]
}

// Table is an immutable dispatch table. It is safe for concurrent use.
type Table[T any] struct {
	name    string
	root    *node[T]
	unknown *Instr[T]
	instrs  []*Instr[T]
}

func (t *Table[T]) Name() string { return t.name }

// Unknown returns the entry every unbound encoding resolves to.
func (t *Table[T]) Unknown() *Instr[T] { return t.unknown }

// Resolve walks the levels for code. It never returns nil.
func (t *Table[T]) Resolve(code uint32) *Instr[T] {
	n := t.root
	for {
		e := &n.slots[n.field.Index(code)]
		if e.instr != nil {
			return e.instr
		}
		n = e.sub
	}
}

// Dispatch resolves code, extracts its operands and runs the handler.
func (t *Table[T]) Dispatch(ctx T, code uint32) *Instr[T] {
	in := t.Resolve(code)
	var ops Operands
	in.Extract(code, &ops)
	in.Handler(ctx, code, ops)
	return in
}

// Disasm returns the mnemonic and operands of code.
func (t *Table[T]) Disasm(code uint32) string {
	return t.Resolve(code).Disasm(code)
}

// Instrs lists every distinct bound instruction sorted by name.
func (t *Table[T]) Instrs() []*Instr[T] {
	return slices.Clone(t.instrs)
}

func (t *Table[T]) String() string {
	return fmt.Sprintf("decode table %s (%d instructions)", t.name, len(t.instrs))
}
