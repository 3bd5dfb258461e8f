// Package module holds the compiled instruction array, symbol table,
// and constant pool for one compilation unit, plus the registry that
// resolves canonical dot-separated module names to loaded Modules,
// loading them from disk on demand.
package module

import (
	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
)

// Instruction is one bytecode instruction: an opcode plus up to three
// operands, whose meaning depends on Op (a local slot, a constant
// index, a jump target, an argument count, ...).
type Instruction struct {
	Op      Opcode
	A, B, C int
}

// Module is one compiled file: its instruction array, the pool of
// constants referenced from it (numbers, strings, function
// prototypes), the symbol table interning local/global/member names
// to small integers, and the classes it declares.
type Module struct {
	Name string

	Instructions []Instruction
	Constants    []gc.Data
	Symbols      []string

	Classes map[string]*class.Class
	Globals map[string]*gc.Cell

	Exports []string

	symIndex map[string]int
}

func New(name string) *Module {
	return &Module{
		Name:     name,
		Classes:  make(map[string]*class.Class),
		Globals:  make(map[string]*gc.Cell),
		symIndex: make(map[string]int),
	}
}

// Intern returns the index of s in the symbol table, adding it if
// this is the first occurrence.
func (m *Module) Intern(s string) int {
	if i, ok := m.symIndex[s]; ok {
		return i
	}
	i := len(m.Symbols)
	m.Symbols = append(m.Symbols, s)
	m.symIndex[s] = i
	return i
}

func (m *Module) Symbol(i int) string { return m.Symbols[i] }

// AddConstant appends d to the constant pool and returns its index.
func (m *Module) AddConstant(d gc.Data) int {
	m.Constants = append(m.Constants, d)
	return len(m.Constants) - 1
}

// DeclareClass records a class in this module's class table, where a
// register-class instruction finds it at run time and the bundle
// codec finds it at serialization time.
func (m *Module) DeclareClass(c *class.Class) {
	m.Classes[c.Name()] = c
}

// Emit appends an instruction and returns its offset, used by the
// compiler as a jump-patch target.
func (m *Module) Emit(op Opcode, a, b, c int) int {
	m.Instructions = append(m.Instructions, Instruction{Op: op, A: a, B: b, C: c})
	return len(m.Instructions) - 1
}

// Patch rewrites operand A of an already-emitted instruction, used to
// back-patch forward jumps once their target offset is known.
func (m *Module) Patch(offset, a int) {
	m.Instructions[offset].A = a
}

// GCRoots implements gc.RootSet: every module stays live as long as
// it is loaded, rooting its classes' default values and its own
// globals. Constants are not heap-tracked at all: they are compile-time
// literals owned by the module's own (Go-level) lifetime, so pushing one
// never calls Heap.Alloc and the mark-sweep never has to account for it.
func (m *Module) GCRoots(visit func(*gc.Cell)) {
	for _, c := range m.Globals {
		visit(c)
	}
	for _, cls := range m.Classes {
		for _, name := range cls.MembersOf() {
			if mem, ok := cls.Resolve(name); ok {
				visit(mem.Default)
			}
		}
		for _, g := range cls.Globals() {
			visit(g)
		}
	}
}
