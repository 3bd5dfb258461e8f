// Package native defines the boundary between host-level function
// bodies and a running cursor's operand stack: how a native function
// pops its arguments and returns values without depending on the VM
// package itself. It is kept separate from internal/vm so that
// internal/class can declare native-backed methods (built-in operator
// overloads) without importing the VM.
package native

import "github.com/mint-lang/mint/internal/gc"

// Handle identifies the call frame active at the moment a native
// function asked for it, so it can later ask CallInProgress to learn
// whether a nested call it pushed has returned.
type Handle uint64

// Cursor is the slice of cursor behavior a native function handler is
// allowed to touch. The concrete cursor (internal/vm.Cursor) implements
// this plus everything else a running script needs.
type Cursor interface {
	// Pop removes and returns the top operand-stack cell. Handlers pop
	// their declared arguments in reverse, exactly as push order put
	// them on the stack.
	Pop() *gc.Cell
	// Push places a cell on top of the operand stack.
	Push(*gc.Cell)
	// PushData is a convenience wrapper that wraps d in a fresh strong
	// cell and pushes it.
	PushData(d gc.Data)

	// Heap exposes the owning heap for allocation.
	Heap() *gc.Heap

	// CallHandle returns a handle identifying the current call frame,
	// for later use with CallInProgress.
	CallHandle() Handle
	// CallInProgress reports whether any frame above the one identified
	// by h is still on the call stack, i.e. whether a nested call the
	// handler pushed has not returned yet.
	CallInProgress(h Handle) bool

	// Raise begins unwinding to the nearest retrieve point with value
	// v, or terminates the cursor if none exists.
	Raise(v gc.Data) error
}

// Func is a native function body: N argument cells are already on the
// operand stack when it is invoked. It pops them (usually via a
// helper), does its work, and pushes exactly one result cell — or none
// for a procedure.
type Func func(cur Cursor, argc int) error

// Entry is a native plug-in's exported function: a symbolic name and a
// declared arity. A negative arity encodes a variadic entry with
// (-arity - 1) fixed parameters, mirrored in internal/class.Signature's
// explicit Fixed/Variadic sum once resolved.
type Entry struct {
	Name  string
	Arity int
	Fn    Func
}

// PopArgs pops exactly n cells and returns them in call order
// (first-pushed first).
func PopArgs(cur Cursor, n int) []*gc.Cell {
	args := make([]*gc.Cell, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = cur.Pop()
	}
	return args
}
