package vm

import (
	"io"

	"github.com/google/uuid"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/module"
	"github.com/mint-lang/mint/internal/native"
)

// Frame records one call's state: the module and instruction pointer
// executing, its local symbol table, the operand-stack depth at entry
// (so Return knows how far to truncate), and its own printer stack.
type Frame struct {
	Module    *module.Module
	IP        int
	Locals    map[string]*gc.Cell
	StackBase int
	Printers  []io.Writer

	// ConstructorSelf is non-nil when this frame is running a `new`
	// method: OpReturn discards whatever value the method itself
	// returns and pushes this cell instead, since `new C(...)` always
	// evaluates to the constructed instance regardless of what the
	// constructor body returns.
	ConstructorSelf *gc.Cell
}

// PendingCall holds a partially constructed call: the callee cell
// plus whether it is a bound member call (self already pushed).
type PendingCall struct {
	Callee *gc.Cell
	Member bool
}

// RetrievePoint is a captured snapshot of stack depths plus a target
// instruction pointer, consumed either by a matching OpPopRetrieve or
// by a Raise that unwinds through it.
type RetrievePoint struct {
	StackDepth   int
	FrameDepth   int
	PendingDepth int
	IP           int
}

// Cursor is one independent execution context: one call stack, one
// operand stack, one local-scope chain. The unit of scheduling.
type Cursor struct {
	vm *VM

	// ID is a stable identity for this cursor across its lifetime,
	// independent of its position in the scheduler's run queue.
	ID uuid.UUID

	Stack    []*gc.Cell
	Frames   []*Frame
	Pending  []*PendingCall
	Retrieve []*RetrievePoint

	handle native.Handle

	// Finished is set once the call stack has emptied or exit-exec has
	// propagated through this cursor.
	Finished bool
	// ExitRequested/ExitCode are set by OpExit when B signals a
	// process-wide exit rather than an ordinary cursor finish.
	ExitRequested bool
	ExitCode      int

	// Blocked names the socket handle this cursor is suspended on, or
	// -1 if runnable. Set by stdlib socket wrappers, cleared by the
	// scheduler's poll phase.
	Blocked int

	// Yielded is set by OpYield and cleared by the scheduler once it
	// has requeued this cursor behind the rest of the current round.
	Yielded bool
}

func newCursor(vm *VM, mod *module.Module) *Cursor {
	cur := &Cursor{vm: vm, ID: uuid.New(), Blocked: -1}
	cur.Stack = make([]*gc.Cell, 0, 256)
	cur.pushFrame(mod, 0, 0)
	return cur
}

func (cur *Cursor) pushFrame(mod *module.Module, ip, base int) *Frame {
	f := &Frame{Module: mod, IP: ip, Locals: make(map[string]*gc.Cell), StackBase: base}
	cur.Frames = append(cur.Frames, f)
	return f
}

func (cur *Cursor) top() *Frame {
	if len(cur.Frames) == 0 {
		return nil
	}
	return cur.Frames[len(cur.Frames)-1]
}

// Push places a cell on top of the operand stack.
func (cur *Cursor) Push(c *gc.Cell) {
	cur.Stack = append(cur.Stack, c)
}

// PushData wraps d in a fresh strong cell and pushes it.
func (cur *Cursor) PushData(d gc.Data) {
	cur.vm.Heap.Alloc(d)
	cur.Push(gc.NewCell(0, d))
}

// Pop removes and returns the top operand-stack cell.
func (cur *Cursor) Pop() *gc.Cell {
	n := len(cur.Stack) - 1
	c := cur.Stack[n]
	cur.Stack = cur.Stack[:n]
	return c
}

func (cur *Cursor) peek(distance int) *gc.Cell {
	return cur.Stack[len(cur.Stack)-1-distance]
}

// Heap exposes the owning heap for allocation.
func (cur *Cursor) Heap() *gc.Heap { return cur.vm.Heap }

// CallHandle returns a handle identifying the current call frame.
func (cur *Cursor) CallHandle() native.Handle {
	cur.handle++
	return native.Handle(len(cur.Frames))<<32 | cur.handle
}

// CallInProgress reports whether the frame stack is still deeper than
// it was when h was minted, i.e. a nested call pushed after h hasn't
// returned yet.
func (cur *Cursor) CallInProgress(h native.Handle) bool {
	depth := int(h >> 32)
	return len(cur.Frames) > depth
}

// Raise begins unwinding to the nearest retrieve point with value v,
// or finishes the cursor with an unhandled-exception diagnostic if
// none exists.
func (cur *Cursor) Raise(v gc.Data) error {
	return raise(cur, gc.NewCell(0, v))
}

// GCRoots implements gc.RootSet: a cursor roots its operand stack,
// every frame's locals, and every pending call's callee.
func (cur *Cursor) GCRoots(visit func(*gc.Cell)) {
	for _, c := range cur.Stack {
		visit(c)
	}
	for _, f := range cur.Frames {
		for _, c := range f.Locals {
			visit(c)
		}
	}
	for _, p := range cur.Pending {
		visit(p.Callee)
	}
}

func asInstance(d gc.Data) (*class.Instance, bool) {
	inst, ok := d.(*class.Instance)
	return inst, ok
}
