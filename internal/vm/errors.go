package vm

import (
	"fmt"

	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
)

// Unhandled is returned by Step when a raise finds no retrieve point.
// The scheduler treats it as fatal to the whole run: it prints the
// diagnostic to its stderr and stops with status 1.
type Unhandled struct {
	Value *gc.Cell
}

func (e *Unhandled) Error() string {
	return "unhandled exception: " + inspect(e.Value)
}

func inspect(c *gc.Cell) string {
	if c == nil || c.Data() == nil {
		return "none"
	}
	return c.Data().Inspect()
}

// raise is the VM's one propagation mechanism: unwind to the nearest
// retrieve point (truncating the operand stack, call-frame stack, and
// pending-call stack to the sizes captured at point creation, then
// pushing value and jumping to the retrieve target), or report
// Unhandled if no retrieve point remains.
func raise(cur *Cursor, value *gc.Cell) error {
	if len(cur.Retrieve) == 0 {
		cur.Finished = true
		return &Unhandled{Value: value}
	}
	rp := cur.Retrieve[len(cur.Retrieve)-1]
	cur.Retrieve = cur.Retrieve[:len(cur.Retrieve)-1]

	cur.Stack = cur.Stack[:rp.StackDepth]
	cur.Frames = cur.Frames[:rp.FrameDepth]
	cur.Pending = cur.Pending[:rp.PendingDepth]

	cur.Push(value)
	if f := cur.top(); f != nil {
		f.IP = rp.IP
	}
	return nil
}

// raiseString is the path builtin type/arity/name/state/arithmetic
// errors take: they are opaque user values like anything else raised,
// so wrap the description in a String and go through raise uniformly.
func raiseString(cur *Cursor, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	s := kinds.NewString(msg)
	cur.vm.Heap.Alloc(s)
	return raise(cur, gc.NewCell(0, s))
}
