package kinds

import (
	"testing"

	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// stackCursor is the minimal native.Cursor a built-in operator needs
// under test: an operand stack and a heap, no call machinery.
type stackCursor struct {
	heap  *gc.Heap
	stack []*gc.Cell
}

func newStackCursor() *stackCursor {
	return &stackCursor{heap: gc.NewHeap()}
}

func (c *stackCursor) Pop() *gc.Cell {
	n := len(c.stack) - 1
	top := c.stack[n]
	c.stack = c.stack[:n]
	return top
}

func (c *stackCursor) Push(cell *gc.Cell) { c.stack = append(c.stack, cell) }

func (c *stackCursor) PushData(d gc.Data) {
	c.heap.Alloc(d)
	c.Push(gc.NewCell(0, d))
}

func (c *stackCursor) Heap() *gc.Heap { return c.heap }

func (c *stackCursor) CallHandle() native.Handle         { return 0 }
func (c *stackCursor) CallInProgress(native.Handle) bool { return false }
func (c *stackCursor) Raise(gc.Data) error               { return nil }

func pushData(c *stackCursor, ds ...gc.Data) {
	for _, d := range ds {
		c.PushData(d)
	}
}

func popData(t *testing.T, c *stackCursor) gc.Data {
	t.Helper()
	if len(c.stack) == 0 {
		t.Fatal("operand stack empty, expected a result")
	}
	return c.Pop().Data()
}

func runOp(t *testing.T, fn native.Func, args ...gc.Data) gc.Data {
	t.Helper()
	c := newStackCursor()
	pushData(c, args...)
	if err := fn(c, len(args)); err != nil {
		t.Fatalf("operator failed: %v", err)
	}
	return popData(t, c)
}
