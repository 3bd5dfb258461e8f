package kinds

import (
	"strings"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// Array is the ARRAY data kind: a mutable, zero-indexed, ordered
// sequence of reference cells. Unlike a value kind, its cells are
// shared through [] rather than copied.
type Array struct {
	elems []*gc.Cell
}

func NewArray(elems []*gc.Cell) *Array { return &Array{elems: elems} }

func (a *Array) Kind() gc.Kind       { return gc.KindArray }
func (a *Array) Class() gc.ClassMeta { return arrayClass }
func (a *Array) Hash() uint32 {
	h := uint32(0x9e3779b9)
	for _, c := range a.elems {
		if c != nil && c.Data() != nil {
			h = h*31 + c.Data().Hash()
		}
	}
	return h
}
func (a *Array) Trace(visit func(*gc.Cell)) {
	for _, c := range a.elems {
		visit(c)
	}
}
func (a *Array) Inspect() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range a.elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		if c != nil && c.Data() != nil {
			sb.WriteString(c.Data().Inspect())
		} else {
			sb.WriteString("none")
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) Len() int { return len(a.elems) }

// At resolves a negative-from-end index into an in-range slot, or
// reports false.
func (a *Array) At(idx int) (*gc.Cell, bool) {
	if idx < 0 {
		idx += len(a.elems)
	}
	if idx < 0 || idx >= len(a.elems) {
		return nil, false
	}
	return a.elems[idx], true
}

func (a *Array) Append(c *gc.Cell) { a.elems = append(a.elems, c) }

func (a *Array) Concat(other *Array) *Array {
	out := make([]*gc.Cell, 0, len(a.elems)+len(other.elems))
	out = append(out, a.elems...)
	out = append(out, other.elems...)
	return &Array{elems: out}
}

var arrayClass = buildArrayClass()

func buildArrayClass() *class.Class {
	c := class.New("Array")
	c.SetMetatype(gc.KindArray)

	class.RegisterOperator(c, class.OpAdd, class.Fixed(2), &class.Entry{Native: opArrayConcat}, true)
	class.RegisterOperator(c, class.OpSubscript, class.Fixed(2), &class.Entry{Native: opArraySubscript}, true)
	class.RegisterOperator(c, "len", class.Fixed(1), &class.Entry{Native: opArrayLen}, true)
	class.RegisterOperator(c, "push", class.Fixed(2), &class.Entry{Native: opArrayPush}, true)
	return c
}

func asArray(c *gc.Cell) (*Array, bool) {
	if c == nil || c.Data() == nil {
		return nil, false
	}
	a, ok := c.Data().(*Array)
	return a, ok
}

func opArrayConcat(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	aa, _ := asArray(args[0])
	ab, _ := asArray(args[1])
	cur.PushData(aa.Concat(ab))
	return nil
}

// opArraySubscript implements Array[i]: it pushes the element's cell
// itself (a shared reference), not a copy, so `a[0] = x` through a
// separate store instruction mutates the array in place.
func opArraySubscript(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	aa, _ := asArray(args[0])
	idx, _ := asNumber(args[1])
	cell, ok := aa.At(int(idx))
	if !ok {
		return &IndexError{Index: int(idx), Len: aa.Len()}
	}
	cur.Push(cell)
	return nil
}

func opArrayLen(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	aa, _ := asArray(args[0])
	cur.PushData(NewNumber(float64(aa.Len())))
	return nil
}

func opArrayPush(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	aa, _ := asArray(args[0])
	aa.Append(args[1])
	cur.PushData(aa)
	return nil
}
