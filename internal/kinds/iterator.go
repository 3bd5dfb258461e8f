package kinds

import (
	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// Iterator is the ITERATOR data kind: a lazy, single-pass cursor over
// some underlying sequence. advance is called at most once per
// produced value; once it reports done, the iterator never yields
// again even if queried repeatedly.
type Iterator struct {
	advance func() (gc.Data, bool)
	current gc.Data
	done    bool
	started bool

	// source roots the collection this iterator walks, so an iterator
	// kept alive past its backing array/hash keeps that backing
	// reachable too.
	source *gc.Cell
}

func newIterator(advance func() (gc.Data, bool)) *Iterator {
	return &Iterator{advance: advance}
}

// NewRangeIterator implements the `a..b` (inclusive) / `a...b`
// (exclusive) numeric range literal as a lazy counting iterator.
func NewRangeIterator(start, end float64, inclusive bool) *Iterator {
	cur := start
	return newIterator(func() (gc.Data, bool) {
		if inclusive && cur > end {
			return nil, false
		}
		if !inclusive && cur >= end {
			return nil, false
		}
		v := NewNumber(cur)
		cur++
		return v, true
	})
}

func NewArrayIterator(a *Array) *Iterator {
	i := 0
	it := newIterator(func() (gc.Data, bool) {
		if i >= a.Len() {
			return nil, false
		}
		c := a.elems[i]
		i++
		if c == nil || c.Data() == nil {
			return None, true
		}
		return c.Data(), true
	})
	it.source = gc.NewCell(0, a)
	return it
}

// NewHashIterator yields each entry as a two-element Array [key, value]
// in the hash's total order.
func NewHashIterator(h *Hash) *Iterator {
	i := 0
	it := newIterator(func() (gc.Data, bool) {
		if i >= h.Len() {
			return nil, false
		}
		pair := NewArray([]*gc.Cell{h.keys[i], h.vals[i]})
		i++
		return pair, true
	})
	it.source = gc.NewCell(0, h)
	return it
}

func (it *Iterator) Kind() gc.Kind       { return gc.KindIterator }
func (it *Iterator) Class() gc.ClassMeta { return iteratorClass }
func (it *Iterator) Hash() uint32        { return 0 }
func (it *Iterator) Trace(visit func(*gc.Cell)) {
	if it.source != nil {
		visit(it.source)
	}
	if c, ok := it.current.(interface{ Trace(func(*gc.Cell)) }); ok {
		c.Trace(visit)
	}
}
func (it *Iterator) Inspect() string { return "<iterator>" }

// pull advances the iterator exactly once if it has not yet produced
// a value for the current position, memoizing the result so in-check
// followed by in-next does not advance twice.
func (it *Iterator) pull() {
	if it.started || it.done {
		return
	}
	it.started = true
	v, ok := it.advance()
	if !ok {
		it.done = true
		return
	}
	it.current = v
}

// HasNext reports whether in-next would yield a value.
func (it *Iterator) HasNext() bool {
	it.pull()
	return !it.done
}

// Next returns the current value and advances past it. It pulls the
// value itself when no HasNext preceded it, and reports false once the
// iterator is exhausted.
func (it *Iterator) Next() (gc.Data, bool) {
	it.pull()
	if it.done {
		return nil, false
	}
	v := it.current
	it.started = false
	it.current = nil
	return v, true
}

var iteratorClass = buildIteratorClass()

func buildIteratorClass() *class.Class {
	c := class.New("Iterator")
	c.SetMetatype(gc.KindIterator)

	class.RegisterOperator(c, "in-init", class.Fixed(1), &class.Entry{Native: opIterInit}, true)
	class.RegisterOperator(c, "in-check", class.Fixed(1), &class.Entry{Native: opIterCheck}, true)
	class.RegisterOperator(c, "in-next", class.Fixed(1), &class.Entry{Native: opIterNext}, true)
	return c
}

func asIterator(c *gc.Cell) (*Iterator, bool) {
	if c == nil || c.Data() == nil {
		return nil, false
	}
	it, ok := c.Data().(*Iterator)
	return it, ok
}

// opIterInit implements in-init: an Iterator initializes to itself,
// since lazily pulling the first value is pull()'s job, not init's.
func opIterInit(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	it, _ := asIterator(args[0])
	cur.PushData(it)
	return nil
}

func opIterCheck(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	it, _ := asIterator(args[0])
	cur.PushData(Bool(it.HasNext()))
	return nil
}

func opIterNext(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	it, _ := asIterator(args[0])
	v, ok := it.Next()
	if !ok {
		cur.PushData(None)
		return nil
	}
	cur.PushData(v)
	return nil
}

// registerInFind attaches in-find to a built-in kind's class: `for x
// in expr` first calls in-find on expr to obtain the Iterator that
// in-init/in-check/in-next then drive.
func registerInFind(c *class.Class, fn native.Func) {
	class.RegisterOperator(c, "in-find", class.Fixed(1), &class.Entry{Native: fn}, true)
}

// NewStringIterator walks s codepoint by codepoint, yielding each as
// a one-rune String.
func NewStringIterator(s *String) *Iterator {
	runes := []rune(s.String())
	i := 0
	it := newIterator(func() (gc.Data, bool) {
		if i >= len(runes) {
			return nil, false
		}
		r := runes[i]
		i++
		return NewString(string(r)), true
	})
	it.source = gc.NewCell(0, s)
	return it
}

func init() {
	registerInFind(arrayClass, func(cur native.Cursor, argc int) error {
		args := native.PopArgs(cur, 1)
		a, _ := asArray(args[0])
		cur.PushData(NewArrayIterator(a))
		return nil
	})
	registerInFind(hashClass, func(cur native.Cursor, argc int) error {
		args := native.PopArgs(cur, 1)
		h, _ := asHash(args[0])
		cur.PushData(NewHashIterator(h))
		return nil
	})
	registerInFind(stringClass, func(cur native.Cursor, argc int) error {
		args := native.PopArgs(cur, 1)
		s, _ := asString(args[0])
		cur.PushData(NewStringIterator(s))
		return nil
	})
	// An iterator is its own iteration source.
	registerInFind(iteratorClass, func(cur native.Cursor, argc int) error {
		args := native.PopArgs(cur, 1)
		it, _ := asIterator(args[0])
		cur.PushData(it)
		return nil
	})
}
