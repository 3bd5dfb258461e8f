package kinds

import (
	"testing"

	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

func numberArray(vals ...float64) *Array {
	elems := make([]*gc.Cell, len(vals))
	for i, v := range vals {
		elems[i] = gc.NewCell(0, NewNumber(v))
	}
	return NewArray(elems)
}

func TestArrayIndexing(t *testing.T) {
	a := numberArray(10, 20, 30)

	tests := []struct {
		idx  int
		want float64
		ok   bool
	}{
		{0, 10, true},
		{2, 30, true},
		{-1, 30, true},
		{-3, 10, true},
		{3, 0, false},
		{-4, 0, false},
	}
	for _, tt := range tests {
		cell, ok := a.At(tt.idx)
		if ok != tt.ok {
			t.Errorf("At(%d) ok = %v, want %v", tt.idx, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if got := cell.Data().(*Number).Float(); got != tt.want {
			t.Errorf("At(%d) = %v, want %v", tt.idx, got, tt.want)
		}
	}
}

func TestArraySubscriptSharesSlot(t *testing.T) {
	a := numberArray(1, 2)
	out := runOpCell(t, opArraySubscript, a, NewNumber(0))
	out.Set(NewNumber(99))
	cell, _ := a.At(0)
	if got := cell.Data().(*Number).Float(); got != 99 {
		t.Errorf("subscript did not return a shared slot: a[0] = %v after write", got)
	}
}

func TestArraySubscriptOutOfRange(t *testing.T) {
	c := newStackCursor()
	pushData(c, numberArray(1), NewNumber(5))
	err := opArraySubscript(c, 2)
	if _, ok := err.(*IndexError); !ok {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestArrayConcatProducesNew(t *testing.T) {
	a := numberArray(1, 2)
	b := numberArray(3)
	out := runOp(t, opArrayConcat, a, b)
	sum := out.(*Array)
	if sum.Len() != 3 {
		t.Fatalf("concat length = %d, want 3", sum.Len())
	}
	if a.Len() != 2 || b.Len() != 1 {
		t.Error("concat must not mutate its operands")
	}
}

func TestHashInsertAndGet(t *testing.T) {
	h := NewHash()
	key := gc.NewCell(0, NewString("k"))
	slot := h.Insert(key)
	slot.Set(NewString("v"))

	got, ok := h.Get(NewString("k"))
	if !ok {
		t.Fatal("key not found after insert")
	}
	if got.Data().(*String).String() != "v" {
		t.Errorf("h[k] = %v, want v", got.Data().Inspect())
	}

	// Inserting the same key again must return the existing slot.
	again := h.Insert(gc.NewCell(0, NewString("k")))
	if again != slot {
		t.Error("re-inserting an existing key created a new slot")
	}
}

func TestHashTotalOrder(t *testing.T) {
	h := NewHash()
	for _, k := range []string{"pear", "apple", "mango"} {
		h.Insert(gc.NewCell(0, NewString(k)))
	}
	keys := h.Keys()
	want := []string{"apple", "mango", "pear"}
	for i, w := range want {
		if got := keys[i].Data().(*String).String(); got != w {
			t.Errorf("key[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestHashMixedKeyKindsOrdered(t *testing.T) {
	h := NewHash()
	h.Insert(gc.NewCell(0, NewString("s")))
	h.Insert(gc.NewCell(0, NewNumber(3)))
	h.Insert(gc.NewCell(0, NewNumber(1)))
	if h.Len() != 3 {
		t.Fatalf("expected 3 distinct keys, got %d", h.Len())
	}
	// The two numbers must stay mutually ordered regardless of where
	// the string lands.
	var nums []float64
	for _, k := range h.Keys() {
		if n, ok := k.Data().(*Number); ok {
			nums = append(nums, n.Float())
		}
	}
	if len(nums) != 2 || nums[0] != 1 || nums[1] != 3 {
		t.Errorf("numeric keys out of order: %v", nums)
	}
}

func TestRangeIterator(t *testing.T) {
	collect := func(it *Iterator) []float64 {
		var out []float64
		for it.HasNext() {
			v, _ := it.Next()
			out = append(out, v.(*Number).Float())
		}
		return out
	}

	inclusive := collect(NewRangeIterator(1, 3, true))
	if len(inclusive) != 3 || inclusive[2] != 3 {
		t.Errorf("1..3 = %v, want [1 2 3]", inclusive)
	}
	exclusive := collect(NewRangeIterator(1, 3, false))
	if len(exclusive) != 2 || exclusive[1] != 2 {
		t.Errorf("1...3 = %v, want [1 2]", exclusive)
	}
	empty := collect(NewRangeIterator(3, 1, true))
	if len(empty) != 0 {
		t.Errorf("3..1 = %v, want empty", empty)
	}
}

func TestIteratorSinglePass(t *testing.T) {
	it := NewArrayIterator(numberArray(1, 2))
	for it.HasNext() {
		it.Next()
	}
	if it.HasNext() {
		t.Error("exhausted iterator must never yield again")
	}
	if _, ok := it.Next(); ok {
		t.Error("Next after exhaustion must report no value")
	}
}

func TestIteratorCheckDoesNotAdvance(t *testing.T) {
	it := NewArrayIterator(numberArray(7))
	if !it.HasNext() || !it.HasNext() {
		t.Fatal("repeated HasNext must not consume the value")
	}
	v, ok := it.Next()
	if !ok || v.(*Number).Float() != 7 {
		t.Errorf("Next = %v, want 7", v)
	}
}

func TestArrayIteratorRoundTrip(t *testing.T) {
	orig := numberArray(1, 2, 3)
	it := NewArrayIterator(orig)
	var back []*gc.Cell
	for it.HasNext() {
		v, _ := it.Next()
		back = append(back, gc.NewCell(0, v))
	}
	if len(back) != orig.Len() {
		t.Fatalf("round-trip length %d, want %d", len(back), orig.Len())
	}
	for i := range back {
		want, _ := orig.At(i)
		if back[i].Data().(*Number).Float() != want.Data().(*Number).Float() {
			t.Errorf("element %d differs after to-array(to-iterator(...))", i)
		}
	}
}

// runOpCell is runOp for operators whose result is a shared slot
// (subscript), where the cell identity matters, not just the data.
func runOpCell(t *testing.T, fn native.Func, args ...gc.Data) *gc.Cell {
	t.Helper()
	c := newStackCursor()
	pushData(c, args...)
	if err := fn(c, len(args)); err != nil {
		t.Fatalf("operator failed: %v", err)
	}
	return c.Pop()
}
