package gc

import "testing"

type fakeClass struct {
	name      string
	deletions *int
}

func (c *fakeClass) Name() string { return c.name }
func (c *fakeClass) Delete(Data)  { *c.deletions++ }

type fakeObject struct {
	class *fakeClass
	refs  []*Cell
}

func (o *fakeObject) Kind() Kind       { return KindObject }
func (o *fakeObject) Class() ClassMeta { return o.class }
func (o *fakeObject) Inspect() string  { return "<fake>" }
func (o *fakeObject) Hash() uint32     { return 0 }
func (o *fakeObject) Trace(visit func(*Cell)) {
	for _, c := range o.refs {
		visit(c)
	}
}

type sliceRoot struct {
	cells []*Cell
}

func (s *sliceRoot) GCRoots(visit func(*Cell)) {
	for _, c := range s.cells {
		visit(c)
	}
}

func TestHeapReclaimsUnreachable(t *testing.T) {
	h := NewHeap()
	deletions := 0
	cls := &fakeClass{name: "Thing", deletions: &deletions}

	obj := h.Alloc(&fakeObject{class: cls}).(*fakeObject)
	root := &sliceRoot{cells: []*Cell{NewCell(0, obj)}}
	h.AddRoot(root)

	h.Collect()
	if got := h.Stats().Live; got != 1 {
		t.Fatalf("expected live object to survive collection, got %d live", got)
	}

	root.cells = nil
	h.Collect()

	stats := h.Stats()
	if stats.Live != 0 {
		t.Fatalf("expected object to be reclaimed, got %d live", stats.Live)
	}
	if deletions != 1 {
		t.Fatalf("expected delete to run exactly once, ran %d times", deletions)
	}
}

func TestHeapReclaimsCycle(t *testing.T) {
	h := NewHeap()
	deletions := 0
	cls := &fakeClass{name: "Node", deletions: &deletions}

	a := &fakeObject{class: cls}
	b := &fakeObject{class: cls}
	h.Alloc(a)
	h.Alloc(b)

	cellToB := NewCell(0, b)
	cellToA := NewCell(0, a)
	a.refs = []*Cell{cellToB}
	b.refs = []*Cell{cellToA}

	root := &sliceRoot{cells: []*Cell{NewCell(0, a), NewCell(0, b)}}
	h.AddRoot(root)
	h.Collect()
	if h.Stats().Live != 2 {
		t.Fatalf("expected both cyclic objects reachable from roots")
	}

	root.cells = nil
	h.Collect()

	if h.Stats().Live != 0 {
		t.Fatalf("expected cyclic pair to be reclaimed together, got %d live", h.Stats().Live)
	}
	if deletions != 2 {
		t.Fatalf("expected delete to run once per object in the cycle, ran %d times", deletions)
	}
}

func TestWeakCellDoesNotRoot(t *testing.T) {
	h := NewHeap()
	deletions := 0
	cls := &fakeClass{name: "Thing", deletions: &deletions}
	obj := h.Alloc(&fakeObject{class: cls})

	weak := WeakShare(NewCell(0, obj))
	root := &sliceRoot{cells: []*Cell{weak}}
	h.AddRoot(root)

	h.Collect()

	if h.Stats().Live != 0 {
		t.Fatalf("weak-only reachability must not keep the object alive")
	}
}

func TestCellCopyRejectsConstValue(t *testing.T) {
	src := NewCell(0, nil)
	dst := NewCell(ConstValue, nil)
	if err := dst.Copy(src, nil); err != ErrConstValue {
		t.Fatalf("expected ErrConstValue, got %v", err)
	}
}

func TestCellMoveRejectsConstAddress(t *testing.T) {
	src := NewCell(0, nil)
	dst := NewCell(ConstAddress, nil)
	if err := dst.Move(src); err != ErrConstAddress {
		t.Fatalf("expected ErrConstAddress, got %v", err)
	}
}
