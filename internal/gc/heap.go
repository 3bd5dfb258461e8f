package gc

import "github.com/dustin/go-humanize"

// RootSet is implemented by anything the collector must treat as a
// root: a cursor's operand stack/call frames/pending-call stack/
// retrieve-point stack/printer stack, a module's constant table, a
// class's default-value table, or a global symbol table.
type RootSet interface {
	GCRoots(visit func(*Cell))
}

type allocMeta struct {
	marked bool
}

// Heap owns every heap-allocated Data object and the live RootSets
// that keep parts of it reachable. Collection only ever runs between
// scheduler rounds — the Heap itself does not enforce that; it is the
// caller's (the scheduler's) responsibility never to call Collect
// mid-step.
type Heap struct {
	objects map[Data]*allocMeta
	roots   []RootSet

	allocated   int
	reclaimed   int
	collections int
}

func NewHeap() *Heap {
	return &Heap{objects: make(map[Data]*allocMeta)}
}

// Alloc registers d as heap-owned and returns it back for convenience.
func (h *Heap) Alloc(d Data) Data {
	h.objects[d] = &allocMeta{}
	h.allocated++
	return d
}

// AddRoot registers a long-lived root provider (module registry, class
// registry, global table). Cursors are added/removed by the scheduler
// as they are created/finished.
func (h *Heap) AddRoot(r RootSet) {
	h.roots = append(h.roots, r)
}

// RemoveRoot drops a root provider, e.g. a cursor whose call stack has
// emptied and which is about to be destroyed.
func (h *Heap) RemoveRoot(r RootSet) {
	for i, existing := range h.roots {
		if existing == r {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

func (h *Heap) mark(c *Cell) {
	if c == nil || c.IsWeak() {
		return
	}
	d := c.pointee
	if d == nil {
		return
	}
	meta, tracked := h.objects[d]
	if !tracked {
		// Not a heap-tracked object (e.g. a value-kind cell that never
		// went through Alloc); nothing to mark, nothing to trace.
		return
	}
	if meta.marked {
		return
	}
	meta.marked = true
	d.Trace(h.mark)
}

// Collect runs one mark-sweep cycle. Objects found unreachable have
// their class `delete` method invoked (if resolvable) before removal;
// finalization order across the unreachable set is unspecified.
func (h *Heap) Collect() {
	h.collections++
	for _, meta := range h.objects {
		meta.marked = false
	}
	for _, r := range h.roots {
		r.GCRoots(h.mark)
	}

	var dead []Data
	for d, meta := range h.objects {
		if !meta.marked {
			dead = append(dead, d)
		}
	}
	for _, d := range dead {
		if cls := d.Class(); cls != nil {
			cls.Delete(d)
		}
		delete(h.objects, d)
		h.reclaimed++
	}
}

// Stats is the mutator-visible diagnostic surface backing `--gc-stats`
// in the CLI (cmd/mint).
type Stats struct {
	Live        int
	Allocated   int
	Reclaimed   int
	Collections int
}

func (h *Heap) Stats() Stats {
	return Stats{
		Live:        len(h.objects),
		Allocated:   h.allocated,
		Reclaimed:   h.reclaimed,
		Collections: h.collections,
	}
}

// String renders the stats with humanized counts, the way a CLI
// diagnostic line would.
func (s Stats) String() string {
	return humanize.Comma(int64(s.Live)) + " live objects, " +
		humanize.Comma(int64(s.Allocated)) + " allocated, " +
		humanize.Comma(int64(s.Reclaimed)) + " reclaimed across " +
		humanize.Comma(int64(s.Collections)) + " collections"
}
