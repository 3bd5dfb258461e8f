package class

import "github.com/mint-lang/mint/internal/gc"

// Instance is an OBJECT data kind: a pointer to its class metadata
// plus a contiguous array of reference cells indexed by member offset.
type Instance struct {
	class *Class
	data  []*gc.Cell
}

// NewInstance allocates a fresh instance sized by c's member count and
// clones default values into its slots. It does not invoke a `new`
// method — callers that want constructor dispatch do so via the
// VM/call machinery, since only it can execute bytecode.
func NewInstance(c *Class) *Instance {
	inst := &Instance{class: c, data: make([]*gc.Cell, c.Size())}
	for _, name := range c.order {
		m := c.members[name]
		cell := gc.NewCell(m.Flags, nil)
		if m.Default != nil {
			cell.Clone(m.Default)
			cell.SetFlags(m.Flags)
		}
		inst.data[m.Offset] = cell
	}
	return inst
}

// Class satisfies gc.Data's Class() accessor. Code that needs the
// concrete *Class (method resolution, bases, globals) should call
// ClassOf instead.
func (i *Instance) Class() gc.ClassMeta { return i.class }

func (i *Instance) Kind() gc.Kind { return gc.KindObject }

func (i *Instance) Inspect() string {
	return "<" + i.class.name + ">"
}

func (i *Instance) Hash() uint32 {
	// Structural hash: a fixed seed folded with the Hash of every
	// non-empty member slot's data. Built-in kinds override Hash on their own Data
	// implementations (kinds.String, kinds.Array, ...); plain instances
	// fall back to identity via the class dispatcher's `==` operator,
	// not this structural hash.
	h := uint32(0x9e3779b9)
	for _, c := range i.data {
		if c != nil && c.Data() != nil {
			h = h*31 + c.Data().Hash()
		}
	}
	return h
}

// Trace visits every member slot: this is the GC's only hook into
// object layout.
func (i *Instance) Trace(visit func(*gc.Cell)) {
	for _, c := range i.data {
		visit(c)
	}
}

// Slot returns the reference cell at offset k. Callers (the VM's
// load-member/reduce-member instructions) are expected to have already
// resolved k via Class.Resolve.
func (i *Instance) Slot(offset int) *gc.Cell {
	return i.data[offset]
}

func (i *Instance) ClassOf() *Class { return i.class }
