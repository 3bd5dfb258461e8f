package class

import "github.com/mint-lang/mint/internal/gc"

// Registry is the process-global class table, owned by the runtime
// for its whole lifetime. It is a GC root: every class's default-value
// table and class-level globals must stay reachable for as long as the
// class exists.
type Registry struct {
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

func (r *Registry) Register(c *Class) { r.classes[c.name] = c }

func (r *Registry) Lookup(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

func (r *Registry) All() map[string]*Class { return r.classes }

// GCRoots implements gc.RootSet.
func (r *Registry) GCRoots(visit func(*gc.Cell)) {
	for _, c := range r.classes {
		for _, name := range c.order {
			visit(c.members[name].Default)
		}
		for _, cell := range c.globals {
			visit(cell)
		}
	}
}
