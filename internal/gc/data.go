package gc

// ClassMeta is the subset of class metadata the GC and the reference
// cell need without importing the class package (which itself imports
// gc for Cell/Data — see internal/class for the rest).
type ClassMeta interface {
	Name() string
	// Delete resolves and, if present, invokes the class's `delete`
	// method on inst under a private cursor context. Absence of a
	// resolvable method is not an error.
	Delete(inst Data)
}

// Data is the heap payload a reference cell's strong/weak pointer
// targets. Every built-in kind (String, Array, Hash, Iterator, Library)
// and every user object instance implements it.
type Data interface {
	Kind() Kind
	Class() ClassMeta
	Inspect() string
	Hash() uint32

	// Trace calls visit once for every Cell this object directly owns,
	// e.g. array elements, hash entries, object member slots. Leaf data
	// (strings, fixed-width integers, library handles) trace nothing.
	// This is the mark phase's only hook into object-specific layout.
	Trace(visit func(*Cell))
}
