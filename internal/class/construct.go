package class

// Construct allocates an instance of c and clones its default member
// values in, then reports whether a `new` method matching callArgc
// exists so the caller (the VM, which alone can execute bytecode or
// invoke natives) can invoke it against the fresh instance. callArgc
// counts the receiver, matching how every member method dispatches:
// `new C(5)` resolves against a `new(self, v)` declared Fixed(2).
func Construct(c *Class, callArgc int) (*Instance, *Entry, int, bool) {
	inst := NewInstance(c)
	ctor, ok := LookupOperator(c, OpNew)
	if !ok {
		return inst, nil, 0, false
	}
	entry, variadicFrom, found := ctor.Dispatch(callArgc)
	if !found {
		return inst, nil, 0, false
	}
	return inst, entry, variadicFrom, true
}
