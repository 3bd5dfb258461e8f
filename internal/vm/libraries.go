package vm

import (
	"github.com/mint-lang/mint/internal/kinds"
	"github.com/mint-lang/mint/internal/native"
)

// openLibrary resolves and caches a native plug-in by path, so that
// repeated `library "foo.so"` interop calls against the same path
// reuse one loaded handle rather than reopening the plug-in each time.
func (vm *VM) openLibrary(path string) (*kinds.Library, error) {
	if lib, ok := vm.Libraries[path]; ok {
		return lib, nil
	}
	lib, err := kinds.Open(path)
	if err != nil {
		return nil, err
	}
	vm.Libraries[path] = lib
	vm.Heap.Alloc(lib)
	return lib, nil
}

// libraryCall implements `OpLibraryCall`: the operand stack holds the
// function name followed by argc positional arguments, with the
// library itself addressed by path rather than by an object already on
// the stack (unlike the Library kind's own `call` operator, reachable
// through ordinary operator dispatch once a Library value is in hand).
func libraryCall(cur *Cursor, path string, argc int) error {
	lib, err := cur.vm.openLibrary(path)
	if err != nil {
		return raiseString(cur, "%v", err)
	}
	args := native.PopArgs(cur, argc+1)
	nameCell := args[0]
	nameStr, ok := nameCell.Data().(interface{ String() string })
	if !ok {
		return raiseString(cur, "library call name must be a string")
	}
	entry, ok := lib.Lookup(nameStr.String())
	if !ok {
		return raiseString(cur, "library %s has no function %q", path, nameStr.String())
	}
	if entry.Fn == nil {
		return raiseString(cur, "library %s's %q has no loaded implementation", path, nameStr.String())
	}
	for _, a := range args[1:] {
		cur.Push(a)
	}
	if err := entry.Fn(cur, argc); err != nil {
		return raiseString(cur, "%v", err)
	}
	return nil
}
