// Package vm implements the bytecode dispatch loop: cursor state,
// locals/globals, signature-based calls, the native-call boundary,
// and retrieve-point unwinding for raised exceptions. It is driven one
// quantum at a time by the scheduler, which alone decides when a
// collection is safe to run.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
	"github.com/mint-lang/mint/internal/module"
)

// VM owns the state shared across every cursor: the module registry,
// the class registry, the global symbol table, and the heap. It holds
// no per-cursor state itself — cursors are independent and the
// scheduler owns the list of them.
type VM struct {
	Registry *module.Registry
	Classes  *class.Registry
	Globals  map[string]*gc.Cell
	Heap     *gc.Heap

	// Libraries caches native plug-ins opened by path, shared across
	// every cursor since a plug-in handle carries no per-call state.
	Libraries map[string]*kinds.Library

	// Spawned collects cursors OpSpawn created during the current
	// step, for the scheduler to fold into its run queue after the
	// step returns. The vm package never iterates it itself.
	Spawned []*Cursor

	Stdout io.Writer
	Stderr io.Writer
}

func New(reg *module.Registry, classes *class.Registry, heap *gc.Heap) *VM {
	vm := &VM{
		Registry:  reg,
		Classes:   classes,
		Globals:   make(map[string]*gc.Cell),
		Heap:      heap,
		Libraries: make(map[string]*kinds.Library),
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
	heap.AddRoot(vm)
	heap.AddRoot(classes)
	heap.AddRoot(reg)
	class.SetDeleteInvoker(vm.invokeDelete)
	return vm
}

// GCRoots implements gc.RootSet over the process-wide global table.
func (vm *VM) GCRoots(visit func(*gc.Cell)) {
	for _, c := range vm.Globals {
		visit(c)
	}
}

// NewCursor creates a cursor executing mod from its first instruction
// and registers it as a GC root. Callers (the scheduler) must call
// Release once the cursor finishes.
func (vm *VM) NewCursor(mod *module.Module) *Cursor {
	vm.adoptClasses(mod)
	cur := newCursor(vm, mod)
	vm.Heap.AddRoot(cur)
	return cur
}

// adoptClasses publishes mod's class records into the process-wide
// registry so dispatch sees them as soon as the module is in play,
// even before (or without) its register-class instructions running.
// Names already registered are kept — the module cache is write-once
// and first load wins; an explicit register-class instruction is the
// path that may replace a binding.
func (vm *VM) adoptClasses(mod *module.Module) {
	for name, c := range mod.Classes {
		if _, ok := vm.Classes.Lookup(name); !ok {
			vm.Classes.Register(c)
		}
	}
}

// Release drops cur's GC root registration, called once its call
// stack has emptied or exit-exec has propagated through it.
func (vm *VM) Release(cur *Cursor) {
	vm.Heap.RemoveRoot(cur)
}

// invokeDelete is installed via class.SetDeleteInvoker. It runs a
// bytecode-declared `delete` method under a private cursor so that
// user code failing during finalization cannot corrupt a concurrently
// running cursor's stack; failures are reported to Stderr and
// otherwise swallowed, since finalization has no caller to propagate
// to.
func (vm *VM) invokeDelete(cls *class.Class, inst gc.Data) {
	fn, ok := class.LookupOperator(cls, class.OpDelete)
	if !ok {
		return
	}
	entry, _, ok := fn.Dispatch(1)
	if !ok {
		return
	}
	if entry.IsNative() {
		priv := newPrivateCursor(vm)
		priv.PushData(inst)
		if err := entry.Native(priv, 1); err != nil {
			fmt.Fprintf(vm.Stderr, "delete on %s: %v\n", cls.Name(), err)
		}
		return
	}
	mod, err := vm.Registry.Resolve(entry.ModuleName)
	if err != nil {
		fmt.Fprintf(vm.Stderr, "delete on %s: %v\n", cls.Name(), err)
		return
	}
	priv := newPrivateCursor(vm)
	priv.Push(gc.NewCell(0, inst))
	priv.pushFrame(mod, entry.Offset, len(priv.Stack)-1)
	for {
		done, err := vm.Step(priv)
		if err != nil {
			fmt.Fprintf(vm.Stderr, "delete on %s: %v\n", cls.Name(), err)
			return
		}
		if done {
			return
		}
	}
}

func newPrivateCursor(vm *VM) *Cursor {
	cur := &Cursor{vm: vm, ID: uuid.New(), Blocked: -1}
	cur.Stack = make([]*gc.Cell, 0, 8)
	return cur
}
