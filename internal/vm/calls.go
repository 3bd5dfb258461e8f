package vm

import (
	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
	"github.com/mint-lang/mint/internal/module"
)

// call implements the `call N` instruction: remove the callee from
// beneath its N arguments (it was pushed before them), resolve it
// against those arguments (packing a variadic tail into an iterator if
// needed), and either run a native handler inline or push a new call
// frame for bytecode. For a callable OBJECT, the receiver is inserted
// beneath its arguments and counted in the dispatch arity, the same
// convention every member call and `new` constructor uses.
func call(cur *Cursor, argc int) error {
	idx := len(cur.Stack) - 1 - argc
	callee := cur.Stack[idx]
	cur.Stack = append(cur.Stack[:idx], cur.Stack[idx+1:]...)
	return callCallee(cur, callee, argc)
}

// callCallee is the shared tail of OpCall and OpExitCall: the callee
// has already left the operand stack (popped directly or staged on
// the pending-call stack), its argc arguments remain on top.
func callCallee(cur *Cursor, callee *gc.Cell, argc int) error {
	d := callee.Data()
	if d == nil {
		return raiseString(cur, "call of none value")
	}

	switch fn := d.(type) {
	case *class.Function:
		entry, variadicFrom, ok := fn.Dispatch(argc)
		if !ok {
			return raiseString(cur, "no matching signature for %s/%d", fn.Name(), argc)
		}
		packVariadic(cur, argc, variadicFrom)
		return invoke(cur, entry, finalArgc(argc, variadicFrom), fn.Upvalues, nil)
	case *class.Instance:
		op, ok := class.LookupOperator(fn.ClassOf(), class.OpCall)
		if !ok {
			return raiseString(cur, "%s is not callable", fn.ClassOf().Name())
		}
		entry, variadicFrom, ok := op.Dispatch(argc + 1)
		if !ok {
			return raiseString(cur, "no matching () signature for %s/%d", fn.ClassOf().Name(), argc)
		}
		cur.Stack = insertAt(cur.Stack, len(cur.Stack)-argc, gc.NewCell(0, fn))
		total := argc + 1
		packVariadic(cur, total, variadicFrom)
		return invoke(cur, entry, finalArgc(total, variadicFrom), nil, nil)
	default:
		return raiseString(cur, "value of kind %v is not callable", d.Kind())
	}
}

func insertAt(stack []*gc.Cell, i int, c *gc.Cell) []*gc.Cell {
	stack = append(stack, nil)
	copy(stack[i+1:], stack[i:])
	stack[i] = c
	return stack
}

func finalArgc(argc, variadicFrom int) int {
	if variadicFrom == 0 {
		return argc
	}
	return variadicFrom
}

// packVariadic collapses the trailing argc-variadicFrom+1 arguments
// into a single iterator cell when the dispatch target is variadic.
// The receiver pushed beneath a callable-object's or constructor's
// arguments, if any, is untouched: it sits below the packed range.
func packVariadic(cur *Cursor, argc, variadicFrom int) {
	if variadicFrom == 0 {
		return
	}
	tailCount := argc - variadicFrom + 1
	start := len(cur.Stack) - tailCount
	tail := make([]*gc.Cell, tailCount)
	copy(tail, cur.Stack[start:])
	cur.Stack = cur.Stack[:start]
	arr := kinds.NewArray(tail)
	cur.vm.Heap.Alloc(arr)
	it := kinds.NewArrayIterator(arr)
	cur.vm.Heap.Alloc(it)
	cur.PushData(it)
}

// invoke runs entry with argc arguments already on the stack: either
// calling a native handler synchronously, or pushing a new frame for
// bytecode execution of the dispatch loop to continue into. selfCell
// is non-nil only for constructor dispatch (see construct below).
// A native handler's error is converted into an ordinary raise so
// retrieve points catch built-in failures the same as user ones.
func invoke(cur *Cursor, entry *class.Entry, argc int, upvalues []*gc.Cell, selfCell *gc.Cell) error {
	if entry.IsNative() {
		if err := entry.Native(cur, argc); err != nil {
			if _, ok := err.(*Unhandled); ok {
				return err
			}
			return raiseString(cur, "%v", err)
		}
		return nil
	}
	mod, err := resolveModule(cur, entry.ModuleName)
	if err != nil {
		return raiseString(cur, "%v", err)
	}
	base := len(cur.Stack) - argc
	f := cur.pushFrame(mod, entry.Offset, base)
	f.ConstructorSelf = selfCell
	for i, uv := range upvalues {
		f.Locals[mod.Symbol(i)] = uv
	}
	return nil
}

func resolveModule(cur *Cursor, name string) (*module.Module, error) {
	if name == "" {
		return cur.top().Module, nil
	}
	mod, err := cur.vm.Registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	cur.vm.adoptClasses(mod)
	return mod, nil
}

// construct implements `new C(args...)`: allocate an instance per c's
// member table (class.Construct), then invoke a matching `new` method
// against it if one is declared, with the instance itself inserted as
// the receiver beneath the constructor's own arguments and counted in
// the dispatch arity like any other member call.
func construct(cur *Cursor, c *class.Class, argc int) error {
	inst, entry, variadicFrom, hasCtor := class.Construct(c, argc+1)
	cur.vm.Heap.Alloc(inst)
	if !hasCtor {
		cur.Stack = cur.Stack[:len(cur.Stack)-argc]
		cur.PushData(inst)
		return nil
	}
	self := gc.NewCell(0, inst)
	cur.Stack = insertAt(cur.Stack, len(cur.Stack)-argc, self)
	total := argc + 1
	packVariadic(cur, total, variadicFrom)
	callArgc := finalArgc(total, variadicFrom)
	if entry.IsNative() {
		base := len(cur.Stack) - callArgc
		if err := invoke(cur, entry, callArgc, nil, nil); err != nil {
			return err
		}
		// A native constructor's own pushed result (if any) is
		// discarded; `new C(...)` always evaluates to the instance.
		cur.Stack = cur.Stack[:base]
		cur.Push(self)
		return nil
	}
	return invoke(cur, entry, callArgc, nil, self)
}
