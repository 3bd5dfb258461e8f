package vm

import (
	"fmt"
	"io"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
	"github.com/mint-lang/mint/internal/module"
	"github.com/mint-lang/mint/internal/printer"
)

// Step executes exactly one bytecode instruction against cur. It
// returns done=true once cur's call stack has emptied, OpExit or
// OpHalt ran, or an unhandled exception terminated it — any of which
// means the scheduler should stop driving this cursor. A non-nil err
// alongside done=false never happens; err is only set on the same step
// that finishes the cursor.
func (vm *VM) Step(cur *Cursor) (done bool, err error) {
	if cur.Finished {
		return true, nil
	}
	f := cur.top()
	if f == nil {
		cur.Finished = true
		return true, nil
	}
	if f.IP >= len(f.Module.Instructions) {
		return vm.execReturn(cur)
	}

	instr := f.Module.Instructions[f.IP]
	f.IP++

	switch instr.Op {
	case module.OpNop:

	case module.OpPushConst:
		if instr.A < 0 || instr.A >= len(f.Module.Constants) {
			return vm.fail(cur, "constant index %d out of range in %s", instr.A, f.Module.Name)
		}
		cur.Push(gc.NewCell(0, f.Module.Constants[instr.A]))
	case module.OpPushNone:
		cur.Push(gc.NewCell(0, kinds.None))
	case module.OpPushNull:
		cur.Push(gc.NewCell(0, kinds.Null))
	case module.OpPushTrue:
		cur.PushData(kinds.Bool(true))
	case module.OpPushFalse:
		cur.PushData(kinds.Bool(false))
	case module.OpPop:
		cur.Pop()
	case module.OpDup:
		top := cur.peek(0)
		cur.Push(gc.NewCell(top.Flags(), top.Data()))

	case module.OpDeclareLocal:
		name := f.Module.Symbol(instr.A)
		if _, exists := f.Locals[name]; exists {
			return vm.fail(cur, "%s is already defined", name)
		}
		val := cur.Pop()
		f.Locals[name] = gc.NewCell(gc.Flag(instr.B), val.Data())
	case module.OpDeclareGlobal:
		name := f.Module.Symbol(instr.A)
		if _, exists := cur.vm.Globals[name]; exists {
			return vm.fail(cur, "%s is already defined", name)
		}
		val := cur.Pop()
		cur.vm.Globals[name] = gc.NewCell(gc.Flag(instr.B), val.Data())

	case module.OpLoadLocal, module.OpLoadUpvalue:
		name := f.Module.Symbol(instr.A)
		cell, ok := f.Locals[name]
		if !ok {
			return vm.fail(cur, "undefined variable %s", name)
		}
		cur.Push(cell)
	case module.OpStoreLocal, module.OpStoreUpvalue:
		name := f.Module.Symbol(instr.A)
		cell, ok := f.Locals[name]
		if !ok {
			return vm.fail(cur, "undefined variable %s", name)
		}
		val := cur.Pop()
		if cell.Flags().Has(gc.ConstValue) {
			return vm.fail(cur, "cannot assign to const %s", name)
		}
		cell.Set(val.Data())
		cur.Push(val)
	case module.OpLoadGlobal:
		name := f.Module.Symbol(instr.A)
		cell, ok := cur.vm.Globals[name]
		if !ok {
			return vm.fail(cur, "undefined global %s", name)
		}
		cur.Push(cell)
	case module.OpStoreGlobal:
		name := f.Module.Symbol(instr.A)
		cell, ok := cur.vm.Globals[name]
		if !ok {
			return vm.fail(cur, "undefined global %s", name)
		}
		val := cur.Pop()
		if cell.Flags().Has(gc.ConstValue) {
			return vm.fail(cur, "cannot assign to const %s", name)
		}
		cell.Set(val.Data())
		cur.Push(val)

	case module.OpLoadMember:
		name := f.Module.Symbol(instr.A)
		self := cur.Pop()
		inst, ok := asInstance(self.Data())
		if !ok {
			return vm.fail(cur, "%s has no members", kindName(self.Data()))
		}
		m, ok := inst.ClassOf().Resolve(name)
		if !ok {
			return vm.fail(cur, "%s has no member %s", inst.ClassOf().Name(), name)
		}
		cur.Push(inst.Slot(m.Offset))
	case module.OpStoreMember:
		name := f.Module.Symbol(instr.A)
		val := cur.Pop()
		self := cur.Pop()
		inst, ok := asInstance(self.Data())
		if !ok {
			return vm.fail(cur, "%s has no members", kindName(self.Data()))
		}
		m, ok := inst.ClassOf().Resolve(name)
		if !ok {
			return vm.fail(cur, "%s has no member %s", inst.ClassOf().Name(), name)
		}
		if m.Flags.Has(gc.ConstValue) {
			return vm.fail(cur, "cannot assign to const member %s", name)
		}
		inst.Slot(m.Offset).Set(val.Data())
		cur.Push(val)
	case module.OpMembersOf:
		self := cur.Pop()
		inst, ok := asInstance(self.Data())
		if !ok {
			return vm.fail(cur, "%s has no members", kindName(self.Data()))
		}
		names := inst.ClassOf().MembersOf()
		elems := make([]*gc.Cell, len(names))
		for i, n := range names {
			s := kinds.NewString(n)
			cur.vm.Heap.Alloc(s)
			elems[i] = gc.NewCell(0, s)
		}
		cur.PushData(kinds.NewArray(elems))

	case module.OpClone:
		src := cur.Pop()
		dst := cur.Pop()
		dst.Clone(src)
		cur.Push(dst)
	case module.OpCopy:
		src := cur.Pop()
		dst := cur.Pop()
		if err := dst.Copy(src, func(d gc.Data) gc.Data {
			inst, ok := d.(*class.Instance)
			if !ok {
				return d
			}
			return cloneInstance(cur.vm.Heap, inst)
		}); err != nil {
			return vm.fail(cur, "%v", err)
		}
		cur.Push(dst)
	case module.OpMove:
		src := cur.Pop()
		dst := cur.Pop()
		if err := dst.Move(src); err != nil {
			return vm.fail(cur, "%v", err)
		}
		cur.Push(dst)
	case module.OpWeakShare:
		src := cur.Pop()
		dst := cur.Pop()
		dst.Clone(gc.WeakShare(src))
		cur.Push(dst)

	case module.OpJump:
		f.IP = instr.A
	case module.OpJumpIfFalse:
		v := cur.Pop()
		if !truthy(v.Data()) {
			f.IP = instr.A
		}
	case module.OpJumpIfTrue:
		v := cur.Pop()
		if truthy(v.Data()) {
			f.IP = instr.A
		}

	case module.OpCall:
		if err := call(cur, instr.A); err != nil {
			return cur.Finished, err
		}
	case module.OpCallOperator:
		name := f.Module.Symbol(instr.B)
		if err := callOperator(cur, instr.A, name); err != nil {
			return cur.Finished, err
		}
	case module.OpInitCall:
		cur.Pending = append(cur.Pending, &PendingCall{
			Callee: cur.Pop(),
			Member: instr.B != 0,
		})
	case module.OpExitCall:
		if len(cur.Pending) == 0 {
			return vm.fail(cur, "exit-call with no pending call")
		}
		pending := cur.Pending[len(cur.Pending)-1]
		cur.Pending = cur.Pending[:len(cur.Pending)-1]
		if err := callCallee(cur, pending.Callee, instr.A); err != nil {
			return cur.Finished, err
		}
	case module.OpReturn:
		return vm.execReturn(cur)

	case module.OpRegisterClass:
		name := f.Module.Symbol(instr.A)
		cls, ok := f.Module.Classes[name]
		if !ok {
			return vm.fail(cur, "module %s carries no class %s", f.Module.Name, name)
		}
		cur.vm.Classes.Register(cls)

	case module.OpNew:
		name := f.Module.Symbol(instr.A)
		cls, ok := cur.vm.Classes.Lookup(name)
		if !ok {
			return vm.fail(cur, "undefined class %s", name)
		}
		if err := construct(cur, cls, instr.B); err != nil {
			return cur.Finished, err
		}

	case module.OpPushRetrieve:
		cur.Retrieve = append(cur.Retrieve, &RetrievePoint{
			StackDepth:   len(cur.Stack),
			FrameDepth:   len(cur.Frames),
			PendingDepth: len(cur.Pending),
			IP:           instr.A,
		})
	case module.OpPopRetrieve:
		if len(cur.Retrieve) > 0 {
			cur.Retrieve = cur.Retrieve[:len(cur.Retrieve)-1]
		}
	case module.OpRaise:
		val := cur.Pop()
		if err := raise(cur, val); err != nil {
			return cur.Finished, err
		}

	case module.OpMakeArray:
		elems := make([]*gc.Cell, instr.A)
		start := len(cur.Stack) - instr.A
		copy(elems, cur.Stack[start:])
		cur.Stack = cur.Stack[:start]
		cur.PushData(kinds.NewArray(elems))
	case module.OpMakeHash:
		cur.PushData(kinds.NewHash())

	case module.OpMakeClosure:
		if instr.A < 0 || instr.A >= len(f.Module.Constants) {
			return vm.fail(cur, "constant index %d out of range in %s", instr.A, f.Module.Name)
		}
		proto, ok := f.Module.Constants[instr.A].(*class.Function)
		if !ok {
			return vm.fail(cur, "closure constant is not a function prototype")
		}
		upvalues := make([]*gc.Cell, instr.B)
		start := len(cur.Stack) - instr.B
		copy(upvalues, cur.Stack[start:])
		cur.Stack = cur.Stack[:start]
		cur.PushData(proto.Closure(upvalues))

	case module.OpYield:
		cur.Yielded = true
	case module.OpSpawn:
		callee := cur.Pop()
		fn, ok := callee.Data().(*class.Function)
		if !ok {
			return vm.fail(cur, "spawn target is not a function")
		}
		entry, variadicFrom, ok := fn.Dispatch(instr.A)
		if !ok {
			return vm.fail(cur, "no matching signature for spawned %s/%d", fn.Name(), instr.A)
		}
		if entry.IsNative() {
			return vm.fail(cur, "cannot spawn a native function")
		}
		mod, err := cur.vm.Registry.Resolve(entry.ModuleName)
		if err != nil {
			if entry.ModuleName == "" {
				mod = f.Module
			} else {
				return vm.fail(cur, "%v", err)
			}
		}
		spawned := cur.vm.NewCursor(mod)
		spawned.Frames[0].IP = entry.Offset
		argc := instr.A
		start := len(cur.Stack) - argc
		args := make([]*gc.Cell, argc)
		copy(args, cur.Stack[start:])
		cur.Stack = cur.Stack[:start]
		spawned.Stack = append(spawned.Stack, args...)
		_ = variadicFrom
		cur.vm.Spawned = append(cur.vm.Spawned, spawned)

	case module.OpLibraryCall:
		path := f.Module.Symbol(instr.A)
		if err := libraryCall(cur, path, instr.B); err != nil {
			return cur.Finished, err
		}

	case module.OpRange:
		endCell := cur.Pop()
		startCell := cur.Pop()
		endN, ok1 := endCell.Data().(*kinds.Number)
		startN, ok2 := startCell.Data().(*kinds.Number)
		if !ok1 || !ok2 {
			return vm.fail(cur, "range operands must be numbers")
		}
		cur.PushData(kinds.NewRangeIterator(startN.Float(), endN.Float(), instr.B != 0))

	case module.OpTypeOf:
		v := cur.Pop()
		cur.PushData(kinds.NewString(kindName(v.Data())))
	case module.OpIs:
		name := f.Module.Symbol(instr.A)
		v := cur.Pop()
		cur.PushData(kinds.Bool(isKind(v.Data(), name)))

	case module.OpOpenPrinter:
		f.Printers = append(f.Printers, printer.NewCapture())
	case module.OpClosePrinter:
		if len(f.Printers) == 0 {
			return vm.fail(cur, "no open printer to close")
		}
		w := f.Printers[len(f.Printers)-1]
		f.Printers = f.Printers[:len(f.Printers)-1]
		if capture, ok := w.(*printer.Capture); ok {
			cur.PushData(kinds.NewString(capture.String()))
		} else {
			if s, ok := w.(printer.Sink); ok {
				s.Flush()
			}
			cur.Push(gc.NewCell(0, kinds.None))
		}
	case module.OpPrint:
		v := cur.Pop()
		fmt.Fprint(activePrinter(cur, f), inspectText(v.Data()))

	case module.OpExit:
		status := cur.Pop()
		if n, ok := status.Data().(*kinds.Number); ok {
			cur.ExitCode = int(n.AsInt())
		}
		cur.ExitRequested = instr.B != 0
		cur.Finished = true
		return true, nil

	case module.OpLoadVarSymbol:
		nameCell := cur.Pop()
		s, ok := nameCell.Data().(*kinds.String)
		if !ok {
			return vm.fail(cur, "computed symbol name must be a string")
		}
		name := s.String()
		if cell, ok := f.Locals[name]; ok {
			cur.Push(cell)
		} else if cell, ok := cur.vm.Globals[name]; ok {
			cur.Push(cell)
		} else {
			return vm.fail(cur, "undefined symbol %s", name)
		}

	case module.OpFindDefinedLocal:
		name := f.Module.Symbol(instr.A)
		if cell, ok := f.Locals[name]; ok {
			cur.Push(cell)
		} else if cell, ok := cur.vm.Globals[name]; ok {
			cur.Push(cell)
		} else {
			cur.Push(gc.NewCell(0, kinds.None))
		}
	case module.OpFindDefinedMember:
		name := f.Module.Symbol(instr.A)
		self := cur.Pop()
		inst, ok := asInstance(self.Data())
		if !ok {
			cur.Push(gc.NewCell(0, kinds.None))
			break
		}
		m, ok := inst.ClassOf().Resolve(name)
		if !ok {
			cur.Push(gc.NewCell(0, kinds.None))
			break
		}
		cur.Push(inst.Slot(m.Offset))
	case module.OpCheckDefined:
		v := cur.Pop()
		cur.PushData(kinds.Bool(v.Data() != kinds.None))

	case module.OpHalt:
		cur.Finished = true
		return true, nil

	default:
		return vm.fail(cur, "unimplemented opcode %d", instr.Op)
	}

	return false, nil
}

// execReturn pops the return value (or substitutes a running
// constructor's receiver), truncates back to the frame's entry point,
// and pushes the result for the caller.
func (vm *VM) execReturn(cur *Cursor) (bool, error) {
	f := cur.top()
	var ret *gc.Cell
	if len(cur.Stack) > f.StackBase {
		ret = cur.Pop()
	} else {
		ret = gc.NewCell(0, kinds.None)
	}
	if f.ConstructorSelf != nil {
		ret = f.ConstructorSelf
	}
	cur.Stack = cur.Stack[:f.StackBase]
	cur.Frames = cur.Frames[:len(cur.Frames)-1]
	cur.Push(ret)
	if len(cur.Frames) == 0 {
		cur.Finished = true
		return true, nil
	}
	return false, nil
}

// fail raises a host-described error as an ordinary script value and
// reports whether that left the cursor finished (no retrieve point).
func (vm *VM) fail(cur *Cursor, format string, args ...interface{}) (bool, error) {
	err := raiseString(cur, format, args...)
	return cur.Finished, err
}

func kindName(d gc.Data) string {
	if d == nil {
		return "none"
	}
	if cm := d.Class(); cm != nil {
		return cm.Name()
	}
	return d.Kind().String()
}

func isKind(d gc.Data, name string) bool {
	if d == nil {
		return false
	}
	cm := d.Class()
	if cm == nil {
		return d.Kind().String() == name
	}
	cls, ok := cm.(*class.Class)
	if !ok {
		return cm.Name() == name
	}
	return classIsOrInherits(cls, name)
}

func classIsOrInherits(cls *class.Class, name string) bool {
	if cls.Name() == name {
		return true
	}
	for _, base := range cls.Bases() {
		if classIsOrInherits(base, name) {
			return true
		}
	}
	return false
}

func inspectText(d gc.Data) string {
	if d == nil {
		return "none"
	}
	return d.Inspect()
}

// activePrinter resolves OpPrint's destination: the innermost open
// printer anywhere on the call stack (so a nested call still writes
// into a capture block its caller opened), falling back to the
// cursor's own stdout sink.
func activePrinter(cur *Cursor, f *Frame) io.Writer {
	for i := len(cur.Frames) - 1; i >= 0; i-- {
		fr := cur.Frames[i]
		if len(fr.Printers) > 0 {
			return fr.Printers[len(fr.Printers)-1]
		}
	}
	return cur.vm.Stdout
}
