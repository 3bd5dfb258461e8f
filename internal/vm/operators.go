package vm

import (
	"fmt"
	"math"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
)

// callOperator implements `OpCallOperator`: resolve name against the
// class of the deepest of argc operands already on the stack (the
// receiver), and either run the matching dispatch target or, for
// Number and Boolean (which register no Class()), compute the result
// with native Go arithmetic directly rather than going through the
// member-resolution machinery built for Array/Hash/String/Instance.
func callOperator(cur *Cursor, argc int, name string) error {
	if argc == 0 {
		return raiseString(cur, "operator %s called with no operands", name)
	}
	self := cur.peek(argc - 1)
	d := self.Data()
	if d == nil {
		return raiseString(cur, "operator %s on a none value", name)
	}

	if cm := d.Class(); cm != nil {
		cls, ok := cm.(*class.Class)
		if !ok {
			return raiseString(cur, "operator %s: unresolvable class metadata", name)
		}
		fn, ok := class.LookupOperator(cls, name)
		if !ok {
			return raiseString(cur, "%s has no operator %s", cls.Name(), name)
		}
		entry, variadicFrom, ok := fn.Dispatch(argc)
		if !ok {
			return raiseString(cur, "no matching %s/%d signature on %s", name, argc, cls.Name())
		}
		packVariadic(cur, argc, variadicFrom)
		return invoke(cur, entry, finalArgc(argc, variadicFrom), fn.Upvalues, nil)
	}

	result, err := numericOperator(name, argc, cur)
	if err != nil {
		return raiseString(cur, "%v", err)
	}
	cur.PushData(result)
	return nil
}

func numericOperator(name string, argc int, cur *Cursor) (gc.Data, error) {
	switch argc {
	case 1:
		return unaryOp(name, cur.Pop())
	case 2:
		b := cur.Pop()
		a := cur.Pop()
		return binaryOp(name, a, b)
	default:
		return nil, fmt.Errorf("operator %s does not accept %d operands", name, argc)
	}
}

func unaryOp(name string, a *gc.Cell) (gc.Data, error) {
	switch v := a.Data().(type) {
	case *kinds.Number:
		switch name {
		case class.OpNeg:
			if v.IsInt() {
				return kinds.NewInt(-v.AsInt()), nil
			}
			return kinds.NewNumber(-v.Float()), nil
		case class.OpPos:
			return v, nil
		case class.OpCompl:
			return kinds.NewInt(^v.AsInt()), nil
		case class.OpInc:
			if v.IsInt() {
				return kinds.NewInt(v.AsInt() + 1), nil
			}
			return kinds.NewNumber(v.Float() + 1), nil
		case class.OpDec:
			if v.IsInt() {
				return kinds.NewInt(v.AsInt() - 1), nil
			}
			return kinds.NewNumber(v.Float() - 1), nil
		}
	case *kinds.Boolean:
		if name == class.OpNot {
			return kinds.Bool(!bool(*v)), nil
		}
	}
	return nil, fmt.Errorf("no unary operator %s for this operand", name)
}

func binaryOp(name string, a, b *gc.Cell) (gc.Data, error) {
	if an, ok := a.Data().(*kinds.Number); ok {
		if bn, ok := b.Data().(*kinds.Number); ok {
			return numberBinary(name, an, bn)
		}
	}
	if ab, ok := a.Data().(*kinds.Boolean); ok {
		if bb, ok := b.Data().(*kinds.Boolean); ok {
			return booleanBinary(name, ab, bb)
		}
	}
	return nil, fmt.Errorf("mismatched operand kinds for operator %s", name)
}

func numberBinary(name string, a, b *kinds.Number) (gc.Data, error) {
	bothInt := a.IsInt() && b.IsInt()
	af, bf := a.Float(), b.Float()
	switch name {
	case class.OpAdd:
		if bothInt {
			return kinds.NewInt(a.AsInt() + b.AsInt()), nil
		}
		return kinds.NewNumber(af + bf), nil
	case class.OpSub:
		if bothInt {
			return kinds.NewInt(a.AsInt() - b.AsInt()), nil
		}
		return kinds.NewNumber(af - bf), nil
	case class.OpMul:
		if bothInt {
			return kinds.NewInt(a.AsInt() * b.AsInt()), nil
		}
		return kinds.NewNumber(af * bf), nil
	case class.OpDiv:
		if bf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return kinds.NewNumber(af / bf), nil
	case class.OpMod:
		if bf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		if bothInt {
			return kinds.NewInt(a.AsInt() % b.AsInt()), nil
		}
		return kinds.NewNumber(math.Mod(af, bf)), nil
	case class.OpPow:
		return kinds.NewNumber(math.Pow(af, bf)), nil
	case class.OpEq:
		return kinds.Bool(af == bf), nil
	case class.OpNe:
		return kinds.Bool(af != bf), nil
	case class.OpLt:
		return kinds.Bool(af < bf), nil
	case class.OpGt:
		return kinds.Bool(af > bf), nil
	case class.OpLe:
		return kinds.Bool(af <= bf), nil
	case class.OpGe:
		return kinds.Bool(af >= bf), nil
	case class.OpBAnd:
		return kinds.NewInt(a.AsInt() & b.AsInt()), nil
	case class.OpBOr:
		return kinds.NewInt(a.AsInt() | b.AsInt()), nil
	case class.OpXor:
		return kinds.NewInt(a.AsInt() ^ b.AsInt()), nil
	case class.OpShl:
		return kinds.NewInt(a.AsInt() << uint(b.AsInt())), nil
	case class.OpShr:
		return kinds.NewInt(a.AsInt() >> uint(b.AsInt())), nil
	default:
		return nil, fmt.Errorf("no numeric operator %s", name)
	}
}

func booleanBinary(name string, a, b *kinds.Boolean) (gc.Data, error) {
	switch name {
	case class.OpAnd:
		return kinds.Bool(bool(*a) && bool(*b)), nil
	case class.OpOr:
		return kinds.Bool(bool(*a) || bool(*b)), nil
	case class.OpEq:
		return kinds.Bool(bool(*a) == bool(*b)), nil
	case class.OpNe:
		return kinds.Bool(bool(*a) != bool(*b)), nil
	default:
		return nil, fmt.Errorf("no boolean operator %s", name)
	}
}

// truthy is the condition test OpJumpIfFalse/OpJumpIfTrue use: every
// value is truthy except null, none, and false itself.
func truthy(d gc.Data) bool {
	if d == nil || d == kinds.Null || d == kinds.None {
		return false
	}
	if b, ok := d.(*kinds.Boolean); ok {
		return bool(*b)
	}
	return true
}

// cloneInstance copies an object's member slots into a fresh instance,
// each new slot sharing the original slot's data (a shallow copy),
// backing OpCopy's class-copy protocol for the OBJECT kind.
func cloneInstance(heap *gc.Heap, inst *class.Instance) gc.Data {
	cls := inst.ClassOf()
	dup := class.NewInstance(cls)
	for _, name := range cls.MembersOf() {
		m, ok := cls.Resolve(name)
		if !ok {
			continue
		}
		dup.Slot(m.Offset).Clone(inst.Slot(m.Offset))
	}
	heap.Alloc(dup)
	return dup
}
