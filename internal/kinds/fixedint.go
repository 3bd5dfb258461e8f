package kinds

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/constraints"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// FixedInt is one of the eight fixed-width integer kinds, generic
// over its underlying Go width/signedness. Each instantiation wraps
// on overflow the way its underlying Go type does (two's complement
// for signed, modulo 2^n for unsigned) and registers its own class so
// `1i8 + 1i8` dispatches through Int8's own operator table, not a
// shared generic one.
type FixedInt[T constraints.Integer] struct {
	val T
}

func NewFixedInt[T constraints.Integer](v T) *FixedInt[T] { return &FixedInt[T]{val: v} }

func (f *FixedInt[T]) Kind() gc.Kind        { return gc.KindFixedInt }
func (f *FixedInt[T]) Hash() uint32         { return uint32(f.val) }
func (f *FixedInt[T]) Trace(func(*gc.Cell)) {}
func (f *FixedInt[T]) Value() T             { return f.val }

// Inspect always renders base 10; scripts pick other bases through
// the to-string operator.
func (f *FixedInt[T]) Inspect() string { return f.ToString(10) }

// ToString renders val in base 2, 8, 10, or 16, with the matching
// 0b/0o/0x prefix for any non-decimal base. The sign precedes the
// prefix, matching the conversion-from-string grammar (-0x2a).
func (f *FixedInt[T]) ToString(base int) string {
	neg := f.val < 0
	mag := uint64(f.val)
	if neg {
		mag = uint64(-int64(f.val))
	}
	digits := strconv.FormatUint(mag, base)
	var prefix string
	switch base {
	case 2:
		prefix = "0b"
	case 8:
		prefix = "0o"
	case 16:
		prefix = "0x"
	}
	if neg {
		return "-" + prefix + digits
	}
	return prefix + digits
}

// DigitAt returns the base-10 digit at position i counting from the
// least-significant digit (i=0), or 0 if i is beyond the number's
// width.
func (f *FixedInt[T]) DigitAt(i int) int {
	v := f.val
	if v < 0 {
		v = -v
	}
	for ; i > 0 && v != 0; i-- {
		v /= 10
	}
	if v == 0 {
		return 0
	}
	return int(v % 10)
}

type fixedIntClasses struct {
	Int8, Int16, Int32, Int64     *class.Class
	Uint8, Uint16, Uint32, Uint64 *class.Class
}

var FixedIntClasses fixedIntClasses

func buildFixedIntClass[T constraints.Integer](name string) *class.Class {
	c := class.New(name)
	c.SetMetatype(gc.KindFixedInt)

	class.RegisterOperator(c, class.OpAdd, class.Fixed(2), &class.Entry{Native: opFixedIntAdd[T]}, true)
	class.RegisterOperator(c, class.OpSub, class.Fixed(2), &class.Entry{Native: opFixedIntSub[T]}, true)
	class.RegisterOperator(c, class.OpMul, class.Fixed(2), &class.Entry{Native: opFixedIntMul[T]}, true)
	class.RegisterOperator(c, class.OpDiv, class.Fixed(2), &class.Entry{Native: opFixedIntDiv[T]}, true)
	class.RegisterOperator(c, class.OpMod, class.Fixed(2), &class.Entry{Native: opFixedIntMod[T]}, true)
	class.RegisterOperator(c, class.OpEq, class.Fixed(2), &class.Entry{Native: opFixedIntEq[T]}, true)
	class.RegisterOperator(c, class.OpNe, class.Fixed(2), &class.Entry{Native: opFixedIntNe[T]}, true)
	class.RegisterOperator(c, class.OpLt, class.Fixed(2), &class.Entry{Native: opFixedIntLt[T]}, true)
	class.RegisterOperator(c, class.OpLe, class.Fixed(2), &class.Entry{Native: opFixedIntLe[T]}, true)
	class.RegisterOperator(c, class.OpGt, class.Fixed(2), &class.Entry{Native: opFixedIntGt[T]}, true)
	class.RegisterOperator(c, class.OpGe, class.Fixed(2), &class.Entry{Native: opFixedIntGe[T]}, true)
	class.RegisterOperator(c, class.OpBAnd, class.Fixed(2), &class.Entry{Native: opFixedIntBAnd[T]}, true)
	class.RegisterOperator(c, class.OpBOr, class.Fixed(2), &class.Entry{Native: opFixedIntBOr[T]}, true)
	class.RegisterOperator(c, class.OpXor, class.Fixed(2), &class.Entry{Native: opFixedIntXor[T]}, true)
	class.RegisterOperator(c, class.OpShl, class.Fixed(2), &class.Entry{Native: opFixedIntShl[T]}, true)
	class.RegisterOperator(c, class.OpShr, class.Fixed(2), &class.Entry{Native: opFixedIntShr[T]}, true)
	class.RegisterOperator(c, class.OpCompl, class.Fixed(1), &class.Entry{Native: opFixedIntCompl[T]}, true)
	class.RegisterOperator(c, class.OpNeg, class.Fixed(1), &class.Entry{Native: opFixedIntNeg[T]}, true)
	class.RegisterOperator(c, class.OpSubscript, class.Fixed(2), &class.Entry{Native: opFixedIntDigit[T]}, true)
	class.RegisterOperator(c, "[]=", class.Fixed(3), &class.Entry{Native: opFixedIntSetDigit[T]}, true)
	class.RegisterOperator(c, "to-number", class.Fixed(1), &class.Entry{Native: opFixedIntToNumber[T]}, true)
	class.RegisterOperator(c, "to-string", class.Variadic(2), &class.Entry{Native: opFixedIntToString[T]}, true)
	return c
}

func init() {
	FixedIntClasses = fixedIntClasses{
		Int8:   buildFixedIntClass[int8]("Int8"),
		Int16:  buildFixedIntClass[int16]("Int16"),
		Int32:  buildFixedIntClass[int32]("Int32"),
		Int64:  buildFixedIntClass[int64]("Int64"),
		Uint8:  buildFixedIntClass[uint8]("Uint8"),
		Uint16: buildFixedIntClass[uint16]("Uint16"),
		Uint32: buildFixedIntClass[uint32]("Uint32"),
		Uint64: buildFixedIntClass[uint64]("Uint64"),
	}
}

func classFor[T constraints.Integer]() *class.Class {
	var zero T
	switch any(zero).(type) {
	case int8:
		return FixedIntClasses.Int8
	case int16:
		return FixedIntClasses.Int16
	case int32:
		return FixedIntClasses.Int32
	case int64:
		return FixedIntClasses.Int64
	case uint8:
		return FixedIntClasses.Uint8
	case uint16:
		return FixedIntClasses.Uint16
	case uint32:
		return FixedIntClasses.Uint32
	case uint64:
		return FixedIntClasses.Uint64
	default:
		return nil
	}
}

func (f *FixedInt[T]) Class() gc.ClassMeta { return classFor[T]() }

func asFixedInt[T constraints.Integer](c *gc.Cell) (*FixedInt[T], bool) {
	if c == nil || c.Data() == nil {
		return nil, false
	}
	v, ok := c.Data().(*FixedInt[T])
	return v, ok
}

func opFixedIntAdd[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val + b.val))
	return nil
}

func opFixedIntSub[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val - b.val))
	return nil
}

func opFixedIntMul[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val * b.val))
	return nil
}

func opFixedIntEq[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(Bool(a.val == b.val))
	return nil
}

func opFixedIntLt[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(Bool(a.val < b.val))
	return nil
}

// opFixedIntDigit implements [i]: the base-10 digit at position i.
func opFixedIntDigit[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	idx, _ := asNumber(args[1])
	cur.PushData(NewNumber(float64(a.DigitAt(int(idx)))))
	return nil
}

func opFixedIntDiv[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	if b.val == 0 {
		return &DivisionByZeroError{Op: "division"}
	}
	cur.PushData(NewFixedInt(a.val / b.val))
	return nil
}

func opFixedIntMod[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	if b.val == 0 {
		return &DivisionByZeroError{Op: "modulo"}
	}
	cur.PushData(NewFixedInt(a.val % b.val))
	return nil
}

func opFixedIntNe[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(Bool(a.val != b.val))
	return nil
}

func opFixedIntLe[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(Bool(a.val <= b.val))
	return nil
}

func opFixedIntGt[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(Bool(a.val > b.val))
	return nil
}

func opFixedIntGe[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(Bool(a.val >= b.val))
	return nil
}

func opFixedIntBAnd[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val & b.val))
	return nil
}

func opFixedIntBOr[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val | b.val))
	return nil
}

func opFixedIntXor[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val ^ b.val))
	return nil
}

func opFixedIntShl[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val << uint64(b.val)))
	return nil
}

func opFixedIntShr[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	b, _ := asFixedInt[T](args[1])
	cur.PushData(NewFixedInt(a.val >> uint64(b.val)))
	return nil
}

func opFixedIntCompl[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	a, _ := asFixedInt[T](args[0])
	cur.PushData(NewFixedInt(^a.val))
	return nil
}

func opFixedIntNeg[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	a, _ := asFixedInt[T](args[0])
	cur.PushData(NewFixedInt(-a.val))
	return nil
}

// opFixedIntSetDigit implements v[i] = d: rewrite the base-10 digit at
// position i. The receiver mutates in place, writing through its cell.
func opFixedIntSetDigit[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 3)
	a, _ := asFixedInt[T](args[0])
	idx, _ := asNumber(args[1])
	digit, _ := asNumber(args[2])
	if digit < 0 || digit > 9 {
		return fmt.Errorf("digit %v out of range 0..9", digit)
	}
	a.SetDigitAt(int(idx), int(digit))
	cur.PushData(a)
	return nil
}

func opFixedIntToNumber[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	a, _ := asFixedInt[T](args[0])
	cur.PushData(NewNumber(float64(a.val)))
	return nil
}

// opFixedIntToString implements to-string(self, base...): render in
// the requested base, defaulting to 10 when the variadic tail is
// empty.
func opFixedIntToString[T constraints.Integer](cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	a, _ := asFixedInt[T](args[0])
	base := 10
	if it, ok := args[1].Data().(*Iterator); ok && it.HasNext() {
		v, _ := it.Next()
		if n, ok := v.(*Number); ok {
			base = int(n.Float())
		}
	}
	cur.PushData(NewString(a.ToString(base)))
	return nil
}

// SetDigitAt rewrites the base-10 digit at position i (0 = least
// significant), preserving the sign.
func (f *FixedInt[T]) SetDigitAt(i, digit int) {
	pow := T(1)
	for k := 0; k < i; k++ {
		pow *= 10
	}
	neg := f.val < 0
	v := f.val
	if neg {
		v = -v
	}
	old := v / pow % 10
	v += T(digit-int(old)) * pow
	if neg {
		v = -v
	}
	f.val = v
}

// ParseFixedInt converts a string to a fixed-width integer, accepting
// 0b, 0o, and 0x prefixes; the default base is 10. The sign, if any,
// precedes the prefix.
func ParseFixedInt[T constraints.Integer](s string) (T, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'b', 'B':
			base, s = 2, s[2:]
		case 'o', 'O':
			base, s = 8, s[2:]
		case 'x', 'X':
			base, s = 16, s[2:]
		}
	}
	mag, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q: %w", s, err)
	}
	v := T(mag)
	if neg {
		v = -v
	}
	return v, nil
}

// DivisionByZeroError is raised for integer division or modulo by
// zero; the two carry distinct messages.
type DivisionByZeroError struct{ Op string }

func (e *DivisionByZeroError) Error() string { return e.Op + " by zero" }
