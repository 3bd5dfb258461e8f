// Package kinds implements the built-in data kinds (String, Array,
// Hash, Iterator, the eight fixed-width integer types, and the
// Library handle) and their operator registrations.
package kinds

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// String is a UTF-8 buffer with codepoint-aware indexing and length.
type String struct {
	bytes []byte
}

func NewString(s string) *String { return &String{bytes: []byte(s)} }

func (s *String) Kind() gc.Kind        { return gc.KindString }
func (s *String) Class() gc.ClassMeta  { return stringClass }
func (s *String) Inspect() string      { return string(s.bytes) }
func (s *String) Hash() uint32         { return fnv32(s.bytes) }
func (s *String) Trace(func(*gc.Cell)) {}

func (s *String) String() string { return string(s.bytes) }

// Len returns the codepoint count, not the byte count.
func (s *String) Len() int { return utf8.RuneCount(s.bytes) }

// At returns the codepoint at a UTF-8-aware index. Negative indices
// count from the end, the same convention Array uses.
func (s *String) At(idx int) (rune, bool) {
	runes := []rune(string(s.bytes))
	if idx < 0 {
		idx += len(runes)
	}
	if idx < 0 || idx >= len(runes) {
		return 0, false
	}
	return runes[idx], true
}

func (s *String) Concat(other *String) *String {
	out := make([]byte, 0, len(s.bytes)+len(other.bytes))
	out = append(out, s.bytes...)
	out = append(out, other.bytes...)
	return &String{bytes: out}
}

// Compare implements byte-lex ordering on well-formed UTF-8.
func (s *String) Compare(other *String) int {
	return strings.Compare(string(s.bytes), string(other.bytes))
}

func fnv32(b []byte) uint32 {
	h := uint32(2166136261)
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}

var stringClass = buildStringClass()

func buildStringClass() *class.Class {
	c := class.New("String")
	c.SetMetatype(gc.KindString)

	class.RegisterOperator(c, class.OpAdd, class.Fixed(2), &class.Entry{Native: opStringConcat}, true)
	class.RegisterOperator(c, class.OpEq, class.Fixed(2), &class.Entry{Native: opStringEq}, true)
	class.RegisterOperator(c, class.OpNe, class.Fixed(2), &class.Entry{Native: opStringNe}, true)
	class.RegisterOperator(c, class.OpLt, class.Fixed(2), &class.Entry{Native: opStringLt}, true)
	class.RegisterOperator(c, class.OpLe, class.Fixed(2), &class.Entry{Native: opStringLe}, true)
	class.RegisterOperator(c, class.OpGt, class.Fixed(2), &class.Entry{Native: opStringGt}, true)
	class.RegisterOperator(c, class.OpGe, class.Fixed(2), &class.Entry{Native: opStringGe}, true)
	class.RegisterOperator(c, class.OpSubscript, class.Fixed(2), &class.Entry{Native: opStringSubscript}, true)
	class.RegisterOperator(c, "%", class.Fixed(2), &class.Entry{Native: opStringFormat}, true)
	class.RegisterOperator(c, "len", class.Fixed(1), &class.Entry{Native: opStringLen}, true)
	return c
}

func asString(c *gc.Cell) (*String, bool) {
	if c == nil || c.Data() == nil {
		return nil, false
	}
	s, ok := c.Data().(*String)
	return s, ok
}

func opStringConcat(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(sa.Concat(sb))
	return nil
}

func opStringEq(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(Bool(sa.Compare(sb) == 0))
	return nil
}

func opStringNe(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(Bool(sa.Compare(sb) != 0))
	return nil
}

func opStringLt(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(Bool(sa.Compare(sb) < 0))
	return nil
}

func opStringLe(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(Bool(sa.Compare(sb) <= 0))
	return nil
}

func opStringGt(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(Bool(sa.Compare(sb) > 0))
	return nil
}

func opStringGe(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	sb, _ := asString(args[1])
	cur.PushData(Bool(sa.Compare(sb) >= 0))
	return nil
}

func opStringLen(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	sa, _ := asString(args[0])
	cur.PushData(NewNumber(float64(sa.Len())))
	return nil
}

// opStringSubscript implements String[i]: UTF-8-aware indexing with an
// index in -len..len-1, raising on out-of-range, the same convention
// Array's subscript operator uses.
func opStringSubscript(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])
	idx, _ := asNumber(args[1])
	r, ok := sa.At(int(idx))
	if !ok {
		return &IndexError{Index: int(idx), Len: sa.Len()}
	}
	cur.PushData(NewString(string(r)))
	return nil
}

// opStringFormat implements the `%` printf-style operator: fmt % args,
// where args is an Array of values. Uses the reimplemented engine in
// format.go, never Go's fmt.Sprintf directly on the user format string.
func opStringFormat(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	sa, _ := asString(args[0])

	var rendered []interface{}
	if arr, ok := args[1].Data().(*Array); ok {
		for _, c := range arr.elems {
			rendered = append(rendered, toFormatArg(c))
		}
	} else {
		rendered = append(rendered, toFormatArg(args[1]))
	}

	out, err := Sprintf(sa.String(), rendered)
	if err != nil {
		return err
	}
	cur.PushData(NewString(out))
	return nil
}

func toFormatArg(c *gc.Cell) interface{} {
	if c == nil || c.Data() == nil {
		return nil
	}
	switch d := c.Data().(type) {
	case *Number:
		if d.IsInt() {
			return d.AsInt()
		}
		return d.value
	case *String:
		return d.String()
	case *Boolean:
		return bool(*d)
	default:
		return d.Inspect()
	}
}

// IndexError is raised for any built-in kind's out-of-range subscript.
type IndexError struct {
	Index, Len int
}

func (e *IndexError) Error() string {
	return "index " + strconv.Itoa(e.Index) + " out of range for length " + strconv.Itoa(e.Len)
}
