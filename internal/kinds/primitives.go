package kinds

import (
	"math"
	"strconv"

	"github.com/mint-lang/mint/internal/gc"
)

// Number is the NUMBER data kind: an IEEE-754 double. isInt tracks
// whether the value originated from an integer literal/operation so
// to-string round-trips exactly for whole-number results; it never
// changes NUMBER's underlying double representation.
type Number struct {
	value float64
	isInt bool
}

func NewNumber(v float64) *Number { return &Number{value: v} }
func NewInt(v int64) *Number      { return &Number{value: float64(v), isInt: true} }
func (n *Number) IsInt() bool     { return n.isInt }
func (n *Number) AsInt() int64    { return int64(n.value) }
func (n *Number) Float() float64  { return n.value }

func (n *Number) Kind() gc.Kind       { return gc.KindNumber }
func (n *Number) Class() gc.ClassMeta { return nil }
func (n *Number) Hash() uint32 {
	bits := math.Float64bits(n.value)
	return uint32(bits ^ (bits >> 32))
}
func (n *Number) Trace(func(*gc.Cell)) {}
func (n *Number) Inspect() string {
	if n.isInt {
		return strconv.FormatInt(n.AsInt(), 10)
	}
	return strconv.FormatFloat(n.value, 'g', -1, 64)
}

func asNumber(c *gc.Cell) (float64, bool) {
	if c == nil || c.Data() == nil {
		return 0, false
	}
	n, ok := c.Data().(*Number)
	if !ok {
		return 0, false
	}
	return n.value, true
}

// Boolean is the BOOLEAN data kind.
type Boolean bool

func Bool(v bool) *Boolean { b := Boolean(v); return &b }

func (b *Boolean) Kind() gc.Kind       { return gc.KindBoolean }
func (b *Boolean) Class() gc.ClassMeta { return nil }
func (b *Boolean) Hash() uint32 {
	if *b {
		return 1
	}
	return 0
}
func (b *Boolean) Trace(func(*gc.Cell)) {}
func (b *Boolean) Inspect() string {
	if *b {
		return "true"
	}
	return "false"
}

// Null is the explicit NULL value; None is the absent/uninitialized
// NONE value a freshly declared reference starts as.
type nullData struct{}
type noneData struct{}

var Null gc.Data = &nullData{}
var None gc.Data = &noneData{}

func (*nullData) Kind() gc.Kind        { return gc.KindNull }
func (*nullData) Class() gc.ClassMeta  { return nil }
func (*nullData) Inspect() string      { return "null" }
func (*nullData) Hash() uint32         { return 0 }
func (*nullData) Trace(func(*gc.Cell)) {}

func (*noneData) Kind() gc.Kind        { return gc.KindNone }
func (*noneData) Class() gc.ClassMeta  { return nil }
func (*noneData) Inspect() string      { return "none" }
func (*noneData) Hash() uint32         { return 0 }
func (*noneData) Trace(func(*gc.Cell)) {}
