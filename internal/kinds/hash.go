package kinds

import (
	"sort"
	"strings"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// Hash is the HASH data kind: an associative map whose entries are
// kept in a total order over keys, so iteration is deterministic.
type Hash struct {
	keys []*gc.Cell
	vals []*gc.Cell
}

func NewHash() *Hash { return &Hash{} }

func (h *Hash) Kind() gc.Kind       { return gc.KindHash }
func (h *Hash) Class() gc.ClassMeta { return hashClass }
func (h *Hash) Hash() uint32 {
	acc := uint32(0)
	for i := range h.keys {
		acc ^= h.keys[i].Data().Hash() ^ (h.vals[i].Data().Hash() * 31)
	}
	return acc
}
func (h *Hash) Trace(visit func(*gc.Cell)) {
	for i := range h.keys {
		visit(h.keys[i])
		visit(h.vals[i])
	}
}
func (h *Hash) Inspect() string {
	var sb strings.Builder
	sb.WriteString("%{")
	for i := range h.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(h.keys[i].Data().Inspect())
		sb.WriteString(" => ")
		sb.WriteString(h.vals[i].Data().Inspect())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (h *Hash) Len() int { return len(h.keys) }

// keyLess is the total order over keys: kinds are ranked first (so a
// number never has to compare against a string's text, which would
// break transitivity), then same-kind keys compare by value — numbers
// numerically, strings by byte ordering, booleans false-before-true,
// anything else by its Inspect text as a stable fallback.
func keyLess(a, b gc.Data) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	switch av := a.(type) {
	case *Number:
		return av.value < b.(*Number).value
	case *String:
		return av.Compare(b.(*String)) < 0
	case *Boolean:
		return !bool(*av) && bool(*b.(*Boolean))
	default:
		return a.Inspect() < b.Inspect()
	}
}

func keyEqual(a, b gc.Data) bool {
	return !keyLess(a, b) && !keyLess(b, a)
}

func (h *Hash) search(key gc.Data) (int, bool) {
	i := sort.Search(len(h.keys), func(i int) bool {
		return !keyLess(h.keys[i].Data(), key)
	})
	if i < len(h.keys) && keyEqual(h.keys[i].Data(), key) {
		return i, true
	}
	return i, false
}

func (h *Hash) Get(key gc.Data) (*gc.Cell, bool) {
	i, ok := h.search(key)
	if !ok {
		return nil, false
	}
	return h.vals[i], true
}

// Insert finds or creates the slot for key, per the "subscript
// inserts a fresh none-valued slot if absent" convention, and returns
// the value cell.
func (h *Hash) Insert(key *gc.Cell) *gc.Cell {
	i, ok := h.search(key.Data())
	if ok {
		return h.vals[i]
	}
	val := gc.NewCell(0, None)
	h.keys = append(h.keys, nil)
	h.vals = append(h.vals, nil)
	copy(h.keys[i+1:], h.keys[i:])
	copy(h.vals[i+1:], h.vals[i:])
	h.keys[i] = key
	h.vals[i] = val
	return val
}

func (h *Hash) Keys() []*gc.Cell   { return h.keys }
func (h *Hash) Values() []*gc.Cell { return h.vals }

var hashClass = buildHashClass()

func buildHashClass() *class.Class {
	c := class.New("Hash")
	c.SetMetatype(gc.KindHash)

	class.RegisterOperator(c, class.OpSubscript, class.Fixed(2), &class.Entry{Native: opHashSubscript}, true)
	class.RegisterOperator(c, "len", class.Fixed(1), &class.Entry{Native: opHashLen}, true)
	return c
}

func asHash(c *gc.Cell) (*Hash, bool) {
	if c == nil || c.Data() == nil {
		return nil, false
	}
	h, ok := c.Data().(*Hash)
	return h, ok
}

// opHashSubscript implements Hash[key]: insert-and-return-fresh-slot
// semantics, so `h[key] = x` through a store instruction both creates
// and populates a missing key.
func opHashSubscript(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 2)
	ha, _ := asHash(args[0])
	cur.Push(ha.Insert(args[1]))
	return nil
}

func opHashLen(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 1)
	ha, _ := asHash(args[0])
	cur.PushData(NewNumber(float64(ha.Len())))
	return nil
}
