// Package gc implements the reference/value model and the tracing
// garbage collector that owns every heap-allocated Data object
// reachable from a running program: a closed sum of data kinds held
// behind reference cells, collected by explicit mark-sweep over a set
// of process roots rather than by relying on the host runtime's own
// collector.
package gc

// Kind identifies the closed sum of data kinds a Cell may hold.
type Kind uint8

const (
	KindNone Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindObject
	KindFunction
	KindString
	KindArray
	KindHash
	KindIterator
	KindLibrary
	KindFixedInt
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	case KindIterator:
		return "iterator"
	case KindLibrary:
		return "library"
	case KindFixedInt:
		return "fixedint"
	default:
		return "unknown"
	}
}
