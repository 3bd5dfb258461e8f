package class

import "github.com/mint-lang/mint/internal/gc"

// Operator names built-in kinds register at class-construction time,
// and which user classes may define identically to overload them.
const (
	OpAdd       = "+"
	OpSub       = "-"
	OpMul       = "*"
	OpDiv       = "/"
	OpMod       = "%"
	OpPow       = "**"
	OpEq        = "=="
	OpNe        = "!="
	OpLt        = "<"
	OpGt        = ">"
	OpLe        = "<="
	OpGe        = ">="
	OpAnd       = "&&"
	OpOr        = "||"
	OpBAnd      = "&"
	OpBOr       = "|"
	OpXor       = "^"
	OpShl       = "<<"
	OpShr       = ">>"
	OpCompl     = "~"
	OpNeg       = "neg"
	OpPos       = "pos"
	OpNot       = "!"
	OpInc       = "++"
	OpDec       = "--"
	OpSubscript = "[]"
	OpCall      = "()"
	OpIn        = "in"
	OpAssign    = ":="
	OpNew       = "new"
	OpDelete    = "delete"
)

// RegisterOperator attaches a native- or bytecode-backed signature to
// name on c, creating the member's Function value if this is the
// first overload registered under that name.
func RegisterOperator(c *Class, name string, sig Signature, entry *Entry, builtin bool) {
	var fn *Function
	if m, ok := c.members[name]; ok {
		if existing, isFn := dataAsFunction(m.Default); isFn {
			fn = existing
		}
	}
	if fn == nil {
		fn = NewFunction(name)
		cell := gc.NewCell(gc.ConstValue|gc.ConstAddress, fn)
		c.Declare(name, cell, gc.ConstValue|gc.ConstAddress, builtin)
	}
	fn.AddSignature(sig, entry)
}

func dataAsFunction(cell *gc.Cell) (*Function, bool) {
	if cell == nil || cell.Data() == nil {
		return nil, false
	}
	fn, ok := cell.Data().(*Function)
	return fn, ok
}

// LookupOperator resolves name via Class.Resolve and, if the member's
// value is a Function, returns it. This is the shared path used by
// both user-method calls and built-in operator dispatch, so the two
// are handled uniformly.
func LookupOperator(c *Class, name string) (*Function, bool) {
	m, ok := c.Resolve(name)
	if !ok {
		return nil, false
	}
	return dataAsFunction(m.Default)
}

// ErrNoMatchingSignature reports that no registered signature accepts
// a call site's argument count.
var ErrNoMatchingSignature = NewDispatchError("no matching signature")

// DispatchError is a typed host-side error describing a method or
// operator dispatch failure (no matching member, no matching
// signature). The VM turns these into a script-level raise with the
// message as the raised string value.
type DispatchError struct{ msg string }

func NewDispatchError(msg string) *DispatchError { return &DispatchError{msg: msg} }
func (e *DispatchError) Error() string           { return e.msg }
