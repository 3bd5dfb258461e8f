package class

import (
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// Entry is one signature's dispatch target: either a location in a
// module's instruction array or a native handler. Exactly one of the
// two is set.
type Entry struct {
	ModuleName string // canonical module name, resolved by the VM's module registry
	Offset     int    // entry-offset into that module's instruction array

	Native native.Func
}

func (e *Entry) IsNative() bool { return e.Native != nil }

// Function is the FUNCTION data kind: a signature map from arity tag
// to dispatch target. User-declared functions and built-in operator
// overloads share this representation.
type Function struct {
	name    string
	entries map[Signature]*Entry

	// Upvalues holds the cells this particular closure captured from
	// enclosing scopes at creation time. Plain functions and built-in
	// operators leave this nil.
	Upvalues []*gc.Cell
}

func NewFunction(name string) *Function {
	return &Function{name: name, entries: make(map[Signature]*Entry)}
}

func (f *Function) Name() string { return f.name }

// AddSignature registers entry under sig. Within one function the
// arity tag must be unique; re-registration overwrites, which callers
// (class construction, the compiler-facing builder) must avoid
// triggering.
func (f *Function) AddSignature(sig Signature, entry *Entry) {
	f.entries[sig] = entry
}

func (f *Function) Entries() map[Signature]*Entry { return f.entries }

// Closure returns a new Function sharing f's dispatch table but
// carrying its own captured upvalues, backing the `make-closure`
// instruction: a script-level function literal evaluates once to a
// prototype Function with no Upvalues, and each time control passes
// over it again a fresh closure is made over the current scope's cells.
func (f *Function) Closure(upvalues []*gc.Cell) *Function {
	return &Function{name: f.name, entries: f.entries, Upvalues: upvalues}
}

// Dispatch resolves the entry for a call site of n positional
// arguments. For a variadic match, variadicFrom is the signature's
// frame arity N: arguments from the N-th (1-based) onward are packed
// into the tail iterator, n-N+1 of them. It is 0 if the match was exact.
func (f *Function) Dispatch(n int) (entry *Entry, variadicFrom int, ok bool) {
	e, min, found := Resolve(f.entries, n)
	if !found {
		return nil, 0, false
	}
	if e == nil {
		return nil, 0, false
	}
	entry = e
	for sig, cand := range f.entries {
		if cand == e && sig.Variadic {
			variadicFrom = min
			return entry, variadicFrom, true
		}
	}
	return entry, 0, true
}

// Kind/Class/Inspect/Hash/Trace implement gc.Data: functions are
// heap-allocated like any other data kind, so closures capturing large
// upvalue sets are collected like everything else.
func (f *Function) Kind() gc.Kind       { return gc.KindFunction }
func (f *Function) Class() gc.ClassMeta { return nil }
func (f *Function) Inspect() string     { return "<function " + f.name + ">" }
func (f *Function) Hash() uint32        { return hashString(f.name) }

func (f *Function) Trace(visit func(*gc.Cell)) {
	for _, c := range f.Upvalues {
		visit(c)
	}
}

func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
