package kinds

import (
	"fmt"
	"os"
	"plugin"

	"gopkg.in/yaml.v3"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/native"
)

// Library is the LIBRARY data kind: a handle onto a native plug-in
// opened via the host's dynamic-loading mechanism, exposing its
// exported functions under call(name, args...).
type Library struct {
	path    string
	entries map[string]native.Entry
}

// manifest is the YAML sidecar (<plugin>.so.yaml next to <plugin>.so)
// describing exported function arities, used as a fallback when a
// plug-in was built without the Go plugin package's symbol lookup
// available (e.g. a manifest-only stub during development).
type manifest struct {
	Functions []struct {
		Name  string `yaml:"name"`
		Arity int    `yaml:"arity"`
	} `yaml:"functions"`
}

// Open loads a native plug-in at path (a .so built with `go build
// -buildmode=plugin`) and resolves its exported native.Entry table
// from the plug-in's `Entries []native.Entry` symbol. If that symbol
// is absent, Open falls back to a <path>.yaml manifest for the
// function names and arities, leaving their Fn unset — calling such
// an entry raises rather than panicking.
func Open(path string) (*Library, error) {
	lib := &Library{path: path, entries: make(map[string]native.Entry)}

	p, err := plugin.Open(path)
	if err == nil {
		sym, lookupErr := p.Lookup("Entries")
		if lookupErr == nil {
			if entries, ok := sym.(*[]native.Entry); ok {
				for _, e := range *entries {
					lib.entries[e.Name] = e
				}
				return lib, nil
			}
		}
	}

	data, readErr := os.ReadFile(path + ".yaml")
	if readErr != nil {
		if err != nil {
			return nil, fmt.Errorf("opening native library %s: %w", path, err)
		}
		return nil, fmt.Errorf("native library %s exports no Entries symbol and has no manifest: %w", path, readErr)
	}
	var m manifest
	if yamlErr := yaml.Unmarshal(data, &m); yamlErr != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", path, yamlErr)
	}
	for _, fn := range m.Functions {
		lib.entries[fn.Name] = native.Entry{Name: fn.Name, Arity: fn.Arity}
	}
	return lib, nil
}

func (l *Library) Kind() gc.Kind        { return gc.KindLibrary }
func (l *Library) Class() gc.ClassMeta  { return libraryClass }
func (l *Library) Hash() uint32         { return fnv32([]byte(l.path)) }
func (l *Library) Trace(func(*gc.Cell)) {}
func (l *Library) Inspect() string      { return "<library " + l.path + ">" }

func (l *Library) Lookup(name string) (native.Entry, bool) {
	e, ok := l.entries[name]
	return e, ok
}

var libraryClass = buildLibraryClass()

func buildLibraryClass() *class.Class {
	c := class.New("Library")
	c.SetMetatype(gc.KindLibrary)
	class.RegisterOperator(c, "call", class.Variadic(3), &class.Entry{Native: opLibraryCall}, true)
	class.RegisterOperator(c, "delete", class.Fixed(1), &class.Entry{Native: opLibraryDelete}, true)
	return c
}

func asLibrary(c *gc.Cell) (*Library, bool) {
	if c == nil || c.Data() == nil {
		return nil, false
	}
	l, ok := c.Data().(*Library)
	return l, ok
}

// opLibraryCall implements call(self, name, args...): dispatch has
// already packed the trailing arguments into an iterator. A fixed-arity
// entry point has the iterator unpacked back onto the operand stack for
// it (raising on a count mismatch); a variadic entry point receives the
// iterator itself and unpacks it through the native-call interface.
func opLibraryCall(cur native.Cursor, argc int) error {
	args := native.PopArgs(cur, 3)
	lib, _ := asLibrary(args[0])
	nameStr, _ := asString(args[1])
	entry, ok := lib.Lookup(nameStr.String())
	if !ok {
		return fmt.Errorf("native library %s has no function %q", lib.path, nameStr.String())
	}
	if entry.Fn == nil {
		return fmt.Errorf("native library %s's %q has no loaded implementation (manifest-only entry)", lib.path, nameStr.String())
	}
	if entry.Arity < 0 {
		cur.Push(args[2])
		return entry.Fn(cur, 1)
	}
	it, ok := args[2].Data().(*Iterator)
	if !ok {
		return fmt.Errorf("library call arguments must arrive as an iterator")
	}
	n := 0
	for it.HasNext() {
		v, _ := it.Next()
		cur.PushData(v)
		n++
	}
	if n != entry.Arity {
		return fmt.Errorf("native %s/%d called with %d arguments", entry.Name, entry.Arity, n)
	}
	return entry.Fn(cur, n)
}

func opLibraryDelete(cur native.Cursor, argc int) error {
	native.PopArgs(cur, 1)
	return nil
}
