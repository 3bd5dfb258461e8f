package module

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
)

// bundleMagic identifies a mint compiled-module file on disk.
var bundleMagic = [4]byte{'M', 'I', 'N', 'T'}

const bundleVersion byte = 0x01

// serialForm mirrors Module's shape with only gob-friendly fields.
// Constants and classes are flattened into tagged records
// (serialConstant/serialClass) because gc.Data and *class.Class carry
// interface values and cross-links gob cannot encode directly.
// Module.Globals is not part of the on-disk form: a module's global
// cells come to exist by executing its instructions, the same way a
// freshly compiled module's do.
type serialForm struct {
	Name         string
	Instructions []Instruction
	Symbols      []string
	Constants    []serialConstant
	Classes      []serialClass
	Exports      []string
}

// serialConstant is one constant-pool entry: a kind tag plus the
// payload fields that kind uses. Only the kinds a compiler can place
// in a constant pool serialize — none, null, boolean, number, string,
// and bytecode-backed function prototypes.
type serialConstant struct {
	Tag   gc.Kind
	Bool  bool
	Num   float64
	IsInt bool
	Str   string
	Fn    *serialFunction
}

type serialFunction struct {
	Name    string
	Entries []serialEntry
}

type serialEntry struct {
	Variadic bool
	N        int
	Module   string
	Offset   int
}

// serialClass records a class the way the loader rebuilds it: base
// names to Compose, then the class's own declared members and
// class-level globals. Inherited members are not recorded — Compose
// re-imports them at load, reproducing the original layout.
type serialClass struct {
	Name     string
	Metatype gc.Kind
	Bases    []string
	Members  []serialMember
	Globals  []serialGlobal
}

type serialMember struct {
	Name       string
	Flags      uint32
	Builtin    bool
	HasDefault bool
	Default    serialConstant
}

type serialGlobal struct {
	Name  string
	Flags uint32
	Value serialConstant
}

// Serialize writes m as: 4-byte magic, 1-byte version, gob-encoded
// serialForm carrying the instruction array, symbol table, constant
// pool, class records, and export list — the whole record the way the
// compiler produced it, so the loader restores a runnable module
// without re-compiling anything.
func (m *Module) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(bundleMagic[:])
	buf.WriteByte(bundleVersion)

	sf := serialForm{
		Name:         m.Name,
		Instructions: m.Instructions,
		Symbols:      m.Symbols,
		Exports:      m.Exports,
	}
	for i, d := range m.Constants {
		sc, err := encodeConstant(d)
		if err != nil {
			return nil, fmt.Errorf("module %s constant %d: %w", m.Name, i, err)
		}
		sf.Constants = append(sf.Constants, sc)
	}
	for _, name := range sortedClassNames(m.Classes) {
		sc, err := encodeClass(m.Classes[name])
		if err != nil {
			return nil, fmt.Errorf("module %s class %s: %w", m.Name, name, err)
		}
		sf.Classes = append(sf.Classes, sc)
	}

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(sf); err != nil {
		return nil, fmt.Errorf("encoding module %s: %w", m.Name, err)
	}
	return buf.Bytes(), nil
}

// Deserialize reconstructs a runnable Module from Serialize's format:
// instructions, symbols, constants, classes, and exports all restore.
// Only the runtime global table starts empty, to be populated by
// executing the module.
func Deserialize(data []byte) (*Module, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("module data too short")
	}
	if !bytes.Equal(data[:4], bundleMagic[:]) {
		return nil, fmt.Errorf("invalid magic number, expected MINT")
	}
	version := data[4]
	if version != bundleVersion {
		return nil, fmt.Errorf("unsupported module bytecode version: %d", version)
	}

	var sf serialForm
	dec := gob.NewDecoder(bytes.NewReader(data[5:]))
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("decoding module: %w", err)
	}

	m := New(sf.Name)
	m.Instructions = sf.Instructions
	m.Symbols = sf.Symbols
	m.Exports = sf.Exports
	for i, s := range sf.Symbols {
		m.symIndex[s] = i
	}
	for i, sc := range sf.Constants {
		d, err := decodeConstant(sc)
		if err != nil {
			return nil, fmt.Errorf("module %s constant %d: %w", sf.Name, i, err)
		}
		m.Constants = append(m.Constants, d)
	}
	if err := decodeClasses(m, sf.Classes); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeConstant(d gc.Data) (serialConstant, error) {
	switch v := d.(type) {
	case nil:
		return serialConstant{Tag: gc.KindNone}, nil
	case *kinds.Number:
		return serialConstant{Tag: gc.KindNumber, Num: v.Float(), IsInt: v.IsInt()}, nil
	case *kinds.String:
		return serialConstant{Tag: gc.KindString, Str: v.String()}, nil
	case *kinds.Boolean:
		return serialConstant{Tag: gc.KindBoolean, Bool: bool(*v)}, nil
	case *class.Function:
		fn, err := encodeFunction(v)
		if err != nil {
			return serialConstant{}, err
		}
		return serialConstant{Tag: gc.KindFunction, Fn: fn}, nil
	default:
		switch d.Kind() {
		case gc.KindNone:
			return serialConstant{Tag: gc.KindNone}, nil
		case gc.KindNull:
			return serialConstant{Tag: gc.KindNull}, nil
		}
		return serialConstant{}, fmt.Errorf("cannot serialize constant of kind %v", d.Kind())
	}
}

func decodeConstant(sc serialConstant) (gc.Data, error) {
	switch sc.Tag {
	case gc.KindNone:
		return kinds.None, nil
	case gc.KindNull:
		return kinds.Null, nil
	case gc.KindBoolean:
		return kinds.Bool(sc.Bool), nil
	case gc.KindNumber:
		if sc.IsInt {
			return kinds.NewInt(int64(sc.Num)), nil
		}
		return kinds.NewNumber(sc.Num), nil
	case gc.KindString:
		return kinds.NewString(sc.Str), nil
	case gc.KindFunction:
		fn, err := decodeFunction(sc.Fn)
		if err != nil {
			return nil, err
		}
		return fn, nil
	default:
		return nil, fmt.Errorf("cannot deserialize constant of kind %v", sc.Tag)
	}
}

// encodeFunction records a function's signature map. Native entries
// have no on-disk representation — they exist only for built-in kinds,
// which register themselves at process start rather than loading from
// a bundle.
func encodeFunction(fn *class.Function) (*serialFunction, error) {
	sf := &serialFunction{Name: fn.Name()}
	for sig, entry := range fn.Entries() {
		if entry.IsNative() {
			return nil, fmt.Errorf("function %s has a native entry", fn.Name())
		}
		sf.Entries = append(sf.Entries, serialEntry{
			Variadic: sig.Variadic,
			N:        sig.N,
			Module:   entry.ModuleName,
			Offset:   entry.Offset,
		})
	}
	sort.Slice(sf.Entries, func(i, j int) bool {
		if sf.Entries[i].N != sf.Entries[j].N {
			return sf.Entries[i].N < sf.Entries[j].N
		}
		return !sf.Entries[i].Variadic && sf.Entries[j].Variadic
	})
	return sf, nil
}

func decodeFunction(sf *serialFunction) (*class.Function, error) {
	if sf == nil {
		return nil, fmt.Errorf("function constant with no payload")
	}
	fn := class.NewFunction(sf.Name)
	for _, e := range sf.Entries {
		sig := class.Fixed(e.N)
		if e.Variadic {
			sig = class.Variadic(e.N)
		}
		fn.AddSignature(sig, &class.Entry{ModuleName: e.Module, Offset: e.Offset})
	}
	return fn, nil
}

// encodeClass records base names plus the class's own declarations.
// A member inherited from a base (Declaring != c) is skipped: Compose
// restores it at load.
func encodeClass(c *class.Class) (serialClass, error) {
	sc := serialClass{Name: c.Name(), Metatype: c.Metatype()}
	for _, base := range c.Bases() {
		sc.Bases = append(sc.Bases, base.Name())
	}
	for _, name := range c.MembersOf() {
		m, ok := c.Resolve(name)
		if !ok || m.Declaring != c {
			continue
		}
		sm := serialMember{Name: name, Flags: uint32(m.Flags), Builtin: m.Builtin}
		if m.Default != nil && m.Default.Data() != nil {
			d, err := encodeConstant(m.Default.Data())
			if err != nil {
				return serialClass{}, fmt.Errorf("member %s: %w", name, err)
			}
			sm.HasDefault = true
			sm.Default = d
		}
		sc.Members = append(sc.Members, sm)
	}
	globalNames := make([]string, 0, len(c.Globals()))
	for name := range c.Globals() {
		globalNames = append(globalNames, name)
	}
	sort.Strings(globalNames)
	for _, name := range globalNames {
		cell := c.Globals()[name]
		var value serialConstant
		var flags uint32
		if cell != nil {
			flags = uint32(cell.Flags())
			if cell.Data() != nil {
				d, err := encodeConstant(cell.Data())
				if err != nil {
					return serialClass{}, fmt.Errorf("class global %s: %w", name, err)
				}
				value = d
			}
		}
		sc.Globals = append(sc.Globals, serialGlobal{Name: name, Flags: flags, Value: value})
	}
	return sc, nil
}

// decodeClasses rebuilds every class record into m.Classes. Empty
// classes are created up front, then records are filled in base-first
// order so composing a derived class imports a fully declared base;
// base names must refer to classes in the same module record.
func decodeClasses(m *Module, records []serialClass) error {
	for _, sc := range records {
		c := class.New(sc.Name)
		c.SetMetatype(sc.Metatype)
		m.Classes[sc.Name] = c
	}

	built := make(map[string]bool, len(records))
	pending := records
	for len(pending) > 0 {
		var next []serialClass
		for _, sc := range pending {
			ready := true
			for _, baseName := range sc.Bases {
				if _, ok := m.Classes[baseName]; !ok {
					return fmt.Errorf("module %s class %s: unknown base %s", m.Name, sc.Name, baseName)
				}
				if !built[baseName] {
					ready = false
				}
			}
			if !ready {
				next = append(next, sc)
				continue
			}
			if err := fillClass(m, sc); err != nil {
				return err
			}
			built[sc.Name] = true
		}
		if len(next) == len(pending) {
			return fmt.Errorf("module %s: cyclic class bases", m.Name)
		}
		pending = next
	}
	return nil
}

func fillClass(m *Module, sc serialClass) error {
	c := m.Classes[sc.Name]
	for _, baseName := range sc.Bases {
		c.Compose(m.Classes[baseName])
	}
	for _, sm := range sc.Members {
		var def *gc.Cell
		if sm.HasDefault {
			d, err := decodeConstant(sm.Default)
			if err != nil {
				return fmt.Errorf("module %s class %s member %s: %w", m.Name, sc.Name, sm.Name, err)
			}
			def = gc.NewCell(gc.Flag(sm.Flags), d)
		}
		c.Declare(sm.Name, def, gc.Flag(sm.Flags), sm.Builtin)
	}
	for _, sg := range sc.Globals {
		d, err := decodeConstant(sg.Value)
		if err != nil {
			return fmt.Errorf("module %s class %s global %s: %w", m.Name, sc.Name, sg.Name, err)
		}
		c.DeclareGlobal(sg.Name, gc.NewCell(gc.Flag(sg.Flags), d))
	}
	return nil
}

func sortedClassNames(classes map[string]*class.Class) []string {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
