// Package class implements class metadata, instance layout, member
// resolution, signature dispatch, and multiple-inheritance composition
// with depth-first, first-match method resolution.
package class

import (
	"fmt"

	"github.com/mint-lang/mint/internal/gc"
)

// Member is one entry of a class's ordered member table:
// offset-in-instance, declaring class, default value, and flags.
type Member struct {
	Offset    int
	Declaring *Class
	Default   *gc.Cell
	Flags     gc.Flag
	// Builtin marks a member registered by a built-in kind at
	// class-construction time (an operator overload) rather than by
	// script-level class declaration.
	Builtin bool
}

// Class is the reflective description of a class: name, ordered bases,
// member table, class-level globals, and — for built-in kinds — a
// metatype tag.
type Class struct {
	name     string
	bases    []*Class // declaration order, for depth-first resolution
	members  map[string]*Member
	order    []string // member names in offset order
	globals  map[string]*gc.Cell
	metatype gc.Kind // KindObject for ordinary user classes

	deleteFn *Function // cached resolution of the `delete` method, if any
}

// New creates an empty class. Use Compose to add bases.
func New(name string) *Class {
	return &Class{
		name:     name,
		members:  make(map[string]*Member),
		globals:  make(map[string]*gc.Cell),
		metatype: gc.KindObject,
	}
}

func (c *Class) Name() string          { return c.name }
func (c *Class) Bases() []*Class       { return c.bases }
func (c *Class) Metatype() gc.Kind     { return c.metatype }
func (c *Class) SetMetatype(k gc.Kind) { c.metatype = k }
func (c *Class) Size() int             { return len(c.order) }

// Compose appends bases to this class's base list and imports their
// member layout: for each base, in order, for each of the base's own
// members in offset order, if the name is not already present in this
// class's table, it is appended at the next free offset, preserving
// the original Declaring class. This keeps member layout consistent
// with method resolution order (search bases in declaration order,
// depth-first, first match wins) — the first base to declare a name
// also wins the instance-slot assignment for that name.
func (c *Class) Compose(bases ...*Class) {
	for _, base := range bases {
		c.bases = append(c.bases, base)
		for _, name := range base.order {
			if _, exists := c.members[name]; exists {
				continue
			}
			m := base.members[name]
			c.appendMember(name, &Member{
				Offset:    len(c.order),
				Declaring: m.Declaring,
				Default:   m.Default,
				Flags:     m.Flags,
				Builtin:   m.Builtin,
			})
		}
	}
}

func (c *Class) appendMember(name string, m *Member) {
	c.members[name] = m
	c.order = append(c.order, name)
}

// Declare adds a member declared directly on this class (not inherited
// from a base). Re-declaring an existing name overwrites its default
// and flags but keeps its offset — mint classes may override a base's
// default value without breaking layout.
func (c *Class) Declare(name string, def *gc.Cell, flags gc.Flag, builtin bool) {
	if existing, ok := c.members[name]; ok {
		existing.Default = def
		existing.Flags = flags
		existing.Declaring = c
		existing.Builtin = builtin
		return
	}
	c.appendMember(name, &Member{
		Offset:    len(c.order),
		Declaring: c,
		Default:   def,
		Flags:     flags,
		Builtin:   builtin,
	})
}

// DeclareGlobal adds a class-level constant or static function.
func (c *Class) DeclareGlobal(name string, cell *gc.Cell) {
	c.globals[name] = cell
}

func (c *Class) Global(name string) (*gc.Cell, bool) {
	cell, ok := c.globals[name]
	return cell, ok
}

// Globals exposes the class-level table directly for iteration (used
// by membersof and by the GC root walk).
func (c *Class) Globals() map[string]*gc.Cell { return c.globals }

// ErrInvalidMember reports a reference to a name with no resolvable
// member.
var ErrInvalidMember = fmt.Errorf("invalid member")

// Resolve looks up name: own table first, then bases depth-first in
// declaration order, first match wins.
func (c *Class) Resolve(name string) (*Member, bool) {
	if m, ok := c.members[name]; ok {
		return m, true
	}
	for _, base := range c.bases {
		if m, ok := base.Resolve(name); ok {
			return m, true
		}
	}
	return nil, false
}

// MembersOf lists member names in offset order, backing the
// `membersof` instruction.
func (c *Class) MembersOf() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Delete implements gc.ClassMeta by handing inst to the invoker the VM
// installed via SetDeleteInvoker, which resolves `delete` on the class
// and, if found, runs it: natively for built-in kinds (e.g. closing a
// socket or a library handle), or as bytecode under a private cursor
// context. Without an installed invoker Delete does nothing.
var deleteInvoker func(class *Class, inst gc.Data)

// SetDeleteInvoker installs the VM's callback for running a
// bytecode-declared `delete` method. Must be called once during VM
// construction, before any collection runs.
func SetDeleteInvoker(fn func(class *Class, inst gc.Data)) {
	deleteInvoker = fn
}

func (c *Class) Delete(inst gc.Data) {
	if deleteInvoker != nil {
		deleteInvoker(c, inst)
	}
}
