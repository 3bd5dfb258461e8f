package gc

import "fmt"

// Flag is the reference-cell flag bitmask: mutability (ConstValue,
// ConstAddress), storage class (Global), visibility (Private,
// Protected, Package), and override discipline (FinalMember,
// OverrideMember).
type Flag uint32

const (
	ConstValue Flag = 1 << iota
	ConstAddress
	Global
	Private
	Protected
	Package
	FinalMember
	OverrideMember
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// ErrConstValue is raised (wrapped by the caller into a script-level
// raise) when a mutating operator targets a CONST_VALUE cell.
var ErrConstValue = fmt.Errorf("mutation through a const cell")

// ErrConstAddress is raised when Move targets a CONST_ADDRESS cell.
var ErrConstAddress = fmt.Errorf("re-target of a const-address cell")

// Cell is the unit of storage: a pointer into GC-managed data plus
// flag bits, either strong (extends the pointee's lifetime) or weak
// (observes without rooting it).
type Cell struct {
	flags   Flag
	weak    bool
	pointee Data
}

// NewCell creates a strong cell over d with the given flags.
func NewCell(flags Flag, d Data) *Cell {
	return &Cell{flags: flags, pointee: d}
}

func (c *Cell) Flags() Flag    { return c.flags }
func (c *Cell) IsWeak() bool   { return c.weak }
func (c *Cell) IsStrong() bool { return !c.weak }
func (c *Cell) Data() Data     { return c.pointee }

func (c *Cell) SetFlags(f Flag) { c.flags = f }

// Clone establishes a new cell whose flags and pointee equal other's;
// the pointee is shared (no copy).
func (c *Cell) Clone(other *Cell) {
	c.flags = other.flags
	c.weak = other.weak
	c.pointee = other.pointee
}

// Copy replaces this cell's pointee with a value-equivalent copy of
// other's pointee. Value-like kinds (none/null/boolean/number/function)
// duplicate by reassigning the same immutable Data; OBJECT kinds must
// be copied through the class copy protocol by the caller (the gc
// package has no knowledge of class construction) — cloner is invoked
// for those kinds when non-nil.
func (c *Cell) Copy(other *Cell, cloner func(Data) Data) error {
	if c.flags.Has(ConstValue) {
		return ErrConstValue
	}
	d := other.pointee
	if d != nil && d.Kind() == KindObject && cloner != nil {
		d = cloner(d)
	}
	c.pointee = d
	return nil
}

// Move retargets this cell to point at other's pointee, transferring
// ownership: after Move, other's pointee is cleared so only one cell
// ever owns a given pointee at a time.
func (c *Cell) Move(other *Cell) error {
	if c.flags.Has(ConstAddress) {
		return ErrConstAddress
	}
	c.pointee = other.pointee
	c.weak = other.weak
	other.pointee = nil
	return nil
}

// WeakShare yields a new cell that observes but does not root the
// pointee.
func WeakShare(other *Cell) *Cell {
	return &Cell{flags: other.flags, weak: true, pointee: other.pointee}
}

// Set assigns the pointee directly, bypassing the copy protocol. Used
// internally by the VM/class system once a CONST_VALUE check (if any)
// has already been performed by the caller.
func (c *Cell) Set(d Data) {
	c.pointee = d
}
