// Package cpptypes describes C++ types as small value trees.
//
// Identity of a type is its rendering: two trees are equal when their
// DeclString values are equal. Declared nodes are the only nodes that point
// into the declaration graph.
package cpptypes

import (
	"fmt"
	"strings"
)

// Type is a node of the C++ type grammar.
type Type interface {
	// DeclString renders the type the way GCC-XML based tooling does.
	DeclString() string
	// String is DeclString without a leading "::".
	String() string
	// Clone returns a structural copy. Declaration references are shared.
	Clone() Type

	kind() string
}

// Declaration is the part of a user declaration a type needs to render it.
type Declaration interface {
	Name() string
	DeclString() string
}

func trimGlobal(s string) string {
	return strings.TrimPrefix(s, "::")
}

// Unknown stands for a type the parser could not resolve.
type Unknown struct{}

// UnknownType is the shared Unknown instance.
var UnknownType = &Unknown{}

func (u *Unknown) DeclString() string { return "?unknown?" }
func (u *Unknown) String() string     { return u.DeclString() }
func (u *Unknown) Clone() Type        { return u }
func (u *Unknown) kind() string       { return "unknown" }

// Fundamental is a built-in type. One instance exists per canonical name.
type Fundamental struct {
	name string
}

func (f *Fundamental) Name() string       { return f.name }
func (f *Fundamental) DeclString() string { return f.name }
func (f *Fundamental) String() string     { return f.name }
func (f *Fundamental) Clone() Type        { return f }
func (f *Fundamental) kind() string       { return "fundamental" }

var (
	Void                = &Fundamental{"void"}
	Char                = &Fundamental{"char"}
	UnsignedChar        = &Fundamental{"unsigned char"}
	WChar               = &Fundamental{"wchar_t"}
	ShortInt            = &Fundamental{"short int"}
	ShortUnsignedInt    = &Fundamental{"short unsigned int"}
	Bool                = &Fundamental{"bool"}
	Int                 = &Fundamental{"int"}
	UnsignedInt         = &Fundamental{"unsigned int"}
	LongInt             = &Fundamental{"long int"}
	LongUnsignedInt     = &Fundamental{"long unsigned int"}
	LongLongInt         = &Fundamental{"long long int"}
	LongLongUnsignedInt = &Fundamental{"long long unsigned int"}
	Float               = &Fundamental{"float"}
	Double              = &Fundamental{"double"}
	LongDouble          = &Fundamental{"long double"}
	ComplexFloat        = &Fundamental{"complex float"}
	ComplexDouble       = &Fundamental{"complex double"}
	ComplexLongDouble   = &Fundamental{"complex long double"}
)

// fundamentals maps every accepted spelling to its singleton.
var fundamentals = map[string]*Fundamental{
	"void":                   Void,
	"char":                   Char,
	"signed char":            Char,
	"unsigned char":          UnsignedChar,
	"wchar_t":                WChar,
	"short int":              ShortInt,
	"signed short int":       ShortInt,
	"short unsigned int":     ShortUnsignedInt,
	"bool":                   Bool,
	"int":                    Int,
	"signed int":             Int,
	"unsigned int":           UnsignedInt,
	"long int":               LongInt,
	"long unsigned int":      LongUnsignedInt,
	"long long int":          LongLongInt,
	"long long unsigned int": LongLongUnsignedInt,
	"float":                  Float,
	"double":                 Double,
	"long double":            LongDouble,
	"complex float":          ComplexFloat,
	"complex double":         ComplexDouble,
	"complex long double":    ComplexLongDouble,
}

// LookupFundamental returns the singleton for a canonical or aliased name.
func LookupFundamental(name string) (*Fundamental, bool) {
	f, ok := fundamentals[name]
	return f, ok
}

// Compound is a type that wraps exactly one base type.
type Compound interface {
	Type
	BaseType() Type
	SetBase(Type)
}

// Volatile renders as "volatile T".
type Volatile struct{ Base Type }

func (c *Volatile) BaseType() Type     { return c.Base }
func (c *Volatile) SetBase(t Type)     { c.Base = t }
func (c *Volatile) DeclString() string { return "volatile " + c.Base.DeclString() }
func (c *Volatile) String() string     { return trimGlobal(c.DeclString()) }
func (c *Volatile) Clone() Type        { return &Volatile{Base: c.Base.Clone()} }
func (c *Volatile) kind() string       { return "volatile" }

// Const renders as "T const".
type Const struct{ Base Type }

func (c *Const) BaseType() Type     { return c.Base }
func (c *Const) SetBase(t Type)     { c.Base = t }
func (c *Const) DeclString() string { return c.Base.DeclString() + " const" }
func (c *Const) String() string     { return trimGlobal(c.DeclString()) }
func (c *Const) Clone() Type        { return &Const{Base: c.Base.Clone()} }
func (c *Const) kind() string       { return "const" }

// Pointer renders as "T *".
type Pointer struct{ Base Type }

func (c *Pointer) BaseType() Type     { return c.Base }
func (c *Pointer) SetBase(t Type)     { c.Base = t }
func (c *Pointer) DeclString() string { return c.Base.DeclString() + " *" }
func (c *Pointer) String() string     { return trimGlobal(c.DeclString()) }
func (c *Pointer) Clone() Type        { return &Pointer{Base: c.Base.Clone()} }
func (c *Pointer) kind() string       { return "pointer" }

// Reference renders as "T &".
type Reference struct{ Base Type }

func (c *Reference) BaseType() Type     { return c.Base }
func (c *Reference) SetBase(t Type)     { c.Base = t }
func (c *Reference) DeclString() string { return c.Base.DeclString() + " &" }
func (c *Reference) String() string     { return trimGlobal(c.DeclString()) }
func (c *Reference) Clone() Type        { return &Reference{Base: c.Base.Clone()} }
func (c *Reference) kind() string       { return "reference" }

// SizeUnknown is the Array size of an array with unknown extent.
const SizeUnknown = -1

// Array renders as "T[n]".
type Array struct {
	Base Type
	Size int
}

func (c *Array) BaseType() Type     { return c.Base }
func (c *Array) SetBase(t Type)     { c.Base = t }
func (c *Array) DeclString() string { return fmt.Sprintf("%s[%d]", c.Base.DeclString(), c.Size) }
func (c *Array) String() string     { return trimGlobal(c.DeclString()) }
func (c *Array) Clone() Type        { return &Array{Base: c.Base.Clone(), Size: c.Size} }
func (c *Array) kind() string       { return "array" }

// Declared is a type that is a user declaration: a class, enum or typedef.
type Declared struct {
	Declaration Declaration
}

func (d *Declared) DeclString() string { return d.Declaration.DeclString() }
func (d *Declared) String() string     { return trimGlobal(d.DeclString()) }
func (d *Declared) Clone() Type        { return &Declared{Declaration: d.Declaration} }
func (d *Declared) kind() string       { return "declared" }

// NewDeclared wraps decl.
func NewDeclared(decl Declaration) *Declared {
	return &Declared{Declaration: decl}
}
