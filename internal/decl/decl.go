// Package decl holds the declaration graph produced by reading C++ headers.
//
// Declarations are linked with plain pointers: every declaration knows its
// parent scope, scopes own an ordered child list, and classes carry mutual
// base/derived edges. Identity comparisons are pointer comparisons.
package decl

// Kind names the concrete declaration type.
type Kind string

const (
	KindNamespace        Kind = "namespace"
	KindClass            Kind = "class"
	KindClassDeclaration Kind = "class_declaration"
	KindFreeFunction     Kind = "free_function"
	KindMemberFunction   Kind = "member_function"
	KindConstructor      Kind = "constructor"
	KindDestructor       Kind = "destructor"
	KindVariable         Kind = "variable"
	KindTypedef          Kind = "typedef"
	KindEnumeration      Kind = "enumeration"
)

// IsCalldef reports whether k is one of the callable kinds.
func (k Kind) IsCalldef() bool {
	switch k {
	case KindFreeFunction, KindMemberFunction, KindConstructor, KindDestructor:
		return true
	}
	return false
}

// Access is a C++ access specifier. Namespace members have AccessNone.
type Access string

const (
	AccessNone      Access = ""
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// Location is the place a declaration was read from.
type Location struct {
	File string
	Line int
}

// Declaration is any node of the graph.
type Declaration interface {
	Name() string
	Kind() Kind
	Parent() Scope
	SetParent(Scope)
	Location() Location
	Access() Access
	DeclString() string
}

// Scope is a declaration that owns child declarations.
type Scope interface {
	Declaration
	Declarations() []Declaration
	SetDeclarations([]Declaration)
	AddDeclaration(Declaration)
	RemoveDeclaration(Declaration) bool
	TakeParenting(Scope)
}

type base struct {
	name   string
	loc    Location
	parent Scope
	access Access
}

func (b *base) Name() string             { return b.name }
func (b *base) Parent() Scope            { return b.parent }
func (b *base) SetParent(s Scope)        { b.parent = s }
func (b *base) Location() Location       { return b.loc }
func (b *base) SetLocation(loc Location) { b.loc = loc }
func (b *base) Access() Access           { return b.access }
func (b *base) SetAccess(a Access)       { b.access = a }

// children implements the list half of Scope for an owner.
type children struct {
	decls []Declaration
}

func (c *children) add(owner Scope, d Declaration) {
	d.SetParent(owner)
	c.decls = append(c.decls, d)
}

func (c *children) remove(d Declaration) bool {
	for i, x := range c.decls {
		if x == d {
			c.decls = append(c.decls[:i:i], c.decls[i+1:]...)
			return true
		}
	}
	return false
}

// take moves every child of other under owner, preserving order.
func (c *children) take(owner Scope, other Scope) {
	for _, d := range other.Declarations() {
		c.add(owner, d)
	}
	other.SetDeclarations(nil)
}

// Namespace is a C++ namespace. The global namespace is named "::".
type Namespace struct {
	base
	children
}

// GlobalName is the name of the global namespace.
const GlobalName = "::"

func NewNamespace(name string) *Namespace {
	return &Namespace{base: base{name: name}}
}

// NewGlobalNamespace returns an empty global namespace.
func NewGlobalNamespace() *Namespace { return NewNamespace(GlobalName) }

func (n *Namespace) Kind() Kind                           { return KindNamespace }
func (n *Namespace) DeclString() string                   { return FullName(n) }
func (n *Namespace) Declarations() []Declaration          { return n.decls }
func (n *Namespace) SetDeclarations(ds []Declaration)     { n.decls = ds }
func (n *Namespace) AddDeclaration(d Declaration)         { n.add(n, d) }
func (n *Namespace) RemoveDeclaration(d Declaration) bool { return n.remove(d) }
func (n *Namespace) TakeParenting(other Scope)            { n.take(n, other) }
