package decl

// ClassType distinguishes class, struct and union definitions.
type ClassType string

const (
	ClassTypeClass  ClassType = "class"
	ClassTypeStruct ClassType = "struct"
	ClassTypeUnion  ClassType = "union"
)

// DefaultAccess is the access of members and bases that carry no specifier.
func (t ClassType) DefaultAccess() Access {
	if t == ClassTypeClass {
		return AccessPrivate
	}
	return AccessPublic
}

// HierarchyInfo is one base or derived edge of a class.
type HierarchyInfo struct {
	Related *Class
	Access  Access
}

// Equal reports whether both edges have the same access and their related
// classes share an identity key. Distinct objects can be equal.
func (h *HierarchyInfo) Equal(o *HierarchyInfo) bool {
	if h.Access != o.Access {
		return false
	}
	return KeyOf(h.Related) == KeyOf(o.Related)
}

// IndexOf returns the position of the first edge in edges equal to h, or -1.
func (h *HierarchyInfo) IndexOf(edges []*HierarchyInfo) int {
	for i, e := range edges {
		if h.Equal(e) {
			return i
		}
	}
	return -1
}

// Class is a class, struct or union definition.
type Class struct {
	base
	children
	ClassType ClassType
	Bases     []*HierarchyInfo
	Derived   []*HierarchyInfo
	// Aliases holds the typedefs that name this class.
	Aliases []*Typedef
}

func NewClass(name string, ct ClassType, loc Location) *Class {
	return &Class{base: base{name: name, loc: loc}, ClassType: ct}
}

func (c *Class) Kind() Kind                           { return KindClass }
func (c *Class) DeclString() string                   { return FullName(c) }
func (c *Class) Declarations() []Declaration          { return c.decls }
func (c *Class) SetDeclarations(ds []Declaration)     { c.decls = ds }
func (c *Class) AddDeclaration(d Declaration)         { c.add(c, d) }
func (c *Class) RemoveDeclaration(d Declaration) bool { return c.remove(d) }
func (c *Class) TakeParenting(other Scope)            { c.take(c, other) }

// AddBase links c to b in both directions.
func (c *Class) AddBase(b *Class, access Access) {
	c.Bases = append(c.Bases, &HierarchyInfo{Related: b, Access: access})
	b.Derived = append(b.Derived, &HierarchyInfo{Related: c, Access: access})
}

// ClassDeclaration is a forward declaration such as "class C;".
type ClassDeclaration struct {
	base
}

func NewClassDeclaration(name string, loc Location) *ClassDeclaration {
	return &ClassDeclaration{base: base{name: name, loc: loc}}
}

func (c *ClassDeclaration) Kind() Kind         { return KindClassDeclaration }
func (c *ClassDeclaration) DeclString() string { return FullName(c) }
