package decl

import "github.com/jward/cppdecl/internal/cpptypes"

// Argument is one parameter of a callable declaration.
type Argument struct {
	Name    string
	Type    cpptypes.Type
	Default string
}

// Calldef is a function, method, constructor or destructor.
type Calldef struct {
	base
	kind       Kind
	ReturnType cpptypes.Type
	Arguments  []*Argument
	HasConst   bool
	HasStatic  bool
}

// NewCalldef creates a callable of the given kind. kind must satisfy
// Kind.IsCalldef.
func NewCalldef(kind Kind, name string, loc Location) *Calldef {
	if !kind.IsCalldef() {
		panic("decl: NewCalldef with non callable kind " + string(kind))
	}
	return &Calldef{base: base{name: name, loc: loc}, kind: kind}
}

func (c *Calldef) Kind() Kind         { return c.kind }
func (c *Calldef) DeclString() string { return FullName(c) }

// ArgumentTypes returns the argument types in order.
func (c *Calldef) ArgumentTypes() []cpptypes.Type {
	out := make([]cpptypes.Type, len(c.Arguments))
	for i, a := range c.Arguments {
		out[i] = a.Type
	}
	return out
}

// FunctionType returns the pointer-to-function type of c. Non-static
// members of a class yield a member function type.
func (c *Calldef) FunctionType() cpptypes.Type {
	ret := c.ReturnType
	if ret == nil {
		ret = cpptypes.Void
	}
	if cls, ok := c.parent.(*Class); ok && !c.HasStatic && c.kind != KindFreeFunction {
		return &cpptypes.MemberFunction{
			Class:     cls,
			Return:    ret,
			Arguments: c.ArgumentTypes(),
			HasConst:  c.HasConst,
		}
	}
	return &cpptypes.FreeFunction{Return: ret, Arguments: c.ArgumentTypes()}
}

// SameSignature reports whether c and o are the same overload: same kind,
// name, rendered return and argument types, and qualifiers.
func (c *Calldef) SameSignature(o *Calldef) bool {
	if c.kind != o.kind || c.name != o.name || c.HasConst != o.HasConst || c.HasStatic != o.HasStatic {
		return false
	}
	if !cpptypes.Equal(c.ReturnType, o.ReturnType) || len(c.Arguments) != len(o.Arguments) {
		return false
	}
	for i := range c.Arguments {
		if !cpptypes.Equal(c.Arguments[i].Type, o.Arguments[i].Type) {
			return false
		}
	}
	return true
}

// Variable is a namespace variable or a class data member.
type Variable struct {
	base
	Type      cpptypes.Type
	Value     string
	HasStatic bool
}

func NewVariable(name string, typ cpptypes.Type, loc Location) *Variable {
	return &Variable{base: base{name: name, loc: loc}, Type: typ}
}

func (v *Variable) Kind() Kind         { return KindVariable }
func (v *Variable) DeclString() string { return FullName(v) }

// Typedef is a typedef or a using alias.
type Typedef struct {
	base
	Type cpptypes.Type
}

func NewTypedef(name string, typ cpptypes.Type, loc Location) *Typedef {
	return &Typedef{base: base{name: name, loc: loc}, Type: typ}
}

func (t *Typedef) Kind() Kind         { return KindTypedef }
func (t *Typedef) DeclString() string { return FullName(t) }

// EnumValue is one enumerator.
type EnumValue struct {
	Name  string
	Value int64
}

// Enumeration is an enum or enum class.
type Enumeration struct {
	base
	Values []EnumValue
}

func NewEnumeration(name string, loc Location) *Enumeration {
	return &Enumeration{base: base{name: name, loc: loc}}
}

func (e *Enumeration) Kind() Kind         { return KindEnumeration }
func (e *Enumeration) DeclString() string { return FullName(e) }

// Type returns the declaration's own type tree, or nil for declarations
// that have no single type.
func Type(d Declaration) cpptypes.Type {
	switch x := d.(type) {
	case *Calldef:
		return x.FunctionType()
	case *Variable:
		return x.Type
	case *Typedef:
		return x.Type
	}
	return nil
}
