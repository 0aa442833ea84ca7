package decl

import "github.com/jward/cppdecl/internal/cpptypes"

// Forest is an ordered list of top-level declarations, usually one global
// namespace per translation unit.
type Forest struct {
	Declarations []Declaration
}

// NewForest returns a forest over roots.
func NewForest(roots ...Declaration) *Forest {
	return &Forest{Declarations: roots}
}

// Flatten returns every declaration of the forest in pre-order.
func (f *Forest) Flatten() []Declaration {
	return Flatten(f.Declarations)
}

// Flatten returns decls and all their descendants in pre-order.
func Flatten(decls []Declaration) []Declaration {
	var out []Declaration
	var walk func([]Declaration)
	walk = func(ds []Declaration) {
		for _, d := range ds {
			out = append(out, d)
			if s, ok := d.(Scope); ok {
				walk(s.Declarations())
			}
		}
	}
	walk(decls)
	return out
}

// Classes returns every class definition of the forest in pre-order.
func (f *Forest) Classes() []*Class {
	var out []*Class
	for _, d := range f.Flatten() {
		if c, ok := d.(*Class); ok {
			out = append(out, c)
		}
	}
	return out
}

// Remove drops the top-level declaration d, compared by identity.
func (f *Forest) Remove(d Declaration) bool {
	for i, x := range f.Declarations {
		if x == d {
			f.Declarations = append(f.Declarations[:i:i], f.Declarations[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the first declaration whose full name is fullName.
func (f *Forest) Find(fullName string) Declaration {
	for _, d := range f.Flatten() {
		if FullName(d) == fullName {
			return d
		}
	}
	return nil
}

// Clone deep copies the forest. Hierarchy edges, aliases and declared type
// references that point inside the forest are remapped onto the copies;
// references to declarations outside it are kept as they are.
func (f *Forest) Clone() *Forest {
	copies := make(map[Declaration]Declaration)
	out := &Forest{Declarations: make([]Declaration, 0, len(f.Declarations))}
	for _, d := range f.Declarations {
		out.Declarations = append(out.Declarations, shallowCopy(d, copies))
	}

	lookup := func(cd cpptypes.Declaration) cpptypes.Declaration {
		if d, ok := cd.(Declaration); ok {
			if c, ok := copies[d]; ok {
				return c
			}
		}
		return cd
	}
	for old, cp := range copies {
		relinkCopy(old, cp, copies, lookup)
	}
	return out
}

func shallowCopy(d Declaration, copies map[Declaration]Declaration) Declaration {
	b := base{name: d.Name(), loc: d.Location(), access: d.Access()}
	var cp Declaration
	switch x := d.(type) {
	case *Namespace:
		cp = &Namespace{base: b}
	case *Class:
		cp = &Class{base: b, ClassType: x.ClassType}
	case *ClassDeclaration:
		cp = &ClassDeclaration{base: b}
	case *Calldef:
		c := &Calldef{base: b, kind: x.kind, HasConst: x.HasConst, HasStatic: x.HasStatic}
		for _, a := range x.Arguments {
			c.Arguments = append(c.Arguments, &Argument{Name: a.Name, Default: a.Default})
		}
		cp = c
	case *Variable:
		cp = &Variable{base: b, Value: x.Value, HasStatic: x.HasStatic}
	case *Typedef:
		cp = &Typedef{base: b}
	case *Enumeration:
		cp = &Enumeration{base: b, Values: append([]EnumValue(nil), x.Values...)}
	default:
		panic("decl: cannot clone declaration of kind " + string(d.Kind()))
	}
	copies[d] = cp

	if s, ok := d.(Scope); ok {
		dst := cp.(Scope)
		for _, child := range s.Declarations() {
			dst.AddDeclaration(shallowCopy(child, copies))
		}
	}
	return cp
}

func relinkCopy(old, cp Declaration, copies map[Declaration]Declaration, lookup func(cpptypes.Declaration) cpptypes.Declaration) {
	switch x := old.(type) {
	case *Class:
		c := cp.(*Class)
		c.Bases = remapEdges(x.Bases, copies)
		c.Derived = remapEdges(x.Derived, copies)
		for _, td := range x.Aliases {
			if m, ok := copies[td]; ok {
				c.Aliases = append(c.Aliases, m.(*Typedef))
			} else {
				c.Aliases = append(c.Aliases, td)
			}
		}
	case *Calldef:
		c := cp.(*Calldef)
		c.ReturnType = cpptypes.Rebind(x.ReturnType, lookup)
		for i, a := range x.Arguments {
			c.Arguments[i].Type = cpptypes.Rebind(a.Type, lookup)
		}
	case *Variable:
		cp.(*Variable).Type = cpptypes.Rebind(x.Type, lookup)
	case *Typedef:
		cp.(*Typedef).Type = cpptypes.Rebind(x.Type, lookup)
	}
}

func remapEdges(edges []*HierarchyInfo, copies map[Declaration]Declaration) []*HierarchyInfo {
	if edges == nil {
		return nil
	}
	out := make([]*HierarchyInfo, len(edges))
	for i, e := range edges {
		related := e.Related
		if m, ok := copies[related]; ok {
			related = m.(*Class)
		}
		out[i] = &HierarchyInfo{Related: related, Access: e.Access}
	}
	return out
}
