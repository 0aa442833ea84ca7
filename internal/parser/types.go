package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

// aliases maps common library typedef names onto fundamentals.
var aliases = map[string]*cpptypes.Fundamental{
	"size_t":    cpptypes.LongUnsignedInt,
	"ssize_t":   cpptypes.LongInt,
	"ptrdiff_t": cpptypes.LongInt,
	"intptr_t":  cpptypes.LongInt,
	"uintptr_t": cpptypes.LongUnsignedInt,
	"int8_t":    cpptypes.Char,
	"uint8_t":   cpptypes.UnsignedChar,
	"int16_t":   cpptypes.ShortInt,
	"uint16_t":  cpptypes.ShortUnsignedInt,
	"int32_t":   cpptypes.Int,
	"uint32_t":  cpptypes.UnsignedInt,
	"int64_t":   cpptypes.LongInt,
	"uint64_t":  cpptypes.LongUnsignedInt,
}

func primitive(name string) cpptypes.Type {
	if f, ok := cpptypes.LookupFundamental(name); ok {
		return f
	}
	if f, ok := aliases[name]; ok {
		return f
	}
	return cpptypes.UnknownType
}

// sized normalises "unsigned long", "short", "long long int" and friends
// to the canonical fundamental spelling.
func (f *file) sized(n *sitter.Node) cpptypes.Type {
	var unsigned, short bool
	longs := 0
	base := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "unsigned":
			unsigned = true
		case "short":
			short = true
		case "long":
			longs++
		case "primitive_type", "type_identifier":
			base = f.text(c)
		}
	}
	switch base {
	case "char":
		if unsigned {
			return cpptypes.UnsignedChar
		}
		return cpptypes.Char
	case "double":
		if longs > 0 {
			return cpptypes.LongDouble
		}
		return cpptypes.Double
	case "", "int":
	default:
		return primitive(base)
	}

	var name string
	switch {
	case short:
		name = "short"
	case longs == 1:
		name = "long"
	case longs > 1:
		name = "long long"
	}
	if name != "" {
		name += " "
	}
	if unsigned {
		name += "unsigned "
	}
	return primitive(name + "int")
}

// typeRef resolves a type node without defining anything.
func (f *file) typeRef(n *sitter.Node, scope decl.Scope) cpptypes.Type {
	switch n.Type() {
	case "primitive_type":
		return primitive(f.text(n))
	case "sized_type_specifier":
		return f.sized(n)
	case "type_identifier":
		name := f.text(n)
		if fd, ok := aliases[name]; ok {
			return fd
		}
		return f.lookupType(scope, name)
	case "qualified_identifier", "scoped_type_identifier":
		return f.lookupType(scope, f.text(n))
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		if name := n.ChildByFieldName("name"); name != nil {
			return f.lookupType(scope, f.text(name))
		}
	case "type_descriptor":
		tn := n.ChildByFieldName("type")
		if tn == nil {
			break
		}
		base := f.qualify(n, f.typeRef(tn, scope))
		return f.unwindOpt(n.ChildByFieldName("declarator"), base, scope).typ
	}
	return cpptypes.UnknownType
}

// qualify applies the type_qualifier children of n to t.
func (f *file) qualify(n *sitter.Node, t cpptypes.Type) cpptypes.Type {
	if t == nil {
		return nil
	}
	var isConst, isVolatile bool
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() != "type_qualifier" {
			continue
		}
		switch f.text(c) {
		case "const":
			isConst = true
		case "volatile":
			isVolatile = true
		}
	}
	if isVolatile {
		t = &cpptypes.Volatile{Base: t}
	}
	if isConst {
		t = &cpptypes.Const{Base: t}
	}
	return t
}

// lookupType finds the declaration a possibly qualified name refers to,
// walking outwards from scope. Classes win over other declarations of the
// same name.
func (f *file) lookupType(scope decl.Scope, name string) cpptypes.Type {
	if d := f.lookup(scope, name); d != nil {
		return cpptypes.NewDeclared(d)
	}
	return cpptypes.UnknownType
}

func (f *file) lookup(scope decl.Scope, name string) decl.Declaration {
	if strings.ContainsAny(name, "<>") {
		return nil
	}
	parts := strings.Split(name, "::")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	start := scope
	if parts[0] == "" {
		start = f.global
		parts = parts[1:]
		if len(parts) == 0 {
			return nil
		}
		return descend(start, parts)
	}
	for s := start; s != nil; s = s.Parent() {
		if d := descend(s, parts); d != nil {
			return d
		}
	}
	return nil
}

// descend resolves parts relative to s: every part but the last names a
// namespace or class.
func descend(s decl.Scope, parts []string) decl.Declaration {
	cur := s
	for _, p := range parts[:len(parts)-1] {
		next := childScope(cur, p)
		if next == nil {
			return nil
		}
		cur = next
	}
	return typeIn(cur, parts[len(parts)-1])
}

func childScope(s decl.Scope, name string) decl.Scope {
	var found decl.Scope
	for _, d := range s.Declarations() {
		if d.Name() != name {
			continue
		}
		switch d := d.(type) {
		case *decl.Class:
			return d
		case *decl.Namespace:
			found = d
		}
	}
	return found
}

func typeIn(s decl.Scope, name string) decl.Declaration {
	var other, forward decl.Declaration
	for _, d := range s.Declarations() {
		if d.Name() != name {
			continue
		}
		switch d.(type) {
		case *decl.Class:
			return d
		case *decl.Typedef, *decl.Enumeration:
			if other == nil {
				other = d
			}
		case *decl.ClassDeclaration:
			if forward == nil {
				forward = d
			}
		}
	}
	if other != nil {
		return other
	}
	return forward
}

// lookupClass resolves a base class name, following typedefs.
func (f *file) lookupClass(scope decl.Scope, name string) *decl.Class {
	d := f.lookup(scope, name)
	for d != nil {
		switch v := d.(type) {
		case *decl.Class:
			return v
		case *decl.Typedef:
			dt, ok := v.Type.(*cpptypes.Declared)
			if !ok {
				return nil
			}
			next, ok := dt.Declaration.(decl.Declaration)
			if !ok {
				return nil
			}
			d = next
		default:
			return nil
		}
	}
	return nil
}

// declarator is the result of unwinding a declarator node.
type declarator struct {
	name  string
	typ   cpptypes.Type
	value string
	// fn is set when the declared entity itself is a function.
	fn *sitter.Node
}

var declaratorTypes = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"type_identifier":          true,
	"destructor_name":          true,
	"operator_name":            true,
	"qualified_identifier":     true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"function_declarator":      true,
	"parenthesized_declarator": true,
}

func isName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier", "destructor_name",
		"operator_name", "qualified_identifier":
		return true
	}
	return false
}

// declarators returns the declarator children of a declaration, skipping
// the type node and any default value or initializer that follows '='.
func (f *file) declarators(n, typeNode *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	afterEq := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			switch c.Type() {
			case "=":
				afterEq = true
			case ",", ";":
				afterEq = false
			}
			continue
		}
		if afterEq || sameNode(c, typeNode) || !declaratorTypes[c.Type()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (f *file) unwindOpt(n *sitter.Node, base cpptypes.Type, scope decl.Scope) declarator {
	if n == nil {
		return declarator{typ: base}
	}
	return f.unwind(n, base, scope)
}

// unwind applies a declarator to base, outermost first, and returns the
// declared name and final type.
func (f *file) unwind(n *sitter.Node, base cpptypes.Type, scope decl.Scope) declarator {
	return f.unwindIn(n, base, scope, false)
}

// unwindIn is unwind with constFn set when base is a function type written
// with a trailing const, which only a member function pointer keeps.
func (f *file) unwindIn(n *sitter.Node, base cpptypes.Type, scope decl.Scope, constFn bool) declarator {
	if cls, ptr := f.qualifiedMemberPointer(n); ptr != nil {
		t := f.qualify(ptr, f.memberType(n, cls, base, scope, constFn))
		return f.unwindOpt(ptr.ChildByFieldName("declarator"), t, scope)
	}
	if isName(n) {
		return declarator{name: f.text(n), typ: base}
	}
	switch n.Type() {
	case "init_declarator":
		d := f.unwindOpt(n.ChildByFieldName("declarator"), base, scope)
		if v := n.ChildByFieldName("value"); v != nil {
			d.value = f.text(v)
		}
		return d
	case "pointer_declarator", "abstract_pointer_declarator":
		var t cpptypes.Type
		if cls := f.memberScope(n); cls != "" {
			t = f.memberType(n, cls, base, scope, constFn)
		} else if _, isFn := base.(cpptypes.Callable); isFn {
			t = base
		} else {
			t = &cpptypes.Pointer{Base: known(base)}
		}
		return f.unwindOpt(n.ChildByFieldName("declarator"), f.qualify(n, t), scope)
	case "reference_declarator", "abstract_reference_declarator":
		var inner *sitter.Node
		if cnt := n.NamedChildCount(); cnt > 0 {
			inner = n.NamedChild(int(cnt) - 1)
		}
		return f.unwindOpt(inner, &cpptypes.Reference{Base: known(base)}, scope)
	case "array_declarator", "abstract_array_declarator":
		size := cpptypes.SizeUnknown
		if s := n.ChildByFieldName("size"); s != nil {
			if v, ok := parseInt(f.text(s)); ok {
				size = int(v)
			}
		}
		return f.unwindOpt(n.ChildByFieldName("declarator"), &cpptypes.Array{Base: known(base), Size: size}, scope)
	case "function_declarator", "abstract_function_declarator":
		inner := n.ChildByFieldName("declarator")
		if inner == nil || isName(inner) {
			if _, ptr := f.qualifiedMemberPointer(inner); ptr == nil {
				d := declarator{typ: base, fn: n}
				if inner != nil {
					d.name = f.text(inner)
				}
				return d
			}
		}
		fn := &cpptypes.FreeFunction{
			Return:    known(base),
			Arguments: argumentTypes(f.parameters(n.ChildByFieldName("parameters"), scope)),
		}
		return f.unwindIn(inner, fn, scope, f.constFunction(n))
	case "parenthesized_declarator", "abstract_parenthesized_declarator":
		for _, c := range namedChildren(n) {
			if !c.IsError() {
				return f.unwindIn(c, base, scope, constFn)
			}
		}
	}
	return declarator{typ: base}
}

// qualifiedMemberPointer recognises "C::*name", which the grammar reads as
// a qualified identifier ending in a pointer declarator. It returns the
// class text and the pointer node.
func (f *file) qualifiedMemberPointer(n *sitter.Node) (string, *sitter.Node) {
	if n == nil || n.Type() != "qualified_identifier" {
		return "", nil
	}
	name := n
	for name != nil && name.Type() == "qualified_identifier" {
		name = name.ChildByFieldName("name")
	}
	if name == nil || (name.Type() != "pointer_type_declarator" && name.Type() != "pointer_declarator") {
		return "", nil
	}
	cls := string(f.src[n.StartByte():name.StartByte()])
	return strings.TrimSuffix(strings.TrimSpace(cls), "::"), name
}

// memberScope returns the class of a pointer declarator written "C::*",
// where the grammar leaves "C::" as an error node just before it.
func (f *file) memberScope(n *sitter.Node) string {
	prev := n.PrevNamedSibling()
	if prev == nil || !prev.IsError() {
		return ""
	}
	text := strings.TrimSpace(f.text(prev))
	if !strings.HasSuffix(text, "::") {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(text, "::"))
}

// constFunction reports a trailing const on a function declarator. Inside
// a typedef the grammar leaves that const as a sibling error node.
func (f *file) constFunction(n *sitter.Node) bool {
	if f.hasChild(n, "type_qualifier", "const") {
		return true
	}
	next := n.NextNamedSibling()
	return next != nil && next.IsError() && strings.TrimSpace(f.text(next)) == "const"
}

// memberType builds the pointer-to-member type of class cls over base. A
// function base gives a member function pointer. An unknown class leaves
// the type unknown.
func (f *file) memberType(at *sitter.Node, cls string, base cpptypes.Type, scope decl.Scope, constFn bool) cpptypes.Type {
	c := f.lookupClass(scope, cls)
	if c == nil {
		if f.r.cfg.Verbose {
			f.r.logger.Printf("%s:%d: member pointer class %s is not a known class", f.path, at.StartPoint().Row+1, cls)
		}
		return cpptypes.UnknownType
	}
	if fn, ok := base.(*cpptypes.FreeFunction); ok {
		return &cpptypes.MemberFunction{Class: c, Return: fn.Return, Arguments: fn.Arguments, HasConst: constFn}
	}
	return &cpptypes.MemberVariable{Class: c, Variable: known(base)}
}

func known(t cpptypes.Type) cpptypes.Type {
	if t == nil {
		return cpptypes.UnknownType
	}
	return t
}
