package parser

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

// items reads every named child of n into scope.
func (f *file) items(ctx context.Context, n *sitter.Node, scope decl.Scope, access decl.Access) error {
	acc := access
	return f.itemList(ctx, namedChildren(n), scope, &acc)
}

func (f *file) itemList(ctx context.Context, nodes []*sitter.Node, scope decl.Scope, access *decl.Access) error {
	for _, n := range nodes {
		if err := f.item(ctx, n, scope, access); err != nil {
			return err
		}
	}
	return nil
}

func (f *file) item(ctx context.Context, n *sitter.Node, scope decl.Scope, access *decl.Access) error {
	switch n.Type() {
	case "namespace_definition":
		return f.namespace(ctx, n, scope)
	case "class_specifier", "struct_specifier", "union_specifier":
		if n.ChildByFieldName("body") == nil {
			f.forward(n, scope, *access)
			return nil
		}
		_, err := f.class(ctx, n, scope, *access, "")
		return err
	case "enum_specifier":
		f.enum(n, scope, *access, "")
	case "declaration", "field_declaration", "function_definition":
		return f.declaration(ctx, n, scope, *access)
	case "type_definition":
		return f.typedef(ctx, n, scope, *access)
	case "alias_declaration":
		f.alias(n, scope, *access)
	case "linkage_specification":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		if body.Type() == "declaration_list" {
			return f.itemList(ctx, namedChildren(body), scope, access)
		}
		return f.item(ctx, body, scope, access)
	case "access_specifier":
		*access = parseAccess(f.text(n), *access)
	case "preproc_include":
		return f.include(ctx, n, scope)
	case "preproc_def", "preproc_function_def":
		if name := n.ChildByFieldName("name"); name != nil {
			f.defines[f.text(name)] = true
		}
	case "preproc_call":
		if dir := n.ChildByFieldName("directive"); dir != nil && strings.TrimSpace(f.text(dir)) == "#undef" {
			if arg := n.ChildByFieldName("argument"); arg != nil {
				delete(f.defines, strings.TrimSpace(f.text(arg)))
			}
		}
	case "preproc_ifdef", "preproc_elifdef":
		return f.ifdef(ctx, n, scope, access)
	case "preproc_if", "preproc_elif":
		return f.preprocIf(ctx, n, scope, access)
	case "preproc_else":
		return f.itemList(ctx, namedChildren(n), scope, access)
	}
	return nil
}

func parseAccess(s string, current decl.Access) decl.Access {
	switch {
	case strings.Contains(s, "public"):
		return decl.AccessPublic
	case strings.Contains(s, "protected"):
		return decl.AccessProtected
	case strings.Contains(s, "private"):
		return decl.AccessPrivate
	}
	return current
}

func (f *file) namespace(ctx context.Context, n *sitter.Node, scope decl.Scope) error {
	name := ""
	if nn := n.ChildByFieldName("name"); nn != nil {
		name = f.text(nn)
	}
	target := scope
	for _, part := range strings.Split(name, "::") {
		target = f.openNamespace(target, strings.TrimSpace(part), f.location(n))
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	return f.items(ctx, body, target, decl.AccessNone)
}

// openNamespace returns the namespace called name in scope, creating it
// on first use so reopened namespaces share one object per unit.
func (f *file) openNamespace(scope decl.Scope, name string, loc decl.Location) decl.Scope {
	for _, d := range scope.Declarations() {
		if ns, ok := d.(*decl.Namespace); ok && ns.Name() == name {
			return ns
		}
	}
	ns := decl.NewNamespace(name)
	ns.SetLocation(loc)
	scope.AddDeclaration(ns)
	return ns
}

func classTypeOf(nodeType string) decl.ClassType {
	switch nodeType {
	case "struct_specifier":
		return decl.ClassTypeStruct
	case "union_specifier":
		return decl.ClassTypeUnion
	}
	return decl.ClassTypeClass
}

// class reads a class definition. name overrides the specifier's own name,
// which is how anonymous structs named by a typedef are read.
func (f *file) class(ctx context.Context, n *sitter.Node, scope decl.Scope, access decl.Access, name string) (*decl.Class, error) {
	if name == "" {
		if nn := n.ChildByFieldName("name"); nn != nil {
			name = f.text(nn)
		}
	}
	ct := classTypeOf(n.Type())
	c := decl.NewClass(name, ct, f.location(n))
	c.SetAccess(access)
	scope.AddDeclaration(c)

	if clause := childOfType(n, "base_class_clause"); clause != nil {
		f.bases(clause, c, scope)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return c, nil
	}
	return c, f.items(ctx, body, c, ct.DefaultAccess())
}

// bases links c to each base named in clause. Access defaults per base to
// the class kind's default.
func (f *file) bases(clause *sitter.Node, c *decl.Class, scope decl.Scope) {
	access := c.ClassType.DefaultAccess()
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "access_specifier", "public", "protected", "private":
			access = parseAccess(f.text(child), access)
		case ",":
			access = c.ClassType.DefaultAccess()
		case "type_identifier", "qualified_identifier", "template_type":
			base := f.lookupClass(scope, f.text(child))
			if base == nil {
				if f.r.cfg.Verbose {
					f.r.logger.Printf("%s:%d: base %s of %s is not a known class", f.path, child.StartPoint().Row+1, f.text(child), c.Name())
				}
				continue
			}
			c.AddBase(base, access)
		}
	}
}

func (f *file) forward(n *sitter.Node, scope decl.Scope, access decl.Access) {
	nn := n.ChildByFieldName("name")
	if nn == nil {
		return
	}
	fd := decl.NewClassDeclaration(f.text(nn), f.location(n))
	fd.SetAccess(access)
	scope.AddDeclaration(fd)
}

func (f *file) enum(n *sitter.Node, scope decl.Scope, access decl.Access, name string) *decl.Enumeration {
	if name == "" {
		if nn := n.ChildByFieldName("name"); nn != nil {
			name = f.text(nn)
		}
	}
	body := n.ChildByFieldName("body")
	if body == nil || name == "" {
		return nil
	}
	e := decl.NewEnumeration(name, f.location(n))
	e.SetAccess(access)
	scope.AddDeclaration(e)

	var next int64
	for _, en := range namedChildren(body) {
		if en.Type() != "enumerator" {
			continue
		}
		nameNode := en.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		if v := en.ChildByFieldName("value"); v != nil {
			if parsed, ok := parseInt(f.text(v)); ok {
				next = parsed
			}
		}
		e.Values = append(e.Values, decl.EnumValue{Name: f.text(nameNode), Value: next})
		next++
	}
	return e
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "uUlL")
	v, err := strconv.ParseInt(s, 0, 64)
	return v, err == nil
}

// definingType resolves the type field of a declaration. Class and enum
// specifiers with a body are defined in scope first; hint names anonymous
// ones.
func (f *file) definingType(ctx context.Context, owner, typeNode *sitter.Node, scope decl.Scope, access decl.Access, hint string) (cpptypes.Type, error) {
	var t cpptypes.Type
	switch typeNode.Type() {
	case "class_specifier", "struct_specifier", "union_specifier":
		if typeNode.ChildByFieldName("body") == nil {
			t = f.typeRef(typeNode, scope)
			break
		}
		if typeNode.ChildByFieldName("name") == nil && hint == "" {
			return cpptypes.UnknownType, nil
		}
		c, err := f.class(ctx, typeNode, scope, access, hint)
		if err != nil {
			return nil, err
		}
		t = cpptypes.NewDeclared(c)
	case "enum_specifier":
		if typeNode.ChildByFieldName("body") == nil {
			t = f.typeRef(typeNode, scope)
			break
		}
		e := f.enum(typeNode, scope, access, hint)
		if e == nil {
			return cpptypes.UnknownType, nil
		}
		t = cpptypes.NewDeclared(e)
	default:
		t = f.typeRef(typeNode, scope)
	}
	return f.qualify(owner, t), nil
}

func (f *file) declaration(ctx context.Context, n *sitter.Node, scope decl.Scope, access decl.Access) error {
	typeNode := n.ChildByFieldName("type")
	var base cpptypes.Type
	if typeNode != nil {
		var err error
		base, err = f.definingType(ctx, n, typeNode, scope, access, "")
		if err != nil {
			return err
		}
	}
	static := f.hasChild(n, "storage_class_specifier", "static")

	if cls, name, ok := f.fieldMemberPointer(n); ok && base != nil {
		v := decl.NewVariable(name, f.memberType(n, cls, base, scope, false), f.location(n))
		v.HasStatic = static
		v.SetAccess(access)
		scope.AddDeclaration(v)
		return nil
	}

	for _, dn := range f.declarators(n, typeNode) {
		d := f.unwind(dn, base, scope)
		if d.name == "" || strings.Contains(d.name, "::") {
			continue
		}
		if d.fn != nil {
			f.calldef(n, d, scope, access, static, typeNode == nil)
			continue
		}
		if base == nil {
			continue
		}
		v := decl.NewVariable(d.name, d.typ, f.location(n))
		v.Value = d.value
		v.HasStatic = static
		v.SetAccess(access)
		scope.AddDeclaration(v)
	}
	return nil
}

// fieldMemberPointer recognises "T C::*name;" in a class body, which the
// grammar reads as a field C, an error node and a bitfield ":*name".
func (f *file) fieldMemberPointer(n *sitter.Node) (cls, name string, ok bool) {
	if n.Type() != "field_declaration" || childOfType(n, "ERROR") == nil {
		return "", "", false
	}
	id := n.ChildByFieldName("declarator")
	bf := childOfType(n, "bitfield_clause")
	if id == nil || id.Type() != "field_identifier" || bf == nil {
		return "", "", false
	}
	pe := childOfType(bf, "pointer_expression")
	if pe == nil {
		return "", "", false
	}
	arg := pe.ChildByFieldName("argument")
	if arg == nil || arg.Type() != "identifier" {
		return "", "", false
	}
	return f.text(id), f.text(arg), true
}

func (f *file) calldef(n *sitter.Node, d declarator, scope decl.Scope, access decl.Access, static, untyped bool) {
	kind := decl.KindFreeFunction
	if cls, ok := scope.(*decl.Class); ok {
		kind = decl.KindMemberFunction
		switch {
		case strings.HasPrefix(d.name, "~"):
			kind = decl.KindDestructor
		case untyped && d.name == cls.Name():
			kind = decl.KindConstructor
		}
	}
	c := decl.NewCalldef(kind, d.name, f.location(n))
	switch kind {
	case decl.KindFreeFunction, decl.KindMemberFunction:
		c.ReturnType = d.typ
		if c.ReturnType == nil {
			c.ReturnType = cpptypes.UnknownType
		}
	}
	c.Arguments = f.parameters(d.fn.ChildByFieldName("parameters"), scope)
	c.HasConst = f.hasChild(d.fn, "type_qualifier", "const")
	c.HasStatic = static
	c.SetAccess(access)
	scope.AddDeclaration(c)
}

func (f *file) typedef(ctx context.Context, n *sitter.Node, scope decl.Scope, access decl.Access) error {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	dns := f.declarators(n, typeNode)
	hint := ""
	if len(dns) > 0 {
		hint = f.unwind(dns[0], cpptypes.UnknownType, scope).name
	}
	base, err := f.definingType(ctx, n, typeNode, scope, access, hint)
	if err != nil {
		return err
	}
	for _, dn := range dns {
		d := f.unwind(dn, base, scope)
		if d.name == "" {
			continue
		}
		typ := d.typ
		if d.fn != nil {
			typ = &cpptypes.FreeFunction{Return: d.typ, Arguments: argumentTypes(f.parameters(d.fn.ChildByFieldName("parameters"), scope))}
		}
		td := decl.NewTypedef(d.name, typ, f.location(n))
		td.SetAccess(access)
		scope.AddDeclaration(td)
	}
	return nil
}

func (f *file) alias(n *sitter.Node, scope decl.Scope, access decl.Access) {
	name := n.ChildByFieldName("name")
	typeNode := n.ChildByFieldName("type")
	if name == nil || typeNode == nil {
		return
	}
	td := decl.NewTypedef(f.text(name), f.typeRef(typeNode, scope), f.location(n))
	td.SetAccess(access)
	scope.AddDeclaration(td)
}

func (f *file) parameters(list *sitter.Node, scope decl.Scope) []*decl.Argument {
	if list == nil {
		return nil
	}
	var args []*decl.Argument
	for _, p := range namedChildren(list) {
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
		default:
			continue
		}
		var base cpptypes.Type = cpptypes.UnknownType
		if tn := p.ChildByFieldName("type"); tn != nil {
			base = f.qualify(p, f.typeRef(tn, scope))
		}
		d := f.unwindOpt(p.ChildByFieldName("declarator"), base, scope)
		arg := &decl.Argument{Name: d.name, Type: d.typ}
		if dv := p.ChildByFieldName("default_value"); dv != nil {
			arg.Default = f.text(dv)
		}
		args = append(args, arg)
	}
	// f(void) takes no arguments.
	if len(args) == 1 && args[0].Name == "" && args[0].Type == cpptypes.Type(cpptypes.Void) {
		return nil
	}
	return args
}

func argumentTypes(args []*decl.Argument) []cpptypes.Type {
	out := make([]cpptypes.Type, len(args))
	for i, a := range args {
		out[i] = a.Type
	}
	return out
}

// ifdef handles #ifdef and #ifndef blocks.
func (f *file) ifdef(ctx context.Context, n *sitter.Node, scope decl.Scope, access *decl.Access) error {
	name := n.ChildByFieldName("name")
	alt := n.ChildByFieldName("alternative")
	cond := name != nil && f.defines[f.text(name)]
	if n.ChildCount() > 0 && strings.HasSuffix(n.Child(0).Type(), "ndef") {
		cond = !cond
	}
	if cond {
		return f.itemList(ctx, bodyOf(n, name, alt), scope, access)
	}
	if alt != nil {
		return f.item(ctx, alt, scope, access)
	}
	return nil
}

// preprocIf handles #if and #elif blocks.
func (f *file) preprocIf(ctx context.Context, n *sitter.Node, scope decl.Scope, access *decl.Access) error {
	condition := n.ChildByFieldName("condition")
	alt := n.ChildByFieldName("alternative")
	if condition == nil || f.eval(condition) {
		return f.itemList(ctx, bodyOf(n, condition, alt), scope, access)
	}
	if alt != nil {
		return f.item(ctx, alt, scope, access)
	}
	return nil
}

// eval evaluates a preprocessor condition against the unit's define set.
// Expressions it cannot decide count as true.
func (f *file) eval(n *sitter.Node) bool {
	switch n.Type() {
	case "number_literal":
		v, ok := parseInt(f.text(n))
		return !ok || v != 0
	case "identifier":
		return f.defines[f.text(n)]
	case "preproc_defined":
		for _, c := range namedChildren(n) {
			if c.Type() == "identifier" {
				return f.defines[f.text(c)]
			}
		}
		return false
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return f.eval(n.NamedChild(0))
		}
	case "unary_expression":
		op, arg := n.ChildByFieldName("operator"), n.ChildByFieldName("argument")
		if op != nil && arg != nil && f.text(op) == "!" {
			return !f.eval(arg)
		}
	case "binary_expression":
		l, op, r := n.ChildByFieldName("left"), n.ChildByFieldName("operator"), n.ChildByFieldName("right")
		if l != nil && op != nil && r != nil {
			switch f.text(op) {
			case "&&":
				return f.eval(l) && f.eval(r)
			case "||":
				return f.eval(l) || f.eval(r)
			}
		}
	}
	return true
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func (f *file) hasChild(n *sitter.Node, typ, text string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == typ && f.text(c) == text {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// bodyOf returns the named children of a conditional block other than
// its condition and alternative.
func bodyOf(n *sitter.Node, skip ...*sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(n) {
		skipped := false
		for _, s := range skip {
			if sameNode(c, s) {
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, c)
		}
	}
	return out
}
