package cpptypes

import "strings"

// Equal reports whether a and b render identically. Nil equals only nil.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.DeclString() == b.DeclString()
}

// Compare orders types by rendering; types that render alike but belong to
// different kinds are ordered by kind name.
func Compare(a, b Type) int {
	if c := strings.Compare(a.DeclString(), b.DeclString()); c != 0 {
		return c
	}
	return strings.Compare(a.kind(), b.kind())
}

// Walk visits t and its nested types depth first. Returning false from fn
// skips the children of the current node.
func Walk(t Type, fn func(Type) bool) {
	if t == nil || !fn(t) {
		return
	}
	switch n := t.(type) {
	case Compound:
		Walk(n.BaseType(), fn)
	case *MemberVariable:
		Walk(n.Variable, fn)
	case Callable:
		Walk(n.ReturnType(), fn)
		for _, a := range n.ArgumentTypes() {
			Walk(a, fn)
		}
	}
}

// DeclaredIn returns every Declared node inside t, in visit order.
func DeclaredIn(t Type) []*Declared {
	var out []*Declared
	Walk(t, func(n Type) bool {
		if d, ok := n.(*Declared); ok {
			out = append(out, d)
		}
		return true
	})
	return out
}

// Rebind builds a new tree shaped like t in which every declaration
// reference, including the class of member pointer types, is replaced by
// fn(reference). Fundamental and Unknown nodes stay shared.
func Rebind(t Type, fn func(Declaration) Declaration) Type {
	switch n := t.(type) {
	case nil:
		return nil
	case *Declared:
		return &Declared{Declaration: fn(n.Declaration)}
	case *Volatile:
		return &Volatile{Base: Rebind(n.Base, fn)}
	case *Const:
		return &Const{Base: Rebind(n.Base, fn)}
	case *Pointer:
		return &Pointer{Base: Rebind(n.Base, fn)}
	case *Reference:
		return &Reference{Base: Rebind(n.Base, fn)}
	case *Array:
		return &Array{Base: Rebind(n.Base, fn), Size: n.Size}
	case *FreeFunction:
		return &FreeFunction{Return: Rebind(n.Return, fn), Arguments: rebindAll(n.Arguments, fn)}
	case *MemberFunction:
		return &MemberFunction{
			Class:     rebindDecl(n.Class, fn),
			Return:    Rebind(n.Return, fn),
			Arguments: rebindAll(n.Arguments, fn),
			HasConst:  n.HasConst,
		}
	case *MemberVariable:
		return &MemberVariable{Class: rebindDecl(n.Class, fn), Variable: Rebind(n.Variable, fn)}
	default:
		return t
	}
}

func rebindDecl(d Declaration, fn func(Declaration) Declaration) Declaration {
	if d == nil {
		return nil
	}
	return fn(d)
}

func rebindAll(ts []Type, fn func(Declaration) Declaration) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Rebind(t, fn)
	}
	return out
}
