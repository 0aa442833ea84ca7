package cpptypes

import (
	"fmt"
	"strings"
)

// Callable is a function-like type: a return type and ordered arguments.
type Callable interface {
	Type
	ReturnType() Type
	ArgumentTypes() []Type
}

func joinArguments(args []Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.DeclString()
	}
	return strings.Join(parts, ",")
}

func cloneArguments(args []Type) []Type {
	if args == nil {
		return nil
	}
	out := make([]Type, len(args))
	for i, a := range args {
		out[i] = a.Clone()
	}
	return out
}

// FreeFunction is the type of a pointer to a free function.
type FreeFunction struct {
	Return    Type
	Arguments []Type
}

func (f *FreeFunction) ReturnType() Type      { return f.Return }
func (f *FreeFunction) ArgumentTypes() []Type { return f.Arguments }
func (f *FreeFunction) kind() string          { return "free_function" }

func (f *FreeFunction) DeclString() string {
	if f.Return == nil {
		panic("cpptypes: free function type without return type")
	}
	return fmt.Sprintf("%s (*)( %s )", f.Return.DeclString(), joinArguments(f.Arguments))
}

func (f *FreeFunction) String() string { return trimGlobal(f.DeclString()) }

// TypedefString renders the function type as the body of a typedef named name.
func (f *FreeFunction) TypedefString(name string) string {
	return fmt.Sprintf("%s ( *%s )( %s )", f.Return.DeclString(), name, joinArguments(f.Arguments))
}

func (f *FreeFunction) Clone() Type {
	var ret Type
	if f.Return != nil {
		ret = f.Return.Clone()
	}
	return &FreeFunction{Return: ret, Arguments: cloneArguments(f.Arguments)}
}

// MemberFunction is the type of a pointer to a member function of Class.
type MemberFunction struct {
	Class     Declaration
	Return    Type
	Arguments []Type
	HasConst  bool
}

func (f *MemberFunction) ReturnType() Type      { return f.Return }
func (f *MemberFunction) ArgumentTypes() []Type { return f.Arguments }
func (f *MemberFunction) kind() string          { return "member_function" }

func (f *MemberFunction) constSuffix() string {
	if f.HasConst {
		return "const"
	}
	return ""
}

func (f *MemberFunction) DeclString() string {
	if f.Class == nil {
		panic("cpptypes: member function type without class")
	}
	if f.Return == nil {
		panic("cpptypes: member function type without return type")
	}
	return fmt.Sprintf("%s ( %s::* )( %s ) %s",
		f.Return.DeclString(), f.Class.DeclString(), joinArguments(f.Arguments), f.constSuffix())
}

func (f *MemberFunction) String() string { return trimGlobal(f.DeclString()) }

// TypedefString renders the member function type as the body of a typedef named name.
func (f *MemberFunction) TypedefString(name string) string {
	return fmt.Sprintf("%s ( %s::*%s )( %s ) %s",
		f.Return.DeclString(), f.Class.DeclString(), name, joinArguments(f.Arguments), f.constSuffix())
}

func (f *MemberFunction) Clone() Type {
	var ret Type
	if f.Return != nil {
		ret = f.Return.Clone()
	}
	return &MemberFunction{
		Class:     f.Class,
		Return:    ret,
		Arguments: cloneArguments(f.Arguments),
		HasConst:  f.HasConst,
	}
}

// MemberVariable is the type of a pointer to a data member of Class.
type MemberVariable struct {
	Class    Declaration
	Variable Type
}

func (v *MemberVariable) kind() string { return "member_variable" }

func (v *MemberVariable) DeclString() string {
	if v.Class == nil {
		panic("cpptypes: member variable type without class")
	}
	return fmt.Sprintf("%s ( %s::* )", v.Variable.DeclString(), v.Class.DeclString())
}

func (v *MemberVariable) String() string { return trimGlobal(v.DeclString()) }

func (v *MemberVariable) Clone() Type {
	return &MemberVariable{Class: v.Class, Variable: v.Variable.Clone()}
}
