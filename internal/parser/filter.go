package parser

import (
	"strings"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

// completeForwardDeclarations points every type that names a forward
// declaration at the class definition of the same full name, when the unit
// has one.
func (u *unit) completeForwardDeclarations() {
	all := decl.Flatten([]decl.Declaration{u.global})
	classes := make(map[string]*decl.Class)
	for _, d := range all {
		if c, ok := d.(*decl.Class); ok {
			if _, dup := classes[decl.FullName(c)]; !dup {
				classes[decl.FullName(c)] = c
			}
		}
	}
	if len(classes) == 0 {
		return
	}
	retarget := func(t cpptypes.Type) {
		cpptypes.Walk(t, func(n cpptypes.Type) bool {
			if dt, ok := n.(*cpptypes.Declared); ok {
				if fd, ok := dt.Declaration.(*decl.ClassDeclaration); ok {
					if c, ok := classes[decl.FullName(fd)]; ok {
						dt.Declaration = c
					}
				}
			}
			return true
		})
	}
	for _, d := range all {
		switch x := d.(type) {
		case *decl.Calldef:
			retarget(x.ReturnType)
			for _, a := range x.Arguments {
				retarget(a.Type)
			}
		case *decl.Variable:
			retarget(x.Type)
		case *decl.Typedef:
			retarget(x.Type)
		}
	}
}

// keepOnly prunes global down to the named declarations, the scopes that
// enclose them and everything nested inside them. Names are full names
// with or without the leading "::".
func keepOnly(global decl.Scope, names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimPrefix(strings.TrimSpace(n), "::")] = true
	}
	encloses := func(name string) bool {
		for w := range want {
			if strings.HasPrefix(w, name+"::") {
				return true
			}
		}
		return false
	}

	var prune func(s decl.Scope, selected bool)
	prune = func(s decl.Scope, selected bool) {
		if selected {
			return
		}
		var kept []decl.Declaration
		for _, d := range s.Declarations() {
			name := strings.TrimPrefix(decl.FullName(d), "::")
			sel := want[name]
			if !sel && !encloses(name) {
				continue
			}
			kept = append(kept, d)
			if sc, ok := d.(decl.Scope); ok {
				prune(sc, sel)
			}
		}
		s.SetDeclarations(kept)
	}
	prune(global, false)
}
