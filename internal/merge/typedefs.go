package merge

import (
	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

// TypedefBinder receives the flattened merged forest once, after relinking.
type TypedefBinder func(decls []decl.Declaration)

// BindTypedefs records every typedef that names a class, directly or
// through other typedefs, in that class's Aliases. Existing aliases of a
// bound class are replaced, so binding twice gives the same result.
func BindTypedefs(decls []decl.Declaration) {
	cleared := make(map[*decl.Class]bool)
	for _, d := range decls {
		td, ok := d.(*decl.Typedef)
		if !ok {
			continue
		}
		cls := aliasedClass(td.Type)
		if cls == nil {
			continue
		}
		if !cleared[cls] {
			cleared[cls] = true
			cls.Aliases = nil
		}
		cls.Aliases = append(cls.Aliases, td)
	}
}

// aliasedClass follows Declared typedef chains down to a class.
func aliasedClass(t cpptypes.Type) *decl.Class {
	visited := make(map[*decl.Typedef]bool)
	for {
		d, ok := t.(*cpptypes.Declared)
		if !ok {
			return nil
		}
		switch x := d.Declaration.(type) {
		case *decl.Class:
			return x
		case *decl.Typedef:
			if visited[x] {
				return nil
			}
			visited[x] = true
			t = x.Type
		default:
			return nil
		}
	}
}
