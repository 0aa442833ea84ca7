package merge

import (
	"fmt"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

// RelinkStats summarises one Relink run.
type RelinkStats struct {
	DeclaredTypes int
	ClassRefs     int
	Relinked      int
	Unresolved    []Unresolved
}

// typeRoot is a type tree hanging off a declaration.
type typeRoot struct {
	owner decl.Declaration
	typ   cpptypes.Type
}

func typeRoots(forest *decl.Forest) []typeRoot {
	var roots []typeRoot
	for _, d := range forest.Flatten() {
		switch x := d.(type) {
		case *decl.Calldef:
			roots = append(roots, typeRoot{x, x.ReturnType})
			for _, a := range x.Arguments {
				roots = append(roots, typeRoot{x, a.Type})
			}
		case *decl.Variable:
			roots = append(roots, typeRoot{x, x.Type})
		case *decl.Typedef:
			roots = append(roots, typeRoot{x, x.Type})
		}
	}
	return roots
}

// visitTypes calls fn once for every distinct node reachable from the
// type roots of forest.
func visitTypes(forest *decl.Forest, fn func(owner decl.Declaration, n cpptypes.Type) error) error {
	seen := make(map[cpptypes.Type]bool)
	var err error
	for _, root := range typeRoots(forest) {
		cpptypes.Walk(root.typ, func(n cpptypes.Type) bool {
			if err != nil || seen[n] {
				return false
			}
			seen[n] = true
			err = fn(root.owner, n)
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// DeclaredTypes returns every Declared node reachable from the return and
// argument types of callables, the types of variables and the types of
// typedefs in forest. Each node appears once.
func DeclaredTypes(forest *decl.Forest) []*cpptypes.Declared {
	var out []*cpptypes.Declared
	_ = visitTypes(forest, func(_ decl.Declaration, n cpptypes.Type) error {
		if d, ok := n.(*cpptypes.Declared); ok {
			out = append(out, d)
		}
		return nil
	})
	return out
}

// Relink points every Declared node and every member pointer class
// reference that targets a duplicate class at the canonical class from
// cmap. References to non-class declarations are left alone. Running it
// again over its own output changes nothing.
func Relink(forest *decl.Forest, cmap CanonicalMap, opts Options) (RelinkStats, error) {
	var stats RelinkStats
	seen := make(map[Unresolved]bool)

	resolve := func(owner decl.Declaration, target cpptypes.Declaration) (cpptypes.Declaration, error) {
		cls, ok := target.(*decl.Class)
		if !ok {
			return target, nil
		}
		canon, ok := cmap.Resolve(cls)
		if !ok {
			u := Unresolved{
				Name:    cls.Name(),
				Key:     decl.KeyOf(cls),
				Context: fmt.Sprintf("type of %s", decl.FullName(owner)),
			}
			if seen[u] {
				return target, nil
			}
			seen[u] = true
			return target, opts.report(u, &stats.Unresolved)
		}
		if canon != cls {
			stats.Relinked++
		}
		return canon, nil
	}

	err := visitTypes(forest, func(owner decl.Declaration, n cpptypes.Type) error {
		var err error
		switch x := n.(type) {
		case *cpptypes.Declared:
			stats.DeclaredTypes++
			x.Declaration, err = resolve(owner, x.Declaration)
		case *cpptypes.MemberFunction:
			stats.ClassRefs++
			x.Class, err = resolve(owner, x.Class)
		case *cpptypes.MemberVariable:
			stats.ClassRefs++
			x.Class, err = resolve(owner, x.Class)
		}
		return err
	})
	return stats, err
}
