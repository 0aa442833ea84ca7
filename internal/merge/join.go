package merge

import "github.com/jward/cppdecl/internal/decl"

// JoinTopLevel folds other into main. A top-level namespace of other whose
// name matches a namespace already in main hands its children to that
// namespace; every other declaration is appended. The main slice is not
// modified, but its namespaces gain the moved children.
func JoinTopLevel(main, other []decl.Declaration) []decl.Declaration {
	answer := append([]decl.Declaration(nil), main...)
	for _, d := range other {
		ns, ok := d.(*decl.Namespace)
		if !ok {
			answer = append(answer, d)
			continue
		}
		if target := findNamespace(answer, ns.Name()); target != nil {
			target.TakeParenting(ns)
		} else {
			answer = append(answer, ns)
		}
	}
	return answer
}

func findNamespace(decls []decl.Declaration, name string) *decl.Namespace {
	for _, d := range decls {
		if ns, ok := d.(*decl.Namespace); ok && ns.Name() == name {
			return ns
		}
	}
	return nil
}

type groupKey struct {
	kind decl.Kind
	name string
}

// JoinNamespace removes duplicate children of ns. The first declaration
// of each (kind, name) pair survives. Later namespaces are absorbed into
// the first, later callables survive as overloads unless their signature
// is already recorded, and anything else is dropped.
func JoinNamespace(ns *decl.Namespace) error {
	records := make(map[groupKey][]decl.Declaration)
	var kept []decl.Declaration
	for _, d := range ns.Declarations() {
		if d.Parent() != decl.Scope(ns) {
			return structuralf("%s is listed under %s but parented elsewhere", decl.FullName(d), decl.FullName(ns))
		}
		k := groupKey{kind: d.Kind(), name: d.Name()}
		rec, seen := records[k]
		if !seen {
			records[k] = []decl.Declaration{d}
			kept = append(kept, d)
			continue
		}
		if c, ok := d.(*decl.Calldef); ok {
			if !hasSignature(rec, c) {
				records[k] = append(rec, d)
				kept = append(kept, d)
			}
			continue
		}
		if len(rec) != 1 {
			return structuralf("%d declarations recorded for %s %s", len(rec), d.Kind(), decl.FullName(d))
		}
		if dup, ok := d.(*decl.Namespace); ok {
			rec[0].(*decl.Namespace).TakeParenting(dup)
		}
	}
	ns.SetDeclarations(kept)
	return nil
}

func hasSignature(recorded []decl.Declaration, c *decl.Calldef) bool {
	for _, r := range recorded {
		if r.(*decl.Calldef).SameSignature(c) {
			return true
		}
	}
	return false
}

// JoinDeclarations joins ns and then, depth first, every namespace below it.
func JoinDeclarations(ns *decl.Namespace) error {
	if err := JoinNamespace(ns); err != nil {
		return err
	}
	for _, d := range ns.Declarations() {
		if child, ok := d.(*decl.Namespace); ok {
			if err := JoinDeclarations(child); err != nil {
				return err
			}
		}
	}
	return nil
}
