package merge

import (
	"fmt"

	"github.com/jward/cppdecl/internal/decl"
)

// CanonicalMap maps an identity key to the class that represents it.
type CanonicalMap map[decl.Key]*decl.Class

// Resolve returns the canonical class for c's key.
func (m CanonicalMap) Resolve(c *decl.Class) (*decl.Class, bool) {
	canon, ok := m[decl.KeyOf(c)]
	return canon, ok
}

// HierarchyStats summarises one UnifyHierarchy run.
type HierarchyStats struct {
	Classes    int
	Canonical  int
	Removed    int
	Unresolved []Unresolved
}

// BuildCanonicalMap picks the first class seen for each identity key.
func BuildCanonicalMap(classes []*decl.Class) CanonicalMap {
	m := make(CanonicalMap, len(classes))
	for _, c := range classes {
		k := decl.KeyOf(c)
		if _, ok := m[k]; !ok {
			m[k] = c
		}
	}
	return m
}

// UnifyHierarchy keeps one class per identity key in forest. Base and
// derived edges of every class, duplicate or not, are installed on the
// canonical classes in both directions, and the duplicates are removed
// from their parents by identity.
func UnifyHierarchy(forest *decl.Forest, opts Options) (CanonicalMap, HierarchyStats, error) {
	classes := forest.Classes()
	cmap := BuildCanonicalMap(classes)
	stats := HierarchyStats{Classes: len(classes), Canonical: len(cmap)}
	seen := make(map[Unresolved]bool)

	for _, c := range classes {
		kept := cmap[decl.KeyOf(c)]

		for _, edge := range snapshot(c.Bases) {
			base, ok := cmap.Resolve(edge.Related)
			if !ok {
				if err := unresolvedEdge(opts, &stats, seen, kept, &kept.Bases, edge, "bases"); err != nil {
					return nil, stats, err
				}
				continue
			}
			upsertEdge(&kept.Bases, base, edge.Access)
			upsertEdge(&base.Derived, kept, edge.Access)
		}

		for _, edge := range snapshot(c.Derived) {
			derived, ok := cmap.Resolve(edge.Related)
			if !ok {
				if err := unresolvedEdge(opts, &stats, seen, kept, &kept.Derived, edge, "derived"); err != nil {
					return nil, stats, err
				}
				continue
			}
			upsertEdge(&kept.Derived, derived, edge.Access)
			upsertEdge(&derived.Bases, kept, edge.Access)
		}
	}

	for _, c := range classes {
		if cmap[decl.KeyOf(c)] == c {
			continue
		}
		var removed bool
		if p := c.Parent(); p != nil {
			removed = p.RemoveDeclaration(c)
		} else {
			removed = forest.Remove(c)
		}
		if !removed {
			return nil, stats, structuralf("duplicate class %s not found in its parent", decl.FullName(c))
		}
		stats.Removed++
	}
	return cmap, stats, nil
}

// upsertEdge installs (related, access) in edges, retargeting an equal
// edge in place instead of adding a second one.
func upsertEdge(edges *[]*decl.HierarchyInfo, related *decl.Class, access decl.Access) {
	edge := &decl.HierarchyInfo{Related: related, Access: access}
	if i := edge.IndexOf(*edges); i >= 0 {
		(*edges)[i].Related = related
		return
	}
	*edges = append(*edges, edge)
}

// unresolvedEdge keeps an edge whose related class has no canonical
// representative on the canonical class as it is, without a mirror edge.
func unresolvedEdge(opts Options, stats *HierarchyStats, seen map[Unresolved]bool, kept *decl.Class, edges *[]*decl.HierarchyInfo, edge *decl.HierarchyInfo, list string) error {
	u := Unresolved{
		Name:    edge.Related.Name(),
		Key:     decl.KeyOf(edge.Related),
		Context: fmt.Sprintf("%s of %s", list, decl.FullName(kept)),
	}
	if !seen[u] {
		seen[u] = true
		if err := opts.report(u, &stats.Unresolved); err != nil {
			return err
		}
	}
	if edge.IndexOf(*edges) < 0 {
		*edges = append(*edges, &decl.HierarchyInfo{Related: edge.Related, Access: edge.Access})
	}
	return nil
}

func snapshot(edges []*decl.HierarchyInfo) []*decl.HierarchyInfo {
	return append([]*decl.HierarchyInfo(nil), edges...)
}
