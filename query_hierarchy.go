package cppdecl

import (
	"fmt"

	"github.com/jward/cppdecl/internal/store"
)

// ClassRelation is a class reached over one or more hierarchy edges.
type ClassRelation struct {
	Class *store.Declaration
	// Access is the access of the edge that reached Class.
	Access string
	// Depth is 1 for direct bases or derived classes.
	Depth int
}

// ClassHierarchy is the transitive hierarchy around one class.
type ClassHierarchy struct {
	Class       *store.Declaration
	Ancestors   []*ClassRelation
	Descendants []*ClassRelation
}

// Bases returns the direct bases of the class named fullName, in
// declaration order. Returns nil with no error if there is no such class.
func (q *QueryBuilder) Bases(fullName string) ([]*ClassRelation, error) {
	c, err := q.Class(fullName)
	if err != nil || c == nil {
		return nil, err
	}
	rels, err := q.walk(c.ID, true, 1)
	if err != nil {
		return nil, fmt.Errorf("bases: %w", err)
	}
	return rels, nil
}

// Derived returns the classes deriving directly from the class named
// fullName. Returns nil with no error if there is no such class.
func (q *QueryBuilder) Derived(fullName string) ([]*ClassRelation, error) {
	c, err := q.Class(fullName)
	if err != nil || c == nil {
		return nil, err
	}
	rels, err := q.walk(c.ID, false, 1)
	if err != nil {
		return nil, fmt.Errorf("derived: %w", err)
	}
	return rels, nil
}

// ClassHierarchy returns every ancestor and descendant of the class named
// fullName, breadth first. A class reached along several paths, as in a
// diamond, appears once at its shallowest depth.
// Returns nil with no error if there is no such class.
func (q *QueryBuilder) ClassHierarchy(fullName string) (*ClassHierarchy, error) {
	c, err := q.Class(fullName)
	if err != nil || c == nil {
		return nil, err
	}
	up, err := q.walk(c.ID, true, 0)
	if err != nil {
		return nil, fmt.Errorf("class hierarchy: ancestors: %w", err)
	}
	down, err := q.walk(c.ID, false, 0)
	if err != nil {
		return nil, fmt.Errorf("class hierarchy: descendants: %w", err)
	}
	return &ClassHierarchy{Class: c, Ancestors: up, Descendants: down}, nil
}

// walk runs a breadth-first search over hierarchy edges from id, towards
// bases when up is set. maxDepth 0 means unbounded.
func (q *QueryBuilder) walk(id int64, up bool, maxDepth int) ([]*ClassRelation, error) {
	type step struct {
		id     int64
		access string
		depth  int
	}
	visited := map[int64]bool{id: true}
	queue := []step{{id: id}}
	var found []step
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && cur.depth >= maxDepth {
			continue
		}

		var edges []*store.HierarchyEdge
		var err error
		if up {
			edges, err = q.store.Bases(cur.id)
		} else {
			edges, err = q.store.Derived(cur.id)
		}
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			next := e.BaseID
			if !up {
				next = e.DerivedID
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			s := step{id: next, access: e.Access, depth: cur.depth + 1}
			found = append(found, s)
			queue = append(queue, s)
		}
	}

	ids := make([]int64, 0, len(found))
	for _, s := range found {
		ids = append(ids, s.id)
	}
	decls, err := q.store.DeclarationsByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*store.Declaration, len(decls))
	for _, d := range decls {
		byID[d.ID] = d
	}

	rels := make([]*ClassRelation, 0, len(found))
	for _, s := range found {
		if d, ok := byID[s.id]; ok {
			rels = append(rels, &ClassRelation{Class: d, Access: s.access, Depth: s.depth})
		}
	}
	return rels, nil
}
