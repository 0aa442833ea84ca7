// Package graphexport loads a merged class hierarchy into Neo4j.
package graphexport

import (
	"sort"

	"github.com/jward/cppdecl/internal/decl"
)

// ClassNode is one CppClass node.
type ClassNode struct {
	FullName  string
	Name      string
	ClassType string
	File      string
	Line      int
	Members   int
}

// InheritanceEdge is one INHERITS relationship, derived to base.
type InheritanceEdge struct {
	Derived string
	Base    string
	Access  string
}

// BuildClassNodes returns one node per class of the forest, ordered by full
// name. Classes that share a full name after a merge collapse to the first.
func BuildClassNodes(forest *decl.Forest) []ClassNode {
	seen := make(map[string]bool)
	var nodes []ClassNode
	for _, c := range forest.Classes() {
		name := decl.FullName(c)
		if seen[name] {
			continue
		}
		seen[name] = true
		loc := c.Location()
		nodes = append(nodes, ClassNode{
			FullName:  name,
			Name:      c.Name(),
			ClassType: string(c.ClassType),
			File:      loc.File,
			Line:      loc.Line,
			Members:   len(c.Declarations()),
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].FullName < nodes[j].FullName })
	return nodes
}

// BuildInheritanceEdges returns the base edges of every class, deduplicated.
func BuildInheritanceEdges(forest *decl.Forest) []InheritanceEdge {
	seen := make(map[InheritanceEdge]bool)
	var edges []InheritanceEdge
	for _, c := range forest.Classes() {
		for _, b := range c.Bases {
			e := InheritanceEdge{
				Derived: decl.FullName(c),
				Base:    decl.FullName(b.Related),
				Access:  string(b.Access),
			}
			if seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Derived != edges[j].Derived {
			return edges[i].Derived < edges[j].Derived
		}
		return edges[i].Base < edges[j].Base
	})
	return edges
}

func classBatch(nodes []ClassNode) []map[string]any {
	batch := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		batch = append(batch, map[string]any{
			"full_name": n.FullName, "name": n.Name, "class_type": n.ClassType,
			"file": n.File, "line": n.Line, "members": n.Members,
		})
	}
	return batch
}

func edgeBatch(edges []InheritanceEdge) []map[string]any {
	batch := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		batch = append(batch, map[string]any{
			"derived": e.Derived,
			"base":    e.Base,
			"access":  e.Access,
		})
	}
	return batch
}

// chunk splits batch into slices of at most size rows.
func chunk(batch []map[string]any, size int) [][]map[string]any {
	if size <= 0 || len(batch) <= size {
		if len(batch) == 0 {
			return nil
		}
		return [][]map[string]any{batch}
	}
	var out [][]map[string]any
	for len(batch) > size {
		out = append(out, batch[:size])
		batch = batch[size:]
	}
	return append(out, batch)
}
