// Package cppdecl reads C++ headers into declaration forests and merges the
// forests of independently read translation units into one consistent graph.
//
// # Pipeline
//
// Reading a project happens in three steps:
//
//  1. Read: every translation unit is parsed with tree-sitter into its own
//     forest rooted at the global namespace. Units are read concurrently and
//     cached by content hash.
//
//  2. Merge: same-named namespaces are joined, duplicate declarations are
//     dropped (overloads survive), every class identity collapses to one
//     canonical class with a unified hierarchy, declared types are relinked
//     onto canonical classes and typedefs are bound to the classes they name.
//
//  3. Index (optional): the merged forest is written to SQLite for queries.
//
// # Usage
//
//	e, err := cppdecl.New("cppdecl.db", cppdecl.WithConfig(cppdecl.Config{
//		IncludePaths: []string{"include"},
//	}))
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.Index(ctx, []cppdecl.FileConfig{
//		cppdecl.NewSourceFile("a.h"),
//		cppdecl.NewSourceFile("b.h"),
//	})
//
//	h, err := e.Query().ClassHierarchy("::geo::Shape")
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.Classes] and [QueryBuilder.Class] for class lookup.
//   - [QueryBuilder.Bases] and [QueryBuilder.Derived] for direct edges.
//   - [QueryBuilder.ClassHierarchy] for transitive ancestors and descendants.
//   - [QueryBuilder.Declarations] for Risor-filtered declaration listings.
//   - [QueryBuilder.TypeUsers] for declarations whose types mention a class.
//
// An Engine created with an empty database path reads and merges in memory
// only; [Engine.ReadFiles] returns the merged forest directly.
package cppdecl
