package main

import "github.com/jward/cppdecl"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDeclaration is a JSON-friendly declaration.
type CLIDeclaration struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	Kind      string   `json:"kind"`
	Access    string   `json:"access,omitempty"`
	ClassType string   `json:"class_type,omitempty"`
	TypeExpr  string   `json:"type_expr,omitempty"`
	Value     string   `json:"value,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	File      string   `json:"file,omitempty"`
	Line      int      `json:"line"`
}

// CLIRelation is a class reached over hierarchy edges.
type CLIRelation struct {
	Class  CLIDeclaration `json:"class"`
	Access string         `json:"access"`
	Depth  int            `json:"depth"`
}

// CLIHierarchy is a JSON-friendly transitive class hierarchy.
type CLIHierarchy struct {
	Class       CLIDeclaration `json:"class"`
	Ancestors   []CLIRelation  `json:"ancestors"`
	Descendants []CLIRelation  `json:"descendants"`
}

// CLITypeUse is a declaration whose type mentions the queried one.
type CLITypeUse struct {
	Declaration CLIDeclaration `json:"declaration"`
	Role        string         `json:"role"`
	Ordinal     int            `json:"ordinal"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Language string `json:"language"`
	Hash     string `json:"hash,omitempty"`
}

// CLIMergeSummary reports the outcome of a merge.
type CLIMergeSummary struct {
	Database          string   `json:"database,omitempty"`
	Units             int      `json:"units"`
	Classes           int      `json:"classes"`
	CanonicalClasses  int      `json:"canonical_classes"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	DeclaredTypes     int      `json:"declared_types"`
	Relinked          int      `json:"relinked"`
	Unresolved        []string `json:"unresolved"`
}

// CLIExportSummary reports what an export wrote.
type CLIExportSummary struct {
	URI     string `json:"uri"`
	Classes int    `json:"classes"`
	Edges   int    `json:"edges"`
}

func declarationToCLI(d *cppdecl.Declaration, paths map[int64]string) CLIDeclaration {
	out := CLIDeclaration{
		ID:        d.ID,
		Name:      d.Name,
		FullName:  d.FullName,
		Kind:      d.Kind,
		Access:    d.Access,
		ClassType: d.ClassType,
		TypeExpr:  d.TypeExpr,
		Value:     d.Value,
		Modifiers: d.Modifiers,
		Line:      d.Line,
	}
	if d.FileID != nil {
		out.File = paths[*d.FileID]
	}
	return out
}

func declarationsToCLI(decls []*cppdecl.Declaration, paths map[int64]string) []CLIDeclaration {
	out := make([]CLIDeclaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, declarationToCLI(d, paths))
	}
	return out
}

func relationsToCLI(rels []*cppdecl.ClassRelation, paths map[int64]string) []CLIRelation {
	out := make([]CLIRelation, 0, len(rels))
	for _, r := range rels {
		out = append(out, CLIRelation{
			Class:  declarationToCLI(r.Class, paths),
			Access: r.Access,
			Depth:  r.Depth,
		})
	}
	return out
}
