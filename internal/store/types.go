package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LastIndexed time.Time
}

// Declaration is one row of the declarations table: a flattened
// decl.Declaration with its parent and file resolved to row IDs.
type Declaration struct {
	ID            int64
	FileID        *int64
	ParentID      *int64
	Name          string
	FullName      string
	Kind          string
	Access        string
	ClassType     string
	Line          int
	TypeExpr      string
	Value         string
	Modifiers     []string
	SignatureHash string
}

// HierarchyEdge is a direct base relationship between two classes.
type HierarchyEdge struct {
	ID        int64
	DerivedID int64
	BaseID    int64
	Access    string
}

// TypeRef records that a declaration's type mentions another declaration.
type TypeRef struct {
	ID            int64
	DeclarationID int64
	TargetID      int64
	// Role is "return", "argument" or "type".
	Role    string
	Ordinal int
}

const (
	RoleReturn   = "return"
	RoleArgument = "argument"
	RoleType     = "type"
)
