package cppdecl

import (
	"github.com/jward/cppdecl/internal/decl"
	"github.com/jward/cppdecl/internal/merge"
	"github.com/jward/cppdecl/internal/parser"
	"github.com/jward/cppdecl/internal/store"
)

// Public aliases for the internal types that appear in the Engine and
// QueryBuilder API.

type Store = store.Store
type Declaration = store.Declaration
type File = store.File
type HierarchyEdge = store.HierarchyEdge
type TypeRef = store.TypeRef

type Config = parser.Config
type FileConfig = parser.FileConfig
type CompilationMode = parser.CompilationMode

type Forest = decl.Forest
type MergeResult = merge.Result
type MergeStats = merge.Stats
type UnresolvedPolicy = merge.UnresolvedPolicy

const (
	FileByFile = parser.FileByFile
	AllAtOnce  = parser.AllAtOnce

	PolicyWarn = merge.PolicyWarn
	PolicyFail = merge.PolicyFail
)

// NewSourceFile describes a header read from disk.
func NewSourceFile(path string, startWith ...string) FileConfig {
	return parser.NewSourceFile(path, startWith...)
}

// NewText describes a unit given as source text.
func NewText(src string, startWith ...string) FileConfig {
	return parser.NewText(src, startWith...)
}
