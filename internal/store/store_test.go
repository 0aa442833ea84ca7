package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleForest builds ::n{C, D : public C, f(C*) -> C&, static int count}
// plus ::Color{Red, Green}.
func sampleForest() *decl.Forest {
	loc := func(line int) decl.Location { return decl.Location{File: "n.h", Line: line} }
	global := decl.NewGlobalNamespace()
	ns := decl.NewNamespace("n")
	global.AddDeclaration(ns)

	c := decl.NewClass("C", decl.ClassTypeClass, loc(1))
	d := decl.NewClass("D", decl.ClassTypeStruct, loc(2))
	d.AddBase(c, decl.AccessPublic)
	ns.AddDeclaration(c)
	ns.AddDeclaration(d)

	f := decl.NewCalldef(decl.KindFreeFunction, "f", loc(3))
	f.ReturnType = &cpptypes.Reference{Base: cpptypes.NewDeclared(c)}
	f.Arguments = []*decl.Argument{{Name: "p", Type: &cpptypes.Pointer{Base: cpptypes.NewDeclared(c)}}}
	ns.AddDeclaration(f)

	v := decl.NewVariable("count", cpptypes.Int, loc(4))
	v.HasStatic = true
	v.Value = "0"
	ns.AddDeclaration(v)

	e := decl.NewEnumeration("Color", decl.Location{File: "color.h", Line: 1})
	e.Values = []decl.EnumValue{{Name: "Red", Value: 0}, {Name: "Green", Value: 1}}
	global.AddDeclaration(e)
	return decl.NewForest(global)
}

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	for _, table := range []string{"files", "declarations", "hierarchy", "type_refs", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSaveForest_Declarations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveForest(sampleForest(), []string{"n.h"}))

	c, err := s.DeclarationByFullName("::n::C")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "C", c.Name)
	assert.Equal(t, string(decl.KindClass), c.Kind)
	assert.Equal(t, "class", c.ClassType)
	assert.Equal(t, 1, c.Line)
	require.NotNil(t, c.FileID)
	require.NotNil(t, c.ParentID)

	ns, err := s.DeclarationByID(*c.ParentID)
	require.NoError(t, err)
	assert.Equal(t, "::n", ns.FullName)

	children, err := s.Children(ns.ID)
	require.NoError(t, err)
	names := make([]string, len(children))
	for i, ch := range children {
		names[i] = ch.Name
	}
	assert.Equal(t, []string{"C", "D", "f", "count"}, names)

	f, err := s.DeclarationByFullName("::n::f")
	require.NoError(t, err)
	assert.Equal(t, "::n::C & (*)( ::n::C * )", f.TypeExpr)
	assert.NotEmpty(t, f.SignatureHash)

	count, err := s.DeclarationByFullName("::n::count")
	require.NoError(t, err)
	assert.Equal(t, "int", count.TypeExpr)
	assert.Equal(t, "0", count.Value)
	assert.Equal(t, []string{"static"}, count.Modifiers)

	color, err := s.DeclarationByFullName("::Color")
	require.NoError(t, err)
	assert.Equal(t, "Red=0,Green=1", color.Value)

	missing, err := s.DeclarationByFullName("::nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveForest_Files(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveForest(sampleForest(), []string{"n.h"}))

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "n.h", files[0].Path)
	assert.Equal(t, "cpp", files[0].Language)
	assert.Equal(t, "color.h", files[1].Path)
	assert.False(t, files[0].LastIndexed.IsZero())

	color, err := s.DeclarationByFullName("::Color")
	require.NoError(t, err)
	f, err := s.FileByID(*color.FileID)
	require.NoError(t, err)
	assert.Equal(t, "color.h", f.Path)
}

func TestSaveForest_Hierarchy(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveForest(sampleForest(), nil))

	c, err := s.DeclarationByFullName("::n::C")
	require.NoError(t, err)
	d, err := s.DeclarationByFullName("::n::D")
	require.NoError(t, err)

	bases, err := s.Bases(d.ID)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, c.ID, bases[0].BaseID)
	assert.Equal(t, "public", bases[0].Access)

	derived, err := s.Derived(c.ID)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, d.ID, derived[0].DerivedID)

	all, err := s.AllHierarchy()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveForest_TypeRefs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveForest(sampleForest(), nil))

	c, err := s.DeclarationByFullName("::n::C")
	require.NoError(t, err)
	f, err := s.DeclarationByFullName("::n::f")
	require.NoError(t, err)

	refs, err := s.TypeRefsTo(c.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, f.ID, refs[0].DeclarationID)
	assert.Equal(t, RoleReturn, refs[0].Role)
	assert.Equal(t, RoleArgument, refs[1].Role)
	assert.Equal(t, 0, refs[1].Ordinal)
}

func TestSaveForest_SkipsEdgesOutsideForest(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	forest := sampleForest()
	ghost := decl.NewClass("Ghost", decl.ClassTypeClass, decl.Location{File: "ghost.h", Line: 1})
	d := forest.Find("::n::D").(*decl.Class)
	d.AddBase(ghost, decl.AccessPrivate)

	require.NoError(t, s.SaveForest(forest, nil))
	row, err := s.DeclarationByFullName("::n::D")
	require.NoError(t, err)
	bases, err := s.Bases(row.ID)
	require.NoError(t, err)
	assert.Len(t, bases, 1)
}

func TestSaveForest_ReplacesContents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveForest(sampleForest(), []string{"n.h"}))
	require.NoError(t, s.SaveForest(sampleForest(), []string{"n.h"}))

	all, err := s.DeclarationsByKind("")
	require.NoError(t, err)
	// ::, n, C, D, f, count, Color
	assert.Len(t, all, 7)

	classes, err := s.DeclarationsByKind(string(decl.KindClass))
	require.NoError(t, err)
	assert.Len(t, classes, 2)

	files, err := s.Files()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDeclarationsByIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.SaveForest(sampleForest(), nil))
	c, err := s.DeclarationByFullName("::n::C")
	require.NoError(t, err)
	d, err := s.DeclarationByFullName("::n::D")
	require.NoError(t, err)

	got, err := s.DeclarationsByIDs([]int64{d.ID, c.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Name)

	none, err := s.DeclarationsByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeclarationByID_CorruptModifiers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	res, err := s.DB().Exec(
		`INSERT INTO declarations (name, full_name, kind, modifiers) VALUES ('x', '::x', 'variable', '{not json')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = s.DeclarationByID(id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode modifiers")

	_, err = s.DeclarationsByKind("variable")
	assert.Error(t, err)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("indexed_at")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetMetadata("indexed_at", "one"))
	require.NoError(t, s.SetMetadata("indexed_at", "two"))
	v, err = s.GetMetadata("indexed_at")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestComputeSignatureHash(t *testing.T) {
	t.Parallel()
	a := ComputeSignatureHash("::f", "free_function", "", "int (*)(  )", []string{"static", "const"})
	b := ComputeSignatureHash("::f", "free_function", "", "int (*)(  )", []string{"const", "static"})
	assert.Equal(t, a, b)
	c := ComputeSignatureHash("::f", "free_function", "", "void (*)(  )", nil)
	assert.NotEqual(t, a, c)
	assert.Len(t, ComputeFileHash([]byte("x")), 64)
}
