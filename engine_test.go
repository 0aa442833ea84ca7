package cppdecl

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
	"github.com/jward/cppdecl/internal/parser"
)

const shapeH = `#ifndef SHAPE_H
#define SHAPE_H
namespace geo {
class Shape {
public:
  virtual ~Shape();
  virtual double area() const = 0;
};
}
#endif
`

const circleH = `#include "shape.h"
namespace geo {
class Circle : public Shape {
public:
  explicit Circle(double r);
  double area() const;
};
}
`

const ringH = `#include "circle.h"
namespace geo {
class Ring : public Circle {
};
Circle* make_circle(double r);
typedef Circle Round;
}
`

// writeHeaders lays out shape.h, circle.h and ring.h in a temp directory
// and returns it with the three paths.
func writeHeaders(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{"shape.h": shapeH, "circle.h": circleH, "ring.h": ringH}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir, []string{
		filepath.Join(dir, "shape.h"),
		filepath.Join(dir, "circle.h"),
		filepath.Join(dir, "ring.h"),
	}
}

func sourceFiles(paths []string) []FileConfig {
	return parser.OSFileNames(paths...)
}

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(buf, "", 0)
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	var buf bytes.Buffer
	e, err := New(dbPath, append([]Option{WithLogger(quietLogger(&buf))}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNew_CreatesStore(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	require.NotNil(t, e.Store())
	require.NotNil(t, e.cache)
	require.NotNil(t, e.Query())
}

func TestNew_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestNew_InMemory(t *testing.T) {
	t.Parallel()
	e, err := New("")
	require.NoError(t, err)
	defer e.Close()
	assert.Nil(t, e.Store())

	_, err = e.Index(context.Background(), []FileConfig{NewText("int x;")})
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = e.Query().Classes()
	assert.ErrorIs(t, err, ErrNoStore)
	assert.True(t, e.ConfigChanged())
}

func TestNew_CacheDisabled(t *testing.T) {
	t.Parallel()
	e, err := New("", WithCacheSize(-1))
	require.NoError(t, err)
	assert.Nil(t, e.cache)
}

func TestOptions(t *testing.T) {
	t.Parallel()
	var bound bool
	e, err := New("",
		WithConfig(Config{IncludePaths: []string{"inc"}}),
		WithCompilationMode(AllAtOnce),
		WithUnresolvedPolicy(PolicyFail),
		WithTypedefBinder(func([]decl.Declaration) { bound = true }),
		WithParallelism(3),
		WithVerbose(true),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"inc"}, e.Config().IncludePaths)
	assert.True(t, e.Config().Verbose)
	assert.Equal(t, AllAtOnce, e.mode)
	assert.Equal(t, PolicyFail, e.policy)
	assert.Equal(t, 3, e.parallelism)

	_, err = e.ReadString(context.Background(), "class C {};")
	require.NoError(t, err)
	assert.True(t, bound)
}

func TestReadString(t *testing.T) {
	t.Parallel()
	e, err := New("")
	require.NoError(t, err)

	res, err := e.ReadString(context.Background(), "namespace n { class C {}; class D : public C {}; }")
	require.NoError(t, err)

	d, ok := res.Forest.Find("::n::D").(*decl.Class)
	require.True(t, ok)
	require.Len(t, d.Bases, 1)
	assert.Same(t, res.Forest.Find("::n::C"), d.Bases[0].Related)
}

func TestReadFiles_NoFiles(t *testing.T) {
	t.Parallel()
	e, err := New("")
	require.NoError(t, err)
	_, err = e.ReadFiles(context.Background(), nil)
	assert.Error(t, err)
}

func TestReadFiles_MergesUnits(t *testing.T) {
	t.Parallel()
	_, paths := writeHeaders(t)
	var buf bytes.Buffer
	e, err := New("", WithLogger(quietLogger(&buf)))
	require.NoError(t, err)

	res, err := e.ReadFiles(context.Background(), sourceFiles(paths))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Forests)

	// shape.h is read by all three units but survives once.
	assert.Len(t, res.Forest.Classes(), 3)

	shape := res.Forest.Find("::geo::Shape").(*decl.Class)
	circle := res.Forest.Find("::geo::Circle").(*decl.Class)
	ring := res.Forest.Find("::geo::Ring").(*decl.Class)
	require.Len(t, circle.Bases, 1)
	assert.Same(t, shape, circle.Bases[0].Related)
	assert.Same(t, circle, ring.Bases[0].Related)
	require.Len(t, shape.Derived, 1)
	assert.Same(t, circle, shape.Derived[0].Related)

	require.Len(t, circle.Aliases, 1)
	assert.Equal(t, "Round", circle.Aliases[0].Name())
	assert.Empty(t, res.Stats.Unresolved)
}

func TestReadFiles_RelinksMemberPointers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	files := map[string]string{
		"node.h":    "namespace geo {\nclass Node {\npublic:\n  int id;\n  void visit() const;\n};\n}\n",
		"field.h":   "#include \"node.h\"\nnamespace geo {\nint Node::*node_id;\n}\n",
		"visitor.h": "#include \"node.h\"\nnamespace geo {\ntypedef void (Node::*Visitor)() const;\n}\n",
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	var buf bytes.Buffer
	e, err := New("", WithLogger(quietLogger(&buf)))
	require.NoError(t, err)

	res, err := e.ReadFiles(context.Background(), sourceFiles([]string{
		filepath.Join(dir, "field.h"),
		filepath.Join(dir, "visitor.h"),
	}))
	require.NoError(t, err)
	require.Len(t, res.Forest.Classes(), 1)
	node := res.Forest.Find("::geo::Node").(*decl.Class)

	field, ok := res.Forest.Find("::geo::node_id").(*decl.Variable)
	require.True(t, ok)
	mv, ok := field.Type.(*cpptypes.MemberVariable)
	require.True(t, ok, "%T", field.Type)
	assert.Same(t, node, mv.Class)

	visitor, ok := res.Forest.Find("::geo::Visitor").(*decl.Typedef)
	require.True(t, ok)
	mf, ok := visitor.Type.(*cpptypes.MemberFunction)
	require.True(t, ok, "%T", visitor.Type)
	assert.Same(t, node, mf.Class)
	assert.True(t, mf.HasConst)

	assert.Equal(t, 2, res.Stats.ClassRefs)
	assert.Equal(t, 1, res.Stats.Relinked)
	assert.Empty(t, res.Stats.Unresolved)
}

func TestReadFiles_UsesCache(t *testing.T) {
	t.Parallel()
	_, paths := writeHeaders(t)
	e, err := New("", WithCacheSize(8))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = e.ReadFiles(ctx, sourceFiles(paths))
	require.NoError(t, err)
	assert.Equal(t, 3, e.cache.Len())

	res, err := e.ReadFiles(ctx, sourceFiles(paths))
	require.NoError(t, err)
	assert.Equal(t, 3, e.cache.Len())
	// The cached forests were cloned by the merge, so the second run still
	// sees a clean hierarchy.
	shape := res.Forest.Find("::geo::Shape").(*decl.Class)
	assert.Len(t, shape.Derived, 1)
}

func TestReadFiles_AllAtOnce(t *testing.T) {
	t.Parallel()
	_, paths := writeHeaders(t)
	e, err := New("", WithCompilationMode(AllAtOnce))
	require.NoError(t, err)

	res, err := e.ReadFiles(context.Background(), sourceFiles(paths))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Forests)
	assert.Len(t, res.Forest.Classes(), 3)
}

func TestReadFiles_AllAtOnceKeepsLastStartWith(t *testing.T) {
	t.Parallel()
	_, paths := writeHeaders(t)
	var buf bytes.Buffer
	e, err := New("", WithCompilationMode(AllAtOnce), WithLogger(quietLogger(&buf)))
	require.NoError(t, err)

	files := sourceFiles(paths)
	files[0].StartWithDeclarations = []string{"geo::Shape"}
	files[2].StartWithDeclarations = []string{"geo::Circle"}
	res, err := e.ReadFiles(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Forests)
	assert.NotNil(t, res.Forest.Find("::geo::Circle"))
	assert.Nil(t, res.Forest.Find("::geo::Shape"))
	assert.Nil(t, res.Forest.Find("::geo::Ring"))
}

func TestReadFiles_AllAtOnceFallsBackForText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	e, err := New("", WithCompilationMode(AllAtOnce), WithLogger(quietLogger(&buf)))
	require.NoError(t, err)

	res, err := e.ReadFiles(context.Background(), []FileConfig{
		NewText("class A {};"),
		NewText("class B {};"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Forests)
	assert.Contains(t, buf.String(), "falling back to file-by-file")
}

func TestReadFiles_MissingFile(t *testing.T) {
	t.Parallel()
	e, err := New("")
	require.NoError(t, err)
	_, err = e.ReadFiles(context.Background(), []FileConfig{NewSourceFile(filepath.Join(t.TempDir(), "nope.h"))})
	assert.Error(t, err)
}

func TestReadFiles_Cancelled(t *testing.T) {
	t.Parallel()
	e, err := New("")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ReadFiles(ctx, []FileConfig{NewText("class A {};")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_WritesStoreAndMetadata(t *testing.T) {
	t.Parallel()
	_, paths := writeHeaders(t)
	e := newTestEngine(t)
	assert.True(t, e.ConfigChanged())

	_, err := e.Index(context.Background(), sourceFiles(paths))
	require.NoError(t, err)

	files, err := e.Query().Files()
	require.NoError(t, err)
	assert.Len(t, files, 3)

	mode, err := e.Store().GetMetadata(MetaCompilationMode)
	require.NoError(t, err)
	assert.Equal(t, "file_by_file", mode)
	assert.False(t, e.ConfigChanged())
}

func TestIndex_Replaces(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Index(ctx, []FileConfig{NewText("class A {}; class B {};")})
	require.NoError(t, err)
	_, err = e.Index(ctx, []FileConfig{NewText("class C {};")})
	require.NoError(t, err)

	classes, err := e.Query().Classes()
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "::C", classes[0].FullName)
}

func TestDiscoverHeaders(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, p := range []string{"a.h", "sub/b.hpp", ".hidden/c.h", "build/d.h", "notes.txt", "e.cc"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("\n"), 0o644))
	}
	extra := filepath.Join(dir, "e.cc")

	got, err := DiscoverHeaders([]string{dir, extra})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.h"),
		filepath.Join(dir, "sub", "b.hpp"),
		extra,
	}, got)

	_, err = DiscoverHeaders([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
