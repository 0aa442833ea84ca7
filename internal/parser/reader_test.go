package parser

import (
	"bytes"
	"context"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

func readText(t *testing.T, cfg Config, src string) *decl.Forest {
	t.Helper()
	forest, err := NewReader(cfg).ReadString(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, forest.Declarations, 1)
	return forest
}

func mustFind[T decl.Declaration](t *testing.T, f *decl.Forest, name string) T {
	t.Helper()
	d := f.Find(name)
	require.NotNil(t, d, "declaration %s not found", name)
	v, ok := d.(T)
	require.True(t, ok, "%s is %T", name, d)
	return v
}

func childrenNamed(s decl.Scope, name string) []decl.Declaration {
	var out []decl.Declaration
	for _, d := range s.Declarations() {
		if d.Name() == name {
			out = append(out, d)
		}
	}
	return out
}

const classSrc = `namespace n {
class C {
public:
  C();
  ~C();
  int size() const;
  static int count(void);
  void set(int v, const char* name = 0);
private:
  int value_;
};
class D : public C {};
struct S { int x; };
}
`

func TestReadClasses(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, classSrc)

	ns := mustFind[*decl.Namespace](t, f, "::n")
	assert.Equal(t, 1, ns.Location().Line)

	c := mustFind[*decl.Class](t, f, "::n::C")
	assert.Equal(t, decl.ClassTypeClass, c.ClassType)
	assert.Equal(t, decl.Location{File: TextName, Line: 2}, c.Location())

	ctor := mustFind[*decl.Calldef](t, f, "::n::C::C")
	assert.Equal(t, decl.KindConstructor, ctor.Kind())
	assert.Nil(t, ctor.ReturnType)
	assert.Equal(t, decl.AccessPublic, ctor.Access())

	dtor := mustFind[*decl.Calldef](t, f, "::n::C::~C")
	assert.Equal(t, decl.KindDestructor, dtor.Kind())

	size := mustFind[*decl.Calldef](t, f, "::n::C::size")
	assert.Equal(t, decl.KindMemberFunction, size.Kind())
	assert.True(t, size.HasConst)
	assert.Same(t, cpptypes.Int, size.ReturnType)
	assert.Empty(t, size.Arguments)

	count := mustFind[*decl.Calldef](t, f, "::n::C::count")
	assert.True(t, count.HasStatic)
	assert.Empty(t, count.Arguments, "f(void) takes no arguments")

	set := mustFind[*decl.Calldef](t, f, "::n::C::set")
	require.Len(t, set.Arguments, 2)
	assert.Equal(t, "v", set.Arguments[0].Name)
	assert.Same(t, cpptypes.Int, set.Arguments[0].Type)
	assert.Equal(t, "name", set.Arguments[1].Name)
	assert.Equal(t, "char const *", set.Arguments[1].Type.DeclString())
	assert.Equal(t, "0", set.Arguments[1].Default)
	assert.Same(t, cpptypes.Void, set.ReturnType)

	value := mustFind[*decl.Variable](t, f, "::n::C::value_")
	assert.Equal(t, decl.AccessPrivate, value.Access())

	d := mustFind[*decl.Class](t, f, "::n::D")
	require.Len(t, d.Bases, 1)
	assert.Same(t, c, d.Bases[0].Related)
	assert.Equal(t, decl.AccessPublic, d.Bases[0].Access)
	require.Len(t, c.Derived, 1)
	assert.Same(t, d, c.Derived[0].Related)

	s := mustFind[*decl.Class](t, f, "::n::S")
	assert.Equal(t, decl.ClassTypeStruct, s.ClassType)
	assert.Equal(t, decl.AccessPublic, mustFind[*decl.Variable](t, f, "::n::S::x").Access())
}

func TestReadTypedefsAndEnums(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `typedef unsigned long int ulong;
typedef struct { int a; } Anon;
enum Color { Red, Green = 5, Blue };
using IntPtr = int*;
typedef void (*Callback)(int, double);
`)

	assert.Same(t, cpptypes.LongUnsignedInt, mustFind[*decl.Typedef](t, f, "::ulong").Type)

	anon := mustFind[*decl.Class](t, f, "::Anon")
	assert.Equal(t, decl.ClassTypeStruct, anon.ClassType)
	named := childrenNamed(f.Declarations[0].(*decl.Namespace), "Anon")
	require.Len(t, named, 2)
	td, ok := named[1].(*decl.Typedef)
	require.True(t, ok, "%T", named[1])
	require.IsType(t, &cpptypes.Declared{}, td.Type)
	assert.Same(t, anon, td.Type.(*cpptypes.Declared).Declaration)

	color := mustFind[*decl.Enumeration](t, f, "::Color")
	assert.Equal(t, []decl.EnumValue{{Name: "Red", Value: 0}, {Name: "Green", Value: 5}, {Name: "Blue", Value: 6}}, color.Values)

	assert.Equal(t, "int *", mustFind[*decl.Typedef](t, f, "::IntPtr").Type.DeclString())

	cb := mustFind[*decl.Typedef](t, f, "::Callback")
	fn, ok := cb.Type.(*cpptypes.FreeFunction)
	require.True(t, ok, "%T", cb.Type)
	assert.Same(t, cpptypes.Void, fn.Return)
	require.Len(t, fn.Arguments, 2)
	assert.Same(t, cpptypes.Double, fn.Arguments[1])
}

func TestReadVariables(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `int table[4];
extern const char* names[];
static long long int counter = 3;
unsigned short int port;
`)
	table := mustFind[*decl.Variable](t, f, "::table")
	require.IsType(t, &cpptypes.Array{}, table.Type)
	assert.Equal(t, 4, table.Type.(*cpptypes.Array).Size)

	names := mustFind[*decl.Variable](t, f, "::names")
	arr, ok := names.Type.(*cpptypes.Array)
	require.True(t, ok, "%T", names.Type)
	assert.Equal(t, cpptypes.SizeUnknown, arr.Size)
	assert.Equal(t, "char const *", arr.Base.DeclString())

	counter := mustFind[*decl.Variable](t, f, "::counter")
	assert.Same(t, cpptypes.LongLongInt, counter.Type)
	assert.True(t, counter.HasStatic)
	assert.Equal(t, "3", counter.Value)

	assert.Same(t, cpptypes.ShortUnsignedInt, mustFind[*decl.Variable](t, f, "::port").Type)
}

func TestReadCompletesForwardDeclarations(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `class Fwd;
void use(Fwd* p);
class Fwd {};
`)
	require.Len(t, f.Classes(), 1)
	fwd := f.Classes()[0]
	assert.IsType(t, &decl.ClassDeclaration{}, f.Find("::Fwd"))
	use := mustFind[*decl.Calldef](t, f, "::use")
	assert.Equal(t, decl.KindFreeFunction, use.Kind())
	require.Len(t, use.Arguments, 1)
	refs := cpptypes.DeclaredIn(use.Arguments[0].Type)
	require.Len(t, refs, 1)
	assert.Same(t, fwd, refs[0].Declaration)
}

func TestReadSkipsOutOfClassDefinitions(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `class K { void run(); static int n; };
void K::run() {}
int K::n = 0;
`)
	global := f.Declarations[0].(*decl.Namespace)
	assert.Len(t, global.Declarations(), 1)
}

func TestReadPreprocessorConditions(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{DefineSymbols: []string{"FEATURE=1"}}, `#ifdef FEATURE
int on;
#else
int off;
#endif
#ifndef FEATURE
int never;
#endif
#if defined(FEATURE) && !defined(OTHER)
int both;
#endif
#define LOCAL
#ifdef LOCAL
int local;
#endif
#undef LOCAL
#ifdef LOCAL
int gone;
#endif
`)
	for _, name := range []string{"::on", "::both", "::local"} {
		assert.NotNil(t, f.Find(name), name)
	}
	for _, name := range []string{"::off", "::never", "::gone"} {
		assert.Nil(t, f.Find(name), name)
	}
}

func TestReadUndefineSymbols(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{DefineSymbols: []string{"X"}, UndefineSymbols: []string{"X"}}, `#ifdef X
int x;
#endif
`)
	assert.Nil(t, f.Find("::x"))
}

func TestReadLinkageSpecification(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `extern "C" {
int cfunc(int);
}
`)
	fn := mustFind[*decl.Calldef](t, f, "::cfunc")
	require.Len(t, fn.Arguments, 1)
	assert.Equal(t, "", fn.Arguments[0].Name)
}

func TestReadUnknownBaseIsSkipped(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewReader(Config{Verbose: true}, WithReaderLogger(log.New(&buf, "", 0)))
	f, err := r.ReadString(context.Background(), "class E : public Missing {};\n")
	require.NoError(t, err)
	e := mustFind[*decl.Class](t, f, "::E")
	assert.Empty(t, e.Bases)
	assert.Contains(t, buf.String(), "Missing")
}

func TestReadReopenedNamespace(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `namespace a { int x; }
namespace a { int y; }
namespace a::b { int z; }
`)
	global := f.Declarations[0].(*decl.Namespace)
	require.Len(t, global.Declarations(), 1)
	assert.NotNil(t, f.Find("::a::y"))
	assert.NotNil(t, f.Find("::a::b::z"))
}

func TestReadQualifiedLookup(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, `namespace outer {
namespace inner { class T {}; }
class U : public inner::T {};
}
outer::inner::T* global_t;
`)
	tc := mustFind[*decl.Class](t, f, "::outer::inner::T")
	u := mustFind[*decl.Class](t, f, "::outer::U")
	require.Len(t, u.Bases, 1)
	assert.Same(t, tc, u.Bases[0].Related)

	v := mustFind[*decl.Variable](t, f, "::global_t")
	refs := cpptypes.DeclaredIn(v.Type)
	require.Len(t, refs, 1)
	assert.Same(t, tc, refs[0].Declaration)
}

func TestReadStartWithDeclarations(t *testing.T) {
	t.Parallel()
	src := `namespace a { class X { int y; }; class W {}; }
namespace b { class Z {}; }
int g;
`
	f := readText(t, Config{StartWithDeclarations: []string{"a::X"}}, src)
	global := f.Declarations[0].(*decl.Namespace)
	require.Len(t, global.Declarations(), 1)
	assert.NotNil(t, f.Find("::a::X::y"))
	assert.Nil(t, f.Find("::a::W"))
	assert.Nil(t, f.Find("::b"))

	// A per-file list overrides the reader's.
	r := NewReader(Config{StartWithDeclarations: []string{"a::X"}})
	res, err := r.Read(context.Background(), NewText(src, "::g"))
	require.NoError(t, err)
	assert.NotNil(t, res.Forest.Find("::g"))
	assert.Nil(t, res.Forest.Find("::a"))
}

func TestReadFileFollowsIncludes(t *testing.T) {
	t.Parallel()
	r := NewReader(Config{WorkingDirectory: "testdata"})
	res, err := r.Read(context.Background(), NewSourceFile("shapes.h"))
	require.NoError(t, err)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "shapes.h", filepath.Base(res.Files[0]))
	assert.Equal(t, "base.h", filepath.Base(res.Files[1]))

	shape := mustFind[*decl.Class](t, res.Forest, "::geo::Shape")
	circle := mustFind[*decl.Class](t, res.Forest, "::geo::Circle")
	require.Len(t, circle.Bases, 1)
	assert.Same(t, shape, circle.Bases[0].Related)
	assert.Equal(t, "base.h", filepath.Base(shape.Location().File))
	assert.True(t, filepath.IsAbs(shape.Location().File))

	area := mustFind[*decl.Calldef](t, res.Forest, "::geo::Circle::area")
	assert.True(t, area.HasConst)
}

func TestReadFileIncludesOnce(t *testing.T) {
	t.Parallel()
	r := NewReader(Config{WorkingDirectory: "testdata"})
	res, err := r.Read(context.Background(), NewSourceFile("twice.h"))
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)

	var shapes int
	for _, c := range res.Forest.Classes() {
		if c.Name() == "Shape" {
			shapes++
		}
	}
	assert.Equal(t, 1, shapes)
	sq := mustFind[*decl.Class](t, res.Forest, "::geo::Square")
	require.Len(t, sq.Bases, 1)
	assert.Equal(t, decl.AccessPublic, sq.Bases[0].Access)
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()
	_, err := NewReader(Config{WorkingDirectory: "testdata"}).ReadFile(context.Background(), "nope.h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parser: read nope.h")
}

func TestReadMissingIncludeWarns(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewReader(Config{}, WithReaderLogger(log.New(&buf, "", 0)))
	_, err := r.ReadString(context.Background(), "#include \"does_not_exist.h\"\nint x;\n")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `warning: <text>:1: include "does_not_exist.h" not found`)
}

func TestReadHonoursCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(Config{}).ReadString(ctx, "int x;")
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadVerboseLogsFiles(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewReader(Config{WorkingDirectory: "testdata", Verbose: true}, WithReaderLogger(log.New(&buf, "", 0)))
	_, err := r.ReadFile(context.Background(), "shapes.h")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Reading ")
	assert.Contains(t, buf.String(), "Including ")
}

const memberPointerSrc = `namespace ns { class Y { int k; }; }
class X {
public:
  int v;
  void m() const;
  int X::*inner;
  void (X::*cb)() const;
};
int X::*mp;
int ns::Y::*q;
void (X::*fp)(int);
typedef void (X::*pmf)() const;
typedef int X::*pmv;
int take(int X::*p);
`

func TestReadMemberPointers(t *testing.T) {
	t.Parallel()
	f := readText(t, Config{}, memberPointerSrc)
	x := mustFind[*decl.Class](t, f, "::X")
	y := mustFind[*decl.Class](t, f, "::ns::Y")

	tests := []struct {
		name  string
		typ   cpptypes.Type
		class *decl.Class
		want  string
	}{
		{"namespace scope variable", mustFind[*decl.Variable](t, f, "::mp").Type, x, "int ( ::X::* )"},
		{"qualified class", mustFind[*decl.Variable](t, f, "::q").Type, y, "int ( ::ns::Y::* )"},
		{"member function variable", mustFind[*decl.Variable](t, f, "::fp").Type, x, "void ( ::X::* )( int ) "},
		{"const member function typedef", mustFind[*decl.Typedef](t, f, "::pmf").Type, x, "void ( ::X::* )(  ) const"},
		{"member variable typedef", mustFind[*decl.Typedef](t, f, "::pmv").Type, x, "int ( ::X::* )"},
		{"class member", mustFind[*decl.Variable](t, f, "::X::inner").Type, x, "int ( ::X::* )"},
		{"class member function", mustFind[*decl.Variable](t, f, "::X::cb").Type, x, "void ( ::X::* )(  ) const"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.DeclString())
			switch typ := tt.typ.(type) {
			case *cpptypes.MemberVariable:
				assert.Same(t, tt.class, typ.Class)
			case *cpptypes.MemberFunction:
				assert.Same(t, tt.class, typ.Class)
			default:
				t.Fatalf("unexpected type %T", tt.typ)
			}
		})
	}

	assert.Empty(t, childrenNamed(x, "X"), "member pointer misread as a field named after its class")
	take := mustFind[*decl.Calldef](t, f, "::take")
	require.Len(t, take.Arguments, 1)
	assert.Equal(t, "p", take.Arguments[0].Name)
	assert.Equal(t, "int ( ::X::* )", take.Arguments[0].Type.DeclString())
}

func TestReadMemberPointerUnknownClass(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewReader(Config{Verbose: true}, WithReaderLogger(log.New(&buf, "", 0)))
	f, err := r.ReadString(context.Background(), "int Nope::*u;\n")
	require.NoError(t, err)

	u := mustFind[*decl.Variable](t, f, "::u")
	assert.Equal(t, cpptypes.Type(cpptypes.UnknownType), u.Type)
	assert.Contains(t, buf.String(), "member pointer class Nope is not a known class")
}
