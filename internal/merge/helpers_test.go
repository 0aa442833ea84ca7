package merge

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

// unit is one parse of "namespace n { class C {}; class D : public C {}; }"
// read from n.h.
type unit struct {
	forest *decl.Forest
	global *decl.Namespace
	ns     *decl.Namespace
	c, d   *decl.Class
}

func newUnit() *unit {
	u := &unit{global: decl.NewGlobalNamespace(), ns: decl.NewNamespace("n")}
	u.global.AddDeclaration(u.ns)
	u.c = decl.NewClass("C", decl.ClassTypeClass, decl.Location{File: "n.h", Line: 1})
	u.d = decl.NewClass("D", decl.ClassTypeClass, decl.Location{File: "n.h", Line: 2})
	u.ns.AddDeclaration(u.c)
	u.ns.AddDeclaration(u.d)
	u.d.AddBase(u.c, decl.AccessPublic)
	u.forest = decl.NewForest(u.global)
	return u
}

func (u *unit) addFunc(name, file string, line int, args ...cpptypes.Type) *decl.Calldef {
	f := decl.NewCalldef(decl.KindFreeFunction, name, decl.Location{File: file, Line: line})
	f.ReturnType = cpptypes.Void
	for _, a := range args {
		f.Arguments = append(f.Arguments, &decl.Argument{Type: a})
	}
	u.ns.AddDeclaration(f)
	return f
}

func (u *unit) addVar(name string, typ cpptypes.Type) *decl.Variable {
	v := decl.NewVariable(name, typ, decl.Location{File: "vars.h", Line: len(u.ns.Declarations()) + 1})
	u.ns.AddDeclaration(v)
	return v
}

func ptrTo(d cpptypes.Declaration) cpptypes.Type {
	return &cpptypes.Pointer{Base: cpptypes.NewDeclared(d)}
}

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]Option{WithLogger(log.New(&buf, "", 0))}, opts...)
	return NewPipeline(opts...), &buf
}

func mergeUnits(t *testing.T, units ...*unit) *Result {
	t.Helper()
	p, _ := newTestPipeline(t)
	forests := make([]*decl.Forest, len(units))
	for i, u := range units {
		forests[i] = u.forest
	}
	res, err := p.Merge(forests)
	require.NoError(t, err)
	return res
}

// namedIn returns the children of scope called name.
func namedIn(scope decl.Scope, name string) []decl.Declaration {
	var out []decl.Declaration
	for _, d := range scope.Declarations() {
		if d.Name() == name {
			out = append(out, d)
		}
	}
	return out
}

func mustFind[T decl.Declaration](t *testing.T, f *decl.Forest, fullName string) T {
	t.Helper()
	d := f.Find(fullName)
	require.NotNil(t, d, "declaration %s", fullName)
	v, ok := d.(T)
	require.True(t, ok, "declaration %s has kind %s", fullName, d.Kind())
	return v
}
