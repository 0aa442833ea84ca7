package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
)

func TestJoinTopLevel(t *testing.T) {
	t.Parallel()
	a, b := newUnit(), newUnit()
	loose := decl.NewClass("Loose", decl.ClassTypeStruct, decl.Location{File: "l.h", Line: 1})
	other := decl.NewNamespace("other")

	main := []decl.Declaration{a.global}
	got := JoinTopLevel(main, []decl.Declaration{b.global, loose, other})

	require.Len(t, got, 3)
	assert.Same(t, a.global, got[0])
	assert.Same(t, loose, got[1])
	assert.Same(t, other, got[2])
	assert.Len(t, main, 1, "input slice is not modified")

	// b's namespace now lives under a's global namespace.
	assert.Empty(t, b.global.Declarations())
	assert.Equal(t, []decl.Declaration{a.ns, b.ns}, a.global.Declarations())
	assert.Same(t, a.global, b.ns.Parent())
}

func TestJoinNamespaceFoldsNamespacesAndDropsDuplicates(t *testing.T) {
	t.Parallel()
	a, b := newUnit(), newUnit()
	a.global.TakeParenting(b.global)

	require.NoError(t, JoinDeclarations(a.global))

	require.Equal(t, []decl.Declaration{a.ns}, a.global.Declarations())
	assert.Equal(t, []decl.Declaration{a.c, a.d}, a.ns.Declarations())
	assert.Empty(t, b.ns.Declarations(), "duplicate namespace handed over its children")
}

func TestJoinNamespaceNested(t *testing.T) {
	t.Parallel()
	global := decl.NewGlobalNamespace()
	for i := 0; i < 2; i++ {
		outer := decl.NewNamespace("outer")
		inner := decl.NewNamespace("inner")
		inner.AddDeclaration(decl.NewVariable("v", cpptypes.Int, decl.Location{File: "v.h", Line: 3}))
		outer.AddDeclaration(inner)
		global.AddDeclaration(outer)
	}

	require.NoError(t, JoinDeclarations(global))

	outers := namedIn(global, "outer")
	require.Len(t, outers, 1)
	inners := namedIn(outers[0].(decl.Scope), "inner")
	require.Len(t, inners, 1)
	assert.Len(t, inners[0].(decl.Scope).Declarations(), 1)
}

func TestJoinNamespacePreservesOverloads(t *testing.T) {
	t.Parallel()
	a, b := newUnit(), newUnit()
	a.addFunc("f", "f.h", 5, cpptypes.Int)
	a.addFunc("f", "f.h", 6, cpptypes.Double)
	b.addFunc("f", "f.h", 5, cpptypes.Int)
	b.addFunc("f", "g.h", 1, cpptypes.Char)
	a.global.TakeParenting(b.global)

	require.NoError(t, JoinDeclarations(a.global))

	fs := namedIn(a.ns, "f")
	require.Len(t, fs, 3)
	var sigs []string
	for _, f := range fs {
		sigs = append(sigs, f.(*decl.Calldef).FunctionType().DeclString())
	}
	assert.Equal(t, []string{"void (*)( int )", "void (*)( double )", "void (*)( char )"}, sigs)
}

func TestJoinNamespaceRejectsForeignChild(t *testing.T) {
	t.Parallel()
	u := newUnit()
	elsewhere := decl.NewNamespace("elsewhere")
	rogue := decl.NewVariable("rogue", cpptypes.Int, decl.Location{File: "r.h", Line: 1})
	elsewhere.AddDeclaration(rogue)
	u.ns.SetDeclarations(append(u.ns.Declarations(), rogue))

	err := JoinNamespace(u.ns)
	require.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "elsewhere::rogue")
}
