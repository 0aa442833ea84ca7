package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdecl/internal/cpptypes"
)

func TestFlatten(t *testing.T) {
	t.Parallel()
	forest, c, d, f := buildUnit("a.h")
	flat := forest.Flatten()
	require.Len(t, flat, 5)
	assert.Equal(t, GlobalName, flat[0].Name())
	assert.Equal(t, "n", flat[1].Name())
	assert.Same(t, c, flat[2])
	assert.Same(t, d, flat[3])
	assert.Same(t, f, flat[4])
	assert.Equal(t, []*Class{c, d}, forest.Classes())
}

func TestForestRemove(t *testing.T) {
	t.Parallel()
	a := NewClass("A", ClassTypeStruct, Location{File: "x.h", Line: 1})
	b := NewClass("A", ClassTypeStruct, Location{File: "x.h", Line: 1})
	forest := NewForest(a, b)
	assert.True(t, forest.Remove(b))
	assert.False(t, forest.Remove(b))
	assert.Equal(t, []Declaration{a}, forest.Declarations)
}

func TestForestFind(t *testing.T) {
	t.Parallel()
	forest, c, _, _ := buildUnit("a.h")
	assert.Same(t, c, forest.Find("::n::C"))
	assert.Nil(t, forest.Find("::n::Missing"))
}

func TestForestClone(t *testing.T) {
	t.Parallel()
	forest, c, d, f := buildUnit("a.h")
	td := NewTypedef("CPtr", &cpptypes.Pointer{Base: cpptypes.NewDeclared(c)}, Location{File: "a.h", Line: 4})
	c.Parent().AddDeclaration(td)
	c.Aliases = append(c.Aliases, td)

	cp := forest.Clone()

	cc := cp.Find("::n::C").(*Class)
	cd := cp.Find("::n::D").(*Class)
	cf := cp.Find("::n::f").(*Calldef)
	ctd := cp.Find("::n::CPtr").(*Typedef)
	require.NotNil(t, cc)
	assert.NotSame(t, c, cc)
	assert.NotSame(t, d, cd)
	assert.NotSame(t, f, cf)

	assert.Equal(t, KeyOf(c), KeyOf(cc))
	require.Len(t, cd.Bases, 1)
	assert.Same(t, cc, cd.Bases[0].Related)
	require.Len(t, cc.Derived, 1)
	assert.Same(t, cd, cc.Derived[0].Related)
	assert.Equal(t, []*Typedef{ctd}, cc.Aliases)

	argTarget := cpptypes.DeclaredIn(cf.Arguments[0].Type)[0].Declaration
	assert.Same(t, cc, argTarget)
	assert.Same(t, cc, cpptypes.DeclaredIn(ctd.Type)[0].Declaration)

	// The source is untouched.
	assert.Same(t, c, d.Bases[0].Related)
	assert.Same(t, c, cpptypes.DeclaredIn(f.Arguments[0].Type)[0].Declaration)
	assert.Equal(t, f.Arguments[0].Type.DeclString(), cf.Arguments[0].Type.DeclString())
}

func TestForestCloneKeepsOutsideReferences(t *testing.T) {
	t.Parallel()
	outside := NewClass("Ext", ClassTypeClass, Location{File: "ext.h", Line: 9})
	inner := NewClass("In", ClassTypeClass, Location{File: "in.h", Line: 1})
	inner.AddBase(outside, AccessPublic)
	forest := NewForest(inner)

	cp := forest.Clone()
	ci := cp.Declarations[0].(*Class)
	assert.Same(t, outside, ci.Bases[0].Related)
}
