// Package runtime evaluates Risor filter expressions against stored
// declarations.
package runtime

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/cppdecl/internal/store"
)

// Filter is a compiled-once, evaluated-per-row predicate. The expression
// sees these globals:
//
//	name, full_name, kind, access, class_type, file, type_expr, value  string
//	line                                                              int
//	modifiers                                                         list
//	has_modifier(m)                                                   bool
//
// A row matches when the expression result is truthy.
type Filter struct {
	expr string
}

// NewFilter checks expr by evaluating it once against an empty row.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("runtime: empty filter expression")
	}
	f := &Filter{expr: expr}
	if _, err := f.eval(context.Background(), &store.Declaration{}, ""); err != nil {
		return nil, err
	}
	return f, nil
}

// String returns the filter expression.
func (f *Filter) String() string { return f.expr }

// Match reports whether d satisfies the filter. file is the path of the
// declaration's file, or "" when it has none.
func (f *Filter) Match(ctx context.Context, d *store.Declaration, file string) (bool, error) {
	res, err := f.eval(ctx, d, file)
	if err != nil {
		return false, err
	}
	return res.IsTruthy(), nil
}

func (f *Filter) eval(ctx context.Context, d *store.Declaration, file string) (object.Object, error) {
	var opts []risor.Option
	for name, val := range globals(d, file) {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	res, err := risor.Eval(ctx, f.expr, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: filter %q: %w", f.expr, err)
	}
	return res, nil
}

// globals constructs the set of values exposed to a filter for one row.
func globals(d *store.Declaration, file string) map[string]any {
	mods := make([]object.Object, len(d.Modifiers))
	for i, m := range d.Modifiers {
		mods[i] = object.NewString(m)
	}
	return map[string]any{
		"name":         object.NewString(d.Name),
		"full_name":    object.NewString(d.FullName),
		"kind":         object.NewString(d.Kind),
		"access":       object.NewString(d.Access),
		"class_type":   object.NewString(d.ClassType),
		"file":         object.NewString(file),
		"type_expr":    object.NewString(d.TypeExpr),
		"value":        object.NewString(d.Value),
		"line":         object.NewInt(int64(d.Line)),
		"modifiers":    object.NewList(mods),
		"has_modifier": makeHasModifierFn(d.Modifiers),
	}
}

func makeHasModifierFn(mods []string) *object.Builtin {
	return object.NewBuiltin("has_modifier", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("has_modifier", 1, len(args))
		}
		m, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("has_modifier: modifier must be a string, got %s", args[0].Type())
		}
		return object.NewBool(slices.Contains(mods, m.Value()))
	})
}
