package cppdecl

import (
	"context"
	"fmt"

	"github.com/jward/cppdecl/internal/runtime"
	"github.com/jward/cppdecl/internal/store"
)

// QueryBuilder answers questions about an indexed, merged forest.
type QueryBuilder struct {
	store *store.Store
}

// TypeUse is one declaration whose type mentions a queried declaration.
type TypeUse struct {
	Declaration *store.Declaration
	// Role is "return", "argument" or "type".
	Role    string
	Ordinal int
}

func (q *QueryBuilder) check() error {
	if q.store == nil {
		return ErrNoStore
	}
	return nil
}

// Classes returns every class, struct and union.
func (q *QueryBuilder) Classes() ([]*store.Declaration, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	classes, err := q.store.DeclarationsByKind("class")
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	if classes == nil {
		classes = []*store.Declaration{}
	}
	return classes, nil
}

// Class returns the class with the given full name. The leading "::" may
// be omitted. Returns nil with no error if there is no such class.
func (q *QueryBuilder) Class(fullName string) (*store.Declaration, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	decls, err := q.store.DeclarationsByFullName(qualified(fullName))
	if err != nil {
		return nil, fmt.Errorf("class: %w", err)
	}
	for _, d := range decls {
		if d.Kind == "class" {
			return d, nil
		}
	}
	return nil, nil
}

// Declarations returns the declarations of kind (all kinds when empty)
// for which the Risor expression where holds. An empty where matches
// everything.
func (q *QueryBuilder) Declarations(ctx context.Context, kind, where string) ([]*store.Declaration, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	decls, err := q.store.DeclarationsByKind(kind)
	if err != nil {
		return nil, fmt.Errorf("declarations: %w", err)
	}
	if where == "" {
		if decls == nil {
			decls = []*store.Declaration{}
		}
		return decls, nil
	}

	filter, err := runtime.NewFilter(where)
	if err != nil {
		return nil, fmt.Errorf("declarations: %w", err)
	}
	paths, err := q.filePaths()
	if err != nil {
		return nil, fmt.Errorf("declarations: %w", err)
	}
	out := []*store.Declaration{}
	for _, d := range decls {
		var file string
		if d.FileID != nil {
			file = paths[*d.FileID]
		}
		ok, err := filter.Match(ctx, d, file)
		if err != nil {
			return nil, fmt.Errorf("declarations: %s: %w", d.FullName, err)
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// TypeUsers returns the declarations whose return, argument or declared
// type mentions the declaration named fullName.
func (q *QueryBuilder) TypeUsers(fullName string) ([]*TypeUse, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	targets, err := q.store.DeclarationsByFullName(qualified(fullName))
	if err != nil {
		return nil, fmt.Errorf("type users: %w", err)
	}

	var refs []*store.TypeRef
	for _, t := range targets {
		r, err := q.store.TypeRefsTo(t.ID)
		if err != nil {
			return nil, fmt.Errorf("type users: %w", err)
		}
		refs = append(refs, r...)
	}

	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.DeclarationID)
	}
	decls, err := q.store.DeclarationsByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("type users: batch lookup: %w", err)
	}
	byID := make(map[int64]*store.Declaration, len(decls))
	for _, d := range decls {
		byID[d.ID] = d
	}

	uses := make([]*TypeUse, 0, len(refs))
	for _, r := range refs {
		if d, ok := byID[r.DeclarationID]; ok {
			uses = append(uses, &TypeUse{Declaration: d, Role: r.Role, Ordinal: r.Ordinal})
		}
	}
	return uses, nil
}

// Files returns every file that contributed declarations.
func (q *QueryBuilder) Files() ([]*store.File, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	if files == nil {
		files = []*store.File{}
	}
	return files, nil
}

func (q *QueryBuilder) filePaths() (map[int64]string, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}
	return paths, nil
}

func qualified(name string) string {
	if len(name) >= 2 && name[:2] == "::" {
		return name
	}
	return "::" + name
}
