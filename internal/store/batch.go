package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jward/cppdecl/internal/cpptypes"
	"github.com/jward/cppdecl/internal/decl"
	"github.com/jward/cppdecl/internal/parser"
)

// Batch holds the rows of one forest with fake (negative) IDs until
// CommitBatch assigns real ones. Building a batch touches no database.
type Batch struct {
	Files        []File
	Declarations []Declaration
	Hierarchy    []HierarchyEdge
	TypeRefs     []TypeRef

	nextFakeID int64 // starts at -1, decrements
	fileIDs    map[string]int64
	declIDs    map[decl.Declaration]int64
}

// NewBatch flattens forest into rows. files lists the unit files read;
// any other file named by a declaration location is added as well.
func NewBatch(forest *decl.Forest, files []string) *Batch {
	b := &Batch{
		nextFakeID: -1,
		fileIDs:    make(map[string]int64),
		declIDs:    make(map[decl.Declaration]int64),
	}
	now := time.Now().UTC()
	for _, f := range files {
		b.file(f, now)
	}
	for _, d := range forest.Declarations {
		b.add(d, nil, now)
	}
	for _, d := range forest.Flatten() {
		if c, ok := d.(*decl.Class); ok {
			b.addEdges(c)
		}
		b.addTypeRefs(d)
	}
	return b
}

func (b *Batch) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *Batch) file(path string, now time.Time) *int64 {
	if path == "" {
		return nil
	}
	if id, ok := b.fileIDs[path]; ok {
		return &id
	}
	lang, ok := parser.LanguageForFile(path)
	if !ok {
		lang = "cpp"
	}
	hash := ""
	if content, err := os.ReadFile(path); err == nil {
		hash = ComputeFileHash(content)
	}
	id := b.allocFakeID()
	b.fileIDs[path] = id
	b.Files = append(b.Files, File{ID: id, Path: path, Language: lang, Hash: hash, LastIndexed: now})
	return &id
}

func (b *Batch) add(d decl.Declaration, parent *int64, now time.Time) {
	row := Declaration{
		ID:       b.allocFakeID(),
		FileID:   b.file(d.Location().File, now),
		ParentID: parent,
		Name:     d.Name(),
		FullName: decl.FullName(d),
		Kind:     string(d.Kind()),
		Access:   string(d.Access()),
		Line:     d.Location().Line,
	}
	switch x := d.(type) {
	case *decl.Class:
		row.ClassType = string(x.ClassType)
	case *decl.Calldef:
		row.TypeExpr = x.FunctionType().DeclString()
		if x.HasStatic {
			row.Modifiers = append(row.Modifiers, "static")
		}
		if x.HasConst {
			row.Modifiers = append(row.Modifiers, "const")
		}
	case *decl.Variable:
		row.TypeExpr = typeExpr(x.Type)
		row.Value = x.Value
		if x.HasStatic {
			row.Modifiers = append(row.Modifiers, "static")
		}
	case *decl.Typedef:
		row.TypeExpr = typeExpr(x.Type)
	case *decl.Enumeration:
		vals := make([]string, len(x.Values))
		for i, v := range x.Values {
			vals[i] = fmt.Sprintf("%s=%d", v.Name, v.Value)
		}
		row.Value = strings.Join(vals, ",")
	}
	row.SignatureHash = ComputeSignatureHash(row.FullName, row.Kind, row.Access, row.TypeExpr, row.Modifiers)
	b.declIDs[d] = row.ID
	b.Declarations = append(b.Declarations, row)

	if s, ok := d.(decl.Scope); ok {
		id := row.ID
		for _, child := range s.Declarations() {
			b.add(child, &id, now)
		}
	}
}

func typeExpr(t cpptypes.Type) string {
	if t == nil {
		return ""
	}
	return t.DeclString()
}

// addEdges records the bases of c that are part of the forest.
func (b *Batch) addEdges(c *decl.Class) {
	derived := b.declIDs[c]
	for _, h := range c.Bases {
		base, ok := b.declIDs[h.Related]
		if !ok {
			continue
		}
		b.Hierarchy = append(b.Hierarchy, HierarchyEdge{
			ID:        b.allocFakeID(),
			DerivedID: derived,
			BaseID:    base,
			Access:    string(h.Access),
		})
	}
}

func (b *Batch) addTypeRefs(d decl.Declaration) {
	owner := b.declIDs[d]
	add := func(t cpptypes.Type, role string, ordinal int) {
		seen := make(map[int64]bool)
		for _, dt := range cpptypes.DeclaredIn(t) {
			target, ok := dt.Declaration.(decl.Declaration)
			if !ok {
				continue
			}
			id, ok := b.declIDs[target]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			b.TypeRefs = append(b.TypeRefs, TypeRef{
				ID:            b.allocFakeID(),
				DeclarationID: owner,
				TargetID:      id,
				Role:          role,
				Ordinal:       ordinal,
			})
		}
	}
	switch x := d.(type) {
	case *decl.Calldef:
		add(x.ReturnType, RoleReturn, 0)
		for i, a := range x.Arguments {
			add(a.Type, RoleArgument, i)
		}
	case *decl.Variable:
		add(x.Type, RoleType, 0)
	case *decl.Typedef:
		add(x.Type, RoleType, 0)
	}
}
