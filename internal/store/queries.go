package store

import (
	"database/sql"
	"fmt"
)

// DeclarationCols is the column list for declaration queries, exported for
// use by QueryBuilder.
const DeclarationCols = `id, file_id, parent_id, name, full_name, kind, access, class_type,
	line, type_expr, value, modifiers, signature_hash`

// ScanDeclarationRow scans one row selected with DeclarationCols.
func ScanDeclarationRow(scanner interface{ Scan(...any) error }) (*Declaration, error) {
	d := &Declaration{}
	var access, classType, typeExpr, value, mods, hash sql.NullString
	err := scanner.Scan(
		&d.ID, &d.FileID, &d.ParentID, &d.Name, &d.FullName, &d.Kind, &access, &classType,
		&d.Line, &typeExpr, &value, &mods, &hash,
	)
	if err != nil {
		return nil, err
	}
	d.Access = access.String
	d.ClassType = classType.String
	d.TypeExpr = typeExpr.String
	d.Value = value.String
	d.SignatureHash = hash.String
	if d.Modifiers, err = decodeModifiers(mods.String); err != nil {
		return nil, fmt.Errorf("declaration %d: %w", d.ID, err)
	}
	return d, nil
}

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Declaration
	for rows.Next() {
		d, err := ScanDeclarationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) queryDeclaration(query string, args ...any) (*Declaration, error) {
	d, err := ScanDeclarationRow(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// DeclarationByID returns nil, nil when no row has id.
func (s *Store) DeclarationByID(id int64) (*Declaration, error) {
	d, err := s.queryDeclaration("SELECT "+DeclarationCols+" FROM declarations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("declaration by id: %w", err)
	}
	return d, nil
}

// DeclarationByFullName returns the first declaration with fullName, or
// nil, nil. Overloaded functions share a full name; use
// DeclarationsByFullName to see all of them.
func (s *Store) DeclarationByFullName(fullName string) (*Declaration, error) {
	d, err := s.queryDeclaration("SELECT "+DeclarationCols+" FROM declarations WHERE full_name = ? ORDER BY id LIMIT 1", fullName)
	if err != nil {
		return nil, fmt.Errorf("declaration by full name: %w", err)
	}
	return d, nil
}

func (s *Store) DeclarationsByFullName(fullName string) ([]*Declaration, error) {
	out, err := s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE full_name = ? ORDER BY id", fullName)
	if err != nil {
		return nil, fmt.Errorf("declarations by full name: %w", err)
	}
	return out, nil
}

// DeclarationsByKind returns every declaration of kind in tree order. An
// empty kind returns all declarations.
func (s *Store) DeclarationsByKind(kind string) ([]*Declaration, error) {
	var (
		out []*Declaration
		err error
	)
	if kind == "" {
		out, err = s.queryDeclarations("SELECT " + DeclarationCols + " FROM declarations ORDER BY id")
	} else {
		out, err = s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE kind = ? ORDER BY id", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("declarations by kind: %w", err)
	}
	return out, nil
}

func (s *Store) Children(parentID int64) ([]*Declaration, error) {
	out, err := s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE parent_id = ? ORDER BY id", parentID)
	if err != nil {
		return nil, fmt.Errorf("children: %w", err)
	}
	return out, nil
}

func (s *Store) queryEdges(query string, args ...any) ([]*HierarchyEdge, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*HierarchyEdge
	for rows.Next() {
		e := &HierarchyEdge{}
		var access sql.NullString
		if err := rows.Scan(&e.ID, &e.DerivedID, &e.BaseID, &access); err != nil {
			return nil, fmt.Errorf("scan hierarchy edge: %w", err)
		}
		e.Access = access.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Bases returns the direct base edges of the class with id classID.
func (s *Store) Bases(classID int64) ([]*HierarchyEdge, error) {
	out, err := s.queryEdges("SELECT id, derived_id, base_id, access FROM hierarchy WHERE derived_id = ? ORDER BY id", classID)
	if err != nil {
		return nil, fmt.Errorf("bases: %w", err)
	}
	return out, nil
}

// Derived returns the direct derived edges of the class with id classID.
func (s *Store) Derived(classID int64) ([]*HierarchyEdge, error) {
	out, err := s.queryEdges("SELECT id, derived_id, base_id, access FROM hierarchy WHERE base_id = ? ORDER BY id", classID)
	if err != nil {
		return nil, fmt.Errorf("derived: %w", err)
	}
	return out, nil
}

// AllHierarchy returns every hierarchy edge.
func (s *Store) AllHierarchy() ([]*HierarchyEdge, error) {
	out, err := s.queryEdges("SELECT id, derived_id, base_id, access FROM hierarchy ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("all hierarchy: %w", err)
	}
	return out, nil
}

// TypeRefsTo returns the references whose type mentions targetID.
func (s *Store) TypeRefsTo(targetID int64) ([]*TypeRef, error) {
	rows, err := s.db.Query(
		"SELECT id, declaration_id, target_id, role, ordinal FROM type_refs WHERE target_id = ? ORDER BY id", targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("type refs to: %w", err)
	}
	defer rows.Close()
	var out []*TypeRef
	for rows.Next() {
		r := &TypeRef{}
		if err := rows.Scan(&r.ID, &r.DeclarationID, &r.TargetID, &r.Role, &r.Ordinal); err != nil {
			return nil, fmt.Errorf("scan type ref: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeclarationsByIDs returns the declarations with the given ids in id order.
func (s *Store) DeclarationsByIDs(ids []int64) ([]*Declaration, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	marks, args := inClause(ids)
	out, err := s.queryDeclarations(
		"SELECT "+DeclarationCols+" FROM declarations WHERE id IN ("+marks+") ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("declarations by ids: %w", err)
	}
	return out, nil
}

func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, language, hash, last_indexed FROM files ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var out []*File
	for rows.Next() {
		f := &File{}
		var hash sql.NullString
		var indexed sql.NullTime
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &hash, &indexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.Hash = hash.String
		f.LastIndexed = indexed.Time
		out = append(out, f)
	}
	return out, rows.Err()
}

// FileByID returns nil, nil when no file has id.
func (s *Store) FileByID(id int64) (*File, error) {
	f := &File{}
	var hash sql.NullString
	var indexed sql.NullTime
	err := s.db.QueryRow("SELECT id, path, language, hash, last_indexed FROM files WHERE id = ?", id).
		Scan(&f.ID, &f.Path, &f.Language, &hash, &indexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	f.Hash = hash.String
	f.LastIndexed = indexed.Time
	return f, nil
}
