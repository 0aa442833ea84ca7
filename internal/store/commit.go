package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/cppdecl/internal/decl"
)

// SaveForest replaces the stored model with forest in one transaction.
func (s *Store) SaveForest(forest *decl.Forest, files []string) error {
	return s.CommitBatch(NewBatch(forest, files))
}

// CommitBatch replaces the stored model with the rows of batch inside a
// single transaction. Fake (negative) IDs are remapped to real IDs, and
// every reference within the batch is rewritten through the fakeToReal
// mapping.
//
// Insert order respects FK dependencies:
//  1. Files
//  2. Declarations (pre-order, so parents precede children)
//  3. Hierarchy edges
//  4. Type references
func (s *Store) CommitBatch(batch *Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := reset(tx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	fakeToReal := make(map[int64]int64)
	remap := func(id *int64) *int64 {
		if id == nil || *id >= 0 {
			return id
		}
		realID := fakeToReal[*id]
		return &realID
	}

	for _, f := range batch.Files {
		realID, err := insertFileTx(tx, &f)
		if err != nil {
			return fmt.Errorf("commit batch: file %q: %w", f.Path, err)
		}
		fakeToReal[f.ID] = realID
	}

	for _, d := range batch.Declarations {
		d.FileID = remap(d.FileID)
		d.ParentID = remap(d.ParentID)
		realID, err := insertDeclarationTx(tx, &d)
		if err != nil {
			return fmt.Errorf("commit batch: declaration %q: %w", d.FullName, err)
		}
		fakeToReal[d.ID] = realID
	}

	for _, e := range batch.Hierarchy {
		e.DerivedID = *remap(&e.DerivedID)
		e.BaseID = *remap(&e.BaseID)
		if _, err := insertHierarchyTx(tx, &e); err != nil {
			return fmt.Errorf("commit batch: hierarchy edge: %w", err)
		}
	}

	for _, r := range batch.TypeRefs {
		r.DeclarationID = *remap(&r.DeclarationID)
		r.TargetID = *remap(&r.TargetID)
		if _, err := insertTypeRefTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: type ref: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func lastID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertFileTx(tx *sql.Tx, f *File) (int64, error) {
	return lastID(tx.Exec(
		"INSERT INTO files (path, language, hash, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastIndexed,
	))
}

func insertDeclarationTx(tx *sql.Tx, d *Declaration) (int64, error) {
	return lastID(tx.Exec(
		`INSERT INTO declarations (file_id, parent_id, name, full_name, kind, access, class_type,
			line, type_expr, value, modifiers, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.ParentID, d.Name, d.FullName, d.Kind, d.Access, d.ClassType,
		d.Line, d.TypeExpr, d.Value, encodeModifiers(d.Modifiers), d.SignatureHash,
	))
}

func insertHierarchyTx(tx *sql.Tx, e *HierarchyEdge) (int64, error) {
	return lastID(tx.Exec(
		"INSERT INTO hierarchy (derived_id, base_id, access) VALUES (?, ?, ?)",
		e.DerivedID, e.BaseID, e.Access,
	))
}

func insertTypeRefTx(tx *sql.Tx, r *TypeRef) (int64, error) {
	return lastID(tx.Exec(
		"INSERT INTO type_refs (declaration_id, target_id, role, ordinal) VALUES (?, ?, ?, ?)",
		r.DeclarationID, r.TargetID, r.Role, r.Ordinal,
	))
}
