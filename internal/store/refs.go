package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/refs"
)

type referenceRecord struct {
	Code     string `db:"code"`
	Name     string `db:"name"`
	Level    int    `db:"level"`
	Document string `db:"document"`
}

// SaveReference replaces the stored reference of a section.
func (s *Store) SaveReference(ctx context.Context, kind model.Section, records []refs.Record) error {
	tbl := refs.NewTable(kind, records)
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reference_records WHERE kind = ?`), string(kind)); err != nil {
			return wrap("clear reference", err)
		}
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO reference_records (kind, code, name, level, document) VALUES (?, ?, ?, ?, ?)`))
		if err != nil {
			return wrap("prepare reference", err)
		}
		defer stmt.Close()
		for _, r := range tbl.All() {
			if _, err := stmt.ExecContext(ctx, string(kind), r.Code, r.Name, r.Level, r.Document); err != nil {
				return wrap("write reference", err)
			}
		}
		return nil
	})
	return wrap("save reference", err)
}

// LoadReference returns the stored reference of a section in load order.
func (s *Store) LoadReference(ctx context.Context, kind model.Section) ([]refs.Record, error) {
	var recs []referenceRecord
	err := s.db.SelectContext(ctx, &recs, s.db.Rebind(`SELECT code, name, level, document FROM reference_records WHERE kind = ? ORDER BY id`), string(kind))
	if err != nil {
		return nil, wrap("load reference", err)
	}
	out := make([]refs.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, refs.Record{Kind: kind, Code: r.Code, Name: r.Name, Level: r.Level, Document: r.Document})
	}
	return out, nil
}

// LoadReferences returns a table for every referenced section that has
// records stored.
func (s *Store) LoadReferences(ctx context.Context) (refs.Set, error) {
	set := refs.Set{}
	for _, kind := range model.Sections {
		if !refs.Referenced(kind) {
			continue
		}
		recs, err := s.LoadReference(ctx, kind)
		if err != nil {
			return nil, err
		}
		if len(recs) > 0 {
			set[kind] = refs.NewTable(kind, recs)
		}
	}
	return set, nil
}
