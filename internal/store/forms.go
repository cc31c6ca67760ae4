package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Annarex/test-app-sub000/internal/model"
)

type rowRecord struct {
	ID                 int64  `db:"id"`
	Section            string `db:"section"`
	Ordinal            int    `db:"ordinal"`
	LineCode           string `db:"line_code"`
	ClassificationCode string `db:"classification_code"`
	Name               string `db:"name"`
	Level              int    `db:"level"`
}

type valueRecord struct {
	RowID      int64               `db:"row_id"`
	BudgetType string              `db:"budget_type"`
	ValueKind  string              `db:"value_kind"`
	Column     string              `db:"column_name"`
	Amount     decimal.NullDecimal `db:"amount"`
}

type metaRecord struct {
	Key   string `db:"meta_key"`
	Value string `db:"meta_value"`
}

const (
	insertRowSQL   = `INSERT INTO form_rows (revision_id, section, ordinal, line_code, classification_code, name, level) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	insertValueSQL = `INSERT INTO row_values (row_id, budget_type, value_kind, column_name, amount) VALUES (?, ?, ?, ?, ?)`
)

// Save stores form as the full content of a revision, replacing whatever
// the revision held before. The project must exist. The revision is
// created on first save. Readers never see a partly replaced revision.
func (s *Store) Save(ctx context.Context, project, label string, form *model.Form, sourceFile string) (Revision, error) {
	status := StatusParsed
	if hasComputed(form) {
		status = StatusCalculated
	}

	var rev Revision
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var p Project
		if err := tx.GetContext(ctx, &p, tx.Rebind(`SELECT id, name, created_at FROM projects WHERE name = ?`), project); err != nil {
			return wrap("get project", err)
		}

		ts := now()
		existing, err := findRevision(ctx, tx, project, label)
		switch {
		case err == nil:
			rev = existing
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM form_rows WHERE revision_id = ?`), rev.ID); err != nil {
				return wrap("clear rows", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM revision_meta WHERE revision_id = ?`), rev.ID); err != nil {
				return wrap("clear metadata", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE revisions SET status = ?, source_file = ?, updated_at = ? WHERE id = ?`),
				status, sourceFile, ts, rev.ID); err != nil {
				return wrap("update revision", err)
			}
			rev.Status, rev.SourceFile, rev.UpdatedAt = status, sourceFile, ts
		case errors.Is(err, ErrNotFound):
			rev = Revision{ProjectID: p.ID, Label: label, Status: status, SourceFile: sourceFile, CreatedAt: ts, UpdatedAt: ts}
			err := tx.QueryRowxContext(ctx, tx.Rebind(`INSERT INTO revisions (project_id, label, status, source_file, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
				rev.ProjectID, rev.Label, rev.Status, rev.SourceFile, rev.CreatedAt, rev.UpdatedAt).Scan(&rev.ID)
			if err != nil {
				return wrap("create revision", err)
			}
		default:
			return err
		}

		if err := writeMeta(ctx, tx, rev.ID, form.Meta); err != nil {
			return err
		}
		return writeRows(ctx, tx, rev.ID, form)
	})
	if err != nil {
		return Revision{}, wrap("save", err)
	}
	return rev, nil
}

func hasComputed(form *model.Form) bool {
	for _, sec := range model.Sections {
		for _, r := range form.Rows(sec) {
			if len(r.Computed) > 0 {
				return true
			}
		}
	}
	return false
}

func writeMeta(ctx context.Context, tx *sqlx.Tx, revID int64, meta map[string]string) error {
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO revision_meta (revision_id, meta_key, meta_value) VALUES (?, ?, ?)`), revID, k, v); err != nil {
			return wrap("write metadata", err)
		}
	}
	return nil
}

func writeRows(ctx context.Context, tx *sqlx.Tx, revID int64, form *model.Form) error {
	rowStmt, err := tx.PreparexContext(ctx, tx.Rebind(insertRowSQL))
	if err != nil {
		return wrap("prepare rows", err)
	}
	defer rowStmt.Close()
	valStmt, err := tx.PreparexContext(ctx, tx.Rebind(insertValueSQL))
	if err != nil {
		return wrap("prepare values", err)
	}
	defer valStmt.Close()

	for _, sec := range model.Sections {
		for _, r := range form.Rows(sec) {
			var id int64
			err := rowStmt.QueryRowxContext(ctx, revID, string(r.Section), r.SourceOrdinal, r.LineCode, r.ClassificationCode, r.IndicatorName, r.Level).Scan(&id)
			if err != nil {
				return wrap("write row", fmt.Errorf("row %d: %w", r.SourceOrdinal, err))
			}
			if err := writeValues(ctx, valStmt, id, model.KindOriginal, r.Original); err != nil {
				return err
			}
			if err := writeValues(ctx, valStmt, id, model.KindComputed, r.Computed); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeValues(ctx context.Context, stmt *sqlx.Stmt, rowID int64, kind model.ValueKind, vectors map[model.BudgetType]model.Vector) error {
	for bt, vec := range vectors {
		for col, v := range vec {
			amount := decimal.NullDecimal{Decimal: v.Amount, Valid: !v.NA}
			if _, err := stmt.ExecContext(ctx, rowID, string(bt), string(kind), col, amount); err != nil {
				return wrap("write value", err)
			}
		}
	}
	return nil
}

// Load reads a revision back. Rows come back in source order within each
// section with every original and computed value, sentinels included. All
// reads share one transaction, so a concurrent Save is seen whole or not at
// all.
func (s *Store) Load(ctx context.Context, project, label string) (*model.Form, Revision, error) {
	var (
		form *model.Form
		rev  Revision
	)
	err := s.readTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		form, rev, err = loadForm(ctx, tx, project, label)
		return err
	})
	if err != nil {
		return nil, Revision{}, err
	}
	return form, rev, nil
}

func loadForm(ctx context.Context, tx *sqlx.Tx, project, label string) (*model.Form, Revision, error) {
	rev, err := findRevision(ctx, tx, project, label)
	if err != nil {
		return nil, Revision{}, err
	}

	var recs []rowRecord
	if err := tx.SelectContext(ctx, &recs, tx.Rebind(`SELECT id, section, ordinal, line_code, classification_code, name, level
		FROM form_rows WHERE revision_id = ? ORDER BY ordinal, id`), rev.ID); err != nil {
		return nil, Revision{}, wrap("load rows", err)
	}

	rows := make([]model.Row, len(recs))
	byID := make(map[int64]int, len(recs))
	for i, rec := range recs {
		sec, err := model.ParseSection(rec.Section)
		if err != nil {
			return nil, Revision{}, wrap("load rows", err)
		}
		rows[i] = model.Row{
			Section:            sec,
			ClassificationCode: rec.ClassificationCode,
			IndicatorName:      rec.Name,
			LineCode:           rec.LineCode,
			Level:              rec.Level,
			SourceOrdinal:      rec.Ordinal,
		}
		byID[rec.ID] = i
	}

	var vals []valueRecord
	if err := tx.SelectContext(ctx, &vals, tx.Rebind(`SELECT v.row_id, v.budget_type, v.value_kind, v.column_name, v.amount
		FROM row_values v JOIN form_rows r ON r.id = v.row_id WHERE r.revision_id = ?`), rev.ID); err != nil {
		return nil, Revision{}, wrap("load values", err)
	}
	for _, v := range vals {
		i, ok := byID[v.RowID]
		if !ok {
			return nil, Revision{}, wrap("load values", fmt.Errorf("value of unknown row %d", v.RowID))
		}
		bt, err := model.ParseBudgetType(v.BudgetType)
		if err != nil {
			return nil, Revision{}, wrap("load values", err)
		}
		val := model.NotApplicable
		if v.Amount.Valid {
			val = model.NewValue(v.Amount.Decimal)
		}
		switch model.ValueKind(v.ValueKind) {
		case model.KindOriginal:
			rows[i].SetValue(bt, v.Column, val)
		case model.KindComputed:
			rows[i].SetComputed(bt, v.Column, val)
		default:
			return nil, Revision{}, wrap("load values", fmt.Errorf("unknown value kind %q", v.ValueKind))
		}
	}

	var meta []metaRecord
	if err := tx.SelectContext(ctx, &meta, tx.Rebind(`SELECT meta_key, meta_value FROM revision_meta WHERE revision_id = ?`), rev.ID); err != nil {
		return nil, Revision{}, wrap("load metadata", err)
	}

	form := &model.Form{}
	for _, r := range rows {
		form.Append(r)
	}
	if len(meta) > 0 {
		form.Meta = make(map[string]string, len(meta))
		for _, m := range meta {
			form.Meta[m.Key] = m.Value
		}
	}
	return form, rev, nil
}

// SaveComputedOnly replaces the computed values and cached levels of an
// existing revision, leaving originals untouched. Rows are matched by
// section, line code and indicator name; repeated keys pair up in source
// order. A row with no stored counterpart fails the whole save.
func (s *Store) SaveComputedOnly(ctx context.Context, project, label string, form *model.Form) error {
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		rev, err := findRevision(ctx, tx, project, label)
		if err != nil {
			return err
		}

		var recs []rowRecord
		if err := tx.SelectContext(ctx, &recs, tx.Rebind(`SELECT id, section, ordinal, line_code, classification_code, name, level
			FROM form_rows WHERE revision_id = ? ORDER BY ordinal, id`), rev.ID); err != nil {
			return wrap("load rows", err)
		}
		ids := make(map[model.RowKey][]int64, len(recs))
		for _, rec := range recs {
			key := model.RowKey{Section: model.Section(rec.Section), LineCode: rec.LineCode, IndicatorName: rec.Name}
			ids[key] = append(ids[key], rec.ID)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM row_values WHERE value_kind = ? AND row_id IN (SELECT id FROM form_rows WHERE revision_id = ?)`),
			string(model.KindComputed), rev.ID); err != nil {
			return wrap("clear computed", err)
		}

		levelStmt, err := tx.PreparexContext(ctx, tx.Rebind(`UPDATE form_rows SET level = ? WHERE id = ?`))
		if err != nil {
			return wrap("prepare levels", err)
		}
		defer levelStmt.Close()
		valStmt, err := tx.PreparexContext(ctx, tx.Rebind(insertValueSQL))
		if err != nil {
			return wrap("prepare values", err)
		}
		defer valStmt.Close()

		for _, sec := range model.Sections {
			for _, r := range inSourceOrder(form.Rows(sec)) {
				key := r.Key()
				queue := ids[key]
				if len(queue) == 0 {
					return wrap("match row", fmt.Errorf("%s %q (line %s): %w", key.Section, key.IndicatorName, key.LineCode, ErrNotFound))
				}
				id := queue[0]
				ids[key] = queue[1:]

				if _, err := levelStmt.ExecContext(ctx, r.Level, id); err != nil {
					return wrap("update level", err)
				}
				if err := writeValues(ctx, valStmt, id, model.KindComputed, r.Computed); err != nil {
					return err
				}
			}
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE revisions SET status = ?, updated_at = ? WHERE id = ?`), StatusCalculated, now(), rev.ID)
		return wrap("set revision status", err)
	})
	return wrap("save computed", err)
}

func inSourceOrder(rows []model.Row) []*model.Row {
	out := make([]*model.Row, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SourceOrdinal < out[j].SourceOrdinal })
	return out
}
