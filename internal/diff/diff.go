// Package diff compares reported values against recomputed ones.
package diff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Annarex/test-app-sub000/internal/deficit"
	"github.com/Annarex/test-app-sub000/internal/model"
)

// DefaultTolerance is the largest absolute difference not reported.
var DefaultTolerance = decimal.New(1, -5)

// DefaultMaxLevel is the deepest level checked.
const DefaultMaxLevel = 5

// Discrepancy is a reported value that disagrees with its recomputation.
type Discrepancy struct {
	Section    model.Section
	RowName    string
	RowCode    string
	Level      int
	Ordinal    int
	Column     string
	BudgetType model.BudgetType
	Original   decimal.Decimal
	Computed   decimal.Decimal
	Delta      decimal.Decimal // computed - original
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s [%s] %s / %s %q: original %s, computed %s, delta %s",
		d.Section, d.RowCode, d.RowName, d.BudgetType, d.Column,
		d.Original.String(), d.Computed.String(), d.Delta.String())
}

// Checker holds the comparison thresholds.
type Checker struct {
	Tolerance decimal.Decimal
	MaxLevel  int
}

// Default returns a Checker with the form's standard thresholds.
func Default() Checker {
	return Checker{Tolerance: DefaultTolerance, MaxLevel: DefaultMaxLevel}
}

// Diff reports every value of rows whose computed value differs from the
// original by more than the tolerance. Rows deeper than MaxLevel are skipped,
// except the consolidated total column, which is checked on every row.
// Sentinels compare as zero. A value never computed is not reported.
func (c Checker) Diff(rows []model.Row, columns []string) []Discrepancy {
	var out []Discrepancy
	for i := range rows {
		r := &rows[i]
		for _, bt := range model.BudgetTypesFor(r.Section) {
			for _, col := range columns {
				totalCol := r.Section == model.SectionConsolidated && col == model.TotalColumn
				if r.Level > c.MaxLevel && !totalCol {
					continue
				}
				comp, ok := r.ComputedValue(bt, col)
				if !ok {
					continue
				}
				if d, bad := c.compare(r, bt, col, r.Value(bt, col), comp); bad {
					out = append(out, d)
				}
			}
		}
	}
	sortDiscrepancies(out, columns)
	return out
}

func (c Checker) compare(r *model.Row, bt model.BudgetType, col string, orig, comp model.Value) (Discrepancy, bool) {
	o, k := orig.OrZero(), comp.OrZero()
	delta := k.Sub(o)
	if delta.Abs().LessThanOrEqual(c.Tolerance) {
		return Discrepancy{}, false
	}
	return Discrepancy{
		Section:    r.Section,
		RowName:    r.IndicatorName,
		RowCode:    r.LineCode,
		Level:      r.Level,
		Ordinal:    r.SourceOrdinal,
		Column:     col,
		BudgetType: bt,
		Original:   o,
		Computed:   k,
		Delta:      delta,
	}, true
}

// DiffForm checks every section of a form, in section order.
func (c Checker) DiffForm(f *model.Form, columns model.Columns) []Discrepancy {
	var out []Discrepancy
	for _, s := range model.Sections {
		out = append(out, c.Diff(f.Rows(s), columns.For(s))...)
	}
	return out
}

// CheckForm runs DiffForm and DiffDeficit together. The deficit line
// findings are merged into the expense section in source order.
func (c Checker) CheckForm(f *model.Form, columns model.Columns, res deficit.Result) []Discrepancy {
	var out []Discrepancy
	for _, s := range model.Sections {
		found := c.Diff(f.Rows(s), columns.For(s))
		if s == model.SectionExpense {
			found = append(found, c.DiffDeficit(f.Expense, res, columns.Budget)...)
			sortDiscrepancies(found, columns.Budget)
		}
		out = append(out, found...)
	}
	return out
}

// DiffDeficit compares the execution result line of the expense section
// with the derived result. Nothing is reported when the line is absent.
func (c Checker) DiffDeficit(expense []model.Row, res deficit.Result, columns []string) []Discrepancy {
	line := deficit.FindResultLine(expense)
	if line == nil {
		return nil
	}
	var out []Discrepancy
	for _, bt := range model.BudgetTypesFor(model.SectionExpense) {
		vec := res.For(bt)
		for _, col := range columns {
			derived := vec.Get(col)
			if derived.NA {
				continue
			}
			if d, bad := c.compare(line, bt, col, line.Value(bt, col), derived); bad {
				out = append(out, d)
			}
		}
	}
	sortDiscrepancies(out, columns)
	return out
}

func sortDiscrepancies(ds []Discrepancy, columns []string) {
	colPos := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := colPos[c]; !ok {
			colPos[c] = i
		}
	}
	btPos := map[model.BudgetType]int{model.BudgetApproved: 0, model.BudgetExecuted: 1, model.BudgetReceipts: 2}
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Section != b.Section {
			return a.Section.Order() < b.Section.Order()
		}
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		if a.BudgetType != b.BudgetType {
			return btPos[a.BudgetType] < btPos[b.BudgetType]
		}
		return colPos[a.Column] < colPos[b.Column]
	})
}
