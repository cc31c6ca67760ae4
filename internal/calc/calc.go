// Package calc recomputes aggregate rows of a form from their children.
package calc

import (
	"github.com/Annarex/test-app-sub000/internal/deficit"
	"github.com/Annarex/test-app-sub000/internal/hierarchy"
	"github.com/Annarex/test-app-sub000/internal/model"
)

// ConsolidatedMaxLevel is the deepest consolidated level that takes part in
// column aggregation.
const ConsolidatedMaxLevel = 2

// Compute fills the computed vectors of rows, which must be in source order
// with levels resolved. Previous computed values are discarded first, so
// calling it twice gives the same result. The slice is returned for chaining.
//
// A row's computed value is the sum of its children exactly one level deeper;
// a row with no such children keeps its original value. For the consolidated
// section only levels up to ConsolidatedMaxLevel aggregate, and the total
// column is the sum of the row's other computed columns.
func Compute(section model.Section, rows []model.Row, columns []string) []model.Row {
	if len(rows) == 0 {
		return rows
	}
	for i := range rows {
		rows[i].ResetComputed()
	}

	tree := hierarchy.Build(model.Levels(rows))
	consolidated := section == model.SectionConsolidated

	for _, bt := range model.BudgetTypesFor(section) {
		for _, col := range columns {
			if consolidated && col == model.TotalColumn {
				continue
			}
			// Children always follow their parent, so a reverse scan sees
			// every child before the parent that sums it.
			for i := len(rows) - 1; i >= 0; i-- {
				var kids []int
				if !consolidated || rows[i].Level < ConsolidatedMaxLevel {
					kids = tree.DirectChildren(i)
				}
				if len(kids) == 0 {
					rows[i].SetComputed(bt, col, rows[i].Value(bt, col))
					continue
				}
				vals := make([]model.Value, 0, len(kids))
				for _, k := range kids {
					v, _ := rows[k].ComputedValue(bt, col)
					vals = append(vals, v)
				}
				rows[i].SetComputed(bt, col, model.Sum(vals...))
			}
		}
	}

	if consolidated && hasColumn(columns, model.TotalColumn) {
		computeTotalColumn(rows, columns)
	}
	return rows
}

func computeTotalColumn(rows []model.Row, columns []string) {
	for i := range rows {
		vals := make([]model.Value, 0, len(columns))
		for _, col := range columns {
			if col == model.TotalColumn {
				continue
			}
			v, _ := rows[i].ComputedValue(model.BudgetReceipts, col)
			vals = append(vals, v)
		}
		rows[i].SetComputed(model.BudgetReceipts, model.TotalColumn, model.Sum(vals...))
	}
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// ApplyFinancingTotal sets the financing grand total to the negated
// execution result. Columns where the result is the sentinel keep the
// value Compute gave them.
func ApplyFinancingTotal(rows []model.Row, res deficit.Result, columns []string) {
	total := deficit.FindTotal(rows, model.SectionFinancing)
	if total == nil {
		return
	}
	for _, bt := range model.BudgetTypesFor(model.SectionFinancing) {
		vec := res.For(bt)
		for _, col := range columns {
			v := vec.Get(col)
			if v.NA {
				continue
			}
			total.SetComputed(bt, col, v.Neg())
		}
	}
}

// ComputeForm recomputes every section of a form in dependency order:
// income and expense first, then the execution result, then financing
// (whose total depends on it), then consolidated settlements.
// The derived result is returned.
func ComputeForm(f *model.Form, columns model.Columns) deficit.Result {
	Compute(model.SectionIncome, f.Income, columns.Budget)
	Compute(model.SectionExpense, f.Expense, columns.Budget)

	res := deficit.FromForm(f, columns.Budget)

	Compute(model.SectionFinancing, f.Financing, columns.Budget)
	ApplyFinancingTotal(f.Financing, res, columns.Budget)

	Compute(model.SectionConsolidated, f.Consolidated, columns.Consolidated)
	return res
}
