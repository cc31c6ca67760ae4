// Package deficit derives the budget execution result (deficit or surplus)
// from the income and expense total rows.
package deficit

import (
	"regexp"

	"github.com/Annarex/test-app-sub000/internal/model"
)

// ResultLineCode is the expense-section line that reports the execution
// result on the form.
const ResultLineCode = "450"

var totalPatterns = map[model.Section]*regexp.Regexp{
	model.SectionIncome:    regexp.MustCompile(`(?i)доходы бюджета.*всего`),
	model.SectionExpense:   regexp.MustCompile(`(?i)расходы бюджета.*всего`),
	model.SectionFinancing: regexp.MustCompile(`(?i)источники финансирования дефицита бюджетов.*всего`),
}

// Result holds expense minus income per column, for both budget types.
// A positive figure is a deficit.
type Result struct {
	Approved model.Vector
	Executed model.Vector
}

// For returns the vector of a budget type.
func (r Result) For(bt model.BudgetType) model.Vector {
	switch bt {
	case model.BudgetApproved:
		return r.Approved
	case model.BudgetExecuted:
		return r.Executed
	}
	return nil
}

// Available reports whether any column carries a number.
func (r Result) Available() bool {
	for _, vec := range []model.Vector{r.Approved, r.Executed} {
		for _, v := range vec {
			if !v.NA {
				return true
			}
		}
	}
	return false
}

// Derive computes expense - income for every column. Each side uses its
// computed value when one exists. If either row is nil the result is all
// sentinel. A column missing on both sides is the sentinel; missing on one
// side counts as zero.
func Derive(income, expense *model.Row, columns []string) Result {
	res := Result{Approved: make(model.Vector, len(columns)), Executed: make(model.Vector, len(columns))}
	for _, bt := range []model.BudgetType{model.BudgetApproved, model.BudgetExecuted} {
		vec := res.For(bt)
		for _, col := range columns {
			if income == nil || expense == nil {
				vec[col] = model.NotApplicable
				continue
			}
			in := income.Effective(bt, col)
			out := expense.Effective(bt, col)
			if in.NA && out.NA {
				vec[col] = model.NotApplicable
				continue
			}
			vec[col] = model.NewValue(out.OrZero().Sub(in.OrZero()))
		}
	}
	return res
}

// FindTotal returns the grand-total row of a section, matched by its
// printed name, or nil. When no name matches, the first level-0 row
// carrying the total marker is used.
func FindTotal(rows []model.Row, section model.Section) *model.Row {
	if re, ok := totalPatterns[section]; ok {
		for i := range rows {
			if re.MatchString(rows[i].IndicatorName) {
				return &rows[i]
			}
		}
	}
	for i := range rows {
		if rows[i].Level == 0 && rows[i].IsTotal() {
			return &rows[i]
		}
	}
	return nil
}

// FromForm derives the result from the current income and expense totals.
func FromForm(f *model.Form, columns []string) Result {
	return Derive(FindTotal(f.Income, model.SectionIncome), FindTotal(f.Expense, model.SectionExpense), columns)
}

// FindResultLine returns the expense row that reports the execution result.
func FindResultLine(expense []model.Row) *model.Row {
	for i := range expense {
		if expense[i].LineCode == ResultLineCode {
			return &expense[i]
		}
	}
	return nil
}
