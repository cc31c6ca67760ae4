// Package level assigns hierarchy levels to form rows.
package level

import (
	"fmt"
	"strings"

	"github.com/Annarex/test-app-sub000/internal/code"
	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/refs"
)

// Financing subtotal names that sit at level 1 whatever their code says.
var financingSubtotals = []string{
	"источники внутреннего финансирования",
	"источники внешнего финансирования",
}

// Warning reports a row whose level could not be resolved from a reference.
// The row gets level 0; the condition is never an error.
type Warning struct {
	Section   model.Section
	Code      string
	Name      string
	Ordinal   int
	Suggested string // nearest known code, if any
	NoTable   bool
}

func (w Warning) String() string {
	switch {
	case w.NoTable:
		return fmt.Sprintf("%s: no reference loaded, %q at row %d gets level 0", w.Section, w.Code, w.Ordinal)
	case w.Suggested != "":
		return fmt.Sprintf("%s: code %q (%s) not in reference, nearest %q", w.Section, w.Code, w.Name, w.Suggested)
	}
	return fmt.Sprintf("%s: code %q (%s) not in reference", w.Section, w.Code, w.Name)
}

// Resolver computes levels against a fixed set of reference tables.
// Build a new Resolver when the tables change.
type Resolver struct {
	tables refs.Set
}

// NewResolver creates a Resolver over tables. A nil set is allowed.
func NewResolver(tables refs.Set) *Resolver {
	return &Resolver{tables: tables}
}

// Level returns the level of one row. For the consolidated section c is the
// line code. The warning is non-nil when a
// referenced section had no match for the code.
func (r *Resolver) Level(c string, section model.Section, name string) (int, *Warning) {
	if model.IsTotalName(name) {
		return 0, nil
	}

	switch section {
	case model.SectionExpense:
		return Expense(code.Normalize(c)), nil
	case model.SectionConsolidated:
		return Consolidated(c), nil
	case model.SectionIncome, model.SectionFinancing:
		return r.referenced(c, section, name)
	}
	return 0, nil
}

func (r *Resolver) referenced(c string, section model.Section, name string) (int, *Warning) {
	c = code.Normalize(c)
	if c == code.Zero {
		return 0, nil
	}
	if section == model.SectionFinancing {
		lower := strings.ToLower(name)
		for _, sub := range financingSubtotals {
			if strings.Contains(lower, sub) {
				return 1, nil
			}
		}
	}

	tbl := r.tables.For(section)
	if tbl.Len() == 0 {
		return 0, &Warning{Section: section, Code: c, Name: name, NoTable: true}
	}
	if lvl, ok := tbl.Level(c); ok {
		return lvl, nil
	}
	w := &Warning{Section: section, Code: c, Name: name}
	if near, ok := tbl.Nearest(c); ok {
		w.Suggested = near.Code
	}
	return 0, w
}

// ResolveRows sets Level on every row in place and returns the warnings.
// Levels are reassigned from scratch each call.
func (r *Resolver) ResolveRows(rows []model.Row) []Warning {
	var warnings []Warning
	for i := range rows {
		row := &rows[i]
		lvl, w := r.Level(rowCode(row), row.Section, row.IndicatorName)
		row.Level = lvl
		if w != nil {
			w.Ordinal = row.SourceOrdinal
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

// Consolidated rows are classified by line code, the rest by
// classification code.
func rowCode(row *model.Row) string {
	if row.Section == model.SectionConsolidated {
		return row.LineCode
	}
	return row.ClassificationCode
}

// ResolveForm resolves every section of a form.
func (r *Resolver) ResolveForm(f *model.Form) []Warning {
	var warnings []Warning
	for _, s := range model.Sections {
		warnings = append(warnings, r.ResolveRows(f.Rows(s))...)
	}
	return warnings
}

// Expense derives the level of an expense row from its 20-character code.
// Each level requires the previous one: the section digits, then the
// subsection digits, then the last three positions one by one.
func Expense(c string) int {
	if len(c) != code.Length {
		return 0
	}
	level := 0
	if c[3:5] != "00" {
		level = 1
	}
	if level == 1 && c[5:7] != "00" {
		level = 2
	}
	if level == 2 && c[17] != '0' {
		level = 3
	}
	if level == 3 && c[18] != '0' {
		level = 4
	}
	if level == 4 && c[19] != '0' {
		level = 5
	}
	return level
}

// Consolidated derives the level of a consolidated-settlements row from its
// line code: 899 is the total, 9X0 a group, 9XY an item.
func Consolidated(lineCode string) int {
	c := strings.TrimSpace(lineCode)
	if len(c) < 3 {
		return 0
	}
	if c == "899" {
		return 0
	}
	if c[0] != '9' || c[1] < '0' || c[1] > '9' {
		return 0
	}
	if c[2] == '0' {
		return 1
	}
	return 2
}
