package model

import (
	"fmt"
	"sort"
	"strings"
)

// Section identifies one of the four report areas of the form.
type Section string

const (
	SectionIncome       Section = "income"
	SectionExpense      Section = "expense"
	SectionFinancing    Section = "financing"
	SectionConsolidated Section = "consolidated"
)

// Sections lists every section in form order.
var Sections = []Section{SectionIncome, SectionExpense, SectionFinancing, SectionConsolidated}

// ParseSection accepts the canonical name of a section.
func ParseSection(s string) (Section, error) {
	sec := Section(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sections {
		if sec == known {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// Budgeted reports whether the section carries approved/executed vectors.
func (s Section) Budgeted() bool {
	return s != SectionConsolidated
}

// Title returns the section heading used on the printed form.
func (s Section) Title() string {
	switch s {
	case SectionIncome:
		return "Доходы"
	case SectionExpense:
		return "Расходы"
	case SectionFinancing:
		return "Источники финансирования"
	case SectionConsolidated:
		return "Консолидируемые расчеты"
	}
	return string(s)
}

// Order is the position of the section on the form.
func (s Section) Order() int {
	for i, known := range Sections {
		if s == known {
			return i
		}
	}
	return len(Sections)
}

// BudgetType is the value axis orthogonal to the section.
type BudgetType string

const (
	BudgetApproved BudgetType = "approved"
	BudgetExecuted BudgetType = "executed"
	BudgetReceipts BudgetType = "receipts"
)

// BudgetTypesFor returns the budget types a section carries.
func BudgetTypesFor(s Section) []BudgetType {
	if s.Budgeted() {
		return []BudgetType{BudgetApproved, BudgetExecuted}
	}
	return []BudgetType{BudgetReceipts}
}

// ParseBudgetType accepts the canonical name of a budget type.
func ParseBudgetType(s string) (BudgetType, error) {
	switch bt := BudgetType(strings.ToLower(strings.TrimSpace(s))); bt {
	case BudgetApproved, BudgetExecuted, BudgetReceipts:
		return bt, nil
	}
	return "", fmt.Errorf("unknown budget type %q", s)
}

// Title returns the Russian label for reports.
func (b BudgetType) Title() string {
	switch b {
	case BudgetApproved:
		return "Утвержденный"
	case BudgetExecuted:
		return "Исполненный"
	case BudgetReceipts:
		return "Поступления"
	}
	return string(b)
}

// ValueKind separates reported values from recomputed ones in storage.
type ValueKind string

const (
	KindOriginal ValueKind = "original"
	KindComputed ValueKind = "computed"
)

// Row is one line item of one section of one revision.
type Row struct {
	Section            Section
	ClassificationCode string
	IndicatorName      string
	LineCode           string
	Level              int
	SourceOrdinal      int
	Original           map[BudgetType]Vector
	Computed           map[BudgetType]Vector
}

// Value returns the original value of a column.
func (r *Row) Value(bt BudgetType, column string) Value {
	return r.Original[bt].Get(column)
}

// SetValue stores an original value.
func (r *Row) SetValue(bt BudgetType, column string, v Value) {
	if r.Original == nil {
		r.Original = make(map[BudgetType]Vector)
	}
	if r.Original[bt] == nil {
		r.Original[bt] = make(Vector)
	}
	r.Original[bt][column] = v
}

// ComputedValue returns the computed value of a column and whether one was
// ever produced.
func (r *Row) ComputedValue(bt BudgetType, column string) (Value, bool) {
	vec, ok := r.Computed[bt]
	if !ok {
		return Value{}, false
	}
	return vec.Lookup(column)
}

// SetComputed stores a computed value.
func (r *Row) SetComputed(bt BudgetType, column string, v Value) {
	if r.Computed == nil {
		r.Computed = make(map[BudgetType]Vector)
	}
	if r.Computed[bt] == nil {
		r.Computed[bt] = make(Vector)
	}
	r.Computed[bt][column] = v
}

// Effective returns the computed value when present, else the original.
func (r *Row) Effective(bt BudgetType, column string) Value {
	if v, ok := r.ComputedValue(bt, column); ok {
		return v
	}
	return r.Value(bt, column)
}

// ResetComputed drops every computed value.
func (r *Row) ResetComputed() {
	r.Computed = nil
}

// Key is the row's logical identity for persistence.
func (r *Row) Key() RowKey {
	return RowKey{Section: r.Section, LineCode: r.LineCode, IndicatorName: r.IndicatorName}
}

// IsTotal reports whether the indicator name carries the grand-total marker.
func (r *Row) IsTotal() bool {
	return IsTotalName(r.IndicatorName)
}

// Clone returns a deep copy.
func (r Row) Clone() Row {
	out := r
	out.Original = cloneVectors(r.Original)
	out.Computed = cloneVectors(r.Computed)
	return out
}

func cloneVectors(in map[BudgetType]Vector) map[BudgetType]Vector {
	if in == nil {
		return nil
	}
	out := make(map[BudgetType]Vector, len(in))
	for bt, vec := range in {
		out[bt] = vec.Clone()
	}
	return out
}

// RowKey identifies a row within a revision. The classification code is not
// part of it: codes repeat and may be empty.
type RowKey struct {
	Section       Section
	LineCode      string
	IndicatorName string
}

// TotalMarker is the word that marks a section grand-total row.
const TotalMarker = "всего"

// IsTotalName reports whether an indicator name denotes a grand total.
func IsTotalName(name string) bool {
	return strings.Contains(strings.ToLower(name), TotalMarker)
}

// SortRows orders rows by source ordinal, the order the hierarchy depends on.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SourceOrdinal < rows[j].SourceOrdinal
	})
}

// Levels extracts the level sequence of rows.
func Levels(rows []Row) []int {
	out := make([]int, len(rows))
	for i := range rows {
		out[i] = rows[i].Level
	}
	return out
}
