package model

// TotalColumn is the consolidated-section column holding the row's own sum.
const TotalColumn = "ИТОГО"

// DefaultBudgetColumns are the budget-level columns of form 0503317, in the
// order they appear for both approved and executed values.
var DefaultBudgetColumns = []string{
	"консолидированный бюджет субъекта Российской Федерации и территориального государственного внебюджетного фонда",
	"суммы, подлежащие исключению в рамках консолидированного бюджета субъекта Российской Федерации и бюджета территориального государственного внебюджетного фонда",
	"консолидированный бюджет субъекта Российской Федерации",
	"суммы, подлежащие исключению в рамках консолидированного бюджета Российской Федерации",
	"бюджет субъекта Российской Федерации",
	"бюджеты внутригородских муниципальных образований городов федерального значения",
	"бюджеты муниципальных округов",
	"бюджеты городских округов",
	"бюджеты городских округов с внутригородским делением",
	"бюджеты внутригородских районов",
	"бюджеты муниципальных районов",
	"бюджеты городских поселений",
	"бюджеты сельских поселений",
	"бюджет территориального государственного внебюджетного фонда",
}

// DefaultConsolidatedColumns are the receipts columns of the consolidated
// section; the last one is TotalColumn.
var DefaultConsolidatedColumns = []string{
	"бюджет субъекта Российской Федерации",
	"бюджеты внутригородских муниципальных образований городов федерального значения",
	"бюджеты муниципальных округов",
	"бюджеты городских округов",
	"бюджеты городских округов с внутригородским делением",
	"бюджеты внутригородских районов",
	"бюджеты муниципальных районов",
	"бюджеты городских поселений",
	"бюджеты сельских поселений",
	"бюджет территориального государственного внебюджетного фонда",
	TotalColumn,
}

// Columns holds the ordered column lists a form is computed over.
type Columns struct {
	Budget       []string
	Consolidated []string
}

// DefaultColumns returns the column lists of form 0503317.
func DefaultColumns() Columns {
	return Columns{
		Budget:       append([]string(nil), DefaultBudgetColumns...),
		Consolidated: append([]string(nil), DefaultConsolidatedColumns...),
	}
}

// For returns the columns of a section.
func (c Columns) For(s Section) []string {
	if s.Budgeted() {
		return c.Budget
	}
	return c.Consolidated
}

// Form is one revision of a budget execution report.
type Form struct {
	Income       []Row
	Expense      []Row
	Financing    []Row
	Consolidated []Row
	Meta         map[string]string
}

// Rows returns the rows of a section.
func (f *Form) Rows(s Section) []Row {
	switch s {
	case SectionIncome:
		return f.Income
	case SectionExpense:
		return f.Expense
	case SectionFinancing:
		return f.Financing
	case SectionConsolidated:
		return f.Consolidated
	}
	return nil
}

// SetRows replaces the rows of a section.
func (f *Form) SetRows(s Section, rows []Row) {
	switch s {
	case SectionIncome:
		f.Income = rows
	case SectionExpense:
		f.Expense = rows
	case SectionFinancing:
		f.Financing = rows
	case SectionConsolidated:
		f.Consolidated = rows
	}
}

// Append adds a row to its section.
func (f *Form) Append(r Row) {
	f.SetRows(r.Section, append(f.Rows(r.Section), r))
}

// Len returns the total number of rows.
func (f *Form) Len() int {
	return len(f.Income) + len(f.Expense) + len(f.Financing) + len(f.Consolidated)
}

// Sort restores source order in every section.
func (f *Form) Sort() {
	for _, s := range Sections {
		SortRows(f.Rows(s))
	}
}

// ZeroColumns returns the budget columns whose section total row is zero
// (or the sentinel) in both approved and executed values. Reports hide them.
func (f *Form) ZeroColumns(s Section, columns []string) []string {
	if !s.Budgeted() {
		return nil
	}
	rows := f.Rows(s)
	var total *Row
	for i := range rows {
		if rows[i].IsTotal() {
			total = &rows[i]
			break
		}
	}
	if total == nil {
		return nil
	}
	var out []string
	for _, col := range columns {
		if total.Value(BudgetApproved, col).OrZero().IsZero() && total.Value(BudgetExecuted, col).OrZero().IsZero() {
			out = append(out, col)
		}
	}
	return out
}
