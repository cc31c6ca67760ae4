package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Annarex/test-app-sub000/internal/diff"
	"github.com/Annarex/test-app-sub000/internal/model"
)

func incomeForm() (*model.Form, model.Columns, []diff.Discrepancy) {
	cols := model.Columns{Budget: []string{"a", "b"}, Consolidated: []string{model.TotalColumn}}
	mk := func(ord, level int, line, name string, a float64) model.Row {
		r := model.Row{Section: model.SectionIncome, SourceOrdinal: ord, Level: level, LineCode: line, IndicatorName: name}
		r.SetValue(model.BudgetApproved, "a", model.NewValueFromFloat(a))
		r.SetValue(model.BudgetExecuted, "a", model.NewValueFromFloat(a))
		r.SetValue(model.BudgetApproved, "b", model.NewValueFromFloat(0))
		r.SetValue(model.BudgetExecuted, "b", model.NotApplicable)
		return r
	}
	f := &model.Form{}
	total := mk(1, 0, "010", "Доходы бюджета - всего", 950)
	total.SetComputed(model.BudgetApproved, "a", model.NewValueFromFloat(900))
	f.Append(total)
	f.Append(mk(2, 1, "010", "Налоговые доходы", 700))
	f.Append(mk(3, 1, "010", "Неналоговые доходы", 200))

	ds := []diff.Discrepancy{{
		Section: model.SectionIncome, RowName: total.IndicatorName, RowCode: "010", Ordinal: 1,
		Column: "a", BudgetType: model.BudgetApproved,
		Original: decimal.NewFromInt(950), Computed: decimal.NewFromInt(900), Delta: decimal.NewFromInt(-50),
	}}
	return f, cols, ds
}

func TestTable(t *testing.T) {
	_, _, ds := incomeForm()
	out := Table(ds)
	assert.Contains(t, out, "Доходы бюджета - всего")
	assert.Contains(t, out, "-50")
	assert.Contains(t, out, "Отклонение")
	assert.Contains(t, out, "Всего расхождений: 1")

	assert.Contains(t, Table(nil), "Расхождений не найдено")
}

func TestTableTruncatesLongNames(t *testing.T) {
	long := "Очень длинное наименование показателя, которое не помещается в столбец таблицы"
	out := Table([]diff.Discrepancy{{Section: model.SectionExpense, RowName: long, BudgetType: model.BudgetExecuted}})
	assert.NotContains(t, out, long)
	assert.Contains(t, out, "…")
}

func TestTree(t *testing.T) {
	f, _, ds := incomeForm()
	out := Tree(f.Income, model.BudgetApproved, "a", ds)
	assert.Contains(t, out, "Доходы / Утвержденный / a")
	assert.Contains(t, out, "Налоговые доходы 700")
	assert.Contains(t, out, "950 → 900")

	assert.Contains(t, Tree(nil, model.BudgetApproved, "a", nil), "нет строк")
}

func TestWorkbook(t *testing.T) {
	f, cols, ds := incomeForm()
	x, err := Workbook(f, cols, ds)
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, []string{DiscrepancySheet, "Доходы"}, x.GetSheetList())

	v, err := x.GetCellValue(DiscrepancySheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Доходы бюджета - всего", v)
	v, err = x.GetCellValue(DiscrepancySheet, "I2")
	require.NoError(t, err)
	assert.Equal(t, "-50", v)

	// Column b is zero on the total row, so only a is shown: E approved, F executed.
	v, err = x.GetCellValue("Доходы", "E1")
	require.NoError(t, err)
	assert.Equal(t, "Утвержденный: a", v)
	v, err = x.GetCellValue("Доходы", "G1")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = x.GetCellValue("Доходы", "E2")
	require.NoError(t, err)
	assert.Equal(t, "950", v)

	badStyle, err := x.GetCellStyle("Доходы", "E2")
	require.NoError(t, err)
	okStyle, err := x.GetCellStyle("Доходы", "F2")
	require.NoError(t, err)
	assert.NotEqual(t, badStyle, okStyle)
}

func TestWorkbookKeepsZeroColumnWithDiscrepancy(t *testing.T) {
	f, cols, ds := incomeForm()
	ds = append(ds, diff.Discrepancy{Section: model.SectionIncome, Ordinal: 2, Column: "b", BudgetType: model.BudgetApproved})
	x, err := Workbook(f, cols, ds)
	require.NoError(t, err)
	defer x.Close()

	v, err := x.GetCellValue("Доходы", "F1")
	require.NoError(t, err)
	assert.Equal(t, "Утвержденный: b", v)
	v, err = x.GetCellValue("Доходы", "H3")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestWriteAndSaveWorkbook(t *testing.T) {
	f, cols, ds := incomeForm()

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, f, cols, ds))
	x, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Contains(t, x.GetSheetList(), DiscrepancySheet)
	x.Close()

	path := filepath.Join(t.TempDir(), "check.xlsx")
	require.NoError(t, SaveWorkbook(path, f, cols, ds))
	x, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer x.Close()
	assert.Len(t, x.GetSheetList(), 2)
}
