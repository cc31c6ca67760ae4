package diff

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annarex/test-app-sub000/internal/calc"
	"github.com/Annarex/test-app-sub000/internal/deficit"
	"github.com/Annarex/test-app-sub000/internal/model"
)

func num(f float64) model.Value { return model.NewValueFromFloat(f) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func incomeRow(name string, level, ordinal int, orig, comp model.Value) model.Row {
	r := model.Row{Section: model.SectionIncome, IndicatorName: name, LineCode: "010", Level: level, SourceOrdinal: ordinal}
	r.SetValue(model.BudgetExecuted, "c", orig)
	r.SetComputed(model.BudgetExecuted, "c", comp)
	return r
}

func TestDiff_ReportsDelta(t *testing.T) {
	rows := []model.Row{
		{Section: model.SectionIncome, IndicatorName: "Доходы бюджета - всего", LineCode: "010", SourceOrdinal: 1},
		{Section: model.SectionIncome, IndicatorName: "Налоговые", Level: 1, SourceOrdinal: 2},
		{Section: model.SectionIncome, IndicatorName: "Неналоговые", Level: 1, SourceOrdinal: 3},
	}
	rows[0].SetValue(model.BudgetExecuted, "c", num(1000))
	rows[1].SetValue(model.BudgetExecuted, "c", num(700))
	rows[2].SetValue(model.BudgetExecuted, "c", num(250))

	calc.Compute(model.SectionIncome, rows, []string{"c"})
	got := Default().Diff(rows, []string{"c"})

	require.Len(t, got, 1)
	d := got[0]
	assert.Equal(t, model.SectionIncome, d.Section)
	assert.Equal(t, "010", d.RowCode)
	assert.Equal(t, model.BudgetExecuted, d.BudgetType)
	assert.True(t, d.Original.Equal(dec("1000")))
	assert.True(t, d.Computed.Equal(dec("950")))
	assert.True(t, d.Delta.Equal(dec("-50")))
	assert.Contains(t, d.String(), "delta -50")
}

func TestDiff_Tolerance(t *testing.T) {
	tests := []struct {
		name  string
		delta string
		want  int
	}{
		{"below epsilon", "0.000001", 0},
		{"at epsilon", "0.00001", 0},
		{"above epsilon", "0.0001", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := dec("10")
			rows := []model.Row{incomeRow("r", 1, 1, model.NewValue(orig), model.NewValue(orig.Add(dec(tt.delta))))}
			assert.Len(t, Default().Diff(rows, []string{"c"}), tt.want)
		})
	}
}

func TestDiff_LevelCeiling(t *testing.T) {
	rows := []model.Row{
		incomeRow("level5", 5, 1, num(1), num(2)),
		incomeRow("level6", 6, 2, num(1), num(2)),
	}
	got := Default().Diff(rows, []string{"c"})
	require.Len(t, got, 1)
	assert.Equal(t, "level5", got[0].RowName)

	loose := Checker{Tolerance: DefaultTolerance, MaxLevel: 10}
	assert.Len(t, loose.Diff(rows, []string{"c"}), 2)
}

func TestDiff_ConsolidatedTotalEveryLevel(t *testing.T) {
	cols := []string{"x", "y", model.TotalColumn}
	r := model.Row{Section: model.SectionConsolidated, IndicatorName: "Глубокая строка", LineCode: "915", Level: 6}
	r.SetValue(model.BudgetReceipts, "x", num(10))
	r.SetValue(model.BudgetReceipts, "y", num(20))
	r.SetValue(model.BudgetReceipts, model.TotalColumn, num(25))
	rows := calc.Compute(model.SectionConsolidated, []model.Row{r}, cols)

	got := Default().Diff(rows, cols)
	require.Len(t, got, 1)
	assert.Equal(t, model.TotalColumn, got[0].Column)
	assert.Equal(t, model.BudgetReceipts, got[0].BudgetType)
	assert.True(t, got[0].Computed.Equal(dec("30")))
	assert.True(t, got[0].Delta.Equal(dec("5")))
}

func TestDiff_Sentinels(t *testing.T) {
	rows := []model.Row{
		incomeRow("both sentinel", 1, 1, model.NotApplicable, model.NotApplicable),
		incomeRow("sentinel vs zero", 1, 2, model.NotApplicable, num(0)),
		incomeRow("sentinel vs value", 1, 3, model.NotApplicable, num(3)),
	}
	got := Default().Diff(rows, []string{"c"})
	require.Len(t, got, 1)
	assert.Equal(t, "sentinel vs value", got[0].RowName)
	assert.True(t, got[0].Original.IsZero())
}

func TestDiff_NeverComputedNotReported(t *testing.T) {
	r := model.Row{Section: model.SectionIncome, Level: 1}
	r.SetValue(model.BudgetApproved, "c", num(5))
	assert.Empty(t, Default().Diff([]model.Row{r}, []string{"c"}))
}

func TestDiff_NoSideEffects(t *testing.T) {
	rows := []model.Row{incomeRow("r", 1, 1, num(1), num(2))}
	before := rows[0].Clone()
	Default().Diff(rows, []string{"c"})
	assert.Equal(t, before, rows[0])
}

func TestDiffForm_Order(t *testing.T) {
	f := &model.Form{}
	e := model.Row{Section: model.SectionExpense, IndicatorName: "E", Level: 1, SourceOrdinal: 1}
	e.SetValue(model.BudgetApproved, "b", num(1))
	e.SetComputed(model.BudgetApproved, "b", num(2))
	e.SetValue(model.BudgetApproved, "a", num(1))
	e.SetComputed(model.BudgetApproved, "a", num(2))
	f.Append(e)
	f.Append(incomeRow("I2", 1, 9, num(1), num(2)))
	f.Append(incomeRow("I1", 1, 4, num(1), num(2)))

	got := Default().DiffForm(f, model.Columns{Budget: []string{"a", "b", "c"}})
	require.Len(t, got, 4)
	assert.Equal(t, "I1", got[0].RowName)
	assert.Equal(t, "I2", got[1].RowName)
	assert.Equal(t, "a", got[2].Column)
	assert.Equal(t, "b", got[3].Column)
}

func TestDiffDeficit(t *testing.T) {
	line := model.Row{Section: model.SectionExpense, IndicatorName: "Результат исполнения бюджета", LineCode: deficit.ResultLineCode}
	line.SetValue(model.BudgetApproved, "c", num(-200))
	line.SetValue(model.BudgetExecuted, "c", num(-90))

	res := deficit.Result{
		Approved: model.Vector{"c": num(-200)},
		Executed: model.Vector{"c": num(-100)},
	}
	got := Default().DiffDeficit([]model.Row{line}, res, []string{"c"})
	require.Len(t, got, 1)
	assert.Equal(t, model.BudgetExecuted, got[0].BudgetType)
	assert.True(t, got[0].Delta.Equal(dec("-10")))

	assert.Empty(t, Default().DiffDeficit(nil, res, []string{"c"}))
}

func TestCheckForm_MergesDeficitLine(t *testing.T) {
	f := &model.Form{}
	early := model.Row{Section: model.SectionExpense, IndicatorName: "Образование", Level: 1, SourceOrdinal: 1}
	early.SetValue(model.BudgetApproved, "c", num(1))
	early.SetComputed(model.BudgetApproved, "c", num(2))
	f.Append(early)
	line := model.Row{Section: model.SectionExpense, IndicatorName: "Результат", LineCode: deficit.ResultLineCode, SourceOrdinal: 2}
	line.SetValue(model.BudgetApproved, "c", num(0))
	f.Append(line)
	f.Append(model.Row{Section: model.SectionConsolidated, IndicatorName: "Пусто", SourceOrdinal: 3})

	res := deficit.Result{Approved: model.Vector{"c": num(7)}, Executed: model.Vector{}}
	got := Default().CheckForm(f, model.Columns{Budget: []string{"c"}, Consolidated: []string{model.TotalColumn}}, res)
	require.Len(t, got, 2)
	assert.Equal(t, "Образование", got[0].RowName)
	assert.Equal(t, "Результат", got[1].RowName)
	assert.True(t, got[1].Delta.Equal(dec("7")))
}
