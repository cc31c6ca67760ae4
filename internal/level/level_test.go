package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/refs"
)

func incomeTables() refs.Set {
	return refs.Set{
		model.SectionIncome: refs.NewTable(model.SectionIncome, []refs.Record{
			{Code: "00010000000000000000", Level: 1},
			{Code: "00010100000000000000", Level: 2},
			{Code: "00010102000010000110", Level: 3},
		}),
		model.SectionFinancing: refs.NewTable(model.SectionFinancing, []refs.Record{
			{Code: "00001000000000000000", Level: 2},
		}),
	}
}

func TestExpense(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"00000000000000000000", 0},
		{"00001000000000000000", 1},
		{"00001040000000000000", 2},
		{"00001040000000000100", 3},
		{"00001040000000000120", 4},
		{"00001040000000000121", 5},
		{"00000040000000000121", 0},
		{"00001000000000000121", 1},
		{"0000104", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Expense(tt.code), "code %s", tt.code)
	}
}

func TestConsolidated(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"899", 0},
		{"900", 1},
		{"910", 1},
		{"911", 2},
		{"999", 2},
		{"800", 0},
		{"9A1", 0},
		{"9", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Consolidated(tt.line), "line %q", tt.line)
	}
}

func TestLevel_TotalNameWins(t *testing.T) {
	r := NewResolver(incomeTables())
	for _, s := range model.Sections {
		lvl, w := r.Level("00001040000000000121", s, "Расходы бюджета - ВСЕГО")
		assert.Equal(t, 0, lvl, "section %s", s)
		assert.Nil(t, w)
	}
}

func TestLevel_Referenced(t *testing.T) {
	r := NewResolver(incomeTables())

	lvl, w := r.Level("000 1 01 00000 00 0000 000", model.SectionIncome, "Налоги на прибыль")
	assert.Equal(t, 2, lvl)
	assert.Nil(t, w)

	lvl, w = r.Level("00000000000000000000", model.SectionIncome, "Доходы")
	assert.Equal(t, 0, lvl)
	assert.Nil(t, w)

	lvl, w = r.Level("00010100000000000009", model.SectionIncome, "Неизвестный")
	assert.Equal(t, 0, lvl)
	require.NotNil(t, w)
	assert.Equal(t, "00010100000000000000", w.Suggested)
	assert.Contains(t, w.String(), "nearest")
}

func TestLevel_FinancingSubtotals(t *testing.T) {
	r := NewResolver(incomeTables())
	lvl, w := r.Level("00001000000000000000", model.SectionFinancing, "Источники внутреннего финансирования бюджета")
	assert.Equal(t, 1, lvl)
	assert.Nil(t, w)

	lvl, _ = r.Level("00001000000000000000", model.SectionFinancing, "Кредиты")
	assert.Equal(t, 2, lvl)
}

func TestLevel_NoTable(t *testing.T) {
	r := NewResolver(nil)
	lvl, w := r.Level("00010000000000000000", model.SectionIncome, "Налоговые доходы")
	assert.Equal(t, 0, lvl)
	require.NotNil(t, w)
	assert.True(t, w.NoTable)

	lvl, w = r.Level("00001000000000000000", model.SectionExpense, "Общегосударственные вопросы")
	assert.Equal(t, 1, lvl)
	assert.Nil(t, w)
}

func TestResolveRows_RerunAfterReload(t *testing.T) {
	rows := []model.Row{
		{Section: model.SectionIncome, ClassificationCode: "00010000000000000000", IndicatorName: "Налоговые доходы", SourceOrdinal: 1},
		{Section: model.SectionIncome, ClassificationCode: "00010500000000000000", IndicatorName: "Налоги на совокупный доход", SourceOrdinal: 2},
	}

	warnings := NewResolver(incomeTables()).ResolveRows(rows)
	assert.Equal(t, []int{1, 0}, model.Levels(rows))
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Ordinal)

	reloaded := refs.Set{model.SectionIncome: refs.NewTable(model.SectionIncome, []refs.Record{
		{Code: "00010000000000000000", Level: 1},
		{Code: "00010500000000000000", Level: 2},
	})}
	warnings = NewResolver(reloaded).ResolveRows(rows)
	assert.Empty(t, warnings)
	assert.Equal(t, []int{1, 2}, model.Levels(rows))

	// Same tables, same answer.
	NewResolver(reloaded).ResolveRows(rows)
	assert.Equal(t, []int{1, 2}, model.Levels(rows))
}

func TestResolveForm(t *testing.T) {
	f := &model.Form{}
	f.Append(model.Row{Section: model.SectionExpense, ClassificationCode: "00001040000000000000", IndicatorName: "Функционирование"})
	f.Append(model.Row{Section: model.SectionConsolidated, LineCode: "911", IndicatorName: "Дотации"})
	f.Append(model.Row{Section: model.SectionIncome, ClassificationCode: "00010000000000000000", IndicatorName: "Налоговые доходы"})

	warnings := NewResolver(incomeTables()).ResolveForm(f)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, f.Expense[0].Level)
	assert.Equal(t, 2, f.Consolidated[0].Level)
	assert.Equal(t, 1, f.Income[0].Level)
}
