package rowio

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annarex/test-app-sub000/internal/model"
)

const subject = "бюджет субъекта Российской Федерации"

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/form_0503317.csv")
	require.NoError(t, err)
	defer f.Close()

	form, err := ReadForm(f)
	require.NoError(t, err)

	assert.Len(t, form.Income, 4)
	assert.Len(t, form.Expense, 5)
	assert.Len(t, form.Financing, 3)
	assert.Len(t, form.Consolidated, 3)
	assert.Equal(t, "Тестовая область", form.Meta["region"])

	total := form.Income[0]
	assert.Equal(t, "Доходы бюджета - всего", total.IndicatorName)
	assert.True(t, total.Value(model.BudgetExecuted, subject).Equal(model.NewValueFromFloat(950)))
	assert.Equal(t, "Налоги на прибыль, доходы", form.Income[2].IndicatorName)

	dotations := form.Consolidated[2]
	assert.True(t, dotations.Value(model.BudgetReceipts, model.TotalColumn).Equal(model.NewValueFromFloat(310)))
}

func TestRoundTrip(t *testing.T) {
	form := &model.Form{Meta: map[string]string{"period": "2025-01-01"}}
	r := model.Row{Section: model.SectionIncome, IndicatorName: "Налоговые доходы", LineCode: "010", ClassificationCode: "00010000000000000000", Level: 1, SourceOrdinal: 2}
	r.SetValue(model.BudgetApproved, "b", model.NewValueFromFloat(10.5))
	r.SetValue(model.BudgetApproved, "a", model.NotApplicable)
	r.SetValue(model.BudgetApproved, "extra", model.NewValueFromFloat(1))
	r.SetComputed(model.BudgetApproved, "a", model.NewValueFromFloat(3))
	form.Append(r)
	form.Append(model.Row{Section: model.SectionExpense, IndicatorName: "Пустая строка", SourceOrdinal: 3})

	var buf bytes.Buffer
	require.NoError(t, WriteForm(&buf, form, model.Columns{Budget: []string{"a", "b"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, Header, lines[0])
	assert.Contains(t, lines[2], ",approved,original,a,x")
	assert.Contains(t, lines[3], ",approved,original,b,10.5")
	assert.Contains(t, lines[4], ",approved,original,extra,1")

	got, err := ReadForm(&buf)
	require.NoError(t, err)
	assert.Equal(t, form.Meta, got.Meta)
	require.Len(t, got.Income, 1)
	require.Len(t, got.Expense, 1)

	g := got.Income[0]
	assert.Equal(t, 1, g.Level)
	assert.True(t, g.Value(model.BudgetApproved, "a").NA)
	assert.True(t, g.Value(model.BudgetApproved, "b").Equal(model.NewValueFromFloat(10.5)))
	c, ok := g.ComputedValue(model.BudgetApproved, "a")
	require.True(t, ok)
	assert.True(t, c.Equal(model.NewValueFromFloat(3)))
	assert.Empty(t, got.Expense[0].Original)
}

func TestReadForm_SortsByOrdinal(t *testing.T) {
	in := Header + "\n" +
		"expense,5,200,,B,,approved,,a,1\n" +
		"expense,2,200,,A,,approved,,a,2\n"
	form, err := ReadForm(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "A", form.Expense[0].IndicatorName)
	assert.Equal(t, "B", form.Expense[1].IndicatorName)
}

func TestReadForm_Errors(t *testing.T) {
	tests := []struct {
		name string
		rec  string
		want string
	}{
		{"bad section", "assets,1,,,A,,approved,original,a,1", "unknown section"},
		{"bad ordinal", "income,one,,,A,,approved,original,a,1", "parsing source_ordinal"},
		{"bad value", "income,1,,,A,,approved,original,a,abc", "parsing value"},
		{"receipts in income", "income,1,,,A,,receipts,original,a,1", "not used in section"},
		{"bad kind", "income,1,,,A,,approved,guess,a,1", "unknown value kind"},
		{"empty column", "income,1,,,A,,approved,original,,1", "empty column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadForm(strings.NewReader(Header + "\n" + tt.rec + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestReadForm_OrdinalClash(t *testing.T) {
	in := Header + "\n" +
		"income,1,010,,A,,approved,,a,1\n" +
		"income,1,010,,B,,approved,,a,2\n"
	_, err := ReadForm(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used")
}

func TestReadForm_Empty(t *testing.T) {
	form, err := ReadForm(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, form.Len())
}
