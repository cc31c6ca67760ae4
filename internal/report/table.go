// Package report presents discrepancies and row hierarchies: terminal
// tables and trees for the CLI, and an XLSX workbook for sharing.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/Annarex/test-app-sub000/internal/diff"
	"github.com/Annarex/test-app-sub000/internal/hierarchy"
	"github.com/Annarex/test-app-sub000/internal/model"
)

var (
	colorHeader = lipgloss.Color("#89b4fa")
	colorText   = lipgloss.Color("#cdd6f4")
	colorMuted  = lipgloss.Color("#7f849c")
	colorError  = lipgloss.Color("#f38ba8")
	colorOK     = lipgloss.Color("#a6e3a1")

	headerStyle = lipgloss.NewStyle().Foreground(colorHeader).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
	deltaStyle  = numStyle.Foreground(colorError)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
)

// DiscrepancyHeaders are the column titles of the discrepancy table and
// the first sheet of the workbook.
var DiscrepancyHeaders = []string{
	"Раздел", "Код строки", "Наименование", "Уровень", "Бюджет", "Столбец",
	"Исходное", "Расчетное", "Отклонение",
}

// maxNameWidth truncates long indicator and column names in the terminal.
const maxNameWidth = 48

// Table renders discrepancies as a bordered terminal table. An empty list
// renders a one-line confirmation instead.
func Table(ds []diff.Discrepancy) string {
	if len(ds) == 0 {
		return okStyle.Render("Расхождений не найдено")
	}
	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, []string{
			d.Section.Title(),
			d.RowCode,
			truncate(d.RowName, maxNameWidth),
			strconv.Itoa(d.Level),
			d.BudgetType.Title(),
			truncate(d.Column, maxNameWidth),
			d.Original.String(),
			d.Computed.String(),
			d.Delta.String(),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(DiscrepancyHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 8:
				return deltaStyle
			case col >= 6:
				return numStyle
			}
			return cellStyle
		})
	return t.String() + "\n" + mutedStyle.Render(fmt.Sprintf("Всего расхождений: %d", len(ds)))
}

// Tree renders the hierarchy of rows with the values of one budget type and
// column. Rows carrying a discrepancy in that cell are highlighted.
func Tree(rows []model.Row, bt model.BudgetType, column string, ds []diff.Discrepancy) string {
	if len(rows) == 0 {
		return mutedStyle.Render("(нет строк)")
	}
	marked := make(map[int]bool)
	for _, d := range ds {
		if d.BudgetType == bt && d.Column == column {
			marked[d.Ordinal] = true
		}
	}

	t := tree.New().
		Root(headerStyle.Render(rows[0].Section.Title() + " / " + bt.Title() + " / " + truncate(column, maxNameWidth))).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(mutedStyle)

	var attach func(parent *tree.Tree, n *hierarchy.Node)
	attach = func(parent *tree.Tree, n *hierarchy.Node) {
		r := &rows[n.Index]
		label := nodeLabel(r, bt, column, marked[r.SourceOrdinal])
		if len(n.Children) == 0 {
			parent.Child(label)
			return
		}
		sub := tree.Root(label)
		for _, c := range n.Children {
			attach(sub, c)
		}
		parent.Child(sub)
	}
	for _, n := range hierarchy.Build(model.Levels(rows)).Forest() {
		attach(t, n)
	}
	return t.String()
}

func nodeLabel(r *model.Row, bt model.BudgetType, column string, bad bool) string {
	var b strings.Builder
	if r.LineCode != "" {
		b.WriteString(mutedStyle.Render("[" + r.LineCode + "] "))
	}
	b.WriteString(truncate(r.IndicatorName, maxNameWidth))
	b.WriteString(" ")
	orig := r.Value(bt, column)
	if comp, ok := r.ComputedValue(bt, column); ok && !comp.Equal(orig) {
		text := fmt.Sprintf("%s → %s", orig, comp)
		if bad {
			b.WriteString(errorStyle.Render(text))
		} else {
			b.WriteString(mutedStyle.Render(text))
		}
		return b.String()
	}
	b.WriteString(orig.String())
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
