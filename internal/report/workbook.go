package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Annarex/test-app-sub000/internal/code"
	"github.com/Annarex/test-app-sub000/internal/diff"
	"github.com/Annarex/test-app-sub000/internal/model"
)

// DiscrepancySheet is the name of the workbook's first sheet.
const DiscrepancySheet = "Расхождения"

// rowHeaders lead every section sheet; value columns follow.
var rowHeaders = []string{"Код строки", "Код классификации", "Наименование", "Уровень"}

type cellKey struct {
	section model.Section
	ordinal int
	bt      model.BudgetType
	column  string
}

// Workbook builds an XLSX workbook: a sheet listing the discrepancies, then
// one sheet per non-empty section with the reported values. Cells that
// disagree with their recomputation are filled red. Budget columns whose
// total row is zero are left out unless they carry a discrepancy.
func Workbook(f *model.Form, columns model.Columns, ds []diff.Discrepancy) (*excelize.File, error) {
	x := excelize.NewFile()
	if err := x.SetSheetName("Sheet1", DiscrepancySheet); err != nil {
		x.Close()
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	styles, err := newStyles(x)
	if err != nil {
		x.Close()
		return nil, err
	}
	if err := writeDiscrepancies(x, styles, ds); err != nil {
		x.Close()
		return nil, err
	}

	bad := make(map[cellKey]bool, len(ds))
	for _, d := range ds {
		bad[cellKey{d.Section, d.Ordinal, d.BudgetType, d.Column}] = true
	}
	for _, s := range model.Sections {
		rows := f.Rows(s)
		if len(rows) == 0 {
			continue
		}
		cols := visibleColumns(f, s, columns.For(s), ds)
		if err := writeSection(x, styles, s, rows, cols, bad); err != nil {
			x.Close()
			return nil, err
		}
	}
	return x, nil
}

// WriteWorkbook builds the workbook and writes it to w.
func WriteWorkbook(w io.Writer, f *model.Form, columns model.Columns, ds []diff.Discrepancy) error {
	x, err := Workbook(f, columns, ds)
	if err != nil {
		return err
	}
	defer x.Close()
	if err := x.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveWorkbook builds the workbook and saves it to path.
func SaveWorkbook(path string, f *model.Form, columns model.Columns, ds []diff.Discrepancy) error {
	x, err := Workbook(f, columns, ds)
	if err != nil {
		return err
	}
	defer x.Close()
	if err := x.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

type styleSet struct {
	header int
	err    int
}

func newStyles(x *excelize.File) (styleSet, error) {
	header, err := x.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("creating header style: %w", err)
	}
	bad, err := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return styleSet{}, fmt.Errorf("creating error style: %w", err)
	}
	return styleSet{header: header, err: bad}, nil
}

func writeDiscrepancies(x *excelize.File, st styleSet, ds []diff.Discrepancy) error {
	sheet := DiscrepancySheet
	if err := writeHeader(x, st, sheet, DiscrepancyHeaders); err != nil {
		return err
	}
	for i, d := range ds {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			d.Section.Title(), d.RowCode, d.RowName, d.Level, d.BudgetType.Title(), d.Column,
			d.Original.InexactFloat64(), d.Computed.InexactFloat64(), d.Delta.InexactFloat64(),
		}
		if err := x.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing discrepancy %d: %w", i+1, err)
		}
	}
	if err := x.SetColWidth(sheet, "C", "C", 50); err != nil {
		return err
	}
	return x.SetColWidth(sheet, "F", "F", 40)
}

func writeSection(x *excelize.File, st styleSet, s model.Section, rows []model.Row, cols []string, bad map[cellKey]bool) error {
	sheet := s.Title()
	if _, err := x.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}
	bts := model.BudgetTypesFor(s)
	headers := append([]string(nil), rowHeaders...)
	for _, bt := range bts {
		for _, c := range cols {
			headers = append(headers, bt.Title()+": "+c)
		}
	}
	if err := writeHeader(x, st, sheet, headers); err != nil {
		return err
	}

	for i := range rows {
		r := &rows[i]
		line := i + 2
		vals := []any{r.LineCode, code.Format(r.ClassificationCode, s), r.IndicatorName, r.Level}
		for _, bt := range bts {
			for _, c := range cols {
				vals = append(vals, cellValue(r.Value(bt, c)))
			}
		}
		start, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(sheet, start, &vals); err != nil {
			return fmt.Errorf("writing %s row %d: %w", s, r.SourceOrdinal, err)
		}

		col := len(rowHeaders) + 1
		for _, bt := range bts {
			for _, c := range cols {
				if bad[cellKey{s, r.SourceOrdinal, bt, c}] {
					cell, err := excelize.CoordinatesToCellName(col, line)
					if err != nil {
						return err
					}
					if err := x.SetCellStyle(sheet, cell, cell, st.err); err != nil {
						return err
					}
				}
				col++
			}
		}
	}
	return x.SetColWidth(sheet, "C", "C", 60)
}

func writeHeader(x *excelize.File, st styleSet, sheet string, headers []string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := x.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return x.SetCellStyle(sheet, "A1", last, st.header)
}

func cellValue(v model.Value) any {
	if v.NA {
		return model.SentinelText
	}
	return v.Amount.InexactFloat64()
}

// visibleColumns drops budget columns that are zero on the section total,
// keeping any that carry a discrepancy.
func visibleColumns(f *model.Form, s model.Section, cols []string, ds []diff.Discrepancy) []string {
	hidden := make(map[string]bool)
	for _, c := range f.ZeroColumns(s, cols) {
		hidden[c] = true
	}
	for _, d := range ds {
		if d.Section == s {
			delete(hidden, d.Column)
		}
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !hidden[c] {
			out = append(out, c)
		}
	}
	return out
}

