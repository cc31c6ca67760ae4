// Package rowio reads and writes forms as long-format CSV: one record per
// cell value, so any number of columns fits a fixed header.
package rowio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Annarex/test-app-sub000/internal/model"
)

// Header is the CSV header of a row file.
const Header = "section,source_ordinal,line_code,classification_code,indicator_name,level,budget_type,value_kind,column,value"

// MetaSection marks a record that carries a form header field in
// indicator_name (key) and value.
const MetaSection = "meta"

const (
	numFields     = 10
	colSection    = 0
	colOrdinal    = 1
	colLineCode   = 2
	colClassCode  = 3
	colName       = 4
	colLevel      = 5
	colBudgetType = 6
	colValueKind  = 7
	colColumn     = 8
	colValue      = 9
)

type rowKey struct {
	section model.Section
	ordinal int
}

// ReadForm reads a row file. Records of one row share section and
// source_ordinal; a record with an empty budget_type declares a row with no
// values. Rows come back in source order.
func ReadForm(r io.Reader) (*model.Form, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rows CSV: %w", err)
	}

	form := &model.Form{}
	if len(records) == 0 {
		return form, nil
	}

	rows := make(map[rowKey]*model.Row)
	var order []rowKey
	for i, rec := range records[1:] {
		if strings.TrimSpace(rec[colSection]) == MetaSection {
			if form.Meta == nil {
				form.Meta = make(map[string]string)
			}
			form.Meta[rec[colName]] = rec[colValue]
			continue
		}

		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		key := rowKey{section: row.Section, ordinal: row.SourceOrdinal}
		existing, ok := rows[key]
		if !ok {
			rows[key] = &row
			order = append(order, key)
			continue
		}
		if existing.IndicatorName != row.IndicatorName || existing.LineCode != row.LineCode {
			return nil, fmt.Errorf("row %d: %s ordinal %d already used by %q", i+2, row.Section, row.SourceOrdinal, existing.IndicatorName)
		}
		mergeValues(existing, &row)
	}

	for _, k := range order {
		form.Append(*rows[k])
	}
	form.Sort()
	return form, nil
}

func mergeValues(dst, src *model.Row) {
	for bt, vec := range src.Original {
		for col, v := range vec {
			dst.SetValue(bt, col, v)
		}
	}
	for bt, vec := range src.Computed {
		for col, v := range vec {
			dst.SetComputed(bt, col, v)
		}
	}
}

// UnmarshalRow converts one record to a Row holding at most one value.
func UnmarshalRow(record []string) (model.Row, error) {
	if len(record) != numFields {
		return model.Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	section, err := model.ParseSection(record[colSection])
	if err != nil {
		return model.Row{}, err
	}

	ordinal, err := strconv.Atoi(strings.TrimSpace(record[colOrdinal]))
	if err != nil {
		return model.Row{}, fmt.Errorf("parsing source_ordinal %q: %w", record[colOrdinal], err)
	}

	var level int
	if s := strings.TrimSpace(record[colLevel]); s != "" {
		level, err = strconv.Atoi(s)
		if err != nil {
			return model.Row{}, fmt.Errorf("parsing level %q: %w", record[colLevel], err)
		}
	}

	row := model.Row{
		Section:            section,
		ClassificationCode: strings.TrimSpace(record[colClassCode]),
		IndicatorName:      strings.TrimSpace(record[colName]),
		LineCode:           strings.TrimSpace(record[colLineCode]),
		Level:              level,
		SourceOrdinal:      ordinal,
	}

	if strings.TrimSpace(record[colBudgetType]) == "" {
		return row, nil
	}

	bt, err := model.ParseBudgetType(record[colBudgetType])
	if err != nil {
		return model.Row{}, err
	}
	if !allowed(section, bt) {
		return model.Row{}, fmt.Errorf("budget type %s not used in section %s", bt, section)
	}
	if record[colColumn] == "" {
		return model.Row{}, fmt.Errorf("empty column")
	}
	v, err := model.ParseValue(record[colValue])
	if err != nil {
		return model.Row{}, err
	}

	switch kind := model.ValueKind(strings.TrimSpace(record[colValueKind])); kind {
	case "", model.KindOriginal:
		row.SetValue(bt, record[colColumn], v)
	case model.KindComputed:
		row.SetComputed(bt, record[colColumn], v)
	default:
		return model.Row{}, fmt.Errorf("unknown value kind %q", kind)
	}
	return row, nil
}

func allowed(s model.Section, bt model.BudgetType) bool {
	for _, b := range model.BudgetTypesFor(s) {
		if b == bt {
			return true
		}
	}
	return false
}

// WriteForm writes a form as a row file. Values follow the order of
// columns; columns a row holds that are not listed come after, sorted.
func WriteForm(w io.Writer, form *model.Form, columns model.Columns) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	metaKeys := make([]string, 0, len(form.Meta))
	for k := range form.Meta {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)
	for _, k := range metaKeys {
		rec := make([]string, numFields)
		rec[colSection] = MetaSection
		rec[colOrdinal] = "0"
		rec[colName] = k
		rec[colValue] = form.Meta[k]
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing metadata %s: %w", k, err)
		}
	}

	for _, sec := range model.Sections {
		for _, row := range form.Rows(sec) {
			for _, rec := range MarshalRow(row, columns.For(sec)) {
				if err := cw.Write(rec); err != nil {
					return fmt.Errorf("writing %s row %d: %w", sec, row.SourceOrdinal, err)
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to its records: originals first, then computed
// values, budget types in form order.
func MarshalRow(row model.Row, columns []string) [][]string {
	base := make([]string, numFields)
	base[colSection] = string(row.Section)
	base[colOrdinal] = strconv.Itoa(row.SourceOrdinal)
	base[colLineCode] = row.LineCode
	base[colClassCode] = row.ClassificationCode
	base[colName] = row.IndicatorName
	base[colLevel] = strconv.Itoa(row.Level)

	var out [][]string
	for _, kind := range []model.ValueKind{model.KindOriginal, model.KindComputed} {
		vectors := row.Original
		if kind == model.KindComputed {
			vectors = row.Computed
		}
		for _, bt := range model.BudgetTypesFor(row.Section) {
			vec := vectors[bt]
			for _, col := range orderedColumns(vec, columns) {
				rec := append([]string(nil), base...)
				rec[colBudgetType] = string(bt)
				rec[colValueKind] = string(kind)
				rec[colColumn] = col
				rec[colValue] = vec[col].String()
				out = append(out, rec)
			}
		}
	}
	if len(out) == 0 {
		out = append(out, base)
	}
	return out
}

func orderedColumns(vec model.Vector, columns []string) []string {
	if len(vec) == 0 {
		return nil
	}
	listed := make(map[string]bool, len(columns))
	var out []string
	for _, c := range columns {
		listed[c] = true
		if _, ok := vec[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range vec {
		if !listed[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
