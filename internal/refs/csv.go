package refs

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Annarex/test-app-sub000/internal/code"
	"github.com/Annarex/test-app-sub000/internal/model"
)

const (
	numFields = 4
	colCode   = 0
	colName   = 1
	colLevel  = 2
	colDoc    = 3
)

// Header is the column row of a reference CSV file.
var Header = []string{"code", "name", "level", "document"}

// ReadRecords reads a reference CSV file for one section.
func ReadRecords(r io.Reader, kind model.Section) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reference CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var out []Record
	for i, rec := range records[1:] {
		ref, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		ref.Kind = kind
		out = append(out, ref)
	}
	return out, nil
}

// WriteRecords writes a reference CSV file.
func WriteRecords(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range records {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(rec Record) []string {
	row := make([]string, numFields)
	row[colCode] = rec.Code
	row[colName] = rec.Name
	row[colLevel] = strconv.Itoa(rec.Level)
	row[colDoc] = rec.Document
	return row
}

// UnmarshalRecord converts a CSV row to a Record. The code is normalized.
func UnmarshalRecord(row []string) (Record, error) {
	if len(row) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}

	c := code.Normalize(row[colCode])
	if c == "" {
		return Record{}, fmt.Errorf("empty code")
	}

	level, err := strconv.Atoi(strings.TrimSpace(row[colLevel]))
	if err != nil {
		return Record{}, fmt.Errorf("parsing level %q: %w", row[colLevel], err)
	}
	if level < 0 {
		return Record{}, fmt.Errorf("negative level %d", level)
	}

	return Record{
		Code:     c,
		Name:     strings.TrimSpace(row[colName]),
		Level:    level,
		Document: row[colDoc],
	}, nil
}
