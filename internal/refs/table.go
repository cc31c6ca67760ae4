package refs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/Annarex/test-app-sub000/internal/code"
	"github.com/Annarex/test-app-sub000/internal/model"
)

// Record is one entry of a classification reference: a code and the
// hierarchy level the reference assigns to it.
type Record struct {
	Kind     model.Section
	Code     string
	Name     string
	Level    int
	Document string
}

// Table provides in-memory lookup over the reference of one section.
type Table struct {
	kind    model.Section
	records []Record
	byCode  map[string]Record
}

// NewTable creates a Table from records. Codes are normalized; a later
// duplicate replaces an earlier one.
func NewTable(kind model.Section, records []Record) *Table {
	t := &Table{kind: kind, byCode: make(map[string]Record, len(records))}
	pos := make(map[string]int, len(records))
	for _, r := range records {
		r.Kind = kind
		r.Code = code.Normalize(r.Code)
		if i, dup := pos[r.Code]; dup {
			t.records[i] = r
		} else {
			pos[r.Code] = len(t.records)
			t.records = append(t.records, r)
		}
		t.byCode[r.Code] = r
	}
	return t
}

// LoadFile reads a reference CSV file into a Table.
func LoadFile(path string, kind model.Section) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference: %w", err)
	}
	defer f.Close()

	recs, err := ReadRecords(f, kind)
	if err != nil {
		return nil, fmt.Errorf("reading reference %s: %w", filepath.Base(path), err)
	}
	return NewTable(kind, recs), nil
}

// SaveFile writes the table to path as CSV.
func (t *Table) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating reference dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating reference file: %w", err)
	}
	defer f.Close()

	if err := WriteRecords(f, t.records); err != nil {
		return fmt.Errorf("writing reference: %w", err)
	}
	return nil
}

// Kind returns the section the table classifies.
func (t *Table) Kind() model.Section {
	return t.kind
}

// All returns every record in load order.
func (t *Table) All() []Record {
	return t.records
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Get returns the record for a code.
func (t *Table) Get(c string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	r, ok := t.byCode[code.Normalize(c)]
	return r, ok
}

// Level returns the level assigned to a code.
func (t *Table) Level(c string) (int, bool) {
	r, ok := t.Get(c)
	return r.Level, ok
}

// Nearest returns the known code with the smallest edit distance to c.
// Ties go to the lexically smallest code.
func (t *Table) Nearest(c string) (Record, bool) {
	if t.Len() == 0 {
		return Record{}, false
	}
	c = code.Normalize(c)
	best := -1
	var match Record
	for _, r := range t.records {
		d := levenshtein.ComputeDistance(c, r.Code)
		if best < 0 || d < best || (d == best && r.Code < match.Code) {
			best = d
			match = r
		}
	}
	return match, true
}

// Set holds the reference tables a resolver consults, keyed by section.
type Set map[model.Section]*Table

// For returns the table of a section, or nil.
func (s Set) For(section model.Section) *Table {
	return s[section]
}

// Kinds lists the sections that have a reference table, in form order.
func (s Set) Kinds() []model.Section {
	var out []model.Section
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

// Referenced reports whether a section resolves levels from a reference.
func Referenced(section model.Section) bool {
	return section == model.SectionIncome || section == model.SectionFinancing
}
