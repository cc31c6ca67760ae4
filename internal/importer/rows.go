package importer

import (
	"fmt"
	"io"

	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/rowio"
)

// RowsParser reads the long-format row CSV.
type RowsParser struct{}

// Format returns the parser name.
func (p *RowsParser) Format() string { return "rows" }

// Parse reads a row CSV into a form. Levels in the file are kept as
// given; callers re-resolve them.
func (p *RowsParser) Parse(r io.Reader) (*model.Form, error) {
	form, err := rowio.ReadForm(r)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return form, nil
}
