// Package csvparser implements parsers.Parser for CSV input, producing a
// single-table Document.
package csvparser

import (
	"encoding/csv"
	"io"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
)

// Parser reads CSV into a Document containing exactly one TableData, or
// no table at all when the input holds no records.
type Parser struct {
	// Comma overrides the field delimiter; the zero value uses the
	// encoding/csv default (',').
	Comma rune
}

// New returns a CSV Parser with the default comma delimiter.
func New() *Parser { return &Parser{} }

func (p *Parser) Parse(r io.Reader, name string) (*docmodel.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; padded below
	if p.Comma != 0 {
		cr.Comma = p.Comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, docerr.Wrap(err, docerr.KindParse, "read csv records")
	}
	if len(records) == 0 {
		return docmodel.New(name), nil
	}

	numCols := 0
	for _, rec := range records {
		if len(rec) > numCols {
			numCols = len(rec)
		}
	}

	table := docmodel.NewTableData(len(records), numCols)
	for r, rec := range records {
		for c := 0; c < numCols; c++ {
			text := ""
			if c < len(rec) {
				text = rec[c]
			}
			table.SetCell(docmodel.TableCell{
				Text:           text,
				RowIdx:         r,
				ColIdx:         c,
				RowSpan:        1,
				ColSpan:        1,
				IsColumnHeader: r == 0,
				Confidence:     1.0,
			})
		}
	}

	doc := docmodel.New(name)
	doc.AddTable(table, doc.Body)
	return doc, nil
}
