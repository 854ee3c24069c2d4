package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/vimhelp/internal/doctree"
)

// csvBatchSize is the number of data rows per section.
const csvBatchSize = 20

// CSVParser handles CSV files. The header row names the fields; data rows
// are grouped into sections of csvBatchSize rows, one list item per row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := newDocument(filename)
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	doc.Append(doctree.NewElement(doctree.KindParagraph,
		doctree.NewText("Columns: "+strings.Join(headers, ", "))))

	dataRows := records[1:]
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		list := doctree.NewElement(doctree.KindBulletList)
		for j, row := range dataRows[i:end] {
			item := doctree.NewElement(doctree.KindListItem, doctree.NewElement(doctree.KindParagraph, csvRow(headers, row)...))
			item.Line = i + j + 2
			list.Append(item)
		}

		// 1-indexed, header is line 1.
		title := fmt.Sprintf("Rows %d-%d", i+2, end+1)
		doc.Append(doctree.NewElement(doctree.KindSection,
			doctree.NewElement(doctree.KindTitle, doctree.NewText(title)),
			list,
		))
	}
	return doc, nil
}

// csvRow renders "header: value" pairs with the header names emphasized.
func csvRow(headers, row []string) []*doctree.Node {
	var out []*doctree.Node
	for j, cell := range row {
		if j > 0 {
			out = append(out, doctree.NewText(", "))
		}
		if j < len(headers) && headers[j] != "" {
			out = append(out, doctree.NewElement(doctree.KindStrong, doctree.NewText(headers[j])), doctree.NewText(": "))
		}
		out = append(out, doctree.NewText(cell))
	}
	return out
}
