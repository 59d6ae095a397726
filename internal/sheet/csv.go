package sheet

// csv.go reads and writes documents as comma-separated text.
//
// CSV carries no cell types, so Decode infers them from the text the way a
// spreadsheet application would when opening the file:
//   - TRUE/FALSE (any case) become booleans
//   - numbers, including currency symbols, thousands separators and
//     accounting negatives "(12.50)", become numbers
//   - dates in common unambiguous layouts become date cells
//   - a value written as ="..." is forced to text
//
// Inferred cells keep their source text in Cell.Text.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericPattern validates a number after currency symbols and separators
// are removed.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// csvDateLayouts are the layouts recognized as dates, four-digit years only.
var csvDateLayouts = []string{
	time.DateOnly, "2006/01/02", "2006.01.02",
	"1/2/2006", "01/02/2006",
	"Jan 2, 2006", "2 Jan 2006",
}

// CSV reads and writes comma-separated documents.
type CSV struct{}

func (CSV) Format() Format       { return FormatCSV }
func (CSV) Extension() string   { return ".csv" }
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

// Encode writes one CSV record per row. Dates are written as yyyy-mm-dd and
// booleans as TRUE/FALSE. Text that Decode would not read back verbatim is
// written in the ="..." form. The frozen row count is not representable and
// is dropped.
func (CSV) Encode(w io.Writer, doc *Document) error {
	cw := csv.NewWriter(w)
	for _, row := range doc.Rows() {
		record := make([]string, row.Len())
		for i, cell := range row.Cells() {
			record[i] = csvField(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvField renders a cell for Encode.
func csvField(cell Cell) string {
	s := cell.String()
	if cell.Type != CellText || s == "" {
		return s
	}
	if back := InferCell(s); back.Type != CellText || back.String() != s {
		return `="` + s + `"`
	}
	return s
}

// Decode parses CSV text into a document named "Sheet1".
// Records may have differing field counts.
func (CSV) Decode(r io.Reader) (*Document, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	doc := NewDocument(defaultSheetName)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, malformed(err)
			}
			return nil, err
		}

		row := doc.NewRow()
		for i, field := range record {
			if cell := InferCell(field); !cell.IsBlank() {
				row.SetCell(i, cell)
			}
		}
	}
	return doc, nil
}

// InferCell classifies a plain-text value into a typed cell.
func InferCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Blank
	}

	// ="..." is how spreadsheets are told to keep a value as text
	if strings.HasPrefix(trimmed, `="`) && strings.HasSuffix(trimmed, `"`) && len(trimmed) >= 3 {
		return TextCell(trimmed[2 : len(trimmed)-1])
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return Cell{Type: CellBoolean, Bool: true, Text: s}
	case "false":
		return Cell{Type: CellBoolean, Bool: false, Text: s}
	}

	if n, ok := parseNumber(trimmed); ok {
		return Cell{Type: CellNumber, Number: n, Text: s}
	}

	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			cell := DateCell(t, DefaultDateFormat)
			cell.Text = s
			return cell
		}
	}

	return TextCell(s)
}

// parseNumber accepts plain numbers plus currency symbols, thousands
// separators and accounting-style negatives.
func parseNumber(s string) (float64, bool) {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
