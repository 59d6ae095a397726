package sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// defaultSheetName is the sheet every new excelize workbook starts with.
const defaultSheetName = "Sheet1"

// builtinDateFormats lists the predefined number format ids that render dates.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// isoDateLayouts are tried, in order, for cells stored with the "d" type.
var isoDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// XLSX reads and writes Office Open XML workbooks. Only the first sheet is read.
type XLSX struct{}

func (XLSX) Format() Format     { return FormatXLSX }
func (XLSX) Extension() string { return ".xlsx" }
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Encode writes doc as a single-sheet workbook.
// One number style is created per distinct cell format and shared by every
// cell using it.
func (XLSX) Encode(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sanitizeSheetName(doc.Name)
	if name != defaultSheetName {
		if err := f.SetSheetName(defaultSheetName, name); err != nil {
			return fmt.Errorf("name sheet %q: %w", name, err)
		}
	}

	styles := make(map[CellFormat]int)
	for _, row := range doc.Rows() {
		for col, cell := range row.Cells() {
			if cell.Type == CellBlank {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col+1, row.Index+1)
			if err != nil {
				return err
			}
			if err := writeCell(f, name, axis, cell, styles); err != nil {
				return fmt.Errorf("write cell %s: %w", axis, err)
			}
		}
	}

	if doc.FrozenRows > 0 {
		topLeft, err := excelize.CoordinatesToCellName(1, doc.FrozenRows+1)
		if err != nil {
			return err
		}
		if err := f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      doc.FrozenRows,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze panes: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeCell(f *excelize.File, sheet, axis string, cell Cell, styles map[CellFormat]int) error {
	switch cell.Type {
	case CellText:
		return f.SetCellStr(sheet, axis, cell.Text)
	case CellBoolean:
		return f.SetCellBool(sheet, axis, cell.Bool)
	case CellNumber:
		if err := f.SetCellFloat(sheet, axis, cell.Number, -1, 64); err != nil {
			return err
		}
		if cell.Format == "" {
			return nil
		}
		id, ok := styles[cell.Format]
		if !ok {
			code := string(cell.Format)
			var err error
			id, err = f.NewStyle(&excelize.Style{CustomNumFmt: &code})
			if err != nil {
				return fmt.Errorf("create style %q: %w", code, err)
			}
			styles[cell.Format] = id
		}
		return f.SetCellStyle(sheet, axis, axis, id)
	default:
		return nil
	}
}

// Decode reads the first sheet of a workbook.
func (XLSX) Decode(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, malformed(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, malformed(errors.New("workbook has no sheets"))
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, malformed(err)
	}

	doc := NewDocument(name)
	if panes, err := f.GetPanes(name); err == nil && panes.Freeze {
		doc.FrozenRows = panes.YSplit
	}
	cr := &cellReader{f: f, sheet: name, dateStyles: make(map[int]CellFormat)}
	for r, values := range rows {
		row := doc.NewRow()
		for c, raw := range values {
			if raw == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, malformed(err)
			}
			cell, err := cr.read(axis, raw)
			if err != nil {
				return nil, malformed(fmt.Errorf("cell %s: %w", axis, err))
			}
			row.SetCell(c, cell)
		}
	}
	return doc, nil
}

// cellReader classifies raw workbook values into cells.
type cellReader struct {
	f     *excelize.File
	sheet string

	// dateStyles caches style id -> date format ("" when not a date style)
	dateStyles map[int]CellFormat
}

func (cr *cellReader) read(axis, raw string) (Cell, error) {
	typ, err := cr.f.GetCellType(cr.sheet, axis)
	if err != nil {
		return Blank, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeDate:
		for _, layout := range isoDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return DateCell(t, DefaultDateFormat), nil
			}
		}
		return TextCell(raw), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return TextCell(raw), nil
		}
		cell := NumberCell(n)
		cell.Format = cr.dateFormat(axis)
		return cell, nil
	default:
		return TextCell(raw), nil
	}
}

// dateFormat returns the cell's date format, or "" if its style is not a date.
func (cr *cellReader) dateFormat(axis string) CellFormat {
	id, err := cr.f.GetCellStyle(cr.sheet, axis)
	if err != nil || id == 0 {
		return ""
	}
	if format, ok := cr.dateStyles[id]; ok {
		return format
	}

	var format CellFormat
	if style, err := cr.f.GetStyle(id); err == nil && style != nil {
		switch {
		case style.CustomNumFmt != nil:
			if custom := CellFormat(*style.CustomNumFmt); custom.IsDate() {
				format = custom
			}
		case builtinDateFormats[style.NumFmt]:
			format = DefaultDateFormat
		}
	}
	cr.dateStyles[id] = format
	return format
}

// sanitizeSheetName replaces characters spreadsheet applications reject in
// sheet names and falls back to the default name when empty.
func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return defaultSheetName
	}
	if r := []rune(name); len(r) > MaxSheetNameLength {
		name = string(r[:MaxSheetNameLength])
	}
	return name
}
