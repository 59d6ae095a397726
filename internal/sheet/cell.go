package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CellType is the kind of value stored in a cell.
type CellType int

const (
	CellBlank CellType = iota
	CellText
	CellNumber
	CellBoolean
)

// String returns the lower-case name of the cell type.
func (t CellType) String() string {
	switch t {
	case CellBlank:
		return "blank"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// DefaultDateFormat is the display format written for date cells.
const DefaultDateFormat CellFormat = "yyyy-mm-dd"

// CellFormat is a spreadsheet number format code such as "yyyy-mm-dd".
type CellFormat string

// IsDate reports whether the format renders a number as a calendar date.
// Quoted literals and bracketed sections are ignored; any remaining y or d
// token counts as a date part.
func (f CellFormat) IsDate() bool {
	code := strings.ToLower(string(f))
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	return strings.ContainsAny(stripped, "yd")
}

// Cell is one spreadsheet cell.
//
// Only the field matching Type carries the value. For number and boolean cells
// inferred from plain text (CSV), Text keeps the source text so that a text
// column reads back exactly what the user typed.
type Cell struct {
	Type   CellType
	Text   string
	Number float64
	Bool   bool
	Format CellFormat // display hint for numbers, empty if none
}

// Blank is the empty cell.
var Blank = Cell{}

// TextCell returns a text cell.
func TextCell(s string) Cell {
	return Cell{Type: CellText, Text: s}
}

// NumberCell returns a numeric cell without a display format.
func NumberCell(n float64) Cell {
	return Cell{Type: CellNumber, Number: n}
}

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell {
	return Cell{Type: CellBoolean, Bool: b}
}

// DateCell returns a numeric cell holding the serial day of t's calendar date,
// tagged with the given date format.
func DateCell(t time.Time, format CellFormat) Cell {
	return Cell{Type: CellNumber, Number: DateSerial(t), Format: format}
}

// IsBlank reports whether the cell holds no value.
// An empty text cell is treated as blank.
func (c Cell) IsBlank() bool {
	return c.Type == CellBlank || (c.Type == CellText && c.Text == "")
}

// IsDate reports whether the cell is a number carrying a date format.
func (c Cell) IsDate() bool {
	return c.Type == CellNumber && c.Format.IsDate()
}

// Time converts a date cell into midnight UTC of its calendar date.
func (c Cell) Time() (time.Time, error) {
	if !c.IsDate() {
		return time.Time{}, fmt.Errorf("cell is %s, not a date", c.Kind())
	}
	return SerialTime(c.Number)
}

// String renders the cell the way a user would read it in a CSV export.
func (c Cell) String() string {
	if c.Text != "" {
		return c.Text
	}
	switch c.Type {
	case CellNumber:
		if c.IsDate() {
			if t, err := SerialTime(c.Number); err == nil {
				return t.Format(time.DateOnly)
			}
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBoolean:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Kind names the cell's value kind for messages: "date" for date cells,
// otherwise the cell type.
func (c Cell) Kind() string {
	if c.IsDate() {
		return "date"
	}
	return c.Type.String()
}

// serialEpoch is day zero of the 1900 date system as used by spreadsheet
// applications (which count the fictitious 1900-02-29).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// MinDate and MaxDate bound the calendar dates a date cell can hold.
// Spreadsheet applications display nothing outside this range.
var (
	MinDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ErrDateRange is returned by CheckDate for dates outside MinDate..MaxDate.
var ErrDateRange = errors.New("date outside 1900-01-01 to 9999-12-31")

// CheckDate reports whether t's calendar date can be stored in a date cell.
func CheckDate(t time.Time) error {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if day.Before(MinDate) || day.After(MaxDate) {
		return fmt.Errorf("%w: %s", ErrDateRange, day.Format(time.DateOnly))
	}
	return nil
}

// DateSerial returns the spreadsheet serial day number of t's calendar date.
func DateSerial(t time.Time) float64 {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return float64((day.Unix() - serialEpoch.Unix()) / 86400)
}

// SerialTime converts a spreadsheet serial day number into midnight UTC of
// that calendar date. Any time-of-day fraction is dropped.
func SerialTime(serial float64) (time.Time, error) {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date serial %v: %w", serial, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
