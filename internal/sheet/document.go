package sheet

// MaxSheetNameLength is the longest sheet name spreadsheet applications accept.
const MaxSheetNameLength = 31

// Row is one row of cells, indexed by zero-based column.
type Row struct {
	Index int // zero-based position in the document; 0 is the header
	cells []Cell
}

// Cell returns the cell at column i, or Blank if the row is shorter.
func (r *Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.cells) {
		return Blank
	}
	return r.cells[i]
}

// SetCell stores c at column i, growing the row with blanks as needed.
func (r *Row) SetCell(i int, c Cell) {
	if i < 0 {
		return
	}
	for len(r.cells) <= i {
		r.cells = append(r.cells, Blank)
	}
	r.cells[i] = c
}

// Len returns the number of columns up to and including the last set cell.
func (r *Row) Len() int {
	return len(r.cells)
}

// Cells returns the row's cells. The slice must not be modified.
func (r *Row) Cells() []Cell {
	return r.cells
}

// IsBlank reports whether every cell in the row is blank.
func (r *Row) IsBlank() bool {
	for _, c := range r.cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Document is a single-sheet tabular document.
type Document struct {
	Name       string // sheet name
	FrozenRows int    // number of leading rows kept visible on scroll
	rows       []*Row
}

// NewDocument creates an empty document with the given sheet name.
// Names longer than MaxSheetNameLength are truncated.
func NewDocument(name string) *Document {
	if r := []rune(name); len(r) > MaxSheetNameLength {
		name = string(r[:MaxSheetNameLength])
	}
	return &Document{Name: name}
}

// NewRow appends an empty row and returns it.
func (d *Document) NewRow() *Row {
	row := &Row{Index: len(d.rows)}
	d.rows = append(d.rows, row)
	return row
}

// Header returns row 0, or nil if the document has no rows.
func (d *Document) Header() *Row {
	if len(d.rows) == 0 {
		return nil
	}
	return d.rows[0]
}

// DataRows returns every row after the header.
func (d *Document) DataRows() []*Row {
	if len(d.rows) <= 1 {
		return nil
	}
	return d.rows[1:]
}

// Rows returns all rows including the header.
func (d *Document) Rows() []*Row {
	return d.rows
}

// Len returns the number of rows including the header.
func (d *Document) Len() int {
	return len(d.rows)
}

// FreezeHeader keeps the header row visible when the sheet is scrolled.
func (d *Document) FreezeHeader() {
	d.FrozenRows = 1
}
