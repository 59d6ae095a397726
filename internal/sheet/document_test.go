package sheet

import (
	"strings"
	"testing"
)

func TestRow_SetCellGrows(t *testing.T) {
	doc := NewDocument("Items")
	row := doc.NewRow()

	row.SetCell(3, TextCell("d"))

	if row.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", row.Len())
	}
	for i := 0; i < 3; i++ {
		if !row.Cell(i).IsBlank() {
			t.Errorf("Cell(%d) = %+v, want blank", i, row.Cell(i))
		}
	}
	if got := row.Cell(3).Text; got != "d" {
		t.Errorf("Cell(3).Text = %q, want %q", got, "d")
	}
	if !row.Cell(10).IsBlank() {
		t.Error("Cell past end should be blank")
	}
	if !row.Cell(-1).IsBlank() {
		t.Error("negative column should be blank")
	}
}

func TestDocument_HeaderAndDataRows(t *testing.T) {
	doc := NewDocument("Items")
	if doc.Header() != nil {
		t.Error("Header() of empty document should be nil")
	}
	if rows := doc.DataRows(); len(rows) != 0 {
		t.Errorf("DataRows() of empty document = %d rows, want 0", len(rows))
	}

	header := doc.NewRow()
	first := doc.NewRow()
	second := doc.NewRow()

	if doc.Header() != header {
		t.Error("Header() should return row 0")
	}
	data := doc.DataRows()
	if len(data) != 2 || data[0] != first || data[1] != second {
		t.Fatalf("DataRows() = %v, want rows 1 and 2", data)
	}
	if first.Index != 1 || second.Index != 2 {
		t.Errorf("row indices = %d, %d, want 1, 2", first.Index, second.Index)
	}
}

func TestNewDocument_TruncatesName(t *testing.T) {
	doc := NewDocument(strings.Repeat("x", 40))
	if got := len([]rune(doc.Name)); got != MaxSheetNameLength {
		t.Errorf("name length = %d, want %d", got, MaxSheetNameLength)
	}
}

func TestRow_IsBlank(t *testing.T) {
	row := &Row{}
	row.SetCell(2, TextCell(""))
	if !row.IsBlank() {
		t.Error("row with only empty text should be blank")
	}
	row.SetCell(0, BoolCell(false))
	if row.IsBlank() {
		t.Error("row with a boolean should not be blank")
	}
}

func TestDetect(t *testing.T) {
	if _, ok := Detect([]byte("PK\x03\x04rest")).(XLSX); !ok {
		t.Error("zip signature should detect XLSX")
	}
	if _, ok := Detect([]byte("name,cost\n")).(CSV); !ok {
		t.Error("plain text should detect CSV")
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"XLSX", FormatXLSX, false},
		{"", FormatXLSX, false},
		{"csv", FormatCSV, false},
		{" csv ", FormatCSV, false},
		{"ods", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			codec, err := ForFormat(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ForFormat(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ForFormat(%q) error = %v", tt.in, err)
			}
			if codec.Format() != tt.want {
				t.Errorf("ForFormat(%q).Format() = %q, want %q", tt.in, codec.Format(), tt.want)
			}
		})
	}
}
