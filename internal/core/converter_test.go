package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/xlport/internal/sheet"
)

// Item is the record type of the documented example scenario.
type Item struct {
	Name  string
	Cost  float64
	DueBy time.Time
	Owner *owner
}

type task struct {
	Name     string
	Count    int
	Done     bool
	Category shade
	Due      *time.Time
	Secret   string `sheet:",hidden"`
}

type badRecord struct {
	Name string
	Tags []string
}

var (
	ref1 = &owner{ID: "o1", Name: "Ann"}
	ref2 = &owner{ID: "o2", Name: "Bob"}
)

func newTestConverter(opts ...ConverterOption) *Converter {
	base := []ConverterOption{
		WithResolver(newFakeResolver(ref1, ref2)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewConverter(append(base, opts...)...)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func exampleItems() []Item {
	return []Item{
		{Name: "A", Cost: 12.50, DueBy: date(2024, time.January, 1), Owner: ref1},
		{Name: "B", Cost: 0, DueBy: date(2024, time.February, 2), Owner: ref2},
	}
}

func pointers[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		v := in[i]
		out[i] = &v
	}
	return out
}

func importCSV[T any](t *testing.T, c *Converter, lines ...string) ([]*T, error) {
	t.Helper()
	return Import[T](context.Background(), c, strings.NewReader(strings.Join(lines, "\n")+"\n"))
}

func TestExport_ItemHeader(t *testing.T) {
	c := newTestConverter()

	var buf bytes.Buffer
	if err := Export(context.Background(), c, exampleItems(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	doc, err := (sheet.XLSX{}).Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	var header []string
	for _, cell := range doc.Header().Cells() {
		header = append(header, cell.String())
	}
	want := []string{"name", "cost", "dueBy", "owner"}
	if diff := cmp.Diff(want, header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if doc.FrozenRows != 1 {
		t.Errorf("FrozenRows = %d, want 1", doc.FrozenRows)
	}
	if doc.Name != "Item" {
		t.Errorf("sheet name = %q, want %q", doc.Name, "Item")
	}
	if got := doc.DataRows()[0].Cell(3).Text; got != "owner:o1" {
		t.Errorf("owner cell = %q, want %q", got, "owner:o1")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []sheet.Format{sheet.FormatXLSX, sheet.FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			c := newTestConverter()
			ctx := context.Background()

			var buf bytes.Buffer
			if err := Export(ctx, c, exampleItems(), &buf, UseFormat(format)); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			got, err := Import[Item](ctx, c, &buf)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if diff := cmp.Diff(pointers(exampleItems()), got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_CSVTextVerbatim(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()

	want := []Item{
		{Name: `="0042"`, DueBy: date(2024, time.March, 3)},
		{Name: "   ", DueBy: date(2024, time.March, 4)},
		{Name: "0042", DueBy: date(2024, time.March, 5)},
		{Name: "false", DueBy: date(2024, time.March, 6)},
	}

	var buf bytes.Buffer
	if err := Export(ctx, c, want, &buf, UseFormat(sheet.FormatCSV)); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := Import[Item](ctx, c, &buf, UseFormat(sheet.FormatCSV))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if diff := cmp.Diff(pointers(want), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_AllKinds(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()
	due := date(2025, time.March, 31)

	tasks := []*task{
		{Name: "paint", Count: 3, Done: true, Category: "Red", Due: &due, Secret: "not exported"},
		{Name: "sand", Count: -1, Category: "Green"},
	}

	var buf bytes.Buffer
	if err := Export(ctx, c, tasks, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	got, err := Import[task](ctx, c, &buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	want := []*task{
		{Name: "paint", Count: 3, Done: true, Category: "Red", Due: &due},
		{Name: "sand", Count: -1, Category: "Green"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_HeaderOrderIndependent(t *testing.T) {
	c := newTestConverter()

	got, err := importCSV[Item](t, c,
		"owner,dueBy,cost,name",
		"owner:o1,2024-01-01,12.5,A",
		"owner:o2,2024-02-02,0,B",
	)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if diff := cmp.Diff(pointers(exampleItems()), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_UnknownColumnIgnored(t *testing.T) {
	c := newTestConverter()

	got, err := importCSV[Item](t, c,
		"name,doesNotExist,cost",
		"A,whatever,12.5",
	)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := []*Item{{Name: "A", Cost: 12.5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_BlankRowsSkipped(t *testing.T) {
	c := newTestConverter()

	got, err := importCSV[Item](t, c,
		"name,cost,doesNotExist",
		"A,1,",
		",,only unknown columns",
		",,",
		"B,2,",
	)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := []*Item{{Name: "A", Cost: 1}, {Name: "B", Cost: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_FailFastOnBadRow(t *testing.T) {
	c := newTestConverter()

	got, err := importCSV[task](t, c,
		"name,category",
		"first,Red",
		"second,NotAMember",
		"third,Green",
	)
	if got != nil {
		t.Errorf("Import() returned %d records, want none", len(got))
	}

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("Import() error = %v, want RowError", err)
	}
	if rowErr.Row != 2 {
		t.Errorf("Row = %d, want 2", rowErr.Row)
	}
	var valueErr *UnresolvableValueError
	if !errors.As(err, &valueErr) || valueErr.Value != "NotAMember" || valueErr.Property != "category" {
		t.Errorf("cause = %v, want UnresolvableValueError for NotAMember", rowErr.Err)
	}
	if !strings.HasPrefix(err.Error(), "error processing row 2: ") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestImport_UnresolvedReference(t *testing.T) {
	c := newTestConverter()

	got, err := importCSV[Item](t, c,
		"name,owner",
		"A,owner:o1",
		"B,owner:ghost",
	)
	if got != nil {
		t.Errorf("Import() returned %d records, want none", len(got))
	}

	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 2 {
		t.Fatalf("Import() error = %v, want RowError at row 2", err)
	}
	var refErr *UnresolvedReferenceError
	if !errors.As(err, &refErr) || refErr.Bookmark != "owner:ghost" {
		t.Errorf("cause = %v, want UnresolvedReferenceError", rowErr.Err)
	}
}

func TestImport_HiddenPropertyBound(t *testing.T) {
	c := newTestConverter()

	header, err := c.Header(reflect.TypeOf(task{}))
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	for _, name := range header {
		if name == "secret" {
			t.Error("hidden property exported")
		}
	}

	got, err := importCSV[task](t, c, "name,secret", "a,s3cret")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 1 || got[0].Secret != "s3cret" {
		t.Errorf("Import() = %+v, want secret bound", got)
	}
}

func TestImport_DuplicateHeaderLastWins(t *testing.T) {
	c := newTestConverter()

	got, err := importCSV[Item](t, c,
		"name,cost,name",
		"first,1,second",
		"only,2,",
	)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := []*Item{{Name: "second", Cost: 1}, {Name: "only", Cost: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_EmptyDocument(t *testing.T) {
	c := newTestConverter()

	got, err := Import[Item](context.Background(), c, strings.NewReader(""))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Import() = %d records, want 0", len(got))
	}

	got, err = importCSV[Item](t, c, "nothing,matches", "a,b")
	if err != nil || len(got) != 0 {
		t.Errorf("Import() = %v, %v, want no records", got, err)
	}
}

func TestImport_Errors(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()

	t.Run("malformed workbook", func(t *testing.T) {
		_, err := Import[Item](ctx, c, strings.NewReader("PK\x03\x04not really a zip"))
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("error = %v, want FormatError", err)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := Import[Item](ctx, c, iotest.ErrReader(boom))
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
		var formatErr *FormatError
		if errors.As(err, &formatErr) {
			t.Error("read failure reported as FormatError")
		}
	})

	t.Run("unsupported mapped property", func(t *testing.T) {
		_, err := importCSV[badRecord](t, c, "name,tags", "a,b")
		var unsupported *UnsupportedTypeError
		if !errors.As(err, &unsupported) || unsupported.Property != "tags" {
			t.Errorf("error = %v, want UnsupportedTypeError for tags", err)
		}
	})

	t.Run("unsupported property not mapped", func(t *testing.T) {
		got, err := importCSV[badRecord](t, c, "name", "a")
		if err != nil || len(got) != 1 {
			t.Errorf("Import() = %v, %v", got, err)
		}
	})

	t.Run("wrong cell type", func(t *testing.T) {
		_, err := importCSV[task](t, c, "name,done", "a,yes")
		var cellErr *CellTypeError
		if !errors.As(err, &cellErr) || cellErr.Want != "boolean" {
			t.Errorf("error = %v, want CellTypeError", err)
		}
	})

	t.Run("non-integral integer", func(t *testing.T) {
		_, err := importCSV[task](t, c, "count", "2.5")
		var rowErr *RowError
		if !errors.As(err, &rowErr) || rowErr.Row != 1 {
			t.Errorf("error = %v, want RowError at row 1", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Import[Item](ctx, c, strings.NewReader("name\nA\n"), UseFormat("ods"))
		if err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := c.Import(ctx, reflect.TypeOf(42), strings.NewReader(""))
		if err == nil {
			t.Error("expected error for non-struct type")
		}
	})
}

func TestImport_Factory(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()
	in := "cost\n5\n"

	got, err := Import[Item](ctx, c, strings.NewReader(in), UseFactory(func() any {
		return &Item{Name: "preset"}
	}))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "preset" || got[0].Cost != 5 {
		t.Errorf("Import() = %+v, want preset name kept", got)
	}

	_, err = Import[Item](ctx, c, strings.NewReader(in), UseFactory(func() any { return Item{} }))
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Errorf("non-pointer factory error = %v, want RowError", err)
	}
}

type lineItem struct {
	Note    string
	Derived string `sheet:"-"`
}

type fakeBridge struct{}

func (fakeBridge) IsViewModel(t reflect.Type) bool { return t == reflect.TypeOf(lineItem{}) }

func (fakeBridge) Memento(instance any) (string, error) {
	return instance.(*lineItem).Note, nil
}

func (fakeBridge) Instantiate(_ context.Context, _ reflect.Type, memento string) (any, error) {
	if memento == "fail" {
		return nil, errors.New("cannot rebuild")
	}
	return &lineItem{Note: memento, Derived: strings.ToUpper(memento)}, nil
}

func TestImport_ViewModel(t *testing.T) {
	c := newTestConverter(WithViewModels(fakeBridge{}))

	got, err := importCSV[lineItem](t, c, "note", "call bob")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := []*lineItem{{Note: "call bob", Derived: "CALL BOB"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	_, err = importCSV[lineItem](t, c, "note", "ok", "fail")
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 2 {
		t.Errorf("error = %v, want RowError at row 2", err)
	}

	// non view models are returned as decoded
	items, err := importCSV[Item](t, c, "name", "A")
	if err != nil || len(items) != 1 || items[0].Name != "A" {
		t.Errorf("Import() = %v, %v", items, err)
	}
}

func TestExport_Errors(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()

	t.Run("unsupported property writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		err := Export(ctx, c, []badRecord{{Name: "a"}}, &buf)
		var unsupported *UnsupportedTypeError
		if !errors.As(err, &unsupported) {
			t.Errorf("error = %v, want UnsupportedTypeError", err)
		}
		if buf.Len() != 0 {
			t.Errorf("wrote %d bytes, want 0", buf.Len())
		}
	})

	t.Run("wrong record type", func(t *testing.T) {
		err := c.Export(ctx, reflect.TypeOf(Item{}), []task{{Name: "x"}}, io.Discard)
		if err == nil {
			t.Error("expected error for mismatched records")
		}
	})

	t.Run("nil record", func(t *testing.T) {
		err := Export(ctx, c, []*Item{nil}, io.Discard)
		if err == nil {
			t.Error("expected error for nil record")
		}
	})

	t.Run("records not a slice", func(t *testing.T) {
		err := c.Export(ctx, reflect.TypeOf(Item{}), Item{}, io.Discard)
		if err == nil {
			t.Error("expected error for non-slice records")
		}
	})

	t.Run("enum value outside members", func(t *testing.T) {
		err := Export(ctx, c, []task{{Category: "Blue"}}, io.Discard)
		var valueErr *UnresolvableValueError
		if !errors.As(err, &valueErr) {
			t.Errorf("error = %v, want UnresolvableValueError", err)
		}
	})
}

func TestExport_MixedRecordForms(t *testing.T) {
	c := newTestConverter()

	records := []any{Item{Name: "value"}, &Item{Name: "pointer"}}
	var buf bytes.Buffer
	if err := c.Export(context.Background(), reflect.TypeOf(Item{}), records, &buf, UseFormat(sheet.FormatCSV)); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := "name,cost,dueBy,owner\nvalue,0,,\npointer,0,,\n"
	if buf.String() != want {
		t.Errorf("Export() = %q, want %q", buf.String(), want)
	}
}

func TestBuildDocument_DateFormat(t *testing.T) {
	c := newTestConverter()
	o := c.callOptions([]CallOption{UseDateFormat("dd/mm/yyyy"), UseSheetName("Due items")})

	doc, err := c.buildDocument(reflect.TypeOf(Item{}), exampleItems(), o)
	if err != nil {
		t.Fatalf("buildDocument() error = %v", err)
	}
	if doc.Name != "Due items" {
		t.Errorf("Name = %q", doc.Name)
	}
	for _, row := range doc.DataRows() {
		if got := row.Cell(2).Format; got != "dd/mm/yyyy" {
			t.Errorf("row %d date format = %q, want dd/mm/yyyy", row.Index, got)
		}
	}
	if got := doc.DataRows()[0].Cell(2).Number; got != 45292 {
		t.Errorf("serial = %v, want 45292", got)
	}
}

func TestExportFile(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()
	dir := t.TempDir()

	path, err := c.ExportFile(ctx, reflect.TypeOf(Item{}), exampleItems(), dir)
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path %q not in %q", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "Item-") || !strings.HasSuffix(base, ".xlsx") {
		t.Errorf("file name = %q, want Item-*.xlsx", base)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	got, err := Import[Item](ctx, c, f)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Import() = %d records, want 2", len(got))
	}
}

func TestExportFile_RemovesFileOnFailure(t *testing.T) {
	c := newTestConverter()
	dir := t.TempDir()

	_, err := c.ExportFile(context.Background(), reflect.TypeOf(badRecord{}), []badRecord{{}}, dir)
	if err == nil {
		t.Fatal("ExportFile() expected error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("left %d files behind", len(entries))
	}
}

func TestColumnMapping(t *testing.T) {
	p := propertyOf(t, reflect.TypeOf(Item{}), "name")
	m := ColumnMapping{4: p, 0: p, 2: p}

	if diff := cmp.Diff([]int{0, 2, 4}, m.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	row := &sheet.Row{}
	row.SetCell(1, sheet.TextCell("unmapped"))
	if !m.IsBlank(row) {
		t.Error("row with values only in unmapped columns should be blank")
	}
	row.SetCell(4, sheet.NumberCell(0))
	if m.IsBlank(row) {
		t.Error("row with a mapped value should not be blank")
	}
}

func TestExport_RejectsValuesThatCannotReadBack(t *testing.T) {
	c := newTestConverter()
	ctx := context.Background()

	type counted struct {
		Name string
		Qty  uint64
	}

	tests := []struct {
		name   string
		export func(w *bytes.Buffer, opt CallOption) error
	}{
		{"date before 1900", func(w *bytes.Buffer, opt CallOption) error {
			return Export(ctx, c, []Item{{Name: "old", DueBy: date(1850, time.June, 1)}}, w, opt)
		}},
		{"infinite cost", func(w *bytes.Buffer, opt CallOption) error {
			return Export(ctx, c, []Item{{Name: "inf", Cost: math.Inf(1)}}, w, opt)
		}},
		{"unsigned beyond exact range", func(w *bytes.Buffer, opt CallOption) error {
			return Export(ctx, c, []counted{{Name: "big", Qty: math.MaxUint64 - 4096}}, w, opt)
		}},
	}

	for _, format := range []sheet.Format{sheet.FormatXLSX, sheet.FormatCSV} {
		for _, tt := range tests {
			t.Run(string(format)+"/"+tt.name, func(t *testing.T) {
				var buf bytes.Buffer
				if err := tt.export(&buf, UseFormat(format)); err == nil {
					t.Fatal("Export() succeeded, want error")
				}
				if buf.Len() != 0 {
					t.Errorf("wrote %d bytes, want 0", buf.Len())
				}
			})
		}
	}
}
