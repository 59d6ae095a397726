package todo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/xlport/internal/bookmark"
	"github.com/JonMunkholm/xlport/internal/core"
	"github.com/JonMunkholm/xlport/internal/memento"
	"github.com/JonMunkholm/xlport/internal/sheet"
)

type fixture struct {
	store     *MemoryStore
	items     []*Item
	registry  *core.Registry
	bridge    *memento.Bridge
	converter *core.Converter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{store: NewMemoryStore(), registry: core.NewRegistry(), bridge: memento.NewBridge()}
	bookmarks := bookmark.NewService()
	if err := Install(f.store, bookmarks, f.bridge, f.registry); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	var err error
	if f.items, err = Seed(ctx, f.store, "sven", today); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	f.converter = core.NewConverter(
		core.WithResolver(bookmarks),
		core.WithViewModels(f.bridge),
		core.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return f
}

// export returns the decoded document of the registered type key.
func (f *fixture) export(t *testing.T, key string) *sheet.Document {
	t.Helper()
	return f.exportWith(t, key, nil)
}

func (f *fixture) exportWith(t *testing.T, key string, params core.ListParams) *sheet.Document {
	t.Helper()
	ctx := context.Background()

	def, err := f.registry.Get(key)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", key, err)
	}
	records, err := def.List(ctx, params)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var buf bytes.Buffer
	if err := f.converter.Export(ctx, def.Type, records, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	doc, err := (sheet.XLSX{}).Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return doc
}

func (f *fixture) importDoc(t *testing.T, key string, doc *sheet.Document) ([]any, error) {
	t.Helper()
	def, err := f.registry.Get(key)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", key, err)
	}
	var buf bytes.Buffer
	if err := (sheet.XLSX{}).Encode(&buf, doc); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return f.converter.Import(context.Background(), def.Type, &buf)
}

func column(t *testing.T, doc *sheet.Document, name string) int {
	t.Helper()
	for i, cell := range doc.Header().Cells() {
		if cell.String() == name {
			return i
		}
	}
	t.Fatalf("no column %q", name)
	return -1
}

func TestInstall_Registry(t *testing.T) {
	f := newFixture(t)

	keys := f.registry.Keys()
	if len(keys) != 2 || keys[0] != KeyBulkUpdate || keys[1] != KeyItems {
		t.Errorf("Keys() = %v", keys)
	}
	items, _ := f.registry.Get(KeyItems)
	if items.CanApply() {
		t.Error("todo-items should be preview only")
	}
}

func TestItemsExport_Header(t *testing.T) {
	f := newFixture(t)
	doc := f.export(t, KeyItems)

	var header []string
	for _, cell := range doc.Header().Cells() {
		header = append(header, cell.String())
	}
	want := "description category subcategory ownedBy cost dueBy complete notes"
	if got := strings.Join(header, " "); got != want {
		t.Errorf("header = %q, want %q", got, want)
	}
	if len(doc.DataRows()) != len(seedItems) {
		t.Errorf("rows = %d, want %d", len(doc.DataRows()), len(seedItems))
	}
}

func TestBulkUpdate_SpreadsheetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.export(t, KeyBulkUpdate)

	itemCol := column(t, doc, "item")
	costCol := column(t, doc, "cost")
	completeCol := column(t, doc, "complete")

	first := doc.DataRows()[0]
	ref, err := bookmark.Parse(first.Cell(itemCol).String())
	if err != nil {
		t.Fatalf("item column %q is not a bookmark: %v", first.Cell(itemCol).String(), err)
	}
	id := uuid.MustParse(ref.ID)

	first.SetCell(costCol, sheet.NumberCell(2.25))
	first.SetCell(completeCol, sheet.BoolCell(true))

	added := doc.NewRow()
	added.SetCell(column(t, doc, "description"), sheet.TextCell("Fix fence"))
	added.SetCell(column(t, doc, "category"), sheet.TextCell("Domestic"))
	added.SetCell(column(t, doc, "subcategory"), sheet.TextCell("Garden"))

	records, err := f.importDoc(t, KeyBulkUpdate, doc)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(records) != len(seedItems)+1 {
		t.Fatalf("Import() = %d records, want %d", len(records), len(seedItems)+1)
	}
	line := records[0].(*BulkUpdateLineItem)
	if line.Item == nil || line.Item.ID != id {
		t.Fatalf("first line item = %+v, want item %s", line.Item, id)
	}
	if records[len(records)-1].(*BulkUpdateLineItem).Item != nil {
		t.Error("added row should not reference an item")
	}

	def, _ := f.registry.Get(KeyBulkUpdate)
	n, err := def.Apply(ctx, records)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Apply() = %d, want 2", n)
	}

	got, _ := f.store.Get(ctx, id)
	if got.Cost != 2.25 || !got.Complete {
		t.Errorf("updated item = %+v", got)
	}
}

func TestBulkUpdate_ImportErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("deleted item", func(t *testing.T) {
		doc := f.export(t, KeyBulkUpdate)
		if err := f.store.Reset(ctx); err != nil {
			t.Fatal(err)
		}
		_, err := f.importDoc(t, KeyBulkUpdate, doc)

		var rowErr *core.RowError
		if !errors.As(err, &rowErr) || rowErr.Row != 1 {
			t.Fatalf("Import() error = %v, want RowError at row 1", err)
		}
		var refErr *core.UnresolvedReferenceError
		if !errors.As(err, &refErr) {
			t.Errorf("cause = %v, want UnresolvedReferenceError", rowErr.Err)
		}
	})

	t.Run("invalid subcategory", func(t *testing.T) {
		f := newFixture(t)
		doc := f.export(t, KeyBulkUpdate)
		row := doc.DataRows()[2]
		row.SetCell(column(t, doc, "category"), sheet.TextCell("Professional"))

		_, err := f.importDoc(t, KeyBulkUpdate, doc)
		var rowErr *core.RowError
		if !errors.As(err, &rowErr) || rowErr.Row != 3 {
			t.Fatalf("Import() error = %v, want RowError at row 3", err)
		}
		if !errors.Is(err, ErrInvalidItem) {
			t.Errorf("cause = %v, want ErrInvalidItem", rowErr.Err)
		}
	})
}
