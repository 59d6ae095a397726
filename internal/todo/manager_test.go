package todo

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/xlport/internal/core"
)

func TestParseBulkUpdateManager(t *testing.T) {
	open, done := false, true

	tests := []struct {
		name    string
		params  core.ListParams
		want    *BulkUpdateManager
		wantErr bool
	}{
		{"no params", nil, &BulkUpdateManager{}, false},
		{"empty values", core.ListParams{ParamCategory: "", ParamComplete: ""}, &BulkUpdateManager{}, false},
		{
			name: "full selection",
			params: core.ListParams{
				ParamFileName:    "shopping.xlsx",
				ParamCategory:    "Domestic",
				ParamSubcategory: "Shopping",
				ParamComplete:    "false",
			},
			want: &BulkUpdateManager{FileName: "shopping.xlsx", Category: CategoryDomestic, Subcategory: SubcategoryShopping, Complete: &open},
		},
		{"subcategory alone", core.ListParams{ParamSubcategory: "Garden"}, &BulkUpdateManager{Subcategory: SubcategoryGarden}, false},
		{"complete only", core.ListParams{ParamComplete: "true"}, &BulkUpdateManager{Complete: &done}, false},
		{"bad complete", core.ListParams{ParamComplete: "maybe"}, nil, true},
		{"unknown category", core.ListParams{ParamCategory: "Urgent"}, nil, true},
		{"category is case sensitive", core.ListParams{ParamCategory: "domestic"}, nil, true},
		{"unknown subcategory", core.ListParams{ParamSubcategory: "Laundry"}, nil, true},
		{"subcategory of another category", core.ListParams{ParamCategory: "Professional", ParamSubcategory: "Shopping"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBulkUpdateManager(tt.params)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidListParams) {
					t.Fatalf("ParseBulkUpdateManager() error = %v, want ErrInvalidListParams", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBulkUpdateManager() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseBulkUpdateManager() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBulkUpdateManager_Memento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := false

	for _, want := range []*BulkUpdateManager{
		{},
		{FileName: "toDoItems.xlsx", Category: CategoryDomestic, Subcategory: SubcategoryShopping, Complete: &open},
		{Category: CategoryProfessional},
	} {
		enc, err := f.bridge.Memento(want)
		if err != nil {
			t.Fatalf("Memento() error = %v", err)
		}
		got, err := f.bridge.Instantiate(ctx, reflect.TypeOf(BulkUpdateManager{}), enc)
		if err != nil {
			t.Fatalf("Instantiate() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("memento round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestBulkUpdateExport_Filtered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stamps := f.items[2].clone()
	stamps.Complete = true
	if err := f.store.Save(ctx, stamps); err != nil {
		t.Fatal(err)
	}

	open := false
	enc, err := f.bridge.Memento(&BulkUpdateManager{Category: CategoryDomestic, Subcategory: SubcategoryShopping, Complete: &open})
	if err != nil {
		t.Fatalf("Memento() error = %v", err)
	}

	tests := []struct {
		name   string
		params core.ListParams
		want   []string
	}{
		{
			name:   "open shopping",
			params: core.ListParams{ParamCategory: "Domestic", ParamSubcategory: "Shopping", ParamComplete: "false"},
			want:   []string{"Buy bread", "Buy milk"},
		},
		{
			name:   "complete only",
			params: core.ListParams{ParamComplete: "true"},
			want:   []string{"Buy stamps"},
		},
		{
			name:   "category",
			params: core.ListParams{ParamCategory: "Other"},
			want:   []string{"Write to penpal"},
		},
		{
			name:   "encoded manager wins over params",
			params: core.ListParams{ParamManager: enc, ParamCategory: "Professional"},
			want:   []string{"Buy bread", "Buy milk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := f.exportWith(t, KeyBulkUpdate, tt.params)
			col := column(t, doc, "description")

			var got []string
			for _, row := range doc.DataRows() {
				got = append(got, row.Cell(col).String())
			}
			slices.Sort(got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("exported descriptions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBulkUpdateExport_InvalidFilter(t *testing.T) {
	f := newFixture(t)
	def, err := f.registry.Get(KeyBulkUpdate)
	if err != nil {
		t.Fatal(err)
	}

	for _, params := range []core.ListParams{
		{ParamCategory: "Urgent"},
		{ParamManager: "not-a-memento"},
	} {
		if _, err := def.List(context.Background(), params); !errors.Is(err, core.ErrInvalidListParams) {
			t.Errorf("List(%v) error = %v, want ErrInvalidListParams", params, err)
		}
	}
}

func TestItemsExport_IgnoresBulkFilter(t *testing.T) {
	f := newFixture(t)
	doc := f.exportWith(t, KeyItems, core.ListParams{ParamCategory: "Other"})
	if len(doc.DataRows()) != len(seedItems) {
		t.Errorf("rows = %d, want %d", len(doc.DataRows()), len(seedItems))
	}
}
