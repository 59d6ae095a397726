package core

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/JonMunkholm/xlport/internal/schema"
	"github.com/JonMunkholm/xlport/internal/sheet"
)

// ColumnMapping maps zero-based column indices to the properties they bind.
// Two columns may map to the same property.
type ColumnMapping map[int]*schema.Property

// Columns returns the mapped column indices in ascending order.
func (m ColumnMapping) Columns() []int {
	cols := make([]int, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	return cols
}

// IsBlank reports whether row holds nothing in any mapped column.
func (m ColumnMapping) IsBlank(row *sheet.Row) bool {
	for col := range m {
		if !row.Cell(col).IsBlank() {
			return false
		}
	}
	return true
}

// binder resolves the properties of one record type.
type binder struct {
	introspector Introspector
	recordType   reflect.Type
}

// exportable returns the export columns, failing on the first property with
// no cell encoding.
func (b *binder) exportable() ([]*schema.Property, error) {
	props, err := b.introspector.ExportableProperties(b.recordType)
	if err != nil {
		return nil, fmt.Errorf("properties of %s: %w", b.recordType, err)
	}
	for _, p := range props {
		if p.Kind.Kind == schema.KindUnsupported {
			return nil, &UnsupportedTypeError{Type: b.recordType, Property: p.Name, GoType: p.GoType}
		}
	}
	return props, nil
}

// bind maps header cells to properties by exact name. Names matching no
// property are returned in ignored. A nil header binds nothing.
func (b *binder) bind(header *sheet.Row) (mapping ColumnMapping, ignored []string, err error) {
	mapping = make(ColumnMapping)
	if header == nil {
		return mapping, nil, nil
	}

	for col, cell := range header.Cells() {
		if cell.IsBlank() {
			continue
		}
		name := cell.String()
		p, ok, err := b.introspector.PropertyNamed(b.recordType, name)
		if err != nil {
			return nil, nil, fmt.Errorf("properties of %s: %w", b.recordType, err)
		}
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		if p.Kind.Kind == schema.KindUnsupported {
			return nil, nil, &UnsupportedTypeError{Type: b.recordType, Property: p.Name, GoType: p.GoType}
		}
		mapping[col] = p
	}
	return mapping, ignored, nil
}
