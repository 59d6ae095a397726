package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/JonMunkholm/xlport/internal/schema"
	"github.com/JonMunkholm/xlport/internal/sheet"
)

// Import reads a document from r and returns one *T per non-blank data row,
// in row order, where T is the struct type t (or t's element).
//
// The format is detected from the leading bytes unless UseFormat or UseCodec
// is given. Bytes that do not decode fail with a FormatError; read failures
// are returned wrapped. The first failing row aborts the import with a
// RowError and no records are returned.
func (c *Converter) Import(ctx context.Context, t reflect.Type, r io.Reader, opts ...CallOption) ([]any, error) {
	start := time.Now()
	o := c.callOptions(opts)

	structType, err := schema.StructType(t)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	codec, err := c.importCodec(o, data)
	if err != nil {
		return nil, err
	}
	doc, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Err: err}
	}

	logger := c.log(ctx).With("type", structType.String(), "format", codec.Format())

	mapping, ignored, err := c.binder(structType).bind(doc.Header())
	if err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		logger.Debug("ignoring unknown columns", "columns", ignored)
	}
	if len(mapping) == 0 {
		logger.Warn("no columns matched any property", "rows", len(doc.DataRows()))
	}

	factory := o.factory
	if factory == nil {
		factory = func() any { return reflect.New(structType).Interface() }
	}
	viewModel := c.viewModels != nil && c.viewModels.IsViewModel(structType)

	ri := &rowImporter{
		structType: structType,
		mapping:    mapping,
		columns:    mapping.Columns(),
		codec:      c.valueCodec(structType, o),
		factory:    factory,
	}
	if viewModel {
		ri.viewModels = c.viewModels
	}

	var records []any
	skipped := 0
	for _, row := range doc.DataRows() {
		if mapping.IsBlank(row) {
			skipped++
			continue
		}
		rec, err := ri.importRow(ctx, row)
		if err != nil {
			return nil, &RowError{Row: row.Index, Err: err}
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		logger.Debug("skipped blank rows", "count", skipped)
	}
	logger.Info("import complete",
		"records", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}

func (c *Converter) importCodec(o callOptions, data []byte) (sheet.Codec, error) {
	switch {
	case o.codec != nil:
		return o.codec, nil
	case o.format != "":
		return sheet.ForFormat(string(o.format))
	default:
		return sheet.Detect(data), nil
	}
}

// rowImporter turns data rows into records for one import call.
type rowImporter struct {
	structType reflect.Type
	mapping    ColumnMapping
	columns    []int // mapped columns, ascending
	codec      *valueCodec
	factory    func() any
	viewModels ViewModelBridge // nil unless the type is a view model
}

func (ri *rowImporter) importRow(ctx context.Context, row *sheet.Row) (any, error) {
	instance := ri.factory()
	iv := reflect.ValueOf(instance)
	if iv.Kind() != reflect.Pointer || iv.IsNil() || iv.Elem().Type() != ri.structType {
		return nil, fmt.Errorf("factory returned %T, want *%s", instance, ri.structType)
	}

	// a later column bound to the same property overwrites an earlier one
	for _, col := range ri.columns {
		cell := row.Cell(col)
		if cell.IsBlank() {
			continue
		}
		p := ri.mapping[col]
		v, ok, err := ri.codec.decode(ctx, p, cell)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := p.Set(iv, v); err != nil {
			return nil, err
		}
	}

	if ri.viewModels == nil {
		return instance, nil
	}

	memento, err := ri.viewModels.Memento(instance)
	if err != nil {
		return nil, err
	}
	final, err := ri.viewModels.Instantiate(ctx, ri.structType, memento)
	if err != nil {
		return nil, err
	}
	if fv := reflect.ValueOf(final); fv.Kind() != reflect.Pointer || fv.IsNil() || fv.Elem().Type() != ri.structType {
		return nil, fmt.Errorf("view model instantiated as %T, want *%s", final, ri.structType)
	}
	return final, nil
}

// Import reads records of struct type T from r.
func Import[T any](ctx context.Context, c *Converter, r io.Reader, opts ...CallOption) ([]*T, error) {
	records, err := c.Import(ctx, reflect.TypeOf((*T)(nil)).Elem(), r, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]*T, len(records))
	for i, rec := range records {
		v, ok := rec.(*T)
		if !ok {
			return nil, fmt.Errorf("imported %T, want *%T", rec, *new(T))
		}
		out[i] = v
	}
	return out, nil
}
