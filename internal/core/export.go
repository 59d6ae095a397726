package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/JonMunkholm/xlport/internal/schema"
	"github.com/JonMunkholm/xlport/internal/sheet"
)

// Export writes records as a document to w. t is the record struct type (or
// a pointer to it); records must be a slice or array whose elements are t,
// *t, or interfaces holding either. Records are not modified.
//
// Every property is checked before anything is written, so an unsupported
// property type fails without output.
func (c *Converter) Export(ctx context.Context, t reflect.Type, records any, w io.Writer, opts ...CallOption) error {
	o := c.callOptions(opts)
	codec, err := c.exportCodec(o)
	if err != nil {
		return err
	}
	return c.export(ctx, t, records, w, codec, o)
}

// ExportFile writes records to a new file in dir named after the record type,
// for example "Item-123456.xlsx", and returns its path. An empty dir uses the
// converter's temp dir, then the system default. The file is removed if the
// export fails.
func (c *Converter) ExportFile(ctx context.Context, t reflect.Type, records any, dir string, opts ...CallOption) (path string, err error) {
	o := c.callOptions(opts)
	codec, err := c.exportCodec(o)
	if err != nil {
		return "", err
	}
	structType, err := schema.StructType(t)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = c.tempDir
	}

	f, err := os.CreateTemp(dir, structType.Name()+"-*"+codec.Extension())
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = c.export(ctx, structType, records, f, codec, o); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return f.Name(), nil
}

func (c *Converter) export(ctx context.Context, t reflect.Type, records any, w io.Writer, codec sheet.Codec, o callOptions) error {
	start := time.Now()

	doc, err := c.buildDocument(t, records, o)
	if err != nil {
		return err
	}
	if err := codec.Encode(w, doc); err != nil {
		return fmt.Errorf("write %s document: %w", codec.Format(), err)
	}

	c.log(ctx).Info("export complete",
		"type", t.String(),
		"format", codec.Format(),
		"rows", doc.Len()-1,
		"duration", time.Since(start),
	)
	return nil
}

// buildDocument lays out the header row and one data row per record.
func (c *Converter) buildDocument(t reflect.Type, records any, o callOptions) (*sheet.Document, error) {
	structType, err := schema.StructType(t)
	if err != nil {
		return nil, err
	}
	props, err := c.binder(structType).exportable()
	if err != nil {
		return nil, err
	}

	list := reflect.ValueOf(records)
	switch list.Kind() {
	case reflect.Slice, reflect.Array, reflect.Invalid:
	default:
		return nil, fmt.Errorf("records must be a slice, got %T", records)
	}

	doc := sheet.NewDocument(sheetName(o, structType))
	header := doc.NewRow()
	for col, p := range props {
		header.SetCell(col, sheet.TextCell(p.Name))
	}
	doc.FreezeHeader()

	vc := c.valueCodec(structType, o)
	if !list.IsValid() {
		return doc, nil
	}
	for i := 0; i < list.Len(); i++ {
		rec, err := recordValue(list.Index(i), structType)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		row := doc.NewRow()
		for col, p := range props {
			v, present := p.Get(rec)
			cell, err := vc.encode(p, v, present)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			row.SetCell(col, cell)
		}
	}
	return doc, nil
}

// Export writes records of type T to w.
func Export[T any](ctx context.Context, c *Converter, records []T, w io.Writer, opts ...CallOption) error {
	return c.Export(ctx, reflect.TypeOf((*T)(nil)).Elem(), records, w, opts...)
}
