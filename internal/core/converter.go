package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/JonMunkholm/xlport/internal/logging"
	"github.com/JonMunkholm/xlport/internal/schema"
	"github.com/JonMunkholm/xlport/internal/sheet"
)

// Converter exports records to documents and imports them back.
// A Converter holds no per-call state and is safe for concurrent use as long
// as its collaborators are.
type Converter struct {
	introspector Introspector
	resolver     ReferenceResolver
	viewModels   ViewModelBridge
	logger       *slog.Logger

	format     sheet.Format
	dateFormat sheet.CellFormat
	tempDir    string
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithIntrospector replaces the default reflection-based introspector.
func WithIntrospector(i Introspector) ConverterOption {
	return func(c *Converter) { c.introspector = i }
}

// WithResolver sets the resolver used for reference properties.
func WithResolver(r ReferenceResolver) ConverterOption {
	return func(c *Converter) { c.resolver = r }
}

// WithViewModels sets the bridge used to rebuild imported view models.
func WithViewModels(b ViewModelBridge) ConverterOption {
	return func(c *Converter) { c.viewModels = b }
}

// WithLogger sets the logger. By default the request-scoped logger from
// logging.FromContext is used.
func WithLogger(l *slog.Logger) ConverterOption {
	return func(c *Converter) { c.logger = l }
}

// WithDefaultFormat sets the export format used when a call does not choose one.
func WithDefaultFormat(f sheet.Format) ConverterOption {
	return func(c *Converter) { c.format = f }
}

// WithDefaultDateFormat sets the number format of exported date cells.
func WithDefaultDateFormat(f string) ConverterOption {
	return func(c *Converter) {
		if f != "" {
			c.dateFormat = sheet.CellFormat(f)
		}
	}
}

// WithTempDir sets the directory ExportFile writes to when given none.
func WithTempDir(dir string) ConverterOption {
	return func(c *Converter) { c.tempDir = dir }
}

// NewConverter returns a Converter using a schema.Reflector, XLSX output and
// yyyy-mm-dd dates unless configured otherwise.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		format:     sheet.FormatXLSX,
		dateFormat: sheet.DefaultDateFormat,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.introspector == nil {
		c.introspector = schema.NewReflector()
	}
	return c
}

// CallOption adjusts a single Export or Import call.
type CallOption func(*callOptions)

type callOptions struct {
	format     sheet.Format
	codec      sheet.Codec
	dateFormat sheet.CellFormat
	sheetName  string
	factory    func() any
}

// UseFormat selects the document format by name ("xlsx" or "csv"). On import
// it disables format detection.
func UseFormat(f sheet.Format) CallOption {
	return func(o *callOptions) { o.format = f }
}

// UseCodec selects a document codec directly.
func UseCodec(c sheet.Codec) CallOption {
	return func(o *callOptions) { o.codec = c }
}

// UseDateFormat overrides the number format of exported date cells.
func UseDateFormat(f string) CallOption {
	return func(o *callOptions) {
		if f != "" {
			o.dateFormat = sheet.CellFormat(f)
		}
	}
}

// UseSheetName names the exported sheet. The default is the record type name.
func UseSheetName(name string) CallOption {
	return func(o *callOptions) { o.sheetName = name }
}

// UseFactory sets how import creates the transient instance for a row. fn
// must return a pointer to the record type.
func UseFactory(fn func() any) CallOption {
	return func(o *callOptions) { o.factory = fn }
}

func (c *Converter) callOptions(opts []CallOption) callOptions {
	o := callOptions{dateFormat: c.dateFormat}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// exportCodec returns the codec chosen for an export call.
func (c *Converter) exportCodec(o callOptions) (sheet.Codec, error) {
	if o.codec != nil {
		return o.codec, nil
	}
	format := o.format
	if format == "" {
		format = c.format
	}
	return sheet.ForFormat(string(format))
}

// Header returns the column names an export of t would write.
func (c *Converter) Header(t reflect.Type) ([]string, error) {
	structType, err := schema.StructType(t)
	if err != nil {
		return nil, err
	}
	props, err := c.binder(structType).exportable()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names, nil
}

func (c *Converter) binder(t reflect.Type) *binder {
	return &binder{introspector: c.introspector, recordType: t}
}

func (c *Converter) valueCodec(t reflect.Type, o callOptions) *valueCodec {
	return &valueCodec{recordType: t, resolver: c.resolver, dateFormat: o.dateFormat}
}

func (c *Converter) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.FromContext(ctx)
}

// recordValue unwraps v to a struct value of type t.
func recordValue(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, errors.New("nil record")
		}
		v = v.Elem()
	}
	if v.Type() != t {
		return reflect.Value{}, fmt.Errorf("record has type %s, want %s", v.Type(), t)
	}
	return v, nil
}

func sheetName(o callOptions, t reflect.Type) string {
	if name := strings.TrimSpace(o.sheetName); name != "" {
		return name
	}
	return t.Name()
}
