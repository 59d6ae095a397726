package core

// codec.go maps one property value to one cell and back.
//
// Dispatch is a switch over the closed schema.Kind set; a kind without a
// case is reported as unsupported in both directions.

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/JonMunkholm/xlport/internal/schema"
	"github.com/JonMunkholm/xlport/internal/sheet"
)

// errNoResolver is returned when a reference property is used without a
// ReferenceResolver configured on the Converter.
var errNoResolver = errors.New("no reference resolver configured")

// maxExactInteger is the largest magnitude a number cell holds exactly
// (2^53); larger integers would not read back as the same value.
const maxExactInteger = 1 << 53

// valueCodec is created once per export or import call.
type valueCodec struct {
	recordType reflect.Type
	resolver   ReferenceResolver
	dateFormat sheet.CellFormat // shared by every date cell of the call
}

// encode converts a value returned by Property.Get into a cell.
func (c *valueCodec) encode(p *schema.Property, v any, present bool) (sheet.Cell, error) {
	if p.Kind.Kind == schema.KindUnsupported {
		return sheet.Blank, c.unsupported(p)
	}
	if !present {
		return sheet.Blank, nil
	}

	switch p.Kind.Kind {
	case schema.KindText:
		return sheet.TextCell(v.(string)), nil

	case schema.KindEnum:
		name := v.(string)
		if name == "" {
			return sheet.Blank, nil
		}
		if !p.Kind.HasMember(name) {
			return sheet.Blank, &UnresolvableValueError{Property: p.Name, Enum: p.Kind.Enum, Value: name}
		}
		return sheet.TextCell(name), nil

	case schema.KindInteger:
		switch n := v.(type) {
		case int64:
			if n < -maxExactInteger || n > maxExactInteger {
				return sheet.Blank, fmt.Errorf("%s: %w: %d", p.Name, schema.ErrOutOfRange, n)
			}
			return sheet.NumberCell(float64(n)), nil
		case uint64:
			if n > maxExactInteger {
				return sheet.Blank, fmt.Errorf("%s: %w: %d", p.Name, schema.ErrOutOfRange, n)
			}
			return sheet.NumberCell(float64(n)), nil
		}

	case schema.KindDecimal:
		n := v.(float64)
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return sheet.Blank, fmt.Errorf("invalid number %v for %s: not finite", n, p.Name)
		}
		return sheet.NumberCell(n), nil

	case schema.KindBoolean:
		return sheet.BoolCell(v.(bool)), nil

	case schema.KindDate:
		t := v.(time.Time)
		if err := sheet.CheckDate(t); err != nil {
			return sheet.Blank, fmt.Errorf("invalid date for %s: %w", p.Name, err)
		}
		return sheet.DateCell(t, c.dateFormat), nil

	case schema.KindReference:
		if c.resolver == nil {
			return sheet.Blank, fmt.Errorf("%s: %w", p.Name, errNoResolver)
		}
		bm, err := c.resolver.BookmarkFor(v)
		if err != nil {
			return sheet.Blank, fmt.Errorf("bookmark for %s: %w", p.Name, err)
		}
		return sheet.TextCell(bm), nil
	}

	return sheet.Blank, fmt.Errorf("%s: cannot encode %T as %s", p.Name, v, p.Kind)
}

// decode converts a cell into a value accepted by Property.Set. ok is false
// for blank cells, which leave the property untouched.
func (c *valueCodec) decode(ctx context.Context, p *schema.Property, cell sheet.Cell) (v any, ok bool, err error) {
	if p.Kind.Kind == schema.KindUnsupported {
		return nil, false, c.unsupported(p)
	}
	if cell.IsBlank() {
		return nil, false, nil
	}

	switch p.Kind.Kind {
	case schema.KindText:
		return cell.String(), true, nil

	case schema.KindEnum:
		name := cell.String()
		if !p.Kind.HasMember(name) {
			return nil, false, &UnresolvableValueError{Property: p.Name, Enum: p.Kind.Enum, Value: name}
		}
		return name, true, nil

	case schema.KindInteger:
		if cell.Type != sheet.CellNumber {
			return nil, false, c.wrongCell(p, cell)
		}
		n := cell.Number
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, false, fmt.Errorf("invalid number %v for %s: not an integer", n, p.Name)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return nil, false, fmt.Errorf("%s: %w: %v", p.Name, schema.ErrOutOfRange, n)
		}
		return int64(n), true, nil

	case schema.KindDecimal:
		if cell.Type != sheet.CellNumber {
			return nil, false, c.wrongCell(p, cell)
		}
		return cell.Number, true, nil

	case schema.KindBoolean:
		if cell.Type != sheet.CellBoolean {
			return nil, false, c.wrongCell(p, cell)
		}
		return cell.Bool, true, nil

	case schema.KindDate:
		if !cell.IsDate() {
			return nil, false, c.wrongCell(p, cell)
		}
		t, err := cell.Time()
		if err != nil {
			return nil, false, fmt.Errorf("invalid date for %s: %w", p.Name, err)
		}
		return t, true, nil

	case schema.KindReference:
		if cell.Type != sheet.CellText {
			return nil, false, c.wrongCell(p, cell)
		}
		if c.resolver == nil {
			return nil, false, fmt.Errorf("%s: %w", p.Name, errNoResolver)
		}
		entity, err := c.resolver.Resolve(ctx, cell.Text, p.Kind.Target)
		if err != nil {
			return nil, false, fmt.Errorf("resolve %s: %w", p.Name, err)
		}
		if entity == nil {
			return nil, false, &UnresolvedReferenceError{Property: p.Name, Bookmark: cell.Text}
		}
		return entity, true, nil
	}

	return nil, false, c.unsupported(p)
}

func (c *valueCodec) unsupported(p *schema.Property) error {
	return &UnsupportedTypeError{Type: c.recordType, Property: p.Name, GoType: p.GoType}
}

func (c *valueCodec) wrongCell(p *schema.Property, cell sheet.Cell) error {
	return &CellTypeError{Property: p.Name, Want: p.Kind.Kind.String(), Got: cell.Kind()}
}
