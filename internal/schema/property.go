package schema

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrOutOfRange is returned by Set when a number does not fit the field.
var ErrOutOfRange = errors.New("value out of range")

// Property describes one tabular property of a struct type. Descriptors are
// built once per type by a Reflector and must not be modified.
type Property struct {
	Name   string       // column name, unique within the type
	Field  string       // Go field name
	Kind   ValueKind
	Hidden bool         // excluded from export, still bound on import
	GoType reflect.Type // declared field type

	index []int
}

// Get returns the property's value from rec, a struct value or pointer to one.
// Values are normalized per kind:
//
//	text, enumeration -> string
//	integer           -> int64 (uint64 for unsigned fields)
//	decimal           -> float64
//	boolean           -> bool
//	date              -> time.Time
//	reference         -> the entity pointer
//
// present is false for nil pointers and the zero time.
func (p *Property) Get(rec reflect.Value) (value any, present bool) {
	rec = reflect.Indirect(rec)
	f, err := rec.FieldByIndexErr(p.index)
	if err != nil {
		return nil, false
	}

	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil, false
		}
		if p.Kind.Kind == KindReference {
			return f.Interface(), true
		}
		f = f.Elem()
	}

	switch p.Kind.Kind {
	case KindText, KindEnum:
		return f.String(), true
	case KindInteger:
		if f.CanInt() {
			return f.Int(), true
		}
		return f.Uint(), true
	case KindDecimal:
		return f.Float(), true
	case KindBoolean:
		return f.Bool(), true
	case KindDate:
		t := f.Interface().(time.Time)
		if t.IsZero() {
			return nil, false
		}
		return t, true
	default:
		return f.Interface(), true
	}
}

// Set stores v in rec, which must be a pointer to a struct or an addressable
// struct value. v must have the normalized type Get returns for the
// property's kind; integers are always passed as int64. Pointer fields are
// allocated. A nil v clears a reference.
func (p *Property) Set(rec reflect.Value, v any) error {
	rec = reflect.Indirect(rec)
	f := rec.FieldByIndex(p.index)
	if !f.CanSet() {
		return fmt.Errorf("property %s is not settable", p.Name)
	}

	if p.Kind.Kind == KindReference {
		if v == nil {
			f.SetZero()
			return nil
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(f.Type()) {
			return fmt.Errorf("property %s: cannot assign %s to %s", p.Name, rv.Type(), f.Type())
		}
		f.Set(rv)
		return nil
	}

	target := f
	if f.Kind() == reflect.Pointer {
		target = reflect.New(f.Type().Elem()).Elem()
	}
	if err := assign(target, v); err != nil {
		return fmt.Errorf("property %s: %w", p.Name, err)
	}
	if f.Kind() == reflect.Pointer {
		f.Set(target.Addr())
	}
	return nil
}

func assign(f reflect.Value, v any) error {
	switch x := v.(type) {
	case string:
		if f.Kind() != reflect.String {
			break
		}
		f.SetString(x)
		return nil
	case int64:
		switch {
		case f.CanInt():
			if f.OverflowInt(x) {
				return fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, x, f.Type())
			}
			f.SetInt(x)
			return nil
		case f.CanUint():
			if x < 0 || f.OverflowUint(uint64(x)) {
				return fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, x, f.Type())
			}
			f.SetUint(uint64(x))
			return nil
		}
	case float64:
		if !f.CanFloat() {
			break
		}
		if f.OverflowFloat(x) {
			return fmt.Errorf("%w: %g does not fit %s", ErrOutOfRange, x, f.Type())
		}
		f.SetFloat(x)
		return nil
	case bool:
		if f.Kind() != reflect.Bool {
			break
		}
		f.SetBool(x)
		return nil
	case time.Time:
		if f.Type() != timeType {
			break
		}
		f.Set(reflect.ValueOf(x))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, f.Type())
}
