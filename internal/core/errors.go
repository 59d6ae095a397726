package core

import (
	"fmt"
	"reflect"
)

// FormatError reports input bytes that are not a well-formed document.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid document: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// UnsupportedTypeError reports a property whose Go type has no cell encoding.
type UnsupportedTypeError struct {
	Type     reflect.Type // record type
	Property string
	GoType   reflect.Type // declared property type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported property type: %s.%s has type %s", typeName(e.Type), e.Property, e.GoType)
}

// UnresolvableValueError reports a cell value that is not a member of the
// property's enumeration.
type UnresolvableValueError struct {
	Property string
	Enum     string
	Value    string
}

func (e *UnresolvableValueError) Error() string {
	return fmt.Sprintf("unresolvable value %q for %s: not a member of %s", e.Value, e.Property, e.Enum)
}

// UnresolvedReferenceError reports a bookmark that matches no entity.
type UnresolvedReferenceError struct {
	Property string
	Bookmark string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q for %s", e.Bookmark, e.Property)
}

// CellTypeError reports a cell whose type does not fit the property's kind.
type CellTypeError struct {
	Property string
	Want     string
	Got      string
}

func (e *CellTypeError) Error() string {
	return fmt.Sprintf("wrong cell type for %s: want %s, got %s", e.Property, e.Want, e.Got)
}

// RowError wraps the failure of one data row. Row is the zero-based sheet
// row index; the header is row 0.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("error processing row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
