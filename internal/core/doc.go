// Package core converts collections of typed records to single-sheet
// spreadsheet documents and back.
//
// The package has no transport dependencies. Web handlers, the command line
// tool and tests all drive it through a [Converter].
//
// # Properties and Value Kinds
//
// A record type is any struct. Its tabular properties come from an
// [Introspector] (by default a [schema.Reflector] reading `sheet` struct
// tags). Each property has a closed [schema.Kind] that selects the cell
// encoding:
//
//	text         text cell
//	integer      number cell, must be integral and fit the field on import
//	decimal      number cell
//	boolean      boolean cell
//	date         number cell holding a serial day, with a date format
//	enumeration  text cell holding the member name, matched exactly
//	reference    text cell holding a bookmark, resolved on import
//
// Blank cells never touch a property. Nil pointers, nil references and the
// zero time are written as blank cells.
//
// # Export
//
//	err := conv.Export(ctx, reflect.TypeOf(todo.Item{}), items, w)
//
// The header row lists the exportable (non-hidden) properties in declaration
// order and is frozen. Every record becomes one data row.
//
// # Import
//
//	items, err := core.Import[todo.Item](ctx, conv, r)
//
// Header cells are bound to properties by exact name; hidden properties bind
// too, unknown names are ignored. Rows with nothing in any bound column are
// skipped. The first failing row aborts the import with a [RowError] naming
// the zero-based sheet row (the header is row 0).
//
// Types registered with a [ViewModelBridge] are rebuilt from a memento of
// the decoded instance before being returned.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Codes are grouped by category:
//
//   - FMT001-FMT002: Document format errors
//   - ROW001: Row failures
//   - VAL001-VAL006: Cell value errors
//   - REF001: Unresolved references
//   - TYP001-TYP002: Unsupported or unknown record types
//   - FILE001-FILE003: File errors (size, missing, empty)
//   - IMP001-IMP003: Import session errors (busy, cancelled, timeout)
//   - DB001-DB002: Persistence errors when applying imported records
package core
