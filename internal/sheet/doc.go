// Package sheet provides the in-memory tabular document used by the converter
// and the codecs that read and write it.
//
// A [Document] is an ordered list of rows. Row 0 is the header row, every
// following row is data. Each [Row] holds cells indexed by column; reading a
// column past the end of a row yields a blank cell.
//
// # Cells
//
// A [Cell] is a tagged value: blank, text, number or boolean. Numbers may carry
// a display format hint; the only hint the converter produces is a date format,
// which marks the number as a spreadsheet serial day:
//
//	row.SetCell(0, sheet.TextCell("Buy milk"))
//	row.SetCell(1, sheet.NumberCell(12.5))
//	row.SetCell(2, sheet.DateCell(due, sheet.DefaultDateFormat))
//
// # Codecs
//
// A [Codec] turns a document into bytes and back. Two are provided:
//
//   - [XLSX]: Office Open XML workbooks, first sheet only, frozen header row.
//   - [CSV]: comma-separated text. Cell kinds are inferred on read.
//
// [Detect] picks a codec from the leading bytes of a file.
package sheet
