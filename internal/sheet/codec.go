package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is wrapped by every codec error caused by the input bytes
// rather than by the underlying reader.
var ErrMalformed = errors.New("malformed document")

// Format names a document encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Codec reads and writes documents in one format.
type Codec interface {
	Format() Format
	Extension() string
	ContentType() string
	Encode(w io.Writer, doc *Document) error
	Decode(r io.Reader) (*Document, error)
}

// zipSignature starts every Office Open XML package.
var zipSignature = []byte("PK\x03\x04")

// Detect returns the codec for data based on its leading bytes.
// Zip archives are treated as XLSX; anything else as CSV.
func Detect(data []byte) Codec {
	if bytes.HasPrefix(data, zipSignature) {
		return XLSX{}
	}
	return CSV{}
}

// ForFormat returns the codec for a format name (case-insensitive).
func ForFormat(name string) (Codec, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatXLSX, "":
		return XLSX{}, nil
	case FormatCSV:
		return CSV{}, nil
	default:
		return nil, fmt.Errorf("unknown document format %q", name)
	}
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
