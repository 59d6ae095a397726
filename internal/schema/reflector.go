package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// TagName is the struct tag read by the Reflector.
//
//	Name  string `sheet:"title"`        // column "title"
//	Notes string `sheet:",hidden"`      // column "notes", not exported
//	Cache []byte `sheet:"-"`            // not a property
const TagName = "sheet"

// ErrNotStruct is returned for types that are not structs or pointers to structs.
var ErrNotStruct = errors.New("not a struct type")

// Reflector discovers properties from exported struct fields and caches the
// result per type. It is safe for concurrent use.
type Reflector struct {
	mu    sync.RWMutex
	types map[reflect.Type]*typeInfo
}

type typeInfo struct {
	props  []*Property
	byName map[string]*Property
}

// NewReflector returns an empty Reflector.
func NewReflector() *Reflector {
	return &Reflector{types: make(map[reflect.Type]*typeInfo)}
}

// Properties returns every property of t in declaration order, hidden ones
// included. Fields of embedded structs are promoted in place.
func (r *Reflector) Properties(t reflect.Type) ([]*Property, error) {
	info, err := r.info(t)
	if err != nil {
		return nil, err
	}
	return info.props, nil
}

// ExportableProperties returns the properties of t that are not hidden, in
// declaration order.
func (r *Reflector) ExportableProperties(t reflect.Type) ([]*Property, error) {
	info, err := r.info(t)
	if err != nil {
		return nil, err
	}
	props := make([]*Property, 0, len(info.props))
	for _, p := range info.props {
		if !p.Hidden {
			props = append(props, p)
		}
	}
	return props, nil
}

// PropertyNamed looks up a property of t by exact name, hidden ones included.
func (r *Reflector) PropertyNamed(t reflect.Type, name string) (*Property, bool, error) {
	info, err := r.info(t)
	if err != nil {
		return nil, false, err
	}
	p, ok := info.byName[name]
	return p, ok, nil
}

func (r *Reflector) info(t reflect.Type) (*typeInfo, error) {
	t, err := StructType(t)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	info, ok := r.types[t]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	info = &typeInfo{byName: make(map[string]*Property)}
	if err := collect(t, nil, info); err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.types[t]; ok {
		return cached, nil
	}
	r.types[t] = info
	return info, nil
}

// StructType returns t, or its element if t is a pointer, when that is a struct.
func StructType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrNotStruct
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}
	return t, nil
}

func collect(t reflect.Type, parent []int, info *typeInfo) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		index := append(append([]int(nil), parent...), i)

		if field.Anonymous && name == "" && field.Type.Kind() == reflect.Struct {
			if err := collect(field.Type, index, info); err != nil {
				return err
			}
			continue
		}

		if name == "" {
			name = defaultName(field.Name)
		}
		if _, dup := info.byName[name]; dup {
			return fmt.Errorf("duplicate property name %q", name)
		}

		p := &Property{
			Name:   name,
			Field:  field.Name,
			Kind:   KindOf(field.Type),
			Hidden: hasOption(opts, "hidden"),
			GoType: field.Type,
			index:  index,
		}
		info.props = append(info.props, p)
		info.byName[name] = p
	}
	return nil
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}

// defaultName lower-cases the leading capital run of a Go field name:
// DueBy -> dueBy, ID -> id, URLPath -> urlPath.
func defaultName(field string) string {
	runes := []rune(field)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return field
	case n == 1 || n == len(runes):
	default:
		n-- // keep the capital that starts the next word
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
