package schema

import (
	"reflect"
	"time"
)

// Kind is the closed set of value kinds a property can have.
type Kind int

const (
	KindUnsupported Kind = iota
	KindText
	KindInteger
	KindDecimal
	KindBoolean
	KindDate
	KindEnum
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindEnum:
		return "enumeration"
	case KindReference:
		return "reference"
	default:
		return "unsupported"
	}
}

// ValueKind is a property's kind plus the details its codec needs.
type ValueKind struct {
	Kind    Kind
	Enum    string       // enumeration type name (KindEnum)
	Members []string     // enumeration member names in declaration order (KindEnum)
	Target  reflect.Type // referenced entity type, always a pointer (KindReference)
}

func (v ValueKind) String() string {
	switch v.Kind {
	case KindEnum:
		return "enumeration " + v.Enum
	case KindReference:
		return "reference to " + v.Target.String()
	default:
		return v.Kind.String()
	}
}

// HasMember reports whether name is exactly one of the enumeration's members.
func (v ValueKind) HasMember(name string) bool {
	for _, m := range v.Members {
		if m == name {
			return true
		}
	}
	return false
}

// Enumeration is implemented by named string types with a fixed member set.
// Members must be callable on the zero value.
type Enumeration interface {
	Members() []string
}

// Entity is implemented by persistent records that other records can refer
// to. A struct field of a pointer type implementing Entity is a reference.
type Entity interface {
	EntityID() string
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	entityType      = reflect.TypeOf((*Entity)(nil)).Elem()
	enumerationType = reflect.TypeOf((*Enumeration)(nil)).Elem()
)

// KindOf classifies a Go type. Pointers to scalar types take the kind of
// their element; pointers to entities are references.
func KindOf(t reflect.Type) ValueKind {
	if t.Kind() == reflect.Pointer {
		if t.Implements(entityType) && t.Elem().Kind() == reflect.Struct {
			return ValueKind{Kind: KindReference, Target: t}
		}
		if t.Elem().Kind() == reflect.Pointer {
			return ValueKind{Kind: KindUnsupported}
		}
		return KindOf(t.Elem())
	}

	if t == timeType {
		return ValueKind{Kind: KindDate}
	}
	if t.Kind() == reflect.String && t.Implements(enumerationType) {
		members := reflect.Zero(t).Interface().(Enumeration).Members()
		return ValueKind{Kind: KindEnum, Enum: t.Name(), Members: append([]string(nil), members...)}
	}

	switch t.Kind() {
	case reflect.String:
		return ValueKind{Kind: KindText}
	case reflect.Bool:
		return ValueKind{Kind: KindBoolean}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ValueKind{Kind: KindInteger}
	case reflect.Float32, reflect.Float64:
		return ValueKind{Kind: KindDecimal}
	default:
		return ValueKind{Kind: KindUnsupported}
	}
}
