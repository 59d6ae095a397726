package core

import (
	"context"
	"reflect"

	"github.com/JonMunkholm/xlport/internal/schema"
)

// Introspector discovers the tabular properties of a record type.
// Implementations must be safe for concurrent use.
type Introspector interface {
	// ExportableProperties returns the non-hidden properties in declaration order.
	ExportableProperties(t reflect.Type) ([]*schema.Property, error)
	// PropertyNamed finds a property by exact name among all properties.
	PropertyNamed(t reflect.Type, name string) (*schema.Property, bool, error)
}

// ReferenceResolver converts entity references to bookmarks and back.
type ReferenceResolver interface {
	BookmarkFor(entity any) (string, error)
	// Resolve returns nil, nil when the bookmark matches nothing of the
	// expected type.
	Resolve(ctx context.Context, bookmark string, expected reflect.Type) (any, error)
}

// ViewModelBridge rebuilds view models, whose state is derived rather than
// stored, from a memento of a decoded instance.
type ViewModelBridge interface {
	IsViewModel(t reflect.Type) bool
	Memento(instance any) (string, error)
	Instantiate(ctx context.Context, t reflect.Type, memento string) (any, error)
}
