// Package bookmark identifies persistent entities by an opaque, printable
// token and resolves tokens back to entities.
//
// A bookmark has the form "<type>:<id>", where type is the name an entity
// type was registered under and id is the entity's own identifier:
//
//	todo:4b1f9c6e-1d4a-4f0c-9a0e-2f3c1b2a9d77
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/xlport/internal/schema"
)

// ErrNotFound is returned by a LookupFunc when no entity has the given id.
var ErrNotFound = errors.New("entity not found")

// ErrInvalid is returned by Parse for text that is not a bookmark.
var ErrInvalid = errors.New("invalid bookmark")

// Bookmark identifies one entity.
type Bookmark struct {
	Type string
	ID   string
}

func (b Bookmark) String() string {
	return b.Type + ":" + b.ID
}

// Parse splits s at its first colon. Both parts must be non-empty.
func Parse(s string) (Bookmark, error) {
	typ, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || typ == "" || id == "" {
		return Bookmark{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return Bookmark{Type: typ, ID: id}, nil
}

// LookupFunc loads the entity with the given id. It returns ErrNotFound (or
// a nil entity) when there is none.
type LookupFunc func(ctx context.Context, id string) (schema.Entity, error)

type binding struct {
	name   string
	goType reflect.Type
	lookup LookupFunc
}

// Service maps entity types to bookmark type names and resolves bookmarks.
// It is safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	byName map[string]*binding
	byType map[reflect.Type]*binding
}

// NewService returns a Service with no registered types.
func NewService() *Service {
	return &Service{
		byName: make(map[string]*binding),
		byType: make(map[reflect.Type]*binding),
	}
}

// Register binds an entity pointer type to a bookmark type name.
func (s *Service) Register(name string, goType reflect.Type, lookup LookupFunc) error {
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("bookmark type name %q must be non-empty and contain no colon", name)
	}
	if goType == nil || lookup == nil {
		return errors.New("bookmark type needs a Go type and a lookup")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("bookmark type already registered: %s", name)
	}
	if existing, exists := s.byType[goType]; exists {
		return fmt.Errorf("%s already registered as %s", goType, existing.name)
	}
	b := &binding{name: name, goType: goType, lookup: lookup}
	s.byName[name] = b
	s.byType[goType] = b
	return nil
}

// Types returns the registered bookmark type names, sorted.
func (s *Service) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// For returns the bookmark of entity, whose type must be registered.
func (s *Service) For(entity schema.Entity) (Bookmark, error) {
	if isNil(entity) {
		return Bookmark{}, errors.New("bookmark of nil entity")
	}

	s.mu.RLock()
	b, ok := s.byType[reflect.TypeOf(entity)]
	s.mu.RUnlock()
	if !ok {
		return Bookmark{}, fmt.Errorf("no bookmark type registered for %T", entity)
	}

	id := entity.EntityID()
	if id == "" {
		return Bookmark{}, fmt.Errorf("%T has no id", entity)
	}
	return Bookmark{Type: b.name, ID: id}, nil
}

// BookmarkFor returns the bookmark text of entity.
func (s *Service) BookmarkFor(entity any) (string, error) {
	e, ok := entity.(schema.Entity)
	if !ok {
		return "", fmt.Errorf("%T is not an entity", entity)
	}
	b, err := s.For(e)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Lookup loads the entity a bookmark points at. It returns nil, nil when the
// type is unknown or the entity does not exist.
func (s *Service) Lookup(ctx context.Context, b Bookmark) (schema.Entity, error) {
	s.mu.RLock()
	bind, ok := s.byName[b.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	entity, err := bind.lookup(ctx, b.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", b, err)
	}
	if isNil(entity) {
		return nil, nil
	}
	return entity, nil
}

// Resolve parses text as a bookmark and loads its entity. It returns nil,
// nil when the text is not a bookmark, nothing matches, or the entity is not
// of the expected type.
func (s *Service) Resolve(ctx context.Context, text string, expected reflect.Type) (any, error) {
	b, err := Parse(text)
	if err != nil {
		return nil, nil
	}
	entity, err := s.Lookup(ctx, b)
	if err != nil || entity == nil {
		return nil, err
	}
	if expected != nil && !reflect.TypeOf(entity).AssignableTo(expected) {
		return nil, nil
	}
	return entity, nil
}

func isNil(e schema.Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
