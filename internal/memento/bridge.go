package memento

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Handler captures and rebuilds one view model type.
type Handler struct {
	// Memento records the state of instance, a pointer to the view model.
	Memento func(instance any) (*Memento, error)
	// Instantiate builds a fully initialized view model from a memento.
	Instantiate func(ctx context.Context, m *Memento) (any, error)
}

// Bridge holds the registered view model types. It is safe for concurrent use.
type Bridge struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]Handler
}

// NewBridge returns a Bridge with no view model types.
func NewBridge() *Bridge {
	return &Bridge{handlers: make(map[reflect.Type]Handler)}
}

// Register makes t, a struct type or pointer to one, a view model.
func (b *Bridge) Register(t reflect.Type, h Handler) error {
	if h.Memento == nil || h.Instantiate == nil {
		return errors.New("view model handler needs Memento and Instantiate")
	}
	t = structType(t)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("view model already registered: %s", t)
	}
	b.handlers[t] = h
	return nil
}

// IsViewModel reports whether t is a registered view model type.
func (b *Bridge) IsViewModel(t reflect.Type) bool {
	_, ok := b.handler(t)
	return ok
}

// Memento returns the encoded memento of instance.
func (b *Bridge) Memento(instance any) (string, error) {
	h, ok := b.handler(reflect.TypeOf(instance))
	if !ok {
		return "", fmt.Errorf("%T is not a view model", instance)
	}
	m, err := h.Memento(instance)
	if err != nil {
		return "", fmt.Errorf("memento of %T: %w", instance, err)
	}
	return m.Encode()
}

// Instantiate rebuilds a view model of type t from an encoded memento.
func (b *Bridge) Instantiate(ctx context.Context, t reflect.Type, memento string) (any, error) {
	h, ok := b.handler(t)
	if !ok {
		return nil, fmt.Errorf("%s is not a view model", t)
	}
	m, err := Parse(memento)
	if err != nil {
		return nil, err
	}
	v, err := h.Instantiate(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", structType(t), err)
	}
	return v, nil
}

func (b *Bridge) handler(t reflect.Type) (Handler, bool) {
	if t == nil {
		return Handler{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handlers[structType(t)]
	return h, ok
}

func structType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
