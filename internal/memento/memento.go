// Package memento captures the state of a view model as a small printable
// string and rebuilds view models from such strings.
package memento

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Memento is a flat key/value bag. Values are strings, booleans, numbers or
// times; times are stored as RFC 3339 text.
type Memento struct {
	values map[string]any
}

// New returns an empty memento.
func New() *Memento {
	return &Memento{values: make(map[string]any)}
}

// Set stores v under key. A nil v removes the key.
func (m *Memento) Set(key string, v any) *Memento {
	switch x := v.(type) {
	case nil:
		delete(m.values, key)
	case time.Time:
		if x.IsZero() {
			delete(m.values, key)
			return m
		}
		m.values[key] = x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		m.values[key] = x.String()
	default:
		m.values[key] = v
	}
	return m
}

// Has reports whether key is present.
func (m *Memento) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the stored keys, sorted.
func (m *Memento) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text returns the value under key as text, or "" when absent.
func (m *Memento) Text(key string) string {
	switch v := m.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the boolean under key, false when absent.
func (m *Memento) Bool(key string) (bool, error) {
	switch v := m.values[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("memento key %q: %v is not a boolean", key, v)
	}
}

// Float returns the number under key, zero when absent.
func (m *Memento) Float(key string) (float64, error) {
	switch v := m.values[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("memento key %q: %v is not a number", key, v)
	}
}

// Int returns the integer under key, zero when absent.
func (m *Memento) Int(key string) (int64, error) {
	switch v := m.values[key].(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return strconv.ParseInt(v.String(), 10, 64)
	default:
		return 0, fmt.Errorf("memento key %q: %v is not an integer", key, v)
	}
}

// Time returns the time under key, the zero time when absent.
func (m *Memento) Time(key string) (time.Time, error) {
	s, ok := m.values[key].(string)
	if !ok || s == "" {
		if m.Has(key) {
			return time.Time{}, fmt.Errorf("memento key %q is not a time", key)
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("memento key %q: %w", key, err)
	}
	return t, nil
}

// Encode returns the memento as URL-safe base64 of its JSON form.
func (m *Memento) Encode() (string, error) {
	data, err := json.Marshal(m.values)
	if err != nil {
		return "", fmt.Errorf("encode memento: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Parse decodes a string produced by Encode. Numbers are kept exact.
func Parse(s string) (*Memento, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse memento: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	values := make(map[string]any)
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("parse memento: %w", err)
	}
	if values == nil {
		values = make(map[string]any)
	}
	return &Memento{values: values}, nil
}
