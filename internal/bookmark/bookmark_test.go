package bookmark

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/xlport/internal/schema"
)

type widget struct{ id string }

func (w *widget) EntityID() string { return w.id }

type gadget struct{ id string }

func (g *gadget) EntityID() string { return g.id }

func newTestService(t *testing.T) (*Service, *widget) {
	t.Helper()
	w1 := &widget{id: "w1"}
	s := NewService()
	err := s.Register("widget", reflect.TypeOf(&widget{}), func(_ context.Context, id string) (schema.Entity, error) {
		switch id {
		case "w1":
			return w1, nil
		case "broken":
			return nil, errors.New("disk on fire")
		default:
			return nil, ErrNotFound
		}
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return s, w1
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Bookmark
		wantErr bool
	}{
		{in: "todo:123", want: Bookmark{Type: "todo", ID: "123"}},
		{in: "todo:a:b", want: Bookmark{Type: "todo", ID: "a:b"}},
		{in: " todo:1 ", want: Bookmark{Type: "todo", ID: "1"}},
		{in: "todo", wantErr: true},
		{in: ":1", wantErr: true},
		{in: "todo:", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalid", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.want.Type+":"+tt.want.ID {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestService_BookmarkFor(t *testing.T) {
	s, w1 := newTestService(t)

	got, err := s.BookmarkFor(w1)
	if err != nil {
		t.Fatalf("BookmarkFor() error = %v", err)
	}
	if got != "widget:w1" {
		t.Errorf("BookmarkFor() = %q, want %q", got, "widget:w1")
	}

	if _, err := s.BookmarkFor(&gadget{id: "g"}); err == nil {
		t.Error("unregistered type should fail")
	}
	if _, err := s.BookmarkFor((*widget)(nil)); err == nil {
		t.Error("nil entity should fail")
	}
	if _, err := s.BookmarkFor("widget:w1"); err == nil {
		t.Error("non-entity should fail")
	}
}

func TestService_Resolve(t *testing.T) {
	s, w1 := newTestService(t)
	ctx := context.Background()
	widgetType := reflect.TypeOf(&widget{})

	tests := []struct {
		name     string
		text     string
		expected reflect.Type
		want     any
		wantErr  bool
	}{
		{name: "found", text: "widget:w1", expected: widgetType, want: w1},
		{name: "any type", text: "widget:w1", want: w1},
		{name: "missing id", text: "widget:nope", expected: widgetType},
		{name: "unknown type", text: "gizmo:w1", expected: widgetType},
		{name: "not a bookmark", text: "w1", expected: widgetType},
		{name: "wrong expected type", text: "widget:w1", expected: reflect.TypeOf(&gadget{})},
		{name: "lookup failure", text: "widget:broken", expected: widgetType, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(ctx, tt.text, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("Resolve(%q) = %v, want nil", tt.text, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestService_RegisterConflicts(t *testing.T) {
	s, _ := newTestService(t)
	lookup := func(context.Context, string) (schema.Entity, error) { return nil, nil }

	if err := s.Register("widget", reflect.TypeOf(&gadget{}), lookup); err == nil {
		t.Error("duplicate name should fail")
	}
	if err := s.Register("other", reflect.TypeOf(&widget{}), lookup); err == nil {
		t.Error("duplicate type should fail")
	}
	if err := s.Register("a:b", reflect.TypeOf(&gadget{}), lookup); err == nil {
		t.Error("name with colon should fail")
	}
	if err := s.Register("gadget", reflect.TypeOf(&gadget{}), lookup); err != nil {
		t.Fatalf("Register(gadget) error = %v", err)
	}
	if got := s.Types(); !reflect.DeepEqual(got, []string{"gadget", "widget"}) {
		t.Errorf("Types() = %v", got)
	}
}
