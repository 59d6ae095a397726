package core

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/xlport/internal/schema"
)

type owner struct {
	ID   string
	Name string
}

func (o *owner) EntityID() string { return o.ID }

type shade string

func (shade) Members() []string { return []string{"Red", "Green"} }

// fakeResolver bookmarks owners as "owner:<id>".
type fakeResolver struct {
	owners map[string]*owner
}

func newFakeResolver(owners ...*owner) *fakeResolver {
	r := &fakeResolver{owners: make(map[string]*owner)}
	for _, o := range owners {
		r.owners[o.ID] = o
	}
	return r
}

func (r *fakeResolver) BookmarkFor(entity any) (string, error) {
	o, ok := entity.(*owner)
	if !ok || o == nil {
		return "", errors.New("not an owner")
	}
	return "owner:" + o.ID, nil
}

func (r *fakeResolver) Resolve(_ context.Context, bookmark string, expected reflect.Type) (any, error) {
	id, ok := strings.CutPrefix(bookmark, "owner:")
	if !ok || expected != reflect.TypeOf(&owner{}) {
		return nil, nil
	}
	o, ok := r.owners[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func propertyOf(t *testing.T, typ reflect.Type, name string) *schema.Property {
	t.Helper()
	p, ok, err := schema.NewReflector().PropertyNamed(typ, name)
	if err != nil || !ok {
		t.Fatalf("PropertyNamed(%s, %q) = %v, %v", typ, name, ok, err)
	}
	return p
}
