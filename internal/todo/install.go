package todo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/JonMunkholm/xlport/internal/bookmark"
	"github.com/JonMunkholm/xlport/internal/core"
	"github.com/JonMunkholm/xlport/internal/memento"
	"github.com/JonMunkholm/xlport/internal/schema"
)

// Bookmark type name and registry keys of the to-do module.
const (
	BookmarkType  = "todo"
	KeyItems      = "todo-items"
	KeyBulkUpdate = "todo-bulk-update"
)

// Install registers the to-do types with the bookmark service, the view
// model bridge and the type registry. The bulk update type is filtered by
// a BulkUpdateManager built from its list parameters.
func Install(repo Repository, bookmarks *bookmark.Service, bridge *memento.Bridge, registry *core.Registry) error {
	lookup := func(ctx context.Context, id string) (schema.Entity, error) {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, bookmark.ErrNotFound
		}
		it, err := repo.Get(ctx, parsed)
		if errors.Is(err, ErrNotFound) {
			return nil, bookmark.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return it, nil
	}
	if err := bookmarks.Register(BookmarkType, reflect.TypeOf(&Item{}), lookup); err != nil {
		return err
	}

	h := lineItemHandler{bookmarks: bookmarks}
	err := bridge.Register(reflect.TypeOf(BulkUpdateLineItem{}), memento.Handler{
		Memento:     h.memento,
		Instantiate: h.instantiate,
	})
	if err != nil {
		return err
	}
	err = bridge.Register(reflect.TypeOf(BulkUpdateManager{}), memento.Handler{
		Memento:     managerMemento,
		Instantiate: instantiateManager,
	})
	if err != nil {
		return err
	}

	defs := []core.TypeDefinition{
		{
			Info: core.TypeInfo{Key: KeyItems, Group: "Todo", Label: "To-do items"},
			Type: reflect.TypeOf(Item{}),
			List: func(ctx context.Context, _ core.ListParams) (any, error) { return repo.List(ctx) },
		},
		{
			Info: core.TypeInfo{Key: KeyBulkUpdate, Group: "Todo", Label: "To-do bulk update"},
			Type: reflect.TypeOf(BulkUpdateLineItem{}),
			List: func(ctx context.Context, params core.ListParams) (any, error) {
				m, err := managerFor(ctx, bridge, params)
				if err != nil {
					return nil, err
				}
				return m.LineItems(ctx, repo)
			},
			Apply: func(ctx context.Context, records []any) (int, error) {
				lines := make([]*BulkUpdateLineItem, len(records))
				for i, rec := range records {
					line, ok := rec.(*BulkUpdateLineItem)
					if !ok {
						return 0, fmt.Errorf("record %d is %T, want *BulkUpdateLineItem", i, rec)
					}
					lines[i] = line
				}
				return BulkUpdate(ctx, repo, lines)
			},
		},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
