package todo

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/JonMunkholm/xlport/internal/core"
	"github.com/JonMunkholm/xlport/internal/memento"
)

// List parameters of the bulk update type.
const (
	ParamManager     = "manager" // encoded BulkUpdateManager memento
	ParamFileName    = "fileName"
	ParamCategory    = "category"
	ParamSubcategory = "subcategory"
	ParamComplete    = "complete"
)

// BulkUpdateManager selects the items a bulk update exports. It is a view
// model, so a selection can be handed around as a memento and replayed.
type BulkUpdateManager struct {
	FileName    string
	Category    Category    // empty matches every category
	Subcategory Subcategory // empty matches every subcategory
	Complete    *bool       // nil matches open and complete items
}

// ParseBulkUpdateManager builds a manager from list parameters. Missing or
// empty parameters leave the selection open.
func ParseBulkUpdateManager(params core.ListParams) (*BulkUpdateManager, error) {
	m := &BulkUpdateManager{
		FileName:    params[ParamFileName],
		Category:    Category(params[ParamCategory]),
		Subcategory: Subcategory(params[ParamSubcategory]),
	}
	if s := params[ParamComplete]; s != "" {
		complete, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: complete %q is not a boolean", core.ErrInvalidListParams, s)
		}
		m.Complete = &complete
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the selection names known values.
func (m *BulkUpdateManager) Validate() error {
	if m.Category != "" && !slices.Contains(m.Category.Members(), string(m.Category)) {
		return fmt.Errorf("%w: unknown category %q", core.ErrInvalidListParams, m.Category)
	}
	if m.Subcategory == "" {
		return nil
	}
	if m.Subcategory.Category() == "" {
		return fmt.Errorf("%w: unknown subcategory %q", core.ErrInvalidListParams, m.Subcategory)
	}
	if m.Category != "" && m.Subcategory.Category() != m.Category {
		return fmt.Errorf("%w: subcategory %s does not belong to category %s",
			core.ErrInvalidListParams, m.Subcategory, m.Category)
	}
	return nil
}

// Matches reports whether it is part of the selection.
func (m *BulkUpdateManager) Matches(it *Item) bool {
	switch {
	case m.Category != "" && it.Category != m.Category:
		return false
	case m.Subcategory != "" && it.Subcategory != m.Subcategory:
		return false
	case m.Complete != nil && it.Complete != *m.Complete:
		return false
	}
	return true
}

// LineItems returns one line item per selected item.
func (m *BulkUpdateManager) LineItems(ctx context.Context, repo Repository) ([]*BulkUpdateLineItem, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]*BulkUpdateLineItem, 0, len(items))
	for _, it := range items {
		if m.Matches(it) {
			lines = append(lines, NewLineItem(it))
		}
	}
	return lines, nil
}

// managerFor returns the manager a bulk update export runs with. An encoded
// manager takes precedence over the individual parameters.
func managerFor(ctx context.Context, bridge *memento.Bridge, params core.ListParams) (*BulkUpdateManager, error) {
	enc := params[ParamManager]
	if enc == "" {
		return ParseBulkUpdateManager(params)
	}
	v, err := bridge.Instantiate(ctx, reflect.TypeOf(BulkUpdateManager{}), enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidListParams, err)
	}
	return v.(*BulkUpdateManager), nil
}

func managerMemento(instance any) (*memento.Memento, error) {
	mgr, ok := instance.(*BulkUpdateManager)
	if !ok || mgr == nil {
		return nil, fmt.Errorf("%T is not a bulk update manager", instance)
	}
	m := memento.New().
		Set("fileName", mgr.FileName).
		Set("category", string(mgr.Category)).
		Set("subcategory", string(mgr.Subcategory))
	if mgr.Complete != nil {
		m.Set("completed", *mgr.Complete)
	}
	return m, nil
}

func instantiateManager(_ context.Context, m *memento.Memento) (any, error) {
	mgr := &BulkUpdateManager{
		FileName:    m.Text("fileName"),
		Category:    Category(m.Text("category")),
		Subcategory: Subcategory(m.Text("subcategory")),
	}
	if m.Has("completed") {
		complete, err := m.Bool("completed")
		if err != nil {
			return nil, err
		}
		mgr.Complete = &complete
	}
	if err := mgr.Validate(); err != nil {
		return nil, err
	}
	return mgr, nil
}
