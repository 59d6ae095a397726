package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/xlport/internal/bookmark"
	"github.com/JonMunkholm/xlport/internal/memento"
)

// BulkUpdateLineItem is one editable spreadsheet row of a bulk update. It
// is a view model: imported rows are rebuilt from a memento so that Item is
// reloaded from the repository rather than taken from the sheet. A nil Item
// means the row creates a new item.
type BulkUpdateLineItem struct {
	Item        *Item
	Description string
	Category    Category
	Subcategory Subcategory
	OwnedBy     string
	Cost        float64
	DueBy       time.Time
	Complete    bool
	Notes       string
}

// NewLineItem returns a line item holding the current values of it.
func NewLineItem(it *Item) *BulkUpdateLineItem {
	return &BulkUpdateLineItem{
		Item:        it,
		Description: it.Description,
		Category:    it.Category,
		Subcategory: it.Subcategory,
		OwnedBy:     it.OwnedBy,
		Cost:        it.Cost,
		DueBy:       it.DueBy,
		Complete:    it.Complete,
		Notes:       it.Notes,
	}
}

// LineItems returns one line item per stored item.
func LineItems(ctx context.Context, repo Repository) ([]*BulkUpdateLineItem, error) {
	return (&BulkUpdateManager{}).LineItems(ctx, repo)
}

func (l *BulkUpdateLineItem) Validate() error {
	return validate(l.Description, l.Category, l.Subcategory, l.Cost)
}

// applyTo copies the editable fields onto it.
func (l *BulkUpdateLineItem) applyTo(it *Item) {
	it.Description = l.Description
	it.Category = l.Category
	it.Subcategory = l.Subcategory
	it.OwnedBy = l.OwnedBy
	it.Cost = l.Cost
	it.DueBy = l.DueBy
	it.Complete = l.Complete
	it.Notes = l.Notes
}

// BulkUpdate saves the changes described by lines and returns the number of
// items created or modified. Lines are validated first and nothing is saved
// if any line is invalid or refers to an item that no longer exists.
func BulkUpdate(ctx context.Context, repo Repository, lines []*BulkUpdateLineItem) (int, error) {
	var changed []*Item
	for i, line := range lines {
		if err := line.Validate(); err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}

		if line.Item == nil {
			it := &Item{}
			line.applyTo(it)
			changed = append(changed, it)
			continue
		}

		current, err := repo.Get(ctx, line.Item.ID)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i+1, err)
		}
		updated := current.clone()
		line.applyTo(updated)
		if !updated.equal(current) {
			changed = append(changed, updated)
		}
	}

	if len(changed) == 0 {
		return 0, nil
	}
	if err := repo.Save(ctx, changed...); err != nil {
		return 0, err
	}
	return len(changed), nil
}

func (i *Item) equal(o *Item) bool {
	return i.ID == o.ID &&
		i.Description == o.Description &&
		i.Category == o.Category &&
		i.Subcategory == o.Subcategory &&
		i.OwnedBy == o.OwnedBy &&
		i.Cost == o.Cost &&
		i.DueBy.Equal(o.DueBy) &&
		i.Complete == o.Complete &&
		i.Notes == o.Notes
}

// lineItemHandler stores line items in mementos, with the item as a
// bookmark.
type lineItemHandler struct {
	bookmarks *bookmark.Service
}

func (h lineItemHandler) memento(instance any) (*memento.Memento, error) {
	line, ok := instance.(*BulkUpdateLineItem)
	if !ok || line == nil {
		return nil, fmt.Errorf("%T is not a line item", instance)
	}

	m := memento.New()
	if line.Item != nil {
		b, err := h.bookmarks.For(line.Item)
		if err != nil {
			return nil, err
		}
		m.Set("item", b.String())
	}
	m.Set("description", line.Description).
		Set("category", string(line.Category)).
		Set("subcategory", string(line.Subcategory)).
		Set("ownedBy", line.OwnedBy).
		Set("cost", line.Cost).
		Set("dueBy", line.DueBy).
		Set("complete", line.Complete).
		Set("notes", line.Notes)
	return m, nil
}

func (h lineItemHandler) instantiate(ctx context.Context, m *memento.Memento) (any, error) {
	line := &BulkUpdateLineItem{
		Description: m.Text("description"),
		Category:    Category(m.Text("category")),
		Subcategory: Subcategory(m.Text("subcategory")),
		OwnedBy:     m.Text("ownedBy"),
		Notes:       m.Text("notes"),
	}

	var err error
	if line.Cost, err = m.Float("cost"); err != nil {
		return nil, err
	}
	if line.DueBy, err = m.Time("dueBy"); err != nil {
		return nil, err
	}
	if line.Complete, err = m.Bool("complete"); err != nil {
		return nil, err
	}

	if ref := m.Text("item"); ref != "" {
		b, err := bookmark.Parse(ref)
		if err != nil {
			return nil, err
		}
		entity, err := h.bookmarks.Lookup(ctx, b)
		if err != nil {
			return nil, err
		}
		it, ok := entity.(*Item)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, b)
		}
		line.Item = it
	}

	if err := line.Validate(); err != nil {
		return nil, err
	}
	return line, nil
}
