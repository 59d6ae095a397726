package todo

import (
	"context"
	"time"
)

type seedItem struct {
	description string
	category    Category
	subcategory Subcategory
	dueIn       int // days from today, or -1 for none
	cost        float64
}

var seedItems = []seedItem{
	{"Buy milk", CategoryDomestic, SubcategoryShopping, 0, 0.75},
	{"Buy bread", CategoryDomestic, SubcategoryShopping, 0, 1.75},
	{"Buy stamps", CategoryDomestic, SubcategoryShopping, 0, 10.00},
	{"Pick up laundry", CategoryDomestic, SubcategoryChores, 6, 7.50},
	{"Mow lawn", CategoryDomestic, SubcategoryGarden, 6, 0},
	{"Vacuum house", CategoryDomestic, SubcategoryHousework, 3, 0},
	{"Sharpen knives", CategoryDomestic, SubcategoryChores, 14, 0},
	{"Write to penpal", CategoryOther, SubcategoryOther, -1, 0},
	{"Write blog post", CategoryProfessional, SubcategoryMarketing, 7, 0},
	{"Organize brown bag", CategoryProfessional, SubcategoryConsulting, 14, 0},
	{"Submit conference session", CategoryProfessional, SubcategoryEducation, 21, 0},
	{"Stage release", CategoryProfessional, SubcategoryOpenSource, -1, 0},
}

// Seed stores the demo items owned by owner, with due dates relative to
// today.
func Seed(ctx context.Context, repo Repository, owner string, today time.Time) ([]*Item, error) {
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	items := make([]*Item, len(seedItems))
	for i, s := range seedItems {
		items[i] = &Item{
			Description: s.description,
			Category:    s.category,
			Subcategory: s.subcategory,
			OwnedBy:     owner,
			Cost:        s.cost,
		}
		if s.dueIn >= 0 {
			items[i].DueBy = midnight.AddDate(0, 0, s.dueIn)
		}
	}

	if err := repo.Save(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}
