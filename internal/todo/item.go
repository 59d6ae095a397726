// Package todo is a small to-do list domain used to demonstrate spreadsheet
// export and bulk update by reimport.
package todo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups to-do items.
type Category string

const (
	CategoryProfessional Category = "Professional"
	CategoryDomestic     Category = "Domestic"
	CategoryOther        Category = "Other"
)

func (Category) Members() []string {
	return []string{string(CategoryProfessional), string(CategoryDomestic), string(CategoryOther)}
}

// Subcategories returns the subcategories valid for c.
func (c Category) Subcategories() []Subcategory {
	var subs []Subcategory
	for _, name := range Subcategory("").Members() {
		if s := Subcategory(name); s.Category() == c {
			subs = append(subs, s)
		}
	}
	return subs
}

// Subcategory refines a Category.
type Subcategory string

const (
	SubcategoryOpenSource Subcategory = "OpenSource"
	SubcategoryConsulting Subcategory = "Consulting"
	SubcategoryEducation  Subcategory = "Education"
	SubcategoryMarketing  Subcategory = "Marketing"
	SubcategoryShopping   Subcategory = "Shopping"
	SubcategoryHousework  Subcategory = "Housework"
	SubcategoryGarden     Subcategory = "Garden"
	SubcategoryChores     Subcategory = "Chores"
	SubcategoryOther      Subcategory = "Other"
)

func (Subcategory) Members() []string {
	return []string{
		string(SubcategoryOpenSource), string(SubcategoryConsulting), string(SubcategoryEducation),
		string(SubcategoryMarketing), string(SubcategoryShopping), string(SubcategoryHousework),
		string(SubcategoryGarden), string(SubcategoryChores), string(SubcategoryOther),
	}
}

// Category returns the category s belongs to, or "" for an unknown value.
func (s Subcategory) Category() Category {
	switch s {
	case SubcategoryOpenSource, SubcategoryConsulting, SubcategoryEducation, SubcategoryMarketing:
		return CategoryProfessional
	case SubcategoryShopping, SubcategoryHousework, SubcategoryGarden, SubcategoryChores:
		return CategoryDomestic
	case SubcategoryOther:
		return CategoryOther
	default:
		return ""
	}
}

// ErrInvalidItem is wrapped by every validation failure.
var ErrInvalidItem = errors.New("invalid to-do item")

// Item is one entry of the to-do list.
type Item struct {
	ID          uuid.UUID `sheet:"-"`
	Description string
	Category    Category
	Subcategory Subcategory
	OwnedBy     string
	Cost        float64
	DueBy       time.Time
	Complete    bool
	Notes       string
}

// EntityID identifies the item in bookmarks.
func (i *Item) EntityID() string {
	if i.ID == uuid.Nil {
		return ""
	}
	return i.ID.String()
}

// Validate checks the fields a stored item must satisfy.
func (i *Item) Validate() error {
	return validate(i.Description, i.Category, i.Subcategory, i.Cost)
}

func validate(description string, c Category, s Subcategory, cost float64) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidItem)
	}
	if c == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidItem)
	}
	if s != "" && s.Category() != c {
		return fmt.Errorf("%w: subcategory %s does not belong to category %s", ErrInvalidItem, s, c)
	}
	if cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidItem)
	}
	return nil
}

func (i *Item) clone() *Item {
	c := *i
	return &c
}
