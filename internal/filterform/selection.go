package filterform

import (
	"net/url"
	"strings"

	"finitefield.org/flashcards/internal/deck"
)

// Form field names shared by the template, the controller and the handler.
const (
	FieldKeywords         = "keywords"
	FieldAllCategories    = "all_categories"
	FieldCategories       = "categories"
	FieldAllSubcategories = "all_subcategories"
	FieldSubcategories    = "subcategories"
	FieldAllImages        = "all_images"
)

// Selection is a submitted filter form, normalized the same way the
// Controller normalizes its controls.
type Selection struct {
	Keywords         []string
	AllCategories    bool
	Categories       []string
	AllSubcategories bool
	Subcategories    []string
	IncludeImages    bool
}

// ParseSelection reads a submitted filter form. An empty category selection
// without the "all categories" toggle is read as "all categories". The only
// rejected state is an explicit category selection without any subcategory,
// reported as ErrNoSubcategorySelected.
func ParseSelection(form url.Values) (Selection, error) {
	sel := Selection{
		Keywords:         deck.SplitKeywords(form.Get(FieldKeywords)),
		AllCategories:    form.Has(FieldAllCategories),
		Categories:       distinct(form[FieldCategories]),
		AllSubcategories: form.Has(FieldAllSubcategories),
		Subcategories:    distinct(form[FieldSubcategories]),
		IncludeImages:    form.Has(FieldAllImages),
	}
	if !sel.AllCategories && len(sel.Categories) == 0 {
		sel.AllCategories = true
	}
	if !sel.AllCategories && !sel.AllSubcategories && len(sel.Subcategories) == 0 {
		return sel, ErrNoSubcategorySelected
	}
	return sel, nil
}

// Criteria converts the selection into store criteria.
func (s Selection) Criteria() deck.Criteria {
	c := deck.Criteria{
		Keywords:      s.Keywords,
		IncludeImages: s.IncludeImages,
	}
	if !s.AllCategories {
		c.Categories = s.Categories
	}
	if !s.AllSubcategories && len(s.Subcategories) > 0 {
		c.Subcategories = s.Subcategories
	}
	return c
}

func distinct(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
