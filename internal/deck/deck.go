// Package deck holds the flashcard domain types shared by the loaders, the
// store and the HTTP layer.
package deck

import "strings"

// Flashcard is a single question/answer pair with optional taxonomy.
type Flashcard struct {
	ID           int64
	Category     string
	Subcategory  string
	QuestionHTML string
	AnswerHTML   string
	// ImageOnly marks cards built from a bare image: the answer is shown
	// immediately and there is nothing to reveal.
	ImageOnly bool
}

// HasCategory reports whether the card was parsed with a category header.
func (f Flashcard) HasCategory() bool {
	return strings.TrimSpace(f.Category) != ""
}

// Criteria selects the cards a practice session draws from.
//
// A nil Categories or Subcategories slice means "all"; an empty non-nil slice
// means "none".
type Criteria struct {
	Keywords      []string `json:"keywords,omitempty"`
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	IncludeImages bool     `json:"include_images"`
}

// DefaultCriteria matches every card in the deck.
func DefaultCriteria() Criteria {
	return Criteria{IncludeImages: true}
}

// Active reports whether any filter deviates from DefaultCriteria.
func (c Criteria) Active() bool {
	return len(c.Keywords) > 0 || c.Categories != nil || c.Subcategories != nil || !c.IncludeImages
}

// AllCategories reports whether the category filter is off.
func (c Criteria) AllCategories() bool { return c.Categories == nil }

// AllSubcategories reports whether the subcategory filter is off.
func (c Criteria) AllSubcategories() bool { return c.Subcategories == nil }

// HasCategory reports whether name is explicitly selected.
func (c Criteria) HasCategory(name string) bool {
	return contains(c.Categories, name)
}

// HasSubcategory reports whether name is explicitly selected.
func (c Criteria) HasSubcategory(name string) bool {
	return contains(c.Subcategories, name)
}

// KeywordString joins the keywords back into the form the user typed them.
func (c Criteria) KeywordString() string {
	return strings.Join(c.Keywords, " ")
}

// SplitKeywords splits free text on whitespace, dropping empty fields.
func SplitKeywords(raw string) []string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Clone returns a deep copy so callers can mutate slices safely.
func (c Criteria) Clone() Criteria {
	out := c
	out.Keywords = cloneStrings(c.Keywords)
	out.Categories = cloneStrings(c.Categories)
	out.Subcategories = cloneStrings(c.Subcategories)
	return out
}

func contains(values []string, name string) bool {
	for _, v := range values {
		if v == name {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Subcategory pairs a subcategory name with the category it belongs to.
type Subcategory struct {
	Name     string
	Category string
}
