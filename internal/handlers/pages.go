// Package handlers builds the view models rendered by the page templates.
package handlers

import (
	"html/template"

	"finitefield.org/flashcards/internal/deck"
	"finitefield.org/flashcards/internal/reveal"
	"finitefield.org/flashcards/internal/session"
)

// PracticePath is where the practice loop lives.
const PracticePath = "/practice"

// CategoryItem is a category checkbox on the landing page.
type CategoryItem struct {
	Name     string
	Selected bool
}

// SubcategoryItem is a subcategory checkbox tagged with its owning category.
type SubcategoryItem struct {
	Name     string
	Category string
	Selected bool
}

// LandingData is the view model for the filter form page.
type LandingData struct {
	Title    string
	DeckName string
	Path     string

	Categories    []CategoryItem
	Subcategories []SubcategoryItem
	TotalCount    int64
	// FilteredCount is set only when filters are active.
	FilteredCount *int64

	Keywords                string
	AllCategoriesChecked    bool
	AllSubcategoriesChecked bool
	IncludeImages           bool
	Flash                   string
	CSRFToken               string
}

// LandingInput gathers what BuildLandingData needs from the store.
type LandingInput struct {
	DeckName      string
	Categories    []string
	Subcategories []deck.Subcategory
	TotalCount    int64
	FilteredCount *int64
	CSRFToken     string
}

// BuildLandingData renders the session's filters against the deck taxonomy
// and consumes the pending flash message.
func BuildLandingData(data *session.Data, in LandingInput) LandingData {
	filter := data.Filter
	out := LandingData{
		Title:                   in.DeckName,
		DeckName:                in.DeckName,
		Path:                    "/",
		TotalCount:              in.TotalCount,
		Keywords:                filter.KeywordString(),
		AllCategoriesChecked:    filter.AllCategories(),
		AllSubcategoriesChecked: filter.AllSubcategories(),
		IncludeImages:           filter.IncludeImages,
		Flash:                   data.ConsumeFlash(),
		CSRFToken:               in.CSRFToken,
	}
	if filter.Active() {
		out.FilteredCount = in.FilteredCount
	}
	out.Categories = make([]CategoryItem, 0, len(in.Categories))
	for _, name := range in.Categories {
		out.Categories = append(out.Categories, CategoryItem{Name: name, Selected: filter.HasCategory(name)})
	}
	out.Subcategories = make([]SubcategoryItem, 0, len(in.Subcategories))
	for _, sub := range in.Subcategories {
		out.Subcategories = append(out.Subcategories, SubcategoryItem{
			Name:     sub.Name,
			Category: sub.Category,
			Selected: filter.HasSubcategory(sub.Name),
		})
	}
	return out
}

// PracticeData is the view model for a single flashcard.
type PracticeData struct {
	Title        string
	DeckName     string
	Path         string
	Category     string
	Subcategory  string
	QuestionHTML template.HTML
	AnswerHTML   template.HTML
	Count        int64
	ImageOnly    bool
	AnswerHidden bool
	ActionLabel  string
	NextURL      string
}

// BuildPracticeData renders card. Card HTML is trusted: it was sanitised or
// escaped when the deck was loaded.
func BuildPracticeData(deckName string, card deck.Flashcard, count int64) PracticeData {
	rc := reveal.New(reveal.Card{NextURL: PracticePath, ImageOnly: card.ImageOnly}, nil)
	return PracticeData{
		Title:        deckName,
		DeckName:     deckName,
		Path:         PracticePath,
		Category:     card.Category,
		Subcategory:  card.Subcategory,
		QuestionHTML: template.HTML(card.QuestionHTML),
		AnswerHTML:   template.HTML(card.AnswerHTML),
		Count:        count,
		ImageOnly:    card.ImageOnly,
		AnswerHidden: rc.AnswerHidden(),
		ActionLabel:  rc.Label(),
		NextURL:      PracticePath,
	}
}

// MessageData is the view model for simple notice pages.
type MessageData struct {
	Title     string
	DeckName  string
	Path      string
	Heading   string
	Message   string
	LinkHref  string
	LinkLabel string
}

// BuildResetData is shown after the session is cleared.
func BuildResetData(deckName string) MessageData {
	return MessageData{
		Title:     "Session Reset",
		DeckName:  deckName,
		Path:      "/reset_session",
		Heading:   "Session Reset",
		Message:   "Your session has been cleared.",
		LinkHref:  "/",
		LinkLabel: "Go Home",
	}
}
