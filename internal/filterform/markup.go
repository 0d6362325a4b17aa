package filterform

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Element ids and classes the landing page renders for the filter form.
const (
	FormID                 = "filter-form"
	AllCategoriesID        = "all-categories-cb"
	CategoryListID         = "category-list"
	CategoryClass          = "category-cb"
	AllSubcategoriesID     = "all-subcategories-cb"
	SubcategoryListID      = "subcategory-list"
	SubcategoryClass       = "subcategory-cb"
	KeywordsID             = "keywords-input"
	AllImagesID            = "all-images-cb"
	subcategoryOwnerAttr   = "data-category"
	subcategoryItemClass   = "subcategory-item"
	defaultFormMethod      = "GET"
	hiddenInputSelector    = `input[type="hidden"]`
	checkboxInputSelector  = `input[type="checkbox"]`
	styleDisplayNoneMarker = "display:none"
)

// Form is a filter form recovered from rendered HTML.
type Form struct {
	Action   string
	Method   string
	Controls Controls
}

// ParseMarkup locates the filter form controls in an HTML document.
func ParseMarkup(r io.Reader) (*Form, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse filter form: %w", err)
	}
	form := doc.Find("#" + FormID).First()
	if form.Length() == 0 {
		return nil, missing("form #" + FormID)
	}

	out := &Form{
		Action: attr(form, "action"),
		Method: strings.ToUpper(attr(form, "method")),
	}
	if out.Method == "" {
		out.Method = defaultFormMethod
	}

	c := &out.Controls
	if c.AllCategories, err = checkboxByID(form, AllCategoriesID); err != nil {
		return nil, err
	}
	if c.AllSubcategories, err = checkboxByID(form, AllSubcategoriesID); err != nil {
		return nil, err
	}
	if c.CategoryList, err = containerByID(form, CategoryListID); err != nil {
		return nil, err
	}
	if c.SubcategoryList, err = containerByID(form, SubcategoryListID); err != nil {
		return nil, err
	}

	kw := form.Find("#" + KeywordsID).First()
	if kw.Length() == 0 {
		return nil, missing("#" + KeywordsID)
	}
	c.Keywords = &TextInput{
		ID:       KeywordsID,
		Name:     attr(kw, "name"),
		Value:    attr(kw, "value"),
		Disabled: hasAttr(kw, "disabled"),
	}

	form.Find("input." + CategoryClass).Each(func(_ int, s *goquery.Selection) {
		c.Categories = append(c.Categories, checkbox(s))
	})
	form.Find("#" + SubcategoryListID + " " + checkboxInputSelector).Each(func(_ int, s *goquery.Selection) {
		cb := checkbox(s)
		cb.Owner = attr(s, subcategoryOwnerAttr)
		item := s.Closest("." + subcategoryItemClass)
		cb.Hidden = cb.Hidden || isHidden(item)
		c.Subcategories = append(c.Subcategories, cb)
	})

	if img := form.Find("#" + AllImagesID).First(); img.Length() > 0 {
		c.AllImages = checkbox(img)
	}

	form.Find(hiddenInputSelector).Each(func(_ int, s *goquery.Selection) {
		c.Hidden = append(c.Hidden, Hidden{Name: attr(s, "name"), Value: attr(s, "value")})
	})
	return out, nil
}

func checkboxByID(form *goquery.Selection, id string) (*Checkbox, error) {
	s := form.Find("#" + id).First()
	if s.Length() == 0 {
		return nil, missing("#" + id)
	}
	return checkbox(s), nil
}

func containerByID(form *goquery.Selection, id string) (*Container, error) {
	s := form.Find("#" + id).First()
	if s.Length() == 0 {
		return nil, missing("#" + id)
	}
	return &Container{ID: id, Hidden: isHidden(s)}, nil
}

func checkbox(s *goquery.Selection) *Checkbox {
	return &Checkbox{
		ID:       attr(s, "id"),
		Name:     attr(s, "name"),
		Value:    attr(s, "value"),
		Checked:  hasAttr(s, "checked"),
		Disabled: hasAttr(s, "disabled"),
		Hidden:   isHidden(s),
	}
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func hasAttr(s *goquery.Selection, name string) bool {
	_, ok := s.Attr(name)
	return ok
}

func isHidden(s *goquery.Selection) bool {
	if s.Length() == 0 {
		return false
	}
	if hasAttr(s, "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(s, "style")), " ", "")
	return strings.Contains(style, styleDisplayNoneMarker)
}
