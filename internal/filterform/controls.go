package filterform

// Checkbox is a checkbox-like control. Subcategory controls carry the
// identifier of their owning category in Owner.
type Checkbox struct {
	ID       string
	Name     string
	Value    string
	Owner    string
	Checked  bool
	Disabled bool
	// Hidden is the control's own visibility, independent of any container.
	Hidden bool
}

// submitValue mirrors the platform default of "on" for checkboxes rendered
// without a value attribute.
func (c *Checkbox) submitValue() string {
	if c.Value == "" {
		return "on"
	}
	return c.Value
}

// Container is an element whose visibility is toggled as a whole.
type Container struct {
	ID     string
	Hidden bool
}

// TextInput is a single-line text field.
type TextInput struct {
	ID       string
	Name     string
	Value    string
	Disabled bool
}

// Hidden is a hidden form input such as the CSRF token.
type Hidden struct {
	Name  string
	Value string
}

// Controls is the set of control references a Controller operates on. The
// host owns the values; the Controller mutates them in place.
type Controls struct {
	AllCategories    *Checkbox
	CategoryList     *Container
	Categories       []*Checkbox
	AllSubcategories *Checkbox
	SubcategoryList  *Container
	Subcategories    []*Checkbox
	Keywords         *TextInput
	// AllImages is the optional "include image cards" toggle. It takes no
	// part in the category cascade.
	AllImages *Checkbox
	Hidden    []Hidden
}

func (c Controls) validate() error {
	switch {
	case c.AllCategories == nil:
		return missing("all categories toggle")
	case c.CategoryList == nil:
		return missing("category list")
	case c.AllSubcategories == nil:
		return missing("all subcategories toggle")
	case c.SubcategoryList == nil:
		return missing("subcategory list")
	case c.Keywords == nil:
		return missing("keywords input")
	}
	for _, cb := range c.Categories {
		if cb == nil {
			return missing("category checkbox")
		}
	}
	for _, cb := range c.Subcategories {
		if cb == nil {
			return missing("subcategory checkbox")
		}
	}
	return nil
}

// Snapshot is a value copy of every control, used to compare states.
type Snapshot struct {
	AllCategories    Checkbox
	CategoryList     Container
	Categories       []Checkbox
	AllSubcategories Checkbox
	SubcategoryList  Container
	Subcategories    []Checkbox
	Keywords         TextInput
	AllImages        *Checkbox
}
