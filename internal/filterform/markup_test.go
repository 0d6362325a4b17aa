package filterform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleForm = `<!doctype html>
<html><body>
<form id="filter-form" action="/apply_filters" method="post">
  <input type="hidden" name="csrf_token" value="abc">
  <input type="text" id="keywords-input" name="keywords" value="tree">
  <input type="checkbox" id="all-categories-cb" name="all_categories">
  <div id="category-list">
    <input type="checkbox" class="category-cb" name="categories" value="Math" checked>
    <input type="checkbox" class="category-cb" name="categories" value="Physics">
  </div>
  <input type="checkbox" id="all-subcategories-cb" name="all_subcategories">
  <div id="subcategory-list">
    <label class="subcategory-item" data-category="Math"><input type="checkbox" class="subcategory-cb" name="subcategories" value="Algebra" data-category="Math" checked> Algebra</label>
    <label class="subcategory-item" data-category="Physics" hidden><input type="checkbox" class="subcategory-cb" name="subcategories" value="Optics" data-category="Physics" disabled> Optics</label>
  </div>
  <input type="checkbox" id="all-images-cb" name="all_images" checked>
</form>
</body></html>`

func TestParseMarkup(t *testing.T) {
	form, err := ParseMarkup(strings.NewReader(sampleForm))
	require.NoError(t, err)

	require.Equal(t, "/apply_filters", form.Action)
	require.Equal(t, "POST", form.Method)

	c := form.Controls
	require.False(t, c.AllCategories.Checked)
	require.False(t, c.AllSubcategories.Checked)
	require.Equal(t, "tree", c.Keywords.Value)
	require.Equal(t, []Hidden{{Name: "csrf_token", Value: "abc"}}, c.Hidden)

	require.Len(t, c.Categories, 2)
	require.True(t, c.Categories[0].Checked)
	require.Equal(t, "Physics", c.Categories[1].Value)

	require.Len(t, c.Subcategories, 2)
	require.Equal(t, "Math", c.Subcategories[0].Owner)
	require.True(t, c.Subcategories[0].Checked)
	require.True(t, c.Subcategories[1].Hidden)
	require.True(t, c.Subcategories[1].Disabled)

	require.NotNil(t, c.AllImages)
	require.True(t, c.AllImages.Checked)
}

func TestParseMarkupDrivesController(t *testing.T) {
	form, err := ParseMarkup(strings.NewReader(sampleForm))
	require.NoError(t, err)

	ctrl, err := New(form.Controls)
	require.NoError(t, err)

	got := ctrl.Payload()
	require.Equal(t, []string{"Math"}, got[FieldCategories])
	require.Equal(t, []string{"Algebra"}, got[FieldSubcategories])
	require.Equal(t, "abc", got.Get("csrf_token"))

	sel, err := ParseSelection(got)
	require.NoError(t, err)
	crit := sel.Criteria()
	require.Equal(t, []string{"tree"}, crit.Keywords)
	require.Equal(t, []string{"Math"}, crit.Categories)
	require.Equal(t, []string{"Algebra"}, crit.Subcategories)
	require.True(t, crit.IncludeImages)
}

func TestParseMarkupMissingControl(t *testing.T) {
	_, err := ParseMarkup(strings.NewReader(`<form id="filter-form"></form>`))
	require.ErrorIs(t, err, ErrMissingControl)

	_, err = ParseMarkup(strings.NewReader(`<p>nothing here</p>`))
	require.ErrorIs(t, err, ErrMissingControl)
}

func TestParseMarkupDefaultsMethod(t *testing.T) {
	html := strings.Replace(sampleForm, ` method="post"`, "", 1)
	form, err := ParseMarkup(strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, "GET", form.Method)
}
