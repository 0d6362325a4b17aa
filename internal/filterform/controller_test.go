package filterform

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	messages []string
	payloads []url.Values
	err      error
}

func (r *recorder) Notify(message string) { r.messages = append(r.messages, message) }

func (r *recorder) Submit(payload url.Values) error {
	r.payloads = append(r.payloads, payload)
	return r.err
}

type fixture struct {
	controls Controls
	rec      *recorder
	ctrl     *Controller
}

// newFixture builds categories A and B with subcategories A/a1, A/a2 and B/b1.
func newFixture(t *testing.T, allCategories bool, checked ...string) *fixture {
	t.Helper()

	controls := Controls{
		AllCategories:    &Checkbox{ID: AllCategoriesID, Name: FieldAllCategories, Checked: allCategories},
		CategoryList:     &Container{ID: CategoryListID},
		AllSubcategories: &Checkbox{ID: AllSubcategoriesID, Name: FieldAllSubcategories, Checked: true},
		SubcategoryList:  &Container{ID: SubcategoryListID},
		Keywords:         &TextInput{ID: KeywordsID, Name: FieldKeywords},
		AllImages:        &Checkbox{ID: AllImagesID, Name: FieldAllImages, Checked: true},
		Hidden:           []Hidden{{Name: "csrf_token", Value: "tok"}},
	}
	for _, name := range []string{"A", "B"} {
		cb := &Checkbox{Name: FieldCategories, Value: name}
		for _, c := range checked {
			if c == name {
				cb.Checked = true
			}
		}
		controls.Categories = append(controls.Categories, cb)
	}
	for _, sub := range [][2]string{{"A", "a1"}, {"A", "a2"}, {"B", "b1"}} {
		controls.Subcategories = append(controls.Subcategories, &Checkbox{
			Name:  FieldSubcategories,
			Value: sub[1],
			Owner: sub[0],
		})
	}

	rec := &recorder{}
	ctrl, err := New(controls, WithNotifier(rec), WithSubmitter(rec))
	require.NoError(t, err)
	return &fixture{controls: controls, rec: rec, ctrl: ctrl}
}

func (f *fixture) sub(owner, value string) *Checkbox {
	for _, s := range f.controls.Subcategories {
		if s.Owner == owner && s.Value == value {
			return s
		}
	}
	return nil
}

func requireAllCategoriesCascade(t *testing.T, c Controls) {
	t.Helper()

	require.True(t, c.AllCategories.Checked)
	require.True(t, c.CategoryList.Hidden)
	for _, cb := range c.Categories {
		require.False(t, cb.Checked, cb.Value)
		require.True(t, cb.Disabled, cb.Value)
	}
	require.True(t, c.AllSubcategories.Checked)
	require.True(t, c.AllSubcategories.Disabled)
	require.True(t, c.SubcategoryList.Hidden)
	for _, s := range c.Subcategories {
		require.True(t, s.Disabled, s.Value)
	}
}

func TestNewRequiresControls(t *testing.T) {
	_, err := New(Controls{})
	require.ErrorIs(t, err, ErrMissingControl)

	f := newFixture(t, true)
	controls := f.controls
	controls.Categories = append([]*Checkbox{nil}, controls.Categories...)
	_, err = New(controls)
	require.ErrorIs(t, err, ErrMissingControl)
}

func TestAllCategoriesOnAppliesCascade(t *testing.T) {
	f := newFixture(t, false, "A", "B")
	require.NoError(t, f.ctrl.SetAllSubcategories(false))
	require.NoError(t, f.ctrl.SetSubcategory("A", "a2", false))

	require.NoError(t, f.ctrl.SetAllCategories(true))

	requireAllCategoriesCascade(t, f.controls)
}

func TestAllCategoriesOffChecksEveryCategory(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.ctrl.SetAllCategories(false))

	c := f.controls
	require.False(t, c.AllCategories.Checked)
	require.False(t, c.CategoryList.Hidden)
	for _, cb := range c.Categories {
		require.True(t, cb.Checked)
		require.False(t, cb.Disabled)
	}
	require.False(t, c.AllSubcategories.Disabled)
	require.True(t, c.AllSubcategories.Checked)
	for _, s := range c.Subcategories {
		require.False(t, s.Hidden)
		require.False(t, s.Disabled)
	}
}

func TestAllCategoriesOffWithoutCategoriesAutoCorrects(t *testing.T) {
	rec := &recorder{}
	controls := Controls{
		AllCategories:    &Checkbox{Name: FieldAllCategories, Checked: true},
		CategoryList:     &Container{},
		AllSubcategories: &Checkbox{Name: FieldAllSubcategories, Checked: true},
		SubcategoryList:  &Container{},
		Keywords:         &TextInput{Name: FieldKeywords},
	}
	ctrl, err := New(controls, WithNotifier(rec), WithSubmitter(rec))
	require.NoError(t, err)

	require.NoError(t, ctrl.SetAllCategories(false))
	requireAllCategoriesCascade(t, controls)
}

func TestUncheckingLastCategoryFlipsAllCategories(t *testing.T) {
	// A checked, B unchecked; unchecking A leaves nothing selected.
	f := newFixture(t, false, "A")

	require.NoError(t, f.ctrl.SetCategory("A", false))

	requireAllCategoriesCascade(t, f.controls)
	a, b := f.controls.Categories[0], f.controls.Categories[1]
	require.False(t, a.Checked)
	require.True(t, a.Disabled)
	require.False(t, b.Checked)
	require.True(t, b.Disabled)
}

func TestCategorySelectionDrivesSubcategoryVisibility(t *testing.T) {
	cases := map[string]struct {
		checked []string
		visible []string
	}{
		"only A":  {checked: []string{"A"}, visible: []string{"a1", "a2"}},
		"only B":  {checked: []string{"B"}, visible: []string{"b1"}},
		"A and B": {checked: []string{"A", "B"}, visible: []string{"a1", "a2", "b1"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, false, "A", "B")
			require.NoError(t, f.ctrl.SetAllSubcategories(false))
			for _, cat := range []string{"A", "B"} {
				want := false
				for _, c := range tc.checked {
					want = want || c == cat
				}
				if !want {
					require.NoError(t, f.ctrl.SetCategory(cat, false))
				}
			}

			for _, s := range f.controls.Subcategories {
				shown := false
				for _, v := range tc.visible {
					shown = shown || v == s.Value
				}
				if shown {
					require.False(t, s.Hidden, s.Value)
					require.False(t, s.Disabled, s.Value)
					require.True(t, s.Checked, s.Value)
					continue
				}
				require.True(t, s.Hidden, s.Value)
				require.False(t, s.Checked, s.Value)
				require.True(t, s.Disabled, s.Value)
			}
		})
	}
}

func TestRecheckingCategoryShowsSubcategoriesUnchecked(t *testing.T) {
	f := newFixture(t, false, "A", "B")
	require.NoError(t, f.ctrl.SetAllSubcategories(false))
	require.NoError(t, f.ctrl.SetCategory("B", false))
	require.NoError(t, f.ctrl.SetCategory("B", true))

	b1 := f.sub("B", "b1")
	require.False(t, b1.Hidden)
	require.False(t, b1.Disabled)
	require.False(t, b1.Checked)
}

func TestAllSubcategoriesToggle(t *testing.T) {
	f := newFixture(t, false, "A")

	require.NoError(t, f.ctrl.SetAllSubcategories(false))
	require.False(t, f.controls.SubcategoryList.Hidden)
	require.True(t, f.sub("A", "a1").Checked)
	require.True(t, f.sub("A", "a2").Checked)
	require.False(t, f.sub("B", "b1").Checked)

	require.NoError(t, f.ctrl.SetAllSubcategories(true))
	require.True(t, f.controls.SubcategoryList.Hidden)
}

func TestDisabledControlsRejectEvents(t *testing.T) {
	f := newFixture(t, true)

	require.ErrorIs(t, f.ctrl.SetAllSubcategories(false), ErrDisabledControl)
	require.ErrorIs(t, f.ctrl.SetCategory("A", true), ErrDisabledControl)
	require.ErrorIs(t, f.ctrl.SetSubcategory("A", "a1", true), ErrDisabledControl)
	require.ErrorIs(t, f.ctrl.SetCategory("Z", true), ErrUnknownControl)
	require.ErrorIs(t, f.ctrl.SetSubcategory("B", "a1", true), ErrUnknownControl)
}

func TestBlockedSubmissionLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, false, "A")
	require.NoError(t, f.ctrl.SetAllSubcategories(false))
	require.NoError(t, f.ctrl.SetSubcategory("A", "a1", false))
	require.NoError(t, f.ctrl.SetSubcategory("A", "a2", false))
	before := f.ctrl.Snapshot()

	ok, err := f.ctrl.Submit()
	require.NoError(t, err)
	require.False(t, ok)

	prevented, err := f.ctrl.KeywordKeyDown("Enter")
	require.NoError(t, err)
	require.True(t, prevented)

	if diff := cmp.Diff(before, f.ctrl.Snapshot()); diff != "" {
		t.Fatalf("state changed (-before +after):\n%s", diff)
	}
	require.Empty(t, f.rec.payloads)
	require.Equal(t, []string{MessageSelectSubcategory, MessageSelectSubcategory}, f.rec.messages)
	require.False(t, f.ctrl.Submitted())
}

func TestSubmissionAllowedWithAllCategories(t *testing.T) {
	f := newFixture(t, true)
	// Stale subcategory state must not matter.
	for _, s := range f.controls.Subcategories {
		s.Checked = false
	}
	f.controls.AllSubcategories.Checked = false

	require.True(t, f.ctrl.Validate())
	ok, err := f.ctrl.Submit()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.rec.payloads, 1)
	require.Empty(t, f.rec.messages)
}

func TestEnterSubmitsExactlyOnce(t *testing.T) {
	f := newFixture(t, false, "A")
	f.ctrl.SetKeywords("rust async")

	prevented, err := f.ctrl.KeywordKeyDown("Enter")
	require.NoError(t, err)
	require.True(t, prevented)
	prevented, err = f.ctrl.KeywordKeyDown("Enter")
	require.NoError(t, err)
	require.True(t, prevented)
	ok, err := f.ctrl.Submit()
	require.NoError(t, err)
	require.False(t, ok)

	require.Len(t, f.rec.payloads, 1)
	require.Equal(t, "rust async", f.rec.payloads[0].Get(FieldKeywords))
	require.True(t, f.ctrl.Submitted())
}

func TestOtherKeysPassThrough(t *testing.T) {
	f := newFixture(t, true)

	prevented, err := f.ctrl.KeywordKeyDown("a")
	require.NoError(t, err)
	require.False(t, prevented)
	require.Empty(t, f.rec.payloads)
}

func TestFailedSubmissionCanBeRetried(t *testing.T) {
	f := newFixture(t, true)
	f.rec.err = errors.New("offline")

	ok, err := f.ctrl.Submit()
	require.Error(t, err)
	require.False(t, ok)
	require.False(t, f.ctrl.Submitted())

	f.rec.err = nil
	ok, err = f.ctrl.Submit()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.rec.payloads, 2)
}

func TestPayloadSkipsDisabledControls(t *testing.T) {
	f := newFixture(t, false, "A")
	require.NoError(t, f.ctrl.SetAllSubcategories(false))
	require.NoError(t, f.ctrl.SetSubcategory("A", "a2", false))
	// Checked but disabled: must not be sent.
	b1 := f.sub("B", "b1")
	b1.Checked = true

	want := url.Values{
		"csrf_token":       {"tok"},
		FieldKeywords:      {""},
		FieldCategories:    {"A"},
		FieldSubcategories: {"a1"},
		FieldAllImages:     {"on"},
	}
	if diff := cmp.Diff(want, f.ctrl.Payload()); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestPayloadWithAllCategories(t *testing.T) {
	f := newFixture(t, true)

	got := f.ctrl.Payload()
	require.Equal(t, "on", got.Get(FieldAllCategories))
	// The forced toggle is disabled, so it is not part of the payload.
	require.False(t, got.Has(FieldAllSubcategories))
	require.False(t, got.Has(FieldCategories))
	require.False(t, got.Has(FieldSubcategories))
}

func TestInitIsIdempotent(t *testing.T) {
	f := newFixture(t, false, "B")
	require.NoError(t, f.ctrl.SetAllSubcategories(false))
	before := f.ctrl.Snapshot()

	f.ctrl.Init()
	f.ctrl.Init()

	if diff := cmp.Diff(before, f.ctrl.Snapshot()); diff != "" {
		t.Fatalf("Init changed state (-before +after):\n%s", diff)
	}
}

func TestInitRepairsRestoredState(t *testing.T) {
	// Back-navigation restored "all categories" off with nothing selected.
	f := newFixture(t, false)

	requireAllCategoriesCascade(t, f.controls)
}
