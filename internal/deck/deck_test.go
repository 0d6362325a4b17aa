package deck

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCriteriaInactive(t *testing.T) {
	c := DefaultCriteria()
	require.False(t, c.Active())
	require.True(t, c.AllCategories())
	require.True(t, c.AllSubcategories())
	require.True(t, c.IncludeImages)
}

func TestCriteriaActive(t *testing.T) {
	cases := map[string]Criteria{
		"keywords":      {Keywords: []string{"rust"}, IncludeImages: true},
		"categories":    {Categories: []string{"Math"}, IncludeImages: true},
		"subcategories": {Subcategories: []string{"Algebra"}, IncludeImages: true},
		"images off":    {},
		"no categories": {Categories: []string{}, IncludeImages: true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			require.True(t, c.Active())
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	require.Equal(t, []string{"rust", "async"}, SplitKeywords("  rust    async  "))
	require.Nil(t, SplitKeywords(""))
	require.Nil(t, SplitKeywords("   "))
}

func TestCloneIsIndependent(t *testing.T) {
	c := Criteria{Categories: []string{"Math"}, Subcategories: []string{}}
	cp := c.Clone()
	cp.Categories[0] = "Physics"
	require.Equal(t, "Math", c.Categories[0])
	require.NotNil(t, cp.Subcategories)
	require.Nil(t, Criteria{}.Clone().Categories)
}
