package filters

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/afrifurn-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
)

func TestNewSetCanonicalizes(t *testing.T) {
	set := NewSet(" oak", "walnut", "oak", "", "ash ")
	assert.Equal(t, Set{"ash", "oak", "walnut"}, set)
	assert.True(t, set.Contains("oak"))
	assert.False(t, set.Contains("pine"))
}

func TestSetToggle(t *testing.T) {
	set := NewSet("red")
	set = set.Toggle("blue")
	assert.Equal(t, Set{"blue", "red"}, set)
	set = set.Toggle("red")
	assert.Equal(t, Set{"blue"}, set)
}

func TestApplyResetsPage(t *testing.T) {
	start := Snapshot{Page: 3, PageSize: 12, Colors: NewSet("red")}
	blue := NewSet("blue")

	next := start.Apply(Partial{Colors: &blue})

	assert.Equal(t, 1, next.Page)
	assert.Equal(t, Set{"blue"}, next.Colors)
	assert.Equal(t, 12, next.PageSize)
	assert.Equal(t, 3, start.Page, "apply must not mutate the receiver")
}

func TestApplyClearsFacets(t *testing.T) {
	start := Snapshot{
		PriceMin:  Amount(10),
		PriceMax:  Amount(500),
		Materials: NewSet("oak"),
		Category:  "sofas",
		SortOrder: enums.SortOrderDescending,
	}
	name := "  chesterfield "

	next := start.Apply(Partial{
		Clear: []Facet{FacetPriceMin, FacetMaterials, FacetSortOrder},
		Name:  &name,
	})

	want := Snapshot{
		PriceMax: Amount(500),
		Category: "sofas",
		Name:     "chesterfield",
		Page:     1,
	}
	if diff := cmp.Diff(want, next, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected snapshot (-want +got):\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := Snapshot{PriceMin: Amount(5), Colors: NewSet("red", "blue")}
	clone := original.Clone()

	*clone.PriceMin = *Amount(99)
	clone.Colors[0] = "green"

	assert.Equal(t, "5", original.PriceMin.String())
	assert.Equal(t, Set{"blue", "red"}, original.Colors)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Snapshot{PriceMin: Amount(0), PriceMax: Amount(1000), Page: 1}.Validate())

	err := Snapshot{PriceMin: Amount(200), PriceMax: Amount(100)}.Validate()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Details(), string(FacetPriceMin))

	err = Snapshot{Width: Amount(-1), SortOrder: "sideways"}.Validate()
	require.Error(t, err)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, string(FacetWidth))
	assert.Contains(t, details, string(FacetSortOrder))
}

func TestParseFacet(t *testing.T) {
	facet, err := ParseFacet(" Colors ")
	require.NoError(t, err)
	assert.Equal(t, FacetColors, facet)

	_, err = ParseFacet("weight")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
