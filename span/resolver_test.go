package span

import (
	"testing"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Load([]schema.Service{{
		Name: "Restaurants",
		Slots: []schema.Slot{
			{Name: "restaurant_name"},
			{Name: "price_range", IsCategorical: true, Values: []string{"cheap", "moderate", "expensive"}},
			{Name: "city", Values: []string{"San Francisco", "Sacramento", "Palo Alto"}},
		},
		Intents: []schema.Intent{{Name: "FindRestaurant"}},
	}})
	require.NoError(t, err)
	return reg
}

func TestResolve_NonCategorical(t *testing.T) {
	r := NewResolver(newRegistry(t))
	tokens := dst.NewUtterance("table for two at Luigi's Trattoria please")

	v, err := r.Resolve(tokens, 5, 6, "Restaurants", "restaurant_name", nil)
	require.NoError(t, err)
	assert.Equal(t, Value{Text: "Luigi's Trattoria", Present: true}, v)

	v, err = r.Resolve(tokens, 0, 0, "Restaurants", "restaurant_name", nil)
	require.NoError(t, err)
	assert.Equal(t, None, v)
}

func TestResolve_InvalidSpan(t *testing.T) {
	r := NewResolver(newRegistry(t))
	tokens := dst.NewUtterance("at Luigi's")

	for _, span := range [][2]int{{2, 1}, {0, 2}, {1, 0}, {-1, 1}, {1, 3}, {3, 3}} {
		_, err := r.Resolve(tokens, span[0], span[1], "Restaurants", "restaurant_name", nil)
		assert.ErrorIs(t, err, dst.ErrInvalidSpan, "span %v", span)
	}
}

func TestResolve_Categorical(t *testing.T) {
	r := NewResolver(newRegistry(t))
	tokens := dst.NewUtterance("something moderately priced")

	v, err := r.Resolve(tokens, 99, 1, "Restaurants", "price_range", []float64{0.1, 0.1, 0.7, 0.1})
	require.NoError(t, err, "span is ignored for categorical slots")
	assert.Equal(t, Value{Text: "moderate", Present: true}, v)

	v, err = r.Resolve(tokens, 0, 0, "Restaurants", "price_range", []float64{0.6, 0.2, 0.1, 0.1})
	require.NoError(t, err)
	assert.Equal(t, None, v)

	_, err = r.Resolve(tokens, 0, 0, "Restaurants", "price_range", []float64{0.5, 0.5})
	assert.ErrorIs(t, err, dst.ErrSchemaMismatch)
}

func TestResolve_Lookups(t *testing.T) {
	r := NewResolver(newRegistry(t))

	_, err := r.Resolve(nil, 0, 0, "Hotels", "name", nil)
	assert.ErrorIs(t, err, dst.ErrNotFound)

	_, err = r.Resolve(nil, 0, 0, "Restaurants", "cuisine", nil)
	assert.ErrorIs(t, err, dst.ErrInvalidSlot)
}

func TestSame(t *testing.T) {
	r := NewResolver(newRegistry(t))

	assert.True(t, r.Same("Restaurants", "restaurant_name", "NYC", "nyc"))
	assert.True(t, r.Same("Restaurants", "restaurant_name", "luigis", "Luigi's"))
	assert.False(t, r.Same("Restaurants", "restaurant_name", "new york city", "New York"))
	assert.False(t, r.Same("Restaurants", "restaurant_name", "Luigi's", "Mario's"))
}

func TestSame_Vocabulary(t *testing.T) {
	r := NewResolver(newRegistry(t), WithThreshold(95))

	// Both score 95 against "Sacramento" but only 89 against each other.
	a, b := "Sacrament", "acramento"
	require.Less(t, r.Ratio(a, b), 95)

	assert.True(t, r.Same("Restaurants", "city", a, b))
	assert.False(t, r.Same("Restaurants", "restaurant_name", a, b), "no vocabulary on this slot")
	assert.False(t, r.Same("Restaurants", "city", a, "Palo Alto"))
	assert.False(t, r.Same("Hotels", "city", a, b))
}

type exactMatcher struct{}

func (exactMatcher) Ratio(a, b string) int {
	if a == b {
		return 100
	}
	return 0
}

func TestWithMatcher(t *testing.T) {
	r := NewResolver(newRegistry(t), WithMatcher(exactMatcher{}))
	assert.False(t, r.Same("Restaurants", "restaurant_name", "NYC", "nyc"))
	assert.True(t, r.Same("Restaurants", "restaurant_name", "nyc", "nyc"))
}

func TestFromConfig(t *testing.T) {
	cfg := dst.DefaultConfig()
	cfg.FuzzyThreshold = 85
	r := NewResolver(newRegistry(t), FromConfig(cfg))
	assert.True(t, r.Same("Restaurants", "restaurant_name", "Sacrament", "acramento"))

	r = NewResolver(newRegistry(t), FromConfig(nil))
	assert.False(t, r.Same("Restaurants", "restaurant_name", "Sacrament", "acramento"))
}

func TestSame_CategoricalIsExact(t *testing.T) {
	r := NewResolver(newRegistry(t))

	require.Equal(t, 100, r.Ratio("cheap", "Cheap"))
	assert.False(t, r.Same("Restaurants", "price_range", "cheap", "Cheap"))
	assert.True(t, r.Same("Restaurants", "price_range", "cheap", "cheap"))
}
