package schema

import (
	"testing"

	dst "github.com/creastat/dialogstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restaurants() Service {
	return Service{
		Name: "Restaurants",
		Slots: []Slot{
			{Name: "restaurant_name"},
			{Name: "price_range", IsCategorical: true, Values: []string{"cheap", "moderate", "expensive"}},
			{Name: "city", Values: []string{"New York", "San Francisco"}},
		},
		Intents: []Intent{
			{
				Name:            "FindRestaurant",
				RequiredSlots:   []string{"city"},
				OptionalSlots:   map[string]string{"price_range": "dontcare"},
				IsTransactional: false,
			},
			{Name: "ReserveRestaurant", RequiredSlots: []string{"restaurant_name"}, IsTransactional: true},
		},
	}
}

func TestLoad(t *testing.T) {
	reg, err := Load([]Service{restaurants(), {Name: "Flights"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Flights", "Restaurants"}, reg.Services())

	svc, err := reg.Service("Restaurants")
	require.NoError(t, err)
	assert.Len(t, svc.Slots, 3)

	slot, ok := svc.Slot("price_range")
	require.True(t, ok)
	assert.True(t, slot.IsCategorical)

	intent, ok := svc.Intent("ReserveRestaurant")
	require.True(t, ok)
	assert.True(t, intent.IsTransactional)

	_, ok = svc.Intent("BookFlight")
	assert.False(t, ok)

	assert.Equal(t, []string{"price_range"}, names(svc.CategoricalSlots()))
	assert.Equal(t, []string{"restaurant_name", "city"}, names(svc.NonCategoricalSlots()))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs []Service
	}{
		{"duplicate service", []Service{restaurants(), restaurants()}},
		{"unnamed service", []Service{{}}},
		{"duplicate slot", []Service{{Name: "A", Slots: []Slot{{Name: "x"}, {Name: "x"}}}}},
		{"duplicate intent", []Service{{Name: "A", Intents: []Intent{{Name: "I"}, {Name: "I"}}}}},
		{"empty categorical", []Service{{Name: "A", Slots: []Slot{{Name: "x", IsCategorical: true}}}}},
		{"repeated value", []Service{{Name: "A", Slots: []Slot{{Name: "x", IsCategorical: true, Values: []string{"a", "a"}}}}}},
		{"unknown required slot", []Service{{Name: "A", Intents: []Intent{{Name: "I", RequiredSlots: []string{"y"}}}}}},
		{"unknown optional slot", []Service{{Name: "A", Intents: []Intent{{Name: "I", OptionalSlots: map[string]string{"y": ""}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.defs)
			assert.ErrorIs(t, err, dst.ErrSchema)
		})
	}
}

func TestLoad_CopiesDefinitions(t *testing.T) {
	defs := []Service{restaurants()}
	reg, err := Load(defs)
	require.NoError(t, err)

	defs[0].Slots[1].Values[0] = "free"

	values, err := reg.CategoricalValues("Restaurants", "price_range")
	require.NoError(t, err)
	assert.Equal(t, []string{"cheap", "moderate", "expensive"}, values)
}

func TestLookups(t *testing.T) {
	reg, err := Load([]Service{restaurants()})
	require.NoError(t, err)

	_, err = reg.Service("Hotels")
	assert.ErrorIs(t, err, dst.ErrNotFound)

	cat, err := reg.IsCategorical("Restaurants", "price_range")
	require.NoError(t, err)
	assert.True(t, cat)

	cat, err = reg.IsCategorical("Restaurants", "restaurant_name")
	require.NoError(t, err)
	assert.False(t, cat)

	_, err = reg.IsCategorical("Restaurants", "cuisine")
	assert.ErrorIs(t, err, dst.ErrInvalidSlot)

	_, err = reg.IsCategorical("Hotels", "price_range")
	assert.ErrorIs(t, err, dst.ErrNotFound)

	_, err = reg.CategoricalValues("Restaurants", "restaurant_name")
	assert.ErrorIs(t, err, dst.ErrInvalidSlot)

	values, err := reg.CategoricalValues("Restaurants", "price_range")
	require.NoError(t, err)
	values[0] = "mutated"
	again, _ := reg.CategoricalValues("Restaurants", "price_range")
	assert.Equal(t, "cheap", again[0])
}

func names(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Name)
	}
	return out
}
