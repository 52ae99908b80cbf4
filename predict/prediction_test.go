package predict

import (
	"testing"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restaurantService(t *testing.T) *schema.Service {
	t.Helper()
	reg, err := schema.Load([]schema.Service{{
		Name: "Restaurants",
		Slots: []schema.Slot{
			{Name: "restaurant_name"},
			{Name: "price_range", IsCategorical: true, Values: []string{"cheap", "moderate", "expensive"}},
		},
		Intents: []schema.Intent{{Name: "FindRestaurant"}},
	}})
	require.NoError(t, err)
	svc, err := reg.Service("Restaurants")
	require.NoError(t, err)
	return svc
}

func validPrediction(tokens int) TurnPrediction {
	return TurnPrediction{
		Service:       "Restaurants",
		IntentProbs:   []float64{0.1, 0.9},
		SlotActive:    []float64{0.8, 0.7},
		SlotRequested: []float64{0, 0},
		Spans:         []SpanScores{{Start: make([]float64, tokens), End: make([]float64, tokens)}},
		Values:        [][]float64{{0.1, 0.1, 0.7, 0.1}},
	}
}

func TestValidate(t *testing.T) {
	svc := restaurantService(t)
	require.NoError(t, Validate(validPrediction(4), svc, 4))

	tests := []struct {
		name   string
		mutate func(*TurnPrediction)
	}{
		{"wrong service", func(p *TurnPrediction) { p.Service = "Hotels" }},
		{"intent vector without none", func(p *TurnPrediction) { p.IntentProbs = []float64{0.9} }},
		{"short slot activity", func(p *TurnPrediction) { p.SlotActive = p.SlotActive[:1] }},
		{"long requested", func(p *TurnPrediction) { p.SlotRequested = append(p.SlotRequested, 0) }},
		{"missing span", func(p *TurnPrediction) { p.Spans = nil }},
		{"span length", func(p *TurnPrediction) { p.Spans[0].End = p.Spans[0].End[:2] }},
		{"missing values", func(p *TurnPrediction) { p.Values = nil }},
		{"values without not-present", func(p *TurnPrediction) { p.Values[0] = []float64{0.2, 0.7, 0.1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPrediction(4)
			tt.mutate(&p)
			assert.ErrorIs(t, Validate(p, svc, 4), dst.ErrSchemaMismatch)
		})
	}
}

func TestValidate_DecodedSkipsDistributionLength(t *testing.T) {
	p := validPrediction(4)
	p.Spans[0] = SpanScores{Decoded: &Offsets{Start: 1, End: 2}}
	assert.NoError(t, Validate(p, restaurantService(t), 4))
}

func TestValidate_EmptyServiceNameAccepted(t *testing.T) {
	p := validPrediction(3)
	p.Service = ""
	assert.NoError(t, Validate(p, restaurantService(t), 3))
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, -1, Argmax(nil))
	assert.Equal(t, 2, Argmax([]float64{0.1, 0.2, 0.7}))
	assert.Equal(t, 1, Argmax([]float64{0.1, 0.45, 0.45}), "earliest index wins ties")
}

func TestDecodeSpan(t *testing.T) {
	t.Run("best pair", func(t *testing.T) {
		s := SpanScores{
			Start: []float64{0.05, 0.05, 0.8, 0.1},
			End:   []float64{0.05, 0.05, 0.1, 0.8},
		}
		start, end := DecodeSpan(s, 0)
		assert.Equal(t, 2, start)
		assert.Equal(t, 3, end)
	})

	t.Run("sentinel wins", func(t *testing.T) {
		s := SpanScores{
			Start: []float64{0.9, 0.05, 0.05},
			End:   []float64{0.9, 0.05, 0.05},
		}
		start, end := DecodeSpan(s, 0)
		assert.Equal(t, 0, start)
		assert.Equal(t, 0, end)
	})

	t.Run("end before start is never chosen", func(t *testing.T) {
		s := SpanScores{
			Start: []float64{0, 0.1, 0, 0.9},
			End:   []float64{0, 0.9, 0, 0.1},
		}
		start, end := DecodeSpan(s, 0)
		assert.LessOrEqual(t, start, end)
		assert.Equal(t, 1, start)
		assert.Equal(t, 1, end)
	})

	t.Run("max length", func(t *testing.T) {
		s := SpanScores{
			Start: []float64{0, 0.9, 0.1, 0, 0},
			End:   []float64{0, 0, 0.2, 0, 0.8},
		}
		start, end := DecodeSpan(s, 2)
		assert.Equal(t, 1, start)
		assert.Equal(t, 2, end)
	})

	t.Run("decoded offsets pass through", func(t *testing.T) {
		start, end := DecodeSpan(SpanScores{Decoded: &Offsets{Start: 4, End: 2}}, 0)
		assert.Equal(t, 4, start)
		assert.Equal(t, 2, end)
	})

	t.Run("empty", func(t *testing.T) {
		start, end := DecodeSpan(SpanScores{}, 0)
		assert.Equal(t, 0, start)
		assert.Equal(t, 0, end)
	})
}
