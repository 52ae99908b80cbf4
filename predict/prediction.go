// Package predict defines the per-turn scores the state tracker consumes
// from the external scoring model, and the shape checks applied to them
// before any state is touched.
//
// Every vector is laid out against the service schema in declaration order.
// Sentinels always take index 0: the "none" intent, the "not present"
// categorical value, and the reserved no-span token position.
package predict

import (
	"fmt"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/schema"
)

// NoneIndex is the position of the "none" intent and of the "not present"
// categorical value.
const NoneIndex = 0

// TurnPrediction is the model output for one (dialogue, turn, service).
type TurnPrediction struct {
	Service string `json:"service"`
	Turn    int    `json:"turn"`

	// IntentProbs has len(Intents)+1 entries; [0] is "none".
	IntentProbs []float64 `json:"intent_probs"`

	// SlotActive and SlotRequested have one entry per slot.
	SlotActive    []float64 `json:"slot_active"`
	SlotRequested []float64 `json:"slot_requested"`

	// Spans has one entry per non-categorical slot.
	Spans []SpanScores `json:"spans"`

	// Values has one entry per categorical slot, each len(Values)+1 long;
	// [0] is "not present".
	Values [][]float64 `json:"values"`

	// AllowIntentSwitch is the system-turn signal that lets a "none" intent
	// clear an established one.
	AllowIntentSwitch bool `json:"allow_intent_switch,omitempty"`
}

// SpanScores holds start and end distributions over utterance tokens.
type SpanScores struct {
	Start []float64 `json:"start"`
	End   []float64 `json:"end"`

	// Decoded carries offsets the scorer already picked. When set, Start and
	// End are not consulted and may be empty.
	Decoded *Offsets `json:"decoded,omitempty"`
}

// Offsets is an inclusive token range.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate checks p against svc and the utterance length. Any mismatch
// wraps ErrSchemaMismatch; nothing is truncated or padded.
func Validate(p TurnPrediction, svc *schema.Service, tokenCount int) error {
	if p.Service != "" && p.Service != svc.Name {
		return fmt.Errorf("%w: prediction for %q applied to %q", dst.ErrSchemaMismatch, p.Service, svc.Name)
	}
	if got, want := len(p.IntentProbs), len(svc.Intents)+1; got != want {
		return fmt.Errorf("%w: %s: intent vector has %d entries, want %d", dst.ErrSchemaMismatch, svc.Name, got, want)
	}
	if got, want := len(p.SlotActive), len(svc.Slots); got != want {
		return fmt.Errorf("%w: %s: slot activity has %d entries, want %d", dst.ErrSchemaMismatch, svc.Name, got, want)
	}
	if got, want := len(p.SlotRequested), len(svc.Slots); got != want {
		return fmt.Errorf("%w: %s: requested vector has %d entries, want %d", dst.ErrSchemaMismatch, svc.Name, got, want)
	}

	free := svc.NonCategoricalSlots()
	if len(p.Spans) != len(free) {
		return fmt.Errorf("%w: %s: %d span distributions, want %d", dst.ErrSchemaMismatch, svc.Name, len(p.Spans), len(free))
	}
	for i, s := range p.Spans {
		if s.Decoded != nil {
			continue
		}
		if len(s.Start) != tokenCount || len(s.End) != tokenCount {
			return fmt.Errorf("%w: %s.%s: span distributions have %d/%d entries, want %d",
				dst.ErrSchemaMismatch, svc.Name, free[i].Name, len(s.Start), len(s.End), tokenCount)
		}
	}

	cats := svc.CategoricalSlots()
	if len(p.Values) != len(cats) {
		return fmt.Errorf("%w: %s: %d value distributions, want %d", dst.ErrSchemaMismatch, svc.Name, len(p.Values), len(cats))
	}
	for i, v := range p.Values {
		if got, want := len(v), len(cats[i].Values)+1; got != want {
			return fmt.Errorf("%w: %s.%s: value distribution has %d entries, want %d",
				dst.ErrSchemaMismatch, svc.Name, cats[i].Name, got, want)
		}
	}
	return nil
}

// Argmax returns the index of the largest entry; the earliest index wins
// ties. It returns -1 for an empty vector.
func Argmax(probs []float64) int {
	best := -1
	for i, p := range probs {
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	return best
}

// DecodeSpan returns s.Decoded when set. Otherwise it picks the pair with
// start <= end maximizing start[s]*end[e]. The sentinel pair (0, 0) competes
// like any other; a pair mixing the sentinel with a real token does not.
// maxLen bounds end-start+1 when positive. Earliest start, then earliest
// end, wins ties.
func DecodeSpan(s SpanScores, maxLen int) (start, end int) {
	if s.Decoded != nil {
		return s.Decoded.Start, s.Decoded.End
	}
	n := len(s.Start)
	if len(s.End) < n {
		n = len(s.End)
	}
	if n == 0 {
		return 0, 0
	}

	best := s.Start[0] * s.End[0]
	for i := 1; i < n; i++ {
		limit := n
		if maxLen > 0 && i+maxLen < limit {
			limit = i + maxLen
		}
		for j := i; j < limit; j++ {
			if score := s.Start[i] * s.End[j]; score > best {
				best, start, end = score, i, j
			}
		}
	}
	return start, end
}
