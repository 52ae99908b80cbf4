package tracker

import (
	"fmt"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/predict"
	"github.com/creastat/dialogstate/schema"
	"github.com/creastat/dialogstate/span"
)

// Updater applies turn predictions to service states. It holds no per-dialogue
// data and is safe to share between goroutines.
type Updater struct {
	resolver *span.Resolver
	cfg      dst.Config
}

// NewUpdater creates an Updater. A nil cfg uses dialogstate.DefaultConfig.
func NewUpdater(resolver *span.Resolver, cfg *dst.Config) *Updater {
	if cfg == nil {
		cfg = dst.DefaultConfig()
	}
	return &Updater{resolver: resolver, cfg: *cfg}
}

// Update folds pred into prev and returns the next state. prev is never
// modified. On error the returned state is prev, unchanged, and the error
// wraps ErrSchemaMismatch or ErrInvalidSpan.
//
// Per turn:
//   - intent: argmax over the declared intents, which must reach the "none"
//     score; a winning "none" clears the intent only when pred allows an
//     intent switch
//   - each slot below the activation threshold keeps its value; otherwise the
//     resolved value clears it (not present), keeps it (same value) or
//     overwrites it
//   - requested slots are recomputed from scratch
func (u *Updater) Update(prev State, pred predict.TurnPrediction, svc *schema.Service, tokens []string) (State, error) {
	if err := predict.Validate(pred, svc, len(tokens)); err != nil {
		return prev, err
	}

	next := prev.Clone()
	if next.Service == "" {
		next.Service = svc.Name
	}
	if next.Status == "" {
		next.Status = StatusUnmentioned
	}
	next.Requested = nil
	next.ActiveIntent = u.intent(prev.ActiveIntent, pred, svc)

	mentioned := next.ActiveIntent != "" && next.ActiveIntent != prev.ActiveIntent

	freeIdx, catIdx := 0, 0
	for i, slot := range svc.Slots {
		var scores predict.SpanScores
		var values []float64
		if slot.IsCategorical {
			values = pred.Values[catIdx]
			catIdx++
		} else {
			scores = pred.Spans[freeIdx]
			freeIdx++
		}

		if pred.SlotRequested[i] > u.cfg.RequestedThreshold {
			next.Requested = append(next.Requested, slot.Name)
			mentioned = true
		}

		if pred.SlotActive[i] < u.cfg.ActivationThreshold {
			continue
		}
		mentioned = true

		start, end := 0, 0
		if !slot.IsCategorical {
			start, end = predict.DecodeSpan(scores, u.cfg.MaxSpanLength)
		}
		v, err := u.resolver.Resolve(tokens, start, end, svc.Name, slot.Name, values)
		if err != nil {
			return prev, fmt.Errorf("slot %s: %w", slot.Name, err)
		}

		if !v.Present {
			delete(next.Slots, slot.Name)
			continue
		}
		if old, ok := prev.Slots[slot.Name]; ok && u.unchanged(svc.Name, slot, v.Text, old) {
			continue
		}
		next.Slots[slot.Name] = v.Text
	}

	if mentioned && next.Status == StatusUnmentioned {
		next.Status = StatusActive
	}
	return next, nil
}

// unchanged reports whether v restates old. Categorical values are canonical,
// so only literal slots are compared fuzzily.
func (u *Updater) unchanged(service string, slot schema.Slot, v, old string) bool {
	if slot.IsCategorical {
		return v == old
	}
	return u.resolver.Same(service, slot.Name, v, old)
}

func (u *Updater) intent(prev string, pred predict.TurnPrediction, svc *schema.Service) string {
	best := predict.Argmax(pred.IntentProbs[1:])
	if best >= 0 && pred.IntentProbs[best+1] >= pred.IntentProbs[predict.NoneIndex] {
		return svc.Intents[best].Name
	}
	if pred.AllowIntentSwitch {
		return ""
	}
	return prev
}
