// Package span turns the scoring model's slot predictions into slot values
// and decides when two values denote the same thing.
package span

import (
	"fmt"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/predict"
	"github.com/creastat/dialogstate/schema"
)

// Value is a resolved slot value. Present is false when the model judged the
// slot absent: the no-span sentinel, or the "not present" categorical class.
type Value struct {
	Text    string
	Present bool
}

// None is the absent value.
var None = Value{}

// Resolver maps spans and categorical distributions to slot values. It is
// stateless and safe for concurrent use.
type Resolver struct {
	registry  *schema.Registry
	matcher   Matcher
	threshold int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatcher swaps the similarity primitive.
func WithMatcher(m Matcher) Option {
	return func(r *Resolver) {
		r.matcher = m
	}
}

// WithThreshold sets the ratio at which values count as equal.
func WithThreshold(threshold int) Option {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

// FromConfig applies the fuzzy threshold of cfg.
func FromConfig(cfg *dst.Config) Option {
	return func(r *Resolver) {
		if cfg != nil && cfg.FuzzyThreshold > 0 {
			r.threshold = cfg.FuzzyThreshold
		}
	}
}

// NewResolver creates a Resolver over reg.
func NewResolver(reg *schema.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:  reg,
		matcher:   TokenSortMatcher{},
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the value the model predicted for service.slot.
//
// For non-categorical slots the tokens start..end inclusive are joined;
// (0, 0) yields None. For categorical slots the span is ignored and the
// argmax of values is taken, index 0 meaning "not present".
func (r *Resolver) Resolve(tokens []string, start, end int, service, slot string, values []float64) (Value, error) {
	svc, err := r.registry.Service(service)
	if err != nil {
		return None, err
	}
	s, ok := svc.Slot(slot)
	if !ok {
		return None, fmt.Errorf("%w: %s.%s", dst.ErrInvalidSlot, service, slot)
	}

	if s.IsCategorical {
		return categorical(s, values)
	}
	return literal(tokens, start, end, service, slot)
}

func categorical(s *schema.Slot, values []float64) (Value, error) {
	if len(values) != len(s.Values)+1 {
		return None, fmt.Errorf("%w: %s: value distribution has %d entries, want %d",
			dst.ErrSchemaMismatch, s.Name, len(values), len(s.Values)+1)
	}
	i := predict.Argmax(values)
	if i == predict.NoneIndex {
		return None, nil
	}
	return Value{Text: s.Values[i-1], Present: true}, nil
}

func literal(tokens []string, start, end int, service, slot string) (Value, error) {
	if start == 0 && end == 0 {
		return None, nil
	}
	switch {
	case start <= 0 || end <= 0:
		return None, fmt.Errorf("%w: %s.%s: span (%d, %d) touches the reserved position", dst.ErrInvalidSpan, service, slot, start, end)
	case start > end:
		return None, fmt.Errorf("%w: %s.%s: start %d after end %d", dst.ErrInvalidSpan, service, slot, start, end)
	case end >= len(tokens):
		return None, fmt.Errorf("%w: %s.%s: end %d beyond %d tokens", dst.ErrInvalidSpan, service, slot, end, len(tokens))
	}
	return Value{Text: dst.JoinSpan(tokens, start, end), Present: true}, nil
}

// Ratio exposes the configured similarity score.
func (r *Resolver) Ratio(a, b string) int {
	return r.matcher.Ratio(a, b)
}

// Same reports whether candidate and previous denote the same value of
// service.slot: either they are similar enough directly, or both match the
// same entry of the slot's vocabulary. Categorical values only match
// exactly.
func (r *Resolver) Same(service, slot, candidate, previous string) bool {
	var s *schema.Slot
	if svc, err := r.registry.Service(service); err == nil {
		s, _ = svc.Slot(slot)
	}
	if s != nil && s.IsCategorical {
		return candidate == previous
	}

	if r.matcher.Ratio(candidate, previous) >= r.threshold {
		return true
	}
	if s == nil || len(s.Values) == 0 {
		return false
	}

	a, okA := r.closest(candidate, s.Values)
	b, okB := r.closest(previous, s.Values)
	return okA && okB && a == b
}

// closest returns the vocabulary index best matching v, if any reaches the
// threshold. The earliest entry wins ties.
func (r *Resolver) closest(v string, vocab []string) (int, bool) {
	best, bestScore := -1, -1
	for i, ref := range vocab {
		if score := r.matcher.Ratio(v, ref); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore >= r.threshold
}
