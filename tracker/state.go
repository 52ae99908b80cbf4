// Package tracker holds the per-service dialogue state and the pure
// transition that folds one turn prediction into it.
package tracker

import "sort"

// Status is the lifecycle of a service within one dialogue. A service moves
// from unmentioned to active and only leaves active when the dialogue ends.
type Status string

const (
	StatusUnmentioned Status = "unmentioned"
	StatusActive      Status = "active"
	StatusClosed      Status = "closed"
)

// State is the belief about one service at a point in a dialogue.
type State struct {
	Service string `json:"service"`
	Status  Status `json:"status"`

	// ActiveIntent is empty when no intent is set.
	ActiveIntent string `json:"active_intent,omitempty"`

	// Slots maps slot name to its literal value; absent keys are unset.
	Slots map[string]string `json:"slot_values"`

	// Requested lists slots requested this turn, in schema order. It does
	// not carry into the next turn.
	Requested []string `json:"requested_slots,omitempty"`
}

// NewState returns the fresh state of a service on first mention.
func NewState(service string) State {
	return State{
		Service: service,
		Status:  StatusUnmentioned,
		Slots:   map[string]string{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Slots = make(map[string]string, len(s.Slots))
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	if s.Requested != nil {
		out.Requested = append([]string(nil), s.Requested...)
	}
	return out
}

// SlotNames returns the filled slot names in sorted order.
func (s State) SlotNames() []string {
	names := make([]string, 0, len(s.Slots))
	for k := range s.Slots {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
