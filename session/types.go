package session

import (
	"time"

	"github.com/creastat/dialogstate/tracker"
)

// Session is the per-dialogue aggregate: one state per mentioned service and
// the ordered record of every applied turn. Sessions are values; Manager
// methods return a new Session and never modify the one passed in.
type Session struct {
	ID        string                   `json:"id"`
	StartedAt time.Time                `json:"started_at"`
	States    map[string]tracker.State `json:"states"`
	Turns     []TurnRecord             `json:"turns"`
	Closed    bool                     `json:"closed"`

	// Version is the stored version the session was last checkpointed or
	// resumed at; 0 when never stored.
	Version int64 `json:"version"`
}

// TurnRecord is the state of one service after one applied turn.
type TurnRecord struct {
	Index   int           `json:"index"` // position in the trace
	Turn    int           `json:"turn"`  // dialogue turn reported by the scorer
	Service string        `json:"service"`
	State   tracker.State `json:"state"`

	// Skipped turns left the service state as it was; Err says why.
	Skipped bool   `json:"skipped,omitempty"`
	Err     string `json:"error,omitempty"`
}

// FinalTrace is what a finished dialogue hands downstream.
type FinalTrace struct {
	TraceID    string                   `json:"trace_id"`
	DialogueID string                   `json:"dialogue_id"`
	Records    []TurnRecord             `json:"records"`
	Final      map[string]tracker.State `json:"final"`
	EndedAt    time.Time                `json:"ended_at"`
}

// Record is the unit kept by a Store: an in-flight checkpoint, or a finished
// dialogue with its trace.
type Record struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Version   int64       `json:"version"` // Monotonically increasing for optimistic locking
	Session   Session     `json:"session"`
	Trace     *FinalTrace `json:"trace,omitempty"`
}

// State returns the current state of service, if it has been mentioned.
func (s Session) State(service string) (tracker.State, bool) {
	st, ok := s.States[service]
	return st, ok
}

// clone copies the containers so the result can be extended without
// touching s. States themselves are immutable once produced.
func (s Session) clone() Session {
	out := s
	out.States = make(map[string]tracker.State, len(s.States))
	for k, v := range s.States {
		out.States[k] = v
	}
	out.Turns = append([]TurnRecord(nil), s.Turns...)
	return out
}
