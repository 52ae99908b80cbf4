// Package session owns the lifecycle of dialogue sessions: starting them,
// folding turn predictions into per-service state, and producing the final
// trace. The Manager is the only writer of dialogue state; distinct
// dialogues share nothing but the read-only registry and may be processed in
// parallel (see Run).
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/predict"
	"github.com/creastat/dialogstate/schema"
	"github.com/creastat/dialogstate/tracker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager applies the state updater to sessions. It keeps no per-dialogue
// data and is safe for concurrent use.
type Manager struct {
	registry *schema.Registry
	updater  *tracker.Updater
	store    Store
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a Manager over a loaded registry.
func NewManager(reg *schema.Registry, updater *tracker.Updater, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		updater:  updater,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartDialogue returns an empty session. An empty id gets a random one.
func (m *Manager) StartDialogue(id string) Session {
	if id == "" {
		id = uuid.NewString()
	}
	m.logger.Debug("Dialogue started", zap.String("dialogue", id))
	return Session{
		ID:        id,
		StartedAt: m.now(),
		States:    map[string]tracker.State{},
	}
}

// ApplyTurn folds one prediction into the state of service and returns the
// updated session. Other services' states are carried over untouched.
//
// Turn-local failures (dialogstate.IsTurnError) still return a usable
// session: the service keeps its previous state and the trace records the
// turn as skipped. Lookup failures and closed sessions return s unchanged.
func (m *Manager) ApplyTurn(s Session, service string, pred predict.TurnPrediction, tokens []string) (Session, error) {
	if s.Closed {
		return s, fmt.Errorf("%w: %s", dst.ErrSessionClosed, s.ID)
	}
	svc, err := m.registry.Service(service)
	if err != nil {
		return s, err
	}

	prev, seen := s.States[service]
	if !seen {
		prev = tracker.NewState(service)
	}

	out := s.clone()
	rec := TurnRecord{
		Index:   len(s.Turns),
		Turn:    pred.Turn,
		Service: service,
	}

	next, err := m.updater.Update(prev, pred, svc, tokens)
	if err != nil {
		if !dst.IsTurnError(err) {
			return s, err
		}
		m.logger.Warn("Skipping turn",
			zap.String("dialogue", s.ID),
			zap.String("service", service),
			zap.Int("turn", pred.Turn),
			zap.Error(err))

		rec.State = prev.Clone()
		rec.Skipped = true
		rec.Err = err.Error()
		out.Turns = append(out.Turns, rec)
		return out, fmt.Errorf("dialogue %s turn %d: %w", s.ID, pred.Turn, err)
	}

	m.logger.Debug("Turn applied",
		zap.String("dialogue", s.ID),
		zap.String("service", service),
		zap.Int("turn", pred.Turn),
		zap.String("intent", next.ActiveIntent),
		zap.Int("slots", len(next.Slots)))

	out.States[service] = next
	rec.State = next.Clone()
	out.Turns = append(out.Turns, rec)
	return out, nil
}

// EndDialogue closes every service state and returns the trace. With a
// store configured the closed session and its trace are archived.
func (m *Manager) EndDialogue(ctx context.Context, s Session) (FinalTrace, error) {
	if s.Closed {
		return FinalTrace{}, fmt.Errorf("%w: %s", dst.ErrSessionClosed, s.ID)
	}

	closed := s.clone()
	closed.Closed = true
	for name, st := range closed.States {
		st = st.Clone()
		st.Status = tracker.StatusClosed
		closed.States[name] = st
	}

	trace := FinalTrace{
		TraceID:    uuid.NewString(),
		DialogueID: s.ID,
		Records:    closed.Turns,
		Final:      closed.States,
		EndedAt:    m.now(),
	}

	skipped := 0
	for _, r := range trace.Records {
		if r.Skipped {
			skipped++
		}
	}
	m.logger.Info("Dialogue ended",
		zap.String("dialogue", s.ID),
		zap.String("trace", trace.TraceID),
		zap.Int("records", len(trace.Records)),
		zap.Int("skipped", skipped))

	if m.store == nil {
		return trace, nil
	}
	if _, err := m.save(ctx, closed, &trace); err != nil {
		return trace, fmt.Errorf("archive dialogue %s: %w", s.ID, err)
	}
	return trace, nil
}

// Checkpoint stores an in-flight session and returns it with its new
// version. Two writers checkpointing the same dialogue from the same version
// conflict with ErrVersionConflict.
func (m *Manager) Checkpoint(ctx context.Context, s Session) (Session, error) {
	if m.store == nil {
		return s, ErrNoStore
	}
	version, err := m.save(ctx, s, nil)
	if err != nil {
		return s, fmt.Errorf("checkpoint dialogue %s: %w", s.ID, err)
	}
	s.Version = version
	return s, nil
}

// Resume loads a checkpointed session.
func (m *Manager) Resume(ctx context.Context, id string) (Session, error) {
	if m.store == nil {
		return Session{}, ErrNoStore
	}
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("resume dialogue %s: %w", id, err)
	}
	if rec == nil {
		return Session{}, fmt.Errorf("resume dialogue %s: %w", id, ErrNotFound)
	}

	s := rec.Session
	s.Version = rec.Version
	if s.States == nil {
		s.States = map[string]tracker.State{}
	}
	m.logger.Debug("Dialogue resumed", zap.String("dialogue", id), zap.Int64("version", rec.Version))
	return s, nil
}

// save creates the record on first write and updates it afterwards.
func (m *Manager) save(ctx context.Context, s Session, trace *FinalTrace) (int64, error) {
	rec := &Record{ID: s.ID, Version: s.Version, Session: s, Trace: trace}
	if s.Version == 0 {
		if err := m.store.Create(ctx, rec); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				return 0, fmt.Errorf("%w: %w", ErrVersionConflict, err)
			}
			return 0, err
		}
		return rec.Version, nil
	}

	if err := m.store.Update(ctx, rec); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			m.logger.Warn("Version conflict", zap.String("dialogue", s.ID), zap.Int64("version", s.Version))
		}
		return 0, err
	}
	return rec.Version, nil
}
