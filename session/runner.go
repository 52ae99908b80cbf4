package session

import (
	"context"
	"fmt"
	"runtime"

	dst "github.com/creastat/dialogstate"
	"github.com/creastat/dialogstate/predict"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dialogue is the scored input for one conversation.
type Dialogue struct {
	ID    string `json:"dialogue_id"`
	Turns []Turn `json:"turns"`
}

// Turn is one utterance with a prediction for every service scored on it.
// Tokens must start with dialogstate.ReservedToken.
type Turn struct {
	Tokens      []string                 `json:"tokens"`
	Predictions []predict.TurnPrediction `json:"predictions"`
}

// Track runs one dialogue to completion. Turn errors are logged and skipped;
// any other error aborts the dialogue.
func (m *Manager) Track(ctx context.Context, d Dialogue) (FinalTrace, error) {
	s := m.StartDialogue(d.ID)
	for _, turn := range d.Turns {
		if err := ctx.Err(); err != nil {
			return FinalTrace{}, err
		}
		for _, pred := range turn.Predictions {
			next, err := m.ApplyTurn(s, pred.Service, pred, turn.Tokens)
			if err != nil && !dst.IsTurnError(err) {
				return FinalTrace{}, fmt.Errorf("dialogue %s: %w", s.ID, err)
			}
			s = next
		}
	}
	return m.EndDialogue(ctx, s)
}

// Run tracks dialogues concurrently with at most workers in flight; zero or
// less means GOMAXPROCS. Each dialogue stays on one goroutine, so turns
// within it apply in order. Traces are returned in input order. The first
// fatal error cancels the dialogues that have not started.
func Run(ctx context.Context, m *Manager, dialogues []Dialogue, workers int) ([]FinalTrace, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	traces := make([]FinalTrace, len(dialogues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, d := range dialogues {
		if gctx.Err() != nil {
			break
		}
		i, d := i, d
		g.Go(func() error {
			trace, err := m.Track(gctx, d)
			if err != nil {
				return err
			}
			traces[i] = trace
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.logger.Info("Dialogues tracked", zap.Int("count", len(traces)), zap.Int("workers", workers))
	return traces, nil
}
