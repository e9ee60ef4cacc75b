package ml

import (
	"context"
	"sync"
	"time"

	"github.com/wealthdesk/stmtparse/internal/model"
)

// Stub is a deterministic Classifier for tests and offline evaluation. It
// records every call so tests can assert on invocation counts.
type Stub struct {
	Err        error
	Prediction *Prediction
	Delay      time.Duration

	mu    sync.Mutex
	calls int
}

// Predict returns the canned prediction after the configured delay,
// honoring context cancellation.
func (s *Stub) Predict(ctx context.Context, _ model.NormalizedText) (*Prediction, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.Err != nil {
		return nil, s.Err
	}
	return s.Prediction, nil
}

// Calls returns how many times Predict was invoked.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
