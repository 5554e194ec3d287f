package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/match"
	"staff-match/internal/worker"

	"github.com/google/uuid"
)

type fakeEntities struct {
	byID       map[string]entity.Entity
	pool       []entity.Entity
	err        error
	block      bool
	fetches    atomic.Int32
	lastSpec   PoolSpec
	lastSpecMu sync.Mutex
}

func newFakeEntities(subject entity.Entity, pool ...entity.Entity) *fakeEntities {
	f := &fakeEntities{byID: map[string]entity.Entity{}, pool: pool}
	if subject != nil {
		f.byID[subject.EntityID()] = subject
	}
	return f
}

func (f *fakeEntities) FetchEntity(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error) {
	f.fetches.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.byID[id]
	if !ok || e.Kind() != kind {
		return nil, ErrNotFound
	}
	return e, nil
}

func (f *fakeEntities) FetchPool(ctx context.Context, spec PoolSpec) ([]entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.lastSpecMu.Lock()
	f.lastSpec = spec
	f.lastSpecMu.Unlock()
	return f.pool, nil
}

type fakeMatches struct {
	mu        sync.Mutex
	saved     map[uuid.UUID]match.Match
	err       error
	saveErr   error
	saveBlock bool
}

func newFakeMatches(ms ...match.Match) *fakeMatches {
	f := &fakeMatches{saved: map[uuid.UUID]match.Match{}}
	for _, m := range ms {
		f.saved[m.ID] = m
	}
	return f
}

func (f *fakeMatches) SaveMatches(ctx context.Context, ms []match.Match) error {
	if f.saveBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range ms {
		f.saved[m.ID] = m
	}
	return nil
}

func (f *fakeMatches) FindByID(_ context.Context, id uuid.UUID) (match.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return match.Match{}, f.err
	}
	m, ok := f.saved[id]
	if !ok {
		return match.Match{}, ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatches) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type feedbackKey struct {
	matchID uuid.UUID
	actor   string
	outcome match.Outcome
}

type fakeFeedback struct {
	mu   sync.Mutex
	rows map[feedbackKey]match.Feedback
}

func newFakeFeedback() *fakeFeedback {
	return &fakeFeedback{rows: map[feedbackKey]match.Feedback{}}
}

func (f *fakeFeedback) Append(_ context.Context, fb match.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := feedbackKey{fb.MatchID, fb.ActorID, fb.Outcome}
	if _, ok := f.rows[k]; ok {
		return ErrFeedbackConflict
	}
	f.rows[k] = fb
	return nil
}

func (f *fakeFeedback) Stats(_ context.Context, fingerprint string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	accepts, rejects := 0, 0
	for _, fb := range f.rows {
		if fb.Fingerprint != fingerprint {
			continue
		}
		if fb.Outcome == match.OutcomeAccept {
			accepts++
		} else {
			rejects++
		}
	}
	return accepts, rejects, nil
}

// inlineSubmitter runs tasks synchronously so tests can assert on their
// effects without waiting.
type inlineSubmitter struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (s *inlineSubmitter) Submit(name string, task worker.Task) bool {
	err := task(context.Background())
	s.mu.Lock()
	s.names = append(s.names, name)
	if err != nil {
		s.errs = append(s.errs, err)
	}
	s.mu.Unlock()
	return true
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []match.Event
}

func (n *fakeNotifier) Publish(_ context.Context, evt match.Event) error {
	n.mu.Lock()
	n.events = append(n.events, evt)
	n.mu.Unlock()
	return nil
}

// slowCache blocks every call until the caller's context expires.
type slowCache struct{}

func (slowCache) GetJSON(ctx context.Context, _ string, _ any) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (slowCache) SetJSON(ctx context.Context, _ string, _ any, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowCache) Delete(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowCache) DeleteByPattern(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
