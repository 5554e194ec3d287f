package integration

import (
	"context"
	"testing"
	"time"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/match"
	"staff-match/internal/infrastructure/cache"
	"staff-match/internal/repository"
	"staff-match/internal/usecase"
	"staff-match/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// slowMatches delays every save the way a loaded database would.
type slowMatches struct {
	*repository.MemoryMatchRepository
	delay time.Duration
}

func (s slowMatches) SaveMatches(ctx context.Context, ms []match.Match) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryMatchRepository.SaveMatches(ctx, ms)
}

type memoryFlow struct {
	matching *usecase.Matching
	feedback *usecase.Feedback
	disp     *worker.Dispatcher
}

func newMemoryFlow(t *testing.T, workers, buffer int) memoryFlow {
	t.Helper()
	log := zaptest.NewLogger(t)
	fx := seedFixture("mem-")

	entities, err := repository.NewMemoryEntityRepository(fx.Entities()...)
	require.NoError(t, err)
	matches := slowMatches{MemoryMatchRepository: repository.NewMemoryMatchRepository(), delay: 50 * time.Millisecond}

	mc := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = mc.Close() })

	disp := worker.NewDispatcher(workers, buffer, log)
	disp.Start(context.Background())

	return memoryFlow{
		matching: usecase.NewMatchingUsecase(usecase.MatchingDeps{
			Entities: entities,
			Matches:  matches,
			Cache:    mc,
			Async:    disp,
			Logger:   log,
		}, usecase.MatchingOptions{}),
		feedback: usecase.NewFeedbackUsecase(usecase.FeedbackDeps{
			Matches:  matches,
			Feedback: repository.NewMemoryFeedbackRepository(),
			Async:    disp,
			Logger:   log,
		}, 0),
		disp: disp,
	}
}

func computeJob(t *testing.T, uc *usecase.Matching) usecase.MatchResult {
	t.Helper()
	minScore := 0.0
	res, err := uc.ComputeMatches(context.Background(), usecase.MatchRequest{
		SubjectKind: entity.KindJob,
		SubjectID:   "mem-job",
		Override:    &criteria.Override{MinMatchScore: &minScore},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)
	return res
}

func TestMemoryFlow_FeedbackRightAfterCompute(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFlow(t, 4, 256)
	defer f.disp.Close()

	res := computeJob(t, f.matching)
	assert.Equal(t, "mem-near", res.Matches[0].CandidateID)

	_, dup, err := f.feedback.RecordFeedback(ctx, usecase.FeedbackInput{MatchID: res.Matches[0].ID, ActorID: "recruiter-1", Outcome: "accept"})
	require.NoError(t, err)
	assert.False(t, dup)

	cached := computeJob(t, f.matching)
	require.True(t, cached.FromCache)
	_, dup, err = f.feedback.RecordFeedback(ctx, usecase.FeedbackInput{MatchID: cached.Matches[0].ID, ActorID: "recruiter-1", Outcome: "accept"})
	require.NoError(t, err)
	assert.True(t, dup)

	signal, err := f.feedback.Signal(ctx, res.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, 1, signal.Accepts)
}

func TestMemoryFlow_SaturatedQueueStillStoresMatches(t *testing.T) {
	ctx := context.Background()
	f := newMemoryFlow(t, 1, 0)

	release := make(chan struct{})
	require.Eventually(t, func() bool {
		return f.disp.Submit("busy", func(context.Context) error { <-release; return nil })
	}, time.Second, time.Millisecond)
	defer func() {
		close(release)
		f.disp.Close()
	}()

	res := computeJob(t, f.matching)
	for _, m := range res.Matches {
		_, _, err := f.feedback.RecordFeedback(ctx, usecase.FeedbackInput{MatchID: m.ID, ActorID: "recruiter-2", Outcome: "reject"})
		require.NoError(t, err, m.CandidateID)
	}
}
