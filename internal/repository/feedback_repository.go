package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"staff-match/internal/database"
	"staff-match/internal/domain/match"
	"staff-match/internal/usecase"

	"github.com/google/uuid"
)

type PostgresFeedbackRepository struct {
	db database.DB
}

func NewPostgresFeedbackRepository(db database.DB) *PostgresFeedbackRepository {
	return &PostgresFeedbackRepository{db: db}
}

func (r *PostgresFeedbackRepository) Append(ctx context.Context, fb match.Feedback) error {
	n, err := r.db.Exec(ctx,
		`INSERT INTO match_feedback (id, match_id, actor_id, outcome, rating, fingerprint, submitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT ON CONSTRAINT uq_match_feedback_actor_outcome DO NOTHING`,
		fb.ID,
		fb.MatchID,
		fb.ActorID,
		string(fb.Outcome),
		fb.Rating,
		fb.Fingerprint,
		fb.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return fmt.Errorf("%w: %v", usecase.ErrFeedbackConflict, err)
		}
		return err
	}
	if n == 0 {
		return usecase.ErrFeedbackConflict
	}
	return nil
}

func (r *PostgresFeedbackRepository) Stats(ctx context.Context, fingerprint string) (int, int, error) {
	var accepts, rejects int
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE outcome = 'accept'),
			COUNT(*) FILTER (WHERE outcome = 'reject')
		 FROM match_feedback WHERE fingerprint = $1`,
		fingerprint,
	).Scan(&accepts, &rejects)
	if err != nil {
		return 0, 0, err
	}
	return accepts, rejects, nil
}

type feedbackIdentity struct {
	matchID uuid.UUID
	actorID string
	outcome match.Outcome
}

type MemoryFeedbackRepository struct {
	mu      sync.RWMutex
	records []match.Feedback
	seen    map[feedbackIdentity]bool
}

func NewMemoryFeedbackRepository() *MemoryFeedbackRepository {
	return &MemoryFeedbackRepository{seen: map[feedbackIdentity]bool{}}
}

func (r *MemoryFeedbackRepository) Append(_ context.Context, fb match.Feedback) error {
	key := feedbackIdentity{matchID: fb.MatchID, actorID: fb.ActorID, outcome: fb.Outcome}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[key] {
		return usecase.ErrFeedbackConflict
	}
	r.seen[key] = true
	r.records = append(r.records, fb)
	return nil
}

func (r *MemoryFeedbackRepository) Stats(_ context.Context, fingerprint string) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accepts, rejects := 0, 0
	for _, fb := range r.records {
		if fb.Fingerprint != fingerprint {
			continue
		}
		switch fb.Outcome {
		case match.OutcomeAccept:
			accepts++
		case match.OutcomeReject:
			rejects++
		}
	}
	return accepts, rejects, nil
}
