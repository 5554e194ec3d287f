package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"staff-match/internal/domain/match"
	"staff-match/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minRating = 1
	maxRating = 5
)

type FeedbackRepository interface {
	// Append stores fb and returns ErrFeedbackConflict when the same actor
	// already recorded the same outcome for the match.
	Append(ctx context.Context, fb match.Feedback) error
	Stats(ctx context.Context, fingerprint string) (accepts, rejects int, err error)
}

type FeedbackInput struct {
	MatchID uuid.UUID
	ActorID string
	Outcome string
	Rating  *int
}

type FeedbackUsecase interface {
	RecordFeedback(ctx context.Context, in FeedbackInput) (match.Feedback, bool, error)
	Signal(ctx context.Context, fingerprint string) (match.AcceptanceSignal, error)
}

type FeedbackDeps struct {
	Matches  MatchRepository
	Feedback FeedbackRepository
	Async    TaskSubmitter
	Notifier Notifier
	Logger   *zap.Logger
}

type Feedback struct {
	matches      MatchRepository
	feedback     FeedbackRepository
	async        TaskSubmitter
	notifier     Notifier
	fetchTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewFeedbackUsecase(deps FeedbackDeps, fetchTimeout time.Duration) *Feedback {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &Feedback{
		matches:      deps.Matches,
		feedback:     deps.Feedback,
		async:        deps.Async,
		notifier:     deps.Notifier,
		fetchTimeout: fetchTimeout,
		logger:       logger.OrNop(deps.Logger),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RecordFeedback appends one accept/reject decision. The boolean result is
// true when the same decision was already on record; that case is a no-op
// success.
func (u *Feedback) RecordFeedback(ctx context.Context, in FeedbackInput) (match.Feedback, bool, error) {
	if in.MatchID == uuid.Nil {
		return match.Feedback{}, false, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	actor := strings.TrimSpace(in.ActorID)
	if actor == "" {
		return match.Feedback{}, false, ErrUnauthorized
	}
	outcome, err := match.ParseOutcome(in.Outcome)
	if err != nil {
		return match.Feedback{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Rating != nil && (*in.Rating < minRating || *in.Rating > maxRating) {
		return match.Feedback{}, false, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidInput, minRating, maxRating)
	}
	if u.matches == nil || u.feedback == nil {
		return match.Feedback{}, false, fmt.Errorf("%w: feedback storage not configured", ErrInternal)
	}

	fctx, cancel := context.WithTimeout(ctx, u.fetchTimeout)
	defer cancel()

	m, err := u.matches.FindByID(fctx, in.MatchID)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return match.Feedback{}, false, err
		}
		return match.Feedback{}, false, persistenceError("find match", err)
	}

	fb := match.Feedback{
		ID:          uuid.New(),
		MatchID:     m.ID,
		ActorID:     actor,
		Outcome:     outcome,
		Rating:      in.Rating,
		SubmittedAt: u.now(),
		Fingerprint: m.Fingerprint,
	}

	log := u.logger.With(zap.String(logger.FieldMatchID, m.ID.String()), zap.String(logger.FieldFingerprint, m.Fingerprint), zap.String("outcome", string(outcome)))

	if err := u.feedback.Append(fctx, fb); err != nil {
		if errors.Is(err, ErrFeedbackConflict) {
			log.Debug("duplicate feedback ignored", zap.String("actor_id", actor))
			return fb, true, nil
		}
		return match.Feedback{}, false, persistenceError("append feedback", err)
	}
	log.Info("feedback recorded")

	u.emitSignal(fb)
	return fb, false, nil
}

func (u *Feedback) emitSignal(fb match.Feedback) {
	if u.async == nil {
		return
	}
	u.async.Submit("acceptance_signal", func(ctx context.Context) error {
		signal, err := u.Signal(ctx, fb.Fingerprint)
		if err != nil {
			return err
		}
		u.logger.Info("acceptance signal updated",
			zap.String(logger.FieldFingerprint, signal.Fingerprint),
			zap.Int("accepts", signal.Accepts),
			zap.Int("rejects", signal.Rejects),
			zap.Float64("acceptance_rate", signal.AcceptanceRate),
		)
		if u.notifier == nil {
			return nil
		}
		return u.notifier.Publish(ctx, match.Event{
			Type:        match.EventFeedbackRecorded,
			Fingerprint: fb.Fingerprint,
			MatchID:     fb.MatchID.String(),
			Outcome:     fb.Outcome,
			Signal:      &signal,
			Timestamp:   u.now(),
		})
	})
}

func (u *Feedback) Signal(ctx context.Context, fingerprint string) (match.AcceptanceSignal, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return match.AcceptanceSignal{}, fmt.Errorf("%w: fingerprint is required", ErrInvalidInput)
	}
	if u.feedback == nil {
		return match.AcceptanceSignal{}, fmt.Errorf("%w: feedback storage not configured", ErrInternal)
	}

	fctx, cancel := context.WithTimeout(ctx, u.fetchTimeout)
	defer cancel()

	accepts, rejects, err := u.feedback.Stats(fctx, fingerprint)
	if err != nil {
		return match.AcceptanceSignal{}, persistenceError("feedback stats", err)
	}
	return match.NewAcceptanceSignal(fingerprint, accepts, rejects), nil
}
