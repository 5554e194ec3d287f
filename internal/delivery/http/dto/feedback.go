package dto

import (
	"time"

	"staff-match/internal/domain/match"

	"github.com/google/uuid"
)

type FeedbackRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=accept reject"`
	Rating  *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

func (r *FeedbackRequest) Validate() error {
	return validate.Struct(r)
}

type FeedbackResponse struct {
	ID          uuid.UUID `json:"id"`
	MatchID     uuid.UUID `json:"match_id"`
	Outcome     string    `json:"outcome"`
	Rating      *int      `json:"rating,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Duplicate   bool      `json:"duplicate"`
}

func NewFeedbackResponse(fb match.Feedback, duplicate bool) FeedbackResponse {
	return FeedbackResponse{
		ID:          fb.ID,
		MatchID:     fb.MatchID,
		Outcome:     string(fb.Outcome),
		Rating:      fb.Rating,
		SubmittedAt: fb.SubmittedAt,
		Duplicate:   duplicate,
	}
}

type SignalResponse = match.AcceptanceSignal
