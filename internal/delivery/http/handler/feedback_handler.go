package handler

import (
	"staff-match/internal/delivery/http/dto"
	"staff-match/internal/delivery/http/middleware"
	"staff-match/internal/pkg/response"
	"staff-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type FeedbackHandler struct {
	uc usecase.FeedbackUsecase
}

func NewFeedbackHandler(uc usecase.FeedbackUsecase) *FeedbackHandler {
	return &FeedbackHandler{uc: uc}
}

// RegisterRoutes mounts the feedback endpoints. auth guards the submit route;
// the signal read is public.
func (h *FeedbackHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	if r == nil {
		return
	}
	if auth != nil {
		r.Post("/matches/:match_id/feedback", auth, h.Submit)
	} else {
		r.Post("/matches/:match_id/feedback", h.Submit)
	}
	r.Get("/feedback/signals/:fingerprint", h.Signal)
}

func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	actorID := middleware.ActorID(c)
	if actorID == "" {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	matchID, err := uuid.Parse(c.Params("match_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid match id", nil, err)
	}

	var req dto.FeedbackRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request body", nil, err)
	}
	if err := req.Validate(); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid feedback", dto.ValidationDetails(err), err)
	}

	fb, duplicate, err := h.uc.RecordFeedback(c.Context(), usecase.FeedbackInput{
		MatchID: matchID,
		ActorID: actorID,
		Outcome: req.Outcome,
		Rating:  req.Rating,
	})
	if err != nil {
		return mapUsecaseError(err)
	}

	status := fiber.StatusCreated
	msg := "Feedback recorded"
	if duplicate {
		status = fiber.StatusOK
		msg = "Feedback already recorded"
	}
	return response.Success(c, status, msg, dto.NewFeedbackResponse(fb, duplicate))
}

func (h *FeedbackHandler) Signal(c fiber.Ctx) error {
	signal, err := h.uc.Signal(c.Context(), c.Params("fingerprint"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.SignalResponse(signal))
}
