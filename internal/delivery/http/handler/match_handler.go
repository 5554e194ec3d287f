package handler

import (
	"staff-match/internal/delivery/http/dto"
	"staff-match/internal/delivery/http/middleware"
	"staff-match/internal/domain/entity"
	"staff-match/internal/pkg/response"
	"staff-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type MatchHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchHandler(uc usecase.MatchingUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	for _, kind := range []entity.Kind{entity.KindJob, entity.KindWorker} {
		grp := r.Group("/" + string(kind) + "s")
		grp.Post("/:id/matches", h.Compute(kind))
		grp.Delete("/:id/matches/cache", h.Invalidate(kind))
	}
}

// Compute returns the ranked matches for the subject named in the path. An
// empty body uses the default criteria.
func (h *MatchHandler) Compute(kind entity.Kind) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req dto.MatchRequest
		if len(c.Body()) > 0 {
			if err := c.Bind().Body(&req); err != nil {
				return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request body", nil, err)
			}
		}
		if err := req.Validate(); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid criteria", dto.ValidationDetails(err), err)
		}

		res, err := h.uc.ComputeMatches(c.Context(), usecase.MatchRequest{
			SubjectKind:  kind,
			SubjectID:    c.Params("id"),
			Override:     req.Override(),
			ForceRefresh: req.ForceRefresh,
			Assisted:     req.Assisted,
		})
		if err != nil {
			return mapUsecaseError(err)
		}

		return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchListResponse(res))
	}
}

func (h *MatchHandler) Invalidate(kind entity.Kind) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := h.uc.InvalidateSubject(c.Context(), kind, c.Params("id")); err != nil {
			return mapUsecaseError(err)
		}
		return response.Success(c, fiber.StatusOK, "Match cache invalidated", fiber.Map{
			"subject_kind": kind,
			"subject_id":   c.Params("id"),
		})
	}
}
