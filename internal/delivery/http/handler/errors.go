package handler

import (
	"errors"

	"staff-match/internal/delivery/http/middleware"
	"staff-match/internal/domain/criteria"
	"staff-match/internal/pkg/response"
	"staff-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrMatchNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	case errors.Is(err, usecase.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Entity not found", nil, err)
	case errors.Is(err, criteria.ErrConfiguration):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrCacheUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Match cache unavailable", nil, err)
	case errors.Is(err, usecase.ErrPersistenceTimeout):
		return middleware.NewAppError(fiber.StatusGatewayTimeout, "Persistence timed out", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
