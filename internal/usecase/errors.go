package usecase

import "errors"

var (
	ErrNotFound           = errors.New("entity not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrCacheUnavailable   = errors.New("match cache unavailable")
	ErrFeedbackConflict   = errors.New("feedback already recorded")
	ErrPersistenceTimeout = errors.New("persistence timeout")
	ErrInternal           = errors.New("internal error")
)
