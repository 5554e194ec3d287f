package seeder

import (
	"context"

	"staff-match/internal/repository"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, w repository.EntityWriter) error
}
