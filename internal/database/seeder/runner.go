package seeder

import (
	"context"
	"fmt"

	"staff-match/internal/database"
	"staff-match/internal/repository"

	"go.uber.org/zap"
)

type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

func (r Runner) Run(ctx context.Context, w repository.EntityWriter) error {
	if w == nil {
		return fmt.Errorf("nil entity writer")
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, w); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		if r.Logger != nil {
			r.Logger.Info("seeder applied", zap.String("seeder", s.Name()))
		}
	}
	return nil
}

// RunDB checks the entities schema before writing through the Postgres
// repository.
func (r Runner) RunDB(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "entities", "id", "kind", "status", "lat", "lng", "skill_names", "payload", "updated_at"); err != nil {
		return err
	}
	return r.Run(ctx, repository.NewPostgresEntityRepository(db))
}
