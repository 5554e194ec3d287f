package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"staff-match/internal/database"
	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/match"
	"staff-match/internal/usecase"

	"github.com/google/uuid"
)

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

// SaveMatches writes one ranked list atomically. Matches are immutable, so a
// repeated id is ignored rather than updated.
func (r *PostgresMatchRepository) SaveMatches(ctx context.Context, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, m := range matches {
		if m.ID == uuid.Nil {
			return fmt.Errorf("save match: empty id for candidate %s", m.CandidateID)
		}
		scores, err := json.Marshal(m.Scores)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO matches (id, subject_kind, subject_id, candidate_id, scores, total_score, rank, fingerprint, computed_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 ON CONFLICT (id) DO NOTHING`,
			m.ID,
			string(m.SubjectKind),
			m.SubjectID,
			m.CandidateID,
			scores,
			m.TotalScore,
			m.Rank,
			m.Fingerprint,
			m.ComputedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresMatchRepository) FindByID(ctx context.Context, id uuid.UUID) (match.Match, error) {
	var (
		m      match.Match
		kind   string
		scores []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, subject_kind, subject_id, candidate_id, scores, total_score, rank, fingerprint, computed_at
		 FROM matches WHERE id = $1`,
		id,
	).Scan(&m.ID, &kind, &m.SubjectID, &m.CandidateID, &scores, &m.TotalScore, &m.Rank, &m.Fingerprint, &m.ComputedAt)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return match.Match{}, fmt.Errorf("%w: %s", usecase.ErrMatchNotFound, id)
		}
		return match.Match{}, err
	}
	m.SubjectKind = entity.Kind(kind)
	m.Scores = map[criteria.Category]float64{}
	if err := json.Unmarshal(scores, &m.Scores); err != nil {
		return match.Match{}, fmt.Errorf("decode scores for match %s: %w", id, err)
	}
	return m, nil
}

type MemoryMatchRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]match.Match
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{byID: map[uuid.UUID]match.Match{}}
}

func (r *MemoryMatchRepository) SaveMatches(_ context.Context, matches []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		if _, ok := r.byID[m.ID]; ok {
			continue
		}
		r.byID[m.ID] = m
	}
	return nil
}

func (r *MemoryMatchRepository) FindByID(_ context.Context, id uuid.UUID) (match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return match.Match{}, fmt.Errorf("%w: %s", usecase.ErrMatchNotFound, id)
	}
	return m, nil
}
