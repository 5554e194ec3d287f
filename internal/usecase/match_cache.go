package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/match"
	"staff-match/internal/logger"

	"go.uber.org/zap"
)

const matchKeyPrefix = "match:"

type MatchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// FilterParams are the request inputs outside Criteria that change which
// candidates survive filtering or how long the result is kept.
type FilterParams struct {
	PoolCap  int  `json:"pool_cap"`
	Assisted bool `json:"assisted"`
}

type fingerprintWeight struct {
	Category criteria.Category `json:"category"`
	Weight   float64           `json:"weight"`
}

type fingerprintInput struct {
	SubjectID       string              `json:"subject_id"`
	Context         entity.Kind         `json:"context"`
	Weights         []fingerprintWeight `json:"weights"`
	RequiredOverlap float64             `json:"required_overlap"`
	LevelBonusCap   float64             `json:"level_bonus_cap"`
	MinYears        float64             `json:"min_years"`
	MaxDistanceKm   float64             `json:"max_distance_km"`
	MinMatchScore   float64             `json:"min_match_score"`
	TopK            int                 `json:"top_k"`
	Filter          FilterParams        `json:"filter"`
}

// MatchFingerprint hashes every input that defines a ranked result. Raw
// weights are hashed alongside the normalized ones so scaling all weights by
// the same factor still yields a new key.
func MatchFingerprint(subjectID string, crit criteria.Criteria, filter FilterParams) string {
	normalized := crit.NormalizedWeights()
	raw := crit.Weights()

	weights := make([]fingerprintWeight, 0, 2*len(criteria.Categories))
	for _, cat := range criteria.Categories {
		weights = append(weights, fingerprintWeight{Category: cat, Weight: normalized[cat]})
	}
	for _, cat := range criteria.Categories {
		weights = append(weights, fingerprintWeight{Category: "raw_" + cat, Weight: raw[cat]})
	}

	in := fingerprintInput{
		SubjectID:       strings.TrimSpace(subjectID),
		Context:         crit.Context,
		Weights:         weights,
		RequiredOverlap: crit.Skills.RequiredOverlap,
		LevelBonusCap:   crit.Skills.LevelBonusCap,
		MinYears:        crit.Experience.MinYears,
		MaxDistanceKm:   crit.Location.MaxDistanceKm,
		MinMatchScore:   crit.MinMatchScore,
		TopK:            crit.TopK,
		Filter:          filter,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func MatchCacheKey(ctxType entity.Kind, subjectID, fingerprint string) string {
	return matchKeyPrefix + string(ctxType) + ":" + strings.TrimSpace(subjectID) + ":" + fingerprint
}

// SubjectCachePattern matches every cached result for subjectID regardless of
// context or fingerprint.
func SubjectCachePattern(subjectID string) string {
	return matchKeyPrefix + "*:" + globEscape(strings.TrimSpace(subjectID)) + ":*"
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func globEscape(s string) string {
	return globReplacer.Replace(s)
}

type cachedMatches struct {
	Fingerprint string        `json:"fingerprint"`
	ComputedAt  time.Time     `json:"computed_at"`
	Matches     []match.Match `json:"matches"`
}

type matchCacheStore struct {
	cache       MatchCache
	timeout     time.Duration
	ttl         time.Duration
	assistedTTL time.Duration
	logger      *zap.Logger
}

func (s matchCacheStore) enabled() bool {
	return s.cache != nil
}

func (s matchCacheStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// get never fails the request: errors and timeouts are logged and reported
// as a miss.
func (s matchCacheStore) get(ctx context.Context, key string) (cachedMatches, bool) {
	if !s.enabled() {
		return cachedMatches{}, false
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out cachedMatches
	hit, err := s.cache.GetJSON(cctx, key, &out)
	if err != nil {
		s.logger.Warn("match cache read degraded", zap.String(logger.FieldCacheKey, key), zap.Error(fmt.Errorf("%w: %v", ErrCacheUnavailable, err)))
		return cachedMatches{}, false
	}
	if !hit || out.Matches == nil {
		return cachedMatches{}, false
	}
	return out, true
}

func (s matchCacheStore) set(ctx context.Context, key string, value cachedMatches, assisted bool) {
	if !s.enabled() {
		return
	}
	ttl := s.ttl
	if assisted {
		ttl = s.assistedTTL
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.cache.SetJSON(cctx, key, value, ttl); err != nil {
		s.logger.Warn("match cache write degraded", zap.String(logger.FieldCacheKey, key), zap.Error(fmt.Errorf("%w: %v", ErrCacheUnavailable, err)))
	}
}

func (s matchCacheStore) invalidateKey(ctx context.Context, key string) error {
	if !s.enabled() {
		return nil
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.cache.Delete(cctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (s matchCacheStore) invalidateSubject(ctx context.Context, subjectID string) error {
	if !s.enabled() {
		return nil
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return ErrInvalidInput
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.cache.DeleteByPattern(cctx, SubjectCachePattern(subjectID)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: invalidation timed out", ErrCacheUnavailable)
		}
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
