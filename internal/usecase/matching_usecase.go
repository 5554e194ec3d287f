package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"staff-match/internal/config"
	"staff-match/internal/domain/criteria"
	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/match"
	"staff-match/internal/domain/matching"
	"staff-match/internal/logger"
	"staff-match/internal/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PoolSpec narrows what the persistence layer returns for a subject. The
// store may apply it loosely; FilterPool enforces the hard constraints again.
type PoolSpec struct {
	Kind     entity.Kind
	Near     *entity.Location
	RadiusKm float64
	Skills   []string
	Limit    int
}

type EntityRepository interface {
	FetchEntity(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error)
	FetchPool(ctx context.Context, spec PoolSpec) ([]entity.Entity, error)
}

type MatchRepository interface {
	SaveMatches(ctx context.Context, matches []match.Match) error
	FindByID(ctx context.Context, id uuid.UUID) (match.Match, error)
}

type Notifier interface {
	Publish(ctx context.Context, evt match.Event) error
}

type TaskSubmitter interface {
	Submit(name string, task worker.Task) bool
}

type MatchRequest struct {
	SubjectKind  entity.Kind
	SubjectID    string
	Override     *criteria.Override
	ForceRefresh bool
	Assisted     bool
}

type MatchResult struct {
	SubjectKind entity.Kind       `json:"subject_kind"`
	SubjectID   string            `json:"subject_id"`
	Fingerprint string            `json:"fingerprint"`
	Criteria    criteria.Criteria `json:"criteria"`
	Matches     []match.Match     `json:"matches"`
	ComputedAt  time.Time         `json:"computed_at"`
	FromCache   bool              `json:"from_cache"`
}

type MatchingUsecase interface {
	ComputeMatches(ctx context.Context, req MatchRequest) (MatchResult, error)
	InvalidateSubject(ctx context.Context, kind entity.Kind, subjectID string) error
	InvalidateKey(ctx context.Context, key string) error
}

type MatchingOptions struct {
	CacheTTL         time.Duration
	AssistedCacheTTL time.Duration
	CacheTimeout     time.Duration
	FetchTimeout     time.Duration
	ScoreWorkers     int
	PoolCap          int
	PoolFetchLimit   int
}

func MatchingOptionsFromConfig(cfg config.MatchingConfig) MatchingOptions {
	return MatchingOptions{
		CacheTTL:         cfg.CacheTTL,
		AssistedCacheTTL: cfg.AssistedCacheTTL,
		CacheTimeout:     cfg.CacheTimeout,
		FetchTimeout:     cfg.FetchTimeout,
		ScoreWorkers:     cfg.ScoreWorkers,
		PoolCap:          cfg.PoolCap,
		PoolFetchLimit:   cfg.PoolFetchLimit,
	}
}

func (o MatchingOptions) withDefaults() MatchingOptions {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 3600 * time.Second
	}
	if o.AssistedCacheTTL <= 0 {
		o.AssistedCacheTTL = 1800 * time.Second
	}
	if o.CacheTimeout <= 0 {
		o.CacheTimeout = 300 * time.Millisecond
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 5 * time.Second
	}
	if o.ScoreWorkers <= 0 {
		o.ScoreWorkers = 8
	}
	if o.PoolCap <= 0 {
		o.PoolCap = matching.DefaultPoolCap
	}
	if o.PoolFetchLimit <= 0 {
		o.PoolFetchLimit = 1000
	}
	if o.PoolFetchLimit < o.PoolCap {
		o.PoolFetchLimit = o.PoolCap
	}
	return o
}

type MatchingDeps struct {
	Entities EntityRepository
	Matches  MatchRepository
	Cache    MatchCache
	Criteria criteria.Loader
	Async    TaskSubmitter
	Notifier Notifier
	Logger   *zap.Logger
}

type Matching struct {
	entities EntityRepository
	matches  MatchRepository
	loader   criteria.Loader
	async    TaskSubmitter
	notifier Notifier
	cache    matchCacheStore
	opts     MatchingOptions
	logger   *zap.Logger
	now      func() time.Time
}

func NewMatchingUsecase(deps MatchingDeps, opts MatchingOptions) *Matching {
	opts = opts.withDefaults()
	log := logger.OrNop(deps.Logger)
	return &Matching{
		entities: deps.Entities,
		matches:  deps.Matches,
		loader:   deps.Criteria,
		async:    deps.Async,
		notifier: deps.Notifier,
		cache: matchCacheStore{
			cache:       deps.Cache,
			timeout:     opts.CacheTimeout,
			ttl:         opts.CacheTTL,
			assistedTTL: opts.AssistedCacheTTL,
			logger:      log,
		},
		opts:   opts,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (u *Matching) ComputeMatches(ctx context.Context, req MatchRequest) (MatchResult, error) {
	subjectID := strings.TrimSpace(req.SubjectID)
	if subjectID == "" {
		return MatchResult{}, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if _, err := entity.ParseKind(string(req.SubjectKind)); err != nil {
		return MatchResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.entities == nil {
		return MatchResult{}, fmt.Errorf("%w: entity repository not configured", ErrInternal)
	}

	crit, err := u.resolveCriteria(ctx, req)
	if err != nil {
		return MatchResult{}, err
	}

	filter := FilterParams{PoolCap: u.opts.PoolCap, Assisted: req.Assisted}
	fingerprint := MatchFingerprint(subjectID, crit, filter)
	key := MatchCacheKey(req.SubjectKind, subjectID, fingerprint)
	log := u.logger.With(append(logger.Subject(string(req.SubjectKind), subjectID), zap.String(logger.FieldFingerprint, fingerprint))...)

	if !req.ForceRefresh {
		if cached, ok := u.cache.get(ctx, key); ok {
			log.Debug("match cache hit", zap.Int("matches", len(cached.Matches)))
			return MatchResult{
				SubjectKind: req.SubjectKind,
				SubjectID:   subjectID,
				Fingerprint: fingerprint,
				Criteria:    crit,
				Matches:     cached.Matches,
				ComputedAt:  cached.ComputedAt,
				FromCache:   true,
			}, nil
		}
	}

	subject, err := u.fetchSubject(ctx, req.SubjectKind, subjectID)
	if err != nil {
		return MatchResult{}, err
	}

	pool, err := u.fetchPool(ctx, subject, crit)
	if err != nil {
		return MatchResult{}, err
	}

	candidates := matching.FilterPool(subject, pool, crit, u.opts.PoolCap)
	log.Debug("candidate pool filtered", zap.Int("fetched", len(pool)), zap.Int("candidates", len(candidates)))

	scored, err := u.scoreCandidates(ctx, subject, candidates, crit, log)
	if err != nil {
		return MatchResult{}, err
	}

	ranked := matching.Rank(scored, crit.MinMatchScore, crit.TopK)
	computedAt := u.now()

	matches := make([]match.Match, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, match.Match{
			ID:          uuid.New(),
			SubjectID:   subjectID,
			SubjectKind: req.SubjectKind,
			CandidateID: r.CandidateID,
			Scores:      r.Scores,
			TotalScore:  r.TotalScore,
			Rank:        r.Rank,
			ComputedAt:  computedAt,
			Fingerprint: fingerprint,
		})
	}

	// Returned ids must be resolvable by feedback, and a cache hit serves the
	// same ids, so matches are stored before they are cached or returned.
	if err := u.persistMatches(ctx, matches); err != nil {
		return MatchResult{}, err
	}

	u.cache.set(ctx, key, cachedMatches{Fingerprint: fingerprint, ComputedAt: computedAt, Matches: matches}, req.Assisted)
	log.Info("matches computed", zap.Int("candidates", len(candidates)), zap.Int("matches", len(matches)), zap.Bool("force_refresh", req.ForceRefresh))

	u.submitSideEffects(req.SubjectKind, subjectID, fingerprint, matches)

	return MatchResult{
		SubjectKind: req.SubjectKind,
		SubjectID:   subjectID,
		Fingerprint: fingerprint,
		Criteria:    crit,
		Matches:     matches,
		ComputedAt:  computedAt,
	}, nil
}

func (u *Matching) resolveCriteria(ctx context.Context, req MatchRequest) (criteria.Criteria, error) {
	var base *criteria.Override
	if u.loader != nil {
		o, err := u.loader.LoadCriteria(ctx, req.SubjectKind)
		if err != nil {
			return criteria.Criteria{}, err
		}
		base = o
	}
	return criteria.Resolve(req.SubjectKind, base, req.Override)
}

func (u *Matching) fetchSubject(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error) {
	fctx, cancel := context.WithTimeout(ctx, u.opts.FetchTimeout)
	defer cancel()

	subject, err := u.entities.FetchEntity(fctx, kind, id)
	if err != nil {
		return nil, persistenceError("fetch subject", err)
	}
	if subject == nil || subject.Kind() != kind {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	if err := entity.Validate(subject); err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrInvalidInput, err)
	}
	return subject, nil
}

func (u *Matching) persistMatches(ctx context.Context, matches []match.Match) error {
	if u.matches == nil || len(matches) == 0 {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, u.opts.FetchTimeout)
	defer cancel()
	if err := u.matches.SaveMatches(pctx, matches); err != nil {
		return persistenceError("save matches", err)
	}
	return nil
}

func (u *Matching) fetchPool(ctx context.Context, subject entity.Entity, crit criteria.Criteria) ([]entity.Entity, error) {
	spec := PoolSpec{
		Kind:  subject.Kind().Opposite(),
		Limit: u.opts.PoolFetchLimit,
	}
	if loc := subject.Location(); loc != nil && crit.Location.Weight > 0 && crit.Location.MaxDistanceKm > 0 {
		spec.Near = loc
		spec.RadiusKm = crit.Location.MaxDistanceKm
	}
	for _, s := range subject.RequiredSkills() {
		if n := entity.NormalizeName(s.Name); n != "" {
			spec.Skills = append(spec.Skills, n)
		}
	}

	fctx, cancel := context.WithTimeout(ctx, u.opts.FetchTimeout)
	defer cancel()

	pool, err := u.entities.FetchPool(fctx, spec)
	if err != nil {
		return nil, persistenceError("fetch pool", err)
	}
	return pool, nil
}

func persistenceError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", ErrPersistenceTimeout, op)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// scoreCandidates scores the pool with at most ScoreWorkers goroutines. Each
// goroutine writes only its own slot, so no locking is needed. A cancelled
// request returns the context error and discards all partial scores.
func (u *Matching) scoreCandidates(ctx context.Context, subject entity.Entity, candidates []entity.Entity, crit criteria.Criteria, log *zap.Logger) ([]matching.Scored, error) {
	slots := make([]*matching.Scored, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.ScoreWorkers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores, err := matching.ScorePair(subject, c, crit)
			if err != nil {
				if errors.Is(err, matching.ErrComputationSkip) {
					log.Debug("candidate skipped", zap.String("candidate_id", c.EntityID()), zap.Error(err))
					return nil
				}
				return err
			}
			slots[i] = &matching.Scored{
				CandidateID: c.EntityID(),
				Scores:      scores,
				TotalScore:  matching.Aggregate(scores, crit),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]matching.Scored, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (u *Matching) submitSideEffects(kind entity.Kind, subjectID, fingerprint string, matches []match.Match) {
	if u.async == nil {
		return
	}
	if u.notifier != nil {
		evt := match.Event{
			Type:        match.EventMatchesComputed,
			SubjectKind: kind,
			SubjectID:   subjectID,
			Fingerprint: fingerprint,
			Matches:     len(matches),
			Timestamp:   u.now(),
		}
		if len(matches) > 0 {
			evt.TopScore = matches[0].TotalScore
		}
		u.async.Submit("notify_matches", func(ctx context.Context) error {
			return u.notifier.Publish(ctx, evt)
		})
	}
}

func (u *Matching) InvalidateSubject(ctx context.Context, kind entity.Kind, subjectID string) error {
	if _, err := entity.ParseKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if err := u.cache.invalidateSubject(ctx, subjectID); err != nil {
		return err
	}
	u.logger.Info("match cache invalidated", logger.Subject(string(kind), subjectID)...)

	if u.async != nil && u.notifier != nil {
		evt := match.Event{Type: match.EventCacheInvalidated, SubjectKind: kind, SubjectID: subjectID, Timestamp: u.now()}
		u.async.Submit("notify_invalidation", func(ctx context.Context) error {
			return u.notifier.Publish(ctx, evt)
		})
	}
	return nil
}

func (u *Matching) InvalidateKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, matchKeyPrefix) {
		return fmt.Errorf("%w: not a match cache key", ErrInvalidInput)
	}
	return u.cache.invalidateKey(ctx, key)
}
