package app

import (
	"context"
	"fmt"
	"time"

	"staff-match/internal/config"
	"staff-match/internal/database"
	dbpostgres "staff-match/internal/database/postgres"
	"staff-match/internal/domain/criteria"
	"staff-match/internal/infrastructure/cache"
	"staff-match/internal/logger"
	"staff-match/internal/pkg/jwt"
	"staff-match/internal/repository"
	"staff-match/internal/usecase"
	"staff-match/internal/worker"
	"staff-match/internal/ws"

	"go.uber.org/zap"
)

type matchCacheCloser interface {
	usecase.MatchCache
	Close() error
}

// Container owns every long-lived dependency. Without database settings it
// falls back to in-memory repositories; without Redis it uses an in-process
// cache.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB       database.DB
	Cache    matchCacheCloser
	Redis    *cache.Redis
	Entities interface {
		usecase.EntityRepository
		repository.EntityWriter
	}
	Matches  usecase.MatchRepository
	Feedback usecase.FeedbackRepository

	Dispatcher *worker.Dispatcher
	Hub        *ws.Hub
	Tokens     jwt.Service

	MatchingUC *usecase.Matching
	FeedbackUC *usecase.Feedback

	cancel context.CancelFunc
}

func NewContainer(cfg config.Config, log *zap.Logger) (*Container, error) {
	log = logger.OrNop(log)
	c := &Container{Config: cfg, Logger: log}

	if cfg.Database.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		c.DB = db
		c.Entities = repository.NewPostgresEntityRepository(db)
		c.Matches = repository.NewPostgresMatchRepository(db)
		c.Feedback = repository.NewPostgresFeedbackRepository(db)
	} else {
		log.Warn("database not configured, using in-memory repositories")
		ents, err := repository.NewMemoryEntityRepository()
		if err != nil {
			return nil, err
		}
		c.Entities = ents
		c.Matches = repository.NewMemoryMatchRepository()
		c.Feedback = repository.NewMemoryFeedbackRepository()
	}

	if cfg.Redis.Enabled() {
		r := cache.NewRedis(cfg.Redis, log)
		c.Redis = r
		c.Cache = r
	} else {
		log.Warn("redis not configured, using in-process match cache")
		c.Cache = cache.NewMemory(time.Minute)
	}

	var loader criteria.Loader
	if cfg.Matching.CriteriaFile != "" {
		loader = criteria.NewFileLoader(cfg.Matching.CriteriaFile)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.Dispatcher = worker.NewDispatcher(cfg.Matching.DispatchWorkers, cfg.Matching.DispatchBuffer, log.Named("dispatch"))
	c.Dispatcher.Start(runCtx)

	c.Hub = ws.NewHub(log.Named("ws"))
	go c.Hub.Run(runCtx)
	notifier := ws.NewNotifier(c.Hub)

	issuer := cfg.App.AppName
	c.Tokens = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn, issuer)

	c.MatchingUC = usecase.NewMatchingUsecase(usecase.MatchingDeps{
		Entities: c.Entities,
		Matches:  c.Matches,
		Cache:    c.Cache,
		Criteria: loader,
		Async:    c.Dispatcher,
		Notifier: notifier,
		Logger:   log.Named("matching"),
	}, usecase.MatchingOptionsFromConfig(cfg.Matching))

	c.FeedbackUC = usecase.NewFeedbackUsecase(usecase.FeedbackDeps{
		Matches:  c.Matches,
		Feedback: c.Feedback,
		Async:    c.Dispatcher,
		Notifier: notifier,
		Logger:   log.Named("feedback"),
	}, cfg.Matching.FetchTimeout)

	return c, nil
}

// Close drains queued side effects before releasing the cache and database.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Dispatcher != nil {
		c.Dispatcher.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}

	var firstErr error
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			firstErr = fmt.Errorf("close cache: %w", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close db: %w", err)
		}
	}
	return firstErr
}
