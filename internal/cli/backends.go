package cli

import (
	"context"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/config"
	"academy-quiz-service/internal/infra/memory"
	"academy-quiz-service/internal/infra/postgres"
	redisinfra "academy-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// backends holds the stores picked by the config: Postgres when a URL is set,
// Redis for caching and attempts when an address is set, memory otherwise.
type backends struct {
	quizzes  app.QuizStore
	cache    app.QuizCache
	attempts app.AttemptRepository
	feeds    app.FeedRepository
	durable  bool

	pool  *pgxpool.Pool
	db    *bun.DB
	redis *redis.Client
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pool = pool
		b.db = openBun(cfg.Postgres.URL)
		b.quizzes = postgres.NewQuizStore(b.db, postgres.NewQuizLoader(pool))
		b.attempts = postgres.NewAttemptStore(b.db)
		b.durable = true
	} else {
		b.quizzes = memory.NewQuizStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if b.redis != nil {
		b.cache = redisinfra.NewQuizRepository(b.redis, b.quizzes, quizTTL)
		b.feeds = redisinfra.NewFeedStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		if b.attempts == nil {
			b.attempts = redisinfra.NewAttemptStore(b.redis)
			b.durable = true
		}
	} else {
		b.cache = memory.NewQuizRepository(b.quizzes, quizTTL)
		b.feeds = memory.NewFeedStore()
	}
	if b.attempts == nil {
		b.attempts = memory.NewAttemptStore()
	}
	return b, nil
}

func (b *backends) Close() {
	if b.db != nil {
		b.db.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}
