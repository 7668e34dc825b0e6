package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/config"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/infra/memory"
	mongostore "quiz-grading-service/internal/infra/mongo"
	pgstore "quiz-grading-service/internal/infra/postgres"
	rediscache "quiz-grading-service/internal/infra/redis"
)

// definitionCache serves the grading read path and is invalidated by the catalog.
type definitionCache interface {
	app.QuizRepository
	app.QuizCache
}

// backend bundles the storage adapters selected by storage.driver.
type backend struct {
	quizzes app.QuizStore
	results app.ResultStore
	users   app.UserDirectory
	loader  memory.QuizLoader
	upsert  func(ctx context.Context, profile domain.UserProfile) error
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db := pgstore.Open(cfg.Postgres.URL)
		if err := pgstore.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			db.Close()
			return nil, err
		}
		store := pgstore.NewStore(db)
		return &backend{
			quizzes: store,
			results: store,
			users:   store,
			loader:  pgstore.NewQuizLoader(pool),
			upsert:  store.UpsertUser,
			closers: []func(){func() { db.Close() }, pool.Close},
		}, nil

	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		store := mongostore.NewStore(client.Database(cfg.Mongo.Database))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &backend{
			quizzes: store,
			results: store,
			users:   store,
			loader:  app.QuizLoaderFunc(store.GetQuiz),
			upsert:  store.UpsertUser,
			closers: []func(){func() { _ = client.Disconnect(context.Background()) }},
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		return &backend{
			quizzes: store,
			results: store,
			users:   store,
			loader:  app.QuizLoaderFunc(store.GetQuiz),
			upsert: func(_ context.Context, profile domain.UserProfile) error {
				store.PutUser(profile)
				return nil
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newDefinitionCache(cfg config.Config, client *redis.Client, loader memory.QuizLoader) definitionCache {
	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if client != nil {
		log.Printf("caching quiz definitions in redis at %s (ttl %s)", cfg.Redis.Addr, ttl)
		return rediscache.NewQuizRepository(client, loader, ttl)
	}
	return memory.NewQuizRepository(loader, ttl)
}

func newResultFeed(cfg config.Config, client *redis.Client) app.ResultFeed {
	if cfg.Feed.Driver == config.DriverRedis && client != nil {
		return rediscache.NewResultFeed(client)
	}
	return memory.NewResultFeed()
}
