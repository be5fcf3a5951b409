package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"classifier_web/internal/feature/predict/adapters/memstore"
	"classifier_web/internal/feature/predict/adapters/redisstore"
	"classifier_web/internal/feature/predict/usecase"
)

// sweepInterval is how often the in-memory store drops expired views.
const sweepInterval = time.Minute

// Store is the combined view and preview repository.
type Store interface {
	usecase.ViewRepository
	usecase.PreviewRepository
}

// NewStore creates the view/preview store.
// If Redis is available, it returns a Redis-backed implementation and a nil sweeper.
// Otherwise, it falls back to memory and returns the sweeper that must be run in the background.
func NewStore(rdb *redis.Client) (Store, func(ctx context.Context) error) {
	if rdb != nil {
		return redisstore.New(rdb, "classifier"), nil
	}
	m := memstore.New()
	return m, func(ctx context.Context) error { return m.Run(ctx, sweepInterval) }
}
