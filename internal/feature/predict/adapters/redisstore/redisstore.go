// Package redisstore implements the view and preview repositories on Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
)

const (
	fieldContentType = "content_type"
	fieldData        = "data"
)

// Store implements usecase.ViewRepository and usecase.PreviewRepository using Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var (
	_ usecase.ViewRepository    = (*Store)(nil)
	_ usecase.PreviewRepository = (*Store)(nil)
)

// New creates a new Store. If prefix is empty, it uses "classifier".
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "classifier"
	}
	return &Store{client: client, prefix: prefix}
}

// viewKey returns the Redis key for a view.
func (s *Store) viewKey(id string) string {
	return fmt.Sprintf("%s:view:%s", s.prefix, id)
}

// lockKey returns the Redis key for a view's submission lock.
func (s *Store) lockKey(id string) string {
	return fmt.Sprintf("%s:view:%s:lock", s.prefix, id)
}

// previewKey returns the Redis key for a preview hash.
func (s *Store) previewKey(id string) string {
	return fmt.Sprintf("%s:preview:%s", s.prefix, id)
}

// Save stores the view as JSON with the given TTL.
func (s *Store) Save(ctx context.Context, view *entity.View, ttl time.Duration) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}
	return s.client.Set(ctx, s.viewKey(view.ID), data, ttl).Err()
}

// Find retrieves a view by its ID.
func (s *Store) Find(ctx context.Context, id string) (*entity.View, error) {
	data, err := s.client.Get(ctx, s.viewKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrViewNotFound
		}
		return nil, err
	}

	var view entity.View
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal view: %w", err)
	}
	return &view, nil
}

// Delete removes a view and its lock.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.viewKey(id), s.lockKey(id)).Err()
}

// TryLock acquires the per-view submission lock with SETNX.
func (s *Store) TryLock(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.lockKey(id), 1, ttl).Result()
}

// Unlock releases the per-view submission lock.
func (s *Store) Unlock(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.lockKey(id)).Err()
}

// Put stores a preview as a hash and sets its TTL in one transaction.
func (s *Store) Put(ctx context.Context, preview *entity.Preview, ttl time.Duration) error {
	key := s.previewKey(preview.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldContentType, preview.ContentType, fieldData, preview.Data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// Get retrieves a preview by its ID.
func (s *Store) Get(ctx context.Context, id string) (*entity.Preview, error) {
	vals, err := s.client.HGetAll(ctx, s.previewKey(id)).Result()
	if err != nil {
		return nil, err
	}
	// HGETALL returns an empty map for a missing key
	data, ok := vals[fieldData]
	if !ok {
		return nil, usecase.ErrPreviewNotFound
	}
	return &entity.Preview{
		ID:          id,
		ContentType: vals[fieldContentType],
		Data:        []byte(data),
	}, nil
}

// Touch extends the TTL of a preview.
func (s *Store) Touch(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, s.previewKey(id), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return usecase.ErrPreviewNotFound
	}
	return nil
}

// Release deletes a preview.
func (s *Store) Release(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.previewKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrPreviewNotFound
	}
	return nil
}
