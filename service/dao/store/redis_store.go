package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viant/procflow/service/dao"
)

// RedisStore keeps JSON-encoded entities under "<prefix>:<key>" with a set
// "<prefix>:index" holding known keys.
type RedisStore[T any] struct {
	client      *redis.Client
	prefix      string
	ttl         time.Duration
	keySelector func(*T) string
	filter      dao.Filter[T]
}

// NewRedisStore creates a store; ttl of zero keeps entries forever
func NewRedisStore[T any](client *redis.Client, prefix string, ttl time.Duration, keySelector func(*T) string, options ...Option[T]) *RedisStore[T] {
	opts := newOptions(options)
	return &RedisStore[T]{
		client:      client,
		prefix:      prefix,
		ttl:         ttl,
		keySelector: keySelector,
		filter:      opts.filter,
	}
}

// Save persists an entity and registers its key in the index
func (s *RedisStore[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	if key == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.entityKey(key), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), key)
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Load retrieves an entity
func (s *RedisStore[T]) Load(ctx context.Context, key string) (*T, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	data, err := s.client.Get(ctx, s.entityKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	ret := new(T)
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return ret, nil
}

// Delete removes an entity and its index entry
func (s *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return dao.ErrInvalidID
	}
	removed, err := s.client.Del(ctx, s.entityKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if err = s.client.SRem(ctx, s.indexKey(), key).Err(); err != nil {
		return fmt.Errorf("failed to unindex %s: %w", key, err)
	}
	if removed == 0 {
		return dao.ErrNotFound
	}
	return nil
}

// List returns indexed entities; expired keys are pruned from the index
func (s *RedisStore[T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.prefix, err)
	}
	var result []*T
	for _, key := range keys {
		item, err := s.Load(ctx, key)
		if errors.Is(err, dao.ErrNotFound) {
			_ = s.client.SRem(ctx, s.indexKey(), key).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.filter != nil && !s.filter(item, parameters) {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *RedisStore[T]) entityKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore[T]) indexKey() string {
	return s.prefix + ":index"
}

var _ dao.Service[string, struct{}] = (*RedisStore[struct{}])(nil)
