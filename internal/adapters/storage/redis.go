package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// DefaultRedisPrefix namespaces keys when no prefix is configured.
const DefaultRedisPrefix = "openapi-tryit:"

// RedisStore keeps each specification as a JSON string under prefix+"spec:"+id,
// with the ids tracked in the set prefix+"specs".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects lazily to addr.
func NewRedisStore(addr, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{Addr: addr})
	client.AddHook(redisotel.NewTracingHook())
	return NewRedisStoreWithClient(client, prefix)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + "spec:" + id }

func (s *RedisStore) index() string { return s.prefix + "specs" }

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.StoredSpec, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec %s: %w", id, err)
	}

	var spec domain.StoredSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec %s: %w", id, err)
	}
	return &spec, nil
}

func (s *RedisStore) Put(ctx context.Context, spec *domain.StoredSpec) error {
	if err := ValidateID(spec.ID); err != nil {
		return err
	}

	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode spec %s: %w", spec.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(spec.ID), data, 0)
		pipe.SAdd(ctx, s.index(), spec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write spec %s: %w", spec.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.index(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete spec %s: %w", id, err)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*domain.StoredSpec, error) {
	ids, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list specs: %w", err)
	}

	out := make([]*domain.StoredSpec, 0, len(ids))
	for _, id := range ids {
		spec, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrSpecNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	sortByID(out)

	return out, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
