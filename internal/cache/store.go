package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/oculairmedia/graphiti/internal/platform/apperr"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

// Store composes the four cache layers over a redis.UniversalClient KV
// backing, mirroring the get-or-set shape of the teacher's
// RedisSkillsCache but generalized to arbitrary byte payloads, adaptive
// TTL, negative-existence short-circuiting, and stampede coalescing.
type Store struct {
	client    redis.UniversalClient
	negative  *NegativeFilter
	coalescer *Coalescer
	counter   *AccessCounter
	log       log.Logger
}

func NewStore(client redis.UniversalClient, expectedItems int, falsePositiveRate float64, logger log.Logger) *Store {
	return &Store{
		client:    client,
		negative:  NewNegativeFilter(expectedItems, falsePositiveRate),
		coalescer: NewCoalescer(),
		counter:   NewAccessCounter(expectedItems),
		log:       logger,
	}
}

// GetOrCompute returns the cached value for key, computing and storing it
// via compute when absent. Concurrent callers for the same key share one
// compute call (coalescing). A key the negative filter reports as absent
// skips the KV round-trip entirely and goes straight to compute.
func (s *Store) GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	temp := s.counter.Temperature(key)
	s.counter.Hit(key)

	result, err := s.coalescer.Do(ctx, key, func(ctx context.Context) (any, error) {
		if s.negative.MightExist(key) {
			if val, err := s.client.Get(ctx, key).Bytes(); err == nil {
				return val, nil
			} else if err != redis.Nil {
				s.log.Warn().Err(err).Str("key", key).Msg("cache: KV get failed, falling through to compute")
			}
		}
		return s.computeAndStore(ctx, key, compute, temp)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (s *Store) computeAndStore(ctx context.Context, key string, compute func(context.Context) ([]byte, error), temp Temperature) ([]byte, error) {
	val, err := compute(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "cache: compute failed", err)
	}
	s.negative.MarkExists(key)
	ttl := TTLFor(temp)
	if err := s.client.Set(ctx, key, val, ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache: KV set failed")
	}
	return val, nil
}

// Invalidate removes key from the KV backing. The negative filter is left
// untouched (Bloom filters cannot delete), matching the standard tradeoff:
// a false "might exist" after invalidation just costs one extra KV miss.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// ClearAll resets the negative filter and flushes the entire KV namespace
// this store owns, per the /ws clear_cache command (spec.md §4.12).
func (s *Store) ClearAll(ctx context.Context, keyPrefix string) error {
	s.negative.Clear()
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 1000).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
