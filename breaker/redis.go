package breaker

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists breaker state in Redis so workers sharing the store
// share breaker state. Keys are derived from the breaker key:
//
//	<key>::state      string, one of closed|open|half-open
//	<key>::failures   integer counter
//	<key>::opened-at  unix seconds of the last trip
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore creates a store on the given Redis client.
func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) State(ctx context.Context, key string) (State, error) {
	v, err := s.rdb.Get(ctx, key+"::state").Result()
	if err == redis.Nil {
		return StateClosed, nil
	}
	if err != nil {
		return StateClosed, err
	}
	return ParseState(v), nil
}

func (s *RedisStore) SetState(ctx context.Context, key string, state State) error {
	return s.rdb.Set(ctx, key+"::state", state.String(), 0).Err()
}

func (s *RedisStore) Failures(ctx context.Context, key string) (int, error) {
	v, err := s.rdb.Get(ctx, key+"::failures").Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *RedisStore) SetFailures(ctx context.Context, key string, n int) error {
	return s.rdb.Set(ctx, key+"::failures", strconv.Itoa(n), 0).Err()
}

func (s *RedisStore) OpenedAt(ctx context.Context, key string) (time.Time, error) {
	v, err := s.rdb.Get(ctx, key+"::opened-at").Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(sec, 0), nil
}

func (s *RedisStore) SetOpenedAt(ctx context.Context, key string, t time.Time) error {
	return s.rdb.Set(ctx, key+"::opened-at", strconv.FormatInt(t.Unix(), 10), 0).Err()
}
