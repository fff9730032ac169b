package blacklist

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Key is the shared-store key holding the blacklisted host set.
const Key = "docker-executor::blacklisted-hosts"

// Snapshot is a point-in-time view of the blacklist. The zero value is an
// empty snapshot.
type Snapshot map[string]struct{}

// NewSnapshot builds a snapshot from host addresses.
func NewSnapshot(addrs ...string) Snapshot {
	s := make(Snapshot, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

// Has reports whether addr is blacklisted in this snapshot.
func (s Snapshot) Has(addr string) bool {
	_, ok := s[addr]
	return ok
}

// Store is the shared blacklist set.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Visibility: a mutation must be visible to the next List call; there is
//   no in-process caching.
type Store interface {
	// List returns a fresh snapshot of the set.
	List(ctx context.Context) (Snapshot, error)

	// Add inserts addr into the set. Adding an existing member is a no-op.
	Add(ctx context.Context, addr string) error

	// Remove deletes addr from the set. Removing a missing member is a no-op.
	Remove(ctx context.Context, addr string) error
}

// RedisStore implements Store over a Redis set.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisStore creates a store on the given Redis client under Key.
func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb, key: Key}
}

func (s *RedisStore) List(ctx context.Context) (Snapshot, error) {
	members, err := s.rdb.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	return NewSnapshot(members...), nil
}

func (s *RedisStore) Add(ctx context.Context, addr string) error {
	return s.rdb.SAdd(ctx, s.key, addr).Err()
}

func (s *RedisStore) Remove(ctx context.Context, addr string) error {
	return s.rdb.SRem(ctx, s.key, addr).Err()
}
