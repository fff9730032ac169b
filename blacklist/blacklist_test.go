package blacklist

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStore(rdb), mr
}

func TestSnapshot_Has(t *testing.T) {
	s := NewSnapshot("h1:2375", "h2:2375")

	if !s.Has("h1:2375") {
		t.Error("Has(h1:2375) = false, want true")
	}
	if s.Has("h3:2375") {
		t.Error("Has(h3:2375) = true, want false")
	}

	var empty Snapshot
	if empty.Has("h1:2375") {
		t.Error("zero Snapshot should be empty")
	}
}

func TestRedisStore_AddListRemove(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	snap, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snap) != 0 {
		t.Fatalf("List() = %v, want empty", snap)
	}

	if err := store.Add(ctx, "h1:2375"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	// Adding an existing member is a no-op.
	if err := store.Add(ctx, "h1:2375"); err != nil {
		t.Fatalf("Add() repeat error = %v", err)
	}

	snap, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snap) != 1 || !snap.Has("h1:2375") {
		t.Errorf("List() = %v, want {h1:2375}", snap)
	}

	if err := store.Remove(ctx, "h1:2375"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	snap, _ = store.List(ctx)
	if snap.Has("h1:2375") {
		t.Errorf("List() after Remove = %v, want empty", snap)
	}
}

func TestRedisStore_UsesSharedKey(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, "h1:2375"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	members, err := mr.SMembers(Key)
	if err != nil {
		t.Fatalf("SMembers(%q) error = %v", Key, err)
	}
	if len(members) != 1 || members[0] != "h1:2375" {
		t.Errorf("Set under %q = %v, want [h1:2375]", Key, members)
	}
}
