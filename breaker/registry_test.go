package breaker

import (
	"sync"
	"testing"
	"time"
)

func TestRegistry_SameInstancePerKey(t *testing.T) {
	reg := NewRegistry(Config{FailMax: 2, ResetTimeout: time.Minute}, NewMemoryStore())

	a := reg.Get("h1:2375")
	b := reg.Get("h1:2375")
	c := reg.Get("h2:2375")

	if a != b {
		t.Error("Get() returned different instances for the same key")
	}
	if a == c {
		t.Error("Get() returned the same instance for different keys")
	}
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry(Config{}, NewMemoryStore())

	const n = 32
	results := make([]*Breaker, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reg.Get("h1:2375")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("Concurrent Get() yielded more than one instance")
		}
	}
}

func TestRegistry_Keys(t *testing.T) {
	reg := NewRegistry(Config{}, NewMemoryStore())
	reg.Get("h1:2375")
	reg.Get("h2:2375")

	keys := reg.Keys()
	if len(keys) != 2 {
		t.Errorf("Keys() = %v, want 2 entries", keys)
	}
}
