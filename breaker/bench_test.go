package breaker

import (
	"context"
	"testing"
	"time"
)

func BenchmarkBreaker_ExecuteClosed(b *testing.B) {
	cb := New("h1:2375", Config{FailMax: 5, ResetTimeout: time.Minute}, nil)
	ctx := context.Background()
	op := func(ctx context.Context) error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(ctx, op)
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	reg := NewRegistry(Config{}, NewMemoryStore())
	reg.Get("h1:2375")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Get("h1:2375")
	}
}
