// Package breaker provides per-host circuit breakers with pluggable state
// persistence.
//
// Every outbound engine call is dispatched through the breaker for its host.
// A breaker transitions through Closed → Open → HalfOpen states: consecutive
// connection-class failures trip it open, the reset timeout admits a single
// probe, and a successful probe closes it again.
//
// Breaker state lives in a [StateStore] so that it is shared across workers
// that talk to the same store. [MemoryStore] keeps state in-process;
// [RedisStore] persists it under a namespace derived from the breaker key.
//
// [Registry] hands out one breaker per host key, created lazily on first
// reference.
//
// # Quick Start
//
//	reg := breaker.NewRegistry(breaker.ConfigFromEnv(), breaker.NewRedisStore(rdb))
//
//	cb := reg.Get("h1:2375")
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return client.PullImage(ctx, "img", "v1")
//	})
//
// # Thread Safety
//
// All exported types are safe for concurrent use after construction.
package breaker
