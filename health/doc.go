// Package health exposes the dispatch subsystem's view of its host fleet
// as health checks and HTTP probes.
//
// [HostsChecker] derives fleet health from circuit breaker state: healthy
// when every non-blacklisted host's breaker is closed, degraded when some
// are open or half-open, unhealthy when all are or when no host is active.
// Per-host details carry the breaker state and blacklist membership. The
// process mounts the handlers next to the blacklist admin surface:
//
//	checker := health.NewHostsChecker(pool, breakers, store)
//	health.RegisterHandlers(mux, checker)
package health
