package health

import (
	"context"
	"time"

	"github.com/jonwraymond/shipyard/blacklist"
	"github.com/jonwraymond/shipyard/breaker"
	"github.com/jonwraymond/shipyard/farm"
)

// HostsChecker reports the health of the engine host fleet from circuit
// breaker state. A blacklisted host is drained on purpose and therefore
// reported but never counted against fleet health.
type HostsChecker struct {
	pool      *farm.Pool
	breakers  *breaker.Registry
	blacklist blacklist.Store
}

// NewHostsChecker creates a checker over the pool. bl may be nil when no
// shared blacklist is configured.
func NewHostsChecker(pool *farm.Pool, breakers *breaker.Registry, bl blacklist.Store) *HostsChecker {
	return &HostsChecker{pool: pool, breakers: breakers, blacklist: bl}
}

// Name returns the name of this checker.
func (c *HostsChecker) Name() string {
	return "engine-hosts"
}

// Check derives fleet health from the non-blacklisted hosts: unhealthy when
// there are none or when every one of them has a non-closed (open or
// half-open) breaker, degraded when some do, otherwise healthy.
func (c *HostsChecker) Check(ctx context.Context) Result {
	bl := blacklist.Snapshot{}
	if c.blacklist != nil {
		if fresh, err := c.blacklist.List(ctx); err == nil {
			bl = fresh
		}
	}

	details := make(map[string]any)
	active, impaired := 0, 0

	for _, hc := range c.pool.All() {
		address := hc.Address()
		state := c.breakers.Get(address).State(ctx)

		details[address] = map[string]any{
			"circuit":     state.String(),
			"blacklisted": bl.Has(address),
		}

		if bl.Has(address) {
			continue
		}
		active++
		if state != breaker.StateClosed {
			impaired++
		}
	}

	result := Result{
		Details:   details,
		Timestamp: time.Now(),
	}

	switch {
	case active == 0:
		result.Status = StatusUnhealthy
		result.Message = "no active engine hosts"
	case impaired == active:
		result.Status = StatusUnhealthy
		result.Message = "all active engine hosts have non-closed breakers"
	case impaired > 0:
		result.Status = StatusDegraded
		result.Message = "some engine hosts have non-closed breakers"
	default:
		result.Status = StatusHealthy
		result.Message = "all active engine hosts reachable"
	}
	return result
}
