// Package farm loads host-farm configuration and selects engine hosts.
//
// A farm is an ordered configuration entry routing matching task ids to a
// host set with a running-containers cap:
//
//	[
//	  {"match": "^gpu-", "hosts": ["hgpu:2375"], "maxRunning": 4},
//	  {"match": "", "hosts": ["hcpu:2375"], "maxRunning": 8}
//	]
//
// Farm order is significant: the first farm whose pattern matches a task id
// wins. An empty pattern matches everything and must therefore be last;
// Parse warns when it is not. Host strings support strict ${VAR} environment
// expansion so fleets can be templated per environment.
//
// [Pool] owns one engine client per host:port for the process lifetime.
// [Pool.Select] walks farms in order, refreshes circuit breakers with a
// liveness probe, and returns a uniformly random host that is neither
// blacklisted nor guarded by a non-closed breaker. [Pool.GetExplicit] looks
// up an already-bound host directly, bypassing both checks.
package farm
