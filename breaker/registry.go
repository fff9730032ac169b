package breaker

import "sync"

// Registry hands out one breaker per host key. Breakers are created lazily
// on first reference and live for the registry's lifetime.
type Registry struct {
	cfg   Config
	store StateStore

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a registry that backs every breaker with store. A nil
// store means each breaker gets its own in-process MemoryStore-backed state
// via New's default.
func NewRegistry(cfg Config, store StateStore) *Registry {
	return &Registry{
		cfg:      cfg,
		store:    store,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use. Concurrent
// first use yields a single instance.
func (r *Registry) Get(key string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[key]
	if !ok {
		b = New(key, r.cfg, r.store)
		r.breakers[key] = b
	}
	return b
}

// Keys returns the keys of all breakers created so far.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.breakers))
	for k := range r.breakers {
		keys = append(keys, k)
	}
	return keys
}
