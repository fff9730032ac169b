package breaker

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow through normally.
	StateClosed State = iota
	// StateOpen means calls fail fast until the reset timeout elapses.
	StateOpen
	// StateHalfOpen means a single probe call is admitted.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ParseState parses a persisted state string. Unknown strings parse as
// closed so a corrupted store entry cannot wedge a host shut.
func ParseState(s string) State {
	switch s {
	case "open":
		return StateOpen
	case "half-open":
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Environment variables for breaker tuning.
const (
	EnvMaxFails            = "CIRCUIT_BREAKER_MAX_FAILS"
	EnvResetTimeoutSeconds = "CIRCUIT_BREAKER_RESET_TIMEOUT_SECONDS"
)

// Config configures a circuit breaker.
type Config struct {
	// FailMax is the number of consecutive failures before tripping.
	// Default: 5
	FailMax int

	// ResetTimeout is how long the breaker stays open before admitting
	// a probe. Default: 60 seconds
	ResetTimeout time.Duration

	// IsFailure decides whether an error counts against the breaker.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// OnStateChange is called when a breaker changes state.
	OnStateChange func(key string, from, to State)
}

// ConfigFromEnv builds a Config from CIRCUIT_BREAKER_MAX_FAILS and
// CIRCUIT_BREAKER_RESET_TIMEOUT_SECONDS, falling back to defaults for
// unset or unparseable values.
func ConfigFromEnv() Config {
	var cfg Config
	if v, err := strconv.Atoi(os.Getenv(EnvMaxFails)); err == nil && v > 0 {
		cfg.FailMax = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvResetTimeoutSeconds)); err == nil && v > 0 {
		cfg.ResetTimeout = time.Duration(v) * time.Second
	}
	return cfg
}

// Breaker is a circuit breaker for a single host key. State is read from
// and written to the StateStore on every call, so breakers sharing a store
// share state.
type Breaker struct {
	key   string
	cfg   Config
	store StateStore

	// mu serializes transitions made by this process; the store is the
	// authority for the state itself.
	mu sync.Mutex

	// probing guards the single half-open probe slot in this process.
	probing bool
}

// New creates a breaker for key with state persisted in store.
func New(key string, cfg Config, store StateStore) *Breaker {
	if cfg.FailMax <= 0 {
		cfg.FailMax = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	if store == nil {
		store = NewMemoryStore()
	}

	return &Breaker{key: key, cfg: cfg, store: store}
}

// Key returns the host key this breaker guards.
func (b *Breaker) Key() string { return b.key }

// Execute runs op through the breaker. When the breaker is open the call
// fails fast with ErrOpen; when half-open the call is the single probe.
// Errors from op pass through unchanged.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	probe, err := b.beforeCall(ctx)
	if err != nil {
		return err
	}

	err = op(ctx)
	b.afterCall(ctx, probe, err)
	return err
}

// State returns the breaker's current state, promoting open to half-open
// once the reset timeout has elapsed.
func (b *Breaker) State(ctx context.Context) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked(ctx)
}

// Failures returns the persisted consecutive-failure count.
func (b *Breaker) Failures(ctx context.Context) int {
	n, err := b.store.Failures(ctx, b.key)
	if err != nil {
		return 0
	}
	return n
}

func (b *Breaker) beforeCall(ctx context.Context) (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentStateLocked(ctx) {
	case StateOpen:
		return false, ErrOpen
	case StateHalfOpen:
		if b.probing {
			return false, ErrOpen
		}
		b.probing = true
		return true, nil
	default:
		return false, nil
	}
}

func (b *Breaker) afterCall(ctx context.Context, probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probing = false
	}

	failed := b.cfg.IsFailure(err)

	switch b.currentStateLocked(ctx) {
	case StateClosed:
		if failed {
			n, _ := b.store.Failures(ctx, b.key)
			n++
			b.store.SetFailures(ctx, b.key, n)
			if n >= b.cfg.FailMax {
				b.transitionLocked(ctx, StateClosed, StateOpen)
			}
		} else if n, _ := b.store.Failures(ctx, b.key); n > 0 {
			b.store.SetFailures(ctx, b.key, 0)
		}

	case StateHalfOpen:
		if !probe {
			// Another caller's probe is in flight; this call raced the
			// transition and does not decide the outcome.
			return
		}
		if failed {
			b.transitionLocked(ctx, StateHalfOpen, StateOpen)
		} else {
			b.store.SetFailures(ctx, b.key, 0)
			b.transitionLocked(ctx, StateHalfOpen, StateClosed)
		}
	}
}

// currentStateLocked reads the persisted state, applying the open→half-open
// promotion when the reset timeout has elapsed. Store read failures resolve
// to closed so a store outage cannot wedge dispatch.
func (b *Breaker) currentStateLocked(ctx context.Context) State {
	state, err := b.store.State(ctx, b.key)
	if err != nil {
		return StateClosed
	}

	if state == StateOpen {
		openedAt, err := b.store.OpenedAt(ctx, b.key)
		if err == nil && !openedAt.IsZero() && time.Since(openedAt) >= b.cfg.ResetTimeout {
			b.store.SetState(ctx, b.key, StateHalfOpen)
			b.probing = false
			if b.cfg.OnStateChange != nil {
				b.cfg.OnStateChange(b.key, StateOpen, StateHalfOpen)
			}
			return StateHalfOpen
		}
	}
	return state
}

func (b *Breaker) transitionLocked(ctx context.Context, from, to State) {
	b.store.SetState(ctx, b.key, to)
	if to == StateOpen {
		b.store.SetOpenedAt(ctx, b.key, time.Now())
	}
	if b.cfg.OnStateChange != nil && from != to {
		b.cfg.OnStateChange(b.key, from, to)
	}
}
