// Package health tracks per-provider failure state and implements the
// circuit breaker that drives cheapest-available-first provider ordering.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/sells-group/research-engine/internal/model"
	"go.uber.org/zap"
)

// CircuitState represents the state of one provider's circuit.
type CircuitState int

const (
	// CircuitClosed is the normal operating state — calls flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means too many failures — the provider is skipped until
	// its backoff deadline passes.
	CircuitOpen
	// CircuitHalfOpen allows a single trial call to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// FailureKind distinguishes how a provider call failed.
type FailureKind int

const (
	// FailureTransient covers timeouts and 5xx-class errors. These count
	// toward the consecutive-failure threshold.
	FailureTransient FailureKind = iota
	// FailureRateLimit is an explicit back-off signal. It opens the circuit
	// immediately regardless of the failure counter.
	FailureRateLimit
)

// Config controls circuit behavior.
type Config struct {
	// FailureThreshold is the number of consecutive failures before opening
	// the circuit. Default: 3.
	FailureThreshold int

	// BaseBackoff is the open-circuit delay at the threshold. Each further
	// failure doubles it. Default: 30s.
	BaseBackoff time.Duration

	// MaxBackoff caps the backoff deadline. Default: 15m.
	MaxBackoff time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		BaseBackoff:      30 * time.Second,
		MaxBackoff:       15 * time.Minute,
	}
}

type providerState struct {
	state    CircuitState
	failures int
	openedAt time.Time
	deadline time.Time
	probing  bool
}

// Tracker holds health state for every provider. It is long-lived, shared by
// all concurrent cascade executions, and safe for concurrent use; provider
// health learned in one run carries into the next.
type Tracker struct {
	cfg Config

	mu     sync.Mutex
	states map[string]*providerState

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewTracker creates a tracker with the given config.
func NewTracker(cfg Config) *Tracker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 15 * time.Minute
	}
	return &Tracker{
		cfg:     cfg,
		states:  make(map[string]*providerState),
		nowFunc: time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.nowFunc = now
	return t
}

func (t *Tracker) get(provider string) *providerState {
	ps, ok := t.states[provider]
	if !ok {
		ps = &providerState{state: CircuitClosed}
		t.states[provider] = ps
	}
	return ps
}

// RecordSuccess resets the provider's failure counter and closes its circuit.
func (t *Tracker) RecordSuccess(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.get(provider)
	if ps.state != CircuitClosed {
		zap.L().Info("health: circuit closed",
			zap.String("provider", provider),
			zap.String("from", ps.state.String()),
		)
	}
	ps.state = CircuitClosed
	ps.failures = 0
	ps.probing = false
}

// RecordFailure increments the provider's consecutive-failure counter and
// opens the circuit when the threshold is reached. A rate-limit failure
// opens the circuit immediately.
func (t *Tracker) RecordFailure(provider string, kind FailureKind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.get(provider)
	ps.failures++
	ps.probing = false

	open := kind == FailureRateLimit ||
		ps.failures >= t.cfg.FailureThreshold ||
		ps.state == CircuitHalfOpen // a failed trial reopens with a longer backoff

	if !open {
		return
	}

	if kind == FailureRateLimit && ps.failures < t.cfg.FailureThreshold {
		// Force the counter to the threshold so the backoff starts at base.
		ps.failures = t.cfg.FailureThreshold
	}

	now := t.nowFunc()
	ps.state = CircuitOpen
	ps.openedAt = now
	ps.deadline = now.Add(t.backoff(ps.failures))

	zap.L().Warn("health: circuit opened",
		zap.String("provider", provider),
		zap.Int("failures", ps.failures),
		zap.Bool("rate_limited", kind == FailureRateLimit),
		zap.Time("deadline", ps.deadline),
	)
}

// backoff computes base × 2^(failures − threshold), capped at MaxBackoff.
func (t *Tracker) backoff(failures int) time.Duration {
	d := t.cfg.BaseBackoff
	for i := t.cfg.FailureThreshold; i < failures; i++ {
		d *= 2
		if d >= t.cfg.MaxBackoff {
			return t.cfg.MaxBackoff
		}
	}
	if d > t.cfg.MaxBackoff {
		d = t.cfg.MaxBackoff
	}
	return d
}

// IsAvailable reports whether the provider could be called right now without
// mutating any state. An open circuit whose backoff deadline has passed
// counts as available because a trial call would be admitted.
func (t *Tracker) IsAvailable(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.availableLocked(t.get(provider))
}

func (t *Tracker) availableLocked(ps *providerState) bool {
	switch ps.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		return !t.nowFunc().Before(ps.deadline)
	case CircuitHalfOpen:
		return !ps.probing
	default:
		return true
	}
}

// Acquire admits one call to the provider, applying any due open→half-open
// transition and claiming the single half-open trial slot. Callers that get
// true must report the outcome via RecordSuccess or RecordFailure.
func (t *Tracker) Acquire(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.get(provider)
	switch ps.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if t.nowFunc().Before(ps.deadline) {
			return false
		}
		ps.state = CircuitHalfOpen
		ps.probing = true
		return true
	case CircuitHalfOpen:
		if ps.probing {
			return false
		}
		ps.probing = true
		return true
	default:
		return true
	}
}

// State returns the provider's current circuit state, applying any due
// open→half-open transition.
func (t *Tracker) State(provider string) CircuitState {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.get(provider)
	if ps.state == CircuitOpen && !t.nowFunc().Before(ps.deadline) {
		return CircuitHalfOpen
	}
	return ps.state
}

// States returns a snapshot of all tracked circuit states.
func (t *Tracker) States() map[string]CircuitState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]CircuitState, len(t.states))
	for name, ps := range t.states {
		s := ps.state
		if s == CircuitOpen && !t.nowFunc().Before(ps.deadline) {
			s = CircuitHalfOpen
		}
		out[name] = s
	}
	return out
}

// Ranked is the minimal provider view needed for preference ordering.
type Ranked interface {
	Name() string
	Tier() model.CostTier
}

// OrderedByPreference returns providers sorted by availability first, then by
// ascending cost tier, then by name for determinism. This realizes the
// cheapest-available-first fallback policy.
func OrderedByPreference[P Ranked](t *Tracker, providers []P) []P {
	out := make([]P, len(providers))
	copy(out, providers)

	available := make(map[string]bool, len(out))
	for _, p := range out {
		available[p.Name()] = t.IsAvailable(p.Name())
	}
	// Availability is re-checked via Acquire at call time; this ordering is
	// only a preference snapshot.

	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := available[out[i].Name()], available[out[j].Name()]
		if ai != aj {
			return ai
		}
		if out[i].Tier() != out[j].Tier() {
			return out[i].Tier() < out[j].Tier()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}
