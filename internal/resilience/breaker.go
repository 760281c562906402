package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/obs"
)

// ErrOpenCircuit is returned when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker opens when the failure ratio over at least minRequests calls
// reaches failureRatio, and lets a single probe through after openFor.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	minRequests  int
	failureRatio float64
	openedAt     time.Time
	openFor      time.Duration
	target       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBreaker constructs a closed breaker.
func NewBreaker(target string, minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	if target == "" {
		target = "default"
	}
	b := &Breaker{
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		target:       target,
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
	obs.RecordBreakerState(target, int(Closed))
	return b
}

// WithLogger sets the logger used for state transitions.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. An open breaker turns half-open
// once openFor has elapsed and admits one probe.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.openFor {
			return false
		}
		b.transitionLocked(ctx, HalfOpen)
		return true
	case HalfOpen:
		return false
	default:
		return true
	}
}

// Report records the outcome of an admitted call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.transitionLocked(ctx, Closed)
		} else {
			b.transitionLocked(ctx, Open)
		}
		return
	}
	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.transitionLocked(ctx, Open)
		return
	}
	if total > b.minRequests*2 {
		// decay so old successes do not mask a new outage
		b.successes /= 2
		b.failures /= 2
	}
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	b.state = next
	b.failures, b.successes = 0, 0
	if next == Open {
		b.openedAt = b.now()
	}
	obs.RecordBreakerState(b.target, int(next))
	obs.CountBreakerTransition(b.target, prev.String(), next.String())
	log := obs.ContextLogger(ctx, b.logger)
	log.Info().
		Str("target", b.target).
		Str("from_state", prev.String()).
		Str("to_state", next.String()).
		Msg("breaker_transition")
}

// Backoff returns base doubled per attempt, spread by +/- jitter (a fraction).
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(attempt-1)
	if jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * jitter * float64(d)
	return d + time.Duration(delta)
}
