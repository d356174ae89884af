// Package resilience guards calls to outbound services (SMTP today) with a
// circuit breaker so a dead relay does not stall the notification consumer.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/port/notifier"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after maxFailures consecutive failures and rejects calls
// until timeout has elapsed. It then lets a single probe through; the probe's
// outcome closes or reopens the circuit.
type Breaker struct {
	name        string
	mu          sync.Mutex
	state       state
	failures    int
	probing     bool
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	ignore      func(error) bool
	now         func() time.Time // for testing
}

// NewBreaker creates a breaker from cfg. Errors for which ignore returns true
// are passed through without counting as failures; ignore may be nil.
func NewBreaker(name string, cfg config.Breaker, ignore func(error) bool) *Breaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	return &Breaker{
		name:        name,
		maxFailures: cfg.MaxFailures,
		timeout:     cfg.Timeout,
		ignore:      ignore,
		now:         time.Now,
	}
}

// State returns "closed", "open" or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

// Execute runs fn unless the circuit is open or a half-open probe is already in flight.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.allowRequest() {
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	switch {
	case err == nil:
		b.onSuccess()
	case b.ignore != nil && b.ignore(err):
		// neither success nor failure
	default:
		b.onFailure()
	}
	return err
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.timeout {
			b.state = stateHalfOpen
			b.probing = true
			return true
		}
		return false
	case stateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	b.failures = 0
	b.state = stateClosed
}

// guardedNotifier runs every Send through a Breaker.
type guardedNotifier struct {
	inner notifier.Notifier
	b     *Breaker
}

// GuardNotifier wraps n so that Send fails fast while the breaker is open.
// An unconfigured notifier does not trip the breaker.
func GuardNotifier(n notifier.Notifier, cfg config.Breaker) notifier.Notifier {
	return &guardedNotifier{
		inner: n,
		b: NewBreaker(n.Name(), cfg, func(err error) bool {
			return errors.Is(err, notifier.ErrNotConfigured)
		}),
	}
}

func (g *guardedNotifier) Name() string { return g.inner.Name() }

func (g *guardedNotifier) Send(ctx context.Context, n notifier.Notification) error {
	return g.b.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Send(ctx, n)
	})
}
