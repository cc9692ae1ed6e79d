// Package resilience guards the lane's outbound catalog traffic: a
// failure-ratio circuit breaker and a retrying HTTP wrapper with jittered
// exponential backoff.
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var nopLogger = zerolog.Nop()

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker's admission mode.
type State int

const (
	// Closed admits every request while counting outcomes.
	Closed State = iota
	// Open refuses requests until the cool-off elapses.
	Open
	// HalfOpen admits a single probe to test whether the dependency recovered.
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

// Breaker trips when the failure ratio observed over a window of requests
// reaches a threshold, then probes the dependency again after a cool-off.
// The lane uses one breaker per remote dependency (currently the catalog
// service).
type Breaker struct {
	mu       sync.Mutex
	state    State
	ok       int
	failed   int
	openedAt time.Time

	minRequests  int
	failureRatio float64
	openFor      time.Duration

	dependency string
	logger     *zerolog.Logger
}

// NewBreaker builds a closed breaker. It opens once at least minRequests
// outcomes are recorded and the failure ratio reaches failureRatio, and
// stays open for openFor before probing.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
	}
}

// WithTarget names the guarded dependency for log fields and metric labels.
func (b *Breaker) WithTarget(name string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dependency = strings.TrimSpace(name)
	b.gaugeLocked()
	return b
}

// WithLogger sets the logger used for state transition events.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = &logger
	return b
}

// Allow reports whether a request may proceed. An open breaker refuses until
// the cool-off elapses, then moves to half-open and admits one probe.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if time.Since(b.openedAt) < b.openFor {
		return false
	}
	b.transitionLocked(ctx, HalfOpen)
	return true
}

// Report records one request outcome and drives the state machine. Outcomes
// reported while open are ignored; a half-open probe closes the breaker on
// success and reopens it on failure.
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
		b.ok++
	} else {
		b.failed++
	}
	total := b.ok + b.failed
	if total < b.minRequests {
		return
	}
	if float64(b.failed)/float64(total) >= b.failureRatio {
		b.transitionLocked(ctx, Open)
		return
	}
	if total >= b.minRequests*2 {
		// Age the window so old outcomes lose weight.
		b.ok = (b.ok + 1) / 2
		b.failed = (b.failed + 1) / 2
	}
}

// Backoff returns the exponential delay for the given attempt, widened by a
// random fraction of up to jitterPct in either direction.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if jitterPct <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitterPct
	return d + time.Duration(delta)
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		b.gaugeLocked()
		return
	}
	b.state = next
	b.ok, b.failed = 0, 0
	switch next {
	case Open:
		b.openedAt = time.Now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.gaugeLocked()

	label := b.labelLocked()
	breakerTransitions.WithLabelValues(label, prev.String(), next.String()).Inc()
	if next == Open {
		breakerOpened.WithLabelValues(label).Inc()
	}
	evt := b.loggerFor(ctx).Info().
		Str("dependency", label).
		Str("from", prev.String()).
		Str("to", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("circuit_state_change")
}

func (b *Breaker) gaugeLocked() {
	var value float64
	switch b.state {
	case Open:
		value = 1
	case HalfOpen:
		value = 2
	}
	breakerState.WithLabelValues(b.labelLocked()).Set(value)
}

func (b *Breaker) labelLocked() string {
	if b.dependency == "" {
		return "remote"
	}
	return b.dependency
}

func (b *Breaker) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	if b.logger != nil {
		return b.logger
	}
	return &nopLogger
}
