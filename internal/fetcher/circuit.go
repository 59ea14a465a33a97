package fetcher

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when requests to a host are suspended after
// repeated failures.
var ErrCircuitOpen = eris.New("fetcher: circuit open")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker suspends a host after threshold consecutive failed downloads.
// Once reset has elapsed one probe is let through; its result closes or
// reopens the circuit.
type breaker struct {
	host      string
	threshold int
	reset     time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    circuitState
	failures int
	openedAt time.Time
}

func newBreaker(host string, threshold int, reset time.Duration) *breaker {
	return &breaker{
		host:      host,
		threshold: threshold,
		reset:     reset,
		now:       time.Now,
	}
}

// allow reports whether a request may proceed.
func (b *breaker) allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitOpen:
		if b.now().Sub(b.openedAt) < b.reset {
			return eris.Wrapf(ErrCircuitOpen, "fetcher: %s", b.host)
		}
		b.transition(circuitHalfOpen)
	case circuitHalfOpen:
		// A probe is already in flight.
		return eris.Wrapf(ErrCircuitOpen, "fetcher: %s (probing)", b.host)
	}
	return nil
}

// record updates the circuit with the outcome of an allowed request.
func (b *breaker) record(failed bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !failed {
		b.failures = 0
		if b.state != circuitClosed {
			b.transition(circuitClosed)
		}
		return
	}

	b.failures++
	switch {
	case b.state == circuitHalfOpen, b.failures >= b.threshold:
		b.openedAt = b.now()
		if b.state != circuitOpen {
			b.transition(circuitOpen)
		}
	}
}

// abort releases a probe whose request was canceled by the caller, so the
// next request probes again.
func (b *breaker) abort() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == circuitHalfOpen {
		b.state = circuitOpen
		b.openedAt = b.now().Add(-b.reset)
	}
}

func (b *breaker) transition(to circuitState) {
	zap.L().Warn("fetcher: circuit state change",
		zap.String("host", b.host),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
		zap.Int("failures", b.failures),
	)
	b.state = to
}

func (b *breaker) current() circuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
