package circuitbreaker

import (
	"context"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// LocalBreaker keeps breaker state in memory for single-node deployments.
type LocalBreaker struct {
	name string
	cfg  Config
	now  func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

func NewLocal(name string, cfg Config) *LocalBreaker {
	return &LocalBreaker{name: name, cfg: cfg, now: time.Now}
}

func (b *LocalBreaker) Name() string { return b.name }

func (b *LocalBreaker) Allow(_ context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.lastFailure) > b.cfg.Timeout {
			b.state = HalfOpen
			b.successes = 0
			fiberlog.Debugf("CircuitBreaker: %s transitioned to %s", b.name, HalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (b *LocalBreaker) RecordSuccess(_ context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != HalfOpen {
		return
	}
	b.successes++
	if b.successes >= b.cfg.SuccessThreshold {
		b.state = Closed
		b.successes = 0
		fiberlog.Infof("CircuitBreaker: %s transitioned to Closed state after success", b.name)
	}
}

func (b *LocalBreaker) RecordFailure(_ context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.state == HalfOpen || (b.state == Closed && b.failures >= b.cfg.FailureThreshold) {
		b.state = Open
		b.successes = 0
		fiberlog.Warnf("CircuitBreaker: %s transitioned to Open state after failure", b.name)
	}
}

func (b *LocalBreaker) State(_ context.Context) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
