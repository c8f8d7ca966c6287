package circuitbreaker

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/redis/go-redis/v9"
)

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
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type Config struct {
	FailureThreshold int
	SuccessThreshold int
	// Timeout is how long the breaker stays open before letting a probe through.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// FromModel fills zero fields of the YAML breaker section with defaults.
func FromModel(cfg *models.CircuitBreakerConfig) Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.FailureThreshold > 0 {
		out.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.SuccessThreshold > 0 {
		out.SuccessThreshold = cfg.SuccessThreshold
	}
	if cfg.TimeoutMs > 0 {
		out.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	return out
}

// Breaker guards calls to one upstream service.
type Breaker interface {
	Allow(ctx context.Context) bool
	RecordSuccess(ctx context.Context)
	RecordFailure(ctx context.Context)
	State(ctx context.Context) State
	Name() string
}

// New returns a Redis-backed breaker shared across replicas when a client is
// given, otherwise an in-process one.
func New(redisClient *redis.Client, name string, cfg Config) Breaker {
	if redisClient != nil {
		return NewRedis(redisClient, name, cfg)
	}
	return NewLocal(name, cfg)
}
