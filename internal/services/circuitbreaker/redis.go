package circuitbreaker

import (
	"context"
	"errors"
	"strconv"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "pitchside:breaker:"
	redisTimeout = time.Second
)

// The state lives in a single hash so every transition is one script call.
// Fields: state, failures, successes, last_failure (unix ms).
var (
	recordSuccessScript = redis.NewScript(`
		local state = tonumber(redis.call('HGET', KEYS[1], 'state') or '0')
		redis.call('HSET', KEYS[1], 'failures', 0)
		if state == 2 then
			local n = redis.call('HINCRBY', KEYS[1], 'successes', 1)
			if n >= tonumber(ARGV[1]) then
				redis.call('HSET', KEYS[1], 'state', 0, 'successes', 0)
				return 2
			end
			return 1
		end
		return 0
	`)

	recordFailureScript = redis.NewScript(`
		local state = tonumber(redis.call('HGET', KEYS[1], 'state') or '0')
		local n = redis.call('HINCRBY', KEYS[1], 'failures', 1)
		redis.call('HSET', KEYS[1], 'last_failure', ARGV[2])
		if (state == 0 and n >= tonumber(ARGV[1])) or state == 2 then
			redis.call('HSET', KEYS[1], 'state', 1, 'successes', 0)
			return 1
		end
		return 0
	`)

	// allowScript moves Open to HalfOpen once the timeout has elapsed.
	allowScript = redis.NewScript(`
		local state = tonumber(redis.call('HGET', KEYS[1], 'state') or '0')
		if state ~= 1 then
			return 1
		end
		local last = tonumber(redis.call('HGET', KEYS[1], 'last_failure') or '0')
		if tonumber(ARGV[1]) - last > tonumber(ARGV[2]) then
			redis.call('HSET', KEYS[1], 'state', 2, 'successes', 0)
			return 2
		end
		return 0
	`)
)

// RedisBreaker shares breaker state between replicas. Redis errors fail open.
type RedisBreaker struct {
	client *redis.Client
	name   string
	key    string
	cfg    Config
}

func NewRedis(client *redis.Client, name string, cfg Config) *RedisBreaker {
	return &RedisBreaker{client: client, name: name, key: keyPrefix + name, cfg: cfg}
}

func (b *RedisBreaker) Name() string { return b.name }

func (b *RedisBreaker) Allow(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := allowScript.Run(ctx, b.client, []string{b.key},
		time.Now().UnixMilli(), b.cfg.Timeout.Milliseconds()).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to get state for %s, allowing execution: %v", b.name, err)
		return true
	}
	if res == 2 {
		fiberlog.Debugf("CircuitBreaker: %s transitioned to %s", b.name, HalfOpen)
	}
	return res != 0
}

func (b *RedisBreaker) RecordSuccess(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := recordSuccessScript.Run(ctx, b.client, []string{b.key}, b.cfg.SuccessThreshold).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to record success for %s: %v", b.name, err)
		return
	}
	if res == 2 {
		fiberlog.Infof("CircuitBreaker: %s transitioned to Closed state after success", b.name)
	}
}

func (b *RedisBreaker) RecordFailure(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := recordFailureScript.Run(ctx, b.client, []string{b.key},
		b.cfg.FailureThreshold, time.Now().UnixMilli()).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to record failure for %s: %v", b.name, err)
		return
	}
	if res == 1 {
		fiberlog.Warnf("CircuitBreaker: %s transitioned to Open state after failure", b.name)
	}
}

func (b *RedisBreaker) State(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	raw, err := b.client.HGet(ctx, b.key, "state").Result()
	if errors.Is(err, redis.Nil) {
		return Closed
	}
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to get state for %s, returning Closed: %v", b.name, err)
		return Closed
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Closed
	}
	return State(n)
}

// Reset forces the breaker closed.
func (b *RedisBreaker) Reset(ctx context.Context) error {
	return b.client.Del(ctx, b.key).Err()
}
