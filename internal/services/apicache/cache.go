package apicache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Store is a string cache with a fixed TTL.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// Cache holds live data responses, one store per data kind so that API
// payloads and media search results expire on their own schedules.
type Cache struct {
	stores map[models.LiveDataKind]Store
	ttls   map[models.LiveDataKind]time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

func New(cfg models.APICacheConfig, redisClient *redis.Client) (*Cache, error) {
	ttls := map[models.LiveDataKind]time.Duration{
		models.LiveDataAPI:   hours(cfg.TTLHours),
		models.LiveDataMedia: hours(cfg.MediaTTLHours),
	}

	c := &Cache{stores: make(map[models.LiveDataKind]Store), ttls: ttls}
	for kind, ttl := range ttls {
		switch cfg.Backend {
		case models.APICacheBackendRedis:
			if redisClient == nil {
				return nil, fmt.Errorf("api cache backend redis requires a redis client")
			}
			c.stores[kind] = NewRedisStore(redisClient, cfg.KeyPrefix+string(kind)+":", ttl)
		case models.APICacheBackendMemory, "":
			c.stores[kind] = NewMemoryStore(cfg.Capacity, ttl)
		default:
			return nil, fmt.Errorf("unsupported api cache backend: %s", cfg.Backend)
		}
	}

	fiberlog.Infof("APICache: Initialized backend=%s api_ttl=%s media_ttl=%s",
		cfg.Backend, ttls[models.LiveDataAPI], ttls[models.LiveDataMedia])
	return c, nil
}

// NewWithStores wires explicit stores, mainly for tests.
func NewWithStores(stores map[models.LiveDataKind]Store) *Cache {
	return &Cache{stores: stores, ttls: map[models.LiveDataKind]time.Duration{}}
}

func (c *Cache) TTL(kind models.LiveDataKind) time.Duration {
	return c.ttls[kind]
}

// Get never fails; store errors count as misses.
func (c *Cache) Get(ctx context.Context, kind models.LiveDataKind, key string) (string, bool) {
	store, ok := c.stores[kind]
	if !ok {
		c.misses.Add(1)
		return "", false
	}
	v, found, err := store.Get(ctx, key)
	if err != nil {
		c.errors.Add(1)
		c.misses.Add(1)
		fiberlog.Warnf("APICache: Get %s failed: %v", key, err)
		return "", false
	}
	if !found {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return v, true
}

func (c *Cache) Set(ctx context.Context, kind models.LiveDataKind, key, value string) {
	store, ok := c.stores[kind]
	if !ok {
		return
	}
	if err := store.Set(ctx, key, value); err != nil {
		c.errors.Add(1)
		fiberlog.Warnf("APICache: Set %s failed: %v", key, err)
	}
}

func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.errors.Load()}
}

// Key builds a cache key from a provider name and its request parameters.
func Key(provider string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return provider + ":" + hex.EncodeToString(h.Sum(nil))[:24]
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
