package llm

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/circuitbreaker"
	"github.com/Egham-7/pitchside/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Factory builds a provider client from its configuration.
type Factory func(ctx context.Context, name string, cfg models.ProviderConfig) (Provider, error)

// DefaultFactory knows the openai, anthropic and gemini SDKs.
func DefaultFactory(ctx context.Context, name string, cfg models.ProviderConfig) (Provider, error) {
	switch models.ProviderType(name) {
	case models.ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	case models.ProviderAnthropic:
		return NewAnthropicProvider(cfg)
	case models.ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unsupported provider %q", name), nil)
	}
}

// Registry hands out breaker-guarded providers by name. Clients are built
// lazily and reused for as long as their configuration is unchanged.
type Registry struct {
	providers   map[string]models.ProviderConfig
	breakerCfg  circuitbreaker.Config
	redisClient *redis.Client
	factory     Factory
	tokens      *TokenCounter

	clients  *clientcache.Cache[Provider]
	breakers *clientcache.Cache[circuitbreaker.Breaker]
}

func NewRegistry(cfg models.LLMConfig, redisClient *redis.Client) *Registry {
	return NewRegistryWithFactory(cfg, redisClient, DefaultFactory)
}

func NewRegistryWithFactory(cfg models.LLMConfig, redisClient *redis.Client, factory Factory) *Registry {
	return &Registry{
		providers:   cfg.Providers,
		breakerCfg:  circuitbreaker.FromModel(cfg.CircuitBreaker),
		redisClient: redisClient,
		factory:     factory,
		tokens:      NewTokenCounter(),
		clients:     clientcache.NewCache[Provider](),
		breakers:    clientcache.NewCache[circuitbreaker.Breaker](),
	}
}

// Provider returns the named provider wrapped in its circuit breaker.
func (r *Registry) Provider(ctx context.Context, name string) (Provider, error) {
	return r.provider(ctx, name, name)
}

// Scoped returns a source whose providers share this registry's clients but
// trip their own breakers, named "<provider>:<scope>". Judge timeouts then
// never open the breaker that guards answer generation.
func (r *Registry) Scoped(scope string) *ScopedSource {
	return &ScopedSource{registry: r, scope: scope}
}

// ScopedSource resolves providers under a separate set of breakers.
type ScopedSource struct {
	registry *Registry
	scope    string
}

func (s *ScopedSource) Provider(ctx context.Context, name string) (Provider, error) {
	return s.registry.provider(ctx, name, name+":"+s.scope)
}

func (r *Registry) provider(ctx context.Context, name, breakerName string) (Provider, error) {
	providerCfg, ok := r.providers[name]
	if !ok {
		return nil, models.NewProviderError(name, "provider is not configured", nil)
	}

	key := name
	if hash, err := configHash(providerCfg); err == nil {
		key = name + ":" + hash
	} else {
		fiberlog.Warnf("Failed to hash config for %s: %v", name, err)
	}

	client, err := r.clients.GetOrCreate(key, func() (Provider, error) {
		fiberlog.Debugf("Creating new %s client", name)
		return r.factory(ctx, name, providerCfg)
	})
	if err != nil {
		return nil, err
	}

	breaker, _ := r.breakers.GetOrCreate(breakerName, func() (circuitbreaker.Breaker, error) {
		return circuitbreaker.New(r.redisClient, breakerName, r.breakerCfg), nil
	})

	return &guardedProvider{inner: client, breaker: breaker, tokens: r.tokens}, nil
}

// Breakers reports the state of every breaker created so far.
func (r *Registry) Breakers(ctx context.Context) map[string]string {
	out := make(map[string]string)
	r.breakers.Range(func(name string, b circuitbreaker.Breaker) bool {
		out[name] = b.State(ctx).String()
		return true
	})
	return out
}

// configHash keys the client cache without putting the raw API key in it.
func configHash(cfg models.ProviderConfig) (string, error) {
	apiKeyHash := sha256.Sum256([]byte(cfg.APIKey))
	data, err := json.Marshal(struct {
		BaseURL    string
		TimeoutMs  int
		Headers    map[string]string
		APIKeyHash string
	}{cfg.BaseURL, cfg.TimeoutMs, cfg.Headers, fmt.Sprintf("%x", apiKeyHash[:8])})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:16]), nil
}

type guardedProvider struct {
	inner   Provider
	breaker circuitbreaker.Breaker
	tokens  *TokenCounter
}

func (g *guardedProvider) Name() string { return g.inner.Name() }

func (g *guardedProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if !g.breaker.Allow(ctx) {
		fiberlog.Warnf("CircuitBreaker: %s is open, rejecting call", g.inner.Name())
		return nil, models.NewCircuitBreakerError(g.inner.Name())
	}

	resp, err := g.inner.Complete(ctx, req)
	if err != nil {
		// a cancelled caller is not a provider failure
		if !errors.Is(err, context.Canceled) {
			g.breaker.RecordFailure(context.WithoutCancel(ctx))
		}
		return nil, err
	}
	g.breaker.RecordSuccess(ctx)
	g.tokens.Fill(req, resp)
	return resp, nil
}
