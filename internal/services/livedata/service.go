package livedata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/apicache"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const maxSnippetChars = 2000

// Service gathers live data for realtime questions, serving repeated
// lookups from the api cache.
type Service struct {
	providers []Provider
	cache     *apicache.Cache
}

func NewService(providers []Provider, cache *apicache.Cache) *Service {
	return &Service{providers: providers, cache: cache}
}

// NewServiceFromConfig builds HTTP providers for every configured source.
func NewServiceFromConfig(cfg models.LiveDataConfig, cache *apicache.Cache) (*Service, error) {
	if !cfg.Enabled {
		return NewService(nil, cache), nil
	}
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := NewHTTPProvider(pc)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewService(providers, cache), nil
}

func (s *Service) Enabled() bool {
	return s != nil && len(s.providers) > 0
}

// Context fetches every provider concurrently and renders the results as a
// labelled block. Failing providers are skipped.
func (s *Service) Context(ctx context.Context, query, requestID string) string {
	if !s.Enabled() {
		return ""
	}

	snippets := make([]string, len(s.providers))
	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			data, err := s.fetch(ctx, p, query)
			if err != nil {
				fiberlog.Warnf("[%s] LiveData: Provider %s failed: %v", requestID, p.Name(), err)
				return
			}
			if data != "" {
				snippets[i] = fmt.Sprintf("[%s]\n%s", p.Name(), truncate(data, maxSnippetChars))
			}
		}(i, p)
	}
	wg.Wait()

	var parts []string
	for _, snippet := range snippets {
		if snippet != "" {
			parts = append(parts, snippet)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (s *Service) fetch(ctx context.Context, p Provider, query string) (string, error) {
	key := apicache.Key(p.Name(), query)
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, p.Kind(), key); ok {
			return v, nil
		}
	}
	data, err := p.Fetch(ctx, query)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.Set(ctx, p.Kind(), key, data)
	}
	return data, nil
}

func (s *Service) Close() {
	for _, p := range s.providers {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
