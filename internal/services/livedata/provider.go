package livedata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
)

const (
	defaultProviderTimeout = 5 * time.Second
	defaultRetryDelay      = 200 * time.Millisecond
)

// Provider fetches fresh data relevant to a query.
type Provider interface {
	Name() string
	Kind() models.LiveDataKind
	Fetch(ctx context.Context, query string) (string, error)
}

// HTTPProvider calls a JSON endpoint with the query in the q parameter.
type HTTPProvider struct {
	name   string
	kind   models.LiveDataKind
	url    string
	client *client
}

func NewHTTPProvider(cfg models.LiveDataProviderConfig) (*HTTPProvider, error) {
	if cfg.Name == "" || cfg.URL == "" {
		return nil, fmt.Errorf("live data provider needs a name and url")
	}
	kind := cfg.Kind
	if kind == "" {
		kind = models.LiveDataAPI
	}
	if kind != models.LiveDataAPI && kind != models.LiveDataMedia {
		return nil, fmt.Errorf("provider %s: unsupported kind %q", cfg.Name, kind)
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		header := cfg.AuthHeader
		value := cfg.APIKey
		if header == "" {
			header = "Authorization"
			value = "Bearer " + cfg.APIKey
		}
		headers[header] = value
	}

	return &HTTPProvider{
		name: cfg.Name,
		kind: kind,
		url:  cfg.URL,
		client: newClient(clientConfig{
			Timeout:    timeout,
			Retries:    cfg.MaxRetries,
			RetryDelay: defaultRetryDelay,
		}, headers),
	}, nil
}

func (p *HTTPProvider) Name() string              { return p.name }
func (p *HTTPProvider) Kind() models.LiveDataKind { return p.kind }

// Fetch returns the endpoint's JSON compacted to a single line.
func (p *HTTPProvider) Fetch(ctx context.Context, query string) (string, error) {
	body, err := p.client.get(ctx, p.url, map[string]string{"q": query})
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	var out bytes.Buffer
	if err := json.Compact(&out, body); err != nil {
		return "", fmt.Errorf("%s: response is not JSON: %w", p.name, err)
	}
	return out.String(), nil
}

func (p *HTTPProvider) Close() {
	p.client.close()
}
