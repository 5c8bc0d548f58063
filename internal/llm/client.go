package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mboersen/revisor/internal/cache"
	"github.com/mboersen/revisor/internal/model"
)

// Client is the generation client the stages talk to: provider dispatch
// plus classified retry, per-provider rate limiting, and an optional
// response cache. It is stateless apart from those shared guards and safe
// for concurrent use.
type Client struct {
	cfg   model.LLMConfig
	cache cache.Cache

	mu        sync.Mutex
	providers map[string]Provider
	limiters  map[string]*rate.Limiter
}

// NewClient builds a client from the runtime configuration. respCache may
// be nil to disable caching.
func NewClient(cfg model.LLMConfig, respCache cache.Cache) *Client {
	return &Client{
		cfg:       cfg,
		cache:     respCache,
		providers: make(map[string]Provider),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// CompleteStage runs one completion for a pipeline stage ("write", "check",
// "repair"), using that stage's provider+model selection.
func (c *Client) CompleteStage(ctx context.Context, stage string, req CompletionRequest) (string, error) {
	provCfg := ConfigForStage(c.cfg, stage)
	if req.Model == "" {
		req.Model = provCfg.Model
	}

	prov, err := c.provider(provCfg)
	if err != nil {
		return "", err
	}

	var key string
	if c.cache != nil {
		msgs := make([]string, 0, len(req.Messages))
		for _, m := range req.Messages {
			msgs = append(msgs, string(m.Role)+"\x00"+m.Content)
		}
		key = cache.Key(prov.Name(), req.Model, req.System, msgs)
		if data, ok := c.cache.Get(key); ok {
			return string(data), nil
		}
	}

	limiter := c.limiter(prov.Name())
	policy := DefaultRetryPolicy(c.cfg.MaxRetries)

	resp, err := Retry(ctx, policy, IsTransient, func(ctx context.Context) (*CompletionResponse, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return prov.Complete(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("%s stage: %w", stage, err)
	}

	if c.cache != nil {
		_ = c.cache.Set(key, []byte(resp.Text), 0)
	}
	return resp.Text, nil
}

// provider returns the provider for a config, creating it once.
func (c *Client) provider(cfg Config) (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.providers[cfg.Provider]; ok {
		return p, nil
	}
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	c.providers[cfg.Provider] = p
	return p, nil
}

// limiter returns the rate limiter for a provider, creating it once.
// Keyed per provider so mixing providers across stages doesn't share one
// budget.
func (c *Client) limiter(name string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[name]; ok {
		return l
	}
	perSec := c.cfg.RatePerSec
	if perSec <= 0 {
		perSec = 2
	}
	burst := c.cfg.RateBurst
	if burst <= 0 {
		burst = 4
	}
	l := rate.NewLimiter(rate.Limit(perSec), burst)
	c.limiters[name] = l
	return l
}

// WithProvider injects a prebuilt provider, used by tests to run the full
// pipeline against a scripted model.
func (c *Client) WithProvider(name string, p Provider) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = p
	return c
}

// NewCache builds the response cache described by the configuration, or
// nil when caching is disabled.
func NewCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	if cfg.Dir != "" {
		return cache.NewLayeredCache(ttl, cfg.Dir, ttl)
	}
	return cache.NewMemoryCache(ttl, 10*time.Minute)
}
