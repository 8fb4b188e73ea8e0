package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lxstack/lxstack/pkg/engine"
	"github.com/lxstack/lxstack/pkg/telemetry"
)

// Cache stores fetched values between invocations. Implemented by
// stores.Store; nil disables caching.
type Cache interface {
	// GetCached returns the cached value for key if it is younger than
	// maxAge.
	GetCached(ctx context.Context, key string, maxAge time.Duration) (value string, ok bool, err error)

	// PutCached stores a freshly fetched value.
	PutCached(ctx context.Context, key, value string) error
}

// Client fetches values from the remote key-value configuration service.
type Client struct {
	http  *http.Client
	opts  Options
	cache Cache
	log   *telemetry.Logger
}

// NewClient validates the options and builds a service client.
func NewClient(opts Options, cache Cache, log *telemetry.Logger) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = telemetry.NopLogger()
	}
	return &Client{
		http:  &http.Client{Timeout: 30 * time.Second},
		opts:  opts,
		cache: cache,
		log:   log.NewComponentLogger("config"),
	}, nil
}

// Get resolves key against the service, deepest level first. The first
// non-empty answer wins and is cached for the configured duration.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cacheKey := strings.Join(append(append([]string{c.opts.URL}, c.opts.Levels...), key), "/")
	maxAge := time.Duration(c.opts.CacheSeconds) * time.Second

	if c.cache != nil && maxAge > 0 {
		value, ok, err := c.cache.GetCached(ctx, cacheKey, maxAge)
		if err != nil {
			c.log.WithError(err).Warn("cache lookup failed")
		} else if ok {
			c.log.WithField("key", key).Debug("cache hit")
			return value, nil
		}
	}

	base := strings.TrimRight(c.opts.URL, "/")
	for depth := len(c.opts.Levels); depth >= 0; depth-- {
		segments := append([]string{base}, c.opts.Levels[:depth]...)
		url := strings.Join(append(segments, key), "/")

		value, found, err := c.fetch(ctx, url)
		if err != nil {
			return "", err
		}
		if !found {
			c.log.WithField("url", url).Debug("key not found, trying next level")
			continue
		}

		if c.cache != nil {
			if err := c.cache.PutCached(ctx, cacheKey, value); err != nil {
				c.log.WithError(err).Warn("cache write failed")
			}
		}
		return value, nil
	}

	return "", fmt.Errorf("config: key %q not found at any level of %s", key, c.opts.URL)
}

// GetStack fetches key and parses it as a stack document.
func (c *Client) GetStack(ctx context.Context, key string) (*engine.Stack, error) {
	text, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return ParseStack([]byte(text))
}

// fetch issues one GET. A 404 or an empty body means "not at this level".
func (c *Client) fetch(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("config: build request for %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("config: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("config: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("config: read %s: %w", url, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", false, nil
	}
	return string(body), true, nil
}
