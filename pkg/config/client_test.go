package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// memoryCache is an in-memory Cache for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) GetCached(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memoryCache) PutCached(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.puts++
	return nil
}

// keyServer serves fixed values under fixed paths, 404 elsewhere, counting
// requests.
func keyServer(t *testing.T, values map[string]string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		value, ok := values[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(value))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func testOptions(url string, levels ...string) Options {
	return Options{
		URL:          url,
		Levels:       levels,
		CacheSeconds: DefaultCacheSeconds,
		Key:          DefaultKey,
	}
}

func TestClientResolvesDeepestLevelFirst(t *testing.T) {
	server, _ := keyServer(t, map[string]string{
		"/lxd-stack":           "global",
		"/myproject/lxd-stack": "project",
	})

	client, err := NewClient(testOptions(server.URL, "myproject", "staging"), nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	// /myproject/staging/lxd-stack is absent, so the project level answers.
	value, err := client.Get(context.Background(), "lxd-stack")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "project" {
		t.Errorf("value = %q, want %q", value, "project")
	}
}

func TestClientFallsBackToBase(t *testing.T) {
	server, _ := keyServer(t, map[string]string{
		"/lxd-stack": "global",
	})

	client, err := NewClient(testOptions(server.URL, "myproject"), nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	value, err := client.Get(context.Background(), "lxd-stack")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "global" {
		t.Errorf("value = %q, want %q", value, "global")
	}
}

func TestClientKeyNotFound(t *testing.T) {
	server, _ := keyServer(t, nil)

	client, err := NewClient(testOptions(server.URL), nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Get(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unresolvable key")
	}
}

func TestClientUsesCache(t *testing.T) {
	server, hits := keyServer(t, map[string]string{
		"/lxd-stack": "cached-value",
	})
	cache := newMemoryCache()

	client, err := NewClient(testOptions(server.URL), cache, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	if _, err := client.Get(ctx, "lxd-stack"); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}
	fetched := *hits

	value, err := client.Get(ctx, "lxd-stack")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if value != "cached-value" {
		t.Errorf("value = %q", value)
	}
	if *hits != fetched {
		t.Errorf("second Get hit the service (%d -> %d requests)", fetched, *hits)
	}
}

func TestClientSkipsCacheWhenDisabled(t *testing.T) {
	server, hits := keyServer(t, map[string]string{
		"/lxd-stack": "value",
	})
	cache := newMemoryCache()

	opts := testOptions(server.URL)
	opts.CacheSeconds = 0
	client, err := NewClient(opts, cache, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	if _, err := client.Get(ctx, "lxd-stack"); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if _, err := client.Get(ctx, "lxd-stack"); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if *hits < 2 {
		t.Errorf("cache served a value despite a zero duration (%d requests)", *hits)
	}
}

func TestGetStack(t *testing.T) {
	server, _ := keyServer(t, map[string]string{
		"/lxd-stack": "containers:\n- name: web1\n",
	})

	client, err := NewClient(testOptions(server.URL), nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	stack, err := client.GetStack(context.Background(), "lxd-stack")
	if err != nil {
		t.Fatalf("GetStack: %v", err)
	}
	if len(stack.Containers) != 1 || stack.Containers[0].Name() != "web1" {
		t.Errorf("stack = %v", stack)
	}
}
