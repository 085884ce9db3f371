package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newGeoServer(t *testing.T, hits *atomic.Int32, body string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/203.0.113.9/json/" {
			http.NotFound(w, r)
			return
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPGeoLocatorParsesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := newGeoServer(t, &hits, `{"latitude":12.97,"longitude":77.59,"city":"Bengaluru","region":"Karnataka","country_name":"India"}`, 0)
	g := NewHTTPGeoLocator(HTTPGeoLocatorConfig{BaseURL: srv.URL, Timeout: time.Second, CacheTTL: time.Minute}, NewInMemoryGeoCacheStore(), nil)
	ctx := context.Background()

	loc := g.Locate(ctx, "203.0.113.9")
	if loc == nil || loc.City != "Bengaluru" || loc.Country != "India" || loc.Lat == nil || *loc.Lat != 12.97 {
		t.Fatalf("unexpected location %+v", loc)
	}
	if again := g.Locate(ctx, "203.0.113.9"); again == nil || again.Region != "Karnataka" {
		t.Fatalf("unexpected cached location %+v", again)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", hits.Load())
	}
}

func TestHTTPGeoLocatorDegradesToNil(t *testing.T) {
	var hits atomic.Int32
	srv := newGeoServer(t, &hits, `{"error":true,"reason":"RateLimited"}`, 0)
	g := NewHTTPGeoLocator(HTTPGeoLocatorConfig{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)

	if loc := g.Locate(context.Background(), "203.0.113.9"); loc != nil {
		t.Fatalf("expected nil on upstream error, got %+v", loc)
	}
	if loc := g.Locate(context.Background(), "10.1.2.3"); loc != nil {
		t.Fatalf("expected private ip skipped, got %+v", loc)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected private ip to skip upstream, hits=%d", hits.Load())
	}
}

func TestHTTPGeoLocatorTimeout(t *testing.T) {
	var hits atomic.Int32
	srv := newGeoServer(t, &hits, `{"city":"Late"}`, 200*time.Millisecond)
	g := NewHTTPGeoLocator(HTTPGeoLocatorConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil, nil)

	if loc := g.Locate(context.Background(), "203.0.113.9"); loc != nil {
		t.Fatalf("expected nil on timeout, got %+v", loc)
	}
}

func TestHTTPGeoLocatorDedupesConcurrentLookups(t *testing.T) {
	var hits atomic.Int32
	srv := newGeoServer(t, &hits, `{"city":"Pune","country_name":"India"}`, 50*time.Millisecond)
	g := NewHTTPGeoLocator(HTTPGeoLocatorConfig{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if loc := g.Locate(context.Background(), "203.0.113.9"); loc == nil || loc.City != "Pune" {
				t.Errorf("unexpected location %+v", loc)
			}
		}()
	}
	wg.Wait()
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream call for concurrent lookups, got %d", hits.Load())
	}
}

func TestRedisGeoCacheStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	store := NewRedisGeoCacheStore(client, "test_geo")
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "203.0.113.9"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "203.0.113.9", []byte(`{"city":"Pune"}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := store.Get(ctx, "203.0.113.9")
	if err != nil || !ok || string(got) != `{"city":"Pune"}` {
		t.Fatalf("unexpected get %q ok=%v err=%v", got, ok, err)
	}
	for _, k := range mr.Keys() {
		if k == "test_geo:data:203.0.113.9" {
			t.Fatal("expected raw ip not to appear in key")
		}
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "203.0.113.9"); ok {
		t.Fatal("expected expiry")
	}
}

func TestInMemoryGeoCacheStoreExpiry(t *testing.T) {
	store := NewInMemoryGeoCacheStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("expected hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss after ttl")
	}
}
