package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nuarka/FinTrackO/internal/domain"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	getErr  error
}

type cacheEntry struct {
	rate      float64
	fetchedAt time.Time
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]cacheEntry)}
}

func (m *memCache) Get(_ context.Context, base, quote string) (float64, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, time.Time{}, false, m.getErr
	}
	e, ok := m.entries[base+"/"+quote]
	return e.rate, e.fetchedAt, ok, nil
}

func (m *memCache) Put(_ context.Context, base, quote string, rate float64, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[base+"/"+quote] = cacheEntry{rate: rate, fetchedAt: fetchedAt}
	return nil
}

func rateServer(t *testing.T, status int, body string, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestRateSamePairIsOne(t *testing.T) {
	p := New(newMemCache())
	rate, err := p.Rate(context.Background(), "KZT", "KZT")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestRateFetchesAndCaches(t *testing.T) {
	hits := 0
	srv := rateServer(t, http.StatusOK, `{"rates":{"USD":0.0021}}`, &hits)
	defer srv.Close()

	cache := newMemCache()
	p := New(cache, WithBaseURL(srv.URL))

	rate, err := p.Rate(context.Background(), "KZT", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 0.0021, rate, 1e-9)
	assert.Equal(t, 1, hits)

	// Second call is served from cache.
	rate, err = p.Rate(context.Background(), "KZT", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 0.0021, rate, 1e-9)
	assert.Equal(t, 1, hits)
}

func TestRateRefetchesExpiredCache(t *testing.T) {
	hits := 0
	srv := rateServer(t, http.StatusOK, `{"rates":{"USD":0.0025}}`, &hits)
	defer srv.Close()

	now := time.Now()
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), "KZT", "USD", 0.0021, now.Add(-TTL-time.Minute)))

	p := New(cache, WithBaseURL(srv.URL), WithClock(func() time.Time { return now }))
	rate, err := p.Rate(context.Background(), "KZT", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 0.0025, rate, 1e-9, "stale entry triggers a refetch")
	assert.Equal(t, 1, hits)
}

func TestRateUpstreamFailureIsUnavailable(t *testing.T) {
	srv := rateServer(t, http.StatusBadGateway, "boom", nil)
	defer srv.Close()

	p := New(newMemCache(), WithBaseURL(srv.URL))
	_, err := p.Rate(context.Background(), "KZT", "USD")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRateRejectsNonPositive(t *testing.T) {
	srv := rateServer(t, http.StatusOK, `{"rates":{"USD":0}}`, nil)
	defer srv.Close()

	p := New(newMemCache(), WithBaseURL(srv.URL))
	_, err := p.Rate(context.Background(), "KZT", "USD")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRateCacheReadErrorPropagates(t *testing.T) {
	cache := newMemCache()
	cache.getErr = fmt.Errorf("db down")
	p := New(cache)

	_, err := p.Rate(context.Background(), "KZT", "USD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestRatesForUserSkipsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbols") == "USD" {
			fmt.Fprint(w, `{"rates":{"USD":0.0021}}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := New(newMemCache(), WithBaseURL(srv.URL))
	user := domain.User{BaseCurrency: "KZT", Tracked: []string{"USD", "RUB"}}

	got, err := p.RatesForUser(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, QuoteRate{Quote: "USD", Rate: 0.0021}, got[0])
}

func TestRatesForUserCapsTracked(t *testing.T) {
	srv := rateServer(t, http.StatusOK, `{"rates":{"USD":1}}`, nil)
	defer srv.Close()

	p := New(newMemCache(), WithBaseURL(srv.URL))
	user := domain.User{
		BaseCurrency: "USD",
		Tracked:      []string{"USD", "USD", "USD", "USD", "USD", "USD", "USD"},
	}
	got, err := p.RatesForUser(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, got, domain.MaxTracked)
}
