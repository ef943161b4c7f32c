// Package rates fetches currency exchange rates with a persistent cache.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Nuarka/FinTrackO/internal/domain"
	"github.com/Nuarka/FinTrackO/internal/logger"
)

// ErrUnavailable is returned when a rate cannot be obtained from cache or the
// upstream API. Callers degrade to "rates unavailable" messaging; this error
// is never fatal.
var ErrUnavailable = errors.New("rates: rate unavailable")

const (
	// TTL is the freshness window for cached rates.
	TTL = 6 * time.Hour

	defaultBaseURL = "https://api.exchangerate.host"
	fetchTimeout   = 10 * time.Second
)

// Cache stores fetched rates between restarts. Implemented by storage.FXCache.
type Cache interface {
	Get(ctx context.Context, base, quote string) (rate float64, fetchedAt time.Time, ok bool, err error)
	Put(ctx context.Context, base, quote string, rate float64, fetchedAt time.Time) error
}

// Provider resolves base/quote pairs against the exchangerate API, consulting
// the cache first.
type Provider struct {
	cache   Cache
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// Option customises a Provider.
type Option func(*Provider)

// WithBaseURL overrides the upstream API endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// New builds a Provider over the given cache.
func New(cache Cache, opts ...Option) *Provider {
	p := &Provider{
		cache:   cache,
		client:  &http.Client{Timeout: fetchTimeout},
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// QuoteRate pairs a quote currency with its rate against some base.
type QuoteRate struct {
	Quote string
	Rate  float64
}

// Rate returns the base->quote rate. base == quote is always 1.0 and never
// cached. Any upstream failure maps to ErrUnavailable.
func (p *Provider) Rate(ctx context.Context, base, quote string) (float64, error) {
	if base == quote {
		return 1.0, nil
	}

	if rate, fetchedAt, ok, err := p.cache.Get(ctx, base, quote); err != nil {
		return 0, fmt.Errorf("rates: cache read: %w", err)
	} else if ok && p.now().Sub(fetchedAt) < TTL {
		logger.FX.Debug("rate cache hit",
			slog.String("event", "fx.cache"),
			slog.String("pair", base+"/"+quote),
		)
		return rate, nil
	}

	rate, err := p.fetch(ctx, base, quote)
	if err != nil {
		logger.FX.Warn("rate fetch failed",
			slog.String("event", "fx.fetch"),
			slog.String("pair", base+"/"+quote),
			slog.String("err", err.Error()),
		)
		return 0, ErrUnavailable
	}

	if err := p.cache.Put(ctx, base, quote, rate, p.now().UTC()); err != nil {
		// A failed cache write only costs a refetch later.
		logger.FX.Warn("rate cache write failed",
			slog.String("event", "fx.cache"),
			slog.String("pair", base+"/"+quote),
			slog.String("err", err.Error()),
		)
	}
	return rate, nil
}

// RatesForUser resolves rates for the user's tracked set against their base
// currency. Unavailable quotes are skipped, not surfaced as errors.
func (p *Provider) RatesForUser(ctx context.Context, user domain.User) ([]QuoteRate, error) {
	tracked := user.Tracked
	if len(tracked) > domain.MaxTracked {
		tracked = tracked[:domain.MaxTracked]
	}
	out := make([]QuoteRate, 0, len(tracked))
	for _, q := range tracked {
		if q == "" {
			continue
		}
		rate, err := p.Rate(ctx, user.BaseCurrency, q)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				continue
			}
			return nil, err
		}
		out = append(out, QuoteRate{Quote: q, Rate: rate})
	}
	return out, nil
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (p *Provider) fetch(ctx context.Context, base, quote string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		p.baseURL, url.QueryEscape(base), url.QueryEscape(quote))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	rate, ok := body.Rates[quote]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("no rate for %s in response", quote)
	}
	return rate, nil
}
