package rates

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// DefaultURL is the National Bank of Ukraine USD rate endpoint.
const DefaultURL = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?valcode=USD&json"

var (
	// ErrNoRate is returned when the feed answers without a usable USD entry.
	ErrNoRate = eris.New("rates: no usd rate in response")
)

// maxRate bounds a plausible UAH/USD rate; the feed publishes four decimals.
var maxRate = decimal.NewFromInt(100000)

// usable rejects non-positive rates and values whose scale would make
// later arithmetic expensive.
func usable(d decimal.Decimal) bool {
	if exp := d.Exponent(); exp < -8 || exp > 8 {
		return false
	}
	return d.IsPositive() && d.LessThan(maxRate)
}

// Rate is the official UAH price of one US dollar.
type Rate struct {
	Currency  string          `json:"currency"`
	Value     decimal.Decimal `json:"value"`
	Date      string          `json:"date"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Fetcher returns the current exchange rate.
type Fetcher interface {
	Fetch(ctx context.Context) (Rate, error)
}

// Option configures the client.
type Option func(*Client)

// WithURL overrides the default feed URL.
func WithURL(url string) Option {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.url = url
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetry sets how many attempts are made and the first backoff delay.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if base > 0 {
			c.backoff = base
		}
	}
}

// WithCache keeps fetched rates in Redis for ttl. A nil client disables caching.
func WithCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = newCache(rdb, ttl)
	}
}

// WithLogger sets the logger used for retry and cache diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// Client fetches the USD rate from the NBU feed.
type Client struct {
	url      string
	http     *http.Client
	attempts int
	backoff  time.Duration
	cache    *cache
	log      zerolog.Logger
}

// NewClient creates a feed client with three attempts and exponential backoff.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:      DefaultURL,
		http:     &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		backoff:  200 * time.Millisecond,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type nbuEntry struct {
	Code         int             `json:"r030"`
	Text         string          `json:"txt"`
	Rate         decimal.Decimal `json:"rate"`
	Currency     string          `json:"cc"`
	ExchangeDate string          `json:"exchangedate"`
}

// Fetch returns the cached rate when present, otherwise queries the feed.
func (c *Client) Fetch(ctx context.Context) (Rate, error) {
	if r, ok := c.cache.get(ctx, c.log); ok {
		return r, nil
	}

	var rate Rate
	attempt := 0
	b := retry.WithMaxRetries(uint64(c.attempts-1), retry.NewExponential(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		r, err := c.fetchOnce(ctx)
		if err != nil {
			c.log.Debug().Err(err).Int("attempt", attempt).Msg("rate fetch failed")
			return err
		}
		rate = r
		return nil
	})
	if err != nil {
		return Rate{}, err
	}

	c.cache.set(ctx, rate, c.log)
	return rate, nil
}

func (c *Client) fetchOnce(ctx context.Context) (Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Rate{}, eris.Wrap(err, "rates: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Rate{}, retry.RetryableError(eris.Wrap(err, "rates: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Rate{}, retry.RetryableError(eris.Wrap(err, "rates: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("rates: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return Rate{}, retry.RetryableError(err)
		}
		return Rate{}, err
	}

	var entries []nbuEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return Rate{}, eris.Wrap(err, "rates: unmarshal response")
	}
	for _, e := range entries {
		if strings.EqualFold(e.Currency, "USD") && usable(e.Rate) {
			return Rate{Currency: "USD", Value: e.Rate, Date: e.ExchangeDate, FetchedAt: time.Now().UTC()}, nil
		}
	}
	return Rate{}, ErrNoRate
}

// Store persists a refreshed rate.
type Store interface {
	SetExchangeRate(ctx context.Context, rate decimal.Decimal) error
}

// Refresh fetches the current rate and stores it.
func Refresh(ctx context.Context, f Fetcher, s Store) (Rate, error) {
	rate, err := f.Fetch(ctx)
	if err != nil {
		return Rate{}, err
	}
	if err := s.SetExchangeRate(ctx, rate.Value); err != nil {
		return Rate{}, eris.Wrap(err, "rates: store rate")
	}
	return rate, nil
}
