package wager

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/metrics"
)

// Fetcher retrieves the current wager leaderboard from an affiliate endpoint
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]domain.WagerEntry, error)
}

// AffiliateClient fetches affiliate wager data over HTTP. Requests to the
// same host share a rate limiter.
type AffiliateClient struct {
	httpClient *http.Client
	rps        float64
	limiters   *xsync.MapOf[string, *rate.Limiter]
}

// NewAffiliateClient creates a client with the given request timeout and per-host pace
func NewAffiliateClient(timeout time.Duration, rps float64) *AffiliateClient {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &AffiliateClient{
		httpClient: &http.Client{Timeout: timeout},
		rps:        rps,
		limiters:   xsync.NewMapOf[*rate.Limiter](),
	}
}

func (c *AffiliateClient) limiter(host string) *rate.Limiter {
	if l, ok := c.limiters.Load(host); ok {
		return l
	}
	l, _ := c.limiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(c.rps), 1))
	return l
}

// Fetch performs one GET and parses the body
func (c *AffiliateClient) Fetch(ctx context.Context, endpoint string) ([]domain.WagerEntry, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid endpoint %q", domain.ErrAffiliateFetch, endpoint)
	}
	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAffiliateFetch, err)
	}

	start := time.Now()
	entries, err := c.get(ctx, u.String())
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.WagerFetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return entries, err
}

func (c *AffiliateClient) get(ctx context.Context, endpoint string) ([]domain.WagerEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAffiliateFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAffiliateFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrAffiliateFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrAffiliateFetch, err)
	}
	return ParseEntries(body)
}

// ParseEntries reads an affiliate response. The body is either an array of
// entries or an object wrapping one. Entries without a username or with an
// unreadable amount are dropped.
func ParseEntries(body []byte) ([]domain.WagerEntry, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not JSON", domain.ErrAffiliateFetch)
	}

	list := gjson.ParseBytes(body)
	if list.IsObject() {
		for _, path := range listPaths {
			if v := list.Get(path); v.IsArray() {
				list = v
				break
			}
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: unexpected response format", domain.ErrAffiliateFetch)
	}

	var entries []domain.WagerEntry
	list.ForEach(func(_, item gjson.Result) bool {
		username := firstString(item, usernamePaths)
		if username == "" {
			return true
		}
		amount, ok := parseAmount(item)
		if !ok {
			return true
		}
		entries = append(entries, domain.WagerEntry{
			Username:     username,
			CampaignCode: firstString(item, campaignPaths),
			WagerAmount:  amount,
		})
		return true
	})
	return entries, nil
}

func firstString(item gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(item.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}

// parseAmount reads the wager amount without going through float64
func parseAmount(item gjson.Result) (decimal.Decimal, bool) {
	for _, path := range amountPaths {
		v := item.Get(path)
		var raw string
		switch v.Type {
		case gjson.Number:
			raw = v.Raw
		case gjson.String:
			raw = strings.TrimSpace(v.Str)
		default:
			continue
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil || amount.IsNegative() {
			return decimal.Zero, false
		}
		return amount, true
	}
	return decimal.Zero, true
}
