// Package restcountries fetches country lists from a REST Countries v2 API.
package restcountries

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public REST Countries v2 endpoint.
	DefaultBaseURL = "https://restcountries.com/v2"

	// Fields trims the response to what a Country holds.
	Fields = "name,capital,population,currencies,flag"

	// MsgInvalidPayload is the message of a 2xx response that is not a country list.
	MsgInvalidPayload = "invalid country payload"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client implements ports.CountryFetcher over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another deployment (or a test server).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests to perSecond with the given burst.
// A non-positive perSecond disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for DefaultBaseURL unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegionURL returns the request URL for region.
func (c *Client) RegionURL(region string) string {
	return c.baseURL + "/region/" + url.PathEscape(strings.ToLower(region)) + "?fields=" + Fields
}

// FetchCountries GETs the countries of region.
// Every failure is a *domain.FetchError: Status 0 when no response arrived,
// the response status otherwise.
func (c *Client) FetchCountries(ctx context.Context, region string) ([]domain.Country, error) {
	target := c.RegionURL(region)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, unreachable(target, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, unreachable(target, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("country request failed", "url", target, "err", err)
		return nil, unreachable(target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, unreachable(target, err)
	}

	c.logger.Debug("country request done",
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.FetchError{
			Status:  resp.StatusCode,
			Message: failureMessage(target, resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	countries, err := ParseCountries(body)
	if err != nil {
		return nil, &domain.FetchError{Status: resp.StatusCode, Message: MsgInvalidPayload, Err: err}
	}
	return countries, nil
}

// ParseCountries decodes a JSON array of REST Countries v2 records.
// A numeric population is kept as its decimal string.
func ParseCountries(body []byte) ([]domain.Country, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected an array, got %s", root.Type)
	}

	items := root.Array()
	countries := make([]domain.Country, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("item %d: expected an object, got %s", i, item.Type)
		}
		countries = append(countries, parseCountry(item))
	}
	return countries, nil
}

func parseCountry(item gjson.Result) domain.Country {
	c := domain.Country{
		Name:       item.Get("name").String(),
		Capital:    item.Get("capital").String(),
		Population: population(item.Get("population")),
		Flag:       item.Get("flag").String(),
		Currencies: []domain.Currency{},
	}
	item.Get("currencies").ForEach(func(_, cur gjson.Result) bool {
		c.Currencies = append(c.Currencies, domain.Currency{Name: cur.Get("name").String()})
		return true
	})
	return c
}

func population(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case gjson.String:
		return v.Str
	default:
		return ""
	}
}

func unreachable(target string, err error) *domain.FetchError {
	return &domain.FetchError{
		Status:  0,
		Message: failureMessage(target, 0, "Unknown Error"),
		Err:     err,
	}
}

func failureMessage(target string, status int, text string) string {
	return fmt.Sprintf("Http failure response for %s: %d %s", target, status, text)
}
