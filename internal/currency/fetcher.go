package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRequestsPerMin = 30
	maxResponseBytes      = 1 << 20
)

// Fetcher loads the current rate table for a base currency from a provider.
type Fetcher interface {
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
}

// HTTPFetcherConfig configures the rate provider client.
type HTTPFetcherConfig struct {
	// BaseURL is the provider endpoint prefix; the base currency code is appended as the last path segment.
	BaseURL string
	APIKey  string
	// RequestsPerMinute bounds outbound calls. Zero selects the default.
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// HTTPFetcher calls an exchangerate-api style endpoint.
type HTTPFetcher struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

type providerResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	Base            string             `json:"base"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	Rates           map[string]float64 `json:"rates"`
}

// NewHTTPFetcher validates cfg and builds a fetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig) (*HTTPFetcher, error) {
	rawURL := strings.TrimSpace(cfg.BaseURL)
	if rawURL == "" {
		return nil, errors.New("currency: provider url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("currency: parse provider url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("currency: unsupported provider url scheme %q", parsed.Scheme)
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMin
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{
		baseURL: parsed,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}, nil
}

// FetchRates requests the table for base. It waits for the limiter and honours ctx.
func (f *HTTPFetcher) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := f.baseURL.JoinPath(base)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	response, err := f.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request rates: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxResponseBytes))
		return nil, fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	var payload providerResponse
	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if payload.Result != "" && payload.Result != "success" {
		return nil, fmt.Errorf("provider error %q", payload.ErrorType)
	}
	rates := payload.ConversionRates
	if len(rates) == 0 {
		rates = payload.Rates
	}
	if len(rates) == 0 {
		return nil, errors.New("provider returned no rates")
	}
	normalized := make(map[string]float64, len(rates)+1)
	for code, value := range rates {
		if value <= 0 {
			continue
		}
		normalized[strings.ToUpper(code)] = value
	}
	normalized[base] = 1
	return normalized, nil
}
