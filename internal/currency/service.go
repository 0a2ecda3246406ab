package currency

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTTL is how long cached rates are served without a refresh.
	DefaultTTL = time.Hour
	// DefaultBase is the base currency used when none is configured.
	DefaultBase = "USD"

	opServiceNew        = "currency.service.new"
	opGetExchangeRates  = "currency.get_exchange_rates"
	opConvert           = "currency.convert"
	reasonInvalidInput  = "invalid_input"
	reasonCacheRead     = "cache_read_failed"
	reasonCacheWrite    = "cache_write_failed"
	reasonFetchFailed   = "fetch_failed"
	reasonUnknownCode   = "unknown_currency"
	reasonMissingConfig = "missing_dependency"
)

var (
	noOpLogger  = zap.NewNop()
	codePattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ServiceConfig describes the dependencies of the currency service.
type ServiceConfig struct {
	Store   Store
	Fetcher Fetcher
	Base    string
	TTL     time.Duration
	Clock   func() time.Time
	Logger  *zap.Logger
}

// Service serves exchange rates from a time-boxed cache backed by a Store.
// Concurrent cold requests may both reach the provider.
type Service struct {
	store   Store
	fetcher Fetcher
	base    string
	ttl     time.Duration
	clock   func() time.Time
	logger  *zap.Logger
}

// NewService validates the configuration and constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, reasonMissingConfig, errMissingStore)
	}
	if cfg.Fetcher == nil {
		return nil, newServiceError(opServiceNew, reasonMissingConfig, errMissingFetcher)
	}
	base := strings.ToUpper(strings.TrimSpace(cfg.Base))
	if base == "" {
		base = DefaultBase
	}
	if !codePattern.MatchString(base) {
		return nil, newServiceError(opServiceNew, reasonInvalidInput, ErrValidation)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		store:   cfg.Store,
		fetcher: cfg.Fetcher,
		base:    base,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
	}, nil
}

// GetExchangeRates returns cached rates while they are younger than the TTL,
// refreshing them from the provider otherwise. When the provider fails an
// expired cache entry is served with Stale set.
func (s *Service) GetExchangeRates(ctx context.Context) (ExchangeRates, error) {
	now := s.clock().UTC()

	cached, err := s.store.GetRates(ctx, s.base)
	hasCache := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		// An unreadable cache is treated like an empty one; the provider may still answer.
		s.logError(opGetExchangeRates, reasonCacheRead, err)
	}
	if hasCache && now.Sub(cached.FetchedAt) < s.ttl {
		return served(cached, false), nil
	}

	rates, fetchErr := s.fetcher.FetchRates(ctx, s.base)
	if fetchErr != nil {
		if hasCache {
			s.logger.Warn("serving stale exchange rates",
				zap.String("operation", opGetExchangeRates),
				zap.String("base", s.base),
				zap.Time("fetched_at", cached.FetchedAt),
				zap.Error(fetchErr))
			return served(cached, true), nil
		}
		s.logError(opGetExchangeRates, reasonFetchFailed, fetchErr)
		return ExchangeRates{}, newServiceError(opGetExchangeRates, reasonFetchFailed, errors.Join(ErrExternalAPI, fetchErr))
	}

	fresh := CachedRates{Base: s.base, Rates: rates, FetchedAt: now}
	if err := s.store.SaveRates(ctx, &fresh); err != nil {
		s.logError(opGetExchangeRates, reasonCacheWrite, err)
	}
	return served(fresh, false), nil
}

// Convert converts amount from one currency to another through the base.
func (s *Service) Convert(ctx context.Context, amount float64, from, to string) (Conversion, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Conversion{}, newServiceError(opConvert, reasonInvalidInput, ErrValidation)
	}
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if !codePattern.MatchString(from) || !codePattern.MatchString(to) {
		return Conversion{}, newServiceError(opConvert, reasonInvalidInput, ErrValidation)
	}

	rates, err := s.GetExchangeRates(ctx)
	if err != nil {
		return Conversion{}, err
	}
	fromRate, ok := rates.Rates[from]
	if !ok || fromRate <= 0 {
		return Conversion{}, newServiceError(opConvert, reasonUnknownCode, ErrUnknownCurrency)
	}
	toRate, ok := rates.Rates[to]
	if !ok || toRate <= 0 {
		return Conversion{}, newServiceError(opConvert, reasonUnknownCode, ErrUnknownCurrency)
	}

	crossRate := toRate / fromRate
	return Conversion{
		Amount:    amount,
		From:      from,
		To:        to,
		Rate:      crossRate,
		Result:    math.Round(amount*crossRate*100) / 100,
		FetchedAt: rates.FetchedAt,
		Stale:     rates.Stale,
	}, nil
}

func served(cached CachedRates, stale bool) ExchangeRates {
	rates := make(map[string]float64, len(cached.Rates))
	for code, value := range cached.Rates {
		rates[code] = value
	}
	return ExchangeRates{
		Base:      cached.Base,
		Rates:     rates,
		FetchedAt: cached.FetchedAt,
		Stale:     stale,
	}
}

func (s *Service) logError(operation, reason string, err error) {
	s.logger.Error("currency service error",
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("base", s.base),
		zap.Error(err))
}
