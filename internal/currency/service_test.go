package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type stubFetcher struct {
	rates map[string]float64
	err   error
	calls int
}

func (f *stubFetcher) FetchRates(_ context.Context, base string) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rates := map[string]float64{base: 1}
	for code, value := range f.rates {
		rates[code] = value
	}
	return rates, nil
}

type harness struct {
	service *Service
	store   *GormStore
	fetcher *stubFetcher
	logs    *observer.ObservedLogs
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	databaseName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", databaseName)), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store, err := NewGormStore(db)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(store.Models()...))

	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		store:   store,
		fetcher: &stubFetcher{rates: map[string]float64{"EUR": 0.9, "ARS": 1000}},
		logs:    logs,
		now:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	service, err := NewService(ServiceConfig{
		Store:   store,
		Fetcher: h.fetcher,
		Clock:   func() time.Time { return h.now },
		Logger:  zap.New(core),
	})
	require.NoError(t, err)
	h.service = service
	return h
}

func TestGetExchangeRatesServesCacheWithinTTL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.service.GetExchangeRates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h.fetcher.calls)
	require.Equal(t, "USD", first.Base)
	require.InDelta(t, 0.9, first.Rates["EUR"], 1e-9)
	require.False(t, first.Stale)

	h.now = h.now.Add(30 * time.Minute)
	second, err := h.service.GetExchangeRates(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h.fetcher.calls, "cached value must be served without calling the provider")
	require.True(t, second.FetchedAt.Equal(first.FetchedAt))

	h.now = h.now.Add(31 * time.Minute)
	h.fetcher.rates["EUR"] = 0.95
	third, err := h.service.GetExchangeRates(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, h.fetcher.calls)
	require.InDelta(t, 0.95, third.Rates["EUR"], 1e-9)
	require.True(t, third.FetchedAt.Equal(h.now))
}

func TestGetExchangeRatesFallsBackToStaleCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.service.GetExchangeRates(ctx)
	require.NoError(t, err)

	h.now = h.now.Add(2 * time.Hour)
	h.fetcher.err = errors.New("provider down")
	stale, err := h.service.GetExchangeRates(ctx)
	require.NoError(t, err)
	require.True(t, stale.Stale)
	require.InDelta(t, 1000, stale.Rates["ARS"], 1e-9)

	warnings := h.logs.FilterMessage("serving stale exchange rates").All()
	require.Len(t, warnings, 1)
	require.Equal(t, zapcore.WarnLevel, warnings[0].Level)
}

type failingWriteStore struct {
	*GormStore
	err error
}

func (s *failingWriteStore) SaveRates(context.Context, *CachedRates) error {
	return s.err
}

func TestGetExchangeRatesServesFreshRatesWhenCacheWriteFails(t *testing.T) {
	h := newHarness(t)
	core, logs := observer.New(zapcore.DebugLevel)
	service, err := NewService(ServiceConfig{
		Store:   &failingWriteStore{GormStore: h.store, err: errors.New("disk full")},
		Fetcher: h.fetcher,
		Clock:   func() time.Time { return h.now },
		Logger:  zap.New(core),
	})
	require.NoError(t, err)

	rates, err := service.GetExchangeRates(context.Background())
	require.NoError(t, err)
	require.False(t, rates.Stale)
	require.True(t, rates.FetchedAt.Equal(h.now))
	require.InDelta(t, 1000, rates.Rates["ARS"], 1e-9)

	failures := logs.FilterField(zap.String("reason", reasonCacheWrite)).All()
	require.Len(t, failures, 1)
	require.Equal(t, zapcore.ErrorLevel, failures[0].Level)
}

func TestGetExchangeRatesWithoutCacheFails(t *testing.T) {
	h := newHarness(t)
	h.fetcher.err = errors.New("provider down")

	_, err := h.service.GetExchangeRates(context.Background())
	require.ErrorIs(t, err, ErrExternalAPI)

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	require.Equal(t, "currency.get_exchange_rates.fetch_failed", serviceErr.Code())
}

func TestConvert(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	conversion, err := h.service.Convert(ctx, 10, "usd", "ARS")
	require.NoError(t, err)
	require.InDelta(t, 10000, conversion.Result, 1e-6)

	conversion, err = h.service.Convert(ctx, 90, "EUR", "USD")
	require.NoError(t, err)
	require.InDelta(t, 100, conversion.Result, 1e-6)

	_, err = h.service.Convert(ctx, 1, "USD", "XYZ")
	require.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = h.service.Convert(ctx, 1, "US", "EUR")
	require.ErrorIs(t, err, ErrValidation)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceConfig{Fetcher: &stubFetcher{}})
	require.Error(t, err)
	_, err = NewService(ServiceConfig{Store: &GormStore{}})
	require.Error(t, err)
	_, err = NewService(ServiceConfig{Store: &GormStore{}, Fetcher: &stubFetcher{}, Base: "dollars"})
	require.ErrorIs(t, err, ErrValidation)
}
