package main

import (
	"fmt"
	"time"

	"github.com/seenimoa/nsefolio/internal/datasource"
	"github.com/seenimoa/nsefolio/internal/infra"
	"github.com/seenimoa/nsefolio/internal/refresh"
	"github.com/seenimoa/nsefolio/internal/store"
)

// app holds the process-wide services. The response cache and the store
// are created once and shared by every component.
type app struct {
	backend store.Backend
	cache   *infra.Cache[any]
	store   *store.Store
	prices  *datasource.PriceAdapter
	ratios  *datasource.RatioAdapter
	orch    *refresh.Orchestrator
}

func newApp() (*app, error) {
	backend, err := store.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	p := cfg.Providers
	cache := infra.NewCache[any](p.CacheTTL())

	var limiter *infra.RateLimiter
	if p.RatioRateLimit > 0 {
		limiter = infra.NewRateLimiter(p.RatioRateLimit, time.Second/time.Duration(p.RatioRateLimit))
	}

	a := &app{
		backend: backend,
		cache:   cache,
		store:   store.New(backend, cache),
		prices: datasource.NewPriceAdapter(cache, datasource.Options{
			BaseURL:  p.PriceBaseURL,
			Timeout:  p.PriceTimeout(),
			CacheTTL: p.CacheTTL(),
		}),
		ratios: datasource.NewRatioAdapter(cache, datasource.Options{
			BaseURL:  p.RatioBaseURL,
			Timeout:  p.RatioTimeout(),
			CacheTTL: p.CacheTTL(),
			Limiter:  limiter,
		}),
	}
	a.orch = refresh.New(a.store, a.prices, a.ratios)
	a.orch.SetSweeper(cache)
	return a, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}
