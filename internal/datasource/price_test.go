package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsefolio/internal/infra"
	"github.com/seenimoa/nsefolio/pkg/models"
)

const tcsQuoteJSON = `{"quoteResponse":{"result":[{
	"symbol":"TCS.NS","shortName":"TCS","longName":"Tata Consultancy Services Limited",
	"regularMarketPrice":3300.5,"regularMarketChange":25.5,"regularMarketChangePercent":0.78,
	"regularMarketPreviousClose":3275,"regularMarketDayRange":"3260.0 - 3310.0",
	"regularMarketVolume":1234567,"marketCap":12000000000000,"trailingPE":29.4}],"error":null}}`

func newPriceServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestPriceAdapter(baseURL string) (*PriceAdapter, *infra.Cache[any]) {
	cache := infra.NewCache[any](10 * time.Second)
	return NewPriceAdapter(cache, Options{
		BaseURL: baseURL,
		Timeout: 200 * time.Millisecond,
		Synth:   fixedSynth(0.5),
	}), cache
}

func TestPriceFetchSuccess(t *testing.T) {
	var gotSymbols string
	srv, hits := newPriceServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		gotSymbols = r.URL.Query().Get("symbols")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tcsQuoteJSON))
	})
	p, _ := newTestPriceAdapter(srv.URL)

	res := p.Fetch(context.Background(), "tcs", models.ExchangeNSE)

	assert.Equal(t, "TCS.NS", gotSymbols)
	assert.False(t, res.Synthetic())
	assert.Empty(t, res.Warning)
	q := res.Quote
	assert.Equal(t, "TCS", q.Symbol)
	assert.Equal(t, "TCS.NS", q.Ticker)
	assert.Equal(t, "Tata Consultancy Services Limited", q.Name)
	assert.Equal(t, 3300.5, q.Price)
	assert.Equal(t, 3275.0, q.PreviousClose)
	assert.Equal(t, 25.5, q.Change)
	require.NotNil(t, q.PERatio)
	assert.Equal(t, 29.4, *q.PERatio)
	require.NotNil(t, q.DayRange)
	assert.Equal(t, "3260.0 - 3310.0", *q.DayRange)
	assert.Equal(t, int64(1234567), q.Volume)
	assert.False(t, q.IsMockData)
	assert.Equal(t, "Yahoo Finance", q.Source)
	assert.NotZero(t, q.Timestamp)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPriceFetchCachesPerSymbolExchange(t *testing.T) {
	srv, hits := newPriceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tcsQuoteJSON))
	})
	p, cache := newTestPriceAdapter(srv.URL)
	ctx := context.Background()

	p.Fetch(ctx, "TCS", models.ExchangeNSE)
	p.Fetch(ctx, "TCS", models.ExchangeNSE)
	assert.Equal(t, int32(1), hits.Load(), "second fetch within TTL should be served from cache")

	p.Fetch(ctx, "TCS", models.ExchangeBSE)
	assert.Equal(t, int32(2), hits.Load(), "exchange is part of the cache key")

	cache.Flush()
	p.Fetch(ctx, "TCS", models.ExchangeNSE)
	assert.Equal(t, int32(3), hits.Load(), "flush forces a refetch")
}

func TestPriceFetchCacheExpiry(t *testing.T) {
	srv, hits := newPriceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tcsQuoteJSON))
	})
	p, cache := newTestPriceAdapter(srv.URL)
	now := time.Now()
	cache.SetClock(func() time.Time { return now })

	p.Fetch(context.Background(), "TCS", models.ExchangeNSE)
	now = now.Add(11 * time.Second)
	p.Fetch(context.Background(), "TCS", models.ExchangeNSE)

	assert.Equal(t, int32(2), hits.Load())
}

func TestPriceFetchUpstreamFailureSynthesizes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Invalid Crumb", http.StatusUnauthorized)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteResponse":`))
		}},
		{"unknown ticker", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
		}},
		{"api error", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"quoteResponse":{"result":null,"error":{"code":"Bad Request","description":"Missing symbols"}}}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newPriceServer(t, tt.handler)
			p, _ := newTestPriceAdapter(srv.URL)

			res := p.Fetch(context.Background(), "TCS", models.ExchangeNSE)

			assert.True(t, res.Synthetic())
			assert.Equal(t, FailureUpstream, res.Failure)
			assert.Equal(t, PriceSyntheticWarning, res.Warning)
			assert.True(t, res.Quote.IsMockData)
			assert.Equal(t, 600.0, res.Quote.Price)
			assert.Equal(t, 0.0, res.Quote.Change)
			require.NotNil(t, res.Quote.PERatio)
			assert.Equal(t, 25.0, *res.Quote.PERatio)
			assert.NotEmpty(t, res.Quote.Error)
			assert.NotEmpty(t, res.Quote.ErrorDetails)

			p.Fetch(context.Background(), "TCS", models.ExchangeNSE)
			assert.Equal(t, int32(2), hits.Load(), "synthetic results are not cached")
		})
	}
}

func TestPriceFetchTimeoutIsTransportFailure(t *testing.T) {
	srv, _ := newPriceServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	p, _ := newTestPriceAdapter(srv.URL)

	start := time.Now()
	res := p.Fetch(context.Background(), "TCS", models.ExchangeNSE)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, FailureTransport, res.Failure)
	assert.True(t, res.Quote.IsMockData)
	assert.Zero(t, res.Quote.Price, "no usable price on transport failure")
	assert.Nil(t, res.Quote.PERatio)
	assert.Equal(t, "Network error: request timed out", res.Warning)
}

func TestPriceFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	p, _ := newTestPriceAdapter(baseURL)
	res := p.Fetch(context.Background(), "INFY", models.ExchangeNSE)

	assert.Equal(t, FailureTransport, res.Failure)
	assert.True(t, strings.HasPrefix(res.Warning, "Network error: "), res.Warning)
	assert.Zero(t, res.Quote.Price)
}

func TestFirstPositive(t *testing.T) {
	neg, zero, pos := -3.0, 0.0, 18.2
	assert.Nil(t, firstPositive(nil, &neg, &zero))
	assert.Equal(t, &pos, firstPositive(nil, &zero, &pos))
}
