package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/seenimoa/nsefolio/internal/infra"
	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

const (
	defaultPriceBaseURL = "https://query1.finance.yahoo.com"
	defaultPriceTimeout = 15 * time.Second
	defaultCacheTTL     = 10 * time.Second

	priceSource     = "Yahoo Finance"
	mockPriceSource = "Mock Data"

	// PriceSyntheticWarning is attached to placeholder quotes.
	PriceSyntheticWarning = "Using simulated data - real market data unavailable"
)

// PriceResult is the outcome of one price fetch.
type PriceResult struct {
	Quote   models.Quote
	Failure FailureKind
	Warning string
}

// Synthetic reports whether the quote is a placeholder.
func (r PriceResult) Synthetic() bool { return r.Failure != FailureNone }

// PriceAdapter fetches quotes from the Yahoo Finance v7 quote API.
type PriceAdapter struct {
	baseURL string
	timeout time.Duration
	ttl     time.Duration
	client  *http.Client
	synth   Synthesizer
	cache   *infra.Cache[any]
}

// NewPriceAdapter creates a price adapter backed by the shared response cache.
func NewPriceAdapter(cache *infra.Cache[any], opts Options) *PriceAdapter {
	return &PriceAdapter{
		baseURL: orDefault(opts.BaseURL, defaultPriceBaseURL),
		timeout: orDefault(opts.Timeout, defaultPriceTimeout),
		ttl:     orDefault(opts.CacheTTL, defaultCacheTTL),
		client:  opts.client(),
		synth:   opts.synth(),
		cache:   cache,
	}
}

// Name returns the data source name.
func (p *PriceAdapter) Name() string { return priceSource }

// --- Yahoo Finance v7 API types ---

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
	RegularMarketPrice         float64  `json:"regularMarketPrice"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose float64  `json:"regularMarketPreviousClose"`
	RegularMarketDayRange      string   `json:"regularMarketDayRange"`
	RegularMarketVolume        int64    `json:"regularMarketVolume"`
	MarketCap                  *float64 `json:"marketCap"`
	TrailingPE                 *float64 `json:"trailingPE"`
	ForwardPE                  *float64 `json:"forwardPE"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Fetch returns the latest quote for symbol on exchange. It never fails:
// on error the result is tagged synthetic and carries a warning.
func (p *PriceAdapter) Fetch(ctx context.Context, symbol string, exchange models.Exchange) PriceResult {
	symbol = utils.NormalizeSymbol(symbol)
	ticker := utils.YahooTicker(symbol, exchange)

	cacheKey := "price:" + ticker
	if cached, ok := p.cache.Get(cacheKey); ok {
		if q, ok := cached.(models.Quote); ok {
			return PriceResult{Quote: q}
		}
	}

	q, err := p.fetchQuote(ctx, symbol, ticker)
	if err != nil {
		return p.degrade(symbol, ticker, err)
	}

	p.cache.SetWithTTL(cacheKey, q, p.ttl)
	return PriceResult{Quote: q}
}

func (p *PriceAdapter) fetchQuote(ctx context.Context, symbol, ticker string) (models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", p.baseURL, url.QueryEscape(ticker))
	body, err := doGet(ctx, p.client, u, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return models.Quote{}, fmt.Errorf("yahoo quote %s: %w", ticker, err)
	}
	defer body.Close()

	var resp yfQuoteResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return models.Quote{}, fmt.Errorf("parse yahoo quote: %w", err)
	}
	if resp.QuoteResponse.Error != nil {
		return models.Quote{}, fmt.Errorf("yahoo API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	r := resp.QuoteResponse.Result[0]
	q := models.Quote{
		Symbol:        symbol,
		Ticker:        ticker,
		Name:          coalesce(r.LongName, r.ShortName),
		Price:         r.RegularMarketPrice,
		PreviousClose: r.RegularMarketPreviousClose,
		Change:        r.RegularMarketChange,
		ChangePercent: r.RegularMarketChangePercent,
		PERatio:       firstPositive(r.TrailingPE, r.ForwardPE),
		MarketCap:     r.MarketCap,
		Volume:        r.RegularMarketVolume,
		Timestamp:     time.Now().UnixMilli(),
		Source:        priceSource,
	}
	if q.PreviousClose == 0 {
		q.PreviousClose = q.Price
	}
	if r.RegularMarketDayRange != "" {
		dr := r.RegularMarketDayRange
		q.DayRange = &dr
	}
	return q, nil
}

// degrade builds the placeholder quote for a failed fetch.
func (p *PriceAdapter) degrade(symbol, ticker string, err error) PriceResult {
	kind := classify(err)
	logger.Get().Warnw("price fetch degraded", "ticker", ticker, "kind", kind.String(), "error", err)

	q := models.Quote{
		Symbol:       symbol,
		Ticker:       ticker,
		Timestamp:    time.Now().UnixMilli(),
		IsMockData:   true,
		Source:       mockPriceSource,
		ErrorDetails: err.Error(),
	}

	if kind == FailureTransport {
		q.Error = "Network error: " + transportReason(err)
		return PriceResult{Quote: q, Failure: kind, Warning: q.Error}
	}

	q.Price = round2(between(p.synth, 100, 1100))
	q.Change = round2(between(p.synth, -10, 10))
	q.ChangePercent = round2(between(p.synth, -2.5, 2.5))
	q.PreviousClose = round2(q.Price - q.Change)
	pe := round2(between(p.synth, 10, 40))
	q.PERatio = &pe
	q.Error = "Failed to fetch real data, using mock data"
	return PriceResult{Quote: q, Failure: kind, Warning: PriceSyntheticWarning}
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil && *v > 0 && !math.IsNaN(*v) {
			return v
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
