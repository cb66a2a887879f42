package datasource

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/nsefolio/internal/infra"
	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

const (
	defaultRatioBaseURL = "https://www.google.com"
	defaultRatioTimeout = 20 * time.Second

	ratioSource     = "Google Finance (Scraped)"
	mockRatioSource = "Mock Data (Scraping Failed)"

	// RatioSyntheticWarning is attached to placeholder ratios.
	RatioSyntheticWarning = "Using simulated data - real P/E and earnings unavailable"
)

// Scraping status values reported alongside ratios.
const (
	ScrapeSuccess = "success"
	ScrapePartial = "partial"
	ScrapeNoMatch = "no_match"
	ScrapeFailed  = "failed"
)

// RatioResult is the outcome of one ratio fetch.
type RatioResult struct {
	Ratios  models.Ratios
	Failure FailureKind
	Warning string
}

// Synthetic reports whether the ratios are placeholders.
func (r RatioResult) Synthetic() bool { return r.Failure != FailureNone }

// RatioAdapter scrapes P/E and EPS from Google Finance quote pages.
type RatioAdapter struct {
	baseURL  string
	timeout  time.Duration
	ttl      time.Duration
	client   *http.Client
	synth    Synthesizer
	cache    *infra.Cache[any]
	limiter  *infra.RateLimiter
	pe       Field
	earnings Field
}

// NewRatioAdapter creates a ratio adapter backed by the shared response cache.
func NewRatioAdapter(cache *infra.Cache[any], opts Options) *RatioAdapter {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = infra.NewRateLimiter(5, time.Second) // 5 req/s
	}
	return &RatioAdapter{
		baseURL:  orDefault(opts.BaseURL, defaultRatioBaseURL),
		timeout:  orDefault(opts.Timeout, defaultRatioTimeout),
		ttl:      orDefault(opts.CacheTTL, defaultCacheTTL),
		client:   opts.client(),
		synth:    opts.synth(),
		cache:    cache,
		limiter:  limiter,
		pe:       PERatioField(),
		earnings: EarningsField(),
	}
}

// Name returns the data source name.
func (r *RatioAdapter) Name() string { return ratioSource }

// Fetch returns P/E and earnings for symbol. Values the page does not show
// are nil. It never fails: on error the result is tagged synthetic and
// carries a warning.
func (r *RatioAdapter) Fetch(ctx context.Context, symbol string) RatioResult {
	symbol = utils.NormalizeSymbol(symbol)

	cacheKey := "ratios:" + symbol
	if cached, ok := r.cache.Get(cacheKey); ok {
		if rt, ok := cached.(models.Ratios); ok {
			return RatioResult{Ratios: rt}
		}
	}

	doc, err := r.fetchPage(ctx, symbol)
	if err != nil {
		return r.degrade(symbol, err)
	}

	rt := models.Ratios{
		Symbol:    symbol,
		Timestamp: time.Now().UnixMilli(),
		Source:    ratioSource,
	}
	if v, strategy, ok := r.pe.Extract(doc); ok {
		rt.PERatio = &v
		logger.Get().Debugw("extracted P/E", "symbol", symbol, "strategy", strategy, "value", v)
	}
	if v, strategy, ok := r.earnings.Extract(doc); ok {
		label := utils.EarningsLabel(v)
		rt.Earnings = &label
		logger.Get().Debugw("extracted EPS", "symbol", symbol, "strategy", strategy, "value", v)
	}

	switch {
	case rt.PERatio != nil && rt.Earnings != nil:
		rt.ScrapingStatus = ScrapeSuccess
	case rt.PERatio != nil || rt.Earnings != nil:
		rt.ScrapingStatus = ScrapePartial
	default:
		rt.ScrapingStatus = ScrapeNoMatch
	}

	r.cache.SetWithTTL(cacheKey, rt, r.ttl)
	return RatioResult{Ratios: rt}
}

// fetchPage downloads and parses the quote page for symbol.
func (r *RatioAdapter) fetchPage(ctx context.Context, symbol string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := fmt.Sprintf("%s/finance/quote/%s", r.baseURL, utils.GoogleTicker(symbol))
	body, err := doGet(ctx, r.client, u, map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	})
	if err != nil {
		return nil, fmt.Errorf("google finance %s: %w", symbol, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse google finance HTML: %w", err)
	}
	return doc, nil
}

// degrade builds the placeholder ratios for a failed fetch.
func (r *RatioAdapter) degrade(symbol string, err error) RatioResult {
	kind := classify(err)
	logger.Get().Warnw("ratio fetch degraded", "symbol", symbol, "kind", kind.String(), "error", err)

	rt := models.Ratios{
		Symbol:         symbol,
		Timestamp:      time.Now().UnixMilli(),
		IsMockData:     true,
		Source:         mockRatioSource,
		ScrapingStatus: ScrapeFailed,
		ErrorDetails:   err.Error(),
	}

	if kind == FailureTransport {
		rt.Error = "Scraping failed: " + transportReason(err)
		return RatioResult{Ratios: rt, Failure: kind, Warning: rt.Error}
	}

	pe := round2(between(r.synth, 10, 40))
	label := utils.EarningsLabel(between(r.synth, 10, 110))
	rt.PERatio = &pe
	rt.Earnings = &label
	rt.Error = "Google Finance scraping failed"
	return RatioResult{Ratios: rt, Failure: kind, Warning: RatioSyntheticWarning}
}
