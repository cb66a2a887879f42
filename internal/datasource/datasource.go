// Package datasource fetches live market fields for holdings from two
// upstream sources: Yahoo Finance quotes (price) and Google Finance quote
// pages (P/E and EPS).
//
// Adapters never return errors. A failed fetch yields a result tagged as
// synthetic together with a human-readable warning, so callers can always
// render a number.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/seenimoa/nsefolio/internal/infra"
)

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// FailureKind classifies why a fetch degraded.
type FailureKind int

const (
	// FailureNone means the upstream answered with usable data.
	FailureNone FailureKind = iota
	// FailureTransport covers timeouts, refused connections and cancellation.
	// No response was received, so no values are available.
	FailureTransport
	// FailureUpstream covers non-2xx replies, malformed bodies and unknown
	// tickers. Plausible placeholder values are substituted.
	FailureUpstream
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureUpstream:
		return "upstream"
	default:
		return "none"
	}
}

// classify maps a fetch error onto a FailureKind.
func classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return FailureUpstream
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTransport
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return FailureTransport
	}
	return FailureUpstream
}

// transportReason shortens a transport error for display.
func transportReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}

// --- Synthetic values ---

// Synthesizer is the random source for placeholder values. Float64 returns
// a number in [0, 1).
type Synthesizer interface {
	Float64() float64
}

// lockedRand makes a math/rand generator safe for concurrent fetches.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSynthesizer returns a time-seeded Synthesizer.
func NewSynthesizer() Synthesizer {
	seed := uint64(time.Now().UnixNano())
	return &lockedRand{rnd: rand.New(rand.NewPCG(seed, seed>>1))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// between maps a [0, 1) draw onto [lo, hi).
func between(s Synthesizer, lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// --- Options ---

// Options configures an adapter. Zero values fall back to the defaults of
// the respective adapter.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	Client   *http.Client
	Synth    Synthesizer
	Limiter  *infra.RateLimiter
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{}
}

func (o Options) synth() Synthesizer {
	if o.Synth != nil {
		return o.Synth
	}
	return NewSynthesizer()
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
