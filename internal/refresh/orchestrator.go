// Package refresh drives portfolio refresh cycles: the initial load,
// manual refreshes, the periodic price-only tick and the holding commands
// that trigger a recomputation. It owns the published snapshot and the
// user-facing warning and error state.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/nsefolio/internal/apperr"
	"github.com/seenimoa/nsefolio/internal/datasource"
	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/internal/portfolio"
	"github.com/seenimoa/nsefolio/pkg/models"
)

// State is the display state of the dashboard.
type State string

const (
	StateIdle           State = "idle"
	StateFetching       State = "fetching"
	StateSuccess        State = "success"
	StatePartialFailure State = "partial_failure" // every provider call in the cycle degraded
	StateEmpty          State = "empty"
	StateError          State = "error"
)

// DefaultInterval is the periodic price refresh interval.
const DefaultInterval = 15 * time.Second

// PriceFetcher fetches one quote. Implementations never fail; degradation
// is reported in the result.
type PriceFetcher interface {
	Fetch(ctx context.Context, symbol string, exchange models.Exchange) datasource.PriceResult
}

// RatioFetcher fetches P/E and earnings for one symbol.
type RatioFetcher interface {
	Fetch(ctx context.Context, symbol string) datasource.RatioResult
}

// HoldingStore is the persistence the orchestrator reads holdings from.
type HoldingStore interface {
	List(ctx context.Context) ([]models.Holding, error)
	Add(ctx context.Context, in models.HoldingInput) (models.Holding, error)
	Remove(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, patch models.HoldingPatch) (models.Holding, error)
	Clear(ctx context.Context) error
}

// Sweeper evicts expired provider responses. It runs once per tick.
type Sweeper interface {
	Cleanup()
}

// Update is the published dashboard state.
type Update struct {
	Seq      uint64           `json:"seq"`
	State    State            `json:"state"`
	Fetching bool             `json:"fetching"`
	Snapshot *models.Snapshot `json:"snapshot,omitempty"`
	Warnings []string         `json:"warnings"`
	Error    string           `json:"error,omitempty"`
}

// Orchestrator coordinates refresh cycles. Snapshots are immutable once
// published; readers get the current pointer.
type Orchestrator struct {
	store   HoldingStore
	prices  PriceFetcher
	ratios  RatioFetcher
	sweeper Sweeper

	// notifyMu serializes publication so observers see updates in order.
	// Lock order: notifyMu, then mu.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    State
	snapshot *models.Snapshot
	warnings []string
	fatal    error
	nextSeq  uint64 // last sequence number handed out
	lastSeq  uint64 // sequence number of the published state
	active   int    // cycles started and not yet finished

	group singleflight.Group

	observers map[int]func(Update)
	nextObs   int
}

// New creates an orchestrator in the Idle state.
func New(store HoldingStore, prices PriceFetcher, ratios RatioFetcher) *Orchestrator {
	return &Orchestrator{
		store:     store,
		prices:    prices,
		ratios:    ratios,
		state:     StateIdle,
		observers: make(map[int]func(Update)),
	}
}

// SetSweeper registers the cache cleaned up by Run on every tick.
func (o *Orchestrator) SetSweeper(s Sweeper) {
	o.sweeper = s
}

// Current returns the latest published state.
func (o *Orchestrator) Current() Update {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.currentLocked()
}

func (o *Orchestrator) currentLocked() Update {
	u := Update{
		Seq:      o.lastSeq,
		State:    o.state,
		Fetching: o.active > 0,
		Snapshot: o.snapshot,
		Warnings: append([]string{}, o.warnings...),
	}
	if o.fatal != nil {
		u.Error = errorMessage(o.fatal)
	}
	return u
}

// Subscribe registers fn to receive every published update. fn must not
// block or call methods that publish. After unsubscribe returns fn is
// never called again.
func (o *Orchestrator) Subscribe(fn func(Update)) (unsubscribe func()) {
	o.notifyMu.Lock()
	id := o.nextObs
	o.nextObs++
	o.observers[id] = fn
	o.notifyMu.Unlock()

	return func() {
		o.notifyMu.Lock()
		delete(o.observers, id)
		o.notifyMu.Unlock()
	}
}

// --- Full cycles ---

// Load runs the initial full cycle. Concurrent Load callers share one cycle.
func (o *Orchestrator) Load(ctx context.Context) (*models.Snapshot, error) {
	return o.sharedCycle(ctx, "load", false)
}

// Refresh runs a manual full cycle, clearing warnings before it starts.
// Concurrent Refresh callers share one cycle; a Refresh never joins a Load.
func (o *Orchestrator) Refresh(ctx context.Context) (*models.Snapshot, error) {
	return o.sharedCycle(ctx, "refresh", true)
}

func (o *Orchestrator) sharedCycle(ctx context.Context, key string, resetWarnings bool) (*models.Snapshot, error) {
	// The cycle outlives any single caller; provider timeouts bound it.
	ctx = context.WithoutCancel(ctx)
	v, err, _ := o.group.Do(key, func() (any, error) {
		return o.fullCycle(ctx, resetWarnings)
	})
	snap, _ := v.(*models.Snapshot)
	return snap, err
}

// fullCycle lists holdings, fetches both providers for each one and
// publishes the aggregated snapshot.
func (o *Orchestrator) fullCycle(ctx context.Context, resetWarnings bool) (*models.Snapshot, error) {
	seq := o.begin(func() {
		o.state = StateFetching
		o.fatal = nil
		if resetWarnings {
			o.warnings = nil
		}
	})

	holdings, err := o.store.List(ctx)
	if err != nil {
		logger.Get().Errorw("refresh cycle failed", "seq", seq, "error", err)
		o.finish(seq, true, func() {
			o.state = StateError
			o.snapshot = nil
			o.warnings = nil
			o.fatal = err
		})
		return nil, err
	}

	if len(holdings) == 0 {
		o.finish(seq, true, o.setEmptyLocked)
		return nil, nil
	}

	live, warnings, allDegraded := o.fetchAll(ctx, holdings)
	snap := portfolio.Aggregate(holdings, live)
	snap.Warnings = warnings

	o.finish(seq, true, func() {
		o.snapshot = snap
		o.warnings = warnings
		o.state = outcome(allDegraded)
	})
	logger.Get().Debugw("refresh cycle complete", "seq", seq, "holdings", len(holdings), "warnings", len(warnings))
	return snap, nil
}

// fetchAll queries both providers for every holding concurrently and waits
// for all of them. Warnings are ordered by holding, price before ratios.
func (o *Orchestrator) fetchAll(ctx context.Context, holdings []models.Holding) (map[models.QuoteKey]models.LiveFields, []string, bool) {
	prices := make([]datasource.PriceResult, len(holdings))
	ratios := make([]datasource.RatioResult, len(holdings))

	var g errgroup.Group
	for i, h := range holdings {
		g.Go(func() error {
			prices[i] = o.prices.Fetch(ctx, h.Symbol, h.Exchange)
			return nil // degradation is carried in the result
		})
		g.Go(func() error {
			ratios[i] = o.ratios.Fetch(ctx, h.Symbol)
			return nil
		})
	}
	_ = g.Wait()

	live := make(map[models.QuoteKey]models.LiveFields, len(holdings))
	var warnings []string
	allDegraded := true
	for i, h := range holdings {
		p, r := prices[i], ratios[i]
		warnings = appendWarning(warnings, h.Symbol, p.Warning)
		warnings = appendWarning(warnings, h.Symbol, r.Warning)
		if !p.Synthetic() || !r.Synthetic() {
			allDegraded = false
		}
		live[h.Key()] = models.LiveFields{
			CurrentPrice:    p.Quote.Price,
			PERatio:         r.Ratios.PERatio,
			LatestEarnings:  r.Ratios.Earnings,
			PriceSynthetic:  p.Synthetic(),
			RatiosSynthetic: r.Synthetic(),
		}
	}
	return live, dedupe(warnings), allDegraded
}

// --- Periodic tick ---

// Tick runs one price-only refresh of the current snapshot. It is dropped,
// returning false, when there is no snapshot or any cycle is in flight.
// Prices that fail to refresh keep their previous value.
func (o *Orchestrator) Tick(ctx context.Context) bool {
	var (
		prev *models.Snapshot
		seq  uint64
	)
	o.publish(func() bool {
		if o.active > 0 || o.snapshot == nil || len(o.snapshot.Stocks) == 0 {
			return false
		}
		prev = o.snapshot
		seq = o.startLocked()
		return true
	})
	if prev == nil {
		logger.Get().Debugw("refresh tick dropped")
		return false
	}

	holdings := prev.Holdings()
	results := make([]datasource.PriceResult, len(holdings))
	var g errgroup.Group
	for i, h := range holdings {
		g.Go(func() error {
			results[i] = o.prices.Fetch(ctx, h.Symbol, h.Exchange)
			return nil
		})
	}
	_ = g.Wait()

	updates := make(map[models.QuoteKey]portfolio.PriceUpdate, len(holdings))
	var warnings []string
	allDegraded := true
	for i, h := range holdings {
		r := results[i]
		warnings = appendWarning(warnings, h.Symbol, r.Warning)
		if !r.Synthetic() {
			allDegraded = false
		}
		updates[h.Key()] = portfolio.PriceUpdate{Price: r.Quote.Price, Synthetic: r.Synthetic()}
	}
	warnings = dedupe(warnings)

	next := portfolio.Reprice(prev, updates)
	next.Warnings = warnings
	o.finish(seq, true, func() {
		o.snapshot = next
		o.warnings = warnings
		o.state = outcome(allDegraded)
	})
	return true
}

// Run ticks every interval until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Get().Infow("periodic refresh started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Get().Infow("periodic refresh stopped")
			return
		case <-ticker.C:
			o.Tick(ctx)
			if o.sweeper != nil {
				o.sweeper.Cleanup()
			}
		}
	}
}

// --- Commands ---

// AddHolding stores a new holding and runs a full cycle.
func (o *Orchestrator) AddHolding(ctx context.Context, in models.HoldingInput) (models.Holding, error) {
	h, err := o.store.Add(ctx, in)
	if err != nil {
		return models.Holding{}, err
	}
	_, err = o.fullCycle(context.WithoutCancel(ctx), true)
	return h, err
}

// UpdateHolding applies patch and runs a full cycle.
func (o *Orchestrator) UpdateHolding(ctx context.Context, id string, patch models.HoldingPatch) (models.Holding, error) {
	h, err := o.store.Update(ctx, id, patch)
	if err != nil {
		return models.Holding{}, err
	}
	_, err = o.fullCycle(context.WithoutCancel(ctx), true)
	return h, err
}

// RemoveHolding deletes a holding. Removing an unknown id is a no-op.
// When a snapshot is published and no cycle is in flight the snapshot is
// recomputed from the data already fetched; otherwise a full cycle runs so
// the in-flight result, which may predate the removal, is superseded by
// one read after it. Removing the last holding leaves the Empty state.
func (o *Orchestrator) RemoveHolding(ctx context.Context, id string) error {
	removed, err := o.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	local := false
	o.publish(func() bool {
		if o.active > 0 || o.snapshot == nil {
			return false
		}
		local = true
		o.nextSeq++
		o.lastSeq = o.nextSeq
		o.warnings = nil
		o.fatal = nil

		var kept []models.Holding
		for _, h := range o.snapshot.Holdings() {
			if h.ID != id {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			o.setEmptyLocked()
			return true
		}
		o.snapshot = portfolio.Aggregate(kept, o.snapshot.Live())
		if o.state != StatePartialFailure {
			o.state = StateSuccess
		}
		return true
	})
	if local {
		return nil
	}
	_, err = o.fullCycle(context.WithoutCancel(ctx), true)
	return err
}

// ClearPortfolio removes every holding and enters the Empty state.
func (o *Orchestrator) ClearPortfolio(ctx context.Context) error {
	if err := o.store.Clear(ctx); err != nil {
		return err
	}
	o.publish(func() bool {
		o.nextSeq++
		o.lastSeq = o.nextSeq
		o.setEmptyLocked()
		return true
	})
	return nil
}

// DismissWarnings clears the warning list.
func (o *Orchestrator) DismissWarnings() {
	o.publish(func() bool {
		if len(o.warnings) == 0 {
			return false
		}
		o.warnings = nil
		if o.snapshot != nil {
			cp := *o.snapshot
			cp.Warnings = nil
			o.snapshot = &cp
		}
		return true
	})
}

// DismissError clears the fatal error.
func (o *Orchestrator) DismissError() {
	o.publish(func() bool {
		if o.fatal == nil {
			return false
		}
		o.fatal = nil
		if o.snapshot != nil {
			o.state = StateSuccess
		} else {
			o.state = StateIdle
		}
		return true
	})
}

// setEmptyLocked must be called with mu held.
func (o *Orchestrator) setEmptyLocked() {
	o.state = StateEmpty
	o.snapshot = nil
	o.warnings = nil
	o.fatal = nil
}

// --- Publication ---

// begin starts a cycle, applies its opening state and returns its
// sequence number.
func (o *Orchestrator) begin(apply func()) uint64 {
	var seq uint64
	o.publish(func() bool {
		seq = o.startLocked()
		apply()
		return true
	})
	return seq
}

// startLocked hands out the next sequence number and marks a cycle active.
// Must be called with mu held.
func (o *Orchestrator) startLocked() uint64 {
	o.nextSeq++
	o.active++
	return o.nextSeq
}

// finish applies the outcome of cycle seq unless a newer one has already
// published. started reports whether begin was called for seq.
func (o *Orchestrator) finish(seq uint64, started bool, apply func()) {
	o.publish(func() bool {
		if started {
			o.active--
		}
		if seq < o.lastSeq {
			logger.Get().Debugw("discarding stale refresh result", "seq", seq, "published", o.lastSeq)
			return started
		}
		o.lastSeq = seq
		apply()
		return true
	})
}

// publish runs mutate under the state lock and, when it reports a change,
// notifies observers with the resulting state.
func (o *Orchestrator) publish(mutate func() bool) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	changed := mutate()
	u := o.currentLocked()
	o.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range o.observers {
		fn(u)
	}
}

func outcome(allDegraded bool) State {
	if allDegraded {
		return StatePartialFailure
	}
	return StateSuccess
}

func appendWarning(warnings []string, symbol, msg string) []string {
	if msg == "" {
		return warnings
	}
	return append(warnings, symbol+": "+msg)
}

// dedupe removes exact duplicates, keeping first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// errorMessage returns the user-facing text for a fatal error.
func errorMessage(err error) string {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
