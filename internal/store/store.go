// Package store persists the user's holdings.
//
// The full holdings list is stored as one JSON array under a fixed key.
// Every mutation reads the list, applies the change, writes it back and
// flushes the shared provider cache before returning.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seenimoa/nsefolio/internal/apperr"
	"github.com/seenimoa/nsefolio/internal/logger"
	"github.com/seenimoa/nsefolio/internal/validator"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

// StorageKey is the key the holdings list is persisted under.
const StorageKey = "portfolio_stocks"

// Flusher is implemented by the provider response cache.
type Flusher interface {
	Flush()
}

// Store holds the portfolio's holdings.
type Store struct {
	mu      sync.Mutex
	backend Backend
	cache   Flusher
	newID   func() string
}

// New creates a store over backend. cache may be nil.
func New(backend Backend, cache Flusher) *Store {
	return &Store{
		backend: backend,
		cache:   cache,
		newID:   newID,
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SampleHoldings returns the portfolio shown when nothing has been saved yet.
func SampleHoldings() []models.Holding {
	return []models.Holding{
		{ID: "1", Particulars: "Tata Consultancy Services", Sector: "Technology", PurchasePrice: 3200, Quantity: 10, Exchange: models.ExchangeNSE, Symbol: "TCS"},
		{ID: "2", Particulars: "Infosys Limited", Sector: "Technology", PurchasePrice: 1400, Quantity: 15, Exchange: models.ExchangeNSE, Symbol: "INFY"},
		{ID: "3", Particulars: "HDFC Bank Limited", Sector: "Financials", PurchasePrice: 1600, Quantity: 12, Exchange: models.ExchangeNSE, Symbol: "HDFCBANK"},
	}
}

// List returns the holdings in insertion order. A backend read failure is
// returned as apperr.ErrStructural.
func (s *Store) List(ctx context.Context) ([]models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add validates in and appends a new holding with a fresh id.
func (s *Store) Add(ctx context.Context, in models.HoldingInput) (models.Holding, error) {
	in.Symbol = utils.NormalizeSymbol(in.Symbol)
	in.Particulars = strings.TrimSpace(in.Particulars)
	in.Sector = strings.TrimSpace(in.Sector)
	if err := validator.Struct(in); err != nil {
		return models.Holding{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.load(ctx)
	if err != nil {
		return models.Holding{}, err
	}

	h := models.Holding{
		ID:            s.newID(),
		Particulars:   in.Particulars,
		Sector:        in.Sector,
		PurchasePrice: in.PurchasePrice,
		Quantity:      in.Quantity,
		Exchange:      in.Exchange,
		Symbol:        in.Symbol,
	}
	if dup := indexOfKey(holdings, h.Key(), ""); dup >= 0 {
		return models.Holding{}, duplicate(h)
	}

	if err := s.save(ctx, append(holdings, h)); err != nil {
		return models.Holding{}, err
	}
	return h, nil
}

// Remove deletes the holding with id. Removing an unknown id is a no-op and
// reports false.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	kept := holdings[:0]
	for _, h := range holdings {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	removed := len(kept) != len(holdings)

	if err := s.save(ctx, kept); err != nil {
		return false, err
	}
	return removed, nil
}

// Update merges patch into the holding with id. It fails with
// apperr.ErrNotFound for an unknown id and apperr.ErrDuplicateHolding when
// the change would collide with another holding's (symbol, exchange).
func (s *Store) Update(ctx context.Context, id string, patch models.HoldingPatch) (models.Holding, error) {
	if err := validator.Struct(patch); err != nil {
		return models.Holding{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	holdings, err := s.load(ctx)
	if err != nil {
		return models.Holding{}, err
	}

	idx := -1
	for i, h := range holdings {
		if h.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Holding{}, apperr.WithMessage(apperr.ErrNotFound, "Stock not found in portfolio")
	}

	updated := patch.Apply(holdings[idx])
	updated.Symbol = utils.NormalizeSymbol(updated.Symbol)
	updated.Particulars = strings.TrimSpace(updated.Particulars)
	updated.Sector = strings.TrimSpace(updated.Sector)
	if err := validator.Struct(inputOf(updated)); err != nil {
		return models.Holding{}, err
	}
	if dup := indexOfKey(holdings, updated.Key(), id); dup >= 0 {
		return models.Holding{}, duplicate(updated)
	}

	holdings[idx] = updated
	if err := s.save(ctx, holdings); err != nil {
		return models.Holding{}, err
	}
	return updated, nil
}

// Clear removes every holding.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []models.Holding{})
}

// load reads the persisted list. Must be called with mu held.
func (s *Store) load(ctx context.Context) ([]models.Holding, error) {
	raw, found, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStructural, err)
	}
	if !found {
		return SampleHoldings(), nil
	}

	var holdings []models.Holding
	if err := json.Unmarshal(raw, &holdings); err != nil || holdings == nil {
		logger.Get().Warnw("stored holdings unreadable, using sample portfolio", "key", StorageKey, "error", err)
		return SampleHoldings(), nil
	}
	return holdings, nil
}

// save persists the list and flushes the provider cache. Must be called
// with mu held.
func (s *Store) save(ctx context.Context, holdings []models.Holding) error {
	raw, err := json.Marshal(holdings)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, fmt.Errorf("encode holdings: %w", err))
	}
	if err := s.backend.Put(ctx, StorageKey, raw); err != nil {
		return apperr.Wrap(apperr.ErrInternal, err)
	}
	if s.cache != nil {
		s.cache.Flush()
	}
	return nil
}

// inputOf returns the fields of h that Add validates.
func inputOf(h models.Holding) models.HoldingInput {
	return models.HoldingInput{
		Particulars:   h.Particulars,
		Sector:        h.Sector,
		PurchasePrice: h.PurchasePrice,
		Quantity:      h.Quantity,
		Exchange:      h.Exchange,
		Symbol:        h.Symbol,
	}
}

// indexOfKey returns the index of the holding with key, ignoring skipID.
func indexOfKey(holdings []models.Holding, key models.QuoteKey, skipID string) int {
	for i, h := range holdings {
		if h.ID != skipID && h.Key() == key {
			return i
		}
	}
	return -1
}

func duplicate(h models.Holding) error {
	return apperr.WithMessage(apperr.ErrDuplicateHolding,
		"%s is already in your portfolio on %s", h.Symbol, h.Exchange)
}
