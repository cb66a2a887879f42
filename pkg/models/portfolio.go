package models

import "time"

// Holding is a user-entered position in one (symbol, exchange) pair.
// It is the only persisted portfolio record; everything else is derived.
type Holding struct {
	ID            string   `json:"id"`
	Particulars   string   `json:"particulars"` // display name, e.g., "Tata Consultancy Services"
	Sector        string   `json:"sector"`
	PurchasePrice float64  `json:"purchasePrice"`
	Quantity      int64    `json:"quantity"`
	Exchange      Exchange `json:"exchange"`
	Symbol        string   `json:"symbol"` // e.g., "TCS"
}

// Key returns the (symbol, exchange) identity of the holding.
func (h Holding) Key() QuoteKey {
	return QuoteKey{Symbol: h.Symbol, Exchange: h.Exchange}
}

// Investment returns the cost basis: purchase price × quantity.
func (h Holding) Investment() float64 {
	return h.PurchasePrice * float64(h.Quantity)
}

// HoldingInput is the payload for adding a holding.
type HoldingInput struct {
	Particulars   string   `json:"particulars"   validate:"required,max=120"`
	Sector        string   `json:"sector"        validate:"required,max=60"`
	PurchasePrice float64  `json:"purchasePrice" validate:"gt=0"`
	Quantity      int64    `json:"quantity"      validate:"gt=0"`
	Exchange      Exchange `json:"exchange"      validate:"required,exchange"`
	Symbol        string   `json:"symbol"        validate:"required,max=20"`
}

// HoldingPatch carries the fields of an update; nil fields are left unchanged.
type HoldingPatch struct {
	Particulars   *string   `json:"particulars,omitempty"   validate:"omitempty,min=1,max=120"`
	Sector        *string   `json:"sector,omitempty"        validate:"omitempty,min=1,max=60"`
	PurchasePrice *float64  `json:"purchasePrice,omitempty" validate:"omitempty,gt=0"`
	Quantity      *int64    `json:"quantity,omitempty"      validate:"omitempty,gt=0"`
	Exchange      *Exchange `json:"exchange,omitempty"      validate:"omitempty,exchange"`
	Symbol        *string   `json:"symbol,omitempty"        validate:"omitempty,min=1,max=20"`
}

// Apply returns a copy of h with the non-nil patch fields merged in.
func (p HoldingPatch) Apply(h Holding) Holding {
	if p.Particulars != nil {
		h.Particulars = *p.Particulars
	}
	if p.Sector != nil {
		h.Sector = *p.Sector
	}
	if p.PurchasePrice != nil {
		h.PurchasePrice = *p.PurchasePrice
	}
	if p.Quantity != nil {
		h.Quantity = *p.Quantity
	}
	if p.Exchange != nil {
		h.Exchange = *p.Exchange
	}
	if p.Symbol != nil {
		h.Symbol = *p.Symbol
	}
	return h
}

// LiveFields are the market fields fetched for one holding during a cycle.
// A zero CurrentPrice means no usable price was obtained.
type LiveFields struct {
	CurrentPrice    float64
	PERatio         *float64
	LatestEarnings  *string
	PriceSynthetic  bool
	RatiosSynthetic bool
}

// Stock is a holding enriched with the latest fetched and computed fields.
type Stock struct {
	Holding
	Investment          float64  `json:"investment"`
	PortfolioPercentage float64  `json:"portfolioPercentage"`
	CurrentPrice        float64  `json:"cmp"`
	PresentValue        float64  `json:"presentValue"`
	GainLoss            float64  `json:"gainLoss"`
	PERatio             *float64 `json:"peRatio"`
	LatestEarnings      *string  `json:"latestEarnings"`
	PriceEstimated      bool     `json:"priceEstimated,omitempty"`
	RatiosEstimated     bool     `json:"ratiosEstimated,omitempty"`
}

// SectorSummary rolls up the stocks sharing one sector label.
type SectorSummary struct {
	Sector            string  `json:"sector"`
	TotalInvestment   float64 `json:"totalInvestment"`
	TotalPresentValue float64 `json:"totalPresentValue"`
	TotalGainLoss     float64 `json:"totalGainLoss"`
	Stocks            []Stock `json:"stocks"`
}

// Snapshot is the complete computed view of the portfolio at one point in time.
type Snapshot struct {
	Stocks            []Stock         `json:"stocks"`
	Sectors           []SectorSummary `json:"sectors"`
	TotalInvestment   float64         `json:"totalInvestment"`
	TotalPresentValue float64         `json:"totalPresentValue"`
	TotalGainLoss     float64         `json:"totalGainLoss"`
	LastUpdated       time.Time       `json:"lastUpdated"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// Holdings returns the underlying holdings of the snapshot in order.
func (s *Snapshot) Holdings() []Holding {
	out := make([]Holding, len(s.Stocks))
	for i, st := range s.Stocks {
		out[i] = st.Holding
	}
	return out
}

// Live reconstructs the live fields used to compute the snapshot.
func (s *Snapshot) Live() map[QuoteKey]LiveFields {
	out := make(map[QuoteKey]LiveFields, len(s.Stocks))
	for _, st := range s.Stocks {
		out[st.Key()] = LiveFields{
			CurrentPrice:    st.CurrentPrice,
			PERatio:         st.PERatio,
			LatestEarnings:  st.LatestEarnings,
			PriceSynthetic:  st.PriceEstimated,
			RatiosSynthetic: st.RatiosEstimated,
		}
	}
	return out
}

// PortfolioStats summarizes a snapshot for the dashboard header.
type PortfolioStats struct {
	TotalStocks        int     `json:"totalStocks"`
	TotalInvestment    float64 `json:"totalInvestment"`
	TotalPresentValue  float64 `json:"totalPresentValue"`
	TotalGainLoss      float64 `json:"totalGainLoss"`
	TotalReturnPercent float64 `json:"totalReturnPercent"`
	Gainers            int     `json:"gainers"`
	Losers             int     `json:"losers"`
	Unchanged          int     `json:"unchanged"`
}
