package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsefolio/pkg/models"
)

func holding(id, symbol, sector string, price float64, qty int64) models.Holding {
	return models.Holding{
		ID:            id,
		Particulars:   symbol + " Ltd",
		Sector:        sector,
		PurchasePrice: price,
		Quantity:      qty,
		Exchange:      models.ExchangeNSE,
		Symbol:        symbol,
	}
}

func key(symbol string) models.QuoteKey {
	return models.QuoteKey{Symbol: symbol, Exchange: models.ExchangeNSE}
}

func ptr[T any](v T) *T { return &v }

func sampleHoldings() []models.Holding {
	return []models.Holding{
		holding("1", "TCS", "Technology", 3200, 10),
		holding("2", "HDFCBANK", "Financials", 1600, 12),
		holding("3", "INFY", "Technology", 1400, 15),
		holding("4", "SUNPHARMA", "Healthcare", 1134.35, 7),
	}
}

func sampleLive() map[models.QuoteKey]models.LiveFields {
	return map[models.QuoteKey]models.LiveFields{
		key("TCS"):       {CurrentPrice: 3300, PERatio: ptr(29.4), LatestEarnings: ptr("₹121.67 (TTM)")},
		key("HDFCBANK"):  {CurrentPrice: 1550.25},
		key("INFY"):      {CurrentPrice: 1400},
		key("SUNPHARMA"): {CurrentPrice: 1201.8, PriceSynthetic: true},
	}
}

func TestAggregateSingleHoldingScenario(t *testing.T) {
	holdings := []models.Holding{holding("1", "TCS", "Technology", 3200, 10)}
	live := map[models.QuoteKey]models.LiveFields{key("TCS"): {CurrentPrice: 3300}}

	snap := Aggregate(holdings, live)

	require.Len(t, snap.Stocks, 1)
	s := snap.Stocks[0]
	assert.Equal(t, 32000.0, s.Investment)
	assert.Equal(t, 3300.0, s.CurrentPrice)
	assert.Equal(t, 33000.0, s.PresentValue)
	assert.Equal(t, 1000.0, s.GainLoss)
	assert.Nil(t, s.PERatio)
	assert.Nil(t, s.LatestEarnings)
	assert.Equal(t, 100.0, s.PortfolioPercentage)
	assert.Equal(t, 32000.0, snap.TotalInvestment)
	assert.Equal(t, 33000.0, snap.TotalPresentValue)
	assert.Equal(t, 1000.0, snap.TotalGainLoss)
}

func TestAggregateMissingPriceFallsBackToPurchasePrice(t *testing.T) {
	holdings := []models.Holding{
		holding("1", "TCS", "Technology", 3200, 10),
		holding("2", "INFY", "Technology", 1400, 15),
		holding("3", "WIPRO", "Technology", 250, 40),
	}
	live := map[models.QuoteKey]models.LiveFields{
		key("TCS"):  {CurrentPrice: 0, PriceSynthetic: true},
		key("INFY"): {CurrentPrice: math.NaN()},
	}

	snap := Aggregate(holdings, live)

	for _, s := range snap.Stocks {
		assert.Equal(t, s.PurchasePrice, s.CurrentPrice, s.Symbol)
		assert.Equal(t, 0.0, s.GainLoss, s.Symbol)
		assert.True(t, s.PriceEstimated, s.Symbol)
		assert.Nil(t, s.PERatio, s.Symbol)
	}
	assert.Equal(t, 0.0, snap.TotalGainLoss)
}

func TestAggregatePercentagesSumTo100(t *testing.T) {
	snap := Aggregate(sampleHoldings(), sampleLive())

	sum := 0.0
	for _, s := range snap.Stocks {
		sum += s.PortfolioPercentage
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestAggregateZeroInvestmentGuardsPercentages(t *testing.T) {
	holdings := []models.Holding{
		holding("1", "TCS", "Technology", 0, 10),
		holding("2", "INFY", "Technology", 0, 5),
	}

	snap := Aggregate(holdings, nil)

	for _, s := range snap.Stocks {
		assert.Equal(t, 0.0, s.PortfolioPercentage)
		assert.False(t, math.IsNaN(s.PortfolioPercentage))
	}
	assert.Equal(t, 0.0, snap.TotalInvestment)
}

func TestAggregateSectorTotalsMatchMembers(t *testing.T) {
	snap := Aggregate(sampleHoldings(), sampleLive())

	require.Len(t, snap.Sectors, 3)
	assert.Equal(t, []string{"Technology", "Financials", "Healthcare"},
		[]string{snap.Sectors[0].Sector, snap.Sectors[1].Sector, snap.Sectors[2].Sector},
		"sectors appear in first-seen order")

	var allInv, allPV, allGL float64
	for _, sec := range snap.Sectors {
		var inv, pv, gl float64
		for _, s := range sec.Stocks {
			assert.Equal(t, sec.Sector, s.Sector)
			inv += s.Investment
			pv += s.PresentValue
			gl += s.GainLoss
		}
		assert.InDelta(t, inv, sec.TotalInvestment, 1e-6, sec.Sector)
		assert.InDelta(t, pv, sec.TotalPresentValue, 1e-6, sec.Sector)
		assert.InDelta(t, gl, sec.TotalGainLoss, 1e-6, sec.Sector)
		allInv += sec.TotalInvestment
		allPV += sec.TotalPresentValue
		allGL += sec.TotalGainLoss
	}
	assert.InDelta(t, snap.TotalInvestment, allInv, 1e-6)
	assert.InDelta(t, snap.TotalPresentValue, allPV, 1e-6)
	assert.InDelta(t, snap.TotalGainLoss, allGL, 1e-6)
	assert.InDelta(t, snap.TotalPresentValue-snap.TotalInvestment, snap.TotalGainLoss, 1e-6)
}

func TestAggregateIsIdempotent(t *testing.T) {
	a := Aggregate(sampleHoldings(), sampleLive())
	b := Aggregate(sampleHoldings(), sampleLive())

	a.LastUpdated, b.LastUpdated = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestAggregatePreservesHoldingOrder(t *testing.T) {
	snap := Aggregate(sampleHoldings(), sampleLive())

	var ids []string
	for _, s := range snap.Stocks {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
}

func TestAggregateDecimalArithmetic(t *testing.T) {
	holdings := []models.Holding{holding("1", "ITC", "Consumer", 0.1, 3)}
	live := map[models.QuoteKey]models.LiveFields{key("ITC"): {CurrentPrice: 0.2}}

	snap := Aggregate(holdings, live)

	assert.Equal(t, 0.3, snap.Stocks[0].Investment)
	assert.Equal(t, 0.6, snap.Stocks[0].PresentValue)
	assert.Equal(t, 0.3, snap.Stocks[0].GainLoss)
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(nil, nil)

	assert.Empty(t, snap.Stocks)
	assert.Empty(t, snap.Sectors)
	assert.Equal(t, 0.0, snap.TotalInvestment)
}

func TestRepriceKeepsRatios(t *testing.T) {
	prev := Aggregate(sampleHoldings(), sampleLive())

	next := Reprice(prev, map[models.QuoteKey]PriceUpdate{
		key("TCS"):      {Price: 3400},
		key("HDFCBANK"): {Price: 0, Synthetic: true},
	})

	tcs := next.Stocks[0]
	assert.Equal(t, 3400.0, tcs.CurrentPrice)
	assert.Equal(t, 2000.0, tcs.GainLoss)
	require.NotNil(t, tcs.PERatio)
	assert.Equal(t, 29.4, *tcs.PERatio)
	require.NotNil(t, tcs.LatestEarnings)
	assert.Equal(t, "₹121.67 (TTM)", *tcs.LatestEarnings)

	assert.Equal(t, 1550.25, next.Stocks[1].CurrentPrice, "unusable price keeps the previous one")
	assert.Equal(t, 1400.0, next.Stocks[2].CurrentPrice, "holdings without an update are unchanged")
	assert.True(t, next.Stocks[3].PriceEstimated)
}

func TestStats(t *testing.T) {
	snap := Aggregate(sampleHoldings(), sampleLive())

	st := Stats(snap)

	assert.Equal(t, 4, st.TotalStocks)
	assert.Equal(t, 2, st.Gainers)
	assert.Equal(t, 1, st.Losers)
	assert.Equal(t, 1, st.Unchanged)
	assert.InDelta(t, snap.TotalGainLoss, st.TotalGainLoss, 1e-9)
	assert.InDelta(t, snap.TotalGainLoss/snap.TotalInvestment*100, st.TotalReturnPercent, 1e-3)
}

func TestStatsEmpty(t *testing.T) {
	assert.Equal(t, models.PortfolioStats{}, Stats(nil))
	st := Stats(Aggregate(nil, nil))
	assert.Equal(t, 0.0, st.TotalReturnPercent)
}
