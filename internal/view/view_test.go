package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsefolio/internal/portfolio"
	"github.com/seenimoa/nsefolio/internal/refresh"
	"github.com/seenimoa/nsefolio/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func fixture() *models.Snapshot {
	h := func(id, symbol, sector string, price float64, qty int64) models.Holding {
		return models.Holding{ID: id, Particulars: symbol + " Ltd", Sector: sector, PurchasePrice: price,
			Quantity: qty, Exchange: models.ExchangeNSE, Symbol: symbol}
	}
	holdings := []models.Holding{
		h("1", "TCS", "Technology", 3200, 10),
		h("2", "HDFCBANK", "Financials", 1600, 12),
		h("3", "INFY", "Technology", 1400, 15),
	}
	live := map[models.QuoteKey]models.LiveFields{
		holdings[0].Key(): {CurrentPrice: 3300, PERatio: ptr(29.4), LatestEarnings: ptr("₹121.67 (TTM)")},
		holdings[1].Key(): {CurrentPrice: 1500},
		holdings[2].Key(): {CurrentPrice: 1450, PERatio: ptr(24.1), LatestEarnings: ptr("₹60.00 (TTM)")},
	}
	return portfolio.Aggregate(holdings, live)
}

func symbols(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Symbol
	}
	return out
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		key, dir string
		wantKey  SortKey
		wantDir  Direction
		wantErr  bool
	}{
		{"", "", SortNone, Asc, false},
		{"gainLoss", "desc", SortGainLoss, Desc, false},
		{"GAINLOSS", "DESC", SortGainLoss, Desc, false},
		{"cmp", "", SortCMP, Asc, false},
		{"bogus", "asc", SortNone, Asc, true},
		{"cmp", "sideways", SortNone, Asc, true},
	}
	for _, tt := range tests {
		k, d, err := ParseSort(tt.key, tt.dir)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.key, tt.dir)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.wantKey, k)
		assert.Equal(t, tt.wantDir, d)
	}
}

func TestTableSorting(t *testing.T) {
	snap := fixture()

	assert.Equal(t, []string{"TCS", "HDFCBANK", "INFY"}, symbols(Table(snap, SortNone, Asc)))
	assert.Equal(t, []string{"HDFCBANK", "INFY", "TCS"}, symbols(Table(snap, SortGainLoss, Asc)))
	assert.Equal(t, []string{"TCS", "INFY", "HDFCBANK"}, symbols(Table(snap, SortGainLoss, Desc)))
	assert.Equal(t, []string{"HDFCBANK", "INFY", "TCS"}, symbols(Table(snap, SortParticulars, Asc)))
	assert.Equal(t, []string{"TCS", "INFY", "HDFCBANK"}, symbols(Table(snap, SortInvestment, Desc)))
}

func TestTableMissingValuesSortLast(t *testing.T) {
	snap := fixture()

	assert.Equal(t, []string{"INFY", "TCS", "HDFCBANK"}, symbols(Table(snap, SortPERatio, Asc)))
	assert.Equal(t, []string{"TCS", "INFY", "HDFCBANK"}, symbols(Table(snap, SortPERatio, Desc)))
	assert.Equal(t, []string{"TCS", "INFY", "HDFCBANK"}, symbols(Table(snap, SortLatestEarnings, Desc)))
}

func TestTableDisplayText(t *testing.T) {
	rows := Table(fixture(), SortNone, Asc)

	tcs := rows[0]
	assert.Equal(t, "₹32,000.00", tcs.InvestmentText)
	assert.Equal(t, "+₹1,000.00", tcs.GainLossText)
	assert.Equal(t, "29.40", tcs.PERatioText)
	assert.True(t, tcs.Gain)

	hdfc := rows[1]
	assert.Equal(t, "N/A", hdfc.PERatioText)
	assert.Equal(t, "N/A", hdfc.LatestEarningsText)
	assert.Equal(t, "-₹1,200.00", hdfc.GainLossText)
	assert.False(t, hdfc.Gain)
}

func TestTableNilSnapshot(t *testing.T) {
	assert.Empty(t, Table(nil, SortCMP, Asc))
	assert.Empty(t, Sectors(nil))
}

func TestSectorsSortedByPresentValue(t *testing.T) {
	sectors := Sectors(fixture())
	require.Len(t, sectors, 2)

	assert.Equal(t, "Technology", sectors[0].Sector)
	assert.Equal(t, 2, sectors[0].StockCount)
	assert.Equal(t, 54750.0, sectors[0].TotalPresentValue)
	assert.InDelta(t, 1750.0/53000.0*100, sectors[0].GainLossPercent, 1e-9)

	assert.Equal(t, "Financials", sectors[1].Sector)
	assert.InDelta(t, -6.25, sectors[1].GainLossPercent, 1e-9)
}

func TestBuildDashboard(t *testing.T) {
	snap := fixture()
	d := Build(refresh.Update{State: refresh.StateSuccess, Snapshot: snap}, SortCMP, Desc)

	assert.Equal(t, refresh.StateSuccess, d.State)
	assert.NotNil(t, d.Warnings)
	assert.Equal(t, 3, d.Stats.TotalStocks)
	assert.Equal(t, 2, d.Stats.Gainers)
	assert.Equal(t, 1, d.Stats.Losers)
	assert.Equal(t, "TCS", d.Rows[0].Symbol)
	require.NotNil(t, d.LastUpdated)

	empty := Build(refresh.Update{State: refresh.StateEmpty}, SortNone, Asc)
	assert.Empty(t, empty.Rows)
	assert.Nil(t, empty.LastUpdated)
	assert.Zero(t, empty.Stats.TotalStocks)
}

func TestMarkdown(t *testing.T) {
	d := Build(refresh.Update{
		State:    refresh.StateSuccess,
		Snapshot: fixture(),
		Warnings: []string{"HDFCBANK: Scraping failed: timeout"},
	}, SortNone, Asc)

	md := Markdown(d)
	assert.Contains(t, md, "## Holdings")
	assert.Contains(t, md, "| TCS Ltd (TCS) | NSE | 10 |")
	assert.Contains(t, md, "## Sectors")
	assert.Contains(t, md, "- HDFCBANK: Scraping failed: timeout")
	assert.Less(t, strings.Index(md, "| Technology |"), strings.Index(md, "| Financials |"))

	empty := Markdown(Build(refresh.Update{State: refresh.StateEmpty}, SortNone, Asc))
	assert.Contains(t, empty, "No holdings yet")
}
