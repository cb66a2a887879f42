// Package portfolio turns holdings and fetched market fields into a
// computed portfolio snapshot. All functions are pure apart from the
// snapshot timestamp.
package portfolio

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/nsefolio/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Aggregate computes the snapshot for holdings. live supplies the fetched
// fields per (symbol, exchange); a holding without a usable price is
// valued at its purchase price.
func Aggregate(holdings []models.Holding, live map[models.QuoteKey]models.LiveFields) *models.Snapshot {
	snap := &models.Snapshot{
		Stocks:      make([]models.Stock, 0, len(holdings)),
		Sectors:     []models.SectorSummary{},
		LastUpdated: time.Now(),
	}

	investments := make([]decimal.Decimal, len(holdings))
	totalInv := decimal.Zero
	totalPV := decimal.Zero

	for i, h := range holdings {
		lf := live[h.Key()]
		qty := decimal.NewFromInt(h.Quantity)
		inv := decimal.NewFromFloat(h.PurchasePrice).Mul(qty)

		cmp := h.PurchasePrice
		if usablePrice(lf.CurrentPrice) {
			cmp = lf.CurrentPrice
		}
		pv := decimal.NewFromFloat(cmp).Mul(qty)

		investments[i] = inv
		totalInv = totalInv.Add(inv)
		totalPV = totalPV.Add(pv)

		snap.Stocks = append(snap.Stocks, models.Stock{
			Holding:         h,
			Investment:      inv.InexactFloat64(),
			CurrentPrice:    cmp,
			PresentValue:    pv.InexactFloat64(),
			GainLoss:        pv.Sub(inv).InexactFloat64(),
			PERatio:         lf.PERatio,
			LatestEarnings:  lf.LatestEarnings,
			PriceEstimated:  lf.PriceSynthetic || !usablePrice(lf.CurrentPrice),
			RatiosEstimated: lf.RatiosSynthetic,
		})
	}

	if totalInv.IsPositive() {
		for i := range snap.Stocks {
			snap.Stocks[i].PortfolioPercentage = investments[i].Div(totalInv).Mul(hundred).InexactFloat64()
		}
	}

	snap.Sectors = groupBySector(snap.Stocks)
	snap.TotalInvestment = totalInv.InexactFloat64()
	snap.TotalPresentValue = totalPV.InexactFloat64()
	snap.TotalGainLoss = totalPV.Sub(totalInv).InexactFloat64()
	return snap
}

// PriceUpdate is one fetched price for the periodic refresh.
type PriceUpdate struct {
	Price     float64
	Synthetic bool
}

// Reprice recomputes prev with new prices, leaving P/E and earnings as they
// were. Holdings missing from prices, or whose new price is unusable, keep
// their previous price.
func Reprice(prev *models.Snapshot, prices map[models.QuoteKey]PriceUpdate) *models.Snapshot {
	live := prev.Live()
	for key, u := range prices {
		lf, ok := live[key]
		if !ok || !usablePrice(u.Price) {
			continue
		}
		lf.CurrentPrice = u.Price
		lf.PriceSynthetic = u.Synthetic
		live[key] = lf
	}
	return Aggregate(prev.Holdings(), live)
}

// groupBySector rolls stocks up by sector label in first-seen order.
func groupBySector(stocks []models.Stock) []models.SectorSummary {
	type acc struct {
		inv, pv, gl decimal.Decimal
		stocks      []models.Stock
	}
	var order []string
	bySector := make(map[string]*acc)

	for _, s := range stocks {
		a, ok := bySector[s.Sector]
		if !ok {
			a = &acc{inv: decimal.Zero, pv: decimal.Zero, gl: decimal.Zero}
			bySector[s.Sector] = a
			order = append(order, s.Sector)
		}
		a.inv = a.inv.Add(decimal.NewFromFloat(s.Investment))
		a.pv = a.pv.Add(decimal.NewFromFloat(s.PresentValue))
		a.gl = a.gl.Add(decimal.NewFromFloat(s.GainLoss))
		a.stocks = append(a.stocks, s)
	}

	out := make([]models.SectorSummary, 0, len(order))
	for _, name := range order {
		a := bySector[name]
		out = append(out, models.SectorSummary{
			Sector:            name,
			TotalInvestment:   a.inv.InexactFloat64(),
			TotalPresentValue: a.pv.InexactFloat64(),
			TotalGainLoss:     a.gl.InexactFloat64(),
			Stocks:            a.stocks,
		})
	}
	return out
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
