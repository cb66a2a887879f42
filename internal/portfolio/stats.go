package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/seenimoa/nsefolio/pkg/models"
)

// Stats summarizes a snapshot: totals, return percentage and how many
// stocks are up, down or flat.
func Stats(snap *models.Snapshot) models.PortfolioStats {
	st := models.PortfolioStats{}
	if snap == nil {
		return st
	}

	totalInv := decimal.Zero
	totalPV := decimal.Zero
	for _, s := range snap.Stocks {
		totalInv = totalInv.Add(decimal.NewFromFloat(s.Investment))
		totalPV = totalPV.Add(decimal.NewFromFloat(s.PresentValue))
		switch {
		case s.GainLoss > 0:
			st.Gainers++
		case s.GainLoss < 0:
			st.Losers++
		default:
			st.Unchanged++
		}
	}

	gl := totalPV.Sub(totalInv)
	st.TotalStocks = len(snap.Stocks)
	st.TotalInvestment = totalInv.InexactFloat64()
	st.TotalPresentValue = totalPV.InexactFloat64()
	st.TotalGainLoss = gl.InexactFloat64()
	if totalInv.IsPositive() {
		st.TotalReturnPercent = gl.Div(totalInv).Mul(hundred).Round(4).InexactFloat64()
	}
	return st
}
