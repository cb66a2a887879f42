package view

import (
	"fmt"
	"strings"

	"github.com/seenimoa/nsefolio/pkg/utils"
)

// Markdown renders the dashboard as a Markdown report for the terminal.
func Markdown(d Dashboard) string {
	var b strings.Builder

	b.WriteString("# Portfolio\n\n")
	if d.LastUpdated != nil {
		fmt.Fprintf(&b, "_Updated %s · Market %s_\n\n", utils.FormatDateTimeIST(*d.LastUpdated), d.MarketStatus)
	}
	if d.Error != "" {
		fmt.Fprintf(&b, "> **Error:** %s\n\n", d.Error)
	}
	if len(d.Rows) == 0 {
		b.WriteString("No holdings yet. Add one with `nsefolio holdings add`.\n")
		return b.String()
	}

	s := d.Stats
	b.WriteString("| Investment | Present Value | Gain/Loss | Return | Gainers | Losers |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d |\n\n",
		utils.FormatINR(s.TotalInvestment), utils.FormatINR(s.TotalPresentValue),
		utils.FormatSignedINR(s.TotalGainLoss), utils.FormatPct(s.TotalReturnPercent),
		s.Gainers, s.Losers)

	b.WriteString("## Holdings\n\n")
	b.WriteString("| Particulars | Exch | Qty | Purchase | Investment | % | CMP | Present Value | Gain/Loss | P/E | Earnings |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|---:|---|\n")
	for _, r := range d.Rows {
		cmp := r.CMPText
		if r.PriceEstimated {
			cmp += "*"
		}
		fmt.Fprintf(&b, "| %s (%s) | %s | %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			escape(r.Particulars), r.Symbol, r.Exchange, r.Quantity,
			r.PurchasePriceText, r.InvestmentText, r.PercentageText, cmp,
			r.PresentValueText, r.GainLossText, r.PERatioText, r.LatestEarningsText)
	}
	b.WriteString("\n")

	b.WriteString("## Sectors\n\n")
	b.WriteString("| Sector | Stocks | Investment | Present Value | Gain/Loss | Return |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, sec := range d.Sectors {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n",
			escape(sec.Sector), sec.StockCount,
			utils.FormatINR(sec.TotalInvestment), utils.FormatINR(sec.TotalPresentValue),
			utils.FormatSignedINR(sec.TotalGainLoss), utils.FormatPct(sec.GainLossPercent))
	}

	if len(d.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
