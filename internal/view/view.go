// Package view shapes published portfolio state for display: the sortable
// holdings table, the sector breakdown and the dashboard summary shared by
// the web UI and the terminal report.
package view

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/nsefolio/internal/portfolio"
	"github.com/seenimoa/nsefolio/internal/refresh"
	"github.com/seenimoa/nsefolio/pkg/models"
	"github.com/seenimoa/nsefolio/pkg/utils"
)

// SortKey names a table column.
type SortKey string

const (
	SortNone                SortKey = ""
	SortParticulars         SortKey = "particulars"
	SortSector              SortKey = "sector"
	SortSymbol              SortKey = "symbol"
	SortPurchasePrice       SortKey = "purchasePrice"
	SortQuantity            SortKey = "quantity"
	SortInvestment          SortKey = "investment"
	SortPortfolioPercentage SortKey = "portfolioPercentage"
	SortExchange            SortKey = "exchange"
	SortCMP                 SortKey = "cmp"
	SortPresentValue        SortKey = "presentValue"
	SortGainLoss            SortKey = "gainLoss"
	SortPERatio             SortKey = "peRatio"
	SortLatestEarnings      SortKey = "latestEarnings"
)

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var sortKeys = map[string]SortKey{}

func init() {
	for _, k := range []SortKey{
		SortParticulars, SortSector, SortSymbol, SortPurchasePrice, SortQuantity,
		SortInvestment, SortPortfolioPercentage, SortExchange, SortCMP,
		SortPresentValue, SortGainLoss, SortPERatio, SortLatestEarnings,
	} {
		sortKeys[strings.ToLower(string(k))] = k
	}
}

// ParseSort validates a column name and direction from user input. An empty
// key keeps insertion order; an empty direction is ascending.
func ParseSort(key, dir string) (SortKey, Direction, error) {
	var d Direction
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		d = Asc
	case "desc":
		d = Desc
	default:
		return SortNone, Asc, fmt.Errorf("unknown sort direction %q", dir)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return SortNone, d, nil
	}
	k, ok := sortKeys[strings.ToLower(key)]
	if !ok {
		return SortNone, d, fmt.Errorf("unknown sort column %q", key)
	}
	return k, d, nil
}

// Row is one table line: the stock plus its display strings.
type Row struct {
	models.Stock
	PurchasePriceText  string `json:"purchasePriceText"`
	InvestmentText     string `json:"investmentText"`
	PercentageText     string `json:"portfolioPercentageText"`
	CMPText            string `json:"cmpText"`
	PresentValueText   string `json:"presentValueText"`
	GainLossText       string `json:"gainLossText"`
	PERatioText        string `json:"peRatioText"`
	LatestEarningsText string `json:"latestEarningsText"`
	Gain               bool   `json:"gain"`
}

// Table returns the snapshot's stocks as rows sorted by key. Rows with no
// value for the key (a missing P/E or earnings) sort last in either
// direction. Ties keep insertion order.
func Table(snap *models.Snapshot, key SortKey, dir Direction) []Row {
	if snap == nil {
		return []Row{}
	}
	rows := make([]Row, len(snap.Stocks))
	for i, s := range snap.Stocks {
		rows[i] = newRow(s)
	}
	if key == SortNone {
		return rows
	}

	sort.SliceStable(rows, func(i, j int) bool {
		c, ok := compare(rows[i].Stock, rows[j].Stock, key)
		if !ok {
			return c < 0 // missing values stay last
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return rows
}

func newRow(s models.Stock) Row {
	r := Row{
		Stock:              s,
		PurchasePriceText:  utils.FormatINR(s.PurchasePrice),
		InvestmentText:     utils.FormatINR(s.Investment),
		PercentageText:     fmt.Sprintf("%.2f%%", s.PortfolioPercentage),
		CMPText:            utils.FormatINR(s.CurrentPrice),
		PresentValueText:   utils.FormatINR(s.PresentValue),
		GainLossText:       utils.FormatSignedINR(s.GainLoss),
		PERatioText:        "N/A",
		LatestEarningsText: "N/A",
		Gain:               s.GainLoss >= 0,
	}
	if s.PERatio != nil && *s.PERatio != 0 {
		r.PERatioText = fmt.Sprintf("%.2f", *s.PERatio)
	}
	if s.LatestEarnings != nil && *s.LatestEarnings != "" {
		r.LatestEarningsText = *s.LatestEarnings
	}
	return r
}

// compare orders a and b by key. When either side lacks a value ok is
// false and c places the missing one after the present one.
func compare(a, b models.Stock, key SortKey) (c int, ok bool) {
	switch key {
	case SortParticulars:
		return strings.Compare(strings.ToLower(a.Particulars), strings.ToLower(b.Particulars)), true
	case SortSector:
		return strings.Compare(strings.ToLower(a.Sector), strings.ToLower(b.Sector)), true
	case SortSymbol:
		return strings.Compare(a.Symbol, b.Symbol), true
	case SortExchange:
		return strings.Compare(string(a.Exchange), string(b.Exchange)), true
	case SortPurchasePrice:
		return cmpFloat(a.PurchasePrice, b.PurchasePrice), true
	case SortQuantity:
		return cmpFloat(float64(a.Quantity), float64(b.Quantity)), true
	case SortInvestment:
		return cmpFloat(a.Investment, b.Investment), true
	case SortPortfolioPercentage:
		return cmpFloat(a.PortfolioPercentage, b.PortfolioPercentage), true
	case SortCMP:
		return cmpFloat(a.CurrentPrice, b.CurrentPrice), true
	case SortPresentValue:
		return cmpFloat(a.PresentValue, b.PresentValue), true
	case SortGainLoss:
		return cmpFloat(a.GainLoss, b.GainLoss), true
	case SortPERatio:
		if a.PERatio == nil || b.PERatio == nil {
			return missingLast(a.PERatio == nil, b.PERatio == nil), false
		}
		return cmpFloat(*a.PERatio, *b.PERatio), true
	case SortLatestEarnings:
		ea, eb := earningsValue(a.LatestEarnings), earningsValue(b.LatestEarnings)
		if math.IsNaN(ea) || math.IsNaN(eb) {
			return missingLast(math.IsNaN(ea), math.IsNaN(eb)), false
		}
		return cmpFloat(ea, eb), true
	}
	return 0, true
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func missingLast(aMissing, bMissing bool) int {
	switch {
	case aMissing && !bMissing:
		return 1
	case !aMissing && bMissing:
		return -1
	}
	return 0
}

// earningsValue extracts the amount from a label like "₹1,234.50 (TTM)".
// NaN means no usable value.
func earningsValue(label *string) float64 {
	if label == nil {
		return math.NaN()
	}
	var b strings.Builder
	for _, r := range *label {
		if r == '(' {
			break
		}
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	var v float64
	if _, err := fmt.Sscan(b.String(), &v); err != nil {
		return math.NaN()
	}
	return v
}

// Sector is one sector card.
type Sector struct {
	models.SectorSummary
	GainLossPercent float64 `json:"gainLossPercent"`
	StockCount      int     `json:"stockCount"`
}

// Sectors returns the sector breakdown sorted by present value, largest
// first.
func Sectors(snap *models.Snapshot) []Sector {
	if snap == nil {
		return []Sector{}
	}
	out := make([]Sector, len(snap.Sectors))
	for i, s := range snap.Sectors {
		out[i] = Sector{SectorSummary: s, StockCount: len(s.Stocks)}
		if s.TotalInvestment != 0 {
			out[i].GainLossPercent = s.TotalGainLoss / s.TotalInvestment * 100
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPresentValue > out[j].TotalPresentValue
	})
	return out
}

// Dashboard is everything the dashboard header and body show.
type Dashboard struct {
	State        refresh.State         `json:"state"`
	Fetching     bool                  `json:"fetching"`
	Warnings     []string              `json:"warnings"`
	Error        string                `json:"error,omitempty"`
	Stats        models.PortfolioStats `json:"stats"`
	LastUpdated  *time.Time            `json:"lastUpdated,omitempty"`
	MarketStatus string                `json:"marketStatus"`
	Rows         []Row                 `json:"rows"`
	Sectors      []Sector              `json:"sectors"`
}

// Build assembles the dashboard for a published update.
func Build(u refresh.Update, key SortKey, dir Direction) Dashboard {
	d := Dashboard{
		State:        u.State,
		Fetching:     u.Fetching,
		Warnings:     u.Warnings,
		Error:        u.Error,
		Stats:        portfolio.Stats(u.Snapshot),
		MarketStatus: utils.MarketStatus(),
		Rows:         Table(u.Snapshot, key, dir),
		Sectors:      Sectors(u.Snapshot),
	}
	if d.Warnings == nil {
		d.Warnings = []string{}
	}
	if u.Snapshot != nil && !u.Snapshot.LastUpdated.IsZero() {
		t := u.Snapshot.LastUpdated
		d.LastUpdated = &t
	}
	return d
}
