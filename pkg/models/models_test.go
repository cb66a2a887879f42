package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// ── Exchange Tests ──

func TestParseExchange(t *testing.T) {
	tests := []struct {
		in      string
		want    Exchange
		wantErr bool
	}{
		{"NSE", ExchangeNSE, false},
		{"nse", ExchangeNSE, false},
		{"NS", ExchangeNSE, false},
		{"", ExchangeNSE, false},
		{"BSE", ExchangeBSE, false},
		{" bo ", ExchangeBSE, false},
		{"LSE", "", true},
	}
	for _, tt := range tests {
		got, err := ParseExchange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseExchange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseExchange(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	if got := ExchangeNSE.Code(); got != "NS" {
		t.Errorf("NSE code = %q, want NS", got)
	}
	if got := ExchangeBSE.Code(); got != "BO" {
		t.Errorf("BSE code = %q, want BO", got)
	}
	if Exchange("LSE").Valid() {
		t.Error("LSE should not be valid")
	}
}

// ── Holding Tests ──

func TestHoldingInvestment(t *testing.T) {
	h := Holding{PurchasePrice: 3200, Quantity: 10}
	if got := h.Investment(); got != 32000 {
		t.Errorf("Investment() = %v, want 32000", got)
	}
}

func TestHoldingPatchApply(t *testing.T) {
	h := Holding{ID: "1", Particulars: "Infosys", Sector: "Technology", PurchasePrice: 1400, Quantity: 15, Exchange: ExchangeNSE, Symbol: "INFY"}

	qty := int64(20)
	exch := ExchangeBSE
	got := HoldingPatch{Quantity: &qty, Exchange: &exch}.Apply(h)

	if got.Quantity != 20 || got.Exchange != ExchangeBSE {
		t.Errorf("patched fields not applied: %+v", got)
	}
	if got.ID != "1" || got.Symbol != "INFY" || got.PurchasePrice != 1400 {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if h.Quantity != 15 {
		t.Error("Apply mutated the original holding")
	}
}

// ── Snapshot Tests ──

func TestStockJSONFieldNames(t *testing.T) {
	pe := 29.4
	s := Stock{
		Holding:      Holding{ID: "1", Symbol: "TCS", Exchange: ExchangeNSE},
		CurrentPrice: 3300,
		PERatio:      &pe,
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal(Stock) error: %v", err)
	}
	body := string(data)
	for _, want := range []string{`"cmp":3300`, `"peRatio":29.4`, `"latestEarnings":null`, `"symbol":"TCS"`, `"exchange":"NSE"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Stock JSON missing %s: %s", want, body)
		}
	}
	if strings.Contains(body, "priceEstimated") {
		t.Errorf("priceEstimated should be omitted when false: %s", body)
	}
}

func TestSnapshotHoldingsAndLive(t *testing.T) {
	pe := 29.4
	snap := &Snapshot{
		Stocks: []Stock{
			{Holding: Holding{ID: "1", Symbol: "TCS", Exchange: ExchangeNSE}, CurrentPrice: 3300, PERatio: &pe},
			{Holding: Holding{ID: "2", Symbol: "INFY", Exchange: ExchangeBSE}, CurrentPrice: 1400, PriceEstimated: true},
		},
		LastUpdated: time.Now(),
	}

	holdings := snap.Holdings()
	if len(holdings) != 2 || holdings[0].ID != "1" || holdings[1].ID != "2" {
		t.Fatalf("Holdings() = %+v", holdings)
	}

	live := snap.Live()
	tcs := live[QuoteKey{Symbol: "TCS", Exchange: ExchangeNSE}]
	if tcs.CurrentPrice != 3300 || tcs.PERatio == nil || *tcs.PERatio != 29.4 {
		t.Errorf("TCS live fields = %+v", tcs)
	}
	infy := live[QuoteKey{Symbol: "INFY", Exchange: ExchangeBSE}]
	if !infy.PriceSynthetic {
		t.Error("INFY should carry the estimated price flag")
	}
}

func TestQuoteKeyString(t *testing.T) {
	if got := (QuoteKey{Symbol: "TCS", Exchange: ExchangeBSE}).String(); got != "TCS:BSE" {
		t.Errorf("String() = %q, want TCS:BSE", got)
	}
}

func TestQuoteAsOf(t *testing.T) {
	q := Quote{Timestamp: 1700000000000}
	if got := q.AsOf().UnixMilli(); got != 1700000000000 {
		t.Errorf("AsOf() = %d", got)
	}
}
