package utils

import (
	"testing"
	"time"
)

func TestNowIST(t *testing.T) {
	now := NowIST()
	if now.Location().String() != "Asia/Kolkata" && now.Location().String() != "IST" {
		t.Errorf("NowIST() location = %s, want Asia/Kolkata or IST", now.Location().String())
	}
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"weekday open", time.Date(2026, 2, 18, 10, 0, 0, 0, IST), "OPEN"},
		{"pre-market", time.Date(2026, 2, 18, 8, 0, 0, 0, IST), "PRE-MARKET"},
		{"pre-open", time.Date(2026, 2, 18, 9, 5, 0, 0, IST), "PRE-OPEN SESSION"},
		{"closing bell", time.Date(2026, 2, 18, 15, 30, 0, 0, IST), "OPEN"},
		{"after hours", time.Date(2026, 2, 18, 16, 0, 0, 0, IST), "CLOSED"},
		{"saturday", time.Date(2026, 2, 21, 10, 0, 0, 0, IST), "CLOSED (Weekend)"},
		{"holiday", time.Date(2026, 1, 26, 10, 0, 0, 0, IST), "CLOSED (Republic Day)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarketStatusAt(tt.at); got != tt.want {
				t.Errorf("MarketStatusAt(%v) = %q, want %q", tt.at, got, tt.want)
			}
		})
	}
}

func TestTradingHoliday(t *testing.T) {
	name, ok := TradingHoliday(time.Date(2026, 1, 26, 10, 0, 0, 0, IST))
	if !ok || name == "" {
		t.Errorf("Expected Republic Day to be a named trading holiday, got %q, %v", name, ok)
	}
	if _, ok := TradingHoliday(time.Date(2026, 2, 18, 10, 0, 0, 0, IST)); ok {
		t.Error("Expected Feb 18 to NOT be a trading holiday")
	}
}

func TestFormatDateTimeIST(t *testing.T) {
	utc := time.Date(2026, 2, 18, 4, 30, 0, 0, time.UTC)
	if got := FormatDateTimeIST(utc); got != "2026-02-18 10:00:00 IST" {
		t.Errorf("FormatDateTimeIST = %q", got)
	}
}
