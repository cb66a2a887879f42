// Package models defines the core data structures shared by the nsefolio
// packages: holdings, live market fields, and computed portfolio snapshots.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Exchange is the listing venue of a holding.
type Exchange string

const (
	ExchangeNSE Exchange = "NSE" // primary market
	ExchangeBSE Exchange = "BSE" // secondary market
)

// Code returns the Yahoo Finance suffix code for the exchange ("NS" or "BO").
func (e Exchange) Code() string {
	if e == ExchangeBSE {
		return "BO"
	}
	return "NS"
}

// Valid reports whether e is one of the supported exchanges.
func (e Exchange) Valid() bool {
	return e == ExchangeNSE || e == ExchangeBSE
}

// ParseExchange accepts an exchange name ("NSE", "BSE") or a suffix code
// ("NS", "BO"). An empty string resolves to the primary market.
func ParseExchange(s string) (Exchange, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NSE", "NS":
		return ExchangeNSE, nil
	case "BSE", "BO":
		return ExchangeBSE, nil
	default:
		return "", fmt.Errorf("unknown exchange %q", s)
	}
}

// QuoteKey identifies one (symbol, exchange) pair.
type QuoteKey struct {
	Symbol   string
	Exchange Exchange
}

func (k QuoteKey) String() string {
	return k.Symbol + ":" + string(k.Exchange)
}

// Quote is a price quote as returned by the price endpoint.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Ticker        string   `json:"ticker"` // e.g., "TCS.NS"
	Name          string   `json:"name,omitempty"`
	Price         float64  `json:"price"`
	PreviousClose float64  `json:"previousClose"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	PERatio       *float64 `json:"peRatio"`
	MarketCap     *float64 `json:"marketCap"`
	DayRange      *string  `json:"dayRange"`
	Volume        int64    `json:"volume"`
	Timestamp     int64    `json:"timestamp"` // epoch ms
	IsMockData    bool     `json:"isMockData"`
	Source        string   `json:"source"`
	Error         string   `json:"error,omitempty"`
	ErrorDetails  string   `json:"errorDetails,omitempty"`
}

// AsOf returns the quote timestamp as a time.Time.
func (q *Quote) AsOf() time.Time {
	return time.UnixMilli(q.Timestamp)
}

// Ratios is the valuation data returned by the ratio endpoint.
type Ratios struct {
	Symbol         string   `json:"symbol"`
	PERatio        *float64 `json:"peRatio"`
	Earnings       *string  `json:"earnings"` // e.g., "₹45.67 (TTM)"
	Timestamp      int64    `json:"timestamp"`
	IsMockData     bool     `json:"isMockData"`
	Source         string   `json:"source"`
	ScrapingStatus string   `json:"scrapingStatus"`
	Error          string   `json:"error,omitempty"`
	ErrorDetails   string   `json:"errorDetails,omitempty"`
}
