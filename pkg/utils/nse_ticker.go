package utils

import (
	"strings"

	"github.com/seenimoa/nsefolio/pkg/models"
)

// Common NSE symbol aliases users type into the add-holding form.
var symbolAliases = map[string]string{
	"RIL":           "RELIANCE",
	"INFOSYS":       "INFY",
	"HDFC BANK":     "HDFCBANK",
	"ICICI BANK":    "ICICIBANK",
	"SBI":           "SBIN",
	"AIRTEL":        "BHARTIARTL",
	"BAJAJ FIN":     "BAJFINANCE",
	"L&T":           "LT",
	"TATA MOTORS":   "TATAMOTORS",
	"TATA STEEL":    "TATASTEEL",
	"HCL TECH":      "HCLTECH",
	"KOTAK":         "KOTAKBANK",
	"AXIS BANK":     "AXISBANK",
	"SUN PHARMA":    "SUNPHARMA",
	"ASIAN PAINTS":  "ASIANPAINT",
	"NESTLE":        "NESTLEIND",
	"ULTRATECH":     "ULTRACEMCO",
	"TECH MAHINDRA": "TECHM",
	"MAHINDRA":      "M&M",
	"HUL":           "HINDUNILVR",
	"COAL INDIA":    "COALINDIA",
}

// NormalizeSymbol uppercases and trims a user-entered symbol, strips a "$"
// prefix and any Yahoo suffix, and resolves well-known aliases.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	symbol = strings.TrimPrefix(symbol, "$")
	symbol = strings.TrimSuffix(symbol, ".NS")
	symbol = strings.TrimSuffix(symbol, ".BO")

	if canonical, ok := symbolAliases[symbol]; ok {
		return canonical
	}
	return symbol
}

// YahooTicker converts a symbol to Yahoo Finance format, e.g. "TCS" on NSE
// becomes "TCS.NS" and on BSE "TCS.BO".
func YahooTicker(symbol string, exchange models.Exchange) string {
	return NormalizeSymbol(symbol) + "." + exchange.Code()
}

// GoogleTicker converts a symbol to the Google Finance quote path segment.
// Valuation pages are always looked up on the primary market.
func GoogleTicker(symbol string) string {
	return NormalizeSymbol(symbol) + ":" + string(models.ExchangeNSE)
}
