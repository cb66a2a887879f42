package utils

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// tz database missing (scratch containers)
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

// TradingHoliday reports whether the date of t is an NSE trading holiday
// and returns its name.
func TradingHoliday(t time.Time) (string, bool) {
	name, ok := nseHolidays[t.In(IST).Format("2006-01-02")]
	return name, ok
}

// MarketStatus returns the current market status string.
func MarketStatus() string {
	return MarketStatusAt(NowIST())
}

// MarketStatusAt returns the market status label at t. The dashboard shows
// it next to the last-updated timestamp so stale prices outside market
// hours are not mistaken for a broken feed.
func MarketStatusAt(t time.Time) string {
	t = t.In(IST)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if holiday, ok := TradingHoliday(t); ok {
		return "CLOSED (" + holiday + ")"
	}

	day := func(h, m int) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), h, m, 0, 0, IST)
	}

	switch {
	case t.Before(day(9, 0)):
		return "PRE-MARKET"
	case t.Before(day(9, 15)):
		return "PRE-OPEN SESSION"
	case !t.After(day(15, 30)):
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// NSE trading holidays (update annually from the NSE circular).
var nseHolidays = map[string]string{
	"2026-01-26": "Republic Day",
	"2026-02-17": "Mahashivratri",
	"2026-03-10": "Holi",
	"2026-03-30": "Id-ul-Fitr (Ramadan)",
	"2026-04-02": "Ram Navami",
	"2026-04-03": "Good Friday",
	"2026-04-14": "Dr. Ambedkar Jayanti",
	"2026-05-01": "Maharashtra Day",
	"2026-05-25": "Buddha Purnima",
	"2026-06-05": "Id-ul-Zuha (Bakri Id)",
	"2026-07-06": "Muharram",
	"2026-08-15": "Independence Day",
	"2026-08-18": "Parsi New Year",
	"2026-09-04": "Milad-un-Nabi",
	"2026-10-02": "Mahatma Gandhi Jayanti",
	"2026-10-20": "Dussehra",
	"2026-11-09": "Diwali (Laxmi Pujan)",
	"2026-11-10": "Diwali (Balipratipada)",
	"2026-11-30": "Guru Nanak Jayanti",
	"2026-12-25": "Christmas",
}
