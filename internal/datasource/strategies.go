package datasource

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractionStrategy pulls one candidate value out of a parsed quote page.
// Strategies are tried in rank order; the first accepted value wins.
type ExtractionStrategy interface {
	Name() string
	Extract(doc *goquery.Document) (string, bool)
}

// Field is one value to extract together with its ranked strategies.
type Field struct {
	Name       string
	Strategies []ExtractionStrategy
	Accept     func(float64) bool
}

// Extract runs the strategies in order and returns the first value that
// parses and is accepted, along with the name of the strategy that matched.
func (f Field) Extract(doc *goquery.Document) (float64, string, bool) {
	for _, s := range f.Strategies {
		raw, ok := s.Extract(doc)
		if !ok {
			continue
		}
		v, ok := parseNumber(raw)
		if !ok {
			continue
		}
		if f.Accept != nil && !f.Accept(v) {
			continue
		}
		return v, s.Name(), true
	}
	return 0, "", false
}

// SelectorStrategy reads the text of the first element matching a CSS selector.
type SelectorStrategy struct {
	Selector string
}

func (s SelectorStrategy) Name() string { return "selector " + s.Selector }

func (s SelectorStrategy) Extract(doc *goquery.Document) (string, bool) {
	text := strings.TrimSpace(doc.Find(s.Selector).First().Text())
	return text, text != ""
}

// RowStrategy reads a key-stats row: a container holding a label element
// and a value element, as laid out on quote pages.
type RowStrategy struct {
	Row    string
	Label  string
	Value  string
	Labels []string
}

func (s RowStrategy) Name() string { return "row " + s.Row }

func (s RowStrategy) Extract(doc *goquery.Document) (string, bool) {
	var out string
	doc.Find(s.Row).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !containsAnyFold(row.Find(s.Label).First().Text(), s.Labels) {
			return true
		}
		out = strings.TrimSpace(row.Find(s.Value).First().Text())
		return out == ""
	})
	return out, out != ""
}

// SiblingStrategy finds a leaf element whose text is one of the labels and
// reads the element that follows it.
type SiblingStrategy struct {
	Labels []string
}

func (s SiblingStrategy) Name() string { return "sibling" }

func (s SiblingStrategy) Extract(doc *goquery.Document) (string, bool) {
	var out string
	doc.Find("div, span, td, dt").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Children().Length() > 0 || !containsAnyFold(sel.Text(), s.Labels) {
			return true
		}
		out = strings.TrimSpace(sel.Next().Text())
		return out == ""
	})
	return out, out != ""
}

// PatternStrategy scans leaf divs whose text matches Label and takes the
// first number in that text. Values outside (Min, Max) are ignored when
// Max is set.
type PatternStrategy struct {
	Label *regexp.Regexp
	Min   float64
	Max   float64
}

var firstNumber = regexp.MustCompile(`(\d+\.?\d*)`)

func (s PatternStrategy) Name() string { return "pattern " + s.Label.String() }

func (s PatternStrategy) Extract(doc *goquery.Document) (string, bool) {
	var out string
	doc.Find("div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Find("div").Length() > 0 {
			return true
		}
		text := strings.TrimSpace(sel.Text())
		if !s.Label.MatchString(text) {
			return true
		}
		// The label itself may contain digits, so search after it.
		loc := s.Label.FindStringIndex(text)
		m := firstNumber.FindString(text[loc[1]:])
		if m == "" {
			return true
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || (s.Max > 0 && (v <= s.Min || v >= s.Max)) {
			return true
		}
		out = m
		return false
	})
	return out, out != ""
}

// --- Ranked strategy lists ---

// PERatioField extracts the price-to-earnings ratio. Non-positive values are rejected.
func PERatioField() Field {
	labels := []string{"P/E ratio", "PE ratio"}
	return Field{
		Name: "peRatio",
		Strategies: []ExtractionStrategy{
			SelectorStrategy{Selector: `[data-test-id="PE ratio"]`},
			SelectorStrategy{Selector: `[aria-label*="PE ratio"]`},
			RowStrategy{Row: ".gyFHrc", Label: ".mfs7Fc", Value: ".P6K39c", Labels: labels},
			SiblingStrategy{Labels: labels},
			PatternStrategy{Label: regexp.MustCompile(`(?i)P/E|PE.*ratio`), Min: 0, Max: 100},
		},
		Accept: func(v float64) bool { return v > 0 },
	}
}

// EarningsField extracts trailing earnings per share.
func EarningsField() Field {
	labels := []string{"EPS", "Earnings per share"}
	return Field{
		Name: "earnings",
		Strategies: []ExtractionStrategy{
			SelectorStrategy{Selector: `[data-test-id="EPS (TTM)"]`},
			SelectorStrategy{Selector: `[aria-label*="EPS"]`},
			RowStrategy{Row: ".gyFHrc", Label: ".mfs7Fc", Value: ".P6K39c", Labels: labels},
			SiblingStrategy{Labels: labels},
			PatternStrategy{Label: regexp.MustCompile(`(?i)EPS|earnings.*share`)},
		},
	}
}

// --- Helpers ---

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// parseNumber parses a displayed number such as "₹1,234.56" or "24.3x".
// Placeholders like "-" and "N/A" are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || strings.EqualFold(s, "N/A") {
		return 0, false
	}
	v, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(s, ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func containsAnyFold(text string, labels []string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, l := range labels {
		if strings.Contains(text, strings.ToLower(l)) {
			return true
		}
	}
	return false
}
