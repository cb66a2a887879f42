package utils

import "testing"

func TestFormatINR(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "₹0.00"},
		{100, "₹100.00"},
		{1000, "₹1,000.00"},
		{12345, "₹12,345.00"},
		{123456, "₹1,23,456.00"},
		{1234567, "₹12,34,567.00"},
		{123456789, "₹12,34,56,789.00"},
		{2847.50, "₹2,847.50"},
		{-1234.56, "-₹1,234.56"},
		{32000, "₹32,000.00"},
		{99.999, "₹100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatINR(tt.input)
			if result != tt.expected {
				t.Errorf("FormatINR(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatSignedINR(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{1000, "+₹1,000.00"},
		{-1000, "-₹1,000.00"},
		{0, "₹0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatSignedINR(tt.input); got != tt.expected {
				t.Errorf("FormatSignedINR(%f) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatINRCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "₹500.00"},
		{100000, "₹1 L"},
		{1500000, "₹15 L"},
		{10000000, "₹1 Cr"},
		{192734500000, "₹19273.45 Cr"},
		{1000000000000, "₹1 L Cr"},
		{-250000, "-₹2.5 L"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatINRCompact(tt.input)
			if result != tt.expected {
				t.Errorf("FormatINRCompact(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45%"},
		{-1.23, "-1.23%"},
		{0.0, "+0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatPct(tt.input)
			if result != tt.expected {
				t.Errorf("FormatPct(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestEarningsLabel(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{45.671, "₹45.67 (TTM)"},
		{45.675, "₹45.68 (TTM)"},
		{0, "₹0.00 (TTM)"},
		{1234.5, "₹1,234.50 (TTM)"},
		{-3.2, "-₹3.20 (TTM)"},
	}
	for _, tt := range tests {
		got := EarningsLabel(tt.input)
		if got != tt.expected {
			t.Errorf("EarningsLabel(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
