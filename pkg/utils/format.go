// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
)

// NotAvailable is shown for quote depth fields the provider left empty.
const NotAvailable = "N/A"

// FormatPrice formats a price with two decimal places.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f", price)
}

// FormatPercent formats a percentage with two decimal places and a % suffix.
// No sign is added; negative values keep their minus.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

// FormatQuotePrice formats bid/ask style prices, which providers report as zero
// when there is no book.
func FormatQuotePrice(price float64) string {
	if price == 0 {
		return NotAvailable
	}
	return FormatPrice(price)
}

// ChangePercent returns (price - base) / base * 100, or 0 when base is not positive.
func ChangePercent(price, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (price - base) / base * 100
}

// StripExchangeSuffix removes a foreign exchange suffix from a symbol,
// e.g. Apple in Frankfurt: APC.F -> APC.
func StripExchangeSuffix(symbol string) string {
	if i := strings.Index(symbol, "."); i >= 0 {
		return symbol[:i]
	}
	return symbol
}
